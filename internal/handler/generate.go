package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/pavelanni/examforge/internal/generator"
	"github.com/pavelanni/examforge/internal/handler/views"
	"github.com/pavelanni/examforge/internal/llm"
	"github.com/pavelanni/examforge/internal/llm/prompts"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/normalize"
)

func (h *Handler) defaultGenerateForm() views.GenerateForm {
	m, err := llm.ParseModel(h.config.DefaultModel)
	if err != nil {
		m = llm.ModelLlama8B
	}
	return views.GenerateForm{
		NumQuestions:    generator.DefaultQuestions,
		DifficultyLevel: generator.DifficultyMedium,
		QuestionTypes:   generator.DefaultTypes,
		Model:           m,
	}
}

func (h *Handler) renderGenerate(w http.ResponseWriter, r *http.Request, status int, data views.GenerateData) {
	chapters, err := h.store.ListChapters(0)
	if err != nil {
		serverError(w, "failed to list chapters", err)
		return
	}
	data.Chapters = chapters
	data.Models = llm.Models()
	data.DifficultyLevels = generator.DifficultyLevels
	data.MaxQuestions = generator.MaxQuestions
	render(w, r, status, views.GeneratePage(data))
}

func (h *Handler) handleGeneratePage(w http.ResponseWriter, r *http.Request) {
	h.renderGenerate(w, r, http.StatusOK, views.GenerateData{Form: h.defaultGenerateForm()})
}

func parseGenerateForm(r *http.Request) views.GenerateForm {
	f := views.GenerateForm{
		ChapterID:       formID(r, "chapter_id"),
		DifficultyLevel: r.FormValue("difficulty_level"),
		Model:           llm.ModelID(r.FormValue("model")),
	}
	f.NumQuestions, _ = strconv.Atoi(r.FormValue("num_questions"))
	for _, t := range r.Form["question_type"] {
		f.QuestionTypes = append(f.QuestionTypes, model.QuestionType(t))
	}
	return f
}

// handleGenerate runs one generation call and shows the batch for review.
// The batch travels to the save request in a hidden form field.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	f := parseGenerateForm(r)
	data := views.GenerateData{Form: f}

	qc, err := h.store.QuestionContext(f.ChapterID)
	if err != nil {
		serverError(w, "failed to load chapter context", err)
		return
	}
	if qc == nil {
		data.Flash = errorFlash(r.Context(), "ErrChapterNotFound")
		h.renderGenerate(w, r, http.StatusBadRequest, data)
		return
	}
	examples, err := h.store.ExampleQuestions(f.ChapterID, prompts.MaxExamples)
	if err != nil {
		serverError(w, "failed to load example questions", err)
		return
	}
	qc.ExampleQuestions = examples

	req := generator.Request{
		Context:         *qc,
		NumQuestions:    f.NumQuestions,
		DifficultyLevel: f.DifficultyLevel,
		QuestionTypes:   f.QuestionTypes,
		Model:           f.Model,
	}
	if err := req.Validate(); err != nil {
		data.Flash = errorFlashf(r.Context(), "ErrInvalidRequest", err)
		h.renderGenerate(w, r, http.StatusBadRequest, data)
		return
	}

	questions, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		slog.Error("generation failed", "chapter_id", f.ChapterID, "error", err)
		data.Flash = errorFlashf(r.Context(), "ErrGenerateFailed", err)
		h.renderGenerate(w, r, http.StatusBadGateway, data)
		return
	}
	if len(questions) == 0 {
		data.Flash = errorFlash(r.Context(), "ErrGenerateEmpty")
		h.renderGenerate(w, r, http.StatusOK, data)
		return
	}

	payload, err := json.Marshal(questions)
	if err != nil {
		serverError(w, "failed to encode generated batch", err)
		return
	}
	data.Questions = questions
	data.Payload = string(payload)
	h.renderGenerate(w, r, http.StatusOK, data)
}

// selectedQuestions returns the batch elements named by the select indices,
// in batch order. Out-of-range or repeated indices are ignored, as are
// elements with an unknown type or a multiple choice without four options.
func selectedQuestions(batch []model.GeneratedQuestion, selected []string) []model.GeneratedQuestion {
	picked := make([]bool, len(batch))
	for _, s := range selected {
		i, err := strconv.Atoi(s)
		if err == nil && i >= 0 && i < len(batch) {
			picked[i] = true
		}
	}
	var out []model.GeneratedQuestion
	for i, gq := range batch {
		if !picked[i] || !model.IsValidQuestionType(string(gq.QuestionType)) {
			continue
		}
		if gq.QuestionType == model.TypeMultipleChoice && len(gq.Options) != model.NumOptions {
			continue
		}
		out = append(out, gq)
	}
	return out
}

// handleSaveGenerated stores the reviewed subset of a generated batch. All
// questions saved together share one batch id.
func (h *Handler) handleSaveGenerated(w http.ResponseWriter, r *http.Request) {
	chapterID := formID(r, "chapter_id")
	form := h.defaultGenerateForm()
	form.ChapterID = chapterID

	var batch []model.GeneratedQuestion
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &batch); err != nil {
		slog.Warn("invalid generated batch payload", "error", err)
		h.renderGenerate(w, r, http.StatusBadRequest, views.GenerateData{
			Form:  form,
			Flash: errorFlash(r.Context(), "ErrInvalidPayload"),
		})
		return
	}

	ch, err := h.store.GetChapter(chapterID)
	if err != nil {
		serverError(w, "failed to get chapter", err)
		return
	}
	picked := selectedQuestions(batch, r.Form["select"])
	if ch == nil || len(picked) == 0 {
		key := "ErrNoneSelected"
		if ch == nil {
			key = "ErrChapterNotFound"
		}
		h.renderGenerate(w, r, http.StatusBadRequest, views.GenerateData{
			Form:      form,
			Questions: batch,
			Payload:   r.FormValue("payload"),
			Flash:     errorFlash(r.Context(), key),
		})
		return
	}

	batchID := uuid.NewString()
	createdBy := currentUserID(r)
	questions := make([]model.Question, 0, len(picked))
	for _, gq := range picked {
		q := gq.Question(chapterID, batchID, createdBy)
		q.Difficulty = normalize.ClampDifficulty(q.Difficulty)
		questions = append(questions, q)
	}
	if _, err := h.store.InsertQuestions(questions); err != nil {
		serverError(w, "failed to save generated questions", err)
		return
	}
	slog.Info("saved generated batch", "batch_id", batchID, "chapter_id", chapterID, "count", len(questions))
	h.redirect(w, r, fmt.Sprintf("/questions?chapter=%d", chapterID), "FlashBatchSaved", len(questions))
}

var _ Generator = (*generator.Generator)(nil)
