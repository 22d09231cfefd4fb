package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pavelanni/examforge/internal/compare"
	"github.com/pavelanni/examforge/internal/evaluator"
	"github.com/pavelanni/examforge/internal/handler/views"
	appI18n "github.com/pavelanni/examforge/internal/i18n"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/normalize"
	"github.com/pavelanni/examforge/internal/report"
	"github.com/pavelanni/examforge/internal/store"
)

// evaluationContent is the question text the model sees. Multiple choice
// options follow the stem, one per line.
func evaluationContent(content string, qt model.QuestionType, options []string) string {
	if qt != model.TypeMultipleChoice || len(options) == 0 {
		return content
	}
	return content + "\n" + strings.Join(options, "\n")
}

func (h *Handler) renderAnalyze(w http.ResponseWriter, r *http.Request, status int, data views.AnalyzeData) {
	chapters, err := h.store.ListChapters(0)
	if err != nil {
		serverError(w, "failed to list chapters", err)
		return
	}
	data.Chapters = chapters
	render(w, r, status, views.AnalyzePage(data))
}

func (h *Handler) handleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	h.renderAnalyze(w, r, http.StatusOK, views.AnalyzeData{Form: defaultQuestionForm()})
}

// handleAnalyze has the model rate the submitted question and stores it with
// the model's judgment. Nothing is stored when no analysis is available.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	f, problem := parseQuestionForm(r, false)
	if problem != "" {
		h.renderAnalyze(w, r, http.StatusBadRequest, views.AnalyzeData{Form: f, Flash: errorFlash(r.Context(), problem)})
		return
	}
	qc, err := h.store.QuestionContext(f.ChapterID)
	if err != nil {
		serverError(w, "failed to load chapter context", err)
		return
	}
	if qc == nil {
		h.renderAnalyze(w, r, http.StatusBadRequest, views.AnalyzeData{Form: f, Flash: errorFlash(r.Context(), "ErrChapterNotFound")})
		return
	}
	qc.QuestionType = f.QuestionType
	qc.QuestionContent = evaluationContent(f.Content, f.QuestionType, f.Options)

	analysis := h.evaluator.Evaluate(r.Context(), *qc)
	data := views.AnalyzeData{Form: f, Analysis: &analysis}
	if !analysis.Available() {
		slog.Warn("analysis unavailable", "chapter_id", f.ChapterID, "path", analysis.Path)
		h.renderAnalyze(w, r, http.StatusOK, data)
		return
	}

	difficulty := *analysis.Difficulty
	f.Difficulty = difficulty
	f.EstimatedTime = report.ExtractEstimatedTime(analysis.Report, normalize.DefaultEstimatedTime)
	f.StudentLevel = report.ExtractStudentLevel(analysis.Report, normalize.DefaultLevel)

	q := questionFromForm(f)
	q.Source = model.SourceAnalyzed
	q.CreatedBy = currentUserID(r)
	id, err := h.store.InsertQuestion(q)
	if err != nil {
		slog.Error("failed to save analyzed question", "error", err)
		data.Flash = errorFlash(r.Context(), "ErrSaveFailed")
		h.renderAnalyze(w, r, http.StatusInternalServerError, data)
		return
	}

	data.Form = f
	data.Colour = compare.Colour(difficulty)
	data.SavedID = id
	data.Flash = &views.Flash{Text: appI18n.T(r.Context(), "FlashQuestionSaved")}
	h.renderAnalyze(w, r, http.StatusOK, data)
}

func (h *Handler) compareData(selectedID int64) (views.CompareData, error) {
	questions, err := h.store.ListQuestions(store.QuestionFilter{})
	if err != nil {
		return views.CompareData{}, err
	}
	data := views.CompareData{Questions: questions}
	for i := range questions {
		if questions[i].Question.ID == selectedID {
			data.Selected = &questions[i]
			break
		}
	}
	return data, nil
}

func (h *Handler) handleComparePage(w http.ResponseWriter, r *http.Request) {
	selected, _ := strconv.ParseInt(r.URL.Query().Get("question"), 10, 64)
	data, err := h.compareData(selected)
	if err != nil {
		serverError(w, "failed to list questions", err)
		return
	}
	render(w, r, http.StatusOK, views.ComparePage(data))
}

// handleCompare re-evaluates a stored question and sets the model's
// judgment against the stored one.
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	data, err := h.compareData(formID(r, "question_id"))
	if err != nil {
		serverError(w, "failed to list questions", err)
		return
	}
	if data.Selected == nil {
		data.Flash = errorFlash(r.Context(), "ErrQuestionNotFound")
		render(w, r, http.StatusBadRequest, views.ComparePage(data))
		return
	}

	q := data.Selected.Question
	qc, err := h.store.QuestionContext(q.ChapterID)
	if err != nil {
		serverError(w, "failed to load chapter context", err)
		return
	}
	if qc == nil {
		http.NotFound(w, r)
		return
	}
	_, options := model.DecodeAnswer(q.QuestionType, q.CorrectAnswer)
	qc.QuestionType = q.QuestionType
	qc.QuestionContent = evaluationContent(q.Content, q.QuestionType, options)

	analysis := h.evaluator.Evaluate(r.Context(), *qc)
	data.Analysis = &analysis
	if analysis.Available() {
		llmJudgment := compare.FromReport(*analysis.Difficulty, analysis.Report)
		cmp := compare.Compare(compare.FromQuestion(q), llmJudgment)
		data.Comparison = &cmp
		slog.Info("compared question", "id", q.ID,
			"instructor", q.Difficulty, "model", llmJudgment.Difficulty,
			"percent", cmp.DifficultyPercent, "direction", cmp.DifficultyDirection)
	}
	render(w, r, http.StatusOK, views.ComparePage(data))
}

var _ Evaluator = (*evaluator.Evaluator)(nil)
