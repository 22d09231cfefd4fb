package handler

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/pavelanni/examforge/internal/handler/views"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/normalize"
	"github.com/pavelanni/examforge/internal/store"
)

func (h *Handler) coursesData(r *http.Request) (views.CoursesData, error) {
	courses, err := h.store.ListCourses()
	if err != nil {
		return views.CoursesData{}, fmt.Errorf("list courses: %w", err)
	}
	chapters, err := h.store.ListChapters(0)
	if err != nil {
		return views.CoursesData{}, fmt.Errorf("list chapters: %w", err)
	}
	return views.CoursesData{Courses: courses, Chapters: chapters, Flash: flashFromQuery(r)}, nil
}

func (h *Handler) renderCourses(w http.ResponseWriter, r *http.Request, status int, flash *views.Flash) {
	data, err := h.coursesData(r)
	if err != nil {
		serverError(w, "failed to load courses", err)
		return
	}
	if flash != nil {
		data.Flash = flash
	}
	render(w, r, status, views.CoursesPage(data))
}

func (h *Handler) handleCoursesPage(w http.ResponseWriter, r *http.Request) {
	h.renderCourses(w, r, http.StatusOK, nil)
}

func (h *Handler) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		h.renderCourses(w, r, http.StatusBadRequest, errorFlash(r.Context(), "ErrTitleRequired"))
		return
	}
	_, err := h.store.CreateCourse(model.Course{
		Title:       title,
		Description: strings.TrimSpace(r.FormValue("description")),
		CreatedBy:   currentUserID(r),
	})
	if err != nil {
		serverError(w, "failed to create course", err)
		return
	}
	h.redirect(w, r, "/courses", "FlashCourseSaved")
}

func (h *Handler) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "courseID")
	if !ok {
		http.Error(w, "invalid course ID", http.StatusBadRequest)
		return
	}
	c, err := h.store.GetCourse(id)
	if err != nil {
		serverError(w, "failed to get course", err)
		return
	}
	if c == nil {
		http.NotFound(w, r)
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		h.renderCourses(w, r, http.StatusBadRequest, errorFlash(r.Context(), "ErrTitleRequired"))
		return
	}
	c.Title = title
	c.Description = strings.TrimSpace(r.FormValue("description"))
	if err := h.store.UpdateCourse(*c); err != nil {
		serverError(w, "failed to update course", err)
		return
	}
	h.redirect(w, r, "/courses", "FlashCourseSaved")
}

func (h *Handler) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "courseID")
	if !ok {
		http.Error(w, "invalid course ID", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteCourse(id); err != nil {
		serverError(w, "failed to delete course", err)
		return
	}
	h.redirect(w, r, "/courses", "FlashCourseDeleted")
}

func (h *Handler) handleCreateChapter(w http.ResponseWriter, r *http.Request) {
	courseID := formID(r, "course_id")
	c, err := h.store.GetCourse(courseID)
	if err != nil {
		serverError(w, "failed to get course", err)
		return
	}
	if c == nil {
		http.Error(w, "course not found", http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		h.renderCourses(w, r, http.StatusBadRequest, errorFlash(r.Context(), "ErrTitleRequired"))
		return
	}
	_, err = h.store.CreateChapter(model.Chapter{
		CourseID: courseID,
		Title:    title,
		Summary:  strings.TrimSpace(r.FormValue("summary")),
		ILOs:     strings.TrimSpace(r.FormValue("ilos")),
	})
	if err != nil {
		serverError(w, "failed to create chapter", err)
		return
	}
	h.redirect(w, r, "/courses", "FlashChapterSaved")
}

func (h *Handler) handleUpdateChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "chapterID")
	if !ok {
		http.Error(w, "invalid chapter ID", http.StatusBadRequest)
		return
	}
	ch, err := h.store.GetChapter(id)
	if err != nil {
		serverError(w, "failed to get chapter", err)
		return
	}
	if ch == nil {
		http.NotFound(w, r)
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		h.renderCourses(w, r, http.StatusBadRequest, errorFlash(r.Context(), "ErrTitleRequired"))
		return
	}
	ch.Title = title
	ch.Summary = strings.TrimSpace(r.FormValue("summary"))
	ch.ILOs = strings.TrimSpace(r.FormValue("ilos"))
	if err := h.store.UpdateChapter(*ch); err != nil {
		serverError(w, "failed to update chapter", err)
		return
	}
	h.redirect(w, r, "/courses", "FlashChapterSaved")
}

func (h *Handler) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "chapterID")
	if !ok {
		http.Error(w, "invalid chapter ID", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteChapter(id); err != nil {
		serverError(w, "failed to delete chapter", err)
		return
	}
	h.redirect(w, r, "/courses", "FlashChapterDeleted")
}

func defaultQuestionForm() views.QuestionForm {
	return views.QuestionForm{
		QuestionType:  model.TypeMultipleChoice,
		Options:       make([]string, model.NumOptions),
		Difficulty:    normalize.DefaultDifficulty,
		EstimatedTime: normalize.DefaultEstimatedTime,
		StudentLevel:  model.LevelIntermediate,
	}
}

// parseQuestionForm reads the shared question form. With judgments it also
// reads the instructor's difficulty, time and level. The returned string is
// the message key of the first problem found, or empty.
func parseQuestionForm(r *http.Request, judgments bool) (views.QuestionForm, string) {
	f := defaultQuestionForm()
	f.ChapterID = formID(r, "chapter_id")
	f.Content = strings.TrimSpace(r.FormValue("content"))
	f.QuestionType = model.QuestionType(r.FormValue("question_type"))
	f.CorrectAnswer = strings.TrimSpace(r.FormValue("correct_answer"))
	f.Explanation = strings.TrimSpace(r.FormValue("explanation"))
	f.Tags = strings.TrimSpace(r.FormValue("tags"))
	for i, o := range r.Form["option"] {
		if i < model.NumOptions {
			f.Options[i] = strings.TrimSpace(o)
		}
	}

	if judgments {
		d, err := strconv.ParseFloat(r.FormValue("difficulty"), 64)
		if err != nil || !validDifficulty(d) {
			return f, "ErrDifficultyRange"
		}
		f.Difficulty = d
		m, err := strconv.Atoi(r.FormValue("estimated_time"))
		if err != nil || m < 1 {
			return f, "ErrTimeRange"
		}
		f.EstimatedTime = m
		f.StudentLevel = model.StudentLevel(r.FormValue("student_level"))
		if !validLevel(f.StudentLevel) {
			return f, "ErrInvalidLevel"
		}
	}

	switch {
	case f.Content == "":
		return f, "ErrContentRequired"
	case !model.IsValidQuestionType(string(f.QuestionType)):
		return f, "ErrInvalidType"
	case f.QuestionType == model.TypeMultipleChoice && !validOptions(f.Options):
		return f, "ErrMCOptions"
	case f.CorrectAnswer == "" && f.QuestionType != model.TypeEssay:
		return f, "ErrAnswerRequired"
	}
	return f, ""
}

// validOptions reports whether opts are exactly four non-empty options
// labeled "A. " through "D. " in order.
func validOptions(opts []string) bool {
	if len(opts) != model.NumOptions {
		return false
	}
	for i, o := range opts {
		label := model.OptionLabel(i)
		if !strings.HasPrefix(o, label) || strings.TrimSpace(strings.TrimPrefix(o, label)) == "" {
			return false
		}
	}
	return true
}

// validDifficulty accepts 1 to 5 in steps of 0.5.
func validDifficulty(d float64) bool {
	if d < normalize.MinDifficulty || d > normalize.MaxDifficulty {
		return false
	}
	return math.Mod(d*2, 1) == 0
}

func validLevel(l model.StudentLevel) bool {
	for _, s := range model.StudentLevels {
		if s == l {
			return true
		}
	}
	return false
}

func questionFromForm(f views.QuestionForm) model.Question {
	var opts []string
	if f.QuestionType == model.TypeMultipleChoice {
		opts = f.Options
	}
	return model.Question{
		ChapterID:     f.ChapterID,
		Content:       f.Content,
		QuestionType:  f.QuestionType,
		CorrectAnswer: model.EncodeAnswer(f.QuestionType, f.CorrectAnswer, opts),
		Explanation:   f.Explanation,
		Difficulty:    f.Difficulty,
		EstimatedTime: f.EstimatedTime,
		StudentLevel:  f.StudentLevel,
		Tags:          f.Tags,
	}
}

func formFromQuestion(q model.Question) views.QuestionForm {
	answer, opts := model.DecodeAnswer(q.QuestionType, q.CorrectAnswer)
	f := views.QuestionForm{
		ChapterID:     q.ChapterID,
		Content:       q.Content,
		QuestionType:  q.QuestionType,
		CorrectAnswer: answer,
		Options:       make([]string, model.NumOptions),
		Explanation:   q.Explanation,
		Difficulty:    q.Difficulty,
		EstimatedTime: q.EstimatedTime,
		StudentLevel:  q.StudentLevel,
		Tags:          q.Tags,
	}
	copy(f.Options, opts)
	return f
}

func (h *Handler) renderQuestions(w http.ResponseWriter, r *http.Request, status int, chapterID int64, form views.QuestionForm, flash *views.Flash) {
	chapters, err := h.store.ListChapters(0)
	if err != nil {
		serverError(w, "failed to list chapters", err)
		return
	}
	questions, err := h.store.ListQuestions(store.QuestionFilter{ChapterID: chapterID})
	if err != nil {
		serverError(w, "failed to list questions", err)
		return
	}
	if form.ChapterID == 0 {
		form.ChapterID = chapterID
	}
	render(w, r, status, views.QuestionsPage(views.QuestionsData{
		Chapters:  chapters,
		ChapterID: chapterID,
		Questions: questions,
		Form:      form,
		Flash:     flash,
	}))
}

func (h *Handler) handleQuestionsPage(w http.ResponseWriter, r *http.Request) {
	chapterID, _ := strconv.ParseInt(r.URL.Query().Get("chapter"), 10, 64)
	h.renderQuestions(w, r, http.StatusOK, chapterID, defaultQuestionForm(), flashFromQuery(r))
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	f, problem := parseQuestionForm(r, true)
	if problem == "" {
		ch, err := h.store.GetChapter(f.ChapterID)
		if err != nil {
			serverError(w, "failed to get chapter", err)
			return
		}
		if ch == nil {
			problem = "ErrChapterNotFound"
		}
	}
	if problem != "" {
		h.renderQuestions(w, r, http.StatusBadRequest, f.ChapterID, f, errorFlash(r.Context(), problem))
		return
	}

	q := questionFromForm(f)
	q.Source = model.SourceManual
	q.CreatedBy = currentUserID(r)
	if _, err := h.store.InsertQuestion(q); err != nil {
		serverError(w, "failed to insert question", err)
		return
	}
	h.redirect(w, r, fmt.Sprintf("/questions?chapter=%d", f.ChapterID), "FlashQuestionSaved")
}

func (h *Handler) handleEditQuestionPage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "questionID")
	if !ok {
		http.Error(w, "invalid question ID", http.StatusBadRequest)
		return
	}
	q, err := h.store.GetQuestion(id)
	if err != nil {
		serverError(w, "failed to get question", err)
		return
	}
	if q == nil {
		http.NotFound(w, r)
		return
	}
	render(w, r, http.StatusOK, views.EditQuestionPage(views.EditQuestionData{
		Question: *q,
		Form:     formFromQuestion(*q),
		Flash:    flashFromQuery(r),
	}))
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "questionID")
	if !ok {
		http.Error(w, "invalid question ID", http.StatusBadRequest)
		return
	}
	existing, err := h.store.GetQuestion(id)
	if err != nil {
		serverError(w, "failed to get question", err)
		return
	}
	if existing == nil {
		http.NotFound(w, r)
		return
	}

	f, problem := parseQuestionForm(r, true)
	f.ChapterID = existing.ChapterID
	if problem != "" {
		render(w, r, http.StatusBadRequest, views.EditQuestionPage(views.EditQuestionData{
			Question: *existing,
			Form:     f,
			Flash:    errorFlash(r.Context(), problem),
		}))
		return
	}

	q := questionFromForm(f)
	q.ID = existing.ID
	if err := h.store.UpdateQuestion(q); err != nil {
		serverError(w, "failed to update question", err)
		return
	}
	slog.Info("updated question", "id", id)
	h.redirect(w, r, fmt.Sprintf("/questions?chapter=%d", existing.ChapterID), "FlashQuestionSaved")
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "questionID")
	if !ok {
		http.Error(w, "invalid question ID", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteQuestion(id); err != nil {
		serverError(w, "failed to delete question", err)
		return
	}
	h.redirect(w, r, "/questions", "FlashQuestionDeleted")
}
