package handler

import (
	"net/http"
	"strconv"

	"github.com/pavelanni/examforge/internal/handler/views"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/store"
)

// groupByChapter splits an ordered question listing into per-chapter
// sections, keeping the listing order.
func groupByChapter(questions []model.QuestionView) []views.ExamChapter {
	var out []views.ExamChapter
	index := make(map[int64]int)
	for _, v := range questions {
		i, ok := index[v.Question.ChapterID]
		if !ok {
			i = len(out)
			index[v.Question.ChapterID] = i
			out = append(out, views.ExamChapter{CourseTitle: v.CourseTitle, ChapterTitle: v.ChapterTitle})
		}
		out[i].Questions = append(out[i].Questions, v)
		out[i].TotalMinutes += v.Question.EstimatedTime
	}
	return out
}

// handleExam lists questions as an exam paper, optionally restricted to one
// course. The AI listing keeps analyzed and generated questions only and
// shows who created each one.
func (h *Handler) handleExam(ai bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, _ := strconv.ParseInt(r.URL.Query().Get("course"), 10, 64)
		courses, err := h.store.ListCourses()
		if err != nil {
			serverError(w, "failed to list courses", err)
			return
		}
		questions, err := h.store.ListQuestions(store.QuestionFilter{CourseID: courseID, AIOnly: ai})
		if err != nil {
			serverError(w, "failed to list questions", err)
			return
		}

		data := views.ExamData{
			AI:       ai,
			Courses:  courses,
			CourseID: courseID,
			Chapters: groupByChapter(questions),
			Total:    len(questions),
		}
		for _, ch := range data.Chapters {
			data.TotalTime += ch.TotalMinutes
		}
		render(w, r, http.StatusOK, views.ExamPage(data))
	}
}
