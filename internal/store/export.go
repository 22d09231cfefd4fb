package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/examforge/internal/model"
)

// ExportBank builds the full question bank: every course with its chapters
// and their questions, multiple choice options decoded.
func (s *Store) ExportBank() (model.BankExport, error) {
	export := model.BankExport{ExportedAt: time.Now().UTC()}

	courses, err := s.ListCourses()
	if err != nil {
		return export, fmt.Errorf("list courses: %w", err)
	}
	chapters, err := s.ListChapters(0)
	if err != nil {
		return export, fmt.Errorf("list chapters: %w", err)
	}
	questions, err := s.ListQuestions(QuestionFilter{})
	if err != nil {
		return export, fmt.Errorf("list questions: %w", err)
	}

	byChapter := make(map[int64][]model.QuestionExport)
	for _, v := range questions {
		q := v.Question
		answer, options := model.DecodeAnswer(q.QuestionType, q.CorrectAnswer)
		byChapter[q.ChapterID] = append(byChapter[q.ChapterID], model.QuestionExport{
			Content:       q.Content,
			QuestionType:  q.QuestionType,
			CorrectAnswer: answer,
			Options:       options,
			Explanation:   q.Explanation,
			Difficulty:    q.Difficulty,
			EstimatedTime: q.EstimatedTime,
			StudentLevel:  q.StudentLevel,
			Tags:          q.Tags,
			Source:        q.Source,
			CreatedBy:     v.CreatorName,
			CreatedAt:     q.CreatedAt,
		})
	}

	byCourse := make(map[int64][]model.ChapterExport)
	for _, cv := range chapters {
		ch := cv.Chapter
		byCourse[ch.CourseID] = append(byCourse[ch.CourseID], model.ChapterExport{
			Title:     ch.Title,
			Summary:   ch.Summary,
			ILOs:      ch.ILOs,
			Questions: byChapter[ch.ID],
		})
	}

	for _, c := range courses {
		export.Courses = append(export.Courses, model.CourseExport{
			Title:       c.Title,
			Description: c.Description,
			Chapters:    byCourse[c.ID],
		})
	}
	return export, nil
}
