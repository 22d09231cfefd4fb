package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/examforge/internal/model"
)

const questionColumns = `q.id, q.chapter_id, q.content, q.question_type, q.correct_answer, q.explanation,
	q.difficulty, q.estimated_time, q.student_level, q.tags, q.source, q.batch_id, q.created_by,
	q.created_at, q.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner, extra ...any) (model.Question, error) {
	var q model.Question
	var createdBy sql.NullInt64
	dest := []any{
		&q.ID, &q.ChapterID, &q.Content, &q.QuestionType, &q.CorrectAnswer, &q.Explanation,
		&q.Difficulty, &q.EstimatedTime, &q.StudentLevel, &q.Tags, &q.Source, &q.BatchID, &createdBy,
		&q.CreatedAt, &q.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return q, err
	}
	q.CreatedBy = idPtr(createdBy)
	return q, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertQuestion(db execer, q model.Question, now time.Time) (int64, error) {
	if q.Source == "" {
		q.Source = model.SourceManual
	}
	res, err := db.Exec(
		`INSERT INTO questions (chapter_id, content, question_type, correct_answer, explanation,
			difficulty, estimated_time, student_level, tags, source, batch_id, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ChapterID, q.Content, q.QuestionType, q.CorrectAnswer, q.Explanation,
		q.Difficulty, q.EstimatedTime, q.StudentLevel, q.Tags, q.Source, q.BatchID, nullableID(q.CreatedBy), now, now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertQuestion stores a question.
func (s *Store) InsertQuestion(q model.Question) (int64, error) {
	id, err := insertQuestion(s.db, q, time.Now())
	if err != nil {
		slog.Error("failed to insert question", "chapter_id", q.ChapterID, "error", err)
		return 0, err
	}
	slog.Info("inserted question", "id", id, "chapter_id", q.ChapterID, "source", q.Source)
	return id, nil
}

// InsertQuestions stores a batch of questions in one transaction.
func (s *Store) InsertQuestions(qs []model.Question) ([]int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	ids := make([]int64, 0, len(qs))
	for i, q := range qs {
		id, err := insertQuestion(tx, q, now)
		if err != nil {
			return nil, fmt.Errorf("insert question %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	slog.Info("inserted questions", "count", len(ids))
	return ids, nil
}

// GetQuestion returns a question by ID, or nil if it does not exist.
func (s *Store) GetQuestion(id int64) (*model.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(`SELECT `+questionColumns+` FROM questions q WHERE q.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateQuestion overwrites the editable fields of a question.
func (s *Store) UpdateQuestion(q model.Question) error {
	_, err := s.db.Exec(
		`UPDATE questions SET content = ?, question_type = ?, correct_answer = ?, explanation = ?,
			difficulty = ?, estimated_time = ?, student_level = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		q.Content, q.QuestionType, q.CorrectAnswer, q.Explanation,
		q.Difficulty, q.EstimatedTime, q.StudentLevel, q.Tags, time.Now(), q.ID,
	)
	return err
}

// DeleteQuestion removes a question.
func (s *Store) DeleteQuestion(id int64) error {
	_, err := s.db.Exec(`DELETE FROM questions WHERE id = ?`, id)
	if err == nil {
		slog.Info("deleted question", "id", id)
	}
	return err
}

// QuestionFilter narrows ListQuestions. Zero values mean no filtering.
type QuestionFilter struct {
	CourseID  int64
	ChapterID int64
	Source    model.QuestionSource
	// AIOnly keeps questions that came from the analyze or generate flows.
	AIOnly bool
}

// ListQuestions returns questions with their chapter, course and creator,
// ordered by course, chapter and insertion.
func (s *Store) ListQuestions(f QuestionFilter) ([]model.QuestionView, error) {
	query := `SELECT ` + questionColumns + `, ch.title, c.title, COALESCE(u.display_name, '')
		FROM questions q
		JOIN chapters ch ON ch.id = q.chapter_id
		JOIN courses c ON c.id = ch.course_id
		LEFT JOIN users u ON u.id = q.created_by
		WHERE 1=1`
	var args []any
	if f.CourseID != 0 {
		query += ` AND c.id = ?`
		args = append(args, f.CourseID)
	}
	if f.ChapterID != 0 {
		query += ` AND q.chapter_id = ?`
		args = append(args, f.ChapterID)
	}
	if f.Source != "" {
		query += ` AND q.source = ?`
		args = append(args, f.Source)
	}
	if f.AIOnly {
		query += ` AND q.source IN (?, ?)`
		args = append(args, model.SourceAnalyzed, model.SourceGenerated)
	}
	query += ` ORDER BY c.title, ch.id, q.id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.QuestionView
	for rows.Next() {
		var v model.QuestionView
		q, err := scanQuestion(rows, &v.ChapterTitle, &v.CourseTitle, &v.CreatorName)
		if err != nil {
			return nil, err
		}
		v.Question = q
		out = append(out, v)
	}
	return out, rows.Err()
}

// ExampleQuestions returns up to limit question texts from a chapter, oldest
// first, for use as generation examples.
func (s *Store) ExampleQuestions(chapterID int64, limit int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT content FROM questions WHERE chapter_id = ? ORDER BY id LIMIT ?`, chapterID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// QuestionContext assembles the prompt context of a chapter. It returns nil
// if the chapter does not exist.
func (s *Store) QuestionContext(chapterID int64) (*model.QuestionContext, error) {
	var qc model.QuestionContext
	err := s.db.QueryRow(
		`SELECT c.title, ch.title, ch.summary, ch.ilos
		 FROM chapters ch JOIN courses c ON c.id = ch.course_id WHERE ch.id = ?`, chapterID,
	).Scan(&qc.CourseTitle, &qc.ChapterTitle, &qc.ChapterSummary, &qc.ILOs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &qc, nil
}

// QuestionCount returns the total number of questions.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}
