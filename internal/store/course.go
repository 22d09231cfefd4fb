package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/pavelanni/examforge/internal/model"
)

// CreateCourse inserts a course.
func (s *Store) CreateCourse(c model.Course) (int64, error) {
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO courses (title, description, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.Title, c.Description, nullableID(c.CreatedBy), now, now,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created course", "id", id, "title", c.Title)
	return id, nil
}

// GetCourse returns a course by ID, or nil if it does not exist.
func (s *Store) GetCourse(id int64) (*model.Course, error) {
	var c model.Course
	var createdBy sql.NullInt64
	err := s.db.QueryRow(
		`SELECT id, title, description, created_by, created_at, updated_at FROM courses WHERE id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.Description, &createdBy, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedBy = idPtr(createdBy)
	return &c, nil
}

// ListCourses returns all courses ordered by title.
func (s *Store) ListCourses() ([]model.Course, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, created_by, created_at, updated_at FROM courses ORDER BY title, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var courses []model.Course
	for rows.Next() {
		var c model.Course
		var createdBy sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &createdBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.CreatedBy = idPtr(createdBy)
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// UpdateCourse changes a course's title and description.
func (s *Store) UpdateCourse(c model.Course) error {
	_, err := s.db.Exec(
		`UPDATE courses SET title = ?, description = ?, updated_at = ? WHERE id = ?`,
		c.Title, c.Description, time.Now(), c.ID,
	)
	return err
}

// DeleteCourse removes a course with its chapters and their questions.
func (s *Store) DeleteCourse(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM questions WHERE chapter_id IN (SELECT id FROM chapters WHERE course_id = ?)`, id,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM chapters WHERE course_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM courses WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("deleted course", "id", id)
	return nil
}

// CreateChapter inserts a chapter.
func (s *Store) CreateChapter(ch model.Chapter) (int64, error) {
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO chapters (course_id, title, summary, ilos, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ch.CourseID, ch.Title, ch.Summary, ch.ILOs, now, now,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created chapter", "id", id, "course_id", ch.CourseID, "title", ch.Title)
	return id, nil
}

// GetChapter returns a chapter by ID, or nil if it does not exist.
func (s *Store) GetChapter(id int64) (*model.Chapter, error) {
	var ch model.Chapter
	err := s.db.QueryRow(
		`SELECT id, course_id, title, summary, ilos, created_at, updated_at FROM chapters WHERE id = ?`, id,
	).Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.Summary, &ch.ILOs, &ch.CreatedAt, &ch.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListChapters returns the chapters of a course. A courseID of 0 lists the
// chapters of every course.
func (s *Store) ListChapters(courseID int64) ([]model.ChapterView, error) {
	query := `SELECT ch.id, ch.course_id, ch.title, ch.summary, ch.ilos, ch.created_at, ch.updated_at, c.title
		FROM chapters ch JOIN courses c ON c.id = ch.course_id`
	var args []any
	if courseID != 0 {
		query += ` WHERE ch.course_id = ?`
		args = append(args, courseID)
	}
	query += ` ORDER BY c.title, ch.id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chapters []model.ChapterView
	for rows.Next() {
		var v model.ChapterView
		ch := &v.Chapter
		if err := rows.Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.Summary, &ch.ILOs, &ch.CreatedAt, &ch.UpdatedAt, &v.CourseTitle); err != nil {
			return nil, err
		}
		chapters = append(chapters, v)
	}
	return chapters, rows.Err()
}

// UpdateChapter changes a chapter's title, summary and ILOs.
func (s *Store) UpdateChapter(ch model.Chapter) error {
	_, err := s.db.Exec(
		`UPDATE chapters SET title = ?, summary = ?, ilos = ?, updated_at = ? WHERE id = ?`,
		ch.Title, ch.Summary, ch.ILOs, time.Now(), ch.ID,
	)
	return err
}

// DeleteChapter removes a chapter and its questions.
func (s *Store) DeleteChapter(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM questions WHERE chapter_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM chapters WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("deleted chapter", "id", id)
	return nil
}
