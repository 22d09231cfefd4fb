package model

import "time"

// BankExport is the top-level JSON structure for question bank export.
type BankExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	Courses    []CourseExport `json:"courses"`
}

// CourseExport holds one course with its chapters.
type CourseExport struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Chapters    []ChapterExport `json:"chapters"`
}

// ChapterExport holds one chapter with its questions.
type ChapterExport struct {
	Title     string           `json:"title"`
	Summary   string           `json:"summary"`
	ILOs      string           `json:"ilos"`
	Questions []QuestionExport `json:"questions"`
}

// QuestionExport holds per-question data for export, with multiple choice
// options decoded.
type QuestionExport struct {
	Content       string         `json:"content"`
	QuestionType  QuestionType   `json:"question_type"`
	CorrectAnswer string         `json:"correct_answer"`
	Options       []string       `json:"options,omitempty"`
	Explanation   string         `json:"explanation"`
	Difficulty    float64        `json:"difficulty"`
	EstimatedTime int            `json:"estimated_time"`
	StudentLevel  StudentLevel   `json:"student_level"`
	Tags          string         `json:"tags"`
	Source        QuestionSource `json:"source"`
	CreatedBy     string         `json:"created_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
