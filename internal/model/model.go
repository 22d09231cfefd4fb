package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleInstructor authors courses and questions.
	UserRoleInstructor UserRole = "instructor"
	// UserRoleAdmin manages users in addition to authoring.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// QuestionType is the answer format of a question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "Multiple Choice"
	TypeTrueFalse      QuestionType = "True/False"
	TypeShortAnswer    QuestionType = "Short Answer"
	TypeEssay          QuestionType = "Essay"
)

// QuestionTypes lists the supported question types in display order.
var QuestionTypes = []QuestionType{TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeEssay}

// IsValidQuestionType reports whether s names a supported question type.
func IsValidQuestionType(s string) bool {
	for _, t := range QuestionTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// StudentLevel is the audience a question is pitched at.
type StudentLevel string

const (
	LevelBeginner     StudentLevel = "Beginner"
	LevelIntermediate StudentLevel = "Intermediate"
	LevelAdvanced     StudentLevel = "Advanced"
)

// StudentLevels lists the levels in ascending order.
var StudentLevels = []StudentLevel{LevelBeginner, LevelIntermediate, LevelAdvanced}

// QuestionSource records how a question entered the bank.
type QuestionSource string

const (
	SourceManual    QuestionSource = "manual"
	SourceAnalyzed  QuestionSource = "analyzed"
	SourceGenerated QuestionSource = "generated"
)

// Course is the top-level container for chapters.
type Course struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chapter belongs to a course and carries the context used for prompts.
type Chapter struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	ILOs      string    `json:"ilos"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Question is a stored question. For multiple choice questions CorrectAnswer
// holds the encoded answer and options (see EncodeAnswer).
type Question struct {
	ID            int64          `json:"id"`
	ChapterID     int64          `json:"chapter_id"`
	Content       string         `json:"content"`
	QuestionType  QuestionType   `json:"question_type"`
	CorrectAnswer string         `json:"correct_answer"`
	Explanation   string         `json:"explanation"`
	Difficulty    float64        `json:"difficulty"`
	EstimatedTime int            `json:"estimated_time"`
	StudentLevel  StudentLevel   `json:"student_level"`
	Tags          string         `json:"tags"`
	Source        QuestionSource `json:"source"`
	BatchID       string         `json:"batch_id,omitempty"`
	CreatedBy     *int64         `json:"created_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// QuestionContext is the input of one evaluation or generation call.
type QuestionContext struct {
	CourseTitle      string
	ChapterTitle     string
	ChapterSummary   string
	ILOs             string
	QuestionType     QuestionType
	QuestionContent  string
	ExampleQuestions []string
}

// EvaluationResult is the model's judgment of a single question.
type EvaluationResult struct {
	Difficulty    float64      `json:"difficulty"`
	EstimatedTime int          `json:"estimated_time"`
	StudentLevel  StudentLevel `json:"student_level"`
	Suggestions   string       `json:"suggestions"`
}

// GeneratedQuestion is one validated element of a generated batch.
type GeneratedQuestion struct {
	QuestionContent string       `json:"question_content"`
	QuestionType    QuestionType `json:"question_type"`
	Difficulty      float64      `json:"difficulty"`
	EstimatedTime   int          `json:"estimated_time"`
	StudentLevel    StudentLevel `json:"student_level"`
	Tags            string       `json:"tags,omitempty"`
	CorrectAnswer   string       `json:"correct_answer"`
	Explanation     string       `json:"explanation"`
	Options         []string     `json:"options,omitempty"`
}

// ChapterView joins a chapter with its course for listings.
type ChapterView struct {
	Chapter     Chapter
	CourseTitle string
}

// QuestionView joins a question with the titles and creator used for display.
type QuestionView struct {
	Question     Question
	ChapterTitle string
	CourseTitle  string
	CreatorName  string
}

// QuestionImport is used for loading questions from JSON.
type QuestionImport struct {
	Content       string       `json:"content"`
	QuestionType  QuestionType `json:"question_type"`
	CorrectAnswer string       `json:"correct_answer"`
	Options       []string     `json:"options,omitempty"`
	Explanation   string       `json:"explanation"`
	Difficulty    float64      `json:"difficulty"`
	EstimatedTime int          `json:"estimated_time"`
	StudentLevel  StudentLevel `json:"student_level"`
	Tags          string       `json:"tags"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/ru")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	DefaultModel  string // Model preselected on the bulk generation form
}
