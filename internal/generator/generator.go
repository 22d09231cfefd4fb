// Package generator asks the model for a batch of questions about one chapter
// and keeps the elements that pass validation.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/examforge/internal/llm"
	"github.com/pavelanni/examforge/internal/llm/prompts"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/normalize"
)

// Sampling parameters for generation.
const (
	Temperature = 0.7
	MaxTokens   = 2048
	TopP        = 1.0
)

// Batch size bounds and default.
const (
	MinQuestions     = 1
	MaxQuestions     = 10
	DefaultQuestions = 3
)

// Difficulty levels accepted by the generation prompt.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyMixed  = "mixed"
)

// DifficultyLevels lists the accepted difficulty levels in display order.
var DifficultyLevels = []string{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed}

// DefaultTypes is used when a request names no question types.
var DefaultTypes = []model.QuestionType{model.TypeMultipleChoice, model.TypeTrueFalse, model.TypeShortAnswer}

// ValidationError reports a batch element that was dropped.
type ValidationError struct {
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("generated question %d: %v", e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Request describes one generation call.
type Request struct {
	Context         model.QuestionContext
	NumQuestions    int
	DifficultyLevel string
	QuestionTypes   []model.QuestionType
	Model           llm.ModelID
}

// Validate checks the request fields a form can get wrong.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Context.ChapterTitle) == "" {
		return fmt.Errorf("chapter title is required")
	}
	if r.NumQuestions < MinQuestions || r.NumQuestions > MaxQuestions {
		return fmt.Errorf("number of questions must be between %d and %d", MinQuestions, MaxQuestions)
	}
	if !validDifficulty(r.DifficultyLevel) {
		return fmt.Errorf("unknown difficulty level %q", r.DifficultyLevel)
	}
	if len(r.QuestionTypes) == 0 {
		return fmt.Errorf("select at least one question type")
	}
	for _, t := range r.QuestionTypes {
		if !model.IsValidQuestionType(string(t)) {
			return fmt.Errorf("unknown question type %q", t)
		}
	}
	if r.Model != "" {
		if _, err := llm.ParseModel(string(r.Model)); err != nil {
			return err
		}
	}
	return nil
}

func validDifficulty(s string) bool {
	for _, d := range DifficultyLevels {
		if d == s {
			return true
		}
	}
	return false
}

// Generator produces question batches through an LLM.
type Generator struct {
	llm          llm.Completer
	defaultModel llm.ModelID
}

// New creates a generator. defaultModel is used when a request names none.
func New(c llm.Completer, defaultModel llm.ModelID) *Generator {
	if defaultModel == "" {
		defaultModel = llm.ModelLlama8B
	}
	return &Generator{llm: c, defaultModel: defaultModel}
}

// Generate returns the valid questions of one batch in the order the model
// produced them. The error is non-nil only when the gateway call failed; an
// unreadable batch yields an empty list.
func (g *Generator) Generate(ctx context.Context, req Request) ([]model.GeneratedQuestion, error) {
	if req.NumQuestions < MinQuestions {
		req.NumQuestions = DefaultQuestions
	}
	if req.DifficultyLevel == "" {
		req.DifficultyLevel = DifficultyMixed
	}
	if len(req.QuestionTypes) == 0 {
		req.QuestionTypes = DefaultTypes
	}
	if req.Model == "" {
		req.Model = g.defaultModel
	}

	p, err := prompts.BuildGeneration(req.Context, req.NumQuestions, req.DifficultyLevel, req.QuestionTypes)
	if err != nil {
		return nil, fmt.Errorf("build generation prompt: %w", err)
	}

	slog.Info("generating questions",
		"model", req.Model,
		"chapter", req.Context.ChapterTitle,
		"count", req.NumQuestions,
		"difficulty", req.DifficultyLevel,
	)
	raw, err := g.llm.Complete(ctx, llm.Request{
		System:      p.System,
		User:        p.User,
		Model:       req.Model,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		TopP:        TopP,
	})
	if err != nil {
		slog.Error("LLM generation call failed", "model", req.Model, "error", err)
		return nil, err
	}

	questions := Parse(raw)
	slog.Info("questions generated", "model", req.Model, "requested", req.NumQuestions, "valid", len(questions))
	return questions, nil
}

// Parse extracts the question array from a raw reply. A missing or malformed
// array gives an empty list; invalid elements are dropped one by one.
func Parse(raw string) []model.GeneratedQuestion {
	items, err := normalize.DecodeArray(raw)
	if err != nil {
		slog.Error("could not find JSON array in model response", "error", err)
		return []model.GeneratedQuestion{}
	}

	out := make([]model.GeneratedQuestion, 0, len(items))
	for i, item := range items {
		q, err := convert(i, item)
		if err != nil {
			slog.Warn("dropping generated question", "error", err)
			continue
		}
		out = append(out, q)
	}
	return out
}

func convert(i int, item json.RawMessage) (model.GeneratedQuestion, error) {
	var v any
	if err := json.Unmarshal(item, &v); err != nil {
		return model.GeneratedQuestion{}, &ValidationError{Index: i, Err: err}
	}
	if err := validate(v); err != nil {
		return model.GeneratedQuestion{}, &ValidationError{Index: i, Err: err}
	}
	obj := v.(map[string]any)

	d, err := normalize.Difficulty(obj["difficulty"])
	if err != nil {
		return model.GeneratedQuestion{}, &ValidationError{Index: i, Err: fmt.Errorf("difficulty: %w", err)}
	}

	q := model.GeneratedQuestion{
		QuestionContent: normalize.Text(obj["question_content"]),
		QuestionType:    canonicalType(normalize.Text(obj["question_type"])),
		Difficulty:      d,
		EstimatedTime:   normalize.Minutes(obj["estimated_time"]),
		StudentLevel:    normalize.Level(obj["student_level"]),
		Tags:            tags(obj["tags"]),
		CorrectAnswer:   normalize.Text(obj["correct_answer"]),
		Explanation:     normalize.Text(obj["explanation"]),
	}
	if q.QuestionContent == "" || q.CorrectAnswer == "" {
		return model.GeneratedQuestion{}, &ValidationError{Index: i, Err: fmt.Errorf("blank required field")}
	}

	if q.QuestionType == model.TypeMultipleChoice {
		q.Options = options(obj["options"])
		if len(q.Options) != model.NumOptions {
			return model.GeneratedQuestion{}, &ValidationError{
				Index: i,
				Err:   fmt.Errorf("multiple choice needs %d options, got %d", model.NumOptions, len(q.Options)),
			}
		}
	}
	return q, nil
}

// canonicalType maps a case-insensitive match onto the known type name and
// leaves anything else untouched.
func canonicalType(s string) model.QuestionType {
	for _, t := range model.QuestionTypes {
		if strings.EqualFold(string(t), s) {
			return t
		}
	}
	return model.QuestionType(s)
}

func tags(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s := normalize.Text(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return normalize.Text(v)
}

func options(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := normalize.Text(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
