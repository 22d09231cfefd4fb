// Package evaluator asks the model to rate a single question and turns its
// reply into an EvaluationResult and the dashboard report.
package evaluator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pavelanni/examforge/internal/llm"
	"github.com/pavelanni/examforge/internal/llm/prompts"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/normalize"
	"github.com/pavelanni/examforge/internal/report"
)

// Messages returned in place of a report when no analysis is available.
const (
	MsgNotInitialized = "Error: LLM client not initialized. Please check your API key configuration."
	MsgNoDifficulty   = "Error: No difficulty rating provided in analysis"
	msgCallPrefix     = "Error calling LLM API: "
)

// Sampling parameters for evaluation.
const (
	Temperature = 0.1
	MaxTokens   = 1024
	TopP        = 1.0
)

// Path names the parse tier that produced an Analysis.
type Path string

const (
	PathDirect Path = "direct"
	PathFlat   Path = "flat-object"
	PathRaw    Path = "raw"
	PathFailed Path = "failed"
)

// Analysis is the outcome of one evaluation. Difficulty is nil when no
// analysis is available; Report then carries the reason.
type Analysis struct {
	Difficulty *float64
	Report     string
	Result     *model.EvaluationResult
	Path       Path
}

// Available reports whether the analysis carries a difficulty.
func (a Analysis) Available() bool {
	return a.Difficulty != nil
}

// Evaluator rates questions through an LLM.
type Evaluator struct {
	llm   llm.Completer
	model llm.ModelID
}

// New creates an evaluator using the given model.
func New(c llm.Completer, m llm.ModelID) *Evaluator {
	if m == "" {
		m = llm.ModelLlama8B
	}
	return &Evaluator{llm: c, model: m}
}

// Evaluate rates one question. It never fails: gateway problems come back as
// an unavailable Analysis and unreadable replies degrade through the parse
// tiers.
func (e *Evaluator) Evaluate(ctx context.Context, qc model.QuestionContext) Analysis {
	p, err := prompts.BuildEvaluation(qc)
	if err != nil {
		slog.Error("build evaluation prompt", "error", err)
		return Analysis{Report: "Error: " + err.Error(), Path: PathFailed}
	}

	raw, err := e.llm.Complete(ctx, llm.Request{
		System:      p.System,
		User:        p.User,
		Model:       e.model,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		TopP:        TopP,
	})
	if err != nil {
		var cerr *llm.ConfigurationError
		if errors.As(err, &cerr) {
			slog.Error("LLM client not initialized, cannot analyze question", "error", err)
			return Analysis{Report: MsgNotInitialized, Path: PathFailed}
		}
		slog.Error("LLM evaluation call failed", "error", err)
		return Analysis{Report: msgCallPrefix + err.Error(), Path: PathFailed}
	}

	a := Parse(raw)
	slog.Info("question analyzed",
		"chapter", qc.ChapterTitle,
		"type", qc.QuestionType,
		"path", a.Path,
		"available", a.Available(),
	)
	return a
}

// Parse interprets a raw model reply. Tiers, in order: the fence-stripped
// text as one JSON object; the first flat {...} in it with defaults for
// anything missing; a default result carrying the raw text.
func Parse(raw string) Analysis {
	cleaned := normalize.StripCodeFences(raw)

	obj, err := normalize.DecodeObject("direct", cleaned)
	if err == nil {
		d, derr := normalize.Difficulty(obj["difficulty_rating"])
		switch {
		case errors.Is(derr, normalize.ErrMissing):
			slog.Error("no difficulty rating in model response")
			return Analysis{Report: MsgNoDifficulty, Path: PathFailed}
		case derr == nil:
			return finish(d, obj, PathDirect)
		default:
			slog.Warn("difficulty rating not numeric", "value", obj["difficulty_rating"], "error", derr)
		}
	} else {
		slog.Warn("model response is not a JSON object", "error", err, "raw", cleaned)
	}

	if flat, ok := normalize.FlatObject(cleaned); ok {
		obj, err := normalize.DecodeObject("flat-object", flat)
		if err == nil {
			d, derr := normalize.Difficulty(obj["difficulty_rating"])
			if derr != nil {
				d = normalize.DefaultDifficulty
			}
			return finish(d, obj, PathFlat)
		}
		slog.Warn("flat object scan failed", "error", err)
	}

	result := model.EvaluationResult{
		Difficulty:    normalize.DefaultDifficulty,
		EstimatedTime: normalize.DefaultEstimatedTime,
		StudentLevel:  normalize.DefaultLevel,
		Suggestions:   report.RawPrefix + cleaned,
	}
	return analysis(result, PathRaw)
}

func finish(difficulty float64, obj map[string]any, path Path) Analysis {
	result := model.EvaluationResult{
		Difficulty:    difficulty,
		EstimatedTime: normalize.ClampMinutes(normalize.Minutes(obj["estimated_time"])),
		StudentLevel:  normalize.Level(obj["student_level"]),
		Suggestions:   normalize.Suggestions(obj["improvement_suggestions"]),
	}
	return analysis(result, path)
}

func analysis(r model.EvaluationResult, path Path) Analysis {
	d := r.Difficulty
	return Analysis{
		Difficulty: &d,
		Report:     report.Format(r),
		Result:     &r,
		Path:       path,
	}
}
