package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/pavelanni/examforge/internal/model"
)

const (
	MinDifficulty = 1.0
	MaxDifficulty = 5.0
	MinMinutes    = 1
	MaxMinutes    = 60

	DefaultDifficulty    = 3.0
	DefaultEstimatedTime = 5
	DefaultLevel         = model.LevelIntermediate
	DefaultSuggestions   = "No specific improvement suggestions provided."
)

// ErrMissing is returned by the coercion helpers for null or blank values.
var ErrMissing = errors.New("value missing")

// Float coerces a JSON value that may arrive as a number or as text.
func Float(v any) (float64, error) {
	if v == nil {
		return 0, ErrMissing
	}
	if _, ok := v.(bool); ok {
		return 0, fmt.Errorf("not a number: %v", v)
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, ErrMissing
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", v)
	}
	return f, nil
}

// Int coerces a JSON value to an integer, truncating fractional values.
// Values beyond the int32 range saturate at its bounds.
func Int(v any) (int, error) {
	if s, ok := v.(string); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, nil
		}
	}
	f, err := Float(v)
	if err != nil {
		return 0, err
	}
	return int(max(math.MinInt32, min(math.MaxInt32, f))), nil
}

// Text renders a JSON value as text. Lists are joined one item per line;
// objects and null become the empty string.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			if s := Text(item); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		return ""
	default:
		return cast.ToString(t)
	}
}

// ClampDifficulty pins d into [MinDifficulty, MaxDifficulty].
func ClampDifficulty(d float64) float64 {
	return max(MinDifficulty, min(MaxDifficulty, d))
}

// ClampMinutes pins m into [MinMinutes, MaxMinutes].
func ClampMinutes(m int) int {
	return max(MinMinutes, min(MaxMinutes, m))
}

// Difficulty coerces and clamps a difficulty value.
func Difficulty(v any) (float64, error) {
	f, err := Float(v)
	if err != nil {
		return 0, err
	}
	return ClampDifficulty(f), nil
}

// Minutes coerces an estimated time, falling back to DefaultEstimatedTime
// when the value is missing or unreadable. The result is not clamped.
func Minutes(v any) int {
	m, err := Int(v)
	if err != nil {
		return DefaultEstimatedTime
	}
	return m
}

// ClassifyLevel maps free text onto one of the three student levels by
// case-insensitive substring match. "beginner" wins over "advanced"; anything
// else, including the empty string, is Intermediate. The match is not
// negation-aware: "not advanced" is Advanced.
func ClassifyLevel(s string) model.StudentLevel {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "beginner"):
		return model.LevelBeginner
	case strings.Contains(s, "advanced"):
		return model.LevelAdvanced
	default:
		return DefaultLevel
	}
}

// Level classifies a raw JSON value as a student level.
func Level(v any) model.StudentLevel {
	return ClassifyLevel(Text(v))
}

// Suggestions returns the improvement text or the placeholder when empty.
func Suggestions(v any) string {
	if s := Text(v); s != "" {
		return s
	}
	return DefaultSuggestions
}
