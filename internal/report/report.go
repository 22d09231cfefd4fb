// Package report renders an evaluation as the fixed-format Markdown block shown
// on the dashboards, and reads fields back out of it.
package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pavelanni/examforge/internal/model"
)

// Section markers. Stored reports are re-read through these, so their
// punctuation must not change.
const (
	MarkerDifficulty  = "**Difficulty Rating:**"
	MarkerTime        = "**Estimated Time:**"
	MarkerLevel       = "**Appropriate Student Level:**"
	MarkerSuggestions = "### Improvement Suggestions:"

	// RawPrefix starts the suggestions of a report built from unparseable output.
	RawPrefix = "Analysis (raw): "
)

var (
	difficultyRegex = regexp.MustCompile(`\*\*Difficulty Rating:\*\* ([0-9]+(?:\.[0-9]+)?)/5\.0`)
	timeRegex       = regexp.MustCompile(`\*\*Estimated Time:\*\* (\d+) minutes`)
	levelRegex      = regexp.MustCompile(`\*\*Appropriate Student Level:\*\* (\w+)`)
)

// Format renders r as the analysis report.
func Format(r model.EvaluationResult) string {
	var sb strings.Builder
	sb.WriteString("## Question Analysis\n\n")
	fmt.Fprintf(&sb, "%s %s/5.0\n\n", MarkerDifficulty, FormatDifficulty(r.Difficulty))
	fmt.Fprintf(&sb, "%s %d minutes\n\n", MarkerTime, r.EstimatedTime)
	fmt.Fprintf(&sb, "%s %s\n\n", MarkerLevel, r.StudentLevel)
	sb.WriteString(MarkerSuggestions + "\n")
	sb.WriteString(r.Suggestions + "\n")
	return sb.String()
}

// FormatDifficulty prints a difficulty with at least one decimal place.
func FormatDifficulty(d float64) string {
	s := strconv.FormatFloat(d, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ExtractDifficulty reads the difficulty rating from a report.
func ExtractDifficulty(text string) (float64, bool) {
	m := difficultyRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

// ExtractEstimatedTime reads the estimated minutes from a report, falling back
// to def when the marker is absent.
func ExtractEstimatedTime(text string, def int) int {
	m := timeRegex.FindStringSubmatch(text)
	if m == nil {
		return def
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return def
	}
	return n
}

// ExtractStudentLevel reads the student level from a report, falling back to
// def when the marker is absent.
func ExtractStudentLevel(text string, def model.StudentLevel) model.StudentLevel {
	m := levelRegex.FindStringSubmatch(text)
	if m == nil {
		return def
	}
	return model.StudentLevel(m[1])
}

// ExtractSuggestions returns the text after the suggestions marker.
func ExtractSuggestions(text string) string {
	_, after, ok := strings.Cut(text, MarkerSuggestions)
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}
