package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pavelanni/examforge/internal/model"
)

func TestFormat(t *testing.T) {
	got := Format(model.EvaluationResult{
		Difficulty:    3.5,
		EstimatedTime: 12,
		StudentLevel:  model.LevelAdvanced,
		Suggestions:   "Tighten the stem.",
	})
	want := "## Question Analysis\n\n" +
		"**Difficulty Rating:** 3.5/5.0\n\n" +
		"**Estimated Time:** 12 minutes\n\n" +
		"**Appropriate Student Level:** Advanced\n\n" +
		"### Improvement Suggestions:\n" +
		"Tighten the stem.\n"
	assert.Equal(t, want, got)
}

func TestFormatDifficulty(t *testing.T) {
	assert.Equal(t, "5.0", FormatDifficulty(5))
	assert.Equal(t, "2.75", FormatDifficulty(2.75))
	assert.Equal(t, "1.0", FormatDifficulty(1))
}

func TestRoundTrip(t *testing.T) {
	for _, r := range []model.EvaluationResult{
		{Difficulty: 1, EstimatedTime: 1, StudentLevel: model.LevelBeginner, Suggestions: "x"},
		{Difficulty: 3.25, EstimatedTime: 17, StudentLevel: model.LevelIntermediate, Suggestions: "a\nb"},
		{Difficulty: 5, EstimatedTime: 60, StudentLevel: model.LevelAdvanced, Suggestions: "**Estimated Time:** is fine"},
	} {
		text := Format(r)
		assert.Equal(t, r.EstimatedTime, ExtractEstimatedTime(text, 5))
		assert.Equal(t, r.StudentLevel, ExtractStudentLevel(text, model.LevelIntermediate))
		d, ok := ExtractDifficulty(text)
		assert.True(t, ok)
		assert.Equal(t, r.Difficulty, d)
		assert.Equal(t, r.Suggestions, ExtractSuggestions(text))
	}
}

func TestExtractDefaults(t *testing.T) {
	raw := RawPrefix + "the model rambled"
	assert.Equal(t, 5, ExtractEstimatedTime(raw, 5))
	assert.Equal(t, model.LevelIntermediate, ExtractStudentLevel(raw, model.LevelIntermediate))
	_, ok := ExtractDifficulty(raw)
	assert.False(t, ok)
	assert.Equal(t, "", ExtractSuggestions(raw))
}
