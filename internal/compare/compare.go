// Package compare sets an instructor's judgment of a question against the
// model's.
package compare

import (
	"math"
	"strings"

	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/normalize"
	"github.com/pavelanni/examforge/internal/report"
)

// Direction of a difference, relative to the instructor's value.
type Direction string

const (
	Higher  Direction = "higher"
	Lower   Direction = "lower"
	Longer  Direction = "longer"
	Shorter Direction = "shorter"
	Same    Direction = "same"
)

// Judgment is one side of the comparison.
type Judgment struct {
	Difficulty    float64
	EstimatedTime int
	StudentLevel  model.StudentLevel
}

// Class returns the easy/medium/hard bucket of the difficulty.
func (j Judgment) Class() string {
	return model.DifficultyClass(j.Difficulty)
}

// Comparison is the result shown on the comparison dashboard.
type Comparison struct {
	Instructor Judgment
	Model      Judgment

	// DifficultyPercent is the absolute difference relative to the
	// instructor's rating, in percent.
	DifficultyPercent   float64
	DifficultyDirection Direction

	TimeDiff      int
	TimeDirection Direction

	LevelMatch bool
}

// FromQuestion takes the instructor's judgment from a stored question.
func FromQuestion(q model.Question) Judgment {
	return Judgment{
		Difficulty:    q.Difficulty,
		EstimatedTime: q.EstimatedTime,
		StudentLevel:  q.StudentLevel,
	}
}

// FromReport takes the model's judgment from a difficulty and the report
// text, reading time and level back through the report markers.
func FromReport(difficulty float64, text string) Judgment {
	return Judgment{
		Difficulty:    difficulty,
		EstimatedTime: report.ExtractEstimatedTime(text, normalize.DefaultEstimatedTime),
		StudentLevel:  report.ExtractStudentLevel(text, normalize.DefaultLevel),
	}
}

// Compare computes the differences between the two judgments.
func Compare(instructor, llm Judgment) Comparison {
	c := Comparison{
		Instructor: instructor,
		Model:      llm,
		LevelMatch: strings.EqualFold(string(instructor.StudentLevel), string(llm.StudentLevel)),
	}

	delta := llm.Difficulty - instructor.Difficulty
	if instructor.Difficulty > 0 {
		c.DifficultyPercent = math.Abs(delta / instructor.Difficulty * 100)
	}
	switch {
	case delta > 0:
		c.DifficultyDirection = Higher
	case delta < 0:
		c.DifficultyDirection = Lower
	default:
		c.DifficultyDirection = Same
	}

	dt := llm.EstimatedTime - instructor.EstimatedTime
	c.TimeDiff = dt
	if dt < 0 {
		c.TimeDiff = -dt
	}
	switch {
	case dt > 0:
		c.TimeDirection = Longer
	case dt < 0:
		c.TimeDirection = Shorter
	default:
		c.TimeDirection = Same
	}
	return c
}

// Colour is the traffic-light colour used for a difficulty on the analysis
// dashboard.
func Colour(d float64) string {
	switch {
	case d < 2.5:
		return "green"
	case d < 4:
		return "orange"
	default:
		return "red"
	}
}
