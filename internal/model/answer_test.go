package model

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeAnswer(t *testing.T) {
	tests := []struct {
		name        string
		qt          QuestionType
		correct     string
		options     []string
		wantStored  string
		wantOptions []string
	}{
		{"multiple choice", TypeMultipleChoice, "B", []string{"A. 1", "B. 2", "C. 3", "D. 4"}, "B|A. 1|B. 2|C. 3|D. 4", []string{"A. 1", "B. 2", "C. 3", "D. 4"}},
		{"multiple choice without options", TypeMultipleChoice, "B", nil, "B", nil},
		{"true/false", TypeTrueFalse, "True", []string{"ignored"}, "True", nil},
		{"essay", TypeEssay, "Any reasoned answer", nil, "Any reasoned answer", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := EncodeAnswer(tt.qt, tt.correct, tt.options)
			if stored != tt.wantStored {
				t.Errorf("EncodeAnswer() = %q, want %q", stored, tt.wantStored)
			}
			correct, options := DecodeAnswer(tt.qt, stored)
			if correct != tt.correct {
				t.Errorf("DecodeAnswer() correct = %q, want %q", correct, tt.correct)
			}
			if !reflect.DeepEqual(options, tt.wantOptions) {
				t.Errorf("DecodeAnswer() options = %v, want %v", options, tt.wantOptions)
			}
		})
	}
}

func TestDecodeAnswerPipeInShortAnswer(t *testing.T) {
	correct, options := DecodeAnswer(TypeShortAnswer, "x|y")
	if correct != "x|y" || options != nil {
		t.Errorf("non-MC answers must not be split, got %q %v", correct, options)
	}
}

func TestDifficultyClass(t *testing.T) {
	tests := []struct {
		d    float64
		want string
	}{
		{1.0, "easy"},
		{2.5, "easy"},
		{2.6, "medium"},
		{3.5, "medium"},
		{3.6, "hard"},
		{5.0, "hard"},
	}
	for _, tt := range tests {
		if got := DifficultyClass(tt.d); got != tt.want {
			t.Errorf("DifficultyClass(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestIsValidQuestionType(t *testing.T) {
	if !IsValidQuestionType("True/False") {
		t.Error("True/False should be valid")
	}
	if IsValidQuestionType("Calculation") {
		t.Error("Calculation should not be valid")
	}
}

func TestOptionLabel(t *testing.T) {
	if got := OptionLabel(0); got != "A. " {
		t.Errorf("OptionLabel(0) = %q", got)
	}
	if got := OptionLabel(3); got != "D. " {
		t.Errorf("OptionLabel(3) = %q", got)
	}
}

func TestGeneratedQuestionToQuestion(t *testing.T) {
	uid := int64(7)
	g := GeneratedQuestion{
		QuestionContent: "Pick one",
		QuestionType:    TypeMultipleChoice,
		Difficulty:      2.5,
		EstimatedTime:   4,
		StudentLevel:    LevelBeginner,
		CorrectAnswer:   "A",
		Options:         []string{"A. x", "B. y", "C. z", "D. w"},
	}
	q := g.Question(3, "batch-1", &uid)
	if q.ChapterID != 3 || q.BatchID != "batch-1" || q.Source != SourceGenerated {
		t.Errorf("unexpected identity fields: %+v", q)
	}
	if q.CorrectAnswer != "A|A. x|B. y|C. z|D. w" {
		t.Errorf("CorrectAnswer = %q", q.CorrectAnswer)
	}
	if q.CreatedBy == nil || *q.CreatedBy != 7 {
		t.Errorf("CreatedBy = %v, want 7", q.CreatedBy)
	}
}
