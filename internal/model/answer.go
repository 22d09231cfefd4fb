package model

import "strings"

const answerSeparator = "|"

// EncodeAnswer builds the stored correct_answer value. Multiple choice
// questions keep their options in the same column as
// "correct|option1|option2|...".
func EncodeAnswer(qt QuestionType, correct string, options []string) string {
	if qt != TypeMultipleChoice || len(options) == 0 {
		return correct
	}
	return correct + answerSeparator + strings.Join(options, answerSeparator)
}

// DecodeAnswer splits a stored correct_answer value into the answer and, for
// multiple choice questions, its options.
func DecodeAnswer(qt QuestionType, stored string) (string, []string) {
	if qt != TypeMultipleChoice || !strings.Contains(stored, answerSeparator) {
		return stored, nil
	}
	parts := strings.Split(stored, answerSeparator)
	return parts[0], parts[1:]
}

// DifficultyClass buckets a 1-5 difficulty into easy, medium or hard.
func DifficultyClass(d float64) string {
	switch {
	case d > 3.5:
		return "hard"
	case d > 2.5:
		return "medium"
	default:
		return "easy"
	}
}

// NumOptions is the number of options a multiple choice question carries.
const NumOptions = 4

// OptionLabel returns the "A. " style prefix for the i-th option.
func OptionLabel(i int) string {
	return string(rune('A'+i)) + ". "
}

// Question converts a generated question into a stored one belonging to a
// generation batch.
func (g GeneratedQuestion) Question(chapterID int64, batchID string, createdBy *int64) Question {
	return Question{
		ChapterID:     chapterID,
		Content:       g.QuestionContent,
		QuestionType:  g.QuestionType,
		CorrectAnswer: EncodeAnswer(g.QuestionType, g.CorrectAnswer, g.Options),
		Explanation:   g.Explanation,
		Difficulty:    g.Difficulty,
		EstimatedTime: g.EstimatedTime,
		StudentLevel:  g.StudentLevel,
		Tags:          g.Tags,
		Source:        SourceGenerated,
		BatchID:       batchID,
		CreatedBy:     createdBy,
	}
}
