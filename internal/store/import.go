package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/normalize"
)

// ImportStatus tells what ImportQuestions did with a file.
type ImportStatus string

const (
	ImportDone      ImportStatus = "imported"
	ImportUnchanged ImportStatus = "unchanged"
	// ImportChanged means the file was imported before with different
	// content and was left alone.
	ImportChanged ImportStatus = "changed"
)

// ImportResult summarizes one import.
type ImportResult struct {
	Status ImportStatus
	Count  int
}

// ImportQuestions loads a JSON array of questions into a chapter. Each file
// name is imported once; the content hash recorded under name decides
// whether a later call is a no-op. With force a changed file is imported
// again.
func (s *Store) ImportQuestions(chapterID int64, name string, data []byte, createdBy *int64, force bool) (ImportResult, error) {
	hash := sha256sum(data)
	stored, err := s.GetImportedFileHash(name)
	if err != nil {
		return ImportResult{}, fmt.Errorf("check import status for %s: %w", name, err)
	}
	if stored == hash {
		slog.Info("questions file unchanged, skipping", "name", name)
		return ImportResult{Status: ImportUnchanged}, nil
	}
	if stored != "" && !force {
		slog.Warn("questions file changed since last import, skipping", "name", name)
		return ImportResult{Status: ImportChanged}, nil
	}

	ch, err := s.GetChapter(chapterID)
	if err != nil {
		return ImportResult{}, err
	}
	if ch == nil {
		return ImportResult{}, fmt.Errorf("chapter %d not found", chapterID)
	}

	var imports []model.QuestionImport
	if err := json.Unmarshal(data, &imports); err != nil {
		return ImportResult{}, fmt.Errorf("parse %s: %w", name, err)
	}

	questions := make([]model.Question, 0, len(imports))
	for i, qi := range imports {
		q, err := fromImport(chapterID, qi, createdBy)
		if err != nil {
			return ImportResult{}, fmt.Errorf("%s: question %d: %w", name, i+1, err)
		}
		questions = append(questions, q)
	}

	if _, err := s.InsertQuestions(questions); err != nil {
		return ImportResult{}, fmt.Errorf("insert questions from %s: %w", name, err)
	}
	if err := s.SetImportedFileHash(name, hash); err != nil {
		return ImportResult{}, fmt.Errorf("record import for %s: %w", name, err)
	}
	slog.Info("imported questions", "name", name, "chapter_id", chapterID, "count", len(questions))
	return ImportResult{Status: ImportDone, Count: len(questions)}, nil
}

func fromImport(chapterID int64, qi model.QuestionImport, createdBy *int64) (model.Question, error) {
	content := strings.TrimSpace(qi.Content)
	if content == "" {
		return model.Question{}, fmt.Errorf("content is empty")
	}
	if !model.IsValidQuestionType(string(qi.QuestionType)) {
		return model.Question{}, fmt.Errorf("unknown question type %q", qi.QuestionType)
	}

	difficulty := normalize.DefaultDifficulty
	if qi.Difficulty != 0 {
		difficulty = normalize.ClampDifficulty(qi.Difficulty)
	}
	minutes := normalize.DefaultEstimatedTime
	if qi.EstimatedTime != 0 {
		minutes = normalize.ClampMinutes(qi.EstimatedTime)
	}

	return model.Question{
		ChapterID:     chapterID,
		Content:       content,
		QuestionType:  qi.QuestionType,
		CorrectAnswer: model.EncodeAnswer(qi.QuestionType, qi.CorrectAnswer, qi.Options),
		Explanation:   qi.Explanation,
		Difficulty:    difficulty,
		EstimatedTime: minutes,
		StudentLevel:  normalize.ClassifyLevel(string(qi.StudentLevel)),
		Tags:          qi.Tags,
		Source:        model.SourceManual,
		CreatedBy:     createdBy,
	}, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
