package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/examforge/internal/model"
)

// MaxExamples is the number of example questions embedded in a generation prompt.
const MaxExamples = 3

const maxFieldRunes = 10000

//go:embed templates/*.txt
var embedded embed.FS

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

var funcs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}

var names = []string{"evaluate_system", "evaluate_user", "generate_system", "generate_user"}

// Load parses the prompt templates from fsys. It runs once; later calls
// return the first result.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template, len(names))
		for _, name := range names {
			file := "templates/" + name + ".txt"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", file, err)
				return
			}
			tmpl, err := template.New(name).Funcs(funcs).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", file, err)
				return
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

// Embedded returns the built-in prompt templates.
func Embedded() fs.FS {
	return embedded
}

// EvalData holds template data for the evaluation prompt.
type EvalData struct {
	CourseTitle     string
	ChapterTitle    string
	QuestionType    string
	ILOs            string
	QuestionContent string
}

// GenerateData holds template data for the generation prompt.
type GenerateData struct {
	CourseTitle     string
	ChapterTitle    string
	ChapterSummary  string
	ILOs            string
	NumQuestions    int
	DifficultyLevel string
	QuestionTypes   []string
	Examples        []string
}

// Prompt is a rendered system/user pair.
type Prompt struct {
	System string
	User   string
}

// BuildEvaluation renders the evaluation prompt for one question.
func BuildEvaluation(qc model.QuestionContext) (Prompt, error) {
	data := EvalData{
		CourseTitle:     sanitize(qc.CourseTitle),
		ChapterTitle:    sanitize(qc.ChapterTitle),
		QuestionType:    string(qc.QuestionType),
		ILOs:            sanitize(qc.ILOs),
		QuestionContent: sanitize(qc.QuestionContent),
	}
	return render("evaluate", data)
}

// BuildGeneration renders the batch generation prompt. Only the first
// MaxExamples example questions are included.
func BuildGeneration(qc model.QuestionContext, num int, difficulty string, types []model.QuestionType) (Prompt, error) {
	examples := qc.ExampleQuestions
	if len(examples) > MaxExamples {
		examples = examples[:MaxExamples]
	}
	data := GenerateData{
		CourseTitle:     sanitize(qc.CourseTitle),
		ChapterTitle:    sanitize(qc.ChapterTitle),
		ChapterSummary:  sanitize(qc.ChapterSummary),
		ILOs:            sanitize(qc.ILOs),
		NumQuestions:    num,
		DifficultyLevel: difficulty,
	}
	for _, t := range types {
		data.QuestionTypes = append(data.QuestionTypes, string(t))
	}
	for _, e := range examples {
		data.Examples = append(data.Examples, sanitize(e))
	}
	return render("generate", data)
}

func render(prefix string, data any) (Prompt, error) {
	if err := Load(embedded); err != nil {
		return Prompt{}, err
	}
	if templates == nil {
		return Prompt{}, errors.New("prompt templates not initialized")
	}

	var p Prompt
	for _, part := range []struct {
		name string
		dst  *string
	}{
		{prefix + "_system", &p.System},
		{prefix + "_user", &p.User},
	} {
		tmpl, ok := templates[part.name]
		if !ok {
			return Prompt{}, errors.New("missing prompt template: " + part.name)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return Prompt{}, fmt.Errorf("render %s: %w", part.name, err)
		}
		*part.dst = strings.TrimSpace(buf.String())
	}
	return p, nil
}

// sanitize trims a context field and caps its length.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxFieldRunes {
		runes := []rune(s)
		s = string(runes[:maxFieldRunes]) + "\n\n[truncated]"
	}
	return s
}
