package prompts

import (
	"strings"
	"testing"

	"github.com/pavelanni/examforge/internal/model"
)

func testContext() model.QuestionContext {
	return model.QuestionContext{
		CourseTitle:     "Operating Systems",
		ChapterTitle:    "Scheduling",
		ChapterSummary:  "CPU scheduling algorithms.",
		ILOs:            "Compare FCFS and round robin.",
		QuestionType:    model.TypeShortAnswer,
		QuestionContent: "Explain starvation.",
	}
}

func TestBuildEvaluation(t *testing.T) {
	p, err := BuildEvaluation(testContext())
	if err != nil {
		t.Fatalf("BuildEvaluation: %v", err)
	}

	if !strings.Contains(p.System, "Always respond in valid JSON format.") {
		t.Errorf("system prompt does not mandate JSON: %q", p.System)
	}

	for _, want := range []string{
		"COURSE: Operating Systems",
		"CHAPTER: Scheduling",
		"QUESTION TYPE: Short Answer",
		"INTENDED LEARNING OUTCOMES (ILOs): Compare FCFS and round robin.",
		"QUESTION: Explain starvation.",
		"Basic recall MC questions: 30-60 seconds per option",
		"Complex scenario-based MC questions: 2-3 minutes total plus 1 minute per option",
		"Simple factual T/F: 30-45 seconds",
		"Problem-solving: 5-8 minutes depending on complexity",
		"Complex analysis essay: 20-30 minutes",
		"Multi-step problems: 3-5 minutes per step",
		"Reading time: 200-250 words per minute for question text",
		"add 10-20% of total time",
		`{"difficulty_rating": float, "estimated_time": int, "student_level": string, "improvement_suggestions": string}`,
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestBuildGenerationLimitsExamples(t *testing.T) {
	qc := testContext()
	qc.ExampleQuestions = []string{"first?", "second?", "third?", "fourth?", "fifth?"}

	p, err := BuildGeneration(qc, 4, "mixed", []model.QuestionType{model.TypeMultipleChoice, model.TypeEssay})
	if err != nil {
		t.Fatalf("BuildGeneration: %v", err)
	}

	for _, want := range []string{
		"Create 4 educational questions for:",
		"CHAPTER SUMMARY: CPU scheduling algorithms.",
		"Here are some example questions from this course:",
		"Example 1:\nfirst?",
		"Example 3:\nthird?",
		"- Difficulty: mixed",
		"- Question types: Multiple Choice, Essay",
		"Return a JSON array of question objects.",
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	if strings.Contains(p.User, "fourth?") || strings.Contains(p.User, "Example 4:") {
		t.Error("user prompt includes more than three examples")
	}
	if !strings.Contains(p.System, "educational expert") {
		t.Errorf("unexpected system prompt %q", p.System)
	}
}

func TestBuildGenerationNoExamples(t *testing.T) {
	p, err := BuildGeneration(testContext(), 1, "easy", []model.QuestionType{model.TypeTrueFalse})
	if err != nil {
		t.Fatalf("BuildGeneration: %v", err)
	}
	if strings.Contains(p.User, "example questions") {
		t.Error("examples header rendered without examples")
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize("  padded  "); got != "padded" {
		t.Errorf("sanitize = %q", got)
	}

	long := strings.Repeat("я", maxFieldRunes+5)
	got := sanitize(long)
	if !strings.HasSuffix(got, "[truncated]") {
		t.Error("long field not truncated")
	}
	if !strings.HasPrefix(got, strings.Repeat("я", maxFieldRunes)) {
		t.Error("truncation cut inside the kept prefix")
	}
}
