package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examforge/internal/llm"
	"github.com/pavelanni/examforge/internal/llm/llmtest"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/normalize"
)

type fakeLLM struct {
	raw  string
	err  error
	reqs []llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.raw, f.err
}

func sampleRequest() Request {
	return Request{
		Context: model.QuestionContext{
			CourseTitle:    "Networks",
			ChapterTitle:   "Routing",
			ChapterSummary: "Distance vector and link state routing.",
			ILOs:           "Explain count-to-infinity.",
		},
		NumQuestions:    3,
		DifficultyLevel: DifficultyMixed,
		QuestionTypes:   []model.QuestionType{model.TypeMultipleChoice, model.TypeShortAnswer},
	}
}

const batchOfThree = `Here are your questions:
[
  {"question_content": "Which protocol uses link state?", "question_type": "Multiple Choice", "difficulty": 2, "estimated_time": 2, "student_level": "Beginner", "tags": "routing, ospf", "correct_answer": "B", "explanation": "OSPF is link state.", "options": ["A. RIP", "B. OSPF", "C. BGP", "D. EIGRP"]},
  {"question_content": "What is count-to-infinity?", "question_type": "Short Answer", "estimated_time": 5, "correct_answer": "A slow convergence problem."},
  {"question_content": "Describe split horizon.", "question_type": "short answer", "difficulty": "9", "correct_answer": "Do not advertise a route back to its source."}
]
Let me know if you need more.`

func TestParse_DropsRecordWithoutDifficulty(t *testing.T) {
	got := Parse(batchOfThree)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "Which protocol uses link state?", first.QuestionContent)
	assert.Equal(t, model.TypeMultipleChoice, first.QuestionType)
	assert.Equal(t, 2.0, first.Difficulty)
	assert.Equal(t, model.LevelBeginner, first.StudentLevel)
	assert.Equal(t, "routing, ospf", first.Tags)
	assert.Equal(t, []string{"A. RIP", "B. OSPF", "C. BGP", "D. EIGRP"}, first.Options)

	second := got[1]
	assert.Equal(t, "Describe split horizon.", second.QuestionContent)
	assert.Equal(t, model.TypeShortAnswer, second.QuestionType)
	assert.Equal(t, 5.0, second.Difficulty)
	assert.Equal(t, normalize.DefaultEstimatedTime, second.EstimatedTime)
	assert.Equal(t, model.LevelIntermediate, second.StudentLevel)
	assert.Empty(t, second.Explanation)
	assert.Nil(t, second.Options)
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{
		"not a json array at all",
		"[{\"question_content\": \"unterminated\"",
		"",
		"[oops]",
	} {
		got := Parse(raw)
		assert.NotNil(t, got, raw)
		assert.Empty(t, got, raw)
	}
}

func TestParse_FieldRules(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		check   func(t *testing.T, q model.GeneratedQuestion)
	}{
		{
			name:    "null difficulty counts as absent",
			raw:     `[{"question_content": "q", "question_type": "Essay", "difficulty": null, "correct_answer": "a"}]`,
			wantLen: 0,
		},
		{
			name:    "empty content dropped",
			raw:     `[{"question_content": "", "question_type": "Essay", "difficulty": 2, "correct_answer": "a"}]`,
			wantLen: 0,
		},
		{
			name:    "non numeric difficulty dropped",
			raw:     `[{"question_content": "q", "question_type": "Essay", "difficulty": "tricky", "correct_answer": "a"}]`,
			wantLen: 0,
		},
		{
			name:    "non object element dropped",
			raw:     `[3, "text", {"question_content": "q", "question_type": "Essay", "difficulty": 2, "correct_answer": "a"}]`,
			wantLen: 1,
		},
		{
			name:    "time not clamped",
			raw:     `[{"question_content": "q", "question_type": "Essay", "difficulty": 0.2, "estimated_time": 90, "correct_answer": "a"}]`,
			wantLen: 1,
			check: func(t *testing.T, q model.GeneratedQuestion) {
				assert.Equal(t, 1.0, q.Difficulty)
				assert.Equal(t, 90, q.EstimatedTime)
			},
		},
		{
			name:    "boolean answer and tag list",
			raw:     `[{"question_content": "TCP is reliable.", "question_type": "True/False", "difficulty": 1, "correct_answer": true, "tags": ["tcp", "transport"], "student_level": "expert/advanced track"}]`,
			wantLen: 1,
			check: func(t *testing.T, q model.GeneratedQuestion) {
				assert.Equal(t, "true", q.CorrectAnswer)
				assert.Equal(t, "tcp, transport", q.Tags)
				assert.Equal(t, model.LevelAdvanced, q.StudentLevel)
			},
		},
		{
			name:    "multiple choice without four options dropped",
			raw:     `[{"question_content": "q", "question_type": "Multiple Choice", "difficulty": 3, "correct_answer": "A", "options": ["A. x", "B. y"]}]`,
			wantLen: 0,
		},
		{
			name:    "multiple choice with options as text dropped",
			raw:     `[{"question_content": "q", "question_type": "Multiple Choice", "difficulty": 3, "correct_answer": "A", "options": "A. x, B. y, C. z, D. w"}]`,
			wantLen: 0,
		},
		{
			name:    "options ignored outside multiple choice",
			raw:     `[{"question_content": "q", "question_type": "Essay", "difficulty": 3, "correct_answer": "a", "options": ["A. x"]}]`,
			wantLen: 1,
			check: func(t *testing.T, q model.GeneratedQuestion) {
				assert.Nil(t, q.Options)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			require.Len(t, got, tt.wantLen)
			if tt.check != nil {
				tt.check(t, got[len(got)-1])
			}
		})
	}
}

func TestParse_KeepsRecordsWithOddOptionalFields(t *testing.T) {
	raw := `[
  {"question_content": "Compare TCP and UDP.", "question_type": "Essay", "difficulty": 4, "correct_answer": "Reliability", "options": "A. x, B. y"},
  {"question_content": "Explain TTL.", "question_type": "Short Answer", "difficulty": 3, "correct_answer": "Hop limit", "estimated_time": true},
  {"question_content": "Define MTU.", "question_type": "Short Answer", "difficulty": 3, "correct_answer": "Max frame", "estimated_time": {"min": 3}, "tags": {"a": 1}},
  {"question_content": "UDP is connectionless.", "question_type": "True/False", "difficulty": 1, "correct_answer": "True", "student_level": 42, "explanation": null}
]`
	got := Parse(raw)
	require.Len(t, got, 4)

	assert.Nil(t, got[0].Options)
	assert.Equal(t, normalize.DefaultEstimatedTime, got[1].EstimatedTime)
	assert.Equal(t, normalize.DefaultEstimatedTime, got[2].EstimatedTime)
	assert.Empty(t, got[2].Tags)
	assert.Equal(t, model.LevelIntermediate, got[3].StudentLevel)
	assert.Empty(t, got[3].Explanation)
}

func TestConvert_ValidationError(t *testing.T) {
	_, err := convert(4, []byte(`{"question_type": "Essay"}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 4, verr.Index)
}

func TestGenerate_RequestParameters(t *testing.T) {
	f := &fakeLLM{raw: batchOfThree}
	req := sampleRequest()
	req.Context.ExampleQuestions = []string{"e1", "e2", "e3", "e4"}
	req.Model = llm.ModelLlama70B

	got, err := New(f, "").Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.Len(t, f.reqs, 1)
	r := f.reqs[0]
	assert.Equal(t, llm.ModelLlama70B, r.Model)
	assert.InDelta(t, 0.7, r.Temperature, 1e-6)
	assert.Equal(t, 2048, r.MaxTokens)
	assert.InDelta(t, 1.0, r.TopP, 1e-6)
	assert.Contains(t, r.User, "Example 3:\ne3")
	assert.NotContains(t, r.User, "e4")
	assert.Contains(t, r.User, "Question types: Multiple Choice, Short Answer")
}

func TestGenerate_Defaults(t *testing.T) {
	f := &fakeLLM{raw: "[]"}
	got, err := New(f, llm.ModelDeepSeek70B).Generate(context.Background(), Request{
		Context: model.QuestionContext{CourseTitle: "c", ChapterTitle: "ch"},
	})
	require.NoError(t, err)
	assert.Empty(t, got)

	r := f.reqs[0]
	assert.Equal(t, llm.ModelDeepSeek70B, r.Model)
	assert.Contains(t, r.User, "Create 3 educational questions")
	assert.Contains(t, r.User, "Difficulty: mixed")
	assert.Contains(t, r.User, "Multiple Choice, True/False, Short Answer")
}

func TestGenerate_NoCredential(t *testing.T) {
	gw := llm.New(llm.Config{BaseURL: "http://127.0.0.1:1/v1"})
	got, err := New(gw, "").Generate(context.Background(), sampleRequest())

	assert.Empty(t, got)
	var cerr *llm.ConfigurationError
	assert.ErrorAs(t, err, &cerr)
}

func TestGenerate_UpstreamError(t *testing.T) {
	f := &fakeLLM{err: &llm.UpstreamError{Model: "m", Err: errors.New("503")}}
	got, err := New(f, "").Generate(context.Background(), sampleRequest())
	assert.Empty(t, got)
	var uerr *llm.UpstreamError
	assert.ErrorAs(t, err, &uerr)
}

func TestGenerate_ThroughGateway(t *testing.T) {
	srv := llmtest.NewServer(t, "```json\n"+`[{"question_content": "q1", "question_type": "Essay", "difficulty": 4, "correct_answer": "a1"}]`+"\n```")
	gw := llm.New(llm.Config{BaseURL: srv.BaseURL(), Credentials: llm.StaticKey("k")})

	got, err := New(gw, "").Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "q1", got[0].QuestionContent)
	assert.InDelta(t, 0.7, srv.Requests()[0]["temperature"], 1e-6)
}

func TestRequestValidate(t *testing.T) {
	ok := sampleRequest()
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"no chapter", func(r *Request) { r.Context.ChapterTitle = " " }},
		{"zero questions", func(r *Request) { r.NumQuestions = 0 }},
		{"too many questions", func(r *Request) { r.NumQuestions = 11 }},
		{"bad difficulty", func(r *Request) { r.DifficultyLevel = "brutal" }},
		{"no types", func(r *Request) { r.QuestionTypes = nil }},
		{"bad type", func(r *Request) { r.QuestionTypes = []model.QuestionType{"Matching"} }},
		{"bad model", func(r *Request) { r.Model = "gpt-5" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleRequest()
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}
