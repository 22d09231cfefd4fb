package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/pavelanni/examforge/internal/compare"
	"github.com/pavelanni/examforge/internal/evaluator"
	"github.com/pavelanni/examforge/internal/model"
)

func testContext(role model.UserRole) context.Context {
	ctx := model.ContextWithBasePath(context.Background(), "/bp")
	ctx = model.ContextWithCSRFToken(ctx, "tok123")
	if role != "" {
		ctx = model.ContextWithUser(ctx, &model.User{ID: 1, Username: "u", DisplayName: "Dana", Role: role, Active: true})
	}
	return ctx
}

func renderString(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func assertContains(t *testing.T, html string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(html, p) {
			t.Errorf("output missing %q", p)
		}
	}
}

func TestLoginPage(t *testing.T) {
	html := renderString(t, testContext(""), LoginPage("<bad>", "/exams"))
	assertContains(t, html, "Sign in", `action="/bp/login"`, "&lt;bad&gt;", `name="next" value="/exams"`)
	if strings.Contains(html, "Log out") {
		t.Error("login page shows logout for anonymous user")
	}
}

func TestNavigationByRole(t *testing.T) {
	admin := renderString(t, testContext(model.UserRoleAdmin), IndexPage(IndexData{LLMAvailable: true}))
	assertContains(t, admin, `href="/bp/admin/users"`, "Dana", `value="tok123"`)

	instructor := renderString(t, testContext(model.UserRoleInstructor), IndexPage(IndexData{Questions: 2}))
	if strings.Contains(instructor, "/bp/admin/users") {
		t.Error("instructor sees admin navigation")
	}
	assertContains(t, instructor, "2 questions", "No model API key is configured")
}

func TestQuestionsPage(t *testing.T) {
	q := model.Question{
		ID:            5,
		ChapterID:     2,
		Content:       "What is 2+2?",
		QuestionType:  model.TypeShortAnswer,
		Difficulty:    4.5,
		EstimatedTime: 3,
		StudentLevel:  model.LevelBeginner,
		Source:        model.SourceGenerated,
	}
	data := QuestionsData{
		Chapters:  []model.ChapterView{{Chapter: model.Chapter{ID: 2, Title: "Arithmetic"}, CourseTitle: "Math"}},
		ChapterID: 2,
		Questions: []model.QuestionView{{Question: q, ChapterTitle: "Arithmetic", CourseTitle: "Math"}},
		Form:      QuestionForm{Options: make([]string, 4), Difficulty: 3, EstimatedTime: 5},
		Flash:     &Flash{Text: "Saved!"},
	}
	html := renderString(t, testContext(model.UserRoleInstructor), QuestionsPage(data))
	assertContains(t, html,
		"What is 2+2?",
		`class="hard"`,
		"4.5",
		"Generated",
		`href="/bp/questions/5/edit"`,
		`<option value="2" selected>Math / Arithmetic</option>`,
		`placeholder="A. ..."`,
		"Saved!",
	)
}

func TestAnalyzePageShowsReport(t *testing.T) {
	d := 1.5
	data := AnalyzeData{
		Form:     QuestionForm{Options: make([]string, 4)},
		Analysis: &evaluator.Analysis{Difficulty: &d, Report: "## Question Analysis"},
		Colour:   compare.Colour(d),
		SavedID:  9,
	}
	html := renderString(t, testContext(model.UserRoleInstructor), AnalyzePage(data))
	assertContains(t, html, `class="green"`, "1.5/5.0", "## Question Analysis", "Saved as question #9")
}

func TestAnalyzePageUnavailable(t *testing.T) {
	data := AnalyzeData{
		Form:     QuestionForm{Options: make([]string, 4)},
		Analysis: &evaluator.Analysis{Report: evaluator.MsgNotInitialized},
	}
	html := renderString(t, testContext(model.UserRoleInstructor), AnalyzePage(data))
	assertContains(t, html, "client not initialized")
	if strings.Contains(html, "/5.0") {
		t.Error("unavailable analysis shows a difficulty")
	}
}

func TestGeneratePagePreview(t *testing.T) {
	data := GenerateData{
		Chapters:         []model.ChapterView{{Chapter: model.Chapter{ID: 2, Title: "Essays"}, CourseTitle: "Writing"}},
		DifficultyLevels: []string{"easy", "mixed"},
		MaxQuestions:     10,
		Form:             GenerateForm{ChapterID: 2, NumQuestions: 3, DifficultyLevel: "mixed", QuestionTypes: []model.QuestionType{model.TypeEssay}},
		Questions: []model.GeneratedQuestion{
			{QuestionContent: "Explain <tags>", QuestionType: model.TypeEssay, Difficulty: 3, EstimatedTime: 10, StudentLevel: model.LevelAdvanced},
		},
		Payload: `[{"question_content":"Explain <tags>"}]`,
	}
	html := renderString(t, testContext(model.UserRoleInstructor), GeneratePage(data))
	assertContains(t, html,
		"Explain &lt;tags&gt;",
		`name="select" value="0" checked`,
		`value="Essay" checked`,
		`<option value="mixed" selected>Mixed</option>`,
		`action="/bp/generate/save"`,
	)
	if strings.Contains(html, `"question_content":"Explain <tags>"`) {
		t.Error("payload is not escaped")
	}
}

func TestComparePage(t *testing.T) {
	cmp := compare.Compare(
		compare.Judgment{Difficulty: 2, EstimatedTime: 5, StudentLevel: model.LevelBeginner},
		compare.Judgment{Difficulty: 3, EstimatedTime: 8, StudentLevel: model.LevelBeginner},
	)
	html := renderString(t, testContext(model.UserRoleInstructor), ComparePage(CompareData{Comparison: &cmp}))
	assertContains(t, html, "50.0% higher", "3 min longer", "Match")
}

func TestExamPageAI(t *testing.T) {
	q := model.Question{
		ID:            1,
		ChapterID:     2,
		Content:       "Pick one",
		QuestionType:  model.TypeMultipleChoice,
		CorrectAnswer: "B|A. x|B. y|C. z|D. w",
		Difficulty:    2,
		EstimatedTime: 2,
	}
	data := ExamData{
		AI:    true,
		Total: 1,
		Chapters: []ExamChapter{{
			CourseTitle:  "Math",
			ChapterTitle: "Logic",
			Questions:    []model.QuestionView{{Question: q, CreatorName: "Alice"}},
			TotalMinutes: 2,
		}},
	}
	html := renderString(t, testContext(model.UserRoleInstructor), ExamPage(data))
	assertContains(t, html, "AI-assisted exam", "Math / Logic", "<li>C. z</li>", "by Alice", "Easy (2.0)")

	data.AI = false
	html = renderString(t, testContext(model.UserRoleInstructor), ExamPage(data))
	if strings.Contains(html, "by Alice") {
		t.Error("complete exam listing shows creator")
	}
}

func TestAdminPages(t *testing.T) {
	users := []model.User{{ID: 3, Username: "bob", DisplayName: "Bob", Role: model.UserRoleInstructor, Active: false}}
	html := renderString(t, testContext(model.UserRoleAdmin), AdminUsersPage(users, &Flash{Text: "oops", Error: true}))
	assertContains(t, html, "bob", "Instructor", "Activate", `action="/bp/admin/users/3/toggle"`, `class="flash error"`)

	html = renderString(t, testContext(model.UserRoleAdmin), AdminQuestionsPage(AdminQuestionsData{}))
	assertContains(t, html, "Create a course and a chapter first.")
}
