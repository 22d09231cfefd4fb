package views

import (
	"github.com/a-h/templ"

	"github.com/pavelanni/examforge/internal/compare"
	"github.com/pavelanni/examforge/internal/evaluator"
	"github.com/pavelanni/examforge/internal/llm"
	"github.com/pavelanni/examforge/internal/model"
)

// Flash is a one-line message shown above a page's content.
type Flash struct {
	Text  string
	Error bool
}

// IndexData feeds the dashboard.
type IndexData struct {
	Courses      int
	Chapters     int
	Questions    int
	AIQuestions  int
	LLMAvailable bool
}

// CoursesData feeds the course and chapter authoring page.
type CoursesData struct {
	Courses  []model.Course
	Chapters []model.ChapterView
	Flash    *Flash
}

// QuestionForm holds the fields of the manual and analyze question forms.
type QuestionForm struct {
	ChapterID     int64
	Content       string
	QuestionType  model.QuestionType
	CorrectAnswer string
	Options       []string
	Explanation   string
	Difficulty    float64
	EstimatedTime int
	StudentLevel  model.StudentLevel
	Tags          string
}

// QuestionsData feeds the question list and manual entry page.
type QuestionsData struct {
	Chapters  []model.ChapterView
	ChapterID int64
	Questions []model.QuestionView
	Form      QuestionForm
	Flash     *Flash
}

// EditQuestionData feeds the question edit page.
type EditQuestionData struct {
	Question model.Question
	Form     QuestionForm
	Flash    *Flash
}

// AnalyzeData feeds the analyze-and-save page.
type AnalyzeData struct {
	Chapters []model.ChapterView
	Form     QuestionForm
	Analysis *evaluator.Analysis
	// Colour is the traffic-light colour of the analyzed difficulty.
	Colour  string
	SavedID int64
	Flash   *Flash
}

// GenerateForm holds the bulk generation form fields.
type GenerateForm struct {
	ChapterID       int64
	NumQuestions    int
	DifficultyLevel string
	QuestionTypes   []model.QuestionType
	Model           llm.ModelID
}

// HasType reports whether t is selected on the form.
func (f GenerateForm) HasType(t model.QuestionType) bool {
	for _, s := range f.QuestionTypes {
		if s == t {
			return true
		}
	}
	return false
}

// GenerateData feeds the bulk generation page.
type GenerateData struct {
	Chapters         []model.ChapterView
	Models           []llm.ModelID
	DifficultyLevels []string
	MaxQuestions     int
	Form             GenerateForm
	Questions        []model.GeneratedQuestion
	// Payload is the JSON batch carried by the save form.
	Payload string
	Flash   *Flash
}

// CompareData feeds the instructor vs model comparison page.
type CompareData struct {
	Questions  []model.QuestionView
	Selected   *model.QuestionView
	Analysis   *evaluator.Analysis
	Comparison *compare.Comparison
	Flash      *Flash
}

// ExamChapter groups a chapter's questions on an exam listing.
type ExamChapter struct {
	CourseTitle  string
	ChapterTitle string
	Questions    []model.QuestionView
	TotalMinutes int
}

// ExamData feeds the exam listings.
type ExamData struct {
	AI        bool
	Courses   []model.Course
	CourseID  int64
	Chapters  []ExamChapter
	Total     int
	TotalTime int
}

// AdminQuestionsData feeds the question import page.
type AdminQuestionsData struct {
	Chapters []model.ChapterView
	Flash    *Flash
}

// LoginPage renders the sign-in form. next is the path to return to after
// a successful login.
func LoginPage(errMsg, next string) templ.Component {
	return page("login", map[string]any{"Error": errMsg, "Next": next})
}

func IndexPage(d IndexData) templ.Component {
	return page("index", d)
}

func CoursesPage(d CoursesData) templ.Component {
	return page("courses", d)
}

func QuestionsPage(d QuestionsData) templ.Component {
	return page("questions", d)
}

func EditQuestionPage(d EditQuestionData) templ.Component {
	return page("question_edit", d)
}

func AnalyzePage(d AnalyzeData) templ.Component {
	return page("analyze", d)
}

func GeneratePage(d GenerateData) templ.Component {
	return page("generate", d)
}

func ComparePage(d CompareData) templ.Component {
	return page("compare", d)
}

func ExamPage(d ExamData) templ.Component {
	return page("exam", d)
}

func AdminUsersPage(users []model.User, flash *Flash) templ.Component {
	return page("admin_users", map[string]any{"Users": users, "Flash": flash})
}

func AdminQuestionsPage(d AdminQuestionsData) templ.Component {
	return page("admin_questions", d)
}
