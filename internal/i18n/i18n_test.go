package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NavCourses")
	if got != "Courses" {
		t.Errorf("T(NavCourses) = %q, want 'Courses'", got)
	}

	got = T(ctx, "AnalyzeButton")
	if got != "Analyze and save" {
		t.Errorf("T(AnalyzeButton) = %q, want 'Analyze and save'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "NavCourses")
	if got != "Курсы" {
		t.Errorf("T(NavCourses) = %q, want 'Курсы'", got)
	}
	if Lang(ctx) != "ru" {
		t.Errorf("Lang = %q, want ru", Lang(ctx))
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "QuestionsCount", 1); got != "1 question" {
		t.Errorf("Tp(QuestionsCount, 1) = %q, want '1 question'", got)
	}
	if got := Tp(ctx, "QuestionsCount", 5); got != "5 questions" {
		t.Errorf("Tp(QuestionsCount, 5) = %q, want '5 questions'", got)
	}
}

func TestPluralTranslationRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	tests := map[int]string{
		1:  "1 вопрос",
		3:  "3 вопроса",
		5:  "5 вопросов",
		21: "21 вопрос",
	}
	for n, want := range tests {
		if got := Tp(ctx, "QuestionsCount", n); got != want {
			t.Errorf("Tp(QuestionsCount, %d) = %q, want %q", n, got, want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "EditQuestionN", map[string]any{"ID": 42})
	if got != "Edit question #42" {
		t.Errorf("Td(EditQuestionN, ID=42) = %q, want 'Edit question #42'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestResolve(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		target string
		cookie string
		accept string
		def    string
		want   string
	}{
		{name: "default", target: "/", def: "en", want: "en"},
		{name: "default ru", target: "/", def: "ru", want: "ru"},
		{name: "query", target: "/?lang=ru", def: "en", want: "ru"},
		{name: "unsupported query", target: "/?lang=de", def: "en", want: "en"},
		{name: "cookie", target: "/", cookie: "ru", def: "en", want: "ru"},
		{name: "query beats cookie", target: "/?lang=en", cookie: "ru", def: "ru", want: "en"},
		{name: "accept-language", target: "/", accept: "ru-RU,ru;q=0.9,en;q=0.5", def: "en", want: "ru"},
		{name: "unsupported accept", target: "/", accept: "ja", def: "ru", want: "ru"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: langCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			if got := Resolve(r, tt.def); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatal(err)
	}
	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NavQuestions")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?lang=ru", nil))

	if got != "Вопросы" {
		t.Errorf("translated = %q, want 'Вопросы'", got)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != langCookieName || cookies[0].Value != "ru" {
		t.Errorf("cookies = %v, want lang=ru", cookies)
	}
}
