package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examforge/internal/evaluator"
	"github.com/pavelanni/examforge/internal/generator"
	"github.com/pavelanni/examforge/internal/handler/views"
	appI18n "github.com/pavelanni/examforge/internal/i18n"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/store"
)

// Evaluator rates a single question.
type Evaluator interface {
	Evaluate(ctx context.Context, qc model.QuestionContext) evaluator.Analysis
}

// Generator produces a batch of questions for a chapter.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) ([]model.GeneratedQuestion, error)
}

// Status reports whether the model backend has a credential.
type Status interface {
	Available() bool
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	evaluator Evaluator
	generator Generator
	status    Status
	config    model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, ev Evaluator, gen Generator, st Status, cfg model.ServerConfig) (*Handler, error) {
	return &Handler{store: s, evaluator: ev, generator: gen, status: st, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Use(h.csrfMiddleware)

		r.Post("/logout", h.handleLogout)
		r.Get("/", h.handleIndex)

		r.Get("/courses", h.handleCoursesPage)
		r.Post("/courses", h.handleCreateCourse)
		r.Post("/courses/{courseID}", h.handleUpdateCourse)
		r.Post("/courses/{courseID}/delete", h.handleDeleteCourse)
		r.Post("/chapters", h.handleCreateChapter)
		r.Post("/chapters/{chapterID}", h.handleUpdateChapter)
		r.Post("/chapters/{chapterID}/delete", h.handleDeleteChapter)

		r.Get("/questions", h.handleQuestionsPage)
		r.Post("/questions", h.handleCreateQuestion)
		r.Get("/questions/{questionID}/edit", h.handleEditQuestionPage)
		r.Post("/questions/{questionID}", h.handleUpdateQuestion)
		r.Post("/questions/{questionID}/delete", h.handleDeleteQuestion)

		r.Get("/analyze", h.handleAnalyzePage)
		r.Post("/analyze", h.handleAnalyze)
		r.Get("/generate", h.handleGeneratePage)
		r.Post("/generate", h.handleGenerate)
		r.Post("/generate/save", h.handleSaveGenerated)
		r.Get("/compare", h.handleComparePage)
		r.Post("/compare", h.handleCompare)

		r.Get("/exams", h.handleExam(false))
		r.Get("/exams/ai", h.handleExam(true))

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/users", h.handleAdminUsersPage)
			r.Post("/users", h.handleCreateUser)
			r.Post("/users/{userID}/toggle", h.handleToggleUserActive)
			r.Post("/users/{userID}/password", h.handleResetPassword)
			r.Get("/questions", h.handleAdminQuestionsPage)
			r.Post("/questions", h.handleUploadQuestions)
		})
	})
}

// BasePathMiddleware stores the configured base path in the request context
// so views can build links.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// redirect sends the browser to p, carrying a flash message key and
// optional count in the query string.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, p, flash string, count ...int) {
	if flash != "" {
		q := url.Values{"flash": {flash}}
		if len(count) > 0 {
			q.Set("n", strconv.Itoa(count[0]))
		}
		sep := "?"
		if strings.Contains(p, "?") {
			sep = "&"
		}
		p += sep + q.Encode()
	}
	http.Redirect(w, r, h.path(p), http.StatusSeeOther)
}

// flashFromQuery turns a redirect's flash key back into a message. Only
// "Flash*" keys are honoured.
func flashFromQuery(r *http.Request) *views.Flash {
	key := r.URL.Query().Get("flash")
	if !strings.HasPrefix(key, "Flash") {
		return nil
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("n")); err == nil {
		return &views.Flash{Text: appI18n.Tp(r.Context(), key, n)}
	}
	return &views.Flash{Text: appI18n.T(r.Context(), key)}
}

func errorFlash(ctx context.Context, key string) *views.Flash {
	return &views.Flash{Text: appI18n.T(ctx, key), Error: true}
}

func errorFlashf(ctx context.Context, key string, err error) *views.Flash {
	return &views.Flash{Text: appI18n.Td(ctx, key, map[string]any{"Error": err.Error()}), Error: true}
}

func serverError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func formID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.FormValue(name), 10, 64)
	return id
}

func currentUserID(r *http.Request) *int64 {
	u := model.UserFromContext(r.Context())
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses()
	if err != nil {
		serverError(w, "failed to list courses", err)
		return
	}
	chapters, err := h.store.ListChapters(0)
	if err != nil {
		serverError(w, "failed to list chapters", err)
		return
	}
	total, err := h.store.QuestionCount()
	if err != nil {
		serverError(w, "failed to count questions", err)
		return
	}
	ai, err := h.store.ListQuestions(store.QuestionFilter{AIOnly: true})
	if err != nil {
		serverError(w, "failed to list questions", err)
		return
	}

	render(w, r, http.StatusOK, views.IndexPage(views.IndexData{
		Courses:      len(courses),
		Chapters:     len(chapters),
		Questions:    total,
		AIQuestions:  len(ai),
		LLMAvailable: h.status == nil || h.status.Available(),
	}))
}
