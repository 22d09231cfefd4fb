// Package views renders the HTML pages. Every page is a templ.Component so
// handlers render them the same way regardless of how the markup is produced.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/examforge/internal/i18n"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/report"
)

//go:embed templates/*.html
var files embed.FS

// Functions that need the request context are replaced per render; these
// stubs only let the templates parse.
var ctxFuncNames = []string{"T", "Td", "Tp", "path", "csrf", "user", "lang"}

var staticFuncs = template.FuncMap{
	"difficulty":      report.FormatDifficulty,
	"difficultyClass": model.DifficultyClass,
	"optionLabel":     model.OptionLabel,
	"pct":             func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"add":             func(a, b int) int { return a + b },
	"dict":            dict,
	"deref": func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	},
	"optionLabels": func() []string {
		labels := make([]string, model.NumOptions)
		for i := range labels {
			labels[i] = model.OptionLabel(i)
		}
		return labels
	},
	"optionAt": func(opts []string, i int) string {
		if i < 0 || i >= len(opts) {
			return ""
		}
		return opts[i]
	},
	"creator": func(show bool, name string) string {
		if !show {
			return ""
		}
		return name
	},
	"options": func(q model.Question) []string {
		_, opts := model.DecodeAnswer(q.QuestionType, q.CorrectAnswer)
		return opts
	},
	"answer": func(q model.Question) string {
		a, _ := model.DecodeAnswer(q.QuestionType, q.CorrectAnswer)
		return a
	},
	"questionTypes": func() []model.QuestionType { return model.QuestionTypes },
	"studentLevels": func() []model.StudentLevel { return model.StudentLevels },
	"isAdmin":       func(u *model.User) bool { return u != nil && u.Role == model.UserRoleAdmin },
}

var base = template.Must(
	template.New("views").
		Funcs(staticFuncs).
		Funcs(stubFuncs()).
		ParseFS(files, "templates/*.html"),
)

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

func stubFuncs() template.FuncMap {
	m := template.FuncMap{}
	for _, name := range ctxFuncNames {
		m[name] = func(...any) string { return "" }
	}
	return m
}

func ctxFuncs(ctx context.Context) template.FuncMap {
	bp := model.BasePathFromContext(ctx)
	return template.FuncMap{
		"T": func(id string) string { return appI18n.T(ctx, id) },
		"Td": func(id string, kv ...any) string {
			data := make(map[string]any, len(kv)/2)
			for i := 0; i+1 < len(kv); i += 2 {
				if k, ok := kv[i].(string); ok {
					data[k] = kv[i+1]
				}
			}
			return appI18n.Td(ctx, id, data)
		},
		"Tp":   func(id string, n int) string { return appI18n.Tp(ctx, id, n) },
		"path": func(p string) string { return bp + p },
		"csrf": func() string { return model.CSRFTokenFromContext(ctx) },
		"user": func() *model.User { return model.UserFromContext(ctx) },
		"lang": func() string { return appI18n.Lang(ctx) },
	}
}

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, err := base.Clone()
		if err != nil {
			return err
		}
		return t.Funcs(ctxFuncs(ctx)).ExecuteTemplate(w, name, data)
	})
}
