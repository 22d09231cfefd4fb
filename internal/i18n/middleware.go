package i18n

import (
	"net/http"

	"golang.org/x/text/language"
)

const langCookieName = "lang"

// Supported lists the UI languages with locale files, default first.
var Supported = []language.Tag{language.English, language.Russian}

var matcher = language.NewMatcher(Supported)

// Middleware picks the UI language for each request and stores its localizer
// in the context. An explicit ?lang= query (remembered in a cookie) wins over
// the lang cookie, which wins over Accept-Language; def is the fallback.
func Middleware(def string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := Resolve(r, def)
			if q := r.URL.Query().Get("lang"); q != "" && q == lang {
				http.SetCookie(w, &http.Cookie{
					Name:     langCookieName,
					Value:    lang,
					Path:     "/",
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := WithLang(r.Context(), lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Resolve returns the base language for r, falling back to def.
func Resolve(r *http.Request, def string) string {
	if q := r.URL.Query().Get("lang"); q != "" {
		if l, ok := supported(q); ok {
			return l
		}
	}
	if c, err := r.Cookie(langCookieName); err == nil {
		if l, ok := supported(c.Value); ok {
			return l
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return baseOf(Supported[idx])
			}
		}
	}
	if l, ok := supported(def); ok {
		return l
	}
	return baseOf(Supported[0])
}

func supported(s string) (string, bool) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	want := baseOf(tag)
	for _, t := range Supported {
		if baseOf(t) == want {
			return want, true
		}
	}
	return "", false
}

func baseOf(t language.Tag) string {
	b, _ := t.Base()
	return b.String()
}
