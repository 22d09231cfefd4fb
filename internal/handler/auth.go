package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/examforge/internal/handler/views"
	appI18n "github.com/pavelanni/examforge/internal/i18n"
	"github.com/pavelanni/examforge/internal/model"
)

const (
	sessionCookieName = "session"
	csrfCookieName    = "csrf_token"
)

var errBadCredentials = errors.New("invalid username or password")

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// checkCSRF compares the form token with the cookie. It returns the reason
// for rejection, or "" when the tokens match.
func checkCSRF(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return "cookie missing"
	}
	form := r.FormValue("csrf_token")
	switch {
	case form == "":
		return "form token missing"
	case subtle.ConstantTimeCompare([]byte(form), []byte(cookie.Value)) != 1:
		return "token mismatch"
	}
	return ""
}

// csrfMiddleware implements the double-submit cookie check on unsafe
// methods. Every request that passes gets a fresh token.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			if reason := checkCSRF(r); reason != "" {
				slog.Warn("CSRF check failed", "reason", reason, "path", r.URL.Path)
				http.Error(w, "invalid csrf token", http.StatusForbidden)
				return
			}
		}

		token, err := generateCSRFToken()
		if err != nil {
			serverError(w, "failed to generate CSRF token", err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     csrfCookieName,
			Value:    token,
			Path:     h.cookiePath(),
			Secure:   h.config.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		next.ServeHTTP(w, r.WithContext(model.ContextWithCSRFToken(r.Context(), token)))
	})
}

// sessionUser returns the active user behind the request's session cookie,
// or nil.
func (h *Handler) sessionUser(r *http.Request) *model.User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := h.store.GetAuthSession(cookie.Value)
	if err != nil {
		slog.Error("failed to get auth session", "error", err)
		return nil
	}
	if sess == nil {
		return nil
	}
	user, err := h.store.GetUserByID(sess.UserID)
	if err != nil {
		slog.Error("failed to get session user", "user_id", sess.UserID, "error", err)
		return nil
	}
	if user == nil || !user.Active {
		return nil
	}
	return user
}

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := h.sessionUser(r)
		if user == nil {
			h.redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(model.ContextWithUser(r.Context(), user)))
	})
}

// requireRole rejects users whose role is not in allowed.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			slog.Warn("role check failed", "username", user.Username, "role", user.Role, "path", r.URL.Path)
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

// redirectToLogin sends the browser to the login page. A page other than
// the dashboard is remembered so login can return to it.
func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := h.path("/login")
	local := strings.TrimPrefix(r.URL.RequestURI(), h.config.BasePath)
	if r.Method == http.MethodGet && local != "/" && local != "" {
		target += "?" + url.Values{"next": {local}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// safeNext keeps only local absolute paths so login cannot redirect off-site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if h.sessionUser(r) != nil {
		http.Redirect(w, r, h.path(next), http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, views.LoginPage("", next))
}

// authenticate checks a username and password against the store. Unknown,
// inactive and wrong-password users all yield errBadCredentials.
func (h *Handler) authenticate(username, password string) (*model.User, error) {
	user, err := h.store.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, errBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errBadCredentials
	}
	return user, nil
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	next := safeNext(r.FormValue("next"))

	user, err := h.authenticate(username, r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, errBadCredentials) {
			slog.Error("failed to look up user", "username", username, "error", err)
		} else {
			slog.Warn("login failed", "username", username)
		}
		render(w, r, http.StatusUnauthorized, views.LoginPage(appI18n.T(r.Context(), "LoginError"), next))
		return
	}

	token, err := h.store.CreateAuthSession(user.ID)
	if err != nil {
		serverError(w, "failed to create auth session", err)
		return
	}
	slog.Info("user logged in", "username", user.Username, "role", user.Role)
	h.setSessionCookie(w, token, 0)
	http.Redirect(w, r, h.path(next), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := h.store.DeleteAuthSession(cookie.Value); err != nil {
			slog.Warn("failed to delete auth session", "error", err)
		}
	}
	h.setSessionCookie(w, "", -1)
	http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
