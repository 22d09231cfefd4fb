package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/examforge/internal/handler/views"
	appI18n "github.com/pavelanni/examforge/internal/i18n"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/store"
)

const maxUploadSize = 10 << 20

func (h *Handler) renderAdminUsers(w http.ResponseWriter, r *http.Request, status int, flash *views.Flash) {
	users, err := h.store.ListUsers()
	if err != nil {
		serverError(w, "failed to list users", err)
		return
	}
	render(w, r, status, views.AdminUsersPage(users, flash))
}

func (h *Handler) handleAdminUsersPage(w http.ResponseWriter, r *http.Request) {
	h.renderAdminUsers(w, r, http.StatusOK, flashFromQuery(r))
}

func validRole(role model.UserRole) bool {
	return role == model.UserRoleInstructor || role == model.UserRoleAdmin
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	password := r.FormValue("password")
	role := model.UserRole(r.FormValue("role"))

	if username == "" || password == "" {
		h.renderAdminUsers(w, r, http.StatusBadRequest, errorFlash(r.Context(), "ErrUserFields"))
		return
	}
	if !validRole(role) {
		h.renderAdminUsers(w, r, http.StatusBadRequest, errorFlash(r.Context(), "ErrInvalidRole"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		serverError(w, "failed to hash password", err)
		return
	}

	if displayName == "" {
		displayName = username
	}

	_, err = h.store.CreateUser(model.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		h.renderAdminUsers(w, r, http.StatusBadRequest, errorFlashf(r.Context(), "ErrInvalidRequest", err))
		return
	}

	h.redirect(w, r, "/admin/users", "FlashUserCreated")
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "userID")
	if !ok {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	if u := model.UserFromContext(r.Context()); u != nil && u.ID == id {
		h.renderAdminUsers(w, r, http.StatusBadRequest, errorFlash(r.Context(), "ErrSelfDeactivate"))
		return
	}

	if err := h.store.ToggleUserActive(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		serverError(w, "failed to toggle user active", err)
		return
	}

	h.redirect(w, r, "/admin/users", "FlashUserUpdated")
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "userID")
	if !ok {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	password := r.FormValue("password")
	if password == "" {
		h.renderAdminUsers(w, r, http.StatusBadRequest, errorFlash(r.Context(), "ErrPasswordRequired"))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		serverError(w, "failed to hash password", err)
		return
	}
	if err := h.store.SetUserPassword(id, string(hash)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		serverError(w, "failed to set password", err)
		return
	}
	h.redirect(w, r, "/admin/users", "FlashPasswordReset")
}

func (h *Handler) renderAdminQuestions(w http.ResponseWriter, r *http.Request, status int, flash *views.Flash) {
	chapters, err := h.store.ListChapters(0)
	if err != nil {
		serverError(w, "failed to list chapters", err)
		return
	}
	render(w, r, status, views.AdminQuestionsPage(views.AdminQuestionsData{Chapters: chapters, Flash: flash}))
}

func (h *Handler) handleAdminQuestionsPage(w http.ResponseWriter, r *http.Request) {
	h.renderAdminQuestions(w, r, http.StatusOK, nil)
}

// handleUploadQuestions imports a JSON question file into a chapter. A file
// name is imported once; re-importing a changed file needs the force box.
func (h *Handler) handleUploadQuestions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("questions_file")
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	res, err := h.store.ImportQuestions(
		formID(r, "chapter_id"), header.Filename, data, currentUserID(r), r.FormValue("force") != "",
	)
	if err != nil {
		slog.Warn("question import failed", "filename", header.Filename, "error", err)
		h.renderAdminQuestions(w, r, http.StatusBadRequest, errorFlashf(r.Context(), "ErrInvalidFile", err))
		return
	}

	var flash *views.Flash
	switch res.Status {
	case store.ImportDone:
		flash = &views.Flash{Text: appI18n.Tp(r.Context(), "ImportedCount", res.Count)}
	case store.ImportUnchanged:
		flash = &views.Flash{Text: appI18n.T(r.Context(), "ImportUnchanged")}
	case store.ImportChanged:
		flash = errorFlash(r.Context(), "ImportChanged")
	default:
		flash = errorFlashf(r.Context(), "ErrInvalidFile", fmt.Errorf("unexpected import status %q", res.Status))
	}
	h.renderAdminQuestions(w, r, http.StatusOK, flash)
}
