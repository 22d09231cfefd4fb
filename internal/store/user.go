package store

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/pavelanni/examforge/internal/model"
)

const userColumns = `id, username, display_name, password_hash, role, active, created_at`

func scanUser(row scanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	return u, err
}

// CreateUser inserts a new user. An empty role means instructor.
func (s *Store) CreateUser(u model.User) (int64, error) {
	if u.Role == "" {
		u.Role = model.UserRoleInstructor
	}
	res, err := s.db.Exec(
		`INSERT INTO users (username, display_name, password_hash, role, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.DisplayName, u.PasswordHash, u.Role, u.Active, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create user", "username", u.Username, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created user", "id", id, "username", u.Username, "role", u.Role)
	return id, nil
}

func (s *Store) getUser(where string, arg any) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername returns nil when no such user exists.
func (s *Store) GetUserByUsername(username string) (*model.User, error) {
	return s.getUser(`username = ?`, username)
}

// GetUserByID returns nil when no such user exists.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	return s.getUser(`id = ?`, id)
}

// ListUsers returns all users in creation order.
func (s *Store) ListUsers() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ToggleUserActive flips the active flag on a user. Deactivating a user
// ends their sessions.
func (s *Store) ToggleUserActive(id int64) error {
	return s.withUserTx(id, "toggled user active", `UPDATE users SET active = NOT active WHERE id = ?`, id)
}

// SetUserPassword replaces a user's password hash and ends their sessions.
func (s *Store) SetUserPassword(id int64, hash string) error {
	return s.withUserTx(id, "changed user password", `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
}

// withUserTx runs one user update and drops the user's sessions in the same
// transaction. It returns sql.ErrNoRows when no user has id.
func (s *Store) withUserTx(id int64, logMsg, query string, args ...any) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	if _, err := tx.Exec(`DELETE FROM auth_sessions WHERE user_id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info(logMsg, "id", id)
	return nil
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
