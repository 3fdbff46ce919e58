// Package account manages anonymous user accounts and binds them to the HTTP session.
package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/contexthelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/sqlite"
)

const (
	userIDSessionKey   = "user_id"
	maxDisplayNameSize = 99
	timestampFormat    = "2006-01-02T15:04:05.000Z"
)

var (
	// ErrNotFound is returned when the session refers to a user that does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidDisplayName is returned for display names that do not fit the users table.
	ErrInvalidDisplayName = errors.New("invalid display name")
)

type User struct {
	ID          int       `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type Handler struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	database       *sqlite.Database
}

func New(logger *slog.Logger, sessionManager *scs.SessionManager, database *sqlite.Database) *Handler {
	return &Handler{
		logger:         logger,
		sessionManager: sessionManager,
		database:       database,
	}
}

// Register creates a new user and signs it in to the current session.
func (h *Handler) Register(ctx context.Context, displayName string) (User, error) {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > maxDisplayNameSize {
		return User{}, fmt.Errorf("%w: longer than %d bytes", ErrInvalidDisplayName, maxDisplayNameSize)
	}

	var (
		user      = User{DisplayName: displayName}
		createdAt string
	)
	stmt := `INSERT INTO users (display_name) VALUES (?) RETURNING id, created_at`
	if err := h.database.ReadWrite.QueryRowContext(ctx, stmt, displayName).Scan(&user.ID, &createdAt); err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	var err error
	if user.CreatedAt, err = time.Parse(timestampFormat, createdAt); err != nil {
		return User{}, fmt.Errorf("parse created_at %s: %w", createdAt, err)
	}

	if err = h.sessionManager.RenewToken(ctx); err != nil {
		return User{}, fmt.Errorf("renew session token: %w", err)
	}
	h.sessionManager.Put(ctx, userIDSessionKey, user.ID)
	h.logger.LogAttrs(ctx, slog.LevelInfo, "registered user", slog.Int("user_id", user.ID))
	return user, nil
}

// Current returns the authenticated user.
func (h *Handler) Current(ctx context.Context) (User, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	if userID == 0 {
		return User{}, ErrNotFound
	}
	return h.getUser(ctx, userID)
}

func (h *Handler) getUser(ctx context.Context, id int) (User, error) {
	var (
		user      User
		createdAt string
	)
	stmt := `SELECT id, display_name, created_at FROM users WHERE id = ?`
	err := h.database.ReadOnly.QueryRowContext(ctx, stmt, id).Scan(&user.ID, &user.DisplayName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("read user: %w", err)
	}
	if user.CreatedAt, err = time.Parse(timestampFormat, createdAt); err != nil {
		return User{}, fmt.Errorf("parse created_at %s: %w", createdAt, err)
	}
	return user, nil
}

// Logout removes the user from the session.
func (h *Handler) Logout(ctx context.Context) error {
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}
	h.sessionManager.Remove(ctx, userIDSessionKey)
	return nil
}

// Delete removes the authenticated user together with all of its splits and sessions.
func (h *Handler) Delete(ctx context.Context) error {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	if userID == 0 {
		return ErrNotFound
	}
	if _, err := h.database.ReadWrite.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}
	return h.Logout(ctx)
}
