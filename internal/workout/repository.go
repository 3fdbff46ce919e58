package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/contexthelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/sqlite"
)

var (
	// ErrNotFound is returned when a requested entity does not exist for the current user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is wrapped by validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated is returned when the context carries no user.
	ErrUnauthenticated = errors.New("user not authenticated")
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

// repository contains the repositories for the workout domain aggregates.
type repository struct {
	splits   splitRepository
	sessions sessionRepository
}

// splitRepository persists splits of the authenticated user.
type splitRepository interface {
	Create(ctx context.Context, split Split) error
	Get(ctx context.Context, id string) (Split, error)
	List(ctx context.Context) ([]Split, error)
	Update(ctx context.Context, id string, updateFn func(split *Split) (bool, error)) error
	Delete(ctx context.Context, id string) error
}

// sessionRepository persists workout sessions of the authenticated user.
type sessionRepository interface {
	Create(ctx context.Context, sess Session) error
	Get(ctx context.Context, id string) (Session, error)
	// List returns sessions started at or after since, oldest first.
	List(ctx context.Context, since time.Time) ([]Session, error)
	Update(ctx context.Context, id string, updateFn func(sess *Session) (bool, error)) error
	Delete(ctx context.Context, id string) error
}

// repositoryFactory creates repository instances.
type repositoryFactory struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newRepositoryFactory(db *sqlite.Database, logger *slog.Logger) *repositoryFactory {
	return &repositoryFactory{
		db:     db,
		logger: logger,
	}
}

func (f *repositoryFactory) newRepository() *repository {
	return &repository{
		splits:   newSQLiteSplitRepository(f.db, f.logger),
		sessions: newSQLiteSessionRepository(f.db, f.logger),
	}
}

// baseRepository holds what every SQLite repository needs.
type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newBaseRepository(db *sqlite.Database, logger *slog.Logger) baseRepository {
	return baseRepository{
		db:     db,
		logger: logger,
	}
}

// userID returns the authenticated user or ErrUnauthenticated.
func (r baseRepository) userID(ctx context.Context) (int, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	if userID == 0 {
		return 0, ErrUnauthenticated
	}
	return userID, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rollback returns a deferrable that rolls tx back and joins any failure into errp.
func rollback(tx *sql.Tx, errp *error) func() {
	return func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			*errp = errors.Join(*errp, fmt.Errorf("rollback transaction: %w", rbErr))
		}
	}
}

// requireRowAffected maps an update or delete that touched nothing to ErrNotFound.
func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func formatNullTimestamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTimestamp(*t), Valid: true}
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return t, nil
}

func parseNullTimestamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil //nolint:nilnil // a missing timestamp is not an error.
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
