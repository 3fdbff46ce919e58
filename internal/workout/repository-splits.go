package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/sqlite"
)

// sqliteSplitRepository implements splitRepository. Days are stored as a JSON document.
type sqliteSplitRepository struct {
	baseRepository
}

func newSQLiteSplitRepository(db *sqlite.Database, logger *slog.Logger) *sqliteSplitRepository {
	return &sqliteSplitRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

func (r *sqliteSplitRepository) Create(ctx context.Context, split Split) error {
	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}
	days, err := json.Marshal(split.Days)
	if err != nil {
		return fmt.Errorf("marshal days: %w", err)
	}
	if _, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO splits (id, user_id, name, description, days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		split.ID, userID, split.Name, split.Description, string(days),
		formatTimestamp(split.CreatedAt), formatTimestamp(split.UpdatedAt)); err != nil {
		return fmt.Errorf("insert split: %w", err)
	}
	return nil
}

func (r *sqliteSplitRepository) Get(ctx context.Context, id string) (Split, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return Split{}, err
	}
	return getSplit(ctx, r.db.ReadOnly, userID, id)
}

func getSplit(ctx context.Context, q querier, userID int, id string) (Split, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, description, days, created_at, updated_at
		FROM splits
		WHERE user_id = ? AND id = ?`, userID, id)
	split, err := scanSplit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Split{}, ErrNotFound
	}
	if err != nil {
		return Split{}, err
	}
	return split, nil
}

// List returns the user's splits, newest first.
func (r *sqliteSplitRepository) List(ctx context.Context) (_ []Split, err error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, name, description, days, created_at, updated_at
		FROM splits
		WHERE user_id = ?
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query splits: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	splits := []Split{}
	for rows.Next() {
		var split Split
		if split, err = scanSplit(rows); err != nil {
			return nil, err
		}
		splits = append(splits, split)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return splits, nil
}

// Update applies updateFn to the stored split inside one transaction and saves it when updateFn
// reports a change.
func (r *sqliteSplitRepository) Update(
	ctx context.Context,
	id string,
	updateFn func(split *Split) (bool, error),
) (err error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}

	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx, &err)()

	split, err := getSplit(ctx, tx, userID, id)
	if err != nil {
		return fmt.Errorf("get split for update: %w", err)
	}
	updated, err := updateFn(&split)
	if err != nil {
		return fmt.Errorf("update function: %w", err)
	}
	if !updated {
		return nil
	}

	days, err := json.Marshal(split.Days)
	if err != nil {
		return fmt.Errorf("marshal days: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE splits
		SET name = ?, description = ?, days = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		split.Name, split.Description, string(days), formatTimestamp(split.UpdatedAt), userID, id)
	if err != nil {
		return fmt.Errorf("update split: %w", err)
	}
	if err = requireRowAffected(res); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *sqliteSplitRepository) Delete(ctx context.Context, id string) error {
	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}
	res, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM splits WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete split: %w", err)
	}
	return requireRowAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSplit(row rowScanner) (Split, error) {
	var (
		split                Split
		days                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&split.ID, &split.Name, &split.Description, &days, &createdAt, &updatedAt); err != nil {
		return Split{}, fmt.Errorf("scan split: %w", err)
	}
	if err := json.Unmarshal([]byte(days), &split.Days); err != nil {
		return Split{}, fmt.Errorf("unmarshal days: %w", err)
	}
	var err error
	if split.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Split{}, fmt.Errorf("created_at: %w", err)
	}
	if split.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return Split{}, fmt.Errorf("updated_at: %w", err)
	}
	return split, nil
}
