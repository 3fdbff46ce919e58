package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/sqlite"
)

// sqliteSessionRepository implements sessionRepository.
type sqliteSessionRepository struct {
	baseRepository
}

func newSQLiteSessionRepository(db *sqlite.Database, logger *slog.Logger) *sqliteSessionRepository {
	return &sqliteSessionRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

const sessionColumns = `id, split_id, split_name, day_id, day_name, status, started_at, completed_at, duration_ms, notes`

// List retrieves all workout sessions started at or after since.
func (r *sqliteSessionRepository) List(ctx context.Context, since time.Time) (_ []Session, err error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM workout_sessions
		WHERE user_id = ? AND started_at >= ?
		ORDER BY started_at, id`, userID, formatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("query workout sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if sess, err = scanSession(rows); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range sessions {
		if sessions[i].Exercises, err = loadExercises(ctx, r.db.ReadOnly, sessions[i].ID); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// Get retrieves a workout session by id.
func (r *sqliteSessionRepository) Get(ctx context.Context, id string) (Session, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return Session{}, err
	}
	return getSession(ctx, r.db.ReadOnly, userID, id)
}

func getSession(ctx context.Context, q querier, userID int, id string) (Session, error) {
	sess, err := scanSession(q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM workout_sessions
		WHERE user_id = ? AND id = ?`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}

	if sess.Exercises, err = loadExercises(ctx, q, sess.ID); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Create adds a new workout session.
func (r *sqliteSessionRepository) Create(ctx context.Context, sess Session) error {
	if err := r.set(ctx, sess, false); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update applies updateFn to the stored session and saves it when updateFn reports a change.
// The read and the write share one transaction so concurrent updates cannot overwrite each other.
func (r *sqliteSessionRepository) Update(
	ctx context.Context,
	id string,
	updateFn func(sess *Session) (bool, error),
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

	sess, err := getSession(ctx, tx, userID, id)
	if err != nil {
		return fmt.Errorf("get session for update: %w", err)
	}
	updated, err := updateFn(&sess)
	if err != nil {
		return fmt.Errorf("update function: %w", err)
	}
	if !updated {
		return nil
	}
	if err = writeSession(ctx, tx, userID, sess, true); err != nil {
		return fmt.Errorf("save updated session: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepository) Delete(ctx context.Context, id string) error {
	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}
	res, err := r.db.ReadWrite.ExecContext(ctx,
		`DELETE FROM workout_sessions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireRowAffected(res)
}

// set writes the session with its exercises and sets in its own transaction.
func (r *sqliteSessionRepository) set(ctx context.Context, sess Session, upsert bool) (err error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}

	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx, &err)()

	if err = writeSession(ctx, tx, userID, sess, upsert); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// writeSession inserts the session rows. With upsert the previous rows are replaced, relying on
// ON DELETE CASCADE for the child tables.
func writeSession(ctx context.Context, tx *sql.Tx, userID int, sess Session, upsert bool) error {
	if upsert {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM workout_sessions WHERE user_id = ? AND id = ?`, userID, sess.ID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}

	var durationMS sql.NullInt64
	if sess.Duration != nil {
		durationMS = sql.NullInt64{Int64: sess.Duration.Milliseconds(), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO workout_sessions (
			id, user_id, split_id, split_name, day_id, day_name, status, started_at, completed_at, duration_ms, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, userID, sess.SplitID, sess.SplitName, sess.DayID, sess.DayName, string(sess.Status),
		formatTimestamp(sess.StartedAt), formatNullTimestamp(sess.CompletedAt), durationMS, sess.Notes); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err := saveExercises(ctx, tx, sess.ID, sess.Exercises); err != nil {
		return fmt.Errorf("save exercises: %w", err)
	}
	return nil
}

func saveExercises(ctx context.Context, tx *sql.Tx, sessionID string, exercises []ExerciseLog) error {
	for pos, ex := range exercises {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO exercise_logs (session_id, position, exercise_id, exercise_name, notes)
			VALUES (?, ?, ?, ?, ?)`,
			sessionID, pos, ex.ExerciseID, ex.ExerciseName, ex.Notes); err != nil {
			return fmt.Errorf("insert exercise log %q: %w", ex.ExerciseName, err)
		}
		for _, set := range ex.Sets {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO set_logs (
					session_id, position, set_number, type, weight, reps, rpe, rir, completed, completed_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sessionID, pos, set.SetNumber, string(set.Type), set.Weight, set.Reps, set.RPE, set.RIR,
				set.Completed, formatNullTimestamp(set.CompletedAt)); err != nil {
				return fmt.Errorf("insert set %d of %q: %w", set.SetNumber, ex.ExerciseName, err)
			}
		}
	}
	return nil
}

// loadExercises fetches the exercise logs of a session in logging order together with their sets.
func loadExercises(ctx context.Context, q querier, sessionID string) (_ []ExerciseLog, err error) {
	rows, err := q.QueryContext(ctx, `
		SELECT el.position, el.exercise_id, el.exercise_name, el.notes,
		       sl.set_number, sl.type, sl.weight, sl.reps, sl.rpe, sl.rir, sl.completed, sl.completed_at
		FROM exercise_logs el
		LEFT JOIN set_logs sl ON sl.session_id = el.session_id AND sl.position = el.position
		WHERE el.session_id = ?
		ORDER BY el.position, sl.set_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query exercise logs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	exercises := []ExerciseLog{}
	lastPos := -1
	for rows.Next() {
		var (
			pos         int
			ex          ExerciseLog
			setNumber   sql.NullInt64
			setType     sql.NullString
			weight      sql.NullFloat64
			reps        sql.NullInt64
			rpe         sql.NullFloat64
			rir         sql.NullInt64
			completed   sql.NullBool
			completedAt sql.NullString
		)
		if err = rows.Scan(&pos, &ex.ExerciseID, &ex.ExerciseName, &ex.Notes,
			&setNumber, &setType, &weight, &reps, &rpe, &rir, &completed, &completedAt); err != nil {
			return nil, fmt.Errorf("scan exercise log: %w", err)
		}
		if pos != lastPos {
			ex.Sets = []SetLog{}
			exercises = append(exercises, ex)
			lastPos = pos
		}
		if !setNumber.Valid {
			continue
		}

		set := SetLog{
			SetNumber: int(setNumber.Int64),
			Type:      SetType(setType.String),
			Reps:      int(reps.Int64),
			Completed: completed.Bool,
		}
		if weight.Valid {
			set.Weight = &weight.Float64
		}
		if rpe.Valid {
			set.RPE = &rpe.Float64
		}
		if rir.Valid {
			v := int(rir.Int64)
			set.RIR = &v
		}
		if set.CompletedAt, err = parseNullTimestamp(completedAt); err != nil {
			return nil, fmt.Errorf("set completed_at: %w", err)
		}
		last := &exercises[len(exercises)-1]
		last.Sets = append(last.Sets, set)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return exercises, nil
}

func scanSession(row rowScanner) (Session, error) {
	var (
		sess        Session
		status      string
		startedAt   string
		completedAt sql.NullString
		durationMS  sql.NullInt64
	)
	if err := row.Scan(&sess.ID, &sess.SplitID, &sess.SplitName, &sess.DayID, &sess.DayName, &status,
		&startedAt, &completedAt, &durationMS, &sess.Notes); err != nil {
		return Session{}, fmt.Errorf("scan session: %w", err)
	}
	sess.Status = SessionStatus(status)

	var err error
	if sess.StartedAt, err = parseTimestamp(startedAt); err != nil {
		return Session{}, fmt.Errorf("started_at: %w", err)
	}
	if sess.CompletedAt, err = parseNullTimestamp(completedAt); err != nil {
		return Session{}, fmt.Errorf("completed_at: %w", err)
	}
	if durationMS.Valid {
		d := time.Duration(durationMS.Int64) * time.Millisecond
		sess.Duration = &d
	}
	return sess, nil
}
