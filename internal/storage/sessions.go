package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/workoutvault/internal/models"
)

const sessionColumns = `id, user_id, workout_id, started_at, ended_at, rpe, notes`

// StartSession inserts a new in-progress session and returns the stored row.
func (db *DB) StartSession(ctx context.Context, s models.NewSession) (*models.WorkoutSession, error) {
	row := db.Pool.QueryRow(ctx,
		`INSERT INTO workout_sessions (id, user_id, workout_id, started_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+sessionColumns,
		uuid.New(), s.UserID, s.WorkoutID, s.StartedAt)

	out, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return out, nil
}

// GetSession retrieves a single session by ID.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.WorkoutSession, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE id = $1`, sessionID)
	out, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session %s: %w", sessionID, err)
	}
	return out, nil
}

// LatestCompletedSession returns the most recently started finished session
// of a workout, or nil when the workout has none.
func (db *DB) LatestCompletedSession(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutSession, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM workout_sessions
		 WHERE workout_id = $1 AND ended_at IS NOT NULL
		 ORDER BY started_at DESC
		 LIMIT 1`,
		workoutID)
	out, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest session: %w", err)
	}
	return out, nil
}

// CompletedSessions returns up to limit finished sessions of a workout, newest first.
func (db *DB) CompletedSessions(ctx context.Context, workoutID uuid.UUID, limit int) ([]models.WorkoutSession, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM workout_sessions
		 WHERE workout_id = $1 AND ended_at IS NOT NULL
		 ORDER BY started_at DESC
		 LIMIT $2`,
		workoutID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// UpdateSessionNotes overwrites the notes of a session. A nil value clears them.
func (db *DB) UpdateSessionNotes(ctx context.Context, sessionID uuid.UUID, notes *string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_sessions SET notes = $2 WHERE id = $1`,
		sessionID, notes)
	if err != nil {
		return fmt.Errorf("updating session notes %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FinishSession records the session's loads and sets ended_at and notes in a
// single transaction. Returns the number of load rows inserted.
func (db *DB) FinishSession(ctx context.Context, f models.SessionFinish) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning finish tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var endedAt *time.Time
	var workoutID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT ended_at, workout_id FROM workout_sessions WHERE id = $1 FOR UPDATE`,
		f.SessionID).Scan(&endedAt, &workoutID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("locking session %s: %w", f.SessionID, err)
	}
	if endedAt != nil {
		return 0, ErrSessionClosed
	}

	var inserted int64
	if len(f.Loads) > 0 {
		if err := checkExercisesBelong(ctx, tx, workoutID, f.Loads); err != nil {
			return 0, err
		}
		inserted, err = insertLoads(ctx, tx, f.SessionID, f.Loads)
		if err != nil {
			return 0, err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE workout_sessions SET ended_at = $2, notes = $3 WHERE id = $1`,
		f.SessionID, f.EndedAt, f.Notes); err != nil {
		return 0, fmt.Errorf("closing session %s: %w", f.SessionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing finish tx: %w", err)
	}
	return inserted, nil
}

func checkExercisesBelong(ctx context.Context, tx pgx.Tx, workoutID uuid.UUID, loads []models.NewLoad) error {
	rows, err := tx.Query(ctx, `SELECT id FROM workout_exercises WHERE workout_id = $1`, workoutID)
	if err != nil {
		return fmt.Errorf("querying workout exercises: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return fmt.Errorf("scanning workout exercises: %w", err)
	}

	known := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	for _, l := range loads {
		if !known[l.WorkoutExerciseID] {
			return fmt.Errorf("%w: exercise %s, workout %s", models.ErrForeignExercise, l.WorkoutExerciseID, workoutID)
		}
	}
	return nil
}

func insertLoads(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, loads []models.NewLoad) (int64, error) {
	query := `INSERT INTO workout_session_exercise_loads
		(id, session_id, workout_exercise_id, load_used, reps_completed, time_seconds, notes) VALUES `
	args := make([]any, 0, len(loads)*7)
	valueStrings := make([]string, 0, len(loads))

	for i, l := range loads {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, uuid.New(), sessionID, l.WorkoutExerciseID, l.LoadUsed, l.RepsCompleted, l.TimeSeconds, l.Notes)
	}

	query += strings.Join(valueStrings, ",")

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting session loads: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*models.WorkoutSession, error) {
	var s models.WorkoutSession
	if err := row.Scan(&s.ID, &s.UserID, &s.WorkoutID, &s.StartedAt, &s.EndedAt, &s.RPE, &s.Notes); err != nil {
		return nil, err
	}
	return &s, nil
}
