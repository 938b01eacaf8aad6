// Package localstate persists client-side state in a SQLite file: the
// pointer to the session in progress for each workout.
package localstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB is the client state database.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the state database at dir/state.db.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS active_sessions (
		workout_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		started_at TEXT NOT NULL,
		saved_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &DB{db: db}, nil
}

// Save records sessionID as the in-progress session of workoutID.
func (s *DB) Save(ctx context.Context, workoutID, sessionID uuid.UUID, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO active_sessions (workout_id, session_id, started_at) VALUES (?, ?, ?)`,
		workoutID.String(), sessionID.String(), startedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving active session: %w", err)
	}
	return nil
}

// Lookup returns the in-progress session of workoutID, if one was saved.
func (s *DB) Lookup(ctx context.Context, workoutID uuid.UUID) (uuid.UUID, time.Time, bool, error) {
	var sid, started string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, started_at FROM active_sessions WHERE workout_id = ?`,
		workoutID.String(),
	).Scan(&sid, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, time.Time{}, false, nil
	}
	if err != nil {
		return uuid.Nil, time.Time{}, false, fmt.Errorf("reading active session: %w", err)
	}

	id, err := uuid.Parse(sid)
	if err != nil {
		return uuid.Nil, time.Time{}, false, fmt.Errorf("parsing session id %q: %w", sid, err)
	}
	at, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return uuid.Nil, time.Time{}, false, fmt.Errorf("parsing started_at %q: %w", started, err)
	}
	return id, at, true, nil
}

// Clear forgets the in-progress session of workoutID.
func (s *DB) Clear(ctx context.Context, workoutID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM active_sessions WHERE workout_id = ?`, workoutID.String()); err != nil {
		return fmt.Errorf("clearing active session: %w", err)
	}
	return nil
}

// Close closes the state database.
func (s *DB) Close() error {
	return s.db.Close()
}
