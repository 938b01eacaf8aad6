package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/models"
)

// SessionLoads returns the load rows recorded for a session.
func (db *DB) SessionLoads(ctx context.Context, sessionID uuid.UUID) ([]models.SessionExerciseLoad, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, session_id, workout_exercise_id, load_used, reps_completed, time_seconds, notes
		 FROM workout_session_exercise_loads
		 WHERE session_id = $1`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session loads: %w", err)
	}
	defer rows.Close()

	var result []models.SessionExerciseLoad
	for rows.Next() {
		var l models.SessionExerciseLoad
		if err := rows.Scan(&l.ID, &l.SessionID, &l.WorkoutExerciseID, &l.LoadUsed,
			&l.RepsCompleted, &l.TimeSeconds, &l.Notes); err != nil {
			return nil, fmt.Errorf("scanning session load: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// SessionLoadDetails returns a session's loads joined with their exercise
// names, in exercise position order.
func (db *DB) SessionLoadDetails(ctx context.Context, sessionID uuid.UUID) ([]models.LoadDetail, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT l.id, l.session_id, l.workout_exercise_id, l.load_used, l.reps_completed,
		 l.time_seconds, l.notes, e.exercise_name, e.position
		 FROM workout_session_exercise_loads l
		 JOIN workout_exercises e ON e.id = l.workout_exercise_id
		 WHERE l.session_id = $1
		 ORDER BY e.position ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying load details: %w", err)
	}
	defer rows.Close()

	var result []models.LoadDetail
	for rows.Next() {
		var d models.LoadDetail
		if err := rows.Scan(&d.ID, &d.SessionID, &d.WorkoutExerciseID, &d.LoadUsed,
			&d.RepsCompleted, &d.TimeSeconds, &d.Notes, &d.ExerciseName, &d.Position); err != nil {
			return nil, fmt.Errorf("scanning load detail: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
