package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/workoutvault/internal/models"
)

// ListWorkouts returns the workout catalog, newest first.
func (db *DB) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, style, description, est_duration_minutes, created_at
		 FROM workouts
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.Workout
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.Name, &w.Style, &w.Description, &w.EstDurationMinutes, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// GetWorkout retrieves a single workout by ID.
func (db *DB) GetWorkout(ctx context.Context, workoutID uuid.UUID) (*models.Workout, error) {
	var w models.Workout
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, style, description, est_duration_minutes, created_at
		 FROM workouts
		 WHERE id = $1`,
		workoutID).Scan(&w.ID, &w.Name, &w.Style, &w.Description, &w.EstDurationMinutes, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout %s: %w", workoutID, err)
	}
	return &w, nil
}

// ListExercises returns the exercises of a workout in position order.
func (db *DB) ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, workout_id, position, exercise_name, sets, reps, time_seconds,
		 rest_seconds, load_prescription, notes
		 FROM workout_exercises
		 WHERE workout_id = $1
		 ORDER BY position ASC`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutExercise
	for rows.Next() {
		var e models.WorkoutExercise
		if err := rows.Scan(&e.ID, &e.WorkoutID, &e.Position, &e.ExerciseName, &e.Sets, &e.Reps,
			&e.TimeSeconds, &e.RestSeconds, &e.LoadPrescription, &e.Notes); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
