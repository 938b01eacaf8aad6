package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Workout is a row of the workouts table. Read-only for the client.
type Workout struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Style              *string   `json:"style"`
	Description        *string   `json:"description"`
	EstDurationMinutes *int      `json:"est_duration_minutes"`
	CreatedAt          time.Time `json:"created_at"`
}

// WorkoutExercise is a row of the workout_exercises table.
// Position orders exercises within a workout, ascending.
type WorkoutExercise struct {
	ID               uuid.UUID `json:"id"`
	WorkoutID        uuid.UUID `json:"workout_id"`
	Position         int       `json:"position"`
	ExerciseName     string    `json:"exercise_name"`
	Sets             *int      `json:"sets"`
	Reps             *int      `json:"reps"`
	TimeSeconds      *int      `json:"time_seconds"`
	RestSeconds      *int      `json:"rest_seconds"`
	LoadPrescription *string   `json:"load_prescription"`
	Notes            *string   `json:"notes"`
}

// WorkoutSession is a row of the workout_sessions table.
// A nil EndedAt is the only marker of a session in progress.
type WorkoutSession struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id"`
	WorkoutID uuid.UUID  `json:"workout_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	RPE       *int       `json:"rpe"`
	Notes     *string    `json:"notes"`
}

// Active reports whether the session has not been finished yet.
func (s WorkoutSession) Active() bool {
	return s.EndedAt == nil
}

// SessionExerciseLoad is a row of the workout_session_exercise_loads table.
type SessionExerciseLoad struct {
	ID                uuid.UUID `json:"id"`
	SessionID         uuid.UUID `json:"session_id"`
	WorkoutExerciseID uuid.UUID `json:"workout_exercise_id"`
	LoadUsed          *string   `json:"load_used"`
	RepsCompleted     *int      `json:"reps_completed"`
	TimeSeconds       *int      `json:"time_seconds"`
	Notes             *string   `json:"notes"`
}

// LoadDetail is a recorded load joined with the exercise it belongs to.
type LoadDetail struct {
	SessionExerciseLoad
	ExerciseName string `json:"exercise_name"`
	Position     int    `json:"position"`
}

// NewSession holds the fields the client sets when a session starts.
type NewSession struct {
	WorkoutID uuid.UUID
	UserID    uuid.UUID
	StartedAt time.Time
}

// NewLoad is one per-exercise record captured during a session.
type NewLoad struct {
	WorkoutExerciseID uuid.UUID `json:"workout_exercise_id"`
	LoadUsed          *string   `json:"load_used"`
	RepsCompleted     *int      `json:"reps_completed"`
	TimeSeconds       *int      `json:"time_seconds"`
	Notes             *string   `json:"notes"`
}

// SessionFinish closes a session: the loads are recorded and ended_at/notes
// are set in one store write.
type SessionFinish struct {
	SessionID uuid.UUID
	EndedAt   time.Time
	Notes     *string
	Loads     []NewLoad
}

// NonBlank returns nil for empty or whitespace-only text, otherwise a
// pointer to the text as given. Optional text columns store NULL for blank
// input.
func NonBlank(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
