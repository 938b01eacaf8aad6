package rest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/models"
)

// Table names of the store schema.
const (
	TableWorkouts  = "workouts"
	TableExercises = "workout_exercises"
	TableSessions  = "workout_sessions"
	TableLoads     = "workout_session_exercise_loads"

	finishSessionFn = "finish_workout_session"
)

// SQLSTATE codes raised by finish_workout_session.
const (
	codeSessionNotFound = "WVNF1"
	codeSessionClosed   = "WVSC1"
	codeForeignExercise = "WVEX1"
)

// ListWorkouts returns the workout catalog, newest first.
func (c *Client) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	var out []models.Workout
	if err := c.Select(ctx, TableWorkouts, Select("*").Order("created_at", false), &out); err != nil {
		return nil, fmt.Errorf("listing workouts: %w", err)
	}
	return out, nil
}

// GetWorkout returns one workout or ErrNotFound.
func (c *Client) GetWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error) {
	var out []models.Workout
	if err := c.Select(ctx, TableWorkouts, Select("*").Eq("id", id).Limit(1), &out); err != nil {
		return nil, fmt.Errorf("getting workout %s: %w", id, err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// ListExercises returns the exercises of a workout in position order.
func (c *Client) ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error) {
	q := Select("*").Eq("workout_id", workoutID).Order("position", true)
	var out []models.WorkoutExercise
	if err := c.Select(ctx, TableExercises, q, &out); err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	return out, nil
}

type sessionInsert struct {
	WorkoutID uuid.UUID `json:"workout_id"`
	UserID    uuid.UUID `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
}

// StartSession inserts a new in-progress session and returns the stored row.
func (c *Client) StartSession(ctx context.Context, s models.NewSession) (*models.WorkoutSession, error) {
	row := sessionInsert{WorkoutID: s.WorkoutID, UserID: s.UserID, StartedAt: s.StartedAt}
	var out []models.WorkoutSession
	if err := c.Insert(ctx, TableSessions, row, &out); err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("inserting session: store returned no row")
	}
	return &out[0], nil
}

// GetSession returns one session or ErrNotFound.
func (c *Client) GetSession(ctx context.Context, id uuid.UUID) (*models.WorkoutSession, error) {
	var out []models.WorkoutSession
	if err := c.Select(ctx, TableSessions, Select("*").Eq("id", id).Limit(1), &out); err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// LatestCompletedSession returns the most recently started finished session
// of a workout, or nil when the workout has none.
func (c *Client) LatestCompletedSession(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutSession, error) {
	sessions, err := c.CompletedSessions(ctx, workoutID, 1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// CompletedSessions returns up to limit finished sessions of a workout, newest first.
func (c *Client) CompletedSessions(ctx context.Context, workoutID uuid.UUID, limit int) ([]models.WorkoutSession, error) {
	if limit <= 0 {
		limit = 10
	}
	q := Select("*").
		Eq("workout_id", workoutID).
		NotNull("ended_at").
		Order("started_at", false).
		Limit(limit)
	var out []models.WorkoutSession
	if err := c.Select(ctx, TableSessions, q, &out); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return out, nil
}

// UpdateSessionNotes overwrites the notes of a session. A nil value clears them.
func (c *Client) UpdateSessionNotes(ctx context.Context, sessionID uuid.UUID, notes *string) error {
	patch := struct {
		Notes *string `json:"notes"`
	}{Notes: notes}
	n, err := c.Update(ctx, TableSessions, Where().Eq("id", sessionID), patch)
	if err != nil {
		return fmt.Errorf("updating session notes %s: %w", sessionID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type finishArgs struct {
	SessionID uuid.UUID        `json:"p_session_id"`
	EndedAt   time.Time        `json:"p_ended_at"`
	Notes     *string          `json:"p_notes"`
	Loads     []models.NewLoad `json:"p_loads"`
}

// FinishSession records the session's loads and closes it through the
// finish_workout_session procedure, which does both in one transaction.
// Returns the number of load rows inserted.
func (c *Client) FinishSession(ctx context.Context, f models.SessionFinish) (int64, error) {
	args := finishArgs{SessionID: f.SessionID, EndedAt: f.EndedAt, Notes: f.Notes, Loads: f.Loads}
	if args.Loads == nil {
		args.Loads = []models.NewLoad{}
	}

	var inserted int64
	err := c.RPC(ctx, finishSessionFn, args, &inserted)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case codeSessionClosed:
			return 0, models.ErrSessionClosed
		case codeSessionNotFound:
			return 0, ErrNotFound
		case codeForeignExercise:
			return 0, fmt.Errorf("%w: %s", models.ErrForeignExercise, apiErr.Message)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("finishing session %s: %w", f.SessionID, err)
	}
	return inserted, nil
}

// SessionLoads returns the load rows recorded for a session.
func (c *Client) SessionLoads(ctx context.Context, sessionID uuid.UUID) ([]models.SessionExerciseLoad, error) {
	var out []models.SessionExerciseLoad
	if err := c.Select(ctx, TableLoads, Select("*").Eq("session_id", sessionID), &out); err != nil {
		return nil, fmt.Errorf("listing session loads: %w", err)
	}
	return out, nil
}

type loadWithExercise struct {
	models.SessionExerciseLoad
	Exercise *struct {
		ExerciseName string `json:"exercise_name"`
		Position     int    `json:"position"`
	} `json:"exercise"`
}

// SessionLoadDetails returns a session's loads joined with their exercise
// names, in exercise position order.
func (c *Client) SessionLoadDetails(ctx context.Context, sessionID uuid.UUID) ([]models.LoadDetail, error) {
	q := Select("*,exercise:workout_exercises(exercise_name,position)").Eq("session_id", sessionID)
	var rows []loadWithExercise
	if err := c.Select(ctx, TableLoads, q, &rows); err != nil {
		return nil, fmt.Errorf("listing load details: %w", err)
	}

	out := make([]models.LoadDetail, 0, len(rows))
	for _, r := range rows {
		d := models.LoadDetail{SessionExerciseLoad: r.SessionExerciseLoad}
		if r.Exercise != nil {
			d.ExerciseName = r.Exercise.ExerciseName
			d.Position = r.Exercise.Position
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}
