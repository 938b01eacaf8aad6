package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/models"
	"github.com/meltforce/workoutvault/internal/rest"
	"github.com/meltforce/workoutvault/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. *storage.DB (direct
// Postgres), *rest.Client (table store) and HTTPClient (workoutvault server)
// all satisfy this interface.
type DataSource interface {
	ListWorkouts(ctx context.Context) ([]models.Workout, error)
	ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error)
	CompletedSessions(ctx context.Context, workoutID uuid.UUID, limit int) ([]models.WorkoutSession, error)
	LatestCompletedSession(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutSession, error)
	SessionLoadDetails(ctx context.Context, sessionID uuid.UUID) ([]models.LoadDetail, error)
}

var (
	_ DataSource = (*storage.DB)(nil)
	_ DataSource = (*rest.Client)(nil)
)
