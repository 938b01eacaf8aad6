// Package backend opens the workout store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/config"
	"github.com/meltforce/workoutvault/internal/models"
	"github.com/meltforce/workoutvault/internal/rest"
	"github.com/meltforce/workoutvault/internal/storage"
)

// Store is the full data surface both drivers provide.
type Store interface {
	ListWorkouts(ctx context.Context) ([]models.Workout, error)
	GetWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error)
	ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error)
	StartSession(ctx context.Context, s models.NewSession) (*models.WorkoutSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.WorkoutSession, error)
	LatestCompletedSession(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutSession, error)
	CompletedSessions(ctx context.Context, workoutID uuid.UUID, limit int) ([]models.WorkoutSession, error)
	UpdateSessionNotes(ctx context.Context, sessionID uuid.UUID, notes *string) error
	FinishSession(ctx context.Context, f models.SessionFinish) (int64, error)
	SessionLoads(ctx context.Context, sessionID uuid.UUID) ([]models.SessionExerciseLoad, error)
	SessionLoadDetails(ctx context.Context, sessionID uuid.UUID) ([]models.LoadDetail, error)
}

var (
	_ Store = (*storage.DB)(nil)
	_ Store = (*rest.Client)(nil)
)

// Open connects to the configured store. The returned func releases it.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := storage.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		log.Info("store opened", "driver", config.DriverPostgres, "host", cfg.Database.Host, "db", cfg.Database.Name)
		return db, db.Close, nil
	case config.DriverREST, "":
		log.Info("store opened", "driver", config.DriverREST, "url", cfg.Store.URL)
		return rest.NewClient(cfg.Store.URL, cfg.Store.Key), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
