// Package catalog holds the workout list and the state of an opened workout:
// its exercises, the selected tab and the pointer to a session in progress.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/models"
)

// Store is the read-only catalog access. GetSession checks a restored
// active pointer against the stored row.
type Store interface {
	ListWorkouts(ctx context.Context) ([]models.Workout, error)
	ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.WorkoutSession, error)
}

// Catalog is the list of workouts, newest first.
type Catalog struct {
	store Store
	log   *slog.Logger

	mu       sync.Mutex
	loaded   bool
	workouts []models.Workout
	err      error
}

func New(store Store, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{store: store, log: log}
}

// Load fetches the workouts. The error is also kept for display until the
// next successful Load.
func (c *Catalog) Load(ctx context.Context) error {
	workouts, err := c.store.ListWorkouts(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Error("loading workouts", "error", err)
		c.err = fmt.Errorf("loading workouts: %w", err)
		return c.err
	}
	c.workouts = workouts
	c.loaded = true
	c.err = nil
	return nil
}

func (c *Catalog) Workouts() []models.Workout {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Workout, len(c.workouts))
	copy(out, c.workouts)
	return out
}

func (c *Catalog) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Err returns the error of the last failed Load, if it has not been
// followed by a successful one.
func (c *Catalog) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
