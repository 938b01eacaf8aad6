package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/models"
)

// Tab is a sub-view of an opened workout.
type Tab int

const (
	TabExercises Tab = iota
	TabSession
	TabHistory
)

var tabNames = [...]string{"Exercises", "Session", "History"}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return fmt.Sprintf("Tab(%d)", int(t))
	}
	return tabNames[t]
}

// Next cycles to the following tab.
func (t Tab) Next() Tab { return (t + 1) % Tab(len(tabNames)) }

// Prev cycles to the preceding tab.
func (t Tab) Prev() Tab { return (t + Tab(len(tabNames)) - 1) % Tab(len(tabNames)) }

// ActiveSession points at the in-progress session of a workout.
type ActiveSession struct {
	SessionID uuid.UUID
	StartedAt time.Time
}

// Tracker keeps the active session pointer of each workout.
type Tracker interface {
	Save(ctx context.Context, workoutID, sessionID uuid.UUID, startedAt time.Time) error
	Lookup(ctx context.Context, workoutID uuid.UUID) (sessionID uuid.UUID, startedAt time.Time, ok bool, err error)
	Clear(ctx context.Context, workoutID uuid.UUID) error
}

// Detail is the state of one opened workout.
type Detail struct {
	store   Store
	tracker Tracker
	log     *slog.Logger
	workout models.Workout

	mu        sync.Mutex
	loaded    bool
	exercises []models.WorkoutExercise
	err       error
	tab       Tab
	active    *ActiveSession
}

// Open creates the detail state of w on the exercises tab. A nil tracker
// keeps the active pointer in memory only.
func Open(store Store, tracker Tracker, w models.Workout, log *slog.Logger) *Detail {
	if log == nil {
		log = slog.Default()
	}
	if tracker == nil {
		tracker = NewMemoryTracker()
	}
	return &Detail{store: store, tracker: tracker, log: log, workout: w, tab: TabExercises}
}

// Load fetches the exercise list and restores the active session pointer.
// A tracker failure is logged and treated as no active session.
func (d *Detail) Load(ctx context.Context) error {
	exercises, err := d.store.ListExercises(ctx, d.workout.ID)
	if err != nil {
		d.log.Error("loading exercises", "workout_id", d.workout.ID, "error", err)
		d.mu.Lock()
		d.err = fmt.Errorf("loading exercises: %w", err)
		d.mu.Unlock()
		return d.Err()
	}

	var active *ActiveSession
	id, startedAt, ok, err := d.tracker.Lookup(ctx, d.workout.ID)
	switch {
	case err != nil:
		d.log.Warn("restoring active session", "workout_id", d.workout.ID, "error", err)
	case ok && d.stillActive(ctx, id):
		active = &ActiveSession{SessionID: id, StartedAt: startedAt}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.exercises = exercises
	d.loaded = true
	d.err = nil
	if d.active == nil {
		d.active = active
	}
	return nil
}

// stillActive reports whether the tracked session is still open in the
// store. A finished or missing session drops the tracked pointer. A failed
// lookup keeps it.
func (d *Detail) stillActive(ctx context.Context, sessionID uuid.UUID) bool {
	s, err := d.store.GetSession(ctx, sessionID)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		d.log.Warn("checking active session", "session_id", sessionID, "error", err)
		return true
	case s != nil && s.Active():
		return true
	}
	d.log.Info("dropping stale session pointer", "workout_id", d.workout.ID, "session_id", sessionID)
	if err := d.tracker.Clear(ctx, d.workout.ID); err != nil {
		d.log.Warn("clearing active session", "workout_id", d.workout.ID, "error", err)
	}
	return false
}

func (d *Detail) Workout() models.Workout { return d.workout }

func (d *Detail) Exercises() []models.WorkoutExercise {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.WorkoutExercise, len(d.exercises))
	copy(out, d.exercises)
	return out
}

func (d *Detail) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

func (d *Detail) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Detail) Tab() Tab {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tab
}

func (d *Detail) SetTab(t Tab) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tab = t
}

// Active returns the in-progress session pointer, if any.
func (d *Detail) Active() (ActiveSession, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return ActiveSession{}, false
	}
	return *d.active, true
}

// SessionStarted records the pointer of a newly started session.
func (d *Detail) SessionStarted(ctx context.Context, sessionID uuid.UUID, startedAt time.Time) {
	d.mu.Lock()
	d.active = &ActiveSession{SessionID: sessionID, StartedAt: startedAt}
	d.mu.Unlock()

	if err := d.tracker.Save(ctx, d.workout.ID, sessionID, startedAt); err != nil {
		d.log.Warn("saving active session", "session_id", sessionID, "error", err)
	}
}

// SessionFinished drops the pointer once the session has ended in the store.
func (d *Detail) SessionFinished(ctx context.Context) {
	d.mu.Lock()
	d.active = nil
	d.mu.Unlock()

	if err := d.tracker.Clear(ctx, d.workout.ID); err != nil {
		d.log.Warn("clearing active session", "workout_id", d.workout.ID, "error", err)
	}
}

// SessionCompleted drops the pointer and switches to the history tab.
func (d *Detail) SessionCompleted(ctx context.Context) {
	d.SessionFinished(ctx)

	d.mu.Lock()
	d.tab = TabHistory
	d.mu.Unlock()
}

// MemoryTracker is a Tracker that lives as long as the process.
type MemoryTracker struct {
	mu     sync.Mutex
	active map[uuid.UUID]ActiveSession
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{active: make(map[uuid.UUID]ActiveSession)}
}

func (m *MemoryTracker) Save(_ context.Context, workoutID, sessionID uuid.UUID, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[workoutID] = ActiveSession{SessionID: sessionID, StartedAt: startedAt}
	return nil
}

func (m *MemoryTracker) Lookup(_ context.Context, workoutID uuid.UUID) (uuid.UUID, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.active[workoutID]
	return a.SessionID, a.StartedAt, ok, nil
}

func (m *MemoryTracker) Clear(_ context.Context, workoutID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, workoutID)
	return nil
}
