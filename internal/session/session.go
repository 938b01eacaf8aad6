// Package session drives one timed training session of a workout: start,
// per-exercise load capture, finish and post-finish notes.
package session

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

var (
	ErrNotStarted     = errors.New("session: not started")
	ErrAlreadyStarted = errors.New("session: already started")
	ErrNotFinished    = errors.New("session: not finished")
	ErrFinished       = errors.New("session: already finished")
)

// State is the lifecycle position of a Controller.
type State int

const (
	NotStarted State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Actor is the identity that owns the sessions it starts.
type Actor struct {
	ID uuid.UUID
}

// Store is the persistence the controller needs. Both the Postgres and the
// remote table-store backends satisfy it.
type Store interface {
	ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error)
	StartSession(ctx context.Context, s models.NewSession) (*models.WorkoutSession, error)
	LatestCompletedSession(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutSession, error)
	SessionLoads(ctx context.Context, sessionID uuid.UUID) ([]models.SessionExerciseLoad, error)
	FinishSession(ctx context.Context, f models.SessionFinish) (int64, error)
	UpdateSessionNotes(ctx context.Context, sessionID uuid.UUID, notes *string) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger used for non-fatal store failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithResume puts the controller straight into InProgress for a session the
// caller already started, so elapsed time keeps counting from startedAt.
func WithResume(sessionID uuid.UUID, startedAt time.Time) Option {
	return func(c *Controller) {
		c.sessionID = sessionID
		c.startedAt = startedAt
		c.state = InProgress
	}
}

// OnSessionStart registers a callback invoked after a session row is created.
func OnSessionStart(fn func(sessionID uuid.UUID, startedAt time.Time)) Option {
	return func(c *Controller) { c.onStart = fn }
}

// OnSessionFinish registers a callback invoked once the session has ended
// in the store.
func OnSessionFinish(fn func()) Option {
	return func(c *Controller) { c.onFinish = fn }
}

// OnSessionComplete registers a callback invoked by Close.
func OnSessionComplete(fn func()) Option {
	return func(c *Controller) { c.onComplete = fn }
}

// Controller is the state machine of one session attempt for one workout.
// Methods are safe to call from multiple goroutines; store calls are made
// without holding the lock.
type Controller struct {
	store     Store
	log       *slog.Logger
	now       func() time.Time
	workoutID uuid.UUID

	onStart    func(uuid.UUID, time.Time)
	onFinish   func()
	onComplete func()

	mu           sync.Mutex
	state        State
	sessionID    uuid.UUID
	startedAt    time.Time
	finalElapsed int64
	loaded       bool
	exercises    []models.WorkoutExercise
	previous     map[uuid.UUID]models.SessionExerciseLoad
	entries      map[uuid.UUID]Entry
	notes        string
	// attempted is set once a finish write failed without an answer from
	// the store, so a later "already closed" is that write committing.
	attempted bool
}

// New creates a controller for workoutID.
func New(store Store, workoutID uuid.UUID, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		log:       slog.Default(),
		now:       time.Now,
		workoutID: workoutID,
		entries:   make(map[uuid.UUID]Entry),
		previous:  make(map[uuid.UUID]models.SessionExerciseLoad),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start creates the session row owned by actor and enters InProgress.
// On a store error the controller stays NotStarted.
func (c *Controller) Start(ctx context.Context, actor Actor) error {
	c.mu.Lock()
	if c.state != NotStarted {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.mu.Unlock()

	s, err := c.store.StartSession(ctx, models.NewSession{
		WorkoutID: c.workoutID,
		UserID:    actor.ID,
		StartedAt: c.now(),
	})
	if err != nil {
		c.log.Error("starting session", "workout_id", c.workoutID, "error", err)
		return fmt.Errorf("starting session: %w", err)
	}

	c.mu.Lock()
	if c.state != NotStarted {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = InProgress
	c.sessionID = s.ID
	c.startedAt = s.StartedAt
	c.mu.Unlock()

	c.log.Info("session started", "session_id", s.ID, "workout_id", c.workoutID)
	if c.onStart != nil {
		c.onStart(s.ID, s.StartedAt)
	}
	return nil
}

// Load fetches the exercise list and the loads of the most recent completed
// session, once per session. A failure on the previous loads is logged and
// leaves the reference values empty.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state == NotStarted {
		c.mu.Unlock()
		return ErrNotStarted
	}
	if c.loaded {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	exercises, err := c.store.ListExercises(ctx, c.workoutID)
	if err != nil {
		c.log.Error("loading exercises", "workout_id", c.workoutID, "error", err)
		return fmt.Errorf("loading exercises: %w", err)
	}
	previous := c.previousLoads(ctx)

	c.mu.Lock()
	c.exercises = exercises
	c.previous = previous
	c.loaded = true
	c.mu.Unlock()
	return nil
}

func (c *Controller) previousLoads(ctx context.Context) map[uuid.UUID]models.SessionExerciseLoad {
	out := make(map[uuid.UUID]models.SessionExerciseLoad)
	last, err := c.store.LatestCompletedSession(ctx, c.workoutID)
	if err != nil {
		c.log.Warn("loading previous session", "workout_id", c.workoutID, "error", err)
		return out
	}
	if last == nil {
		return out
	}
	loads, err := c.store.SessionLoads(ctx, last.ID)
	if err != nil {
		c.log.Warn("loading previous loads", "session_id", last.ID, "error", err)
		return out
	}
	for _, l := range loads {
		out[l.WorkoutExerciseID] = l
	}
	return out
}

// Finish records the non-empty entries and closes the session in one store
// write. On failure nothing changes and Finish may be retried. On success
// the elapsed time is frozen and the entries are discarded.
//
// A session the store already closed counts as finished only when an earlier
// Finish of this controller failed. Otherwise the error wraps
// models.ErrSessionClosed and the entries are kept.
func (c *Controller) Finish(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case NotStarted:
		c.mu.Unlock()
		return ErrNotStarted
	case Finished:
		c.mu.Unlock()
		return ErrFinished
	}
	needExercises := !c.loaded && hasInput(c.entries)
	c.mu.Unlock()

	if needExercises {
		if err := c.Load(ctx); err != nil {
			return fmt.Errorf("finishing session: %w", err)
		}
	}

	c.mu.Lock()
	sessionID := c.sessionID
	loads := BuildLoads(c.exercises, c.entries)
	notes := models.NonBlank(c.notes)
	c.mu.Unlock()

	endedAt := c.now()
	n, err := c.store.FinishSession(ctx, models.SessionFinish{
		SessionID: sessionID,
		EndedAt:   endedAt,
		Notes:     notes,
		Loads:     loads,
	})
	c.mu.Lock()
	retried := c.attempted
	c.mu.Unlock()

	switch {
	case errors.Is(err, models.ErrSessionClosed) && retried:
		// An earlier attempt committed but its response was lost.
		c.log.Warn("session already closed in store", "session_id", sessionID)
	case errors.Is(err, models.ErrSessionClosed):
		c.log.Error("session was closed elsewhere", "session_id", sessionID)
		return fmt.Errorf("finishing session: %w", err)
	case err != nil:
		c.mu.Lock()
		c.attempted = true
		c.mu.Unlock()
		c.log.Error("finishing session", "session_id", sessionID, "error", err)
		return fmt.Errorf("finishing session: %w", err)
	default:
		c.log.Info("session finished", "session_id", sessionID, "loads", n)
	}

	c.mu.Lock()
	c.finalElapsed = elapsed(c.startedAt, endedAt)
	c.state = Finished
	c.entries = make(map[uuid.UUID]Entry)
	c.mu.Unlock()

	if c.onFinish != nil {
		c.onFinish()
	}
	return nil
}

// SaveNotes persists the current notes of a finished session. It may be
// called any number of times.
func (c *Controller) SaveNotes(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Finished {
		c.mu.Unlock()
		return ErrNotFinished
	}
	sessionID, notes := c.sessionID, models.NonBlank(c.notes)
	c.mu.Unlock()

	if err := c.store.UpdateSessionNotes(ctx, sessionID, notes); err != nil {
		c.log.Error("saving session notes", "session_id", sessionID, "error", err)
		return fmt.Errorf("saving session notes: %w", err)
	}
	return nil
}

// Close hands control back to the caller after a finished session.
func (c *Controller) Close() error {
	c.mu.Lock()
	finished := c.state == Finished
	c.mu.Unlock()
	if !finished {
		return ErrNotFinished
	}
	if c.onComplete != nil {
		c.onComplete()
	}
	return nil
}

// ElapsedSeconds is floor(now - started_at) while in progress and the value
// frozen at finish afterwards.
func (c *Controller) ElapsedSeconds() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case InProgress:
		return elapsed(c.startedAt, c.now())
	case Finished:
		return c.finalElapsed
	}
	return 0
}

func elapsed(start, now time.Time) int64 {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

func hasInput(entries map[uuid.UUID]Entry) bool {
	for _, e := range entries {
		if !e.IsEmpty() {
			return true
		}
	}
	return false
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) WorkoutID() uuid.UUID { return c.workoutID }

func (c *Controller) SessionID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) StartedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startedAt
}

// Loaded reports whether Load has completed for this session.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Exercises returns the workout's exercises in position order.
func (c *Controller) Exercises() []models.WorkoutExercise {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.WorkoutExercise, len(c.exercises))
	copy(out, c.exercises)
	return out
}

// Previous returns the load recorded for the exercise in the most recent
// completed session.
func (c *Controller) Previous(exerciseID uuid.UUID) (models.SessionExerciseLoad, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.previous[exerciseID]
	return l, ok
}

// LastTime returns the load text shown as the "last time" reference, or ""
// when the previous session recorded none for the exercise.
func (c *Controller) LastTime(exerciseID uuid.UUID) string {
	l, ok := c.Previous(exerciseID)
	if !ok || l.LoadUsed == nil {
		return ""
	}
	return *l.LoadUsed
}

func (c *Controller) Entry(exerciseID uuid.UUID) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[exerciseID]
}

// SetEntry replaces the form state of one exercise. Ignored unless in progress.
func (c *Controller) SetEntry(exerciseID uuid.UUID, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != InProgress {
		return
	}
	c.entries[exerciseID] = e
}

func (c *Controller) Notes() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notes
}

func (c *Controller) SetNotes(notes string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = notes
}
