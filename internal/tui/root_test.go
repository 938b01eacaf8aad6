package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/catalog"
	"github.com/meltforce/workoutvault/internal/models"
	"github.com/meltforce/workoutvault/internal/session"
)

var errDown = errors.New("store unavailable")

type fakeStore struct {
	workouts     []models.Workout
	exercises    []models.WorkoutExercise
	sessions     []models.WorkoutSession
	loads        []models.SessionExerciseLoad
	failWorkouts bool
	hangWorkouts bool
	failFinish   bool
	finished     []models.SessionFinish
}

func (f *fakeStore) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	if f.hangWorkouts {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.failWorkouts {
		return nil, errDown
	}
	return f.workouts, nil
}

func (f *fakeStore) ListExercises(_ context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error) {
	var out []models.WorkoutExercise
	for _, e := range f.exercises {
		if e.WorkoutID == workoutID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) StartSession(_ context.Context, s models.NewSession) (*models.WorkoutSession, error) {
	uid := s.UserID
	row := models.WorkoutSession{ID: uuid.New(), UserID: &uid, WorkoutID: s.WorkoutID, StartedAt: s.StartedAt}
	f.sessions = append(f.sessions, row)
	return &row, nil
}

func (f *fakeStore) GetSession(_ context.Context, id uuid.UUID) (*models.WorkoutSession, error) {
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			s := f.sessions[i]
			return &s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) LatestCompletedSession(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutSession, error) {
	s, _ := f.CompletedSessions(ctx, workoutID, 1)
	if len(s) == 0 {
		return nil, nil
	}
	return &s[0], nil
}

func (f *fakeStore) CompletedSessions(_ context.Context, workoutID uuid.UUID, limit int) ([]models.WorkoutSession, error) {
	var out []models.WorkoutSession
	for _, s := range f.sessions {
		if s.WorkoutID == workoutID && s.EndedAt != nil {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) SessionLoads(_ context.Context, sessionID uuid.UUID) ([]models.SessionExerciseLoad, error) {
	var out []models.SessionExerciseLoad
	for _, l := range f.loads {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) SessionLoadDetails(ctx context.Context, sessionID uuid.UUID) ([]models.LoadDetail, error) {
	loads, _ := f.SessionLoads(ctx, sessionID)
	var out []models.LoadDetail
	for _, l := range loads {
		out = append(out, models.LoadDetail{SessionExerciseLoad: l})
	}
	return out, nil
}

func (f *fakeStore) FinishSession(_ context.Context, fin models.SessionFinish) (int64, error) {
	if f.failFinish {
		return 0, errDown
	}
	for i := range f.sessions {
		if f.sessions[i].ID != fin.SessionID {
			continue
		}
		if f.sessions[i].EndedAt != nil {
			return 0, models.ErrSessionClosed
		}
		ended := fin.EndedAt
		f.sessions[i].EndedAt = &ended
		f.sessions[i].Notes = fin.Notes
		for _, l := range fin.Loads {
			f.loads = append(f.loads, models.SessionExerciseLoad{
				ID: uuid.New(), SessionID: fin.SessionID, WorkoutExerciseID: l.WorkoutExerciseID,
				LoadUsed: l.LoadUsed, RepsCompleted: l.RepsCompleted, Notes: l.Notes,
			})
		}
		f.finished = append(f.finished, fin)
		return int64(len(fin.Loads)), nil
	}
	return 0, models.ErrNotFound
}

func (f *fakeStore) UpdateSessionNotes(_ context.Context, sessionID uuid.UUID, notes *string) error {
	for i := range f.sessions {
		if f.sessions[i].ID == sessionID {
			f.sessions[i].Notes = notes
			return nil
		}
	}
	return models.ErrNotFound
}

type testEnv struct {
	store   *fakeStore
	tracker *catalog.MemoryTracker
	workout models.Workout
	squat   models.WorkoutExercise
	now     time.Time
	timeout time.Duration
}

func newTestEnv() *testEnv {
	w := models.Workout{ID: uuid.New(), Name: "Full Body", CreatedAt: time.Now()}
	sets, reps := 3, 10
	squat := models.WorkoutExercise{ID: uuid.New(), WorkoutID: w.ID, Position: 1, ExerciseName: "Back Squat", Sets: &sets, Reps: &reps}
	press := models.WorkoutExercise{ID: uuid.New(), WorkoutID: w.ID, Position: 2, ExerciseName: "Overhead Press"}
	return &testEnv{
		store:   &fakeStore{workouts: []models.Workout{w}, exercises: []models.WorkoutExercise{squat, press}},
		tracker: catalog.NewMemoryTracker(),
		workout: w,
		squat:   squat,
		now:     time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
}

func (e *testEnv) model() Model {
	return NewRootModel(e.store, Options{
		Tracker: e.tracker,
		Actor:   session.Actor{ID: uuid.New()},
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return e.now },

		StoreTimeout: e.timeout,
	})
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	nm, cmd := m.Update(msg)
	return nm.(Model), cmd
}

func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		msg = tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return update(m, msg)
}

// run executes a single (non-batched) command and feeds its message back.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return update(m, cmd())
}

// openDetail loads the catalog and opens the first workout.
func openDetail(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = run(t, m, m.loadWorkoutsCmd())
	m, cmd := press(m, "enter")
	if m.Screen() != ScreenDetail {
		t.Fatal("enter should open the detail view")
	}
	m, _ = run(t, m, cmd)
	return m
}

// startSession switches to the session tab, starts a session and loads its
// exercises.
func startSession(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = press(m, "tab")
	m, cmd := press(m, "s")
	m, _ = run(t, m, cmd)
	if m.ctrl.State() != session.InProgress {
		t.Fatalf("state = %v, want in_progress (status %q)", m.ctrl.State(), m.status)
	}
	m, _ = run(t, m, m.loadExercisesCmd(m.ctrl))
	return m
}

// TestCatalogRetry verifies a failed catalog load offers a retry that
// recovers once the store is back.
func TestCatalogRetry(t *testing.T) {
	env := newTestEnv()
	env.store.failWorkouts = true
	m := env.model()

	m, _ = run(t, m, m.loadWorkoutsCmd())
	if !strings.Contains(m.View(), "try again") {
		t.Fatalf("view should offer retry:\n%s", m.View())
	}

	env.store.failWorkouts = false
	m, cmd := press(m, "r")
	m, _ = run(t, m, cmd)
	if !strings.Contains(m.View(), "Full Body") {
		t.Errorf("view should list the workout:\n%s", m.View())
	}
}

// TestHungStoreCallTimesOut verifies a store call that never answers ends
// in the retry state instead of leaving the view loading.
func TestHungStoreCallTimesOut(t *testing.T) {
	env := newTestEnv()
	env.store.hangWorkouts = true
	env.timeout = 20 * time.Millisecond
	m := env.model()

	m, _ = run(t, m, m.loadWorkoutsCmd())
	if !strings.Contains(m.View(), "try again") {
		t.Fatalf("view should offer retry after the timeout:\n%s", m.View())
	}

	env.store.hangWorkouts = false
	m, cmd := press(m, "r")
	m, _ = run(t, m, cmd)
	if !strings.Contains(m.View(), "Full Body") {
		t.Errorf("view should list the workout:\n%s", m.View())
	}
}

// TestOpenWorkoutShowsExercises verifies the detail opens on the exercises
// tab with prescriptions.
func TestOpenWorkoutShowsExercises(t *testing.T) {
	env := newTestEnv()
	m := openDetail(t, env.model())

	if m.detail.Tab() != catalog.TabExercises {
		t.Errorf("tab = %v, want exercises", m.detail.Tab())
	}
	view := m.View()
	for _, want := range []string{"Back Squat", "3 sets × 10 reps", "Overhead Press"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

// TestSessionLifecycle walks a session from start through load entry,
// finish and completion into the history tab.
func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv()
	m := startSession(t, openDetail(t, env.model()))

	if _, _, ok, _ := env.tracker.Lookup(context.Background(), env.workout.ID); !ok {
		t.Error("active session pointer should be tracked after start")
	}

	env.now = env.now.Add(42*time.Minute + 30*time.Second)
	if got := m.elapsed(); got != "42:30" {
		t.Errorf("elapsed = %q, want 42:30", got)
	}

	// Log the first exercise: load, reps, then confirm past notes.
	m, _ = press(m, "enter")
	m, _ = press(m, "135 lbs")
	m, _ = press(m, "enter")
	m, _ = press(m, "10")
	m, _ = press(m, "enter")
	m, _ = press(m, "enter")
	if m.focus != focusNone {
		t.Fatal("entry form should close after the last field")
	}
	if e := m.ctrl.Entry(env.squat.ID); e.Load != "135 lbs" || e.Reps != "10" {
		t.Errorf("entry = %+v", e)
	}

	m, cmd := press(m, "f")
	m, _ = run(t, m, cmd)
	if m.ctrl.State() != session.Finished {
		t.Fatalf("state = %v, want finished (status %q)", m.ctrl.State(), m.status)
	}
	if len(env.store.finished) != 1 || len(env.store.finished[0].Loads) != 1 {
		t.Fatalf("finish calls = %+v", env.store.finished)
	}
	if got := env.store.finished[0].Loads[0]; *got.RepsCompleted != 10 {
		t.Errorf("reps = %d, want 10", *got.RepsCompleted)
	}
	if !strings.Contains(m.View(), "Session complete") {
		t.Errorf("view should show completion:\n%s", m.View())
	}

	env.now = env.now.Add(time.Hour)
	if got := m.elapsed(); got != "42:30" {
		t.Errorf("elapsed after finish = %q, want frozen 42:30", got)
	}

	m, cmd = press(m, "enter")
	if m.detail.Tab() != catalog.TabHistory {
		t.Errorf("tab = %v, want history", m.detail.Tab())
	}
	if _, _, ok, _ := env.tracker.Lookup(context.Background(), env.workout.ID); ok {
		t.Error("active session pointer should be cleared on completion")
	}
	if m.ctrl.State() != session.NotStarted {
		t.Error("a fresh controller should be ready for the next session")
	}
	m, _ = run(t, m, cmd)
	if !strings.Contains(m.View(), "42 min") {
		t.Errorf("history should list the session:\n%s", m.View())
	}
}

// TestFinishFailureKeepsSession verifies a failed finish leaves the session
// in progress with a retry hint.
func TestFinishFailureKeepsSession(t *testing.T) {
	env := newTestEnv()
	m := startSession(t, openDetail(t, env.model()))
	env.store.failFinish = true

	m, cmd := press(m, "f")
	m, _ = run(t, m, cmd)
	if m.ctrl.State() != session.InProgress {
		t.Errorf("state = %v, want in_progress", m.ctrl.State())
	}
	if !strings.Contains(m.status, "Could not finish") {
		t.Errorf("status = %q", m.status)
	}
}

// TestStaleTickDropped verifies only ticks of the current generation keep
// the timer running.
func TestStaleTickDropped(t *testing.T) {
	env := newTestEnv()
	m := startSession(t, openDetail(t, env.model()))
	gen := m.tickGen

	if _, cmd := update(m, tickMsg{gen: gen - 1}); cmd != nil {
		t.Error("stale tick should not reschedule")
	}
	if _, cmd := update(m, tickMsg{gen: gen}); cmd == nil {
		t.Error("current tick should reschedule")
	}

	m, _ = press(m, "esc")
	if _, cmd := update(m, tickMsg{gen: gen}); cmd != nil {
		t.Error("tick after leaving the workout should be dropped")
	}
}

// TestResumeFromTracker verifies reopening a workout resumes its session
// with the timer counting from the original start.
func TestResumeFromTracker(t *testing.T) {
	env := newTestEnv()
	sessionID := uuid.New()
	startedAt := env.now.Add(-90 * time.Second)
	env.store.sessions = []models.WorkoutSession{{ID: sessionID, WorkoutID: env.workout.ID, StartedAt: startedAt}}
	if err := env.tracker.Save(context.Background(), env.workout.ID, sessionID, startedAt); err != nil {
		t.Fatal(err)
	}

	m := env.model()
	m, _ = run(t, m, m.loadWorkoutsCmd())
	m, cmd := press(m, "enter")
	m, next := run(t, m, cmd)

	if m.ctrl.State() != session.InProgress || m.ctrl.SessionID() != sessionID {
		t.Fatalf("controller = %v/%s, want resumed %s", m.ctrl.State(), m.ctrl.SessionID(), sessionID)
	}
	if next == nil {
		t.Error("resume should load exercises and start the timer")
	}
	if got := m.elapsed(); got != "1:30" {
		t.Errorf("elapsed = %q, want 1:30", got)
	}
}

// TestHistoryWithoutRPE verifies sessions without an RPE show no RPE label.
func TestHistoryWithoutRPE(t *testing.T) {
	env := newTestEnv()
	start := env.now.Add(-24 * time.Hour)
	end := start.Add(30 * time.Minute)
	env.store.sessions = []models.WorkoutSession{{ID: uuid.New(), WorkoutID: env.workout.ID, StartedAt: start, EndedAt: &end}}

	m := openDetail(t, env.model())
	m, _ = press(m, "tab")
	m, cmd := press(m, "tab")
	m, _ = run(t, m, cmd)
	if strings.Contains(m.View(), "RPE") {
		t.Errorf("history should not show an RPE label:\n%s", m.View())
	}
}

// TestFinishedSessionNotResumed verifies leaving a finished session without
// closing it does not bring it back as in progress on reopen.
func TestFinishedSessionNotResumed(t *testing.T) {
	env := newTestEnv()
	m := startSession(t, openDetail(t, env.model()))

	m, cmd := press(m, "f")
	m, _ = run(t, m, cmd)
	if m.ctrl.State() != session.Finished {
		t.Fatalf("state = %v, want finished (status %q)", m.ctrl.State(), m.status)
	}
	if _, _, ok, _ := env.tracker.Lookup(context.Background(), env.workout.ID); ok {
		t.Error("active session pointer should be cleared on finish")
	}

	m, _ = press(m, "esc")
	env.now = env.now.Add(2 * time.Hour)
	m, cmd = press(m, "enter")
	m, next := run(t, m, cmd)

	if m.ctrl.State() != session.NotStarted {
		t.Errorf("state = %v, want not_started", m.ctrl.State())
	}
	if next != nil {
		t.Error("no timer should start for a finished session")
	}
}

// TestStalePointerDropped verifies a tracked session the store already
// closed is forgotten instead of resumed.
func TestStalePointerDropped(t *testing.T) {
	env := newTestEnv()
	sessionID := uuid.New()
	startedAt := env.now.Add(-2 * time.Hour)
	endedAt := startedAt.Add(40 * time.Minute)
	env.store.sessions = []models.WorkoutSession{{ID: sessionID, WorkoutID: env.workout.ID, StartedAt: startedAt, EndedAt: &endedAt}}
	if err := env.tracker.Save(context.Background(), env.workout.ID, sessionID, startedAt); err != nil {
		t.Fatal(err)
	}

	m := openDetail(t, env.model())
	if m.ctrl.State() != session.NotStarted {
		t.Errorf("state = %v, want not_started", m.ctrl.State())
	}
	if _, _, ok, _ := env.tracker.Lookup(context.Background(), env.workout.ID); ok {
		t.Error("tracker should forget the finished session")
	}
}

// TestFinishClosedElsewhereReported verifies a session closed by another
// client is reported and the entries are not silently accepted.
func TestFinishClosedElsewhereReported(t *testing.T) {
	env := newTestEnv()
	m := startSession(t, openDetail(t, env.model()))
	ended := env.now.Add(time.Minute)
	env.store.sessions[0].EndedAt = &ended

	m, _ = press(m, "enter")
	m, _ = press(m, "135 lbs")
	m, _ = press(m, "esc")
	m, cmd := press(m, "f")
	m, _ = run(t, m, cmd)

	if !strings.Contains(m.status, "already finished elsewhere") {
		t.Errorf("status = %q", m.status)
	}
	if m.ctrl.State() != session.NotStarted {
		t.Errorf("state = %v, want a fresh controller", m.ctrl.State())
	}
	if len(env.store.finished) != 0 || len(env.store.loads) != 0 {
		t.Errorf("nothing should be written: finished=%d loads=%d", len(env.store.finished), len(env.store.loads))
	}
	if _, _, ok, _ := env.tracker.Lookup(context.Background(), env.workout.ID); ok {
		t.Error("tracker should forget the closed session")
	}
}

// TestHistoryExpandAndEdit verifies expanding a session without loads and
// editing its notes.
func TestHistoryExpandAndEdit(t *testing.T) {
	env := newTestEnv()
	start := env.now.Add(-24 * time.Hour)
	end := start.Add(30 * time.Minute)
	rpe := 8
	env.store.sessions = []models.WorkoutSession{{ID: uuid.New(), WorkoutID: env.workout.ID, StartedAt: start, EndedAt: &end, RPE: &rpe}}

	m := openDetail(t, env.model())
	m, _ = press(m, "tab")
	m, cmd := press(m, "tab")
	m, _ = run(t, m, cmd)
	if !strings.Contains(m.View(), "Yesterday") {
		t.Errorf("history should show the session date:\n%s", m.View())
	}
	if !strings.Contains(m.View(), "RPE: 8/10") {
		t.Errorf("history should show the session RPE:\n%s", m.View())
	}

	m, cmd = press(m, "enter")
	m, _ = run(t, m, cmd)
	if !strings.Contains(m.View(), "no loads recorded") {
		t.Errorf("expanded session should say no loads:\n%s", m.View())
	}

	m, _ = press(m, "e")
	if m.focus != focusHistoryNotes {
		t.Fatal("e should open the notes editor")
	}
	m, _ = press(m, "felt strong")
	m, cmd = press(m, "ctrl+s")
	m, _ = run(t, m, cmd)

	if m.focus != focusNone {
		t.Error("editor should close after saving")
	}
	if n := env.store.sessions[0].Notes; n == nil || *n != "felt strong" {
		t.Errorf("stored notes = %v, want felt strong", n)
	}
	if !strings.Contains(m.View(), "felt strong") {
		t.Errorf("view should show saved notes:\n%s", m.View())
	}
}
