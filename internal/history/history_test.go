package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/models"
)

// fakeStore applies the same filter, order and limit as the real backends
// over an in-memory session table.
type fakeStore struct {
	sessions    []models.WorkoutSession
	details     map[uuid.UUID][]models.LoadDetail
	detailCalls int
	updateErr   error
	detailErr   error
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

func (f *fakeStore) SessionLoadDetails(_ context.Context, sessionID uuid.UUID) ([]models.LoadDetail, error) {
	f.detailCalls++
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.details[sessionID], nil
}

func (f *fakeStore) UpdateSessionNotes(_ context.Context, id uuid.UUID, notes *string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			f.sessions[i].Notes = notes
			return nil
		}
	}
	return models.ErrNotFound
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strp(s string) *string { return &s }

func completed(workoutID uuid.UUID, start time.Time, d time.Duration) models.WorkoutSession {
	end := start.Add(d)
	return models.WorkoutSession{ID: uuid.New(), WorkoutID: workoutID, StartedAt: start, EndedAt: &end}
}

// TestLoadLimitOrderAndExclusion verifies at most ten finished sessions are
// listed, newest first, with open sessions left out.
func TestLoadLimitOrderAndExclusion(t *testing.T) {
	workoutID := uuid.New()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	for i := 0; i < 12; i++ {
		store.sessions = append(store.sessions, completed(workoutID, base.Add(time.Duration(i)*24*time.Hour), time.Hour))
	}
	open := models.WorkoutSession{ID: uuid.New(), WorkoutID: workoutID, StartedAt: base.Add(30 * 24 * time.Hour)}
	store.sessions = append(store.sessions, open)
	store.sessions = append(store.sessions, completed(uuid.New(), base, time.Hour))

	h := New(store, workoutID, quietLogger())
	if err := h.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	items := h.Items()
	if len(items) != Limit {
		t.Fatalf("got %d items, want %d", len(items), Limit)
	}
	for i, it := range items {
		if it.Session.ID == open.ID {
			t.Error("open session listed")
		}
		if it.Session.WorkoutID != workoutID {
			t.Error("session of another workout listed")
		}
		if i > 0 && !it.Session.StartedAt.Before(items[i-1].Session.StartedAt) {
			t.Errorf("item %d not strictly older than item %d", i, i-1)
		}
	}
	if want := base.Add(11 * 24 * time.Hour); !items[0].Session.StartedAt.Equal(want) {
		t.Errorf("newest = %v, want %v", items[0].Session.StartedAt, want)
	}
}

// TestDurationMinutes verifies minutes are floored.
func TestDurationMinutes(t *testing.T) {
	start := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		d    time.Duration
		want int
	}{
		{"42.5 minutes", 42*time.Minute + 30*time.Second, 42},
		{"just under a minute", 59 * time.Second, 0},
		{"exact hour", time.Hour, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationMinutes(completed(uuid.New(), start, tt.d)); got != tt.want {
				t.Errorf("DurationMinutes = %d, want %d", got, tt.want)
			}
		})
	}
	if got := DurationMinutes(models.WorkoutSession{StartedAt: start}); got != 0 {
		t.Errorf("open session = %d, want 0", got)
	}
}

// TestToggleLoadsOnce verifies loads are fetched on first expansion only.
func TestToggleLoadsOnce(t *testing.T) {
	workoutID := uuid.New()
	s := completed(workoutID, time.Now().Add(-time.Hour), 30*time.Minute)
	store := &fakeStore{
		sessions: []models.WorkoutSession{s},
		details: map[uuid.UUID][]models.LoadDetail{
			s.ID: {{ExerciseName: "Squat", Position: 1}},
		},
	}
	h := New(store, workoutID, quietLogger())
	ctx := context.Background()
	if err := h.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := h.Toggle(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	it := h.Items()[0]
	if !it.Expanded || len(it.Loads) != 1 || it.Loads[0].ExerciseName != "Squat" {
		t.Errorf("after expand: %+v", it)
	}
	if err := h.Toggle(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if h.Items()[0].Expanded {
		t.Error("should be collapsed")
	}
	if err := h.Toggle(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if store.detailCalls != 1 {
		t.Errorf("detail fetches = %d, want 1", store.detailCalls)
	}
	if err := h.Toggle(ctx, uuid.New()); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("err = %v, want ErrUnknownSession", err)
	}
}

// TestToggleFailureStaysCollapsed verifies a failed fetch can be retried.
func TestToggleFailureStaysCollapsed(t *testing.T) {
	workoutID := uuid.New()
	s := completed(workoutID, time.Now().Add(-time.Hour), time.Minute)
	store := &fakeStore{sessions: []models.WorkoutSession{s}, detailErr: errors.New("boom")}
	h := New(store, workoutID, quietLogger())
	ctx := context.Background()
	if err := h.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.Toggle(ctx, s.ID); err == nil {
		t.Fatal("expected error")
	}
	if it := h.Items()[0]; it.Expanded || it.LoadsLoaded {
		t.Errorf("item = %+v, want collapsed", it)
	}
}

// TestSaveEditTouchesOnlyThatSession verifies saving notes changes only the
// edited session, in the store and in the local list.
func TestSaveEditTouchesOnlyThatSession(t *testing.T) {
	workoutID := uuid.New()
	now := time.Now()
	a := completed(workoutID, now.Add(-2*time.Hour), time.Hour)
	a.Notes = strp("original a")
	b := completed(workoutID, now.Add(-4*time.Hour), time.Hour)
	b.Notes = strp("original b")
	store := &fakeStore{sessions: []models.WorkoutSession{a, b}}

	h := New(store, workoutID, quietLogger())
	ctx := context.Background()
	if err := h.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.BeginEdit(a.ID); err != nil {
		t.Fatal(err)
	}
	if got := h.Buffer(); got != "original a" {
		t.Errorf("buffer = %q, want original a", got)
	}
	h.SetBuffer("heavier next time")
	if err := h.SaveEdit(ctx); err != nil {
		t.Fatal(err)
	}

	if got := *store.sessions[0].Notes; got != "heavier next time" {
		t.Errorf("stored a = %q", got)
	}
	if got := *store.sessions[1].Notes; got != "original b" {
		t.Errorf("stored b = %q, want unchanged", got)
	}
	items := h.Items()
	if got := *items[0].Session.Notes; got != "heavier next time" {
		t.Errorf("local a = %q", got)
	}
	if got := *items[1].Session.Notes; got != "original b" {
		t.Errorf("local b = %q", got)
	}
	if _, ok := h.Editing(); ok {
		t.Error("edit should be closed after save")
	}
}

// TestCancelEditLeavesNotes verifies cancel never writes the buffer.
func TestCancelEditLeavesNotes(t *testing.T) {
	workoutID := uuid.New()
	s := completed(workoutID, time.Now().Add(-time.Hour), time.Hour)
	s.Notes = strp("keep me")
	store := &fakeStore{sessions: []models.WorkoutSession{s}}

	h := New(store, workoutID, quietLogger())
	ctx := context.Background()
	if err := h.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.BeginEdit(s.ID); err != nil {
		t.Fatal(err)
	}
	h.SetBuffer("scratch")
	h.CancelEdit()

	if got := *store.sessions[0].Notes; got != "keep me" {
		t.Errorf("stored = %q, want keep me", got)
	}
	if got := *h.Items()[0].Session.Notes; got != "keep me" {
		t.Errorf("local = %q, want keep me", got)
	}
	if err := h.SaveEdit(ctx); !errors.Is(err, ErrNotEditing) {
		t.Errorf("err = %v, want ErrNotEditing", err)
	}
}

// TestSaveEditEmptyClears verifies an empty buffer stores null notes.
func TestSaveEditEmptyClears(t *testing.T) {
	workoutID := uuid.New()
	s := completed(workoutID, time.Now().Add(-time.Hour), time.Hour)
	s.Notes = strp("old")
	store := &fakeStore{sessions: []models.WorkoutSession{s}}

	h := New(store, workoutID, quietLogger())
	ctx := context.Background()
	if err := h.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.BeginEdit(s.ID); err != nil {
		t.Fatal(err)
	}
	h.SetBuffer("")
	if err := h.SaveEdit(ctx); err != nil {
		t.Fatal(err)
	}
	if store.sessions[0].Notes != nil {
		t.Errorf("stored = %q, want nil", *store.sessions[0].Notes)
	}
}

// TestSaveEditFailureKeepsBuffer verifies a failed save leaves the edit open.
func TestSaveEditFailureKeepsBuffer(t *testing.T) {
	workoutID := uuid.New()
	s := completed(workoutID, time.Now().Add(-time.Hour), time.Hour)
	store := &fakeStore{sessions: []models.WorkoutSession{s}, updateErr: errors.New("offline")}

	h := New(store, workoutID, quietLogger())
	ctx := context.Background()
	if err := h.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.BeginEdit(s.ID); err != nil {
		t.Fatal(err)
	}
	h.SetBuffer("draft")
	if err := h.SaveEdit(ctx); err == nil {
		t.Fatal("expected error")
	}
	if id, ok := h.Editing(); !ok || id != s.ID {
		t.Error("edit should stay open")
	}
	if h.Buffer() != "draft" {
		t.Errorf("buffer = %q, want draft", h.Buffer())
	}
}

// TestFormatDate verifies the relative and absolute date labels.
func TestFormatDate(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"same day", time.Date(2026, 3, 15, 0, 5, 0, 0, time.UTC), "Today"},
		{"previous day late", time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC), "Yesterday"},
		{"two days ago", time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC), "Mar 13"},
		{"previous year", time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC), "Dec 31, 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDate(tt.t, now); got != tt.want {
				t.Errorf("FormatDate = %q, want %q", got, tt.want)
			}
		})
	}

	newYear := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	if got := FormatDate(time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC), newYear); got != "Yesterday" {
		t.Errorf("across new year = %q, want Yesterday", got)
	}
}

// TestFormatTime verifies the 12-hour clock label.
func TestFormatTime(t *testing.T) {
	if got := FormatTime(time.Date(2026, 3, 15, 15, 4, 0, 0, time.UTC), time.UTC); got != "3:04 PM" {
		t.Errorf("FormatTime = %q, want 3:04 PM", got)
	}
	if got := FormatTime(time.Date(2026, 3, 15, 0, 7, 0, 0, time.UTC), nil); got != "12:07 AM" {
		t.Errorf("FormatTime = %q, want 12:07 AM", got)
	}
}
