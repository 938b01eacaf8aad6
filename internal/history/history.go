// Package history holds the completed sessions of one workout with lazily
// loaded per-session loads and single-session notes editing.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/models"
)

// Limit is the number of sessions shown.
const Limit = 10

var (
	ErrUnknownSession = errors.New("history: unknown session")
	ErrNotEditing     = errors.New("history: no edit in progress")
)

// Store is the persistence history reads and writes.
type Store interface {
	CompletedSessions(ctx context.Context, workoutID uuid.UUID, limit int) ([]models.WorkoutSession, error)
	SessionLoadDetails(ctx context.Context, sessionID uuid.UUID) ([]models.LoadDetail, error)
	UpdateSessionNotes(ctx context.Context, sessionID uuid.UUID, notes *string) error
}

// Item is one completed session as displayed.
type Item struct {
	Session     models.WorkoutSession
	Expanded    bool
	LoadsLoaded bool
	Loads       []models.LoadDetail
}

// DurationMinutes is the whole number of minutes between start and end.
func (it Item) DurationMinutes() int {
	return DurationMinutes(it.Session)
}

// History is the session list of one workout.
type History struct {
	store     Store
	log       *slog.Logger
	workoutID uuid.UUID

	mu      sync.Mutex
	loaded  bool
	items   []Item
	editing uuid.UUID
	buffer  string
}

// New creates an empty History for workoutID. Call Load to fill it.
func New(store Store, workoutID uuid.UUID, log *slog.Logger) *History {
	if log == nil {
		log = slog.Default()
	}
	return &History{store: store, log: log, workoutID: workoutID}
}

// Load fetches the most recent completed sessions, replacing the list.
func (h *History) Load(ctx context.Context) error {
	sessions, err := h.store.CompletedSessions(ctx, h.workoutID, Limit)
	if err != nil {
		h.log.Error("loading session history", "workout_id", h.workoutID, "error", err)
		return fmt.Errorf("loading history: %w", err)
	}
	items := make([]Item, 0, len(sessions))
	for _, s := range sessions {
		if s.EndedAt == nil {
			continue
		}
		items = append(items, Item{Session: s})
	}
	if len(items) > Limit {
		items = items[:Limit]
	}

	h.mu.Lock()
	h.items = items
	h.loaded = true
	h.editing = uuid.Nil
	h.buffer = ""
	h.mu.Unlock()
	return nil
}

// Loaded reports whether Load has succeeded at least once.
func (h *History) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded
}

// Items returns a copy of the list, newest first.
func (h *History) Items() []Item {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Item, len(h.items))
	copy(out, h.items)
	return out
}

// Toggle expands or collapses a session. The first expansion fetches the
// session's loads; if that fails the session stays collapsed.
func (h *History) Toggle(ctx context.Context, sessionID uuid.UUID) error {
	h.mu.Lock()
	i := h.index(sessionID)
	if i < 0 {
		h.mu.Unlock()
		return ErrUnknownSession
	}
	if h.items[i].Expanded || h.items[i].LoadsLoaded {
		h.items[i].Expanded = !h.items[i].Expanded
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	loads, err := h.store.SessionLoadDetails(ctx, sessionID)
	if err != nil {
		h.log.Error("loading session loads", "session_id", sessionID, "error", err)
		return fmt.Errorf("loading session loads: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if i = h.index(sessionID); i < 0 {
		return ErrUnknownSession
	}
	h.items[i].Loads = loads
	h.items[i].LoadsLoaded = true
	h.items[i].Expanded = true
	return nil
}

// BeginEdit starts editing a session's notes, abandoning any other edit.
func (h *History) BeginEdit(sessionID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := h.index(sessionID)
	if i < 0 {
		return ErrUnknownSession
	}
	h.editing = sessionID
	h.buffer = ""
	if n := h.items[i].Session.Notes; n != nil {
		h.buffer = *n
	}
	return nil
}

// Editing returns the session whose notes are being edited.
func (h *History) Editing() (uuid.UUID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.editing, h.editing != uuid.Nil
}

func (h *History) Buffer() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buffer
}

func (h *History) SetBuffer(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffer = s
}

// SaveEdit writes the buffer as the edited session's notes and updates the
// local copy. Empty text clears the notes. On failure the edit stays open.
func (h *History) SaveEdit(ctx context.Context) error {
	h.mu.Lock()
	id, buf := h.editing, h.buffer
	h.mu.Unlock()
	if id == uuid.Nil {
		return ErrNotEditing
	}

	notes := models.NonBlank(buf)
	if err := h.store.UpdateSessionNotes(ctx, id, notes); err != nil {
		h.log.Error("saving session notes", "session_id", id, "error", err)
		return fmt.Errorf("saving notes: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if i := h.index(id); i >= 0 {
		h.items[i].Session.Notes = notes
	}
	if h.editing == id {
		h.editing = uuid.Nil
		h.buffer = ""
	}
	return nil
}

// CancelEdit discards the buffer without writing anything.
func (h *History) CancelEdit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editing = uuid.Nil
	h.buffer = ""
}

func (h *History) index(id uuid.UUID) int {
	for i := range h.items {
		if h.items[i].Session.ID == id {
			return i
		}
	}
	return -1
}
