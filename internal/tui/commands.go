package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/catalog"
	"github.com/meltforce/workoutvault/internal/history"
	"github.com/meltforce/workoutvault/internal/session"
)

// defaultStoreTimeout bounds every store call made from a command, so a
// hung connection ends in an error the user can retry.
const defaultStoreTimeout = 15 * time.Second

// tickInterval is the session timer resolution.
const tickInterval = time.Second

// Messages
type workoutsLoadedMsg struct{ err error }

type detailLoadedMsg struct {
	detail *catalog.Detail
	err    error
}

type sessionStartedMsg struct {
	ctrl *session.Controller
	err  error
}

type exercisesLoadedMsg struct {
	ctrl *session.Controller
	err  error
}

type sessionFinishedMsg struct {
	ctrl *session.Controller
	err  error
}

type sessionNotesSavedMsg struct{ err error }

type historyLoadedMsg struct {
	hist *history.History
	err  error
}

type historyToggledMsg struct {
	hist *history.History
	err  error
}

type historyNotesSavedMsg struct {
	hist *history.History
	err  error
}

// tickMsg advances the session timer. Ticks whose generation differs from
// the model's are stale and dropped.
type tickMsg struct {
	gen int
	at  time.Time
}

func (m Model) call(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(m.ctx, m.storeTimeout)
	defer cancel()
	return fn(ctx)
}

func (m Model) loadWorkoutsCmd() tea.Cmd {
	c := m.catalog
	return func() tea.Msg {
		return workoutsLoadedMsg{err: m.call(c.Load)}
	}
}

func (m Model) loadDetailCmd(d *catalog.Detail) tea.Cmd {
	return func() tea.Msg {
		return detailLoadedMsg{detail: d, err: m.call(d.Load)}
	}
}

func (m Model) startSessionCmd(ctrl *session.Controller) tea.Cmd {
	actor := m.actor
	return func() tea.Msg {
		err := m.call(func(ctx context.Context) error { return ctrl.Start(ctx, actor) })
		return sessionStartedMsg{ctrl: ctrl, err: err}
	}
}

func (m Model) loadExercisesCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return exercisesLoadedMsg{ctrl: ctrl, err: m.call(ctrl.Load)}
	}
}

func (m Model) finishSessionCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return sessionFinishedMsg{ctrl: ctrl, err: m.call(ctrl.Finish)}
	}
}

func (m Model) saveSessionNotesCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return sessionNotesSavedMsg{err: m.call(ctrl.SaveNotes)}
	}
}

func (m Model) loadHistoryCmd(h *history.History) tea.Cmd {
	return func() tea.Msg {
		return historyLoadedMsg{hist: h, err: m.call(h.Load)}
	}
}

func (m Model) toggleHistoryCmd(h *history.History, sessionID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		err := m.call(func(ctx context.Context) error { return h.Toggle(ctx, sessionID) })
		return historyToggledMsg{hist: h, err: err}
	}
}

func (m Model) saveHistoryNotesCmd(h *history.History) tea.Cmd {
	return func() tea.Msg {
		return historyNotesSavedMsg{hist: h, err: m.call(h.SaveEdit)}
	}
}

func tickCmd(gen int) tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, at: t}
	})
}
