// Package tui is the terminal client: the workout catalog, a workout's
// detail tabs, the live session form and the session history.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/catalog"
	"github.com/meltforce/workoutvault/internal/history"
	"github.com/meltforce/workoutvault/internal/models"
	"github.com/meltforce/workoutvault/internal/session"
)

// Store is everything the client reads and writes. *rest.Client and
// *storage.DB satisfy it.
type Store interface {
	catalog.Store
	session.Store
	history.Store
}

// Screen is the top-level view.
type Screen int

const (
	ScreenCatalog Screen = iota
	ScreenDetail
)

type focus int

const (
	focusNone focus = iota
	focusEntry
	focusSessionNotes
	focusHistoryNotes
)

// Entry form fields, in tab order.
const (
	fieldLoad = iota
	fieldReps
	fieldNotes
	numFields
)

// Options configures the root model.
type Options struct {
	// Tracker keeps active session pointers. Nil keeps them in memory.
	Tracker catalog.Tracker
	Actor   session.Actor
	Log     *slog.Logger
	// Now replaces time.Now for the session timer and history dates.
	Now func() time.Time
	// StoreTimeout bounds each store call. Zero means 15 seconds.
	StoreTimeout time.Duration
}

// Model is the root Bubble Tea model
type Model struct {
	ctx     context.Context
	store   Store
	tracker catalog.Tracker
	actor   session.Actor
	log     *slog.Logger
	now     func() time.Time

	storeTimeout time.Duration

	// Terminal dimensions
	width  int
	height int

	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	showHelp bool

	screen  Screen
	catalog *catalog.Catalog
	cursor  int

	// Detail of the opened workout
	detail     *catalog.Detail
	ctrl       *session.Controller
	hist       *history.History
	tickGen    int
	formCursor int
	histCursor int

	// Inputs
	focus         focus
	entryExercise uuid.UUID
	entryField    int
	entryInputs   [numFields]textinput.Model
	notesArea     textarea.Model
	histArea      textarea.Model

	busy   bool
	status string
}

// NewRootModel creates the root model over store.
func NewRootModel(store Store, opts Options) Model {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tracker == nil {
		opts.Tracker = catalog.NewMemoryTracker()
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = MutedStyle

	var inputs [numFields]textinput.Model
	for i, p := range []struct{ prompt, placeholder string }{
		{"Load:  ", "e.g. 135 lbs"},
		{"Reps:  ", "e.g. 10"},
		{"Notes: ", "optional"},
	} {
		ti := textinput.New()
		ti.Prompt = p.prompt
		ti.PromptStyle = InputPromptStyle
		ti.Placeholder = p.placeholder
		ti.CharLimit = 200
		ti.Width = 40
		inputs[i] = ti
	}
	inputs[fieldReps].CharLimit = 6

	return Model{
		ctx:          context.Background(),
		store:        store,
		tracker:      opts.Tracker,
		actor:        opts.Actor,
		log:          opts.Log,
		now:          opts.Now,
		storeTimeout: opts.StoreTimeout,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		spinner:      sp,
		screen:       ScreenCatalog,
		catalog:      catalog.New(store, opts.Log),
		entryInputs:  inputs,
		notesArea:    newNotesArea("How did it go?"),
		histArea:     newNotesArea("Session notes"),
	}
}

func newNotesArea(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.SetWidth(60)
	ta.SetHeight(4)
	return ta
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadWorkoutsCmd())
}

// Screen reports the current top-level view.
func (m Model) Screen() Screen { return m.screen }

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		w := max(20, min(80, msg.Width-4))
		m.notesArea.SetWidth(w)
		m.histArea.SetWidth(w)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case workoutsLoadedMsg:
		if n := len(m.catalog.Workouts()); m.cursor >= n {
			m.cursor = max(0, n-1)
		}
		return m, nil

	case detailLoadedMsg:
		if msg.detail != m.detail || msg.err != nil {
			return m, nil
		}
		m.ctrl = m.newController(m.detail)
		if m.ctrl.State() == session.InProgress {
			m.tickGen++
			return m, tea.Batch(m.loadExercisesCmd(m.ctrl), tickCmd(m.tickGen))
		}
		return m, nil

	case sessionStartedMsg:
		if msg.ctrl != m.ctrl {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			m.status = "Could not start session: " + msg.err.Error()
			return m, nil
		}
		m.status = ""
		m.tickGen++
		return m, tea.Batch(m.loadExercisesCmd(m.ctrl), tickCmd(m.tickGen))

	case exercisesLoadedMsg:
		if msg.ctrl == m.ctrl && msg.err != nil {
			m.status = "Could not load exercises: " + msg.err.Error() + " (r to retry)"
		}
		return m, nil

	case tickMsg:
		if msg.gen != m.tickGen || m.ctrl == nil || m.ctrl.State() != session.InProgress {
			return m, nil
		}
		return m, tickCmd(m.tickGen)

	case sessionFinishedMsg:
		if msg.ctrl != m.ctrl {
			return m, nil
		}
		m.busy = false
		if errors.Is(msg.err, models.ErrSessionClosed) {
			ctx, cancel := context.WithTimeout(m.ctx, m.storeTimeout)
			m.detail.SessionFinished(ctx)
			cancel()
			m.tickGen++
			m.ctrl = m.newController(m.detail)
			m.formCursor = 0
			m.status = "This session was already finished elsewhere; the entries were not saved"
			return m, nil
		}
		if msg.err != nil {
			m.status = "Could not finish session: " + msg.err.Error() + " (f to retry)"
			return m, nil
		}
		m.status = ""
		m.tickGen++
		m.notesArea.SetValue(m.ctrl.Notes())
		return m, nil

	case sessionNotesSavedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Could not save notes: " + msg.err.Error()
		} else {
			m.status = "Notes saved"
		}
		return m, nil

	case historyLoadedMsg:
		if msg.hist == m.hist && msg.err != nil {
			m.status = "Could not load history: " + msg.err.Error() + " (r to retry)"
		}
		if msg.hist == m.hist {
			if n := len(m.hist.Items()); m.histCursor >= n {
				m.histCursor = max(0, n-1)
			}
		}
		return m, nil

	case historyToggledMsg:
		if msg.hist == m.hist && msg.err != nil {
			m.status = "Could not load session: " + msg.err.Error()
		}
		return m, nil

	case historyNotesSavedMsg:
		if msg.hist != m.hist {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			m.status = "Could not save notes: " + msg.err.Error()
			return m, nil
		}
		m.status = "Notes saved"
		m.focus = focusNone
		m.histArea.Blur()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

// newController builds the session controller of the opened workout,
// resuming the session the detail's pointer refers to.
func (m Model) newController(d *catalog.Detail) *session.Controller {
	ctx, log, timeout := m.ctx, m.log, m.storeTimeout
	opts := []session.Option{
		session.WithLogger(log),
		session.WithClock(m.now),
		session.OnSessionStart(func(id uuid.UUID, startedAt time.Time) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			d.SessionStarted(ctx, id, startedAt)
		}),
		session.OnSessionFinish(func() {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			d.SessionFinished(ctx)
		}),
		session.OnSessionComplete(func() {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			d.SessionCompleted(ctx)
		}),
	}
	if a, ok := d.Active(); ok {
		log.Info("resuming session", "session_id", a.SessionID, "started_at", a.StartedAt)
		opts = append(opts, session.WithResume(a.SessionID, a.StartedAt))
	}
	return session.New(m.store, d.Workout().ID, opts...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.focus != focusNone {
		return m.handleFocusedKey(msg)
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	}

	if m.screen == ScreenCatalog {
		return m.handleCatalogKey(msg)
	}
	return m.handleDetailKey(msg)
}

func (m Model) handleCatalogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	workouts := m.catalog.Workouts()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(workouts)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Retry):
		if m.catalog.Err() != nil {
			return m, m.loadWorkoutsCmd()
		}
	case key.Matches(msg, m.keys.Enter):
		if len(workouts) == 0 {
			return m, nil
		}
		return m.openWorkout(workouts[m.cursor].ID)
	}
	return m, nil
}

func (m Model) openWorkout(id uuid.UUID) (tea.Model, tea.Cmd) {
	for _, w := range m.catalog.Workouts() {
		if w.ID != id {
			continue
		}
		m.screen = ScreenDetail
		m.detail = catalog.Open(m.store, m.tracker, w, m.log)
		m.hist = history.New(m.store, w.ID, m.log)
		m.ctrl = nil
		m.formCursor, m.histCursor = 0, 0
		m.status = ""
		m.busy = false
		m.notesArea.Reset()
		return m, m.loadDetailCmd(m.detail)
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.screen = ScreenCatalog
		m.detail, m.ctrl, m.hist = nil, nil, nil
		m.tickGen++
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		return m.setTab(m.detail.Tab().Next())
	case key.Matches(msg, m.keys.PrevTab):
		return m.setTab(m.detail.Tab().Prev())
	}

	if err := m.detail.Err(); err != nil {
		if key.Matches(msg, m.keys.Retry) {
			return m, m.loadDetailCmd(m.detail)
		}
		return m, nil
	}

	switch m.detail.Tab() {
	case catalog.TabSession:
		return m.handleSessionKey(msg)
	case catalog.TabHistory:
		return m.handleHistoryKey(msg)
	}
	return m, nil
}

func (m Model) setTab(t catalog.Tab) (tea.Model, tea.Cmd) {
	m.detail.SetTab(t)
	m.status = ""
	if t == catalog.TabHistory && !m.hist.Loaded() {
		return m, m.loadHistoryCmd(m.hist)
	}
	return m, nil
}

func (m Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ctrl == nil || m.busy {
		return m, nil
	}

	switch m.ctrl.State() {
	case session.NotStarted:
		if key.Matches(msg, m.keys.Start) {
			m.busy = true
			m.status = ""
			return m, m.startSessionCmd(m.ctrl)
		}

	case session.InProgress:
		exercises := m.ctrl.Exercises()
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.formCursor > 0 {
				m.formCursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.formCursor < len(exercises)-1 {
				m.formCursor++
			}
		case key.Matches(msg, m.keys.Enter):
			if m.formCursor < len(exercises) {
				return m.beginEntry(exercises[m.formCursor].ID)
			}
		case key.Matches(msg, m.keys.Notes):
			m.focus = focusSessionNotes
			m.notesArea.SetValue(m.ctrl.Notes())
			return m, m.notesArea.Focus()
		case key.Matches(msg, m.keys.Retry):
			if !m.ctrl.Loaded() {
				m.status = ""
				return m, m.loadExercisesCmd(m.ctrl)
			}
		case key.Matches(msg, m.keys.Finish):
			m.busy = true
			m.status = ""
			return m, m.finishSessionCmd(m.ctrl)
		}

	case session.Finished:
		switch {
		case key.Matches(msg, m.keys.Notes):
			m.focus = focusSessionNotes
			return m, m.notesArea.Focus()
		case key.Matches(msg, m.keys.Save):
			m.ctrl.SetNotes(m.notesArea.Value())
			m.busy = true
			return m, m.saveSessionNotesCmd(m.ctrl)
		case key.Matches(msg, m.keys.Enter):
			return m.completeSession()
		}
	}
	return m, nil
}

// completeSession hands the finished session back to the detail view, which
// moves to the history tab, and prepares a fresh controller.
func (m Model) completeSession() (tea.Model, tea.Cmd) {
	if err := m.ctrl.Close(); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.ctrl = m.newController(m.detail)
	m.notesArea.Reset()
	m.formCursor = 0
	m.status = ""
	m.hist = history.New(m.store, m.detail.Workout().ID, m.log)
	m.histCursor = 0
	return m, m.loadHistoryCmd(m.hist)
}

func (m Model) beginEntry(exerciseID uuid.UUID) (tea.Model, tea.Cmd) {
	e := m.ctrl.Entry(exerciseID)
	m.focus = focusEntry
	m.entryExercise = exerciseID
	m.entryField = fieldLoad
	m.entryInputs[fieldLoad].SetValue(e.Load)
	m.entryInputs[fieldReps].SetValue(e.Reps)
	m.entryInputs[fieldNotes].SetValue(e.Notes)
	return m, m.focusEntryField(fieldLoad)
}

func (m *Model) focusEntryField(field int) tea.Cmd {
	m.entryField = field
	for i := range m.entryInputs {
		m.entryInputs[i].Blur()
	}
	return m.entryInputs[field].Focus()
}

func (m *Model) commitEntry() {
	m.ctrl.SetEntry(m.entryExercise, session.Entry{
		Load:  m.entryInputs[fieldLoad].Value(),
		Reps:  m.entryInputs[fieldReps].Value(),
		Notes: m.entryInputs[fieldNotes].Value(),
	})
	for i := range m.entryInputs {
		m.entryInputs[i].Blur()
	}
	m.focus = focusNone
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.hist.Items()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.histCursor > 0 {
			m.histCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.histCursor < len(items)-1 {
			m.histCursor++
		}
	case key.Matches(msg, m.keys.Retry):
		m.status = ""
		return m, m.loadHistoryCmd(m.hist)
	case key.Matches(msg, m.keys.Enter):
		if m.histCursor < len(items) {
			return m, m.toggleHistoryCmd(m.hist, items[m.histCursor].Session.ID)
		}
	case key.Matches(msg, m.keys.Edit):
		if m.histCursor >= len(items) {
			return m, nil
		}
		if err := m.hist.BeginEdit(items[m.histCursor].Session.ID); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.focus = focusHistoryNotes
		m.histArea.SetValue(m.hist.Buffer())
		return m, m.histArea.Focus()
	}
	return m, nil
}

func (m Model) handleFocusedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusEntry:
		switch msg.String() {
		case "esc":
			m.commitEntry()
			return m, nil
		case "enter":
			if m.entryField == numFields-1 {
				m.commitEntry()
				if m.formCursor < len(m.ctrl.Exercises())-1 {
					m.formCursor++
				}
				return m, nil
			}
			return m, m.focusEntryField(m.entryField + 1)
		case "tab", "down":
			return m, m.focusEntryField((m.entryField + 1) % numFields)
		case "shift+tab", "up":
			return m, m.focusEntryField((m.entryField + numFields - 1) % numFields)
		}

	case focusSessionNotes:
		switch {
		case msg.String() == "esc":
			m.ctrl.SetNotes(m.notesArea.Value())
			m.notesArea.Blur()
			m.focus = focusNone
			return m, nil
		case key.Matches(msg, m.keys.Save):
			m.ctrl.SetNotes(m.notesArea.Value())
			m.notesArea.Blur()
			m.focus = focusNone
			if m.ctrl.State() == session.Finished {
				m.busy = true
				return m, m.saveSessionNotesCmd(m.ctrl)
			}
			return m, nil
		}

	case focusHistoryNotes:
		switch {
		case msg.String() == "esc":
			m.hist.CancelEdit()
			m.histArea.Blur()
			m.focus = focusNone
			return m, nil
		case key.Matches(msg, m.keys.Save):
			if m.busy {
				return m, nil
			}
			m.hist.SetBuffer(m.histArea.Value())
			m.busy = true
			return m, m.saveHistoryNotesCmd(m.hist)
		}
	}
	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused input.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusEntry:
		m.entryInputs[m.entryField], cmd = m.entryInputs[m.entryField].Update(msg)
	case focusSessionNotes:
		m.notesArea, cmd = m.notesArea.Update(msg)
	case focusHistoryNotes:
		m.histArea, cmd = m.histArea.Update(msg)
		m.hist.SetBuffer(m.histArea.Value())
	}
	return m, cmd
}

func (m Model) elapsed() string {
	if m.ctrl == nil {
		return session.FormatElapsed(0)
	}
	return session.FormatElapsed(m.ctrl.ElapsedSeconds())
}

func (m Model) errorLine(err error) string {
	return ErrorStyle.Render(fmt.Sprintf("Something went wrong: %v", err))
}
