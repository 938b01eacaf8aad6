package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/meltforce/workoutvault/internal/catalog"
	"github.com/meltforce/workoutvault/internal/history"
	"github.com/meltforce/workoutvault/internal/models"
	"github.com/meltforce/workoutvault/internal/session"
)

// View renders the model
func (m Model) View() string {
	if m.showHelp {
		return m.helpView()
	}

	var body string
	if m.screen == ScreenCatalog {
		body = m.catalogView()
	} else {
		body = m.detailView()
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(StatusBarStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(StatusBarStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) helpView() string {
	h := m.help
	h.ShowAll = true
	return TitleStyle.Render("Keys") + "\n\n" + h.View(m.keys) + "\n\n" + MutedStyle.Render("press any key to close")
}

func (m Model) catalogView() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Workouts"))
	b.WriteString("\n\n")

	if err := m.catalog.Err(); err != nil {
		b.WriteString(m.errorLine(err))
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render("Press r to try again."))
		return b.String()
	}
	if !m.catalog.Loaded() {
		b.WriteString(m.spinner.View() + " Loading workouts…")
		return b.String()
	}

	workouts := m.catalog.Workouts()
	if len(workouts) == 0 {
		b.WriteString(MutedStyle.Render("No workouts yet."))
		return b.String()
	}
	for i, w := range workouts {
		line := w.Name
		if meta := catalog.Meta(w); meta != "" {
			line += "  " + MutedStyle.Render(meta)
		}
		if i == m.cursor {
			b.WriteString(SelectedItemStyle.Render(line))
		} else {
			b.WriteString(ItemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) detailView() string {
	w := m.detail.Workout()

	var b strings.Builder
	b.WriteString(TitleStyle.Render(w.Name))
	if meta := catalog.Meta(w); meta != "" {
		b.WriteString("  " + SubtitleStyle.Render(meta))
	}
	b.WriteString("\n")
	if w.Description != nil && *w.Description != "" {
		b.WriteString(MutedStyle.Render(*w.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.tabBar())
	b.WriteString("\n")

	if err := m.detail.Err(); err != nil {
		b.WriteString(m.errorLine(err))
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render("Press r to try again."))
		return b.String()
	}
	if !m.detail.Loaded() {
		b.WriteString(m.spinner.View() + " Loading…")
		return b.String()
	}

	switch m.detail.Tab() {
	case catalog.TabExercises:
		b.WriteString(m.exercisesView())
	case catalog.TabSession:
		b.WriteString(m.sessionView())
	case catalog.TabHistory:
		b.WriteString(m.historyView())
	}
	return b.String()
}

func (m Model) tabBar() string {
	tabs := []catalog.Tab{catalog.TabExercises, catalog.TabSession, catalog.TabHistory}
	titles := map[catalog.Tab]string{
		catalog.TabExercises: "Exercises",
		catalog.TabSession:   "Session",
		catalog.TabHistory:   "History",
	}

	var rendered []string
	for _, t := range tabs {
		title := titles[t]
		if t == catalog.TabSession && m.ctrl != nil && m.ctrl.State() == session.InProgress {
			title += " " + LiveBadgeStyle.Render("● "+m.elapsed())
		}
		if t == m.detail.Tab() {
			rendered = append(rendered, ActiveTabStyle.Render(title))
		} else {
			rendered = append(rendered, TabStyle.Render(title))
		}
	}
	return TabBarStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
}

func (m Model) exercisesView() string {
	exercises := m.detail.Exercises()
	if len(exercises) == 0 {
		return MutedStyle.Render("This workout has no exercises.")
	}

	var b strings.Builder
	for _, e := range exercises {
		b.WriteString(fmt.Sprintf("%d. %s\n", e.Position, e.ExerciseName))
		if p := catalog.Prescription(e); p != "" {
			b.WriteString("   " + SubtitleStyle.Render(p) + "\n")
		}
		if e.Notes != nil && *e.Notes != "" {
			b.WriteString("   " + MutedStyle.Render(*e.Notes) + "\n")
		}
	}
	return b.String()
}

func (m Model) sessionView() string {
	if m.ctrl == nil {
		return m.spinner.View()
	}

	switch m.ctrl.State() {
	case session.NotStarted:
		if m.busy {
			return m.spinner.View() + " Starting session…"
		}
		return "Ready when you are.\n\n" + MutedStyle.Render("Press s to start a session.")

	case session.Finished:
		return m.finishedView()
	}

	var b strings.Builder
	b.WriteString(TimerStyle.Render(m.elapsed()))
	b.WriteString("\n\n")

	if !m.ctrl.Loaded() {
		b.WriteString(m.spinner.View() + " Loading exercises…\n")
		return b.String()
	}

	for i, e := range m.ctrl.Exercises() {
		b.WriteString(m.exerciseRow(i, e))
	}

	b.WriteString("\n")
	if m.focus == focusSessionNotes {
		b.WriteString(PanelStyle.Render(m.notesArea.View()))
	} else if notes := m.ctrl.Notes(); notes != "" {
		b.WriteString(MutedStyle.Render("Notes: " + notes))
	}
	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.spinner.View() + " Finishing…")
	} else {
		b.WriteString(MutedStyle.Render("enter: log exercise • n: notes • f: finish"))
	}
	return b.String()
}

func (m Model) exerciseRow(i int, e models.WorkoutExercise) string {
	var b strings.Builder
	name := fmt.Sprintf("%d. %s", e.Position, e.ExerciseName)
	if i == m.formCursor {
		b.WriteString(SelectedItemStyle.Render(name))
	} else {
		b.WriteString(ItemStyle.Render(name))
	}
	if p := catalog.Prescription(e); p != "" {
		b.WriteString("  " + SubtitleStyle.Render(p))
	}
	b.WriteString("\n")

	if last := m.ctrl.LastTime(e.ID); last != "" {
		b.WriteString("     " + LastTimeStyle.Render("Last time: "+last) + "\n")
	}

	if m.focus == focusEntry && m.entryExercise == e.ID {
		for _, in := range m.entryInputs {
			b.WriteString("     " + in.View() + "\n")
		}
		return b.String()
	}
	if entry := m.ctrl.Entry(e.ID); !entry.IsEmpty() {
		b.WriteString("     " + EntryStyle.Render(formatEntry(entry)) + "\n")
	}
	return b.String()
}

func formatEntry(e session.Entry) string {
	var parts []string
	if s := strings.TrimSpace(e.Load); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(e.Reps); s != "" {
		parts = append(parts, s+" reps")
	}
	if s := strings.TrimSpace(e.Notes); s != "" {
		parts = append(parts, s)
	}
	return "✓ " + strings.Join(parts, " • ")
}

func (m Model) finishedView() string {
	var b strings.Builder
	b.WriteString(CompleteStyle.Render("Session complete"))
	b.WriteString("  " + SubtitleStyle.Render(m.elapsed()))
	b.WriteString("\n\n")

	if m.focus == focusSessionNotes {
		b.WriteString(PanelStyle.Render(m.notesArea.View()))
	} else if notes := m.notesArea.Value(); notes != "" {
		b.WriteString(PanelStyle.Render(notes))
	} else {
		b.WriteString(MutedStyle.Render("No notes."))
	}
	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.spinner.View() + " Saving…")
	} else {
		b.WriteString(MutedStyle.Render("n: edit notes • ctrl+s: save notes • enter: done"))
	}
	return b.String()
}

func (m Model) historyView() string {
	if !m.hist.Loaded() {
		return m.spinner.View() + " Loading history…"
	}
	items := m.hist.Items()
	if len(items) == 0 {
		return MutedStyle.Render("No completed sessions yet.")
	}

	now := m.now()
	editing, isEditing := m.hist.Editing()

	var b strings.Builder
	for i, it := range items {
		s := it.Session
		line := fmt.Sprintf("%s · %s · %d min",
			history.FormatDate(s.StartedAt, now),
			history.FormatTime(s.StartedAt, now.Location()),
			it.DurationMinutes())
		if s.RPE != nil {
			line += fmt.Sprintf(" · RPE: %d/10", *s.RPE)
		}
		if i == m.histCursor {
			b.WriteString(SelectedItemStyle.Render(line))
		} else {
			b.WriteString(ItemStyle.Render(line))
		}
		b.WriteString("\n")

		switch {
		case isEditing && editing == s.ID:
			b.WriteString(PanelStyle.Render(m.histArea.View()))
			b.WriteString("\n")
			b.WriteString(MutedStyle.Render("   ctrl+s: save • esc: cancel"))
			b.WriteString("\n")
		case s.Notes != nil:
			b.WriteString("   " + MutedStyle.Render(*s.Notes) + "\n")
		}

		if it.Expanded {
			b.WriteString(loadsView(it.Loads))
		}
	}
	return b.String()
}

func loadsView(loads []models.LoadDetail) string {
	if len(loads) == 0 {
		return "   " + MutedStyle.Render("no loads recorded") + "\n"
	}
	var b strings.Builder
	for _, l := range loads {
		var parts []string
		if l.LoadUsed != nil {
			parts = append(parts, *l.LoadUsed)
		}
		if l.RepsCompleted != nil {
			parts = append(parts, fmt.Sprintf("%d reps", *l.RepsCompleted))
		}
		if l.Notes != nil {
			parts = append(parts, *l.Notes)
		}
		name := l.ExerciseName
		if name == "" {
			name = "(removed exercise)"
		}
		b.WriteString(fmt.Sprintf("   • %s: %s\n", name, strings.Join(parts, " • ")))
	}
	return b.String()
}
