package history

import (
	"time"

	"github.com/meltforce/workoutvault/internal/models"
)

// DurationMinutes returns floor((ended - started) / 1m), or 0 for a session
// that has not ended.
func DurationMinutes(s models.WorkoutSession) int {
	if s.EndedAt == nil {
		return 0
	}
	d := s.EndedAt.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// FormatDate labels t relative to now: "Today", "Yesterday", "Jan 2" within
// the current year and "Jan 2, 2006" otherwise. Calendar dates are compared
// in now's location.
func FormatDate(t, now time.Time) string {
	t = t.In(now.Location())
	if sameDay(t, now) {
		return "Today"
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	if t.Year() != now.Year() {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("Jan 2")
}

// FormatTime renders the clock time, e.g. "3:04 PM".
func FormatTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("3:04 PM")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
