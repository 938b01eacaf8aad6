package catalog

import (
	"fmt"
	"strings"

	"github.com/meltforce/workoutvault/internal/models"
)

// Prescription summarizes what an exercise asks for, e.g.
// "3 sets × 10 reps • 60s rest • 70% 1RM". Unset fields are omitted.
func Prescription(e models.WorkoutExercise) string {
	var volume []string
	if e.Sets != nil {
		volume = append(volume, plural(*e.Sets, "set"))
	}
	if e.Reps != nil {
		volume = append(volume, plural(*e.Reps, "rep"))
	}

	var parts []string
	if len(volume) > 0 {
		parts = append(parts, strings.Join(volume, " × "))
	}
	if e.TimeSeconds != nil {
		parts = append(parts, fmt.Sprintf("%ds", *e.TimeSeconds))
	}
	if e.RestSeconds != nil {
		parts = append(parts, fmt.Sprintf("%ds rest", *e.RestSeconds))
	}
	if e.LoadPrescription != nil && strings.TrimSpace(*e.LoadPrescription) != "" {
		parts = append(parts, *e.LoadPrescription)
	}
	return strings.Join(parts, " • ")
}

// Meta summarizes a workout card: style tag and estimated duration.
func Meta(w models.Workout) string {
	var parts []string
	if w.Style != nil && *w.Style != "" {
		parts = append(parts, *w.Style)
	}
	if w.EstDurationMinutes != nil {
		parts = append(parts, fmt.Sprintf("%d min", *w.EstDurationMinutes))
	}
	return strings.Join(parts, " • ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
