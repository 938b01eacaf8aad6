package session

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/models"
)

// Entry is the transient form state for one exercise during a session.
// All fields hold raw user text; nothing is persisted until Finish.
type Entry struct {
	Load  string
	Reps  string
	Notes string
}

// IsEmpty reports whether the user entered nothing for the exercise.
func (e Entry) IsEmpty() bool {
	return blank(e.Load) && blank(e.Reps) && blank(e.Notes)
}

// RepsValue parses the reps text. Empty or non-integer input yields nil.
func (e Entry) RepsValue() *int {
	n, err := strconv.Atoi(strings.TrimSpace(e.Reps))
	if err != nil {
		return nil
	}
	return &n
}

// BuildLoads turns the per-exercise entries into load records, in exercise
// position order. Empty entries and entries for exercises outside the list
// produce nothing.
func BuildLoads(exercises []models.WorkoutExercise, entries map[uuid.UUID]Entry) []models.NewLoad {
	ordered := make([]models.WorkoutExercise, len(exercises))
	copy(ordered, exercises)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	var loads []models.NewLoad
	for _, ex := range ordered {
		e, ok := entries[ex.ID]
		if !ok || e.IsEmpty() {
			continue
		}
		loads = append(loads, models.NewLoad{
			WorkoutExerciseID: ex.ID,
			LoadUsed:          models.NonBlank(e.Load),
			RepsCompleted:     e.RepsValue(),
			Notes:             models.NonBlank(e.Notes),
		})
	}
	return loads
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
