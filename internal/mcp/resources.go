package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/workoutvault/internal/catalog"
	"github.com/meltforce/workoutvault/internal/models"
)

type catalogWorkout struct {
	workoutSummary
	Exercises []exerciseSummary `json:"exercises"`
}

func (h *handlers) catalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	workouts, err := h.ds.ListWorkouts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]catalogWorkout, 0, len(workouts))
	for _, w := range workouts {
		exercises, err := h.ds.ListExercises(ctx, w.ID)
		if err != nil {
			return nil, fmt.Errorf("exercises of %s: %w", w.ID, err)
		}
		out = append(out, catalogWorkout{
			workoutSummary: summarizeWorkout(w),
			Exercises:      summarizeExercises(exercises),
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

type workoutSummary struct {
	models.Workout
	Summary string `json:"summary"`
}

func summarizeWorkout(w models.Workout) workoutSummary {
	return workoutSummary{Workout: w, Summary: catalog.Meta(w)}
}

type exerciseSummary struct {
	models.WorkoutExercise
	Prescription string `json:"prescription"`
}

func summarizeExercises(exercises []models.WorkoutExercise) []exerciseSummary {
	out := make([]exerciseSummary, 0, len(exercises))
	for _, e := range exercises {
		out = append(out, exerciseSummary{WorkoutExercise: e, Prescription: catalog.Prescription(e)})
	}
	return out
}
