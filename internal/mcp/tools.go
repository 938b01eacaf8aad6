package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/workoutvault/internal/history"
	"github.com/meltforce/workoutvault/internal/models"
)

const maxHistoryLimit = 50

func requireID(req mcp.CallToolRequest, key string) (uuid.UUID, error) {
	s, err := req.RequireString(key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s parameter is required", key)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a UUID", key)
	}
	return id, nil
}

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List all workout templates, newest first. Each entry includes style, estimated duration, and a one-line summary."),
)

var toolGetWorkoutExercises = mcp.NewTool("get_workout_exercises",
	mcp.WithDescription("List the exercises of a workout in order, with sets, reps, time, rest, and load prescription."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout ID (UUID) from list_workouts")),
)

var toolGetSessionHistory = mcp.NewTool("get_session_history",
	mcp.WithDescription("Completed sessions of a workout, most recent first, with their duration in minutes and notes. Sessions still in progress are excluded."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout ID (UUID)")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions (1-50). Defaults to 10.")),
)

var toolGetSessionLoads = mcp.NewTool("get_session_loads",
	mcp.WithDescription("Loads recorded in one session, per exercise in workout order: load used, reps completed, and notes."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID (UUID) from get_session_history")),
)

var toolGetPreviousLoads = mcp.NewTool("get_previous_loads",
	mcp.WithDescription("The most recent completed session of a workout and the loads recorded in it. Useful to suggest what to lift next time."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout ID (UUID)")),
)

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workouts, err := h.ds.ListWorkouts(ctx)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := make([]workoutSummary, 0, len(workouts))
	for _, w := range workouts {
		out = append(out, summarizeWorkout(w))
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "workout_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	exercises, err := h.ds.ListExercises(ctx, id)
	if err != nil {
		h.log.Error("mcp get_workout_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(summarizeExercises(exercises))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

type sessionSummary struct {
	models.WorkoutSession
	DurationMinutes int `json:"duration_minutes"`
}

func (h *handlers) getSessionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "workout_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", history.Limit)
	if limit < 1 || limit > maxHistoryLimit {
		return mcp.NewToolResultError("limit must be between 1 and 50"), nil
	}

	sessions, err := h.ds.CompletedSessions(ctx, id, limit)
	if err != nil {
		h.log.Error("mcp get_session_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		if s.Active() {
			continue
		}
		out = append(out, sessionSummary{WorkoutSession: s, DurationMinutes: history.DurationMinutes(s)})
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionLoads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	loads, err := h.ds.SessionLoadDetails(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session_loads", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if loads == nil {
		loads = []models.LoadDetail{}
	}

	result, err := mcp.NewToolResultJSON(loads)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPreviousLoads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "workout_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	last, err := h.ds.LatestCompletedSession(ctx, id)
	if err != nil {
		h.log.Error("mcp get_previous_loads", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	loads := []models.LoadDetail{}
	if last != nil {
		details, err := h.ds.SessionLoadDetails(ctx, last.ID)
		if err != nil {
			h.log.Error("mcp get_previous_loads loads", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		if details != nil {
			loads = details
		}
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"session": last,
		"loads":   loads,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
