package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/workoutvault/internal/models"
)

type fakeSource struct {
	workouts  []models.Workout
	exercises map[uuid.UUID][]models.WorkoutExercise
	sessions  map[uuid.UUID][]models.WorkoutSession
	loads     map[uuid.UUID][]models.LoadDetail
	err       error
	gotLimit  int
}

func (f *fakeSource) ListWorkouts(context.Context) ([]models.Workout, error) {
	return f.workouts, f.err
}

func (f *fakeSource) ListExercises(_ context.Context, id uuid.UUID) ([]models.WorkoutExercise, error) {
	return f.exercises[id], f.err
}

func (f *fakeSource) CompletedSessions(_ context.Context, id uuid.UUID, limit int) ([]models.WorkoutSession, error) {
	f.gotLimit = limit
	return f.sessions[id], f.err
}

func (f *fakeSource) LatestCompletedSession(_ context.Context, id uuid.UUID) (*models.WorkoutSession, error) {
	if f.err != nil || len(f.sessions[id]) == 0 {
		return nil, f.err
	}
	s := f.sessions[id][0]
	return &s, nil
}

func (f *fakeSource) SessionLoadDetails(_ context.Context, id uuid.UUID) ([]models.LoadDetail, error) {
	return f.loads[id], f.err
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callReq(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func intp(n int) *int { return &n }

// TestGetWorkoutExercisesPrescription verifies exercises are returned with a
// formatted prescription.
func TestGetWorkoutExercisesPrescription(t *testing.T) {
	workoutID := uuid.New()
	ds := &fakeSource{exercises: map[uuid.UUID][]models.WorkoutExercise{
		workoutID: {{ID: uuid.New(), WorkoutID: workoutID, Position: 1, ExerciseName: "Squat", Sets: intp(3), Reps: intp(10)}},
	}}

	res, err := newHandlers(ds).getWorkoutExercises(context.Background(), callReq(map[string]any{"workout_id": workoutID.String()}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	var got []exerciseSummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Prescription != "3 sets × 10 reps" {
		t.Errorf("exercises = %+v", got)
	}
}

// TestToolRejectsBadID verifies malformed and missing ids are tool errors,
// not protocol errors.
func TestToolRejectsBadID(t *testing.T) {
	h := newHandlers(&fakeSource{})
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing", map[string]any{}, "required"},
		{"malformed", map[string]any{"workout_id": "abc"}, "UUID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.getPreviousLoads(context.Background(), callReq(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Fatal("expected tool error")
			}
			if text := resultText(t, res); !strings.Contains(text, tt.want) {
				t.Errorf("error = %q, want it to mention %q", text, tt.want)
			}
		})
	}
}

// TestGetSessionHistory verifies the limit default, the limit bound, and
// the duration of each session.
func TestGetSessionHistory(t *testing.T) {
	workoutID := uuid.New()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(45*time.Minute + 59*time.Second)
	ds := &fakeSource{sessions: map[uuid.UUID][]models.WorkoutSession{
		workoutID: {{ID: uuid.New(), WorkoutID: workoutID, StartedAt: start, EndedAt: &end}},
	}}
	h := newHandlers(ds)

	res, err := h.getSessionHistory(context.Background(), callReq(map[string]any{"workout_id": workoutID.String()}))
	if err != nil {
		t.Fatal(err)
	}
	if ds.gotLimit != 10 {
		t.Errorf("limit = %d, want 10", ds.gotLimit)
	}
	var got []sessionSummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].DurationMinutes != 45 {
		t.Errorf("history = %+v", got)
	}

	res, err = h.getSessionHistory(context.Background(), callReq(map[string]any{
		"workout_id": workoutID.String(),
		"limit":      float64(51),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("limit 51 should be rejected")
	}
}

// TestGetPreviousLoads verifies the latest session is returned with its
// loads, and an empty list when there is no history.
func TestGetPreviousLoads(t *testing.T) {
	workoutID := uuid.New()
	sessionID := uuid.New()
	end := time.Now()
	load := "135 lbs"
	ds := &fakeSource{
		sessions: map[uuid.UUID][]models.WorkoutSession{
			workoutID: {{ID: sessionID, WorkoutID: workoutID, StartedAt: end.Add(-time.Hour), EndedAt: &end}},
		},
		loads: map[uuid.UUID][]models.LoadDetail{
			sessionID: {{SessionExerciseLoad: models.SessionExerciseLoad{SessionID: sessionID, LoadUsed: &load}, ExerciseName: "Squat", Position: 1}},
		},
	}
	h := newHandlers(ds)

	res, err := h.getPreviousLoads(context.Background(), callReq(map[string]any{"workout_id": workoutID.String()}))
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Session *models.WorkoutSession `json:"session"`
		Loads   []models.LoadDetail    `json:"loads"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Session == nil || got.Session.ID != sessionID {
		t.Errorf("session = %+v", got.Session)
	}
	if len(got.Loads) != 1 || *got.Loads[0].LoadUsed != "135 lbs" {
		t.Errorf("loads = %+v", got.Loads)
	}

	res, err = h.getPreviousLoads(context.Background(), callReq(map[string]any{"workout_id": uuid.NewString()}))
	if err != nil {
		t.Fatal(err)
	}
	if text := strings.TrimSpace(resultText(t, res)); text != `{"loads":[],"session":null}` {
		t.Errorf("empty result = %s", text)
	}
}

// TestQueryFailureIsToolError verifies store errors become tool errors.
func TestQueryFailureIsToolError(t *testing.T) {
	h := newHandlers(&fakeSource{err: errors.New("connection refused")})
	res, err := h.listWorkouts(context.Background(), callReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "connection refused") {
		t.Errorf("result = %+v", res)
	}
}

// TestCatalogResource verifies the catalog resource nests exercises under
// each workout.
func TestCatalogResource(t *testing.T) {
	workoutID := uuid.New()
	style := "Strength"
	ds := &fakeSource{
		workouts: []models.Workout{{ID: workoutID, Name: "Legs", Style: &style}},
		exercises: map[uuid.UUID][]models.WorkoutExercise{
			workoutID: {{ID: uuid.New(), WorkoutID: workoutID, Position: 1, ExerciseName: "Lunge"}},
		},
	}

	var req mcp.ReadResourceRequest
	req.Params.URI = "workoutvault://catalog"
	contents, err := newHandlers(ds).catalog(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents type = %T", contents[0])
	}
	var got []catalogWorkout
	if err := json.Unmarshal([]byte(text.Text), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Summary != "Strength" || len(got[0].Exercises) != 1 {
		t.Errorf("catalog = %+v", got)
	}
}
