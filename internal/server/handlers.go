package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/history"
	"github.com/meltforce/workoutvault/internal/models"
	"github.com/meltforce/workoutvault/internal/session"
)

const maxHistoryLimit = 50

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.store.ListWorkouts(r.Context())
	if err != nil {
		s.storeError(w, "list workouts", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(workouts))
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "workout")
	if !ok {
		return
	}
	workout, err := s.store.GetWorkout(r.Context(), id)
	if err != nil {
		s.storeError(w, "get workout", err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "workout")
	if !ok {
		return
	}
	exercises, err := s.store.ListExercises(r.Context(), id)
	if err != nil {
		s.storeError(w, "list exercises", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(exercises))
}

// sessionSummary is a completed session with its computed duration.
type sessionSummary struct {
	models.WorkoutSession
	DurationMinutes int `json:"duration_minutes"`
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "workout")
	if !ok {
		return
	}
	limit := history.Limit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 50"})
			return
		}
		limit = n
	}

	sessions, err := s.store.CompletedSessions(r.Context(), id, limit)
	if err != nil {
		s.storeError(w, "session history", err)
		return
	}
	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionSummary{WorkoutSession: sess, DurationMinutes: history.DurationMinutes(sess)})
	}
	writeJSON(w, http.StatusOK, out)
}

// previousLoads is the "last time" reference of a workout.
type previousLoads struct {
	Session *models.WorkoutSession       `json:"session"`
	Loads   []models.SessionExerciseLoad `json:"loads"`
}

func (s *Server) handlePreviousLoads(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "workout")
	if !ok {
		return
	}
	last, err := s.store.LatestCompletedSession(r.Context(), id)
	if err != nil {
		s.storeError(w, "latest session", err)
		return
	}
	resp := previousLoads{Session: last, Loads: []models.SessionExerciseLoad{}}
	if last != nil {
		loads, err := s.store.SessionLoads(r.Context(), last.ID)
		if err != nil {
			s.storeError(w, "previous loads", err)
			return
		}
		resp.Loads = nonNil(loads)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := pathID(w, r, "workout")
	if !ok {
		return
	}
	if _, err := s.store.GetWorkout(r.Context(), workoutID); err != nil {
		s.storeError(w, "get workout", err)
		return
	}

	sess, err := s.store.StartSession(r.Context(), models.NewSession{
		WorkoutID: workoutID,
		UserID:    actorFromContext(r),
		StartedAt: time.Now(),
	})
	if err != nil {
		s.storeError(w, "start session", err)
		return
	}
	if s.metrics != nil {
		s.metrics.CounterSessionsStarted.Inc()
	}
	s.log.Info("session started", "session_id", sess.ID, "workout_id", workoutID)
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.storeError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// finishEntry is the form input of one exercise, as typed by the user.
type finishEntry struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	Load       string    `json:"load"`
	Reps       string    `json:"reps"`
	Notes      string    `json:"notes"`
}

type finishRequest struct {
	Notes   string        `json:"notes"`
	Entries []finishEntry `json:"entries"`
}

type finishResponse struct {
	SessionID     uuid.UUID `json:"session_id"`
	EndedAt       time.Time `json:"ended_at"`
	LoadsRecorded int64     `json:"loads_recorded"`
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	var req finishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.storeError(w, "get session", err)
		return
	}
	if !sess.Active() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": models.ErrSessionClosed.Error()})
		return
	}
	exercises, err := s.store.ListExercises(r.Context(), sess.WorkoutID)
	if err != nil {
		s.storeError(w, "list exercises", err)
		return
	}

	known := make(map[uuid.UUID]bool, len(exercises))
	for _, ex := range exercises {
		known[ex.ID] = true
	}
	entries := make(map[uuid.UUID]session.Entry, len(req.Entries))
	for _, e := range req.Entries {
		if !known[e.ExerciseID] {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise " + e.ExerciseID.String() + " does not belong to this workout"})
			return
		}
		entries[e.ExerciseID] = session.Entry{Load: e.Load, Reps: e.Reps, Notes: e.Notes}
	}
	loads := session.BuildLoads(exercises, entries)

	endedAt := time.Now()
	n, err := s.store.FinishSession(r.Context(), models.SessionFinish{
		SessionID: id,
		EndedAt:   endedAt,
		Notes:     models.NonBlank(req.Notes),
		Loads:     loads,
	})
	if err != nil {
		s.storeError(w, "finish session", err)
		return
	}
	if s.metrics != nil {
		s.metrics.CounterSessionsClosed.Inc()
		s.metrics.CounterLoadsRecorded.Add(float64(n))
	}
	s.log.Info("session finished", "session_id", id, "loads", n)
	writeJSON(w, http.StatusOK, finishResponse{SessionID: id, EndedAt: endedAt, LoadsRecorded: n})
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

func (s *Server) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	var req notesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	var notes *string
	if req.Notes != nil {
		notes = models.NonBlank(*req.Notes)
	}
	if err := s.store.UpdateSessionNotes(r.Context(), id, notes); err != nil {
		s.storeError(w, "update notes", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionLoads(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	loads, err := s.store.SessionLoadDetails(r.Context(), id)
	if err != nil {
		s.storeError(w, "session loads", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(loads))
}

// storeError maps store failures to HTTP statuses.
func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, models.ErrSessionClosed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrForeignExercise):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error(op, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func pathID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
