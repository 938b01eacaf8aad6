package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/metrics"
	"github.com/meltforce/workoutvault/internal/models"
)

// Store is the workout data the API exposes. *storage.DB and *rest.Client
// both satisfy it.
type Store interface {
	ListWorkouts(ctx context.Context) ([]models.Workout, error)
	GetWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error)
	ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error)
	StartSession(ctx context.Context, s models.NewSession) (*models.WorkoutSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.WorkoutSession, error)
	LatestCompletedSession(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutSession, error)
	CompletedSessions(ctx context.Context, workoutID uuid.UUID, limit int) ([]models.WorkoutSession, error)
	UpdateSessionNotes(ctx context.Context, sessionID uuid.UUID, notes *string) error
	FinishSession(ctx context.Context, f models.SessionFinish) (int64, error)
	SessionLoads(ctx context.Context, sessionID uuid.UUID) ([]models.SessionExerciseLoad, error)
	SessionLoadDetails(ctx context.Context, sessionID uuid.UUID) ([]models.LoadDetail, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        Store
	log          *slog.Logger
	apiKey       string
	metrics      *metrics.Manager
	defaultActor uuid.UUID
	whois        WhoIser
	router       chi.Router
}

// New creates a new Server with all routes configured. m may be nil.
func New(store Store, apiKey string, m *metrics.Manager, log *slog.Logger) *Server {
	s := &Server{
		store:   store,
		log:     log,
		apiKey:  apiKey,
		metrics: m,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(PanicRecovery(s.log, s.metrics))
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Reads are open; the listener (tailnet or localhost) limits access.
		r.Get("/me", s.handleMe)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Get("/workouts/{id}/exercises", s.handleListExercises)
		r.Get("/workouts/{id}/sessions", s.handleSessionHistory)
		r.Get("/workouts/{id}/previous-loads", s.handlePreviousLoads)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/sessions/{id}/loads", s.handleSessionLoads)

		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/workouts/{id}/sessions", s.handleStartSession)
			r.Post("/sessions/{id}/finish", s.handleFinishSession)
			r.Patch("/sessions/{id}/notes", s.handleUpdateNotes)
		})
	})
}

// SetDefaultActor sets the actor used when a request carries no identity.
func (s *Server) SetDefaultActor(id uuid.UUID) {
	s.defaultActor = id
}

// SetTailscale makes the server derive actors from tailnet identities.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// SetMetricsHandler exposes the metrics registry at /metrics.
func (s *Server) SetMetricsHandler(h http.Handler) {
	s.router.Handle("/metrics", h)
}

// SetMCP mounts the MCP streamable HTTP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Mount("/mcp", h)
}

// SetFrontend mounts a static SPA filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		// Try to serve the exact file first
		f, err := webFS.Open(r.URL.Path[1:]) // strip leading /
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		// Fallback to index.html for SPA routing
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
