package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/workoutvault/internal/models"
)

// HTTPClient implements DataSource by calling the workoutvault REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the workoutvault server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, dest any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	var workouts []models.Workout
	if err := c.get(ctx, "/api/v1/workouts", nil, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error) {
	var exercises []models.WorkoutExercise
	if err := c.get(ctx, "/api/v1/workouts/"+workoutID.String()+"/exercises", nil, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (c *HTTPClient) CompletedSessions(ctx context.Context, workoutID uuid.UUID, limit int) ([]models.WorkoutSession, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var sessions []models.WorkoutSession
	if err := c.get(ctx, "/api/v1/workouts/"+workoutID.String()+"/sessions", params, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) LatestCompletedSession(ctx context.Context, workoutID uuid.UUID) (*models.WorkoutSession, error) {
	var resp struct {
		Session *models.WorkoutSession `json:"session"`
	}
	if err := c.get(ctx, "/api/v1/workouts/"+workoutID.String()+"/previous-loads", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

func (c *HTTPClient) SessionLoadDetails(ctx context.Context, sessionID uuid.UUID) ([]models.LoadDetail, error) {
	var loads []models.LoadDetail
	if err := c.get(ctx, "/api/v1/sessions/"+sessionID.String()+"/loads", nil, &loads); err != nil {
		return nil, err
	}
	return loads, nil
}
