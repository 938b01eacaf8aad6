package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/meltforce/workoutvault/internal/models"
)

// ErrNotFound is returned when a filtered update matches nothing.
var ErrNotFound = models.ErrNotFound

// APIError is an error body returned by the table store.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("store: %s (status %d)", e.Message, e.Status)
}

// Client talks to a PostgREST-compatible table store (the REST surface of a
// Supabase project, or any PostgREST deployment over the same schema).
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewClient creates a Client for the store at baseURL, authenticating with key.
// Requests carry no client-side timeout; callers bound them through ctx.
func NewClient(baseURL, key string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/rest/v1",
		key:        key,
		httpClient: &http.Client{},
	}
}

// Select fetches rows of table matching q and decodes the JSON array into dest.
func (c *Client) Select(ctx context.Context, table string, q *Query, dest any) error {
	return c.do(ctx, http.MethodGet, "/"+table, q.Values(), nil, "", dest)
}

// Insert inserts one row (a struct or map) or a batch (a slice) into table.
// When dest is non-nil the stored rows are decoded into it.
func (c *Client) Insert(ctx context.Context, table string, rows any, dest any) error {
	prefer := "return=minimal"
	if dest != nil {
		prefer = "return=representation"
	}
	return c.do(ctx, http.MethodPost, "/"+table, nil, rows, prefer, dest)
}

// Update applies patch to every row of table matching q and returns how many
// rows were changed.
func (c *Client) Update(ctx context.Context, table string, q *Query, patch any) (int, error) {
	var changed []json.RawMessage
	params := q.Values()
	params.Set("select", "id")
	if err := c.do(ctx, http.MethodPatch, "/"+table, params, patch, "return=representation", &changed); err != nil {
		return 0, err
	}
	return len(changed), nil
}

// RPC calls a stored procedure with named arguments.
func (c *Client) RPC(ctx context.Context, fn string, args any, dest any) error {
	return c.do(ctx, http.MethodPost, "/rpc/"+fn, nil, args, "", dest)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, prefer string, dest any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rest: marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("rest: create request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rest: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("rest: read body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("rest: decode %s: %w", path, err)
	}
	return nil
}
