package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the wodscribe REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// workouts live on the remote server (accessed over Tailscale).
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

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, body io.Reader, contentType string) ([]byte, int, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("httpclient: read body: %w", err)
	}
	return data, resp.StatusCode, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, status, err := c.do(ctx, http.MethodGet, path, params, nil, "")
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, status, body)
	}
	return body, nil
}

// InsertWorkout sends the workout's raw text to the server, which parses and
// stores it with its own lexicon.
func (c *HTTPClient) InsertWorkout(ctx context.Context, _ *models.Workout, meta models.WorkoutMeta) (uuid.UUID, bool, error) {
	if meta.RawText == "" {
		return uuid.Nil, false, fmt.Errorf("httpclient: raw text is required")
	}
	payload, err := json.Marshal(map[string]any{
		"text":         meta.RawText,
		"performed_at": meta.PerformedAt,
	})
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("httpclient: encode workout: %w", err)
	}

	body, status, err := c.do(ctx, http.MethodPost, "/api/v1/workouts", nil, bytes.NewReader(payload), "application/json")
	if err != nil {
		return uuid.Nil, false, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return uuid.Nil, false, fmt.Errorf("httpclient: /api/v1/workouts returned %d: %s", status, body)
	}

	var resp struct {
		ID      uuid.UUID `json:"id"`
		Created bool      `json:"created"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return uuid.Nil, false, fmt.Errorf("httpclient: decode workout response: %w", err)
	}
	return resp.ID, resp.Created, nil
}

func (c *HTTPClient) GetWorkout(ctx context.Context, id uuid.UUID) (*models.StoredWorkout, error) {
	body, err := c.get(ctx, "/api/v1/workouts/"+id.String(), nil)
	if err != nil {
		return nil, err
	}

	var sw models.StoredWorkout
	if err := json.Unmarshal(body, &sw); err != nil {
		return nil, fmt.Errorf("httpclient: decode workout: %w", err)
	}
	return &sw, nil
}

func (c *HTTPClient) QueryWorkouts(ctx context.Context, f storage.WorkoutFilter) ([]models.WorkoutRow, error) {
	params := url.Values{}
	if !f.Start.IsZero() {
		params.Set("start", f.Start.Format(time.RFC3339))
	}
	if !f.End.IsZero() {
		params.Set("end", f.End.Format(time.RFC3339))
	}
	if f.Title != "" {
		params.Set("title", f.Title)
	}
	if f.Exercise != "" {
		params.Set("exercise", f.Exercise)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}

	body, err := c.get(ctx, "/api/v1/workouts", params)
	if err != nil {
		return nil, err
	}

	var workouts []models.WorkoutRow
	if err := json.Unmarshal(body, &workouts); err != nil {
		return nil, fmt.Errorf("httpclient: decode workouts: %w", err)
	}
	return workouts, nil
}

func (c *HTTPClient) GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error) {
	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))
	params.Set("bucket", bucket)

	body, err := c.get(ctx, "/api/v1/summary", params)
	if err != nil {
		return nil, err
	}
	var periods []storage.TrainingSummaryPeriod
	if err := json.Unmarshal(body, &periods); err != nil {
		return nil, fmt.Errorf("httpclient: decode summary: %w", err)
	}
	return periods, nil
}

func (c *HTTPClient) GetExerciseProgression(ctx context.Context, canonical string, start, end time.Time) ([]storage.ExerciseProgression, error) {
	params := url.Values{}
	params.Set("exercise", canonical)
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))

	body, err := c.get(ctx, "/api/v1/progression", params)
	if err != nil {
		return nil, err
	}
	var entries []storage.ExerciseProgression
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("httpclient: decode progression: %w", err)
	}
	return entries, nil
}

func (c *HTTPClient) GetDataStats(ctx context.Context, top int) (*storage.DataStats, error) {
	params := url.Values{}
	params.Set("top", strconv.Itoa(top))

	body, err := c.get(ctx, "/api/v1/stats", params)
	if err != nil {
		return nil, err
	}
	var stats storage.DataStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("httpclient: decode stats: %w", err)
	}
	return &stats, nil
}
