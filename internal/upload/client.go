package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client sends workout notes to the wodscribe server over HTTP.
type Client struct {
	serverURL  string
	httpClient *http.Client

	// Attempts and Backoff control retries; the wait doubles after each
	// failed attempt.
	Attempts int
	Backoff  time.Duration
}

// NewClient creates a new HTTP client for the wodscribe server.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		Attempts: 3,
		Backoff:  time.Second,
	}
}

// SendResult is the server's answer to a stored note.
type SendResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// permanentError marks a response that retrying cannot fix.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// SendWorkout POSTs a note's text to the server's workouts endpoint.
// Network errors, 429, and 5xx responses are retried with exponential
// backoff; other 4xx responses fail immediately.
func (c *Client) SendWorkout(ctx context.Context, text string, performedAt *time.Time) (*SendResult, error) {
	data, err := json.Marshal(map[string]any{
		"text":         text,
		"performed_at": performedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling workout: %w", err)
	}

	attempts := max(c.Attempts, 1)
	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			wait := c.Backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		res, err := c.post(ctx, data)
		if err == nil {
			return res, nil
		}
		if _, ok := err.(permanentError); ok {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func (c *Client) post(ctx context.Context, data []byte) (*SendResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/workouts", bytes.NewReader(data))
	if err != nil {
		return nil, permanentError{fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var res SendResult
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, permanentError{fmt.Errorf("decoding response: %w", err)}
		}
		return &res, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, body)
	default:
		return nil, permanentError{fmt.Errorf("upload rejected (status %d): %s", resp.StatusCode, body)}
	}
}
