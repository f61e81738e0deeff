package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastClient(url string) *Client {
	c := NewClient(url)
	c.Backoff = time.Millisecond
	return c
}

// TestSendWorkoutRetries verifies 5xx and 429 responses are retried until
// the server accepts the note.
func TestSendWorkoutRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["text"] != "Squat 5x5" {
				t.Errorf("body = %v (%v), want text", body, err)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"abc","created":true}`))
		}
	}))
	defer srv.Close()

	res, err := fastClient(srv.URL).SendWorkout(context.Background(), "Squat 5x5", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "abc" || !res.Created {
		t.Errorf("result = %+v, want abc created", res)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

// TestSendWorkoutNoRetryOnClientError verifies a 4xx fails on the first
// attempt.
func TestSendWorkoutNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"validation failed"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	if _, err := fastClient(srv.URL).SendWorkout(context.Background(), "x", nil); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

// TestSendWorkoutGivesUp verifies the client stops after its attempt budget.
func TestSendWorkoutGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := fastClient(srv.URL).SendWorkout(context.Background(), "x", nil); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

// TestSendWorkoutCancelledDuringBackoff verifies a cancelled context ends
// the retry wait.
func TestSendWorkoutCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.Backoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.SendWorkout(ctx, "x", nil)
	if err != context.DeadlineExceeded {
		t.Errorf("err = %v, want %v", err, context.DeadlineExceeded)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("backoff ignored cancellation")
	}
}
