package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/wodscribe/internal/ingest"
	"github.com/claude/wodscribe/internal/ingest/text"
	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/parse"
	"github.com/claude/wodscribe/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []models.FieldError `json:"fields,omitempty"`
}

// textRequest is the JSON form of a workout description. Plain-text bodies
// carry performed_at as a query parameter instead.
type textRequest struct {
	Text        string     `json:"text"`
	PerformedAt *time.Time `json:"performed_at,omitempty"`
}

type parseResponse struct {
	Workout *models.Workout    `json:"workout"`
	Lines   []parse.TaggedLine `json:"lines,omitempty"`
}

type createResponse struct {
	ID      uuid.UUID       `json:"id"`
	Created bool            `json:"created"`
	Workout *models.Workout `json:"workout"`
	Result  *ingest.Result  `json:"result"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStructures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Structures())
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	req, err := s.readTextRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	workout, err := s.parser.Parse(req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := parseResponse{Workout: workout}
	if r.URL.Query().Get("spans") == "true" {
		// Parse succeeded, so tagging the same text cannot fail.
		resp.Lines, _ = s.parser.Tag(req.Text)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	req, err := s.readTextRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, workout, err := s.text.IngestString(r.Context(), req.Text, text.Options{PerformedAt: req.PerformedAt})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := createResponse{
		ID:      result.WorkoutIDs[0],
		Created: result.Stored == 1,
		Workout: workout,
		Result:  result,
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleAlphaIngest(w http.ResponseWriter, r *http.Request) {
	result, err := s.alpha.Ingest(r.Context(), r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.writeError(w, err)
			return
		}
		s.log.Error("alpha ingest error", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQueryWorkouts(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	q := r.URL.Query()
	f := storage.WorkoutFilter{
		Start:    start,
		End:      end,
		Title:    q.Get("title"),
		Exercise: q.Get("exercise"),
		Limit:    parseLimit(r, storage.DefaultWorkoutLimit),
	}
	workouts, err := s.store.QueryWorkouts(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := workoutID(w, r)
	if !ok {
		return
	}
	detail, err := s.store.GetWorkout(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := workoutID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteWorkout(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleParseLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.QueryParseLogs(r.Context(), parseLimit(r, 50)) //nolint:mnd
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// readTextRequest accepts either a JSON textRequest or a plain-text body.
func (s *Server) readTextRequest(r *http.Request) (textRequest, error) {
	var req textRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return req, err
			}
			return req, badRequest("invalid JSON: " + err.Error())
		}
		return req, nil
	}

	body, err := ingest.ReadText(r.Body, s.parser.MaxInput())
	if err != nil {
		return req, err
	}
	req.Text = body
	if v := r.URL.Query().Get("performed_at"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return req, badRequest("invalid performed_at: " + err.Error())
		}
		req.PerformedAt = &t
	}
	return req, nil
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

// writeError maps pipeline and storage errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	var mbe *http.MaxBytesError
	var bad badRequest
	switch {
	case errors.Is(err, parse.ErrInputTooLarge), errors.As(err, &mbe):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("input exceeds %d characters", s.parser.MaxInput()),
		})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: verr.Errors})
	case errors.As(err, &bad):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "workout not found"})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func workoutID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid workout ID"})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseLimit(r *http.Request, def int) int {
	return parseIntParam(r, "limit", def)
}

func parseIntParam(r *http.Request, name string, def int) int {
	if l := r.URL.Query().Get(name); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// parseTimeRange reads optional start and end query parameters. A missing
// bound stays zero and is not applied.
func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = parseTime(v); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = parseTime(v); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
		}
		if len(v) == len(time.DateOnly) {
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return start, end, nil
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}
