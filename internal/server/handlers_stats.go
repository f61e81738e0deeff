package server

import (
	"net/http"
	"time"
)

// defaultSummaryDays is the lookback used when /summary has no start.
const defaultSummaryDays = 90

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetDataStats(r.Context(), parseIntParam(r, "top", 10))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := boundedTimeRange(r, defaultSummaryDays)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	bucket := r.URL.Query().Get("bucket")
	switch bucket {
	case "":
		bucket = "week"
	case "week", "month":
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bucket must be week or month"})
		return
	}
	periods, err := s.store.GetTrainingSummary(r.Context(), start, end, bucket)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("exercise")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "exercise is required"})
		return
	}
	// Accept spellings as written in notes ("bench") as well as canonical names.
	if canonical, _, ok := s.parser.Lexicon().Canonicalize(name); ok {
		name = canonical
	}
	start, end, err := boundedTimeRange(r, 365) //nolint:mnd
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	entries, err := s.store.GetExerciseProgression(r.Context(), name, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// boundedTimeRange is parseTimeRange with defaults: end is now and start is
// days before end.
func boundedTimeRange(r *http.Request, days int) (time.Time, time.Time, error) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -days)
	}
	return start, end, nil
}
