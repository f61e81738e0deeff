// Package storagetest provides an in-memory stand-in for storage.DB.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/storage"
	"github.com/google/uuid"
)

// Store keeps workouts and parse logs in memory. It follows the same
// validation and deduplication rules as storage.DB.
type Store struct {
	mu       sync.Mutex
	workouts map[uuid.UUID]*models.StoredWorkout
	byHash   map[string]uuid.UUID
	logs     []storage.ParseLog

	// Err, when set, is returned by InsertWorkout.
	Err error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		workouts: make(map[uuid.UUID]*models.StoredWorkout),
		byHash:   make(map[string]uuid.UUID),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) InsertWorkout(_ context.Context, w *models.Workout, meta models.WorkoutMeta) (uuid.UUID, bool, error) {
	if err := models.Validate(w); err != nil {
		return uuid.Nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return uuid.Nil, false, s.Err
	}
	if meta.SourceHash == "" {
		return uuid.Nil, false, fmt.Errorf("inserting workout: source hash is required")
	}
	if id, ok := s.byHash[meta.SourceHash]; ok {
		return id, false, nil
	}
	id := uuid.New()
	s.workouts[id] = &models.StoredWorkout{
		WorkoutRow: models.WorkoutRow{
			ID:            id,
			Title:         w.Title,
			Source:        meta.Source,
			SourceHash:    meta.SourceHash,
			RawText:       meta.RawText,
			PerformedAt:   meta.PerformedAt,
			CreatedAt:     time.Now(),
			BlockCount:    len(w.Blocks),
			ExerciseCount: w.ExerciseCount(),
			LowConfidence: w.LowConfidenceCount(),
		},
		Workout: w,
	}
	s.byHash[meta.SourceHash] = id
	return id, true, nil
}

func (s *Store) GetWorkout(_ context.Context, id uuid.UUID) (*models.StoredWorkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sw, ok := s.workouts[id]
	if !ok {
		return nil, fmt.Errorf("workout %s: %w", id, storage.ErrNotFound)
	}
	return sw, nil
}

func (s *Store) QueryWorkouts(_ context.Context, f storage.WorkoutFilter) ([]models.WorkoutRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []models.WorkoutRow{}
	for _, sw := range s.workouts {
		at := sw.CreatedAt
		if sw.PerformedAt != nil {
			at = *sw.PerformedAt
		}
		if !f.Start.IsZero() && at.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && !at.Before(f.End) {
			continue
		}
		if f.Title != "" && !strings.Contains(strings.ToLower(sw.Title), strings.ToLower(f.Title)) {
			continue
		}
		if f.Exercise != "" && !hasExercise(sw.Workout, f.Exercise) {
			continue
		}
		result = append(result, sw.WorkoutRow)
	}
	sort.Slice(result, func(i, j int) bool { return performed(result[i]).After(performed(result[j])) })
	limit := f.Limit
	if limit <= 0 {
		limit = storage.DefaultWorkoutLimit
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) DeleteWorkout(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sw, ok := s.workouts[id]
	if !ok {
		return fmt.Errorf("workout %s: %w", id, storage.ErrNotFound)
	}
	delete(s.byHash, sw.SourceHash)
	delete(s.workouts, id)
	return nil
}

func (s *Store) InsertParseLog(_ context.Context, log storage.ParseLog) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.ID = int64(len(s.logs) + 1)
	log.CreatedAt = time.Now()
	s.logs = append(s.logs, log)
	return log.ID, nil
}

func (s *Store) UpdateParseLog(_ context.Context, id int64, log storage.ParseLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || int(id) > len(s.logs) {
		return fmt.Errorf("parse log %d: %w", id, storage.ErrNotFound)
	}
	log.ID = id
	log.CreatedAt = s.logs[id-1].CreatedAt
	s.logs[id-1] = log
	return nil
}

func (s *Store) QueryParseLogs(_ context.Context, limit int) ([]storage.ParseLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []storage.ParseLog{}
	for i := len(s.logs) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		result = append(result, s.logs[i])
	}
	return result, nil
}

// Logs returns the parse logs in insertion order.
func (s *Store) Logs() []storage.ParseLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.ParseLog(nil), s.logs...)
}

// Len returns the number of stored workouts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workouts)
}

func hasExercise(w *models.Workout, canonical string) bool {
	for _, b := range w.Blocks {
		for _, ex := range b.Exercises() {
			if ex.Canonical == canonical {
				return true
			}
		}
	}
	return false
}

func performed(r models.WorkoutRow) time.Time {
	if r.PerformedAt != nil {
		return *r.PerformedAt
	}
	return r.CreatedAt
}
