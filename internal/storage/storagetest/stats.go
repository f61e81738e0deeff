package storagetest

import (
	"context"
	"sort"
	"time"

	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/storage"
)

func (s *Store) GetDataStats(_ context.Context, top int) (*storage.DataStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &storage.DataStats{WorkoutsBySource: []storage.SourceStat{}, TopExercises: []storage.ExerciseStat{}}
	bySource := map[string]int64{}
	byExercise := map[string]int64{}
	for _, sw := range s.workouts {
		stats.TotalWorkouts++
		stats.TotalExercises += int64(sw.ExerciseCount)
		stats.LowConfidence += int64(sw.LowConfidence)
		at := performed(sw.WorkoutRow)
		if stats.EarliestWorkout == nil || at.Before(*stats.EarliestWorkout) {
			stats.EarliestWorkout = &at
		}
		if stats.LatestWorkout == nil || at.After(*stats.LatestWorkout) {
			stats.LatestWorkout = &at
		}
		bySource[sw.Source]++
		seen := map[string]bool{}
		for _, b := range sw.Workout.Blocks {
			for _, ex := range b.Exercises() {
				if ex.Canonical != "" && !seen[ex.Canonical] {
					seen[ex.Canonical] = true
					byExercise[ex.Canonical]++
				}
			}
		}
	}
	for src, n := range bySource {
		stats.WorkoutsBySource = append(stats.WorkoutsBySource, storage.SourceStat{Source: src, Count: n})
	}
	sort.Slice(stats.WorkoutsBySource, func(i, j int) bool {
		a, b := stats.WorkoutsBySource[i], stats.WorkoutsBySource[j]
		return a.Count > b.Count || (a.Count == b.Count && a.Source < b.Source)
	})
	for name, n := range byExercise {
		stats.TopExercises = append(stats.TopExercises, storage.ExerciseStat{Name: name, Workouts: n})
	}
	sort.Slice(stats.TopExercises, func(i, j int) bool {
		a, b := stats.TopExercises[i], stats.TopExercises[j]
		return a.Workouts > b.Workouts || (a.Workouts == b.Workouts && a.Name < b.Name)
	})
	if top >= 0 && len(stats.TopExercises) > top {
		stats.TopExercises = stats.TopExercises[:top]
	}
	return stats, nil
}

func (s *Store) GetTrainingSummary(_ context.Context, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	periods := map[string]*storage.TrainingSummaryPeriod{}
	structures := map[string]map[models.Structure]int{}
	for _, sw := range s.workouts {
		at := performed(sw.WorkoutRow)
		if at.Before(start) || !at.Before(end) {
			continue
		}
		key := storage.PeriodStart(at, bucket).Format(time.DateOnly)
		p, ok := periods[key]
		if !ok {
			p = &storage.TrainingSummaryPeriod{Period: key, Structures: []storage.StructureCount{}}
			periods[key] = p
			structures[key] = map[models.Structure]int{}
		}
		p.Workouts++
		p.Exercises += sw.ExerciseCount
		for _, b := range sw.Workout.Blocks {
			structures[key][b.Structure()]++
			for _, ex := range b.Exercises() {
				sets, reps, kg := ex.Volume()
				p.Sets += sets
				p.Reps += reps
				p.TonnageKg += kg
			}
		}
	}

	result := make([]storage.TrainingSummaryPeriod, 0, len(periods))
	for key, p := range periods {
		for st, n := range structures[key] {
			p.Structures = append(p.Structures, storage.StructureCount{Structure: st, Blocks: n})
		}
		sort.Slice(p.Structures, func(i, j int) bool {
			a, b := p.Structures[i], p.Structures[j]
			return a.Blocks > b.Blocks || (a.Blocks == b.Blocks && a.Structure < b.Structure)
		})
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Period > result[j].Period })
	return result, nil
}

func (s *Store) GetExerciseProgression(_ context.Context, canonical string, start, end time.Time) ([]storage.ExerciseProgression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type entry struct {
		at time.Time
		p  storage.ExerciseProgression
	}
	var entries []entry
	for _, sw := range s.workouts {
		at := performed(sw.WorkoutRow)
		if at.Before(start) || !at.Before(end) {
			continue
		}
		p := storage.ExerciseProgression{WorkoutID: sw.ID, Date: at.Format(time.DateOnly), Title: sw.Title}
		found := false
		for _, b := range sw.Workout.Blocks {
			for _, ex := range b.Exercises() {
				if ex.Canonical != canonical {
					continue
				}
				found = true
				sets, reps, kg := ex.Volume()
				p.Sets += sets
				p.Reps += reps
				p.TonnageKg += kg
				if ex.Load != nil {
					if load, ok := ex.Load.Kilograms(); ok && (p.MaxLoadKg == nil || load > *p.MaxLoadKg) {
						p.MaxLoadKg = &load
					}
				}
			}
		}
		if found {
			entries = append(entries, entry{at: at, p: p})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].at.Equal(entries[j].at) {
			return entries[i].at.Before(entries[j].at)
		}
		return entries[i].p.WorkoutID.String() < entries[j].p.WorkoutID.String()
	})
	result := make([]storage.ExerciseProgression, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.p)
	}
	return result, nil
}
