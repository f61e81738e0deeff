package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about all stored workouts.
type DataStats struct {
	TotalWorkouts    int64          `json:"total_workouts"`
	TotalExercises   int64          `json:"total_exercises"`
	LowConfidence    int64          `json:"low_confidence"`
	EarliestWorkout  *time.Time     `json:"earliest_workout"`
	LatestWorkout    *time.Time     `json:"latest_workout"`
	WorkoutsBySource []SourceStat   `json:"workouts_by_source"`
	TopExercises     []ExerciseStat `json:"top_exercises"`
}

// SourceStat counts workouts from one ingest source.
type SourceStat struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// ExerciseStat counts how many workouts include a canonical exercise.
type ExerciseStat struct {
	Name     string `json:"name"`
	Workouts int64  `json:"workouts"`
}

// GetDataStats returns aggregate statistics with the top most frequent
// canonical exercises.
func (db *DB) GetDataStats(ctx context.Context, top int) (*DataStats, error) {
	stats := &DataStats{WorkoutsBySource: []SourceStat{}, TopExercises: []ExerciseStat{}}

	// Totals and date range
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(exercise_count), 0), COALESCE(SUM(low_confidence), 0),
		        MIN(COALESCE(performed_at, created_at)), MAX(COALESCE(performed_at, created_at))
		 FROM workouts`,
	).Scan(&stats.TotalWorkouts, &stats.TotalExercises, &stats.LowConfidence,
		&stats.EarliestWorkout, &stats.LatestWorkout)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}

	// Workouts by source
	rows, err := db.Pool.Query(ctx,
		`SELECT source, COUNT(*) FROM workouts GROUP BY source ORDER BY COUNT(*) DESC, source`)
	if err != nil {
		return nil, fmt.Errorf("querying workouts by source: %w", err)
	}
	for rows.Next() {
		var s SourceStat
		if err := rows.Scan(&s.Source, &s.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning source stat: %w", err)
		}
		stats.WorkoutsBySource = append(stats.WorkoutsBySource, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Most frequent exercises
	rows, err = db.Pool.Query(ctx,
		`SELECT canonical, COUNT(DISTINCT workout_id)
		 FROM workout_exercises
		 WHERE canonical <> ''
		 GROUP BY canonical
		 ORDER BY COUNT(DISTINCT workout_id) DESC, canonical
		 LIMIT $1`, top)
	if err != nil {
		return nil, fmt.Errorf("querying top exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ExerciseStat
		if err := rows.Scan(&s.Name, &s.Workouts); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.TopExercises = append(stats.TopExercises, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
