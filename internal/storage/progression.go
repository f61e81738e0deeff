package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExerciseProgression holds one workout's prescription for an exercise.
// Multiple entries of the exercise in a workout are summed; MaxLoadKg is
// the heaviest absolute load and nil when none was given in kg or lb.
type ExerciseProgression struct {
	WorkoutID uuid.UUID `json:"workout_id"`
	Date      string    `json:"date"`
	Title     string    `json:"title"`
	Sets      int       `json:"sets"`
	Reps      int       `json:"reps"`
	MaxLoadKg *float64  `json:"max_load_kg,omitempty"`
	TonnageKg float64   `json:"tonnage_kg"`
}

// GetExerciseProgression returns the workouts containing the canonical
// exercise within [start, end), oldest first.
func (db *DB) GetExerciseProgression(ctx context.Context, canonical string, start, end time.Time) ([]ExerciseProgression, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT w.id, COALESCE(w.performed_at, w.created_at) AS at, w.title,
		        SUM(v.sets)::int, SUM(v.reps)::int, MAX(v.load_kg), COALESCE(SUM(v.tonnage), 0)
		 FROM workouts w
		 JOIN (
			SELECT e.workout_id,
			       CASE e.load_unit
			           WHEN 'kg' THEN e.load_magnitude
			           WHEN 'lb' THEN e.load_magnitude * 0.45359237
			       END AS load_kg, `+volumeSQL+`
			FROM workout_exercises e
			WHERE e.canonical = $1
		 ) v ON v.workout_id = w.id
		 WHERE COALESCE(w.performed_at, w.created_at) >= $2 AND COALESCE(w.performed_at, w.created_at) < $3
		 GROUP BY w.id, at, w.title
		 ORDER BY at, w.id`,
		canonical, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying exercise progression: %w", err)
	}
	defer rows.Close()

	result := []ExerciseProgression{}
	for rows.Next() {
		var p ExerciseProgression
		var at time.Time
		if err := rows.Scan(&p.WorkoutID, &at, &p.Title, &p.Sets, &p.Reps, &p.MaxLoadKg, &p.TonnageKg); err != nil {
			return nil, fmt.Errorf("scanning exercise progression: %w", err)
		}
		p.Date = at.Format(time.DateOnly)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
