package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/wodscribe/internal/models"
)

// StructureCount counts blocks of one structure.
type StructureCount struct {
	Structure models.Structure `json:"structure"`
	Blocks    int              `json:"blocks"`
}

// TrainingSummaryPeriod holds aggregated workout volume for one time period.
// Volume follows models.Exercise.Volume.
type TrainingSummaryPeriod struct {
	Period     string           `json:"period"`
	Workouts   int              `json:"workouts"`
	Exercises  int              `json:"exercises"`
	Sets       int              `json:"sets"`
	Reps       int              `json:"reps"`
	TonnageKg  float64          `json:"tonnage_kg"`
	Structures []StructureCount `json:"structures"`
}

// volumeSQL mirrors models.Exercise.Volume over workout_exercises columns.
const volumeSQL = `
	COALESCE(e.sets, 1) AS sets,
	COALESCE(e.sets, 1) * COALESCE(e.reps, 0) AS reps,
	COALESCE(e.sets, 1) * COALESCE(e.reps, 0) * CASE e.load_unit
		WHEN 'kg' THEN e.load_magnitude
		WHEN 'lb' THEN e.load_magnitude * 0.45359237
		ELSE 0 END AS tonnage`

// GetTrainingSummary returns workout volume per period, newest first. A
// workout falls in the period of its performed_at, or created_at when the
// performance time is unknown.
func (db *DB) GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string) ([]TrainingSummaryPeriod, error) {
	trunc := TruncInterval(bucket)

	// Query 1: Workout and exercise volume grouped by period
	rows, err := db.Pool.Query(ctx,
		`WITH w AS (
			SELECT id, exercise_count, date_trunc($1, COALESCE(performed_at, created_at))::date AS period
			FROM workouts
			WHERE COALESCE(performed_at, created_at) >= $2 AND COALESCE(performed_at, created_at) < $3
		), v AS (
			SELECT w.period, `+volumeSQL+`
			FROM w JOIN workout_exercises e ON e.workout_id = w.id
		)
		SELECT p.period, p.workouts, p.exercises,
		       COALESCE(SUM(v.sets), 0)::int, COALESCE(SUM(v.reps), 0)::int, COALESCE(SUM(v.tonnage), 0)
		FROM (SELECT period, COUNT(*)::int AS workouts, SUM(exercise_count)::int AS exercises
		      FROM w GROUP BY period) p
		LEFT JOIN v ON v.period = p.period
		GROUP BY p.period, p.workouts, p.exercises
		ORDER BY p.period DESC`,
		trunc, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying training summary: %w", err)
	}
	defer rows.Close()

	periodMap := make(map[string]*TrainingSummaryPeriod)
	var periodOrder []string

	for rows.Next() {
		var periodTime time.Time
		p := TrainingSummaryPeriod{Structures: []StructureCount{}}
		if err := rows.Scan(&periodTime, &p.Workouts, &p.Exercises, &p.Sets, &p.Reps, &p.TonnageKg); err != nil {
			return nil, fmt.Errorf("scanning training summary: %w", err)
		}
		p.Period = periodTime.Format(time.DateOnly)
		periodMap[p.Period] = &p
		periodOrder = append(periodOrder, p.Period)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query 2: Block structures grouped by period
	structRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, COALESCE(w.performed_at, w.created_at))::date AS period,
		        b.structure, COUNT(*)::int
		 FROM workouts w JOIN workout_blocks b ON b.workout_id = w.id
		 WHERE COALESCE(w.performed_at, w.created_at) >= $2 AND COALESCE(w.performed_at, w.created_at) < $3
		 GROUP BY period, b.structure
		 ORDER BY period DESC, COUNT(*) DESC, b.structure`,
		trunc, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying structure summary: %w", err)
	}
	defer structRows.Close()

	for structRows.Next() {
		var periodTime time.Time
		var sc StructureCount
		if err := structRows.Scan(&periodTime, &sc.Structure, &sc.Blocks); err != nil {
			return nil, fmt.Errorf("scanning structure summary: %w", err)
		}
		if p, ok := periodMap[periodTime.Format(time.DateOnly)]; ok {
			p.Structures = append(p.Structures, sc)
		}
	}
	if err := structRows.Err(); err != nil {
		return nil, err
	}

	// Assemble result in order
	result := make([]TrainingSummaryPeriod, 0, len(periodOrder))
	for _, key := range periodOrder {
		result = append(result, *periodMap[key])
	}
	return result, nil
}

// TruncInterval converts bucket strings like "1 month" to the interval name
// that date_trunc expects (e.g. "month", "week").
func TruncInterval(bucket string) string {
	switch bucket {
	case "week", "1 week":
		return "week"
	default:
		return "month"
	}
}

// PeriodStart truncates t the way date_trunc does for the given bucket:
// ISO weeks start on Monday.
func PeriodStart(t time.Time, bucket string) time.Time {
	y, m, d := t.Date()
	if TruncInterval(bucket) == "month" {
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	}
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
