package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/wodscribe/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertWorkout validates and stores a workout with its blocks and exercises
// in one transaction. If a workout with the same source hash already exists,
// its ID is returned with created=false and nothing is written.
func (db *DB) InsertWorkout(ctx context.Context, w *models.Workout, meta models.WorkoutMeta) (id uuid.UUID, created bool, err error) {
	if err := models.Validate(w); err != nil {
		return uuid.Nil, false, err
	}
	if meta.SourceHash == "" {
		return uuid.Nil, false, fmt.Errorf("inserting workout: source hash is required")
	}

	id = uuid.New()
	blocks, exercises := workoutRows(id, w)

	err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO workouts (id, title, source, source_hash, raw_text, performed_at,
			 block_count, exercise_count, low_confidence)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			 ON CONFLICT (source_hash) DO NOTHING
			 RETURNING id`,
			id, w.Title, meta.Source, meta.SourceHash, meta.RawText, meta.PerformedAt,
			len(w.Blocks), w.ExerciseCount(), w.LowConfidenceCount(),
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			if err := tx.QueryRow(ctx,
				`SELECT id FROM workouts WHERE source_hash = $1`, meta.SourceHash,
			).Scan(&id); err != nil {
				return fmt.Errorf("looking up duplicate workout: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}
		created = true

		if err := insertBlocks(ctx, tx, blocks); err != nil {
			return err
		}
		return insertExercises(ctx, tx, exercises)
	})
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, created, nil
}

var (
	blockCopyColumns    = []string{"workout_id", "position", "label", "structure"}
	exerciseCopyColumns = []string{"workout_id", "block_position", "position", "name", "canonical",
		"group_label", "sets", "reps", "reps_max", "rest_seconds", "duration_seconds",
		"load_magnitude", "load_unit", "confidence", "notes", "source_line"}
)

// Blocks and exercises go through COPY, which has no bind-parameter limit;
// a split-heavy text can produce thousands of exercises.
func insertBlocks(ctx context.Context, tx pgx.Tx, rows []models.BlockRow) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"workout_blocks"}, blockCopyColumns,
		pgx.CopyFromRows(blockCopyRows(rows))); err != nil {
		return fmt.Errorf("inserting workout blocks: %w", err)
	}
	return nil
}

func insertExercises(ctx context.Context, tx pgx.Tx, rows []models.ExerciseRow) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"workout_exercises"}, exerciseCopyColumns,
		pgx.CopyFromRows(exerciseCopyRows(rows))); err != nil {
		return fmt.Errorf("inserting workout exercises: %w", err)
	}
	return nil
}

// blockCopyRows lays rows out in blockCopyColumns order.
func blockCopyRows(rows []models.BlockRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.WorkoutID, r.Position, r.Label, string(r.Structure)}
	}
	return out
}

// exerciseCopyRows lays rows out in exerciseCopyColumns order.
func exerciseCopyRows(rows []models.ExerciseRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.WorkoutID, r.BlockPosition, r.Position, r.Name, r.Canonical,
			r.GroupLabel, r.Sets, r.Reps, r.RepsMax, r.RestSeconds, r.DurationSeconds,
			r.LoadMagnitude, r.LoadUnit, string(r.Confidence), r.Notes, r.SourceLine}
	}
	return out
}

// workoutRows flattens a workout into table rows.
func workoutRows(id uuid.UUID, w *models.Workout) ([]models.BlockRow, []models.ExerciseRow) {
	blocks := make([]models.BlockRow, 0, len(w.Blocks))
	var exercises []models.ExerciseRow
	for bi, b := range w.Blocks {
		blocks = append(blocks, models.BlockRow{
			WorkoutID: id,
			Position:  bi,
			Label:     b.Label(),
			Structure: b.Structure(),
		})
		for ei, ex := range b.Exercises() {
			row := models.ExerciseRow{
				WorkoutID:       id,
				BlockPosition:   bi,
				Position:        ei,
				Name:            ex.Name,
				Canonical:       ex.Canonical,
				GroupLabel:      ex.Group,
				Sets:            ex.Sets,
				Reps:            ex.Reps,
				RepsMax:         ex.RepsMax,
				RestSeconds:     ex.RestSeconds,
				DurationSeconds: ex.DurationSeconds,
				Confidence:      ex.Confidence,
				Notes:           ex.Notes,
				SourceLine:      ex.Source,
			}
			if ex.Load != nil {
				mag, unit := ex.Load.Magnitude, string(ex.Load.Unit)
				row.LoadMagnitude, row.LoadUnit = &mag, &unit
			}
			exercises = append(exercises, row)
		}
	}
	return blocks, exercises
}

// rebuildWorkout reverses workoutRows. Blocks go through models.NewBlock, so
// a corrupted structure value surfaces as a validation error.
func rebuildWorkout(title string, blocks []models.BlockRow, exercises []models.ExerciseRow) (*models.Workout, error) {
	w := &models.Workout{Title: title, Blocks: make([]*models.Block, 0, len(blocks))}
	byPos := make(map[int]*models.Block, len(blocks))
	for _, br := range blocks {
		b, err := models.NewBlock(br.Label, br.Structure)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", br.Position, err)
		}
		w.Blocks = append(w.Blocks, b)
		byPos[br.Position] = b
	}
	for _, er := range exercises {
		b, ok := byPos[er.BlockPosition]
		if !ok {
			return nil, fmt.Errorf("exercise %d references missing block %d", er.Position, er.BlockPosition)
		}
		ex := models.Exercise{
			Name:            er.Name,
			Canonical:       er.Canonical,
			Group:           er.GroupLabel,
			Sets:            er.Sets,
			Reps:            er.Reps,
			RepsMax:         er.RepsMax,
			RestSeconds:     er.RestSeconds,
			DurationSeconds: er.DurationSeconds,
			Confidence:      er.Confidence,
			Notes:           er.Notes,
			Source:          er.SourceLine,
		}
		if er.LoadMagnitude != nil && er.LoadUnit != nil {
			ex.Load = &models.Load{Magnitude: *er.LoadMagnitude, Unit: models.LoadUnit(*er.LoadUnit)}
		}
		b.Append(ex)
	}
	return w, nil
}

const workoutColumns = `id, title, source, source_hash, raw_text, performed_at, created_at,
	block_count, exercise_count, low_confidence`

// GetWorkout loads a stored workout and reassembles its blocks.
func (db *DB) GetWorkout(ctx context.Context, id uuid.UUID) (*models.StoredWorkout, error) {
	var sw models.StoredWorkout
	err := db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, id,
	).Scan(&sw.ID, &sw.Title, &sw.Source, &sw.SourceHash, &sw.RawText, &sw.PerformedAt,
		&sw.CreatedAt, &sw.BlockCount, &sw.ExerciseCount, &sw.LowConfidence)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("workout %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}

	blockRows, err := db.Pool.Query(ctx,
		`SELECT workout_id, position, label, structure
		 FROM workout_blocks WHERE workout_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying workout blocks: %w", err)
	}
	blocks, err := pgx.CollectRows(blockRows, func(row pgx.CollectableRow) (models.BlockRow, error) {
		var b models.BlockRow
		var structure string
		err := row.Scan(&b.WorkoutID, &b.Position, &b.Label, &structure)
		b.Structure = models.Structure(structure)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning workout blocks: %w", err)
	}

	exRows, err := db.Pool.Query(ctx,
		`SELECT workout_id, block_position, position, name, canonical, group_label,
		 sets, reps, reps_max, rest_seconds, duration_seconds,
		 load_magnitude, load_unit, confidence, notes, source_line
		 FROM workout_exercises WHERE workout_id = $1
		 ORDER BY block_position, position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	exercises, err := pgx.CollectRows(exRows, func(row pgx.CollectableRow) (models.ExerciseRow, error) {
		var e models.ExerciseRow
		var confidence string
		err := row.Scan(&e.WorkoutID, &e.BlockPosition, &e.Position, &e.Name, &e.Canonical,
			&e.GroupLabel, &e.Sets, &e.Reps, &e.RepsMax, &e.RestSeconds, &e.DurationSeconds,
			&e.LoadMagnitude, &e.LoadUnit, &confidence, &e.Notes, &e.SourceLine)
		e.Confidence = models.Confidence(confidence)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning workout exercises: %w", err)
	}

	sw.Workout, err = rebuildWorkout(sw.Title, blocks, exercises)
	if err != nil {
		return nil, fmt.Errorf("rebuilding workout %s: %w", id, err)
	}
	return &sw, nil
}

// WorkoutFilter narrows QueryWorkouts. Zero values match everything.
type WorkoutFilter struct {
	Start    time.Time // inclusive, on performed_at or created_at
	End      time.Time // exclusive
	Title    string    // case-insensitive substring
	Exercise string    // canonical exercise name
	Limit    int
}

// DefaultWorkoutLimit caps QueryWorkouts when no limit is given.
const DefaultWorkoutLimit = 100

func (f WorkoutFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.Start.IsZero() {
		add("COALESCE(performed_at, created_at) >= $%d", f.Start)
	}
	if !f.End.IsZero() {
		add("COALESCE(performed_at, created_at) < $%d", f.End)
	}
	if f.Title != "" {
		add("title ILIKE '%%' || $%d || '%%'", f.Title)
	}
	if f.Exercise != "" {
		add("EXISTS (SELECT 1 FROM workout_exercises e WHERE e.workout_id = workouts.id AND e.canonical = $%d)", f.Exercise)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// QueryWorkouts returns workout summaries, newest first.
func (db *DB) QueryWorkouts(ctx context.Context, f WorkoutFilter) ([]models.WorkoutRow, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultWorkoutLimit
	}
	where, args := f.where()
	args = append(args, limit)
	query := `SELECT ` + workoutColumns + ` FROM workouts` + where +
		fmt.Sprintf(` ORDER BY COALESCE(performed_at, created_at) DESC LIMIT $%d`, len(args))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows)
}

// DeleteWorkout removes a workout; blocks and exercises cascade.
func (db *DB) DeleteWorkout(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanWorkoutRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.WorkoutRow, error) {
	result := []models.WorkoutRow{}
	for rows.Next() {
		var w models.WorkoutRow
		if err := rows.Scan(&w.ID, &w.Title, &w.Source, &w.SourceHash, &w.RawText, &w.PerformedAt,
			&w.CreatedAt, &w.BlockCount, &w.ExerciseCount, &w.LowConfidence); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
