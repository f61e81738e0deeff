package mcp

import (
	"context"
	"time"

	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	InsertWorkout(ctx context.Context, w *models.Workout, meta models.WorkoutMeta) (uuid.UUID, bool, error)
	GetWorkout(ctx context.Context, id uuid.UUID) (*models.StoredWorkout, error)
	QueryWorkouts(ctx context.Context, f storage.WorkoutFilter) ([]models.WorkoutRow, error)
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error)
	GetExerciseProgression(ctx context.Context, canonical string, start, end time.Time) ([]storage.ExerciseProgression, error)
	GetDataStats(ctx context.Context, top int) (*storage.DataStats, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
