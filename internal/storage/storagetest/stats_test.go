package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/claude/wodscribe/internal/models"
)

func insert(t *testing.T, s *Store, hash string, at time.Time, blocks ...*models.Block) {
	t.Helper()
	w := &models.Workout{Title: hash, Blocks: blocks}
	meta := models.WorkoutMeta{Source: models.SourceText, SourceHash: hash, PerformedAt: &at}
	if _, _, err := s.InsertWorkout(context.Background(), w, meta); err != nil {
		t.Fatal(err)
	}
}

func block(t *testing.T, st models.Structure, exercises ...models.Exercise) *models.Block {
	t.Helper()
	b, err := models.NewBlock("", st, exercises...)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func squat(sets, reps int, kg float64) models.Exercise {
	return models.Exercise{
		Name: "Squat", Canonical: "Back Squat", Confidence: models.ConfidenceHigh,
		Sets: models.Int(sets), Reps: models.Int(reps),
		Load: &models.Load{Magnitude: kg, Unit: models.LoadKg},
	}
}

var (
	mon = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	wed = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	nxt = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := New()
	insert(t, s, "a", mon, block(t, models.StructureSets, squat(5, 5, 100)))
	insert(t, s, "b", wed, block(t, models.StructureSets, squat(3, 3, 110), squat(1, 1, 120)),
		block(t, models.StructureAMRAP, models.Exercise{Name: "Burpees", Reps: models.Int(10), Confidence: models.ConfidenceMedium}))
	insert(t, s, "c", nxt, block(t, models.StructureEMOM, models.Exercise{Name: "plank thing", Confidence: models.ConfidenceLow}))
	return s
}

// TestGetTrainingSummary verifies weekly volume and structure counts.
func TestGetTrainingSummary(t *testing.T) {
	s := seed(t)
	got, err := s.GetTrainingSummary(context.Background(), mon.AddDate(0, 0, -7), nxt.AddDate(0, 0, 1), "week")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("periods = %d, want 2", len(got))
	}
	if got[0].Period != "2026-03-09" || got[1].Period != "2026-03-02" {
		t.Errorf("periods = %s, %s; want newest first", got[0].Period, got[1].Period)
	}
	w := got[1]
	if w.Workouts != 2 || w.Exercises != 4 {
		t.Errorf("workouts, exercises = %d, %d; want 2, 4", w.Workouts, w.Exercises)
	}
	// 5x5@100 + 3x3@110 + 1x1@120 + 1x10 burpees
	if w.Sets != 10 || w.Reps != 45 || w.TonnageKg != 2500+990+120 {
		t.Errorf("volume = %d sets, %d reps, %g kg; want 10, 45, 3610", w.Sets, w.Reps, w.TonnageKg)
	}
	if len(w.Structures) != 2 || w.Structures[0].Structure != models.StructureSets || w.Structures[0].Blocks != 2 {
		t.Errorf("structures = %+v, want sets first with 2 blocks", w.Structures)
	}
}

// TestGetExerciseProgression verifies per-workout totals oldest first.
func TestGetExerciseProgression(t *testing.T) {
	s := seed(t)
	got, err := s.GetExerciseProgression(context.Background(), "Back Squat", time.Time{}, nxt.AddDate(1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].Date != "2026-03-02" || *got[0].MaxLoadKg != 100 {
		t.Errorf("first = %+v, want 2026-03-02 at 100kg", got[0])
	}
	if got[1].Sets != 4 || got[1].Reps != 10 || *got[1].MaxLoadKg != 120 {
		t.Errorf("second = %+v, want 4 sets, 10 reps, 120kg max", got[1])
	}
}

// TestGetDataStats verifies totals, date range, and top exercises.
func TestGetDataStats(t *testing.T) {
	s := seed(t)
	got, err := s.GetDataStats(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalWorkouts != 3 || got.TotalExercises != 5 || got.LowConfidence != 1 {
		t.Errorf("totals = %d, %d, %d; want 3, 5, 1", got.TotalWorkouts, got.TotalExercises, got.LowConfidence)
	}
	if !got.EarliestWorkout.Equal(mon) || !got.LatestWorkout.Equal(nxt) {
		t.Errorf("range = %v..%v, want %v..%v", got.EarliestWorkout, got.LatestWorkout, mon, nxt)
	}
	if len(got.TopExercises) != 1 || got.TopExercises[0].Name != "Back Squat" || got.TopExercises[0].Workouts != 2 {
		t.Errorf("top exercises = %+v, want Back Squat in 2 workouts", got.TopExercises)
	}
	if len(got.WorkoutsBySource) != 1 || got.WorkoutsBySource[0].Count != 3 {
		t.Errorf("by source = %+v, want 3 text workouts", got.WorkoutsBySource)
	}
}
