package models

import (
	"time"

	"github.com/google/uuid"
)

// Workout sources recorded alongside stored workouts.
const (
	SourceText  = "text"
	SourceAlpha = "alpha"
)

// WorkoutRow is a row of the workouts table. Blocks and exercises live in
// their own tables and are reassembled by the storage layer.
type WorkoutRow struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Source        string     `json:"source"`
	SourceHash    string     `json:"source_hash"`
	RawText       string     `json:"raw_text,omitempty"`
	PerformedAt   *time.Time `json:"performed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	BlockCount    int        `json:"block_count"`
	ExerciseCount int        `json:"exercise_count"`
	LowConfidence int        `json:"low_confidence"`
}

// BlockRow is a row of the workout_blocks table.
type BlockRow struct {
	WorkoutID uuid.UUID
	Position  int
	Label     string
	Structure Structure
}

// ExerciseRow is a row of the workout_exercises table.
type ExerciseRow struct {
	WorkoutID       uuid.UUID
	BlockPosition   int
	Position        int
	Name            string
	Canonical       string
	GroupLabel      string
	Sets            *int
	Reps            *int
	RepsMax         *int
	RestSeconds     *int
	DurationSeconds *int
	LoadMagnitude   *float64
	LoadUnit        *string
	Confidence      Confidence
	Notes           string
	SourceLine      string
}

// StoredWorkout is a workout together with its persisted metadata.
type StoredWorkout struct {
	WorkoutRow
	Workout *Workout `json:"workout"`
}

// WorkoutMeta carries the provenance recorded with a new workout.
type WorkoutMeta struct {
	Source      string
	SourceHash  string
	RawText     string
	PerformedAt *time.Time
}
