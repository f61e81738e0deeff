package models

import (
	"encoding/json"
	"fmt"
)

// Workout is a parsed workout description.
type Workout struct {
	Title  string   `json:"title"`
	Blocks []*Block `json:"blocks"`
}

// ExerciseCount returns the number of exercises across all blocks.
func (w *Workout) ExerciseCount() int {
	n := 0
	for _, b := range w.Blocks {
		n += len(b.exercises)
	}
	return n
}

// LowConfidenceCount returns the number of exercises extracted by fallback.
func (w *Workout) LowConfidenceCount() int {
	n := 0
	for _, b := range w.Blocks {
		for _, ex := range b.exercises {
			if ex.Confidence == ConfidenceLow {
				n++
			}
		}
	}
	return n
}

// Block is a named segment of a workout sharing one training structure.
// Fields are unexported so a Block can only exist with a recognized structure.
type Block struct {
	label     string
	structure Structure
	exercises []Exercise
}

// NewBlock creates a Block. It fails if structure is not one of Structures().
func NewBlock(label string, structure Structure, exercises ...Exercise) (*Block, error) {
	if !structure.IsValid() {
		return nil, NewValidationError("structure", -1, -1,
			fmt.Sprintf("unrecognized structure %q", string(structure)))
	}
	b := &Block{
		label:     label,
		structure: structure,
		exercises: make([]Exercise, 0, len(exercises)),
	}
	b.exercises = append(b.exercises, exercises...)
	return b, nil
}

func (b *Block) Label() string { return b.label }

func (b *Block) Structure() Structure { return b.structure }

// Exercises returns a copy of the block's exercises; never nil.
func (b *Block) Exercises() []Exercise {
	out := make([]Exercise, len(b.exercises))
	copy(out, b.exercises)
	return out
}

// Append adds an exercise to the end of the block.
func (b *Block) Append(ex Exercise) {
	b.exercises = append(b.exercises, ex)
}

type blockJSON struct {
	Label     string     `json:"label"`
	Structure Structure  `json:"structure"`
	Exercises []Exercise `json:"exercises"`
}

func (b *Block) MarshalJSON() ([]byte, error) {
	exercises := b.exercises
	if exercises == nil {
		exercises = []Exercise{}
	}
	return json.Marshal(blockJSON{Label: b.label, Structure: b.structure, Exercises: exercises})
}

// UnmarshalJSON decodes through NewBlock so invalid structures are rejected.
func (b *Block) UnmarshalJSON(data []byte) error {
	var aux blockJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	nb, err := NewBlock(aux.Label, aux.Structure, aux.Exercises...)
	if err != nil {
		return err
	}
	*b = *nb
	return nil
}

// Exercise is a single movement prescription within a block.
type Exercise struct {
	Name            string     `json:"name"`
	Canonical       string     `json:"canonical,omitempty"`
	Group           string     `json:"group,omitempty"`
	Sets            *int       `json:"sets,omitempty"`
	Reps            *int       `json:"reps,omitempty"`
	RepsMax         *int       `json:"reps_max,omitempty"`
	RestSeconds     *int       `json:"rest_seconds,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	Load            *Load      `json:"load,omitempty"`
	Confidence      Confidence `json:"confidence"`
	Notes           string     `json:"notes,omitempty"`
	Source          string     `json:"source,omitempty"`
}

// Load is a weight prescription. Bodyweight loads carry the added weight
// as magnitude (0 for plain bodyweight).
type Load struct {
	Magnitude float64  `json:"magnitude"`
	Unit      LoadUnit `json:"unit"`
}

// Kilograms converts kg and lb loads; ok is false for relative units.
func (l Load) Kilograms() (kg float64, ok bool) {
	switch l.Unit {
	case LoadKg:
		return l.Magnitude, true
	case LoadLb:
		return l.Magnitude * 0.45359237, true
	}
	return 0, false
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Volume returns the prescribed work of an exercise: working sets (1 when
// unstated), total reps across those sets, and tonnage in kilograms. Loads
// in percent or bodyweight contribute no tonnage.
func (ex Exercise) Volume() (sets, reps int, tonnageKg float64) {
	sets = 1
	if ex.Sets != nil {
		sets = *ex.Sets
	}
	if ex.Reps != nil {
		reps = sets * *ex.Reps
	}
	if ex.Load != nil {
		if kg, ok := ex.Load.Kilograms(); ok {
			tonnageKg = float64(reps) * kg
		}
	}
	return sets, reps, tonnageKg
}
