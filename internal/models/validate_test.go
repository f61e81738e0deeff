package models

import (
	"errors"
	"testing"
)

func validWorkout(t *testing.T) *Workout {
	t.Helper()
	b, err := NewBlock("STRENGTH", StructureSets,
		Exercise{Name: "Bench Press", Sets: Int(3), Reps: Int(10), Confidence: ConfidenceHigh},
		Exercise{Name: "Squat", Reps: Int(0), Load: &Load{Magnitude: 60, Unit: LoadKg}, Confidence: ConfidenceMedium},
	)
	if err != nil {
		t.Fatal(err)
	}
	empty, _ := NewBlock("Cooldown", StructureCooldown)
	return &Workout{Title: "STRENGTH", Blocks: []*Block{b, empty}}
}

// TestValidateAcceptsWellFormed verifies a correct workout (including an
// empty block and zero reps) passes.
func TestValidateAcceptsWellFormed(t *testing.T) {
	if err := Validate(validWorkout(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestValidateFieldPaths verifies each violation is reported with a field
// path plus block and exercise indexes.
func TestValidateFieldPaths(t *testing.T) {
	w := validWorkout(t)
	w.Title = "  "
	w.Blocks[0].exercises[1].Sets = Int(0)
	w.Blocks[0].exercises[0].Reps = Int(-2)
	w.Blocks[1].structure = "pyramid"

	err := Validate(w)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}

	want := map[string][2]int{
		"title":                       {-1, -1},
		"blocks[0].exercises[0].reps": {0, 0},
		"blocks[0].exercises[1].sets": {0, 1},
		"blocks[1].structure":         {1, -1},
	}
	if len(verr.Errors) != len(want) {
		t.Fatalf("errors = %v, want %d entries", verr.Errors, len(want))
	}
	for _, fe := range verr.Errors {
		idx, ok := want[fe.Path]
		if !ok {
			t.Errorf("unexpected field error %q", fe.Path)
			continue
		}
		if fe.Block != idx[0] || fe.Exercise != idx[1] {
			t.Errorf("%s indexes = (%d,%d), want (%d,%d)", fe.Path, fe.Block, fe.Exercise, idx[0], idx[1])
		}
	}
}

// TestValidateZeroValueBlock verifies a Block built without NewBlock is
// caught at the boundary check.
func TestValidateZeroValueBlock(t *testing.T) {
	w := &Workout{Title: "x", Blocks: []*Block{{}}}
	err := Validate(w)
	if err == nil {
		t.Fatal("expected error for zero-value block")
	}
	var verr *ValidationError
	errors.As(err, &verr)
	if verr.Errors[0].Path != "blocks[0].structure" {
		t.Errorf("path = %q, want blocks[0].structure", verr.Errors[0].Path)
	}
}

// TestValidateDoesNotMutate verifies Validate leaves its input untouched.
func TestValidateDoesNotMutate(t *testing.T) {
	w := validWorkout(t)
	w.Blocks[0].exercises[0].Sets = Int(-1)
	_ = Validate(w)
	if *w.Blocks[0].exercises[0].Sets != -1 {
		t.Error("Validate modified sets")
	}
}

// TestValidateLoadAndRange covers load units and rep ranges.
func TestValidateLoadAndRange(t *testing.T) {
	w := validWorkout(t)
	w.Blocks[0].exercises[0].RepsMax = Int(8)
	w.Blocks[0].exercises[1].Load = &Load{Magnitude: -5, Unit: "stone"}

	err := Validate(w)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("errors = %v, want 3 (reps_max, load.unit, load.magnitude)", verr.Errors)
	}
}

// TestValidateNilBlocks verifies a nil blocks slice is rejected.
func TestValidateNilBlocks(t *testing.T) {
	if err := Validate(&Workout{Title: "x"}); err == nil {
		t.Error("expected error for nil blocks")
	}
}
