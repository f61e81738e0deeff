package models

import (
	"fmt"
	"strings"
)

// Validate checks an assembled workout and reports every offending field.
// It does not modify w.
func Validate(w *Workout) error {
	if w == nil {
		return NewValidationError("workout", -1, -1, "is nil")
	}

	var errs []FieldError
	add := func(path string, block, exercise int, msg string) {
		errs = append(errs, FieldError{Path: path, Block: block, Exercise: exercise, Message: msg})
	}

	if strings.TrimSpace(w.Title) == "" {
		add("title", -1, -1, "must not be empty")
	}
	if w.Blocks == nil {
		add("blocks", -1, -1, "must be a list")
	}

	for bi, b := range w.Blocks {
		bp := fmt.Sprintf("blocks[%d]", bi)
		if b == nil {
			add(bp, bi, -1, "is nil")
			continue
		}
		if !b.structure.IsValid() {
			add(bp+".structure", bi, -1, fmt.Sprintf("unrecognized structure %q", string(b.structure)))
		}
		for ei, ex := range b.exercises {
			ep := fmt.Sprintf("%s.exercises[%d]", bp, ei)
			if strings.TrimSpace(ex.Name) == "" {
				add(ep+".name", bi, ei, "must not be empty")
			}
			if ex.Reps != nil && *ex.Reps < 0 {
				add(ep+".reps", bi, ei, fmt.Sprintf("must be >= 0, got %d", *ex.Reps))
			}
			if ex.RepsMax != nil {
				switch {
				case ex.Reps == nil:
					add(ep+".reps_max", bi, ei, "set without reps")
				case *ex.RepsMax < *ex.Reps:
					add(ep+".reps_max", bi, ei, fmt.Sprintf("must be >= reps (%d), got %d", *ex.Reps, *ex.RepsMax))
				}
			}
			if ex.Sets != nil && *ex.Sets <= 0 {
				add(ep+".sets", bi, ei, fmt.Sprintf("must be > 0, got %d", *ex.Sets))
			}
			if ex.RestSeconds != nil && *ex.RestSeconds < 0 {
				add(ep+".rest_seconds", bi, ei, fmt.Sprintf("must be >= 0, got %d", *ex.RestSeconds))
			}
			if ex.DurationSeconds != nil && *ex.DurationSeconds < 0 {
				add(ep+".duration_seconds", bi, ei, fmt.Sprintf("must be >= 0, got %d", *ex.DurationSeconds))
			}
			if ex.Load != nil {
				if !ex.Load.Unit.IsValid() {
					add(ep+".load.unit", bi, ei, fmt.Sprintf("unrecognized unit %q", string(ex.Load.Unit)))
				}
				if ex.Load.Magnitude < 0 {
					add(ep+".load.magnitude", bi, ei, fmt.Sprintf("must be >= 0, got %g", ex.Load.Magnitude))
				}
			}
			if ex.Confidence != "" && !ex.Confidence.IsValid() {
				add(ep+".confidence", bi, ei, fmt.Sprintf("unrecognized confidence %q", string(ex.Confidence)))
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
