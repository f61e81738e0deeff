package alpha

import "time"

// Session is one workout from an Alpha Progression export.
type Session struct {
	Name string
	Date time.Time
	// Duration is zero when the export's duration column is unreadable.
	Duration  time.Duration
	Exercises []Exercise
}

// Exercise is a numbered exercise header with its logged sets.
type Exercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	// Modifiers holds trailing header annotations such as "2 dropsets".
	Modifiers string
	Sets      []Set
}

// Set is a single logged set. Warmups come from the exercise header and
// carry no RIR.
type Set struct {
	Number           int
	WeightKg         float64
	IsBodyweightPlus bool
	Reps             int
	RIR              float64
	IsWarmup         bool
}

// WorkingSets returns the non-warmup sets.
func (e Exercise) WorkingSets() []Set {
	var out []Set
	for _, s := range e.Sets {
		if !s.IsWarmup {
			out = append(out, s)
		}
	}
	return out
}
