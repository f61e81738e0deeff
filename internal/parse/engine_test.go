package parse

import (
	"testing"

	"github.com/claude/wodscribe/internal/models"
	"github.com/google/go-cmp/cmp"
)

func tagLine(t *testing.T, e *Engine, text string) (Line, []Group) {
	t.Helper()
	lines, err := Segment(text, 0, e.lex)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range lines {
		if l.Kind == LineExercise {
			return l, e.Tag(l)
		}
	}
	t.Fatalf("no exercise line in %q", text)
	return Line{}, nil
}

// TestTagSpanOffsets verifies spans index into the original line text.
func TestTagSpanOffsets(t *testing.T) {
	e := NewEngine(testLexicon(t))
	line, groups := tagLine(t, e, "A1: Bench Press X10")
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}

	type span struct {
		Kind       Kind
		Text       string
		Start, End int
	}
	var got []span
	for _, s := range groups[0].Spans {
		got = append(got, span{s.Kind, s.Text, s.Start, s.End})
		if line.Text[s.Start:s.End] != s.Text {
			t.Errorf("%s span text %q != line[%d:%d] %q", s.Kind, s.Text, s.Start, s.End, line.Text[s.Start:s.End])
		}
	}
	want := []span{
		{KindExercise, "Bench Press", 4, 15},
		{KindReps, "10", 17, 19},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
}

// TestTagFirstMatchWinsPerKind verifies a higher-priority rule keeps its
// entity kind even when a later rule would also match.
func TestTagFirstMatchWinsPerKind(t *testing.T) {
	e := NewEngine(testLexicon(t))
	_, groups := tagLine(t, e, "Squat 3x5 10 reps")
	reps, ok := groups[0].Span(KindReps)
	if !ok {
		t.Fatal("no REPS span")
	}
	if reps.Text != "5" || reps.Rule != "sets_x_reps" {
		t.Errorf("reps = %q from %s, want 5 from sets_x_reps", reps.Text, reps.Rule)
	}
}

// TestTagSplitting covers separator handling.
func TestTagSplitting(t *testing.T) {
	e := NewEngine(testLexicon(t))
	tests := []struct {
		in    string
		names []string
	}{
		{"Bench Press + Squat X10", []string{"Bench Press", "Squat"}},
		{"Push Ups / Sit Ups / Air Squats 3 rounds", []string{"Push Ups", "Sit Ups", "Air Squats"}},
		{"Curl, Lateral Raise, Face Pull 3x15", []string{"Curl", "Lateral Raise", "Face Pull"}},
		{"Squat 4/10", []string{"Squat"}},
		{"Squat 4 / 10", []string{"Squat"}},
		{"Bench 62,5kg x5", []string{"Bench"}},
		{"Squat 60kg, 3x5", []string{"Squat"}},
		{"Bench Press +", []string{"Bench Press"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, groups := tagLine(t, e, tt.in)
			var names []string
			for _, g := range groups {
				names = append(names, g.Name)
			}
			if diff := cmp.Diff(tt.names, names); diff != "" {
				t.Errorf("names (-want +got):\n%s", diff)
			}
		})
	}
}

// TestTagSharedQuantities verifies sides without quantities inherit sets,
// reps, rest and duration but never the load.
func TestTagSharedQuantities(t *testing.T) {
	lex := testLexicon(t)
	e := NewEngine(lex)
	line, groups := tagLine(t, e, "Push Ups + Pull Ups 60kg 3x10 rest 60")
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	first := lex.exercise(groups[0], line)
	if first.Sets == nil || *first.Sets != 3 || first.Reps == nil || *first.Reps != 10 {
		t.Errorf("first side sets/reps = %v/%v, want 3/10", intVal(first.Sets), intVal(first.Reps))
	}
	if first.RestSeconds == nil || *first.RestSeconds != 60 {
		t.Errorf("first side rest = %v, want 60", intVal(first.RestSeconds))
	}
	if first.Load != nil {
		t.Errorf("first side load = %+v, want nil", first.Load)
	}
	reps, _ := groups[0].Span(KindReps)
	if !reps.Inherited {
		t.Error("inherited span not flagged")
	}
	second := lex.exercise(groups[1], line)
	if second.Load == nil || second.Load.Magnitude != 60 {
		t.Errorf("second side load = %+v, want 60kg", second.Load)
	}
}

// TestTagSharedQuantitiesLookAhead verifies a bare side takes quantities
// from the next side that has them, never from an earlier one.
func TestTagSharedQuantitiesLookAhead(t *testing.T) {
	lex := testLexicon(t)
	e := NewEngine(lex)
	line, groups := tagLine(t, e, "Bench Press 3x5 + Squat")
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	squat := lex.exercise(groups[1], line)
	if squat.Sets != nil || squat.Reps != nil {
		t.Errorf("trailing side sets/reps = %v/%v, want none", intVal(squat.Sets), intVal(squat.Reps))
	}
	bench := lex.exercise(groups[0], line)
	if intVal(bench.Sets) != 3 || intVal(bench.Reps) != 5 {
		t.Errorf("leading side sets/reps = %v/%v, want 3/5", intVal(bench.Sets), intVal(bench.Reps))
	}
}

// TestTagMergesNamelessSide verifies a side with only quantities folds back
// into the preceding side.
func TestTagMergesNamelessSide(t *testing.T) {
	lex := testLexicon(t)
	e := NewEngine(lex)
	line, groups := tagLine(t, e, "Deadlift 3x5, 140kg, rest 3 min")
	if len(groups) != 1 {
		t.Fatalf("groups = %d (%+v), want 1", len(groups), groups)
	}
	ex := lex.exercise(groups[0], line)
	if ex.Name != "Deadlift" || intVal(ex.RestSeconds) != 180 {
		t.Errorf("got %q rest=%v, want Deadlift rest=180", ex.Name, intVal(ex.RestSeconds))
	}
	if ex.Load == nil || ex.Load.Magnitude != 140 || ex.Load.Unit != models.LoadKg {
		t.Errorf("load = %+v, want 140kg", ex.Load)
	}
}

// TestSeconds covers the duration notations.
func TestSeconds(t *testing.T) {
	lex := testLexicon(t)
	tests := map[string]int{
		"90":         90,
		"90s":        90,
		"2 min":      120,
		"2 minutes":  120,
		"1:30":       90,
		"1:30 min":   90,
		"2m30s":      150,
		"2 min 30":   150,
		"1 hr":       3600,
		"0.5 min":    30,
		"1,5 min":    90,
		"10 seconds": 10,
	}
	for in, want := range tests {
		got, ok := lex.seconds(in)
		if !ok || got != want {
			t.Errorf("seconds(%q) = %d, %v; want %d", in, got, ok, want)
		}
	}
	for _, in := range []string{"1:75", "abc", "5 fortnights"} {
		if _, ok := lex.seconds(in); ok {
			t.Errorf("seconds(%q) ok = true, want false", in)
		}
	}
}

// TestRepRange covers single values and ranges.
func TestRepRange(t *testing.T) {
	tests := []struct {
		in     string
		lo, hi any
	}{
		{"10", 10, nil},
		{"8-12", 8, 12},
		{"12 - 8", 8, 12},
		{"5-5", 5, nil},
		{"ten", nil, nil},
	}
	for _, tt := range tests {
		lo, hi := repRange(tt.in)
		if intVal(lo) != tt.lo || intVal(hi) != tt.hi {
			t.Errorf("repRange(%q) = %v, %v; want %v, %v", tt.in, intVal(lo), intVal(hi), tt.lo, tt.hi)
		}
	}
}
