package alpha

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/parse"
	"github.com/claude/wodscribe/internal/storage"
	"github.com/claude/wodscribe/internal/storage/storagetest"
)

func newProvider(t *testing.T) (*Provider, *storagetest.Store) {
	t.Helper()
	lex, err := parse.DefaultLexicon()
	if err != nil {
		t.Fatal(err)
	}
	store := storagetest.New()
	return NewProvider(store, lex, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

// TestWorkoutFromSession verifies a session becomes one sets block with
// working-set counts, target reps, and the heaviest working load.
func TestWorkoutFromSession(t *testing.T) {
	p, _ := newProvider(t)
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}

	w, meta, err := p.Workout(sessions[1])
	if err != nil {
		t.Fatalf("Workout: %v", err)
	}
	if w.Title != "Push · Day 1 · Week 4 · Push-Pull-Legs" {
		t.Errorf("title = %q", w.Title)
	}
	if len(w.Blocks) != 1 || w.Blocks[0].Structure() != models.StructureSets {
		t.Fatalf("blocks = %+v, want one sets block", w.Blocks)
	}
	ex := w.Blocks[0].Exercises()[0]
	if ex.Canonical != "Bench Press" || ex.Confidence != models.ConfidenceHigh {
		t.Errorf("canonical = %q (%s), want Bench Press (high)", ex.Canonical, ex.Confidence)
	}
	if ex.Sets == nil || *ex.Sets != 3 {
		t.Errorf("sets = %v, want 3 working sets", ex.Sets)
	}
	if ex.Reps == nil || *ex.Reps != 6 {
		t.Errorf("reps = %v, want 6", ex.Reps)
	}
	if ex.Load == nil || ex.Load.Magnitude != 102.5 || ex.Load.Unit != models.LoadKg {
		t.Errorf("load = %+v, want 102.5kg", ex.Load)
	}
	if ex.Notes != "Barbell" {
		t.Errorf("notes = %q, want Barbell", ex.Notes)
	}
	if meta.PerformedAt == nil || !meta.PerformedAt.Equal(sessions[1].Date) {
		t.Errorf("performed at = %v, want %v", meta.PerformedAt, sessions[1].Date)
	}
	if meta.Source != models.SourceAlpha || meta.SourceHash == "" {
		t.Errorf("meta = %+v", meta)
	}
}

// TestWorkoutBodyweightLoads verifies "+0" becomes a bodyweight load and
// "+35" keeps the added kilograms.
func TestWorkoutBodyweightLoads(t *testing.T) {
	p, _ := newProvider(t)
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	w, _, err := p.Workout(sessions[0])
	if err != nil {
		t.Fatal(err)
	}
	exs := w.Blocks[0].Exercises()
	if len(exs) != 6 {
		t.Fatalf("exercises = %d, want 6", len(exs))
	}
	hyper := exs[2]
	if hyper.Load == nil || hyper.Load.Magnitude != 35 || hyper.Load.Unit != models.LoadKg {
		t.Errorf("hyperextension load = %+v, want 35kg", hyper.Load)
	}
	if !strings.Contains(hyper.Notes, "bodyweight plus") {
		t.Errorf("hyperextension notes = %q", hyper.Notes)
	}
	legRaise := exs[5]
	if legRaise.Load == nil || legRaise.Load.Unit != models.LoadBodyweight {
		t.Errorf("leg raise load = %+v, want bodyweight", legRaise.Load)
	}
}

// TestIngestStoresSessions verifies every session is stored once and a
// re-import only reports duplicates.
func TestIngestStoresSessions(t *testing.T) {
	p, store := newProvider(t)
	ctx := context.Background()

	res, err := p.Ingest(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Received != 2 || res.Stored != 2 || res.Duplicates != 0 {
		t.Errorf("first import = %+v, want 2 stored", res)
	}

	res, err = p.Ingest(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if res.Stored != 0 || res.Duplicates != 2 {
		t.Errorf("re-import = %+v, want 2 duplicates", res)
	}
	if store.Len() != 2 {
		t.Errorf("stored workouts = %d, want 2", store.Len())
	}
	for _, l := range store.Logs() {
		if l.Source != models.SourceAlpha || l.Status != storage.StatusSuccess {
			t.Errorf("parse log = %+v, want alpha success", l)
		}
	}
}

// TestIngestMalformedCSV verifies parse failures are returned and logged.
func TestIngestMalformedCSV(t *testing.T) {
	p, store := newProvider(t)
	_, err := p.Ingest(context.Background(), strings.NewReader(`"1. Squat · Barbell · 5 reps"`))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want %v", err, ErrMalformed)
	}
	if logs := store.Logs(); len(logs) != 1 || logs[0].Status != storage.StatusError {
		t.Errorf("parse logs = %+v, want one error", logs)
	}
}
