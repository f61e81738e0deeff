package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/parse"
	"github.com/claude/wodscribe/internal/storage"
	"github.com/claude/wodscribe/internal/storage/storagetest"
)

const legsCSV = `"Legs · Day 2";"2026-02-19 4:54 h";"1:02 hr"
"1. Back Squat · Barbell · 5 reps"
#;KG;REPS;RIR
1;100;5;2
2;100;5;1
`

func newImporter(t *testing.T, dryRun bool, opts ...parse.Option) (*Importer, *storagetest.Store) {
	t.Helper()
	lex, err := parse.DefaultLexicon()
	if err != nil {
		t.Fatal(err)
	}
	store := storagetest.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, parse.New(lex, opts...), log, dryRun, 2), store
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// TestImport verifies notes and exports are stored and a re-import only
// finds duplicates.
func TestImport(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"2026-03-02 legs.md": "Legs:\nBack Squat 5x5 @ 100kg",
		"upper/bench.txt":    "Bench Press 4x8\nmystery move",
		"alpha.csv":          legsCSV,
	})
	imp, store := newImporter(t, false)

	stats, err := imp.Import(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesProcessed != 3 || stats.WorkoutsInserted != 3 {
		t.Errorf("stats = %+v, want 3 files and 3 workouts", stats)
	}
	if stats.LowConfidence != 1 {
		t.Errorf("LowConfidence = %d, want 1", stats.LowConfidence)
	}
	if store.Len() != 3 {
		t.Errorf("stored = %d, want 3", store.Len())
	}

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows, err := store.QueryWorkouts(context.Background(), storage.WorkoutFilter{Start: day, End: day.AddDate(0, 0, 1)})
	if err != nil || len(rows) != 1 {
		t.Fatalf("QueryWorkouts = %v, %v; want one row", rows, err)
	}
	if rows[0].Title != "Legs" {
		t.Errorf("title = %q, want Legs", rows[0].Title)
	}

	stats, err = New(store, imp.parser, imp.log, false, 2).Import(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.WorkoutsInserted != 0 || stats.WorkoutsDuplicated != 3 {
		t.Errorf("re-import stats = %+v, want 3 duplicates", stats)
	}
}

// TestImportDryRun verifies nothing is stored in dry-run.
func TestImportDryRun(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.md":      "Squat 5x5",
		"alpha.csv": legsCSV,
	})
	imp, store := newImporter(t, true)

	stats, err := imp.Import(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, want 2", stats.FilesProcessed)
	}
	if store.Len() != 0 || len(store.Logs()) != 0 {
		t.Errorf("store touched in dry-run: %d workouts, %d logs", store.Len(), len(store.Logs()))
	}
}

// TestImportSkipsBadFiles verifies oversized notes and malformed exports are
// counted without stopping the import.
func TestImportSkipsBadFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"big.md":   strings.Repeat("Squat 5x5\n", 20),
		"ok.md":    "Squat 5x5",
		"junk.csv": `"1. Squat · Barbell · 5 reps"`,
	})
	imp, store := newImporter(t, false, parse.WithMaxInput(50))

	stats, err := imp.Import(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesErrored != 2 || stats.WorkoutsInserted != 1 {
		t.Errorf("stats = %+v, want 2 errored and 1 inserted", stats)
	}
	if store.Len() != 1 {
		t.Errorf("stored = %d, want 1", store.Len())
	}
}

// TestImportStoreFailure verifies a storage error aborts the import.
func TestImportStoreFailure(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.md": "Squat 5x5"})
	imp, store := newImporter(t, false)
	store.Err = errors.New("disk full")

	if _, err := imp.Import(context.Background(), root); err == nil {
		t.Fatal("expected error")
	}
}

// TestRejected verifies which errors count as rejected notes.
func TestRejected(t *testing.T) {
	if !rejected(parse.ErrInputTooLarge) {
		t.Error("rejected(ErrInputTooLarge) = false, want true")
	}
	if !rejected(&models.ValidationError{}) {
		t.Error("rejected(ValidationError) = false, want true")
	}
	if rejected(errors.New("disk full")) {
		t.Error("rejected(other) = true, want false")
	}
}
