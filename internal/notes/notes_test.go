package notes

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/wodscribe/internal/parse"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestFind verifies only notes are returned, hidden entries are skipped, and
// the order is stable.
func TestFind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "2026-03-02 legs.md", "Squat 5x5")
	writeFile(t, root, "week1/upper.TXT", "Bench 5x5")
	writeFile(t, root, "week1/photo.jpg", "x")
	writeFile(t, root, ".trash/old.md", "x")
	writeFile(t, root, ".draft.txt", "x")

	files, err := Find(root)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, f := range files {
		got = append(got, f.RelPath)
	}
	want := []string{"2026-03-02 legs.md", "week1/upper.TXT"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", got, want)
	}
	if files[0].Size != int64(len("Squat 5x5")) {
		t.Errorf("size = %d, want %d", files[0].Size, len("Squat 5x5"))
	}

	if _, err := Find(filepath.Join(root, "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}

// TestRead verifies the character cap and UTF-8 cleanup.
func TestRead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "Squat 5x5\xff")
	files, err := Find(root)
	if err != nil {
		t.Fatal(err)
	}

	text, err := Read(files[0], 100)
	if err != nil || text != "Squat 5x5�" {
		t.Errorf("Read = %q, %v", text, err)
	}
	if _, err := Read(files[0], 5); !errors.Is(err, parse.ErrInputTooLarge) {
		t.Errorf("err = %v, want ErrInputTooLarge", err)
	}
	if _, err := Read(files[0], 1); !errors.Is(err, parse.ErrInputTooLarge) {
		t.Errorf("size check err = %v, want ErrInputTooLarge", err)
	}
}

// TestPerformedAt covers dated and undated file names.
func TestPerformedAt(t *testing.T) {
	f := File{Path: "/notes/2026-03-02 legs.md"}
	got := f.PerformedAt()
	if got == nil || !got.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("PerformedAt = %v, want 2026-03-02", got)
	}
	for _, p := range []string{"/notes/legs.md", "/notes/2026-13-40.md", "/2026-03-02/legs.md"} {
		if got := (File{Path: p}).PerformedAt(); got != nil {
			t.Errorf("PerformedAt(%q) = %v, want nil", p, got)
		}
	}
}
