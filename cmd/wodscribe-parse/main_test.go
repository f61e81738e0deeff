package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeNote(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestRunJSON verifies a note file prints as a JSON workout.
func TestRunJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, "json", false, "", "prefix", writeNote(t, "Legs:\nBack Squat 5x5")); err != nil {
		t.Fatal(err)
	}
	var out struct {
		Workout struct {
			Title string `json:"title"`
		} `json:"workout"`
		Lines []json.RawMessage `json:"lines"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out.Workout.Title != "Legs" {
		t.Errorf("title = %q, want Legs", out.Workout.Title)
	}
	if len(out.Lines) != 0 {
		t.Errorf("lines = %d, want none without -spans", len(out.Lines))
	}
}

// TestRunYAMLWithSpans verifies YAML output uses the JSON keys and carries
// the tagged lines.
func TestRunYAMLWithSpans(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, "yaml", true, "", "prefix", writeNote(t, "Legs:\nBack Squat 5x5")); err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	wk, ok := out["workout"].(map[string]any)
	if !ok || wk["title"] != "Legs" {
		t.Errorf("workout = %v, want title Legs", out["workout"])
	}
	if lines, ok := out["lines"].([]any); !ok || len(lines) != 2 {
		t.Errorf("lines = %v, want 2", out["lines"])
	}
}

// TestRunErrors verifies bad flags and files are reported.
func TestRunErrors(t *testing.T) {
	note := writeNote(t, "Squat 5x5")
	tests := []struct {
		name, format, grouping, path string
		want                         string
	}{
		{"format", "xml", "prefix", note, "unknown format"},
		{"grouping", "json", "sometimes", note, "grouping"},
		{"missing file", "json", "prefix", filepath.Join(t.TempDir(), "missing.md"), "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(&bytes.Buffer{}, tt.format, false, "", tt.grouping, tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}
