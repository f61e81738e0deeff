package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/wodscribe/internal/config"
)

// TestNewJSON verifies the json format writes one JSON object per record.
func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.LogConfig{Format: "JSON", Level: "info"})
	log.Info("workout stored", "exercises", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output %q is not JSON: %v", buf.String(), err)
	}
	if rec["msg"] != "workout stored" || rec["exercises"] != float64(3) {
		t.Errorf("record = %v, want msg and exercises", rec)
	}
}

// TestNewLevel verifies records below the configured level are dropped.
func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, config.LogConfig{Level: "warn"})
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("output = %q, want only the warning", out)
	}
}

// TestParseLevel verifies level names map case-insensitively with an info
// default.
func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
