package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/parse"
	"github.com/claude/wodscribe/internal/storage/storagetest"
	"github.com/mark3labs/mcp-go/mcp"
)

func newHandlers(t *testing.T, opts ...parse.Option) (*handlers, *storagetest.Store) {
	t.Helper()
	lex, err := parse.DefaultLexicon()
	if err != nil {
		t.Fatal(err)
	}
	store := storagetest.New()
	return &handlers{
		ds:     store,
		parser: parse.New(lex, opts...),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, store
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want mcp.TextContent", res.Content[0])
	}
	return tc.Text
}

// TestDefaultTimeRange verifies time range defaults and parsing.
func TestDefaultTimeRange(t *testing.T) {
	start, end, err := defaultTimeRange("", "", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 167 || diff.Hours() > 169 { // ~168 hours = 7 days
		t.Errorf("default range = %.0f hours, want ~168", diff.Hours())
	}

	start, end, err = defaultTimeRange("2024-01-01", "2024-01-31", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Day() != 1 || end.Day() != 31 {
		t.Errorf("range = %v..%v, want 2024-01-01..2024-01-31", start, end)
	}

	start, _, err = defaultTimeRange("2024-06-15T10:30:00Z", "", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	if _, _, err = defaultTimeRange("not-a-date", "", 7); err == nil {
		t.Error("expected error for invalid date")
	}
}

// TestParseWorkoutTool verifies the tool returns the parsed workout and, on
// request, the tagged lines.
func TestParseWorkoutTool(t *testing.T) {
	h, store := newHandlers(t)
	res, err := h.parseWorkout(context.Background(), callRequest("parse_workout", map[string]any{
		"text":  "AMRAP 12 min\n10 Burpees\n15 KB Swings @ 24kg",
		"spans": true,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	var out struct {
		Workout *models.Workout    `json:"workout"`
		Lines   []parse.TaggedLine `json:"lines"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Workout.Title != "AMRAP 12 min" || out.Workout.Blocks[0].Structure() != models.StructureAMRAP {
		t.Errorf("workout = %q/%s, want AMRAP block", out.Workout.Title, out.Workout.Blocks[0].Structure())
	}
	if len(out.Lines) != 3 {
		t.Errorf("lines = %d, want 3", len(out.Lines))
	}
	if store.Len() != 0 {
		t.Errorf("stored = %d, want 0", store.Len())
	}
}

// TestParseWorkoutToolErrors verifies bad input comes back as a tool error
// rather than a protocol error.
func TestParseWorkoutToolErrors(t *testing.T) {
	h, _ := newHandlers(t, parse.WithMaxInput(5))
	res, err := h.parseWorkout(context.Background(), callRequest("parse_workout", map[string]any{"text": "Squat 5x5"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "too long") {
		t.Errorf("oversize result = %+v, want too long error", res)
	}

	res, _ = h.parseWorkout(context.Background(), callRequest("parse_workout", map[string]any{}))
	if !res.IsError {
		t.Error("missing text should be a tool error")
	}
}

// TestSaveAndGetWorkoutTools verifies a saved workout can be fetched and
// listed, and that saving again is idempotent.
func TestSaveAndGetWorkoutTools(t *testing.T) {
	h, store := newHandlers(t)
	ctx := context.Background()
	args := map[string]any{"text": "Legs:\nBack Squat 5x5 @ 120kg", "performed_at": "2026-03-02"}

	res, err := h.saveWorkout(ctx, callRequest("save_workout", args))
	if err != nil || res.IsError {
		t.Fatalf("save_workout = %+v, %v", res, err)
	}
	var saved struct {
		ID      string `json:"id"`
		Created bool   `json:"created"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &saved); err != nil {
		t.Fatal(err)
	}
	if !saved.Created {
		t.Error("first save not created")
	}

	res, _ = h.saveWorkout(ctx, callRequest("save_workout", args))
	var again struct {
		ID      string `json:"id"`
		Created bool   `json:"created"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &again); err != nil {
		t.Fatal(err)
	}
	if again.Created || again.ID != saved.ID {
		t.Errorf("second save = %+v, want %s not created", again, saved.ID)
	}
	if store.Len() != 1 {
		t.Errorf("stored = %d, want 1", store.Len())
	}

	res, _ = h.getWorkout(ctx, callRequest("get_workout", map[string]any{"id": saved.ID}))
	if res.IsError || !strings.Contains(resultText(t, res), "Back Squat") {
		t.Errorf("get_workout = %s", resultText(t, res))
	}

	res, _ = h.listWorkouts(ctx, callRequest("list_workouts", map[string]any{"start": "2026-03-01", "end": "2026-03-03"}))
	var rows []models.WorkoutRow
	if err := json.Unmarshal([]byte(resultText(t, res)), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Title != "Legs" {
		t.Errorf("list_workouts = %+v, want Legs", rows)
	}

	res, _ = h.getWorkout(ctx, callRequest("get_workout", map[string]any{"id": "00000000-0000-0000-0000-000000000001"}))
	if !res.IsError {
		t.Error("missing workout should be a tool error")
	}
	res, _ = h.saveWorkout(ctx, callRequest("save_workout", map[string]any{"text": "x", "performed_at": "someday"}))
	if !res.IsError {
		t.Error("bad performed_at should be a tool error")
	}
}

// TestStructuresResource verifies the structures resource lists keywords.
func TestStructuresResource(t *testing.T) {
	h, _ := newHandlers(t)
	var req mcp.ReadResourceRequest
	req.Params.URI = "wodscribe://structures"

	contents, err := h.structures(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	var kw map[string][]string
	if err := json.Unmarshal([]byte(text), &kw); err != nil {
		t.Fatal(err)
	}
	if len(kw) != len(models.Structures()) {
		t.Errorf("structures = %d, want %d", len(kw), len(models.Structures()))
	}
}

// TestWorkoutResource verifies a saved workout can be read back by URI and
// malformed IDs are refused.
func TestWorkoutResource(t *testing.T) {
	h, _ := newHandlers(t)
	res, err := h.saveWorkout(context.Background(), callRequest("save_workout", map[string]any{
		"text": "Back Squat 5x5 @ 100kg",
	}))
	if err != nil || res.IsError {
		t.Fatalf("save_workout: %v %s", err, resultText(t, res))
	}
	var saved struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &saved); err != nil {
		t.Fatal(err)
	}

	var req mcp.ReadResourceRequest
	req.Params.URI = workoutURIPrefix + saved.ID
	contents, err := h.workout(context.Background(), req)
	if err != nil {
		t.Fatalf("workout resource: %v", err)
	}
	if text := contents[0].(mcp.TextResourceContents).Text; !strings.Contains(text, "Back Squat") {
		t.Errorf("resource = %s, want the squat workout", text)
	}

	req.Params.URI = workoutURIPrefix + "nope"
	if _, err := h.workout(context.Background(), req); err == nil {
		t.Error("expected error for invalid ID")
	}
}

// TestProgressionAndSummaryTools verifies the analysis tools read saved
// workouts and map exercise spellings to canonical names.
func TestProgressionAndSummaryTools(t *testing.T) {
	h, _ := newHandlers(t)
	ctx := context.Background()
	for _, args := range []map[string]any{
		{"text": "Legs:\nBack Squat 5x5 @ 100kg", "performed_at": "2026-03-02"},
		{"text": "Legs:\nBack Squat 5x3 @ 110kg", "performed_at": "2026-03-09"},
	} {
		res, err := h.saveWorkout(ctx, callRequest("save_workout", args))
		if err != nil || res.IsError {
			t.Fatalf("save_workout = %v, %v", resultText(t, res), err)
		}
	}

	res, err := h.exerciseProgression(ctx, callRequest("exercise_progression", map[string]any{
		"exercise": "back squats", "start": "2026-01-01", "end": "2026-04-01",
	}))
	if err != nil || res.IsError {
		t.Fatalf("exercise_progression = %v, %v", resultText(t, res), err)
	}
	var prog struct {
		Exercise string `json:"exercise"`
		Workouts []struct {
			Date      string   `json:"date"`
			MaxLoadKg *float64 `json:"max_load_kg"`
		} `json:"workouts"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &prog); err != nil {
		t.Fatal(err)
	}
	if prog.Exercise != "Back Squat" || len(prog.Workouts) != 2 {
		t.Fatalf("progression = %+v, want 2 Back Squat workouts", prog)
	}
	if prog.Workouts[1].Date != "2026-03-09" || prog.Workouts[1].MaxLoadKg == nil || *prog.Workouts[1].MaxLoadKg != 110 {
		t.Errorf("latest = %+v, want 2026-03-09 at 110kg", prog.Workouts[1])
	}

	res, err = h.trainingSummary(ctx, callRequest("training_summary", map[string]any{
		"start": "2026-03-01", "end": "2026-04-01", "bucket": "month",
	}))
	if err != nil || res.IsError {
		t.Fatalf("training_summary = %v, %v", resultText(t, res), err)
	}
	var periods []struct {
		Period   string `json:"period"`
		Workouts int    `json:"workouts"`
		Reps     int    `json:"reps"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &periods); err != nil {
		t.Fatal(err)
	}
	if len(periods) != 1 || periods[0].Workouts != 2 || periods[0].Reps != 40 {
		t.Errorf("periods = %+v, want one month with 2 workouts and 40 reps", periods)
	}

	res, _ = h.trainingSummary(ctx, callRequest("training_summary", map[string]any{"bucket": "year"}))
	if !res.IsError {
		t.Error("bucket=year: expected tool error")
	}

	res, err = h.dataStats(ctx, callRequest("data_stats", nil))
	if err != nil || res.IsError {
		t.Fatalf("data_stats = %v, %v", resultText(t, res), err)
	}
	var stats struct {
		TotalWorkouts int `json:"total_workouts"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalWorkouts != 2 {
		t.Errorf("total_workouts = %d, want 2", stats.TotalWorkouts)
	}
}
