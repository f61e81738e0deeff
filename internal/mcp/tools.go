package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/claude/wodscribe/internal/ingest"
	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/parse"
	"github.com/claude/wodscribe/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last days days.
func defaultTimeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolParseWorkout = mcp.NewTool("parse_workout",
	mcp.WithDescription("Parse a free-text workout description into blocks and exercises without storing it. Each exercise has a confidence of high (known exercise), medium, or low (raw line kept as the name)."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Workout text, one exercise per line (e.g. 'STRENGTH\\nA1: Bench Press 4x8 @ 80kg\\nA2: Pull Ups X10')")),
	mcp.WithBoolean("spans", mcp.Description("Also return the tagged entity spans for every line. Defaults to false.")),
)

var toolSaveWorkout = mcp.NewTool("save_workout",
	mcp.WithDescription("Parse and store a workout description. Saving identical text again returns the existing workout's ID."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Workout text")),
	mcp.WithString("performed_at", mcp.Description("When the workout was done (ISO 8601 or YYYY-MM-DD)")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get a stored workout with its blocks and exercises."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID (UUID)")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List stored workout summaries, newest first."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("title", mcp.Description("Filter by title (partial match)")),
	mcp.WithString("exercise", mcp.Description("Filter by canonical exercise name (e.g. 'Back Squat')")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts. Defaults to 100.")),
)

var toolListStructures = mcp.NewTool("list_structures",
	mcp.WithDescription("List the block structures (sets, superset, amrap, emom, ...) and the header keywords that select each one."),
)

var toolTrainingSummary = mcp.NewTool("training_summary",
	mcp.WithDescription("Training volume per week or month: workouts, exercises, sets, reps, tonnage in kg, and block structures used. Exercises without a stated set count count as one set."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("week or month. Defaults to week.")),
)

var toolExerciseProgression = mcp.NewTool("exercise_progression",
	mcp.WithDescription("History of one exercise across workouts, oldest first: sets, reps, heaviest load in kg, and tonnage per workout."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name; common spellings are mapped to the canonical name (e.g. 'bench' -> 'Bench Press')")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 365 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolDataStats = mcp.NewTool("data_stats",
	mcp.WithDescription("Totals over all stored workouts: counts, date range, workouts per source, and the most frequent exercises."),
	mcp.WithNumber("top", mcp.Description("Number of top exercises to return. Defaults to 10.")),
)

// --- Tool handlers ---

func (h *handlers) parseWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	w, err := h.parser.Parse(text)
	if err != nil {
		return parseError(err), nil
	}

	out := map[string]any{"workout": w}
	if req.GetBool("spans", false) {
		lines, _ := h.parser.Tag(text)
		out["lines"] = lines
	}
	return jsonResult(out), nil
}

func (h *handlers) saveWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	meta := models.WorkoutMeta{
		Source:     models.SourceText,
		SourceHash: ingest.SourceHash(models.SourceText, text),
		RawText:    text,
	}
	if v := req.GetString("performed_at", ""); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		meta.PerformedAt = &t
	}

	w, err := h.parser.Parse(text)
	if err != nil {
		return parseError(err), nil
	}

	id, created, err := h.ds.InsertWorkout(ctx, w, meta)
	if err != nil {
		h.log.Error("mcp save_workout", "error", err)
		return mcp.NewToolResultError("save failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{
		"id":      id,
		"created": created,
		"workout": w,
	}), nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid workout ID"), nil
	}

	sw, err := h.ds.GetWorkout(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("workout not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sw), nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	workouts, err := h.ds.QueryWorkouts(ctx, storage.WorkoutFilter{
		Start:    start,
		End:      end,
		Title:    req.GetString("title", ""),
		Exercise: req.GetString("exercise", ""),
		Limit:    req.GetInt("limit", storage.DefaultWorkoutLimit),
	})
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(workouts), nil
}

func (h *handlers) listStructures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.parser.Lexicon().StructureKeywords()), nil
}

func (h *handlers) trainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 90)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bucket := req.GetString("bucket", "week")
	if bucket != "week" && bucket != "month" {
		return mcp.NewToolResultError("bucket must be week or month"), nil
	}

	periods, err := h.ds.GetTrainingSummary(ctx, start, end, bucket)
	if err != nil {
		h.log.Error("mcp training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(periods), nil
}

func (h *handlers) exerciseProgression(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	if canonical, _, ok := h.parser.Lexicon().Canonicalize(name); ok {
		name = canonical
	}
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 365)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	entries, err := h.ds.GetExerciseProgression(ctx, name, start, end)
	if err != nil {
		h.log.Error("mcp exercise_progression", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{"exercise": name, "workouts": entries}), nil
}

func (h *handlers) dataStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetDataStats(ctx, req.GetInt("top", 10))
	if err != nil {
		h.log.Error("mcp data_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats), nil
}

func parseError(err error) *mcp.CallToolResult {
	var verr *models.ValidationError
	switch {
	case errors.Is(err, parse.ErrInputTooLarge):
		return mcp.NewToolResultError("workout text is too long")
	case errors.As(err, &verr):
		return mcp.NewToolResultError(verr.Error())
	}
	return mcp.NewToolResultError("parse failed: " + err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}
