package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/claude/wodscribe/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const workoutURIPrefix = "wodscribe://workouts/"

var resStructures = mcp.NewResource(
	"wodscribe://structures",
	"Block Structures",
	mcp.WithResourceDescription("Block structures a parsed workout can use, with the header keywords that select them"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"wodscribe://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resStats = mcp.NewResource(
	"wodscribe://stats",
	"Workout Stats",
	mcp.WithResourceDescription("Stored workout totals and the ten most frequent exercises"),
	mcp.WithMIMEType("application/json"),
)

var resWorkout = mcp.NewResourceTemplate(
	workoutURIPrefix+"{id}",
	"Workout",
	mcp.WithTemplateDescription("One stored workout with its blocks and exercises"),
	mcp.WithTemplateMIMEType("application/json"),
)

func (h *handlers) structures(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.parser.Lexicon().StructureKeywords())
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	workouts, err := h.ds.QueryWorkouts(ctx, storage.WorkoutFilter{Start: end.AddDate(0, 0, -14), End: end})
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, workouts)
}

func (h *handlers) stats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.ds.GetDataStats(ctx, 10)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, stats)
}

func (h *handlers) workout(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	raw, ok := strings.CutPrefix(req.Params.URI, workoutURIPrefix)
	if !ok {
		return nil, fmt.Errorf("unexpected workout URI %q", req.Params.URI)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid workout ID %q", raw)
	}
	sw, err := h.ds.GetWorkout(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, sw)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}
