// Package mcp exposes the workout parser and stored workouts over the Model
// Context Protocol.
package mcp

import (
	"log/slog"

	"github.com/claude/wodscribe/internal/parse"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, parser *parse.Parser, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("wodscribe", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("wodscribe turns free-text workout descriptions into structured workouts. "+
			"Use parse_workout to preview how text is read, save_workout to store it, and list_workouts/get_workout to look workouts up."),
	)

	h := &handlers{ds: ds, parser: parser, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolParseWorkout, Handler: h.parseWorkout},
		server.ServerTool{Tool: toolSaveWorkout, Handler: h.saveWorkout},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolListStructures, Handler: h.listStructures},
		server.ServerTool{Tool: toolTrainingSummary, Handler: h.trainingSummary},
		server.ServerTool{Tool: toolExerciseProgression, Handler: h.exerciseProgression},
		server.ServerTool{Tool: toolDataStats, Handler: h.dataStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resStructures, Handler: h.structures},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerResource{Resource: resStats, Handler: h.stats},
	)
	s.AddResourceTemplate(resWorkout, h.workout)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds     DataSource
	parser *parse.Parser
	log    *slog.Logger
}
