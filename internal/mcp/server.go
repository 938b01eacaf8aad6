package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("WorkoutVault", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("WorkoutVault workout log. Browse workout templates and their exercises, completed sessions, and the loads recorded per exercise. Read-only."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkoutExercises, Handler: h.getWorkoutExercises},
		server.ServerTool{Tool: toolGetSessionHistory, Handler: h.getSessionHistory},
		server.ServerTool{Tool: toolGetSessionLoads, Handler: h.getSessionLoads},
		server.ServerTool{Tool: toolGetPreviousLoads, Handler: h.getPreviousLoads},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCatalog, Handler: h.catalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resCatalog = mcp.NewResource(
	"workoutvault://catalog",
	"Workout Catalog",
	mcp.WithResourceDescription("All workout templates with their ordered exercises and prescriptions"),
	mcp.WithMIMEType("application/json"),
)
