// Package mcp exposes the workout program over the Model Context Protocol so
// LLM assistants can answer questions about training history, streaks, and
// progression.
package mcp

import (
	"log/slog"

	"github.com/claude/posecoach/internal/program"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(agg *program.Aggregator, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("PoseCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("PoseCoach workout tracking server. Query exercise progress, session history, weekly stats, and personal records for the camera-tracked posture program."),
	)

	h := &handlers{agg: agg, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetWeeklyStats, Handler: h.getWeeklyStats},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resProgramSummary, Handler: h.programSummary},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	agg *program.Aggregator
	log *slog.Logger
}

// --- Resource definitions ---

var resProgramSummary = mcp.NewResource(
	"posecoach://program_summary",
	"Program Summary",
	mcp.WithResourceDescription("Current level, streak, and personal record per exercise, plus this week's training stats"),
	mcp.WithMIMEType("application/json"),
)
