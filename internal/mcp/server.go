package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/gemstage/gemstage/internal/projects"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the project archive to agents.
type Server struct {
	projects *projects.Store
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server over the given project store.
func NewServer(store *projects.Store) *Server {
	s := &Server{
		projects: store,
	}

	s.mcp = server.NewMCPServer(
		"gemstage",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listProjectsTool, s.handleListProjects)
	s.mcp.AddTool(getProjectTool, s.handleGetProject)
	s.mcp.AddTool(getAnalysisTool, s.handleGetAnalysis)
	s.mcp.AddTool(listScenesTool, s.handleListScenes)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
