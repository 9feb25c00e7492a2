// Package mcpserver exposes the session audit log as an MCP tool
// surface over stdio, adapted from the teacher's pkg/mcp package (same
// mcp-go wiring, tool-per-capability style) with the Zigbee device
// tools replaced by session-introspection tools.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/labconn/astm/pkg/admin"
	"github.com/labconn/astm/pkg/store"
)

// Server wraps the MCP server with read-only access to the session
// audit log and live server status.
type Server struct {
	mcpServer *server.MCPServer
	sessions  store.SessionStore
	metrics   *admin.Metrics
}

// NewServer creates a new MCP server over sessions and metrics.
func NewServer(sessions store.SessionStore, metrics *admin.Metrics) *Server {
	s := &Server{sessions: sessions, metrics: metrics}

	s.mcpServer = server.NewMCPServer(
		"astm",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()
	return s
}

// ServeStdio starts the MCP server over stdio. It blocks until stdin
// closes or an unrecoverable transport error occurs.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
