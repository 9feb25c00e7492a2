package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_sessions",
			mcp.WithDescription("List the most recent ASTM session audit records (both client and server role)"),
			mcp.WithNumber("limit",
				mcp.Description("Maximum rows to return (default 100)"),
			),
		),
		s.handleListSessions,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_session",
			mcp.WithDescription("Get one ASTM session's audit record by ID"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Session ID"),
			),
		),
		s.handleGetSession,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("server_status",
			mcp.WithDescription("Get a live summary of the ASTM server engine: the number of sessions currently open"),
		),
		s.handleServerStatus,
	)
}
