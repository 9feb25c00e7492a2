package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/labconn/astm/pkg/store"
)

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 100
	if v, ok := request.GetArguments()["limit"]; ok {
		if f, ok := v.(float64); ok && f > 0 {
			limit = int(f)
		}
	}

	rows, err := s.sessions.List(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %s", err)), nil
	}

	infos := make([]SessionInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, toSessionInfo(row))
	}

	out := ListSessionsOutput{Sessions: infos, Count: len(infos)}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	row, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no session with id %q", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to get session: %s", err)), nil
	}

	out := GetSessionOutput{Session: toSessionInfo(row)}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleServerStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := ServerStatusOutput{
		SessionsActive: s.metrics.ActiveCount(),
		Timestamp:      time.Now().UTC(),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func toSessionInfo(row *store.Session) SessionInfo {
	return SessionInfo{
		ID:          row.ID,
		Role:        row.Role,
		PeerAddr:    row.PeerAddr,
		OpenedAt:    row.OpenedAt,
		ClosedAt:    row.ClosedAt,
		Outcome:     string(row.Outcome),
		RecordCount: row.RecordCount,
		RejectCount: row.RejectCount,
		LastError:   row.LastError,
	}
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	str, ok := v.(string)
	if !ok || str == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return str, nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
