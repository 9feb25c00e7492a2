package mcpserver

import "time"

// SessionInfo is a session audit row in tool outputs.
type SessionInfo struct {
	ID          string     `json:"id" jsonschema:"description=Session identifier"`
	Role        string     `json:"role" jsonschema:"description=client or server"`
	PeerAddr    string     `json:"peer_addr,omitempty" jsonschema:"description=Remote peer address"`
	OpenedAt    time.Time  `json:"opened_at" jsonschema:"description=When the session was accepted"`
	ClosedAt    *time.Time `json:"closed_at,omitempty" jsonschema:"description=When the session ended, if it has"`
	Outcome     string     `json:"outcome" jsonschema:"description=open, completed, rejected, timeout, or error"`
	RecordCount int        `json:"record_count" jsonschema:"description=Records successfully dispatched"`
	RejectCount int        `json:"reject_count" jsonschema:"description=Frames NAK'd during the session"`
	LastError   string     `json:"last_error,omitempty" jsonschema:"description=The last error recorded for this session, if any"`
}

// ListSessionsOutput is the output of the list_sessions tool.
type ListSessionsOutput struct {
	Sessions []SessionInfo `json:"sessions" jsonschema:"description=Session audit rows, most recent first"`
	Count    int           `json:"count" jsonschema:"description=Number of rows returned"`
}

// GetSessionOutput is the output of the get_session tool.
type GetSessionOutput struct {
	Session SessionInfo `json:"session" jsonschema:"description=The requested session's audit record"`
}

// ServerStatusOutput is the output of the server_status tool.
type ServerStatusOutput struct {
	SessionsActive int64     `json:"sessions_active" jsonschema:"description=Sessions currently open"`
	Timestamp      time.Time `json:"timestamp" jsonschema:"description=When this status was sampled"`
}
