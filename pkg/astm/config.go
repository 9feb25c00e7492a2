package astm

import (
	"time"

	"github.com/labconn/astm/pkg/astm/flow"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Config collects the options enumerated in the specification (host/port,
// encoding, timeout, retry budget, chunk size, bulk mode, and the record
// flow transition table) into a single explicit struct, rather than a long
// keyword-argument list.
type Config struct {
	// Host and Port address the remote (client) or bind (server) endpoint.
	Host string
	Port int

	// Encoding is the byte encoding used for non-bytes scalar fields.
	// The zero value is treated as Latin-1 (ISO-8859-1), the ASTM default.
	Encoding encoding.Encoding

	// Timeout is the inactivity timeout armed on every send and reset on
	// every receive. Zero disables the timer.
	Timeout time.Duration

	// RetryAttempts bounds how many times the client re-sends ENQ after a
	// NAK or an init-state timeout before surfacing ErrRejected.
	RetryAttempts int

	// ChunkSize, if non-zero, must be >= constants.MinChunkSize. It bounds
	// the size of each encoded message chunk.
	ChunkSize int

	// BulkMode buffers all records of one logical session and encodes them
	// into a single (possibly chunked) message instead of one message per
	// record.
	BulkMode bool

	// FlowMap is the record-order transition table. A nil map disables
	// record-flow validation (pass-through).
	FlowMap flow.Table
}

// DefaultTimeout is the client-side inactivity timeout used when Config
// leaves Timeout unset via NewClientConfig.
const DefaultTimeout = 20 * time.Second

// DefaultRetryAttempts is the ENQ retry budget used when Config leaves
// RetryAttempts unset via NewClientConfig.
const DefaultRetryAttempts = 3

// EncodingOrDefault returns c.Encoding, falling back to Latin-1 (the ASTM
// default encoding) when unset.
func (c Config) EncodingOrDefault() encoding.Encoding {
	if c.Encoding == nil {
		return charmap.ISO8859_1
	}
	return c.Encoding
}

// NewClientConfig returns a Config with the client-side defaults applied:
// a 20s inactivity timeout, 3 ENQ retry attempts, and the standard
// record-flow transition table.
func NewClientConfig(host string, port int) Config {
	return Config{
		Host:          host,
		Port:          port,
		Timeout:       DefaultTimeout,
		RetryAttempts: DefaultRetryAttempts,
		FlowMap:       flow.Standard(),
	}
}

// NewServerConfig returns a Config with the server-side defaults applied:
// no inactivity timeout (left to the caller) and the standard record-flow
// transition table.
func NewServerConfig(host string, port int) Config {
	return Config{
		Host:    host,
		Port:    port,
		FlowMap: flow.Standard(),
	}
}
