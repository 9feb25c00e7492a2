// Package server implements the server-role link engine: the receiving
// half of an ASTM session. Each accepted connection owns one Engine
// with its own chunk-reassembly buffer, mirroring how
// zigbee.ASHLayer.readLoop/processFrame reassemble DATA frames on one
// connection before handing payloads off — generalized here to
// ENQ/ACK/NAK/EOT framing and record dispatch instead of EZSP.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/labconn/astm/pkg/astm"
	"github.com/labconn/astm/pkg/astm/codec"
	"github.com/labconn/astm/pkg/astm/constants"
	"github.com/labconn/astm/pkg/astm/dispatch"
	"github.com/labconn/astm/pkg/astm/link"
	"github.com/labconn/astm/pkg/astm/transport"
)

// Engine drives one accepted server-side connection to completion. An
// Engine is single-use: call Run once per accepted connection.
type Engine struct {
	cfg     astm.Config
	conn    transport.Transport
	r       *bufio.Reader
	machine *link.Machine
	timer   link.Timer
	seps    constants.Separators
	logger  zerolog.Logger
	id      xid.ID

	// reassembly buffers ETB-terminated (non-final) chunk bodies until
	// the CR-ETX-terminated final chunk arrives.
	reassembly [][]byte
}

// New builds an Engine bound to conn. cfg is normally produced by
// astm.NewServerConfig. Each Engine gets its own sortable,
// allocation-free xid correlation ID, logged on every line for this
// connection and available via ConnectionID for the caller to use as
// the same key in the session audit store.
func New(cfg astm.Config, conn transport.Transport) *Engine {
	id := xid.New()
	return &Engine{
		cfg:     cfg,
		conn:    conn,
		r:       bufio.NewReader(conn),
		machine: link.New(),
		timer:   link.StdTimer{},
		seps:    constants.Default(),
		id:      id,
		logger:  log.With().Str("component", "astm.server").Str("conn_id", id.String()).Logger(),
	}
}

// ConnectionID returns this Engine's correlation ID.
func (e *Engine) ConnectionID() string {
	return e.id.String()
}

func (e *Engine) WithTimer(t link.Timer) *Engine {
	e.timer = t
	return e
}

// Run reads tokens from conn until the peer disconnects or a fatal
// protocol/timeout error occurs, dispatching every decoded record to d.
// An EOT ends the current session and returns the engine to init to
// await the next ENQ. A disconnect in init (no session open) returns
// nil; a disconnect mid-session returns the read error. It always closes
// the connection before returning.
func (e *Engine) Run(ctx context.Context, d dispatch.Dispatcher) error {
	defer e.conn.Close()
	e.machine.SetState(link.Init)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		tok, msg, err := e.readWithTimeout(link.ModeFor(e.machine.State()))
		if err != nil {
			if errors.Is(err, io.EOF) && e.machine.State() == link.Init {
				return nil
			}
			if errors.Is(err, astm.ErrTimeout) {
				e.logger.Warn().Str("state", e.machine.State().String()).Msg("inactivity timeout, closing")
			}
			return err
		}

		switch e.machine.State() {
		case link.Init:
			switch tok {
			case link.EnqToken:
				e.machine.SetState(link.Transfer)
				e.reassembly = nil
				if err := e.sendControl(constants.ACK); err != nil {
					return err
				}
			default:
				// Only one sender at a time: anything but ENQ while idle
				// is answered with NAK rather than torn down.
				if err := e.sendControl(constants.NAK); err != nil {
					return err
				}
			}

		case link.Transfer:
			switch tok {
			case link.EnqToken:
				// A session is already open; the protocol allows only
				// one sender at a time.
				if err := e.sendControl(constants.NAK); err != nil {
					return err
				}
			case link.EotToken:
				e.machine.Reset()
				e.reassembly = nil
			case link.MessageToken:
				if err := e.handleMessage(ctx, d, msg); err != nil {
					return err
				}
			default:
				return link.UnexpectedToken(link.Transfer, tok)
			}

		default:
			return link.UnexpectedToken(e.machine.State(), tok)
		}
	}
}

// handleMessage parses and checksum-verifies one frame. An ETB-final
// frame is appended to the reassembly buffer and ACK'd without being
// dispatched yet. A CR-ETX-final frame either stands alone or concludes
// a chunked message; either way its records are dispatched once
// assembled. A malformed frame or checksum mismatch is NAK'd and the
// buffer is left untouched, per spec (the server never advances the
// buffer on a bad frame).
func (e *Engine) handleMessage(ctx context.Context, d dispatch.Dispatcher, msg []byte) error {
	if codec.IsChunkedMessage(msg) {
		if !verifyChunkChecksum(msg) {
			return e.nak()
		}
		e.reassembly = append(e.reassembly, msg)
		return e.sendControl(constants.ACK)
	}

	var full []byte
	if len(e.reassembly) > 0 {
		if !verifyChunkChecksum(msg) {
			return e.nak()
		}
		joined, err := codec.Join(append(e.reassembly, msg))
		if err != nil {
			return e.nak()
		}
		full = joined
	} else {
		full = msg
	}

	_, records, _, err := codec.DecodeMessage(full, e.seps)
	if err != nil {
		return e.nak()
	}
	e.reassembly = nil

	records, err = astm.DecodeText(records, e.cfg.EncodingOrDefault())
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to decode record text")
		return e.nak()
	}

	for _, rec := range records {
		if dispatchErr := dispatch.Demux(ctx, d, rec); dispatchErr != nil {
			e.logger.Warn().Err(dispatchErr).Msg("dispatcher rejected record")
			return e.nak()
		}
	}
	return e.sendControl(constants.ACK)
}

// verifyChunkChecksum validates an ETB-terminated chunk's checksum
// without attempting to decode (possibly partial) records from it — a
// chunk boundary can fall mid-field.
func verifyChunkChecksum(msg []byte) bool {
	if len(msg) < 7 || msg[0] != constants.STX {
		return false
	}
	data := msg[1 : len(msg)-4]
	cs := string(msg[len(msg)-4 : len(msg)-2])
	return codec.Checksum(data) == cs
}

func (e *Engine) nak() error { return e.sendControl(constants.NAK) }

func (e *Engine) sendControl(b byte) error {
	_, err := e.conn.Write([]byte{b})
	return err
}

func (e *Engine) readWithTimeout(mode link.ReadMode) (link.Token, []byte, error) {
	var handle link.TimerHandle
	if e.cfg.Timeout > 0 {
		handle = e.timer.Schedule(e.cfg.Timeout, func() {
			_ = e.conn.SetReadDeadline(time.Now())
		})
	}

	tok, msg, err := link.ReadToken(e.r, mode)
	if handle != nil {
		handle.Cancel()
	}
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, nil, astm.ErrTimeout
		}
		return 0, nil, err
	}
	return tok, msg, nil
}
