// Package client implements the client-role link engine: the sending
// half of an ASTM session. It drives ENQ, a record-by-record transfer
// loop pulled from an emitter.Emitter, and a closing EOT — against
// either role's Transport — the way zigbee.ASHLayer.Connect/SendData
// drive the ASH RST/DATA handshake over a serial line, generalized to
// an arbitrary byte transport and the ASTM token set.
package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/labconn/astm/pkg/astm"
	"github.com/labconn/astm/pkg/astm/codec"
	"github.com/labconn/astm/pkg/astm/constants"
	"github.com/labconn/astm/pkg/astm/emitter"
	"github.com/labconn/astm/pkg/astm/flow"
	"github.com/labconn/astm/pkg/astm/link"
	"github.com/labconn/astm/pkg/astm/transport"
)

// Engine drives one client session over a single Transport connection.
// An Engine is single-use: call Run once, then discard it.
type Engine struct {
	cfg     astm.Config
	conn    transport.Transport
	r       *bufio.Reader
	machine *link.Machine
	timer   link.Timer
	seps    constants.Separators
	logger  zerolog.Logger

	// bulkBuffer accumulates records in BulkMode until a terminator (L)
	// record or emitter end, at which point they are sent as one message.
	bulkBuffer []codec.Record
}

// New builds an Engine bound to conn. cfg is normally produced by
// astm.NewClientConfig.
func New(cfg astm.Config, conn transport.Transport) *Engine {
	return &Engine{
		cfg:     cfg,
		conn:    conn,
		r:       bufio.NewReader(conn),
		machine: link.New(),
		timer:   link.StdTimer{},
		seps:    constants.Default(),
		logger:  log.With().Str("component", "astm.client").Logger(),
	}
}

// WithTimer overrides the default stdlib-backed Timer, primarily so
// tests can control expiry deterministically.
func (e *Engine) WithTimer(t link.Timer) *Engine {
	e.timer = t
	return e
}

// Run drives a single session to completion: ENQ, the record transfer
// loop pulled from em, and a closing EOT. It returns nil on a clean
// end-of-session and one of the astm.Error kinds on failure. The
// connection is always closed before Run returns, and em.Close is
// always called with the session's outcome (nil on a clean end),
// however the loop exits: normal completion, a protocol error, or
// context cancellation.
func (e *Engine) Run(ctx context.Context, em emitter.Emitter) (err error) {
	defer e.conn.Close()
	defer func() { _ = em.Close(err) }()

	fm := flow.New(e.cfg.FlowMap)
	seq := 1
	attempts := 0

	e.machine.SetState(link.Init)
	e.logger.Debug().Msg("sending ENQ")
	if err := e.sendControl(constants.ENQ); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		tok, err := e.readWithTimeout(link.ModeFor(e.machine.State()))
		if err != nil {
			if !errors.Is(err, astm.ErrTimeout) {
				return err
			}
			if e.machine.State() == link.Init {
				// Timeout on ENQ is equivalent to a NAK.
				attempts++
				if attempts > e.cfg.RetryAttempts {
					return astm.ErrRejected
				}
				e.logger.Warn().Int("attempt", attempts).Msg("ENQ timed out, retrying")
				if err := e.sendControl(constants.ENQ); err != nil {
					return err
				}
				continue
			}
			e.logger.Warn().Str("state", e.machine.State().String()).Msg("inactivity timeout, closing")
			_ = e.sendControl(constants.EOT)
			e.machine.Reset()
			return err
		}

		switch e.machine.State() {
		case link.Init:
			switch tok {
			case link.AckToken:
				attempts = 0
				e.machine.SetState(link.Opened)
				if err := e.sendNextRecord(&fm, &seq, em, nil); err != nil {
					if errors.Is(err, errSessionDone) {
						return nil
					}
					return e.abortSession(err)
				}
			case link.NakToken:
				attempts++
				if attempts > e.cfg.RetryAttempts {
					return astm.ErrRejected
				}
				e.logger.Warn().Int("attempt", attempts).Msg("ENQ NAK'd, retrying")
				if err := e.sendControl(constants.ENQ); err != nil {
					return err
				}
			default:
				return link.UnexpectedToken(link.Init, tok)
			}

		case link.Opened:
			switch tok {
			case link.AckToken:
				// The header frame sent on entry to Opened was accepted;
				// the session is fully open, so the rest of the session
				// behaves exactly like any other accepted record in
				// Transfer.
				e.machine.SetState(link.Transfer)
				accepted := true
				if err := e.sendNextRecord(&fm, &seq, em, &accepted); err != nil {
					if errors.Is(err, errSessionDone) {
						return nil
					}
					return e.abortSession(err)
				}
			case link.NakToken:
				// opened-state NAK is a fatal header rejection, not an
				// ENQ retry (unlike a NAK received in init).
				return astm.ErrRejected
			default:
				return link.UnexpectedToken(link.Opened, tok)
			}

		case link.Transfer:
			switch tok {
			case link.AckToken:
				accepted := true
				if err := e.sendNextRecord(&fm, &seq, em, &accepted); err != nil {
					if errors.Is(err, errSessionDone) {
						return nil
					}
					return e.abortSession(err)
				}
			case link.NakToken:
				rejected := false
				if err := e.sendNextRecord(&fm, &seq, em, &rejected); err != nil {
					if errors.Is(err, errSessionDone) {
						return nil
					}
					return e.abortSession(err)
				}
			default:
				return link.UnexpectedToken(link.Transfer, tok)
			}
		}
	}
}

// errSessionDone signals a clean, already-handled end of session (EOT
// sent, state reset) up through sendNextRecord/flushAndClose to Run,
// which translates it to a nil return instead of treating it as a
// failure like any other non-nil error from those calls.
var errSessionDone = errors.New("astm client: session complete")

// sendNextRecord pulls the next record from em, validates its position
// in the record-flow state machine, and sends it (chunked if
// cfg.ChunkSize is set). After a terminator record (L) the link moves to
// termination: the L frame's ACK is awaited and then EOT is sent, ending
// the session; a NAK for it is fed back to em as false. An End from the
// emitter also ends the session, after flushing EOT.
func (e *Engine) sendNextRecord(fm *flow.Machine, seq *int, em emitter.Emitter, feedback *bool) error {
	for {
		rec, err := em.Next(feedback)
		if errors.Is(err, emitter.End) {
			return e.flushAndClose(seq)
		}
		if err != nil {
			return err
		}

		typeCode, err := codec.TypeCode(rec)
		if err != nil {
			return astm.NewError(astm.KindMalformedFrame, err)
		}
		if err := fm.Next(typeCode); err != nil {
			return astm.NewError(astm.KindInvalidRecordOrder, err)
		}

		if e.cfg.BulkMode {
			e.bulkBuffer = append(e.bulkBuffer, rec)
			if typeCode == 'L' {
				return e.flushAndClose(seq)
			}
			// Nothing went on the wire yet, so there is no ACK for the
			// outer loop to wait on; pull the next record ourselves.
			accepted := true
			feedback = &accepted
			continue
		}

		newSeq, err := e.sendRecords(*seq, []codec.Record{rec})
		*seq = newSeq
		if err != nil {
			return err
		}
		if typeCode == 'L' {
			e.machine.SetState(link.Termination)
			tok, err := e.readWithTimeout(link.ByteMode)
			if err != nil {
				return err
			}
			switch tok {
			case link.AckToken:
				return e.closeSession()
			case link.NakToken:
				rejected := false
				feedback = &rejected
				continue
			default:
				return link.UnexpectedToken(link.Termination, tok)
			}
		}
		return nil
	}
}

// flushAndClose sends any buffered bulk-mode records as one message,
// waits for that message's final-chunk ACK/NAK, and sends EOT. It is
// also the plain end-of-session path when BulkMode is off and the
// buffer is empty.
func (e *Engine) flushAndClose(seq *int) error {
	if len(e.bulkBuffer) > 0 {
		records := e.bulkBuffer
		e.bulkBuffer = nil

		newSeq, err := e.sendRecords(*seq, records)
		*seq = newSeq
		if err != nil {
			return err
		}

		tok, err := e.readWithTimeout(link.ByteMode)
		if err != nil {
			return err
		}
		if tok == link.NakToken {
			return astm.ErrRejected
		}
		if tok != link.AckToken {
			return link.UnexpectedToken(link.Transfer, tok)
		}
	}
	return e.closeSession()
}

// sendRecords transcodes records to the session's configured encoding,
// encodes them into one message, chunking it if cfg.ChunkSize is set,
// and writes every chunk but the last to the wire, waiting for that
// chunk's ACK before sending the next (chunking is transparent to the
// caller beyond that wait). The final chunk is written but its
// response is left for the caller's next read, exactly as a
// non-chunked record's single ACK/NAK would be.
func (e *Engine) sendRecords(seq int, records []codec.Record) (int, error) {
	encoded, err := astm.EncodeText(records, e.cfg.EncodingOrDefault())
	if err != nil {
		return seq, astm.NewError(astm.KindMalformedFrame, err)
	}

	chunks, err := codec.Encode(encoded, e.seps, e.cfg.ChunkSize, seq)
	if err != nil {
		return seq, astm.NewError(astm.KindInvalidChunkSize, err)
	}

	for i, chunk := range chunks {
		if _, err := e.conn.Write(chunk); err != nil {
			return seq, err
		}
		seq++
		if i == len(chunks)-1 {
			break
		}

		tok, err := e.readWithTimeout(link.ByteMode)
		if err != nil {
			return seq, err
		}
		switch tok {
		case link.AckToken:
			continue
		case link.NakToken:
			// A NAK mid-chunk means the peer rejected the partial
			// transfer; there is no well-defined "replacement chunk",
			// so this fails the session the same way an ENQ-retry
			// budget exhaustion would.
			return seq, astm.ErrRejected
		default:
			return seq, link.UnexpectedToken(link.Transfer, tok)
		}
	}
	return seq, nil
}

// closeSession resets the state machine to Init, then sends EOT — state
// change before EOT, per the resolved source ambiguity over ordering —
// and reports a clean session end (errSessionDone).
func (e *Engine) closeSession() error {
	e.machine.Reset()
	if err := e.sendControl(constants.EOT); err != nil {
		return err
	}
	return errSessionDone
}

// abortSession resets the link state and best-effort sends EOT before
// returning err unchanged, so a protocol violation detected while
// preparing or sending a record (malformed frame, invalid record
// order, a rejected mid-chunk NAK, ...) still ends the session with
// EOT whenever the connection allows it, the same as the inactivity
// timeout path above. The EOT write's own error is deliberately
// ignored: err is what the session actually failed on.
func (e *Engine) abortSession(err error) error {
	_ = e.sendControl(constants.EOT)
	e.machine.Reset()
	return err
}

func (e *Engine) sendControl(b byte) error {
	_, err := e.conn.Write([]byte{b})
	return err
}

// readWithTimeout arms e.timer before the blocking read and forces it
// to unblock (via SetReadDeadline) if the timer fires first, reporting
// astm.ErrTimeout. Fetching a token cancels the timer, matching the
// "armed on send, reset on receive" rule in the spec's timer contract:
// here, every read immediately follows a send, so arming at read time
// is equivalent to arming at send time.
func (e *Engine) readWithTimeout(mode link.ReadMode) (link.Token, error) {
	var handle link.TimerHandle
	if e.cfg.Timeout > 0 {
		handle = e.timer.Schedule(e.cfg.Timeout, func() {
			_ = e.conn.SetReadDeadline(time.Now())
		})
	}

	tok, _, err := link.ReadToken(e.r, mode)
	if handle != nil {
		handle.Cancel()
	}
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, astm.ErrTimeout
		}
		return 0, err
	}
	return tok, nil
}
