// Package emitter defines the record source the client engine pulls
// from. The protocol this engine is modeled on historically drove this
// producer as a generator coroutine (resumed with .send(accepted)); Go
// has no coroutine primitive with that shape, so the contract is
// expressed as an explicit pull-with-feedback method instead, the way
// zigbee.EZSPLayer.SendCommand exposes a blocking request/response call
// rather than a resumable generator.
package emitter

import (
	"errors"

	"github.com/labconn/astm/pkg/astm/codec"
)

// End is returned by Next to signal that the session has no more
// records to send. The client engine flushes any buffered output, sends
// EOT, and closes the connection.
var End = errors.New("astm emitter: end of session")

// Emitter is the client engine's record source.
//
// Next is called once per record the engine is ready to send. On the
// first call of a session feedback is nil. On every subsequent call,
// feedback reports whether the previously returned record was accepted
// (true, ACK'd by the peer) or rejected (false, NAK'd); an Emitter may
// respond to a rejection either by returning a replacement record or by
// returning End to abandon the session.
//
// Close is called exactly once per session, however it ends: a clean
// End from Next, a protocol error, or context cancellation. sessionErr
// is nil on a clean end and the terminating error otherwise, so an
// Emitter backed by a file or a database cursor can release it on
// either path rather than leaking on every non-clean exit.
type Emitter interface {
	Next(feedback *bool) (codec.Record, error)
	Close(sessionErr error) error
}

// Func adapts a plain function to the Emitter interface. Close is a
// no-op: a bare function has nothing of its own to release.
type Func func(feedback *bool) (codec.Record, error)

func (f Func) Next(feedback *bool) (codec.Record, error) { return f(feedback) }

func (f Func) Close(sessionErr error) error { return nil }

// Slice returns an Emitter that yields records from a fixed slice in
// order. It never offers a replacement on rejection — a NAK'd record
// simply ends the session, since there is nothing else to send in its
// place. This is the emitter used by cmd/astmsend and in most tests.
func Slice(records []codec.Record) Emitter {
	s := &sliceEmitter{records: records}
	return Func(s.next)
}

type sliceEmitter struct {
	records []codec.Record
	pos     int
	done    bool
}

func (s *sliceEmitter) next(feedback *bool) (codec.Record, error) {
	if s.done {
		return nil, End
	}
	if feedback != nil && !*feedback {
		s.done = true
		return nil, End
	}
	if s.pos >= len(s.records) {
		s.done = true
		return nil, End
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}
