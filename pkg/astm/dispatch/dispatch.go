// Package dispatch defines the records dispatcher contract the server
// engine calls into for every decoded record, and a Demux helper that
// routes a record to the right method by its type code — the ASTM
// analogue of zigbee.Controller's handleCallback switch on EZSP frame
// ID.
package dispatch

import (
	"context"

	"github.com/labconn/astm/pkg/astm/codec"
)

// Dispatcher is the application-supplied consumer of decoded records.
// It is stateless with respect to the server engine: correlating, say,
// a Result back to its Patient or Order is the dispatcher's own
// responsibility, not the engine's.
//
// A dispatch method's error return causes the server engine to reply
// NAK for the frame that carried the record; a nil return replies ACK.
type Dispatcher interface {
	DispatchHeader(ctx context.Context, record codec.Record) error
	DispatchComment(ctx context.Context, record codec.Record) error
	DispatchPatient(ctx context.Context, record codec.Record) error
	DispatchOrder(ctx context.Context, record codec.Record) error
	DispatchResult(ctx context.Context, record codec.Record) error
	DispatchScientific(ctx context.Context, record codec.Record) error
	DispatchManufacturerInfo(ctx context.Context, record codec.Record) error
	DispatchTerminator(ctx context.Context, record codec.Record) error
	DispatchUnknown(ctx context.Context, record codec.Record) error
}

// Demux routes record to the Dispatcher method matching its type code.
// An empty or malformed record (no type code) is routed to
// DispatchUnknown, same as a recognized-but-foreign type code.
func Demux(ctx context.Context, d Dispatcher, record codec.Record) error {
	typeCode, err := codec.TypeCode(record)
	if err != nil {
		return d.DispatchUnknown(ctx, record)
	}
	switch typeCode {
	case 'H':
		return d.DispatchHeader(ctx, record)
	case 'C':
		return d.DispatchComment(ctx, record)
	case 'P':
		return d.DispatchPatient(ctx, record)
	case 'O':
		return d.DispatchOrder(ctx, record)
	case 'R':
		return d.DispatchResult(ctx, record)
	case 'S':
		return d.DispatchScientific(ctx, record)
	case 'M':
		return d.DispatchManufacturerInfo(ctx, record)
	case 'L':
		return d.DispatchTerminator(ctx, record)
	default:
		return d.DispatchUnknown(ctx, record)
	}
}

// NopDispatcher accepts every record without doing anything. It is
// useful as a base to embed in a partial Dispatcher implementation, or
// directly in tests that only care about the link/server state
// transitions.
type NopDispatcher struct{}

func (NopDispatcher) DispatchHeader(context.Context, codec.Record) error           { return nil }
func (NopDispatcher) DispatchComment(context.Context, codec.Record) error          { return nil }
func (NopDispatcher) DispatchPatient(context.Context, codec.Record) error          { return nil }
func (NopDispatcher) DispatchOrder(context.Context, codec.Record) error            { return nil }
func (NopDispatcher) DispatchResult(context.Context, codec.Record) error           { return nil }
func (NopDispatcher) DispatchScientific(context.Context, codec.Record) error       { return nil }
func (NopDispatcher) DispatchManufacturerInfo(context.Context, codec.Record) error { return nil }
func (NopDispatcher) DispatchTerminator(context.Context, codec.Record) error       { return nil }
func (NopDispatcher) DispatchUnknown(context.Context, codec.Record) error          { return nil }
