// Package demo provides a minimal, concrete Dispatcher and Emitter for
// cmd/astmd and cmd/astmsend to drive, and for tests that want a
// realistic (not stub) collaborator. Nothing here is exercised by the
// core engines directly — spec.md §4.6 leaves Dispatcher and
// emitter.Emitter to the caller, and this package is that caller's
// default choice.
package demo

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/labconn/astm/pkg/astm/codec"
	"github.com/labconn/astm/pkg/astm/dispatch"
)

// LoggingDispatcher logs every dispatched record at debug level and
// keeps running per-type counts, the simplest Dispatcher that still
// demonstrates every one of spec.md's record-type callbacks firing.
type LoggingDispatcher struct {
	dispatch.NopDispatcher
	logger zerolog.Logger
	Counts map[byte]int
}

// NewLoggingDispatcher builds a LoggingDispatcher that logs through logger.
func NewLoggingDispatcher(logger zerolog.Logger) *LoggingDispatcher {
	return &LoggingDispatcher{logger: logger, Counts: make(map[byte]int)}
}

func (d *LoggingDispatcher) log(kind string, record codec.Record) error {
	typeCode, _ := codec.TypeCode(record)
	d.Counts[typeCode]++
	d.logger.Debug().
		Str("record_type", kind).
		Int("field_count", len(record)).
		Msg("dispatched record")
	return nil
}

func (d *LoggingDispatcher) DispatchHeader(ctx context.Context, record codec.Record) error {
	return d.log("header", record)
}

func (d *LoggingDispatcher) DispatchComment(ctx context.Context, record codec.Record) error {
	return d.log("comment", record)
}

func (d *LoggingDispatcher) DispatchPatient(ctx context.Context, record codec.Record) error {
	return d.log("patient", record)
}

func (d *LoggingDispatcher) DispatchOrder(ctx context.Context, record codec.Record) error {
	return d.log("order", record)
}

func (d *LoggingDispatcher) DispatchResult(ctx context.Context, record codec.Record) error {
	return d.log("result", record)
}

func (d *LoggingDispatcher) DispatchScientific(ctx context.Context, record codec.Record) error {
	return d.log("scientific", record)
}

func (d *LoggingDispatcher) DispatchManufacturerInfo(ctx context.Context, record codec.Record) error {
	return d.log("manufacturer_info", record)
}

func (d *LoggingDispatcher) DispatchTerminator(ctx context.Context, record codec.Record) error {
	return d.log("terminator", record)
}

func (d *LoggingDispatcher) DispatchUnknown(ctx context.Context, record codec.Record) error {
	return d.log("unknown", record)
}
