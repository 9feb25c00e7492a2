// Package mapping is the optional typed-record layer the core engine is
// deliberately agnostic to: a RecordMapper turns a raw codec.Record into
// whatever domain object a caller's dispatcher wants, and Validator
// checks that object (as the map[string]any a mapper returns) against a caller-supplied JSON
// Schema before the caller accepts it. Neither piece sits on the hot
// path of pkg/astm/client or pkg/astm/server — a Dispatcher that never
// imports this package works exactly as it would otherwise.
package mapping

import (
	"fmt"

	"github.com/labconn/astm/pkg/astm/codec"
)

// RecordMapper converts a raw record into a typed domain value. An
// implementation is free to return any concrete type; dispatch methods
// that embed a RecordMapper type-assert the result.
type RecordMapper interface {
	Map(record codec.Record) (any, error)
}

// Func adapts a plain function to RecordMapper.
type Func func(record codec.Record) (any, error)

func (f Func) Map(record codec.Record) (any, error) { return f(record) }

// FieldMapper maps a record into a map[string]any keyed by caller-given
// field names, by position: Fields[i] names record[i]. A record shorter
// than Fields leaves the remaining names absent from the result; a
// record longer than Fields drops the extra fields. This is the common
// case — most instrument interfaces document records as an ordered list
// of named fields — and it requires no generated or hand-written struct
// per record type to get JSON Schema validation going.
type FieldMapper struct {
	Type   string
	Fields []string
}

func (m FieldMapper) Map(record codec.Record) (any, error) {
	out := make(map[string]any, len(m.Fields)+1)
	out["type"] = m.Type
	for i, name := range m.Fields {
		if i >= len(record) {
			break
		}
		out[name] = fieldValue(record[i])
	}
	return out, nil
}

func fieldValue(f codec.Field) any {
	switch f.Kind() {
	case codec.Absent:
		return nil
	case codec.Scalar:
		return string(f.Bytes())
	default:
		parts := make([]any, len(f.Parts()))
		for i, p := range f.Parts() {
			parts[i] = fieldValue(p)
		}
		return parts
	}
}

// Registry dispatches to a RecordMapper by record type code, for
// dispatchers that want a typed object per record type rather than one
// mapper for everything.
type Registry map[byte]RecordMapper

// Map looks up the mapper for record's type code and applies it.
func (reg Registry) Map(record codec.Record) (any, error) {
	typeCode, err := codec.TypeCode(record)
	if err != nil {
		return nil, err
	}
	m, ok := reg[typeCode]
	if !ok {
		return nil, fmt.Errorf("mapping: no RecordMapper registered for type code %q", typeCode)
	}
	return m.Map(record)
}
