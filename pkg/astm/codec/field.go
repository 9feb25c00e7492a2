// Package codec implements the ASTM framing codec: pure, stateless
// functions over byte strings for encoding and decoding records, frames,
// and messages, computing checksums, and splitting/rejoining chunked
// messages. Nothing in this package suspends or holds state across calls.
package codec

import (
	"bytes"
	"fmt"

	"github.com/labconn/astm/pkg/astm/constants"
)

// Kind discriminates the four shapes a Field can take, per the "dynamic
// field types" design note: a component may only contain scalars, and a
// repeated field may only contain components. Both invariants are
// enforced at construction time by Component and Repeated below, not at
// serialization time.
type Kind uint8

const (
	// Absent represents an empty field, component, or repeat slot.
	Absent Kind = iota
	// Scalar holds a literal byte string.
	Scalar
	// ComponentKind holds an ordered list of scalars (and/or absent slots).
	ComponentKind
	// RepeatedKind holds an ordered list of components (and/or absent slots).
	RepeatedKind
)

// Field is the tagged-variant value of one ASTM field: absent, a scalar
// byte string, an ordered component list, or an ordered repeated-component
// list.
type Field struct {
	kind  Kind
	bytes []byte
	parts []Field
}

// AbsentField returns the absent field value.
func AbsentField() Field { return Field{kind: Absent} }

// ScalarBytes wraps raw bytes as a scalar field.
func ScalarBytes(b []byte) Field {
	if len(b) == 0 {
		return AbsentField()
	}
	return Field{kind: Scalar, bytes: b}
}

// ScalarString wraps a string as a scalar field.
func ScalarString(s string) Field { return ScalarBytes([]byte(s)) }

// ScalarAny coerces an arbitrary value to its textual representation and
// wraps it as a scalar field, per "non-string scalars are coerced to their
// textual representation".
func ScalarAny(v any) Field {
	if v == nil {
		return AbsentField()
	}
	if s, ok := v.(string); ok {
		return ScalarString(s)
	}
	if b, ok := v.([]byte); ok {
		return ScalarBytes(b)
	}
	return ScalarString(fmt.Sprintf("%v", v))
}

// Component builds a component field from an ordered list of scalar (or
// absent) parts. It returns an error if any part is itself a component or
// repeated field, enforcing "a component contains only scalars" at
// construction.
func Component(parts ...Field) (Field, error) {
	for _, p := range parts {
		if p.kind != Absent && p.kind != Scalar {
			return Field{}, fmt.Errorf("codec: component part must be absent or scalar, got kind %d", p.kind)
		}
	}
	return Field{kind: ComponentKind, parts: parts}, nil
}

// Repeated builds a repeated field from an ordered list of component (or
// absent) parts. It returns an error if any part is a bare scalar,
// enforcing "repeated contains only components" at construction.
func Repeated(components ...Field) (Field, error) {
	for _, c := range components {
		if c.kind != Absent && c.kind != ComponentKind {
			return Field{}, fmt.Errorf("codec: repeated part must be absent or a component, got kind %d", c.kind)
		}
	}
	return Field{kind: RepeatedKind, parts: components}, nil
}

// Kind reports the field's variant.
func (f Field) Kind() Kind { return f.kind }

// Bytes returns the scalar byte content; valid only when Kind() == Scalar.
func (f Field) Bytes() []byte { return f.bytes }

// Parts returns the component/repeat sub-fields; valid only when
// Kind() == ComponentKind or RepeatedKind.
func (f Field) Parts() []Field { return f.parts }

// IsAbsent reports whether the field is the absent value.
func (f Field) IsAbsent() bool { return f.kind == Absent }

// Equal reports structural equality between two fields.
func (f Field) Equal(o Field) bool {
	if f.kind != o.kind {
		return false
	}
	switch f.kind {
	case Scalar:
		return bytes.Equal(f.bytes, o.bytes)
	case ComponentKind, RepeatedKind:
		if len(f.parts) != len(o.parts) {
			return false
		}
		for i := range f.parts {
			if !f.parts[i].Equal(o.parts[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// renderComponent joins a component's scalar parts with sep, stripping
// trailing empty parts (e.g. "A^B^^" encodes as "A^B").
func renderComponent(parts []Field, sep byte) []byte {
	strs := make([][]byte, len(parts))
	for i, p := range parts {
		if p.kind == Scalar {
			strs[i] = p.bytes
		} else {
			strs[i] = nil
		}
	}
	last := len(strs)
	for last > 0 && len(strs[last-1]) == 0 {
		last--
	}
	strs = strs[:last]
	return bytes.Join(strs, []byte{sep})
}

// renderRepeated joins a repeated field's rendered components with sep.
// Unlike components, trailing empty repeats are NOT stripped: the repeat
// separator is preserved.
func renderRepeated(parts []Field, componentSep, repeatSep byte) []byte {
	strs := make([][]byte, len(parts))
	for i, p := range parts {
		if p.kind == ComponentKind {
			strs[i] = renderComponent(p.parts, componentSep)
		} else {
			strs[i] = nil
		}
	}
	return bytes.Join(strs, []byte{repeatSep})
}

// render encodes a single field using the given separator set.
func render(f Field, seps constants.Separators) []byte {
	switch f.kind {
	case Absent:
		return nil
	case Scalar:
		return f.bytes
	case ComponentKind:
		return renderComponent(f.parts, seps.Component)
	case RepeatedKind:
		return renderRepeated(f.parts, seps.Component, seps.Repeat)
	default:
		return nil
	}
}

// decodeField inverts render: it classifies raw field bytes as absent, a
// scalar, a component, or a repeated field based on which separators are
// present. Empty tokens decode to Absent at every level.
func decodeField(raw []byte, seps constants.Separators) Field {
	if len(raw) == 0 {
		return AbsentField()
	}
	if bytes.IndexByte(raw, seps.Repeat) >= 0 {
		repeatParts := bytes.Split(raw, []byte{seps.Repeat})
		parts := make([]Field, len(repeatParts))
		for i, rp := range repeatParts {
			parts[i] = decodeComponent(rp, seps)
		}
		return Field{kind: RepeatedKind, parts: parts}
	}
	return decodeComponent(raw, seps)
}

// decodeComponent decodes raw bytes known not to contain a repeat
// separator, as either a scalar or a component.
func decodeComponent(raw []byte, seps constants.Separators) Field {
	if bytes.IndexByte(raw, seps.Component) < 0 {
		return ScalarBytes(raw)
	}
	compParts := bytes.Split(raw, []byte{seps.Component})
	parts := make([]Field, len(compParts))
	for i, cp := range compParts {
		parts[i] = ScalarBytes(cp)
	}
	return Field{kind: ComponentKind, parts: parts}
}
