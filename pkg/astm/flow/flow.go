// Package flow implements the record-flow state machine that validates the
// ordering of record type codes within an ASTM session (spec §4.3).
package flow

import "fmt"

// InvalidOrderError reports a record type code that may not legally follow
// the previous one under the active Table. Callers in pkg/astm wrap this
// as astm.KindInvalidRecordOrder.
type InvalidOrderError struct {
	Prev byte // 0 means "start of session"
	Next byte
}

func (e *InvalidOrderError) Error() string {
	if e.Prev == 0 {
		return fmt.Sprintf("record type %q may not start a session", e.Next)
	}
	return fmt.Sprintf("record type %q may not follow %q", e.Next, e.Prev)
}

func errInvalidOrder(prev, next byte) error {
	return &InvalidOrderError{Prev: prev, Next: next}
}

// Table maps a previous record type code to the set of type codes allowed
// to follow it. The zero-value key 0 represents "no record sent yet in
// this session" and must map to the set of legal first records (just 'H').
// A nil Table disables validation entirely (pass-through).
type Table map[byte]map[byte]bool

// none is the sentinel previous-type used for "start of session".
const none byte = 0

// Standard returns the default ASTM record-flow transition table from
// spec.md §4.3:
//
//	(none) -> H
//	H      -> C, M, P, L
//	P      -> C, M, O, L
//	O      -> C, M, P, O, R, L
//	R      -> C, M, P, O, R, S, L
//	S      -> C, M, P, O, R, S, L
//	C      -> any
//	M      -> any
//	L      -> H
func Standard() Table {
	all := []byte{'H', 'P', 'O', 'R', 'C', 'S', 'M', 'L'}
	t := Table{
		none: set('H'),
		'H':  set('C', 'M', 'P', 'L'),
		'P':  set('C', 'M', 'O', 'L'),
		'O':  set('C', 'M', 'P', 'O', 'R', 'L'),
		'R':  set('C', 'M', 'P', 'O', 'R', 'S', 'L'),
		'S':  set('C', 'M', 'P', 'O', 'R', 'S', 'L'),
		'C':  set(all...),
		'M':  set(all...),
		'L':  set('H'),
	}
	return t
}

func set(codes ...byte) map[byte]bool {
	m := make(map[byte]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

// Machine tracks the previous record type code seen in a session and
// validates the next one against a Table.
type Machine struct {
	table Table
	prev  byte
	seen  bool
}

// New creates a Machine over the given table. A nil table disables
// validation: Next always succeeds.
func New(table Table) *Machine {
	return &Machine{table: table}
}

// Reset returns the machine to "no record sent yet" — used at the start of
// each new session (a fresh ENQ).
func (m *Machine) Reset() {
	m.prev = 0
	m.seen = false
}

// Next validates that typeCode may legally follow the previously accepted
// record type, and if so advances the machine's notion of "previous type".
// Otherwise it returns an *InvalidOrderError, which callers in pkg/astm
// wrap as astm.KindInvalidRecordOrder.
func (m *Machine) Next(typeCode byte) error {
	if m.table == nil {
		return nil
	}

	key := none
	if m.seen {
		key = m.prev
	}

	allowed, ok := m.table[key]
	if !ok || !allowed[typeCode] {
		return errInvalidOrder(key, typeCode)
	}

	m.prev = typeCode
	m.seen = true
	return nil
}

// Prev returns the last accepted type code and whether any record has been
// accepted yet in this session.
func (m *Machine) Prev() (byte, bool) {
	return m.prev, m.seen
}
