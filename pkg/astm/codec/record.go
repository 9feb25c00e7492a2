package codec

import (
	"bytes"
	"errors"

	"github.com/labconn/astm/pkg/astm/constants"
)

// Record is an ordered sequence of fields. Record[0] must always be a
// scalar field whose first byte is the record's type code (H, P, O, R, C,
// S, M, L, or a vendor-defined code) — even when every other field is
// absent.
type Record []Field

// ErrEmptyRecord is returned by TypeCode when a record has no fields at
// all, or when its first field is not a non-empty scalar (for example an
// absent or component first field).
var ErrEmptyRecord = errors.New("codec: record has no fields")

// TypeCode returns the one-character record type code, the first byte of
// Record[0].
func TypeCode(r Record) (byte, error) {
	if len(r) == 0 || r[0].Kind() != Scalar || len(r[0].Bytes()) == 0 {
		return 0, ErrEmptyRecord
	}
	return r[0].Bytes()[0], nil
}

// EncodeRecord renders a record's fields joined by the field separator.
func EncodeRecord(r Record, seps constants.Separators) []byte {
	parts := make([][]byte, len(r))
	for i, f := range r {
		parts[i] = render(f, seps)
	}
	return bytes.Join(parts, []byte{seps.Field})
}

// DecodeRecord inverts EncodeRecord: it splits raw record bytes on the
// field separator and decodes each token, per decodeField's rules.
func DecodeRecord(raw []byte, seps constants.Separators) Record {
	tokens := bytes.Split(raw, []byte{seps.Field})
	rec := make(Record, len(tokens))
	for i, t := range tokens {
		rec[i] = decodeField(t, seps)
	}
	return rec
}
