package astm

import (
	"fmt"

	"golang.org/x/text/encoding"

	"github.com/labconn/astm/pkg/astm/codec"
)

// EncodeText transcodes every scalar field's bytes in records from Go's
// native UTF-8 to enc's byte encoding (Latin-1 by default, per
// Config.EncodingOrDefault), the way a client must render non-ASCII
// text before it hits the wire. Record structure (which fields are
// absent, components, or repeats) is preserved exactly; only scalar
// byte content is transcoded.
func EncodeText(records []codec.Record, enc encoding.Encoding) ([]codec.Record, error) {
	return transcodeRecords(records, enc.NewEncoder())
}

// DecodeText transcodes every scalar field's bytes in records from
// enc's byte encoding back to UTF-8, the inverse of EncodeText applied
// to records a server has just decoded off the wire.
func DecodeText(records []codec.Record, enc encoding.Encoding) ([]codec.Record, error) {
	return transcodeRecords(records, enc.NewDecoder())
}

// byteTranscoder is satisfied by both *encoding.Encoder and
// *encoding.Decoder.
type byteTranscoder interface {
	Bytes(b []byte) ([]byte, error)
}

func transcodeRecords(records []codec.Record, t byteTranscoder) ([]codec.Record, error) {
	out := make([]codec.Record, len(records))
	for i, rec := range records {
		newRec := make(codec.Record, len(rec))
		for j, f := range rec {
			nf, err := transcodeField(f, t)
			if err != nil {
				return nil, fmt.Errorf("astm: transcode record %d field %d: %w", i, j, err)
			}
			newRec[j] = nf
		}
		out[i] = newRec
	}
	return out, nil
}

func transcodeField(f codec.Field, t byteTranscoder) (codec.Field, error) {
	switch f.Kind() {
	case codec.Absent:
		return f, nil
	case codec.Scalar:
		b, err := t.Bytes(f.Bytes())
		if err != nil {
			return codec.Field{}, err
		}
		return codec.ScalarBytes(b), nil
	case codec.ComponentKind:
		parts, err := transcodeParts(f.Parts(), t)
		if err != nil {
			return codec.Field{}, err
		}
		return codec.Component(parts...)
	case codec.RepeatedKind:
		parts, err := transcodeParts(f.Parts(), t)
		if err != nil {
			return codec.Field{}, err
		}
		return codec.Repeated(parts...)
	default:
		return f, nil
	}
}

func transcodeParts(parts []codec.Field, t byteTranscoder) ([]codec.Field, error) {
	out := make([]codec.Field, len(parts))
	for i, p := range parts {
		np, err := transcodeField(p, t)
		if err != nil {
			return nil, err
		}
		out[i] = np
	}
	return out, nil
}
