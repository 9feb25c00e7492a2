package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/labconn/astm/pkg/astm/constants"
)

// Sentinel errors returned by the decode functions in this package. Higher
// layers (pkg/astm/link, client, server) match these with errors.Is and
// wrap them as the corresponding astm.ErrorKind.
var (
	ErrMalformedFrame   = errors.New("astm codec: malformed frame envelope")
	ErrIncompleteFrame  = errors.New("astm codec: incomplete frame (missing CR ETX / ETB terminator)")
	ErrChecksumMismatch = errors.New("astm codec: checksum mismatch")
)

// SeqDigit renders a frame sequence number as its single ASCII digit,
// wrapping modulo 8 per spec: sequence numbers are issued 1, 2, ..., 7, 0,
// 1, ... and reset to 1 at the start of each session.
func SeqDigit(seq int) byte {
	return '0' + byte(((seq%8)+8)%8)
}

// EncodeMessage renders seq and records into a single, non-chunked ASTM
// message: STX, the seq digit, the records joined by CR, a trailing CR
// ETX, the two-digit checksum, and CRLF.
func EncodeMessage(seq int, records []Record, seps constants.Separators) []byte {
	parts := make([][]byte, len(records))
	for i, r := range records {
		parts[i] = EncodeRecord(r, seps)
	}

	var data bytes.Buffer
	data.WriteByte(SeqDigit(seq))
	data.Write(bytes.Join(parts, []byte{constants.CR}))
	data.WriteByte(constants.CR)
	data.WriteByte(constants.ETX)

	cs := Checksum(data.Bytes())

	var msg bytes.Buffer
	msg.WriteByte(constants.STX)
	msg.Write(data.Bytes())
	msg.WriteString(cs)
	msg.WriteByte(constants.CR)
	msg.WriteByte(constants.LF)
	return msg.Bytes()
}

// frameBody splits the bytes between STX and the checksum (i.e. the
// "frame" per spec: seq digit + record bytes + terminator) into its
// sequence number, record payload, and whether the terminator was ETB
// (as opposed to CR ETX).
func frameBody(frame []byte) (seq int, body []byte, isETB bool, err error) {
	if len(frame) == 0 {
		return 0, nil, false, fmt.Errorf("astm codec: empty frame")
	}
	d := frame[0]
	if d < '0' || d > '9' {
		return 0, nil, false, ErrMalformedFrame
	}
	seq = int(d - '0')
	rest := frame[1:]

	switch {
	case len(rest) >= 2 && rest[len(rest)-2] == constants.CR && rest[len(rest)-1] == constants.ETX:
		return seq, rest[:len(rest)-2], false, nil
	case len(rest) >= 1 && rest[len(rest)-1] == constants.ETB:
		return seq, rest[:len(rest)-1], true, nil
	default:
		return 0, nil, false, ErrIncompleteFrame
	}
}

// DecodeFrame decodes a frame (the bytes between STX and the checksum: a
// seq digit, one or more CR-joined records, and a CR-ETX or ETB
// terminator) into its sequence number and decoded records.
func DecodeFrame(frame []byte, seps constants.Separators) (seq int, records []Record, err error) {
	seq, body, _, err := frameBody(frame)
	if err != nil {
		return 0, nil, err
	}
	if len(body) == 0 {
		return seq, nil, nil
	}
	rawRecords := bytes.Split(body, []byte{constants.CR})
	records = make([]Record, len(rawRecords))
	for i, rr := range rawRecords {
		records[i] = DecodeRecord(rr, seps)
	}
	return seq, records, nil
}

// DecodeMessage validates and decodes a complete STX...CRLF message,
// returning its sequence number, decoded records, and transmitted
// checksum string.
func DecodeMessage(msg []byte, seps constants.Separators) (seq int, records []Record, checksum string, err error) {
	if len(msg) < 1+4+2 || msg[0] != constants.STX {
		return 0, nil, "", ErrMalformedFrame
	}
	if msg[len(msg)-2] != constants.CR || msg[len(msg)-1] != constants.LF {
		return 0, nil, "", ErrMalformedFrame
	}

	data := msg[1 : len(msg)-4]
	cs := string(msg[len(msg)-4 : len(msg)-2])
	computed := Checksum(data)
	if computed != cs {
		return 0, nil, cs, fmt.Errorf("%w: got %s want %s", ErrChecksumMismatch, cs, computed)
	}

	seq, records, err = DecodeFrame(data, seps)
	if err != nil {
		return 0, nil, cs, err
	}
	return seq, records, cs, nil
}

// IsChunkedMessage reports whether msg is a non-terminal chunk: one whose
// terminator is a bare ETB rather than CR ETX. This is true iff the byte
// at offset len(msg)-5 is ETB.
func IsChunkedMessage(msg []byte) bool {
	if len(msg) < 5 {
		return false
	}
	return msg[len(msg)-5] == constants.ETB
}

// Decode validates and decodes a complete, non-chunked message, returning
// just its records (discarding sequence number and checksum). Callers
// working with a possibly-chunked message should rejoin with Join first.
func Decode(msg []byte, seps constants.Separators) ([]Record, error) {
	_, records, _, err := DecodeMessage(msg, seps)
	return records, err
}

// Encode renders records into one or more complete wire messages. If size
// is 0, chunking is disabled and exactly one message is returned. If size
// is non-zero and the single-message encoding exceeds size bytes, the
// message is split via Split.
func Encode(records []Record, seps constants.Separators, size int, seq int) ([][]byte, error) {
	msg := EncodeMessage(seq, records, seps)
	if size == 0 || len(msg) <= size {
		return [][]byte{msg}, nil
	}
	return Split(msg, size)
}
