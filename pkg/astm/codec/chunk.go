package codec

import (
	"errors"
	"fmt"

	"github.com/labconn/astm/pkg/astm/constants"
)

// ErrInvalidChunkSize is returned by Split when size is below
// constants.MinChunkSize, or too small to make forward progress on a
// non-empty body.
var ErrInvalidChunkSize = errors.New("astm codec: chunk size below envelope overhead")

// Split cuts a single, non-chunked message produced by EncodeMessage into
// chunks of at most size bytes, per spec §4.1: every non-terminal chunk
// ends with ETB and carries up to size-7 body bytes, and the final chunk
// ends with CR ETX and carries up to size-8 (its terminator is one byte
// longer). size must be at least constants.MinChunkSize (7): the envelope
// overhead of STX, the seq digit, a one-byte terminator, the two-digit
// checksum, and CRLF. A non-empty body needs a size of at least 9.
func Split(msg []byte, size int) ([][]byte, error) {
	if size < constants.MinChunkSize {
		return nil, ErrInvalidChunkSize
	}
	if len(msg) < 1+1+1+1+2+2 || msg[0] != constants.STX {
		return nil, ErrMalformedFrame
	}

	seq := int(msg[1] - '0')
	body := msg[2 : len(msg)-6] // strip STX+seq, and CR ETX CS CRLF

	pieceSize := size - 7
	lastSize := size - 8 // CR ETX in the final chunk is one byte longer than ETB
	if lastSize < 1 && len(body) > 0 {
		return nil, ErrInvalidChunkSize
	}

	var pieces [][]byte
	if len(body) == 0 {
		pieces = [][]byte{body}
	} else {
		start := 0
		for len(body)-start > lastSize {
			end := start + pieceSize
			if end > len(body)-1 {
				end = len(body) - 1
			}
			pieces = append(pieces, body[start:end])
			start = end
		}
		pieces = append(pieces, body[start:])
	}

	chunks := make([][]byte, len(pieces))
	for i, piece := range pieces {
		pieceSeq := (seq + i) % 8
		final := i == len(pieces)-1

		var data []byte
		data = append(data, SeqDigit(pieceSeq))
		data = append(data, piece...)
		if final {
			data = append(data, constants.CR, constants.ETX)
		} else {
			data = append(data, constants.ETB)
		}

		cs := Checksum(data)

		var chunk []byte
		chunk = append(chunk, constants.STX)
		chunk = append(chunk, data...)
		chunk = append(chunk, []byte(cs)...)
		chunk = append(chunk, constants.CR, constants.LF)

		chunks[i] = chunk
	}
	return chunks, nil
}

// Join rejoins a sequence of chunks produced by Split back into a single
// logical message, using the first chunk's sequence number and
// recomputing the checksum over the concatenated body.
func Join(chunks [][]byte) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("astm codec: no chunks to join")
	}

	first := chunks[0]
	if len(first) < 2 || first[0] != constants.STX {
		return nil, ErrMalformedFrame
	}
	seq := int(first[1] - '0')

	var body []byte
	for _, c := range chunks {
		if len(c) < 2 || c[0] != constants.STX {
			return nil, ErrMalformedFrame
		}
		if IsChunkedMessage(c) {
			if len(c) < 2+5 {
				return nil, ErrMalformedFrame
			}
			body = append(body, c[2:len(c)-5]...)
		} else {
			if len(c) < 2+6 {
				return nil, ErrMalformedFrame
			}
			body = append(body, c[2:len(c)-6]...)
		}
	}

	var data []byte
	data = append(data, SeqDigit(seq))
	data = append(data, body...)
	data = append(data, constants.CR, constants.ETX)

	cs := Checksum(data)

	var msg []byte
	msg = append(msg, constants.STX)
	msg = append(msg, data...)
	msg = append(msg, []byte(cs)...)
	msg = append(msg, constants.CR, constants.LF)
	return msg, nil
}
