package link

import (
	"bufio"
	"fmt"

	"github.com/labconn/astm/pkg/astm"
	"github.com/labconn/astm/pkg/astm/constants"
)

// ReadToken reads the next inbound token from r, honoring the tokenizer
// policy for mode (see ModeFor): a single control byte, or — in
// ByteOrMessageMode — either a bare EOT byte or a full STX...CRLF
// message. For MessageToken, the returned bytes are the complete
// message including its leading STX and trailing CRLF, ready for
// codec.DecodeMessage.
func ReadToken(r *bufio.Reader, mode ReadMode) (Token, []byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}

	if mode == ByteMode {
		tok, ok := ClassifyByte(b)
		if !ok {
			return 0, nil, astm.NewError(astm.KindMalformedFrame,
				fmt.Errorf("astm link: unexpected byte %#x while awaiting a control byte", b))
		}
		return tok, nil, nil
	}

	if b == constants.EOT {
		return EotToken, nil, nil
	}
	if b != constants.STX {
		return 0, nil, astm.NewError(astm.KindMalformedFrame,
			fmt.Errorf("astm link: unexpected byte %#x while awaiting EOT or a message", b))
	}

	rest, err := r.ReadBytes(constants.LF)
	if err != nil {
		return 0, nil, astm.NewError(astm.KindIncompleteFrame, err)
	}
	msg := make([]byte, 0, 1+len(rest))
	msg = append(msg, constants.STX)
	msg = append(msg, rest...)
	return MessageToken, msg, nil
}
