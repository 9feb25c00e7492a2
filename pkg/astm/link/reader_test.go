package link

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/labconn/astm/pkg/astm"
	"github.com/labconn/astm/pkg/astm/constants"
)

func TestReadTokenByteMode(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{constants.ACK}))
	tok, msg, err := ReadToken(r, ByteMode)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if tok != AckToken || msg != nil {
		t.Errorf("got token=%v msg=%v, want AckToken/nil", tok, msg)
	}
}

func TestReadTokenByteModeRejectsStrayMessageByte(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{constants.STX}))
	_, _, err := ReadToken(r, ByteMode)
	if !errors.Is(err, astm.ErrMalformedFrame) {
		t.Errorf("expected MalformedFrame, got %v", err)
	}
}

func TestReadTokenMessageMode(t *testing.T) {
	payload := []byte{constants.STX, '1', 'H', constants.CR, constants.ETX, '4', '1', constants.CR, constants.LF}
	r := bufio.NewReader(bytes.NewReader(payload))
	tok, msg, err := ReadToken(r, ByteOrMessageMode)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if tok != MessageToken {
		t.Fatalf("token = %v, want MessageToken", tok)
	}
	if !bytes.Equal(msg, payload) {
		t.Errorf("msg = %v, want %v", msg, payload)
	}
}

func TestReadTokenMessageModeEOT(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{constants.EOT}))
	tok, _, err := ReadToken(r, ByteOrMessageMode)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if tok != EotToken {
		t.Errorf("token = %v, want EotToken", tok)
	}
}
