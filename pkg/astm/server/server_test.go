package server

import (
	"bufio"
	"context"
	"net"
	"testing"

	"github.com/labconn/astm/pkg/astm"
	"github.com/labconn/astm/pkg/astm/codec"
	"github.com/labconn/astm/pkg/astm/constants"
	"github.com/labconn/astm/pkg/astm/dispatch"
	"github.com/labconn/astm/pkg/astm/transport"
)

func rec(typeCode string) codec.Record {
	return codec.Record{codec.ScalarString(typeCode)}
}

type pipeTransport struct{ net.Conn }

func newPipe() (transport.Transport, net.Conn) {
	a, b := net.Pipe()
	return pipeTransport{a}, b
}

type recordingDispatcher struct {
	dispatch.NopDispatcher
	headers  int
	patients int
	unknowns int
}

func (r *recordingDispatcher) DispatchHeader(ctx context.Context, rec codec.Record) error {
	r.headers++
	return nil
}

func (r *recordingDispatcher) DispatchPatient(ctx context.Context, rec codec.Record) error {
	r.patients++
	return nil
}

func (r *recordingDispatcher) DispatchUnknown(ctx context.Context, rec codec.Record) error {
	r.unknowns++
	return nil
}

func TestServerHandlesSingleFrameSession(t *testing.T) {
	serverConn, clientConn := newPipe()
	defer clientConn.Close()

	cfg := astm.NewServerConfig("", 0)
	eng := New(cfg, serverConn)
	d := &recordingDispatcher{}

	done := make(chan error, 1)
	go func() { done <- eng.Run(context.Background(), d) }()

	r := bufio.NewReader(clientConn)
	seps := constants.Default()

	clientConn.Write([]byte{constants.ENQ})
	expectByte(t, r, constants.ACK)

	msg := codec.EncodeMessage(1, []codec.Record{rec("H")}, seps)
	clientConn.Write(msg)
	expectByte(t, r, constants.ACK)

	msg2 := codec.EncodeMessage(2, []codec.Record{rec("P")}, seps)
	clientConn.Write(msg2)
	expectByte(t, r, constants.ACK)

	clientConn.Write([]byte{constants.EOT})

	clientConn.Close()
	<-done

	if d.headers != 1 {
		t.Errorf("headers = %d, want 1", d.headers)
	}
	if d.patients != 1 {
		t.Errorf("patients = %d, want 1", d.patients)
	}
}

func TestServerReassemblesChunkedMessage(t *testing.T) {
	serverConn, clientConn := newPipe()
	defer clientConn.Close()

	cfg := astm.NewServerConfig("", 0)
	eng := New(cfg, serverConn)
	d := &recordingDispatcher{}

	done := make(chan error, 1)
	go func() { done <- eng.Run(context.Background(), d) }()

	r := bufio.NewReader(clientConn)
	seps := constants.Default()

	clientConn.Write([]byte{constants.ENQ})
	expectByte(t, r, constants.ACK)

	records := []codec.Record{rec("H"), rec("P")}
	chunks, err := codec.Encode(records, seps, 10, 1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		clientConn.Write(c)
		expectByte(t, r, constants.ACK)
	}

	clientConn.Write([]byte{constants.EOT})
	clientConn.Close()
	<-done

	if d.headers != 1 || d.patients != 1 {
		t.Errorf("headers=%d patients=%d, want 1/1", d.headers, d.patients)
	}
}

func TestServerRejectsSecondEnqMidSession(t *testing.T) {
	serverConn, clientConn := newPipe()
	defer clientConn.Close()

	cfg := astm.NewServerConfig("", 0)
	eng := New(cfg, serverConn)
	d := &recordingDispatcher{}

	done := make(chan error, 1)
	go func() { done <- eng.Run(context.Background(), d) }()

	r := bufio.NewReader(clientConn)
	clientConn.Write([]byte{constants.ENQ})
	expectByte(t, r, constants.ACK)

	clientConn.Write([]byte{constants.ENQ})
	expectByte(t, r, constants.NAK)

	clientConn.Write([]byte{constants.EOT})
	clientConn.Close()
	<-done
}

func expectByte(t *testing.T, r *bufio.Reader, want byte) {
	t.Helper()
	b, err := r.ReadByte()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if b != want {
		t.Fatalf("got byte %#x, want %#x", b, want)
	}
}
