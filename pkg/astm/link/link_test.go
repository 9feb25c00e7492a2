package link

import (
	"errors"
	"testing"
	"time"

	"github.com/labconn/astm/pkg/astm"
	"github.com/labconn/astm/pkg/astm/constants"
)

func TestClassifyByte(t *testing.T) {
	cases := []struct {
		b     byte
		want  Token
		found bool
	}{
		{constants.ENQ, EnqToken, true},
		{constants.ACK, AckToken, true},
		{constants.NAK, NakToken, true},
		{constants.EOT, EotToken, true},
		{'H', 0, false},
	}
	for _, c := range cases {
		got, found := ClassifyByte(c.b)
		if found != c.found {
			t.Errorf("ClassifyByte(%v) found = %v, want %v", c.b, found, c.found)
			continue
		}
		if found && got != c.want {
			t.Errorf("ClassifyByte(%v) = %v, want %v", c.b, got, c.want)
		}
	}
}

func TestModeFor(t *testing.T) {
	if ModeFor(Transfer) != ByteOrMessageMode {
		t.Error("transfer state must accept EOT or a message")
	}
	for _, s := range []State{Init, Opened, Termination} {
		if ModeFor(s) != ByteMode {
			t.Errorf("state %s must be byte-only", s)
		}
	}
}

func TestMachineTransitions(t *testing.T) {
	m := New()
	if m.State() != Init {
		t.Fatalf("new machine state = %s, want init", m.State())
	}
	m.SetState(Transfer)
	if m.State() != Transfer {
		t.Fatalf("state = %s, want transfer", m.State())
	}
	m.Reset()
	if m.State() != Init {
		t.Fatalf("state after reset = %s, want init", m.State())
	}
}

func TestUnexpectedTokenIsAstmKind(t *testing.T) {
	err := UnexpectedToken(Init, EotToken)
	if !errors.Is(err, astm.ErrUnexpectedToken) {
		t.Errorf("UnexpectedToken error does not match astm.ErrUnexpectedToken: %v", err)
	}
}

func TestStdTimerFiresAndCancels(t *testing.T) {
	var timer Timer = StdTimer{}
	fired := make(chan struct{}, 1)
	h := timer.Schedule(10*time.Millisecond, func() { fired <- struct{}{} })
	select {
	case <-fired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timer did not fire")
	}
	h.Cancel()

	fired2 := make(chan struct{}, 1)
	h2 := timer.Schedule(50*time.Millisecond, func() { fired2 <- struct{}{} })
	h2.Cancel()
	select {
	case <-fired2:
		t.Fatal("cancelled timer fired")
	case <-time.After(80 * time.Millisecond):
	}
}
