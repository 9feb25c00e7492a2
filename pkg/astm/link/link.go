// Package link holds the primitives shared by the client and server link
// engines: the four-state connection lifecycle, inbound token
// classification, and the tokenizer mode each state reads in. The role
// handler tables themselves (the "Server"/"Client" columns of the state
// machine) live in pkg/astm/client and pkg/astm/server, since the two
// roles react to the same state/token pairs in genuinely different ways.
package link

import (
	"sync"

	"github.com/labconn/astm/pkg/astm"
	"github.com/labconn/astm/pkg/astm/constants"
)

// State is a connection's position in the link-layer lifecycle.
type State int

const (
	Init State = iota
	Opened
	Transfer
	Termination
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Opened:
		return "opened"
	case Transfer:
		return "transfer"
	case Termination:
		return "termination"
	default:
		return "unknown"
	}
}

// Token is a classified inbound control signal.
type Token int

const (
	EnqToken Token = iota
	AckToken
	NakToken
	EotToken
	MessageToken
)

func (t Token) String() string {
	switch t {
	case EnqToken:
		return "ENQ"
	case AckToken:
		return "ACK"
	case NakToken:
		return "NAK"
	case EotToken:
		return "EOT"
	case MessageToken:
		return "MESSAGE"
	default:
		return "unknown"
	}
}

// ClassifyByte maps a single control byte to its Token. It reports false
// for any byte that is not one of ENQ/ACK/NAK/EOT (the caller should
// treat those as the start of a MESSAGE instead).
func ClassifyByte(b byte) (Token, bool) {
	switch b {
	case constants.ENQ:
		return EnqToken, true
	case constants.ACK:
		return AckToken, true
	case constants.NAK:
		return NakToken, true
	case constants.EOT:
		return EotToken, true
	default:
		return 0, false
	}
}

// ReadMode describes how the reader should delimit the next inbound
// token: a single control byte, or a full message terminated by CR LF.
type ReadMode int

const (
	ByteMode ReadMode = iota
	ByteOrMessageMode
)

// ModeFor returns the tokenizer policy for state, per the link state
// machine's framing rules: init/opened/termination await a single
// control byte; transfer awaits either EOT or a CR-LF-terminated
// message.
func ModeFor(state State) ReadMode {
	if state == Transfer {
		return ByteOrMessageMode
	}
	return ByteMode
}

// Machine holds the current connection state. It is the single piece of
// mutable state both roles' engines transition as they process inbound
// tokens; a mutex guards it so it may be read or written from more than
// one goroutine. The engines' inactivity-timer callbacks only set a read
// deadline and do not touch the Machine.
type Machine struct {
	mu    sync.Mutex
	state State
}

// New returns a Machine starting in Init.
func New() *Machine {
	return &Machine{state: Init}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) SetState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Reset returns the machine to Init, as happens at the end of every
// session (EOT in transfer, or successful termination).
func (m *Machine) Reset() {
	m.SetState(Init)
}

// UnexpectedToken builds the astm.KindUnexpectedToken error both role
// engines return for a token their role never expects in the current
// state (e.g. the client receiving ENQ, or the server receiving ACK
// with no session open).
func UnexpectedToken(state State, token Token) error {
	return astm.NewError(astm.KindUnexpectedToken, &unexpectedTokenError{state: state, token: token})
}

type unexpectedTokenError struct {
	state State
	token Token
}

func (e *unexpectedTokenError) Error() string {
	return "astm link: unexpected " + e.token.String() + " in state " + e.state.String()
}
