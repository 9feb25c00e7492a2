package transport

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialConfig configures SerialTransport. Most ASTM instruments speaking
// direct RS-232 (as opposed to a serial-to-TCP bridge) use 9600 8N1; the
// zero value of Parity/DataBits/StopBits below is filled in by Open.
type SerialConfig struct {
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits serial.StopBits
}

// DefaultSerialConfig matches the common ASTM instrument serial setting.
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// SerialTransport wraps a go.bug.st/serial port as a Transport.
type SerialTransport struct {
	port serial.Port
	mu   sync.Mutex
}

// OpenSerial opens portPath with cfg.
func OpenSerial(portPath string, cfg SerialConfig) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}
	port, err := serial.Open(portPath, mode)
	if err != nil {
		return nil, fmt.Errorf("astm transport: open serial port %s: %w", portPath, err)
	}
	return &SerialTransport{port: port}, nil
}

func (s *SerialTransport) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Write(data)
}

func (s *SerialTransport) Read(buf []byte) (int, error) {
	return s.port.Read(buf)
}

func (s *SerialTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}

// SetReadDeadline maps the Transport contract's deadline onto
// go.bug.st/serial's read-timeout knob. A zero Time disables the
// timeout (blocking reads), matching the net.Conn convention.
func (s *SerialTransport) SetReadDeadline(t time.Time) error {
	if t.IsZero() {
		return s.port.SetReadTimeout(serial.NoTimeout)
	}
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	return s.port.SetReadTimeout(d)
}
