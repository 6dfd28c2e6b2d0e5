// Package device implements the serial link using go.bug.st/serial,
// which provides real serial communication support for microcontrollers.
package device

import (
	"fmt"
	"time"

	serial "go.bug.st/serial"
)

// DefaultReadTimeout bounds a single ReadAvailable call when the caller
// does not configure one.
const DefaultReadTimeout = 500 * time.Millisecond

// SerialDevice implements Device using go.bug.st/serial.
type SerialDevice struct {
	port        serial.Port
	dev         string
	baud        int
	readTimeout time.Duration
}

// NewSerialDevice creates a serial device handle for the given path and baudrate.
// The port is not opened until Open is called.
func NewSerialDevice(dev string, baud int, readTimeout time.Duration) *SerialDevice {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &SerialDevice{dev: dev, baud: baud, readTimeout: readTimeout}
}

// Open establishes the serial connection and arms the read timeout.
func (s *SerialDevice) Open() error {
	if s.port != nil {
		return nil
	}
	p, err := serial.Open(s.dev, &serial.Mode{BaudRate: s.baud})
	if err != nil {
		return fmt.Errorf("failed to open serial %s: %w", s.dev, err)
	}
	if err := p.SetReadTimeout(s.readTimeout); err != nil {
		_ = p.Close()
		return fmt.Errorf("set read timeout on %s: %w", s.dev, err)
	}
	s.port = p
	return nil
}

// Close closes the underlying serial connection.
func (s *SerialDevice) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// ReadAvailable reads currently available bytes, waiting at most the read
// timeout. go.bug.st reports a timeout as (0, nil), which callers must
// treat as "nothing available" rather than a failure.
func (s *SerialDevice) ReadAvailable(p []byte) (int, error) {
	if s.port == nil {
		return 0, ErrNotOpen
	}
	return s.port.Read(p)
}

// WriteLine writes a single command followed by '\n' to the serial port.
func (s *SerialDevice) WriteLine(line string) error {
	if s.port == nil {
		return ErrNotOpen
	}
	_, err := s.port.Write(append([]byte(line), '\n'))
	return err
}
