// Package device defines the byte-stream link to the microcontroller.
// It abstracts opening the link, bounded reads of whatever is available,
// and writing newline-terminated command text.
package device

import "errors"

// ErrNotOpen is returned when an operation is attempted on a closed link.
var ErrNotOpen = errors.New("device not open")

// Device defines the abstract link interface (serial port or test fake).
type Device interface {
	// Open establishes the connection. Calling Open on an already
	// open device is a no-op.
	Open() error

	// ReadAvailable reads whatever bytes are currently available into p,
	// waiting at most the configured read timeout. A timeout with no data
	// returns (0, nil); it is not an error.
	ReadAvailable(p []byte) (int, error)

	// WriteLine writes s followed by '\n' to the device.
	WriteLine(s string) error

	// Close releases the connection. Safe to call when already closed.
	Close() error
}
