//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(pin int) (*RealReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// NewRealOutput returns an error on non-Linux platforms.
func NewRealOutput(pin int) (*RealOutput, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (o *RealOutput) Set(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (o *RealOutput) Close() error {
	return nil
}

// RealWakeLine is not available on non-Linux platforms.
type RealWakeLine struct{}

// NewRealWakeLine returns an error on non-Linux platforms.
func NewRealWakeLine(pin int) (*RealWakeLine, error) {
	return nil, errUnsupported
}

// Edges returns nil on non-Linux platforms.
func (w *RealWakeLine) Edges() <-chan time.Time {
	return nil
}

// Close is not implemented on non-Linux platforms.
func (w *RealWakeLine) Close() error {
	return nil
}
