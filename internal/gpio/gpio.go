// Package gpio provides the coop's discrete lines with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import "time"

// Reader reads a single digital input.
type Reader interface {
	// Read returns the raw level of the line (true = high).
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Output drives a single digital output.
type Output interface {
	// Set drives the line high (true) or low (false).
	Set(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// WakeLine delivers falling edges on the wake input.
type WakeLine interface {
	// Edges receives the time of each falling edge. Edges that arrive
	// while nobody is receiving are dropped once the buffer is full.
	Edges() <-chan time.Time

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinSwitch      = 17 // manual open/close switch
	DefaultPinWake        = 27 // RTC INT/SQW, active low
	DefaultPinDriverPower = 22 // motor driver boost enable
	DefaultPinIndicator   = 25 // status LED
)
