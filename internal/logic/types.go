// Package logic contains the pure coop-door domain: actuator positions, the
// commanded intent, the retained slot layout and the schedule clock.
// This package has NO external dependencies (no GPIO, I2C, OS, or time.Sleep).
// Time is always injectable via parameters.
package logic

import "time"

// Position is the state of one actuator (door or lock).
type Position uint8

const (
	Closed Position = iota
	Open
	Opening
	Closing
	PausedOpening
	PausedClosing
)

var positionNames = [...]string{
	Closed:        "closed",
	Open:          "open",
	Opening:       "opening",
	Closing:       "closing",
	PausedOpening: "paused_opening",
	PausedClosing: "paused_closing",
}

func (p Position) String() string {
	if int(p) < len(positionNames) {
		return positionNames[p]
	}
	return "unknown"
}

// IsTerminal reports whether no motion is in progress or paused.
func (p Position) IsTerminal() bool {
	return p == Open || p == Closed
}

// IsMoving reports whether the motor is being driven.
func (p Position) IsMoving() bool {
	return p == Opening || p == Closing
}

// IsPaused reports whether a transition was stopped part way.
func (p Position) IsPaused() bool {
	return p == PausedOpening || p == PausedClosing
}

// Direction returns the direction of a moving or paused actuator, or
// IntentNone for terminal positions.
func (p Position) Direction() Intent {
	switch p {
	case Opening, PausedOpening:
		return IntentOpen
	case Closing, PausedClosing:
		return IntentClose
	default:
		return IntentNone
	}
}

// Intent is the commanded overall direction, independent of where each
// actuator currently is.
type Intent uint8

const (
	IntentNone Intent = iota
	IntentOpen
	IntentClose
)

func (i Intent) String() string {
	switch i {
	case IntentNone:
		return "none"
	case IntentOpen:
		return "opening"
	case IntentClose:
		return "closing"
	default:
		return "unknown"
	}
}

// Target is the terminal position the intent drives towards.
func (i Intent) Target() Position {
	if i == IntentOpen {
		return Open
	}
	return Closed
}

// Moving is the in-progress position for the intent.
func (i Intent) Moving() Position {
	if i == IntentOpen {
		return Opening
	}
	return Closing
}

// Paused is the paused position for the intent.
func (i Intent) Paused() Position {
	if i == IntentOpen {
		return PausedOpening
	}
	return PausedClosing
}

// Opposite returns the reverse direction. IntentNone has no opposite.
func (i Intent) Opposite() Intent {
	switch i {
	case IntentOpen:
		return IntentClose
	case IntentClose:
		return IntentOpen
	default:
		return IntentNone
	}
}

// WakeCause is recorded before a deep-sleep restart so the next run knows it
// was woken rather than reset.
type WakeCause uint8

const (
	WakeNone WakeCause = iota
	WakePin
)

func (w WakeCause) String() string {
	if w == WakePin {
		return "pin"
	}
	return "none"
}

// WakeSource says what ended a light sleep.
type WakeSource int

const (
	WakeTimer WakeSource = iota
	WakeEdge
)

func (w WakeSource) String() string {
	if w == WakeEdge {
		return "pin"
	}
	return "timer"
}

// ActuatorSpec holds the timing and throttle settings for one actuator.
// There is no position feedback; Threshold alone decides when a transition
// is complete.
type ActuatorSpec struct {
	Name          string
	Threshold     time.Duration // full-speed open/close duration
	OpenThrottle  float64
	CloseThrottle float64

	// Reduced-power profile. Carried as configuration; no transition uses it.
	ReducedThreshold     time.Duration
	ReducedOpenThrottle  float64
	ReducedCloseThrottle float64
}

// Throttle returns the drive value for the given direction.
func (s ActuatorSpec) Throttle(dir Intent) float64 {
	if dir == IntentOpen {
		return s.OpenThrottle
	}
	return s.CloseThrottle
}

// Default actuator settings for the swinging door and the lock.
var (
	DefaultDoor = ActuatorSpec{
		Name:                 "door",
		Threshold:            7500 * time.Millisecond,
		OpenThrottle:         -1.0,
		CloseThrottle:        1.0,
		ReducedThreshold:     11500 * time.Millisecond,
		ReducedOpenThrottle:  -0.75,
		ReducedCloseThrottle: 0.75,
	}
	DefaultLock = ActuatorSpec{
		Name:                 "lock",
		Threshold:            1200 * time.Millisecond,
		OpenThrottle:         -1.0,
		CloseThrottle:        1.0,
		ReducedThreshold:     2400 * time.Millisecond,
		ReducedOpenThrottle:  -0.75,
		ReducedCloseThrottle: 0.75,
	}
)
