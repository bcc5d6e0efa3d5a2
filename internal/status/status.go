// Package status collects a point-in-time view of the controller's retained
// state and RTC for the print-state command.
package status

import (
	"time"

	"github.com/sweeney/coop-door/internal/logic"
	"github.com/sweeney/coop-door/internal/rtc"
)

// Config contains controller configuration for display.
type Config struct {
	StoreBackend  string
	StorePath     string
	SchedulePath  string
	LockThreshold time.Duration
	DoorThreshold time.Duration
}

// Actuator is the retained state of one actuator.
type Actuator struct {
	Position logic.Position
	Elapsed  time.Duration
}

// Snapshot is a point-in-time view of the controller.
type Snapshot struct {
	Lock      Actuator
	Door      Actuator
	Intent    logic.Intent
	Retained  bool
	WakeCause logic.WakeCause

	// RTC is nil when the clock could not be read; RTCError says why.
	RTC      *logic.Moment
	RTCError string
	Fired    map[rtc.Alarm]bool

	Now    time.Time
	Config Config
}

// Collect reads p and the clock, which may be nil. RTC failures are
// recorded in the snapshot rather than returned, so the retained state is
// always reported.
func Collect(p *logic.Persisted, clock rtc.Clock, now time.Time, cfg Config) Snapshot {
	s := Snapshot{
		Lock:      Actuator{Position: p.Lock.Position.Get(), Elapsed: p.Lock.Elapsed.Get()},
		Door:      Actuator{Position: p.Door.Position.Get(), Elapsed: p.Door.Elapsed.Get()},
		Intent:    p.Intent.Get(),
		Retained:  p.Retained.Get(),
		WakeCause: p.WakeCause.Peek(),
		Fired:     make(map[rtc.Alarm]bool, len(rtc.Alarms)),
		Now:       now,
		Config:    cfg,
	}

	if clock == nil {
		s.RTCError = "rtc unavailable"
		return s
	}

	m, err := clock.Now()
	if err != nil {
		s.RTCError = err.Error()
		return s
	}
	s.RTC = &m

	for _, n := range rtc.Alarms {
		fired, err := clock.Fired(n)
		if err != nil {
			s.RTCError = err.Error()
			break
		}
		s.Fired[n] = fired
	}
	return s
}

// ClockSet reports whether the RTC holds a real time.
func (s Snapshot) ClockSet() bool {
	return s.RTC != nil && s.RTC.Year != rtc.UnsetYear
}
