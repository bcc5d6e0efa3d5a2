package rtc

import "github.com/sweeney/coop-door/internal/logic"

// FakeClock is an in-memory clock for tests. Tests set Current and
// FiredFlags directly to script the hardware.
type FakeClock struct {
	Current    logic.Moment
	Alarms     map[Alarm]logic.Moment
	Enabled    map[Alarm]bool
	FiredFlags map[Alarm]bool

	// Cleared records every ClearFired call, in order.
	Cleared []Alarm

	// Err, if set, is returned by every method.
	Err error
}

// NewFakeClock returns a clock reading now with no alarms armed.
func NewFakeClock(now logic.Moment) *FakeClock {
	return &FakeClock{
		Current:    now,
		Alarms:     make(map[Alarm]logic.Moment),
		Enabled:    make(map[Alarm]bool),
		FiredFlags: make(map[Alarm]bool),
	}
}

// Now returns Current.
func (f *FakeClock) Now() (logic.Moment, error) {
	if f.Err != nil {
		return logic.Moment{}, f.Err
	}
	return f.Current, nil
}

// Set replaces Current.
func (f *FakeClock) Set(m logic.Moment) error {
	if f.Err != nil {
		return f.Err
	}
	f.Current = m
	return nil
}

// SetAlarm records the alarm time.
func (f *FakeClock) SetAlarm(n Alarm, at logic.Moment) error {
	if f.Err != nil {
		return f.Err
	}
	if err := checkAlarm(n); err != nil {
		return err
	}
	f.Alarms[n] = at
	return nil
}

// EnableInterrupt records the enable state.
func (f *FakeClock) EnableInterrupt(n Alarm, on bool) error {
	if f.Err != nil {
		return f.Err
	}
	if err := checkAlarm(n); err != nil {
		return err
	}
	f.Enabled[n] = on
	return nil
}

// Fired returns the scripted flag.
func (f *FakeClock) Fired(n Alarm) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	if err := checkAlarm(n); err != nil {
		return false, err
	}
	return f.FiredFlags[n], nil
}

// ClearFired clears the flag and records the call.
func (f *FakeClock) ClearFired(n Alarm) error {
	if f.Err != nil {
		return f.Err
	}
	if err := checkAlarm(n); err != nil {
		return err
	}
	f.FiredFlags[n] = false
	f.Cleared = append(f.Cleared, n)
	return nil
}
