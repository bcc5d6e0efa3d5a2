package logic

import "time"

// Debouncer settles a single digital input. A level is reported only after
// it has been observed unchanged for the settle duration.
type Debouncer struct {
	settle       time.Duration
	pending      bool
	pendingSince time.Time
	observing    bool
}

// NewDebouncer creates a debouncer with the given settle duration.
func NewDebouncer(settle time.Duration) *Debouncer {
	return &Debouncer{settle: settle}
}

// Process takes a new sample and returns the settled level once one exists.
// Any change of level restarts the settle period.
func (d *Debouncer) Process(level bool, now time.Time) (settled bool, ok bool) {
	if !d.observing || d.pending != level {
		d.observing = true
		d.pending = level
		d.pendingSince = now
	}

	if now.Sub(d.pendingSince) >= d.settle {
		return d.pending, true
	}
	return false, false
}
