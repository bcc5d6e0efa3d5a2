// Package power implements the controller's two sleep modes.
//
// Light sleep blocks in-process until a timer expires or the wake line
// falls. Deep sleep blocks until the wake line falls; the caller then exits
// so the supervisor restarts the program from the top, which is what a
// deep-sleep wake looks like on a microcontroller.
package power

import (
	"context"
	"time"

	"github.com/sweeney/coop-door/internal/gpio"
	"github.com/sweeney/coop-door/internal/logic"
)

// Sleeper suspends the controller.
type Sleeper interface {
	// LightSleep returns after d or at the next wake edge, whichever is
	// first, and reports which it was.
	LightSleep(ctx context.Context, d time.Duration) (logic.WakeSource, error)

	// DeepSleep returns at the next wake edge.
	DeepSleep(ctx context.Context) error
}

// LineSleeper sleeps on a wake line.
type LineSleeper struct {
	wake gpio.WakeLine
}

// NewLineSleeper returns a sleeper woken by edges on wake.
func NewLineSleeper(wake gpio.WakeLine) *LineSleeper {
	return &LineSleeper{wake: wake}
}

// LightSleep waits for the timer, an edge or cancellation. An edge already
// pending wakes immediately.
func (s *LineSleeper) LightSleep(ctx context.Context, d time.Duration) (logic.WakeSource, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return logic.WakeTimer, ctx.Err()
	case <-s.wake.Edges():
		return logic.WakeEdge, nil
	case <-timer.C:
		return logic.WakeTimer, nil
	}
}

// DeepSleep waits for an edge or cancellation.
func (s *LineSleeper) DeepSleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.wake.Edges():
		return nil
	}
}
