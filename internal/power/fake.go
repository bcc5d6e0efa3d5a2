package power

import (
	"context"
	"time"

	"github.com/sweeney/coop-door/internal/logic"
)

// Wake scripts the outcome of one light sleep.
type Wake struct {
	Source logic.WakeSource
	// After is how long into the sleep an edge arrives. Ignored for
	// WakeTimer, which always runs the full duration.
	After time.Duration
}

// FakeSleeper returns scripted wakes without blocking.
type FakeSleeper struct {
	// Script is consumed in order. Once exhausted every light sleep runs
	// to its full duration and reports WakeTimer.
	Script []Wake

	// Advance, if set, is called with the time spent asleep so tests can
	// move their clock.
	Advance func(time.Duration)

	// DeepFor is the time a deep sleep lasts.
	DeepFor time.Duration

	// Light records every requested light-sleep duration.
	Light []time.Duration

	// Deep counts deep sleeps.
	Deep int

	// Err, if set, is returned by both methods.
	Err error
}

// LightSleep records d and returns the next scripted wake.
func (f *FakeSleeper) LightSleep(ctx context.Context, d time.Duration) (logic.WakeSource, error) {
	if err := ctx.Err(); err != nil {
		return logic.WakeTimer, err
	}
	if f.Err != nil {
		return logic.WakeTimer, f.Err
	}
	f.Light = append(f.Light, d)

	w := Wake{Source: logic.WakeTimer}
	if len(f.Script) > 0 {
		w, f.Script = f.Script[0], f.Script[1:]
	}

	slept := d
	if w.Source == logic.WakeEdge && w.After < d {
		slept = w.After
	}
	f.advance(slept)
	return w.Source, nil
}

// DeepSleep counts the call.
func (f *FakeSleeper) DeepSleep(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Err != nil {
		return f.Err
	}
	f.Deep++
	f.advance(f.DeepFor)
	return nil
}

func (f *FakeSleeper) advance(d time.Duration) {
	if f.Advance != nil {
		f.Advance(d)
	}
}
