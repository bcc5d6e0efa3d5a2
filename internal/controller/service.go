package controller

import (
	"fmt"
	"time"

	"github.com/sweeney/coop-door/internal/logic"
)

// service advances one actuator toward the intent. There is no position
// feedback: an actuator is considered at its end once its motor has run
// for the full threshold, measured across sleeps by the persisted timer.
func (m *Machine) service(a *actuator) (State, error) {
	intent := m.st.Intent.Get()
	if intent == logic.IntentNone {
		return StateError, fmt.Errorf("%w: %s serviced with no intent", ErrInconsistent, a.Spec.Name)
	}

	pos := a.Position.Get()
	threshold := a.Spec.Threshold
	persisted := a.Elapsed.Get()

	switch {
	case pos == intent.Target():
		return m.complete(a, intent)

	case pos.IsTerminal():
		a.Elapsed.Set(0)
		a.Position.Set(intent.Moving())
		m.log.Infow("start", "actuator", a.Spec.Name, "intent", intent)
		return m.drive(a, intent, threshold)

	case pos.IsMoving() && pos.Direction() == intent:
		elapsed := persisted + m.p.Now().Sub(m.sleepStarted)
		m.log.Debugw("moving", "actuator", a.Spec.Name, "elapsed", elapsed, "threshold", threshold)
		if elapsed >= threshold {
			return m.complete(a, intent)
		}
		a.Elapsed.Set(elapsed)
		return m.drive(a, intent, threshold-elapsed)

	case pos.IsMoving():
		elapsed := min(persisted+m.p.Now().Sub(m.sleepStarted), threshold)
		a.Elapsed.Set(elapsed)
		a.Position.Set(pos.Direction().Paused())
		m.st.Intent.Set(logic.IntentNone)
		m.log.Infow("paused", "actuator", a.Spec.Name, "position", a.Position.Get(), "elapsed", elapsed)
		return m.stop(a)

	case pos.Direction() == intent:
		// Paused part way in this direction: finish the remainder.
		a.Position.Set(intent.Moving())
		m.log.Infow("resume", "actuator", a.Spec.Name, "intent", intent, "elapsed", persisted)
		return m.drive(a, intent, max(threshold-persisted, 0))

	default:
		// Paused part way in the other direction: undo the progress made.
		// The timer then holds progress in the new direction.
		done := min(persisted, threshold)
		a.Elapsed.Set(threshold - done)
		a.Position.Set(intent.Moving())
		m.log.Infow("reverse", "actuator", a.Spec.Name, "intent", intent, "undo", done)
		return m.drive(a, intent, done)
	}
}

// drive powers the driver and runs the motor, then sleeps for d.
func (m *Machine) drive(a *actuator, intent logic.Intent, d time.Duration) (State, error) {
	if err := m.p.DriverPower.Set(true); err != nil {
		return StateError, fmt.Errorf("driver power: %w", err)
	}
	if err := a.ch.SetThrottle(a.Spec.Throttle(intent)); err != nil {
		return StateError, fmt.Errorf("%s motor: %w", a.Spec.Name, err)
	}
	m.sleepFor = d
	return StateWaiting, nil
}

// complete marks the actuator at the intent's end. Opening continues from
// the lock to the door and closing from the door to the lock; otherwise
// the transition is finished.
func (m *Machine) complete(a *actuator, intent logic.Intent) (State, error) {
	a.Elapsed.Set(0)
	a.Position.Set(intent.Target())
	if err := a.ch.Release(); err != nil {
		return StateError, fmt.Errorf("%s motor: %w", a.Spec.Name, err)
	}
	m.log.Infow("reached", "actuator", a.Spec.Name, "position", a.Position.Get())

	switch {
	case a == &m.lock && intent == logic.IntentOpen:
		return StateServiceDoor, nil
	case a == &m.door && intent == logic.IntentClose:
		return StateServiceLock, nil
	}

	m.st.Intent.Set(logic.IntentNone)
	if err := m.p.DriverPower.Set(false); err != nil {
		return StateError, fmt.Errorf("driver power: %w", err)
	}
	m.log.Infow("transition complete", "intent", intent)
	return StateWaiting, nil
}

// stop releases the motor and powers the driver down.
func (m *Machine) stop(a *actuator) (State, error) {
	if err := a.ch.Release(); err != nil {
		return StateError, fmt.Errorf("%s motor: %w", a.Spec.Name, err)
	}
	if err := m.p.DriverPower.Set(false); err != nil {
		return StateError, fmt.Errorf("driver power: %w", err)
	}
	return StateWaiting, nil
}
