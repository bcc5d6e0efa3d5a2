package controller

import (
	"context"
	"fmt"

	"github.com/sweeney/coop-door/internal/logic"
	"github.com/sweeney/coop-door/internal/rtc"
)

var alarmEvents = map[rtc.Alarm]logic.Event{
	rtc.AlarmOpen:  logic.EventOpen,
	rtc.AlarmClose: logic.EventClose,
}

// initialize sets the clock and both alarms from the calibration and
// declares where the actuators are.
func (m *Machine) initialize() (State, error) {
	c, err := m.p.Calibration.Calibrate()
	if err != nil {
		return StateError, fmt.Errorf("calibrate: %w", err)
	}
	if err := m.p.RTC.Set(c.At); err != nil {
		return StateError, fmt.Errorf("set rtc: %w", err)
	}

	s, err := m.p.Schedule.Load()
	if err != nil {
		return StateError, err
	}

	for _, n := range rtc.Alarms {
		ev := alarmEvents[n]
		at, err := logic.ComputeAlarm(c.At, s, ev, logic.Today)
		if err != nil {
			return StateError, err
		}
		if !c.At.Before(at) {
			if at, err = logic.ComputeAlarm(c.At, s, ev, logic.Tomorrow); err != nil {
				return StateError, err
			}
		}
		// A flag latched before commissioning would hold INT low as soon
		// as the interrupt is enabled.
		if err := m.p.RTC.ClearFired(n); err != nil {
			return StateError, fmt.Errorf("clear %s: %w", n, err)
		}
		if err := m.armAlarm(n, at); err != nil {
			return StateError, err
		}
	}

	for _, a := range []*actuator{&m.lock, &m.door} {
		a.Position.Set(c.Position)
		a.Elapsed.Set(0)
	}
	m.st.Intent.Set(logic.IntentNone)
	m.st.Retained.Set(true)

	m.log.Infow("initialized", "now", c.At, "position", c.Position)
	return StateWaiting, nil
}

func (m *Machine) armAlarm(n rtc.Alarm, at logic.Moment) error {
	if err := m.p.RTC.SetAlarm(n, at); err != nil {
		return fmt.Errorf("set %s: %w", n, err)
	}
	if err := m.p.RTC.EnableInterrupt(n, true); err != nil {
		return fmt.Errorf("enable %s interrupt: %w", n, err)
	}
	m.log.Infow("alarm armed", "alarm", n, "at", at)
	return nil
}

// waiting persists everything and sleeps. With a transition under way it
// light-sleeps for the computed duration; otherwise it powers the driver
// down and deep-sleeps until the wake line falls.
func (m *Machine) waiting(ctx context.Context) (State, error) {
	if err := m.mem.Sync(); err != nil {
		return StateError, fmt.Errorf("sync store: %w", err)
	}
	if err := m.p.Indicator.Set(false); err != nil {
		return StateError, fmt.Errorf("indicator: %w", err)
	}

	if m.st.Intent.Get() != logic.IntentNone {
		m.log.Debugw("light sleep", "duration", m.sleepFor)
		m.sleepStarted = m.p.Now()
		src, err := m.p.Sleeper.LightSleep(ctx, m.sleepFor)
		if err != nil {
			return StateError, fmt.Errorf("light sleep: %w", err)
		}
		m.lastWake = src
		m.log.Debugw("woke", "source", src, "slept", m.p.Now().Sub(m.sleepStarted))

		if err := m.p.Indicator.Set(true); err != nil {
			return StateError, fmt.Errorf("indicator: %w", err)
		}
		return StateGetReasonForWakeUp, nil
	}

	// INT is already low if an alarm fired while nothing was watching the
	// line, and no falling edge would ever arrive.
	pending, err := m.alarmPending()
	if err != nil {
		return StateError, err
	}
	if pending {
		m.log.Infow("alarm pending, skipping deep sleep")
		if err := m.p.Indicator.Set(true); err != nil {
			return StateError, fmt.Errorf("indicator: %w", err)
		}
		return StateServiceRTC, nil
	}

	if err := m.p.DriverPower.Set(false); err != nil {
		return StateError, fmt.Errorf("driver power: %w", err)
	}
	m.log.Infow("deep sleep")
	if err := m.p.Sleeper.DeepSleep(ctx); err != nil {
		return StateError, fmt.Errorf("deep sleep: %w", err)
	}

	m.st.WakeCause.Record(logic.WakePin)
	if err := m.mem.Sync(); err != nil {
		return StateError, fmt.Errorf("sync store: %w", err)
	}
	m.deepSlept = true
	return StateGetReasonForWakeUp, nil
}

// alarmPending reports whether either alarm flag is set.
func (m *Machine) alarmPending() (bool, error) {
	for _, n := range rtc.Alarms {
		fired, err := m.p.RTC.Fired(n)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", n, err)
		}
		if fired {
			return true, nil
		}
	}
	return false, nil
}

// readSwitch samples the manual switch until it settles. If it never
// settles the last sample is used.
func (m *Machine) readSwitch() (bool, error) {
	settle := m.cfg.SwitchSettle
	d := logic.NewDebouncer(settle)
	deadline := m.p.Now().Add(10 * settle)

	for {
		level, err := m.p.Switch.Read()
		if err != nil {
			return false, fmt.Errorf("read switch: %w", err)
		}

		now := m.p.Now()
		if settled, ok := d.Process(level, now); ok {
			return settled, nil
		}
		if !now.Before(deadline) {
			m.log.Warnw("switch did not settle", "level", level)
			return level, nil
		}
		m.p.Sleep(settle / 5)
	}
}

func (m *Machine) getReasonForWakeUp() (State, error) {
	level, err := m.readSwitch()
	if err != nil {
		return StateError, err
	}
	m.log.Debugw("switch", "level", level)

	pending, err := m.alarmPending()
	if err != nil {
		return StateError, err
	}
	if pending {
		return StateServiceRTC, nil
	}

	if m.lastWake == logic.WakeTimer {
		return StateWakeUp, nil
	}

	if level == m.cfg.SwitchOpenLevel {
		m.st.Intent.Set(logic.IntentOpen)
	} else {
		m.st.Intent.Set(logic.IntentClose)
	}
	m.log.Infow("switch wake", "intent", m.st.Intent.Get())
	return StateWakeUp, nil
}

func (m *Machine) wakeUp() (State, error) {
	intent := m.st.Intent.Get()
	lock := m.lock.Position.Get()
	door := m.door.Position.Get()

	switch {
	case intent == logic.IntentOpen && lock == logic.Open && door == logic.Open,
		intent == logic.IntentClose && lock == logic.Closed && door == logic.Closed:
		m.st.Intent.Set(logic.IntentNone)
		return StateWaiting, nil
	case intent == logic.IntentOpen && lock == logic.Closed,
		!lock.IsTerminal():
		return StateServiceLock, nil
	case intent == logic.IntentClose && door == logic.Open,
		!door.IsTerminal():
		return StateServiceDoor, nil
	case intent == logic.IntentOpen && lock == logic.Open && door == logic.Closed:
		return StateServiceDoor, nil
	case intent == logic.IntentClose && door == logic.Closed && lock == logic.Open:
		return StateServiceLock, nil
	}

	return StateError, fmt.Errorf("%w: intent %s, lock %s, door %s", ErrInconsistent, intent, lock, door)
}

// serviceRTC acknowledges fired alarms, rearms them for tomorrow and sets
// the intent from whichever scheduled event is most recent.
func (m *Machine) serviceRTC() (State, error) {
	now, err := m.p.RTC.Now()
	if err != nil {
		return StateError, fmt.Errorf("read rtc: %w", err)
	}
	s, err := m.p.Schedule.Load()
	if err != nil {
		return StateError, err
	}

	fired := make(map[rtc.Alarm]bool, len(rtc.Alarms))
	for _, n := range rtc.Alarms {
		if fired[n], err = m.p.RTC.Fired(n); err != nil {
			return StateError, fmt.Errorf("read %s: %w", n, err)
		}
		if !fired[n] {
			continue
		}

		if err := m.p.RTC.ClearFired(n); err != nil {
			return StateError, fmt.Errorf("clear %s: %w", n, err)
		}
		next, err := logic.ComputeAlarm(now, s, alarmEvents[n], logic.Tomorrow)
		if err != nil {
			return StateError, err
		}
		if err := m.armAlarm(n, next); err != nil {
			return StateError, err
		}
	}

	switch {
	case fired[rtc.AlarmOpen] && fired[rtc.AlarmClose]:
		closeAt, err := logic.ComputeAlarm(now, s, logic.EventClose, logic.Today)
		if err != nil {
			return StateError, err
		}
		if now.Before(closeAt) {
			m.st.Intent.Set(logic.IntentOpen)
		} else {
			m.st.Intent.Set(logic.IntentClose)
		}
	case fired[rtc.AlarmOpen]:
		m.st.Intent.Set(logic.IntentOpen)
	case fired[rtc.AlarmClose]:
		m.st.Intent.Set(logic.IntentClose)
	default:
		m.log.Warnw("no alarm fired", "now", now)
	}

	m.log.Infow("alarm", "now", now, "intent", m.st.Intent.Get())
	return StateWakeUp, nil
}

// recover resumes after an unplanned reset. With retained memory intact
// the persisted state is trusted. Without it, the schedule decides where
// the door should be and both actuators are driven there from the
// opposite end.
func (m *Machine) recover() (State, error) {
	if m.st.Retained.Get() {
		m.log.Infow("retained state intact", "intent", m.st.Intent.Get())
		if m.st.Intent.Get() == logic.IntentNone {
			return StateWaiting, nil
		}
		return StateWakeUp, nil
	}

	m.st.Retained.Set(true)
	for _, n := range rtc.Alarms {
		if err := m.p.RTC.EnableInterrupt(n, true); err != nil {
			return StateError, fmt.Errorf("enable %s interrupt: %w", n, err)
		}
	}

	now, err := m.p.RTC.Now()
	if err != nil {
		return StateError, fmt.Errorf("read rtc: %w", err)
	}
	s, err := m.p.Schedule.Load()
	if err != nil {
		return StateError, err
	}
	openAt, err := logic.ComputeAlarm(now, s, logic.EventOpen, logic.Today)
	if err != nil {
		return StateError, err
	}
	closeAt, err := logic.ComputeAlarm(now, s, logic.EventClose, logic.Today)
	if err != nil {
		return StateError, err
	}

	intent, from := logic.IntentOpen, logic.Closed
	if now.Before(openAt) || now.After(closeAt) {
		intent, from = logic.IntentClose, logic.Open
	}
	m.st.Intent.Set(intent)
	for _, a := range []*actuator{&m.lock, &m.door} {
		a.Position.Set(from)
		a.Elapsed.Set(0)
	}

	m.log.Warnw("retained state lost, resynchronising", "now", now, "intent", intent)
	return StateWakeUp, nil
}

// fail stops both motors once, then blinks the indicator forever.
func (m *Machine) fail() State {
	if !m.halted {
		m.halted = true
		for _, a := range []*actuator{&m.lock, &m.door} {
			if err := a.ch.Release(); err != nil {
				m.log.Errorw("release motor", "actuator", a.Spec.Name, "err", err)
			}
		}
		if err := m.p.DriverPower.Set(false); err != nil {
			m.log.Errorw("driver power", "err", err)
		}
		m.log.Errorw("halted", "lock", m.lock.Position.Get(), "door", m.door.Position.Get(), "intent", m.st.Intent.Get())
	}

	m.blink(true)
	m.p.Sleep(m.cfg.Blink)
	m.blink(false)
	m.p.Sleep(m.cfg.Blink)
	return StateError
}

// blink drives the indicator in Error. Only the first failure is logged,
// since the blink repeats forever.
func (m *Machine) blink(on bool) {
	if err := m.p.Indicator.Set(on); err != nil && !m.blinkFailed {
		m.blinkFailed = true
		m.log.Errorw("indicator", "err", err)
	}
}
