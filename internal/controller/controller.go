// Package controller runs the coop door state machine.
//
// Every decision the machine makes is persisted to the retained store before
// it sleeps, so a restart (deep-sleep wake, crash or power cycle) resumes
// from the store alone. Machine is single-goroutine; the only blocking calls
// are the sleeps in Waiting and Error.
package controller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/coop-door/internal/calibration"
	"github.com/sweeney/coop-door/internal/gpio"
	"github.com/sweeney/coop-door/internal/logic"
	"github.com/sweeney/coop-door/internal/motor"
	"github.com/sweeney/coop-door/internal/power"
	"github.com/sweeney/coop-door/internal/rtc"
	"github.com/sweeney/coop-door/internal/schedule"
	"github.com/sweeney/coop-door/internal/store"
)

// ErrInconsistent is returned when the persisted state matches no rule.
var ErrInconsistent = errors.New("controller: inconsistent state")

// State is a controller state.
type State int

const (
	StateInitialize State = iota
	StateWaiting
	StateGetReasonForWakeUp
	StateWakeUp
	StateServiceRTC
	StateServiceLock
	StateServiceDoor
	StateRecover
	StateError
)

var stateNames = [...]string{
	StateInitialize:         "initialize",
	StateWaiting:            "waiting",
	StateGetReasonForWakeUp: "get_reason_for_wake_up",
	StateWakeUp:             "wake_up",
	StateServiceRTC:         "service_rtc",
	StateServiceLock:        "service_lock",
	StateServiceDoor:        "service_door",
	StateRecover:            "recover_from_improper_reset",
	StateError:              "error",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Config holds the controller's tunables.
type Config struct {
	Lock logic.ActuatorSpec
	Door logic.ActuatorSpec

	// SwitchSettle is how long the manual switch must hold a level before
	// it is believed.
	SwitchSettle time.Duration

	// SwitchOpenLevel is the raw switch level that means "open".
	SwitchOpenLevel bool

	// Blink is the on and off time of the indicator in Error.
	Blink time.Duration
}

// DefaultConfig returns the stock door and lock settings.
func DefaultConfig() Config {
	return Config{
		Lock:            logic.DefaultLock,
		Door:            logic.DefaultDoor,
		SwitchSettle:    50 * time.Millisecond,
		SwitchOpenLevel: true,
		Blink:           time.Second,
	}
}

// Peripherals are the collaborators the machine drives.
type Peripherals struct {
	RTC         rtc.Clock
	Lock        motor.Channel
	Door        motor.Channel
	DriverPower gpio.Output
	Switch      gpio.Reader
	Indicator   gpio.Output
	Sleeper     power.Sleeper
	Schedule    schedule.Source
	Calibration calibration.Source

	// Now is the monotonic clock used to measure motor run time.
	// Defaults to time.Now.
	Now func() time.Time

	// Sleep blocks for short in-state delays (switch settling, blinking).
	// Defaults to time.Sleep.
	Sleep func(time.Duration)
}

type actuator struct {
	*logic.Actuator
	ch motor.Channel
}

// Machine is the coop door controller.
type Machine struct {
	cfg Config
	p   Peripherals
	mem store.Slots
	st  *logic.Persisted
	log *zap.SugaredLogger

	lock actuator
	door actuator

	state        State
	sleepFor     time.Duration
	sleepStarted time.Time
	lastWake     logic.WakeSource
	deepSlept    bool
	halted       bool
	blinkFailed  bool
}

// New loads the persisted state from mem. Nothing is driven until the
// first Step.
func New(cfg Config, p Peripherals, mem store.Slots, log *zap.SugaredLogger) *Machine {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Sleep == nil {
		p.Sleep = time.Sleep
	}

	st := logic.LoadPersisted(mem, cfg.Lock, cfg.Door)
	return &Machine{
		cfg:          cfg,
		p:            p,
		mem:          mem,
		st:           st,
		log:          log,
		lock:         actuator{Actuator: &st.Lock, ch: p.Lock},
		door:         actuator{Actuator: &st.Door, ch: p.Door},
		state:        StateRecover,
		sleepStarted: p.Now(),
		lastWake:     logic.WakeEdge,
	}
}

// State returns the state the next Step will run.
func (m *Machine) State() State {
	return m.state
}

// Persisted exposes the retained state.
func (m *Machine) Persisted() *logic.Persisted {
	return m.st
}

// SleepFor is the duration of the next light sleep.
func (m *Machine) SleepFor() time.Duration {
	return m.sleepFor
}

// DeepSlept reports whether the machine has woken from a deep sleep and
// must be restarted from the top.
func (m *Machine) DeepSlept() bool {
	return m.deepSlept
}

// Entry chooses the first state after program start: a recorded pin wake
// resumes at GetReasonForWakeUp, an unset RTC needs Initialize, and
// anything else is an unplanned reset.
func (m *Machine) Entry() State {
	m.state = m.entry()
	m.log.Infow("entry", "state", m.state)
	return m.state
}

func (m *Machine) entry() State {
	if m.st.WakeCause.Take() == logic.WakePin {
		if err := m.p.Indicator.Set(true); err != nil {
			m.log.Errorw("indicator", "err", err)
			return StateError
		}
		return StateGetReasonForWakeUp
	}

	now, err := m.p.RTC.Now()
	if err != nil {
		m.log.Errorw("read rtc", "err", err)
		return StateError
	}
	if now.Year == rtc.UnsetYear {
		return StateInitialize
	}
	return StateRecover
}

// Step runs the current state once and moves to the next. A state that
// fails is logged and the machine moves to Error. Only cancellation of ctx
// is returned.
func (m *Machine) Step(ctx context.Context) error {
	next, err := m.run(ctx, m.state)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		m.log.Errorw("state failed", "state", m.state, "err", err)
		next = StateError
	}

	if next != m.state {
		m.log.Debugw("transition", "from", m.state, "to", next)
	}
	m.state = next
	return nil
}

// Run picks the entry state and steps until the machine has deep-slept or
// ctx is cancelled. It returns nil after a deep-sleep wake; the caller
// should then exit so the program restarts from the top.
func (m *Machine) Run(ctx context.Context) error {
	m.Entry()
	return m.loop(ctx)
}

// RunInitialize is Run for a commissioning boot: it starts at Initialize
// whatever the store and the RTC say.
func (m *Machine) RunInitialize(ctx context.Context) error {
	m.st.WakeCause.Take()
	m.state = StateInitialize
	m.log.Infow("entry", "state", m.state, "forced", true)
	return m.loop(ctx)
}

func (m *Machine) loop(ctx context.Context) error {
	for !m.deepSlept {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) run(ctx context.Context, s State) (State, error) {
	switch s {
	case StateInitialize:
		return m.initialize()
	case StateWaiting:
		return m.waiting(ctx)
	case StateGetReasonForWakeUp:
		return m.getReasonForWakeUp()
	case StateWakeUp:
		return m.wakeUp()
	case StateServiceRTC:
		return m.serviceRTC()
	case StateServiceLock:
		return m.service(&m.lock)
	case StateServiceDoor:
		return m.service(&m.door)
	case StateRecover:
		return m.recover()
	default:
		return m.fail(), nil
	}
}
