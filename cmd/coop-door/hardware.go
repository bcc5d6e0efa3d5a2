package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/coop-door/internal/config"
	"github.com/sweeney/coop-door/internal/gpio"
	"github.com/sweeney/coop-door/internal/i2cbus"
	"github.com/sweeney/coop-door/internal/logic"
	"github.com/sweeney/coop-door/internal/motor"
	"github.com/sweeney/coop-door/internal/power"
	"github.com/sweeney/coop-door/internal/rtc"
	"github.com/sweeney/coop-door/internal/store"
)

// hardware is every peripheral the controller drives.
type hardware struct {
	clock       rtc.Clock
	door        motor.Channel
	lock        motor.Channel
	driverPower gpio.Output
	indicator   gpio.Output
	sw          gpio.Reader
	sleeper     power.Sleeper

	// now and sleep replace the host clock when set.
	now   func() time.Time
	sleep func(time.Duration)

	closers []func() error
}

func (h *hardware) onClose(f func() error) {
	h.closers = append(h.closers, f)
}

// close runs the closers in reverse order of registration.
func (h *hardware) close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

func openRealHardware(cfg *config.Config) (*hardware, error) {
	hw := &hardware{}
	ok := false
	defer func() {
		if !ok {
			_ = hw.close()
		}
	}()

	bus, err := i2cbus.Open(cfg.Hardware.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open i2c: %w", err)
	}
	hw.onClose(bus.Close)

	hw.clock = rtc.NewDS3231(i2cbus.Device(bus, cfg.Hardware.RTCAddr))

	pwm, err := motor.NewPCA9685(i2cbus.Device(bus, cfg.Hardware.MotorKitAddr), motor.DefaultFrequency)
	if err != nil {
		return nil, fmt.Errorf("init motorkit: %w", err)
	}
	kit := motor.NewKit(pwm)
	door, err := kit.Motor(cfg.Door.Motor)
	if err != nil {
		return nil, fmt.Errorf("door motor: %w", err)
	}
	lock, err := kit.Motor(cfg.Lock.Motor)
	if err != nil {
		return nil, fmt.Errorf("lock motor: %w", err)
	}
	hw.door, hw.lock = door, lock
	hw.onClose(func() error {
		return errors.Join(door.Release(), lock.Release())
	})

	sw, err := gpio.NewRealReader(cfg.Hardware.PinSwitch)
	if err != nil {
		return nil, fmt.Errorf("switch line: %w", err)
	}
	hw.sw = sw
	hw.onClose(sw.Close)

	driver, err := gpio.NewRealOutput(cfg.Hardware.PinDriverPower)
	if err != nil {
		return nil, fmt.Errorf("driver power line: %w", err)
	}
	hw.driverPower = driver
	hw.onClose(driver.Close)

	led, err := gpio.NewRealOutput(cfg.Hardware.PinIndicator)
	if err != nil {
		return nil, fmt.Errorf("indicator line: %w", err)
	}
	hw.indicator = led
	hw.onClose(led.Close)

	wake, err := gpio.NewRealWakeLine(cfg.Hardware.PinWake)
	if err != nil {
		return nil, fmt.Errorf("wake line: %w", err)
	}
	hw.onClose(wake.Close)
	hw.sleeper = power.NewLineSleeper(wake)

	ok = true
	return hw, nil
}

// openRealClock opens only the DS3231, leaving the GPIO lines to a running
// controller.
func openRealClock(cfg *config.Config) (rtc.Clock, func() error, error) {
	bus, err := i2cbus.Open(cfg.Hardware.I2CBus)
	if err != nil {
		return nil, nil, fmt.Errorf("open i2c: %w", err)
	}
	return rtc.NewDS3231(i2cbus.Device(bus, cfg.Hardware.RTCAddr)), bus.Close, nil
}

func openStore(sc config.StoreConfig) (store.Slots, func() error, error) {
	switch sc.Backend {
	case config.BackendFile:
		s, err := store.OpenFile(sc.Path, logic.SlotCount)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendSQLite:
		s, err := store.OpenSQLite(sc.Path, logic.SlotCount)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendMemory:
		return store.NewMemory(logic.SlotCount), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", sc.Backend)
}
