// Package i2cbus opens the I2C bus shared by the RTC and the motor driver.
package i2cbus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// DefaultBus selects the first available bus.
const DefaultBus = ""

// Open initialises the host drivers and opens the named bus.
func Open(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return bus, nil
}

// Device returns the device at addr on bus.
func Device(bus i2c.Bus, addr uint16) *i2c.Dev {
	return &i2c.Dev{Bus: bus, Addr: addr}
}
