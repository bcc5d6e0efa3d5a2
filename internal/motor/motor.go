// Package motor drives the door and lock DC motors. The real implementation
// is an Adafruit MotorKit (PCA9685 PWM + TB6612 H-bridges) on I2C; the fake
// records every command for tests.
package motor

import (
	"errors"
	"fmt"
)

// ErrThrottleRange is returned for a throttle outside [-1, 1].
var ErrThrottleRange = errors.New("motor: throttle out of range")

// Channel is one DC motor output.
type Channel interface {
	// SetThrottle drives the motor. Positive and negative values select the
	// direction; zero brakes.
	SetThrottle(throttle float64) error

	// Release stops driving the motor and lets it coast.
	Release() error
}

func checkThrottle(throttle float64) error {
	if throttle < -1 || throttle > 1 {
		return fmt.Errorf("%w: %v", ErrThrottleRange, throttle)
	}
	return nil
}
