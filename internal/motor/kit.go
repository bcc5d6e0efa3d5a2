package motor

import "fmt"

// MotorKit pin assignments (pwm, in1, in2) for M1..M4.
var kitPins = [4][3]int{
	{8, 9, 10},
	{13, 11, 12},
	{2, 3, 4},
	{7, 5, 6},
}

// Kit is an Adafruit DC Motor FeatherWing / MotorKit.
type Kit struct {
	pwm *PCA9685
}

// NewKit wraps an initialised PCA9685.
func NewKit(pwm *PCA9685) *Kit {
	return &Kit{pwm: pwm}
}

// Motor returns terminal block n (1..4). The bridge enable is driven fully
// on; speed is set on the direction inputs.
func (k *Kit) Motor(n int) (*KitMotor, error) {
	if n < 1 || n > len(kitPins) {
		return nil, fmt.Errorf("motorkit: no such motor M%d", n)
	}
	pins := kitPins[n-1]
	if err := k.pwm.SetDuty(pins[0], 0xFFFF); err != nil {
		return nil, fmt.Errorf("motorkit: enable M%d: %w", n, err)
	}
	return &KitMotor{pwm: k.pwm, n: n, in1: pins[1], in2: pins[2]}, nil
}

// KitMotor is one MotorKit terminal block.
type KitMotor struct {
	pwm      *PCA9685
	n        int
	in1, in2 int
}

func (m *KitMotor) drive(d1, d2 uint16) error {
	if err := m.pwm.SetDuty(m.in1, d1); err != nil {
		return fmt.Errorf("motorkit M%d: %w", m.n, err)
	}
	if err := m.pwm.SetDuty(m.in2, d2); err != nil {
		return fmt.Errorf("motorkit M%d: %w", m.n, err)
	}
	return nil
}

// SetThrottle uses fast decay: one input carries the PWM, the other is held
// low. Zero brakes by holding both inputs high.
func (m *KitMotor) SetThrottle(throttle float64) error {
	if err := checkThrottle(throttle); err != nil {
		return err
	}

	duty := uint16(0xFFFF * abs(throttle))
	switch {
	case throttle > 0:
		return m.drive(duty, 0)
	case throttle < 0:
		return m.drive(0, duty)
	default:
		return m.drive(0xFFFF, 0xFFFF)
	}
}

// Release holds both inputs low so the motor coasts.
func (m *KitMotor) Release() error {
	return m.drive(0, 0)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
