package motor

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3"
)

// DefaultAddr is the MotorKit's PCA9685 address.
const DefaultAddr = 0x60

// DefaultFrequency is the PWM frequency the MotorKit runs at, in Hz.
const DefaultFrequency = 1600

const (
	regMode1    = 0x00
	regLED0     = 0x06
	regPrescale = 0xFE

	mode1Restart = 0x80
	mode1AI      = 0x20
	mode1Sleep   = 0x10

	oscillatorHz = 25_000_000
	fullBit      = 0x1000
)

// PCA9685 is a 16-channel, 12-bit PWM controller.
type PCA9685 struct {
	dev   conn.Conn
	sleep func(time.Duration)
}

// NewPCA9685 sets the PWM frequency and enables register auto-increment.
func NewPCA9685(dev conn.Conn, freqHz int) (*PCA9685, error) {
	return newPCA9685(dev, freqHz, time.Sleep)
}

func newPCA9685(dev conn.Conn, freqHz int, sleep func(time.Duration)) (*PCA9685, error) {
	if freqHz <= 0 {
		return nil, fmt.Errorf("pca9685: frequency %d Hz out of range", freqHz)
	}

	p := &PCA9685{dev: dev, sleep: sleep}

	old := make([]byte, 1)
	if err := dev.Tx([]byte{regMode1}, old); err != nil {
		return nil, fmt.Errorf("pca9685: read mode1: %w", err)
	}

	prescale := Prescale(freqHz)
	mode := old[0] &^ mode1Restart

	// The prescaler can only be written while the oscillator is asleep.
	steps := [][]byte{
		{regMode1, mode | mode1Sleep},
		{regPrescale, prescale},
		{regMode1, mode},
	}
	for _, w := range steps {
		if err := dev.Tx(w, nil); err != nil {
			return nil, fmt.Errorf("pca9685: write 0x%02x: %w", w[0], err)
		}
	}

	p.sleep(5 * time.Millisecond)

	if err := dev.Tx([]byte{regMode1, mode | mode1Restart | mode1AI}, nil); err != nil {
		return nil, fmt.Errorf("pca9685: restart: %w", err)
	}
	return p, nil
}

// Prescale returns the prescaler value for freqHz, clamped to the
// register's valid range.
func Prescale(freqHz int) byte {
	v := math.Round(oscillatorHz/(4096*float64(freqHz))) - 1
	return byte(math.Max(3, math.Min(255, v)))
}

func (p *PCA9685) setPWM(ch int, on, off uint16) error {
	if ch < 0 || ch > 15 {
		return fmt.Errorf("pca9685: no such channel %d", ch)
	}
	w := []byte{
		byte(regLED0 + 4*ch),
		byte(on), byte(on >> 8),
		byte(off), byte(off >> 8),
	}
	if err := p.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("pca9685: channel %d: %w", ch, err)
	}
	return nil
}

// SetDuty sets a channel's duty cycle as a 16-bit fraction. 0xFFFF is fully
// on and 0 fully off.
func (p *PCA9685) SetDuty(ch int, duty uint16) error {
	switch duty {
	case 0xFFFF:
		return p.setPWM(ch, fullBit, 0)
	case 0:
		return p.setPWM(ch, 0, fullBit)
	default:
		return p.setPWM(ch, 0, duty>>4)
	}
}
