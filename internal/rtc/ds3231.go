package rtc

import (
	"fmt"

	"periph.io/x/conn/v3"

	"github.com/sweeney/coop-door/internal/logic"
)

// DefaultAddr is the DS3231's fixed I2C address.
const DefaultAddr = 0x68

// DS3231 registers.
const (
	regSeconds = 0x00
	regAlarm1  = 0x07
	regAlarm2  = 0x0B
	regControl = 0x0E
	regStatus  = 0x0F
)

const (
	ctrlA1IE  = 1 << 0
	ctrlA2IE  = 1 << 1
	ctrlINTCN = 1 << 2

	statusA1F = 1 << 0
	statusA2F = 1 << 1
	statusOSF = 1 << 7

	maskBit    = 1 << 7 // AxMy: ignore this field when matching
	hour12Bit  = 1 << 6
	hourPMBit  = 1 << 5
	centuryBit = 1 << 7
)

// DS3231 drives a Maxim DS3231 over any periph connection.
type DS3231 struct {
	dev conn.Conn
}

// NewDS3231 wraps dev, normally an *i2c.Dev at DefaultAddr.
func NewDS3231(dev conn.Conn) *DS3231 {
	return &DS3231{dev: dev}
}

func bcd(v int) byte {
	return byte(v/10<<4 | v%10)
}

func fromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

func (d *DS3231) read(reg byte, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := d.dev.Tx([]byte{reg}, buf); err != nil {
		return nil, fmt.Errorf("ds3231: read 0x%02x: %w", reg, err)
	}
	return buf, nil
}

func (d *DS3231) write(reg byte, data ...byte) error {
	if err := d.dev.Tx(append([]byte{reg}, data...), nil); err != nil {
		return fmt.Errorf("ds3231: write 0x%02x: %w", reg, err)
	}
	return nil
}

func (d *DS3231) update(reg byte, set, clear byte) error {
	b, err := d.read(reg, 1)
	if err != nil {
		return err
	}
	return d.write(reg, b[0]&^clear|set)
}

func decodeHour(b byte) int {
	if b&hour12Bit == 0 {
		return fromBCD(b & 0x3F)
	}
	h := fromBCD(b&0x1F) % 12
	if b&hourPMBit != 0 {
		h += 12
	}
	return h
}

// Now reads the time registers. A weekday register of 1..7 maps to
// Monday..Sunday.
func (d *DS3231) Now() (logic.Moment, error) {
	r, err := d.read(regSeconds, 7)
	if err != nil {
		return logic.Moment{}, err
	}

	year := 2000 + fromBCD(r[6])
	if r[5]&centuryBit != 0 {
		year += 100
	}

	return logic.Moment{
		Year:    year,
		Month:   fromBCD(r[5] &^ centuryBit),
		Day:     fromBCD(r[4]),
		Hour:    decodeHour(r[2]),
		Minute:  fromBCD(r[1] & 0x7F),
		Second:  fromBCD(r[0] & 0x7F),
		Weekday: (int(r[3]&0x07) + 6) % 7,
	}, nil
}

// Set writes the time registers in 24-hour mode and clears the
// oscillator-stop flag.
func (d *DS3231) Set(m logic.Moment) error {
	if m.Year < 2000 || m.Year > 2199 {
		return fmt.Errorf("ds3231: year %d out of range", m.Year)
	}

	month := bcd(m.Month)
	year := m.Year - 2000
	if year >= 100 {
		month |= centuryBit
		year -= 100
	}

	err := d.write(regSeconds,
		bcd(m.Second),
		bcd(m.Minute),
		bcd(m.Hour),
		byte(m.Weekday%7+1),
		bcd(m.Day),
		month,
		bcd(year))
	if err != nil {
		return err
	}
	return d.update(regStatus, 0, statusOSF)
}

// SetAlarm arms alarm n to match hours, minutes and seconds every day.
// Alarm 2 has no seconds register and fires at second zero.
func (d *DS3231) SetAlarm(n Alarm, at logic.Moment) error {
	if err := checkAlarm(n); err != nil {
		return err
	}

	if n == AlarmOpen {
		return d.write(regAlarm1, bcd(at.Second), bcd(at.Minute), bcd(at.Hour), maskBit)
	}
	return d.write(regAlarm2, bcd(at.Minute), bcd(at.Hour), maskBit)
}

func interruptBit(n Alarm) byte {
	if n == AlarmOpen {
		return ctrlA1IE
	}
	return ctrlA2IE
}

func statusBit(n Alarm) byte {
	if n == AlarmOpen {
		return statusA1F
	}
	return statusA2F
}

// EnableInterrupt sets or clears AxIE. INTCN is always set so the SQW pin
// acts as the interrupt output.
func (d *DS3231) EnableInterrupt(n Alarm, on bool) error {
	if err := checkAlarm(n); err != nil {
		return err
	}

	bit := interruptBit(n)
	if on {
		return d.update(regControl, bit|ctrlINTCN, 0)
	}
	return d.update(regControl, ctrlINTCN, bit)
}

// Fired reads AxF.
func (d *DS3231) Fired(n Alarm) (bool, error) {
	if err := checkAlarm(n); err != nil {
		return false, err
	}

	b, err := d.read(regStatus, 1)
	if err != nil {
		return false, err
	}
	return b[0]&statusBit(n) != 0, nil
}

// ClearFired clears AxF, releasing the interrupt line if no other alarm
// holds it.
func (d *DS3231) ClearFired(n Alarm) error {
	if err := checkAlarm(n); err != nil {
		return err
	}
	return d.update(regStatus, 0, statusBit(n))
}
