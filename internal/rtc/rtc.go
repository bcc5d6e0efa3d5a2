// Package rtc provides the battery-backed real-time clock and its two daily
// alarms. The real implementation is a DS3231 on I2C; the fake allows
// testing without hardware.
package rtc

import (
	"fmt"

	"github.com/sweeney/coop-door/internal/logic"
)

// Alarm selects one of the two RTC alarms.
type Alarm int

const (
	// AlarmOpen is the morning alarm (DS3231 alarm 1).
	AlarmOpen Alarm = 1
	// AlarmClose is the evening alarm (DS3231 alarm 2).
	AlarmClose Alarm = 2
)

// Alarms lists both alarms in order.
var Alarms = [...]Alarm{AlarmOpen, AlarmClose}

func (a Alarm) String() string {
	switch a {
	case AlarmOpen:
		return "alarm1"
	case AlarmClose:
		return "alarm2"
	default:
		return fmt.Sprintf("alarm%d", int(a))
	}
}

// UnsetYear is the year an RTC reports after losing its backup supply.
const UnsetYear = 2000

// Clock is a real-time clock with two daily alarms.
type Clock interface {
	// Now returns the current calendar time.
	Now() (logic.Moment, error)

	// Set writes the calendar time.
	Set(m logic.Moment) error

	// SetAlarm arms alarm n to fire daily at the hour, minute and second of at.
	SetAlarm(n Alarm, at logic.Moment) error

	// EnableInterrupt routes alarm n to the interrupt line.
	EnableInterrupt(n Alarm, on bool) error

	// Fired reports whether alarm n has fired since it was last cleared.
	Fired(n Alarm) (bool, error)

	// ClearFired resets the fired flag of alarm n.
	ClearFired(n Alarm) error
}

func checkAlarm(n Alarm) error {
	if n != AlarmOpen && n != AlarmClose {
		return fmt.Errorf("rtc: no such alarm %d", int(n))
	}
	return nil
}
