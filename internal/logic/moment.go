package logic

import (
	"fmt"
	"time"
)

// Moment is the RTC's notion of now. Weekday is 0=Monday..6=Sunday.
type Moment struct {
	Year    int
	Month   int
	Day     int
	Hour    int
	Minute  int
	Second  int
	Weekday int
}

// Compare orders moments by date then time of day; Weekday is ignored.
// It returns -1, 0 or +1.
func (m Moment) Compare(o Moment) int {
	a := [...]int{m.Year, m.Month, m.Day, m.Hour, m.Minute, m.Second}
	b := [...]int{o.Year, o.Month, o.Day, o.Hour, o.Minute, o.Second}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Before reports whether m is earlier than o.
func (m Moment) Before(o Moment) bool {
	return m.Compare(o) < 0
}

// After reports whether m is later than o.
func (m Moment) After(o Moment) bool {
	return m.Compare(o) > 0
}

var weekdayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (m Moment) String() string {
	wd := "?"
	if m.Weekday >= 0 && m.Weekday < len(weekdayNames) {
		wd = weekdayNames[m.Weekday]
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d %s",
		m.Year, m.Month, m.Day, m.Hour, m.Minute, m.Second, wd)
}

// MomentFromTime converts t, mapping Go's Sunday-first weekday to Monday-first.
func MomentFromTime(t time.Time) Moment {
	return Moment{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
		Weekday: (int(t.Weekday()) + 6) % 7,
	}
}

// Time converts m to a time.Time in loc. Weekday is not consulted.
func (m Moment) Time(loc *time.Location) time.Time {
	return time.Date(m.Year, time.Month(m.Month), m.Day, m.Hour, m.Minute, m.Second, 0, loc)
}
