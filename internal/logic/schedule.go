package logic

import (
	"errors"
	"fmt"
)

// ErrWeekMissing is returned when the schedule has no entry for a week.
var ErrWeekMissing = errors.New("schedule: week missing")

// Event selects which of a day's scheduled times to use.
type Event int

const (
	EventOpen Event = iota
	EventClose
)

func (e Event) String() string {
	if e == EventClose {
		return "close"
	}
	return "open"
}

// Offset selects the day an alarm is built for.
type Offset int

const (
	Today Offset = iota
	Tomorrow
)

func (o Offset) String() string {
	if o == Tomorrow {
		return "tomorrow"
	}
	return "today"
}

// TimeOfDay is an hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Day is the open and close time for one week of the year.
type Day struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// WeeklySchedule maps week numbers (1..53) to that week's times.
type WeeklySchedule map[int]Day

// Lookup returns the time for the given week and event.
func (s WeeklySchedule) Lookup(week int, ev Event) (TimeOfDay, error) {
	d, ok := s[week]
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: %d", ErrWeekMissing, week)
	}
	if ev == EventClose {
		return d.Close, nil
	}
	return d.Open, nil
}
