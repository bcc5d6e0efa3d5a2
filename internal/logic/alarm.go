package logic

import (
	"errors"
	"fmt"
)

// ErrInvalidDate is returned for a calendar date that does not exist, as
// read from a corrupt or unset clock.
var ErrInvalidDate = errors.New("alarm: invalid date")

//                       Jan Feb Mar Apr May Jun Jul Aug Sep Oct Nov Dec
var daysPerMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear uses the plain divisible-by-four rule. Century years are not
// special-cased.
func IsLeapYear(year int) bool {
	return year%4 == 0
}

// DayOfYear returns the 1-based day of the year.
func DayOfYear(year, month, day int) int {
	doy := day
	for m := 1; m < month && m <= len(daysPerMonth); m++ {
		doy += daysPerMonth[m-1]
	}
	if month >= 3 && IsLeapYear(year) {
		doy++
	}
	return doy
}

// WeekOfYear returns ceil(doy/7), the schedule's week number.
func WeekOfYear(doy int) int {
	week := doy / 7
	if doy%7 != 0 {
		week++
	}
	return week
}

func lastDayOfMonth(year, month int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return daysPerMonth[month-1]
}

// nextDay advances a calendar date by one day.
func nextDay(year, month, day int) (int, int, int) {
	switch {
	case month == 12 && day == 31:
		return year + 1, 1, 1
	case day >= lastDayOfMonth(year, month):
		return year, month + 1, 1
	default:
		return year, month, day + 1
	}
}

// ComputeAlarm builds the alarm moment for ev on the day selected by off,
// using the schedule entry for that day's week. The result carries no
// seconds; the RTC repeats it daily at that hour and minute.
func ComputeAlarm(now Moment, s WeeklySchedule, ev Event, off Offset) (Moment, error) {
	if now.Month < 1 || now.Month > 12 || now.Day < 1 || now.Day > lastDayOfMonth(now.Year, now.Month) {
		return Moment{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, now.Year, now.Month, now.Day)
	}

	year, month, day, weekday := now.Year, now.Month, now.Day, now.Weekday
	if off == Tomorrow {
		year, month, day = nextDay(year, month, day)
		weekday = (weekday + 1) % 7
	}

	week := WeekOfYear(DayOfYear(year, month, day))
	tod, err := s.Lookup(week, ev)
	if err != nil {
		return Moment{}, fmt.Errorf("%s alarm %s (%04d-%02d-%02d): %w", ev, off, year, month, day, err)
	}

	return Moment{
		Year:    year,
		Month:   month,
		Day:     day,
		Hour:    tod.Hour,
		Minute:  tod.Minute,
		Weekday: weekday,
	}, nil
}
