// Package schedule loads the weekly open/close times.
//
// The file is JSON keyed by week number:
//
//	{"1": {"open": {"h": 7, "m": 45}, "close": {"h": 16, "m": 30}}, ...}
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sweeney/coop-door/internal/logic"
)

// ErrMalformed is returned when the schedule cannot be parsed or holds an
// out-of-range value.
var ErrMalformed = errors.New("schedule: malformed")

// Source provides the current schedule.
type Source interface {
	Load() (logic.WeeklySchedule, error)
}

type timeJSON struct {
	H *int `json:"h"`
	M *int `json:"m"`
}

type dayJSON struct {
	Open  *timeJSON `json:"open"`
	Close *timeJSON `json:"close"`
}

// Parse decodes and validates a schedule. Weeks may be missing; a lookup
// for one fails later with logic.ErrWeekMissing.
func Parse(data []byte) (logic.WeeklySchedule, error) {
	var raw map[string]dayJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	s := make(logic.WeeklySchedule, len(raw))
	for key, d := range raw {
		week, err := strconv.Atoi(key)
		if err != nil || week < 1 || week > 53 {
			return nil, fmt.Errorf("%w: week %q", ErrMalformed, key)
		}

		open, err := parseTime(d.Open)
		if err != nil {
			return nil, fmt.Errorf("%w: week %d open: %v", ErrMalformed, week, err)
		}
		closeAt, err := parseTime(d.Close)
		if err != nil {
			return nil, fmt.Errorf("%w: week %d close: %v", ErrMalformed, week, err)
		}

		s[week] = logic.Day{Open: open, Close: closeAt}
	}
	return s, nil
}

func parseTime(t *timeJSON) (logic.TimeOfDay, error) {
	switch {
	case t == nil:
		return logic.TimeOfDay{}, errors.New("missing")
	case t.H == nil || t.M == nil:
		return logic.TimeOfDay{}, errors.New("missing h or m")
	case *t.H < 0 || *t.H > 23:
		return logic.TimeOfDay{}, fmt.Errorf("hour %d out of range", *t.H)
	case *t.M < 0 || *t.M > 59:
		return logic.TimeOfDay{}, fmt.Errorf("minute %d out of range", *t.M)
	}
	return logic.TimeOfDay{Hour: *t.H, Minute: *t.M}, nil
}

// FileSource reads the schedule from a file on every Load, so edits take
// effect at the next alarm without a restart.
type FileSource struct {
	Path string
}

// Load reads and parses the file.
func (f FileSource) Load() (logic.WeeklySchedule, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return s, nil
}

// FakeSource returns a fixed schedule.
type FakeSource struct {
	Schedule logic.WeeklySchedule
	Err      error
	Loads    int
}

// Load returns Schedule or Err.
func (f *FakeSource) Load() (logic.WeeklySchedule, error) {
	f.Loads++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Schedule, nil
}
