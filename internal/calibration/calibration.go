// Package calibration supplies the first-run facts the controller cannot
// discover itself: the wall-clock time and where the door and lock are.
package calibration

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/coop-door/internal/logic"
)

// ErrInvalid is returned for input that cannot be used.
var ErrInvalid = errors.New("calibration: invalid input")

// Calibration is the time to set the RTC to and the physical position of
// both actuators, which must be terminal.
type Calibration struct {
	At       logic.Moment
	Position logic.Position
}

// Source provides a calibration.
type Source interface {
	Calibrate() (Calibration, error)
}

// ParsePosition accepts "0"/"closed" or "1"/"open".
func ParsePosition(s string) (logic.Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "closed":
		return logic.Closed, nil
	case "1", "open":
		return logic.Open, nil
	}
	return logic.Closed, fmt.Errorf("%w: position %q", ErrInvalid, s)
}

// Static is a calibration given up front, typically from command-line flags.
type Static struct {
	At       time.Time
	Position logic.Position
}

// Calibrate returns the static values.
func (s Static) Calibrate() (Calibration, error) {
	if !s.Position.IsTerminal() {
		return Calibration{}, fmt.Errorf("%w: position %s", ErrInvalid, s.Position)
	}
	return Calibration{At: logic.MomentFromTime(s.At), Position: s.Position}, nil
}

// Prompt asks an operator for the calibration on a terminal.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

// Calibrate asks for the date, weekday, time and actuator position in turn.
// An empty weekday answer uses the weekday of the entered date.
func (p Prompt) Calibrate() (Calibration, error) {
	sc := bufio.NewScanner(p.In)
	ask := func(q string) (string, error) {
		fmt.Fprint(p.Out, q)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("read answer: %w", err)
			}
			return "", fmt.Errorf("%w: no answer", ErrInvalid)
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	ans, err := ask("Enter date using the MM/DD/YYYY format: ")
	if err != nil {
		return Calibration{}, err
	}
	date, err := time.Parse("1/2/2006", ans)
	if err != nil {
		return Calibration{}, fmt.Errorf("%w: date %q", ErrInvalid, ans)
	}

	weekday := logic.MomentFromTime(date).Weekday
	ans, err = ask("Enter weekday 0 - 6 (Monday - Sunday): ")
	if err != nil {
		return Calibration{}, err
	}
	if ans != "" {
		weekday, err = strconv.Atoi(ans)
		if err != nil || weekday < 0 || weekday > 6 {
			return Calibration{}, fmt.Errorf("%w: weekday %q", ErrInvalid, ans)
		}
	}

	ans, err = ask("Enter time using the HH:MM:SS format: ")
	if err != nil {
		return Calibration{}, err
	}
	clock, err := time.Parse("15:04:05", ans)
	if err != nil {
		return Calibration{}, fmt.Errorf("%w: time %q", ErrInvalid, ans)
	}

	ans, err = ask("Enter Door and Lock state (0=Closed, 1=Open): ")
	if err != nil {
		return Calibration{}, err
	}
	pos, err := ParsePosition(ans)
	if err != nil {
		return Calibration{}, err
	}

	return Calibration{
		At: logic.Moment{
			Year:    date.Year(),
			Month:   int(date.Month()),
			Day:     date.Day(),
			Hour:    clock.Hour(),
			Minute:  clock.Minute(),
			Second:  clock.Second(),
			Weekday: weekday,
		},
		Position: pos,
	}, nil
}
