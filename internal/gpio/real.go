//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const chipName = "gpiochip0"

// RealReader reads an input line using Linux GPIO character device.
type RealReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealReader requests pin as an input with pull-down.
func NewRealReader(pin int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}

	return &RealReader{chip: chip, line: line}, nil
}

// Read returns the raw level of the line.
func (r *RealReader) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin: %w", err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	return closeLine(r.chip, r.line)
}

// RealOutput drives an output line.
type RealOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealOutput requests pin as an output, initially low.
func NewRealOutput(pin int) (*RealOutput, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}

	return &RealOutput{chip: chip, line: line}, nil
}

// Set drives the line.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

// Close releases GPIO resources.
func (o *RealOutput) Close() error {
	return closeLine(o.chip, o.line)
}

// RealWakeLine watches for falling edges on the RTC interrupt line.
type RealWakeLine struct {
	chip  *gpiocdev.Chip
	line  *gpiocdev.Line
	edges chan time.Time
}

// NewRealWakeLine requests pin as an input with pull-up and falling-edge
// detection. The DS3231 INT output is open drain.
func NewRealWakeLine(pin int) (*RealWakeLine, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWakeLine{chip: chip, edges: make(chan time.Time, 1)}

	// The handler runs on the library's goroutine; never block it.
	handler := func(evt gpiocdev.LineEvent) {
		select {
		case w.edges <- time.Now():
		default:
		}
	}

	line, err := chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request wake pin %d: %w", pin, err)
	}
	w.line = line

	return w, nil
}

// Edges returns the edge channel.
func (w *RealWakeLine) Edges() <-chan time.Time {
	return w.edges
}

// Close releases GPIO resources.
func (w *RealWakeLine) Close() error {
	return closeLine(w.chip, w.line)
}

// closeLine reconfigures the line to input with pull-down (matching Pi boot
// defaults) before closing, so nothing is left driven across a restart.
func closeLine(chip *gpiocdev.Chip, line *gpiocdev.Line) error {
	var errs []error

	if line != nil {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	if chip != nil {
		if err := chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
