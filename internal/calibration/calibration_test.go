package calibration

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/coop-door/internal/logic"
)

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	p := Prompt{In: strings.NewReader("03/15/2025\n5\n06:30:00\n1\n"), Out: &out}

	c, err := p.Calibrate()
	require.NoError(t, err)

	assert.Equal(t, logic.Moment{Year: 2025, Month: 3, Day: 15, Hour: 6, Minute: 30, Second: 0, Weekday: 5}, c.At)
	assert.Equal(t, logic.Open, c.Position)
	assert.Contains(t, out.String(), "MM/DD/YYYY")
	assert.Contains(t, out.String(), "0=Closed, 1=Open")
}

func TestPromptDefaultsWeekdayFromDate(t *testing.T) {
	p := Prompt{In: strings.NewReader("1/1/2024\n\n23:59:59\n0\n"), Out: &bytes.Buffer{}}

	c, err := p.Calibrate()
	require.NoError(t, err)
	assert.Equal(t, 0, c.At.Weekday, "2024-01-01 is a Monday")
	assert.Equal(t, logic.Closed, c.Position)
}

func TestPromptRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"date", "2025-03-15\n"},
		{"weekday", "03/15/2025\n7\n"},
		{"time", "03/15/2025\n5\n25:00:00\n"},
		{"position", "03/15/2025\n5\n06:30:00\n2\n"},
		{"eof", "03/15/2025\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prompt{In: strings.NewReader(tt.input), Out: &bytes.Buffer{}}.Calibrate()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestStatic(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c, err := Static{At: at, Position: logic.Closed}.Calibrate()
	require.NoError(t, err)
	assert.Equal(t, 6, c.At.Weekday, "2025-06-01 is a Sunday")

	_, err = Static{At: at, Position: logic.Opening}.Calibrate()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParsePosition(t *testing.T) {
	for in, want := range map[string]logic.Position{"0": logic.Closed, "closed": logic.Closed, "1": logic.Open, " Open ": logic.Open} {
		got, err := ParsePosition(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePosition("ajar")
	assert.ErrorIs(t, err, ErrInvalid)
}
