package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/coop-door/internal/logic"
)

const twoWeeks = `{
  "1": {"open": {"h": 7, "m": 45}, "close": {"h": 16, "m": 30}},
  "53": {"open": {"h": 8, "m": 0}, "close": {"h": 16, "m": 5}}
}`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(twoWeeks))
	require.NoError(t, err)

	assert.Len(t, s, 2)
	assert.Equal(t, logic.Day{
		Open:  logic.TimeOfDay{Hour: 7, Minute: 45},
		Close: logic.TimeOfDay{Hour: 16, Minute: 30},
	}, s[1])

	tod, err := s.Lookup(53, logic.EventClose)
	require.NoError(t, err)
	assert.Equal(t, logic.TimeOfDay{Hour: 16, Minute: 5}, tod)

	_, err = s.Lookup(2, logic.EventOpen)
	assert.ErrorIs(t, err, logic.ErrWeekMissing)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"week zero", `{"0": {"open": {"h": 7, "m": 0}, "close": {"h": 17, "m": 0}}}`},
		{"week 54", `{"54": {"open": {"h": 7, "m": 0}, "close": {"h": 17, "m": 0}}}`},
		{"week name", `{"one": {"open": {"h": 7, "m": 0}, "close": {"h": 17, "m": 0}}}`},
		{"hour", `{"1": {"open": {"h": 24, "m": 0}, "close": {"h": 17, "m": 0}}}`},
		{"minute", `{"1": {"open": {"h": 7, "m": 60}, "close": {"h": 17, "m": 0}}}`},
		{"missing close", `{"1": {"open": {"h": 7, "m": 0}}}`},
		{"missing minute", `{"1": {"open": {"h": 7}, "close": {"h": 17, "m": 0}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestFileSourceReadsEachLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	require.NoError(t, os.WriteFile(path, []byte(twoWeeks), 0o600))

	src := FileSource{Path: path}
	s, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, s[1].Open.Hour)

	edited := `{"1": {"open": {"h": 6, "m": 15}, "close": {"h": 16, "m": 30}}}`
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o600))

	s, err = src.Load()
	require.NoError(t, err)
	assert.Equal(t, 6, s[1].Open.Hour)
}

func TestFileSourceErrors(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.Load()
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))
	_, err = FileSource{Path: path}.Load()
	assert.ErrorIs(t, err, ErrMalformed)
}
