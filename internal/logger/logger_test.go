package logger

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"verbose":  zapcore.InfoLevel,
	}

	for in, want := range tests {
		if got := toZapLevel(in); got != want {
			t.Errorf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestNewWriterFiltersAndFormats(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, WarnLevel)

	log.Infow("hidden")
	log.Warnw("motor stalled", "actuator", "door")
	log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, `"actuator": "door"`) {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestValidLevel(t *testing.T) {
	if !ValidLevel(DebugLevel) || ValidLevel("trace") {
		t.Error("unexpected level validation")
	}
}

func TestNewUsesLevel(t *testing.T) {
	log := New(ErrorLevel)
	core := log.Desugar().Core()

	if core.Enabled(zapcore.WarnLevel) || !core.Enabled(zapcore.ErrorLevel) {
		t.Error("expected error level")
	}
}
