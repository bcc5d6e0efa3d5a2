package gpio

import (
	"errors"
	"testing"
	"time"
)

func TestFakeReaderRead(t *testing.T) {
	f := NewFakeReader(true, false, true)

	want := []bool{true, false, true, true}
	for i, w := range want {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("sample %d: expected %v, got %v", i, w, got)
		}
	}

	if f.Reads != 4 {
		t.Errorf("expected 4 reads, got %d", f.Reads)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader()

	_, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader(true)
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderCloseAndReset(t *testing.T) {
	f := NewFakeReader(true, false)

	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Read()
	f.Reset()

	got, _ := f.Read()
	if got != true {
		t.Errorf("after reset: expected true, got %v", got)
	}
	if f.Closed {
		t.Error("reset should clear Closed")
	}
}

func TestFakeOutputHistory(t *testing.T) {
	var f FakeOutput

	f.Set(true)
	f.Set(false)
	f.Set(true)

	if !f.On {
		t.Error("expected output on")
	}
	if len(f.History) != 3 || f.History[1] != false {
		t.Errorf("unexpected history: %v", f.History)
	}

	f.SetError = errors.New("line busy")
	if err := f.Set(false); err == nil {
		t.Error("expected error")
	}
	if !f.On {
		t.Error("failed set should not change level")
	}
}

func TestFakeWakeLineDropsWhenFull(t *testing.T) {
	f := NewFakeWakeLine()
	t0 := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	f.Fire(t0)
	f.Fire(t0.Add(time.Second))

	select {
	case at := <-f.Edges():
		if !at.Equal(t0) {
			t.Errorf("expected first edge, got %v", at)
		}
	default:
		t.Fatal("expected a pending edge")
	}

	select {
	case at := <-f.Edges():
		t.Errorf("second edge should have been dropped, got %v", at)
	default:
	}
}
