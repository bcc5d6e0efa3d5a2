package gpio

import (
	"errors"
	"time"
)

// FakeReader is a test double that returns scripted GPIO values.
type FakeReader struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Reads counts calls to Read
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...bool) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	f.Reads++
	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}

// FakeOutput records every level it is driven to.
type FakeOutput struct {
	// On is the current level.
	On bool

	// History holds every value passed to Set, in order.
	History []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// Set records the level.
func (f *FakeOutput) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	f.History = append(f.History, on)
	return nil
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}

// FakeWakeLine is a wake line whose edges are injected by the test.
type FakeWakeLine struct {
	C      chan time.Time
	Closed bool
}

// NewFakeWakeLine creates a wake line with a one-edge buffer, like the real one.
func NewFakeWakeLine() *FakeWakeLine {
	return &FakeWakeLine{C: make(chan time.Time, 1)}
}

// Edges returns the injected edge channel.
func (f *FakeWakeLine) Edges() <-chan time.Time {
	return f.C
}

// Fire injects an edge. It does not block if one is already pending.
func (f *FakeWakeLine) Fire(at time.Time) {
	select {
	case f.C <- at:
	default:
	}
}

// Close marks the line as closed.
func (f *FakeWakeLine) Close() error {
	f.Closed = true
	return nil
}
