// Package store provides the retained slot memory the controller persists its
// state in. Slots survive process restarts (deep sleep, crashes) but not power
// loss; a zeroed store is how the controller learns its state was lost.
package store

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Sync after the backing resource has been closed.
var ErrClosed = errors.New("store: closed")

// Slots is a fixed-size array of retained bytes.
//
// Read and Write never fail for in-range indices; an out-of-range index is a
// programming error and panics. Backends that do I/O record the first failure
// and report it from Sync, which the controller calls before every sleep.
type Slots interface {
	Read(i int) byte
	Write(i int, v byte)
	Sync() error
}

func checkIndex(i, size int) {
	if i < 0 || i >= size {
		panic(fmt.Sprintf("store: slot %d out of range [0,%d)", i, size))
	}
}

// Memory is an in-process Slots implementation.
type Memory struct {
	buf []byte
}

// NewMemory creates a zeroed store with size slots.
func NewMemory(size int) *Memory {
	return &Memory{buf: make([]byte, size)}
}

// Read returns slot i.
func (m *Memory) Read(i int) byte {
	checkIndex(i, len(m.buf))
	return m.buf[i]
}

// Write sets slot i.
func (m *Memory) Write(i int, v byte) {
	checkIndex(i, len(m.buf))
	m.buf[i] = v
}

// Sync always succeeds.
func (m *Memory) Sync() error {
	return nil
}

// PowerLoss zeroes every slot, as a full power cycle would.
func (m *Memory) PowerLoss() {
	clear(m.buf)
}

// Bytes returns a copy of the slot contents.
func (m *Memory) Bytes() []byte {
	out := make([]byte, len(m.buf))
	copy(out, m.buf)
	return out
}
