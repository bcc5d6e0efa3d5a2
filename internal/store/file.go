package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// File keeps slots in a fixed-size file. Placed on tmpfs (/run) it has the
// retention semantics the controller expects: restarts keep it, reboots and
// power loss clear it.
type File struct {
	f   *os.File
	buf []byte
	err error
}

// OpenFile opens or creates the slot file at path, resizing it to size bytes.
// New or grown regions read as zero.
func OpenFile(path string, size int) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("open store file: %w", err)
	}

	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("resize store file: %w", err)
	}

	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("read store file: %w", err)
	}

	return &File{f: f, buf: buf}, nil
}

// Read returns slot i from the in-memory copy.
func (s *File) Read(i int) byte {
	checkIndex(i, len(s.buf))
	return s.buf[i]
}

// Write sets slot i and writes it through to the file.
func (s *File) Write(i int, v byte) {
	checkIndex(i, len(s.buf))
	s.buf[i] = v
	if s.err != nil {
		return
	}
	if s.f == nil {
		s.err = ErrClosed
		return
	}
	if _, err := s.f.WriteAt([]byte{v}, int64(i)); err != nil {
		s.err = fmt.Errorf("write slot %d: %w", i, err)
	}
}

// Sync flushes the file and returns the first write failure, if any.
func (s *File) Sync() error {
	if s.err != nil {
		return s.err
	}
	if s.f == nil {
		return ErrClosed
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync store file: %w", err)
	}
	return nil
}

// Close releases the file.
func (s *File) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
