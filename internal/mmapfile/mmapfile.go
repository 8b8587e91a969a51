// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmapfile provides read-only, bounds-checked access to a
// memory-mapped file.
package mmapfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var (
	// ErrOpen indicates the file could not be opened.
	ErrOpen = errors.New("cannot open file")
	// ErrMap indicates the file could not be mapped into memory.
	ErrMap = errors.New("cannot map file")
	// ErrRange indicates an access outside the mapped extent.
	ErrRange = errors.New("access out of range")
)

// A File is a read-only shared mapping of an entire file.
//
// The bytes returned by Slice alias the mapping and are only valid
// until Close. Any accessor called after Close panics.
type File struct {
	name string
	f    *os.File
	data []byte
}

// Open opens and maps the named file.
func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	data, err := mapFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{name: name, f: f, data: data}, nil
}

func mapFile(f *os.File) ([]byte, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMap, err)
	}
	size := fi.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMap, f.Name())
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("%w: %s is too large (%d bytes)", ErrMap, f.Name(), size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMap, f.Name(), err)
	}
	return data, nil
}

// Name returns the name the file was opened with.
func (m *File) Name() string {
	return m.name
}

// Close unmaps and closes the file. It must be called at most once;
// later calls return an error wrapping os.ErrClosed.
func (m *File) Close() error {
	if m.f == nil {
		return fmt.Errorf("mmapfile: close %s: %w", m.name, os.ErrClosed)
	}
	var errs []error
	if err := unix.Munmap(m.data); err != nil {
		errs = append(errs, fmt.Errorf("munmap %s: %w", m.name, err))
	}
	if err := m.f.Close(); err != nil {
		errs = append(errs, err)
	}
	m.data, m.f = nil, nil
	return errors.Join(errs...)
}

func (m *File) check() {
	if m.f == nil {
		panic("mmapfile: use of closed File")
	}
}

// Len returns the length of the mapping in bytes.
func (m *File) Len() int {
	m.check()
	return len(m.data)
}

// Slice returns the n bytes starting at off. The result aliases the
// mapping and must not be modified.
func (m *File) Slice(off, n uint64) ([]byte, error) {
	m.check()
	size := uint64(len(m.data))
	if off > size || n > size-off {
		return nil, fmt.Errorf("%w: [%#x, +%#x) exceeds file size %#x", ErrRange, off, n, size)
	}
	return m.data[off : off+n : off+n], nil
}
