// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"encoding/binary"
	"fmt"

	"github.com/aclements/go-simpleperf/record"
)

// A cursor reads fields from a feature section. The first read past
// the end of the section sets err, and every later read returns the
// zero value.
type cursor struct {
	buf  []byte
	off  int
	what Feature
	err  error

	// cpus counts the CPUs decoded by cpuSets.
	cpus int
}

func newCursor(what Feature, buf []byte) *cursor {
	return &cursor{buf: buf, what: what}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *cursor) next(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || n > c.remaining() {
		c.err = fmt.Errorf("%w: %v section: %d-byte read at offset %d overruns %d-byte section", ErrFormat, c.what, n, c.off, len(c.buf))
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) u32() uint32 {
	b := c.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) i32() int32 {
	return int32(c.u32())
}

func (c *cursor) u16() uint16 {
	b := c.next(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (c *cursor) u64() uint64 {
	b := c.next(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// lenString reads a u32 length followed by that many bytes holding a
// NUL-terminated string.
func (c *cursor) lenString() string {
	n := c.u32()
	if uint64(n) > uint64(c.remaining()) {
		c.next(c.remaining() + 1)
		return ""
	}
	return record.CString(c.next(int(n)))
}

// stringList reads a u32 count followed by that many lenStrings.
func (c *cursor) stringList() []string {
	count := c.u32()
	// Every string takes at least its length word.
	out := make([]string, 0, int(min(uint64(count), uint64(c.remaining()/4))))
	for i := uint32(0); i < count && c.err == nil; i++ {
		out = append(out, c.lenString())
	}
	if c.err != nil {
		return nil
	}
	return out
}
