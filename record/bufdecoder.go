// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import "encoding/binary"

// bufDecoder reads little-endian fields off the front of buf. The
// first short read sets err; every later read returns zero.
type bufDecoder struct {
	buf   []byte
	order binary.ByteOrder
	err   error
}

func newBufDecoder(buf []byte) *bufDecoder {
	return &bufDecoder{buf: buf, order: binary.LittleEndian}
}

func (b *bufDecoder) need(n int) bool {
	if b.err != nil {
		return false
	}
	if n < 0 || len(b.buf) < n {
		b.err = ErrShortRecord
		b.buf = nil
		return false
	}
	return true
}

func (b *bufDecoder) bytes(n int) []byte {
	if !b.need(n) {
		return nil
	}
	x := make([]byte, n)
	copy(x, b.buf)
	b.buf = b.buf[n:]
	return x
}

func (b *bufDecoder) u32() uint32 {
	if !b.need(4) {
		return 0
	}
	x := b.order.Uint32(b.buf)
	b.buf = b.buf[4:]
	return x
}

func (b *bufDecoder) i32() int32 {
	return int32(b.u32())
}

func (b *bufDecoder) u64() uint64 {
	if !b.need(8) {
		return 0
	}
	x := b.order.Uint64(b.buf)
	b.buf = b.buf[8:]
	return x
}

func (b *bufDecoder) u64s(n int) []uint64 {
	if n < 0 || n > len(b.buf)/8 {
		b.need(len(b.buf) + 1)
		return nil
	}
	x := make([]uint64, n)
	for i := range x {
		x[i] = b.order.Uint64(b.buf[i*8:])
	}
	b.buf = b.buf[n*8:]
	return x
}

func (b *bufDecoder) u32If(cond bool) uint32 {
	if cond {
		return b.u32()
	}
	return 0
}

func (b *bufDecoder) i32If(cond bool) int32 {
	if cond {
		return b.i32()
	}
	return 0
}

func (b *bufDecoder) u64If(cond bool) uint64 {
	if cond {
		return b.u64()
	}
	return 0
}

// cstring consumes the rest of buf and returns it up to the first
// NUL.
func (b *bufDecoder) cstring() string {
	if b.err != nil {
		return ""
	}
	x := CString(b.buf)
	b.buf = nil
	return x
}

// CString returns buf up to its first NUL byte, or all of buf if it
// has none.
func CString(buf []byte) string {
	for i, c := range buf {
		if c == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

func weight(x uint64) int {
	x -= (x >> 1) & 0x5555555555555555
	x = (x & 0x3333333333333333) + ((x >> 2) & 0x3333333333333333)
	x = (x + (x >> 4)) & 0x0f0f0f0f0f0f0f0f
	return int((x * 0x0101010101010101) >> 56)
}
