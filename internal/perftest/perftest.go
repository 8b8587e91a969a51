// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perftest synthesizes capture files and raw records for
// tests.
package perftest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/aclements/go-simpleperf/record"
)

var le = binary.LittleEndian

// Header field offsets.
const (
	OffMagic     = 0
	OffSize      = 8
	OffAttrSize  = 16
	OffAttrs     = 24
	OffData      = 40
	OffEventType = 56
	OffFeatures  = 72

	HeaderSize = 104

	// AttrSize is the perf_event_attr size Builder writes (ABI v1).
	AttrSize = 72
	// FileAttrSize is the stride of the attribute table.
	FileAttrSize = AttrSize + 16
)

// Attr is one entry of the attribute table.
type Attr struct {
	Attr record.EventAttr
	IDs  []uint64
}

// A Builder lays out a capture file: header, attribute table, id
// arrays, data region, feature descriptor table, feature sections.
type Builder struct {
	Attrs []Attr

	// Data is the raw data region, usually a concatenation of
	// records built with the Encode functions.
	Data []byte

	// Features maps feature ids to section contents.
	Features map[int][]byte

	// FeatureDescs, if set for an id, replaces the descriptor
	// written for it. The id must also be a key of Features.
	FeatureDescs map[int][2]uint64
}

// Bytes returns the encoded file.
func (b *Builder) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[OffMagic:], "PERFILE2")
	le.PutUint64(buf[OffSize:], HeaderSize)
	le.PutUint64(buf[OffAttrSize:], FileAttrSize)

	attrsOff := uint64(len(buf))
	idsOff := attrsOff + uint64(len(b.Attrs))*FileAttrSize
	for _, a := range b.Attrs {
		buf = append(buf, EncodeAttr(&a.Attr)...)
		buf = le.AppendUint64(buf, idsOff)
		buf = le.AppendUint64(buf, uint64(len(a.IDs))*8)
		idsOff += uint64(len(a.IDs)) * 8
	}
	putSection(buf[OffAttrs:], attrsOff, uint64(len(b.Attrs))*FileAttrSize)
	for _, a := range b.Attrs {
		for _, id := range a.IDs {
			buf = le.AppendUint64(buf, id)
		}
	}

	putSection(buf[OffData:], uint64(len(buf)), uint64(len(b.Data)))
	buf = append(buf, b.Data...)

	ids := make([]int, 0, len(b.Features))
	for id := range b.Features {
		ids = append(ids, id)
		buf[OffFeatures+id/8] |= 1 << (id % 8)
	}
	sort.Ints(ids)
	tableOff := len(buf)
	buf = append(buf, make([]byte, 16*len(ids))...)
	for i, id := range ids {
		desc, ok := b.FeatureDescs[id]
		if !ok {
			desc = [2]uint64{uint64(len(buf)), uint64(len(b.Features[id]))}
			buf = append(buf, b.Features[id]...)
		}
		putSection(buf[tableOff+16*i:], desc[0], desc[1])
	}
	return buf
}

// WriteFile writes the encoded file to a temporary directory and
// returns its path.
func (b *Builder) WriteFile(t testing.TB) string {
	return WriteFile(t, b.Bytes())
}

// WriteFile writes data to a temporary file and returns its path.
func WriteFile(t testing.TB, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perf.data")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func putSection(buf []byte, off, size uint64) {
	le.PutUint64(buf, off)
	le.PutUint64(buf[8:], size)
}

// EncodeAttr encodes a as an AttrSize-byte perf_event_attr.
func EncodeAttr(a *record.EventAttr) []byte {
	buf := make([]byte, 0, AttrSize)
	buf = le.AppendUint32(buf, uint32(a.Type))
	buf = le.AppendUint32(buf, AttrSize)
	buf = le.AppendUint64(buf, a.Config)
	if a.Flags&record.EventFlagFreq != 0 {
		buf = le.AppendUint64(buf, a.SampleFreq)
	} else {
		buf = le.AppendUint64(buf, a.SamplePeriod)
	}
	buf = le.AppendUint64(buf, uint64(a.SampleFormat))
	buf = le.AppendUint64(buf, uint64(a.ReadFormat))
	buf = le.AppendUint64(buf, uint64(a.Flags))
	if a.Flags&record.EventFlagWakeupWatermark != 0 {
		buf = le.AppendUint32(buf, a.WakeupWatermark)
	} else {
		buf = le.AppendUint32(buf, a.WakeupEvents)
	}
	buf = le.AppendUint32(buf, a.BPType)
	buf = le.AppendUint64(buf, a.Config1)
	buf = le.AppendUint64(buf, a.Config2)
	return buf
}

// Raw encodes a record with the given header fields and payload.
func Raw(typ record.RecordType, misc uint16, payload []byte) []byte {
	buf := make([]byte, 0, record.HeaderSize+len(payload))
	buf = le.AppendUint32(buf, uint32(typ))
	buf = le.AppendUint16(buf, misc)
	buf = le.AppendUint16(buf, uint16(record.HeaderSize+len(payload)))
	return append(buf, payload...)
}

// EncodeTrailer encodes the sample_id trailer of b under attr, or
// nothing if attr does not request trailers.
func EncodeTrailer(attr *record.EventAttr, b *record.Base) []byte {
	if attr.Flags&record.EventFlagSampleIDAll == 0 {
		return nil
	}
	t := attr.SampleFormat
	var buf []byte
	if t&record.SampleFormatTID != 0 {
		buf = le.AppendUint32(buf, uint32(b.PID))
		buf = le.AppendUint32(buf, uint32(b.TID))
	}
	if t&record.SampleFormatTime != 0 {
		buf = le.AppendUint64(buf, b.Time)
	}
	if t&record.SampleFormatID != 0 {
		buf = le.AppendUint64(buf, b.ID)
	}
	if t&record.SampleFormatStreamID != 0 {
		buf = le.AppendUint64(buf, b.StreamID)
	}
	if t&record.SampleFormatCPU != 0 {
		buf = le.AppendUint32(buf, b.CPU)
		buf = le.AppendUint32(buf, b.Res)
	}
	if t&record.SampleFormatIdentifier != 0 {
		buf = le.AppendUint64(buf, b.ID)
	}
	return buf
}

// EncodeSample encodes s under attr. Fields after the callchain are
// not supported.
func EncodeSample(attr *record.EventAttr, s *record.Sample) []byte {
	t := attr.SampleFormat
	var buf []byte
	if t&record.SampleFormatIdentifier != 0 {
		buf = le.AppendUint64(buf, s.ID)
	}
	if t&record.SampleFormatIP != 0 {
		buf = le.AppendUint64(buf, s.IP)
	}
	if t&record.SampleFormatTID != 0 {
		buf = le.AppendUint32(buf, uint32(s.PID))
		buf = le.AppendUint32(buf, uint32(s.TID))
	}
	if t&record.SampleFormatTime != 0 {
		buf = le.AppendUint64(buf, s.Time)
	}
	if t&record.SampleFormatAddr != 0 {
		buf = le.AppendUint64(buf, s.Addr)
	}
	if t&record.SampleFormatID != 0 {
		buf = le.AppendUint64(buf, s.ID)
	}
	if t&record.SampleFormatStreamID != 0 {
		buf = le.AppendUint64(buf, s.StreamID)
	}
	if t&record.SampleFormatCPU != 0 {
		buf = le.AppendUint32(buf, s.CPU)
		buf = le.AppendUint32(buf, s.Res)
	}
	if t&record.SampleFormatPeriod != 0 {
		buf = le.AppendUint64(buf, s.Period)
	}
	if t&record.SampleFormatCallchain != 0 {
		buf = le.AppendUint64(buf, uint64(len(s.Callchain)))
		for _, pc := range s.Callchain {
			buf = le.AppendUint64(buf, pc)
		}
	}
	return Raw(record.RecordTypeSample, uint16(s.CPUMode), buf)
}

// EncodeComm encodes c under attr.
func EncodeComm(attr *record.EventAttr, c *record.Comm) []byte {
	var buf []byte
	buf = le.AppendUint32(buf, uint32(c.PID))
	buf = le.AppendUint32(buf, uint32(c.TID))
	buf = append(buf, padString(c.Comm)...)
	buf = append(buf, EncodeTrailer(attr, &c.Base)...)
	return Raw(record.RecordTypeComm, 0, buf)
}

// EncodeMmap encodes m as a version 1 mmap record under attr.
func EncodeMmap(attr *record.EventAttr, m *record.Mmap) []byte {
	var buf []byte
	buf = le.AppendUint32(buf, uint32(m.PID))
	buf = le.AppendUint32(buf, uint32(m.TID))
	buf = le.AppendUint64(buf, m.Addr)
	buf = le.AppendUint64(buf, m.Len)
	buf = le.AppendUint64(buf, m.FileOffset)
	buf = append(buf, padString(m.Filename)...)
	buf = append(buf, EncodeTrailer(attr, &m.Base)...)
	return Raw(record.RecordTypeMmap, 0, buf)
}

// EncodeFork encodes f under attr.
func EncodeFork(attr *record.EventAttr, f *record.Fork) []byte {
	return Raw(record.RecordTypeFork, 0, append(encodeTask(f.PID, f.PPID, f.TID, f.PTID, f.EventTime), EncodeTrailer(attr, &f.Base)...))
}

// EncodeExit encodes e under attr.
func EncodeExit(attr *record.EventAttr, e *record.Exit) []byte {
	return Raw(record.RecordTypeExit, 0, append(encodeTask(e.PID, e.PPID, e.TID, e.PTID, e.EventTime), EncodeTrailer(attr, &e.Base)...))
}

func encodeTask(pid, ppid, tid, ptid int, time uint64) []byte {
	var buf []byte
	for _, x := range []int{pid, ppid, tid, ptid} {
		buf = le.AppendUint32(buf, uint32(x))
	}
	return le.AppendUint64(buf, time)
}

// padString NUL-terminates s and pads it to a multiple of 8 bytes.
func padString(s string) []byte {
	n := (len(s) + 8) &^ 7
	buf := make([]byte, n)
	copy(buf, s)
	return buf
}

// StringSection encodes s the way perf writes string features.
func StringSection(s string) []byte {
	p := padString(s)
	return append(le.AppendUint32(nil, uint32(len(p))), p...)
}

// CmdLineSection encodes args as a command line feature section.
func CmdLineSection(args ...string) []byte {
	buf := le.AppendUint32(nil, uint32(len(args)))
	for _, arg := range args {
		buf = append(buf, StringSection(arg)...)
	}
	return buf
}
