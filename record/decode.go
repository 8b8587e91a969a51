// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"errors"
	"fmt"
)

// ErrShortRecord is returned when a record's payload ends before all
// the fields its header and EventAttr promise.
var ErrShortRecord = errors.New("record payload too short")

// A Decoder turns the raw bytes of one record, header included, into
// a Record.
type Decoder interface {
	Decode(attr *EventAttr, raw []byte) (Record, error)
}

// DecoderFunc adapts a function to a Decoder.
type DecoderFunc func(attr *EventAttr, raw []byte) (Record, error)

func (f DecoderFunc) Decode(attr *EventAttr, raw []byte) (Record, error) {
	return f(attr, raw)
}

// DefaultDecoder decodes records with Decode.
var DefaultDecoder Decoder = DecoderFunc(Decode)

// Decode decodes the record in raw, which must hold exactly one record
// including its header.
func Decode(attr *EventAttr, raw []byte) (Record, error) {
	// See perf_evsel__parse_sample in tools/perf/util/evsel.c
	hdr, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	if int(hdr.Size) != len(raw) {
		return nil, fmt.Errorf("record header size %d does not match buffer length %d", hdr.Size, len(raw))
	}
	payload := raw[HeaderSize:]

	var base Base
	if attr.Flags&EventFlagSampleIDAll != 0 && hdr.Type.hasTrailer() {
		n := attr.SampleFormat.trailerBytes()
		if n > len(payload) {
			return nil, fmt.Errorf("%v record: %w", hdr.Type, ErrShortRecord)
		}
		parseTrailer(newBufDecoder(payload[len(payload)-n:]), attr.SampleFormat, &base)
		payload = payload[:len(payload)-n]
	}

	bd := newBufDecoder(payload)
	var r Record
	switch hdr.Type {
	default:
		r = &Unknown{Header: hdr, Base: base, Data: bd.bytes(len(payload))}
	case RecordTypeMmap, RecordTypeMmap2:
		r = parseMmap(bd, hdr, base)
	case RecordTypeComm:
		r = parseComm(bd, hdr, base)
	case RecordTypeFork:
		o := &Fork{Base: base}
		o.PID, o.PPID, o.TID, o.PTID, o.EventTime = parseTask(bd)
		o.Format |= SampleFormatTID
		r = o
	case RecordTypeExit:
		o := &Exit{Base: base}
		o.PID, o.PPID, o.TID, o.PTID, o.EventTime = parseTask(bd)
		o.Format |= SampleFormatTID
		r = o
	case RecordTypeLost:
		r = &Lost{Base: base, LostID: bd.u64(), NumLost: bd.u64()}
	case RecordTypeSample:
		r = parseSample(bd, hdr, attr)
	}
	if bd.err != nil {
		return nil, fmt.Errorf("%v record: %w", hdr.Type, bd.err)
	}
	return r, nil
}

// parseTrailer parses the sample_id trailer of non-sample records.
func parseTrailer(bd *bufDecoder, t SampleFormat, o *Base) {
	o.Format = t & (SampleFormatTID | SampleFormatTime | SampleFormatID | SampleFormatStreamID | SampleFormatCPU | SampleFormatIdentifier)
	o.PID = int(bd.i32If(t&SampleFormatTID != 0))
	o.TID = int(bd.i32If(t&SampleFormatTID != 0))
	o.Time = bd.u64If(t&SampleFormatTime != 0)
	o.ID = bd.u64If(t&SampleFormatID != 0)
	o.StreamID = bd.u64If(t&SampleFormatStreamID != 0)
	o.CPU = bd.u32If(t&SampleFormatCPU != 0)
	o.Res = bd.u32If(t&SampleFormatCPU != 0)
	if t&SampleFormatIdentifier != 0 {
		o.ID = bd.u64()
	}
}

func parseMmap(bd *bufDecoder, hdr Header, base Base) Record {
	o := &Mmap{Base: base, v2: hdr.Type == RecordTypeMmap2}
	o.Format |= SampleFormatTID
	o.Data = hdr.Misc&miscMmapData != 0

	o.PID, o.TID = int(bd.i32()), int(bd.i32())
	o.Addr, o.Len, o.FileOffset = bd.u64(), bd.u64(), bd.u64()
	if o.v2 {
		o.Major, o.Minor = bd.u32(), bd.u32()
		o.Ino, o.InoGeneration = bd.u64(), bd.u64()
		o.Prot, o.Flags = bd.u32(), bd.u32()
	}
	o.Filename = bd.cstring()
	return o
}

func parseComm(bd *bufDecoder, hdr Header, base Base) Record {
	o := &Comm{Base: base}
	o.Format |= SampleFormatTID
	o.Exec = hdr.Misc&miscCommExec != 0

	o.PID, o.TID = int(bd.i32()), int(bd.i32())
	o.Comm = bd.cstring()
	return o
}

func parseTask(bd *bufDecoder) (pid, ppid, tid, ptid int, time uint64) {
	pid, ppid = int(bd.i32()), int(bd.i32())
	tid, ptid = int(bd.i32()), int(bd.i32())
	time = bd.u64()
	return
}

func parseSample(bd *bufDecoder, hdr Header, attr *EventAttr) Record {
	o := &Sample{}
	t := attr.SampleFormat
	o.Format = t

	o.CPUMode = CPUMode(hdr.Misc & miscCPUModeMask)
	o.ExactIP = hdr.Misc&miscExactIP != 0

	if t&SampleFormatIdentifier != 0 {
		o.ID = bd.u64()
	}
	o.IP = bd.u64If(t&SampleFormatIP != 0)
	o.PID = int(bd.i32If(t&SampleFormatTID != 0))
	o.TID = int(bd.i32If(t&SampleFormatTID != 0))
	o.Time = bd.u64If(t&SampleFormatTime != 0)
	o.Addr = bd.u64If(t&SampleFormatAddr != 0)
	if t&SampleFormatID != 0 {
		o.ID = bd.u64()
	}
	o.StreamID = bd.u64If(t&SampleFormatStreamID != 0)
	o.CPU = bd.u32If(t&SampleFormatCPU != 0)
	o.Res = bd.u32If(t&SampleFormatCPU != 0)
	o.Period = bd.u64If(t&SampleFormatPeriod != 0)

	if t&SampleFormatRead != 0 {
		o.Read = parseReadFormat(bd, attr.ReadFormat)
	}
	if t&SampleFormatCallchain != 0 {
		o.Callchain = bd.u64s(int(bd.u64()))
	}
	if t&SampleFormatRaw != 0 {
		o.Raw = bd.bytes(int(bd.u32()))
	}
	// Branch stacks, registers and later fields are not decoded.
	return o
}

func parseReadFormat(bd *bufDecoder, f ReadFormat) []SampleRead {
	if f&ReadFormatGroup == 0 {
		var o SampleRead
		o.Value = bd.u64()
		o.TimeEnabled = bd.u64If(f&ReadFormatTotalTimeEnabled != 0)
		o.TimeRunning = bd.u64If(f&ReadFormatTotalTimeRunning != 0)
		o.ID = bd.u64If(f&ReadFormatID != 0)
		return []SampleRead{o}
	}

	n := bd.u64()
	enabled := bd.u64If(f&ReadFormatTotalTimeEnabled != 0)
	running := bd.u64If(f&ReadFormatTotalTimeRunning != 0)
	per := 8
	if f&ReadFormatID != 0 {
		per += 8
	}
	if n > uint64(len(bd.buf)/per) {
		bd.need(len(bd.buf) + 1)
		return nil
	}
	out := make([]SampleRead, n)
	for i := range out {
		out[i].TimeEnabled, out[i].TimeRunning = enabled, running
		out[i].Value = bd.u64()
		out[i].ID = bd.u64If(f&ReadFormatID != 0)
	}
	return out
}
