// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of a perf_event_header on disk.
const HeaderSize = 8

// EventAttrV0Size is the size of version 0 of perf_event_attr, the
// smallest layout a file may carry.
const EventAttrV0Size = 64

// Header is the perf_event_header that prefixes every record.
type Header struct {
	Type RecordType
	Misc uint16
	// Size is the total size of the record, including this header.
	Size uint16
}

// ParseHeader decodes the record header at the start of buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrShortRecord
	}
	return Header{
		Type: RecordType(binary.LittleEndian.Uint32(buf)),
		Misc: binary.LittleEndian.Uint16(buf[4:]),
		Size: binary.LittleEndian.Uint16(buf[6:]),
	}, nil
}

// An EventType is a general class of performance event.
//
// This corresponds to the perf_type_id enum from
// include/uapi/linux/perf_event.h
type EventType uint32

const (
	EventTypeHardware EventType = iota
	EventTypeSoftware
	EventTypeTracepoint
	EventTypeHWCache
	EventTypeRaw
	EventTypeBreakpoint
)

func (t EventType) String() string {
	switch t {
	case EventTypeHardware:
		return "hardware"
	case EventTypeSoftware:
		return "software"
	case EventTypeTracepoint:
		return "tracepoint"
	case EventTypeHWCache:
		return "hwcache"
	case EventTypeRaw:
		return "raw"
	case EventTypeBreakpoint:
		return "breakpoint"
	}
	return fmt.Sprintf("EventType(%d)", uint32(t))
}

// EventAttr describes an event and how that event was recorded.
//
// This corresponds to the perf_event_attr struct from
// include/uapi/linux/perf_event.h. Only the fields that affect record
// layout are decoded.
type EventAttr struct {
	Type EventType
	// Size is the size of perf_event_attr the recorder used.
	Size   uint32
	Config uint64

	// Exactly one of SamplePeriod and SampleFreq is meaningful,
	// depending on Flags&EventFlagFreq.
	SamplePeriod uint64
	SampleFreq   uint64

	// The format of Sample records and of the sample_id trailer
	// of other records.
	SampleFormat SampleFormat

	ReadFormat ReadFormat

	Flags EventFlags

	// Either WakeupEvents or WakeupWatermark is set, depending on
	// Flags&EventFlagWakeupWatermark.
	WakeupEvents    uint32
	WakeupWatermark uint32

	BPType  uint32
	Config1 uint64
	Config2 uint64 // if Size > EventAttrV0Size
}

// ParseEventAttr decodes an on-disk perf_event_attr. buf may be longer
// than the attribute; later ABI versions are ignored.
func ParseEventAttr(buf []byte) (*EventAttr, error) {
	if len(buf) < EventAttrV0Size {
		return nil, fmt.Errorf("event attr is %d bytes, want at least %d", len(buf), EventAttrV0Size)
	}
	bd := newBufDecoder(buf)
	a := &EventAttr{}
	a.Type = EventType(bd.u32())
	a.Size = bd.u32()
	a.Config = bd.u64()
	periodOrFreq := bd.u64()
	a.SampleFormat = SampleFormat(bd.u64())
	a.ReadFormat = ReadFormat(bd.u64())
	a.Flags = EventFlags(bd.u64())
	wakeup := bd.u32()
	a.BPType = bd.u32()
	a.Config1 = bd.u64()
	if a.Size > EventAttrV0Size && len(bd.buf) >= 8 {
		a.Config2 = bd.u64()
	}
	if bd.err != nil {
		return nil, bd.err
	}

	if a.Flags&EventFlagFreq != 0 {
		a.SampleFreq = periodOrFreq
	} else {
		a.SamplePeriod = periodOrFreq
	}
	if a.Flags&EventFlagWakeupWatermark != 0 {
		a.WakeupWatermark = wakeup
	} else {
		a.WakeupEvents = wakeup
	}
	return a, nil
}

// Timestamped reports whether records decoded with this attribute
// can be ordered by time: every sample carries a time and every other
// record carries a sample_id trailer with one.
func (a *EventAttr) Timestamped() bool {
	return a.SampleFormat&SampleFormatTime != 0 && a.Flags&EventFlagSampleIDAll != 0
}

// A SampleFormat is a bitmask of the fields recorded by a sample.
//
// This corresponds to the perf_event_sample_format enum from
// include/uapi/linux/perf_event.h
type SampleFormat uint64

const (
	SampleFormatIP SampleFormat = 1 << iota
	SampleFormatTID
	SampleFormatTime
	SampleFormatAddr
	SampleFormatRead
	SampleFormatCallchain
	SampleFormatID
	SampleFormatCPU
	SampleFormatPeriod
	SampleFormatStreamID
	SampleFormatRaw
	SampleFormatBranchStack
	SampleFormatRegsUser
	SampleFormatStackUser
	SampleFormatWeight
	SampleFormatDataSrc
	SampleFormatIdentifier
	SampleFormatTransaction
)

// trailerBytes returns the length of the sample_id trailer of
// non-sample records.
func (s SampleFormat) trailerBytes() int {
	s &= SampleFormatTID | SampleFormatTime | SampleFormatID | SampleFormatStreamID | SampleFormatCPU | SampleFormatIdentifier
	return 8 * weight(uint64(s))
}

// ReadFormat is a bitmask of the fields recorded in the Read field of
// a sample.
//
// This corresponds to the perf_event_read_format enum from
// include/uapi/linux/perf_event.h
type ReadFormat uint64

const (
	ReadFormatTotalTimeEnabled ReadFormat = 1 << iota
	ReadFormatTotalTimeRunning
	ReadFormatID
	ReadFormatGroup
)

// EventFlags is a bitmask of boolean properties of an event.
type EventFlags uint64

const (
	// Event is disabled by default
	EventFlagDisabled EventFlags = 1 << iota
	// Children inherit this event
	EventFlagInherit
	// Event must always be on the PMU
	EventFlagPinned
	// Event is only group on PMU
	EventFlagExclusive
	// Don't count events in user/kernel/hypervisor/when idle
	EventFlagExcludeUser
	EventFlagExcludeKernel
	EventFlagExcludeHypervisor
	EventFlagExcludeIdle
	// Include mmap data
	EventFlagMmap
	// Include comm data
	EventFlagComm
	// Use frequency, not period
	EventFlagFreq
	// Per task counts
	EventFlagInheritStat
	// Next exec enables this event
	EventFlagEnableOnExec
	// Trace fork/exit
	EventFlagTask
	// WakeupWatermark is set rather than WakeupEvents.
	EventFlagWakeupWatermark

	// Skip two bits here for precise_ip

	// Non-exec mmap data
	EventFlagMmapData EventFlags = 1 << (2 + iota)
	// All records carry a sample_id trailer
	EventFlagSampleIDAll
	// Don't count events in host/guest
	EventFlagExcludeHost
	EventFlagExcludeGuest
)

// A RecordType indicates the type of a record in a capture. A record
// is either a sample or describes a change to system state, such as a
// process calling mmap.
type RecordType uint32

const (
	RecordTypeMmap RecordType = 1 + iota
	RecordTypeLost
	RecordTypeComm
	RecordTypeExit
	RecordTypeThrottle
	RecordTypeUnthrottle
	RecordTypeFork
	RecordTypeRead
	RecordTypeSample
	RecordTypeMmap2

	recordTypeUserStart RecordType = 64
)

// Record types synthesized by the recording tool rather than the
// kernel. These never carry a sample_id trailer.
const (
	RecordTypeAttr RecordType = recordTypeUserStart + iota
	RecordTypeEventType
	RecordTypeTracingData
	RecordTypeBuildID
	RecordTypeFinishedRound
	RecordTypeIDIndex
	RecordTypeAuxtraceInfo
	RecordTypeAuxtrace
	RecordTypeAuxtraceError
	RecordTypeThreadMap
	RecordTypeCPUMap
	RecordTypeStatConfig
	RecordTypeStat
	RecordTypeStatRound
	RecordTypeEventUpdate
	RecordTypeTimeConv
	RecordTypeHeaderFeature
	// RecordTypeCompressed holds a zstd frame of further records.
	RecordTypeCompressed
)

var recordTypeNames = map[RecordType]string{
	RecordTypeMmap:          "mmap",
	RecordTypeLost:          "lost",
	RecordTypeComm:          "comm",
	RecordTypeExit:          "exit",
	RecordTypeThrottle:      "throttle",
	RecordTypeUnthrottle:    "unthrottle",
	RecordTypeFork:          "fork",
	RecordTypeRead:          "read",
	RecordTypeSample:        "sample",
	RecordTypeMmap2:         "mmap2",
	RecordTypeBuildID:       "build_id",
	RecordTypeFinishedRound: "finished_round",
	RecordTypeCompressed:    "compressed",
}

func (t RecordType) String() string {
	if s, ok := recordTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("RecordType(%d)", uint32(t))
}

// hasTrailer reports whether records of type t carry a sample_id
// trailer when EventFlagSampleIDAll is set.
func (t RecordType) hasTrailer() bool {
	return t != RecordTypeSample && t < recordTypeUserStart
}
