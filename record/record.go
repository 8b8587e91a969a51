// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package record decodes individual perf event records.
//
// A record is decoded from its raw bytes (header and payload) in the
// context of the EventAttr it was recorded under. Decoded records own
// their memory and never alias the input buffer.
package record

// Record is the common interface implemented by all record types.
type Record interface {
	Type() RecordType
	Common() *Base
}

// IsSample reports whether r is a sample record.
func IsSample(r Record) bool {
	return r.Type() == RecordTypeSample
}

// Timestamp returns the time of r. For samples this is the sample's
// time field, for other records the time in the sample_id trailer. It
// is 0 if the record has no time.
func Timestamp(r Record) uint64 {
	return r.Common().Time
}

// Base stores fields shared by all record types. It is not itself a
// Record.
//
// Many fields are optional and their presence is given by Format.
type Base struct {
	// Offset is the byte offset of this record in the capture
	// file, or -1 if it was decompressed from another record.
	Offset int64

	// Format is a bit mask of SampleFormat* values that indicate
	// which optional fields of this record are valid.
	Format SampleFormat

	PID, TID int    // if SampleFormatTID
	Time     uint64 // if SampleFormatTime
	ID       uint64 // if SampleFormatID or SampleFormatIdentifier
	StreamID uint64 // if SampleFormatStreamID
	CPU, Res uint32 // if SampleFormatCPU
}

func (c *Base) Common() *Base {
	return c
}

// An Unknown is a Record of a type this package does not decode.
type Unknown struct {
	Header
	Base

	Data []byte
}

func (r *Unknown) Type() RecordType {
	return r.Header.Type
}

// A Mmap records a process mapping a file or anonymous memory.
type Mmap struct {
	// Base.PID and .TID are always filled
	Base

	Data bool // mapping is not executable

	Addr, Len  uint64
	FileOffset uint64

	Major, Minor       uint32 // v2 only
	Ino, InoGeneration uint64 // v2 only
	Prot, Flags        uint32 // v2 only

	Filename string

	v2 bool
}

func (r *Mmap) Type() RecordType {
	if r.v2 {
		return RecordTypeMmap2
	}
	return RecordTypeMmap
}

// A Comm records a process changing its command name, usually on
// exec.
type Comm struct {
	// Base.PID and .TID are always filled
	Base

	Exec bool
	Comm string
}

func (r *Comm) Type() RecordType {
	return RecordTypeComm
}

// A Fork records a process or thread being created.
type Fork struct {
	// Base.PID and .TID are always filled
	Base

	PPID, PTID int
	// EventTime is the time from the record body. Base.Time
	// comes from the sample_id trailer.
	EventTime uint64
}

func (r *Fork) Type() RecordType {
	return RecordTypeFork
}

// An Exit records a process or thread exiting.
type Exit struct {
	// Base.PID and .TID are always filled
	Base

	PPID, PTID int
	EventTime  uint64
}

func (r *Exit) Type() RecordType {
	return RecordTypeExit
}

// A Lost records that events were dropped because of a buffer
// overflow.
type Lost struct {
	Base

	LostID  uint64
	NumLost uint64
}

func (r *Lost) Type() RecordType {
	return RecordTypeLost
}

// A Sample records one occurrence of a sampled event.
type Sample struct {
	Base

	CPUMode CPUMode
	ExactIP bool

	IP     uint64 // if SampleFormatIP
	Addr   uint64 // if SampleFormatAddr
	Period uint64 // if SampleFormatPeriod

	Read []SampleRead // if SampleFormatRead

	Callchain []uint64 // if SampleFormatCallchain

	Raw []byte // if SampleFormatRaw
}

func (r *Sample) Type() RecordType {
	return RecordTypeSample
}

// SampleRead is one counter value read with a sample.
type SampleRead struct {
	Value       uint64
	TimeEnabled uint64 // if ReadFormatTotalTimeEnabled
	TimeRunning uint64 // if ReadFormatTotalTimeRunning
	ID          uint64 // if ReadFormatID
}

// CPUMode is the privilege level a sample was taken in.
type CPUMode uint16

const (
	CPUModeUnknown CPUMode = iota
	CPUModeKernel
	CPUModeUser
	CPUModeHypervisor
	CPUModeGuestKernel
	CPUModeGuestUser
)

const (
	miscCPUModeMask = 7
	miscMmapData    = 1 << 13
	miscCommExec    = 1 << 13
	miscExactIP     = 1 << 14
)
