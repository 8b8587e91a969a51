// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"encoding/binary"
	"fmt"

	"github.com/aclements/go-simpleperf/record"
)

const (
	fileMagic = "PERFILE2"

	// headerSize is the on-disk size of FileHeader.
	headerSize = 104

	// sectionSize is the on-disk size of a Section.
	sectionSize = 16

	numFeatureBits = 256
)

// A Section locates a byte range of the capture file.
//
// This is perf_file_section from tools/perf/util/header.h.
type Section struct {
	Offset, Size uint64
}

// End returns the offset one past the end of s. ok is false if that
// overflows.
func (s Section) End() (end uint64, ok bool) {
	end = s.Offset + s.Size
	return end, end >= s.Offset
}

func (s Section) String() string {
	return fmt.Sprintf("[%#x, +%#x)", s.Offset, s.Size)
}

func decodeSection(buf []byte) Section {
	return Section{
		Offset: binary.LittleEndian.Uint64(buf),
		Size:   binary.LittleEndian.Uint64(buf[8:]),
	}
}

// FileHeader is the fixed header at the start of a capture file.
//
// This is perf_file_header from tools/perf/util/header.h.
type FileHeader struct {
	Magic [8]byte
	// Size is the size of the header on disk.
	Size uint64
	// AttrSize is the stride of the attribute table.
	AttrSize uint64
	// Attrs is the table of FileAttrs.
	Attrs Section
	// Data holds the record stream. The feature section table
	// starts where it ends.
	Data Section
	// EventTypes is unused in version 2 files.
	EventTypes Section
	// Features is a bitmap of the feature sections present, bit
	// i%8 of byte i/8 for Feature i.
	Features [numFeatureBits / 8]byte
}

func parseFileHeader(buf []byte) (FileHeader, error) {
	var h FileHeader
	if len(buf) < headerSize {
		return h, fmt.Errorf("%w: header is %d bytes, want %d", ErrRange, len(buf), headerSize)
	}
	copy(h.Magic[:], buf)
	if string(h.Magic[:]) != fileMagic {
		return h, fmt.Errorf("%w: bad or unsupported file magic %q", ErrFormat, h.Magic[:])
	}
	h.Size = binary.LittleEndian.Uint64(buf[8:])
	if h.Size != headerSize {
		return h, fmt.Errorf("%w: bad header size %d", ErrFormat, h.Size)
	}
	h.AttrSize = binary.LittleEndian.Uint64(buf[16:])
	h.Attrs = decodeSection(buf[24:])
	h.Data = decodeSection(buf[40:])
	h.EventTypes = decodeSection(buf[56:])
	copy(h.Features[:], buf[72:headerSize])
	return h, nil
}

// HasFeature reports whether f's bit is set in the feature bitmap.
func (h *FileHeader) HasFeature(f Feature) bool {
	if f < 0 || f >= numFeatureBits {
		return false
	}
	return h.Features[f/8]&(1<<(f%8)) != 0
}

// FeatureIDs returns the features present in the file in ascending
// order, which is also the order of the feature section table.
func (h *FileHeader) FeatureIDs() []Feature {
	var out []Feature
	for i, b := range h.Features {
		for j := 0; j < 8; j++ {
			if b&(1<<j) != 0 {
				out = append(out, Feature(i*8+j))
			}
		}
	}
	return out
}

// FileAttr is one entry of the attribute table: an event attribute
// and the sample IDs recorded under it.
//
// This is perf_file_attr from tools/perf/util/header.c.
type FileAttr struct {
	Attr *record.EventAttr

	// Raw is the on-disk perf_event_attr. It aliases the mapped
	// file and is only valid until the Reader is closed.
	Raw []byte

	// IDs locates the array of 8-byte sample IDs.
	IDs Section
}

// A Feature identifies an optional feature section.
//
// This is the HEADER_* enum from tools/perf/util/header.h.
type Feature int

const (
	FeatureReserved Feature = iota // always cleared
	FeatureTracingData
	FeatureBuildID

	FeatureHostname
	FeatureOSRelease
	FeatureVersion
	FeatureArch
	FeatureNrCPUs
	FeatureCPUDesc
	FeatureCPUID
	FeatureTotalMem
	FeatureCmdline
	FeatureEventDesc
	FeatureCPUTopology
	FeatureNUMATopology
	FeatureBranchStack
	FeaturePMUMappings
	FeatureGroupDesc
)

var featureNames = [...]string{
	FeatureReserved:     "reserved",
	FeatureTracingData:  "tracing_data",
	FeatureBuildID:      "build_id",
	FeatureHostname:     "hostname",
	FeatureOSRelease:    "osrelease",
	FeatureVersion:      "version",
	FeatureArch:         "arch",
	FeatureNrCPUs:       "nrcpus",
	FeatureCPUDesc:      "cpudesc",
	FeatureCPUID:        "cpuid",
	FeatureTotalMem:     "total_mem",
	FeatureCmdline:      "cmdline",
	FeatureEventDesc:    "event_desc",
	FeatureCPUTopology:  "cpu_topology",
	FeatureNUMATopology: "numa_topology",
	FeatureBranchStack:  "branch_stack",
	FeaturePMUMappings:  "pmu_mappings",
	FeatureGroupDesc:    "group_desc",
}

func (f Feature) String() string {
	if f >= 0 && int(f) < len(featureNames) {
		return featureNames[f]
	}
	return fmt.Sprintf("feature(%d)", int(f))
}
