// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"fmt"
	"maps"

	"github.com/aclements/go-simpleperf/record"
)

// FeatureSections returns the location of every feature section
// present in the file.
//
// The table is read once, on first use, and cached for the life of r.
func (r *Reader) FeatureSections() (map[Feature]Section, error) {
	r.check()
	secs, err := r.featureSections()
	if err != nil {
		return nil, err
	}
	return maps.Clone(secs), nil
}

func (r *Reader) readFeatureSections() (map[Feature]Section, error) {
	// The section table directly follows the data region and has
	// one entry per feature bit, in bit order.
	ids := r.hdr.FeatureIDs()
	start, ok := r.hdr.Data.End()
	if !ok {
		return nil, fmt.Errorf("%w: data section %v overflows", ErrRange, r.hdr.Data)
	}
	table, err := r.section("feature table", Section{start, uint64(len(ids)) * sectionSize})
	if err != nil {
		return nil, err
	}
	secs := make(map[Feature]Section, len(ids))
	for i, id := range ids {
		secs[id] = decodeSection(table[i*sectionSize:])
	}
	return secs, nil
}

// featureData returns the contents of feature f's section, or nil if
// the file does not have f.
func (r *Reader) featureData(f Feature) ([]byte, bool, error) {
	r.check()
	secs, err := r.featureSections()
	if err != nil {
		return nil, false, err
	}
	sec, ok := secs[f]
	if !ok {
		return nil, false, nil
	}
	data, err := r.section(f.String(), sec)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// parseFeature runs parse over feature f's section. It returns
// without calling parse if the file does not have f.
func (r *Reader) parseFeature(f Feature, parse func(c *cursor)) error {
	data, ok, err := r.featureData(f)
	if err != nil || !ok {
		return err
	}
	c := newCursor(f, data)
	parse(c)
	return c.err
}

// CmdLine returns the command line arguments the capture was recorded
// with. If the file does not record them, it returns nil, nil.
func (r *Reader) CmdLine() ([]string, error) {
	var out []string
	err := r.parseFeature(FeatureCmdline, func(c *cursor) {
		out = c.stringList()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reader) stringFeature(f Feature) (string, error) {
	var out string
	err := r.parseFeature(f, func(c *cursor) {
		out = c.lenString()
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// Hostname returns the hostname of the machine that recorded this
// capture, or "" if unknown.
func (r *Reader) Hostname() (string, error) {
	return r.stringFeature(FeatureHostname)
}

// OSRelease returns the OS release of the machine that recorded this
// capture, or "" if unknown.
func (r *Reader) OSRelease() (string, error) {
	return r.stringFeature(FeatureOSRelease)
}

// Version returns the version of the tool that recorded this capture,
// or "" if unknown.
func (r *Reader) Version() (string, error) {
	return r.stringFeature(FeatureVersion)
}

// Arch returns the architecture of the machine that recorded this
// capture, or "" if unknown.
func (r *Reader) Arch() (string, error) {
	return r.stringFeature(FeatureArch)
}

// CPUDesc returns a description of the CPU of the machine that
// recorded this capture, or "" if unknown.
func (r *Reader) CPUDesc() (string, error) {
	return r.stringFeature(FeatureCPUDesc)
}

// CPUID returns the CPUID string of the machine that recorded this
// capture, or "" if unknown.
func (r *Reader) CPUID() (string, error) {
	return r.stringFeature(FeatureCPUID)
}

// NrCPUs returns the number of available and online CPUs of the
// machine that recorded this capture, or 0, 0 if unknown.
func (r *Reader) NrCPUs() (avail, online int, err error) {
	err = r.parseFeature(FeatureNrCPUs, func(c *cursor) {
		avail, online = int(c.u32()), int(c.u32())
	})
	if err != nil {
		return 0, 0, err
	}
	return avail, online, nil
}

// TotalMem returns the total memory in bytes of the machine that
// recorded this capture, or 0 if unknown.
func (r *Reader) TotalMem() (int64, error) {
	var kib uint64
	err := r.parseFeature(FeatureTotalMem, func(c *cursor) {
		kib = c.u64()
	})
	if err != nil {
		return 0, err
	}
	return int64(kib) * 1024, nil
}

// BuildIDs returns the build IDs of the binaries the capture touched,
// or nil if unknown.
func (r *Reader) BuildIDs() ([]BuildIDInfo, error) {
	var out []BuildIDInfo
	err := r.parseFeature(FeatureBuildID, func(c *cursor) {
		out = parseBuildIDs(c)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// A BuildIDInfo records the build ID of one binary.
type BuildIDInfo struct {
	CPUMode  record.CPUMode
	PID      int // usually -1
	BuildID  BuildID
	Filename string
}

// A BuildID is the GNU build ID of a binary.
type BuildID []byte

func (b BuildID) String() string {
	return fmt.Sprintf("%x", []byte(b))
}

const (
	buildIDPadded = 24
	buildIDMax    = 20

	// miscBuildIDSize indicates that the byte after the build ID
	// holds its length.
	miscBuildIDSize = 1 << 15
)

func parseBuildIDs(c *cursor) []BuildIDInfo {
	out := []BuildIDInfo{}
	for c.err == nil && c.remaining() > 0 {
		// Each entry is a build_id_event, starting with a record
		// header whose size covers the whole entry.
		start := c.off
		c.u32() // type
		misc := c.u16()
		size := int(c.u16())
		if c.err == nil && (size < record.HeaderSize+4+buildIDPadded || size > len(c.buf)-start) {
			c.err = fmt.Errorf("%w: %v section: entry at offset %d has size %d", ErrFormat, c.what, start, size)
			break
		}
		var bid BuildIDInfo
		bid.CPUMode = record.CPUMode(misc & 7)
		bid.PID = int(c.i32())
		id := c.next(buildIDPadded)
		n := buildIDMax
		if misc&miscBuildIDSize != 0 && id != nil && int(id[buildIDMax]) <= buildIDMax {
			n = int(id[buildIDMax])
		}
		if id != nil {
			bid.BuildID = append(BuildID(nil), id[:n]...)
		}
		bid.Filename = record.CString(c.next(start + size - c.off))
		out = append(out, bid)
	}
	if c.err != nil {
		return nil
	}
	return out
}
