// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import "fmt"

// FileMeta collects the metadata recorded in a capture's feature
// sections. Fields whose feature is absent hold their zero value.
type FileMeta struct {
	BuildIDs []BuildIDInfo

	Hostname  string
	OSRelease string
	Version   string
	Arch      string
	CPUDesc   string
	CPUID     string

	CPUsAvail, CPUsOnline int

	// TotalMem is in bytes.
	TotalMem int64

	CmdLine []string

	// CoreGroups and ThreadGroups describe the CPU topology. Each
	// CPUSet in CoreGroups is a set of CPUs in the same package,
	// and each CPUSet in ThreadGroups is a set of hardware threads
	// in the same core.
	CoreGroups, ThreadGroups []CPUSet

	NUMANodes []NUMANode

	// PMUMappings maps PMU type numbers to names.
	PMUMappings map[uint32]string

	Groups []GroupDesc
}

// A NUMANode represents a single hardware NUMA node.
type NUMANode struct {
	Node int

	// MemTotal and MemFree are in bytes.
	MemTotal, MemFree int64

	CPUs CPUSet
}

// A GroupDesc describes a group of events scheduled together.
type GroupDesc struct {
	Name       string
	Leader     int
	NumMembers int
}

// Meta decodes every feature section it understands.
func (r *Reader) Meta() (*FileMeta, error) {
	m := &FileMeta{}
	var err error
	for _, get := range []func() error{
		func() error { m.BuildIDs, err = r.BuildIDs(); return err },
		func() error { m.Hostname, err = r.Hostname(); return err },
		func() error { m.OSRelease, err = r.OSRelease(); return err },
		func() error { m.Version, err = r.Version(); return err },
		func() error { m.Arch, err = r.Arch(); return err },
		func() error { m.CPUDesc, err = r.CPUDesc(); return err },
		func() error { m.CPUID, err = r.CPUID(); return err },
		func() error { m.CPUsAvail, m.CPUsOnline, err = r.NrCPUs(); return err },
		func() error { m.TotalMem, err = r.TotalMem(); return err },
		func() error { m.CmdLine, err = r.CmdLine(); return err },
		func() error { return r.parseFeature(FeatureCPUTopology, m.parseCPUTopology) },
		func() error { return r.parseFeature(FeatureNUMATopology, m.parseNUMATopology) },
		func() error { return r.parseFeature(FeaturePMUMappings, m.parsePMUMappings) },
		func() error { return r.parseFeature(FeatureGroupDesc, m.parseGroupDesc) },
	} {
		if e := get(); e != nil {
			return nil, e
		}
	}
	return m, nil
}

func (m *FileMeta) parseCPUTopology(c *cursor) {
	cores, threads := c.stringList(), c.stringList()
	if c.err != nil {
		return
	}
	m.CoreGroups = c.cpuSets(cores)
	m.ThreadGroups = c.cpuSets(threads)
}

func (c *cursor) cpuSets(strs []string) []CPUSet {
	out := make([]CPUSet, 0, len(strs))
	for _, str := range strs {
		set, err := parseCPUSet(str)
		if err == nil {
			// A section lists each CPU at most once per grouping.
			if c.cpus += len(set); c.cpus > 2*maxCPUs {
				err = fmt.Errorf("more than %d CPUs", 2*maxCPUs)
			}
		}
		if err != nil {
			if c.err == nil {
				c.err = fmt.Errorf("%w: %v section: %w", ErrFormat, c.what, err)
			}
			return nil
		}
		out = append(out, set)
	}
	return out
}

func (m *FileMeta) parseNUMATopology(c *cursor) {
	count := c.u32()
	nodes := []NUMANode{}
	for i := uint32(0); i < count && c.err == nil; i++ {
		node := NUMANode{
			Node:     int(c.u32()),
			MemTotal: int64(c.u64()) * 1024,
			MemFree:  int64(c.u64()) * 1024,
		}
		cpus := c.cpuSets([]string{c.lenString()})
		if c.err != nil {
			return
		}
		node.CPUs = cpus[0]
		nodes = append(nodes, node)
	}
	if c.err == nil {
		m.NUMANodes = nodes
	}
}

func (m *FileMeta) parsePMUMappings(c *cursor) {
	count := c.u32()
	pmus := map[uint32]string{}
	for i := uint32(0); i < count && c.err == nil; i++ {
		typ := c.u32()
		pmus[typ] = c.lenString()
	}
	if c.err == nil {
		m.PMUMappings = pmus
	}
}

func (m *FileMeta) parseGroupDesc(c *cursor) {
	count := c.u32()
	groups := []GroupDesc{}
	for i := uint32(0); i < count && c.err == nil; i++ {
		groups = append(groups, GroupDesc{
			Name:       c.lenString(),
			Leader:     int(c.u32()),
			NumMembers: int(c.u32()),
		})
	}
	if c.err == nil {
		m.Groups = groups
	}
}
