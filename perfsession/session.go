// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perfsession tracks process state across a record stream.
//
// Feed records to Session.Update in the order returned by
// recordfile.Reader.DataSection. Because that order places
// non-sample records before samples with the same timestamp, a
// sample's process already carries the comm and mappings in effect
// when it was taken.
package perfsession

import "github.com/aclements/go-simpleperf/record"

// Session is the process state reconstructed from a record stream.
type Session struct {
	kernel  *PIDInfo
	pidInfo map[int]*PIDInfo
}

func New() *Session {
	kernel := &PIDInfo{Comm: "[kernel]"}
	return &Session{
		kernel: kernel,
		pidInfo: map[int]*PIDInfo{
			// The kernel is implicitly PID -1
			-1: kernel,
		},
	}
}

func (s *Session) ensurePID(pid int) *PIDInfo {
	pidInfo, ok := s.pidInfo[pid]
	if !ok {
		pidInfo = &PIDInfo{kernel: s.kernel}
		s.pidInfo[pid] = pidInfo
	}
	return pidInfo
}

// Update applies r to the session state.
func (s *Session) Update(r record.Record) {
	switch r := r.(type) {
	case *record.Comm:
		s.ensurePID(r.PID).Comm = r.Comm

	case *record.Exit:
		if r.PID == r.TID {
			delete(s.pidInfo, r.PID)
		}
		// Otherwise this is thread exit

	case *record.Fork:
		if r.PID == r.TID {
			s.pidInfo[r.PID] = s.ensurePID(r.PPID).fork()
		}
		// Otherwise this is thread creation

	case *record.Mmap:
		info := s.ensurePID(r.PID)
		info.munmap(r.Addr, r.Len)
		m := *r
		info.maps = append(info.maps, &m)

	case *record.Sample:
		// Sometimes (particularly early in capture files), we
		// see kernel samples before the Comm.
		s.ensurePID(r.PID)
	}
}

// LookupPID returns the state of process pid, or nil if the session
// has not seen it.
func (s *Session) LookupPID(pid int) *PIDInfo {
	return s.pidInfo[pid]
}

// PIDInfo is the state of one process.
type PIDInfo struct {
	Comm   string
	kernel *PIDInfo
	maps   []*record.Mmap
}

func (p *PIDInfo) fork() *PIDInfo {
	maps := make([]*record.Mmap, len(p.maps))
	for i, mmap := range p.maps {
		m := *mmap
		maps[i] = &m
	}
	return &PIDInfo{p.Comm, p.kernel, maps}
}

// munmap removes [addr, addr+mlen) from p's mappings.
func (p *PIDInfo) munmap(addr, mlen uint64) {
	end := addr + mlen
	var out []*record.Mmap
	for _, mmap := range p.maps {
		mend := mmap.Addr + mmap.Len
		if end <= mmap.Addr || mend <= addr {
			out = append(out, mmap)
			continue
		}
		if mmap.Addr < addr {
			// Keep the part before the hole.
			head := *mmap
			head.Len = addr - mmap.Addr
			out = append(out, &head)
		}
		if end < mend {
			// Keep the part after the hole.
			tail := *mmap
			tail.FileOffset += end - mmap.Addr
			tail.Addr, tail.Len = end, mend-end
			out = append(out, &tail)
		}
	}
	p.maps = out
}

func (p *PIDInfo) mapFind(addr uint64) *record.Mmap {
	for _, mmap := range p.maps {
		if mmap.Addr <= addr && addr < mmap.Addr+mmap.Len {
			return mmap
		}
	}
	return nil
}

// LookupMmap returns the mapping containing addr in p or, failing
// that, in the kernel.
func (p *PIDInfo) LookupMmap(addr uint64) *record.Mmap {
	m := p.mapFind(addr)
	if m == nil && p.kernel != nil {
		m = p.kernel.mapFind(addr)
	}
	return m
}
