// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aclements/go-simpleperf/internal/mmapfile"
	"github.com/aclements/go-simpleperf/record"
)

// A Reader reads a memory-mapped capture file.
//
// The mapping is never written, so the methods of a Reader may be
// called concurrently. Close must not be called concurrently with any
// other method, and every method panics after Close.
type Reader struct {
	f      *mmapfile.File
	hdr    FileHeader
	closed bool

	// Decoder decodes individual records for DataSection. If nil,
	// record.DefaultDecoder is used.
	Decoder record.Decoder

	featureSections func() (map[Feature]Section, error)
}

// Open opens and maps the named capture file and decodes its header.
//
// The caller must call Close on the returned Reader when it is done.
func Open(name string) (*Reader, error) {
	f, err := mmapfile.Open(name)
	if err != nil {
		return nil, err
	}
	r, err := newReader(f)
	if err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("closing capture file", "file", name, "err", cerr)
		}
		return nil, err
	}
	return r, nil
}

func newReader(f *mmapfile.File) (*Reader, error) {
	buf, err := f.Slice(0, min(headerSize, uint64(f.Len())))
	if err != nil {
		return nil, err
	}
	hdr, err := parseFileHeader(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	r := &Reader{f: f, hdr: hdr}
	r.featureSections = sync.OnceValues(r.readFeatureSections)
	return r, nil
}

// Close unmaps and closes the file. Any use of r or of memory it
// returned that aliases the file is invalid after Close.
func (r *Reader) Close() error {
	r.check()
	r.closed = true
	err := r.f.Close()
	if err != nil {
		slog.Error("closing capture file", "file", r.f.Name(), "err", err)
	}
	return err
}

func (r *Reader) check() {
	if r.closed {
		panic("recordfile: use of closed Reader")
	}
}

// Name returns the name of the capture file.
func (r *Reader) Name() string {
	r.check()
	return r.f.Name()
}

// Header returns the decoded file header.
func (r *Reader) Header() *FileHeader {
	r.check()
	hdr := r.hdr
	return &hdr
}

// section returns the bytes of s, which must lie within the file.
func (r *Reader) section(what string, s Section) ([]byte, error) {
	r.check()
	buf, err := r.f.Slice(s.Offset, s.Size)
	if err != nil {
		return nil, fmt.Errorf("%s section %v: %w", what, s, err)
	}
	return buf, nil
}

// AttrSection returns the attribute table. It is decoded from the
// mapping on every call.
func (r *Reader) AttrSection() ([]FileAttr, error) {
	r.check()
	stride := r.hdr.AttrSize
	if stride < record.EventAttrV0Size+sectionSize {
		return nil, fmt.Errorf("%w: attr size %d is smaller than %d", ErrFormat, stride, record.EventAttrV0Size+sectionSize)
	}
	table, err := r.section("attrs", r.hdr.Attrs)
	if err != nil {
		return nil, err
	}

	count := uint64(len(table)) / stride
	attrs := make([]FileAttr, count)
	for i := range attrs {
		ent := table[uint64(i)*stride : uint64(i+1)*stride]
		raw := ent[:stride-sectionSize]
		attr, err := record.ParseEventAttr(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: attr %d: %w", ErrFormat, i, err)
		}
		attrs[i] = FileAttr{
			Attr: attr,
			Raw:  raw,
			IDs:  decodeSection(ent[stride-sectionSize:]),
		}
	}
	return attrs, nil
}

// IDsForAttr returns the sample IDs recorded under attr in file order.
func (r *Reader) IDsForAttr(attr FileAttr) ([]uint64, error) {
	buf, err := r.section("ids", attr.IDs)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(buf)/8)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return ids, nil
}
