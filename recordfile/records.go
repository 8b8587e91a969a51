// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aclements/go-simpleperf/record"
)

// DataSection decodes every record in the data region.
//
// All records are decoded with the first attribute in the attribute
// table; a file without attributes is rejected with ErrFormat. A
// trailing record whose declared size runs past the end of the region
// is dropped without error. Compressed records are expanded in place.
//
// If the attribute records a time in every sample and a sample_id
// trailer on every other record, the result is sorted with
// HappensBefore. Otherwise it is in file order.
func (r *Reader) DataSection() ([]record.Record, error) {
	attrs, err := r.AttrSection()
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return nil, fmt.Errorf("%w: no attribute records", ErrFormat)
	}
	attr := attrs[0].Attr

	data, err := r.section("data", r.hdr.Data)
	if err != nil {
		return nil, err
	}
	recs, err := r.walk(attr, data, int64(r.hdr.Data.Offset), nil)
	if err != nil {
		return nil, err
	}

	if attr.Timestamped() {
		sort.Slice(recs, func(i, j int) bool {
			return HappensBefore(recs[i], recs[j])
		})
	}
	return recs, nil
}

// walk splits buf into records and appends their decoding to out.
// base is the file offset of buf, or -1 if buf is not part of the
// file.
func (r *Reader) walk(attr *record.EventAttr, buf []byte, base int64, out []record.Record) ([]record.Record, error) {
	dec := r.Decoder
	if dec == nil {
		dec = record.DefaultDecoder
	}
	offset := func(off int) int64 {
		if base < 0 {
			return -1
		}
		return base + int64(off)
	}

	for off := 0; off < len(buf); {
		rest := buf[off:]
		hdr, err := record.ParseHeader(rest)
		if err != nil {
			slog.Debug("dropping truncated record header", "file", r.f.Name(), "offset", offset(off), "bytes", len(rest))
			break
		}
		size := int(hdr.Size)
		if size < record.HeaderSize {
			return nil, fmt.Errorf("%w: record at offset %#x has size %d", ErrFormat, offset(off), size)
		}
		if size > len(rest) {
			slog.Debug("dropping truncated record", "file", r.f.Name(), "offset", offset(off), "size", size, "bytes", len(rest))
			break
		}
		raw := rest[:size]

		if hdr.Type == record.RecordTypeCompressed {
			inner, err := record.Decompress(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: record at offset %#x: %w", ErrFormat, offset(off), err)
			}
			out, err = r.walk(attr, inner, -1, out)
			if err != nil {
				return nil, err
			}
		} else {
			rec, err := dec.Decode(attr, raw)
			if err == nil && rec == nil {
				err = fmt.Errorf("decoder returned no %v record", hdr.Type)
			}
			if err != nil {
				return nil, fmt.Errorf("%w: record at offset %#x: %w", ErrFormat, offset(off), err)
			}
			rec.Common().Offset = offset(off)
			out = append(out, rec)
		}
		off += size
	}
	return out, nil
}

// HappensBefore reports whether r1 must be ordered before r2.
//
// The record with the smaller timestamp comes first. At equal
// timestamps a non-sample record comes before a sample, since it may
// describe state needed to interpret the sample. Records with equal
// timestamps and of the same kind are unordered, and DataSection may
// return them in any order.
func HappensBefore(r1, r2 record.Record) bool {
	t1, t2 := record.Timestamp(r1), record.Timestamp(r2)
	if t1 != t2 {
		return t1 < t2
	}
	return !record.IsSample(r1) && record.IsSample(r2)
}
