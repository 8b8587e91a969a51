// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recordfile reads simpleperf and perf "perf.data" capture
// files through a read-only memory mapping.
//
// A capture file consists of a header, a table of event attributes,
// a data region holding a stream of variable-length records, and a
// set of optional feature sections. Open maps the file; the records
// are retrieved with Reader.DataSection and the feature sections with
// Reader.FeatureSections and the per-feature methods such as
// Reader.CmdLine.
//
// Every offset read from the file is checked against the mapping
// before use. Errors wrap one of ErrOpen, ErrMap, ErrRange and
// ErrFormat so callers can classify them with errors.Is.
package recordfile // import "github.com/aclements/go-simpleperf/recordfile"
