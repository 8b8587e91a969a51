// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"errors"

	"github.com/aclements/go-simpleperf/internal/mmapfile"
)

var (
	// ErrOpen indicates the capture file could not be opened.
	ErrOpen = mmapfile.ErrOpen

	// ErrMap indicates the capture file could not be mapped.
	ErrMap = mmapfile.ErrMap

	// ErrRange indicates that a section or record lies outside the
	// file.
	ErrRange = mmapfile.ErrRange

	// ErrFormat indicates that the file's structure is invalid.
	ErrFormat = errors.New("malformed capture file")
)
