// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// maxDecompressed bounds the expansion of a single compressed record.
const maxDecompressed = 64 << 20

var zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(maxDecompressed))
})

// Decompress returns the records packed in the payload of a
// RecordTypeCompressed record. raw includes the record header. The
// result is a concatenation of raw records.
func Decompress(raw []byte) ([]byte, error) {
	hdr, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	if hdr.Type != RecordTypeCompressed {
		return nil, fmt.Errorf("cannot decompress %v record", hdr.Type)
	}
	dec, err := zstdDecoder()
	if err != nil {
		return nil, err
	}
	out, err := dec.DecodeAll(raw[HeaderSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing record: %w", err)
	}
	return out, nil
}
