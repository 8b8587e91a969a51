// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aclements/go-simpleperf/internal/perftest"
	"github.com/aclements/go-simpleperf/record"
)

var testAttr = record.EventAttr{
	Type:         record.EventTypeSoftware,
	SamplePeriod: 1,
	SampleFormat: record.SampleFormatIP | record.SampleFormatTID | record.SampleFormatTime,
	Flags:        record.EventFlagSampleIDAll | record.EventFlagComm,
}

func testCapture(t *testing.T) string {
	t.Helper()
	base := func(pid int, time uint64) record.Base {
		return record.Base{PID: pid, TID: pid, Time: time}
	}
	var data []byte
	data = append(data, perftest.EncodeComm(&testAttr, &record.Comm{Base: base(7, 1), Comm: "app"})...)
	data = append(data, perftest.EncodeSample(&testAttr, &record.Sample{Base: base(7, 10), IP: 0x1000})...)
	data = append(data, perftest.EncodeSample(&testAttr, &record.Sample{Base: base(8, 30), IP: 0x2000})...)
	data = append(data, perftest.EncodeSample(&testAttr, &record.Sample{Base: base(7, 60), IP: 0x3000})...)
	b := &perftest.Builder{
		Attrs: []perftest.Attr{{Attr: testAttr, IDs: []uint64{1}}},
		Data:  data,
		Features: map[int][]byte{
			11: perftest.CmdLineSection("simpleperf", "record", "-e", "cpu clock"),
		},
	}
	return b.WriteFile(t)
}

func TestRun(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	require.NoError(run(&buf, config{input: testCapture(t), records: true}))
	out := buf.String()

	require.Contains(out, "ids=[1]")
	require.Contains(out, "cmdline: simpleperf record -e 'cpu clock'")
	require.Equal(3, strings.Count(out, "sample{"))
	require.Equal(1, strings.Count(out, "comm{"))
	require.Contains(out, "0x3000")
	require.Less(strings.Index(out, "0x1000"), strings.Index(out, "0x2000"))
}

func TestRunFilter(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	cfg := config{input: testCapture(t), filter: "sample && pid == 7", stats: true, records: true}
	require.NoError(run(&buf, cfg))
	out := buf.String()

	require.Equal(2, strings.Count(out, "sample{"))
	require.NotContains(out, "comm{")
	require.NotContains(out, "0x2000")
	require.Contains(out, "samples: 2\n")
	require.Contains(out, "gap mean: 50.0 ns\n")
}

func TestRunNoRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run(&buf, config{input: testCapture(t)}))
	require.NotContains(t, buf.String(), "sample{")
	require.Contains(t, buf.String(), "events:")
}

func TestRunErrors(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, run(&buf, config{input: testCapture(t), filter: "pid +"}))
	require.Error(t, run(&buf, config{input: testCapture(t), filter: "pid"}))
	require.Error(t, run(&buf, config{input: t.TempDir() + "/missing"}))
}

func TestSummarize(t *testing.T) {
	require := require.New(t)

	s := summarize([]uint64{10, 20, 40, 40, 100})
	require.Equal(5, s.samples)
	require.Equal([]float64{10, 20, 0, 60}, s.gaps.Xs)
	require.Equal(22.5, s.gaps.Mean())

	var buf bytes.Buffer
	summarize([]uint64{5}).print(&buf)
	require.Equal("samples: 1\n", buf.String())

	// File-order captures may step back in time.
	s = summarize([]uint64{30, 10, 20})
	require.Equal(1, s.backward)
	require.Equal([]float64{10}, s.gaps.Xs)
	buf.Reset()
	s.print(&buf)
	require.Contains(buf.String(), "out of order: 1\n")
	require.Contains(buf.String(), "gap min/max: 10/10 ns\n")
}
