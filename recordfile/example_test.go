// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile_test

import (
	"fmt"
	"log"

	"github.com/aclements/go-simpleperf/record"
	"github.com/aclements/go-simpleperf/recordfile"
)

func Example() {
	r, err := recordfile.Open("perf.data")
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	cmdline, err := r.CmdLine()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("recorded with %q\n", cmdline)

	recs, err := r.DataSection()
	if err != nil {
		log.Fatal(err)
	}
	for _, rec := range recs {
		switch rec := rec.(type) {
		case *record.Sample:
			fmt.Printf("sample: pid %d ip %#x at %d\n", rec.PID, rec.IP, rec.Time)
		case *record.Comm:
			fmt.Printf("comm: pid %d is %s\n", rec.PID, rec.Comm)
		}
	}
}
