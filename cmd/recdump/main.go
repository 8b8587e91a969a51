// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command recdump prints the contents of a simpleperf or perf
// "perf.data" capture.
//
// recdump prints the file header, the event attributes and their
// sample IDs, the metadata feature sections, and then every record in
// time order. For example,
//
//	recdump -i perf.data -filter 'sample && pid == 1234' -stats
//
// prints only the samples of process 1234 followed by a summary of
// the time between them.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"reflect"

	"github.com/kballard/go-shellquote"

	"github.com/aclements/go-simpleperf/perfsession"
	"github.com/aclements/go-simpleperf/record"
	"github.com/aclements/go-simpleperf/recordfile"
)

type config struct {
	input   string
	filter  string
	stats   bool
	records bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.input, "i", "perf.data", "input capture `file`")
	flag.StringVar(&cfg.filter, "filter", "", "only print records matching boolean `expr`")
	flag.BoolVar(&cfg.stats, "stats", false, "summarize the time between printed samples")
	flag.BoolVar(&cfg.records, "records", true, "print records")
	flag.Parse()
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(1)
	}

	w := bufio.NewWriter(os.Stdout)
	err := run(w, cfg)
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(w io.Writer, cfg config) error {
	filter, err := compileFilter(cfg.filter)
	if err != nil {
		return err
	}

	r, err := recordfile.Open(cfg.input)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := dumpHeader(w, r); err != nil {
		return err
	}
	if err := dumpMeta(w, r); err != nil {
		return err
	}
	if !cfg.records {
		return nil
	}

	recs, err := r.DataSection()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)

	session := perfsession.New()
	var times []uint64
	for _, rec := range recs {
		session.Update(rec)
		ok, err := filter.match(rec)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if record.IsSample(rec) {
			times = append(times, record.Timestamp(rec))
		}
		fmt.Fprintf(w, "%v{\n", rec.Type())
		if s, ok := rec.(*record.Sample); ok {
			if p := session.LookupPID(s.PID); p != nil && p.Comm != "" {
				fmt.Fprintf(w, "\t%s,\n", fmtVal("Comm", reflect.ValueOf(p.Comm)))
			}
		}
		printFields(w, reflect.ValueOf(rec))
		fmt.Fprintf(w, "}\n")
	}

	if cfg.stats {
		fmt.Fprintln(w)
		summarize(times).print(w)
	}
	return nil
}

func dumpHeader(w io.Writer, r *recordfile.Reader) error {
	h := r.Header()
	fmt.Fprintf(w, "attrs: %v (stride %d)\n", h.Attrs, h.AttrSize)
	fmt.Fprintf(w, "data: %v\n", h.Data)

	attrs, err := r.AttrSection()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "events:\n")
	for _, attr := range attrs {
		ids, err := r.IDsForAttr(attr)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %+v ids=%v\n", *attr.Attr, ids)
	}

	secs, err := r.FeatureSections()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "features:\n")
	for _, f := range h.FeatureIDs() {
		fmt.Fprintf(w, "  %v %v\n", f, secs[f])
	}
	return nil
}

func dumpMeta(w io.Writer, r *recordfile.Reader) error {
	m, err := r.Meta()
	if err != nil {
		return err
	}

	if m.BuildIDs != nil {
		fmt.Fprintf(w, "build IDs:\n")
		for _, bid := range m.BuildIDs {
			fmt.Fprintf(w, "  %v %s\n", bid.BuildID, bid.Filename)
		}
	}

	for _, hdr := range []struct {
		label string
		val   interface{}
	}{
		{"hostname", m.Hostname},
		{"OS release", m.OSRelease},
		{"version", m.Version},
		{"arch", m.Arch},
		{"CPUs available", m.CPUsAvail},
		{"CPUs online", m.CPUsOnline},
		{"CPU desc", m.CPUDesc},
		{"CPUID", m.CPUID},
		{"total memory", m.TotalMem},
		{"core groups", m.CoreGroups},
		{"thread groups", m.ThreadGroups},
		{"NUMA nodes", m.NUMANodes},
		{"PMU mappings", m.PMUMappings},
		{"groups", m.Groups},
	} {
		if reflect.ValueOf(hdr.val).IsZero() {
			continue
		}
		fmt.Fprintf(w, "%s: %v\n", hdr.label, hdr.val)
	}
	if m.CmdLine != nil {
		fmt.Fprintf(w, "cmdline: %s\n", shellquote.Join(m.CmdLine...))
	}
	return nil
}

func printFields(w io.Writer, v reflect.Value) {
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		info := t.Field(i)
		f := v.Field(i)
		if info.Anonymous {
			printFields(w, f)
		} else if !info.IsExported() {
			// Skip
		} else if (f.Kind() == reflect.Ptr || f.Kind() == reflect.Slice) && f.IsNil() {
			// Skip
		} else {
			fmt.Fprintf(w, "\t%s,\n", fmtVal(info.Name, f))
		}
	}
}

func fmtVal(name string, v reflect.Value) string {
	switch name {
	case "IP", "Addr", "Callchain":
		return fmt.Sprintf("%-14s %#x", name+":", v.Interface())
	}
	return fmt.Sprintf("%-14s %+v", name+":", v.Interface())
}
