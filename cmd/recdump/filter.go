// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/aclements/go-simpleperf/record"
)

// A recordFilter selects records using a boolean expression over
// their common fields. A nil program matches everything.
type recordFilter struct {
	program *vm.Program
}

func compileFilter(src string) (*recordFilter, error) {
	if src == "" {
		return &recordFilter{}, nil
	}
	program, err := expr.Compile(src, expr.Env(filterEnv(nil)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter %q: %w", src, err)
	}
	return &recordFilter{program}, nil
}

// filterEnv returns the variables visible to a filter expression.
// With a nil record it returns zero values for type checking.
func filterEnv(r record.Record) map[string]interface{} {
	env := map[string]interface{}{
		"type":   "",
		"time":   uint64(0),
		"pid":    0,
		"tid":    0,
		"cpu":    uint32(0),
		"offset": int64(0),
		"sample": false,
	}
	if r == nil {
		return env
	}
	c := r.Common()
	env["type"] = r.Type().String()
	env["time"] = c.Time
	env["pid"] = c.PID
	env["tid"] = c.TID
	env["cpu"] = c.CPU
	env["offset"] = c.Offset
	env["sample"] = record.IsSample(r)
	return env
}

func (f *recordFilter) match(r record.Record) (bool, error) {
	if f.program == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, filterEnv(r))
	if err != nil {
		return false, fmt.Errorf("evaluating filter on %v record: %w", r.Type(), err)
	}
	return out.(bool), nil
}
