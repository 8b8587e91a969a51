// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/aclements/go-moremath/stats"
)

// gapSummary summarizes the time between consecutive samples.
type gapSummary struct {
	samples int
	// backward counts samples timed before their predecessor,
	// which happens when records are in file order.
	backward int
	gaps     stats.Sample
}

// summarize computes the gaps between consecutive times. Steps back
// in time are counted but contribute no gap.
func summarize(times []uint64) gapSummary {
	s := gapSummary{samples: len(times)}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			s.backward++
			continue
		}
		s.gaps.Xs = append(s.gaps.Xs, float64(times[i]-times[i-1]))
	}
	return s
}

func (s gapSummary) print(w io.Writer) {
	fmt.Fprintf(w, "samples: %d\n", s.samples)
	if s.backward > 0 {
		fmt.Fprintf(w, "out of order: %d\n", s.backward)
	}
	if len(s.gaps.Xs) == 0 {
		return
	}
	lo, hi := s.gaps.Bounds()
	fmt.Fprintf(w, "gap mean: %.1f ns\n", s.gaps.Mean())
	fmt.Fprintf(w, "gap min/max: %.0f/%.0f ns\n", lo, hi)
	fmt.Fprintf(w, "gap p50/p99: %.0f/%.0f ns\n", s.gaps.Quantile(0.5), s.gaps.Quantile(0.99))
}
