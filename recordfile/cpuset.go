// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// maxCPUs bounds the CPU indexes accepted in a CPU list.
const maxCPUs = 1 << 16

// A CPUSet represents a set of CPUs by CPU index, sorted and without
// duplicates.
type CPUSet []int

// parseCPUSet parses a Linux CPU list such as "0-3,8,10-11".
func parseCPUSet(str string) (CPUSet, error) {
	out := CPUSet{}
	str = strings.TrimSpace(str)
	if str == "" {
		return out, nil
	}
	for _, r := range strings.Split(str, ",") {
		lo, hi, isRange := strings.Cut(r, "-")
		l, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("bad CPU list %q: %w", str, err)
		}
		h := l
		if isRange {
			if h, err = strconv.Atoi(hi); err != nil {
				return nil, fmt.Errorf("bad CPU list %q: %w", str, err)
			}
		}
		if h < l {
			return nil, fmt.Errorf("bad CPU list %q: range %d-%d is reversed", str, l, h)
		}
		if l < 0 || h >= maxCPUs {
			return nil, fmt.Errorf("bad CPU list %q: CPU %d out of range", str, h)
		}
		if len(out)+h-l >= maxCPUs {
			return nil, fmt.Errorf("bad CPU list %q: more than %d CPUs", str, maxCPUs)
		}
		for cpu := l; cpu <= h; cpu++ {
			out = append(out, cpu)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (c CPUSet) String() string {
	var b strings.Builder
	for i := 0; i < len(c); {
		j := i
		for j+1 < len(c) && c[j+1] == c[j]+1 {
			j++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if i == j {
			fmt.Fprintf(&b, "%d", c[i])
		} else {
			fmt.Fprintf(&b, "%d-%d", c[i], c[j])
		}
		i = j + 1
	}
	return b.String()
}
