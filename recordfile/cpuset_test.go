// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCPUSet(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want CPUSet
		str  string
	}{
		{"", CPUSet{}, ""},
		{"3", CPUSet{3}, "3"},
		{"0-3", CPUSet{0, 1, 2, 3}, "0-3"},
		{"0-1,4,6-7", CPUSet{0, 1, 4, 6, 7}, "0-1,4,6-7"},
		{"5,1-2,2", CPUSet{1, 2, 5}, "1-2,5"},
		{"1,0\n", CPUSet{0, 1}, "0-1"},
		{"65535", CPUSet{65535}, "65535"},
	} {
		got, err := parseCPUSet(tc.in)
		require.NoError(t, err, "parseCPUSet(%q)", tc.in)
		require.Equal(t, tc.want, got, "parseCPUSet(%q)", tc.in)
		require.Equal(t, tc.str, got.String())
	}

	for _, bad := range []string{"a", "1-", "-1", "3-1", "1,,2", "0-4000000000", "65536", "0-65535,0-65535"} {
		_, err := parseCPUSet(bad)
		require.Error(t, err, "parseCPUSet(%q)", bad)
	}
}
