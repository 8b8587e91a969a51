// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recordfile

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aclements/go-simpleperf/internal/perftest"
	"github.com/aclements/go-simpleperf/record"
)

func TestFeatureSections(t *testing.T) {
	require := require.New(t)

	r := openBuilder(t, &perftest.Builder{
		Attrs: []perftest.Attr{{Attr: timedAttr}},
		Data:  sample(&timedAttr, 1, 1),
		Features: map[int][]byte{
			2: nil,
			5: nil,
		},
		FeatureDescs: map[int][2]uint64{
			2: {100, 20},
			5: {200, 8},
		},
	})

	secs, err := r.FeatureSections()
	require.NoError(err)
	require.Equal(map[Feature]Section{
		2: {100, 20},
		5: {200, 8},
	}, secs)

	// Callers get their own copy of the cached table.
	delete(secs, 2)
	secs, err = r.FeatureSections()
	require.NoError(err)
	require.Len(secs, 2)
}

func TestFeatureSectionsPositional(t *testing.T) {
	require := require.New(t)

	// Descriptors are assigned to set bits in ascending bit order
	// regardless of where their contents live.
	b := &perftest.Builder{
		Features: map[int][]byte{
			int(FeatureHostname): perftest.StringSection("h"),
			int(FeatureArch):     perftest.StringSection("x86_64"),
			200:                  {1, 2, 3},
		},
	}
	r := openBuilder(t, b)
	secs, err := r.FeatureSections()
	require.NoError(err)
	require.Len(secs, 3)
	require.Less(secs[FeatureHostname].Offset, secs[FeatureArch].Offset)
	require.Less(secs[FeatureArch].Offset, secs[200].Offset)
	require.Equal(uint64(3), secs[200].Size)

	arch, err := r.Arch()
	require.NoError(err)
	require.Equal("x86_64", arch)
}

func TestFeatureSectionsConcurrent(t *testing.T) {
	r := openBuilder(t, &perftest.Builder{
		Features: map[int][]byte{int(FeatureCmdline): perftest.CmdLineSection("a", "b")},
	})

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			args, err := r.CmdLine()
			if err == nil {
				results[i] = args
			}
		}(i)
	}
	wg.Wait()
	for _, args := range results {
		require.Equal(t, []string{"a", "b"}, args)
	}
}

func TestFeatureTableOutOfRange(t *testing.T) {
	require := require.New(t)

	data := (&perftest.Builder{
		Features: map[int][]byte{int(FeatureCmdline): perftest.CmdLineSection("a")},
	}).Bytes()
	// Move the data region so the table lands past the end of the file.
	binary.LittleEndian.PutUint64(data[perftest.OffData:], uint64(len(data)))
	r := openBytes(t, data)

	_, err := r.FeatureSections()
	require.ErrorIs(err, ErrRange)
	_, err = r.CmdLine()
	require.ErrorIs(err, ErrRange)

	// The attribute table is still usable.
	_, err = r.AttrSection()
	require.NoError(err)
}

func TestCmdLine(t *testing.T) {
	require := require.New(t)

	r := openBuilder(t, &perftest.Builder{
		Features: map[int][]byte{int(FeatureCmdline): perftest.CmdLineSection("abc", "de")},
	})
	args, err := r.CmdLine()
	require.NoError(err)
	require.Equal([]string{"abc", "de"}, args)

	// Strings without a terminator end at their declared length.
	sec := binary.LittleEndian.AppendUint32(nil, 1)
	sec = binary.LittleEndian.AppendUint32(sec, 3)
	sec = append(sec, "xyz"...)
	r = openBuilder(t, &perftest.Builder{Features: map[int][]byte{int(FeatureCmdline): sec}})
	args, err = r.CmdLine()
	require.NoError(err)
	require.Equal([]string{"xyz"}, args)
}

func TestCmdLineMissing(t *testing.T) {
	r := openBuilder(t, &perftest.Builder{
		Features: map[int][]byte{int(FeatureHostname): perftest.StringSection("h")},
	})
	args, err := r.CmdLine()
	require.NoError(t, err)
	require.Empty(t, args)
}

func TestCmdLineMalformed(t *testing.T) {
	le := binary.LittleEndian
	for name, sec := range map[string][]byte{
		"Empty":         {},
		"ShortCount":    {1, 0},
		"MissingArg":    perftest.CmdLineSection("a")[4:],
		"CountTooLarge": append(le.AppendUint32(nil, 2), perftest.StringSection("a")...),
		"LenTooLarge":   append(le.AppendUint32(le.AppendUint32(nil, 1), 100), "abc"...),
		"ShortLen":      append(le.AppendUint32(nil, 1), 3, 0),
	} {
		t.Run(name, func(t *testing.T) {
			r := openBuilder(t, &perftest.Builder{Features: map[int][]byte{int(FeatureCmdline): sec}})
			args, err := r.CmdLine()
			require.ErrorIs(t, err, ErrFormat)
			require.Nil(t, args)
		})
	}

	t.Run("OutOfFile", func(t *testing.T) {
		r := openBuilder(t, &perftest.Builder{
			Features:     map[int][]byte{int(FeatureCmdline): nil},
			FeatureDescs: map[int][2]uint64{int(FeatureCmdline): {1 << 40, 8}},
		})
		_, err := r.CmdLine()
		require.ErrorIs(t, err, ErrRange)
	})
}

func TestMeta(t *testing.T) {
	require := require.New(t)

	le := binary.LittleEndian
	nrcpus := le.AppendUint32(le.AppendUint32(nil, 8), 4)
	topo := append(
		perftest.CmdLineSection("0-1", "2-3"),
		perftest.CmdLineSection("0,2", "1,3")...)
	numa := le.AppendUint32(nil, 1)
	numa = le.AppendUint32(numa, 0)
	numa = le.AppendUint64(numa, 1024)
	numa = le.AppendUint64(numa, 512)
	numa = append(numa, perftest.StringSection("0-3")...)
	pmus := append(le.AppendUint32(le.AppendUint32(nil, 1), 4), perftest.StringSection("cpu")...)
	groups := le.AppendUint32(nil, 1)
	groups = append(groups, perftest.StringSection("{cycles,instructions}")...)
	groups = le.AppendUint32(le.AppendUint32(groups, 0), 2)

	buildID := perftest.Raw(record.RecordTypeBuildID, uint16(record.CPUModeUser), append(append(
		le.AppendUint32(nil, ^uint32(0)),
		[]byte{0xde, 0xad, 0xbe, 0xef, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 0, 0, 0, 0}...),
		"/usr/bin/app\x00\x00\x00\x00"...))

	r := openBuilder(t, &perftest.Builder{
		Features: map[int][]byte{
			int(FeatureBuildID):      buildID,
			int(FeatureHostname):     perftest.StringSection("box"),
			int(FeatureOSRelease):    perftest.StringSection("6.1.0"),
			int(FeatureVersion):      perftest.StringSection("1.0"),
			int(FeatureArch):         perftest.StringSection("arm64"),
			int(FeatureNrCPUs):       nrcpus,
			int(FeatureCPUDesc):      perftest.StringSection("Cortex"),
			int(FeatureCPUID):        perftest.StringSection("0x41"),
			int(FeatureTotalMem):     le.AppendUint64(nil, 2048),
			int(FeatureCmdline):      perftest.CmdLineSection("simpleperf", "record"),
			int(FeatureCPUTopology):  topo,
			int(FeatureNUMATopology): numa,
			int(FeaturePMUMappings):  pmus,
			int(FeatureGroupDesc):    groups,
		},
	})

	m, err := r.Meta()
	require.NoError(err)
	require.Equal("box", m.Hostname)
	require.Equal("6.1.0", m.OSRelease)
	require.Equal("1.0", m.Version)
	require.Equal("arm64", m.Arch)
	require.Equal("Cortex", m.CPUDesc)
	require.Equal("0x41", m.CPUID)
	require.Equal(8, m.CPUsAvail)
	require.Equal(4, m.CPUsOnline)
	require.Equal(int64(2048*1024), m.TotalMem)
	require.Equal([]string{"simpleperf", "record"}, m.CmdLine)
	require.Equal([]CPUSet{{0, 1}, {2, 3}}, m.CoreGroups)
	require.Equal([]CPUSet{{0, 2}, {1, 3}}, m.ThreadGroups)
	require.Equal([]NUMANode{{Node: 0, MemTotal: 1024 * 1024, MemFree: 512 * 1024, CPUs: CPUSet{0, 1, 2, 3}}}, m.NUMANodes)
	require.Equal(map[uint32]string{4: "cpu"}, m.PMUMappings)
	require.Equal([]GroupDesc{{Name: "{cycles,instructions}", Leader: 0, NumMembers: 2}}, m.Groups)

	require.Len(m.BuildIDs, 1)
	bid := m.BuildIDs[0]
	require.Equal(-1, bid.PID)
	require.Equal(record.CPUModeUser, bid.CPUMode)
	require.Equal("/usr/bin/app", bid.Filename)
	require.Equal("deadbeef0102030405060708090a0b0c0d0e0f10", bid.BuildID.String())
}

func TestMetaEmpty(t *testing.T) {
	r := openBuilder(t, &perftest.Builder{})
	m, err := r.Meta()
	require.NoError(t, err)
	require.Equal(t, &FileMeta{}, m)
}

func TestMetaCPUListTooLarge(t *testing.T) {
	le := binary.LittleEndian
	numa := le.AppendUint32(nil, 1)
	numa = le.AppendUint32(numa, 0)
	numa = le.AppendUint64(numa, 1024)
	numa = le.AppendUint64(numa, 512)
	numa = append(numa, perftest.StringSection("0-60000000")...)

	all := make([]string, 4)
	for i := range all {
		all[i] = "0-65535"
	}
	topo := append(perftest.CmdLineSection(all...), perftest.CmdLineSection()...)

	for name, f := range map[string]struct {
		id  Feature
		sec []byte
	}{
		"NUMA":     {FeatureNUMATopology, numa},
		"Topology": {FeatureCPUTopology, topo},
	} {
		t.Run(name, func(t *testing.T) {
			r := openBuilder(t, &perftest.Builder{
				Features: map[int][]byte{
					int(f.id):            f.sec,
					int(FeatureHostname): perftest.StringSection("h"),
				},
			})
			m, err := r.Meta()
			require.ErrorIs(t, err, ErrFormat)
			require.Nil(t, m)

			// Other features are still readable.
			host, err := r.Hostname()
			require.NoError(t, err)
			require.Equal(t, "h", host)
		})
	}
}
