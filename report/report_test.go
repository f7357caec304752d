package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reasonflow/graphcore/rgcache"
)

func TestRenderIncludesLayersNodesAndCacheStats(t *testing.T) {
	rep := &Report{
		RunID:   "run-1",
		GraphID: "g1",
		Layers: []LayerInfo{
			{Index: 0, NodeIDs: []string{"a"}, Skipped: []string{"b"}, Duration: 2 * time.Millisecond},
		},
		Timings: []NodeTiming{
			{NodeID: "a", Layer: 0, Duration: time.Millisecond},
		},
		CacheStats: rgcache.Stats{Hits: 3, Misses: 1, Evictions: 0, Entries: 2},
	}

	out := rep.Render()
	require.True(t, strings.Contains(out, "run-1"))
	require.True(t, strings.Contains(out, "a"))
	require.True(t, strings.Contains(out, "b (skipped: guard false)"))
	require.True(t, strings.Contains(out, "hits=3"))
	require.True(t, strings.Contains(out, "misses=1"))
}

func TestRenderMarksCacheHitNodesDistinctly(t *testing.T) {
	rep := &Report{
		RunID: "run-2",
		Layers: []LayerInfo{
			{Index: 0, NodeIDs: []string{"cached"}},
		},
		Timings: []NodeTiming{
			{NodeID: "cached", CacheHit: true},
		},
	}
	out := rep.Render()
	require.True(t, strings.Contains(out, "cache hit"))
}

func TestRenderAppendsRunErrorWhenPresent(t *testing.T) {
	rep := &Report{RunID: "run-3", Err: errors.New("node execution failed")}
	out := rep.Render()
	require.True(t, strings.Contains(out, "error: node execution failed"))
}

func TestRenderMarksFailedNodeWithItsError(t *testing.T) {
	rep := &Report{
		RunID: "run-4",
		Layers: []LayerInfo{
			{Index: 0, NodeIDs: []string{"broken"}},
		},
		Timings: []NodeTiming{
			{NodeID: "broken", Err: errors.New("boom")},
		},
	}
	out := rep.Render()
	require.True(t, strings.Contains(out, "broken"))
	require.True(t, strings.Contains(out, "boom"))
}
