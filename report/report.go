// Package report builds the structured execution report the Executor
// produces on every run (§4.4: "node order, layer widths, per-node timing,
// cache stats"), plus an ASCII rendering suitable for a CLI's dry-run/stats
// surface — grounded on pumped-fn-pumped-go's treedrawer-based dependency
// visualization, adapted from a reactive-dependency tree to a layered
// execution trace.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/m1gwings/treedrawer/tree"

	"github.com/reasonflow/graphcore/rgcache"
)

// NodeTiming records one node's dispatch outcome within a run.
type NodeTiming struct {
	NodeID   string
	Layer    int
	Duration time.Duration
	CacheHit bool
	Skipped  bool
	Err      error
}

// LayerInfo summarizes a single topological layer's dispatch.
type LayerInfo struct {
	Index    int
	NodeIDs  []string // enabled nodes, in dispatch order
	Skipped  []string // nodes disabled by edge guards
	Duration time.Duration
}

// Report is the Executor's structured output for a completed or aborted run.
type Report struct {
	RunID      string
	GraphID    string
	Layers     []LayerInfo
	NodeOrder  []string // every dispatched node id, commit order
	Timings    []NodeTiming
	CacheStats rgcache.Stats
	Err        error
}

// Render produces a human-readable ASCII tree: one root per layer, one leaf
// per node dispatched in that layer, annotated with cache/skip/error state.
func (r *Report) Render() string {
	root := tree.NewTree(tree.NodeString(fmt.Sprintf("run %s (%d layers)", r.RunID, len(r.Layers))))
	timingsByNode := make(map[string]NodeTiming, len(r.Timings))
	for _, t := range r.Timings {
		timingsByNode[t.NodeID] = t
	}

	for _, layer := range r.Layers {
		layerLabel := fmt.Sprintf("layer %d (%s)", layer.Index, layer.Duration)
		layerNode := root.AddChild(tree.NodeString(layerLabel))
		for _, id := range layer.NodeIDs {
			layerNode.AddChild(tree.NodeString(nodeLabel(id, timingsByNode[id])))
		}
		for _, id := range layer.Skipped {
			layerNode.AddChild(tree.NodeString(id + " (skipped: guard false)"))
		}
	}

	var sb strings.Builder
	sb.WriteString(root.String())
	sb.WriteString(fmt.Sprintf("\ncache: hits=%d misses=%d evictions=%d entries=%d\n",
		r.CacheStats.Hits, r.CacheStats.Misses, r.CacheStats.Evictions, r.CacheStats.Entries))
	if r.Err != nil {
		sb.WriteString(fmt.Sprintf("error: %v\n", r.Err))
	}
	return sb.String()
}

func nodeLabel(id string, t NodeTiming) string {
	switch {
	case t.Err != nil:
		return fmt.Sprintf("%s ✗ (%s) %v", id, t.Duration, t.Err)
	case t.CacheHit:
		return fmt.Sprintf("%s ✓ (cache hit)", id)
	default:
		return fmt.Sprintf("%s ✓ (%s)", id, t.Duration)
	}
}
