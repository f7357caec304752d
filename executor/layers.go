package executor

import (
	"sort"

	"github.com/reasonflow/graphcore/graph"
)

// computeLayers performs the layer decomposition described in §4.4: build
// in-degree counts over nodes and edges (combining edge-implied and
// dependencies-implied ordering), then repeatedly peel off every node
// currently at in-degree 0 as the next layer. Each layer's node ids are
// returned sorted, matching the deterministic-commit-order requirement
// (§5) the dispatch loop later relies on for its output.
//
// Control-flow targets (graph.DirectInvocationOwners) never appear in any
// layer: their owning node reaches them directly, mid-layer, via
// node.Invoker.RunNode, so including them here would dispatch them a second
// time through the ordinary wave. An edge naming one of these ids as
// endpoint is instead attributed to its owner — e.g. a Conditional's branch
// target "yes" having its own outgoing edge to "report" makes "report"
// depend on the Conditional node's completion, since that's when "yes"'s
// output actually lands in Context.
//
// Grounded on graph/validate.go's checkAcyclic, which already performs the
// same Kahn decomposition for cycle detection; this is the execution-time
// counterpart that also yields the layer boundaries validate.go discards.
func computeLayers(d *graph.Definition) [][]string {
	owners := graph.DirectInvocationOwners(d)
	redirect := func(id string) string {
		if owner, ok := owners[id]; ok {
			return owner
		}
		return id
	}

	inDegree := make(map[string]int, len(d.Nodes))
	adj := make(map[string][]string, len(d.Nodes))
	for id := range d.Nodes {
		if _, ok := owners[id]; ok {
			continue
		}
		inDegree[id] = 0
	}

	addEdge := func(from, to string) {
		from, to = redirect(from), redirect(to)
		if from == to {
			// A control node's own sentinel edge into its invoked target
			// (or two siblings invoked by the same owner) collapses to a
			// self-loop once redirected; it carries no scheduling meaning.
			return
		}
		if _, ok := inDegree[to]; !ok {
			return
		}
		adj[from] = append(adj[from], to)
	}

	for _, e := range d.Edges {
		addEdge(e.From, e.To)
	}
	for id, cfg := range d.Nodes {
		if _, ok := owners[id]; ok {
			continue
		}
		for _, dep := range cfg.Dependencies {
			addEdge(dep, id)
		}
	}
	for _, targets := range adj {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	var layers [][]string
	remaining := len(inDegree)
	for remaining > 0 {
		var layer []string
		for id, deg := range inDegree {
			if deg == 0 {
				layer = append(layer, id)
			}
		}
		if len(layer) == 0 {
			// checkAcyclic already rejects cyclic graphs before this ever
			// runs; this guards against being called on an unvalidated one.
			break
		}
		sort.Strings(layer)
		layers = append(layers, layer)

		for _, id := range layer {
			delete(inDegree, id)
			remaining--
			for _, t := range adj[id] {
				inDegree[t]--
			}
		}
	}
	return layers
}
