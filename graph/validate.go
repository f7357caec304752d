package graph

import (
	"fmt"
	"strings"

	"github.com/reasonflow/graphcore/rgerrors"
)

// ValidationWarning is a non-fatal finding (§4.3 "Reachability check:
// warning (not failure)").
type ValidationWarning struct {
	NodeID  string
	Message string
}

// ValidationResult carries the outcome of Validate: either Err is non-nil
// (the graph is rejected) or Warnings holds zero or more advisory findings.
type ValidationResult struct {
	Warnings []ValidationWarning
}

// Validate performs the four checks from §4.3, in order:
//  1. Reference check — every edge endpoint is a defined node.
//  2. Cycle check — Kahn-style topological decomposition.
//  3. Reachability check — warns (does not fail) on unreachable nodes.
//  4. Node-local validation — each variant's required fields, recursing into
//     Subgraph inner graphs.
func Validate(d *Definition) (*ValidationResult, error) {
	if err := checkReferences(d); err != nil {
		return nil, err
	}
	if err := checkAcyclic(d); err != nil {
		return nil, err
	}
	result := &ValidationResult{Warnings: checkReachability(d)}
	if err := checkNodeLocal(d); err != nil {
		return nil, err
	}
	return result, nil
}

func checkReferences(d *Definition) error {
	for _, e := range d.Edges {
		if _, ok := d.Nodes[e.From]; !ok {
			return rgerrors.Newf(rgerrors.CodeGraphValidation,
				"edge references undefined source node %q", e.From)
		}
		if _, ok := d.Nodes[e.To]; !ok {
			return rgerrors.Newf(rgerrors.CodeGraphValidation,
				"edge references undefined target node %q", e.To)
		}
	}
	for id, n := range d.Nodes {
		for _, dep := range n.Dependencies {
			if _, ok := d.Nodes[dep]; !ok {
				return rgerrors.Newf(rgerrors.CodeGraphValidation,
					"node %q declares dependency on undefined node %q", id, dep)
			}
		}
	}
	return nil
}

// checkAcyclic runs Kahn's algorithm (adapted from the teacher's
// in-degree/adjacency bookkeeping pattern visible in graph/scheduler.go's
// Frontier machinery, here applied once up-front rather than as a live
// queue) and fails with a coded error listing one cycle if the graph is not
// a DAG.
func checkAcyclic(d *Definition) error {
	inDegree := make(map[string]int, len(d.Nodes))
	adj := make(map[string][]string, len(d.Nodes))
	for id := range d.Nodes {
		inDegree[id] = 0
	}
	for _, e := range d.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	for id := range d.Nodes {
		for _, dep := range d.Nodes[id].Dependencies {
			adj[dep] = append(adj[dep], id)
		}
	}
	for _, targets := range adj {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	ids := d.sortedNodeIDs()
	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		next := append([]string(nil), adj[n]...)
		sortStrings(next)
		for _, t := range next {
			inDegree[t]--
			if inDegree[t] == 0 {
				queue = append(queue, t)
			}
		}
	}

	if visited != len(d.Nodes) {
		cycle := findOneCycle(d, inDegree)
		return rgerrors.Newf(rgerrors.CodeGraphValidation,
			"graph contains a cycle: %s", strings.Join(cycle, " -> "))
	}
	return nil
}

// findOneCycle walks from any node that Kahn's algorithm never dequeued
// (inDegree still > 0) following out-edges until a repeat is found, purely
// for error-message construction.
func findOneCycle(d *Definition, remaining map[string]int) []string {
	start := ""
	for _, id := range d.sortedNodeIDs() {
		if remaining[id] > 0 {
			start = id
			break
		}
	}
	if start == "" {
		return nil
	}
	path := []string{start}
	seen := map[string]bool{start: true}
	cur := start
	for {
		outs := d.OutEdges(cur)
		next := ""
		for _, e := range outs {
			if remaining[e.To] > 0 {
				next = e.To
				break
			}
		}
		if next == "" {
			break
		}
		if seen[next] {
			path = append(path, next)
			break
		}
		seen[next] = true
		path = append(path, next)
		cur = next
	}
	return path
}

func checkReachability(d *Definition) []ValidationWarning {
	d.Compile()
	var warnings []ValidationWarning
	// A node is only suspicious if it has neither in-edges nor explicit
	// dependencies AND the graph has more than one node (so it isn't simply
	// the sole source). It still runs as a source; this check is advisory
	// only, per §4.3. Nodes reached only through a control-flow node's
	// direct invocation (target_node_id, try_node_id, body_node_id, the
	// Conditional branches, ...) are not suspicious either — that is their
	// only intended entry point — so they are excluded from the warning.
	if len(d.Nodes) <= 1 {
		return nil
	}
	invoked := directlyInvokedIDs(d)
	for _, id := range d.sortedNodeIDs() {
		if invoked[id] {
			continue
		}
		if len(d.InEdges(id)) == 0 && len(d.Nodes[id].Dependencies) == 0 {
			warnings = append(warnings, ValidationWarning{
				NodeID:  id,
				Message: fmt.Sprintf("node %q has no predecessor and is not directly invoked by any control-flow node", id),
			})
		}
	}
	return warnings
}

// DirectInvocationOwners maps every node id a control-flow NodeConfig
// recurses into synchronously (a node.Invoker.RunNode target — Conditional's
// branches, Loop's body, TryCatch's try/catch/finally, Retry's and
// CircuitBreaker's target) back to the id of the node that invokes it.
// These ids are never dispatched through the executor's ordinary wave
// scheduling: their owner reaches them directly, mid-layer, via
// Invoker.RunNode, so the layer/scheduling code excludes them outright
// instead of requiring the graph author to suppress a second, independent
// dispatch with a hand-wired always-false guard edge.
func DirectInvocationOwners(d *Definition) map[string]string {
	owners := make(map[string]string)
	set := func(invoked, owner string) {
		if invoked != "" {
			owners[invoked] = owner
		}
	}
	for _, n := range d.Nodes {
		switch n.Kind {
		case KindConditional:
			set(n.TrueBranchID, n.ID)
			set(n.FalseBranchID, n.ID)
		case KindLoop:
			set(n.BodyNodeID, n.ID)
		case KindTryCatch:
			set(n.TryNodeID, n.ID)
			set(n.CatchNodeID, n.ID)
			set(n.FinallyNodeID, n.ID)
		case KindRetry, KindCircuitBreaker:
			set(n.TargetNodeID, n.ID)
		}
	}
	return owners
}

// directlyInvokedIDs is the membership-only view of DirectInvocationOwners,
// used where checkReachability only needs to ask "is this id reached some
// other way", not "by whom".
func directlyInvokedIDs(d *Definition) map[string]bool {
	owners := DirectInvocationOwners(d)
	invoked := make(map[string]bool, len(owners))
	for id := range owners {
		invoked[id] = true
	}
	return invoked
}

func checkNodeLocal(d *Definition) error {
	for _, id := range d.sortedNodeIDs() {
		n := d.Nodes[id]
		if err := validateNodeConfig(n); err != nil {
			return rgerrors.Wrap(rgerrors.CodeGraphValidation, err,
				fmt.Sprintf("node %q failed local validation", id)).WithNode(id)
		}
		if n.Kind == KindSubgraph {
			if n.InnerGraph == nil {
				return rgerrors.Newf(rgerrors.CodeGraphValidation,
					"node %q (Subgraph) has no inner_graph", id).WithNode(id)
			}
			if _, err := Validate(n.InnerGraph); err != nil {
				return rgerrors.Wrap(rgerrors.CodeGraphValidation, err,
					fmt.Sprintf("subgraph node %q inner graph is invalid", id)).WithNode(id)
			}
		}
	}
	return nil
}

func validateNodeConfig(n *NodeConfig) error {
	missing := func(field string) error {
		return rgerrors.Newf(rgerrors.CodeConfiguration, "missing required field %q for %s node", field, n.Kind)
	}
	switch n.Kind {
	case KindRule:
		if n.RuleSource == "" && n.RuleRef == "" {
			return missing("rule_source|rule_ref")
		}
	case KindDB:
		if n.QueryTemplate == "" {
			return missing("query_template")
		}
	case KindAI:
		if n.PromptTemplate == "" {
			return missing("prompt_template")
		}
	case KindConditional:
		if n.ConditionExpr == "" {
			return missing("condition_expr")
		}
	case KindLoop:
		if n.BodyNodeID == "" {
			return missing("body_node_id")
		}
		if n.LoopKind == LoopForeach && n.ItemsKey == "" {
			return missing("items_key")
		}
		if n.LoopKind == LoopWhile && n.ConditionExpr == "" {
			return missing("condition_expr")
		}
		if n.MaxIteration <= 0 {
			return missing("max_iterations")
		}
	case KindTryCatch:
		if n.TryNodeID == "" {
			return missing("try_node_id")
		}
	case KindRetry:
		if n.TargetNodeID == "" {
			return missing("target_node_id")
		}
		if n.MaxAttempts < 1 {
			return missing("max_attempts")
		}
	case KindCircuitBreaker:
		if n.TargetNodeID == "" {
			return missing("target_node_id")
		}
		if n.FailureThreshold < 1 {
			return missing("failure_threshold")
		}
	case KindSubgraph:
		if n.OutputKey == "" {
			return missing("output_key")
		}
	default:
		return rgerrors.Newf(rgerrors.CodeConfiguration, "unknown node kind %q", n.Kind)
	}
	return nil
}
