// Package node implements the Node Protocol (§4.6) and the nine built-in
// node kinds: Rule, DB, AI, Conditional, Loop, TryCatch, Retry,
// CircuitBreaker, Subgraph. Every node obeys the same Run contract,
// generalizing the teacher's Node[S]/NodeFunc[S] adapter idiom
// (graph/node.go) away from a user generic state type toward the spec's
// Context/Value/Snapshot model.
package node

import (
	"context"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/value"
)

// Result is what Run returns: the node's output value plus any additional
// context mutations to apply atomically with the output write (§4.6).
type Result struct {
	Output    value.Value
	Mutations map[string]value.Value
}

// Runner is the contract every node kind implements (§4.6 "Node Protocol").
//
// input is the node's effective inputs after field_mappings/params
// extraction (§4.6: "input_view is the node's effective inputs"). snapshot
// is a read-only view of the full Context at dispatch time; implementations
// MUST NOT attempt to mutate it — Snapshot exposes no mutating methods.
//
// Run must check ctx for cancellation at natural suspension points (§5
// "Suspension points") and must classify failures into the coded error
// model (rgerrors) so Retry/CircuitBreaker/TryCatch behave correctly.
type Runner interface {
	Run(ctx context.Context, input map[string]value.Value, snapshot *rgcontext.Snapshot) (Result, error)
}

// Func adapts a plain function to Runner, mirroring the teacher's
// NodeFunc[S] adapter (graph/node.go) so ad-hoc nodes (tests, examples)
// don't need a named type.
type Func func(ctx context.Context, input map[string]value.Value, snapshot *rgcontext.Snapshot) (Result, error)

// Run implements Runner.
func (f Func) Run(ctx context.Context, input map[string]value.Value, snapshot *rgcontext.Snapshot) (Result, error) {
	return f(ctx, input, snapshot)
}

// LiveRunner is implemented by the control-flow node kinds (Conditional,
// Loop, TryCatch, Retry, CircuitBreaker, Subgraph) that recurse into other
// nodes via Invoker and therefore need the live, mutable Context rather
// than a read-only Snapshot — recursing through Invoker.RunNode applies
// each sub-execution's mutations immediately, so later iterations/branches
// observe earlier ones (§4.6.5: "each body execution sees previous
// iterations' context mutations"). The Executor type-switches on this
// interface instead of calling Run for these kinds.
type LiveRunner interface {
	RunLive(ctx context.Context, rc *rgcontext.Context) (Result, error)
}
