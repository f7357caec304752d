package node

import (
	"context"

	"github.com/reasonflow/graphcore/graph"
	"github.com/reasonflow/graphcore/rgcontext"
)

// Invoker lets control-flow nodes (Conditional, Loop, TryCatch, Retry,
// CircuitBreaker, Subgraph) recurse into sub-executions without holding an
// owning reference back to the Executor, per DESIGN NOTES §9: "The Executor
// owns nodes; nodes never hold owning handles back to the Executor."
// The Executor is the sole implementation of Invoker.
type Invoker interface {
	// RunNode synchronously executes the single node nodeID (looked up in
	// the Invoker's current Definition) against the live Context rc,
	// applying its output/mutations to rc before returning. Used by
	// Conditional branch selection, Loop body iterations, TryCatch's
	// try/catch/finally, Retry's target, and CircuitBreaker's target — all
	// of which recurse synchronously rather than through layered dispatch
	// (§4.6: "execute the node identified by true_branch_id... synchronously").
	RunNode(ctx context.Context, nodeID string, rc *rgcontext.Context) (Result, error)

	// RunSubgraph executes def as a complete nested graph run using a fresh
	// Context (already populated by the Subgraph node via input_mapping),
	// reusing the outer Executor's cache and context pool (§4.6.9). It
	// returns only an error; the inner run writes into inner, which the
	// Subgraph node then reads output_key from.
	RunSubgraph(ctx context.Context, def *graph.Definition, inner *rgcontext.Context) error

	// AcquireContext hands back a Context for a nested execution (currently
	// only a Subgraph node's inner run), drawn from the Invoker's shared
	// Context Pool when one is configured rather than always allocating a
	// fresh backing map (§4.2). release returns it to the pool and must be
	// called exactly once the inner run is done with it; it is a no-op when
	// no pool is configured.
	AcquireContext(targetFields int) (rc *rgcontext.Context, release func())
}
