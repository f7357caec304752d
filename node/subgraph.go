package node

import (
	"context"

	"github.com/reasonflow/graphcore/graph"
	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
)

// subgraphDepthKey is the context key carrying the current recursion depth,
// incremented by RunLive before invoking the inner Executor and checked
// against MaxSubgraphDepth to prevent stack exhaustion (§4.6.9: "implementations
// MUST bound recursion depth").
type subgraphDepthKey struct{}

// MaxSubgraphDepth bounds Subgraph recursion; exceeding it is a Configuration
// error rather than a stack overflow.
const MaxSubgraphDepth = 64

func subgraphDepth(ctx context.Context) int {
	d, _ := ctx.Value(subgraphDepthKey{}).(int)
	return d
}

// WithSubgraphDepth returns a context carrying depth as the current
// Subgraph recursion depth. RunLive calls it with depth+1 before starting
// the inner run; a context without a depth counts as depth 0.
func WithSubgraphDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, subgraphDepthKey{}, depth)
}

// SubgraphNode runs InnerGraph as a nested execution sharing the outer
// Executor's cache and pool, per §4.6.9.
type SubgraphNode struct {
	Invoker      Invoker
	InnerGraph   *graph.Definition
	InputMapping map[string]string // outer dotted path -> inner key
	OutputKey    string
}

func NewSubgraphNode(invoker Invoker, innerGraph *graph.Definition, inputMapping map[string]string, outputKey string) *SubgraphNode {
	return &SubgraphNode{Invoker: invoker, InnerGraph: innerGraph, InputMapping: inputMapping, OutputKey: outputKey}
}

func (n *SubgraphNode) RunLive(ctx context.Context, rc *rgcontext.Context) (Result, error) {
	depth := subgraphDepth(ctx)
	if depth >= MaxSubgraphDepth {
		return Result{}, rgerrors.Newf(rgerrors.CodeConfiguration, "subgraph recursion depth exceeded %d", MaxSubgraphDepth)
	}

	inner, release := n.Invoker.AcquireContext(len(n.InputMapping))
	defer release()
	for outerPath, innerKey := range n.InputMapping {
		if v, ok := rc.Get(outerPath); ok {
			inner.Set(innerKey, v)
		}
	}

	innerCtx := WithSubgraphDepth(ctx, depth+1)
	if err := n.Invoker.RunSubgraph(innerCtx, n.InnerGraph, inner); err != nil {
		return Result{}, rgerrors.Wrap(rgerrors.CodeNodeExecution, err, "subgraph execution failed").WithGraph(n.InnerGraph.ID)
	}

	out, _ := inner.Get(n.OutputKey)
	return Result{Output: out}, nil
}
