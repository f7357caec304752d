package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/reasonflow/graphcore/graph"
	"github.com/reasonflow/graphcore/rgcontext"
)

// stubInvoker is a minimal node.Invoker for exercising control-flow node
// RunLive bodies in isolation, mirroring exactly the output/mutations
// application the Executor's own RunNode performs (rc.SetOutput + rc.Merge)
// so behavior observed here matches what a real run would see.
type stubInvoker struct {
	mu    sync.Mutex
	nodes map[string]Runner
	calls map[string]int
}

func newStubInvoker() *stubInvoker {
	return &stubInvoker{nodes: make(map[string]Runner), calls: make(map[string]int)}
}

func (s *stubInvoker) register(id string, r Runner) {
	s.nodes[id] = r
}

func (s *stubInvoker) callCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func (s *stubInvoker) RunNode(ctx context.Context, nodeID string, rc *rgcontext.Context) (Result, error) {
	s.mu.Lock()
	s.calls[nodeID]++
	s.mu.Unlock()

	r, ok := s.nodes[nodeID]
	if !ok {
		return Result{}, fmt.Errorf("stub invoker: unknown node %q", nodeID)
	}
	res, err := r.Run(ctx, nil, rc.Snapshot())
	if err != nil {
		return Result{}, err
	}
	rc.SetOutput(nodeID, res.Output)
	rc.Merge(res.Mutations)
	return res, nil
}

func (s *stubInvoker) RunSubgraph(ctx context.Context, def *graph.Definition, inner *rgcontext.Context) error {
	return fmt.Errorf("stub invoker: RunSubgraph not supported")
}

func (s *stubInvoker) AcquireContext(targetFields int) (*rgcontext.Context, func()) {
	return rgcontext.New(targetFields), func() {}
}

// stubBool is a fixed-answer BoolEvaluator for Conditional/Loop-While tests
// that don't need a real rule engine wired in.
type stubBool struct {
	val bool
	err error
}

func (s stubBool) EvaluateBool(ctx context.Context, expr string, rc *rgcontext.Context) (bool, error) {
	return s.val, s.err
}

// sequenceBool returns a different answer on each call, in order, holding
// the last answer once exhausted — used to drive a While loop through a
// fixed number of true passes before it naturally stops.
type sequenceBool struct {
	mu      sync.Mutex
	answers []bool
	i       int
}

func (s *sequenceBool) EvaluateBool(ctx context.Context, expr string, rc *rgcontext.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i >= len(s.answers) {
		return s.answers[len(s.answers)-1], nil
	}
	v := s.answers[s.i]
	s.i++
	return v, nil
}
