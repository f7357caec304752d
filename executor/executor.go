// Package executor implements the Scheduler/Executor (§4.4): graph
// validation, topological layer computation, edge-guard evaluation, bounded
// wave-parallel dispatch within a layer, cache consultation, and the
// deterministic sorted-by-node-id commit of each layer's writes into the
// shared Context between layers (§5). Grounded on the teacher's engine.go
// "collect deltas, reduce between supersteps" control loop and
// scheduler.go's bounded-channel backpressure shape, adapted from a single
// continuous frontier to a strict wave-per-layer discipline.
package executor

import (
	"context"

	"github.com/reasonflow/graphcore/graph"
	"github.com/reasonflow/graphcore/node"
	"github.com/reasonflow/graphcore/obs"
	"github.com/reasonflow/graphcore/report"
	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rule"
	"github.com/reasonflow/graphcore/value"
)

// Executor drives a single Graph Definition to completion. It implements
// node.Invoker so control-flow nodes can recurse into it without holding an
// owning reference (DESIGN NOTES §9: "nodes never hold owning handles back
// to the Executor").
type Executor struct {
	cfg config

	def    *graph.Definition
	nodes  map[string]*compiledNode
	layers [][]string

	ruleCache *rule.CompiledCache
	breakers  *node.BreakerRegistry

	runID string
}

// New validates def (§4.3) and compiles every node into a dispatch handle.
// A graph that fails validation, or whose nodes reference collaborators
// never registered via the With* options (e.g. a DB node with no
// WithPoolRegistry), is rejected here rather than at first dispatch.
func New(def *graph.Definition, opts ...Option) (*Executor, error) {
	if _, err := graph.Validate(def); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Executor{
		cfg:       cfg,
		def:       def,
		ruleCache: rule.NewCompiledCache(noopEvaluatorOr(cfg.ruleEval)),
		breakers:  node.NewBreakerRegistry(),
	}

	nodes, err := e.build(def)
	if err != nil {
		return nil, err
	}
	e.nodes = nodes
	e.layers = computeLayers(def)
	return e, nil
}

// noopEvaluatorOr returns eval, or a MockEvaluator placeholder when eval is
// nil — the cache is still constructed eagerly so child executors (built
// for Subgraph nodes that do have a rule evaluator) share the same hashing
// scheme; graphs that actually dispatch a Rule/Conditional/Loop node without
// a configured evaluator fail earlier, in buildOne.
func noopEvaluatorOr(eval rule.Evaluator) rule.Evaluator {
	if eval != nil {
		return eval
	}
	return rule.MockEvaluator{}
}

// Run executes the graph to completion against a freshly seeded Context
// populated from initial, returning the structured report (§4.4) whether
// or not the run succeeded — callers distinguish success via report.Err.
func (e *Executor) Run(ctx context.Context, runID string, initial map[string]value.Value) (*report.Report, error) {
	e.runID = runID

	if e.cfg.overallDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.overallDeadline)
		defer cancel()
	}

	var guard *rgcontext.Guard
	var rc *rgcontext.Context
	if e.cfg.contextPool != nil {
		guard = e.cfg.contextPool.Acquire()
		rc = guard.Context()
		defer guard.Release()
	} else {
		rc = rgcontext.New(len(initial))
	}
	for k, v := range initial {
		rc.Set(k, v)
	}

	rep := e.runOn(ctx, rc)
	return rep, rep.Err
}

func (e *Executor) emit(evt obs.Event) {
	evt.RunID = e.runID
	e.cfg.emitter.Emit(evt)
}
