package executor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/reasonflow/graphcore/graph"
	"github.com/reasonflow/graphcore/node"
	"github.com/reasonflow/graphcore/obs"
	"github.com/reasonflow/graphcore/rgcache"
	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
	"github.com/reasonflow/graphcore/report"
	"github.com/reasonflow/graphcore/value"
)

// layerWrite is one node's pending commit, collected during a layer's wave
// and applied to Context only after the whole wave finishes, sorted by
// node id (§5 "Ordering guarantees").
type layerWrite struct {
	nodeID    string
	output    value.Value
	mutations map[string]value.Value
	cacheHit  bool
	skipped   bool
	duration  time.Duration
	err       error
}

// runOn drives every layer of e.def to completion against rc, building the
// structured Report as it goes. It never returns a non-nil error itself —
// failures are recorded on the returned Report's Err field, matching the
// teacher's pattern of always producing a result object even on abort.
func (e *Executor) runOn(ctx context.Context, rc *rgcontext.Context) *report.Report {
	rep := &report.Report{RunID: e.runID, GraphID: e.def.ID}
	e.emit(obs.Event{Layer: -1, Msg: "run_start"})

	for idx, layerNodeIDs := range e.layers {
		if err := ctx.Err(); err != nil {
			rep.Err = rgerrors.Wrap(rgerrors.CodeCancellation, err, "execution cancelled")
			e.emit(obs.Event{Layer: -1, Msg: "run_error", Meta: map[string]any{"error": rep.Err.Error()}})
			return rep
		}

		layerStart := time.Now()
		enabled, skipped := e.evaluateGuards(ctx, rc, layerNodeIDs)
		e.emit(obs.Event{Layer: idx, Msg: "layer_start", Meta: map[string]any{"width": len(enabled)}})
		if e.cfg.metrics != nil {
			e.cfg.metrics.SetLayerWidth(len(enabled))
		}

		writes := e.dispatchWave(ctx, enabled, rc)

		sort.Slice(writes, func(i, j int) bool { return writes[i].nodeID < writes[j].nodeID })
		var failed *layerWrite
		for i := range writes {
			w := &writes[i]
			rep.NodeOrder = append(rep.NodeOrder, w.nodeID)
			rep.Timings = append(rep.Timings, report.NodeTiming{
				NodeID: w.nodeID, Layer: idx, Duration: w.duration, CacheHit: w.cacheHit, Err: w.err,
			})
			if w.err != nil && failed == nil {
				failed = w
				continue
			}
			if w.err == nil {
				rc.SetOutput(w.nodeID, w.output)
				rc.Merge(w.mutations)
			}
		}

		rep.Layers = append(rep.Layers, report.LayerInfo{
			Index: idx, NodeIDs: enabled, Skipped: skipped, Duration: time.Since(layerStart),
		})

		if failed != nil {
			rep.Err = rgerrors.Wrap(rgerrors.CodeNodeExecution, failed.err, "node execution failed").WithNode(failed.nodeID)
			e.emit(obs.Event{Layer: idx, Msg: "run_error", Meta: map[string]any{"node_id": failed.nodeID, "error": failed.err.Error()}})
			if e.cfg.cache != nil {
				rep.CacheStats = e.cfg.cache.Stats()
			}
			return rep
		}
	}

	if e.cfg.cache != nil {
		rep.CacheStats = e.cfg.cache.Stats()
	}
	e.emit(obs.Event{Layer: -1, Msg: "run_complete"})
	return rep
}

// evaluateGuards partitions a layer's node ids into enabled and skipped,
// per §4.4 "Edge guards": a node with no incoming edges is always enabled;
// otherwise it is enabled iff at least one incoming edge's guard evaluates
// true (an empty guard counts as true) AND every such true-guarded edge's
// source node actually completed (was not itself skipped) — see DESIGN.md
// Open Question decision #1.
func (e *Executor) evaluateGuards(ctx context.Context, rc *rgcontext.Context, layerNodeIDs []string) (enabled, skipped []string) {
	for _, id := range layerNodeIDs {
		in := e.def.InEdges(id)
		if len(in) == 0 {
			enabled = append(enabled, id)
			continue
		}

		trueGuarded := 0
		allCompleted := true
		for _, edge := range in {
			ok := edge.Guard == ""
			if !ok {
				boolEval, err := e.boolEvaluator()
				if err == nil {
					ok, _ = boolEval.EvaluateBool(ctx, edge.Guard, rc)
				}
			}
			if !ok {
				continue
			}
			trueGuarded++
			if _, has := rc.Output(edge.From); !has {
				allCompleted = false
			}
		}

		if trueGuarded > 0 && allCompleted {
			enabled = append(enabled, id)
		} else {
			skipped = append(skipped, id)
		}
	}
	return enabled, skipped
}

// dispatchWave runs enabled in waves of at most cfg.maxParallel concurrent
// node operations, collecting every result into a slice without applying
// any of them to rc — the caller commits in sorted order once the whole
// layer has finished, per §5's ordering guarantee. Grounded on the
// teacher's Frontier bounded-channel backpressure shape (scheduler.go),
// here expressed as a buffered semaphore guarding a WaitGroup instead of a
// persistent cross-layer frontier.
func (e *Executor) dispatchWave(ctx context.Context, enabled []string, rc *rgcontext.Context) []layerWrite {
	width := e.cfg.maxParallel
	if width < 1 {
		width = 1
	}
	writes := make([]layerWrite, len(enabled))
	sem := make(chan struct{}, width)
	var wg sync.WaitGroup
	var inflight int
	var mu sync.Mutex

	for i, id := range enabled {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			mu.Lock()
			inflight++
			if e.cfg.metrics != nil {
				e.cfg.metrics.SetInflightNodes(inflight)
			}
			mu.Unlock()

			writes[i] = e.dispatchOne(ctx, id, rc)

			mu.Lock()
			inflight--
			mu.Unlock()
		}(i, id)
	}
	wg.Wait()
	return writes
}

// dispatchOne runs the per-layer-dispatch protocol for a single node
// (§4.4 steps 1-5): fingerprint its input view, consult the cache, run on
// miss, and record the outcome as a pending layerWrite.
func (e *Executor) dispatchOne(ctx context.Context, id string, rc *rgcontext.Context) layerWrite {
	start := time.Now()
	cn := e.nodes[id]
	nodeCtx, cancel := e.nodeContext(ctx)
	defer cancel()

	e.emit(obs.Event{NodeID: id, Msg: "node_dispatch"})

	res, cacheHit, err := e.runNodeCached(nodeCtx, cn, rc)
	duration := time.Since(start)

	if e.cfg.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		e.cfg.metrics.RecordNodeLatency(e.runID, id, duration, status)
	}

	w := layerWrite{nodeID: id, duration: duration, cacheHit: cacheHit, err: err}
	if err == nil {
		w.output = res.Output
		w.mutations = res.Mutations
		e.emit(obs.Event{NodeID: id, Msg: "node_complete", Meta: map[string]any{"duration_ms": duration.Milliseconds(), "cache_hit": cacheHit}})
	} else {
		e.emit(obs.Event{NodeID: id, Msg: "node_error", Meta: map[string]any{"error": err.Error()}})
	}
	return w
}

// nodeContext derives the per-node timeout context from the configured
// default (§5 "per-node deadline from config"); the parent ctx's own
// deadline (overall, or an enclosing Retry's remaining budget) still
// applies, since context.WithTimeout never loosens an existing deadline.
func (e *Executor) nodeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.defaultNodeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.defaultNodeTimeout)
}

// runNodeCached implements §4.4 steps 1-4 for a single compiled node:
// fingerprint, cache lookup, dispatch, cache store.
func (e *Executor) runNodeCached(ctx context.Context, cn *compiledNode, rc *rgcontext.Context) (node.Result, bool, error) {
	if cn.liveRunner != nil {
		res, err := cn.liveRunner.RunLive(ctx, rc)
		return res, false, err
	}

	snapshot := rc.Snapshot()
	input := buildInputView(cn.cfg, snapshot)

	var key rgcache.Key
	useCache := e.cfg.cache != nil
	if useCache {
		key = rgcache.Key{NodeID: cn.cfg.ID, Fingerprint: value.Fingerprint(value.Map(input))}
		if cached, ok := e.cfg.cache.Get(key); ok {
			if e.cfg.metrics != nil {
				e.cfg.metrics.IncCacheHit(e.runID, cn.cfg.ID)
			}
			return node.Result{Output: cached}, true, nil
		}
		if e.cfg.metrics != nil {
			e.cfg.metrics.IncCacheMiss(e.runID, cn.cfg.ID)
		}
	}

	res, err := cn.runner.Run(ctx, input, snapshot)
	if err != nil {
		return node.Result{}, false, err
	}

	if useCache {
		// A Put failure under PolicyNone is a non-fatal warning (§4.5): the
		// node's result is still returned, simply not cached.
		_ = e.cfg.cache.Put(key, res.Output, 0)
	}
	return res, false, nil
}

// buildInputView resolves field_mappings (local name -> dotted path) and
// params (dotted context keys used directly, e.g. by DB node's ordered
// placeholders) into a single input map, per §3/§4.6.2.
func buildInputView(cfg *graph.NodeConfig, snapshot *rgcontext.Snapshot) map[string]value.Value {
	input := snapshot.ExtractFieldMappings(cfg.FieldMapping)
	for _, p := range cfg.Params {
		if v, ok := snapshot.Get(p); ok {
			input[p] = v
		}
	}
	return input
}

// RunNode implements node.Invoker: synchronous, single-node execution
// against the live Context, used by Conditional/Loop/TryCatch/Retry/
// CircuitBreaker to recurse without going through layered wave dispatch.
func (e *Executor) RunNode(ctx context.Context, nodeID string, rc *rgcontext.Context) (node.Result, error) {
	cn, ok := e.nodes[nodeID]
	if !ok {
		return node.Result{}, rgerrors.Newf(rgerrors.CodeConfiguration, "unknown node id %q", nodeID)
	}
	nodeCtx, cancel := e.nodeContext(ctx)
	defer cancel()

	res, _, err := e.runNodeCached(nodeCtx, cn, rc)
	if err != nil {
		return node.Result{}, err
	}
	rc.SetOutput(nodeID, res.Output)
	rc.Merge(res.Mutations)
	return res, nil
}

// RunSubgraph implements node.Invoker: builds a child Executor for def,
// sharing this Executor's collaborators (cache, pools, chat models, rule
// evaluator, breaker registry, metrics, emitter) so process-shared state
// behaves identically inside a nested graph, then runs def's layers
// against inner to completion.
func (e *Executor) RunSubgraph(ctx context.Context, def *graph.Definition, inner *rgcontext.Context) error {
	child := &Executor{
		cfg:       e.cfg,
		def:       def,
		ruleCache: e.ruleCache,
		breakers:  e.breakers,
		runID:     e.runID,
	}
	nodes, err := child.build(def)
	if err != nil {
		return err
	}
	child.nodes = nodes
	child.layers = computeLayers(def)

	rep := child.runOn(ctx, inner)
	return rep.Err
}

// AcquireContext implements node.Invoker: draws a Context from the
// configured Context Pool so Subgraph nesting reuses pooled backing maps
// the same way a top-level Run does (executor.go's Run), instead of
// allocating a fresh one per nested invocation. release is a no-op when no
// pool is configured.
func (e *Executor) AcquireContext(targetFields int) (*rgcontext.Context, func()) {
	if e.cfg.contextPool == nil {
		return rgcontext.New(targetFields), func() {}
	}
	guard := e.cfg.contextPool.Acquire()
	return guard.Context(), guard.Release
}
