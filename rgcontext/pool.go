package rgcontext

import (
	"sync"
	"sync/atomic"
)

// Pool is a fixed-capacity LIFO arena of reusable Context objects (§4.2).
// Top-level executions and Subgraph nodes both request Contexts from a
// shared Pool to eliminate repeated allocation of large backing maps in hot
// loops — grounded on the teacher's pattern of sharing a single
// Frontier/engine configuration across nested executions (graph/engine.go),
// generalized here to the Context itself.
type Pool struct {
	mu           sync.Mutex
	stack        []*Context
	max          int
	targetFields int

	stats Stats
}

// Stats are monotonic/gauge counters describing Pool activity.
type Stats struct {
	Acquired  int64
	Released  int64
	Created   int64
	Discarded int64
	InUse     int64
}

// NewPool creates a Pool with the given prewarm count, hard maximum pooled
// count, and soft per-Context field-map target capacity (§4.2 "Configured
// by: initial pre-warm count, hard maximum pooled count, soft target
// capacity for each Context's backing map").
func NewPool(prewarm, max, targetFields int) *Pool {
	p := &Pool{max: max, targetFields: targetFields}
	for i := 0; i < prewarm; i++ {
		p.stack = append(p.stack, New(targetFields))
		p.stats.Created++
	}
	return p
}

// Guard is a handle returned by Acquire; Release returns the Context to the
// pool (or discards it if the pool is at capacity). Guard never exposes the
// raw pool-internal slot, per DESIGN NOTES §9 "never expose raw
// pool-internal handles".
type Guard struct {
	pool *Pool
	ctx  *Context
	done atomic.Bool
}

// Context returns the acquired Context. Valid until Release is called.
func (g *Guard) Context() *Context { return g.ctx }

// Release clears the Context and returns it to the pool if capacity
// allows, otherwise discards it. Safe to call multiple times; only the
// first call has effect.
func (g *Guard) Release() {
	if !g.done.CompareAndSwap(false, true) {
		return
	}
	g.ctx.Clear()

	g.pool.mu.Lock()
	defer g.pool.mu.Unlock()
	g.pool.stats.Released++
	g.pool.stats.InUse--
	if len(g.pool.stack) < g.pool.max {
		g.pool.stack = append(g.pool.stack, g.ctx)
	} else {
		g.pool.stats.Discarded++
	}
}

// Acquire pops a Context from the pool, or allocates a new one if empty.
func (p *Pool) Acquire() *Guard {
	p.mu.Lock()
	defer p.mu.Unlock()

	var ctx *Context
	if n := len(p.stack); n > 0 {
		ctx = p.stack[n-1]
		p.stack = p.stack[:n-1]
	} else {
		ctx = New(p.targetFields)
		p.stats.Created++
	}
	p.stats.Acquired++
	p.stats.InUse++
	return &Guard{pool: p, ctx: ctx}
}

// Stats returns a point-in-time snapshot of pool activity counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
