package node

import (
	"context"
	"sync"
	"time"

	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
)

// BreakerState is one of the three circuit breaker states (§4.6.8).
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// breaker holds one target_node_id's mutable state, protected by its own
// mutex so unrelated breakers never contend, grounded on the
// mutex-protected-per-instance shape documented in the pack's toolops
// resilience package.
type breaker struct {
	mu           sync.Mutex
	state        BreakerState
	failureCount int
	openedAt     time.Time
}

// BreakerRegistry holds one breaker per target_node_id, shared across
// concurrent executions in the same process — "State machine per node
// instance... shared across executions in the same process" (§4.6.8). It
// is intentionally a separate type from CircuitBreakerNode so the registry
// outlives any single Executor run.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*breaker
}

func NewBreakerRegistry() *BreakerRegistry {
	return &BreakerRegistry{breakers: make(map[string]*breaker)}
}

func (r *BreakerRegistry) get(targetNodeID string) *breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[targetNodeID]
	if !ok {
		b = &breaker{}
		r.breakers[targetNodeID] = b
	}
	return b
}

// CircuitBreakerNode guards TargetNodeID behind the registry's shared state
// machine, per §4.6.8.
type CircuitBreakerNode struct {
	Invoker          Invoker
	Registry         *BreakerRegistry
	TargetNodeID     string
	FailureThreshold int
	TimeoutMS        int
}

func NewCircuitBreakerNode(invoker Invoker, registry *BreakerRegistry, targetNodeID string, failureThreshold, timeoutMS int) *CircuitBreakerNode {
	return &CircuitBreakerNode{Invoker: invoker, Registry: registry, TargetNodeID: targetNodeID, FailureThreshold: failureThreshold, TimeoutMS: timeoutMS}
}

func (n *CircuitBreakerNode) RunLive(ctx context.Context, rc *rgcontext.Context) (Result, error) {
	b := n.Registry.get(n.TargetNodeID)
	timeout := time.Duration(n.TimeoutMS) * time.Millisecond

	b.mu.Lock()
	if b.state == BreakerOpen {
		if time.Since(b.openedAt) >= timeout {
			b.state = BreakerHalfOpen
		} else {
			b.mu.Unlock()
			return Result{}, rgerrors.New(rgerrors.CodeNodeExecution, "circuit open for "+n.TargetNodeID).WithClass(rgerrors.ClassTransient)
		}
	}
	b.mu.Unlock()

	res, err := n.Invoker.RunNode(ctx, n.TargetNodeID, rc)

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case err == nil:
		b.state = BreakerClosed
		b.failureCount = 0
	case rgerrors.CountsTowardBreaker(err):
		b.failureCount++
		if b.state == BreakerHalfOpen || b.failureCount >= n.FailureThreshold {
			b.state = BreakerOpen
			b.openedAt = time.Now()
		}
	}

	return res, err
}
