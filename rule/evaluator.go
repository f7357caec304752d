// Package rule defines the opaque rule-engine collaborator the spec treats
// as external (§1 "the GRL rule-language parser/evaluator (treated as an
// opaque callable that takes a context snapshot and returns mutations)"),
// plus a process-global compiled-form cache, per DESIGN NOTES §9
// "Rule-engine compiled-form caching: Keep a process-global, concurrent
// mapping from rule-source hash -> compiled handle".
package rule

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/reasonflow/graphcore/value"
)

// Compiled is an opaque artifact returned once a rule source has been
// parsed. Evaluators decide what it actually holds; the cache only keys on
// source hash and stores it as `any`.
type Compiled any

// Evaluator is the interface every rule engine adapter implements. Real
// deployments plug in the GRL interpreter here; this package also ships
// MockEvaluator, a tiny arithmetic/comparison evaluator sufficient for
// tests and examples where pulling in a full rule language is unwarranted.
type Evaluator interface {
	// Compile parses rule source once into an opaque handle. A syntactic
	// failure must be reported so the caller can classify it as a Rule
	// error (Permanent), per §4.6.1.
	Compile(source string) (Compiled, error)

	// Evaluate runs a previously compiled rule against an input mapping,
	// returning derived bindings (facts/flags) on success.
	Evaluate(ctx context.Context, compiled Compiled, input map[string]value.Value) (map[string]value.Value, error)
}

// CompiledCache is a process-global, concurrent, load-on-demand,
// never-evicted-within-an-execution cache from rule-source hash to compiled
// handle (DESIGN NOTES §9). It is safe for concurrent re-entrant use, since
// §4.6.1 requires "Re-entrant evaluations are safe."
type CompiledCache struct {
	mu      sync.RWMutex
	byHash  map[string]Compiled
	compile func(source string) (Compiled, error)
}

// NewCompiledCache wraps an Evaluator's Compile method with hash-keyed
// memoization.
func NewCompiledCache(eval Evaluator) *CompiledCache {
	return &CompiledCache{
		byHash:  make(map[string]Compiled),
		compile: eval.Compile,
	}
}

func hashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Get returns the compiled form for source, compiling and memoizing on
// first use. Concurrent callers compiling the same never-before-seen
// source may each compile once (the cache does not serialize compilation),
// but the last writer's successful result is what subsequent Get calls
// observe — an acceptable race for a pure, deterministic parse step.
func (c *CompiledCache) Get(source string) (Compiled, error) {
	key := hashSource(source)

	c.mu.RLock()
	if compiled, ok := c.byHash[key]; ok {
		c.mu.RUnlock()
		return compiled, nil
	}
	c.mu.RUnlock()

	compiled, err := c.compile(source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byHash[key] = compiled
	c.mu.Unlock()
	return compiled, nil
}
