// Package rgcontext implements the shared mutable execution Context (§4.1)
// and its pooled-reuse arena (§4.2), adapted from the teacher's pattern of
// collecting deltas and applying them between supersteps (graph/engine.go)
// generalized to a path-addressable Value store rather than a user generic
// state type.
package rgcontext

import (
	"strings"
	"sync"

	"github.com/reasonflow/graphcore/rgerrors"
	"github.com/reasonflow/graphcore/value"
)

// Context is a mutable mapping from string key to Value, plus an internal
// per-node-id output slot (§3 "Context").
//
// A key set to Null is distinguishable from an absent key: Get reports a
// separate "present" bool so callers can tell the two apart.
type Context struct {
	mu      sync.RWMutex
	fields  map[string]value.Value
	present map[string]bool // key -> explicitly set (even to Null)
	outputs map[string]value.Value
	version uint64
}

// New creates an empty Context with the given soft target capacity for its
// backing map (Context Pool's "soft target capacity for each Context's
// backing map", §4.2).
func New(targetCapacity int) *Context {
	if targetCapacity < 0 {
		targetCapacity = 0
	}
	return &Context{
		fields:  make(map[string]value.Value, targetCapacity),
		present: make(map[string]bool, targetCapacity),
		outputs: make(map[string]value.Value),
	}
}

// Version returns the monotonic mutation counter, useful in tests asserting
// no double-write occurred within a layer (§5).
func (c *Context) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Get performs a dotted-path read. Reads never mutate and a missing path
// returns (Null, false) rather than an error (§4.1 "a read of a missing path
// returns absent, not an error").
func (c *Context) Get(path string) (value.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.getLocked(path)
}

func (c *Context) getLocked(path string) (value.Value, bool) {
	parts := strings.Split(path, ".")
	head := parts[0]
	if !c.present[head] {
		return value.Null(), false
	}
	cur := c.fields[head]
	for _, p := range parts[1:] {
		m, ok := cur.MapGet(p)
		if !ok {
			return value.Null(), false
		}
		cur = m
	}
	return cur, true
}

// Set stores v at a top-level key, distinguishing a Null write from absence.
func (c *Context) Set(key string, v value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields[key] = v
	c.present[key] = true
	c.version++
}

// SetPath writes v at a dotted path, creating intermediate maps as needed.
// Traversing through a non-mapping terminal fails with a Context error
// (E010), per §4.1.
func (c *Context) SetPath(path string, v value.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts := strings.Split(path, ".")
	if len(parts) == 1 {
		c.fields[parts[0]] = v
		c.present[parts[0]] = true
		c.version++
		return nil
	}

	head := parts[0]
	root, ok := c.fields[head]
	if !ok || !c.present[head] {
		root = value.NewMapBuilder().Build()
	}
	updated, err := setPathValue(root, parts[1:], v)
	if err != nil {
		return err
	}
	c.fields[head] = updated
	c.present[head] = true
	c.version++
	return nil
}

// setPathValue recursively rebuilds the nested map chain for a SetPath call,
// since Value maps are immutable-by-convention (copy-on-write) rather than
// pointer-aliased.
func setPathValue(cur value.Value, remaining []string, v value.Value) (value.Value, error) {
	key := remaining[0]

	var b *value.MapBuilder
	if cur.IsNull() {
		b = value.NewMapBuilder()
	} else if keys, get, ok := cur.AsMap(); ok {
		b = value.NewMapBuilder()
		for _, k := range keys {
			existing, _ := get(k)
			b.Set(k, existing)
		}
	} else {
		return value.Value{}, rgerrors.New(rgerrors.CodeContext,
			"cannot traverse into non-mapping terminal at path segment '"+key+"'")
	}

	if len(remaining) == 1 {
		b.Set(key, v)
		return b.Build(), nil
	}

	child, _ := cur.MapGet(key)
	updatedChild, err := setPathValue(child, remaining[1:], v)
	if err != nil {
		return value.Value{}, err
	}
	b.Set(key, updatedChild)
	return b.Build(), nil
}

// Merge writes each entry of m into the Context as top-level keys. Used by
// the Executor to apply a node's `mutations` (§4.4 step 4).
func (c *Context) Merge(m map[string]value.Value) {
	if len(m) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range m {
		c.fields[k] = v
		c.present[k] = true
	}
	c.version++
}

// SetOutput records a node's output under its node id, also exposing it at
// dotted path "<node_id>.<field>" for downstream field_mappings (§4.4 step
// 4). The output is stored both in the dedicated outputs slot (for
// §4.6 node protocol bookkeeping) and merged into fields under the node id
// key so Get("node_id.field") resolves naturally through the normal path
// walk.
func (c *Context) SetOutput(nodeID string, out value.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs[nodeID] = out
	c.fields[nodeID] = out
	c.present[nodeID] = true
	c.version++
}

// Output returns the recorded output for nodeID, if any.
func (c *Context) Output(nodeID string) (value.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.outputs[nodeID]
	return v, ok
}

// Clear empties the Context in place, used by the pool's release hook
// (§4.2). The backing maps are emptied in place with clear, keeping their
// allocated capacity for reuse; nested Values under each key are dropped
// whole, never walked.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.fields)
	clear(c.present)
	clear(c.outputs)
	c.version = 0
}

// Snapshot returns a cheap, read-only view safe to hand to a node/rule
// evaluator without aliasing hazards (§4.1 "snapshot must return a cheap,
// read-only view"). The snapshot copies the top-level key set at the point
// of the call; nested Values are immutable by construction so no deep copy
// is required beyond that.
func (c *Context) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fields := make(map[string]value.Value, len(c.fields))
	for k, v := range c.fields {
		if c.present[k] {
			fields[k] = v
		}
	}
	return &Snapshot{fields: fields}
}
