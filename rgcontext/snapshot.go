package rgcontext

import (
	"strings"

	"github.com/reasonflow/graphcore/value"
)

// Snapshot is an immutable, read-only view of a Context at a point in time.
// Nodes receive a Snapshot rather than the live Context during dispatch
// (§4.6 "context_snapshot is a read-only view at dispatch time; nodes MUST
// NOT mutate it directly") — Snapshot simply has no mutating methods, so the
// type system enforces the contract.
type Snapshot struct {
	fields map[string]value.Value
}

// Get performs the same dotted-path walk as Context.Get.
func (s *Snapshot) Get(path string) (value.Value, bool) {
	parts := strings.Split(path, ".")
	cur, ok := s.fields[parts[0]]
	if !ok {
		return value.Null(), false
	}
	for _, p := range parts[1:] {
		m, ok := cur.MapGet(p)
		if !ok {
			return value.Null(), false
		}
		cur = m
	}
	return cur, true
}

// Keys returns the set of top-level keys present in the snapshot, used by
// Rule/DB node input extraction to enumerate field_mappings sources.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	return keys
}

// ToMap materializes the full snapshot as a map, used when handing a whole
// view to the opaque rule engine (§4.6.1).
func (s *Snapshot) ToMap() map[string]value.Value {
	out := make(map[string]value.Value, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// ExtractFieldMappings builds an input view by resolving each local
// parameter name to a dotted context path, per NodeConfig's field_mappings
// (§3). Missing paths are simply omitted — Rule/DB nodes observe an absent
// key the same way a direct Context.Get would.
func (s *Snapshot) ExtractFieldMappings(mappings map[string]string) map[string]value.Value {
	out := make(map[string]value.Value, len(mappings))
	for local, path := range mappings {
		if v, ok := s.Get(path); ok {
			out[local] = v
		}
	}
	return out
}
