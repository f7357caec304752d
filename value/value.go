// Package value defines the JSON-like variant type shared by every node in
// the graph: Context storage, node inputs/outputs, and cache entries are all
// built on Value.
package value

import (
	"fmt"
	"sort"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSeq
	KindMap
)

// Value is a recursively defined variant: null, boolean, 64-bit float,
// string, ordered sequence of Value, or an insertion-ordered mapping from
// string to Value.
//
// The zero Value is Null. A map Value preserves insertion order via
// keys/index bookkeeping (AsMap returns keys in that order); Canonical
// sorts map keys instead, so callers that need a serialization independent
// of insertion order should use it.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	seq  []Value
	m    *orderedMap
}

// orderedMap preserves the order keys were first inserted, matching the
// "insertion-ordered semantics preserved for stable serialization" invariant
// from the data model.
type orderedMap struct {
	keys   []string
	values map[string]Value
}

func newOrderedMap() *orderedMap {
	return &orderedMap{values: make(map[string]Value)}
}

func (o *orderedMap) set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *orderedMap) get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *orderedMap) clone() *orderedMap {
	n := &orderedMap{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]Value, len(o.values)),
	}
	for k, v := range o.values {
		n.values[k] = v
	}
	return n
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a 64-bit float.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Seq wraps an ordered sequence of Values. The slice is copied defensively.
func Seq(items ...Value) Value {
	cp := append([]Value(nil), items...)
	return Value{kind: KindSeq, seq: cp}
}

// Map builds a mapping Value from a plain Go map. Since Go maps have no
// stable iteration order, keys are inserted in sorted order; use MapBuilder
// for explicit insertion-order control.
func Map(m map[string]Value) Value {
	b := NewMapBuilder()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Set(k, m[k])
	}
	return b.Build()
}

// MapBuilder constructs a Value map with explicit insertion order.
type MapBuilder struct {
	om *orderedMap
}

// NewMapBuilder returns an empty MapBuilder.
func NewMapBuilder() *MapBuilder {
	return &MapBuilder{om: newOrderedMap()}
}

// Set inserts or overwrites a key, returning the builder for chaining.
func (b *MapBuilder) Set(key string, v Value) *MapBuilder {
	b.om.set(key, v)
	return b
}

// Build finalizes the map Value.
func (b *MapBuilder) Build() Value {
	return Value{kind: KindMap, m: b.om}
}

// Kind reports the variant held.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload and whether v is a number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string payload and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsSeq returns the sequence payload and whether v is a sequence.
func (v Value) AsSeq() ([]Value, bool) {
	if v.kind != KindSeq {
		return nil, false
	}
	return v.seq, true
}

// AsMap returns the field names (in insertion order) and a lookup function.
func (v Value) AsMap() (keys []string, get func(string) (Value, bool), ok bool) {
	if v.kind != KindMap || v.m == nil {
		return nil, nil, false
	}
	return append([]string(nil), v.m.keys...), v.m.get, true
}

// MapGet returns the value stored at key in a map Value, or absent.
func (v Value) MapGet(key string) (Value, bool) {
	if v.kind != KindMap || v.m == nil {
		return Value{}, false
	}
	return v.m.get(key)
}

// clone performs a defensive deep-ish copy; sequences/maps get new backing
// storage, scalar fields are copied by value.
func (v Value) clone() Value {
	switch v.kind {
	case KindSeq:
		cp := make([]Value, len(v.seq))
		for i, e := range v.seq {
			cp[i] = e.clone()
		}
		return Value{kind: KindSeq, seq: cp}
	case KindMap:
		if v.m == nil {
			return Value{kind: KindMap, m: newOrderedMap()}
		}
		cloned := v.m.clone()
		for _, k := range cloned.keys {
			cloned.values[k] = cloned.values[k].clone()
		}
		return Value{kind: KindMap, m: cloned}
	default:
		return v
	}
}

// Clone returns a deep copy safe to mutate independently of v.
func (v Value) Clone() Value { return v.clone() }

// Equal reports structural equality, used by round-trip property tests.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindSeq:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		ak, av, aok := a.AsMap()
		bk, bv, bok := b.AsMap()
		if !aok || !bok || len(ak) != len(bk) {
			return false
		}
		for _, k := range ak {
			bvv, ok := bv(k)
			if !ok {
				return false
			}
			avv, _ := av(k)
			if !Equal(avv, bvv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders a debug representation; not used for hashing/serialization
// (use Canonical for that).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindNumber:
		return fmt.Sprintf("%g", v.n)
	case KindString:
		return v.s
	case KindSeq:
		return fmt.Sprintf("%v", v.seq)
	case KindMap:
		keys, get, _ := v.AsMap()
		parts := make([]string, len(keys))
		for i, k := range keys {
			vv, _ := get(k)
			parts[i] = k + ":" + vv.String()
		}
		return fmt.Sprintf("%v", parts)
	default:
		return ""
	}
}
