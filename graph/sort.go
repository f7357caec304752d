package graph

import "sort"

// sortStrings is a tiny indirection so Compile/layering code reads like the
// teacher's deterministic-ordering idiom (scheduler.go sorts by OrderKey;
// we sort by node id) without repeating sort.Strings import noise at every
// call site.
func sortStrings(s []string) { sort.Strings(s) }
