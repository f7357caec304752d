package graph

import "testing"

func chain(id string, max int) *NodeConfig {
	return &NodeConfig{ID: id, Kind: KindRule, RuleSource: "true"}
}

func TestValidateEmptyGraphSucceeds(t *testing.T) {
	d := New("empty")
	if _, err := Validate(d); err != nil {
		t.Fatalf("expected empty graph to validate, got %v", err)
	}
}

func TestValidateRejectsDanglingEdge(t *testing.T) {
	d := New("g")
	d.AddNode(chain("a", 0))
	d.AddEdge(Edge{From: "a", To: "missing"})
	if _, err := Validate(d); err == nil {
		t.Fatal("expected dangling edge to fail validation")
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	d := New("g")
	d.AddNode(chain("a", 0))
	d.AddNode(chain("b", 0))
	d.AddEdge(Edge{From: "a", To: "b"})
	d.AddEdge(Edge{From: "b", To: "a"})
	if _, err := Validate(d); err == nil {
		t.Fatal("expected cycle to fail validation")
	}
}

func TestValidateWarnsOnUnreachableNode(t *testing.T) {
	d := New("g")
	d.AddNode(chain("a", 0))
	d.AddNode(chain("b", 0))
	// Neither node has an edge or explicit dependency: both are sources,
	// which in a >1 node graph is advisory-warned as possibly unreachable.

	result, err := Validate(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("expected both disconnected nodes to warn, got %d: %+v", len(result.Warnings), result.Warnings)
	}
}

func TestValidateRecursesIntoSubgraph(t *testing.T) {
	inner := New("inner")
	inner.AddNode(chain("x", 0))
	inner.AddEdge(Edge{From: "x", To: "missing-in-inner"})

	outer := New("outer")
	outer.AddNode(&NodeConfig{ID: "sub", Kind: KindSubgraph, InnerGraph: inner, OutputKey: "x"})

	if _, err := Validate(outer); err == nil {
		t.Fatal("expected invalid inner graph to fail outer validation")
	}
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	d := New("g")
	d.AddNode(&NodeConfig{ID: "r", Kind: KindRetry}) // missing target_node_id/max_attempts
	if _, err := Validate(d); err == nil {
		t.Fatal("expected missing Retry fields to fail validation")
	}
}
