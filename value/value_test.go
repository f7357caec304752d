package value

import "testing"

func TestScalarAccessors(t *testing.T) {
	if b, ok := Bool(true).AsBool(); !ok || !b {
		t.Fatalf("expected true, got %v ok=%v", b, ok)
	}
	if n, ok := Number(3.5).AsNumber(); !ok || n != 3.5 {
		t.Fatalf("expected 3.5, got %v ok=%v", n, ok)
	}
	if s, ok := String("x").AsString(); !ok || s != "x" {
		t.Fatalf("expected x, got %v ok=%v", s, ok)
	}
	if !Null().IsNull() {
		t.Fatal("expected Null().IsNull() to be true")
	}
}

func TestMapInsertionOrderPreserved(t *testing.T) {
	v := NewMapBuilder().Set("b", Number(2)).Set("a", Number(1)).Build()
	keys, _, ok := v.AsMap()
	if !ok {
		t.Fatal("expected map value")
	}
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("expected insertion order [b a], got %v", keys)
	}
}

func TestEqualRoundTrip(t *testing.T) {
	original := NewMapBuilder().
		Set("name", String("graph")).
		Set("tags", Seq(String("x"), String("y"))).
		Set("meta", NewMapBuilder().Set("nested", Bool(true)).Build()).
		Build()

	cloned := original.Clone()
	if !Equal(original, cloned) {
		t.Fatal("expected clone to be structurally equal to original")
	}

	// Mutating the clone's nested sequence must not affect the original —
	// Clone() must be a genuine deep copy, not aliasing backing slices.
	seq, _ := cloned.MapGet("tags")
	items, _ := seq.AsSeq()
	items[0] = String("mutated")

	origSeq, _ := original.MapGet("tags")
	origItems, _ := origSeq.AsSeq()
	if s, _ := origItems[0].AsString(); s != "x" {
		t.Fatalf("expected original unaffected by clone mutation, got %q", s)
	}
}

func TestCanonicalSortsMapKeys(t *testing.T) {
	a := NewMapBuilder().Set("b", Number(2)).Set("a", Number(1)).Build()
	b := NewMapBuilder().Set("a", Number(1)).Set("b", Number(2)).Build()

	if string(Canonical(a)) != string(Canonical(b)) {
		t.Fatalf("expected canonical form independent of insertion order: %q vs %q",
			Canonical(a), Canonical(b))
	}
}

func TestFingerprintStableAcrossInsertionOrder(t *testing.T) {
	a := NewMapBuilder().Set("x", Number(1)).Set("y", String("z")).Build()
	b := NewMapBuilder().Set("y", String("z")).Set("x", Number(1)).Build()

	if Fingerprint(a) != Fingerprint(b) {
		t.Fatal("expected fingerprint to be independent of map insertion order")
	}
}

func TestFingerprintDiffersOnContentChange(t *testing.T) {
	a := Map(map[string]Value{"x": Number(1)})
	b := Map(map[string]Value{"x": Number(2)})
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatal("expected different fingerprints for different content")
	}
}
