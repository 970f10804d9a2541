package ast

import "testing"

func TestTypeEqual(t *testing.T) {
	a := NullableOf(IntType())
	b := NullableOf(IntType())
	if !Equal(a, b) {
		t.Fatalf("expected %s to equal %s", a, b)
	}
	if Equal(a, IntType()) {
		t.Fatalf("nullable int should not equal int")
	}
}

func TestNormalizeCollapsesNestedNullable(t *testing.T) {
	// Build a non-canonical Nullable(Nullable(Int)) by hand (bypassing the
	// NullableOf constructor, which already collapses) to exercise Normalize.
	inner := &Type{Kind: Nullable, Elem: IntType()}
	outer := &Type{Kind: Nullable, Elem: inner}
	outer.Normalize()
	if outer.Elem.Kind == Nullable {
		t.Fatalf("Normalize() did not collapse nested Nullable: %s", outer)
	}
	if !Equal(outer, NullableOf(IntType())) {
		t.Fatalf("got %s, want int?", outer)
	}
}

func TestGenericString(t *testing.T) {
	box := GenericOf("Box", []*Type{IntType()})
	if box.String() != "Box<int>" {
		t.Fatalf("got %q", box.String())
	}
}

func TestResultString(t *testing.T) {
	r := ResultOf(IntType(), StructOf("Error"))
	if r.String() != "Result<int, Error>" {
		t.Fatalf("got %q", r.String())
	}
}
