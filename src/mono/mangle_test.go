package mono

import (
	"testing"

	"github.com/Microindole/lency-sub000/src/ast"
)

func TestMangleScalars(t *testing.T) {
	cases := []struct {
		ty   *ast.Type
		want string
	}{
		{ast.IntType(), "int"},
		{ast.FloatType(), "float"},
		{ast.BoolType(), "bool"},
		{ast.StringType(), "string"},
		{ast.VoidType(), "void"},
		{nil, "void"},
	}
	for _, c := range cases {
		if got := Mangle(c.ty); got != c.want {
			t.Errorf("Mangle(%v) = %q, want %q", c.ty, got, c.want)
		}
	}
}

func TestMangleInjective(t *testing.T) {
	// Distinct types must never collide on their mangled name.
	types := []*ast.Type{
		ast.IntType(),
		ast.NullableOf(ast.IntType()),
		ast.NullableOf(ast.FloatType()),
		ast.ArrayOf(ast.IntType(), 3),
		ast.ArrayOf(ast.IntType(), 4),
		ast.VecOf(ast.IntType()),
		ast.VecOf(ast.FloatType()),
		ast.ResultOf(ast.IntType(), ast.StructOf("Error")),
		ast.ResultOf(ast.VoidType(), ast.StructOf("Error")),
		ast.GenericOf("Box", []*ast.Type{ast.IntType()}),
		ast.GenericOf("Box", []*ast.Type{ast.FloatType()}),
		ast.FunctionOf([]*ast.Type{ast.IntType()}, ast.BoolType()),
	}
	seen := make(map[string]*ast.Type)
	for _, ty := range types {
		m := Mangle(ty)
		if prev, ok := seen[m]; ok {
			t.Fatalf("mangling collision: %s and %s both mangle to %q", prev, ty, m)
		}
		seen[m] = ty
	}
}

func TestMangleDeterministic(t *testing.T) {
	ty := ast.GenericOf("Pair", []*ast.Type{ast.IntType(), ast.StringType()})
	a := Mangle(ty)
	b := Mangle(ty)
	if a != b {
		t.Fatalf("Mangle is not deterministic: %q != %q", a, b)
	}
}

func TestMangleMethod(t *testing.T) {
	got := MangleMethod(ast.StructOf("Stack"), "push")
	want := "Stack__push"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMangleCall(t *testing.T) {
	got := MangleCall("identity", []*ast.Type{ast.IntType()})
	if got != "identity__int" {
		t.Fatalf("got %q", got)
	}
	if got := MangleCall("noop", nil); got != "noop" {
		t.Fatalf("MangleCall with no args should return bare name, got %q", got)
	}
}
