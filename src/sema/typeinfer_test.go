package sema

import (
	"testing"

	"github.com/Microindole/lency-sub000/src/ast"
)

func TestInferStampsTyOnNode(t *testing.T) {
	scopes := NewScopeStack()
	lit := &ast.Node{Typ: ast.INT_LIT, Data: ast.IntLitData{Value: 1}}
	ty, err := Infer(lit, scopes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lit.Ty == nil || !ast.Equal(lit.Ty, ty) {
		t.Fatalf("Infer must stamp its result onto expr.Ty, got %v", lit.Ty)
	}
}

func TestInferStampsTyOnNestedSubexpressions(t *testing.T) {
	scopes := NewScopeStack()
	lhs := &ast.Node{Typ: ast.INT_LIT, Data: ast.IntLitData{Value: 1}}
	rhs := &ast.Node{Typ: ast.INT_LIT, Data: ast.IntLitData{Value: 2}}
	bin := &ast.Node{Typ: ast.BINARY, Data: ast.BinaryData{Op: ast.Add, Lhs: lhs, Rhs: rhs}}

	if _, err := Infer(bin, scopes); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lhs.Ty == nil || rhs.Ty == nil {
		t.Fatalf("every reachable sub-expression must have Ty populated, got lhs=%v rhs=%v", lhs.Ty, rhs.Ty)
	}
}

func TestInferEmptyArrayLiteralWithoutHintFails(t *testing.T) {
	scopes := NewScopeStack()
	lit := &ast.Node{Typ: ast.ARRAY_LIT, Data: ast.ArrayLitData{}}
	_, err := Infer(lit, scopes)
	if err == nil {
		t.Fatalf("expected an error inferring an empty array literal with no type hint")
	}
	if _, ok := err.(*CannotInferType); !ok {
		t.Fatalf("expected *CannotInferType, got %T", err)
	}
}

func TestInferEmptyArrayLiteralWithHintSucceeds(t *testing.T) {
	scopes := NewScopeStack()
	lit := &ast.Node{Typ: ast.ARRAY_LIT, Data: ast.ArrayLitData{ElemHint: ast.IntType()}}
	ty, err := Infer(lit, scopes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ast.ArrayOf(ast.IntType(), 0)
	if !ast.Equal(ty, want) {
		t.Fatalf("got %s, want %s", ty, want)
	}
}

func TestIsCompatibleFloatAcceptsInt(t *testing.T) {
	if !IsCompatible(ast.FloatType(), ast.IntType()) {
		t.Fatalf("expected float <- int promotion to be compatible")
	}
	if IsCompatible(ast.IntType(), ast.FloatType()) {
		t.Fatalf("int <- float should not be compatible (narrowing)")
	}
}

func TestIsCompatibleResultRepack(t *testing.T) {
	want := ast.ResultOf(ast.IntType(), ast.StructOf("Error"))
	got := ast.ResultOf(ast.VoidType(), ast.StructOf("Error"))
	if !IsCompatible(want, got) {
		t.Fatalf("Result<T,Error> should accept a bare Err()'s Result<Void,Error> shape")
	}
}

func TestErrAlwaysProducesVoidOkResult(t *testing.T) {
	scopes := NewScopeStack()
	errExpr := &ast.Node{
		Typ:  ast.ERR,
		Data: ast.ErrData{Inner: &ast.Node{Typ: ast.STRING_LIT, Data: ast.StringLitData{Value: "boom"}}},
	}
	ty, err := Infer(errExpr, scopes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ty.Kind != ast.Result || ty.Ok.Kind != ast.Void {
		t.Fatalf("Err(...) must always infer to Result<Void,Error>, got %s", ty)
	}
}
