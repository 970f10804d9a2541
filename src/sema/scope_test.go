package sema

import (
	"testing"

	"github.com/Microindole/lency-sub000/src/ast"
)

func TestScopeShadowingAcrossScopes(t *testing.T) {
	ss := NewScopeStack()
	if _, err := ss.Define(NewVariableSymbol("x", ast.IntType(), false, ast.Span{})); err != nil {
		t.Fatalf("unexpected error defining x in global scope: %v", err)
	}

	ss.Enter(ScopeBlock)
	if _, err := ss.Define(NewVariableSymbol("x", ast.StringType(), false, ast.Span{})); err != nil {
		t.Fatalf("shadowing x in a child scope should be allowed: %v", err)
	}

	sym, ok := ss.Lookup("x")
	if !ok {
		t.Fatalf("expected to find x")
	}
	if v := sym.(VariableSymbol); !ast.Equal(v.Ty, ast.StringType()) {
		t.Fatalf("inner scope's x should shadow the outer one, got %s", v.Ty)
	}

	ss.Exit()
	sym, ok = ss.Lookup("x")
	if !ok {
		t.Fatalf("expected to find x after exiting the child scope")
	}
	if v := sym.(VariableSymbol); !ast.Equal(v.Ty, ast.IntType()) {
		t.Fatalf("after Exit, x should resolve to the outer int declaration, got %s", v.Ty)
	}
}

func TestScopeDuplicateDefinitionRejected(t *testing.T) {
	ss := NewScopeStack()
	if _, err := ss.Define(NewVariableSymbol("x", ast.IntType(), false, ast.Span{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := ss.Define(NewVariableSymbol("x", ast.IntType(), false, ast.Span{}))
	if err == nil {
		t.Fatalf("expected a DuplicateDefinition error redefining x in the same scope")
	}
	if _, ok := err.(*DuplicateDefinition); !ok {
		t.Fatalf("expected *DuplicateDefinition, got %T", err)
	}
}

func TestRefinementScopedToBlock(t *testing.T) {
	ss := NewScopeStack()
	ss.Define(NewVariableSymbol("n", ast.NullableOf(ast.IntType()), false, ast.Span{}))

	ss.Enter(ScopeBlock)
	ss.AddRefinement("n", ast.IntType())
	ty, ok := ss.LookupRefinement("n")
	if !ok || !ast.Equal(ty, ast.IntType()) {
		t.Fatalf("expected refinement to narrow n to int inside the block")
	}
	ss.Exit()

	if _, ok := ss.LookupRefinement("n"); ok {
		t.Fatalf("refinement must not survive past the scope it was added in")
	}
}

func TestRefinementInvalidatedOnReassignment(t *testing.T) {
	ss := NewScopeStack()
	ss.AddRefinement("n", ast.IntType())
	ss.InvalidateRefinement("n")
	if _, ok := ss.LookupRefinement("n"); ok {
		t.Fatalf("expected refinement to be gone after InvalidateRefinement")
	}
}

func TestIsInFunction(t *testing.T) {
	ss := NewScopeStack()
	if ss.IsInFunction() {
		t.Fatalf("global scope should not report IsInFunction")
	}
	ss.Enter(ScopeFunction)
	ss.Enter(ScopeBlock)
	if !ss.IsInFunction() {
		t.Fatalf("a block nested inside a function scope should report IsInFunction")
	}
}
