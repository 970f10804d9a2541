package sema

import (
	"testing"

	"github.com/Microindole/lency-sub000/src/ast"
)

func ident(name string) *ast.Node {
	return &ast.Node{Typ: ast.VARIABLE, Data: ast.VariableData{Name: name}}
}

func TestCollectDeclDuplicateFunction(t *testing.T) {
	r := NewResolver(nil)
	fn := &ast.Node{
		Typ:  ast.FUNCTION,
		Data: ast.FunctionData{Name: "f", ReturnType: ast.VoidType()},
	}
	r.CollectDecl(fn)
	r.CollectDecl(fn)
	if len(r.Errors) != 1 {
		t.Fatalf("expected exactly one DuplicateDefinition error, got %d: %v", len(r.Errors), r.Errors)
	}
	if _, ok := r.Errors[0].(*DuplicateDefinition); !ok {
		t.Fatalf("expected *DuplicateDefinition, got %T", r.Errors[0])
	}
}

func TestResolveVarDeclNullIntoNonNullableRejected(t *testing.T) {
	r := NewResolver(nil)
	decl := &ast.Node{
		Typ: ast.VAR_DECL,
		Data: ast.VarDeclData{
			Name:  "x",
			Ty:    ast.IntType(),
			Value: &ast.Node{Typ: ast.NULL_LIT},
		},
	}
	r.ResolveStmt(decl, nil)
	if len(r.Errors) != 1 {
		t.Fatalf("expected one error, got %d: %v", len(r.Errors), r.Errors)
	}
	if _, ok := r.Errors[0].(*NullAssignmentToNonNullable); !ok {
		t.Fatalf("expected *NullAssignmentToNonNullable, got %T", r.Errors[0])
	}
}

func TestResolveVarDeclNullIntoNullableAccepted(t *testing.T) {
	r := NewResolver(nil)
	decl := &ast.Node{
		Typ: ast.VAR_DECL,
		Data: ast.VarDeclData{
			Name:  "x",
			Ty:    ast.NullableOf(ast.IntType()),
			Value: &ast.Node{Typ: ast.NULL_LIT},
		},
	}
	r.ResolveStmt(decl, nil)
	if len(r.Errors) != 0 {
		t.Fatalf("did not expect errors assigning null to a nullable var, got %v", r.Errors)
	}
}

func TestNullNarrowingInThenBranch(t *testing.T) {
	r := NewResolver(nil)
	r.Scopes.Define(NewVariableSymbol("n", ast.NullableOf(ast.IntType()), true, ast.Span{}))

	use := ident("n")
	ifStmt := &ast.Node{
		Typ: ast.IF,
		Data: ast.IfData{
			Cond: &ast.Node{
				Typ:  ast.BINARY,
				Data: ast.BinaryData{Op: ast.Neq, Lhs: ident("n"), Rhs: &ast.Node{Typ: ast.NULL_LIT}},
			},
			Then: &ast.Node{Typ: ast.BLOCK, Children: []*ast.Node{
				{Typ: ast.EXPR_STMT, Children: []*ast.Node{use}},
			}},
		},
	}
	r.ResolveStmt(ifStmt, nil)
	if len(r.Errors) != 0 {
		t.Fatalf("did not expect errors, got %v", r.Errors)
	}
	if !ast.Equal(use.Ty, ast.IntType()) {
		t.Fatalf("expected n to be narrowed to int inside the then-branch, got %s", use.Ty)
	}
}

func TestImplOnUndefinedTypeReported(t *testing.T) {
	r := NewResolver(nil)
	impl := &ast.Node{
		Typ: ast.IMPL,
		Data: ast.ImplData{
			TypeName: ast.StructOf("Ghost"),
		},
	}
	r.CollectImplMethods(impl)
	if len(r.Errors) != 1 {
		t.Fatalf("expected one error, got %d: %v", len(r.Errors), r.Errors)
	}
	if _, ok := r.Errors[0].(*UndefinedType); !ok {
		t.Fatalf("expected *UndefinedType, got %T", r.Errors[0])
	}
}

// stubLoader serves one fixed module regardless of the requested path, just
// enough to exercise CollectDecl's IMPORT handling without a real parser.
type stubLoader struct {
	prog *ast.Program
}

func (s stubLoader) Load(path string) (*ast.Program, error) { return s.prog, nil }

func TestImportAliasExposesMethodsOnSyntheticStruct(t *testing.T) {
	mathMod := &ast.Program{Decls: []*ast.Node{
		{
			Typ: ast.FUNCTION,
			Data: ast.FunctionData{
				Name:       "square",
				Params:     []ast.Param{{Name: "x", Ty: ast.IntType()}},
				ReturnType: ast.IntType(),
			},
		},
	}}
	r := NewResolver(stubLoader{prog: mathMod})
	r.CollectDecl(&ast.Node{
		Typ:  ast.IMPORT,
		Data: ast.ImportData{Items: []ast.ImportItem{{Path: "math", Alias: "Math"}}},
	})
	if len(r.Errors) != 0 {
		t.Fatalf("did not expect errors aliasing an import, got %v", r.Errors)
	}
	global, ok := r.Scopes.Lookup("Math")
	if !ok {
		t.Fatalf("expected Math to be defined as the alias's global")
	}
	if v, ok := global.(VariableSymbol); !ok || !ast.Equal(v.Ty, ast.StructOf("Math__Module")) {
		t.Fatalf("expected Math to be a variable of type Math__Module, got %#v", global)
	}
	sym, ok := r.Scopes.Lookup("Math__Module")
	if !ok {
		t.Fatalf("expected Math__Module to be defined as the alias's synthetic struct")
	}
	s, ok := sym.(StructSymbol)
	if !ok {
		t.Fatalf("expected a StructSymbol, got %T", sym)
	}
	if _, ok := s.Methods["square"]; !ok {
		t.Fatalf("expected Math.square to be attached from the aliased module, got methods %v", s.Methods)
	}
}

func TestBreakOutsideLoopReported(t *testing.T) {
	r := NewResolver(nil)
	r.ResolveStmt(&ast.Node{Typ: ast.BREAK}, nil)
	if len(r.Errors) != 1 {
		t.Fatalf("expected one error, got %d", len(r.Errors))
	}
	if _, ok := r.Errors[0].(*BreakOutsideLoop); !ok {
		t.Fatalf("expected *BreakOutsideLoop, got %T", r.Errors[0])
	}
}
