package mono

import (
	"testing"

	"github.com/Microindole/lency-sub000/src/ast"
)

func TestRunFlattensImpl(t *testing.T) {
	receiver := ast.StructOf("Counter")
	method := &ast.Node{
		Typ: ast.FUNCTION,
		Data: ast.FunctionData{
			Name:       "increment",
			ReturnType: ast.VoidType(),
			Body:       &ast.Node{Typ: ast.BLOCK},
		},
	}
	impl := &ast.Node{
		Typ: ast.IMPL,
		Data: ast.ImplData{
			TypeName: receiver,
			Methods:  []*ast.Node{method},
		},
	}
	structDecl := &ast.Node{
		Typ:  ast.STRUCT,
		Data: ast.StructData{Name: "Counter"},
	}

	prog := &ast.Program{Decls: []*ast.Node{structDecl, impl}}
	out := Run(prog)

	var sawFunc bool
	for _, d := range out.Decls {
		if d.Typ == ast.IMPL {
			t.Fatalf("Run output still contains an IMPL node, methods should be flattened")
		}
		if d.Typ == ast.FUNCTION {
			fd := d.Data.(ast.FunctionData)
			if fd.Name == "Counter__increment" {
				sawFunc = true
				if len(fd.Params) != 1 || fd.Params[0].Name != "self" {
					t.Fatalf("flattened method missing synthetic self parameter: %+v", fd.Params)
				}
			}
		}
	}
	if !sawFunc {
		t.Fatalf("expected flattened Counter__increment function in output")
	}
}

func TestRunStripsGenericsFromStruct(t *testing.T) {
	boxDecl := &ast.Node{
		Typ: ast.STRUCT,
		Data: ast.StructData{
			Name:          "Box",
			GenericParams: []ast.GenericParamDecl{{Name: "T"}},
			Fields:        []ast.Field{{Name: "value", Ty: ast.GenericParamOf("T")}},
		},
	}
	// A use site referencing Box<int> via a variable declaration's type,
	// which rewriteType walks to discover the instantiation.
	useSite := &ast.Node{
		Typ: ast.VAR_DECL,
		Data: ast.VarDeclData{
			Name: "b",
			Ty:   ast.GenericOf("Box", []*ast.Type{ast.IntType()}),
		},
	}

	prog := &ast.Program{Decls: []*ast.Node{boxDecl, useSite}}
	out := Run(prog)

	for _, d := range out.Decls {
		if d.Typ == ast.STRUCT {
			sd := d.Data.(ast.StructData)
			if len(sd.GenericParams) > 0 {
				t.Fatalf("output struct %s still carries generic params", sd.Name)
			}
		}
	}

	var sawSpecialized bool
	for _, d := range out.Decls {
		if d.Typ == ast.STRUCT && d.Data.(ast.StructData).Name == Mangle(ast.GenericOf("Box", []*ast.Type{ast.IntType()})) {
			sawSpecialized = true
		}
	}
	if !sawSpecialized {
		t.Fatalf("expected specialized Box__int struct in output")
	}
}

func TestRunIdempotentOnNonGenericProgram(t *testing.T) {
	fn := &ast.Node{
		Typ: ast.FUNCTION,
		Data: ast.FunctionData{
			Name:       "main",
			ReturnType: ast.VoidType(),
			Body:       &ast.Node{Typ: ast.BLOCK},
		},
	}
	prog := &ast.Program{Decls: []*ast.Node{fn}}
	first := Run(prog)
	second := Run(&ast.Program{Decls: first.Decls})
	if len(first.Decls) != len(second.Decls) {
		t.Fatalf("re-running monomorphization on an already-specialized program changed decl count: %d vs %d", len(first.Decls), len(second.Decls))
	}
}
