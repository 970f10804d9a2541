package llvm

import (
	"strings"
	"testing"

	"github.com/Microindole/lency-sub000/src/ast"
	"github.com/Microindole/lency-sub000/src/util"
)

// mainReturning builds a minimal monomorphized program: a single `main`
// function returning a fixed int literal, the smallest input that exercises
// the full declare-struct/declare-enum/declare-func/gen-body/verify pipeline
// of Generate.
func mainReturning(value int64) *ast.Program {
	body := &ast.Node{
		Typ: ast.BLOCK,
		Children: []*ast.Node{
			{
				Typ:  ast.RETURN,
				Data: ast.ReturnData{Value: &ast.Node{Typ: ast.INT_LIT, Data: ast.IntLitData{Value: value}, Ty: ast.IntType()}},
			},
		},
	}
	main := &ast.Node{
		Typ: ast.FUNCTION,
		Data: ast.FunctionData{
			Name:       "main",
			ReturnType: ast.IntType(),
			Body:       body,
		},
	}
	return &ast.Program{Decls: []*ast.Node{main}}
}

func TestGenerateProducesVerifiedModule(t *testing.T) {
	opt := util.Options{Src: "t.lc"}
	mod, err := Generate(opt, mainReturning(42))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer mod.Dispose()

	ir := mod.String()
	if !strings.Contains(ir, "__lency_main") {
		t.Fatalf("expected the user main to be declared as __lency_main, got:\n%s", ir)
	}
	if !strings.Contains(ir, "define i32 @main()") {
		t.Fatalf("expected a synthesized i32 @main() wrapper, got:\n%s", ir)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	opt := util.Options{Src: "t.lc"}
	prog := mainReturning(7)

	mod1, err := Generate(opt, prog)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer mod1.Dispose()

	mod2, err := Generate(opt, mainReturning(7))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer mod2.Dispose()

	if mod1.String() != mod2.String() {
		t.Fatalf("Generate is not deterministic across two runs on the same input")
	}
}

func TestGenerateRejectsEmptyProgram(t *testing.T) {
	opt := util.Options{Src: "t.lc"}
	if _, err := Generate(opt, &ast.Program{}); err == nil {
		t.Fatalf("expected an error generating an empty program")
	}
}

func TestEveryBasicBlockHasATerminator(t *testing.T) {
	// Every basic block genFuncBody produces must end in a terminator
	// instruction, even a function whose source body never reaches an
	// explicit return.
	body := &ast.Node{Typ: ast.BLOCK}
	fn := &ast.Node{
		Typ:  ast.FUNCTION,
		Data: ast.FunctionData{Name: "noop", ReturnType: ast.VoidType(), Body: body},
	}
	opt := util.Options{Src: "t.lc"}
	mod, err := Generate(opt, &ast.Program{Decls: []*ast.Node{fn}})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer mod.Dispose()

	for fv := mod.FirstFunction(); !fv.IsNil(); fv = fv.NextFunction() {
		for bb := fv.FirstBasicBlock(); !bb.IsNil(); bb = bb.NextBasicBlock() {
			last := bb.LastInstruction()
			if last.IsNil() || !isTerminator(last) {
				t.Fatalf("basic block %q in function %q has no terminator", bb.AsValue().Name(), fv.Name())
			}
		}
	}
}
