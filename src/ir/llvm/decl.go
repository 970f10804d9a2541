package llvm

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/Microindole/lency-sub000/src/ast"
	"github.com/Microindole/lency-sub000/src/util"
)

// reservedFunctionNames lists the C entry point and the C library functions
// the runtime declarations use. Nothing in this package checks user
// function names against it.
var reservedFunctionNames = []string{"main", "printf", "exit", "malloc"}

// genFuncHeader declares fn's LLVM signature without a body, the first half
// of a genFuncHeader/genFuncBody split. A user-defined `main` is declared
// as `__lency_main` so genMainWrapper can synthesize the real C `main`
// around it.
func (g *Generator) genFuncHeader(decl *ast.Node) (llvm.Value, error) {
	fd := decl.Data.(ast.FunctionData)
	name := fd.Name
	if name == "main" {
		name = "__lency_main"
	}

	params := make([]llvm.Type, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = g.lower(p.Ty)
	}
	ftyp := llvm.FunctionType(g.lower(fd.ReturnType), params, false)
	fn := llvm.AddFunction(g.module, name, ftyp)

	g.globals.set(fd.Name, fn)
	paramTypes := make([]*ast.Type, len(fd.Params))
	for i, p := range fd.Params {
		paramTypes[i] = p.Ty
	}
	g.functionSigs[fd.Name] = ast.FunctionOf(paramTypes, fd.ReturnType)
	return fn, nil
}

// genGlobalVar emits a global variable definition for a top-level VAR_DECL.
func (g *Generator) genGlobalVar(decl *ast.Node) {
	vd := decl.Data.(ast.VarDeclData)
	ty := vd.Ty
	if ty == nil {
		ty = ast.IntType()
	}
	llty := g.lower(ty)
	glob := llvm.AddGlobal(g.module, llty, vd.Name)
	glob.SetInitializer(llvm.ConstNull(llty))
	g.globals.set(vd.Name, glob)
	g.globalVarTypes[vd.Name] = ty
}

// localVar is one entry in a function body's scope: the stack slot holding
// the variable and its semantic type (needed to pick loads/stores/GEPs).
type localVar struct {
	ptr llvm.Value
	ty  *ast.Type
}

// loopCtx marks the basic blocks a BREAK/CONTINUE inside the loop body must
// target, pushed onto funcCtx.loops by genWhile/genFor/genForIn and read by
// genStmt's BREAK/CONTINUE cases.
type loopCtx struct {
	continueBB llvm.BasicBlock
	breakBB    llvm.BasicBlock
}

// funcCtx carries per-function codegen state: the local scope stack (one
// map per lexical block, shadowing by push/pop) and the loop-context stack,
// which is backed by util.Stack.
type funcCtx struct {
	g          *Generator
	fn         llvm.Value
	returnType *ast.Type
	scopes     []map[string]localVar
	loops      *util.Stack
}

func newFuncCtx(g *Generator, fn llvm.Value, ret *ast.Type) *funcCtx {
	return &funcCtx{g: g, fn: fn, returnType: ret, scopes: []map[string]localVar{{}}, loops: &util.Stack{}}
}

func (fc *funcCtx) pushScope() { fc.scopes = append(fc.scopes, map[string]localVar{}) }
func (fc *funcCtx) popScope()  { fc.scopes = fc.scopes[:len(fc.scopes)-1] }

func (fc *funcCtx) define(name string, ptr llvm.Value, ty *ast.Type) {
	fc.scopes[len(fc.scopes)-1][name] = localVar{ptr: ptr, ty: ty}
}

func (fc *funcCtx) lookup(name string) (localVar, bool) {
	for i := len(fc.scopes) - 1; i >= 0; i-- {
		if v, ok := fc.scopes[i][name]; ok {
			return v, true
		}
	}
	return localVar{}, false
}

// genFuncBody lowers decl's body into fn, the second half of the
// genFuncHeader/genFuncBody split.
func (g *Generator) genFuncBody(fn llvm.Value, decl *ast.Node) error {
	fd := decl.Data.(ast.FunctionData)
	entry := llvm.AddBasicBlock(fn, "entry")
	g.builder.SetInsertPointAtEnd(entry)

	fc := newFuncCtx(g, fn, fd.ReturnType)
	for i, p := range fd.Params {
		alloc := g.builder.CreateAlloca(g.lower(p.Ty), p.Name)
		g.builder.CreateStore(fn.Param(i), alloc)
		fc.define(p.Name, alloc, p.Ty)
	}

	if err := g.genStmt(fc, fd.Body); err != nil {
		return fmt.Errorf("function %q: %w", fd.Name, err)
	}

	// A function whose body fell through without an explicit terminator
	// gets an implicit `ret void` when void-returning, or a return of the
	// zero value of its return type otherwise.
	if g.builder.GetInsertBlock().LastInstruction().IsNil() ||
		!isTerminator(g.builder.GetInsertBlock().LastInstruction()) {
		if fd.ReturnType == nil || fd.ReturnType.Kind == ast.Void {
			g.builder.CreateRetVoid()
		} else {
			g.builder.CreateRet(llvm.ConstNull(g.lower(fd.ReturnType)))
		}
	}
	return nil
}

func isTerminator(v llvm.Value) bool {
	if v.IsNil() {
		return false
	}
	switch v.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Switch, llvm.Unreachable:
		return true
	default:
		return false
	}
}

// genEnumConstructors synthesizes one `Enum_Variant` function per variant
// that mallocs the enum, stores the tag, bitcasts the payload region to the
// variant's packed tuple type, stores each field and returns the pointer
func (g *Generator) genEnumConstructors(enumName string, layout *enumLayout) {
	st, ok := g.structTypes.get(enumName)
	if !ok {
		return
	}
	enumPtrTy := llvm.PointerType(st, 0)

	for tag, variant := range layout.variantOrder {
		types := layout.variantTypes[variant]
		paramTypes := make([]llvm.Type, len(types))
		for i, t := range types {
			paramTypes[i] = g.lower(t)
		}
		ctorName := enumName + "_" + variant
		ftyp := llvm.FunctionType(enumPtrTy, paramTypes, false)
		fn := llvm.AddFunction(g.module, ctorName, ftyp)
		g.globals.set(ctorName, fn)

		entry := llvm.AddBasicBlock(fn, "entry")
		savedBlock := g.builder.GetInsertBlock()
		g.builder.SetInsertPointAtEnd(entry)

		size := g.sizeOf(st)
		raw := g.builder.CreateCall(g.mallocFn, []llvm.Value{size}, "")
		self := g.builder.CreateBitCast(raw, enumPtrTy, "self")

		tagPtr := g.builder.CreateStructGEP(self, 0, "tag_ptr")
		g.builder.CreateStore(llvm.ConstInt(g.ctx.Int64Type(), uint64(tag), false), tagPtr)

		if len(types) > 0 {
			payloadPtr := g.builder.CreateStructGEP(self, 1, "payload_ptr")
			tupleTy := g.ctx.StructType(paramTypes, true)
			tuplePtr := g.builder.CreateBitCast(payloadPtr, llvm.PointerType(tupleTy, 0), "payload_as_tuple")
			for i := range paramTypes {
				fieldPtr := g.builder.CreateStructGEP(tuplePtr, i, "")
				g.builder.CreateStore(fn.Param(i), fieldPtr)
			}
		}
		g.builder.CreateRet(self)

		if !savedBlock.IsNil() {
			g.builder.SetInsertPointAtEnd(savedBlock)
		}
	}
}

// sizeOf returns a constant i64 holding t's store size, computed with
// LLVM's GEP-on-null trick rather than a DataLayout query.
func (g *Generator) sizeOf(t llvm.Type) llvm.Value {
	nullPtr := llvm.ConstNull(llvm.PointerType(t, 0))
	one := g.builder.CreateGEP(nullPtr, []llvm.Value{llvm.ConstInt(g.ctx.Int32Type(), 1, false)}, "size_ptr")
	return g.builder.CreatePtrToInt(one, g.ctx.Int64Type(), "size")
}
