package llvm

import (
	"tinygo.org/x/go-llvm"

	"github.com/Microindole/lency-sub000/src/ast"
	"github.com/Microindole/lency-sub000/src/runtime"
)

// declareRuntime installs every FFI declaration from runtime.DeclareAll
// into the symbol table so genExpr's Vec/HashMap/File/conversion/panic
// lowering can look them up by name, and caches the handful the generator
// calls directly.
func (g *Generator) declareRuntime() {
	d := runtime.DeclareAll(g.ctx, g.module)
	g.printfFn = d.Printf
	g.exitFn = d.Exit
	g.mallocFn = d.Malloc
	g.panicFn = d.Panic
	for name, fn := range d.Funcs {
		g.globals.set(name, fn)
	}
}

// genPanic emits a call into `__lency_panic` with a formatted message and
// the offending source line, followed by `unreachable`, used by array
// bounds checks and non-exhaustive match fall-through.
func (g *Generator) genPanic(msg string, line int) {
	str := g.builder.CreateGlobalStringPtr(msg, stringPrefix)
	g.builder.CreateCall(g.panicFn, []llvm.Value{str, llvm.ConstInt(g.ctx.Int64Type(), uint64(line), true)}, "")
	g.builder.CreateUnreachable()
}

// genMainWrapper emits `i32 main()` calling `__lency_main` when the program
// declares a `main` function, truncating an i64 return to i32 and
// propagating it as the process exit code, or returning 0 for a
// void-returning user main.
func (g *Generator) genMainWrapper() {
	userMain, ok := g.globals.get("main")
	if !ok {
		return
	}

	i32 := g.ctx.Int32Type()
	ftyp := llvm.FunctionType(i32, nil, false)
	main := llvm.AddFunction(g.module, "main", ftyp)
	bb := llvm.AddBasicBlock(main, "entry")
	g.builder.SetInsertPointAtEnd(bb)

	ret := g.builder.CreateCall(userMain, nil, "")
	sig := g.functionSigs["main"]
	if sig == nil || sig.Ret == nil || sig.Ret.Kind == ast.Void {
		g.builder.CreateRet(llvm.ConstInt(i32, 0, false))
		return
	}
	if sig.Ret.Kind == ast.Int {
		g.builder.CreateRet(g.builder.CreateIntCast(ret, i32, "exit_code"))
		return
	}
	g.builder.CreateRet(llvm.ConstInt(i32, 0, false))
}
