package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/Microindole/lency-sub000/src/ast"
	ll "github.com/Microindole/lency-sub000/src/ir/llvm"
	"github.com/Microindole/lency-sub000/src/mono"
	"github.com/Microindole/lency-sub000/src/sema"
	"github.com/Microindole/lency-sub000/src/util"
)

// Compile runs the full middle-end pipeline over an already-parsed program:
// resolve (Pass 1/1.5/2), monomorphize, then lower to LLVM IR, before either
// dumping textual IR or emitting an object file.
func Compile(opt util.Options, prog *ast.Program, loader sema.ModuleLoader) error {
	r := sema.NewResolver(loader)
	for _, d := range prog.Decls {
		r.CollectDecl(d)
	}
	for _, d := range prog.Decls {
		if d.Typ == ast.IMPL {
			r.CollectImplMethods(d)
		}
	}
	for _, d := range prog.Decls {
		r.ResolveDecl(d)
	}
	if len(r.Errors) > 0 {
		w := util.NewWriter()
		for _, e1 := range r.Errors {
			w.Write("%s\n", e1)
		}
		w.Close()
		return fmt.Errorf("semantic analysis failed with %d error(s)", len(r.Errors))
	}

	specialized := mono.Run(prog)

	module, err := ll.Generate(opt, specialized)
	if err != nil {
		return fmt.Errorf("error reported by LLVM: %s", err)
	}
	defer module.Dispose()

	if opt.Verbose || opt.EmitIR {
		w := util.NewWriter()
		w.WriteString(module.String())
		w.Close()
	}
	if opt.IRStopAfter {
		return nil
	}
	return ll.EmitObject(opt, module)
}

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Printf("Command line argument error: %s\n", err)
		os.Exit(1)
	}

	wg := sync.WaitGroup{}
	util.ListenWrite(opt, nil, &wg)
	defer util.Close()

	// The lency front-end (lexer/parser) is out of scope for this
	// middle-end module: main wires the pipeline for a pre-parsed
	// ast.Program supplied by an external parser. Compile is the exercised
	// entry point; this binary exists to keep main.go's shape consistent
	// with a single-binary driver.
	fmt.Println("lency middle-end: no ast.Program input wired, nothing to compile")
	wg.Wait()
	os.Exit(1)
}
