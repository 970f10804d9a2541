// Package llvm lowers a monomorphized lency syntax tree into LLVM IR for the
// system-installed LLVM runtime.
package llvm

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"tinygo.org/x/go-llvm"

	"github.com/Microindole/lency-sub000/src/ast"
	"github.com/Microindole/lency-sub000/src/mono"
	"github.com/Microindole/lency-sub000/src/util"
)

// symTab is a symbol table with a read/write mutex for thread-safe access.
type symTab struct {
	m map[string]llvm.Value
	sync.RWMutex
}

func (t *symTab) get(name string) (llvm.Value, bool) {
	t.RLock()
	defer t.RUnlock()
	v, ok := t.m[name]
	return v, ok
}

func (t *symTab) set(name string, v llvm.Value) {
	t.Lock()
	defer t.Unlock()
	t.m[name] = v
}

// typeTab is symTab's counterpart for named LLVM types.
type typeTab struct {
	m map[string]llvm.Type
	sync.RWMutex
}

func (t *typeTab) get(name string) (llvm.Type, bool) {
	t.RLock()
	defer t.RUnlock()
	v, ok := t.m[name]
	return v, ok
}

func (t *typeTab) set(name string, v llvm.Type) {
	t.Lock()
	defer t.Unlock()
	t.m[name] = v
}

const mapSize = 32

var stringPrefix = "L_STR"

// enumLayout records a registered enum's variant schema for match codegen.
type enumLayout struct {
	variantOrder []string
	variantTypes map[string][]*ast.Type
	payloadBytes uint64
}

// Generator owns the LLVM context/module/builder plus every side table the
// lowering phases consult: structTypes, structFields, structFieldTypes,
// enums, functionSigs and globalVarTypes.
type Generator struct {
	opt util.Options

	ctx     llvm.Context
	builder llvm.Builder
	module  llvm.Module

	globals          symTab  // function values + global variables.
	structTypes      typeTab // mangled struct/result name -> LLVM struct type.
	structFields     map[string][]string
	structFieldTypes map[string][]*ast.Type
	enums            map[string]*enumLayout
	functionSigs     map[string]*ast.Type
	globalVarTypes   map[string]*ast.Type

	panicFn  llvm.Value
	printfFn llvm.Value
	mallocFn llvm.Value
	exitFn   llvm.Value

	mu sync.Mutex // guards the maps above that symTab/typeTab don't already cover.
}

// Generate runs the full lowering pipeline over prog (already monomorphized
// by mono.Run) and returns the populated LLVM module. Caller owns disposing
// the returned module's owning context via Dispose().
func Generate(opt util.Options, prog *ast.Program) (llvm.Module, error) {
	if prog == nil || len(prog.Decls) == 0 {
		return llvm.Module{}, errors.New("empty program")
	}

	g := &Generator{
		opt:              opt,
		globals:          symTab{m: make(map[string]llvm.Value, mapSize)},
		structTypes:      typeTab{m: make(map[string]llvm.Type, mapSize)},
		structFields:     make(map[string][]string),
		structFieldTypes: make(map[string][]*ast.Type),
		enums:            make(map[string]*enumLayout),
		functionSigs:     make(map[string]*ast.Type),
		globalVarTypes:   make(map[string]*ast.Type),
	}

	g.ctx = llvm.NewContext()
	g.builder = g.ctx.NewBuilder()
	g.module = g.ctx.NewModule(filepath.Base(opt.Src))

	g.declareRuntime()

	for _, d := range prog.Decls {
		switch d.Typ {
		case ast.STRUCT:
			g.registerStructOpaque(d)
		case ast.ENUM:
			g.registerEnumOpaque(d)
		}
	}
	for _, d := range prog.Decls {
		if d.Typ == ast.STRUCT {
			g.defineStructBody(d)
		}
	}
	for _, d := range prog.Decls {
		if d.Typ == ast.ENUM {
			g.defineEnumBody(d)
		}
	}
	g.preregisterResultTypes(prog)

	type funcWrapper struct {
		fn   llvm.Value
		node *ast.Node
	}
	var funcs []funcWrapper
	for _, d := range prog.Decls {
		switch d.Typ {
		case ast.VAR_DECL:
			g.genGlobalVar(d)
		case ast.FUNCTION, ast.EXTERN_FUNCTION:
			fn, err := g.genFuncHeader(d)
			if err != nil {
				return llvm.Module{}, err
			}
			funcs = append(funcs, funcWrapper{fn, d})
		}
	}

	if opt.Threads > 1 {
		t := opt.Threads
		if t > len(funcs) {
			t = len(funcs)
		}
		if t < 1 {
			t = 1
		}
		var wg sync.WaitGroup
		errs := util.NewPerror(len(funcs))
		chunk := (len(funcs) + t - 1) / t
		for i := 0; i < len(funcs); i += chunk {
			end := i + chunk
			if end > len(funcs) {
				end = len(funcs)
			}
			wg.Add(1)
			go func(slice []funcWrapper) {
				defer wg.Done()
				for _, fw := range slice {
					if fw.node.Typ != ast.FUNCTION {
						continue
					}
					fd := fw.node.Data.(ast.FunctionData)
					if fd.Body == nil {
						continue
					}
					if err := g.genFuncBody(fw.fn, fw.node); err != nil {
						errs.Append(err)
					}
				}
			}(funcs[i:end])
		}
		wg.Wait()
		errs.Stop()
		if errs.Len() > 0 {
			for err := range errs.Errors() {
				return llvm.Module{}, err
			}
		}
	} else {
		for _, fw := range funcs {
			if fw.node.Typ != ast.FUNCTION {
				continue
			}
			fd := fw.node.Data.(ast.FunctionData)
			if fd.Body == nil {
				continue
			}
			if err := g.genFuncBody(fw.fn, fw.node); err != nil {
				return llvm.Module{}, err
			}
		}
	}

	g.genMainWrapper()

	if err := llvm.VerifyModule(g.module, llvm.ReturnStatusAction); err != nil {
		return llvm.Module{}, fmt.Errorf("module verification failed: %w", err)
	}
	return g.module, nil
}

// RunFull is a convenience entry point chaining monomorphization and
// codegen.
func RunFull(opt util.Options, prog *ast.Program) (llvm.Module, error) {
	specialized := mono.Run(prog)
	return Generate(opt, specialized)
}
