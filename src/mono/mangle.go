// Package mono implements the worklist-driven monomorphizer that turns the
// resolved, still-generic AST into a generic-free one ready for IR
// generation.
package mono

import (
	"strconv"
	"strings"

	"github.com/Microindole/lency-sub000/src/ast"
)

// Mangle renders t as the deterministic, injective name used both as a
// monomorphized struct's identifier and as a component of a specialized
// function's name.
func Mangle(t *ast.Type) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case ast.Int:
		return "int"
	case ast.Float:
		return "float"
	case ast.Bool:
		return "bool"
	case ast.String:
		return "string"
	case ast.Void:
		return "void"
	case ast.Error:
		return "error"
	case ast.Struct:
		return t.Name
	case ast.GenericParam:
		return t.Name
	case ast.Nullable:
		return "Nullable__" + Mangle(t.Elem)
	case ast.Array:
		return "Array__" + Mangle(t.Elem) + "__" + strconv.Itoa(t.Size)
	case ast.Vec:
		return "Vec__" + Mangle(t.Elem)
	case ast.Generic:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = Mangle(a)
		}
		if len(parts) == 0 {
			return t.Name
		}
		return t.Name + "__" + strings.Join(parts, "_")
	case ast.Result:
		return "Result__" + Mangle(t.Ok) + "__" + Mangle(t.Err)
	case ast.Function:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = Mangle(p)
		}
		return "Fn__" + strings.Join(parts, "_") + "__" + Mangle(t.Ret)
	}
	return "unknown"
}

// MangleMethod renders the `Type__method` mangling of an impl method.
func MangleMethod(receiver *ast.Type, method string) string {
	return Mangle(receiver) + "__" + method
}

// MangleCall renders the mangled free-function name produced by a turbofish
// instantiation `name::<args>`.
func MangleCall(name string, args []*ast.Type) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Mangle(a)
	}
	if len(parts) == 0 {
		return name
	}
	return name + "__" + strings.Join(parts, "_")
}
