package llvm

import (
	"tinygo.org/x/go-llvm"

	"github.com/Microindole/lency-sub000/src/ast"
	"github.com/Microindole/lency-sub000/src/mono"
)

// lower implements the type lowering table mapping an ast.Type to its LLVM representation.
func (g *Generator) lower(t *ast.Type) llvm.Type {
	if t == nil {
		return g.ctx.VoidType()
	}
	switch t.Kind {
	case ast.Int:
		return g.ctx.Int64Type()
	case ast.Float:
		return g.ctx.DoubleType()
	case ast.Bool:
		return g.ctx.Int1Type()
	case ast.String:
		return llvm.PointerType(g.ctx.Int8Type(), 0)
	case ast.Void:
		return g.ctx.VoidType()
	case ast.Array:
		return llvm.ArrayType(g.lower(t.Elem), t.Size)
	case ast.Vec:
		// Vec is an opaque runtime-managed pointer; the element type only
		// matters to sema/mono, not to the lowered representation.
		return llvm.PointerType(g.ctx.Int8Type(), 0)
	case ast.Struct:
		if st, ok := g.structTypes.get(t.Name); ok {
			return llvm.PointerType(st, 0)
		}
		if st, ok := g.enumStructType(t.Name); ok {
			return llvm.PointerType(st, 0)
		}
		return llvm.PointerType(g.ctx.Int8Type(), 0)
	case ast.Result:
		name := mono.Mangle(t)
		if st, ok := g.structTypes.get(name); ok {
			return llvm.PointerType(st, 0)
		}
		return llvm.PointerType(g.ctx.Int8Type(), 0)
	case ast.Nullable:
		return llvm.PointerType(g.lower(t.Elem), 0)
	case ast.Function:
		params := make([]llvm.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = g.lower(p)
		}
		ftyp := llvm.FunctionType(g.lower(t.Ret), params, false)
		return llvm.PointerType(ftyp, 0)
	case ast.Error:
		return g.ctx.Int8Type()
	default:
		return g.ctx.Int8Type()
	}
}

func (g *Generator) enumStructType(name string) (llvm.Type, bool) {
	if _, ok := g.enums[name]; !ok {
		return llvm.Type{}, false
	}
	return g.structTypes.get(name)
}

// registerStructOpaque creates an opaque named LLVM struct for decl and
// records its field schema.
func (g *Generator) registerStructOpaque(decl *ast.Node) {
	sd := decl.Data.(ast.StructData)
	st := g.ctx.StructCreateNamed(sd.Name)
	g.structTypes.set(sd.Name, st)

	names := make([]string, len(sd.Fields))
	types := make([]*ast.Type, len(sd.Fields))
	for i, f := range sd.Fields {
		names[i] = f.Name
		types[i] = f.Ty
	}
	g.structFields[sd.Name] = names
	g.structFieldTypes[sd.Name] = types
}

// defineStructBody fills a previously opaque struct with its lowered field
// types.
func (g *Generator) defineStructBody(decl *ast.Node) {
	sd := decl.Data.(ast.StructData)
	st, ok := g.structTypes.get(sd.Name)
	if !ok {
		return
	}
	body := make([]llvm.Type, len(sd.Fields))
	for i, f := range sd.Fields {
		body[i] = g.lower(f.Ty)
	}
	st.StructSetBody(body, false)
}

// registerEnumOpaque creates an opaque named LLVM struct for an enum and
// records its variant schema.
func (g *Generator) registerEnumOpaque(decl *ast.Node) {
	ed := decl.Data.(ast.EnumData)
	st := g.ctx.StructCreateNamed(ed.Name)
	g.structTypes.set(ed.Name, st)

	order := make([]string, len(ed.Variants))
	types := make(map[string][]*ast.Type, len(ed.Variants))
	for i, v := range ed.Variants {
		order[i] = v.Name
		types[v.Name] = v.Types
	}
	g.enums[ed.Name] = &enumLayout{variantOrder: order, variantTypes: types}
}

// defineEnumBody computes the max payload size across variants with
// approxByteSize's fixed per-kind sizes (the target data layout is not
// consulted) and sets the enum's body to `{i64 tag, [N x i8] payload}`.
func (g *Generator) defineEnumBody(decl *ast.Node) {
	ed := decl.Data.(ast.EnumData)
	layout, ok := g.enums[ed.Name]
	if !ok {
		return
	}
	st, ok := g.structTypes.get(ed.Name)
	if !ok {
		return
	}

	var maxBytes uint64
	for _, v := range ed.Variants {
		var sz uint64
		for _, ty := range v.Types {
			sz += g.approxByteSize(ty)
		}
		if sz > maxBytes {
			maxBytes = sz
		}
	}
	if maxBytes == 0 {
		maxBytes = 1
	}
	layout.payloadBytes = maxBytes

	body := []llvm.Type{g.ctx.Int64Type(), llvm.ArrayType(g.ctx.Int8Type(), int(maxBytes))}
	st.StructSetBody(body, false)

	g.genEnumConstructors(ed.Name, layout)
}

// approxByteSize is a conservative, alignment-naive size estimate used only
// to size an enum's payload bytes; field packing inside the payload is by
// store-size, not by the target's real struct layout rules, preferring
// simple, predictable arithmetic over calling into LLVM's DataLayout for a
// detail this localized.
func (g *Generator) approxByteSize(t *ast.Type) uint64 {
	switch t.Kind {
	case ast.Int:
		return 8
	case ast.Float:
		return 8
	case ast.Bool:
		return 1
	case ast.String, ast.Vec, ast.Struct, ast.Result, ast.Nullable, ast.Function:
		return 8
	case ast.Array:
		return uint64(t.Size) * g.approxByteSize(t.Elem)
	default:
		return 8
	}
}

// preregisterResultTypes walks every function signature in prog and
// materializes the named Result__ok__err struct type for any Result
// appearing in a parameter or return position, plus its paired
// Result__void__err used by bare `Err(e)` constructors.
func (g *Generator) preregisterResultTypes(prog *ast.Program) {
	seen := map[string]bool{}
	reg := func(t *ast.Type) {
		if t == nil || t.Kind != ast.Result {
			return
		}
		g.registerResultType(t, seen)
		void := ast.ResultOf(ast.VoidType(), t.Err)
		g.registerResultType(void, seen)
	}
	for _, d := range prog.Decls {
		if d.Typ != ast.FUNCTION && d.Typ != ast.EXTERN_FUNCTION {
			continue
		}
		fd := d.Data.(ast.FunctionData)
		reg(fd.ReturnType)
		for _, p := range fd.Params {
			reg(p.Ty)
		}
	}
}

func (g *Generator) registerResultType(t *ast.Type, seen map[string]bool) {
	name := mono.Mangle(t)
	if seen[name] {
		return
	}
	seen[name] = true

	st := g.ctx.StructCreateNamed(name)
	g.structTypes.set(name, st)

	body := []llvm.Type{g.ctx.Int1Type()}
	fields := []string{"is_ok"}
	types := []*ast.Type{ast.BoolType()}
	if t.Ok != nil && t.Ok.Kind != ast.Void {
		body = append(body, g.lower(t.Ok))
		fields = append(fields, "ok")
		types = append(types, t.Ok)
	}
	if t.Err != nil && t.Err.Kind != ast.Void {
		body = append(body, g.lower(t.Err))
		fields = append(fields, "err")
		types = append(types, t.Err)
	}
	st.StructSetBody(body, false)
	g.structFields[name] = fields
	g.structFieldTypes[name] = types
}
