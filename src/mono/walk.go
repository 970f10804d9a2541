package mono

import "github.com/Microindole/lency-sub000/src/ast"

// rewriteType substitutes GenericParam/Struct names found in subst, and
// whenever it encounters a Generic(name,args) reference, queues that
// concrete instantiation on the struct worklist and replaces the type with
// Struct(mangled). Run inline rather than as a separate pass so every
// traversal (template specialization and the final program-wide rewrite
// alike) shares one implementation.
func (m *Monomorphizer) rewriteType(t *ast.Type, subst map[string]*ast.Type) *ast.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case ast.GenericParam:
		if sub, ok := subst[t.Name]; ok {
			return sub
		}
		return t
	case ast.Struct:
		if sub, ok := subst[t.Name]; ok {
			return sub
		}
		return t
	case ast.Generic:
		args := make([]*ast.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = m.rewriteType(a, subst)
		}
		mangled := MangleCall(t.Name, args)
		m.queueStruct(t.Name, args, mangled)
		return ast.StructOf(mangled)
	case ast.Nullable:
		return ast.NullableOf(m.rewriteType(t.Elem, subst))
	case ast.Array:
		return ast.ArrayOf(m.rewriteType(t.Elem, subst), t.Size)
	case ast.Vec:
		return ast.VecOf(m.rewriteType(t.Elem, subst))
	case ast.Result:
		return ast.ResultOf(m.rewriteType(t.Ok, subst), m.rewriteType(t.Err, subst))
	case ast.Function:
		params := make([]*ast.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = m.rewriteType(p, subst)
		}
		return ast.FunctionOf(params, m.rewriteType(t.Ret, subst))
	default:
		return t
	}
}

// rewriteNode deep-copies n, substituting every reachable *ast.Type with
// rewriteType and descending into every reachable *ast.Node. A TURBOFISH
// node is rewritten into a plain CALL of the mangled specialization,
// queuing that function instantiation.
func (m *Monomorphizer) rewriteNode(n *ast.Node, subst map[string]*ast.Type) *ast.Node {
	if n == nil {
		return nil
	}
	out := &ast.Node{Typ: n.Typ, Span: n.Span, Ty: m.rewriteType(n.Ty, subst)}

	switch n.Typ {
	case ast.FUNCTION, ast.EXTERN_FUNCTION:
		d := n.Data.(ast.FunctionData)
		out.Data = ast.FunctionData{
			Name:          d.Name,
			GenericParams: nil,
			Params:        m.rewriteParams(d.Params, subst),
			ReturnType:    m.rewriteType(d.ReturnType, subst),
			Public:        d.Public,
			Body:          m.rewriteNode(d.Body, subst),
		}
	case ast.STRUCT:
		d := n.Data.(ast.StructData)
		fields := make([]ast.Field, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = ast.Field{Name: f.Name, Ty: m.rewriteType(f.Ty, subst)}
		}
		out.Data = ast.StructData{Name: d.Name, GenericParams: nil, Fields: fields}
	case ast.ENUM:
		d := n.Data.(ast.EnumData)
		variants := make([]ast.EnumVariantDecl, len(d.Variants))
		for i, v := range d.Variants {
			types := make([]*ast.Type, len(v.Types))
			for j, t := range v.Types {
				types[j] = m.rewriteType(t, subst)
			}
			variants[i] = ast.EnumVariantDecl{Name: v.Name, Types: types}
		}
		out.Data = ast.EnumData{Name: d.Name, GenericParams: nil, Variants: variants}
	case ast.TRAIT:
		out.Data = n.Data // Traits have no codegen presence; carried as-is.
	case ast.IMPL:
		d := n.Data.(ast.ImplData)
		methods := make([]*ast.Node, len(d.Methods))
		for i, mm := range d.Methods {
			methods[i] = m.rewriteNode(mm, subst)
		}
		out.Data = ast.ImplData{TypeName: m.rewriteType(d.TypeName, subst), TraitName: d.TraitName, GenericParams: nil, Methods: methods}
	case ast.VAR_DECL:
		d := n.Data.(ast.VarDeclData)
		out.Data = ast.VarDeclData{Name: d.Name, Ty: m.rewriteType(d.Ty, subst), Value: m.rewriteNode(d.Value, subst)}
	case ast.IMPORT:
		out.Data = n.Data
	case ast.BLOCK, ast.EXPR_STMT:
		children := make([]*ast.Node, len(n.Children))
		for i, c := range n.Children {
			children[i] = m.rewriteNode(c, subst)
		}
		out.Children = children
	case ast.IF:
		d := n.Data.(ast.IfData)
		out.Data = ast.IfData{Cond: m.rewriteNode(d.Cond, subst), Then: m.rewriteNode(d.Then, subst), Else: m.rewriteNode(d.Else, subst)}
	case ast.WHILE:
		d := n.Data.(ast.WhileData)
		out.Data = ast.WhileData{Cond: m.rewriteNode(d.Cond, subst), Body: m.rewriteNode(d.Body, subst)}
	case ast.FOR:
		d := n.Data.(ast.ForData)
		out.Data = ast.ForData{Init: m.rewriteNode(d.Init, subst), Cond: m.rewriteNode(d.Cond, subst), Update: m.rewriteNode(d.Update, subst), Body: m.rewriteNode(d.Body, subst)}
	case ast.FOR_IN:
		d := n.Data.(ast.ForInData)
		out.Data = ast.ForInData{VarName: d.VarName, Iter: m.rewriteNode(d.Iter, subst), Body: m.rewriteNode(d.Body, subst)}
	case ast.RETURN:
		d := n.Data.(ast.ReturnData)
		out.Data = ast.ReturnData{Value: m.rewriteNode(d.Value, subst)}
	case ast.BREAK, ast.CONTINUE:
		out.Data = n.Data
	case ast.ASSIGNMENT:
		d := n.Data.(ast.AssignmentData)
		out.Data = ast.AssignmentData{Target: m.rewriteNode(d.Target, subst), Value: m.rewriteNode(d.Value, subst)}
	case ast.INT_LIT, ast.FLOAT_LIT, ast.BOOL_LIT, ast.STRING_LIT, ast.NULL_LIT:
		out.Data = n.Data
	case ast.VARIABLE:
		out.Data = n.Data
	case ast.BINARY:
		d := n.Data.(ast.BinaryData)
		out.Data = ast.BinaryData{Op: d.Op, Lhs: m.rewriteNode(d.Lhs, subst), Rhs: m.rewriteNode(d.Rhs, subst)}
	case ast.UNARY:
		d := n.Data.(ast.UnaryData)
		out.Data = ast.UnaryData{Op: d.Op, Operand: m.rewriteNode(d.Operand, subst)}
	case ast.CALL:
		d := n.Data.(ast.CallData)
		args := make([]*ast.Node, len(d.Args))
		for i, a := range d.Args {
			args[i] = m.rewriteNode(a, subst)
		}
		out.Data = ast.CallData{Callee: m.rewriteNode(d.Callee, subst), Args: args}
	case ast.GET:
		d := n.Data.(ast.GetData)
		out.Data = ast.GetData{Object: m.rewriteNode(d.Object, subst), Name: d.Name}
	case ast.SAFE_GET:
		d := n.Data.(ast.SafeGetData)
		out.Data = ast.SafeGetData{Object: m.rewriteNode(d.Object, subst), Name: d.Name}
	case ast.ARRAY_LIT:
		d := n.Data.(ast.ArrayLitData)
		elems := make([]*ast.Node, len(d.Elems))
		for i, e := range d.Elems {
			elems[i] = m.rewriteNode(e, subst)
		}
		out.Data = ast.ArrayLitData{Elems: elems, ElemHint: m.rewriteType(d.ElemHint, subst)}
	case ast.VEC_LIT:
		d := n.Data.(ast.VecLitData)
		elems := make([]*ast.Node, len(d.Elems))
		for i, e := range d.Elems {
			elems[i] = m.rewriteNode(e, subst)
		}
		out.Data = ast.VecLitData{Elems: elems, ElemHint: m.rewriteType(d.ElemHint, subst)}
	case ast.INDEX:
		d := n.Data.(ast.IndexData)
		out.Data = ast.IndexData{Object: m.rewriteNode(d.Object, subst), Index: m.rewriteNode(d.Index, subst)}
	case ast.STRUCT_LIT:
		d := n.Data.(ast.StructLitData)
		fields := make([]ast.FieldInit, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = ast.FieldInit{Name: f.Name, Value: m.rewriteNode(f.Value, subst)}
		}
		typeName := d.TypeName
		if sub, ok := subst[d.TypeName]; ok && sub.Kind == ast.Struct {
			typeName = sub.Name
		}
		out.Data = ast.StructLitData{TypeName: typeName, Fields: fields}
	case ast.MATCH:
		d := n.Data.(ast.MatchData)
		cases := make([]ast.MatchCase, len(d.Cases))
		for i, c := range d.Cases {
			cases[i] = ast.MatchCase{Pattern: m.rewritePattern(c.Pattern, subst), Body: m.rewriteNode(c.Body, subst)}
		}
		out.Data = ast.MatchData{Subject: m.rewriteNode(d.Subject, subst), Cases: cases}
	case ast.PRINT:
		d := n.Data.(ast.PrintData)
		args := make([]*ast.Node, len(d.Args))
		for i, a := range d.Args {
			args[i] = m.rewriteNode(a, subst)
		}
		out.Data = ast.PrintData{Args: args}
	case ast.OK:
		d := n.Data.(ast.OkData)
		out.Data = ast.OkData{Inner: m.rewriteNode(d.Inner, subst)}
	case ast.ERR:
		d := n.Data.(ast.ErrData)
		out.Data = ast.ErrData{Inner: m.rewriteNode(d.Inner, subst)}
	case ast.TRY:
		d := n.Data.(ast.TryData)
		out.Data = ast.TryData{Inner: m.rewriteNode(d.Inner, subst)}
	case ast.CLOSURE:
		d := n.Data.(ast.ClosureData)
		out.Data = ast.ClosureData{Params: m.rewriteParams(d.Params, subst), ReturnType: m.rewriteType(d.ReturnType, subst), Body: m.rewriteNode(d.Body, subst)}
	case ast.TURBOFISH:
		d := n.Data.(ast.TurboFishData)
		args := make([]*ast.Type, len(d.Args))
		for i, a := range d.Args {
			args[i] = m.rewriteType(a, subst)
		}
		mangled := MangleCall(d.Name, args)
		m.queueFunc(d.Name, args, mangled)
		callArgs := make([]*ast.Node, len(d.CallArgs))
		for i, a := range d.CallArgs {
			callArgs[i] = m.rewriteNode(a, subst)
		}
		out.Typ = ast.CALL
		out.Data = ast.CallData{
			Callee: &ast.Node{Typ: ast.VARIABLE, Span: n.Span, Data: ast.VariableData{Name: mangled}},
			Args:   callArgs,
		}
	default:
		out.Data = n.Data
	}
	return out
}

func (m *Monomorphizer) rewriteParams(params []ast.Param, subst map[string]*ast.Type) []ast.Param {
	out := make([]ast.Param, len(params))
	for i, p := range params {
		out[i] = ast.Param{Name: p.Name, Ty: m.rewriteType(p.Ty, subst)}
	}
	return out
}

func (m *Monomorphizer) rewritePattern(p ast.Pattern, subst map[string]*ast.Type) ast.Pattern {
	out := ast.Pattern{Kind: p.Kind, Name: p.Name, Literal: p.Literal, EnumName: p.EnumName, VariantName: p.VariantName}
	if len(p.SubPatterns) > 0 {
		out.SubPatterns = make([]ast.Pattern, len(p.SubPatterns))
		for i, sp := range p.SubPatterns {
			out.SubPatterns[i] = m.rewritePattern(sp, subst)
		}
	}
	return out
}
