package sema

import (
	"github.com/Microindole/lency-sub000/src/ast"
)

// ModuleLoader reads and parses the module addressed by path, returning its
// top-level declarations. The lexer/parser themselves live outside this
// module; Resolver only needs something that looks like one, so tests
// supply a fake loader rather than a real file-backed one. A nil Loader
// makes every Import a no-op ImportError, which is the correct behaviour
// for a compilation unit compiled standalone.
type ModuleLoader interface {
	Load(path string) (*ast.Program, error)
}

// Resolver drives Pass 1 (CollectDecl), Pass 1.5 (CollectImplMethods) and
// Pass 2 (ResolveDecl/ResolveStmt/ResolveExpr) over one compilation unit.
// Errors are accumulated rather than returned eagerly so a single pass
// surfaces every diagnostic it can.
type Resolver struct {
	Scopes  *ScopeStack
	Errors  []SemanticError
	Loader  ModuleLoader
	visited map[string]bool
}

// NewResolver returns a resolver seeded with a fresh global scope.
func NewResolver(loader ModuleLoader) *Resolver {
	return &Resolver{
		Scopes:  NewScopeStack(),
		Loader:  loader,
		visited: make(map[string]bool),
	}
}

func (r *Resolver) fail(err SemanticError) {
	r.Errors = append(r.Errors, err)
}

// normalizeType rewrites Struct(name) to GenericParam(name) wherever name
// names an in-scope generic parameter — the parser cannot tell the two
// apart on its own — and recurses into compound types.
func (r *Resolver) normalizeType(t *ast.Type, generics map[string]bool) *ast.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case ast.Struct:
		if generics[t.Name] {
			return ast.GenericParamOf(t.Name)
		}
		return t
	case ast.Nullable:
		return ast.NullableOf(r.normalizeType(t.Elem, generics))
	case ast.Array:
		return ast.ArrayOf(r.normalizeType(t.Elem, generics), t.Size)
	case ast.Vec:
		return ast.VecOf(r.normalizeType(t.Elem, generics))
	case ast.Generic:
		args := make([]*ast.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = r.normalizeType(a, generics)
		}
		return ast.GenericOf(t.Name, args)
	case ast.Result:
		return ast.ResultOf(r.normalizeType(t.Ok, generics), r.normalizeType(t.Err, generics))
	case ast.Function:
		params := make([]*ast.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = r.normalizeType(p, generics)
		}
		return ast.FunctionOf(params, r.normalizeType(t.Ret, generics))
	default:
		return t
	}
}

func genericSet(gp []ast.GenericParamDecl) map[string]bool {
	m := make(map[string]bool, len(gp))
	for _, g := range gp {
		m[g.Name] = true
	}
	return m
}

// CollectDecl is Pass 1: register decl's top-level symbol in the global
// scope. IMPORT declarations are expanded in place and their nested decls
// collected too; every other declaration kind defines exactly one symbol.
func (r *Resolver) CollectDecl(decl *ast.Node) {
	switch decl.Typ {
	case ast.IMPORT:
		data := decl.Data.(ast.ImportData)
		for _, item := range data.Items {
			r.resolveImport(item, decl.Span)
		}

	case ast.VAR_DECL:
		data := decl.Data.(ast.VarDeclData)
		ty := data.Ty
		if ty == nil {
			ty = ast.VoidType()
		}
		ty = r.normalizeType(ty, nil)
		if _, err := r.Scopes.Define(NewVariableSymbol(data.Name, ty, true, decl.Span)); err != nil {
			r.fail(err.(SemanticError))
		}

	case ast.FUNCTION, ast.EXTERN_FUNCTION:
		data := decl.Data.(ast.FunctionData)
		generics := genericSet(data.GenericParams)
		params := make([]ast.Param, len(data.Params))
		for i, p := range data.Params {
			params[i] = ast.Param{Name: p.Name, Ty: r.normalizeType(p.Ty, generics)}
		}
		ret := r.normalizeType(data.ReturnType, generics)
		sym := NewGenericFunctionSymbol(data.Name, data.GenericParams, params, ret, decl.Span)
		if _, err := r.Scopes.Define(sym); err != nil {
			r.fail(err.(SemanticError))
		}

	case ast.STRUCT:
		data := decl.Data.(ast.StructData)
		generics := genericSet(data.GenericParams)
		sym := NewGenericStructSymbol(data.Name, data.GenericParams, decl.Span)
		for _, f := range data.Fields {
			sym.AddField(f.Name, r.normalizeType(f.Ty, generics), decl.Span)
		}
		if _, err := r.Scopes.Define(sym); err != nil {
			r.fail(err.(SemanticError))
		}

	case ast.ENUM:
		data := decl.Data.(ast.EnumData)
		generics := genericSet(data.GenericParams)
		sym := NewGenericEnumSymbol(data.Name, data.GenericParams, decl.Span)
		for _, v := range data.Variants {
			types := make([]*ast.Type, len(v.Types))
			for i, t := range v.Types {
				types[i] = r.normalizeType(t, generics)
			}
			sym.AddVariant(v.Name, types)
		}
		if _, err := r.Scopes.Define(sym); err != nil {
			r.fail(err.(SemanticError))
		}

	case ast.TRAIT:
		data := decl.Data.(ast.TraitData)
		generics := genericSet(data.GenericParams)
		sym := NewGenericTraitSymbol(data.Name, data.GenericParams, decl.Span)
		for _, m := range data.Methods {
			params := make([]ast.Param, len(m.Params))
			for i, p := range m.Params {
				params[i] = ast.Param{Name: p.Name, Ty: r.normalizeType(p.Ty, generics)}
			}
			sym.AddMethod(ast.TraitMethodSig{Name: m.Name, Params: params, ReturnType: r.normalizeType(m.ReturnType, generics)})
		}
		if _, err := r.Scopes.Define(sym); err != nil {
			r.fail(err.(SemanticError))
		}

	case ast.IMPL:
		// Deferred to Pass 1.5: every Struct/Enum must exist first.
	}
}

// resolveImport implements a single import item, merging the loaded
// module's declarations directly (plain import) or wrapping them behind a
// synthetic `M__Module` struct plus an `M` global of that type
// (`import "x" as M`).
func (r *Resolver) resolveImport(item ast.ImportItem, span ast.Span) {
	if r.visited[item.Path] {
		return
	}
	r.visited[item.Path] = true

	if r.Loader == nil {
		r.fail(&ImportError{Path: item.Path, Msg: "no module loader configured", Span: span})
		return
	}
	prog, err := r.Loader.Load(item.Path)
	if err != nil {
		r.fail(&ImportError{Path: item.Path, Msg: err.Error(), Span: span})
		return
	}

	if item.Alias == "" {
		for _, d := range prog.Decls {
			r.CollectDecl(d)
		}
		return
	}

	alias := NewStructSymbol(item.Alias+"__Module", span)
	for _, d := range prog.Decls {
		if d.Typ != ast.FUNCTION {
			r.CollectDecl(d)
			continue
		}
		data := d.Data.(ast.FunctionData)
		params := make([]ast.Param, len(data.Params))
		for i, p := range data.Params {
			params[i] = ast.Param{Name: p.Name, Ty: p.Ty}
		}
		alias.AddMethod(data.Name, NewFunctionSymbol(data.Name, params, data.ReturnType, d.Span))
	}
	// The struct (`Math__Module`) and the global (`Math`) have distinct
	// names; a member access `Math.square` resolves through the global's
	// Struct(Math__Module) type to the struct's Methods.
	if _, err := r.Scopes.Define(alias); err != nil {
		r.fail(err.(SemanticError))
	}
	if _, err := r.Scopes.Define(NewVariableSymbol(item.Alias, ast.StructOf(alias.Name), false, span)); err != nil {
		r.fail(err.(SemanticError))
	}
}

// CollectImplMethods is Pass 1.5: attach impl block methods to their target
// Struct/Enum symbol and check trait conformance.
func (r *Resolver) CollectImplMethods(decl *ast.Node) {
	if decl.Typ != ast.IMPL {
		return
	}
	data := decl.Data.(ast.ImplData)
	targetName := implTargetName(data.TypeName)

	id, ok := r.Scopes.LookupId(targetName)
	if !ok {
		r.fail(&UndefinedType{Name: targetName, Span: decl.Span})
		return
	}
	generics := genericSet(data.GenericParams)

	var traitSym TraitSymbol
	var haveTrait bool
	var subst map[string]*ast.Type
	if data.TraitName != "" {
		tsym, ok := r.Scopes.Lookup(data.TraitName)
		if !ok {
			r.fail(&UndefinedTrait{Name: data.TraitName, Span: decl.Span})
			return
		}
		traitSym, haveTrait = tsym.(TraitSymbol)
		subst = make(map[string]*ast.Type)
		if data.TypeName.Kind == ast.Generic && haveTrait {
			for i, arg := range data.TypeName.Args {
				if i < len(traitSym.GenericParams) {
					subst[traitSym.GenericParams[i].Name] = arg
				}
			}
		}
	}

	type built struct {
		name string
		fn   FunctionSymbol
	}
	var toAdd []built
	implemented := map[string]bool{}
	for _, m := range data.Methods {
		fd := m.Data.(ast.FunctionData)
		params := make([]ast.Param, len(fd.Params))
		for i, p := range fd.Params {
			params[i] = ast.Param{Name: p.Name, Ty: r.normalizeType(p.Ty, generics)}
		}
		ret := r.normalizeType(fd.ReturnType, generics)
		fn := NewFunctionSymbol(fd.Name, params, ret, m.Span)
		toAdd = append(toAdd, built{fd.Name, fn})
		implemented[fd.Name] = true

		if haveTrait {
			sig, found := traitMethodSig(traitSym, fd.Name)
			if !found {
				continue // methods beyond the trait's are allowed (inherent extension)
			}
			if !signatureMatches(sig, fn, subst) {
				r.fail(&TraitMethodSignatureMismatch{Trait: data.TraitName, Method: fd.Name, Struct: targetName, Span: m.Span})
			}
		}
	}

	if haveTrait {
		for _, sig := range traitSym.Methods {
			if !implemented[sig.Name] {
				r.fail(&MissingTraitMethod{Trait: data.TraitName, Method: sig.Name, Struct: targetName, Span: decl.Span})
			}
		}
	}

	r.Scopes.GetMut(id, func(sym Symbol) Symbol {
		switch s := sym.(type) {
		case StructSymbol:
			for _, b := range toAdd {
				s.AddMethod(b.name, b.fn)
			}
			return s
		case EnumSymbol:
			for _, b := range toAdd {
				s.Methods[b.name] = b.fn
			}
			return s
		default:
			r.fail(&NotAStruct{Name: targetName, Span: decl.Span})
			return sym
		}
	})
}

func implTargetName(t *ast.Type) string {
	switch t.Kind {
	case ast.Struct:
		return t.Name
	case ast.Generic:
		return t.Name
	case ast.Int:
		return "int"
	case ast.Bool:
		return "bool"
	case ast.String:
		return "string"
	case ast.Float:
		return "float"
	case ast.Result:
		return "Result"
	default:
		return t.String()
	}
}

func traitMethodSig(t TraitSymbol, name string) (ast.TraitMethodSig, bool) {
	for _, m := range t.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return ast.TraitMethodSig{}, false
}

func signatureMatches(sig ast.TraitMethodSig, fn FunctionSymbol, subst map[string]*ast.Type) bool {
	if len(sig.Params) != len(fn.Params) {
		return false
	}
	for i, p := range sig.Params {
		want := SubstituteType(p.Ty, subst)
		if !ast.Equal(want, fn.Params[i].Ty) {
			return false
		}
	}
	return ast.Equal(SubstituteType(sig.ReturnType, subst), fn.ReturnType)
}

// ResolveDecl is Pass 2: descend into bodies, binding parameters/locals and
// type-checking every statement.
func (r *Resolver) ResolveDecl(decl *ast.Node) {
	switch decl.Typ {
	case ast.FUNCTION:
		data := decl.Data.(ast.FunctionData)
		r.Scopes.Enter(ScopeFunction)
		for _, gp := range data.GenericParams {
			if _, err := r.Scopes.Define(NewGenericParamSymbol(gp.Name, gp.Bound, decl.Span)); err != nil {
				r.fail(err.(SemanticError))
			}
		}
		for i, p := range data.Params {
			if _, err := r.Scopes.Define(ParameterSymbol{Name: p.Name, Ty: p.Ty, Index: i, Span: decl.Span}); err != nil {
				r.fail(err.(SemanticError))
			}
		}
		if data.Body != nil {
			r.ResolveStmt(data.Body, data.ReturnType)
		}
		r.Scopes.Exit()

	case ast.EXTERN_FUNCTION:
		// No body.

	case ast.STRUCT:
		data := decl.Data.(ast.StructData)
		if len(data.GenericParams) > 0 {
			r.Scopes.Enter(ScopeBlock)
			for _, gp := range data.GenericParams {
				if _, err := r.Scopes.Define(NewGenericParamSymbol(gp.Name, gp.Bound, decl.Span)); err != nil {
					r.fail(err.(SemanticError))
				}
			}
			r.Scopes.Exit()
		}

	case ast.IMPL:
		data := decl.Data.(ast.ImplData)
		for _, m := range data.Methods {
			r.Scopes.Enter(ScopeFunction)
			for _, gp := range data.GenericParams {
				if _, err := r.Scopes.Define(NewGenericParamSymbol(gp.Name, gp.Bound, decl.Span)); err != nil {
					r.fail(err.(SemanticError))
				}
			}
			fd := m.Data.(ast.FunctionData)
			if _, err := r.Scopes.Define(ParameterSymbol{Name: "self", Ty: data.TypeName, Index: 0, Span: m.Span}); err != nil {
				r.fail(err.(SemanticError))
			}
			for i, p := range fd.Params {
				if _, err := r.Scopes.Define(ParameterSymbol{Name: p.Name, Ty: p.Ty, Index: i + 1, Span: m.Span}); err != nil {
					r.fail(err.(SemanticError))
				}
			}
			if fd.Body != nil {
				r.ResolveStmt(fd.Body, fd.ReturnType)
			}
			r.Scopes.Exit()
		}

	case ast.TRAIT, ast.ENUM:
		// Signatures were fully normalized in Pass 1; nothing further to
		// resolve without a body.

	case ast.VAR_DECL:
		data := decl.Data.(ast.VarDeclData)
		if data.Value != nil {
			r.resolveExprChecked(data.Value, data.Ty)
		}

	case ast.IMPORT:
		// No-op: handled entirely in Pass 1.
	}
}

// ResolveStmt type-checks a statement, descending into nested blocks and
// installing/removing null-safety refinements as control flow demands.
// expectedReturn is the enclosing function's declared return type, used to
// validate RETURN statements.
func (r *Resolver) ResolveStmt(stmt *ast.Node, expectedReturn *ast.Type) {
	if stmt == nil {
		return
	}
	switch stmt.Typ {
	case ast.BLOCK:
		r.Scopes.Enter(ScopeBlock)
		for _, s := range stmt.Children {
			r.ResolveStmt(s, expectedReturn)
		}
		r.Scopes.Exit()

	case ast.VAR_DECL:
		data := stmt.Data.(ast.VarDeclData)
		var declTy *ast.Type
		if data.Value != nil {
			vt, err := Infer(data.Value, r.Scopes)
			if err != nil {
				r.fail(err.(SemanticError))
			}
			declTy = vt
		}
		if data.Ty != nil {
			declTy = r.normalizeType(data.Ty, nil)
			if data.Value != nil {
				if data.Value.Typ == ast.NULL_LIT && declTy.Kind != ast.Nullable {
					r.fail(&NullAssignmentToNonNullable{Name: data.Name, Ty: declTy, Span: stmt.Span})
				} else if vt, err := Infer(data.Value, r.Scopes); err == nil && !IsCompatible(declTy, vt) {
					r.fail(&TypeMismatch{Expected: declTy, Actual: vt, Span: stmt.Span})
				}
			}
		}
		if declTy == nil {
			declTy = ast.VoidType()
		}
		if _, err := r.Scopes.Define(NewVariableSymbol(data.Name, declTy, true, stmt.Span)); err != nil {
			r.fail(err.(SemanticError))
		}

	case ast.ASSIGNMENT:
		data := stmt.Data.(ast.AssignmentData)
		targetTy, err := Infer(data.Target, r.Scopes)
		if err != nil {
			r.fail(err.(SemanticError))
		}
		valTy := r.resolveExprChecked(data.Value, targetTy)
		if name, ok := targetName(data.Target); ok {
			r.Scopes.InvalidateRefinement(name)
			if data.Value.Typ == ast.NULL_LIT && targetTy.Kind != ast.Nullable {
				r.fail(&NullAssignmentToNonNullable{Name: name, Ty: targetTy, Span: stmt.Span})
			}
		}
		_ = valTy

	case ast.IF:
		data := stmt.Data.(ast.IfData)
		if _, err := Infer(data.Cond, r.Scopes); err != nil {
			r.fail(err.(SemanticError))
		}
		name, thenIsNonNull, ok := narrowingFromCondition(data.Cond)
		var elemTy *ast.Type
		if ok {
			if sym, found := r.Scopes.Lookup(name); found {
				if vt := symbolType(sym); vt.Kind == ast.Nullable {
					elemTy = vt.Elem
				}
			}
		}
		// A BLOCK branch's statements are resolved directly in the scope
		// holding the refinement, since refinements are only looked up in
		// the current scope.
		resolveBranch := func(b *ast.Node) {
			if b == nil || b.Typ != ast.BLOCK {
				r.ResolveStmt(b, expectedReturn)
				return
			}
			for _, s := range b.Children {
				r.ResolveStmt(s, expectedReturn)
			}
		}
		r.Scopes.Enter(ScopeBlock)
		if ok && elemTy != nil && thenIsNonNull {
			r.Scopes.AddRefinement(name, elemTy)
		}
		resolveBranch(data.Then)
		r.Scopes.Exit()
		if data.Else != nil {
			r.Scopes.Enter(ScopeBlock)
			if ok && elemTy != nil && !thenIsNonNull {
				r.Scopes.AddRefinement(name, elemTy)
			}
			resolveBranch(data.Else)
			r.Scopes.Exit()
		}

	case ast.WHILE:
		data := stmt.Data.(ast.WhileData)
		if _, err := Infer(data.Cond, r.Scopes); err != nil {
			r.fail(err.(SemanticError))
		}
		r.Scopes.Enter(ScopeBlock)
		r.ResolveStmt(data.Body, expectedReturn)
		r.Scopes.Exit()

	case ast.FOR:
		data := stmt.Data.(ast.ForData)
		r.Scopes.Enter(ScopeBlock)
		if data.Init != nil {
			r.ResolveStmt(data.Init, expectedReturn)
		}
		if data.Cond != nil {
			if _, err := Infer(data.Cond, r.Scopes); err != nil {
				r.fail(err.(SemanticError))
			}
		}
		if data.Update != nil {
			r.ResolveStmt(data.Update, expectedReturn)
		}
		r.ResolveStmt(data.Body, expectedReturn)
		r.Scopes.Exit()

	case ast.FOR_IN:
		data := stmt.Data.(ast.ForInData)
		iterTy, err := Infer(data.Iter, r.Scopes)
		if err != nil {
			r.fail(err.(SemanticError))
		}
		var elemTy *ast.Type
		switch iterTy.Kind {
		case ast.Array, ast.Vec:
			elemTy = iterTy.Elem
		default:
			elemTy = ast.ErrorType()
		}
		r.Scopes.Enter(ScopeBlock)
		if _, err := r.Scopes.Define(NewVariableSymbol(data.VarName, elemTy, false, stmt.Span)); err != nil {
			r.fail(err.(SemanticError))
		}
		r.ResolveStmt(data.Body, expectedReturn)
		r.Scopes.Exit()

	case ast.RETURN:
		data := stmt.Data.(ast.ReturnData)
		if data.Value == nil {
			if expectedReturn != nil && expectedReturn.Kind != ast.Void {
				r.fail(&ReturnTypeMismatch{Expected: expectedReturn, Actual: ast.VoidType(), Span: stmt.Span})
			}
			return
		}
		r.resolveExprChecked(data.Value, expectedReturn)

	case ast.BREAK:
		if !r.Scopes.IsInFunction() {
			r.fail(&BreakOutsideLoop{Span: stmt.Span})
		}

	case ast.CONTINUE:
		if !r.Scopes.IsInFunction() {
			r.fail(&ContinueOutsideLoop{Span: stmt.Span})
		}

	case ast.EXPR_STMT:
		data := stmt.Children
		if len(data) == 1 {
			if _, err := Infer(data[0], r.Scopes); err != nil {
				r.fail(err.(SemanticError))
			}
		}

	default:
		if _, err := Infer(stmt, r.Scopes); err != nil {
			r.fail(err.(SemanticError))
		}
	}
}

// resolveExprChecked infers expr's type and, when expected is non-nil,
// checks compatibility, reporting whichever error applies.
func (r *Resolver) resolveExprChecked(expr *ast.Node, expected *ast.Type) *ast.Type {
	ty, err := Infer(expr, r.Scopes)
	if err != nil {
		r.fail(err.(SemanticError))
		return ast.ErrorType()
	}
	if expected != nil && ty.Kind != ast.Error && !IsCompatible(expected, ty) {
		r.fail(&TypeMismatch{Expected: expected, Actual: ty, Span: expr.Span})
	}
	return ty
}

func targetName(n *ast.Node) (string, bool) {
	if n.Typ == ast.VARIABLE {
		return n.Data.(ast.VariableData).Name, true
	}
	return "", false
}

// narrowingFromCondition recognises the two null-narrowing idioms:
// `x != null` / `null != x` narrows x to non-null in the then-branch;
// `x == null` / `null == x` narrows it to non-null in the else-branch
// instead. Any other condition shape yields ok=false.
func narrowingFromCondition(cond *ast.Node) (name string, thenIsNonNull bool, ok bool) {
	if cond.Typ != ast.BINARY {
		return "", false, false
	}
	data := cond.Data.(ast.BinaryData)
	if data.Op != ast.Eq && data.Op != ast.Neq {
		return "", false, false
	}
	var varNode *ast.Node
	if data.Lhs.Typ == ast.VARIABLE && data.Rhs.Typ == ast.NULL_LIT {
		varNode = data.Lhs
	} else if data.Rhs.Typ == ast.VARIABLE && data.Lhs.Typ == ast.NULL_LIT {
		varNode = data.Rhs
	} else {
		return "", false, false
	}
	name = varNode.Data.(ast.VariableData).Name
	return name, data.Op == ast.Neq, true
}
