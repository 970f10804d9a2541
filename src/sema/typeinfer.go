package sema

import (
	"github.com/Microindole/lency-sub000/src/ast"
)

// IsCompatible reports whether a value of type actual may be used where
// expected is required. expected is the context's required type (e.g. a
// declared variable type, a parameter type); actual is the type inferred for
// the value being placed there.
func IsCompatible(expected, actual *ast.Type) bool {
	if expected == nil || actual == nil {
		return false
	}
	if expected.Kind == ast.Error || actual.Kind == ast.Error {
		return true
	}
	if ast.Equal(expected, actual) {
		return true
	}
	// Float <- Int promotion.
	if expected.Kind == ast.Float && actual.Kind == ast.Int {
		return true
	}
	// null literal (Nullable(Error) placeholder) is compatible with any
	// nullable type.
	if expected.Kind == ast.Nullable && actual.Kind == ast.Nullable && actual.Elem != nil && actual.Elem.Kind == ast.Error {
		return true
	}
	// Nullable(T) <- U where T <- U.
	if expected.Kind == ast.Nullable {
		if IsCompatible(expected.Elem, actual) {
			return true
		}
	}
	// Vec(T) <- Vec(Void), the empty vec literal.
	if expected.Kind == ast.Vec && actual.Kind == ast.Vec && actual.Elem != nil && actual.Elem.Kind == ast.Void {
		return true
	}
	// Result{ok,err} <- Result{Void,err'} (from a bare `Err(e)`), where err <- err'.
	if expected.Kind == ast.Result && actual.Kind == ast.Result && actual.Ok != nil && actual.Ok.Kind == ast.Void {
		return IsCompatible(expected.Err, actual.Err)
	}
	return false
}

// NullLiteralType is the placeholder type assigned to the `null` literal:
// `Nullable(Error)`, treated specially by IsCompatible so it unifies with
// every nullable type.
func NullLiteralType() *ast.Type {
	return ast.NullableOf(ast.ErrorType())
}

// Infer performs bidirectional type inference over expr, consulting scopes
// for variable/function/struct/enum lookups and refinements, and records the
// result on expr.Ty so later passes (monomorphization, IR generation) never
// need to re-run inference.
func Infer(expr *ast.Node, scopes *ScopeStack) (*ast.Type, error) {
	ty, err := inferNode(expr, scopes)
	if expr != nil {
		expr.Ty = ty
	}
	return ty, err
}

func inferNode(expr *ast.Node, scopes *ScopeStack) (*ast.Type, error) {
	if expr == nil {
		return ast.VoidType(), nil
	}
	span := expr.Span
	switch expr.Typ {
	case ast.INT_LIT:
		return ast.IntType(), nil
	case ast.FLOAT_LIT:
		return ast.FloatType(), nil
	case ast.BOOL_LIT:
		return ast.BoolType(), nil
	case ast.STRING_LIT:
		return ast.StringType(), nil
	case ast.NULL_LIT:
		return NullLiteralType(), nil

	case ast.VARIABLE:
		data := expr.Data.(ast.VariableData)
		if ty, ok := scopes.LookupRefinement(data.Name); ok {
			return ty, nil
		}
		sym, ok := scopes.Lookup(data.Name)
		if !ok {
			return ast.ErrorType(), &UndefinedVariable{Name: data.Name, Span: span}
		}
		return symbolType(sym), nil

	case ast.BINARY:
		data := expr.Data.(ast.BinaryData)
		lt, err := Infer(data.Lhs, scopes)
		if err != nil {
			return ast.ErrorType(), err
		}
		rt, err := Infer(data.Rhs, scopes)
		if err != nil {
			return ast.ErrorType(), err
		}
		return InferBinary(data.Op, lt, rt, span)

	case ast.UNARY:
		data := expr.Data.(ast.UnaryData)
		ot, err := Infer(data.Operand, scopes)
		if err != nil {
			return ast.ErrorType(), err
		}
		return InferUnary(data.Op, ot, span)

	case ast.GET:
		return inferGet(expr, scopes, false)
	case ast.SAFE_GET:
		return inferGet(expr, scopes, true)

	case ast.INDEX:
		return inferIndex(expr, scopes)

	case ast.CALL:
		return inferCall(expr, scopes)

	case ast.ARRAY_LIT:
		data := expr.Data.(ast.ArrayLitData)
		if len(data.Elems) == 0 {
			if data.ElemHint != nil {
				return ast.ArrayOf(data.ElemHint, 0), nil
			}
			return ast.ErrorType(), &CannotInferType{Reason: "empty array literal needs an explicit type annotation", Span: span}
		}
		elemTy, err := Infer(data.Elems[0], scopes)
		if err != nil {
			return ast.ErrorType(), err
		}
		return ast.ArrayOf(elemTy, len(data.Elems)), nil

	case ast.VEC_LIT:
		data := expr.Data.(ast.VecLitData)
		if len(data.Elems) == 0 {
			if data.ElemHint != nil {
				return ast.VecOf(data.ElemHint), nil
			}
			return ast.VecOf(ast.VoidType()), nil
		}
		elemTy, err := Infer(data.Elems[0], scopes)
		if err != nil {
			return ast.ErrorType(), err
		}
		return ast.VecOf(elemTy), nil

	case ast.STRUCT_LIT:
		data := expr.Data.(ast.StructLitData)
		if _, ok := scopes.Lookup(data.TypeName); !ok {
			return ast.ErrorType(), &UndefinedType{Name: data.TypeName, Span: span}
		}
		for _, fi := range data.Fields {
			if _, err := Infer(fi.Value, scopes); err != nil {
				return ast.ErrorType(), err
			}
		}
		return ast.StructOf(data.TypeName), nil

	case ast.MATCH:
		return inferMatch(expr, scopes)

	case ast.PRINT:
		data := expr.Data.(ast.PrintData)
		for _, a := range data.Args {
			if _, err := Infer(a, scopes); err != nil {
				return ast.ErrorType(), err
			}
		}
		return ast.VoidType(), nil

	case ast.OK:
		data := expr.Data.(ast.OkData)
		okTy, err := Infer(data.Inner, scopes)
		if err != nil {
			return ast.ErrorType(), err
		}
		return ast.ResultOf(okTy, ast.StructOf("Error")), nil

	case ast.ERR:
		data := expr.Data.(ast.ErrData)
		if _, err := Infer(data.Inner, scopes); err != nil {
			return ast.ErrorType(), err
		}
		// A bare Err() always produces the degenerate Result<Void,Error>
		// shape; repacking into the enclosing function's Result<T,Error>
		// happens only at Return.
		return ast.ResultOf(ast.VoidType(), ast.StructOf("Error")), nil

	case ast.TRY:
		data := expr.Data.(ast.TryData)
		subjTy, err := Infer(data.Inner, scopes)
		if err != nil {
			return ast.ErrorType(), err
		}
		if subjTy.Kind == ast.Error {
			return ast.ErrorType(), nil
		}
		if subjTy.Kind != ast.Result {
			return ast.ErrorType(), &TypeMismatch{Expected: ast.ResultOf(ast.VoidType(), ast.StructOf("Error")), Actual: subjTy, Span: span}
		}
		return subjTy.Ok, nil

	case ast.CLOSURE:
		data := expr.Data.(ast.ClosureData)
		params := make([]*ast.Type, len(data.Params))
		for i, p := range data.Params {
			params[i] = p.Ty
		}
		return ast.FunctionOf(params, data.ReturnType), nil

	case ast.TURBOFISH:
		data := expr.Data.(ast.TurboFishData)
		sym, ok := scopes.Lookup(data.Name)
		if !ok {
			return ast.ErrorType(), &UndefinedFunction{Name: data.Name, Span: span}
		}
		fn, ok := sym.(FunctionSymbol)
		if !ok {
			return ast.ErrorType(), &NotCallable{Ty: ast.StructOf(data.Name), Span: span}
		}
		if len(data.Args) != len(fn.GenericParams) {
			return ast.ErrorType(), &GenericArityMismatch{Name: data.Name, Expected: len(fn.GenericParams), Got: len(data.Args), Span: span}
		}
		subst := make(map[string]*ast.Type, len(fn.GenericParams))
		for i, gp := range fn.GenericParams {
			subst[gp.Name] = data.Args[i]
		}
		return SubstituteType(fn.ReturnType, subst), nil
	}
	return ast.ErrorType(), &CannotInferType{Reason: "unhandled expression kind " + expr.Type(), Span: span}
}

func symbolType(sym Symbol) *ast.Type {
	switch s := sym.(type) {
	case VariableSymbol:
		return s.Ty
	case ParameterSymbol:
		return s.Ty
	case FunctionSymbol:
		params := make([]*ast.Type, len(s.Params))
		for i, p := range s.Params {
			params[i] = p.Ty
		}
		return ast.FunctionOf(params, s.ReturnType)
	case StructSymbol:
		return ast.StructOf(s.Name)
	case EnumSymbol:
		return ast.StructOf(s.Name)
	}
	return ast.ErrorType()
}

// inferGet handles `.field`/`?.field`, member and method lookup.
func inferGet(expr *ast.Node, scopes *ScopeStack, safe bool) (*ast.Type, error) {
	var object *ast.Node
	var name string
	if safe {
		d := expr.Data.(ast.SafeGetData)
		object, name = d.Object, d.Name
	} else {
		d := expr.Data.(ast.GetData)
		object, name = d.Object, d.Name
	}

	objTy, err := Infer(object, scopes)
	if err != nil {
		return ast.ErrorType(), err
	}

	if objTy.Kind == ast.Nullable {
		if !safe {
			// Member access through a nullable is rejected unless the
			// receiver variable has a refinement in the current scope.
			if v, ok := object.Data.(ast.VariableData); ok {
				if _, refined := scopes.LookupRefinement(v.Name); !refined {
					return ast.ErrorType(), &PossibleNullAccess{Name: v.Name, Span: expr.Span}
				}
				objTy = objTy.Elem
			} else {
				return ast.ErrorType(), &PossibleNullAccess{Name: name, Span: expr.Span}
			}
		} else {
			objTy = objTy.Elem
		}
	}

	if objTy.Kind == ast.Array && name == "length" {
		result := ast.IntType()
		if safe {
			return ast.NullableOf(result), nil
		}
		return result, nil
	}

	var fieldTy *ast.Type
	switch objTy.Kind {
	case ast.Struct:
		sym, ok := scopes.Lookup(objTy.Name)
		if !ok {
			return ast.ErrorType(), &UndefinedType{Name: objTy.Name, Span: expr.Span}
		}
		switch s := sym.(type) {
		case StructSymbol:
			if f, ok := s.Fields[name]; ok {
				fieldTy = f.Ty
			} else if m, ok := s.Methods[name]; ok {
				fieldTy = symbolType(m)
			} else {
				return ast.ErrorType(), &UndefinedField{Struct: objTy.Name, Field: name, Span: expr.Span}
			}
		case EnumSymbol:
			if m, ok := s.Methods[name]; ok {
				fieldTy = symbolType(m)
			} else {
				return ast.ErrorType(), &UndefinedMethod{Ty: objTy, Method: name, Span: expr.Span}
			}
		default:
			return ast.ErrorType(), &NotAStruct{Name: objTy.Name, Span: expr.Span}
		}
	case ast.Generic:
		sym, ok := scopes.Lookup(objTy.Name)
		if !ok {
			return ast.ErrorType(), &UndefinedType{Name: objTy.Name, Span: expr.Span}
		}
		s, ok := sym.(StructSymbol)
		if !ok {
			return ast.ErrorType(), &NotAStruct{Name: objTy.Name, Span: expr.Span}
		}
		subst := make(map[string]*ast.Type, len(s.GenericParams))
		for i, gp := range s.GenericParams {
			if i < len(objTy.Args) {
				subst[gp.Name] = objTy.Args[i]
			}
		}
		if f, ok := s.Fields[name]; ok {
			fieldTy = SubstituteType(f.Ty, subst)
		} else if m, ok := s.Methods[name]; ok {
			fieldTy = SubstituteType(symbolType(m), subst)
		} else {
			return ast.ErrorType(), &UndefinedField{Struct: objTy.Name, Field: name, Span: expr.Span}
		}
	case ast.GenericParam:
		// Consult the bound trait for method lookup on a generic receiver.
		sym, ok := scopes.Lookup(objTy.Name)
		if !ok {
			return ast.ErrorType(), &UndefinedType{Name: objTy.Name, Span: expr.Span}
		}
		gp, ok := sym.(GenericParamSymbol)
		if !ok || gp.Bound == "" {
			return ast.ErrorType(), &UndefinedMethod{Ty: objTy, Method: name, Span: expr.Span}
		}
		traitSym, ok := scopes.Lookup(gp.Bound)
		if !ok {
			return ast.ErrorType(), &UndefinedTrait{Name: gp.Bound, Span: expr.Span}
		}
		trait, ok := traitSym.(TraitSymbol)
		if !ok {
			return ast.ErrorType(), &UndefinedTrait{Name: gp.Bound, Span: expr.Span}
		}
		for _, m := range trait.Methods {
			if m.Name == name {
				params := make([]*ast.Type, len(m.Params))
				for i, p := range m.Params {
					params[i] = p.Ty
				}
				fieldTy = ast.FunctionOf(params, m.ReturnType)
				break
			}
		}
		if fieldTy == nil {
			return ast.ErrorType(), &UndefinedMethod{Ty: objTy, Method: name, Span: expr.Span}
		}
	case ast.Error:
		return ast.ErrorType(), nil
	default:
		return ast.ErrorType(), &UndefinedField{Struct: objTy.String(), Field: name, Span: expr.Span}
	}

	if safe {
		return ast.NullableOf(fieldTy), nil
	}
	return fieldTy, nil
}

func inferIndex(expr *ast.Node, scopes *ScopeStack) (*ast.Type, error) {
	data := expr.Data.(ast.IndexData)
	objTy, err := Infer(data.Object, scopes)
	if err != nil {
		return ast.ErrorType(), err
	}
	idxTy, err := Infer(data.Index, scopes)
	if err != nil {
		return ast.ErrorType(), err
	}
	if idxTy.Kind != ast.Int && idxTy.Kind != ast.Error {
		return ast.ErrorType(), &TypeMismatch{Expected: ast.IntType(), Actual: idxTy, Span: expr.Span}
	}
	switch objTy.Kind {
	case ast.Array:
		if lit, ok := data.Index.Data.(ast.IntLitData); ok {
			idx := int(lit.Value)
			if idx < 0 || idx >= objTy.Size {
				return ast.ErrorType(), &ArrayIndexOutOfBounds{Index: idx, Size: objTy.Size, Span: expr.Span}
			}
		}
		return objTy.Elem, nil
	case ast.Vec:
		return objTy.Elem, nil
	case ast.Error:
		return ast.ErrorType(), nil
	default:
		return ast.ErrorType(), &TypeMismatch{Expected: ast.ArrayOf(ast.ErrorType(), 0), Actual: objTy, Span: expr.Span}
	}
}

func inferCall(expr *ast.Node, scopes *ScopeStack) (*ast.Type, error) {
	data := expr.Data.(ast.CallData)

	switch callee := data.Callee; callee.Typ {
	case ast.VARIABLE:
		name := callee.Data.(ast.VariableData).Name
		sym, ok := scopes.Lookup(name)
		if !ok {
			return ast.ErrorType(), &UndefinedFunction{Name: name, Span: expr.Span}
		}
		switch s := sym.(type) {
		case FunctionSymbol:
			if len(data.Args) != len(s.Params) {
				return ast.ErrorType(), &ArgumentCountMismatch{Name: name, Expected: len(s.Params), Got: len(data.Args), Span: expr.Span}
			}
			for _, a := range data.Args {
				if _, err := Infer(a, scopes); err != nil {
					return ast.ErrorType(), err
				}
			}
			return s.ReturnType, nil
		case StructSymbol:
			// Constructor call.
			return ast.StructOf(s.Name), nil
		default:
			return ast.ErrorType(), &NotCallable{Ty: symbolType(sym), Span: expr.Span}
		}
	case ast.GET:
		// obj.method(args): method lookup on the object's static type.
		retTy, err := inferGet(callee, scopes, false)
		if err != nil {
			return ast.ErrorType(), err
		}
		if retTy.Kind != ast.Function {
			return ast.ErrorType(), &NotCallable{Ty: retTy, Span: expr.Span}
		}
		for _, a := range data.Args {
			if _, err := Infer(a, scopes); err != nil {
				return ast.ErrorType(), err
			}
		}
		return retTy.Ret, nil
	default:
		calleeTy, err := Infer(callee, scopes)
		if err != nil {
			return ast.ErrorType(), err
		}
		if calleeTy.Kind != ast.Function {
			return ast.ErrorType(), &NotCallable{Ty: calleeTy, Span: expr.Span}
		}
		return calleeTy.Ret, nil
	}
}

func inferMatch(expr *ast.Node, scopes *ScopeStack) (*ast.Type, error) {
	data := expr.Data.(ast.MatchData)
	subjTy, err := Infer(data.Subject, scopes)
	if err != nil {
		return ast.ErrorType(), err
	}
	var armTy *ast.Type
	for i, c := range data.Cases {
		scopes.Enter(ScopeBlock)
		if err := bindPattern(c.Pattern, subjTy, scopes, expr.Span); err != nil {
			scopes.Exit()
			return ast.ErrorType(), err
		}
		ty, err := Infer(c.Body, scopes)
		scopes.Exit()
		if err != nil {
			return ast.ErrorType(), err
		}
		if i == 0 {
			armTy = ty
		} else if !IsCompatible(armTy, ty) && !IsCompatible(ty, armTy) {
			return ast.ErrorType(), &TypeMismatch{Expected: armTy, Actual: ty, Span: expr.Span}
		}
	}
	if armTy == nil {
		return ast.VoidType(), nil
	}
	return armTy, nil
}

// bindPattern installs the variable bindings a pattern introduces into the
// current (already-entered) scope, given the statically-known subject type.
func bindPattern(p ast.Pattern, subjTy *ast.Type, scopes *ScopeStack, span ast.Span) error {
	switch p.Kind {
	case ast.PatWildcard, ast.PatLiteral:
		return nil
	case ast.PatVariable:
		_, err := scopes.Define(NewVariableSymbol(p.Name, subjTy, false, span))
		return err
	case ast.PatVariant:
		if subjTy.Kind != ast.Struct {
			return nil
		}
		sym, ok := scopes.Lookup(subjTy.Name)
		if !ok {
			return &UndefinedType{Name: subjTy.Name, Span: span}
		}
		enum, ok := sym.(EnumSymbol)
		if !ok {
			return nil
		}
		fieldTypes, ok := enum.Variants[p.VariantName]
		if !ok {
			return &UndefinedField{Struct: subjTy.Name, Field: p.VariantName, Span: span}
		}
		for i, sub := range p.SubPatterns {
			var ft *ast.Type
			if i < len(fieldTypes) {
				ft = fieldTypes[i]
			} else {
				ft = ast.ErrorType()
			}
			if err := bindPattern(sub, ft, scopes, span); err != nil {
				return err
			}
		}
	}
	return nil
}

// SubstituteType walks t, replacing every GenericParam(name) and
// Struct(name) whose name is a key of subst with subst[name].
func SubstituteType(t *ast.Type, subst map[string]*ast.Type) *ast.Type {
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
	case ast.Nullable:
		return ast.NullableOf(SubstituteType(t.Elem, subst))
	case ast.Array:
		return ast.ArrayOf(SubstituteType(t.Elem, subst), t.Size)
	case ast.Vec:
		return ast.VecOf(SubstituteType(t.Elem, subst))
	case ast.Generic:
		args := make([]*ast.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = SubstituteType(a, subst)
		}
		return ast.GenericOf(t.Name, args)
	case ast.Result:
		return ast.ResultOf(SubstituteType(t.Ok, subst), SubstituteType(t.Err, subst))
	case ast.Function:
		params := make([]*ast.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = SubstituteType(p, subst)
		}
		return ast.FunctionOf(params, SubstituteType(t.Ret, subst))
	default:
		return t
	}
}
