package sema

import "github.com/Microindole/lency-sub000/src/ast"

// Symbol is the interface common to every entry the ScopeStack stores,
// implemented by one struct per concrete symbol kind rather than a single
// struct with every field optional, the same way the error taxonomy in
// errors.go is split.
type Symbol interface {
	SymbolName() string
	SymbolSpan() ast.Span
}

// VariableSymbol is a local or global `var` binding.
type VariableSymbol struct {
	Name    string
	Ty      *ast.Type
	Mutable bool
	Span    ast.Span
}

func NewVariableSymbol(name string, ty *ast.Type, mutable bool, span ast.Span) VariableSymbol {
	return VariableSymbol{Name: name, Ty: ty, Mutable: mutable, Span: span}
}

func (s VariableSymbol) SymbolName() string  { return s.Name }
func (s VariableSymbol) SymbolSpan() ast.Span { return s.Span }

// ParameterSymbol is a function/method formal parameter bound in its
// function's scope.
type ParameterSymbol struct {
	Name  string
	Ty    *ast.Type
	Index int
	Span  ast.Span
}

func (s ParameterSymbol) SymbolName() string  { return s.Name }
func (s ParameterSymbol) SymbolSpan() ast.Span { return s.Span }

// FunctionSymbol is a free function, extern function, or impl method.
type FunctionSymbol struct {
	Name          string
	GenericParams []ast.GenericParamDecl
	Params        []ast.Param
	ReturnType    *ast.Type
	Public        bool
	Span          ast.Span
}

// NewFunctionSymbol builds a non-generic function symbol.
func NewFunctionSymbol(name string, params []ast.Param, ret *ast.Type, span ast.Span) FunctionSymbol {
	return FunctionSymbol{Name: name, Params: params, ReturnType: ret, Span: span}
}

// NewGenericFunctionSymbol builds a function symbol carrying formal generic
// parameters, mirroring FunctionSymbol::new_generic.
func NewGenericFunctionSymbol(name string, gp []ast.GenericParamDecl, params []ast.Param, ret *ast.Type, span ast.Span) FunctionSymbol {
	return FunctionSymbol{Name: name, GenericParams: gp, Params: params, ReturnType: ret, Span: span}
}

func (s FunctionSymbol) SymbolName() string  { return s.Name }
func (s FunctionSymbol) SymbolSpan() ast.Span { return s.Span }
func (s FunctionSymbol) IsGeneric() bool      { return len(s.GenericParams) > 0 }

// StructFieldInfo pairs a struct field's type with its declaration span.
type StructFieldInfo struct {
	Ty   *ast.Type
	Span ast.Span
}

// StructSymbol is a struct declaration, including methods attached from
// `impl` blocks during resolver Pass 1.5.
type StructSymbol struct {
	Name          string
	GenericParams []ast.GenericParamDecl
	Fields        map[string]StructFieldInfo
	FieldOrder    []string // Declaration order, for codegen layout.
	Methods       map[string]FunctionSymbol
	Span          ast.Span
}

func NewStructSymbol(name string, span ast.Span) StructSymbol {
	return StructSymbol{Name: name, Fields: map[string]StructFieldInfo{}, Methods: map[string]FunctionSymbol{}, Span: span}
}

func NewGenericStructSymbol(name string, gp []ast.GenericParamDecl, span ast.Span) StructSymbol {
	s := NewStructSymbol(name, span)
	s.GenericParams = gp
	return s
}

func (s *StructSymbol) AddField(name string, ty *ast.Type, span ast.Span) {
	s.Fields[name] = StructFieldInfo{Ty: ty, Span: span}
	s.FieldOrder = append(s.FieldOrder, name)
}

func (s *StructSymbol) AddMethod(name string, fn FunctionSymbol) {
	s.Methods[name] = fn
}

func (s StructSymbol) SymbolName() string  { return s.Name }
func (s StructSymbol) SymbolSpan() ast.Span { return s.Span }
func (s StructSymbol) IsGeneric() bool      { return len(s.GenericParams) > 0 }

// EnumSymbol is an enum declaration.
type EnumSymbol struct {
	Name          string
	GenericParams []ast.GenericParamDecl
	Variants      map[string][]*ast.Type
	VariantOrder  []string // Declaration order = tag index in the lowered enum layout.
	Methods       map[string]FunctionSymbol
	Span          ast.Span
}

func NewEnumSymbol(name string, span ast.Span) EnumSymbol {
	return EnumSymbol{Name: name, Variants: map[string][]*ast.Type{}, Methods: map[string]FunctionSymbol{}, Span: span}
}

func NewGenericEnumSymbol(name string, gp []ast.GenericParamDecl, span ast.Span) EnumSymbol {
	e := NewEnumSymbol(name, span)
	e.GenericParams = gp
	return e
}

func (e *EnumSymbol) AddVariant(name string, types []*ast.Type) {
	e.Variants[name] = types
	e.VariantOrder = append(e.VariantOrder, name)
}

// TagOf returns the declaration-order tag index of a variant name.
func (e EnumSymbol) TagOf(variant string) (int, bool) {
	for i, n := range e.VariantOrder {
		if n == variant {
			return i, true
		}
	}
	return 0, false
}

func (e EnumSymbol) SymbolName() string  { return e.Name }
func (e EnumSymbol) SymbolSpan() ast.Span { return e.Span }
func (e EnumSymbol) IsGeneric() bool      { return len(e.GenericParams) > 0 }

// TraitSymbol is a trait declaration.
type TraitSymbol struct {
	Name          string
	GenericParams []ast.GenericParamDecl
	Methods       []ast.TraitMethodSig
	Span          ast.Span
}

func NewTraitSymbol(name string, span ast.Span) TraitSymbol {
	return TraitSymbol{Name: name, Span: span}
}

func NewGenericTraitSymbol(name string, gp []ast.GenericParamDecl, span ast.Span) TraitSymbol {
	t := NewTraitSymbol(name, span)
	t.GenericParams = gp
	return t
}

func (t *TraitSymbol) AddMethod(sig ast.TraitMethodSig) {
	t.Methods = append(t.Methods, sig)
}

func (t TraitSymbol) SymbolName() string  { return t.Name }
func (t TraitSymbol) SymbolSpan() ast.Span { return t.Span }

// GenericParamSymbol is a formal type parameter bound inside a template's
// own scope, so a reference to `T` inside `fn f<T>(x: T)`'s body resolves.
type GenericParamSymbol struct {
	Name  string
	Bound string
	Span  ast.Span
}

func NewGenericParamSymbol(name, bound string, span ast.Span) GenericParamSymbol {
	return GenericParamSymbol{Name: name, Bound: bound, Span: span}
}

func (g GenericParamSymbol) SymbolName() string  { return g.Name }
func (g GenericParamSymbol) SymbolSpan() ast.Span { return g.Span }
