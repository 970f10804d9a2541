package ast

// GenericParamDecl is a formal generic parameter, `<T: Bound>`.
type GenericParamDecl struct {
	Name  string
	Bound string // Trait name, empty if unbounded.
}

// Param is a function/method formal parameter.
type Param struct {
	Name string
	Ty   *Type
}

// Field is a struct field declaration.
type Field struct {
	Name string
	Ty   *Type
}

// FunctionData backs a FUNCTION or EXTERN_FUNCTION Node.
type FunctionData struct {
	Name          string
	GenericParams []GenericParamDecl
	Params        []Param
	ReturnType    *Type
	Public        bool
	// Body holds the BLOCK node for FUNCTION; nil for EXTERN_FUNCTION.
	Body *Node
}

// StructData backs a STRUCT Node.
type StructData struct {
	Name          string
	GenericParams []GenericParamDecl
	Fields        []Field
}

// EnumVariantDecl is one member of an ENUM declaration: either a unit
// variant (no payload) or a tuple variant with positional field types.
type EnumVariantDecl struct {
	Name  string
	Types []*Type // empty for unit variants.
}

// EnumData backs an ENUM Node.
type EnumData struct {
	Name          string
	GenericParams []GenericParamDecl
	Variants      []EnumVariantDecl
}

// TraitMethodSig is one method signature required by a trait.
type TraitMethodSig struct {
	Name       string
	Params     []Param
	ReturnType *Type
}

// TraitData backs a TRAIT Node.
type TraitData struct {
	Name          string
	GenericParams []GenericParamDecl
	Methods       []TraitMethodSig
}

// ImplData backs an IMPL Node; Methods holds FUNCTION child nodes.
type ImplData struct {
	TypeName      *Type  // Target type of the impl block.
	TraitName     string // Empty if this is an inherent impl.
	GenericParams []GenericParamDecl
	Methods       []*Node
}

// VarDeclData backs a VAR_DECL Node (top-level or local).
type VarDeclData struct {
	Name  string
	Ty    *Type // nil if to be inferred from Value.
	Value *Node
}

// ImportItem is a single imported path in an IMPORT declaration.
type ImportItem struct {
	Path  string
	Alias string // empty if not aliased.
}

// ImportData backs an IMPORT Node.
type ImportData struct {
	Items []ImportItem
}
