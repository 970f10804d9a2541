// Package ast defines the shape of the syntax tree consumed by the lency
// middle-end. The lexer and parser are external collaborators; this package
// only carries data, built either by a parser or, in tests, by struct
// literals.
package ast

import "strings"

// Kind tags the variant of a semantic Type.
type Kind int

// Type variants.
const (
	Int Kind = iota
	Float
	Bool
	String
	Void
	Error
	Nullable
	Array
	Vec
	Struct
	Generic
	GenericParam
	Result
	Function
)

// Type is the tagged-union semantic type used throughout sema, mono and
// codegen. Only the fields relevant to Kind are meaningful; the zero value
// of every other field is ignored.
type Type struct {
	Kind Kind

	// Nullable(Elem), Vec(Elem), Array{Elem, Size}.
	Elem *Type
	Size int

	// Struct(Name), Generic(Name, Args), GenericParam(Name).
	Name string
	Args []*Type

	// Result{Ok, Err}.
	Ok  *Type
	Err *Type

	// Function{Params, Ret}.
	Params []*Type
	Ret    *Type
}

// Constructors mirroring the tagged-union variants.

func IntType() *Type    { return &Type{Kind: Int} }
func FloatType() *Type  { return &Type{Kind: Float} }
func BoolType() *Type   { return &Type{Kind: Bool} }
func StringType() *Type { return &Type{Kind: String} }
func VoidType() *Type   { return &Type{Kind: Void} }
func ErrorType() *Type  { return &Type{Kind: Error} }

func NullableOf(t *Type) *Type {
	// Nullable(Nullable(T)) is not canonical; collapse eagerly.
	if t != nil && t.Kind == Nullable {
		return t
	}
	return &Type{Kind: Nullable, Elem: t}
}

func ArrayOf(elem *Type, size int) *Type {
	return &Type{Kind: Array, Elem: elem, Size: size}
}

func VecOf(elem *Type) *Type {
	return &Type{Kind: Vec, Elem: elem}
}

func StructOf(name string) *Type {
	return &Type{Kind: Struct, Name: name}
}

func GenericOf(name string, args []*Type) *Type {
	return &Type{Kind: Generic, Name: name, Args: args}
}

func GenericParamOf(name string) *Type {
	return &Type{Kind: GenericParam, Name: name}
}

func ResultOf(ok, err *Type) *Type {
	return &Type{Kind: Result, Ok: ok, Err: err}
}

func FunctionOf(params []*Type, ret *Type) *Type {
	return &Type{Kind: Function, Params: params, Ret: ret}
}

// Normalize collapses non-canonical forms in place and returns the receiver
// for chaining. Currently the only non-canonical form is Nullable(Nullable(T)).
func (t *Type) Normalize() *Type {
	if t == nil {
		return nil
	}
	for t.Kind == Nullable && t.Elem != nil && t.Elem.Kind == Nullable {
		t.Elem = t.Elem.Elem
	}
	switch t.Kind {
	case Nullable, Array, Vec:
		t.Elem = t.Elem.Normalize()
	case Generic:
		for _, a := range t.Args {
			a.Normalize()
		}
	case Result:
		t.Ok = t.Ok.Normalize()
		t.Err = t.Err.Normalize()
	case Function:
		for _, p := range t.Params {
			p.Normalize()
		}
		t.Ret = t.Ret.Normalize()
	}
	return t
}

// Equal reports whether a and b are structurally identical canonical types.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Int, Float, Bool, String, Void, Error:
		return true
	case Nullable, Vec:
		return Equal(a.Elem, b.Elem)
	case Array:
		return a.Size == b.Size && Equal(a.Elem, b.Elem)
	case Struct, GenericParam:
		return a.Name == b.Name
	case Generic:
		if a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case Result:
		return Equal(a.Ok, b.Ok) && Equal(a.Err, b.Err)
	case Function:
		if len(a.Params) != len(b.Params) || !Equal(a.Ret, b.Ret) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a Type the same shape `mangle` consumes, useful for
// diagnostics and debug dumps.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Void:
		return "void"
	case Error:
		return "<error>"
	case Nullable:
		return t.Elem.String() + "?"
	case Array:
		var sb strings.Builder
		sb.WriteString("[")
		sb.WriteString(t.Elem.String())
		sb.WriteString(";")
		sb.WriteString(itoa(t.Size))
		sb.WriteString("]")
		return sb.String()
	case Vec:
		return "Vec<" + t.Elem.String() + ">"
	case Struct:
		return t.Name
	case Generic:
		var sb strings.Builder
		sb.WriteString(t.Name)
		sb.WriteString("<")
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteString(">")
		return sb.String()
	case GenericParam:
		return t.Name
	case Result:
		return "Result<" + t.Ok.String() + ", " + t.Err.String() + ">"
	case Function:
		var sb strings.Builder
		sb.WriteString("fn(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		sb.WriteString(") -> ")
		sb.WriteString(t.Ret.String())
		return sb.String()
	}
	return "?"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}
