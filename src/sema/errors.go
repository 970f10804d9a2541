package sema

import (
	"fmt"

	"github.com/Microindole/lency-sub000/src/ast"
)

// SemanticError is the closed taxonomy of diagnostics the resolver and type
// checker can report: one concrete type per variant, each implementing the
// standard error interface plus a Span accessor.
type SemanticError interface {
	error
	ErrSpan() ast.Span
}

// --- Resolution ---

type UndefinedVariable struct {
	Name string
	Span ast.Span
}

func (e *UndefinedVariable) Error() string    { return fmt.Sprintf("undefined variable %q", e.Name) }
func (e *UndefinedVariable) ErrSpan() ast.Span { return e.Span }

type UndefinedFunction struct {
	Name string
	Span ast.Span
}

func (e *UndefinedFunction) Error() string    { return fmt.Sprintf("undefined function %q", e.Name) }
func (e *UndefinedFunction) ErrSpan() ast.Span { return e.Span }

type UndefinedType struct {
	Name string
	Span ast.Span
}

func (e *UndefinedType) Error() string    { return fmt.Sprintf("undefined type %q", e.Name) }
func (e *UndefinedType) ErrSpan() ast.Span { return e.Span }

type UndefinedTrait struct {
	Name string
	Span ast.Span
}

func (e *UndefinedTrait) Error() string    { return fmt.Sprintf("undefined trait %q", e.Name) }
func (e *UndefinedTrait) ErrSpan() ast.Span { return e.Span }

type DuplicateDefinition struct {
	NameField string
	SpanField ast.Span
	Previous  ast.Span
}

func (e *DuplicateDefinition) Error() string {
	return fmt.Sprintf("duplicate definition of %q, previously defined at line %d", e.NameField, e.Previous.Line)
}
func (e *DuplicateDefinition) ErrSpan() ast.Span { return e.SpanField }

type ImportError struct {
	Path string
	Msg  string
	Span ast.Span
}

func (e *ImportError) Error() string    { return fmt.Sprintf("cannot import %q: %s", e.Path, e.Msg) }
func (e *ImportError) ErrSpan() ast.Span { return e.Span }

// --- Typing ---

type TypeMismatch struct {
	Expected, Actual *ast.Type
	Span             ast.Span
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
}
func (e *TypeMismatch) ErrSpan() ast.Span { return e.Span }

type CannotInferType struct {
	Reason string
	Span   ast.Span
}

func (e *CannotInferType) Error() string    { return fmt.Sprintf("cannot infer type: %s", e.Reason) }
func (e *CannotInferType) ErrSpan() ast.Span { return e.Span }

type InvalidBinaryOp struct {
	Op               ast.BinaryOp
	Lhs, Rhs         *ast.Type
	Span             ast.Span
}

func (e *InvalidBinaryOp) Error() string {
	return fmt.Sprintf("invalid binary operator for operands of type %s and %s", e.Lhs, e.Rhs)
}
func (e *InvalidBinaryOp) ErrSpan() ast.Span { return e.Span }

type InvalidUnaryOp struct {
	Op      ast.UnaryOp
	Operand *ast.Type
	Span    ast.Span
}

func (e *InvalidUnaryOp) Error() string {
	return fmt.Sprintf("invalid unary operator for operand of type %s", e.Operand)
}
func (e *InvalidUnaryOp) ErrSpan() ast.Span { return e.Span }

type ArgumentCountMismatch struct {
	Name           string
	Expected, Got int
	Span           ast.Span
}

func (e *ArgumentCountMismatch) Error() string {
	return fmt.Sprintf("%q expects %d argument(s), got %d", e.Name, e.Expected, e.Got)
}
func (e *ArgumentCountMismatch) ErrSpan() ast.Span { return e.Span }

type ReturnTypeMismatch struct {
	Expected, Actual *ast.Type
	Span             ast.Span
}

func (e *ReturnTypeMismatch) Error() string {
	return fmt.Sprintf("return type mismatch: expected %s, got %s", e.Expected, e.Actual)
}
func (e *ReturnTypeMismatch) ErrSpan() ast.Span { return e.Span }

type MissingReturn struct {
	Function string
	Span     ast.Span
}

func (e *MissingReturn) Error() string {
	return fmt.Sprintf("function %q is missing a return on some code path", e.Function)
}
func (e *MissingReturn) ErrSpan() ast.Span { return e.Span }

type NotCallable struct {
	Ty   *ast.Type
	Span ast.Span
}

func (e *NotCallable) Error() string    { return fmt.Sprintf("value of type %s is not callable", e.Ty) }
func (e *NotCallable) ErrSpan() ast.Span { return e.Span }

type NotAClass struct {
	Name string
	Span ast.Span
}

func (e *NotAClass) Error() string    { return fmt.Sprintf("%q is not a class", e.Name) }
func (e *NotAClass) ErrSpan() ast.Span { return e.Span }

type NotAStruct struct {
	Name string
	Span ast.Span
}

func (e *NotAStruct) Error() string    { return fmt.Sprintf("%q is not a struct", e.Name) }
func (e *NotAStruct) ErrSpan() ast.Span { return e.Span }

// --- Generics/Traits ---

type GenericArityMismatch struct {
	Name           string
	Expected, Got int
	Span           ast.Span
}

func (e *GenericArityMismatch) Error() string {
	return fmt.Sprintf("%q expects %d generic argument(s), got %d", e.Name, e.Expected, e.Got)
}
func (e *GenericArityMismatch) ErrSpan() ast.Span { return e.Span }

type NotAGenericType struct {
	Name string
	Span ast.Span
}

func (e *NotAGenericType) Error() string    { return fmt.Sprintf("%q is not generic", e.Name) }
func (e *NotAGenericType) ErrSpan() ast.Span { return e.Span }

type InvalidGenericArg struct {
	Name string
	Arg  *ast.Type
	Span ast.Span
}

func (e *InvalidGenericArg) Error() string {
	return fmt.Sprintf("invalid generic argument %s for %q", e.Arg, e.Name)
}
func (e *InvalidGenericArg) ErrSpan() ast.Span { return e.Span }

type MissingTraitMethod struct {
	Trait, Method, Struct string
	Span                  ast.Span
}

func (e *MissingTraitMethod) Error() string {
	return fmt.Sprintf("%q does not implement method %q required by trait %q", e.Struct, e.Method, e.Trait)
}
func (e *MissingTraitMethod) ErrSpan() ast.Span { return e.Span }

type TraitMethodSignatureMismatch struct {
	Trait, Method, Struct string
	Span                  ast.Span
}

func (e *TraitMethodSignatureMismatch) Error() string {
	return fmt.Sprintf("%q's implementation of %q does not match trait %q's signature", e.Struct, e.Method, e.Trait)
}
func (e *TraitMethodSignatureMismatch) ErrSpan() ast.Span { return e.Span }

// --- Null-safety ---

type NullAssignmentToNonNullable struct {
	Name string
	Ty   *ast.Type
	Span ast.Span
}

func (e *NullAssignmentToNonNullable) Error() string {
	return fmt.Sprintf("cannot assign null to %q of non-nullable type %s", e.Name, e.Ty)
}
func (e *NullAssignmentToNonNullable) ErrSpan() ast.Span { return e.Span }

type PossibleNullAccess struct {
	Name string
	Span ast.Span
}

func (e *PossibleNullAccess) Error() string {
	return fmt.Sprintf("possible null access on %q, narrow with an `if (%s != null)` guard first", e.Name, e.Name)
}
func (e *PossibleNullAccess) ErrSpan() ast.Span { return e.Span }

// --- Structural ---

type UndefinedField struct {
	Struct, Field string
	Span          ast.Span
}

func (e *UndefinedField) Error() string {
	return fmt.Sprintf("%q has no field %q", e.Struct, e.Field)
}
func (e *UndefinedField) ErrSpan() ast.Span { return e.Span }

type UndefinedMethod struct {
	Ty     *ast.Type
	Method string
	Span   ast.Span
}

func (e *UndefinedMethod) Error() string {
	return fmt.Sprintf("%s has no method %q", e.Ty, e.Method)
}
func (e *UndefinedMethod) ErrSpan() ast.Span { return e.Span }

type ArrayIndexOutOfBounds struct {
	Index, Size int
	Span        ast.Span
}

func (e *ArrayIndexOutOfBounds) Error() string {
	return fmt.Sprintf("array index %d out of bounds for array of size %d", e.Index, e.Size)
}
func (e *ArrayIndexOutOfBounds) ErrSpan() ast.Span { return e.Span }

type BreakOutsideLoop struct{ Span ast.Span }

func (e *BreakOutsideLoop) Error() string    { return "break outside of a loop" }
func (e *BreakOutsideLoop) ErrSpan() ast.Span { return e.Span }

type ContinueOutsideLoop struct{ Span ast.Span }

func (e *ContinueOutsideLoop) Error() string    { return "continue outside of a loop" }
func (e *ContinueOutsideLoop) ErrSpan() ast.Span { return e.Span }

type PatternNotExhaustive struct {
	Enum string
	Span ast.Span
}

func (e *PatternNotExhaustive) Error() string {
	return fmt.Sprintf("match over %q is not exhaustive", e.Enum)
}
func (e *PatternNotExhaustive) ErrSpan() ast.Span { return e.Span }
