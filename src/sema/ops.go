package sema

import "github.com/Microindole/lency-sub000/src/ast"

// opKey is the lookup key for the binary-operator result-type table: an
// operator plus the canonical kind of each operand, ignoring nested
// element types (array/vec/nullable element types never participate in
// arithmetic directly).
type opKey struct {
	op       ast.BinaryOp
	lhs, rhs ast.Kind
}

// binaryTable dispatches binary operators by result type: rather than a
// long if/else chain it is a flat map from (op, lhs-kind, rhs-kind) to a
// function computing the result type, preferring small lookup tables over
// chained conditionals.
var binaryTable map[opKey]func(lhs, rhs *ast.Type) *ast.Type

func init() {
	binaryTable = make(map[opKey]func(lhs, rhs *ast.Type) *ast.Type)

	arith := []ast.BinaryOp{ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod}
	numericKinds := []ast.Kind{ast.Int, ast.Float}
	for _, op := range arith {
		for _, l := range numericKinds {
			for _, r := range numericKinds {
				l, r, op := l, r, op
				result := ast.Int
				if l == ast.Float || r == ast.Float {
					result = ast.Float
				}
				binaryTable[opKey{op, l, r}] = func(lhs, rhs *ast.Type) *ast.Type {
					if result == ast.Float {
						return ast.FloatType()
					}
					return ast.IntType()
				}
			}
		}
	}
	// `+` on two strings is concatenation.
	binaryTable[opKey{ast.Add, ast.String, ast.String}] = func(lhs, rhs *ast.Type) *ast.Type {
		return ast.StringType()
	}

	cmp := []ast.BinaryOp{ast.Lt, ast.Lte, ast.Gt, ast.Gte}
	for _, op := range cmp {
		for _, l := range numericKinds {
			for _, r := range numericKinds {
				binaryTable[opKey{op, l, r}] = func(lhs, rhs *ast.Type) *ast.Type {
					return ast.BoolType()
				}
			}
		}
	}

	eqKinds := []ast.Kind{ast.Int, ast.Float, ast.Bool, ast.String}
	for _, op := range []ast.BinaryOp{ast.Eq, ast.Neq} {
		for _, k := range eqKinds {
			binaryTable[opKey{op, k, k}] = func(lhs, rhs *ast.Type) *ast.Type {
				return ast.BoolType()
			}
		}
	}

	for _, op := range []ast.BinaryOp{ast.And, ast.Or} {
		binaryTable[opKey{op, ast.Bool, ast.Bool}] = func(lhs, rhs *ast.Type) *ast.Type {
			return ast.BoolType()
		}
	}
}

// InferBinary resolves the result type of a binary operator application,
// or reports InvalidBinaryOp.
func InferBinary(op ast.BinaryOp, lhs, rhs *ast.Type, span ast.Span) (*ast.Type, error) {
	if lhs.Kind == ast.Error || rhs.Kind == ast.Error {
		return ast.ErrorType(), nil
	}
	// Comparing a nullable against the null literal (Nullable(Error)) is a
	// null check.
	if (op == ast.Eq || op == ast.Neq) && lhs.Kind == ast.Nullable && rhs.Kind == ast.Nullable &&
		(lhs.Elem.Kind == ast.Error || rhs.Elem.Kind == ast.Error) {
		return ast.BoolType(), nil
	}
	if fn, ok := binaryTable[opKey{op, lhs.Kind, rhs.Kind}]; ok {
		return fn(lhs, rhs), nil
	}
	return nil, &InvalidBinaryOp{Op: op, Lhs: lhs, Rhs: rhs, Span: span}
}

// InferUnary resolves the result type of a unary operator application.
func InferUnary(op ast.UnaryOp, operand *ast.Type, span ast.Span) (*ast.Type, error) {
	if operand.Kind == ast.Error {
		return ast.ErrorType(), nil
	}
	switch op {
	case ast.Neg:
		if operand.Kind == ast.Int || operand.Kind == ast.Float {
			return operand, nil
		}
	case ast.Not:
		if operand.Kind == ast.Bool {
			return ast.BoolType(), nil
		}
	}
	return nil, &InvalidUnaryOp{Op: op, Operand: operand, Span: span}
}
