package llvm

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/Microindole/lency-sub000/src/ast"
	"github.com/Microindole/lency-sub000/src/mono"
)

// genExpr lowers expr to a value, dispatching on NodeType.
// Every node arrives already typed by sema (and re-typed, where
// substituted, by mono), so genExpr trusts n.Ty rather than re-inferring.
func (g *Generator) genExpr(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	switch n.Typ {
	case ast.INT_LIT:
		d := n.Data.(ast.IntLitData)
		return llvm.ConstInt(g.ctx.Int64Type(), uint64(d.Value), true), nil

	case ast.FLOAT_LIT:
		d := n.Data.(ast.FloatLitData)
		return llvm.ConstFloat(g.ctx.DoubleType(), d.Value), nil

	case ast.BOOL_LIT:
		d := n.Data.(ast.BoolLitData)
		v := uint64(0)
		if d.Value {
			v = 1
		}
		return llvm.ConstInt(g.ctx.Int1Type(), v, false), nil

	case ast.STRING_LIT:
		d := n.Data.(ast.StringLitData)
		return g.builder.CreateGlobalStringPtr(d.Value, stringPrefix), nil

	case ast.NULL_LIT:
		return llvm.ConstNull(g.lower(n.Ty)), nil

	case ast.VARIABLE:
		return g.genVariable(fc, n)

	case ast.BINARY:
		return g.genBinary(fc, n)

	case ast.UNARY:
		return g.genUnary(fc, n)

	case ast.GET:
		ptr, err := g.genFieldPtr(fc, n, false)
		if err != nil {
			return llvm.Value{}, err
		}
		return g.builder.CreateLoad(ptr, ""), nil

	case ast.SAFE_GET:
		return g.genSafeGet(fc, n)

	case ast.INDEX:
		ptr, err := g.genIndexPtr(fc, n)
		if err != nil {
			return llvm.Value{}, err
		}
		return g.builder.CreateLoad(ptr, ""), nil

	case ast.CALL:
		return g.genCall(fc, n)

	case ast.ARRAY_LIT:
		return g.genArrayLit(fc, n)

	case ast.VEC_LIT:
		return g.genVecLit(fc, n)

	case ast.STRUCT_LIT:
		return g.genStructLit(fc, n)

	case ast.MATCH:
		return g.genMatch(fc, n)

	case ast.PRINT:
		return g.genPrint(fc, n)

	case ast.OK:
		return g.genOk(fc, n)

	case ast.ERR:
		return g.genErr(fc, n)

	case ast.TRY:
		return g.genTry(fc, n)

	default:
		return llvm.Value{}, fmt.Errorf("genExpr: unhandled node %s", n.Typ)
	}
}

func (g *Generator) genVariable(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.VariableData)
	if lv, ok := fc.lookup(d.Name); ok {
		return g.builder.CreateLoad(lv.ptr, d.Name), nil
	}
	if val, ok := g.globals.get(d.Name); ok {
		if _, isGlobalVar := g.globalVarTypes[d.Name]; isGlobalVar {
			return g.builder.CreateLoad(val, d.Name), nil
		}
		return val, nil
	}
	return llvm.Value{}, fmt.Errorf("genVariable: undefined name %q", d.Name)
}

// genBinary lowers arithmetic/comparison/logical operators, promoting an Int
// operand to Float when the other side is Float and special-casing string
// `+` as a call into the `concat` runtime helper.
func (g *Generator) genBinary(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.BinaryData)

	if d.Lhs.Ty != nil && d.Lhs.Ty.Kind == ast.String && d.Op == ast.Add {
		lhs, err := g.genExpr(fc, d.Lhs)
		if err != nil {
			return llvm.Value{}, err
		}
		rhs, err := g.genExpr(fc, d.Rhs)
		if err != nil {
			return llvm.Value{}, err
		}
		concat, _ := g.globals.get("concat")
		return g.builder.CreateCall(concat, []llvm.Value{lhs, rhs}, "concat"), nil
	}

	lhs, err := g.genExpr(fc, d.Lhs)
	if err != nil {
		return llvm.Value{}, err
	}
	rhs, err := g.genExpr(fc, d.Rhs)
	if err != nil {
		return llvm.Value{}, err
	}

	isFloat := (d.Lhs.Ty != nil && d.Lhs.Ty.Kind == ast.Float) || (d.Rhs.Ty != nil && d.Rhs.Ty.Kind == ast.Float)
	if isFloat {
		if d.Lhs.Ty != nil && d.Lhs.Ty.Kind == ast.Int {
			lhs = g.builder.CreateSIToFP(lhs, g.ctx.DoubleType(), "promote")
		}
		if d.Rhs.Ty != nil && d.Rhs.Ty.Kind == ast.Int {
			rhs = g.builder.CreateSIToFP(rhs, g.ctx.DoubleType(), "promote")
		}
		switch d.Op {
		case ast.Add:
			return g.builder.CreateFAdd(lhs, rhs, "fadd"), nil
		case ast.Sub:
			return g.builder.CreateFSub(lhs, rhs, "fsub"), nil
		case ast.Mul:
			return g.builder.CreateFMul(lhs, rhs, "fmul"), nil
		case ast.Div:
			return g.builder.CreateFDiv(lhs, rhs, "fdiv"), nil
		case ast.Eq:
			return g.builder.CreateFCmp(llvm.FloatOEQ, lhs, rhs, "feq"), nil
		case ast.Neq:
			return g.builder.CreateFCmp(llvm.FloatONE, lhs, rhs, "fne"), nil
		case ast.Lt:
			return g.builder.CreateFCmp(llvm.FloatOLT, lhs, rhs, "flt"), nil
		case ast.Lte:
			return g.builder.CreateFCmp(llvm.FloatOLE, lhs, rhs, "fle"), nil
		case ast.Gt:
			return g.builder.CreateFCmp(llvm.FloatOGT, lhs, rhs, "fgt"), nil
		case ast.Gte:
			return g.builder.CreateFCmp(llvm.FloatOGE, lhs, rhs, "fge"), nil
		}
	}

	if d.Lhs.Ty != nil && d.Lhs.Ty.Kind == ast.String && (d.Op == ast.Eq || d.Op == ast.Neq) {
		strcmp, _ := g.globals.get("strcmp")
		cmp := g.builder.CreateCall(strcmp, []llvm.Value{lhs, rhs}, "strcmp")
		zero := llvm.ConstInt(g.ctx.Int32Type(), 0, false)
		if d.Op == ast.Eq {
			return g.builder.CreateICmp(llvm.IntEQ, cmp, zero, "streq"), nil
		}
		return g.builder.CreateICmp(llvm.IntNE, cmp, zero, "strne"), nil
	}

	switch d.Op {
	case ast.Add:
		return g.builder.CreateAdd(lhs, rhs, "add"), nil
	case ast.Sub:
		return g.builder.CreateSub(lhs, rhs, "sub"), nil
	case ast.Mul:
		return g.builder.CreateMul(lhs, rhs, "mul"), nil
	case ast.Div:
		return g.builder.CreateSDiv(lhs, rhs, "div"), nil
	case ast.Mod:
		return g.builder.CreateSRem(lhs, rhs, "mod"), nil
	case ast.Eq:
		return g.builder.CreateICmp(llvm.IntEQ, lhs, rhs, "eq"), nil
	case ast.Neq:
		return g.builder.CreateICmp(llvm.IntNE, lhs, rhs, "ne"), nil
	case ast.Lt:
		return g.builder.CreateICmp(llvm.IntSLT, lhs, rhs, "lt"), nil
	case ast.Lte:
		return g.builder.CreateICmp(llvm.IntSLE, lhs, rhs, "le"), nil
	case ast.Gt:
		return g.builder.CreateICmp(llvm.IntSGT, lhs, rhs, "gt"), nil
	case ast.Gte:
		return g.builder.CreateICmp(llvm.IntSGE, lhs, rhs, "ge"), nil
	case ast.And:
		return g.builder.CreateAnd(lhs, rhs, "and"), nil
	case ast.Or:
		return g.builder.CreateOr(lhs, rhs, "or"), nil
	}
	return llvm.Value{}, fmt.Errorf("genBinary: unhandled op %v", d.Op)
}

func (g *Generator) genUnary(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.UnaryData)
	v, err := g.genExpr(fc, d.Operand)
	if err != nil {
		return llvm.Value{}, err
	}
	switch d.Op {
	case ast.Neg:
		if d.Operand.Ty != nil && d.Operand.Ty.Kind == ast.Float {
			return g.builder.CreateFNeg(v, "fneg"), nil
		}
		return g.builder.CreateNeg(v, "neg"), nil
	case ast.Not:
		return g.builder.CreateNot(v, "not"), nil
	}
	return llvm.Value{}, fmt.Errorf("genUnary: unhandled op %v", d.Op)
}

// genFieldPtr returns the address of a struct field, used by
// both plain field loads and as an assignment target.
func (g *Generator) genFieldPtr(fc *funcCtx, n *ast.Node, forAssign bool) (llvm.Value, error) {
	d := n.Data.(ast.GetData)

	objTy := d.Object.Ty
	if objTy != nil && objTy.Kind == ast.Array && d.Name == "length" {
		return llvm.Value{}, fmt.Errorf("genFieldPtr: array .length has no address")
	}

	obj, err := g.genExpr(fc, d.Object)
	if err != nil {
		return llvm.Value{}, err
	}
	structName := objTy.Name
	fields, ok := g.structFields[structName]
	if !ok {
		return llvm.Value{}, fmt.Errorf("genFieldPtr: unknown struct %q", structName)
	}
	idx := -1
	for i, f := range fields {
		if f == d.Name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return llvm.Value{}, fmt.Errorf("genFieldPtr: struct %q has no field %q", structName, d.Name)
	}
	return g.builder.CreateStructGEP(obj, idx, d.Name+"_ptr"), nil
}

// genSafeGet lowers `obj?.field`: a null check branches around the field
// load, and the two paths join on a Nullable-wrapped phi.
func (g *Generator) genSafeGet(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.SafeGetData)
	obj, err := g.genExpr(fc, d.Object)
	if err != nil {
		return llvm.Value{}, err
	}
	elemTy := d.Object.Ty.Elem
	fields := g.structFields[elemTy.Name]
	idx := -1
	for i, f := range fields {
		if f == d.Name {
			idx = i
			break
		}
	}
	resultTy := g.lower(n.Ty)

	isNull := g.builder.CreateIsNull(obj, "is_null")
	fn := fc.fn
	nullBB := llvm.AddBasicBlock(fn, "safe_null")
	okBB := llvm.AddBasicBlock(fn, "safe_ok")
	joinBB := llvm.AddBasicBlock(fn, "safe_join")
	g.builder.CreateCondBr(isNull, nullBB, okBB)

	g.builder.SetInsertPointAtEnd(nullBB)
	nullVal := llvm.ConstNull(resultTy)
	g.builder.CreateBr(joinBB)

	g.builder.SetInsertPointAtEnd(okBB)
	fieldPtr := g.builder.CreateStructGEP(obj, idx, d.Name+"_ptr")
	fieldVal := g.builder.CreateLoad(fieldPtr, d.Name)
	g.builder.CreateBr(joinBB)

	g.builder.SetInsertPointAtEnd(joinBB)
	phi := g.builder.CreatePHI(resultTy, "safe_result")
	phi.AddIncoming([]llvm.Value{nullVal, fieldVal}, []llvm.BasicBlock{nullBB, okBB})
	return phi, nil
}

// genIndexPtr returns the address of arr[idx], panicking through
// __lency_panic when idx falls outside [0, len).
func (g *Generator) genIndexPtr(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.IndexData)
	arrPtr, err := g.genLValuePtr(fc, d.Object)
	if err != nil {
		return llvm.Value{}, err
	}
	idx, err := g.genExpr(fc, d.Index)
	if err != nil {
		return llvm.Value{}, err
	}

	size := d.Object.Ty.Size
	fn := fc.fn
	lowOK := g.builder.CreateICmp(llvm.IntSGE, idx, llvm.ConstInt(g.ctx.Int64Type(), 0, true), "idx_ge0")
	highOK := g.builder.CreateICmp(llvm.IntSLT, idx, llvm.ConstInt(g.ctx.Int64Type(), uint64(size), true), "idx_lt_len")
	inBounds := g.builder.CreateAnd(lowOK, highOK, "in_bounds")

	okBB := llvm.AddBasicBlock(fn, "idx_ok")
	panicBB := llvm.AddBasicBlock(fn, "idx_panic")
	g.builder.CreateCondBr(inBounds, okBB, panicBB)

	g.builder.SetInsertPointAtEnd(panicBB)
	g.genPanic("index out of bounds", n.Span.Line)

	g.builder.SetInsertPointAtEnd(okBB)
	zero := llvm.ConstInt(g.ctx.Int32Type(), 0, false)
	idx32 := g.builder.CreateIntCast(idx, g.ctx.Int32Type(), "idx32")
	return g.builder.CreateGEP(arrPtr, []llvm.Value{zero, idx32}, "elem_ptr"), nil
}

// genLValuePtr returns the address backing an expression used as an
// assignment/index target: a local/global variable's slot, or a struct
// field's address for `obj.field[i]`/`obj.field = v` chains.
func (g *Generator) genLValuePtr(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	switch n.Typ {
	case ast.VARIABLE:
		d := n.Data.(ast.VariableData)
		if lv, ok := fc.lookup(d.Name); ok {
			return lv.ptr, nil
		}
		if glob, ok := g.globals.get(d.Name); ok {
			return glob, nil
		}
		return llvm.Value{}, fmt.Errorf("genLValuePtr: undefined name %q", d.Name)
	case ast.GET:
		return g.genFieldPtr(fc, n, true)
	case ast.INDEX:
		return g.genIndexPtr(fc, n)
	default:
		return llvm.Value{}, fmt.Errorf("genLValuePtr: %s is not an lvalue", n.Typ)
	}
}

func (g *Generator) genArrayLit(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.ArrayLitData)
	arrTy := g.lower(n.Ty)
	alloc := g.builder.CreateAlloca(arrTy, "arrlit")
	zero := llvm.ConstInt(g.ctx.Int32Type(), 0, false)
	for i, e := range d.Elems {
		v, err := g.genExpr(fc, e)
		if err != nil {
			return llvm.Value{}, err
		}
		idx := llvm.ConstInt(g.ctx.Int32Type(), uint64(i), false)
		ptr := g.builder.CreateGEP(alloc, []llvm.Value{zero, idx}, "elem_ptr")
		g.builder.CreateStore(v, ptr)
	}
	return g.builder.CreateLoad(alloc, "arrlit_val"), nil
}

// genVecLit lowers a Vec literal into lency_vec_new followed by one
// lency_vec_push per element, all elements boxed to i64 the way every other
// runtime-managed container stores its payload.
func (g *Generator) genVecLit(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.VecLitData)
	newFn, _ := g.globals.get("lency_vec_new")
	pushFn, _ := g.globals.get("lency_vec_push")
	cap := llvm.ConstInt(g.ctx.Int64Type(), uint64(len(d.Elems)), false)
	vec := g.builder.CreateCall(newFn, []llvm.Value{cap}, "vec")
	for _, e := range d.Elems {
		v, err := g.genExpr(fc, e)
		if err != nil {
			return llvm.Value{}, err
		}
		boxed := g.boxToI64(v, e.Ty)
		g.builder.CreateCall(pushFn, []llvm.Value{vec, boxed}, "")
	}
	return vec, nil
}

// boxToI64 widens/bitcasts a scalar value to the i64 the Vec/HashMap FFI
// boundary uses as its universal element representation.
func (g *Generator) boxToI64(v llvm.Value, ty *ast.Type) llvm.Value {
	if ty == nil {
		return v
	}
	switch ty.Kind {
	case ast.Int:
		return v
	case ast.Bool:
		return g.builder.CreateZExt(v, g.ctx.Int64Type(), "box_bool")
	case ast.Float:
		return g.builder.CreateBitCast(v, g.ctx.Int64Type(), "box_float")
	default:
		return g.builder.CreatePtrToInt(v, g.ctx.Int64Type(), "box_ptr")
	}
}

func (g *Generator) genStructLit(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.StructLitData)
	st, ok := g.structTypes.get(d.TypeName)
	if !ok {
		return llvm.Value{}, fmt.Errorf("genStructLit: unknown struct %q", d.TypeName)
	}
	ptrTy := llvm.PointerType(st, 0)
	size := g.sizeOf(st)
	raw := g.builder.CreateCall(g.mallocFn, []llvm.Value{size}, "")
	self := g.builder.CreateBitCast(raw, ptrTy, "self")

	fields := g.structFields[d.TypeName]
	for _, fi := range d.Fields {
		idx := -1
		for i, f := range fields {
			if f == fi.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		v, err := g.genExpr(fc, fi.Value)
		if err != nil {
			return llvm.Value{}, err
		}
		ptr := g.builder.CreateStructGEP(self, idx, fi.Name+"_ptr")
		g.builder.CreateStore(v, ptr)
	}
	return self, nil
}

// genCall dispatches CALL nodes: a GET callee is a method call (`obj.m(...)`
// lowered to `Type__m(obj, args...)`); a VARIABLE callee naming a known
// struct is a (monomorphized) constructor reference; everything else is a
// plain function call.
func (g *Generator) genCall(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.CallData)

	if get, ok := d.Callee.Data.(ast.GetData); ok && d.Callee.Typ == ast.GET {
		recvTy := get.Object.Ty
		self, err := g.genExpr(fc, get.Object)
		if err != nil {
			return llvm.Value{}, err
		}
		mangled := mono.MangleMethod(recvTy, get.Name)
		fn, ok := g.globals.get(mangled)
		if !ok {
			return llvm.Value{}, fmt.Errorf("genCall: undefined method %q", mangled)
		}
		args := []llvm.Value{self}
		for _, a := range d.Args {
			v, err := g.genExpr(fc, a)
			if err != nil {
				return llvm.Value{}, err
			}
			args = append(args, v)
		}
		return g.builder.CreateCall(fn, args, callName(mangled)), nil
	}

	calleeName, ok := d.Callee.Data.(ast.VariableData)
	if !ok {
		return llvm.Value{}, fmt.Errorf("genCall: unsupported callee %s", d.Callee.Typ)
	}
	fn, ok := g.globals.get(calleeName.Name)
	if !ok {
		return llvm.Value{}, fmt.Errorf("genCall: undefined function %q", calleeName.Name)
	}
	args := make([]llvm.Value, len(d.Args))
	for i, a := range d.Args {
		v, err := g.genExpr(fc, a)
		if err != nil {
			return llvm.Value{}, err
		}
		args[i] = v
	}
	return g.builder.CreateCall(fn, args, callName(calleeName.Name)), nil
}

func callName(name string) string {
	if name == "" {
		return ""
	}
	return name + "_ret"
}

// genPrint lowers `print(args...)` into one printf call per argument using
// a format specifier chosen from the argument's static type.
func (g *Generator) genPrint(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.PrintData)
	for _, a := range d.Args {
		v, err := g.genExpr(fc, a)
		if err != nil {
			return llvm.Value{}, err
		}
		fmtStr := "%ld\n"
		switch a.Ty.Kind {
		case ast.Float:
			fmtStr = "%f\n"
		case ast.String:
			fmtStr = "%s\n"
		case ast.Bool:
			fmtStr = "%d\n"
			v = g.builder.CreateZExt(v, g.ctx.Int32Type(), "bool_to_i32")
		}
		fmtPtr := g.builder.CreateGlobalStringPtr(fmtStr, stringPrefix)
		g.builder.CreateCall(g.printfFn, []llvm.Value{fmtPtr, v}, "")
	}
	return llvm.ConstNull(g.ctx.VoidType()), nil
}

// genOk/genErr malloc a Result{is_ok, ok?, err?} struct;
// n.Ty already names the exact Result__ok__err or Result__void__err shape
// mono/sema settled on.
func (g *Generator) genOk(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.OkData)
	inner, err := g.genExpr(fc, d.Inner)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.buildResult(n.Ty, true, &inner, nil)
}

func (g *Generator) genErr(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.ErrData)
	inner, err := g.genExpr(fc, d.Inner)
	if err != nil {
		return llvm.Value{}, err
	}
	return g.buildResult(n.Ty, false, nil, &inner)
}

func (g *Generator) buildResult(resultTy *ast.Type, isOk bool, ok, errv *llvm.Value) (llvm.Value, error) {
	name := mono.Mangle(resultTy)
	st, found := g.structTypes.get(name)
	if !found {
		return llvm.Value{}, fmt.Errorf("buildResult: unregistered Result type %q", name)
	}
	ptrTy := llvm.PointerType(st, 0)
	size := g.sizeOf(st)
	raw := g.builder.CreateCall(g.mallocFn, []llvm.Value{size}, "")
	self := g.builder.CreateBitCast(raw, ptrTy, "result")

	flag := uint64(0)
	if isOk {
		flag = 1
	}
	tagPtr := g.builder.CreateStructGEP(self, 0, "is_ok_ptr")
	g.builder.CreateStore(llvm.ConstInt(g.ctx.Int1Type(), flag, false), tagPtr)

	fields := g.structFields[name]
	idx := 1
	if ok != nil && idx < len(fields) && fields[idx] == "ok" {
		ptr := g.builder.CreateStructGEP(self, idx, "ok_ptr")
		g.builder.CreateStore(*ok, ptr)
		idx++
	}
	if errv != nil {
		for i, f := range fields {
			if f == "err" {
				ptr := g.builder.CreateStructGEP(self, i, "err_ptr")
				g.builder.CreateStore(*errv, ptr)
			}
		}
	}
	return self, nil
}

// genTry lowers the postfix `expr?` operator: load is_ok off the Result
// pointer, and on failure return early with a freshly repacked Err of the
// enclosing function's own Result type; on success yield the unwrapped ok
// payload.
func (g *Generator) genTry(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.TryData)
	subj, err := g.genExpr(fc, d.Inner)
	if err != nil {
		return llvm.Value{}, err
	}
	subjTyName := mono.Mangle(d.Inner.Ty)
	fields := g.structFields[subjTyName]

	isOkPtr := g.builder.CreateStructGEP(subj, 0, "is_ok_ptr")
	isOk := g.builder.CreateLoad(isOkPtr, "is_ok")

	fn := fc.fn
	failBB := llvm.AddBasicBlock(fn, "try_fail")
	okBB := llvm.AddBasicBlock(fn, "try_ok")
	g.builder.CreateCondBr(isOk, okBB, failBB)

	g.builder.SetInsertPointAtEnd(failBB)
	var errVal llvm.Value
	for i, f := range fields {
		if f == "err" {
			errPtr := g.builder.CreateStructGEP(subj, i, "err_ptr")
			errVal = g.builder.CreateLoad(errPtr, "err")
		}
	}
	repacked, err := g.buildResult(fc.returnType, false, nil, &errVal)
	if err != nil {
		return llvm.Value{}, err
	}
	g.builder.CreateRet(repacked)

	g.builder.SetInsertPointAtEnd(okBB)
	for i, f := range fields {
		if f == "ok" {
			okPtr := g.builder.CreateStructGEP(subj, i, "ok_ptr")
			return g.builder.CreateLoad(okPtr, "ok"), nil
		}
	}
	return llvm.ConstNull(g.ctx.VoidType()), nil
}

// genMatch lowers a MATCH expression into a chain of check/body blocks, one
// per case, joined by a phi over each arm's value.
func (g *Generator) genMatch(fc *funcCtx, n *ast.Node) (llvm.Value, error) {
	d := n.Data.(ast.MatchData)
	subj, err := g.genExpr(fc, d.Subject)
	if err != nil {
		return llvm.Value{}, err
	}

	fn := fc.fn
	joinBB := llvm.AddBasicBlock(fn, "match_join")
	resultTy := g.lower(n.Ty)

	var incomingVals []llvm.Value
	var incomingBBs []llvm.BasicBlock

	for i, c := range d.Cases {
		isLast := i == len(d.Cases)-1
		checkBB := llvm.AddBasicBlock(fn, "case_check")
		bodyBB := llvm.AddBasicBlock(fn, "case_body")
		var nextBB llvm.BasicBlock
		if !isLast {
			nextBB = llvm.AddBasicBlock(fn, "case_next")
		} else {
			nextBB = llvm.AddBasicBlock(fn, "match_unreachable")
		}

		g.builder.CreateBr(checkBB)
		g.builder.SetInsertPointAtEnd(checkBB)

		fc.pushScope()
		matched, err := g.genPatternTest(fc, subj, d.Subject.Ty, c.Pattern)
		if err != nil {
			return llvm.Value{}, err
		}
		g.builder.CreateCondBr(matched, bodyBB, nextBB)

		g.builder.SetInsertPointAtEnd(bodyBB)
		g.bindPatternLocals(fc, subj, d.Subject.Ty, c.Pattern)
		val, err := g.genExpr(fc, c.Body)
		if err != nil {
			return llvm.Value{}, err
		}
		fc.popScope()
		incomingVals = append(incomingVals, val)
		incomingBBs = append(incomingBBs, g.builder.GetInsertBlock())
		g.builder.CreateBr(joinBB)

		g.builder.SetInsertPointAtEnd(nextBB)
		if isLast {
			g.genPanic("non-exhaustive match", n.Span.Line)
		}
	}

	g.builder.SetInsertPointAtEnd(joinBB)
	if resultTy == g.ctx.VoidType() {
		return llvm.ConstNull(resultTy), nil
	}
	phi := g.builder.CreatePHI(resultTy, "match_result")
	phi.AddIncoming(incomingVals, incomingBBs)
	return phi, nil
}

// genPatternTest emits the boolean condition deciding whether subj (of type
// subjTy) matches pat, without binding any pattern variables.
func (g *Generator) genPatternTest(fc *funcCtx, subj llvm.Value, subjTy *ast.Type, pat ast.Pattern) (llvm.Value, error) {
	switch pat.Kind {
	case ast.PatWildcard, ast.PatVariable:
		return llvm.ConstInt(g.ctx.Int1Type(), 1, false), nil

	case ast.PatLiteral:
		lit, err := g.genExpr(fc, pat.Literal)
		if err != nil {
			return llvm.Value{}, err
		}
		if pat.Literal.Typ == ast.STRING_LIT {
			strcmp, _ := g.globals.get("strcmp")
			cmp := g.builder.CreateCall(strcmp, []llvm.Value{subj, lit}, "strcmp")
			return g.builder.CreateICmp(llvm.IntEQ, cmp, llvm.ConstInt(g.ctx.Int32Type(), 0, false), "lit_eq"), nil
		}
		if pat.Literal.Typ == ast.FLOAT_LIT {
			return g.builder.CreateFCmp(llvm.FloatOEQ, subj, lit, "lit_eq"), nil
		}
		return g.builder.CreateICmp(llvm.IntEQ, subj, lit, "lit_eq"), nil

	case ast.PatVariant:
		layout := g.enums[subjTy.Name]
		tag := int64(-1)
		for i, v := range layout.variantOrder {
			if v == pat.VariantName {
				tag = int64(i)
			}
		}
		tagPtr := g.builder.CreateStructGEP(subj, 0, "tag_ptr")
		tagVal := g.builder.CreateLoad(tagPtr, "tag")
		return g.builder.CreateICmp(llvm.IntEQ, tagVal, llvm.ConstInt(g.ctx.Int64Type(), uint64(tag), true), "tag_eq"), nil

	default:
		return llvm.Value{}, fmt.Errorf("genPatternTest: unhandled pattern kind %v", pat.Kind)
	}
}

// bindPatternLocals defines the variables a matched pattern introduces
// (PatVariable binds the whole subject; PatVariant's sub-patterns bind each
// tuple field) in the body block's scope.
func (g *Generator) bindPatternLocals(fc *funcCtx, subj llvm.Value, subjTy *ast.Type, pat ast.Pattern) {
	switch pat.Kind {
	case ast.PatVariable:
		alloc := g.builder.CreateAlloca(subj.Type(), pat.Name)
		g.builder.CreateStore(subj, alloc)
		fc.define(pat.Name, alloc, subjTy)

	case ast.PatVariant:
		layout := g.enums[subjTy.Name]
		types := layout.variantTypes[pat.VariantName]
		if len(types) == 0 {
			return
		}
		payloadPtr := g.builder.CreateStructGEP(subj, 1, "payload_ptr")
		paramTypes := make([]llvm.Type, len(types))
		for i, t := range types {
			paramTypes[i] = g.lower(t)
		}
		tupleTy := g.ctx.StructType(paramTypes, true)
		tuplePtr := g.builder.CreateBitCast(payloadPtr, llvm.PointerType(tupleTy, 0), "payload_as_tuple")
		for i, sp := range pat.SubPatterns {
			if sp.Kind != ast.PatVariable {
				continue
			}
			fieldPtr := g.builder.CreateStructGEP(tuplePtr, i, sp.Name+"_ptr")
			alloc := g.builder.CreateAlloca(paramTypes[i], sp.Name)
			g.builder.CreateStore(g.builder.CreateLoad(fieldPtr, sp.Name), alloc)
			fc.define(sp.Name, alloc, types[i])
		}
	}
}
