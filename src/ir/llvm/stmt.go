package llvm

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/Microindole/lency-sub000/src/ast"
	"github.com/Microindole/lency-sub000/src/mono"
)

// genStmt lowers a statement node, wiring control flow with
// AddBasicBlock/CreateCondBr/CreateBr over lency's richer statement set.
func (g *Generator) genStmt(fc *funcCtx, n *ast.Node) error {
	if n == nil {
		return nil
	}
	switch n.Typ {
	case ast.BLOCK:
		fc.pushScope()
		defer fc.popScope()
		for _, s := range n.Children {
			if err := g.genStmt(fc, s); err != nil {
				return err
			}
			if blockTerminated(g.builder.GetInsertBlock()) {
				break
			}
		}
		return nil

	case ast.VAR_DECL:
		return g.genVarDeclStmt(fc, n)

	case ast.IF:
		return g.genIf(fc, n)

	case ast.WHILE:
		return g.genWhile(fc, n)

	case ast.FOR:
		return g.genFor(fc, n)

	case ast.FOR_IN:
		return g.genForIn(fc, n)

	case ast.RETURN:
		return g.genReturn(fc, n)

	case ast.BREAK:
		top := fc.loops.Peek()
		if top == nil {
			return fmt.Errorf("genStmt: break outside loop")
		}
		g.builder.CreateBr(top.(loopCtx).breakBB)
		return nil

	case ast.CONTINUE:
		top := fc.loops.Peek()
		if top == nil {
			return fmt.Errorf("genStmt: continue outside loop")
		}
		g.builder.CreateBr(top.(loopCtx).continueBB)
		return nil

	case ast.ASSIGNMENT:
		return g.genAssignment(fc, n)

	case ast.EXPR_STMT:
		for _, c := range n.Children {
			if _, err := g.genExpr(fc, c); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("genStmt: unhandled node %s", n.Typ)
	}
}

func blockTerminated(bb llvm.BasicBlock) bool {
	last := bb.LastInstruction()
	return isTerminator(last)
}

func (g *Generator) genVarDeclStmt(fc *funcCtx, n *ast.Node) error {
	d := n.Data.(ast.VarDeclData)
	ty := d.Ty
	if ty == nil {
		ty = d.Value.Ty
	}
	llty := g.lower(ty)
	alloc := g.builder.CreateAlloca(llty, d.Name)
	if d.Value != nil {
		v, err := g.genExpr(fc, d.Value)
		if err != nil {
			return err
		}
		g.builder.CreateStore(v, alloc)
	} else {
		g.builder.CreateStore(llvm.ConstNull(llty), alloc)
	}
	fc.define(d.Name, alloc, ty)
	return nil
}

func (g *Generator) genAssignment(fc *funcCtx, n *ast.Node) error {
	d := n.Data.(ast.AssignmentData)
	ptr, err := g.genLValuePtr(fc, d.Target)
	if err != nil {
		return err
	}
	v, err := g.genExpr(fc, d.Value)
	if err != nil {
		return err
	}
	g.builder.CreateStore(v, ptr)
	return nil
}

func (g *Generator) genIf(fc *funcCtx, n *ast.Node) error {
	d := n.Data.(ast.IfData)
	cond, err := g.genExpr(fc, d.Cond)
	if err != nil {
		return err
	}

	fn := fc.fn
	thenBB := llvm.AddBasicBlock(fn, "if_then")
	var elseBB llvm.BasicBlock
	mergeBB := llvm.AddBasicBlock(fn, "if_merge")
	if d.Else != nil {
		elseBB = llvm.AddBasicBlock(fn, "if_else")
		g.builder.CreateCondBr(cond, thenBB, elseBB)
	} else {
		g.builder.CreateCondBr(cond, thenBB, mergeBB)
	}

	g.builder.SetInsertPointAtEnd(thenBB)
	if err := g.genStmt(fc, d.Then); err != nil {
		return err
	}
	if !blockTerminated(g.builder.GetInsertBlock()) {
		g.builder.CreateBr(mergeBB)
	}

	if d.Else != nil {
		g.builder.SetInsertPointAtEnd(elseBB)
		if err := g.genStmt(fc, d.Else); err != nil {
			return err
		}
		if !blockTerminated(g.builder.GetInsertBlock()) {
			g.builder.CreateBr(mergeBB)
		}
	}

	g.builder.SetInsertPointAtEnd(mergeBB)
	return nil
}

func (g *Generator) genWhile(fc *funcCtx, n *ast.Node) error {
	d := n.Data.(ast.WhileData)
	fn := fc.fn

	condBB := llvm.AddBasicBlock(fn, "while_cond")
	bodyBB := llvm.AddBasicBlock(fn, "while_body")
	exitBB := llvm.AddBasicBlock(fn, "while_exit")

	g.builder.CreateBr(condBB)
	g.builder.SetInsertPointAtEnd(condBB)
	cond, err := g.genExpr(fc, d.Cond)
	if err != nil {
		return err
	}
	g.builder.CreateCondBr(cond, bodyBB, exitBB)

	g.builder.SetInsertPointAtEnd(bodyBB)
	fc.loops.Push(loopCtx{continueBB: condBB, breakBB: exitBB})
	if err := g.genStmt(fc, d.Body); err != nil {
		return err
	}
	fc.loops.Pop()
	if !blockTerminated(g.builder.GetInsertBlock()) {
		g.builder.CreateBr(condBB)
	}

	g.builder.SetInsertPointAtEnd(exitBB)
	return nil
}

func (g *Generator) genFor(fc *funcCtx, n *ast.Node) error {
	d := n.Data.(ast.ForData)
	fn := fc.fn

	fc.pushScope()
	defer fc.popScope()

	if d.Init != nil {
		if err := g.genStmt(fc, d.Init); err != nil {
			return err
		}
	}

	condBB := llvm.AddBasicBlock(fn, "for_cond")
	bodyBB := llvm.AddBasicBlock(fn, "for_body")
	updateBB := llvm.AddBasicBlock(fn, "for_update")
	exitBB := llvm.AddBasicBlock(fn, "for_exit")

	g.builder.CreateBr(condBB)
	g.builder.SetInsertPointAtEnd(condBB)
	if d.Cond != nil {
		cond, err := g.genExpr(fc, d.Cond)
		if err != nil {
			return err
		}
		g.builder.CreateCondBr(cond, bodyBB, exitBB)
	} else {
		g.builder.CreateBr(bodyBB)
	}

	g.builder.SetInsertPointAtEnd(bodyBB)
	fc.loops.Push(loopCtx{continueBB: updateBB, breakBB: exitBB})
	if err := g.genStmt(fc, d.Body); err != nil {
		return err
	}
	fc.loops.Pop()
	if !blockTerminated(g.builder.GetInsertBlock()) {
		g.builder.CreateBr(updateBB)
	}

	g.builder.SetInsertPointAtEnd(updateBB)
	if d.Update != nil {
		if err := g.genStmt(fc, d.Update); err != nil {
			return err
		}
	}
	g.builder.CreateBr(condBB)

	g.builder.SetInsertPointAtEnd(exitBB)
	return nil
}

// genForIn lowers `for x in iter { body }` over a Vec or Array, indexing by
// a synthetic counter and calling lency_vec_len/lency_vec_get for a Vec
// subject, or using a constant trip count for an Array subject.
func (g *Generator) genForIn(fc *funcCtx, n *ast.Node) error {
	d := n.Data.(ast.ForInData)
	fn := fc.fn

	fc.pushScope()
	defer fc.popScope()

	iter, err := g.genExpr(fc, d.Iter)
	if err != nil {
		return err
	}

	i64 := g.ctx.Int64Type()
	idxPtr := g.builder.CreateAlloca(i64, "for_in_idx")
	g.builder.CreateStore(llvm.ConstInt(i64, 0, false), idxPtr)

	var lenVal llvm.Value
	isVec := d.Iter.Ty.Kind == ast.Vec
	if isVec {
		lenFn, _ := g.globals.get("lency_vec_len")
		lenVal = g.builder.CreateCall(lenFn, []llvm.Value{iter}, "vec_len")
	} else {
		lenVal = llvm.ConstInt(i64, uint64(d.Iter.Ty.Size), false)
	}

	condBB := llvm.AddBasicBlock(fn, "forin_cond")
	bodyBB := llvm.AddBasicBlock(fn, "forin_body")
	updateBB := llvm.AddBasicBlock(fn, "forin_update")
	exitBB := llvm.AddBasicBlock(fn, "forin_exit")

	g.builder.CreateBr(condBB)
	g.builder.SetInsertPointAtEnd(condBB)
	idx := g.builder.CreateLoad(idxPtr, "idx")
	cond := g.builder.CreateICmp(llvm.IntSLT, idx, lenVal, "forin_cmp")
	g.builder.CreateCondBr(cond, bodyBB, exitBB)

	g.builder.SetInsertPointAtEnd(bodyBB)
	elemTy := d.Iter.Ty.Elem
	var elemVal llvm.Value
	if isVec {
		getFn, _ := g.globals.get("lency_vec_get")
		boxed := g.builder.CreateCall(getFn, []llvm.Value{iter, idx}, "vec_elem")
		elemVal = g.unboxFromI64(boxed, elemTy)
	} else {
		zero := llvm.ConstInt(g.ctx.Int32Type(), 0, false)
		idx32 := g.builder.CreateIntCast(idx, g.ctx.Int32Type(), "idx32")
		ptr := g.builder.CreateGEP(iter, []llvm.Value{zero, idx32}, "arr_elem_ptr")
		elemVal = g.builder.CreateLoad(ptr, "arr_elem")
	}
	elemAlloc := g.builder.CreateAlloca(g.lower(elemTy), d.VarName)
	g.builder.CreateStore(elemVal, elemAlloc)
	fc.define(d.VarName, elemAlloc, elemTy)

	fc.loops.Push(loopCtx{continueBB: updateBB, breakBB: exitBB})
	if err := g.genStmt(fc, d.Body); err != nil {
		return err
	}
	fc.loops.Pop()
	if !blockTerminated(g.builder.GetInsertBlock()) {
		g.builder.CreateBr(updateBB)
	}

	g.builder.SetInsertPointAtEnd(updateBB)
	next := g.builder.CreateAdd(g.builder.CreateLoad(idxPtr, "idx"), llvm.ConstInt(i64, 1, false), "next_idx")
	g.builder.CreateStore(next, idxPtr)
	g.builder.CreateBr(condBB)

	g.builder.SetInsertPointAtEnd(exitBB)
	return nil
}

// unboxFromI64 is boxToI64's inverse, narrowing/bitcasting a Vec/HashMap
// element back to its static element type after a runtime get call.
func (g *Generator) unboxFromI64(v llvm.Value, ty *ast.Type) llvm.Value {
	if ty == nil {
		return v
	}
	switch ty.Kind {
	case ast.Int:
		return v
	case ast.Bool:
		return g.builder.CreateTrunc(v, g.ctx.Int1Type(), "unbox_bool")
	case ast.Float:
		return g.builder.CreateBitCast(v, g.ctx.DoubleType(), "unbox_float")
	default:
		return g.builder.CreateIntToPtr(v, g.lower(ty), "unbox_ptr")
	}
}

// genReturn lowers RETURN, repacking a bare value/Err into the enclosing
// function's own Result shape when its declared return type is a Result
// but the returned expression's static type is a bare Ok-payload or the
// degenerate Result<Void,Error> produced by a standalone `Err(e)`.
func (g *Generator) genReturn(fc *funcCtx, n *ast.Node) error {
	d := n.Data.(ast.ReturnData)
	if d.Value == nil {
		if fc.returnType == nil || fc.returnType.Kind == ast.Void {
			g.builder.CreateRetVoid()
		} else {
			g.builder.CreateRet(llvm.ConstNull(g.lower(fc.returnType)))
		}
		return nil
	}

	v, err := g.genExpr(fc, d.Value)
	if err != nil {
		return err
	}

	if fc.returnType != nil && fc.returnType.Kind == ast.Result && d.Value.Ty != nil {
		if d.Value.Ty.Kind == ast.Result && mono.Mangle(d.Value.Ty) != mono.Mangle(fc.returnType) {
			// A bare `return Err(e);` carries Result<Void,Error>; repack its
			// err payload into the function's declared Result<T,Error>.
			srcFields := g.structFields[mono.Mangle(d.Value.Ty)]
			var errVal llvm.Value
			for i, f := range srcFields {
				if f == "err" {
					ptr := g.builder.CreateStructGEP(v, i, "err_ptr")
					errVal = g.builder.CreateLoad(ptr, "err")
				}
			}
			repacked, err := g.buildResult(fc.returnType, false, nil, &errVal)
			if err != nil {
				return err
			}
			g.builder.CreateRet(repacked)
			return nil
		}
		if d.Value.Ty.Kind != ast.Result {
			repacked, err := g.buildResult(fc.returnType, true, &v, nil)
			if err != nil {
				return err
			}
			g.builder.CreateRet(repacked)
			return nil
		}
	}

	g.builder.CreateRet(v)
	return nil
}
