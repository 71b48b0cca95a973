package ir

import (
	"fmt"

	"github.com/clonk-lang/clonk/internal/diag"
	"github.com/clonk-lang/clonk/internal/lexer"
	"github.com/clonk-lang/clonk/internal/parser/ast"
)

// blockState is the per-block SSA-construction bookkeeping from the
// component design (SSABlock): it lives only while a function is being
// built and is discarded once every block in it is sealed.
type blockState struct {
	mappings       map[string]ValueID
	incompletePhis []incompletePhi
}

type incompletePhi struct {
	name string
	inst InstID
}

// Builder lowers a parsed Program into an SSA Module, one function at a
// time, using Braun et al.'s on-the-fly construction algorithm: reads of
// a not-yet-defined variable insert a phi eagerly rather than running a
// separate dominance-frontier pass first.
type Builder struct {
	diags *diag.Bag

	mod      *Module
	fn       *Function
	states   []*blockState
	cur      BlockID
	blockSeq int
}

func NewBuilder(diags *diag.Bag) *Builder {
	return &Builder{diags: diags}
}

// Build lowers every function in prog and returns the resulting module.
// It assumes prog is well-formed; per the component design's error
// taxonomy, IR construction does not re-validate what the parser has
// already checked.
func (b *Builder) Build(prog *ast.Program) *Module {
	b.mod = NewModule("clonk")
	for _, e := range prog.Externs {
		b.mod.Externs = append(b.mod.Externs, Extern{Name: e.Name, ParamCount: e.ParamCount})
	}
	for _, fn := range prog.Functions {
		b.mod.AddFunction(b.buildFunction(fn))
	}
	for _, err := range b.mod.Verify() {
		b.diags.AddInternal(err.Error())
	}
	return b.mod
}

func (b *Builder) buildFunction(af *ast.Function) *Function {
	b.fn = NewFunction(af.Name)
	b.states = nil
	b.blockSeq = 0

	entry := b.newBlock("entry")
	b.fn.Entry = entry
	b.sealBlock(entry)
	b.cur = entry

	for _, p := range af.Params {
		v := b.fn.addParam(p.Name)
		b.writeVariableRaw(entry, p.Name, v)
	}
	for _, name := range af.AutoLocals {
		_, allocVal := b.fn.emitWithResult(entry, Instr{Op: OpAlloca}, I64)
		b.fn.AutoAllocas[name] = allocVal
	}

	b.lowerBlock(af.Body)

	if !b.currentBlock().IsTerminated(b.fn) {
		zero := b.fn.Const(0)
		b.fn.emit(b.cur, Instr{Op: OpRet, Args: []ValueID{zero}})
	}
	return b.fn
}

func (b *Builder) newBlock(base string) BlockID {
	label := fmt.Sprintf("%s.%d", base, b.blockSeq)
	b.blockSeq++
	id := b.fn.NewBlock(label)
	b.states = append(b.states, &blockState{mappings: make(map[string]ValueID)})
	return id
}

func (b *Builder) currentBlock() *BasicBlock { return b.fn.Block(b.cur) }

func (b *Builder) currentTerminated() bool { return b.currentBlock().IsTerminated(b.fn) }

// writeVariableRaw updates the SSA mapping only; used both for ordinary
// writes and for the caching the read side of the algorithm does along
// the way.
func (b *Builder) writeVariableRaw(block BlockID, name string, val ValueID) {
	b.states[block].mappings[name] = val
}

// writeVariable is the write half of the component design's storage
// model: update the SSA mapping, and if name is an auto local, also
// store through its alloca so a read through an escaped pointer still
// observes the write.
func (b *Builder) writeVariable(block BlockID, name string, val ValueID) {
	b.writeVariableRaw(block, name, val)
	if alloc, ok := b.fn.AutoAllocas[name]; ok {
		b.fn.emit(block, Instr{Op: OpStore, Args: []ValueID{val, alloc}, ElemBits: 64})
	}
}

// readVariable is readSSAValue from the component design.
func (b *Builder) readVariable(block BlockID, name string) ValueID {
	if v, ok := b.states[block].mappings[name]; ok {
		return b.fn.Resolve(v)
	}
	return b.readVariableRecursive(block, name)
}

func (b *Builder) readVariableRecursive(block BlockID, name string) ValueID {
	bb := b.fn.Block(block)
	var val ValueID

	// newPhi puts the phi at the head of block: the block may already end
	// in its terminator (a loop header whose condition has been lowered).
	newPhi := func() (InstID, ValueID) {
		instID, v := b.fn.emitWithResult(block, Instr{Op: OpPhi}, I64)
		copy(bb.Instrs[1:], bb.Instrs[:len(bb.Instrs)-1])
		bb.Instrs[0] = instID
		return instID, v
	}

	switch {
	case !bb.Sealed:
		instID, v := newPhi()
		b.states[block].incompletePhis = append(b.states[block].incompletePhis, incompletePhi{name: name, inst: instID})
		val = v
	case len(bb.Preds) == 1:
		val = b.readVariable(bb.Preds[0], name)
	case len(bb.Preds) == 0:
		// Sealed with no predecessors: unreachable block, no definition
		// can reach here.
		val = b.fn.Const(0)
	default:
		instID, v := newPhi()
		b.writeVariableRaw(block, name, v)
		val = b.addPhiOperands(block, instID, name)
	}

	b.writeVariableRaw(block, name, val)
	return val
}

func (b *Builder) addPhiOperands(block BlockID, instID InstID, name string) ValueID {
	bb := b.fn.Block(block)
	for _, pred := range bb.Preds {
		v := b.readVariable(pred, name)
		b.fn.Instrs[instID].PhiEdges = append(b.fn.Instrs[instID].PhiEdges, PhiEdge{Value: v, Pred: pred})
	}
	return b.tryRemoveTrivialPhi(instID)
}

// tryRemoveTrivialPhi is the documented trivial-phi-removal hook: a phi
// whose non-self incoming values all agree is replaced everywhere by
// that value. The phi instruction is left in its block — its operand
// count still matches the predecessor count, so Verify still holds —
// but Function.Subst makes every later operand reference resolve past
// it.
func (b *Builder) tryRemoveTrivialPhi(instID InstID) ValueID {
	inst := &b.fn.Instrs[instID]
	phiVal := inst.Dest
	same := NoValue
	for _, e := range inst.PhiEdges {
		v := b.fn.Resolve(e.Value)
		if v == phiVal {
			continue
		}
		if same != NoValue && same != v {
			return phiVal
		}
		same = v
	}
	if same == NoValue {
		return phiVal
	}
	b.fn.Subst[phiVal] = same
	return same
}

// sealBlock completes every phi left incomplete while block was
// unsealed, then marks it sealed: no further predecessors may be added.
func (b *Builder) sealBlock(block BlockID) {
	bb := b.fn.Block(block)
	st := b.states[block]
	for _, ip := range st.incompletePhis {
		b.addPhiOperands(block, ip.inst, ip.name)
	}
	st.incompletePhis = nil
	bb.Sealed = true
}

func (b *Builder) toI64(i1 ValueID) ValueID {
	_, v := b.fn.emitWithResult(b.cur, Instr{Op: OpZExt, Args: []ValueID{i1}}, I64)
	return v
}

func compareOp(k lexer.TokenKind) (Op, bool) {
	switch k {
	case lexer.Eq:
		return OpICmpEQ, true
	case lexer.NotEq:
		return OpICmpNE, true
	case lexer.Less:
		return OpICmpSLT, true
	case lexer.LessEq:
		return OpICmpSLE, true
	case lexer.Greater:
		return OpICmpSGT, true
	case lexer.GreaterEq:
		return OpICmpSGE, true
	default:
		return 0, false
	}
}

func arithOp(k lexer.TokenKind) Op {
	switch k {
	case lexer.Plus:
		return OpAdd
	case lexer.Minus:
		return OpSub
	case lexer.Star:
		return OpMul
	case lexer.Slash:
		return OpSDiv
	case lexer.Percent:
		return OpSRem
	case lexer.BitAnd:
		return OpAnd
	case lexer.BitOr:
		return OpOr
	case lexer.BitXor:
		return OpXor
	case lexer.Shl:
		return OpShl
	case lexer.Shr:
		return OpAShr
	default:
		panic(fmt.Sprintf("not an arithmetic operator: %v", k))
	}
}

// isComparisonOp mirrors parser.isComparisonOp; kept local so this
// package doesn't need to import the parser for one six-line check.
func isComparisonOp(k lexer.TokenKind) bool {
	_, ok := compareOp(k)
	return ok
}

func (b *Builder) lowerBlock(block *ast.Block) {
	for _, s := range block.Stmts {
		if b.currentTerminated() {
			break
		}
		b.lowerStmt(s)
	}
}

func (b *Builder) lowerStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.Decl:
		val := b.lowerExpr(st.Init)
		b.writeVariable(b.cur, st.Ident.Name, val)
	case *ast.If:
		b.lowerIf(st)
	case *ast.While:
		b.lowerWhile(st)
	case *ast.Return:
		var v ValueID
		if st.Expr != nil {
			v = b.lowerExpr(st.Expr)
		} else {
			v = b.fn.Const(0)
		}
		b.fn.emit(b.cur, Instr{Op: OpRet, Args: []ValueID{v}})
	case *ast.Block:
		b.lowerBlock(st)
	case *ast.ExprStmt:
		b.lowerExpr(st.Expr)
	default:
		panic(fmt.Sprintf("unreachable statement kind %T", s))
	}
}

func (b *Builder) lowerExpr(e ast.Expr) ValueID {
	switch ex := e.(type) {
	case *ast.IntLit:
		return b.fn.Const(int64(ex.Value))
	case *ast.Ident:
		return b.readVariable(b.cur, ex.Name)
	case *ast.BinOp:
		return b.lowerBinOp(ex)
	case *ast.UnOp:
		return b.lowerUnOp(ex)
	case *ast.Call:
		return b.lowerCall(ex)
	case *ast.Index:
		return b.lowerIndexLoad(ex)
	default:
		panic(fmt.Sprintf("unreachable expr kind %T", e))
	}
}

func (b *Builder) lowerBinOp(bo *ast.BinOp) ValueID {
	switch bo.Op {
	case lexer.Assign:
		return b.lowerAssign(bo)
	case lexer.And:
		return b.lowerShortCircuit(bo, true)
	case lexer.Or:
		return b.lowerShortCircuit(bo, false)
	}

	left := b.lowerExpr(bo.Left)
	right := b.lowerExpr(bo.Right)

	if op, ok := compareOp(bo.Op); ok {
		_, i1 := b.fn.emitWithResult(b.cur, Instr{Op: op, Args: []ValueID{left, right}}, I1)
		return b.toI64(i1)
	}
	_, v := b.fn.emitWithResult(b.cur, Instr{Op: arithOp(bo.Op), Args: []ValueID{left, right}}, I64)
	return v
}

func (b *Builder) lowerAssign(bo *ast.BinOp) ValueID {
	val := b.lowerExpr(bo.Right)
	switch lhs := bo.Left.(type) {
	case *ast.Ident:
		b.writeVariable(b.cur, lhs.Name, val)
	case *ast.Index:
		b.lowerIndexStore(lhs, val)
	default:
		panic(fmt.Sprintf("assignment to non-lvalue reached the builder: %T", bo.Left))
	}
	return val
}

func (b *Builder) lowerUnOp(u *ast.UnOp) ValueID {
	switch u.Op {
	case lexer.BitAnd:
		return b.lowerAddressOf(u.Expr)
	case lexer.Minus:
		operand := b.lowerExpr(u.Expr)
		zero := b.fn.Const(0)
		_, v := b.fn.emitWithResult(b.cur, Instr{Op: OpSub, Args: []ValueID{zero, operand}}, I64)
		return v
	case lexer.Not:
		operand := b.lowerExpr(u.Expr)
		zero := b.fn.Const(0)
		_, eq := b.fn.emitWithResult(b.cur, Instr{Op: OpICmpEQ, Args: []ValueID{operand, zero}}, I1)
		return b.toI64(eq)
	case lexer.BitNot:
		operand := b.lowerExpr(u.Expr)
		negOne := b.fn.Const(-1)
		_, v := b.fn.emitWithResult(b.cur, Instr{Op: OpXor, Args: []ValueID{operand, negOne}}, I64)
		return v
	default:
		panic(fmt.Sprintf("unreachable unary operator %v", u.Op))
	}
}

// lowerAddressOf handles '&e'. The parser has already rejected register
// and parameter identifiers, so an Ident operand here always names an
// auto local with a live alloca.
func (b *Builder) lowerAddressOf(e ast.Expr) ValueID {
	switch x := e.(type) {
	case *ast.Ident:
		alloc := b.fn.AutoAllocas[x.Name]
		_, ptr := b.fn.emitWithResult(b.cur, Instr{Op: OpPtrToInt, Args: []ValueID{alloc}}, I64)
		return ptr
	case *ast.Index:
		return b.lowerIndexAddress(x)
	default:
		panic(fmt.Sprintf("'&' on non-lvalue reached the builder: %T", e))
	}
}

// lowerIndexAddress computes the iN pointer that a[i]@N addresses,
// without loading or storing through it. An auto local used as the base
// is read back from its alloca rather than from the SSA mapping.
func (b *Builder) lowerIndexAddress(x *ast.Index) ValueID {
	base := NoValue
	if id, ok := x.Base.(*ast.Ident); ok {
		if alloc, isAuto := b.fn.AutoAllocas[id.Name]; isAuto {
			_, base = b.fn.emitWithResult(b.cur, Instr{Op: OpLoad, Args: []ValueID{alloc}, ElemBits: 64}, I64)
		}
	}
	if base == NoValue {
		base = b.lowerExpr(x.Base)
	}
	_, ptr := b.fn.emitWithResult(b.cur, Instr{Op: OpIntToPtr, Args: []ValueID{base}}, I64)
	index := b.lowerExpr(x.IndexExpr)
	_, addr := b.fn.emitWithResult(b.cur, Instr{Op: OpGEP, Args: []ValueID{ptr, index}, ElemBits: x.Size * 8}, I64)
	return addr
}

func (b *Builder) lowerIndexLoad(x *ast.Index) ValueID {
	addr := b.lowerIndexAddress(x)
	_, loaded := b.fn.emitWithResult(b.cur, Instr{Op: OpLoad, Args: []ValueID{addr}, ElemBits: x.Size * 8}, I64)
	if x.Size < 8 {
		_, ext := b.fn.emitWithResult(b.cur, Instr{Op: OpSExt, Args: []ValueID{loaded}, ElemBits: x.Size * 8}, I64)
		return ext
	}
	return loaded
}

func (b *Builder) lowerIndexStore(x *ast.Index, val ValueID) {
	addr := b.lowerIndexAddress(x)
	b.fn.emit(b.cur, Instr{Op: OpStore, Args: []ValueID{val, addr}, ElemBits: x.Size * 8})
}

func (b *Builder) lowerCall(c *ast.Call) ValueID {
	args := make([]ValueID, len(c.Args))
	for i, a := range c.Args {
		args[i] = b.lowerExpr(a)
	}
	_, v := b.fn.emitWithResult(b.cur, Instr{Op: OpCall, Callee: c.Callee, Args: args}, I64)
	return v
}

// lowerShortCircuit implements the &&/|| lowering from the component
// design: evaluate the left operand in the current block, branch past
// the right operand when it cannot change the result, otherwise
// evaluate it in its own block and join with a phi.
func (b *Builder) lowerShortCircuit(bo *ast.BinOp, isAnd bool) ValueID {
	left := b.lowerExpr(bo.Left)
	entry := b.cur

	rhsBlock := b.newBlock("sc.rhs")
	endBlock := b.newBlock("sc.end")

	zero := b.fn.Const(0)
	_, leftIsZero := b.fn.emitWithResult(entry, Instr{Op: OpICmpEQ, Args: []ValueID{left, zero}}, I1)

	if isAnd {
		// l == 0 short-circuits to false without evaluating r.
		b.fn.emit(entry, Instr{Op: OpCondBr, Args: []ValueID{leftIsZero}, Targets: []BlockID{endBlock, rhsBlock}})
	} else {
		// l != 0 short-circuits to true without evaluating r.
		b.fn.emit(entry, Instr{Op: OpCondBr, Args: []ValueID{leftIsZero}, Targets: []BlockID{rhsBlock, endBlock}})
	}
	b.fn.addPred(rhsBlock, entry)
	b.fn.addPred(endBlock, entry)
	b.sealBlock(rhsBlock)

	b.cur = rhsBlock
	right := b.lowerExpr(bo.Right)
	zeroR := b.fn.Const(0)
	_, rightNonZero := b.fn.emitWithResult(b.cur, Instr{Op: OpICmpNE, Args: []ValueID{right, zeroR}}, I1)
	one := b.fn.Const(1)
	zero2 := b.fn.Const(0)
	_, rVal := b.fn.emitWithResult(b.cur, Instr{Op: OpSelect, Args: []ValueID{rightNonZero, one, zero2}}, I64)
	rhsEnd := b.cur
	if !b.fn.Block(rhsEnd).IsTerminated(b.fn) {
		b.fn.emit(rhsEnd, Instr{Op: OpBr, Targets: []BlockID{endBlock}})
		b.fn.addPred(endBlock, rhsEnd)
	}
	b.sealBlock(endBlock)

	b.cur = endBlock
	shortVal := b.fn.Const(boolToI64(!isAnd))
	phiID, phi := b.fn.emitWithResult(endBlock, Instr{Op: OpPhi}, I64)
	b.fn.Instrs[phiID].PhiEdges = []PhiEdge{
		{Value: shortVal, Pred: entry},
		{Value: rVal, Pred: rhsEnd},
	}
	return phi
}

func (b *Builder) lowerIf(st *ast.If) {
	if cv, ok := constCondition(st.Cond); ok {
		if cv != 0 {
			b.lowerStmt(st.Then)
		} else if st.Else != nil {
			b.lowerStmt(st.Else)
		}
		return
	}

	condBlock := b.newBlock("if.cond")
	thenBlock := b.newBlock("if.then")
	var elseBlock BlockID
	hasElse := st.Else != nil
	if hasElse {
		elseBlock = b.newBlock("if.else")
	}
	endBlock := b.newBlock("if.end")

	entry := b.cur
	b.fn.emit(entry, Instr{Op: OpBr, Targets: []BlockID{condBlock}})
	b.fn.addPred(condBlock, entry)
	b.sealBlock(condBlock)

	b.cur = condBlock
	cond := b.lowerCondition(st.Cond)

	if hasElse {
		b.fn.emit(condBlock, Instr{Op: OpCondBr, Args: []ValueID{cond}, Targets: []BlockID{thenBlock, elseBlock}})
		b.fn.addPred(thenBlock, condBlock)
		b.fn.addPred(elseBlock, condBlock)
		b.sealBlock(thenBlock)
		b.sealBlock(elseBlock)

		b.cur = thenBlock
		b.lowerStmt(st.Then)
		thenEnd := b.cur
		if !b.fn.Block(thenEnd).IsTerminated(b.fn) {
			b.fn.emit(thenEnd, Instr{Op: OpBr, Targets: []BlockID{endBlock}})
			b.fn.addPred(endBlock, thenEnd)
		}

		b.cur = elseBlock
		b.lowerStmt(st.Else)
		elseEnd := b.cur
		if !b.fn.Block(elseEnd).IsTerminated(b.fn) {
			b.fn.emit(elseEnd, Instr{Op: OpBr, Targets: []BlockID{endBlock}})
			b.fn.addPred(endBlock, elseEnd)
		}
	} else {
		b.fn.emit(condBlock, Instr{Op: OpCondBr, Args: []ValueID{cond}, Targets: []BlockID{thenBlock, endBlock}})
		b.fn.addPred(thenBlock, condBlock)
		b.fn.addPred(endBlock, condBlock)
		b.sealBlock(thenBlock)

		b.cur = thenBlock
		b.lowerStmt(st.Then)
		thenEnd := b.cur
		if !b.fn.Block(thenEnd).IsTerminated(b.fn) {
			b.fn.emit(thenEnd, Instr{Op: OpBr, Targets: []BlockID{endBlock}})
			b.fn.addPred(endBlock, thenEnd)
		}
	}

	b.sealBlock(endBlock)
	b.cur = endBlock
}

func (b *Builder) lowerWhile(st *ast.While) {
	condBlock := b.newBlock("while.cond")
	bodyBlock := b.newBlock("while.body")
	endBlock := b.newBlock("while.end")

	entry := b.cur
	b.fn.emit(entry, Instr{Op: OpBr, Targets: []BlockID{condBlock}})
	b.fn.addPred(condBlock, entry)
	// cond stays unsealed until the back-edge from the body is known.

	b.cur = condBlock
	constVal, constOK := constCondition(st.Cond)
	switch {
	case constOK && constVal == 0:
		b.fn.emit(condBlock, Instr{Op: OpBr, Targets: []BlockID{endBlock}})
		b.fn.addPred(endBlock, condBlock)
	case constOK && constVal != 0:
		b.fn.emit(condBlock, Instr{Op: OpBr, Targets: []BlockID{bodyBlock}})
		b.fn.addPred(bodyBlock, condBlock)
	default:
		cond := b.lowerCondition(st.Cond)
		b.fn.emit(condBlock, Instr{Op: OpCondBr, Args: []ValueID{cond}, Targets: []BlockID{bodyBlock, endBlock}})
		b.fn.addPred(bodyBlock, condBlock)
		b.fn.addPred(endBlock, condBlock)
	}
	// body's only predecessor is cond; it never gains another, so it
	// can be sealed the same way if's then/else are.
	b.sealBlock(bodyBlock)

	b.cur = bodyBlock
	b.lowerStmt(st.Body)
	bodyEnd := b.cur
	if !b.fn.Block(bodyEnd).IsTerminated(b.fn) {
		b.fn.emit(bodyEnd, Instr{Op: OpBr, Targets: []BlockID{condBlock}})
		b.fn.addPred(condBlock, bodyEnd)
	}

	b.sealBlock(condBlock)
	b.sealBlock(endBlock)
	b.cur = endBlock
}

// lowerCondition lowers e to an i1. When e is itself a top-level
// comparison, the compare result is used directly instead of going
// through a redundant compare-to-zero, the optimization the component
// design explicitly permits.
func (b *Builder) lowerCondition(e ast.Expr) ValueID {
	if bo, ok := e.(*ast.BinOp); ok && isComparisonOp(bo.Op) {
		left := b.lowerExpr(bo.Left)
		right := b.lowerExpr(bo.Right)
		op, _ := compareOp(bo.Op)
		_, i1 := b.fn.emitWithResult(b.cur, Instr{Op: op, Args: []ValueID{left, right}}, I1)
		return i1
	}
	v := b.lowerExpr(e)
	zero := b.fn.Const(0)
	_, i1 := b.fn.emitWithResult(b.cur, Instr{Op: OpICmpNE, Args: []ValueID{v, zero}}, I1)
	return i1
}
