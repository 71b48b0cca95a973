// Package ir implements the SSA intermediate representation and the
// on-the-fly SSA construction algorithm of Braun et al. ("Simple and
// Efficient Construction of Static Single Assignment Form").
//
// Values and instructions live in per-function arenas and are referenced
// by index (ValueID, InstID) rather than by pointer. A phi node refers to
// its incoming values and predecessor blocks by index, so the inherent
// cycles in phi loops never become pointer cycles that a reader has to
// reason about; it also means a Function can be copied, walked, or
// rewritten without worrying about aliasing through embedded pointers.
package ir

import "fmt"

// Type distinguishes the two widths an SSAValue can carry. Every clonk
// value is a 64-bit integer except the i1 produced by a comparison and
// consumed by a branch or select.
type Type int

const (
	I1 Type = iota
	I64
)

func (t Type) String() string {
	if t == I1 {
		return "i1"
	}
	return "i64"
}

// ValueID indexes Function.Values. NoValue marks "no result" on an
// instruction such as store, br, or ret.
type ValueID int32

const NoValue ValueID = -1

// InstID indexes Function.Instrs.
type InstID int32

// BlockID indexes Function.Blocks.
type BlockID int32

// ValueKind tags what produced a Value.
type ValueKind int

const (
	ValConst ValueKind = iota
	ValParam
	ValInst
)

// Value is one entry in a function's value arena: a constant, a
// parameter, or the result of an instruction (including a phi, which is
// just an instruction with Op == OpPhi).
type Value struct {
	Kind     ValueKind
	Type     Type
	ConstInt int64
	Name     string
	Def      InstID
}

func (v Value) String() string {
	switch v.Kind {
	case ValConst:
		return fmt.Sprintf("%d", v.ConstInt)
	case ValParam:
		return v.Name
	default:
		return fmt.Sprintf("%%%d", v.Def)
	}
}

// Op enumerates every instruction kind in the data model.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpSDiv
	OpSRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpAShr
	OpICmpEQ
	OpICmpNE
	OpICmpSLT
	OpICmpSLE
	OpICmpSGT
	OpICmpSGE
	OpSExt
	OpZExt
	OpSelect
	OpLoad
	OpStore
	OpGEP
	OpAlloca
	OpPtrToInt
	OpIntToPtr
	OpCall
	OpBr
	OpCondBr
	OpRet
	OpPhi
)

var opNames = map[Op]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpSDiv: "sdiv", OpSRem: "srem",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpShl: "shl", OpAShr: "ashr",
	OpICmpEQ: "eq", OpICmpNE: "ne", OpICmpSLT: "slt", OpICmpSLE: "sle",
	OpICmpSGT: "sgt", OpICmpSGE: "sge",
	OpSExt: "sext", OpZExt: "zext", OpSelect: "select",
	OpLoad: "load", OpStore: "store", OpGEP: "getelementptr",
	OpAlloca: "alloca", OpPtrToInt: "ptrtoint", OpIntToPtr: "inttoptr",
	OpCall: "call", OpBr: "br", OpCondBr: "br", OpRet: "ret", OpPhi: "phi",
}

func (o Op) String() string { return opNames[o] }

// PhiEdge is one incoming edge of a phi: the value observed when control
// arrives from Pred.
type PhiEdge struct {
	Value ValueID
	Pred  BlockID
}

// Instr is the single instruction shape used for every Op; the fields
// that matter depend on Op, mirroring how the three-address forms in the
// component design share one textual layout.
type Instr struct {
	Op       Op
	Block    BlockID
	Dest     ValueID
	Args     []ValueID
	ElemBits int
	Callee   string
	Targets  []BlockID
	PhiEdges []PhiEdge
}

func isTerminator(op Op) bool {
	return op == OpBr || op == OpCondBr || op == OpRet
}
