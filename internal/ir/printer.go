package ir

import (
	"fmt"
	"strings"
)

// Print renders m as the textual SSA dump described in the external
// interfaces section of the component design: one function per block,
// labeled blocks, three-address instructions, phi lists as
// "[val, block]" pairs. Output depends only on m, so identical input
// always produces byte-identical text.
func Print(m *Module) string {
	var sb strings.Builder
	for i, fn := range m.Functions {
		if i > 0 {
			sb.WriteString("\n")
		}
		printFunction(&sb, fn)
	}
	if len(m.Externs) > 0 {
		sb.WriteString("\n")
		for _, e := range m.Externs {
			fmt.Fprintf(&sb, "extern %s/%d\n", e.Name, e.ParamCount)
		}
	}
	return sb.String()
}

func printFunction(sb *strings.Builder, fn *Function) {
	fmt.Fprintf(sb, "func %s(", fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fn.Values[p].Name)
	}
	sb.WriteString(") {\n")
	for _, bb := range fn.Blocks {
		printBlock(sb, fn, bb)
	}
	sb.WriteString("}\n")
}

func printBlock(sb *strings.Builder, fn *Function, bb *BasicBlock) {
	fmt.Fprintf(sb, "%s:\n", bb.Label)
	for _, id := range bb.Instrs {
		sb.WriteString("  ")
		printInstr(sb, fn, fn.Instrs[id])
		sb.WriteString("\n")
	}
}

func valueRef(fn *Function, id ValueID) string {
	id = fn.Resolve(id)
	return fn.Values[id].String()
}

func blockRef(fn *Function, id BlockID) string {
	return fn.Blocks[id].Label
}

func printInstr(sb *strings.Builder, fn *Function, inst Instr) {
	dest := ""
	if inst.Dest != NoValue {
		// The binding site is never resolved through Subst: a trivial
		// phi still defines its own arena slot, even though every use
		// of that slot is rewritten to the value it was found equal to.
		dest = fmt.Sprintf("%s = ", fn.Values[inst.Dest].String())
	}

	switch inst.Op {
	case OpBr:
		fmt.Fprintf(sb, "br %s", blockRef(fn, inst.Targets[0]))
	case OpCondBr:
		fmt.Fprintf(sb, "br %s, %s, %s", valueRef(fn, inst.Args[0]), blockRef(fn, inst.Targets[0]), blockRef(fn, inst.Targets[1]))
	case OpRet:
		fmt.Fprintf(sb, "ret %s", valueRef(fn, inst.Args[0]))
	case OpPhi:
		edges := make([]string, len(inst.PhiEdges))
		for i, e := range inst.PhiEdges {
			edges[i] = fmt.Sprintf("[%s, %s]", valueRef(fn, e.Value), blockRef(fn, e.Pred))
		}
		fmt.Fprintf(sb, "%sphi %s", dest, strings.Join(edges, ", "))
	case OpCall:
		args := make([]string, len(inst.Args))
		for i, a := range inst.Args {
			args[i] = valueRef(fn, a)
		}
		fmt.Fprintf(sb, "%scall %s(%s)", dest, inst.Callee, strings.Join(args, ", "))
	case OpAlloca:
		fmt.Fprintf(sb, "%salloca i64", dest)
	case OpLoad:
		fmt.Fprintf(sb, "%sload i%d, %s", dest, inst.ElemBits, valueRef(fn, inst.Args[0]))
	case OpStore:
		fmt.Fprintf(sb, "store i%d %s, %s", inst.ElemBits, valueRef(fn, inst.Args[0]), valueRef(fn, inst.Args[1]))
	case OpGEP:
		fmt.Fprintf(sb, "%sgetelementptr i%d, %s, %s", dest, inst.ElemBits, valueRef(fn, inst.Args[0]), valueRef(fn, inst.Args[1]))
	case OpSExt:
		fmt.Fprintf(sb, "%ssext i%d %s to i64", dest, inst.ElemBits, valueRef(fn, inst.Args[0]))
	case OpZExt:
		fmt.Fprintf(sb, "%szext i1 %s to i64", dest, valueRef(fn, inst.Args[0]))
	case OpSelect:
		fmt.Fprintf(sb, "%sselect %s, %s, %s", dest, valueRef(fn, inst.Args[0]), valueRef(fn, inst.Args[1]), valueRef(fn, inst.Args[2]))
	case OpPtrToInt:
		fmt.Fprintf(sb, "%sptrtoint %s", dest, valueRef(fn, inst.Args[0]))
	case OpIntToPtr:
		fmt.Fprintf(sb, "%sinttoptr %s", dest, valueRef(fn, inst.Args[0]))
	default:
		// Arithmetic and compare instructions share the uniform
		// "op left, right" layout.
		fmt.Fprintf(sb, "%s%s %s, %s", dest, inst.Op, valueRef(fn, inst.Args[0]), valueRef(fn, inst.Args[1]))
	}
}
