package ir

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clonk-lang/clonk/internal/diag"
	"github.com/clonk-lang/clonk/internal/lexer"
	"github.com/clonk-lang/clonk/internal/parser"
)

func buildModule(t *testing.T, src string) *Module {
	t.Helper()
	diags := diag.New()
	ts := lexer.New(src, "test.clonk", diags)
	prog := parser.New(ts, diags).ParseProgram()
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics parsing %q:\n%s", src, dump(diags))
	}
	mod := NewBuilder(diags).Build(prog)
	if errs := mod.Verify(); len(errs) > 0 {
		t.Fatalf("module failed verification: %v", errs)
	}
	return mod
}

func dump(d *diag.Bag) string {
	var sb strings.Builder
	d.WriteTo(&sb)
	return sb.String()
}

func countOp(fn *Function, op Op) int {
	n := 0
	for _, inst := range fn.Instrs {
		if inst.Op == op {
			n++
		}
	}
	return n
}

func TestBuilder_EmptyBodyReturnsZero(t *testing.T) {
	mod := buildModule(t, "f(){}")
	fn := mod.Functions[0]
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected a single block, got %d", len(fn.Blocks))
	}
	entry := fn.Blocks[0]
	term := entry.Terminator(fn)
	if term < 0 || fn.Instrs[term].Op != OpRet {
		t.Fatalf("expected the entry block to end in ret 0")
	}
	if fn.Values[fn.Instrs[term].Args[0]].ConstInt != 0 {
		t.Errorf("expected implicit return of 0")
	}
}

func TestBuilder_AutoLocalGetsOneAllocaAndIsStoredOnWrite(t *testing.T) {
	mod := buildModule(t, "f(){ auto x=1; x=2; return x; }")
	fn := mod.Functions[0]
	if countOp(fn, OpAlloca) != 1 {
		t.Fatalf("expected exactly one alloca for the single auto local, got %d", countOp(fn, OpAlloca))
	}
	if countOp(fn, OpStore) != 2 {
		t.Errorf("expected one store per write to the auto local, got %d", countOp(fn, OpStore))
	}
}

func TestBuilder_RegisterLocalHasNoAlloca(t *testing.T) {
	mod := buildModule(t, "f(){ register x=1; x=2; return x; }")
	fn := mod.Functions[0]
	if countOp(fn, OpAlloca) != 0 {
		t.Errorf("register locals must never get an alloca, got %d", countOp(fn, OpAlloca))
	}
}

func TestBuilder_IfElsePhiHasTwoEdges(t *testing.T) {
	mod := buildModule(t, "f(a){ auto x=0; if(a) x=1; else x=2; return x; }")
	fn := mod.Functions[0]
	var endBlock *BasicBlock
	for _, bb := range fn.Blocks {
		if strings.HasPrefix(bb.Label, "if.end") {
			endBlock = bb
		}
	}
	if endBlock == nil {
		t.Fatalf("expected an if.end block")
	}
	if len(endBlock.Preds) != 2 {
		t.Fatalf("if.end should have two predecessors, got %d", len(endBlock.Preds))
	}
	foundPhi := false
	for _, id := range endBlock.Instrs {
		if fn.Instrs[id].Op == OpPhi {
			foundPhi = true
			if len(fn.Instrs[id].PhiEdges) != len(endBlock.Preds) {
				t.Errorf("phi operand count %d != predecessor count %d", len(fn.Instrs[id].PhiEdges), len(endBlock.Preds))
			}
		}
	}
	if !foundPhi {
		t.Errorf("expected a phi for x merging the two branches")
	}
}

func TestBuilder_ConstantIfLowersOnlyTakenSide(t *testing.T) {
	mod := buildModule(t, "f(){ if(1) return 1; else return 2; }")
	fn := mod.Functions[0]
	for _, bb := range fn.Blocks {
		if strings.Contains(bb.Label, "if.") {
			t.Fatalf("constant if(1) should not emit any if.* blocks, found %s", bb.Label)
		}
	}
}

func TestBuilder_WhileCondBlockHasTwoPredecessorsAfterSealing(t *testing.T) {
	mod := buildModule(t, "f(n){ auto i=0; auto s=0; while(i<n){ s=s+i; i=i+1; } return s; }")
	fn := mod.Functions[0]
	var condBlock *BasicBlock
	for _, bb := range fn.Blocks {
		if strings.HasPrefix(bb.Label, "while.cond") {
			condBlock = bb
		}
	}
	if condBlock == nil {
		t.Fatalf("expected a while.cond block")
	}
	if !condBlock.Sealed {
		t.Errorf("while.cond must be sealed once construction completes")
	}
	if len(condBlock.Preds) != 2 {
		t.Fatalf("while.cond should have the pre-loop edge and the back-edge, got %d predecessors", len(condBlock.Preds))
	}
}

func TestBuilder_ShortCircuitAndProducesSelectAndPhi(t *testing.T) {
	mod := buildModule(t, "f(a,b){ return a && b; }")
	fn := mod.Functions[0]
	if countOp(fn, OpSelect) != 1 {
		t.Errorf("expected one select in the && right-hand lowering, got %d", countOp(fn, OpSelect))
	}
	if countOp(fn, OpPhi) != 1 {
		t.Errorf("expected one phi joining the short-circuit and evaluated paths, got %d", countOp(fn, OpPhi))
	}
}

func TestBuilder_IndexLoadNarrowerThan8SignExtends(t *testing.T) {
	mod := buildModule(t, "f(a){ return a[0]@1; }")
	fn := mod.Functions[0]
	if countOp(fn, OpSExt) != 1 {
		t.Errorf("expected a[0]@1 to sign-extend its load, got %d sext instructions", countOp(fn, OpSExt))
	}
	if countOp(fn, OpGEP) != 1 {
		t.Errorf("expected exactly one getelementptr for the single index expression")
	}
}

func TestBuilder_CallLowersToCallWithMatchingArgs(t *testing.T) {
	mod := buildModule(t, "f(a){ return g(a, 1); } g(x,y){ return x+y; }")
	fn := mod.Functions[0]
	found := false
	for _, inst := range fn.Instrs {
		if inst.Op == OpCall {
			found = true
			if len(inst.Args) != 2 {
				t.Errorf("expected 2 call arguments, got %d", len(inst.Args))
			}
			if inst.Callee != "g" {
				t.Errorf("expected callee g, got %s", inst.Callee)
			}
		}
	}
	if !found {
		t.Fatalf("expected a call instruction")
	}
}

func TestPrint_IsDeterministicAcrossRuns(t *testing.T) {
	src := "f(n){ auto i=0; auto s=0; while(i<n){ s=s+i; i=i+1; } return s; }"
	mod1 := buildModule(t, src)
	mod2 := buildModule(t, src)
	if diff := cmp.Diff(Print(mod1), Print(mod2)); diff != "" {
		t.Errorf("Print should be byte-identical for identical input (-got +want):\n%s", diff)
	}
}

func TestPrint_ContainsPhiEdgeSyntax(t *testing.T) {
	mod := buildModule(t, "f(a){ auto x=0; if(a) x=1; else x=2; return x; }")
	out := Print(mod)
	if !strings.Contains(out, "phi") || !strings.Contains(out, "[") {
		t.Errorf("expected the printed IR to contain phi edges, got:\n%s", out)
	}
}
