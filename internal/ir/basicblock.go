package ir

import "fmt"

// BasicBlock is a label plus an ordered list of instruction indices into
// the owning Function's instruction arena. Predecessors are tracked
// explicitly because the SSA builder needs them to seal blocks and
// complete incomplete phis.
type BasicBlock struct {
	ID     BlockID
	Label  string
	Instrs []InstID
	Preds  []BlockID
	Sealed bool
}

// Terminator returns the id of the block's terminating instruction, or
// -1 if the block has none yet.
func (b *BasicBlock) Terminator(f *Function) InstID {
	if len(b.Instrs) == 0 {
		return -1
	}
	last := b.Instrs[len(b.Instrs)-1]
	if isTerminator(f.Instrs[last].Op) {
		return last
	}
	return -1
}

// IsTerminated reports whether the block already ends in br, a
// conditional br, or ret.
func (b *BasicBlock) IsTerminated(f *Function) bool {
	return b.Terminator(f) >= 0
}

// Function owns every value and instruction belonging to one clonk
// function. Blocks, instructions, and phi edges all refer back into
// Values/Instrs by index rather than by pointer, per the arena layout
// above.
type Function struct {
	Name        string
	Params      []ValueID
	Blocks      []*BasicBlock
	Entry       BlockID
	Values      []Value
	Instrs      []Instr
	AutoAllocas map[string]ValueID

	// Subst records trivial-phi substitutions found during construction:
	// any operand that names a phi whose incoming edges all agreed on one
	// other value resolves, through this chain, to that value instead.
	Subst map[ValueID]ValueID
}

func NewFunction(name string) *Function {
	return &Function{
		Name:        name,
		AutoAllocas: make(map[string]ValueID),
		Subst:       make(map[ValueID]ValueID),
	}
}

// Resolve follows the trivial-phi substitution chain for v, if any.
func (f *Function) Resolve(v ValueID) ValueID {
	for {
		s, ok := f.Subst[v]
		if !ok {
			return v
		}
		v = s
	}
}

func (f *Function) newValue(v Value) ValueID {
	id := ValueID(len(f.Values))
	f.Values = append(f.Values, v)
	return id
}

// Const allocates a fresh arena slot for the i64 constant c. Sharing
// across uses of the same literal is left to whoever calls this, the
// same way the component design leaves general constant-folding out of
// scope for the builder.
func (f *Function) Const(c int64) ValueID {
	return f.newValue(Value{Kind: ValConst, Type: I64, ConstInt: c})
}

func (f *Function) addParam(name string) ValueID {
	id := f.newValue(Value{Kind: ValParam, Type: I64, Name: name})
	f.Params = append(f.Params, id)
	return id
}

// NewBlock creates and appends a basic block, returning its id.
func (f *Function) NewBlock(label string) BlockID {
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, &BasicBlock{ID: id, Label: label})
	return id
}

func (f *Function) Block(id BlockID) *BasicBlock { return f.Blocks[id] }

// emit appends inst to block, wiring inst.Block, and returns its id.
func (f *Function) emit(block BlockID, inst Instr) InstID {
	inst.Block = block
	inst.Dest = NoValue
	id := InstID(len(f.Instrs))
	f.Instrs = append(f.Instrs, inst)
	f.Blocks[block].Instrs = append(f.Blocks[block].Instrs, id)
	return id
}

// emitWithResult is emit plus allocation of the instruction's result
// value, wired back to the instruction both ways.
func (f *Function) emitWithResult(block BlockID, inst Instr, typ Type) (InstID, ValueID) {
	dest := f.newValue(Value{Kind: ValInst, Type: typ})
	inst.Block = block
	inst.Dest = dest
	id := InstID(len(f.Instrs))
	f.Instrs = append(f.Instrs, inst)
	f.Blocks[block].Instrs = append(f.Blocks[block].Instrs, id)
	f.Values[dest].Def = id
	return id, dest
}

func (f *Function) addPred(block, pred BlockID) {
	bb := f.Blocks[block]
	for _, p := range bb.Preds {
		if p == pred {
			return
		}
	}
	bb.Preds = append(bb.Preds, pred)
}

// Extern records a callee whose definition was never seen in this
// module, together with the argument count of its first call.
type Extern struct {
	Name       string
	ParamCount int
}

// Module is the top-level IR container: every lowered function plus the
// externs the parser discovered.
type Module struct {
	Name      string
	Functions []*Function
	Externs   []Extern
}

func NewModule(name string) *Module {
	return &Module{Name: name}
}

func (m *Module) AddFunction(f *Function) {
	m.Functions = append(m.Functions, f)
}

// Verify checks the structural invariants from the component design:
// every block ends in exactly one terminator, every phi's operand count
// matches its block's predecessor count, and every branch target is a
// block of the same function. A failure here indicates a bug in the
// builder, not in the source program.
func (m *Module) Verify() []error {
	var errs []error
	for _, fn := range m.Functions {
		for _, bb := range fn.Blocks {
			if !bb.IsTerminated(fn) {
				errs = append(errs, fmt.Errorf("function %s: block %s has no terminator", fn.Name, bb.Label))
			}
			for i, id := range bb.Instrs {
				inst := fn.Instrs[id]
				if isTerminator(inst.Op) && i != len(bb.Instrs)-1 {
					errs = append(errs, fmt.Errorf("function %s: block %s has a terminator before its last instruction", fn.Name, bb.Label))
				}
				for _, t := range inst.Targets {
					if t < 0 || int(t) >= len(fn.Blocks) {
						errs = append(errs, fmt.Errorf("function %s: block %s branches to nonexistent block %d", fn.Name, bb.Label, t))
					}
				}
				if inst.Op == OpPhi && len(inst.PhiEdges) != len(bb.Preds) {
					errs = append(errs, fmt.Errorf("function %s: phi in block %s has %d edges, block has %d predecessors",
						fn.Name, bb.Label, len(inst.PhiEdges), len(bb.Preds)))
				}
			}
		}
	}
	return errs
}
