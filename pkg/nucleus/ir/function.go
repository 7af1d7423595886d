package ir

import "github.com/mamba-lang/mamba/pkg/nucleus/types"

// Param is a function argument: a value materialized in the entry
// block before any instruction runs.
type Param struct {
	Value ValueID
	Type  types.Type
	Name  string
}

// Function is a single SSA function: an arena of Values and an arena
// of Blocks, the first of which (index 0) is the entry block.
type Function struct {
	Name       string
	ReturnType types.Type
	Params     []Param

	Blocks []Block
	Values []Value

	// cfgDirty is set whenever the Builder appends/rewrites
	// instructions, telling cfg.Build (and any cached dominator tree)
	// that it must recompute rather than trust a prior cache.
	cfgDirty bool
}

// NewFunction creates an empty function with a single entry block
// named "entry".
func NewFunction(name string, returnType types.Type) *Function {
	f := &Function{Name: name, ReturnType: returnType}
	f.Blocks = append(f.Blocks, Block{ID: 0, Name: "entry"})
	f.cfgDirty = true
	return f
}

// Block returns the block with the given ID.
func (f *Function) Block(id BlockID) *Block {
	return &f.Blocks[id]
}

// Value returns the value with the given ID.
func (f *Function) Value(id ValueID) *Value {
	return &f.Values[id]
}

// Entry returns the function's entry block (always block 0).
func (f *Function) Entry() *Block {
	return &f.Blocks[0]
}

// MarkDirty invalidates any cached CFG/dominator data; the Builder
// calls this internally, and callers that mutate Insts/Blocks directly
// (rather than through Builder) must call it themselves.
func (f *Function) MarkDirty() { f.cfgDirty = true }

// Dirty reports whether the function's control-flow shape may have
// changed since the last cfg.Build.
func (f *Function) Dirty() bool { return f.cfgDirty }

// ClearDirty is called by cfg.Build once it has recomputed from the
// current instruction stream.
func (f *Function) ClearDirty() { f.cfgDirty = false }

// addValue allocates a new Value in the arena and returns its ID.
func (f *Function) addValue(ty types.Type, block BlockID) ValueID {
	id := ValueID(len(f.Values))
	f.Values = append(f.Values, Value{ID: id, Type: ty, Block: block})
	return id
}

// addBlock allocates a new Block in the arena and returns its ID.
func (f *Function) addBlock(name string) BlockID {
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, Block{ID: id, Name: name})
	f.cfgDirty = true
	return id
}
