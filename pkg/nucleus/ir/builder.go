package ir

import (
	"fmt"

	"github.com/mamba-lang/mamba/pkg/nucleus/source"
	"github.com/mamba-lang/mamba/pkg/nucleus/types"
)

// Builder appends instructions to a function one block at a time, in
// the style of mc.InstructionBuilder: a cursor over a single mutable
// target (there: a Program; here: the current Block)
// with Emit-style append methods, generalized to also track the
// current function/block pair and allocate SSA values as it goes.
type Builder struct {
	module *Module
	fn     *Function
	block  BlockID
	loc    source.Location // stamped onto every instruction until changed
}

// NewBuilder creates a builder with no module set; call SetModule (or
// NewFunction directly) before emitting.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetModule points the builder at a module new functions get added to.
func (b *Builder) SetModule(m *Module) { b.module = m }

// NewFunction creates a function, adds it to the current module (if
// any), and switches the builder onto its entry block.
func (b *Builder) NewFunction(name string, returnType types.Type) *Function {
	fn := NewFunction(name, returnType)
	if b.module != nil {
		b.module.AddFunction(fn)
	}
	b.fn = fn
	b.block = 0
	return fn
}

// NewBlock allocates a new block in the current function without
// switching the builder onto it; use SetBlock to move the cursor.
func (b *Builder) NewBlock(name string) BlockID {
	b.requireFunction()
	return b.fn.addBlock(name)
}

// SetBlock moves the builder's insertion cursor to an existing block.
func (b *Builder) SetBlock(id BlockID) {
	b.requireFunction()
	if int(id) < 0 || int(id) >= len(b.fn.Blocks) {
		panic(fmt.Sprintf("ir: block %d does not exist", id))
	}
	b.block = id
}

// AddParam adds an argument to the current function's Params and
// materializes it as a Value bound to the entry block.
func (b *Builder) AddParam(name string, ty types.Type) ValueID {
	b.requireFunction()
	id := b.fn.addValue(ty, 0)
	b.fn.Params = append(b.fn.Params, Param{Value: id, Type: ty, Name: name})
	return id
}

func (b *Builder) requireFunction() {
	if b.fn == nil {
		panic("ir: no current function; call NewFunction first")
	}
}

func (b *Builder) curBlock() *Block {
	return b.fn.Block(b.block)
}

// SetLocation stamps loc onto every instruction emitted from this
// point on, until the next SetLocation call — the same "current
// position" cursor a front end would update once per source
// statement rather than passing a location to every Emit call.
func (b *Builder) SetLocation(loc source.Location) { b.loc = loc }

// emit appends inst to the current block, recording uses for every
// argument, and returns the appended instruction's InstID.
func (b *Builder) emit(inst Instruction) InstID {
	blk := b.curBlock()
	inst.ID = InstID(len(blk.Insts))
	if inst.Loc.IsZero() {
		inst.Loc = b.loc
	}
	blk.Insts = append(blk.Insts, inst)
	b.fn.MarkDirty()

	iid := inst.ID
	for _, arg := range inst.Args {
		v := b.fn.Value(arg)
		v.Uses = append(v.Uses, Use{Block: b.block, Inst: iid})
	}
	return iid
}

// Const emits a constant-materializing instruction and returns its result value.
func (b *Builder) Const(ty types.Type, value int64) ValueID {
	result := b.fn.addValue(ty, b.block)
	b.emit(Instruction{Op: OpConst, Result: result, Type: ty, ConstValue: value})
	return result
}

func (b *Builder) binOp(op Op, ty types.Type, lhs, rhs ValueID) ValueID {
	result := b.fn.addValue(ty, b.block)
	b.emit(Instruction{Op: op, Result: result, Type: ty, Args: []ValueID{lhs, rhs}})
	return result
}

// Add emits an add instruction.
func (b *Builder) Add(ty types.Type, lhs, rhs ValueID) ValueID { return b.binOp(OpAdd, ty, lhs, rhs) }

// Sub emits a sub instruction.
func (b *Builder) Sub(ty types.Type, lhs, rhs ValueID) ValueID { return b.binOp(OpSub, ty, lhs, rhs) }

// Mul emits a mul instruction.
func (b *Builder) Mul(ty types.Type, lhs, rhs ValueID) ValueID { return b.binOp(OpMul, ty, lhs, rhs) }

// Div emits a div instruction.
func (b *Builder) Div(ty types.Type, lhs, rhs ValueID) ValueID { return b.binOp(OpDiv, ty, lhs, rhs) }

// Mod emits a mod instruction.
func (b *Builder) Mod(ty types.Type, lhs, rhs ValueID) ValueID { return b.binOp(OpMod, ty, lhs, rhs) }

// Shl emits a left-shift instruction.
func (b *Builder) Shl(ty types.Type, lhs, rhs ValueID) ValueID { return b.binOp(OpShl, ty, lhs, rhs) }

// Shr emits a right-shift instruction.
func (b *Builder) Shr(ty types.Type, lhs, rhs ValueID) ValueID { return b.binOp(OpShr, ty, lhs, rhs) }

// And emits a bitwise-and instruction.
func (b *Builder) And(ty types.Type, lhs, rhs ValueID) ValueID { return b.binOp(OpAnd, ty, lhs, rhs) }

// Or emits a bitwise-or instruction.
func (b *Builder) Or(ty types.Type, lhs, rhs ValueID) ValueID { return b.binOp(OpOr, ty, lhs, rhs) }

// Xor emits a bitwise-xor instruction.
func (b *Builder) Xor(ty types.Type, lhs, rhs ValueID) ValueID { return b.binOp(OpXor, ty, lhs, rhs) }

// ICmp emits an integer comparison, always typed bool.
func (b *Builder) ICmp(cmp CmpOp, lhs, rhs ValueID) ValueID {
	result := b.fn.addValue(types.Bool, b.block)
	b.emit(Instruction{Op: OpICmp, Result: result, Type: types.Bool, Args: []ValueID{lhs, rhs}, Cmp: cmp})
	return result
}

// Undefined emits a value explicitly marked as having no defined
// content; the verifier rejects any use of it.
func (b *Builder) Undefined(ty types.Type) ValueID {
	result := b.fn.addValue(ty, b.block)
	b.emit(Instruction{Op: OpUndefined, Result: result, Type: ty})
	return result
}

// Global emits a reference to a module-level variable, materializing
// its address as a Ptr-typed value. Requires a module to have been set
// (via SetModule or NewFunction on a module-bound builder) and the
// variable to already be declared with AddGlobal: resolving an
// undeclared global is a construction-time error, not a verifier one.
func (b *Builder) Global(name string) ValueID {
	b.requireFunction()
	if b.module == nil {
		panic("ir: Global requires a module (call SetModule first)")
	}
	if b.module.Variable(name) == nil {
		panic(fmt.Sprintf("ir: undeclared global %q", name))
	}
	result := b.fn.addValue(types.Ptr, b.block)
	b.emit(Instruction{Op: OpGlobal, Result: result, Type: types.Ptr, Global: name})
	return result
}

// Load emits a load from the pointer value addr.
func (b *Builder) Load(ty types.Type, addr ValueID) ValueID {
	result := b.fn.addValue(ty, b.block)
	b.emit(Instruction{Op: OpLoad, Result: result, Type: ty, Args: []ValueID{addr}})
	return result
}

// Store emits a store of value into the pointer value addr.
func (b *Builder) Store(addr, value ValueID) {
	b.emit(Instruction{Op: OpStore, Result: invalidID, Args: []ValueID{addr, value}})
}

// Call emits a call instruction; callee is carried by name in
// Instruction.Callee since the nucleus does not model first-class
// function values.
func (b *Builder) Call(ty types.Type, callee string, args []ValueID) ValueID {
	result := b.fn.addValue(ty, b.block)
	inst := Instruction{Op: OpCall, Result: result, Type: ty, Args: args, Callee: callee}
	b.emit(inst)
	return result
}

// Phi emits a phi instruction. incoming must list one (block, value)
// pair per predecessor of the current block.
func (b *Builder) Phi(ty types.Type, incoming map[BlockID]ValueID) ValueID {
	result := b.fn.addValue(ty, b.block)
	inst := Instruction{Op: OpPhi, Result: result, Type: ty}
	for blk, val := range incoming {
		inst.Args = append(inst.Args, val)
		inst.PhiBlocks = append(inst.PhiBlocks, blk)
	}
	b.emit(inst)
	return result
}

// Jmp terminates the current block with an unconditional branch.
func (b *Builder) Jmp(target BlockID) {
	b.emit(Instruction{Op: OpJmp, Result: invalidID, Targets: []BlockID{target}})
}

// CJmp terminates the current block with a conditional branch:
// ifTrue is taken when cond is non-zero, ifFalse otherwise.
func (b *Builder) CJmp(cond ValueID, ifTrue, ifFalse BlockID) {
	b.emit(Instruction{
		Op:      OpCJmp,
		Result:  invalidID,
		Args:    []ValueID{cond},
		Targets: []BlockID{ifTrue, ifFalse},
	})
}

// Return terminates the current block, optionally carrying a value.
// A nil value is recorded as no-args, matching a void return.
func (b *Builder) Return(value *ValueID) {
	inst := Instruction{Op: OpReturn, Result: invalidID}
	if value != nil {
		inst.Args = []ValueID{*value}
	}
	b.emit(inst)
}

// ChangeTarget rewrites a terminator's successor in place, used by
// block-splitting and jump-threading passes without re-emitting the
// whole instruction (and, in particular, without disturbing the
// instruction's use-list: terminators carry no Value uses on their
// Targets, only the branch condition if any).
func (b *Builder) ChangeTarget(blockID BlockID, instID InstID, index int, newTarget BlockID) {
	blk := b.fn.Block(blockID)
	inst := &blk.Insts[instID]
	if !inst.Op.IsTerminator() {
		panic("ir: ChangeTarget on a non-terminator instruction")
	}
	if index < 0 || index >= len(inst.Targets) {
		panic(fmt.Sprintf("ir: target index %d out of range", index))
	}
	inst.Targets[index] = newTarget
	b.fn.MarkDirty()
}

// SplitBlock splits blk before the instruction at index (0-based,
// exclusive of terminator bookkeeping): a new block is created holding
// everything from index onward, the original block is truncated and
// given an unconditional jump to the new block, and the new block's ID
// is returned. If blk had a terminator, it moves to the new block.
func (b *Builder) SplitBlock(blockID BlockID, index int) BlockID {
	blk := b.fn.Block(blockID)
	if index < 0 || index > len(blk.Insts) {
		panic(fmt.Sprintf("ir: split index %d out of range for block with %d instructions", index, len(blk.Insts)))
	}

	tail := make([]Instruction, len(blk.Insts)-index)
	copy(tail, blk.Insts[index:])
	blk.Insts = blk.Insts[:index]

	newID := b.fn.addBlock(fmt.Sprintf("%s.split%d", blk.Name, newBlockSuffix(b.fn)))
	newBlk := b.fn.Block(newID)
	for i := range tail {
		tail[i].ID = InstID(i)
	}
	newBlk.Insts = tail

	for i, inst := range newBlk.Insts {
		if inst.HasResult() {
			b.fn.Value(inst.Result).Block = newID
		}
		for _, arg := range inst.Args {
			v := b.fn.Value(arg)
			for j := range v.Uses {
				if v.Uses[j].Block == blockID && v.Uses[j].Inst == InstID(index+i) {
					v.Uses[j] = Use{Block: newID, Inst: InstID(i)}
				}
			}
		}
	}

	blk.Insts = append(blk.Insts, Instruction{
		ID:      InstID(len(blk.Insts)),
		Op:      OpJmp,
		Result:  invalidID,
		Targets: []BlockID{newID},
	})
	b.fn.MarkDirty()
	return newID
}

func newBlockSuffix(fn *Function) int {
	return len(fn.Blocks)
}
