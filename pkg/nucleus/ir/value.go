// Package ir implements the typed SSA intermediate representation: the
// Module/Function/Block/Instruction/Value graph, a Builder that appends
// new instructions in well-formed order, and the arena-indexed value
// references the verifier and dominance analysis rely on.
//
// Grounded on pkg/hw/cpu/mc.ProgramFile (Function holding
// InstructionRanges into a flat instruction slice, Global/Label by name)
// generalized from a linear instruction list addressed by line number
// into a block-structured SSA graph addressed by index. Values are
// referenced by arena index rather than pointer, the same way
// Instruction.Symbols resolve through SymbolReference-by-name rather
// than embedding a live pointer graph: it avoids reference
// cycles between a Value's def site and its use-list, which Go's GC
// would otherwise have to collect through (see DESIGN.md).
package ir

import (
	"fmt"

	"github.com/mamba-lang/mamba/pkg/nucleus/source"
	"github.com/mamba-lang/mamba/pkg/nucleus/types"
)

// ValueID identifies a Value within its owning Function's value arena.
type ValueID int

// BlockID identifies a Block within its owning Function's block arena.
type BlockID int

// InstID identifies an Instruction within its owning Block.
type InstID int

const invalidID = -1

// Value is an SSA value: either the result of an instruction, a block
// parameter (phi input slot), or a function argument.
type Value struct {
	ID   ValueID
	Type types.Type

	// Block is where this value is defined: the block holding the
	// defining instruction, or, for a Phi/argument, the block that
	// owns the parameter slot.
	Block BlockID

	// Uses lists the instructions that reference this value, keyed by
	// (block, instruction) index pairs rather than pointers so the
	// arena can be freely copied and the use-list invalidated in bulk.
	Uses []Use
}

// Use identifies one operand position that refers to a Value.
type Use struct {
	Block BlockID
	Inst  InstID
}

// Op names an SSA opcode.
type Op int

const (
	OpInvalid Op = iota
	OpConst
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpAnd
	OpOr
	OpXor
	OpICmp
	OpLoad
	OpStore
	OpPhi
	OpCall
	OpJmp
	OpCJmp
	OpReturn
	OpUndefined
	OpGlobal
)

// IsBinop reports whether Op is one of the ten arithmetic/bitwise
// binary operators sharing one Type across both operands and the
// result: +, -, *, /, %, shl, shr, and, or, xor.
func (o Op) IsBinop() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpShl, OpShr, OpAnd, OpOr, OpXor:
		return true
	default:
		return false
	}
}

// CmpOp names the comparison performed by an ICmp instruction.
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

func (c CmpOp) String() string {
	switch c {
	case CmpEq:
		return "eq"
	case CmpNe:
		return "ne"
	case CmpLt:
		return "lt"
	case CmpLe:
		return "le"
	case CmpGt:
		return "gt"
	case CmpGe:
		return "ge"
	default:
		return "?"
	}
}

func (o Op) String() string {
	switch o {
	case OpConst:
		return "const"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	case OpShl:
		return "shl"
	case OpShr:
		return "shr"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpICmp:
		return "icmp"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpPhi:
		return "phi"
	case OpCall:
		return "call"
	case OpJmp:
		return "jmp"
	case OpCJmp:
		return "cjmp"
	case OpReturn:
		return "return"
	case OpUndefined:
		return "undefined"
	case OpGlobal:
		return "global"
	default:
		return "invalid"
	}
}

// OpByName resolves an opcode by its textual IR mnemonic, for use by
// tooling that takes an opcode name from the command line.
func OpByName(name string) (Op, bool) {
	for op := OpConst; op <= OpGlobal; op++ {
		if op.String() == name {
			return op, true
		}
	}
	return OpInvalid, false
}

// IsTerminator reports whether Op ends a block.
func (o Op) IsTerminator() bool {
	return o == OpJmp || o == OpCJmp || o == OpReturn
}

// Instruction is one SSA operation. It may define a Value (Result !=
// invalidID) or be a pure side-effecting/terminating op (Store, Jmp,
// CJmp, Return).
type Instruction struct {
	ID     InstID
	Op     Op
	Result ValueID // invalidID when the op defines nothing
	Type   types.Type
	Args   []ValueID

	// ConstValue carries the immediate operand for OpConst.
	ConstValue int64

	// Targets carries successor blocks for control-flow ops: Jmp has
	// one, CJmp has two ([0]=true edge, [1]=false edge), Return none.
	Targets []BlockID

	// PhiBlocks parallels Args for OpPhi: PhiBlocks[i] is the
	// predecessor block that Args[i] flows in from.
	PhiBlocks []BlockID

	// Cmp carries the comparison kind for OpICmp.
	Cmp CmpOp

	// Callee names the function an OpCall invokes; the nucleus does
	// not model first-class function values, so this is carried as a
	// plain name rather than a ValueID argument.
	Callee string

	// Global names the module-level Variable an OpGlobal materializes
	// the address of, the same way Callee names an OpCall's target:
	// globals live in the module's arena, not the function's, so they
	// are referenced by name rather than ValueID.
	Global string

	// Loc is this instruction's originating source position, when
	// known; zero-valued for instructions synthesized by a pass
	// rather than read from source.
	Loc source.Location
}

// HasResult reports whether the instruction defines a Value.
func (i *Instruction) HasResult() bool { return i.Result != invalidID }

func fmtArgs(args []ValueID) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("v%d", a)
	}
	return s
}
