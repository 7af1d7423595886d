// Package isa implements the instruction encoding framework (spec
// component I): a target declares OpCodes and the Instructions built
// from them as operand-typed descriptors; Encode validates operands,
// writes them into Tokens, and emits the resulting bytes together with
// any relocations a symbolic operand requires.
//
// Grounded on pkg/hw/cpu/mc.{OpCode,OpCodeDescriptor,
// OpCodesDescriptor,OperandDescriptor,InstructionDescriptor} (opcodes.go,
// operands.go, instructions.go), generalized from one fixed ISA (NOP,
// IMM, MOV, LD, ST, ADD, SUB, MUL, DIV, MOD) into a framework any
// target registers its own opcodes and instructions with, and reusing
// pkg/utils helpers (Map, Reduce, FormatUintBinary, AsciiFrame) the
// same way instructions.go does for documentation.
package isa

import (
	"fmt"
	"strings"

	"github.com/mamba-lang/mamba/pkg/nucleus/bitview"
	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
	"github.com/mamba-lang/mamba/pkg/utils"
)

// OperandKind distinguishes an immediate value from a register
// reference.
type OperandKind int

const (
	OperandImmediate OperandKind = iota
	OperandRegister
	OperandSymbol // a relocatable reference to a named symbol
)

func (k OperandKind) String() string {
	switch k {
	case OperandImmediate:
		return "imm"
	case OperandRegister:
		return "reg"
	case OperandSymbol:
		return "sym"
	default:
		return "?"
	}
}

// OperandDescriptor declares one operand slot of an instruction: its
// kind, the bit range it occupies within the instruction's tokens, and
// a relocation kind to emit when the operand is symbolic. Encode binds
// operands by position: operands[i] fills Descriptor.Operands[i].
type OperandDescriptor struct {
	Name        string
	Kind        OperandKind
	TokenIndex  int // which Token (0-based) this operand's bits live in
	EncodingLo  int
	EncodingHi  int
	RelocKind   string // non-empty when Kind == OperandSymbol
	Description string
}

func (o *OperandDescriptor) Width() int { return o.EncodingHi - o.EncodingLo }

func (o *OperandDescriptor) String() string {
	return fmt.Sprintf("%s:%s<%d:%d>", o.Name, o.Kind, o.EncodingLo, o.EncodingHi)
}

// clampToWidth truncates value to the operand's encoded width, the
// same "encode the low bits, drop the overflow" policy as the
// teacher's OperandDescriptor.EncodeValue: a botched encoding should
// read back as a garbled but well-formed operand, not corrupt
// neighbouring fields.
func (o *OperandDescriptor) clampToWidth(value uint64) uint32 {
	width := o.Width()
	mask := bitview.AllOnes[uint64](width)
	return uint32(value & mask)
}

// OpCode names a target instruction's base encoding.
type OpCode struct {
	Mnemonic  string
	Bits      uint32 // the fixed opcode bit pattern
	TokenBits int    // how many bits of the opcode token this occupies, at [0:TokenBits)
}

func (c *OpCode) String() string {
	return fmt.Sprintf("%s (0x%x)", c.Mnemonic, c.Bits)
}

// Descriptor declares one instruction: its OpCode, ordered operand
// list, the number and width of Tokens it encodes into, and
// documentation text.
type Descriptor struct {
	OpCode      *OpCode
	Operands    []*OperandDescriptor
	TokenWidths []int // e.g. []int{16} for a halfword instruction, []int{16,16} for two halfwords
	Description string
}

func (d *Descriptor) String() string {
	parts := utils.Map(d.Operands, func(op *OperandDescriptor) string { return op.String() })
	return fmt.Sprintf("%s %s", d.OpCode, strings.Join(parts, " "))
}

// InstructionBits returns the total encoded width in bits.
func (d *Descriptor) InstructionBits() int {
	return utils.Reduce(d.TokenWidths, func(w int, total int) int { return w + total })
}

// Documentation renders a human-readable description of the
// instruction: its mnemonic and operand list, its description text,
// and an ASCII memory-layout diagram of the opcode/operand bit ranges.
//
// Grounded on mc.InstructionDescriptor.Documentation
// (instructions.go), generalized from a fixed single-token opcode
// field to the framework's multi-token TokenIndex/EncodingLo/Hi model.
func (d *Descriptor) Documentation(leftpad int) string {
	var sb strings.Builder
	pad := strings.Repeat(" ", leftpad)

	sb.WriteString(pad)
	sb.WriteString(d.String())
	sb.WriteString("\n\n")

	pad += "  "
	leftpad += 2

	sb.WriteString(pad)
	sb.WriteString("Description:\n\n  ")
	sb.WriteString(pad)
	sb.WriteString(d.Description)
	sb.WriteString("\n\n")
	sb.WriteString(pad)
	sb.WriteString("Memory layout:\n\n")

	fields := []utils.AsciiFrameField{
		{
			Name:  utils.FormatUintBinary(uint64(d.OpCode.Bits), d.OpCode.TokenBits),
			Begin: 0,
			Width: d.OpCode.TokenBits,
		},
	}
	fields = append(fields, utils.Map(d.Operands, func(op *OperandDescriptor) utils.AsciiFrameField {
		return utils.AsciiFrameField{Name: op.String(), Begin: op.EncodingLo, Width: op.Width()}
	})...)
	sb.WriteString(utils.AsciiFrame(fields, d.InstructionBits(), "bits", utils.AsciiFrameUnitLayout_RightToLeft, leftpad+2))
	sb.WriteString("\n")
	sb.WriteString(pad)
	sb.WriteString("Operands:\n\n")

	if len(d.Operands) == 0 {
		sb.WriteString(pad)
		sb.WriteString("  (none)\n")
		return sb.String()
	}
	for i, op := range d.Operands {
		sb.WriteString(pad)
		fmt.Fprintf(&sb, " [%d] %s: %s\n", i, op, op.Description)
	}
	return sb.String()
}

// Set is the collection of instructions a target implements.
type Set struct {
	byMnemonic map[string]*Descriptor
}

// NewSet creates an empty instruction set.
func NewSet() *Set {
	return &Set{byMnemonic: map[string]*Descriptor{}}
}

// Register adds an instruction descriptor, keyed by its opcode's mnemonic.
func (s *Set) Register(d *Descriptor) {
	s.byMnemonic[d.OpCode.Mnemonic] = d
}

// Lookup finds an instruction descriptor by mnemonic.
func (s *Set) Lookup(mnemonic string) (*Descriptor, error) {
	d, ok := s.byMnemonic[mnemonic]
	if !ok {
		return nil, fmt.Errorf("%w: instruction %q not registered in this target", errs.ErrEncoding, mnemonic)
	}
	return d, nil
}

// All returns every registered instruction, for documentation dumps.
func (s *Set) All() []*Descriptor {
	return utils.Values(s.byMnemonic)
}
