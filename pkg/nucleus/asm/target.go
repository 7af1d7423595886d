package asm

import "github.com/mamba-lang/mamba/pkg/nucleus/isa"

// DefaultTarget is a minimal reference instruction set used to drive
// the assembler end to end: a three-operand immediate add, a register
// move, a load and a store through a base register, and an
// unconditional symbolic branch. It exists to exercise isa.Set and
// isa.Encode with concrete instructions; it is not a catalogued ISA
// the framework itself prescribes, and a real target registers its
// own Descriptors the same way.
func DefaultTarget() *isa.Set {
	s := isa.NewSet()

	reg := func(name string, lo, hi int, desc string) *isa.OperandDescriptor {
		return &isa.OperandDescriptor{Name: name, Kind: isa.OperandRegister, TokenIndex: 0, EncodingLo: lo, EncodingHi: hi, Description: desc}
	}

	s.Register(&isa.Descriptor{
		OpCode:      &isa.OpCode{Mnemonic: "addi", Bits: 0x01, TokenBits: 6},
		TokenWidths: []int{32},
		Description: "rd = rs + imm",
		Operands: []*isa.OperandDescriptor{
			reg("rd", 6, 11, "destination register"),
			reg("rs", 11, 16, "source register"),
			{Name: "imm", Kind: isa.OperandImmediate, TokenIndex: 0, EncodingLo: 16, EncodingHi: 32, Description: "16-bit immediate"},
		},
	})
	s.Register(&isa.Descriptor{
		OpCode:      &isa.OpCode{Mnemonic: "mov", Bits: 0x02, TokenBits: 6},
		TokenWidths: []int{32},
		Description: "rd = rs",
		Operands: []*isa.OperandDescriptor{
			reg("rd", 6, 11, "destination register"),
			reg("rs", 11, 16, "source register"),
		},
	})
	s.Register(&isa.Descriptor{
		OpCode:      &isa.OpCode{Mnemonic: "ld", Bits: 0x03, TokenBits: 6},
		TokenWidths: []int{32},
		Description: "rd = mem[rs]",
		Operands: []*isa.OperandDescriptor{
			reg("rd", 6, 11, "destination register"),
			reg("rs", 11, 16, "base address register"),
		},
	})
	s.Register(&isa.Descriptor{
		OpCode:      &isa.OpCode{Mnemonic: "st", Bits: 0x04, TokenBits: 6},
		TokenWidths: []int{32},
		Description: "mem[rd] = rs",
		Operands: []*isa.OperandDescriptor{
			reg("rs", 6, 11, "value register"),
			reg("rd", 11, 16, "base address register"),
		},
	})
	s.Register(&isa.Descriptor{
		OpCode:      &isa.OpCode{Mnemonic: "b", Bits: 0x05, TokenBits: 6},
		TokenWidths: []int{32, 32},
		Description: "jump to a symbol's resolved address",
		Operands: []*isa.OperandDescriptor{
			{Name: "target", Kind: isa.OperandSymbol, TokenIndex: 1, EncodingLo: 0, EncodingHi: 32, RelocKind: "abs32", Description: "branch target symbol"},
		},
	})

	return s
}
