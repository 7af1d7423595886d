package asm

import (
	"testing"

	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleEncodesInstructionsAndLabels(t *testing.T) {
	src := `
.section .text
.globl main
main:
  addi r1, r0, 5
  mov r2, r1
`
	prog, err := Parse(src)
	require.NoError(t, err)

	f, err := Assemble(prog, DefaultTarget(), "demo")
	require.NoError(t, err)

	require.True(t, f.HasSection(".text"))
	assert.Len(t, f.Section(".text").Data, 8) // two 32-bit instructions

	sym := f.FindSymbol("main")
	require.NotNil(t, sym)
	assert.Equal(t, uint64(0), sym.Offset)
	assert.True(t, sym.Global)

	addi := f.Section(".text").Data[0:4]
	assert.Equal(t, byte(0x01), addi[0]&0x3f, "opcode occupies the low 6 bits")
}

func TestAssembleEmitsRelocationForSymbolicBranch(t *testing.T) {
	src := `
.section .text
start:
  b start
`
	prog, err := Parse(src)
	require.NoError(t, err)

	f, err := Assemble(prog, DefaultTarget(), "demo")
	require.NoError(t, err)

	require.Len(t, f.Relocations, 1)
	reloc := f.Relocations[0]
	assert.Equal(t, "start", reloc.Symbol)
	assert.Equal(t, "abs32", reloc.Kind)
	assert.Equal(t, uint64(4), reloc.Offset, "the symbol token is the instruction's second 32-bit word")
}

func TestAssembleRejectsUnknownMnemonic(t *testing.T) {
	prog, err := Parse(".section .text\n  nope r1, r2\n")
	require.NoError(t, err)

	_, err = Assemble(prog, DefaultTarget(), "demo")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrEncoding)
}

func TestAssembleRejectsOperandCountMismatch(t *testing.T) {
	prog, err := Parse(".section .text\n  mov r1\n")
	require.NoError(t, err)

	_, err = Assemble(prog, DefaultTarget(), "demo")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrParse)
}

func TestAssembleRejectsMalformedRegister(t *testing.T) {
	prog, err := Parse(".section .text\n  mov rX, r1\n")
	require.NoError(t, err)

	_, err = Assemble(prog, DefaultTarget(), "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a register")
}

func TestAssembleRejectsImmediateOutOfRange(t *testing.T) {
	prog, err := Parse(".section .text\n  addi r1, r0, 100000\n")
	require.NoError(t, err)

	_, err = Assemble(prog, DefaultTarget(), "demo")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrEncoding)
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	prog, err := Parse("\n# a comment\n.section .text\n  mov r0, r0 # trailing comment\n")
	require.NoError(t, err)
	require.Len(t, prog.stmts, 1)
	assert.Equal(t, "mov", prog.stmts[0].mnemonic)
}
