package ir

import (
	"testing"

	"github.com/mamba-lang/mamba/pkg/nucleus/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleModule() *Module {
	m := NewModule("sample")
	b := NewBuilder()
	b.SetModule(m)

	b.NewFunction("max", types.I32)
	a := b.AddParam("a", types.I32)
	c := b.AddParam("b", types.I32)

	thenBlk := b.NewBlock("then")
	elseBlk := b.NewBlock("else")

	cond := b.ICmp(CmpGt, a, c)
	b.CJmp(cond, thenBlk, elseBlk)

	b.SetBlock(thenBlk)
	b.Return(&a)

	b.SetBlock(elseBlk)
	b.Return(&c)

	return m
}

func TestParseRoundTripsPrintedModule(t *testing.T) {
	m := buildSampleModule()
	text := m.String()

	parsed, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, parsed.Functions, 1)

	assert.Equal(t, parsed.String(), text)
}

func TestParseRejectsMissingModuleHeader(t *testing.T) {
	_, err := Parse("function i32 f()\nentry:\n  return\n")
	require.Error(t, err)
}

func TestParseRejectsUnknownInstruction(t *testing.T) {
	src := "module m\nfunction i32 f()\nentry:\n  bogus v0\n"
	_, err := Parse(src)
	require.Error(t, err)
}

func TestParseFunctionWithCallAndPhi(t *testing.T) {
	m := NewModule("m")
	b := NewBuilder()
	b.SetModule(m)
	b.NewFunction("f", types.I32)
	one := b.Const(types.I32, 1)
	two := b.Const(types.I32, 2)
	b.Call(types.I32, "helper", []ValueID{one, two})

	loop := b.NewBlock("loop")
	b.Jmp(loop)
	b.SetBlock(loop)
	b.Phi(types.I32, map[BlockID]ValueID{0: one})
	b.Return(nil)

	text := m.String()
	parsed, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, text, parsed.String())
}
