package ir

import (
	"testing"

	"github.com/mamba-lang/mamba/pkg/nucleus/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderStraightLine(t *testing.T) {
	m := NewModule("m")
	b := NewBuilder()
	b.SetModule(m)

	fn := b.NewFunction("add1", types.I32)
	x := b.AddParam("x", types.I32)
	one := b.Const(types.I32, 1)
	sum := b.Add(types.I32, x, one)
	b.Return(&sum)

	require.Len(t, fn.Blocks, 1)
	entry := fn.Entry()
	require.True(t, entry.IsTerminated())
	assert.Equal(t, OpReturn, entry.Terminator().Op)

	oneVal := fn.Value(one)
	assert.Len(t, oneVal.Uses, 1, "the const should be used exactly once, by the add")
	assert.Equal(t, InstID(1), oneVal.Uses[0].Inst)
}

func TestBuilderBranching(t *testing.T) {
	b := NewBuilder()
	fn := b.NewFunction("max", types.I32)
	x := b.AddParam("x", types.I32)
	y := b.AddParam("y", types.I32)

	thenBlk := b.NewBlock("then")
	elseBlk := b.NewBlock("else")
	joinBlk := b.NewBlock("join")

	cond := b.ICmp(CmpLt, x, y)
	b.CJmp(cond, thenBlk, elseBlk)

	b.SetBlock(thenBlk)
	b.Jmp(joinBlk)

	b.SetBlock(elseBlk)
	b.Jmp(joinBlk)

	b.SetBlock(joinBlk)
	result := b.Phi(types.I32, map[BlockID]ValueID{thenBlk: x, elseBlk: y})
	b.Return(&result)

	require.Len(t, fn.Blocks, 4)
	assert.True(t, fn.Entry().IsTerminated())
	assert.Equal(t, OpCJmp, fn.Entry().Terminator().Op)
	assert.Equal(t, []BlockID{thenBlk, elseBlk}, fn.Entry().Terminator().Targets)

	join := fn.Block(joinBlk)
	assert.Equal(t, OpPhi, join.Insts[0].Op)
	assert.Len(t, join.Insts[0].Args, 2)
}

func TestChangeTarget(t *testing.T) {
	b := NewBuilder()
	fn := b.NewFunction("f", types.Void)
	a := b.NewBlock("a")
	c := b.NewBlock("c")
	b.Jmp(a)

	entry := BlockID(0)
	b.ChangeTarget(entry, 0, 0, c)
	assert.Equal(t, []BlockID{c}, fn.Entry().Terminator().Targets)
}

func TestSplitBlockMovesTerminatorAndTail(t *testing.T) {
	b := NewBuilder()
	fn := b.NewFunction("f", types.I32)
	one := b.Const(types.I32, 1)
	two := b.Const(types.I32, 2)
	sum := b.Add(types.I32, one, two)
	b.Return(&sum)

	newID := b.SplitBlock(0, 1)

	entry := fn.Entry()
	require.Len(t, entry.Insts, 2, "one const plus the new jmp")
	assert.Equal(t, OpConst, entry.Insts[0].Op)
	assert.Equal(t, OpJmp, entry.Insts[1].Op)
	assert.Equal(t, []BlockID{newID}, entry.Insts[1].Targets)

	tail := fn.Block(newID)
	require.Len(t, tail.Insts, 3)
	assert.Equal(t, OpConst, tail.Insts[0].Op)
	assert.Equal(t, OpAdd, tail.Insts[1].Op)
	assert.Equal(t, OpReturn, tail.Insts[2].Op)

	oneVal := fn.Value(one)
	require.Len(t, oneVal.Uses, 1)
	assert.Equal(t, newID, oneVal.Uses[0].Block, "use must follow its instruction into the split block")
}

func TestPrintRoundTripShape(t *testing.T) {
	m := NewModule("demo")
	b := NewBuilder()
	b.SetModule(m)
	fn := b.NewFunction("add1", types.I32)
	x := b.AddParam("x", types.I32)
	one := b.Const(types.I32, 1)
	sum := b.Add(types.I32, x, one)
	b.Return(&sum)

	text := m.String()
	assert.Contains(t, text, "module demo")
	assert.Contains(t, text, "function i32 add1(i32 v0)")
	assert.Contains(t, text, "entry:")
	assert.Contains(t, text, "i32 v1 = const 1")
	assert.Contains(t, text, "i32 v2 = add v0, v1")
	assert.Contains(t, text, "return v2")
	_ = fn
}
