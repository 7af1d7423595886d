package verify

import (
	"testing"

	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
	"github.com/mamba-lang/mamba/pkg/nucleus/ir"
	"github.com/mamba-lang/mamba/pkg/nucleus/source"
	"github.com/mamba-lang/mamba/pkg/nucleus/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWellFormedFunctionPasses(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.NewFunction("add1", types.I32)
	x := b.AddParam("x", types.I32)
	one := b.Const(types.I32, 1)
	sum := b.Add(types.I32, x, one)
	b.Return(&sum)

	assert.NoError(t, Function(fn))
}

func TestMissingTerminatorFails(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.NewFunction("bad", types.I32)
	b.Const(types.I32, 1)

	err := Function(fn)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrIrForm)
	assert.Contains(t, err.Error(), "does not end in a terminator")
}

func TestUseNotDominatedFails(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.NewFunction("bad", types.I32)
	thenBlk := b.NewBlock("then")
	elseBlk := b.NewBlock("else")

	cond := b.Const(types.I32, 1)
	b.CJmp(cond, thenBlk, elseBlk)

	b.SetBlock(thenBlk)
	onlyInThen := b.Const(types.I32, 42)
	b.Jmp(elseBlk)

	b.SetBlock(elseBlk)
	// Using a value only defined in a sibling branch: not dominated.
	b.Return(&onlyInThen)

	err := Function(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not dominated by its definition")
}

func TestPhiMissingPredecessorFails(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.NewFunction("bad", types.I32)
	thenBlk := b.NewBlock("then")
	elseBlk := b.NewBlock("else")
	joinBlk := b.NewBlock("join")

	x := b.AddParam("x", types.I32)
	cond := b.Const(types.I32, 1)
	b.CJmp(cond, thenBlk, elseBlk)

	b.SetBlock(thenBlk)
	b.Jmp(joinBlk)

	b.SetBlock(elseBlk)
	b.Jmp(joinBlk)

	b.SetBlock(joinBlk)
	// Phi only covers thenBlk, omitting elseBlk.
	result := b.Phi(types.I32, map[ir.BlockID]ir.ValueID{thenBlk: x})
	b.Return(&result)

	err := Function(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no incoming value for predecessor")
}

func TestUseOfUndefinedFails(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.NewFunction("bad", types.I32)
	u := b.Undefined(types.I32)
	b.Return(&u)

	err := Function(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use of undefined value")
}

func TestUseOfUndefinedIncludesSourceLocation(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.NewFunction("bad", types.I32)
	u := b.Undefined(types.I32)
	b.SetLocation(source.Location{File: "prog.mtl", Line: 12})
	b.Return(&u)

	err := Function(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prog.mtl:12")
}

func TestUndefinedValueReferenceFails(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.NewFunction("bad", types.I32)
	x := b.AddParam("x", types.I32)
	b.Return(&x)
	// Builder.emit indexes the value arena for every operand, so the
	// dangling reference is planted after construction.
	fn.Entry().Terminator().Args[0] = ir.ValueID(99)

	err := Function(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined value")
}

// A textual module is built without the Builder's use-before-def
// discipline, so a same-block forward reference can slip past the
// cross-block dominance check (which treats one block as a single
// point) unless instruction order is checked separately.
func TestSameBlockUseBeforeDefFails(t *testing.T) {
	src := `module m
function i32 bad()
entry:
  i32 v0 = add v1, v1
  i32 v1 = const 1
  return v0
`
	m, err := ir.Parse(src)
	require.NoError(t, err)

	err = Function(m.Function("bad"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not follow its definition")
}

func TestBinopOperandTypeMismatchFails(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.NewFunction("bad", types.I32)
	x := b.AddParam("x", types.I32)
	y := b.AddParam("y", types.Bool)
	sum := b.Add(types.I32, x, y)
	b.Return(&sum)

	err := Function(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add operand")
	assert.Contains(t, err.Error(), "expected i32")
}

func TestLoadAddressMustBePtrFails(t *testing.T) {
	b := ir.NewBuilder()
	fn := b.NewFunction("bad", types.I32)
	notPtr := b.Const(types.I32, 5)
	loaded := b.Load(types.I32, notPtr)
	b.Return(&loaded)

	err := Function(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load address")
	assert.Contains(t, err.Error(), "expected ptr")
}
