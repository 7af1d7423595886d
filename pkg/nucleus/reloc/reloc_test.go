package reloc

import (
	"testing"

	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRel8Resolution(t *testing.T) {
	// O1's .text is 100 bytes with a rel8 relocation at offset 0; after
	// merge with O2 (100 bytes), symbol 'a' is defined at offset 24 of
	// O2, i.e. absolute 124 in the merged section. The patch site value
	// is the relocation's own absolute offset, 0.
	reg := DefaultRegistry()
	k, err := reg.Lookup("rel8")
	require.NoError(t, err)

	site := []byte{0x00}
	patched, err := k.Patch(124, 0, 0, "a", site)
	require.NoError(t, err)
	assert.Equal(t, byte(124), patched[0])
}

func TestAbs32(t *testing.T) {
	reg := DefaultRegistry()
	k, _ := reg.Lookup("abs32")
	site := []byte{0, 0, 0, 0}
	patched, err := k.Patch(0x01020304, 0, 0, "x", site)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, patched)
}

func TestAlignmentViolation(t *testing.T) {
	reg := DefaultRegistry()
	k, _ := reg.Lookup("ldr_imm12")
	site := []byte{0, 0}
	_, err := k.Patch(5, 0, 0, "misaligned", site)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrLink)
	assert.Contains(t, err.Error(), "not 4-byte aligned")
}

func TestOutOfRange(t *testing.T) {
	reg := DefaultRegistry()
	k, _ := reg.Lookup("rel8")
	site := []byte{0}
	// rel8 signed 8-bit range is [-128, 127]; 1000 does not fit.
	_, err := k.Patch(1000, 0, 0, "far", site)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrLink)
	assert.Contains(t, err.Error(), "does not fit")
}

func TestNegativeDisplacementTwosComplement(t *testing.T) {
	reg := DefaultRegistry()
	k, _ := reg.Lookup("rel8")
	site := []byte{0}
	// site at 10, symbol at 5: displacement -5 wraps to 0xFB in 8 bits.
	patched, err := k.Patch(5, 10, 0, "back", site)
	require.NoError(t, err)
	assert.Equal(t, byte(0xFB), patched[0])
}

func TestSplitFieldRelocation(t *testing.T) {
	reg := DefaultRegistry()
	k, _ := reg.Lookup("bl_imm11_imm10")
	site := []byte{0, 0, 0, 0}
	// displacement 2046 / 2 = 1023 = 0b11_1111_1111 (10 bits), split
	// across the kind's two 11-bit fields, [11:22) and [0:11) of the
	// 32-bit site.
	patched, err := k.Patch(2046, 0, 0, "callee", site)
	require.NoError(t, err)
	assert.NotEqual(t, []byte{0, 0, 0, 0}, patched)
}

func TestUnknownKind(t *testing.T) {
	reg := DefaultRegistry()
	_, err := reg.Lookup("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrLink)
}
