package bitview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFieldSet(t *testing.T) {
	tok := NewToken16()

	tok.Set(2, 4, 0b11)
	assert.Equal(t, uint32(0xC), tok.Get(0, 8))

	// a fresh token, so only the [4:8) field is set
	tok = NewToken16()
	tok.Set(4, 8, 0b1100)
	assert.Equal(t, uint32(0xC0), tok.Get(0, 8))
}

func TestTokenSetGetPreservesOtherBits(t *testing.T) {
	tok := NewToken16()
	tok.Set(0, 16, 0xFFFF)

	tok.Set(4, 8, 0x3)

	assert.Equal(t, uint32(0x3), tok.Get(4, 8))
	assert.Equal(t, uint32(0xF), tok.Get(0, 4))
	assert.Equal(t, uint32(0xF), tok.Get(8, 12))
	assert.Equal(t, uint32(0xF), tok.Get(12, 16))
}

func TestTokenFieldSetUniversal(t *testing.T) {
	for lo := 0; lo < 16; lo++ {
		for width := 1; lo+width <= 16; width++ {
			hi := lo + width
			tok := NewToken16()
			var v uint32 = AllOnes[uint32](width)

			tok.Set(lo, hi, v)

			require.Equal(t, v, tok.Get(lo, hi), "field [%d:%d)", lo, hi)

			for outside := 0; outside < 16; outside++ {
				if outside >= lo && outside < hi {
					continue
				}
				assert.Zero(t, tok.Get(outside, outside+1), "bit %d must stay clear", outside)
			}
		}
	}
}

func TestTokenEncodeLittleEndian(t *testing.T) {
	tok := NewToken16()
	tok.Set(0, 16, 0xABCD)

	assert.Equal(t, []byte{0xCD, 0xAB}, tok.Encode())
}

func TestToken32Encode(t *testing.T) {
	tok := NewToken32()
	tok.Set(0, 32, 0xDEADBEEF)

	assert.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE}, tok.Encode())
}

func TestConcatTokens(t *testing.T) {
	a := NewToken16()
	a.Set(0, 16, 0x1234)
	b := NewToken16()
	b.Set(0, 16, 0x5678)

	got := Concat(a, b)
	assert.Equal(t, []byte{0x34, 0x12, 0x78, 0x56}, got)
}

func TestTokenOutOfRangePanics(t *testing.T) {
	tok := NewToken16()
	assert.Panics(t, func() { tok.Get(10, 20) })
	assert.Panics(t, func() { tok.Set(-1, 3, 0) })
}
