// Package bitview implements the token/bit-field model (spec component
// A) by which a target describes how its instructions pack into bytes.
//
// BitView is pkg/utils.BitView generalized from a single
// in-place view over a caller-owned integer into an indexable [lo:hi)
// read/write range, and Token adds the fixed-width, little-endian,
// named-bit-field container targets declare their instruction encodings
// with.
package bitview

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// AllOnes returns an all-ones bitmask of n bits of the given unsigned type.
func AllOnes[T constraints.Unsigned](bits int) T {
	if bits <= 0 {
		return 0
	}
	return (T(1) << bits) - T(1)
}

// BitView wraps a read/write view over an unsigned integer, allowing
// manipulation of an arbitrary bit range [lo, hi) (LSB-indexed).
type BitView[T constraints.Unsigned] struct {
	Bits *T
}

// CreateBitView creates a bit view out of an unsigned int.
func CreateBitView[T constraints.Unsigned](value *T) BitView[T] {
	return BitView[T]{Bits: value}
}

// Value returns the viewed unsigned int value.
func (v BitView[T]) Value() T {
	return *v.Bits
}

// Read extracts the range [lo, hi) as an unsigned integer.
func (v BitView[T]) Read(lo, hi int) T {
	width := hi - lo
	mask := AllOnes[T](width)
	return (v.Value() >> lo) & mask
}

// Write copies value into the range [lo, hi), preserving the remaining bits.
// Most significant bits of value that don't fit into the range are ignored.
func (v BitView[T]) Write(value T, lo, hi int) {
	width := hi - lo
	mask := AllOnes[T](width)
	cleared := (*v.Bits) &^ (mask << lo)
	*v.Bits = cleared | ((value & mask) << lo)
}

// Slice is an index-syntax-friendly description of a [Lo, Hi) bit range.
type Slice struct {
	Lo, Hi int
}

func (s Slice) Width() int { return s.Hi - s.Lo }

// Token is a fixed-width (typically 16 or 32 bit) bit container with
// named bit-field accessors declared by a target (e.g. rd = bits(0, 3)).
// Tokens are little-endian: Encode() always returns bytes in that order
// regardless of host endianness.
type Token struct {
	width int // bits, 16 or 32
	bits  uint32
}

// NewToken16 creates an empty 16-bit token.
func NewToken16() *Token { return &Token{width: 16} }

// NewToken32 creates an empty 32-bit token.
func NewToken32() *Token { return &Token{width: 32} }

func (t *Token) view() BitView[uint32] {
	return CreateBitView(&t.bits)
}

// Width returns the token's declared width in bits (16 or 32).
func (t *Token) Width() int { return t.width }

// Get reads the field [lo, hi).
func (t *Token) Get(lo, hi int) uint32 {
	t.checkRange(lo, hi)
	return t.view().Read(lo, hi)
}

// Set writes value into the field [lo, hi), truncating any bits of value
// that don't fit.
func (t *Token) Set(lo, hi int, value uint32) {
	t.checkRange(lo, hi)
	t.view().Write(value, lo, hi)
}

func (t *Token) checkRange(lo, hi int) {
	if lo < 0 || hi <= lo || hi > t.width {
		panic(fmt.Sprintf("bitview: field [%d:%d) out of range for %d-bit token", lo, hi, t.width))
	}
}

// Encode returns the token's bytes in little-endian order.
func (t *Token) Encode() []byte {
	switch t.width {
	case 16:
		v := uint16(t.bits)
		return []byte{byte(v), byte(v >> 8)}
	case 32:
		v := t.bits
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	default:
		panic(fmt.Sprintf("bitview: unsupported token width %d", t.width))
	}
}

// Concat concatenates the little-endian encodings of a sequence of
// tokens, letting a long instruction be built from several half-word
// tokens (e.g. two 16-bit tokens for a 32-bit Thumb instruction).
func Concat(tokens ...*Token) []byte {
	out := make([]byte, 0, len(tokens)*4)
	for _, tok := range tokens {
		out = append(out, tok.Encode()...)
	}
	return out
}
