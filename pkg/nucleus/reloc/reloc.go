// Package reloc implements the relocation engine (spec component B): a
// registry of named relocation kinds, each a pure function from
// (symbol value, relocation site value, site bytes) to patched bytes,
// plus the shared alignment/range/bit-slicing/two's-complement helpers
// every kind is built from.
//
// Grounded on gmofishsauce-wut4's lang/yld linker (patchLUIPlusADI,
// patchLUIPlusJAL in linker.go): there, a displacement is computed
// once and then bit-sliced into one or two non-contiguous instruction
// fields by hand. Kind generalizes that per-target patch function into
// a table of named, independently testable kinds built on top of
// bitview.BitView instead of ad hoc shifting.
package reloc

import (
	"fmt"

	"github.com/mamba-lang/mamba/pkg/nucleus/bitview"
	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
)

// Kind is a named relocation recipe.
type Kind struct {
	Name string

	// Width is the number of bits the kind ultimately patches.
	Width int

	// Signed reports whether the encoded displacement is interpreted
	// as two's-complement signed (true) or unsigned (false).
	Signed bool

	// Align, when non-zero, requires (symbolValue+addend) to be a
	// multiple of Align; violations fail with errs.ErrLink.
	Align uint64

	// Displacement computes the value to encode from the resolved
	// symbol address, the relocation site's own address, and the
	// addend carried by the relocation record.
	Displacement func(symbolValue, siteValue uint64, addend int64) int64

	// Slices lists the bit-fields the displacement is split across,
	// most-significant slice first; their combined width must equal
	// Width.
	Slices []bitview.Slice

	// ByteWidth is the width in bytes of the token(s) being patched
	// (2 for a single 16-bit instruction half, 4 for 32-bit).
	ByteWidth int
}

// Registry is the set of known relocation kinds, looked up by name.
type Registry map[string]*Kind

// DefaultRegistry returns the kinds named in the encoding contract:
// abs32 (a full 32-bit absolute address, unsliced), rel8 (an 8-bit
// PC-relative byte displacement), and the bit-sliced branch/load
// immediate kinds used by typical Thumb-like and RISC-V-like
// encodings.
func DefaultRegistry() Registry {
	r := Registry{}
	r.register(&Kind{
		Name:         "abs32",
		Width:        32,
		Signed:       false,
		Displacement: func(sym, _ uint64, addend int64) int64 { return int64(sym) + addend },
		Slices:       []bitview.Slice{{Lo: 0, Hi: 32}},
		ByteWidth:    4,
	})
	r.register(&Kind{
		Name:   "rel8",
		Width:  8,
		Signed: true,
		Displacement: func(sym, site uint64, addend int64) int64 {
			return int64(sym) - int64(site) + addend
		},
		Slices:    []bitview.Slice{{Lo: 0, Hi: 8}},
		ByteWidth: 1,
	})
	r.register(&Kind{
		Name:   "b_imm11_imm6",
		Width:  17,
		Signed: true,
		Align:  2,
		Displacement: func(sym, site uint64, addend int64) int64 {
			return (int64(sym) - int64(site) + addend) / 2
		},
		// high 11 bits land in bits [6:17), low 6 bits in [0:6) of the
		// 32-bit site, mirroring a split branch-offset field.
		Slices:    []bitview.Slice{{Lo: 6, Hi: 17}, {Lo: 0, Hi: 6}},
		ByteWidth: 4,
	})
	r.register(&Kind{
		Name:   "b_imm12",
		Width:  12,
		Signed: true,
		Align:  2,
		Displacement: func(sym, site uint64, addend int64) int64 {
			return (int64(sym) - int64(site) + addend) / 2
		},
		Slices:    []bitview.Slice{{Lo: 0, Hi: 12}},
		ByteWidth: 2,
	})
	r.register(&Kind{
		Name:   "b_imm20",
		Width:  20,
		Signed: true,
		Align:  2,
		Displacement: func(sym, site uint64, addend int64) int64 {
			return (int64(sym) - int64(site) + addend) / 2
		},
		Slices:    []bitview.Slice{{Lo: 0, Hi: 20}},
		ByteWidth: 4,
	})
	r.register(&Kind{
		Name:   "ldr_imm12",
		Width:  12,
		Signed: false,
		Align:  4,
		Displacement: func(sym, _ uint64, addend int64) int64 {
			return int64(sym) + addend
		},
		Slices:    []bitview.Slice{{Lo: 0, Hi: 12}},
		ByteWidth: 2,
	})
	r.register(&Kind{
		Name:   "bl_imm11_imm10",
		Width:  22,
		Signed: true,
		Align:  2,
		Displacement: func(sym, site uint64, addend int64) int64 {
			return (int64(sym) - int64(site) + addend) / 2
		},
		Slices:    []bitview.Slice{{Lo: 11, Hi: 22}, {Lo: 0, Hi: 11}},
		ByteWidth: 4,
	})
	r.register(&Kind{
		Name:   "wrap_new11",
		Width:  11,
		Signed: true,
		Displacement: func(sym, site uint64, addend int64) int64 {
			return int64(sym) - int64(site) + addend
		},
		Slices:    []bitview.Slice{{Lo: 0, Hi: 11}},
		ByteWidth: 2,
	})
	r.register(&Kind{
		Name:   "lit_add_8",
		Width:  8,
		Signed: false,
		Align:  4,
		Displacement: func(sym, _ uint64, addend int64) int64 {
			return (int64(sym) + addend) / 4
		},
		Slices:    []bitview.Slice{{Lo: 0, Hi: 8}},
		ByteWidth: 2,
	})
	return r
}

func (r Registry) register(k *Kind) { r[k.Name] = k }

// Lookup finds a kind by name.
func (r Registry) Lookup(name string) (*Kind, error) {
	k, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown relocation kind %q", errs.ErrLink, name)
	}
	return k, nil
}

// wrap reduces v to its two's-complement representation in `bits`
// bits, returned as an unsigned value ready for bit-slicing.
func wrap(v int64, bits int) uint64 {
	mask := (uint64(1) << uint(bits)) - 1
	return uint64(v) & mask
}

// inRange reports whether v fits the kind's declared width, signed or
// unsigned as configured.
func (k *Kind) inRange(v int64) bool {
	if k.Signed {
		lo := -(int64(1) << uint(k.Width-1))
		hi := (int64(1) << uint(k.Width-1)) - 1
		return v >= lo && v <= hi
	}
	hi := (int64(1) << uint(k.Width)) - 1
	return v >= 0 && v <= hi
}

// Patch computes the displacement for this kind and bit-slices it into
// site, the current bytes at the relocation's location (little-endian,
// ByteWidth long), returning the patched bytes.
func (k *Kind) Patch(symbolValue, siteValue uint64, addend int64, symbolName string, site []byte) ([]byte, error) {
	if k.Align != 0 && (symbolValue+uint64(addend))%k.Align != 0 {
		return nil, fmt.Errorf("%w: symbol %q at 0x%x is not %d-byte aligned for relocation %q",
			errs.ErrLink, symbolName, symbolValue, k.Align, k.Name)
	}

	disp := k.Displacement(symbolValue, siteValue, addend)
	if !k.inRange(disp) {
		return nil, fmt.Errorf("%w: displacement %d for symbol %q does not fit %d-bit %s field (%s)",
			errs.ErrLink, disp, symbolName, k.Width, signedness(k.Signed), k.Name)
	}

	bits := wrap(disp, k.Width)
	return k.slice(bits, site)
}

func signedness(signed bool) string {
	if signed {
		return "signed"
	}
	return "unsigned"
}

// slice writes bits (Width wide) into site's token(s) across the
// declared Slices, most-significant slice first, consuming Width bits
// total from bits' low end.
func (k *Kind) slice(bits uint64, site []byte) ([]byte, error) {
	if len(site) < k.ByteWidth {
		return nil, fmt.Errorf("%w: relocation site shorter than %d bytes", errs.ErrEncoding, k.ByteWidth)
	}

	out := make([]byte, len(site))
	copy(out, site)

	tok := loadToken(out[:k.ByteWidth])

	consumed := 0
	total := k.Width
	for _, sl := range k.Slices {
		w := sl.Width()
		// Slices are listed most-significant first; take the next w
		// bits counting down from the top of the remaining field.
		shift := total - consumed - w
		field := (bits >> uint(shift)) & ((uint64(1) << uint(w)) - 1)
		tok.Write(uint32(field), sl.Lo, sl.Hi)
		consumed += w
	}

	storeToken(out[:k.ByteWidth], tok)
	return out, nil
}

func loadToken(b []byte) bitview.BitView[uint32] {
	var v uint32
	for i, by := range b {
		v |= uint32(by) << uint(8*i)
	}
	return bitview.CreateBitView(&v)
}

func storeToken(b []byte, v bitview.BitView[uint32]) {
	val := v.Value()
	for i := range b {
		b[i] = byte(val >> uint(8*i))
	}
}
