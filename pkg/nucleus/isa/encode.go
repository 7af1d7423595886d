package isa

import (
	"fmt"

	"github.com/mamba-lang/mamba/pkg/nucleus/bitview"
	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
)

// Operand is a concrete value bound to one of a Descriptor's
// OperandDescriptor slots at an emission site.
type Operand struct {
	Kind   OperandKind
	Value  uint64 // immediate or register number
	Symbol string // set when Kind == OperandSymbol
	Addend int64
}

// Relocation is emitted for every symbolic operand encoded; the caller
// (the object-file builder) is responsible for recording it at the
// current section offset.
type Relocation struct {
	Operand *OperandDescriptor
	Symbol  string
	Addend  int64
}

// Encode validates operands against d's declared operand list, writes
// each into its token, and returns the encoded bytes plus one
// Relocation per symbolic operand. Operand validation — count, kind,
// and range — always precedes encoding, so an invalid call never
// produces partially-written bytes.
func Encode(d *Descriptor, operands []Operand) ([]byte, []Relocation, error) {
	if len(operands) != len(d.Operands) {
		return nil, nil, fmt.Errorf("%w: %s expects %d operands, got %d",
			errs.ErrEncoding, d.OpCode.Mnemonic, len(d.Operands), len(operands))
	}

	for i, op := range operands {
		if err := validate(d.Operands[i], op); err != nil {
			return nil, nil, err
		}
	}

	tokens := make([]*bitview.Token, len(d.TokenWidths))
	for i, w := range d.TokenWidths {
		switch w {
		case 16:
			tokens[i] = bitview.NewToken16()
		case 32:
			tokens[i] = bitview.NewToken32()
		default:
			return nil, nil, fmt.Errorf("%w: unsupported token width %d", errs.ErrEncoding, w)
		}
	}

	tokens[0].Set(0, int(d.OpCode.TokenBits), d.OpCode.Bits)

	var relocations []Relocation
	for i, desc := range d.Operands {
		op := operands[i]
		value := desc.clampToWidth(op.Value)
		tokens[desc.TokenIndex].Set(desc.EncodingLo, desc.EncodingHi, value)

		if desc.Kind == OperandSymbol {
			relocations = append(relocations, Relocation{Operand: desc, Symbol: op.Symbol, Addend: op.Addend})
		}
	}

	return bitview.Concat(tokens...), relocations, nil
}

func validate(desc *OperandDescriptor, op Operand) error {
	if op.Kind != desc.Kind {
		return fmt.Errorf("%w: operand %q expects kind %s, got %s", errs.ErrEncoding, desc.Name, desc.Kind, op.Kind)
	}
	if desc.Kind == OperandSymbol {
		if op.Symbol == "" {
			return fmt.Errorf("%w: operand %q requires a symbol name", errs.ErrEncoding, desc.Name)
		}
		return nil
	}

	width := desc.Width()
	maxValue := bitview.AllOnes[uint64](width)
	if op.Value > maxValue {
		return fmt.Errorf("%w: operand %q value %d does not fit its %d-bit field",
			errs.ErrEncoding, desc.Name, op.Value, width)
	}
	return nil
}
