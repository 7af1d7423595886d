// Package verify checks that an ir.Function is well-formed before it
// is handed to codegen: every block terminates exactly once, every
// Phi lists one incoming value per predecessor, every use is
// dominated by its definition, and every referenced value/block
// actually exists.
//
// Grounded on the mc.ResolveSymbols/ResolveMemory pattern
// (pkg/hw/cpu/mc/symbolresolver.go, memoryresolver.go): walk the
// structure once, collect every violation into a slice instead of
// failing on the first one, and return a single aggregated error.
package verify

import (
	"fmt"
	"strings"

	"github.com/mamba-lang/mamba/pkg/nucleus/cfg"
	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
	"github.com/mamba-lang/mamba/pkg/nucleus/ir"
	"github.com/mamba-lang/mamba/pkg/nucleus/source"
	"github.com/mamba-lang/mamba/pkg/nucleus/types"
)

// Function verifies fn and returns a single aggregated error
// describing every violation found, or nil if fn is well-formed.
func Function(fn *ir.Function) error {
	v := &verifier{
		fn:         fn,
		graph:      cfg.Build(fn),
		defined:    map[ir.ValueID]ir.BlockID{},
		definedIdx: map[ir.ValueID]int{},
		undefined:  map[ir.ValueID]bool{},
	}
	v.collectDefs()
	v.checkTermination()
	v.checkPhis()
	v.checkUsesDefined()
	v.checkDominance()
	v.checkNoUndefinedUses()
	v.checkTypes()

	if len(v.problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: function %q:\n  %s", errs.ErrIrForm, fn.Name, strings.Join(v.problems, "\n  "))
}

type verifier struct {
	fn    *ir.Function
	graph *cfg.Graph
	// defined maps a value to the block holding its defining
	// instruction; definedIdx maps it to that instruction's index
	// within the block, used to order same-block def/use pairs that
	// cfg.Graph.Dominates cannot distinguish (it treats one block as a
	// single point). Params are recorded at index -1: they are live
	// before the first instruction of the entry block.
	defined    map[ir.ValueID]ir.BlockID
	definedIdx map[ir.ValueID]int
	undefined  map[ir.ValueID]bool
	problems   []string
}

func (v *verifier) fail(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *verifier) collectDefs() {
	for _, p := range v.fn.Params {
		v.defined[p.Value] = 0
		v.definedIdx[p.Value] = -1
	}
	for bi, blk := range v.fn.Blocks {
		for ii, inst := range blk.Insts {
			if inst.HasResult() {
				v.defined[inst.Result] = ir.BlockID(bi)
				v.definedIdx[inst.Result] = ii
				if inst.Op == ir.OpUndefined {
					v.undefined[inst.Result] = true
				}
			}
		}
	}
}

// checkTermination requires that every block end in exactly
// one terminator, and that no terminator appears mid-block.
func (v *verifier) checkTermination() {
	for bi := range v.fn.Blocks {
		blk := v.fn.Block(ir.BlockID(bi))
		if len(blk.Insts) == 0 {
			v.fail("block %q has no instructions (missing terminator)", blk.Name)
			continue
		}
		for i, inst := range blk.Insts {
			isLast := i == len(blk.Insts)-1
			if inst.Op.IsTerminator() && !isLast {
				v.fail("block %q: terminator %s appears before the end of the block", blk.Name, inst.Op)
			}
			if !inst.Op.IsTerminator() && isLast {
				v.fail("block %q does not end in a terminator", blk.Name)
			}
		}
	}
}

// checkPhis requires that every Phi lists exactly one incoming value
// per predecessor of its block, no more, no fewer.
func (v *verifier) checkPhis() {
	for bi, blk := range v.fn.Blocks {
		id := ir.BlockID(bi)
		preds := v.graph.Preds(id)
		for _, inst := range blk.Insts {
			if inst.Op != ir.OpPhi {
				continue
			}
			seen := map[ir.BlockID]bool{}
			for _, pb := range inst.PhiBlocks {
				if seen[pb] {
					v.fail("block %q: phi v%d lists %q more than once", blk.Name, inst.Result, v.fn.Block(pb).Name)
				}
				seen[pb] = true
			}
			for _, p := range preds {
				if !seen[p] {
					v.fail("block %q: phi v%d has no incoming value for predecessor %q", blk.Name, inst.Result, v.fn.Block(p).Name)
				}
			}
			for _, pb := range inst.PhiBlocks {
				if !containsBlock(preds, pb) {
					v.fail("block %q: phi v%d lists %q, which is not a predecessor", blk.Name, inst.Result, v.fn.Block(pb).Name)
				}
			}
		}
	}
}

func containsBlock(list []ir.BlockID, target ir.BlockID) bool {
	for _, b := range list {
		if b == target {
			return true
		}
	}
	return false
}

// checkUsesDefined requires that every operand refers to a value that
// was actually defined somewhere in the function.
func (v *verifier) checkUsesDefined() {
	for _, blk := range v.fn.Blocks {
		for _, inst := range blk.Insts {
			for _, arg := range inst.Args {
				if int(arg) < 0 || int(arg) >= len(v.fn.Values) {
					v.fail("block %q: instruction references undefined value v%d", blk.Name, arg)
					continue
				}
				if _, ok := v.defined[arg]; !ok {
					v.fail("block %q: use of v%d has no definition", blk.Name, arg)
				}
			}
			for _, t := range inst.Targets {
				if int(t) < 0 || int(t) >= len(v.fn.Blocks) {
					v.fail("block %q: branch targets undefined block %d", blk.Name, t)
				}
			}
		}
	}
}

// checkNoUndefinedUses flags any use of a value produced by an
// Undefined instruction, per spec: no use of Undefined is well-formed.
func (v *verifier) checkNoUndefinedUses() {
	for _, blk := range v.fn.Blocks {
		for _, inst := range blk.Insts {
			for _, arg := range inst.Args {
				if v.undefined[arg] {
					v.fail("block %q: use of undefined value v%d%s", blk.Name, arg, locSuffix(inst.Loc))
				}
			}
		}
	}
}

// locSuffix renders " (at <location>)" when loc carries a real
// position, or nothing for instructions synthesized without one.
func locSuffix(loc source.Location) string {
	if loc.IsZero() {
		return ""
	}
	return fmt.Sprintf(" (at %s)", loc)
}

// checkDominance requires that every non-phi use of a value be
// dominated by that value's definition: either the defining block
// strictly dominates the using block, or they are the same block and
// the definition precedes the use in instruction order (cfg.Graph's
// block-level Dominates treats a block as one point, so the
// same-block ordering has to be checked separately here). Phi operands
// are checked against the corresponding predecessor instead, since a
// phi input is live at the end of the predecessor, not at the phi's
// own block.
func (v *verifier) checkDominance() {
	for bi, blk := range v.fn.Blocks {
		useBlock := ir.BlockID(bi)
		for ii, inst := range blk.Insts {
			if inst.Op == ir.OpPhi {
				for i, arg := range inst.Args {
					defBlock, ok := v.defined[arg]
					if !ok {
						continue
					}
					if !v.graph.Dominates(defBlock, inst.PhiBlocks[i]) {
						v.fail("block %q: phi operand v%d is not dominated by its definition along predecessor %q",
							blk.Name, arg, v.fn.Block(inst.PhiBlocks[i]).Name)
					}
				}
				continue
			}
			for _, arg := range inst.Args {
				defBlock, ok := v.defined[arg]
				if !ok {
					continue
				}
				if defBlock == useBlock {
					if v.definedIdx[arg] >= ii {
						v.fail("block %q: use of v%d at instruction %d does not follow its definition at instruction %d%s",
							blk.Name, arg, ii, v.definedIdx[arg], locSuffix(inst.Loc))
					}
					continue
				}
				if !v.graph.Dominates(defBlock, useBlock) {
					v.fail("block %q: use of v%d is not dominated by its definition in %q%s",
						blk.Name, arg, v.fn.Block(defBlock).Name, locSuffix(inst.Loc))
				}
			}
		}
	}
}

// checkTypes requires that Binop operands and result share one Type,
// ICmp operands share one Type, Load/Store addresses are Ptr-typed,
// and a Global reference is Ptr-typed.
func (v *verifier) checkTypes() {
	for _, blk := range v.fn.Blocks {
		for _, inst := range blk.Insts {
			switch {
			case inst.Op.IsBinop():
				v.checkSameType(blk.Name, inst, inst.Type)
			case inst.Op == ir.OpICmp:
				v.checkSameType(blk.Name, inst, v.typeOf(inst.Args[0]))
			case inst.Op == ir.OpLoad:
				v.checkAddrIsPtr(blk.Name, inst, inst.Args[0])
			case inst.Op == ir.OpStore:
				v.checkAddrIsPtr(blk.Name, inst, inst.Args[0])
			case inst.Op == ir.OpGlobal:
				if inst.Type != types.Ptr {
					v.fail("block %q: global %q must be typed ptr, got %s%s", blk.Name, inst.Global, inst.Type, locSuffix(inst.Loc))
				}
			}
		}
	}
}

func (v *verifier) checkSameType(blockName string, inst ir.Instruction, want types.Type) {
	for _, arg := range inst.Args {
		if t := v.typeOf(arg); t != want {
			v.fail("block %q: %s operand v%d has type %s, expected %s%s",
				blockName, inst.Op, arg, t, want, locSuffix(inst.Loc))
		}
	}
}

func (v *verifier) checkAddrIsPtr(blockName string, inst ir.Instruction, addr ir.ValueID) {
	if t := v.typeOf(addr); t != types.Ptr {
		v.fail("block %q: %s address v%d has type %s, expected ptr%s",
			blockName, inst.Op, addr, t, locSuffix(inst.Loc))
	}
}

// typeOf returns arg's declared type, or the zero Type if arg is out
// of range — checkUsesDefined already reports that case separately.
func (v *verifier) typeOf(arg ir.ValueID) types.Type {
	if int(arg) < 0 || int(arg) >= len(v.fn.Values) {
		return types.Type{}
	}
	return v.fn.Value(arg).Type
}
