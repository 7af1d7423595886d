package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the module in the textual IR form: 2-space indented,
// one function per "function <type> <name>(<params>)" header, one
// block per label, one instruction per line.
func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %s\n", m.Name)
	for _, v := range m.Variables {
		fmt.Fprintf(&sb, "global %s %s\n", v.Type, v.Name)
	}
	for _, fn := range m.Functions {
		sb.WriteString(fn.String())
	}
	return sb.String()
}

// String renders a single function in the textual IR form.
func (f *Function) String() string {
	var sb strings.Builder

	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s v%d", p.Type, p.Value)
	}
	fmt.Fprintf(&sb, "function %s %s(%s)\n", f.ReturnType, f.Name, strings.Join(params, ", "))

	for _, blk := range f.Blocks {
		fmt.Fprintf(&sb, "%s:\n", blk.Name)
		for _, inst := range blk.Insts {
			sb.WriteString("  ")
			sb.WriteString(formatInst(&inst))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatInst(inst *Instruction) string {
	lhs := ""
	if inst.HasResult() {
		lhs = fmt.Sprintf("%s v%d = ", inst.Type, inst.Result)
	}

	switch inst.Op {
	case OpConst:
		return fmt.Sprintf("%sconst %s", lhs, strconv.FormatInt(inst.ConstValue, 10))
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpShl, OpShr, OpAnd, OpOr, OpXor:
		return fmt.Sprintf("%s%s %s", lhs, inst.Op, fmtArgs(inst.Args))
	case OpGlobal:
		return fmt.Sprintf("%sglobal %s", lhs, inst.Global)
	case OpICmp:
		return fmt.Sprintf("%sicmp.%s %s", lhs, inst.Cmp, fmtArgs(inst.Args))
	case OpUndefined:
		return fmt.Sprintf("%sundefined", lhs)
	case OpLoad:
		return fmt.Sprintf("%sload %s", lhs, fmtArgs(inst.Args))
	case OpStore:
		return fmt.Sprintf("store %s", fmtArgs(inst.Args))
	case OpCall:
		return fmt.Sprintf("%scall %s(%s)", lhs, inst.Callee, fmtArgs(inst.Args))
	case OpPhi:
		parts := make([]string, len(inst.Args))
		for i, a := range inst.Args {
			parts[i] = fmt.Sprintf("b%d: v%d", inst.PhiBlocks[i], a)
		}
		return fmt.Sprintf("%sphi [%s]", lhs, strings.Join(parts, ", "))
	case OpJmp:
		return fmt.Sprintf("jmp b%d", inst.Targets[0])
	case OpCJmp:
		return fmt.Sprintf("cjmp %s, b%d, b%d", fmtArgs(inst.Args), inst.Targets[0], inst.Targets[1])
	case OpReturn:
		if len(inst.Args) == 0 {
			return "return"
		}
		return fmt.Sprintf("return %s", fmtArgs(inst.Args))
	default:
		return fmt.Sprintf("%s%s %s", lhs, inst.Op, fmtArgs(inst.Args))
	}
}
