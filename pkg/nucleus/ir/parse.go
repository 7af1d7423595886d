package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
	"github.com/mamba-lang/mamba/pkg/nucleus/types"
)

// Parse reads the textual form produced by Module.String back into a
// Module: a module header, then one function per "function ..." line,
// each followed by its label blocks and 2-space-indented instructions.
//
// No example repo carries a textual IR reader to pair with a writer;
// this follows the shape of the paired programfilewriter/
// programfilereader (line-oriented, one directive per line) the same
// way obj/text.go and layout/parse.go do, adapted from that flat
// record format to the indented block grammar ir/print.go emits.
func Parse(src string) (*Module, error) {
	p := &irParser{lines: strings.Split(src, "\n")}
	return p.parseModule()
}

type irParser struct {
	lines []string
	pos   int
}

func (p *irParser) peek() (string, bool) {
	for p.pos < len(p.lines) {
		if strings.TrimSpace(p.lines[p.pos]) == "" {
			p.pos++
			continue
		}
		return p.lines[p.pos], true
	}
	return "", false
}

func (p *irParser) next() (string, bool) {
	l, ok := p.peek()
	if ok {
		p.pos++
	}
	return l, ok
}

func (p *irParser) parseModule() (*Module, error) {
	line, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("%w: empty input", errs.ErrParse)
	}
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "module" {
		return nil, fmt.Errorf("%w: expected \"module <name>\", got %q", errs.ErrParse, line)
	}
	m := NewModule(fields[1])

	for {
		line, ok := p.peek()
		if !ok {
			break
		}
		if strings.HasPrefix(strings.TrimSpace(line), "global ") {
			if err := p.parseGlobal(m); err != nil {
				return nil, err
			}
			continue
		}
		if !strings.HasPrefix(strings.TrimSpace(line), "function ") {
			return nil, fmt.Errorf("%w: expected a function header or global declaration, got %q", errs.ErrParse, line)
		}
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		m.AddFunction(fn)
	}
	return m, nil
}

// parseGlobal reads one "global <type> <name>" declaration line.
func (p *irParser) parseGlobal(m *Module) error {
	line, _ := p.next()
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 3 || fields[0] != "global" {
		return fmt.Errorf("%w: malformed global declaration %q", errs.ErrParse, line)
	}
	ty, ok := types.ByName(fields[1])
	if !ok {
		return fmt.Errorf("%w: unknown type %q", errs.ErrParse, fields[1])
	}
	m.AddGlobal(fields[2], ty)
	return nil
}

func (p *irParser) parseFunction() (*Function, error) {
	header, _ := p.next()
	header = strings.TrimSpace(header)
	rest := strings.TrimPrefix(header, "function ")

	paren := strings.Index(rest, "(")
	if paren < 0 || !strings.HasSuffix(rest, ")") {
		return nil, fmt.Errorf("%w: malformed function header %q", errs.ErrParse, header)
	}
	beforeParen := strings.TrimSpace(rest[:paren])
	paramsStr := rest[paren+1 : len(rest)-1]

	sp := strings.LastIndex(beforeParen, " ")
	if sp < 0 {
		return nil, fmt.Errorf("%w: malformed function header %q", errs.ErrParse, header)
	}
	retType, ok := types.ByName(beforeParen[:sp])
	if !ok {
		return nil, fmt.Errorf("%w: unknown return type %q", errs.ErrParse, beforeParen[:sp])
	}
	name := beforeParen[sp+1:]

	fn := &Function{Name: name, ReturnType: retType}

	if strings.TrimSpace(paramsStr) != "" {
		for _, param := range strings.Split(paramsStr, ", ") {
			fields := strings.Fields(param)
			if len(fields) != 2 {
				return nil, fmt.Errorf("%w: malformed parameter %q", errs.ErrParse, param)
			}
			ty, ok := types.ByName(fields[0])
			if !ok {
				return nil, fmt.Errorf("%w: unknown type %q", errs.ErrParse, fields[0])
			}
			id, err := parseValueRef(fields[1])
			if err != nil {
				return nil, err
			}
			ensureValue(fn, id, ty, 0)
			fn.Params = append(fn.Params, Param{Value: id, Type: ty, Name: fields[1]})
		}
	}

	for {
		line, ok := p.peek()
		if !ok || strings.HasPrefix(strings.TrimSpace(line), "function ") {
			break
		}
		if strings.HasPrefix(line, "  ") || !strings.HasSuffix(strings.TrimSpace(line), ":") {
			return nil, fmt.Errorf("%w: expected a block label, got %q", errs.ErrParse, line)
		}
		if err := p.parseBlock(fn); err != nil {
			return nil, err
		}
	}
	if len(fn.Blocks) == 0 {
		return nil, fmt.Errorf("%w: function %q has no blocks", errs.ErrParse, name)
	}
	fn.cfgDirty = true
	return fn, nil
}

func (p *irParser) parseBlock(fn *Function) error {
	label, _ := p.next()
	name := strings.TrimSuffix(strings.TrimSpace(label), ":")
	id := BlockID(len(fn.Blocks))
	fn.Blocks = append(fn.Blocks, Block{ID: id, Name: name})

	for {
		line, ok := p.peek()
		if !ok || !strings.HasPrefix(line, "  ") {
			break
		}
		p.next()
		inst, err := parseInstruction(fn, id, strings.TrimSpace(line))
		if err != nil {
			return err
		}
		blk := &fn.Blocks[id]
		inst.ID = InstID(len(blk.Insts))
		blk.Insts = append(blk.Insts, *inst)
		for _, arg := range inst.Args {
			// a forward reference: grow the arena now, ensureValue stamps
			// the type and block when the definition is parsed
			for ValueID(len(fn.Values)) <= arg {
				fn.Values = append(fn.Values, Value{ID: ValueID(len(fn.Values))})
			}
			v := fn.Value(arg)
			v.Uses = append(v.Uses, Use{Block: id, Inst: inst.ID})
		}
	}
	return nil
}

func parseInstruction(fn *Function, blockID BlockID, line string) (*Instruction, error) {
	resultID := ValueID(invalidID)
	var lhsType types.Type
	rhs := line

	if idx := strings.Index(line, " = "); idx >= 0 {
		fields := strings.Fields(line[:idx])
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: malformed instruction lhs %q", errs.ErrParse, line[:idx])
		}
		ty, ok := types.ByName(fields[0])
		if !ok {
			return nil, fmt.Errorf("%w: unknown type %q", errs.ErrParse, fields[0])
		}
		id, err := parseValueRef(fields[1])
		if err != nil {
			return nil, err
		}
		lhsType, resultID = ty, id
		rhs = line[idx+3:]
	}

	opTok, operands := splitFirst(rhs)

	switch {
	case opTok == "const":
		n, err := strconv.ParseInt(strings.TrimSpace(operands), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed const value %q", errs.ErrParse, operands)
		}
		ensureValue(fn, resultID, lhsType, blockID)
		return &Instruction{Op: OpConst, Result: resultID, Type: lhsType, ConstValue: n}, nil

	case isBinopToken(opTok):
		args, err := parseValueRefs(operands)
		if err != nil {
			return nil, err
		}
		var op Op
		switch opTok {
		case "add":
			op = OpAdd
		case "sub":
			op = OpSub
		case "mul":
			op = OpMul
		case "div":
			op = OpDiv
		case "mod":
			op = OpMod
		case "shl":
			op = OpShl
		case "shr":
			op = OpShr
		case "and":
			op = OpAnd
		case "or":
			op = OpOr
		case "xor":
			op = OpXor
		}
		ensureValue(fn, resultID, lhsType, blockID)
		return &Instruction{Op: op, Result: resultID, Type: lhsType, Args: args}, nil

	case opTok == "global":
		ensureValue(fn, resultID, lhsType, blockID)
		return &Instruction{Op: OpGlobal, Result: resultID, Type: lhsType, Global: strings.TrimSpace(operands)}, nil

	case strings.HasPrefix(opTok, "icmp."):
		cmp, ok := cmpFromName(strings.TrimPrefix(opTok, "icmp."))
		if !ok {
			return nil, fmt.Errorf("%w: unknown comparison %q", errs.ErrParse, opTok)
		}
		args, err := parseValueRefs(operands)
		if err != nil {
			return nil, err
		}
		ensureValue(fn, resultID, lhsType, blockID)
		return &Instruction{Op: OpICmp, Result: resultID, Type: lhsType, Args: args, Cmp: cmp}, nil

	case opTok == "undefined":
		ensureValue(fn, resultID, lhsType, blockID)
		return &Instruction{Op: OpUndefined, Result: resultID, Type: lhsType}, nil

	case opTok == "load":
		args, err := parseValueRefs(operands)
		if err != nil {
			return nil, err
		}
		ensureValue(fn, resultID, lhsType, blockID)
		return &Instruction{Op: OpLoad, Result: resultID, Type: lhsType, Args: args}, nil

	case opTok == "store":
		args, err := parseValueRefs(operands)
		if err != nil {
			return nil, err
		}
		return &Instruction{Op: OpStore, Result: ValueID(invalidID), Args: args}, nil

	case opTok == "call":
		operands = strings.TrimSpace(operands)
		paren := strings.Index(operands, "(")
		if paren < 0 || !strings.HasSuffix(operands, ")") {
			return nil, fmt.Errorf("%w: malformed call %q", errs.ErrParse, operands)
		}
		callee := operands[:paren]
		args, err := parseValueRefs(operands[paren+1 : len(operands)-1])
		if err != nil {
			return nil, err
		}
		ensureValue(fn, resultID, lhsType, blockID)
		return &Instruction{Op: OpCall, Result: resultID, Type: lhsType, Args: args, Callee: callee}, nil

	case opTok == "phi":
		operands = strings.TrimSpace(operands)
		if !strings.HasPrefix(operands, "[") || !strings.HasSuffix(operands, "]") {
			return nil, fmt.Errorf("%w: malformed phi %q", errs.ErrParse, operands)
		}
		inner := strings.TrimSpace(operands[1 : len(operands)-1])
		inst := &Instruction{Op: OpPhi, Result: resultID, Type: lhsType}
		if inner != "" {
			for _, pair := range strings.Split(inner, ", ") {
				parts := strings.SplitN(pair, ":", 2)
				if len(parts) != 2 {
					return nil, fmt.Errorf("%w: malformed phi entry %q", errs.ErrParse, pair)
				}
				blk, err := parseBlockRef(strings.TrimSpace(parts[0]))
				if err != nil {
					return nil, err
				}
				val, err := parseValueRef(strings.TrimSpace(parts[1]))
				if err != nil {
					return nil, err
				}
				inst.PhiBlocks = append(inst.PhiBlocks, blk)
				inst.Args = append(inst.Args, val)
			}
		}
		ensureValue(fn, resultID, lhsType, blockID)
		return inst, nil

	case opTok == "jmp":
		target, err := parseBlockRef(strings.TrimSpace(operands))
		if err != nil {
			return nil, err
		}
		return &Instruction{Op: OpJmp, Result: ValueID(invalidID), Targets: []BlockID{target}}, nil

	case opTok == "cjmp":
		parts := strings.Split(operands, ", ")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: malformed cjmp %q", errs.ErrParse, operands)
		}
		cond, err := parseValueRef(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		ifTrue, err := parseBlockRef(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, err
		}
		ifFalse, err := parseBlockRef(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, err
		}
		return &Instruction{Op: OpCJmp, Result: ValueID(invalidID), Args: []ValueID{cond}, Targets: []BlockID{ifTrue, ifFalse}}, nil

	case opTok == "return":
		if strings.TrimSpace(operands) == "" {
			return &Instruction{Op: OpReturn, Result: ValueID(invalidID)}, nil
		}
		v, err := parseValueRef(strings.TrimSpace(operands))
		if err != nil {
			return nil, err
		}
		return &Instruction{Op: OpReturn, Result: ValueID(invalidID), Args: []ValueID{v}}, nil

	default:
		return nil, fmt.Errorf("%w: unknown instruction %q", errs.ErrParse, line)
	}
}

// ensureValue grows fn's value arena so index id is addressable, then
// stamps its type and owning block — the parser's values arrive by ID
// out of allocation order (a phi can reference a later block's value),
// unlike the Builder which only ever appends.
func ensureValue(fn *Function, id ValueID, ty types.Type, block BlockID) *Value {
	for ValueID(len(fn.Values)) <= id {
		fn.Values = append(fn.Values, Value{ID: ValueID(len(fn.Values))})
	}
	v := &fn.Values[id]
	v.Type = ty
	v.Block = block
	return v
}

// isBinopToken reports whether tok is one of the ten textual binop
// mnemonics print.go emits for an IsBinop instruction.
func isBinopToken(tok string) bool {
	switch tok {
	case "add", "sub", "mul", "div", "mod", "shl", "shr", "and", "or", "xor":
		return true
	default:
		return false
	}
}

func splitFirst(s string) (string, string) {
	s = strings.TrimSpace(s)
	idx := strings.IndexByte(s, ' ')
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

func parseValueRef(s string) (ValueID, error) {
	if !strings.HasPrefix(s, "v") {
		return 0, fmt.Errorf("%w: expected a value reference, got %q", errs.ErrParse, s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed value reference %q", errs.ErrParse, s)
	}
	return ValueID(n), nil
}

func parseBlockRef(s string) (BlockID, error) {
	if !strings.HasPrefix(s, "b") {
		return 0, fmt.Errorf("%w: expected a block reference, got %q", errs.ErrParse, s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed block reference %q", errs.ErrParse, s)
	}
	return BlockID(n), nil
}

func parseValueRefs(s string) ([]ValueID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ", ")
	refs := make([]ValueID, len(parts))
	for i, part := range parts {
		v, err := parseValueRef(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		refs[i] = v
	}
	return refs, nil
}

func cmpFromName(name string) (CmpOp, bool) {
	switch name {
	case "eq":
		return CmpEq, true
	case "ne":
		return CmpNe, true
	case "lt":
		return CmpLt, true
	case "le":
		return CmpLe, true
	case "gt":
		return CmpGt, true
	case "ge":
		return CmpGe, true
	default:
		return 0, false
	}
}
