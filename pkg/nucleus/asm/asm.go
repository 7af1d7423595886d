// Package asm implements a textual assembler: it reads a .mtext
// program (labels and instruction mnemonics, one per line) and, driven
// by a target's isa.Set, encodes every instruction into an obj.File
// ready for the linker.
//
// Grounded on cpu.ParseAssemblyFile (assembler.go), generalized from
// that reader's fixed .text-section-only, func-header/.globl grammar
// into an arbitrary-section form via an explicit .section directive,
// and on mc.ParseInstruction (assembler.go): whitespace/comma operand
// splitting and per-operand-kind parsing, generalized from that
// parser's direct instructions.Opcodes/instructions.Instructions
// globals into the isa.Set passed in by the caller.
package asm

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
	"github.com/mamba-lang/mamba/pkg/nucleus/isa"
	"github.com/mamba-lang/mamba/pkg/nucleus/obj"
	"github.com/mamba-lang/mamba/pkg/nucleus/source"
)

var (
	labelRe    = regexp.MustCompile(`^([A-Za-z_.][A-Za-z0-9_.]*):$`)
	sectionRe  = regexp.MustCompile(`^\.section\s+(\S+)$`)
	globlRe    = regexp.MustCompile(`^\.globl\s+(\S+)$`)
	registerRe = regexp.MustCompile(`^r([0-9]+)$`)
)

// statement is either a label definition or an instruction, scoped to
// the section active when it was read.
type statement struct {
	label    string
	section  string
	mnemonic string
	operands []string
	loc      source.Location
}

// Program is the parsed form of a .mtext source file: a flat,
// source-ordered list of label and instruction statements, plus the
// set of labels a .globl directive named. Assemble drives a Program
// against a target's isa.Set to produce an obj.File.
type Program struct {
	stmts   []statement
	globals map[string]bool
}

// Parse reads a .mtext program. Lines are blank, a "# ..." comment, a
// ".section <name>" directive switching the active section (default
// ".text"), a ".globl <name>" directive, a "<name>:" label definition,
// or an instruction: a mnemonic followed by comma-separated operands.
func Parse(text string) (*Program, error) {
	p := &Program{globals: map[string]bool{}}
	section := ".text"

	scanner := bufio.NewScanner(strings.NewReader(text))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		loc := source.Location{File: "<mtext>", Line: lineNo}

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			section = m[1]
			continue
		}
		if m := globlRe.FindStringSubmatch(line); m != nil {
			p.globals[m[1]] = true
			continue
		}
		if m := labelRe.FindStringSubmatch(line); m != nil {
			p.stmts = append(p.stmts, statement{label: m[1], section: section, loc: loc})
			continue
		}

		fields := strings.SplitN(line, " ", 2)
		stmt := statement{section: section, mnemonic: fields[0], loc: loc}
		if len(fields) == 2 {
			for _, operand := range strings.Split(fields[1], ",") {
				if operand = strings.TrimSpace(operand); operand != "" {
					stmt.operands = append(stmt.operands, operand)
				}
			}
		}
		p.stmts = append(p.stmts, stmt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrParse, err)
	}
	return p, nil
}

// Assemble encodes every instruction statement in p against target,
// in source order, into a single named object file: one obj.Section
// per distinct ".section" scope, one obj.Symbol per label (global
// when named by a .globl directive, local otherwise), and one
// obj.Relocation per symbolic operand isa.Encode reports.
func Assemble(p *Program, target *isa.Set, objName string) (*obj.File, error) {
	f := obj.New(objName)

	for _, st := range p.stmts {
		sec := f.Section(st.section)

		if st.label != "" {
			f.AddSymbol(obj.Symbol{
				Name:    st.label,
				Section: st.section,
				Offset:  uint64(len(sec.Data)),
				Global:  p.globals[st.label],
			})
			continue
		}

		d, err := target.Lookup(st.mnemonic)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.loc, err)
		}
		operands, err := parseOperands(d, st.operands, st.loc)
		if err != nil {
			return nil, err
		}

		bytes, relocs, err := isa.Encode(d, operands)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.loc, err)
		}

		base := uint64(len(sec.Data))
		for _, r := range relocs {
			f.AddRelocation(obj.Relocation{
				Symbol:  r.Symbol,
				Section: st.section,
				Offset:  base + tokenByteOffset(d, r.Operand.TokenIndex),
				Kind:    r.Operand.RelocKind,
				Addend:  r.Addend,
			})
		}
		sec.Data = append(sec.Data, bytes...)
	}
	return f, nil
}

// parseOperands turns tok's operand tokens into isa.Operand values
// per d's declared operand kinds: rN for a register, an integer
// literal (strconv's base-0 prefix rules: 0x, 0, decimal) for an
// immediate, and a bare identifier for a symbol.
func parseOperands(d *isa.Descriptor, tokens []string, loc source.Location) ([]isa.Operand, error) {
	if len(tokens) != len(d.Operands) {
		return nil, fmt.Errorf("%s: %w: %s expects %d operand(s), got %d",
			loc, errs.ErrParse, d.OpCode.Mnemonic, len(d.Operands), len(tokens))
	}

	operands := make([]isa.Operand, len(tokens))
	for i, desc := range d.Operands {
		tok := tokens[i]
		switch desc.Kind {
		case isa.OperandRegister:
			m := registerRe.FindStringSubmatch(tok)
			if m == nil {
				return nil, fmt.Errorf("%s: %w: operand %q: %q is not a register (expected rN)", loc, errs.ErrParse, desc.Name, tok)
			}
			n, _ := strconv.ParseUint(m[1], 10, 64)
			operands[i] = isa.Operand{Kind: isa.OperandRegister, Value: n}
		case isa.OperandImmediate:
			n, err := strconv.ParseInt(tok, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w: operand %q: %q is not an integer", loc, errs.ErrParse, desc.Name, tok)
			}
			operands[i] = isa.Operand{Kind: isa.OperandImmediate, Value: uint64(n)}
		case isa.OperandSymbol:
			operands[i] = isa.Operand{Kind: isa.OperandSymbol, Symbol: tok}
		}
	}
	return operands, nil
}

// tokenByteOffset returns the byte offset of d's tokenIndex'th token
// within its instruction encoding, summing the byte width of every
// preceding token.
func tokenByteOffset(d *isa.Descriptor, tokenIndex int) uint64 {
	var off uint64
	for i := 0; i < tokenIndex; i++ {
		off += uint64(d.TokenWidths[i] / 8)
	}
	return off
}
