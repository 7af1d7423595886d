package obj

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
)

// Serialize renders the object file in its textual form:
//
//	object <name>
//	section <name> <hex bytes>
//	symbol <name> <section> <offset> global|local
//	reloc <symbol> <section> <offset> <kind> <addend>
func (f *File) Serialize() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "object %s\n", f.Name)
	for _, s := range f.Sections {
		fmt.Fprintf(&sb, "section %s %s\n", s.Name, hex.EncodeToString(s.Data))
	}
	for _, s := range f.Symbols {
		vis := "local"
		if s.Global {
			vis = "global"
		}
		fmt.Fprintf(&sb, "symbol %s %s %d %s\n", s.Name, s.Section, s.Offset, vis)
	}
	for _, r := range f.Relocations {
		fmt.Fprintf(&sb, "reloc %s %s %d %s %d\n", r.Symbol, r.Section, r.Offset, r.Kind, r.Addend)
	}
	return sb.String()
}

// Deserialize parses the textual form produced by Serialize.
func Deserialize(text string) (*File, error) {
	f := &File{}
	lines := strings.Split(text, "\n")
	for lineNo, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		kw := fields[0]
		switch kw {
		case "object":
			if len(fields) != 2 {
				return nil, parseErr(lineNo, "object takes exactly one name")
			}
			f.Name = fields[1]
		case "section":
			// an empty section is written with no hex field at all
			if len(fields) != 2 && len(fields) != 3 {
				return nil, parseErr(lineNo, "section takes a name and hex bytes")
			}
			var data []byte
			if len(fields) == 3 {
				var err error
				data, err = hex.DecodeString(fields[2])
				if err != nil {
					return nil, parseErr(lineNo, "invalid hex bytes: %v", err)
				}
			}
			f.Sections = append(f.Sections, Section{Name: fields[1], Data: data})
		case "symbol":
			if len(fields) != 5 {
				return nil, parseErr(lineNo, "symbol takes name, section, offset, visibility")
			}
			off, err := strconv.ParseUint(fields[3], 10, 64)
			if err != nil {
				return nil, parseErr(lineNo, "invalid offset: %v", err)
			}
			global := fields[4] == "global"
			if !global && fields[4] != "local" {
				return nil, parseErr(lineNo, "visibility must be 'global' or 'local', got %q", fields[4])
			}
			f.Symbols = append(f.Symbols, Symbol{Name: fields[1], Section: fields[2], Offset: off, Global: global})
		case "reloc":
			if len(fields) != 6 {
				return nil, parseErr(lineNo, "reloc takes symbol, section, offset, kind, addend")
			}
			off, err := strconv.ParseUint(fields[3], 10, 64)
			if err != nil {
				return nil, parseErr(lineNo, "invalid offset: %v", err)
			}
			addend, err := strconv.ParseInt(fields[5], 10, 64)
			if err != nil {
				return nil, parseErr(lineNo, "invalid addend: %v", err)
			}
			f.Relocations = append(f.Relocations, Relocation{
				Symbol: fields[1], Section: fields[2], Offset: off, Kind: fields[4], Addend: addend,
			})
		default:
			return nil, parseErr(lineNo, "unknown directive %q", kw)
		}
	}
	if f.Name == "" {
		return nil, fmt.Errorf("%w: missing 'object' header", errs.ErrParse)
	}
	return f, nil
}

func parseErr(lineNo int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", errs.ErrParse, lineNo+1, fmt.Sprintf(format, args...))
}
