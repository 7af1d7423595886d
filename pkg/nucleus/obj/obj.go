// Package obj implements the object file model (spec component C):
// sections, symbols and relocations produced by codegen/assembly and
// consumed by the linker, plus a textual serialize/deserialize
// round-trip used by tooling and tests.
//
// Grounded on gmofishsauce-wut4's lang/yld.ObjectFile/WOFSymbol/WOFReloc
// (types.go) generalized from that toolchain's fixed two-section
// (code/data) binary layout into an arbitrary named-section model, the
// way mc.ProgramFileContents (programfile.go) holds a named
// Globals/Functions/Labels set rather than a fixed register file.
package obj

import "fmt"

// Section is a named, contiguous byte buffer.
type Section struct {
	Name string
	Data []byte
}

// Symbol names a location within one of the file's sections.
type Symbol struct {
	Name    string
	Section string
	Offset  uint64
	Global  bool
}

// Relocation records a patch site: at Offset bytes into Section, apply
// Kind using Symbol's resolved value plus Addend.
type Relocation struct {
	Symbol  string
	Section string
	Offset  uint64
	Kind    string
	Addend  int64
}

// File is a single relocatable object file.
type File struct {
	Name        string
	Sections    []Section
	Symbols     []Symbol
	Relocations []Relocation
}

// New creates an empty named object file.
func New(name string) *File {
	return &File{Name: name}
}

// Section returns the named section, creating it (empty) if absent.
func (f *File) Section(name string) *Section {
	for i := range f.Sections {
		if f.Sections[i].Name == name {
			return &f.Sections[i]
		}
	}
	f.Sections = append(f.Sections, Section{Name: name})
	return &f.Sections[len(f.Sections)-1]
}

// HasSection reports whether name already exists without creating it.
func (f *File) HasSection(name string) bool {
	for _, s := range f.Sections {
		if s.Name == name {
			return true
		}
	}
	return false
}

// AddSymbol appends a symbol definition or reference.
func (f *File) AddSymbol(s Symbol) {
	f.Symbols = append(f.Symbols, s)
}

// AddRelocation appends a relocation record.
func (f *File) AddRelocation(r Relocation) {
	f.Relocations = append(f.Relocations, r)
}

// FindSymbol looks up a symbol by name, returning nil if absent.
func (f *File) FindSymbol(name string) *Symbol {
	for i := range f.Symbols {
		if f.Symbols[i].Name == name {
			return &f.Symbols[i]
		}
	}
	return nil
}

// Equal reports deep structural equality between two object files:
// same sections (name and bytes, in order — section data is a byte
// stream, not a set), and the same symbols and relocations as sets
// (order-independent: two files that declared the same symbols or
// relocations in a different order are still equal).
func (f *File) Equal(other *File) bool {
	if f.Name != other.Name {
		return false
	}
	if len(f.Sections) != len(other.Sections) {
		return false
	}
	for i := range f.Sections {
		if f.Sections[i].Name != other.Sections[i].Name {
			return false
		}
		if string(f.Sections[i].Data) != string(other.Sections[i].Data) {
			return false
		}
	}
	if !sameSet(f.Symbols, other.Symbols) {
		return false
	}
	if !sameSet(f.Relocations, other.Relocations) {
		return false
	}
	return true
}

// sameSet reports whether a and b hold the same elements with the
// same multiplicities, ignoring order.
func sameSet[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[T]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

func (f *File) String() string {
	return fmt.Sprintf("object %q: %d sections, %d symbols, %d relocations",
		f.Name, len(f.Sections), len(f.Symbols), len(f.Relocations))
}
