// Package linker implements the four-phase linking algorithm (spec
// component E): merge same-named sections across object files, check
// for duplicate symbol definitions, place each merged section in a
// memory region by walking the layout's directives in order, resolve
// every symbol to its final address, and patch every relocation
// in-place using the reloc registry.
//
// Grounded on gmofishsauce-wut4's lang/yld.Linker (linker.go):
// resolveSymbols -> layout -> relocate, generalized from that
// toolchain's fixed code/data two-section model to an arbitrary named
// section set placed under a declarative layout.Layout rather than a
// hardcoded code-then-data rule, and from its single-object-at-a-time
// patch functions to the shared reloc.Registry.
package linker

import (
	"fmt"
	"sort"

	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
	"github.com/mamba-lang/mamba/pkg/nucleus/layout"
	"github.com/mamba-lang/mamba/pkg/nucleus/obj"
	"github.com/mamba-lang/mamba/pkg/nucleus/reloc"
)

// Image is the linker's deterministic output: each memory region's
// final bytes, plus the fully resolved symbol table.
type Image struct {
	Regions map[string][]byte
	Symbols map[string]uint64
}

// objectSpan records where one input object's contribution to a
// merged section begins, so symbol/relocation offsets local to that
// object can be rebased into the merged section's coordinate space.
type objectSpan struct {
	objIndex int
	start    uint64
	length   uint64
}

type mergedSection struct {
	name  string
	bytes []byte
	spans []objectSpan // parallel to the objects that contributed, in merge order
	base  uint64        // filled in during placement
	placed bool
}

// Link merges objs's sections, places them per lay, resolves symbols
// and applies relocations, returning the linked Image.
func Link(objs []*obj.File, lay *layout.Layout, registry reloc.Registry) (*Image, error) {
	merged, order := mergeSections(objs)

	globalAddr, err := resolveSymbolOffsets(objs, merged)
	if err != nil {
		return nil, err
	}

	lay = effectiveLayout(lay, order)
	if err := place(merged, lay); err != nil {
		return nil, err
	}

	symbolAddrs := make(map[string]uint64, len(globalAddr))
	for name, off := range globalAddr {
		sec := merged[off.section]
		symbolAddrs[name] = sec.base + off.offset
	}

	if err := applyRelocations(objs, merged, symbolAddrs, registry); err != nil {
		return nil, err
	}

	img := &Image{Regions: map[string][]byte{}, Symbols: symbolAddrs}
	for _, r := range lay.Regions {
		img.Regions[r.Name] = regionBytes(r, merged)
	}
	return img, nil
}

func mergeSections(objs []*obj.File) (map[string]*mergedSection, []string) {
	merged := map[string]*mergedSection{}
	var order []string

	for oi, o := range objs {
		for _, s := range o.Sections {
			ms, ok := merged[s.Name]
			if !ok {
				ms = &mergedSection{name: s.Name}
				merged[s.Name] = ms
				order = append(order, s.Name)
			}
			start := uint64(len(ms.bytes))
			ms.bytes = append(ms.bytes, s.Data...)
			ms.spans = append(ms.spans, objectSpan{objIndex: oi, start: start, length: uint64(len(s.Data))})
		}
	}
	return merged, order
}

// effectiveLayout appends an implicit "default" region, at address 0,
// holding every merged section not named by a SECTION directive in
// any of lay's regions, in first-encountered order. For an empty
// layout that implicit region is the only region and holds every
// section; for a non-empty layout it holds only the stragglers, per
// the rule that unmentioned sections are placed sequentially after
// all named regions starting at address 0.
func effectiveLayout(lay *layout.Layout, order []string) *layout.Layout {
	if lay == nil {
		lay = &layout.Layout{}
	}
	mentioned := map[string]bool{}
	for _, r := range lay.Regions {
		for _, d := range r.Directives {
			if d.Kind == "SECTION" {
				mentioned[d.Name] = true
			}
		}
	}

	var stragglers []string
	for _, name := range order {
		if !mentioned[name] {
			stragglers = append(stragglers, name)
		}
	}
	if len(stragglers) == 0 {
		return lay
	}

	implicit := layout.Region{Name: "default", Location: 0, Size: 0}
	for _, name := range stragglers {
		implicit.Directives = append(implicit.Directives, layout.Directive{Kind: "SECTION", Name: name})
	}
	regions := make([]layout.Region, 0, len(lay.Regions)+1)
	regions = append(regions, lay.Regions...)
	regions = append(regions, implicit)
	return &layout.Layout{Regions: regions}
}

// symbolOffset names the merged section and the byte offset within it
// that a symbol resolves to, before region placement assigns a base
// address.
type symbolOffset struct {
	section string
	offset  uint64
}

// resolveSymbolOffsets computes each global symbol's offset within its
// merged section, erroring on duplicate global definitions or
// relocations that reference a symbol nobody defines.
func resolveSymbolOffsets(objs []*obj.File, merged map[string]*mergedSection) (map[string]symbolOffset, error) {
	global := map[string]symbolOffset{}
	definedBy := map[string]string{} // symbol -> defining object name, for the duplicate error message
	definedSomewhere := map[string]bool{}

	var undefined []string
	var duplicates []string

	for oi, o := range objs {
		for _, sym := range o.Symbols {
			sec, ok := merged[sym.Section]
			if !ok {
				undefined = append(undefined, fmt.Sprintf("%s (section %q not found)", sym.Name, sym.Section))
				continue
			}
			var span objectSpan
			for _, sp := range sec.spans {
				if sp.objIndex == oi {
					span = sp
					break
				}
			}
			off := symbolOffset{section: sym.Section, offset: span.start + sym.Offset}
			definedSomewhere[sym.Name] = true

			if sym.Global {
				if prev, exists := definedBy[sym.Name]; exists {
					duplicates = append(duplicates, fmt.Sprintf("%q defined in both %q and %q", sym.Name, prev, o.Name))
					continue
				}
				definedBy[sym.Name] = o.Name
				global[sym.Name] = off
			}
		}
	}

	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		return nil, fmt.Errorf("%w: duplicate symbol definitions: %v", errs.ErrLink, duplicates)
	}

	for _, o := range objs {
		for _, r := range o.Relocations {
			if !definedSomewhere[r.Symbol] {
				undefined = append(undefined, r.Symbol)
			}
		}
	}
	if len(undefined) > 0 {
		sort.Strings(undefined)
		return nil, fmt.Errorf("%w: undefined symbols: %v", errs.ErrLink, undefined)
	}

	return global, nil
}

// place walks the layout's regions and SECTION directives in order,
// assigning each named section a base address within its region,
// honoring ALIGN directives as a cursor bump before the next section.
// Every merged section is assumed to be named by exactly one region's
// directives: effectiveLayout appends an implicit region covering any
// section the caller's layout left unmentioned before place ever runs.
func place(merged map[string]*mergedSection, lay *layout.Layout) error {
	for _, region := range lay.Regions {
		cursor := region.Location
		for _, d := range region.Directives {
			switch d.Kind {
			case "ALIGN":
				if d.Value > 0 {
					if rem := cursor % d.Value; rem != 0 {
						cursor += d.Value - rem
					}
				}
			case "SECTION":
				ms, ok := merged[d.Name]
				if !ok {
					// An empty/unused section is not an error: it
					// simply contributes no bytes and advances nothing.
					continue
				}
				if ms.placed {
					return fmt.Errorf("%w: section %q placed in more than one region", errs.ErrLayout, d.Name)
				}
				ms.base = cursor
				ms.placed = true
				cursor += uint64(len(ms.bytes))
			}
		}
		if region.Size != 0 && cursor-region.Location > region.Size {
			return fmt.Errorf("%w: region %q overflows: placed %d bytes into a %d-byte region",
				errs.ErrLink, region.Name, cursor-region.Location, region.Size)
		}
	}
	return nil
}

// applyRelocations patches every relocation in every input object
// against the merged, placed section bytes.
func applyRelocations(objs []*obj.File, merged map[string]*mergedSection, symbolAddrs map[string]uint64, registry reloc.Registry) error {
	for oi, o := range objs {
		for _, r := range o.Relocations {
			sec, ok := merged[r.Section]
			if !ok {
				return fmt.Errorf("%w: relocation in %q references unknown section %q", errs.ErrLink, o.Name, r.Section)
			}
			var span *objectSpan
			for i := range sec.spans {
				if sec.spans[i].objIndex == oi {
					span = &sec.spans[i]
					break
				}
			}
			if span == nil {
				return fmt.Errorf("%w: object %q contributes no bytes to section %q", errs.ErrLink, o.Name, r.Section)
			}

			symAddr, ok := symbolAddrs[r.Symbol]
			if !ok {
				// Local symbol: resolve relative to this object's own span
				// of the section the symbol is defined in.
				local := findLocalSymbol(o, r.Symbol)
				if local == nil {
					return fmt.Errorf("%w: relocation in %q references undefined symbol %q", errs.ErrLink, o.Name, r.Symbol)
				}
				symSec, ok := merged[local.Section]
				if !ok {
					return fmt.Errorf("%w: symbol %q in %q lies in unknown section %q", errs.ErrLink, r.Symbol, o.Name, local.Section)
				}
				var symSpan *objectSpan
				for i := range symSec.spans {
					if symSec.spans[i].objIndex == oi {
						symSpan = &symSec.spans[i]
						break
					}
				}
				if symSpan == nil {
					return fmt.Errorf("%w: object %q contributes no bytes to section %q", errs.ErrLink, o.Name, local.Section)
				}
				symAddr = symSec.base + symSpan.start + local.Offset
			}

			siteOffset := span.start + r.Offset
			siteAddr := sec.base + siteOffset

			kind, err := registry.Lookup(r.Kind)
			if err != nil {
				return err
			}

			end := siteOffset + uint64(kind.ByteWidth)
			if end > uint64(len(sec.bytes)) {
				return fmt.Errorf("%w: relocation in %q at offset %d overruns section %q", errs.ErrLink, o.Name, r.Offset, r.Section)
			}

			patched, err := kind.Patch(symAddr, siteAddr, r.Addend, r.Symbol, sec.bytes[siteOffset:end])
			if err != nil {
				return err
			}
			copy(sec.bytes[siteOffset:end], patched)
		}
	}
	return nil
}

func findLocalSymbol(o *obj.File, name string) *obj.Symbol {
	for i := range o.Symbols {
		if o.Symbols[i].Name == name {
			return &o.Symbols[i]
		}
	}
	return nil
}

// regionBytes renders a region's contents: the concatenation, in
// directive order, of every section placed in it, with ALIGN gaps
// between sections filled with zero bytes. The output ends with the
// last placed section's last byte; it is not padded out to the
// region's declared Size (that capacity is just an overflow bound,
// checked by place).
func regionBytes(region layout.Region, merged map[string]*mergedSection) []byte {
	cursor := region.Location
	var out []byte
	emit := func(upTo uint64) {
		for cursor < upTo {
			out = append(out, 0)
			cursor++
		}
	}

	for _, d := range region.Directives {
		switch d.Kind {
		case "ALIGN":
			if d.Value > 0 {
				if rem := cursor % d.Value; rem != 0 {
					emit(cursor + (d.Value - rem))
				}
			}
		case "SECTION":
			ms, ok := merged[d.Name]
			if !ok {
				continue
			}
			emit(ms.base)
			out = append(out, ms.bytes...)
			cursor += uint64(len(ms.bytes))
		}
	}
	return out
}
