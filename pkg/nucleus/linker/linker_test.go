package linker

import (
	"testing"

	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
	"github.com/mamba-lang/mamba/pkg/nucleus/layout"
	"github.com/mamba-lang/mamba/pkg/nucleus/obj"
	"github.com/mamba-lang/mamba/pkg/nucleus/reloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bytesOf(n int) []byte { return make([]byte, n) }

func TestUndefinedSymbolReference(t *testing.T) {
	o1 := obj.New("o1")
	o1.Section(".text")
	o1.AddRelocation(obj.Relocation{Symbol: "undefined_sym", Section: ".text", Offset: 0, Kind: "rel8"})
	o2 := obj.New("o2")

	_, err := Link([]*obj.File{o1, o2}, &layout.Layout{}, reloc.DefaultRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrLink)
}

func TestDuplicateSymbol(t *testing.T) {
	o1 := obj.New("o1")
	o1.Section(".text")
	o1.AddSymbol(obj.Symbol{Name: "a", Section: ".text", Offset: 0, Global: true})
	o2 := obj.New("o2")
	o2.Section(".text")
	o2.AddSymbol(obj.Symbol{Name: "a", Section: ".text", Offset: 0, Global: true})

	_, err := Link([]*obj.File{o1, o2}, &layout.Layout{}, reloc.DefaultRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrLink)
	assert.Contains(t, err.Error(), "duplicate symbol")
}

func TestSymbolValuesAfterMerge(t *testing.T) {
	o1 := obj.New("o1")
	o1.Section(".text").Data = bytesOf(108)
	o1.AddSymbol(obj.Symbol{Name: "b", Section: ".text", Offset: 24, Global: true})

	o2 := obj.New("o2")
	o2.Section(".text").Data = bytesOf(100)
	o2.AddSymbol(obj.Symbol{Name: "a", Section: ".text", Offset: 2, Global: true})

	img, err := Link([]*obj.File{o1, o2}, &layout.Layout{}, reloc.DefaultRegistry())
	require.NoError(t, err)

	assert.Equal(t, uint64(110), img.Symbols["a"])
	assert.Equal(t, uint64(24), img.Symbols["b"])
	assert.Len(t, img.Regions["default"], 208)
}

func TestTwoRegionLayoutPlacement(t *testing.T) {
	spec := `
MEMORY flash LOCATION=0x08000000 SIZE=0x3000 {
  SECTION(code)
}
MEMORY sram LOCATION=0x20000000 SIZE=0x3000 {
  SECTION(data)
}
`
	lay, err := layout.Parse(spec)
	require.NoError(t, err)

	o1 := obj.New("o1")
	o1.Section("code").Data = bytesOf(108)
	o1.AddSymbol(obj.Symbol{Name: "b", Section: "code", Offset: 24, Global: true})

	o2 := obj.New("o2")
	o2.Section("code").Data = bytesOf(100)
	o2.Section("data").Data = bytesOf(100)
	o2.AddSymbol(obj.Symbol{Name: "a", Section: "data", Offset: 2, Global: true})
	o2.AddSymbol(obj.Symbol{Name: "c", Section: "code", Offset: 2, Global: true})

	img, err := Link([]*obj.File{o1, o2}, lay, reloc.DefaultRegistry())
	require.NoError(t, err)

	assert.Equal(t, uint64(0x20000000+2), img.Symbols["a"])
	assert.Equal(t, uint64(0x08000000+24), img.Symbols["b"])
	assert.Equal(t, uint64(0x08000000+110), img.Symbols["c"])
	assert.Len(t, img.Regions["flash"], 208)
	assert.Len(t, img.Regions["sram"], 100)
}

func TestRel8RelocationPatchesAcrossFiles(t *testing.T) {
	o1 := obj.New("o1")
	o1.Section(".text").Data = bytesOf(100)
	o1.AddRelocation(obj.Relocation{Symbol: "a", Section: ".text", Offset: 0, Kind: "rel8"})

	o2 := obj.New("o2")
	o2.Section(".text").Data = bytesOf(100)
	o2.AddSymbol(obj.Symbol{Name: "a", Section: ".text", Offset: 24, Global: true})

	img, err := Link([]*obj.File{o1, o2}, &layout.Layout{}, reloc.DefaultRegistry())
	require.NoError(t, err)

	// a resolves to 100+24 = 124; rel8 site is at absolute 0, so the
	// patched byte encodes displacement 124-0 = 124.
	assert.Equal(t, uint64(124), img.Symbols["a"])
	assert.Equal(t, byte(124), img.Regions["default"][0])
}

func TestUnmentionedSectionPlacedAsStraggler(t *testing.T) {
	spec := `
MEMORY flash LOCATION=0x08000000 SIZE=0x1000 {
  SECTION(code)
}
`
	lay, err := layout.Parse(spec)
	require.NoError(t, err)

	o1 := obj.New("o1")
	o1.Section("code").Data = bytesOf(16)
	o1.Section("bss").Data = bytesOf(8)

	img, err := Link([]*obj.File{o1}, lay, reloc.DefaultRegistry())
	require.NoError(t, err)

	assert.Len(t, img.Regions["flash"], 16)
	// bss is named by no region's SECTION directive, so it is placed
	// sequentially after all named regions, starting at address 0.
	assert.Len(t, img.Regions["default"], 8)
}

func TestSectionOverflowsRegion(t *testing.T) {
	lay, err := layout.Parse(`MEMORY rom LOCATION=0 SIZE=0x10 { SECTION(.text) }`)
	require.NoError(t, err)

	o1 := obj.New("o1")
	o1.Section(".text").Data = bytesOf(64)

	_, err = Link([]*obj.File{o1}, lay, reloc.DefaultRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrLink)
}
