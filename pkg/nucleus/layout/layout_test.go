package layout

import (
	"testing"

	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleRegion(t *testing.T) {
	src := `
MEMORY rom LOCATION=0x8000 SIZE=0x1000 {
	SECTION(.text)
	ALIGN(4)
	SECTION(.rodata)
}
`
	l, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, l.Regions, 1)

	r := l.Regions[0]
	assert.Equal(t, "rom", r.Name)
	assert.Equal(t, uint64(0x8000), r.Location)
	assert.Equal(t, uint64(0x1000), r.Size)
	require.Len(t, r.Directives, 3)
	assert.Equal(t, Directive{Kind: "SECTION", Name: ".text"}, r.Directives[0])
	assert.Equal(t, Directive{Kind: "ALIGN", Value: 4}, r.Directives[1])
	assert.Equal(t, Directive{Kind: "SECTION", Name: ".rodata"}, r.Directives[2])
}

func TestParseMultipleRegions(t *testing.T) {
	src := `
MEMORY rom LOCATION=0x0 SIZE=0x4000 {
	SECTION(.text)
}
MEMORY ram LOCATION=0x20000000 SIZE=0x2000 {
	SECTION(.data)
	SECTION(.bss)
}
`
	l, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, l.Regions, 2)
	assert.Equal(t, "rom", l.Regions[0].Name)
	assert.Equal(t, "ram", l.Regions[1].Name)
	assert.Equal(t, uint64(0x20000000), l.Regions[1].Location)
}

func TestParseDecimalSize(t *testing.T) {
	src := `MEMORY m LOCATION=0 SIZE=65536 { }`
	l, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, uint64(65536), l.Regions[0].Size)
}

func TestParseMissingBraceFails(t *testing.T) {
	src := `MEMORY m LOCATION=0 SIZE=0x10 SECTION(.text) }`
	_, err := Parse(src)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrParse)
}

func TestParseUnknownDirectiveFails(t *testing.T) {
	src := `MEMORY m LOCATION=0 SIZE=0x10 { PLACE(.text) }`
	_, err := Parse(src)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrParse)
}

func TestLayoutEqual(t *testing.T) {
	a, err := Parse(`MEMORY m LOCATION=0 SIZE=0x10 { SECTION(.text) }`)
	require.NoError(t, err)
	b, err := Parse(`MEMORY m LOCATION=0 SIZE=0x10 { SECTION(.text) }`)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c, err := Parse(`MEMORY m LOCATION=0 SIZE=0x20 { SECTION(.text) }`)
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}
