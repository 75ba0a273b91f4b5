package colors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHexRoundTrip(t *testing.T) {
	c, err := FromHex("#1A2B3C")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0x1a, G: 0x2b, B: 0x3c}, c)
	assert.Equal(t, "#1a2b3c", c.Hex())
}

func TestFromHexInvalid(t *testing.T) {
	for _, hex := range []string{"", "123456", "#12345", "#GGHHII"} {
		_, err := FromHex(hex)
		assert.Error(t, err, "expected %q to be rejected", hex)
	}
}

func TestShadeSingleCycleReturnsBase(t *testing.T) {
	base := MustHex("#EF553B")

	// With a single shade the base color is returned unchanged for any index.
	for _, idx := range []int{0, 1, 5, -3} {
		got, err := Shade(idx, 1, base, false)
		require.NoError(t, err)
		assert.Equal(t, base, got)

		got, err = Shade(idx, 1, base, true)
		require.NoError(t, err)
		assert.Equal(t, base, got)
	}
}

func TestShadeReversedSymmetry(t *testing.T) {
	base := MustHex("#00CC96")

	forward, err := Shade(0, 5, base, false)
	require.NoError(t, err)
	backward, err := Shade(4, 5, base, true)
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
}

func TestShadeDeterministic(t *testing.T) {
	base := MustHex("#636EFA")

	first, err := Shade(2, 7, base, false)
	require.NoError(t, err)
	second, err := Shade(2, 7, base, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestShadeMonotonicLightness(t *testing.T) {
	base := MustHex("#AB63FA")

	// Perceived lightness must increase with the shade rank; approximate the
	// check with the sum of RGB channels, which grows with HSLuv lightness
	// for a fixed hue.
	prev := -1
	for i := range 6 {
		c, err := Shade(i, 6, base, false)
		require.NoError(t, err)
		sum := int(c.R) + int(c.G) + int(c.B)
		assert.Greater(t, sum, prev, "shade %d not lighter than shade %d", i, i-1)
		prev = sum
	}
}

func TestShadeDistinct(t *testing.T) {
	base := MustHex("#FFA15A")

	seen := make(map[Color]bool)
	for i := range 8 {
		c, err := Shade(i, 8, base, false)
		require.NoError(t, err)
		assert.False(t, seen[c], "shade %d duplicates an earlier shade", i)
		seen[c] = true
	}
}

func TestShadeArgumentValidation(t *testing.T) {
	base := MustHex("#19D3F3")

	_, err := Shade(0, 0, base, false)
	assert.Error(t, err)

	_, err = Shade(5, 5, base, false)
	assert.Error(t, err)

	_, err = Shade(-1, 5, base, false)
	assert.Error(t, err)
}

func TestPlotlyColorWrapsAround(t *testing.T) {
	assert.Equal(t, PlotlyColor(0), PlotlyColor(PaletteSize()))
	assert.Equal(t, PlotlyColor(3), PlotlyColor(3+2*PaletteSize()))
	assert.Equal(t, PlotlyColor(0), PlotlyColor(-7))
}

func TestPaletteColorsDistinct(t *testing.T) {
	seen := make(map[Color]bool)
	for i := range PaletteSize() {
		c := PlotlyColor(i)
		assert.False(t, seen[c], "palette color %d repeats", i)
		seen[c] = true
	}
}

func TestColorTextRoundtrip(t *testing.T) {
	c := MustHex("#AB63FA")

	text, err := c.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "#ab63fa", string(text))

	var back Color
	assert.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, c, back)

	assert.Error(t, back.UnmarshalText([]byte("not-a-color")))
}
