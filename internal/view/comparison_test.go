package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echemtools/cellcycle-go/internal/colors"
)

func TestAddStrideLabelsAndDedup(t *testing.T) {
	b := NewComparisonBuffer()

	added, err := b.AddStride("alpha", "cycle", 0, 4, 2, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	series := b.Series()
	require.Len(t, series, 3)
	assert.Equal(t, "cycle 0", series[0].Label)
	assert.Equal(t, "cycle 2", series[1].Label)
	assert.Equal(t, "cycle 4", series[2].Label)
	assert.True(t, series[0].ColorFromBase)

	// A second pass over an overlapping range only adds the new indices.
	added, err = b.AddStride("alpha", "cycle", 0, 6, 2, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 4, b.Len())
}

func TestAddStrideSkipsUnresolvableIndices(t *testing.T) {
	b := NewComparisonBuffer()

	// Index 2 is a gap placeholder: present in the count, not renderable.
	added, err := b.AddStride("alpha", "cycle", 0, 4, 1, 5, func(i int) bool {
		return i != 2
	})
	require.NoError(t, err)
	assert.Equal(t, 4, added)
	assert.False(t, b.Contains("alpha", 2))
	assert.True(t, b.Contains("alpha", 1))
	assert.True(t, b.Contains("alpha", 3))
}

func TestStridePaletteFallbackPerSeries(t *testing.T) {
	b := NewComparisonBuffer()

	added, err := b.AddStride("alpha", "cycle", 0, 4, 2, 10, nil)
	require.NoError(t, err)
	require.Equal(t, 3, added)

	series := b.Series()
	assert.Equal(t, colors.PlotlyColor(0), series[0].Color)
	assert.Equal(t, colors.PlotlyColor(1), series[1].Color)
	assert.Equal(t, colors.PlotlyColor(2), series[2].Color)
}

func TestManualAddSharesDedupRule(t *testing.T) {
	b := NewComparisonBuffer()
	require.NoError(t, b.Add("alpha", 3, "third"))

	err := b.Add("alpha", 3, "third again")
	require.Error(t, err)
	assert.Equal(t, 1, b.Len())

	// Same index on another experiment is a distinct pair.
	require.NoError(t, b.Add("beta", 3, "third"))
	assert.Equal(t, 2, b.Len())
}

func TestAvailableIndicesExcludesBuffered(t *testing.T) {
	b := NewComparisonBuffer()
	require.NoError(t, b.Add("alpha", 1, "one"))

	avail := b.AvailableIndices("alpha", []int{0, 1, 2})
	assert.Equal(t, []int{0, 2}, avail)
}

func TestEditInPlace(t *testing.T) {
	b := NewComparisonBuffer()
	require.NoError(t, b.Add("alpha", 0, "first"))

	require.NoError(t, b.SetLabel(0, "formation"))
	s, err := b.At(0)
	require.NoError(t, err)
	assert.Equal(t, "formation", s.Label)

	red := colors.MustHex("#FF0000")
	require.NoError(t, b.OverrideColor(0, red))
	s, _ = b.At(0)
	assert.False(t, s.ColorFromBase)
	assert.Equal(t, red, s.Color)

	require.NoError(t, b.UseBaseColor(0))
	s, _ = b.At(0)
	assert.True(t, s.ColorFromBase)

	assert.Error(t, b.SetLabel(5, "nope"))
}

func TestRemoveByExperiment(t *testing.T) {
	b := NewComparisonBuffer()
	require.NoError(t, b.Add("alpha", 0, "a0"))
	require.NoError(t, b.Add("beta", 0, "b0"))
	require.NoError(t, b.Add("alpha", 1, "a1"))

	removed := b.RemoveByExperiment("alpha")
	assert.Equal(t, 2, removed)
	require.Equal(t, 1, b.Len())

	s, err := b.At(0)
	require.NoError(t, err)
	assert.Equal(t, "beta", s.ExperimentName)
}

func TestRemoveAtPreservesOrder(t *testing.T) {
	b := NewComparisonBuffer()
	require.NoError(t, b.Add("alpha", 0, "a0"))
	require.NoError(t, b.Add("alpha", 1, "a1"))
	require.NoError(t, b.Add("alpha", 2, "a2"))

	require.NoError(t, b.RemoveAt(1))
	series := b.Series()
	require.Len(t, series, 2)
	assert.Equal(t, "a0", series[0].Label)
	assert.Equal(t, "a2", series[1].Label)
}

func TestComparisonRename(t *testing.T) {
	b := NewComparisonBuffer()
	require.NoError(t, b.Add("alpha", 0, "a0"))

	b.RenameExperiment("alpha", "gamma")
	assert.True(t, b.Contains("gamma", 0))
	assert.False(t, b.Contains("alpha", 0))
}

func TestEffectiveColorReassignsWithRank(t *testing.T) {
	b := NewComparisonBuffer()
	base := colors.MustHex("#00B945")
	lookup := func(name string) (colors.Color, bool) {
		if name == "alpha" {
			return base, true
		}
		return colors.Color{}, false
	}

	require.NoError(t, b.Add("alpha", 0, "a0"))
	require.NoError(t, b.Add("alpha", 1, "a1"))
	require.NoError(t, b.Add("alpha", 2, "a2"))

	first, err := b.EffectiveColor(0, lookup)
	require.NoError(t, err)
	last, err := b.EffectiveColor(2, lookup)
	require.NoError(t, err)
	assert.NotEqual(t, first, last)

	// Removing the first series reassigns shades: the former middle series
	// becomes the first rank and changes color, while the last series keeps
	// the end of the band.
	middleBefore, err := b.EffectiveColor(1, lookup)
	require.NoError(t, err)
	require.NoError(t, b.RemoveAt(0))

	middleAfter, err := b.EffectiveColor(0, lookup)
	require.NoError(t, err)
	assert.NotEqual(t, middleBefore, middleAfter)

	lastAfter, err := b.EffectiveColor(1, lookup)
	require.NoError(t, err)
	assert.Equal(t, last, lastAfter)
}

func TestEffectiveColorFallbacks(t *testing.T) {
	b := NewComparisonBuffer()
	require.NoError(t, b.Add("ghost", 0, "g0"))

	// Unresolvable experiment falls back to the stored palette color.
	c, err := b.EffectiveColor(0, func(string) (colors.Color, bool) {
		return colors.Color{}, false
	})
	require.NoError(t, err)
	assert.Equal(t, colors.PlotlyColor(0), c)

	// An explicit override wins regardless of lookup.
	red := colors.MustHex("#FF0000")
	require.NoError(t, b.OverrideColor(0, red))
	c, err = b.EffectiveColor(0, func(string) (colors.Color, bool) {
		return colors.MustHex("#00B945"), true
	})
	require.NoError(t, err)
	assert.Equal(t, red, c)
}
