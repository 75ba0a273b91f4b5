package view

import (
	"fmt"

	"github.com/echemtools/cellcycle-go/internal/colors"
	"github.com/echemtools/cellcycle-go/internal/errors"
)

// SingleCycleSeries is one (experiment, cycle) pick in the cross-experiment
// comparison buffer. The experiment is referenced by name only and resolved
// through the registry when the series is rendered.
type SingleCycleSeries struct {
	Label          string       `json:"label" yaml:"label"`
	ExperimentName string       `json:"experiment" yaml:"experiment"`
	CycleIndex     int          `json:"cycleindex" yaml:"cycleindex"`
	Color          colors.Color `json:"color" yaml:"color"`
	ColorFromBase  bool         `json:"colorfrombase" yaml:"colorfrombase"`
}

// ComparisonBuffer is the flat, order-preserving list of comparison picks.
// No (experiment, cycle-index) pair appears twice; the stride and manual
// paths share the same dedup rule. Not safe for concurrent use.
type ComparisonBuffer struct {
	series []SingleCycleSeries

	// lightness band used when resolving base-derived shades
	minLightness float64
	maxLightness float64
}

// NewComparisonBuffer returns an empty buffer using the default shade band.
func NewComparisonBuffer() *ComparisonBuffer {
	return &ComparisonBuffer{
		minLightness: colors.DefaultMinLightness,
		maxLightness: colors.DefaultMaxLightness,
	}
}

// SetShadeBand replaces the lightness band used for base-derived shades,
// typically from configuration.
func (b *ComparisonBuffer) SetShadeBand(minLightness, maxLightness float64) {
	b.minLightness = minLightness
	b.maxLightness = maxLightness
}

// Len returns the number of buffered series.
func (b *ComparisonBuffer) Len() int { return len(b.series) }

// Series returns a copy of the buffer in display order.
func (b *ComparisonBuffer) Series() []SingleCycleSeries {
	return append([]SingleCycleSeries(nil), b.series...)
}

// At returns the series at a buffer position.
func (b *ComparisonBuffer) At(index int) (SingleCycleSeries, error) {
	if index < 0 || index >= len(b.series) {
		return SingleCycleSeries{}, b.indexError(index)
	}
	return b.series[index], nil
}

// Contains reports whether an (experiment, cycle-index) pair is buffered.
func (b *ComparisonBuffer) Contains(name string, cycleIndex int) bool {
	for _, s := range b.series {
		if s.ExperimentName == name && s.CycleIndex == cycleIndex {
			return true
		}
	}
	return false
}

// AvailableIndices returns the cycle indices of an experiment that are not
// yet buffered, feeding the manual pick list so duplicates are structurally
// prevented.
func (b *ComparisonBuffer) AvailableIndices(name string, indices []int) []int {
	var out []int
	for _, i := range indices {
		if !b.Contains(name, i) {
			out = append(out, i)
		}
	}
	return out
}

// Add appends one manual pick. A pair already in the buffer is rejected;
// the manual path enforces the same dedup rule as the stride path. The
// series starts with color_from_base set and a palette color keyed to its
// buffer position as the render-time fallback.
func (b *ComparisonBuffer) Add(name string, cycleIndex int, label string) error {
	if b.Contains(name, cycleIndex) {
		return errors.Newf("cycle %d of experiment %q is already in the comparison buffer", cycleIndex, name).
			Category(errors.CategoryValidation).
			ExperimentContext(name).
			Build()
	}
	b.series = append(b.series, SingleCycleSeries{
		Label:          label,
		ExperimentName: name,
		CycleIndex:     cycleIndex,
		Color:          colors.PlotlyColor(len(b.series)),
		ColorFromBase:  true,
	})
	return nil
}

// AddStride appends one series per stride-generated cycle index, labeled
// "<prefix> <index>". Indices already buffered for the experiment are
// skipped silently, as are indices the resolvable filter rejects (gap
// placeholders left by file removal). Each appended series gets its own
// palette fallback, keyed to its buffer position. Returns the number of
// series actually appended.
func (b *ComparisonBuffer) AddStride(name, labelPrefix string, start, stop, stride, cycleCount int, resolvable func(cycleIndex int) bool) (int, error) {
	indices, err := StrideIndices(start, stop, stride, cycleCount)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, i := range indices {
		if b.Contains(name, i) {
			continue
		}
		if resolvable != nil && !resolvable(i) {
			continue
		}
		b.series = append(b.series, SingleCycleSeries{
			Label:          fmt.Sprintf("%s %d", labelPrefix, i),
			ExperimentName: name,
			CycleIndex:     i,
			Color:          colors.PlotlyColor(len(b.series)),
			ColorFromBase:  true,
		})
		added++
	}
	return added, nil
}

// SetLabel changes the label of one buffered series in place.
func (b *ComparisonBuffer) SetLabel(index int, label string) error {
	if index < 0 || index >= len(b.series) {
		return b.indexError(index)
	}
	b.series[index].Label = label
	return nil
}

// OverrideColor fixes an explicit color on one series, turning automatic
// base-color shading off for it.
func (b *ComparisonBuffer) OverrideColor(index int, c colors.Color) error {
	if index < 0 || index >= len(b.series) {
		return b.indexError(index)
	}
	b.series[index].Color = c
	b.series[index].ColorFromBase = false
	return nil
}

// UseBaseColor switches one series back to automatic shading from its
// experiment's base color.
func (b *ComparisonBuffer) UseBaseColor(index int) error {
	if index < 0 || index >= len(b.series) {
		return b.indexError(index)
	}
	b.series[index].ColorFromBase = true
	return nil
}

// RemoveAt drops the series at one buffer position.
func (b *ComparisonBuffer) RemoveAt(index int) error {
	if index < 0 || index >= len(b.series) {
		return b.indexError(index)
	}
	b.series = append(b.series[:index], b.series[index+1:]...)
	return nil
}

// RemoveByExperiment drops every series owned by an experiment and returns
// how many were removed. Called when the experiment is deleted.
func (b *ComparisonBuffer) RemoveByExperiment(name string) int {
	kept := b.series[:0]
	removed := 0
	for _, s := range b.series {
		if s.ExperimentName == name {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	b.series = kept
	return removed
}

// RenameExperiment follows a registry rename so buffered series keep
// resolving.
func (b *ComparisonBuffer) RenameExperiment(oldName, newName string) {
	for i := range b.series {
		if b.series[i].ExperimentName == oldName {
			b.series[i].ExperimentName = newName
		}
	}
}

// EffectiveColor resolves the display color of one series. With
// color_from_base set the shade is recomputed from the experiment's base
// color and the series' rank among all buffered series of that experiment,
// so shades reassign automatically as series come and go. baseLookup
// resolves an experiment name to its base color; when it cannot, the stored
// fallback color is used.
func (b *ComparisonBuffer) EffectiveColor(index int, baseLookup func(name string) (colors.Color, bool)) (colors.Color, error) {
	if index < 0 || index >= len(b.series) {
		return colors.Color{}, b.indexError(index)
	}
	s := b.series[index]
	if !s.ColorFromBase {
		return s.Color, nil
	}

	base, ok := baseLookup(s.ExperimentName)
	if !ok {
		return s.Color, nil
	}

	rank, total := 0, 0
	for i, other := range b.series {
		if other.ExperimentName != s.ExperimentName {
			continue
		}
		if i < index {
			rank++
		}
		total++
	}
	return colors.ShadeBand(rank, total, base, false, b.minLightness, b.maxLightness)
}

func (b *ComparisonBuffer) indexError(index int) error {
	return errors.Newf("comparison series index %d out of range [0,%d)", index, len(b.series)).
		Category(errors.CategoryNotFound).
		Build()
}
