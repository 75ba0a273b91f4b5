package session

import (
	"fmt"

	"github.com/echemtools/cellcycle-go/internal/colors"
	"github.com/echemtools/cellcycle-go/internal/errors"
	"github.com/echemtools/cellcycle-go/internal/view"
)

// Selection ops. Each one resolves the experiment first so edits against
// unknown names fail loudly instead of creating dangling view entries.

// SelectCycles replaces the visible cycle sequence of an experiment in the
// stacked display.
func (s *Session) SelectCycles(name string, indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.registry.Get(name); err != nil {
		return err
	}
	s.selection.SetCycles(name, indices)
	s.commit("selection replaced")
	return nil
}

// SelectStride replaces an experiment's visible set with a stride-generated
// sequence clipped to its assembled cycles.
func (s *Session) SelectStride(name string, start, stop, stride int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	indices, err := view.StrideIndices(start, stop, stride, e.CycleCount())
	if err != nil {
		return err
	}
	s.selection.SetCycles(name, indices)
	s.commit("stride selection")
	return nil
}

// EmptySelection clears an experiment's visible set but keeps its label
// overrides.
func (s *Session) EmptySelection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.registry.Get(name); err != nil {
		return err
	}
	s.selection.EmptyView(name)
	s.commit("selection emptied")
	return nil
}

// SetCycleLabel stores a label override for one (experiment, cycle) pair in
// the stacked display.
func (s *Session) SetCycleLabel(name string, cycleIndex int, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.registry.Get(name); err != nil {
		return err
	}
	s.selection.SetLabel(name, cycleIndex, label)
	s.commit("label override")
	return nil
}

// ResetCycleLabels drops all label overrides of an experiment.
func (s *Session) ResetCycleLabels(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.registry.Get(name); err != nil {
		return err
	}
	s.selection.ResetDefaultLabels(name)
	s.commit("labels reset")
	return nil
}

// CycleLabel resolves the display label of one (experiment, cycle) pair:
// the override when one is stored, otherwise "cycle <index>".
func (s *Session) CycleLabel(name string, cycleIndex int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if label, ok := s.selection.Label(name, cycleIndex); ok {
		return label
	}
	return fmt.Sprintf("cycle %d", cycleIndex)
}

// SelectedCycles returns an experiment's visible cycle indices.
func (s *Session) SelectedCycles(name string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Cycles(name)
}

// Comparison ops.

// AddComparisonStride appends stride-generated comparison series for an
// experiment, skipping pairs already buffered and gap placeholders left by
// file removal. Returns the number added.
func (s *Session) AddComparisonStride(name, labelPrefix string, start, stop, stride int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.registry.Get(name)
	if err != nil {
		return 0, err
	}
	added, err := s.comparison.AddStride(name, labelPrefix, start, stop, stride, e.CycleCount(), func(i int) bool {
		return e.CycleByIndex(i) != nil
	})
	if err != nil {
		return 0, err
	}
	if added > 0 {
		s.commit("comparison stride added")
	}
	return added, nil
}

// AddComparison appends one manual comparison pick. The cycle must resolve
// to an assembled, non-placeholder cycle.
func (s *Session) AddComparison(name string, cycleIndex int, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	if e.CycleByIndex(cycleIndex) == nil {
		return errors.Newf("experiment %q has no assembled cycle %d", name, cycleIndex).
			Category(errors.CategoryNotFound).
			ExperimentContext(name).
			Build()
	}
	if err := s.comparison.Add(name, cycleIndex, label); err != nil {
		return err
	}
	s.commit("comparison added")
	return nil
}

// ComparisonSeries returns the buffered comparison picks in display order.
func (s *Session) ComparisonSeries() []view.SingleCycleSeries {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comparison.Series()
}

// EditComparisonLabel changes one buffered series' label in place.
func (s *Session) EditComparisonLabel(index int, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.comparison.SetLabel(index, label); err != nil {
		return err
	}
	s.commit("comparison label edited")
	return nil
}

// OverrideComparisonColor fixes an explicit color on one buffered series.
func (s *Session) OverrideComparisonColor(index int, c colors.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.comparison.OverrideColor(index, c); err != nil {
		return err
	}
	s.commit("comparison color overridden")
	return nil
}

// UseComparisonBaseColor switches one buffered series back to automatic
// shading.
func (s *Session) UseComparisonBaseColor(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.comparison.UseBaseColor(index); err != nil {
		return err
	}
	s.commit("comparison color from base")
	return nil
}

// RemoveComparisonAt drops one buffered series.
func (s *Session) RemoveComparisonAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.comparison.RemoveAt(index); err != nil {
		return err
	}
	s.commit("comparison removed")
	return nil
}

// RemoveComparisonsFor drops every buffered series of one experiment.
func (s *Session) RemoveComparisonsFor(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.comparison.RemoveByExperiment(name)
	if removed > 0 {
		s.commit("comparisons removed")
	}
	return removed
}

// ComparisonColor resolves the effective display color of one buffered
// series, recomputing base-derived shades from the series' current rank.
func (s *Session) ComparisonColor(index int) (colors.Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.comparison.EffectiveColor(index, func(name string) (colors.Color, bool) {
		e, err := s.registry.Get(name)
		if err != nil {
			return colors.Color{}, false
		}
		return e.BaseColor(), true
	})
}
