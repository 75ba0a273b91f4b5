// Package view holds the two presentation models over the registry: the
// per-experiment selection of the stacked display and the cross-experiment
// comparison buffer. Both store names, never experiment handles; lookups
// run through the registry at render time.
package view

import (
	"github.com/echemtools/cellcycle-go/internal/errors"
)

// StrideIndices generates the cycle indices start, start+stride, ... up to
// and including stop, clipped to [0, cycleCount). Stride selection needs a
// real range: stop must be strictly greater than start, so an experiment
// with a single cycle only offers manual selection.
func StrideIndices(start, stop, stride, cycleCount int) ([]int, error) {
	if stride < 1 {
		return nil, errors.Newf("stride must be at least 1, got %d", stride).
			Category(errors.CategoryValidation).
			Build()
	}
	if stop <= start {
		return nil, errors.Newf("stride selection needs stop > start, got [%d, %d]", start, stop).
			Category(errors.CategoryValidation).
			Build()
	}

	var indices []int
	for i := start; i <= stop; i += stride {
		if i < 0 || i >= cycleCount {
			continue
		}
		indices = append(indices, i)
	}
	return indices, nil
}

type selectionEntry struct {
	cycles []int
	labels map[int]string
}

// SelectionView tracks, per experiment, which cycle indices are in view in
// the stacked display plus per-cycle label overrides. Not safe for
// concurrent use; the session serializes access.
type SelectionView struct {
	order   []string
	entries map[string]*selectionEntry
}

// NewSelectionView returns an empty selection.
func NewSelectionView() *SelectionView {
	return &SelectionView{entries: make(map[string]*selectionEntry)}
}

// Set adds an experiment with an empty cycle selection. Setting a name that
// is already tracked is a no-op and keeps its current selection.
func (v *SelectionView) Set(name string) {
	if _, ok := v.entries[name]; ok {
		return
	}
	v.entries[name] = &selectionEntry{labels: make(map[int]string)}
	v.order = append(v.order, name)
}

// SetCycles replaces the visible cycle sequence for an experiment. The
// sequence is kept in the given order with duplicates dropped. The
// experiment is added to the view if it was not tracked yet.
func (v *SelectionView) SetCycles(name string, indices []int) {
	v.Set(name)
	entry := v.entries[name]

	seen := make(map[int]struct{}, len(indices))
	entry.cycles = entry.cycles[:0]
	for _, i := range indices {
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		entry.cycles = append(entry.cycles, i)
	}
}

// Remove evicts an experiment's entry entirely, label overrides included.
func (v *SelectionView) Remove(name string) {
	if _, ok := v.entries[name]; !ok {
		return
	}
	delete(v.entries, name)
	for i, n := range v.order {
		if n == name {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

// EmptyView clears an experiment's visible set but keeps the entry and its
// label overrides, so re-adding cycles restores prior labels.
func (v *SelectionView) EmptyView(name string) {
	if entry, ok := v.entries[name]; ok {
		entry.cycles = nil
	}
}

// Has reports whether an experiment is tracked by the view.
func (v *SelectionView) Has(name string) bool {
	_, ok := v.entries[name]
	return ok
}

// Experiments returns the tracked experiment names in display order.
func (v *SelectionView) Experiments() []string {
	return append([]string(nil), v.order...)
}

// Cycles returns the visible cycle indices of an experiment in display
// order. An untracked name yields nil.
func (v *SelectionView) Cycles(name string) []int {
	entry, ok := v.entries[name]
	if !ok {
		return nil
	}
	return append([]int(nil), entry.cycles...)
}

// Label returns the label override for one (experiment, cycle) pair.
func (v *SelectionView) Label(name string, cycleIndex int) (string, bool) {
	entry, ok := v.entries[name]
	if !ok {
		return "", false
	}
	label, ok := entry.labels[cycleIndex]
	return label, ok
}

// SetLabel stores a label override for one (experiment, cycle) pair. The
// experiment is added to the view if it was not tracked yet.
func (v *SelectionView) SetLabel(name string, cycleIndex int, label string) {
	v.Set(name)
	v.entries[name].labels[cycleIndex] = label
}

// ResetDefaultLabels clears all label overrides for an experiment; its
// cycles fall back to the caller's default naming scheme.
func (v *SelectionView) ResetDefaultLabels(name string) {
	if entry, ok := v.entries[name]; ok {
		entry.labels = make(map[int]string)
	}
}

// RenameExperiment follows a registry rename so the selection stays attached
// to the experiment.
func (v *SelectionView) RenameExperiment(oldName, newName string) {
	entry, ok := v.entries[oldName]
	if !ok {
		return
	}
	delete(v.entries, oldName)
	v.entries[newName] = entry
	for i, n := range v.order {
		if n == oldName {
			v.order[i] = newName
			break
		}
	}
}
