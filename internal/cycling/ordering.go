package cycling

import (
	"fmt"
	"sort"
	"strings"

	"github.com/echemtools/cellcycle-go/internal/errors"
)

// OrderingEntry is the user editable placement of one halfcycle file: the
// cycle it belongs to and its slot within that cycle (used when a halfcycle
// is split across multiple partial files).
type OrderingEntry struct {
	CycleIndex int `json:"cycle_index" yaml:"cycle_index"`
	SlotIndex  int `json:"slot_index" yaml:"slot_index"`
}

// OrderingTable maps each filename to its placement. One entry exists per
// halfcycle record of an experiment.
type OrderingTable map[string]OrderingEntry

// Clone returns a copy of the table that can be edited without affecting the
// original.
func (t OrderingTable) Clone() OrderingTable {
	out := make(OrderingTable, len(t))
	for name, entry := range t {
		out[name] = entry
	}
	return out
}

// CanonicalOrdering is the validated form of an ordering table: the outer
// index is the cycle index, the inner slice lists the filenames of that cycle
// sorted by slot index. Inner slices may be empty only when gaps are allowed
// (after file removal).
type CanonicalOrdering [][]string

// SlotRepetitionError reports two files claiming the same (cycle, slot)
// position.
type SlotRepetitionError struct {
	CycleIndex int
	SlotIndex  int
	Filenames  []string // the conflicting files, sorted
}

func (e *SlotRepetitionError) Error() string {
	return fmt.Sprintf("ordering slot %d of cycle %d claimed by multiple files: %s",
		e.SlotIndex, e.CycleIndex, strings.Join(e.Filenames, ", "))
}

// ErrorCategory implements errors.CategorizedError.
func (e *SlotRepetitionError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryOrdering
}

// MissingCycleIndicesError reports that the set of cycle indices present is
// not exactly {0..max}.
type MissingCycleIndicesError struct {
	Missing []int // the absent indices, ascending
}

func (e *MissingCycleIndicesError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, idx := range e.Missing {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return fmt.Sprintf("ordering cycle indices must be contiguous, missing: %s", strings.Join(parts, ", "))
}

// ErrorCategory implements errors.CategorizedError.
func (e *MissingCycleIndicesError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryOrdering
}

// TypeMismatchError reports a cycle group mixing charge and discharge files.
type TypeMismatchError struct {
	CycleIndex int
	Filenames  []string // all files of the offending group, slot order
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cycle %d mixes charge and discharge files: %s",
		e.CycleIndex, strings.Join(e.Filenames, ", "))
}

// ErrorCategory implements errors.CategorizedError.
func (e *TypeMismatchError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryOrdering
}

// ValidateOrdering checks a candidate ordering table for structural
// correctness and returns its canonical form. The type lookup must cover
// every filename in the table.
//
// Checks run in a fixed order: slot repetition first (a repetition can fill a
// slot that would otherwise surface as a gap), then missing cycle indices,
// then halfcycle type mixing. Validation never mutates its inputs and is safe
// to call speculatively on a draft edit.
func ValidateOrdering(table OrderingTable, types map[string]HalfcycleType) (CanonicalOrdering, error) {
	return canonicalize(table, types, false)
}

// RelaxedOrdering builds the canonical form of a table that is allowed to
// contain empty cycle groups. It is used after file removal, where a group
// shrinking to zero files must keep its positional index rather than
// renumber the groups that follow. Slot repetition and type mixing are still
// rejected.
func RelaxedOrdering(table OrderingTable, types map[string]HalfcycleType) (CanonicalOrdering, error) {
	return canonicalize(table, types, true)
}

func canonicalize(table OrderingTable, types map[string]HalfcycleType, allowGaps bool) (CanonicalOrdering, error) {
	if len(table) == 0 {
		return CanonicalOrdering{}, nil
	}

	maxCycle := 0
	for name, entry := range table {
		if entry.CycleIndex < 0 || entry.SlotIndex < 0 {
			return nil, errors.Newf("negative ordering index for file %q", name).
				Category(errors.CategoryOrdering).
				FileContext(name).
				Build()
		}
		if entry.CycleIndex > maxCycle {
			maxCycle = entry.CycleIndex
		}
	}

	// Group files by cycle index, keyed by slot.
	groups := make([]map[int][]string, maxCycle+1)
	for i := range groups {
		groups[i] = make(map[int][]string)
	}
	for name, entry := range table {
		groups[entry.CycleIndex][entry.SlotIndex] = append(groups[entry.CycleIndex][entry.SlotIndex], name)
	}

	// 1. Slot repetition.
	for cycle, group := range groups {
		for slot, names := range group {
			if len(names) > 1 {
				sort.Strings(names)
				return nil, &SlotRepetitionError{CycleIndex: cycle, SlotIndex: slot, Filenames: names}
			}
		}
	}

	// 2. Missing cycle indices.
	if !allowGaps {
		var missing []int
		for cycle, group := range groups {
			if len(group) == 0 {
				missing = append(missing, cycle)
			}
		}
		if len(missing) > 0 {
			sort.Ints(missing)
			return nil, &MissingCycleIndicesError{Missing: missing}
		}
	}

	// 3. Halfcycle type mixing, and canonical slot order.
	ordering := make(CanonicalOrdering, maxCycle+1)
	for cycle, group := range groups {
		slots := make([]int, 0, len(group))
		for slot := range group {
			slots = append(slots, slot)
		}
		sort.Ints(slots)

		names := make([]string, 0, len(group))
		var groupType HalfcycleType
		for i, slot := range slots {
			name := group[slot][0]
			t, ok := types[name]
			if !ok {
				return nil, errors.Newf("no halfcycle type known for file %q", name).
					Category(errors.CategoryOrdering).
					FileContext(name).
					Build()
			}
			if i == 0 {
				groupType = t
			} else if t != groupType {
				all := make([]string, 0, len(slots))
				for _, s := range slots {
					all = append(all, group[s][0])
				}
				return nil, &TypeMismatchError{CycleIndex: cycle, Filenames: all}
			}
			names = append(names, name)
		}
		ordering[cycle] = names
	}

	return ordering, nil
}
