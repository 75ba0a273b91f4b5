package cycling

import (
	"github.com/echemtools/cellcycle-go/internal/errors"
)

// MergeFunc resolves multiple partial halfcycle files of one cycle group into
// a single record. The merge rule belongs to the external instrument parser;
// the engine only requires it to be deterministic so that re-assembly of an
// unchanged experiment yields an identical cycle sequence.
type MergeFunc func(parts []*HalfcycleRecord) (*HalfcycleRecord, error)

// AssembleCycles converts a canonical ordering plus the halfcycle record set
// into the ordered cycle sequence. Each ordering group becomes one Cycle at
// the group's positional index: its single resolved record fills the charge
// or discharge slot according to the group's halfcycle type. Empty groups
// (left behind by file removal) become placeholder cycles with both slots
// nil, preserving the positional indices of the cycles that follow.
//
// Assembly is a pure function of its inputs: running it twice on an unchanged
// (ordering, record set) pair yields value-equal cycle sequences.
func AssembleCycles(ordering CanonicalOrdering, records map[string]*HalfcycleRecord, merge MergeFunc) ([]Cycle, error) {
	cycles := make([]Cycle, 0, len(ordering))

	for index, group := range ordering {
		cycle := Cycle{Index: index}

		if len(group) > 0 {
			parts := make([]*HalfcycleRecord, 0, len(group))
			groupType := HalfcycleType("")
			for _, name := range group {
				rec, ok := records[name]
				if !ok {
					return nil, errors.Newf("ordering references unknown file %q", name).
						Category(errors.CategoryOrdering).
						FileContext(name).
						Build()
				}
				if groupType == "" {
					groupType = rec.Type
				} else if rec.Type != groupType {
					// The validator rejects mixed groups before assembly runs.
					return nil, &TypeMismatchError{CycleIndex: index, Filenames: group}
				}
				parts = append(parts, rec)
			}

			resolved := parts[0]
			if len(parts) > 1 {
				if merge == nil {
					return nil, errors.Newf("cycle %d has %d partial files but no merge rule is available", index, len(parts)).
						Category(errors.CategoryValidation).
						Build()
				}
				var err error
				resolved, err = merge(parts)
				if err != nil {
					return nil, errors.New(err).
						Category(errors.CategoryValidation).
						Context("cycle_index", index).
						Build()
				}
			}

			switch groupType {
			case Charge:
				cycle.ChargeRec = resolved
			case Discharge:
				cycle.DischRec = resolved
			}
		}

		cycles = append(cycles, cycle)
	}

	return cycles, nil
}

// VisibleCycles filters a cycle sequence down to the cycles that should be
// offered to the view layer: placeholders and hidden cycles are skipped while
// the positional Index of each remaining cycle is preserved for addressing.
func VisibleCycles(cycles []Cycle) []Cycle {
	visible := make([]Cycle, 0, len(cycles))
	for i := range cycles {
		if cycles[i].IsEmpty() || cycles[i].Hidden {
			continue
		}
		visible = append(visible, cycles[i])
	}
	return visible
}

// CycleByIndex returns the cycle with the given positional index, nil if the
// index is out of range or addresses a placeholder.
func CycleByIndex(cycles []Cycle, index int) *Cycle {
	if index < 0 || index >= len(cycles) {
		return nil
	}
	if cycles[index].IsEmpty() {
		return nil
	}
	return &cycles[index]
}
