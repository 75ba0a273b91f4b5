package experiment

import (
	"github.com/echemtools/cellcycle-go/internal/colors"
	"github.com/echemtools/cellcycle-go/internal/cycling"
	"github.com/echemtools/cellcycle-go/internal/errors"
)

// Volume returns the electrolyte volume in L, 0 when unset.
func (e *Experiment) Volume() float64 { return e.volume }

// Area returns the electrode area in cm², 0 when unset.
func (e *Experiment) Area() float64 { return e.area }

// Normalization returns the quantities used to scale metric series.
func (e *Experiment) Normalization() cycling.Normalization {
	return cycling.Normalization{Volume: e.volume, Area: e.area}
}

// SetVolume sets the electrolyte volume in L. Negative values are rejected;
// 0 clears it, switching charge and energy series back to absolute units.
func (e *Experiment) SetVolume(v float64) error {
	if v < 0 {
		return errors.Newf("volume must not be negative, got %g", v).
			Category(errors.CategoryValidation).
			ExperimentContext(e.name).
			Build()
	}
	e.volume = v
	return nil
}

// SetArea sets the electrode area in cm². Negative values are rejected;
// 0 clears it, switching current and power series back to absolute units.
func (e *Experiment) SetArea(a float64) error {
	if a < 0 {
		return errors.Newf("area must not be negative, got %g", a).
			Category(errors.CategoryValidation).
			ExperimentContext(e.name).
			Build()
	}
	e.area = a
	return nil
}

// BaseColor returns the color all shaded traces of this experiment derive
// from.
func (e *Experiment) BaseColor() colors.Color { return e.baseColor }

// SetBaseColor replaces the experiment's base color. Previously materialized
// comparison traces keep their captured color; only traces marked as derived
// follow the change at render time.
func (e *Experiment) SetBaseColor(c colors.Color) { e.baseColor = c }

// Clean reports whether implausible cycles are hidden.
func (e *Experiment) Clean() bool { return e.clean }

// SetClean toggles hiding of cycles that fail the plausibility check and
// recomputes the hidden flags.
func (e *Experiment) SetClean(clean bool) {
	e.clean = clean
	e.applyHidden()
}

// SkippedFiles returns the running count of upload files the parser skipped.
func (e *Experiment) SkippedFiles() int { return e.skippedFiles }

// Files returns the experiment's filenames in upload order.
func (e *Experiment) Files() []string {
	return append([]string(nil), e.fileOrder...)
}

// Record returns the halfcycle record for a filename, or nil.
func (e *Experiment) Record(filename string) *cycling.HalfcycleRecord {
	return e.records[filename]
}

// Ordering returns a copy of the current ordering table. Edit the copy and
// commit it with SetOrdering.
func (e *Experiment) Ordering() cycling.OrderingTable {
	return e.ordering.Clone()
}

// Cycles returns the full assembled cycle sequence, placeholders included.
func (e *Experiment) Cycles() []cycling.Cycle {
	return append([]cycling.Cycle(nil), e.cycles...)
}

// VisibleCycles returns the cycles that are neither empty nor hidden.
func (e *Experiment) VisibleCycles() []cycling.Cycle {
	return cycling.VisibleCycles(e.cycles)
}

// CycleByIndex returns the cycle with the given positional index, or nil
// when the index is out of range or addresses a placeholder.
func (e *Experiment) CycleByIndex(index int) *cycling.Cycle {
	return cycling.CycleByIndex(e.cycles, index)
}

// CycleCount returns the length of the assembled cycle sequence.
func (e *Experiment) CycleCount() int { return len(e.cycles) }
