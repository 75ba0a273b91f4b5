// Package experiment owns one named cycling dataset: its halfcycle records,
// the user editable ordering table and the cycle sequence derived from them.
// Every mutating operation is all-or-nothing: when validation rejects an
// edit the experiment keeps its prior valid state.
package experiment

import (
	"fmt"
	"log/slog"

	"github.com/echemtools/cellcycle-go/internal/colors"
	"github.com/echemtools/cellcycle-go/internal/cycling"
	"github.com/echemtools/cellcycle-go/internal/errors"
	"github.com/echemtools/cellcycle-go/internal/ingest"
	"github.com/echemtools/cellcycle-go/internal/logging"
)

// PlausibilityFunc is the external physical-plausibility check. It reports
// whether an assembled cycle is physically plausible; cycles failing it are
// hidden when the experiment's clean flag is set. The check itself (coulombic
// efficiency, completeness) belongs to the analysis library, not the engine.
type PlausibilityFunc func(c *cycling.Cycle) bool

// InstrumentMismatchError reports an attempt to mix files of different
// instrument families in one experiment.
type InstrumentMismatchError struct {
	Expected ingest.Instrument
	Got      ingest.Instrument
}

func (e *InstrumentMismatchError) Error() string {
	return fmt.Sprintf("cannot join files from instrument %s into a %s experiment", e.Got, e.Expected)
}

// ErrorCategory implements errors.CategorizedError.
func (e *InstrumentMismatchError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryInstrumentMismatch
}

// Experiment is one named dataset. It is not safe for concurrent use; the
// session serializes access.
type Experiment struct {
	name       string
	instrument ingest.Instrument

	records   map[string]*cycling.HalfcycleRecord
	fileOrder []string // upload order, for stable reporting
	ordering  cycling.OrderingTable
	cycles    []cycling.Cycle

	volume    float64 // electrolyte volume in L, 0 = unset
	area      float64 // electrode area in cm², 0 = unset
	baseColor colors.Color
	clean     bool // hide cycles failing the plausibility check

	skippedFiles int

	merge     cycling.MergeFunc
	plausible PlausibilityFunc

	logger *slog.Logger
}

// New creates an experiment from the first upload batch of a dataset. The
// merge rule comes from the instrument parser and joins partial halfcycle
// files sharing a group slot. The batch's suggested ordering is validated
// and assembled immediately.
func New(name string, batch *ingest.Batch, baseColor colors.Color, merge cycling.MergeFunc) (*Experiment, error) {
	e := &Experiment{
		name:       name,
		instrument: batch.Instrument,
		records:    make(map[string]*cycling.HalfcycleRecord),
		ordering:   make(cycling.OrderingTable),
		baseColor:  baseColor,
		merge:      merge,
		logger:     logging.ForService("experiment"),
	}

	if err := e.AddBatch(batch); err != nil {
		return nil, err
	}
	return e, nil
}

// SetPlausibility installs the external physical-plausibility check used to
// hide non-physical cycles when the clean flag is set.
func (e *Experiment) SetPlausibility(p PlausibilityFunc) {
	e.plausible = p
	e.applyHidden()
}

// Name returns the experiment name.
func (e *Experiment) Name() string { return e.name }

// Rename sets the experiment name. Uniqueness is enforced by the registry,
// not here.
func (e *Experiment) Rename(name string) { e.name = name }

// Instrument returns the instrument family of the experiment's files.
func (e *Experiment) Instrument() ingest.Instrument { return e.instrument }

// AddBatch inserts the records of a parsed upload batch, extending the
// ordering table with the parser suggested placement for files not already
// present. The instrument check runs before any mutation so a mismatching
// batch leaves the experiment untouched.
func (e *Experiment) AddBatch(batch *ingest.Batch) error {
	if batch.Instrument != e.instrument {
		return &InstrumentMismatchError{Expected: e.instrument, Got: batch.Instrument}
	}

	// Build the draft state first; commit only after validation passes.
	draftRecords := make(map[string]*cycling.HalfcycleRecord, len(e.records)+len(batch.Records))
	for name, rec := range e.records {
		draftRecords[name] = rec
	}
	draftOrder := e.ordering.Clone()
	draftFiles := append([]string(nil), e.fileOrder...)

	for _, rec := range batch.Records {
		if _, exists := draftRecords[rec.Filename]; exists {
			return errors.Newf("file %q is already part of experiment %q", rec.Filename, e.name).
				Category(errors.CategoryValidation).
				FileContext(rec.Filename).
				Build()
		}
		draftRecords[rec.Filename] = rec
		draftFiles = append(draftFiles, rec.Filename)

		entry, ok := batch.Suggested[rec.Filename]
		if !ok {
			return errors.Newf("batch carries no suggested placement for file %q", rec.Filename).
				Category(errors.CategoryOrdering).
				FileContext(rec.Filename).
				Build()
		}
		draftOrder[rec.Filename] = entry
	}

	cycles, err := e.derive(draftOrder, draftRecords, false)
	if err != nil {
		return err
	}

	e.records = draftRecords
	e.fileOrder = draftFiles
	e.ordering = draftOrder
	e.commitCycles(cycles)
	e.skippedFiles += len(batch.Skipped)

	if e.logger != nil {
		e.logger.Info("batch added",
			"experiment", e.name,
			"files", len(batch.Records),
			"skipped", len(batch.Skipped),
			"cycles", len(e.cycles))
	}
	return nil
}

// RemoveFile removes one halfcycle record and its ordering entry, then
// re-assembles. A cycle group shrinking to empty keeps its positional index;
// existing cycle indices are never renumbered by a removal.
func (e *Experiment) RemoveFile(filename string) error {
	if _, ok := e.records[filename]; !ok {
		return errors.Newf("file %q not found in experiment %q", filename, e.name).
			Category(errors.CategoryNotFound).
			FileContext(filename).
			Build()
	}

	draftRecords := make(map[string]*cycling.HalfcycleRecord, len(e.records)-1)
	for name, rec := range e.records {
		if name != filename {
			draftRecords[name] = rec
		}
	}
	draftOrder := e.ordering.Clone()
	delete(draftOrder, filename)

	cycles, err := e.derive(draftOrder, draftRecords, false)
	if err != nil {
		return err
	}

	e.records = draftRecords
	e.ordering = draftOrder
	draftFiles := e.fileOrder[:0:0]
	for _, name := range e.fileOrder {
		if name != filename {
			draftFiles = append(draftFiles, name)
		}
	}
	e.fileOrder = draftFiles
	e.commitCycles(cycles)

	if e.logger != nil {
		e.logger.Info("file removed", "experiment", e.name, "file", filename, "cycles", len(e.cycles))
	}
	return nil
}

// SetOrdering atomically replaces the ordering table. The replacement is
// rejected, leaving the current table in place, if it fails validation or
// does not place exactly the experiment's files. A committed table must be
// fully contiguous; gaps are only tolerated as the aftermath of removals.
func (e *Experiment) SetOrdering(table cycling.OrderingTable) error {
	if len(table) != len(e.records) {
		return errors.Newf("ordering table places %d files, experiment has %d", len(table), len(e.records)).
			Category(errors.CategoryOrdering).
			Build()
	}
	for name := range table {
		if _, ok := e.records[name]; !ok {
			return errors.Newf("ordering table references unknown file %q", name).
				Category(errors.CategoryOrdering).
				FileContext(name).
				Build()
		}
	}

	draft := table.Clone()
	cycles, err := e.derive(draft, e.records, true)
	if err != nil {
		return err
	}

	e.ordering = draft
	e.commitCycles(cycles)

	if e.logger != nil {
		e.logger.Info("ordering replaced", "experiment", e.name, "cycles", len(e.cycles))
	}
	return nil
}

// Merge concatenates another experiment's records and ordering entries into
// this one. The other experiment's cycle indices are shifted past this
// experiment's highest group so the merged table stays collision free, then
// the whole result is re-validated and re-assembled as a single batch.
func (e *Experiment) Merge(other *Experiment) error {
	if other.instrument != e.instrument {
		return &InstrumentMismatchError{Expected: e.instrument, Got: other.instrument}
	}

	offset := e.groupCount()

	draftRecords := make(map[string]*cycling.HalfcycleRecord, len(e.records)+len(other.records))
	for name, rec := range e.records {
		draftRecords[name] = rec
	}
	draftOrder := e.ordering.Clone()
	draftFiles := append([]string(nil), e.fileOrder...)

	for _, name := range other.fileOrder {
		if _, exists := draftRecords[name]; exists {
			return errors.Newf("file %q exists in both experiments", name).
				Category(errors.CategoryValidation).
				FileContext(name).
				Build()
		}
		draftRecords[name] = other.records[name]
		draftFiles = append(draftFiles, name)

		entry := other.ordering[name]
		entry.CycleIndex += offset
		draftOrder[name] = entry
	}

	cycles, err := e.derive(draftOrder, draftRecords, false)
	if err != nil {
		return err
	}

	e.records = draftRecords
	e.fileOrder = draftFiles
	e.ordering = draftOrder
	e.commitCycles(cycles)
	e.skippedFiles += other.skippedFiles

	if e.logger != nil {
		e.logger.Info("experiments merged", "experiment", e.name, "from", other.name, "cycles", len(e.cycles))
	}
	return nil
}

// derive validates (strict or relaxed) and assembles a draft state without
// touching the committed one.
func (e *Experiment) derive(table cycling.OrderingTable, records map[string]*cycling.HalfcycleRecord, strict bool) ([]cycling.Cycle, error) {
	types := make(map[string]cycling.HalfcycleType, len(records))
	for name, rec := range records {
		types[name] = rec.Type
	}

	var ordering cycling.CanonicalOrdering
	var err error
	if strict {
		ordering, err = cycling.ValidateOrdering(table, types)
	} else {
		ordering, err = cycling.RelaxedOrdering(table, types)
	}
	if err != nil {
		return nil, err
	}

	return cycling.AssembleCycles(ordering, records, e.merge)
}

func (e *Experiment) commitCycles(cycles []cycling.Cycle) {
	e.cycles = cycles
	e.applyHidden()
}

// applyHidden recomputes the hidden flag of every assembled cycle from the
// clean flag and the external plausibility check.
func (e *Experiment) applyHidden() {
	for i := range e.cycles {
		if e.cycles[i].IsEmpty() {
			continue
		}
		e.cycles[i].Hidden = e.clean && e.plausible != nil && !e.plausible(&e.cycles[i])
	}
}

// groupCount returns the number of cycle groups currently addressed by the
// ordering table (highest cycle index + 1).
func (e *Experiment) groupCount() int {
	count := 0
	for _, entry := range e.ordering {
		if entry.CycleIndex+1 > count {
			count = entry.CycleIndex + 1
		}
	}
	return count
}
