// Package session owns all mutable state of one analysis session: the
// experiment registry, the stacked-display selection and the comparison
// buffer. Edits are strictly serialized by the session mutex; every
// committed mutation bumps the revision counter and signals that the next
// pass must recompute the derived view from scratch. There is no
// incremental update path.
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/echemtools/cellcycle-go/internal/colors"
	"github.com/echemtools/cellcycle-go/internal/cycling"
	"github.com/echemtools/cellcycle-go/internal/errors"
	"github.com/echemtools/cellcycle-go/internal/experiment"
	"github.com/echemtools/cellcycle-go/internal/ingest"
	"github.com/echemtools/cellcycle-go/internal/logging"
	"github.com/echemtools/cellcycle-go/internal/registry"
	"github.com/echemtools/cellcycle-go/internal/view"
)

// Session is the context object threaded through the API layer. All access
// to the registry and the view models goes through its methods.
type Session struct {
	mu sync.Mutex

	token      string
	revision   uint64
	registry   *registry.ProgramRegistry
	selection  *view.SelectionView
	comparison *view.ComparisonBuffer

	// controlChan carries the recompute signal to whoever renders the
	// session. Buffered with size 1: coalescing repeated signals is fine
	// because every pass recomputes everything anyway.
	controlChan chan struct{}

	experimentSeq int // feeds default experiment_<n> names
	plausible     experiment.PlausibilityFunc
	defaultBase   *colors.Color // overrides the palette for the first experiment

	logger *slog.Logger
}

// New creates an empty session with a fresh token.
func New() *Session {
	return &Session{
		token:       uuid.New().String(),
		registry:    registry.New(),
		selection:   view.NewSelectionView(),
		comparison:  view.NewComparisonBuffer(),
		controlChan: make(chan struct{}, 1),
		logger:      logging.ForService("session"),
	}
}

// Token returns the session's identifier.
func (s *Session) Token() string { return s.token }

// Revision returns the count of committed mutations. The API layer uses it
// as a cache key for derived payloads.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// RecomputeSignal returns the channel a renderer selects on to learn that
// session state changed.
func (s *Session) RecomputeSignal() <-chan struct{} { return s.controlChan }

// SetDefaultBaseColor overrides the palette color handed to the first
// registered experiment, typically from configuration.
func (s *Session) SetDefaultBaseColor(c colors.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultBase = &c
}

// SetShadeBand replaces the lightness band used for base-derived comparison
// shades, typically from configuration.
func (s *Session) SetShadeBand(minLightness, maxLightness float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparison.SetShadeBand(minLightness, maxLightness)
	s.commit("shade band changed")
}

// SetPlausibility installs the physical-plausibility check applied to every
// present and future experiment's cycles.
func (s *Session) SetPlausibility(p experiment.PlausibilityFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plausible = p
	for _, e := range s.registry.All() {
		e.SetPlausibility(p)
	}
	s.commit("plausibility check changed")
}

// commit bumps the revision and signals a recompute. Callers hold s.mu.
func (s *Session) commit(event string) {
	s.revision++
	select {
	case s.controlChan <- struct{}{}:
	default:
	}
	s.logger.Debug("session mutated", "event", event, "revision", s.revision)
}

// nextExperimentName returns the next free default name, experiment_<n>.
func (s *Session) nextExperimentName() string {
	for {
		s.experimentSeq++
		name := fmt.Sprintf("experiment_%d", s.experimentSeq)
		if !s.registry.Has(name) {
			return name
		}
	}
}

// CreateExperiment registers a new experiment from a parsed upload batch.
// An empty name picks the next experiment_<n> default. The new experiment's
// base color comes from the palette at its registration rank.
func (s *Session) CreateExperiment(name string, batch *ingest.Batch, merge cycling.MergeFunc) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		name = s.nextExperimentName()
	} else if s.registry.Has(name) {
		return "", errors.Newf("experiment name %q is already registered", name).
			Category(errors.CategoryValidation).
			ExperimentContext(name).
			Build()
	}

	base := colors.PlotlyColor(s.registry.Len())
	if s.registry.Len() == 0 && s.defaultBase != nil {
		base = *s.defaultBase
	}
	e, err := experiment.New(name, batch, base, merge)
	if err != nil {
		return "", err
	}
	e.SetPlausibility(s.plausible)

	if err := s.registry.Add(e); err != nil {
		return "", err
	}
	s.selection.Set(name)

	s.commit("experiment created")
	return name, nil
}

// Experiment returns the experiment registered under name.
func (s *Session) Experiment(name string) (*experiment.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Get(name)
}

// ExperimentNames returns the registered names in registration order.
func (s *Session) ExperimentNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Names()
}

// AddBatch feeds another upload batch into an existing experiment.
func (s *Session) AddBatch(name string, batch *ingest.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	if err := e.AddBatch(batch); err != nil {
		return err
	}
	s.pruneStale(name, e)
	s.commit("batch added")
	return nil
}

// RemoveFile removes one halfcycle file from an experiment and prunes view
// entries that no longer resolve to an assembled cycle.
func (s *Session) RemoveFile(name, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	if err := e.RemoveFile(filename); err != nil {
		return err
	}
	s.pruneStale(name, e)
	s.commit("file removed")
	return nil
}

// SetOrdering commits a replacement ordering table for an experiment.
func (s *Session) SetOrdering(name string, table cycling.OrderingTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	if err := e.SetOrdering(table); err != nil {
		return err
	}
	s.pruneStale(name, e)
	s.commit("ordering replaced")
	return nil
}

// RenameExperiment renames an experiment and follows the rename through the
// selection and the comparison buffer so both keep resolving.
func (s *Session) RenameExperiment(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.Rename(oldName, newName); err != nil {
		return err
	}
	s.selection.RenameExperiment(oldName, newName)
	s.comparison.RenameExperiment(oldName, newName)
	s.commit("experiment renamed")
	return nil
}

// DeleteExperiment unregisters an experiment and evicts every view entry
// referencing it, comparison series included.
func (s *Session) DeleteExperiment(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.Remove(name); err != nil {
		return err
	}
	s.selection.Remove(name)
	s.comparison.RemoveByExperiment(name)
	s.commit("experiment deleted")
	return nil
}

// MergeExperiments merges the experiment named from into the one named into
// and deletes the source, pruning its view entries.
func (s *Session) MergeExperiments(into, from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst, err := s.registry.Get(into)
	if err != nil {
		return err
	}
	src, err := s.registry.Get(from)
	if err != nil {
		return err
	}
	if err := dst.Merge(src); err != nil {
		return err
	}

	if err := s.registry.Remove(from); err != nil {
		return err
	}
	s.selection.Remove(from)
	s.comparison.RemoveByExperiment(from)
	s.pruneStale(into, dst)
	s.commit("experiments merged")
	return nil
}

// SetVolume sets an experiment's electrolyte volume in L.
func (s *Session) SetVolume(name string, v float64) error {
	return s.editExperiment(name, "volume changed", func(e *experiment.Experiment) error {
		return e.SetVolume(v)
	})
}

// SetArea sets an experiment's electrode area in cm².
func (s *Session) SetArea(name string, a float64) error {
	return s.editExperiment(name, "area changed", func(e *experiment.Experiment) error {
		return e.SetArea(a)
	})
}

// SetBaseColor replaces an experiment's base color.
func (s *Session) SetBaseColor(name string, c colors.Color) error {
	return s.editExperiment(name, "base color changed", func(e *experiment.Experiment) error {
		e.SetBaseColor(c)
		return nil
	})
}

// SetClean toggles hiding of implausible cycles for an experiment.
func (s *Session) SetClean(name string, clean bool) error {
	return s.editExperiment(name, "clean flag changed", func(e *experiment.Experiment) error {
		e.SetClean(clean)
		return nil
	})
}

func (s *Session) editExperiment(name, event string, edit func(*experiment.Experiment) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	if err := edit(e); err != nil {
		return err
	}
	s.commit(event)
	return nil
}

// pruneStale drops selection indices and comparison series that no longer
// address an assembled, non-placeholder cycle of the experiment. Callers
// hold s.mu.
func (s *Session) pruneStale(name string, e *experiment.Experiment) {
	if s.selection.Has(name) {
		var kept []int
		for _, i := range s.selection.Cycles(name) {
			if e.CycleByIndex(i) != nil {
				kept = append(kept, i)
			}
		}
		s.selection.SetCycles(name, kept)
	}

	for i := s.comparison.Len() - 1; i >= 0; i-- {
		sc, err := s.comparison.At(i)
		if err != nil {
			continue
		}
		if sc.ExperimentName != name {
			continue
		}
		if e.CycleByIndex(sc.CycleIndex) == nil {
			_ = s.comparison.RemoveAt(i)
		}
	}
}
