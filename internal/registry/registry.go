// Package registry keeps the session's experiments in insertion order under
// unique names. Lookup names come from client input, so a miss is an
// ordinary not-found error; only rank addressing out of range is a state
// invariant violation.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/echemtools/cellcycle-go/internal/errors"
	"github.com/echemtools/cellcycle-go/internal/experiment"
	"github.com/echemtools/cellcycle-go/internal/logging"
)

// ExperimentNotFoundError reports a lookup with an unregistered name.
type ExperimentNotFoundError struct {
	Name string
}

func (e *ExperimentNotFoundError) Error() string {
	return fmt.Sprintf("no experiment named %q is registered", e.Name)
}

// ErrorCategory implements errors.CategorizedError.
func (e *ExperimentNotFoundError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryNotFound
}

// ProgramRegistry is the ordered collection of the session's experiments.
// Not safe for concurrent use; the session serializes access.
type ProgramRegistry struct {
	order  []string
	byName map[string]*experiment.Experiment
	logger *slog.Logger
}

// New returns an empty registry.
func New() *ProgramRegistry {
	return &ProgramRegistry{
		byName: make(map[string]*experiment.Experiment),
		logger: logging.ForService("registry"),
	}
}

// Len returns the number of registered experiments.
func (r *ProgramRegistry) Len() int { return len(r.order) }

// Names returns the experiment names in registration order.
func (r *ProgramRegistry) Names() []string {
	return append([]string(nil), r.order...)
}

// Add registers an experiment under its current name. Names are unique;
// registering a taken name fails without touching the registry.
func (r *ProgramRegistry) Add(e *experiment.Experiment) error {
	name := e.Name()
	if _, taken := r.byName[name]; taken {
		return errors.Newf("experiment name %q is already registered", name).
			Category(errors.CategoryValidation).
			ExperimentContext(name).
			Build()
	}
	r.byName[name] = e
	r.order = append(r.order, name)
	r.logger.Info("experiment registered", "experiment", name, "total", len(r.order))
	return nil
}

// Get returns the experiment registered under name.
func (r *ProgramRegistry) Get(name string) (*experiment.Experiment, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, &ExperimentNotFoundError{Name: name}
	}
	return e, nil
}

// Has reports whether a name is registered.
func (r *ProgramRegistry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// IndexOf returns the registration rank of a name, used to pick default
// palette colors and resolve shading order. Returns -1 for unknown names.
func (r *ProgramRegistry) IndexOf(name string) int {
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}

// At returns the experiment at a registration rank.
func (r *ProgramRegistry) At(index int) (*experiment.Experiment, error) {
	if index < 0 || index >= len(r.order) {
		return nil, errors.Newf("experiment index %d out of range [0,%d)", index, len(r.order)).
			Category(errors.CategoryState).
			Build()
	}
	return r.byName[r.order[index]], nil
}

// Rename changes the key an experiment is registered under and renames the
// experiment itself. The new name must be free; the rank is preserved.
func (r *ProgramRegistry) Rename(oldName, newName string) error {
	e, ok := r.byName[oldName]
	if !ok {
		return &ExperimentNotFoundError{Name: oldName}
	}
	if newName == oldName {
		return nil
	}
	if _, taken := r.byName[newName]; taken {
		return errors.Newf("experiment name %q is already registered", newName).
			Category(errors.CategoryValidation).
			ExperimentContext(newName).
			Build()
	}

	delete(r.byName, oldName)
	r.byName[newName] = e
	for i, n := range r.order {
		if n == oldName {
			r.order[i] = newName
			break
		}
	}
	e.Rename(newName)
	r.logger.Info("experiment renamed", "from", oldName, "to", newName)
	return nil
}

// Remove unregisters an experiment. Later experiments move up one rank,
// which shifts their default shading order.
func (r *ProgramRegistry) Remove(name string) error {
	if _, ok := r.byName[name]; !ok {
		return &ExperimentNotFoundError{Name: name}
	}
	delete(r.byName, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("experiment removed", "experiment", name, "total", len(r.order))
	return nil
}

// All returns the experiments in registration order.
func (r *ProgramRegistry) All() []*experiment.Experiment {
	out := make([]*experiment.Experiment, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
