package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/echemtools/cellcycle-go/internal/errors"
	"github.com/echemtools/cellcycle-go/internal/experiment"
	"github.com/echemtools/cellcycle-go/internal/view"
)

// Dump is the serialized post-mortem snapshot of a session.
type Dump struct {
	Token       string                   `yaml:"token"`
	Revision    uint64                   `yaml:"revision"`
	WrittenAt   time.Time                `yaml:"writtenat"`
	Reason      string                   `yaml:"reason,omitempty"`
	Experiments []experiment.Snapshot    `yaml:"experiments"`
	Selection   map[string][]int         `yaml:"selection"`
	Comparison  []view.SingleCycleSeries `yaml:"comparison"`
}

// Snapshot captures the whole session state.
func (s *Session) Snapshot(reason string) Dump {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Dump{
		Token:      s.token,
		Revision:   s.revision,
		WrittenAt:  time.Now(),
		Reason:     reason,
		Selection:  make(map[string][]int),
		Comparison: s.comparison.Series(),
	}
	for _, e := range s.registry.All() {
		d.Experiments = append(d.Experiments, e.Snapshot())
	}
	for _, name := range s.selection.Experiments() {
		d.Selection[name] = s.selection.Cycles(name)
	}
	return d
}

// WriteDump serializes the session to the first free cellcycle_dump_<n>.yaml
// in dir and returns the path written. Called from the crash handler; best
// effort, never panics.
func (s *Session) WriteDump(dir, reason string) (string, error) {
	d := s.Snapshot(reason)

	data, err := yaml.Marshal(&d)
	if err != nil {
		return "", errors.Wrap(err).
			Category(errors.CategoryFileIO).
			Context("operation", "marshal-session-dump").
			Build()
	}

	for n := 0; ; n++ {
		path := filepath.Join(dir, fmt.Sprintf("cellcycle_dump_%d.yaml", n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", errors.Wrap(err).
				Category(errors.CategoryFileIO).
				FileContext(path).
				Build()
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil {
			return "", errors.Wrap(werr).
				Category(errors.CategoryFileIO).
				FileContext(path).
				Build()
		}
		if cerr != nil {
			return "", errors.Wrap(cerr).
				Category(errors.CategoryFileIO).
				FileContext(path).
				Build()
		}
		s.logger.Info("session dump written", "path", path, "reason", reason)
		return path, nil
	}
}
