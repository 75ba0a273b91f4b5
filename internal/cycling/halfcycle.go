// Package cycling implements the halfcycle ordering reconciliation engine:
// validation of user editable ordering tables, deterministic assembly of
// charge/discharge cycles and the metric series accessor consumed by the
// plotting layer.
package cycling

import (
	"time"
)

// HalfcycleType tells whether a halfcycle file records a charge or a
// discharge excursion.
type HalfcycleType string

const (
	Charge    HalfcycleType = "charge"
	Discharge HalfcycleType = "discharge"
)

// Valid reports whether t is one of the two known halfcycle types.
func (t HalfcycleType) Valid() bool {
	return t == Charge || t == Discharge
}

// HalfcycleRecord is one parsed halfcycle file. Records are produced by the
// external instrument parser at upload time and are immutable afterwards; the
// numeric series are referenced read-only by the engine.
type HalfcycleRecord struct {
	Filename  string        `json:"filename" yaml:"filename"`
	Type      HalfcycleType `json:"type" yaml:"type"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`

	// Cumulative numeric series, index-aligned with each other.
	Time    []float64 `json:"time" yaml:"time"`
	Voltage []float64 `json:"voltage" yaml:"voltage"`
	Current []float64 `json:"current" yaml:"current"`
	Charge  []float64 `json:"charge" yaml:"charge"`
	Power   []float64 `json:"power" yaml:"power"`
	Energy  []float64 `json:"energy" yaml:"energy"`
}

// Runtime returns the total duration covered by the halfcycle, taken from
// the last entry of the cumulative time series.
func (r *HalfcycleRecord) Runtime() float64 {
	if len(r.Time) == 0 {
		return 0
	}
	return r.Time[len(r.Time)-1]
}

// Cycle is one charge/discharge pair, the basic plotted entity. Either half
// may be nil (incomplete cycle); a Cycle with both halves nil is a placeholder
// left behind by file removal and is excluded from the visible sequence while
// keeping positional indices of the following cycles stable.
type Cycle struct {
	Index     int              `json:"index" yaml:"index"`
	ChargeRec *HalfcycleRecord `json:"charge,omitempty" yaml:"charge,omitempty"`
	DischRec  *HalfcycleRecord `json:"discharge,omitempty" yaml:"discharge,omitempty"`
	Hidden    bool             `json:"hidden" yaml:"hidden"`
}

// IsEmpty reports whether the cycle has neither a charge nor a discharge half.
func (c *Cycle) IsEmpty() bool {
	return c.ChargeRec == nil && c.DischRec == nil
}

// Half returns the requested halfcycle of the cycle, nil if absent.
func (c *Cycle) Half(t HalfcycleType) *HalfcycleRecord {
	if t == Charge {
		return c.ChargeRec
	}
	return c.DischRec
}
