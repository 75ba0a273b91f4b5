package cycling

import (
	"github.com/echemtools/cellcycle-go/internal/errors"
)

// Metric names one of the numeric series of a halfcycle.
type Metric string

const (
	MetricTime    Metric = "time"
	MetricVoltage Metric = "voltage"
	MetricCurrent Metric = "current"
	MetricCharge  Metric = "charge"
	MetricPower   Metric = "power"
	MetricEnergy  Metric = "energy"
)

// Metrics lists all plottable halfcycle series in display order.
var Metrics = []Metric{
	MetricTime,
	MetricVoltage,
	MetricCurrent,
	MetricCharge,
	MetricPower,
	MetricEnergy,
}

// Valid reports whether m names a known metric.
func (m Metric) Valid() bool {
	for _, known := range Metrics {
		if m == known {
			return true
		}
	}
	return false
}

// Normalization carries the optional scaling factors of an experiment. A zero
// value means the factor is not set and the raw units are returned.
type Normalization struct {
	Volume float64 // electrolyte volume in L
	Area   float64 // electrode area in cm²
}

// MetricSeries returns the display label and the numeric values for one
// metric of a halfcycle, applying the experiment normalization factors:
// current and power divide by electrode area into density units, charge and
// energy divide by electrolyte volume into volumetric units. Without factors
// the raw instrument units are returned. The returned slice is a fresh copy
// for scaled metrics and the referenced read-only series otherwise.
func MetricSeries(half *HalfcycleRecord, metric Metric, norm Normalization) (string, []float64, error) {
	if half == nil {
		return "", nil, errors.Newf("metric series requested for absent halfcycle").
			Category(errors.CategoryState).
			Build()
	}

	switch metric {
	case MetricTime:
		return "Time (s)", half.Time, nil

	case MetricVoltage:
		return "Voltage (V)", half.Voltage, nil

	case MetricCurrent:
		if norm.Area <= 0 {
			return "Current (A)", half.Current, nil
		}
		return "Current density (A/cm²)", scaled(half.Current, 1/norm.Area), nil

	case MetricCharge:
		if norm.Volume <= 0 {
			return "Capacity (mAh)", half.Charge, nil
		}
		return "Volumetric capacity (Ah/L)", scaled(half.Charge, 1/(1000*norm.Volume)), nil

	case MetricPower:
		if norm.Area <= 0 {
			return "Power (W)", half.Power, nil
		}
		return "Power density (mW/cm²)", scaled(half.Power, 1000/norm.Area), nil

	case MetricEnergy:
		if norm.Volume <= 0 {
			return "Energy (mWh)", half.Energy, nil
		}
		return "Energy density (Wh/L)", scaled(half.Energy, 1/(1000*norm.Volume)), nil

	default:
		return "", nil, errors.Newf("unknown metric %q", metric).
			Category(errors.CategoryValidation).
			Build()
	}
}

func scaled(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * factor
	}
	return out
}
