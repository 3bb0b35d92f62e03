package model

import (
	"fmt"
	"math"
)

// Default sweep bounds: -40 dB up to (not including) 5 dB in 1 dB steps.
const (
	DefaultSNRStartDB = -40.0
	DefaultSNRStopDB  = 5.0
	DefaultSNRStepDB  = 1.0
)

// SNRSweep is an ordered, strictly ascending sequence of SNR points in dB.
type SNRSweep struct {
	values []float64
}

// NewSNRSweep validates and copies the supplied SNR points.
func NewSNRSweep(valuesDB []float64) (SNRSweep, error) {
	if len(valuesDB) == 0 {
		return SNRSweep{}, fmt.Errorf("%w: SNR sweep is empty", ErrInvalidConfiguration)
	}
	out := make([]float64, len(valuesDB))
	for i, v := range valuesDB {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return SNRSweep{}, fmt.Errorf("%w: SNR point %d is not finite", ErrInvalidConfiguration, i)
		}
		if i > 0 && v <= valuesDB[i-1] {
			return SNRSweep{}, fmt.Errorf("%w: SNR sweep must be strictly ascending (point %d: %g after %g)", ErrInvalidConfiguration, i, v, valuesDB[i-1])
		}
		out[i] = v
	}
	return SNRSweep{values: out}, nil
}

// SNRRange returns start, start+step, ... for every point strictly below stop.
func SNRRange(startDB, stopDB, stepDB float64) (SNRSweep, error) {
	if !(stepDB > 0) || math.IsInf(stepDB, 0) {
		return SNRSweep{}, fmt.Errorf("%w: SNR step must be positive, got %g", ErrInvalidConfiguration, stepDB)
	}
	if !(stopDB > startDB) {
		return SNRSweep{}, fmt.Errorf("%w: SNR stop %g must exceed start %g", ErrInvalidConfiguration, stopDB, startDB)
	}
	n := int(math.Ceil((stopDB-startDB)/stepDB - 1e-9))
	values := make([]float64, n)
	for i := range values {
		values[i] = startDB + float64(i)*stepDB
	}
	return NewSNRSweep(values)
}

// DefaultSNRSweep returns the 45-point sweep from -40 dB to 4 dB.
func DefaultSNRSweep() SNRSweep {
	s, err := SNRRange(DefaultSNRStartDB, DefaultSNRStopDB, DefaultSNRStepDB)
	if err != nil {
		panic(err)
	}
	return s
}

// Values returns a copy of the SNR points.
func (s SNRSweep) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Len returns the number of points.
func (s SNRSweep) Len() int { return len(s.values) }

// At returns point i in dB.
func (s SNRSweep) At(i int) float64 { return s.values[i] }

// SweepSpec is the file/wire form of an SNR sweep. ValuesDB wins when set;
// otherwise the half-open range [StartDB, StopDB) with StepDB is used. An
// all-zero spec selects DefaultSNRSweep.
type SweepSpec struct {
	StartDB  float64   `yaml:"startDb,omitempty" json:"startDb,omitempty"`
	StopDB   float64   `yaml:"stopDb,omitempty" json:"stopDb,omitempty"`
	StepDB   float64   `yaml:"stepDb,omitempty" json:"stepDb,omitempty"`
	ValuesDB []float64 `yaml:"valuesDb,omitempty" json:"valuesDb,omitempty"`
}

// Build converts the spec into a validated sweep.
func (s SweepSpec) Build() (SNRSweep, error) {
	if len(s.ValuesDB) > 0 {
		return NewSNRSweep(s.ValuesDB)
	}
	if s.StartDB == 0 && s.StopDB == 0 && s.StepDB == 0 {
		return DefaultSNRSweep(), nil
	}
	step := s.StepDB
	if step == 0 {
		step = DefaultSNRStepDB
	}
	return SNRRange(s.StartDB, s.StopDB, step)
}
