package model

import (
	"fmt"
	"math"
)

// PerformanceCurve is an aggregate spectral-efficiency curve (bits/s/Hz),
// index-aligned with the SNR sweep it was evaluated on.
type PerformanceCurve struct {
	label     string
	snrDB     []float64
	bitsPerHz []float64
}

// NewPerformanceCurve pairs a sweep with its spectral-efficiency values.
func NewPerformanceCurve(label string, sweep SNRSweep, bitsPerHz []float64) (*PerformanceCurve, error) {
	if sweep.Len() != len(bitsPerHz) {
		return nil, fmt.Errorf("%w: %d spectral-efficiency values for %d SNR points", ErrDimensionMismatch, len(bitsPerHz), sweep.Len())
	}
	values := make([]float64, len(bitsPerHz))
	copy(values, bitsPerHz)
	return &PerformanceCurve{label: label, snrDB: sweep.Values(), bitsPerHz: values}, nil
}

// Label is the legend entry, normally the method name.
func (p *PerformanceCurve) Label() string { return p.label }

// WithLabel returns a copy of p under a different legend entry.
func (p *PerformanceCurve) WithLabel(label string) *PerformanceCurve {
	out := *p
	out.label = label
	return &out
}

// Len is the number of points.
func (p *PerformanceCurve) Len() int { return len(p.snrDB) }

// SNRdB returns a copy of the SNR axis.
func (p *PerformanceCurve) SNRdB() []float64 {
	out := make([]float64, len(p.snrDB))
	copy(out, p.snrDB)
	return out
}

// SpectralEfficiency returns a copy of the bits/s/Hz values.
func (p *PerformanceCurve) SpectralEfficiency() []float64 {
	out := make([]float64, len(p.bitsPerHz))
	copy(out, p.bitsPerHz)
	return out
}

// Point returns the i-th (SNR, spectral efficiency) pair.
func (p *PerformanceCurve) Point(i int) (snrDB, bitsPerHz float64) {
	return p.snrDB[i], p.bitsPerHz[i]
}

// ValueAt returns the spectral efficiency at an exact sweep point.
func (p *PerformanceCurve) ValueAt(snrDB float64) (float64, bool) {
	for i, s := range p.snrDB {
		if s == snrDB {
			return p.bitsPerHz[i], true
		}
	}
	return 0, false
}

// Peak returns the largest spectral efficiency on the curve.
func (p *PerformanceCurve) Peak() float64 {
	peak := math.Inf(-1)
	for _, v := range p.bitsPerHz {
		peak = math.Max(peak, v)
	}
	if math.IsInf(peak, -1) {
		return 0
	}
	return peak
}

// Series is an ordered collection of labelled curves handed to a presenter
// that overlays them on one chart.
type Series []*PerformanceCurve

// Labels returns the legend entries in order.
func (s Series) Labels() []string {
	out := make([]string, 0, len(s))
	for _, c := range s {
		out = append(out, c.Label())
	}
	return out
}
