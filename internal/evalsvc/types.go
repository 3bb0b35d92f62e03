package evalsvc

import (
	"time"

	"github.com/signalsfoundry/precoding-evaluator/channel"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

// EvaluateRequest runs one scenario. A nil Channel selects the server's
// default channel model; a zero Sweep selects the default sweep.
type EvaluateRequest struct {
	Scenario model.ScenarioSpec `json:"scenario"`
	Channel  *channel.Spec      `json:"channel,omitempty"`
	Sweep    model.SweepSpec    `json:"sweep"`
}

// GetResultRequest fetches a stored result.
type GetResultRequest struct {
	ID string `json:"id"`
}

// ListResultsRequest has no fields; it exists so the wire form is explicit.
type ListResultsRequest struct{}

// Matrix is a complex matrix on the wire, split into real and imaginary rows.
type Matrix struct {
	Real [][]float64 `json:"real"`
	Imag [][]float64 `json:"imag"`
}

// Gains is the per-user link budget at CapacitySNRdB.
type Gains struct {
	Signal        []float64 `json:"signal"`
	Interference  []float64 `json:"interference"`
	CapacitySNRdB float64   `json:"capacitySnrDb"`
	Capacities    []float64 `json:"capacities"`
}

// Curve is a spectral-efficiency curve on the wire.
type Curve struct {
	Label     string    `json:"label"`
	SNRdB     []float64 `json:"snrDb"`
	BitsPerHz []float64 `json:"bitsPerHz"`
}

// Result is the full view of a stored evaluation.
type Result struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name,omitempty"`
	Method    string    `json:"method"`
	Users     int       `json:"users"`
	Antennas  int       `json:"antennas"`
	Weights   Matrix    `json:"weights"`
	Gains     Gains     `json:"gains"`
	Curve     Curve     `json:"curve"`
	Peak      float64   `json:"peakBitsPerHz"`
}

// ResultSummary is one ListResults entry.
type ResultSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name,omitempty"`
	Method    string    `json:"method"`
	Peak      float64   `json:"peakBitsPerHz"`
}

// ListResultsResponse lists stored results, oldest first.
type ListResultsResponse struct {
	Results []ResultSummary `json:"results"`
}

func matrixFromWeights(w *model.WeightMatrix) Matrix {
	antennas, users := w.Dims()
	m := Matrix{
		Real: make([][]float64, antennas),
		Imag: make([][]float64, antennas),
	}
	for i := 0; i < antennas; i++ {
		m.Real[i] = make([]float64, users)
		m.Imag[i] = make([]float64, users)
		for j := 0; j < users; j++ {
			v := w.At(i, j)
			m.Real[i][j] = real(v)
			m.Imag[i][j] = imag(v)
		}
	}
	return m
}

// Complex reassembles the matrix as rows of complex values.
func (m Matrix) Complex() [][]complex128 {
	out := make([][]complex128, len(m.Real))
	for i, re := range m.Real {
		out[i] = make([]complex128, len(re))
		for j, v := range re {
			var im float64
			if i < len(m.Imag) && j < len(m.Imag[i]) {
				im = m.Imag[i][j]
			}
			out[i][j] = complex(v, im)
		}
	}
	return out
}
