package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/precoding-evaluator/model"
)

// LinkGains holds, per user, the desired-link gain |h_u·w_u|^2 and the sum of
// gains leaked from every other user's weight vector.
type LinkGains struct {
	Signal       []float64
	Interference []float64
}

// NoisePower converts an SNR in dB into the linear noise power relative to
// the channel's unit average power.
func NoisePower(snrDB float64) float64 {
	return math.Pow(10, -snrDB/10)
}

// ComputeGainMatrix returns G = |H·W|^2; G[i][j] is the power user i receives
// from weight vector j.
func ComputeGainMatrix(h *model.ChannelMatrix, w *model.WeightMatrix) ([][]float64, error) {
	if err := checkEvaluationShapes(h, w); err != nil {
		return nil, err
	}
	users, antennas := h.Users(), h.Antennas()
	g := make([][]float64, users)
	for i := 0; i < users; i++ {
		hi := h.UserChannel(i)
		g[i] = make([]float64, users)
		for j := 0; j < users; j++ {
			var acc complex128
			for a := 0; a < antennas; a++ {
				acc += hi[a] * w.At(a, j)
			}
			g[i][j] = real(acc)*real(acc) + imag(acc)*imag(acc)
		}
	}
	return g, nil
}

// ComputeLinkGains splits the gain matrix into signal and interference terms.
func ComputeLinkGains(h *model.ChannelMatrix, w *model.WeightMatrix) (LinkGains, error) {
	g, err := ComputeGainMatrix(h, w)
	if err != nil {
		return LinkGains{}, err
	}
	users := len(g)
	out := LinkGains{
		Signal:       make([]float64, users),
		Interference: make([]float64, users),
	}
	for u := 0; u < users; u++ {
		out.Signal[u] = g[u][u]
		// Summing off-diagonal terms directly keeps interference exactly zero
		// when it should be, instead of a rounding residue from rowSum-signal.
		for j := 0; j < users; j++ {
			if j != u {
				out.Interference[u] += g[u][j]
			}
		}
	}
	return out, nil
}

// UserCapacities returns log2(1 + S_u/(n + I_u)) for every user at one SNR.
func (g LinkGains) UserCapacities(snrDB float64) []float64 {
	noise := NoisePower(snrDB)
	out := make([]float64, len(g.Signal))
	for u := range g.Signal {
		out[u] = math.Log2(1 + g.Signal[u]/(noise+g.Interference[u]))
	}
	return out
}

// SINR returns S_u/(n + I_u) for every user at one SNR, in linear units.
func (g LinkGains) SINR(snrDB float64) []float64 {
	noise := NoisePower(snrDB)
	out := make([]float64, len(g.Signal))
	for u := range g.Signal {
		out[u] = g.Signal[u] / (noise + g.Interference[u])
	}
	return out
}

// SpectralEfficiency is the sum of user capacities at one SNR.
func (g LinkGains) SpectralEfficiency(snrDB float64) float64 {
	var total float64
	for _, c := range g.UserCapacities(snrDB) {
		total += c
	}
	return total
}

// ComputeSpectralPerformance evaluates the aggregate spectral efficiency of
// (H, W) at every point of the sweep.
func ComputeSpectralPerformance(h *model.ChannelMatrix, w *model.WeightMatrix, sweep model.SNRSweep) ([]float64, error) {
	gains, err := ComputeLinkGains(h, w)
	if err != nil {
		return nil, err
	}
	out := make([]float64, sweep.Len())
	for i := range out {
		out[i] = gains.SpectralEfficiency(sweep.At(i))
	}
	return out, nil
}

// ComputePerformanceCurve wraps ComputeSpectralPerformance into a labelled
// curve.
func ComputePerformanceCurve(label string, h *model.ChannelMatrix, w *model.WeightMatrix, sweep model.SNRSweep) (*model.PerformanceCurve, error) {
	values, err := ComputeSpectralPerformance(h, w, sweep)
	if err != nil {
		return nil, err
	}
	return model.NewPerformanceCurve(label, sweep, values)
}

func checkEvaluationShapes(h *model.ChannelMatrix, w *model.WeightMatrix) error {
	if h == nil || h.IsEmpty() || w == nil || w.IsEmpty() {
		return fmt.Errorf("%w: spectral evaluation needs both H and W", ErrDimensionMismatch)
	}
	if h.Antennas() != w.Antennas() || h.Users() != w.Users() {
		return fmt.Errorf("%w: H is %dx%d but W is %dx%d (want %dx%d)",
			ErrDimensionMismatch, h.Users(), h.Antennas(), w.Antennas(), w.Users(), h.Antennas(), h.Users())
	}
	return nil
}
