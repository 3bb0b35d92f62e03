package channel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/cmplxs"

	"github.com/signalsfoundry/precoding-evaluator/model"
)

// NormalizeUnitPower rescales h so that the mean squared magnitude of its
// entries is 1. The input is not modified.
func NormalizeUnitPower(h *model.ChannelMatrix) (*model.ChannelMatrix, error) {
	if h == nil || h.IsEmpty() {
		return nil, fmt.Errorf("normalize: empty channel matrix")
	}
	p := h.MeanSquaredMagnitude()
	if p == 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return nil, fmt.Errorf("normalize: channel power %g cannot be scaled to unity", p)
	}
	data := h.Data()
	cmplxs.ScaleReal(1/math.Sqrt(p), data)
	return model.NewChannelMatrix(h.Users(), h.Antennas(), data)
}
