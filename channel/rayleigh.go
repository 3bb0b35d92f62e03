package channel

import (
	"context"
	"math"
	"math/rand"

	"github.com/signalsfoundry/precoding-evaluator/model"
)

// Rayleigh draws i.i.d. circularly-symmetric complex Gaussian entries.
// Equal seeds give equal matrices for the same configuration.
type Rayleigh struct {
	Seed int64
}

// Generate implements core.ChannelModel.
func (r Rayleigh) Generate(ctx context.Context, cfg model.ScenarioConfig) (*model.ChannelMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	users, antennas := cfg.Users(), cfg.Antennas()
	rng := rand.New(rand.NewSource(r.Seed))
	data := make([]complex128, users*antennas)
	for i := range data {
		data[i] = complex(rng.NormFloat64(), rng.NormFloat64()) / complex(math.Sqrt2, 0)
	}
	h, err := model.NewChannelMatrix(users, antennas, data)
	if err != nil {
		return nil, err
	}
	return NormalizeUnitPower(h)
}
