package channel

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/precoding-evaluator/model"
)

// Explicit hands back a caller-supplied matrix unchanged. Shape checks are
// left to core.ValidateChannel.
type Explicit struct {
	Matrix *model.ChannelMatrix
}

// Generate implements core.ChannelModel.
func (e Explicit) Generate(ctx context.Context, _ model.ScenarioConfig) (*model.ChannelMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Matrix == nil {
		return nil, fmt.Errorf("explicit channel model has no matrix")
	}
	return e.Matrix, nil
}
