package campaign

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/precoding-evaluator/channel"
	"github.com/signalsfoundry/precoding-evaluator/core"
	"github.com/signalsfoundry/precoding-evaluator/internal/logging"
	"github.com/signalsfoundry/precoding-evaluator/model"
	"github.com/signalsfoundry/precoding-evaluator/timectrl"
)

// PassConfig controls a pass sweep.
type PassConfig struct {
	Start          time.Time
	Duration       time.Duration
	Step           time.Duration
	ReferenceSNRDB float64
	Mode           timectrl.Mode
}

// PassPoint is one scenario scored at one epoch. Skipped points carry the
// failure outcome in Reason and no efficiency.
type PassPoint struct {
	Epoch           time.Time
	Label           string
	MinElevationDeg float64
	BitsPerHz       float64
	Skipped         bool
	Reason          string
}

// RunPass steps the line-of-sight geometry through the pass window and scores
// every scenario at the reference SNR at each epoch. Epochs where the channel
// cannot be built or weights cannot be computed are recorded as skipped.
func (r *Runner) RunPass(ctx context.Context, link channel.LineOfSight, specs []model.ScenarioSpec, pass PassConfig) ([]PassPoint, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: pass has no scenarios", model.ErrInvalidConfiguration)
	}
	configs := make([]model.ScenarioConfig, len(specs))
	labels := make([]string, len(specs))
	for i, spec := range specs {
		cfg, err := spec.Build()
		if err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i, err)
		}
		configs[i] = cfg
		labels[i] = Outcome{Name: spec.Name, Method: string(cfg.Method())}.Label()
	}
	sweep, err := model.NewSNRSweep([]float64{pass.ReferenceSNRDB})
	if err != nil {
		return nil, err
	}

	stepper, err := timectrl.NewStepper(pass.Start, pass.Step, pass.Duration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidConfiguration, err)
	}
	stepper.Mode = pass.Mode

	var points []PassPoint
	stepper.AddListener(func(ctx context.Context, epoch time.Time) error {
		at := link.AtEpoch(epoch)
		minElev := math.NaN()
		if elev, err := at.Elevations(); err == nil {
			minElev = minimum(elev)
		}
		ev := r.evaluator.WithChannel(at)

		for i, cfg := range configs {
			point := PassPoint{Epoch: epoch, Label: labels[i], MinElevationDeg: minElev}
			res, err := ev.Run(ctx, cfg, sweep)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				point.Skipped, point.Reason = true, core.ErrorKind(err)
			} else {
				_, point.BitsPerHz = res.Curve().Point(0)
			}
			points = append(points, point)
		}
		return nil
	})

	if err := stepper.Run(ctx); err != nil {
		return points, err
	}

	skipped := 0
	for _, p := range points {
		if p.Skipped {
			skipped++
		}
	}
	r.log.Info(ctx, "pass finished",
		logging.Int("epochs", len(stepper.Epochs())),
		logging.Int("points", len(points)),
		logging.Int("skipped", skipped),
	)
	return points, nil
}

func minimum(values []float64) float64 {
	m := math.Inf(1)
	for _, v := range values {
		m = math.Min(m, v)
	}
	return m
}
