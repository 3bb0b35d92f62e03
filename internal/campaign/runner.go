package campaign

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/precoding-evaluator/core"
	"github.com/signalsfoundry/precoding-evaluator/internal/logging"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

// Outcome is the result of one scenario in a campaign. Exactly one of Result
// and Err is set.
type Outcome struct {
	Index  int
	Name   string
	Method string
	Result *model.ScenarioResult
	Err    error
}

// Label is the legend entry. It is always the method, qualified by the
// scenario name when one is given: "zf-8x8 (ZF)".
func (o Outcome) Label() string {
	switch {
	case o.Name == "":
		return o.Method
	case o.Method == "":
		return o.Name
	default:
		return fmt.Sprintf("%s (%s)", o.Name, o.Method)
	}
}

// Runner evaluates independent scenarios against one Evaluator.
type Runner struct {
	evaluator   *core.Evaluator
	log         logging.Logger
	parallelism int
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithParallelism bounds how many scenarios run at once. Values below one
// select GOMAXPROCS.
func WithParallelism(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// NewRunner constructs a Runner.
func NewRunner(ev *core.Evaluator, opts ...RunnerOption) *Runner {
	r := &Runner{
		evaluator:   ev,
		log:         logging.Noop(),
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every scenario and returns outcomes in input order. A failing
// scenario is reported in its Outcome and never stops the others; only ctx
// cancellation cuts the campaign short, in which case unstarted scenarios
// carry the context error.
func (r *Runner) Run(ctx context.Context, specs []model.ScenarioSpec, sweep model.SNRSweep) []Outcome {
	outcomes := make([]Outcome, len(specs))
	g := new(errgroup.Group)
	g.SetLimit(r.parallelism)

	for i, spec := range specs {
		outcomes[i] = Outcome{Index: i, Name: spec.Name, Method: spec.Method}
		g.Go(func() error {
			out := &outcomes[i]
			if err := ctx.Err(); err != nil {
				out.Err = err
				return nil
			}
			cfg, err := spec.Build()
			if err != nil {
				out.Err = fmt.Errorf("scenario %d: %w", i, err)
				return nil
			}
			out.Method = string(cfg.Method())
			out.Result, out.Err = r.evaluator.Run(ctx, cfg, sweep)
			return nil
		})
	}
	_ = g.Wait()

	failed := Failed(outcomes)
	r.log.Info(ctx, "campaign finished",
		logging.Int("scenarios", len(outcomes)),
		logging.Int("failed", failed),
	)
	return outcomes
}

// Failed counts outcomes that carry an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Series collects the successful curves, in campaign order, labelled for
// presentation.
func Series(outcomes []Outcome) model.Series {
	out := make(model.Series, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			continue
		}
		out = append(out, o.Result.Curve().WithLabel(o.Label()))
	}
	return out
}
