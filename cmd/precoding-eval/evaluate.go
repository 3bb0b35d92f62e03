package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/precoding-evaluator/channel"
	"github.com/signalsfoundry/precoding-evaluator/internal/campaign"
	"github.com/signalsfoundry/precoding-evaluator/internal/report"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

type evaluateOptions struct {
	horizontal int
	vertical   int
	users      int
	methods    []string
	seed       int64
	sweep      model.SweepSpec
}

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	opts := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one array and user count with each method over a Rayleigh channel.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.horizontal, "horizontal", 4, "Horizontal array elements")
	flags.IntVar(&opts.vertical, "vertical", 4, "Vertical array elements")
	flags.IntVar(&opts.users, "users", 4, "Number of users")
	flags.StringSliceVar(&opts.methods, "method", []string{"MRT", "ZF"}, "Precoding methods to compare")
	flags.Int64Var(&opts.seed, "seed", 1, "Rayleigh channel seed")
	flags.Float64Var(&opts.sweep.StartDB, "snr-start", model.DefaultSNRStartDB, "First SNR point in dB")
	flags.Float64Var(&opts.sweep.StopDB, "snr-stop", model.DefaultSNRStopDB, "SNR bound in dB (exclusive)")
	flags.Float64Var(&opts.sweep.StepDB, "snr-step", model.DefaultSNRStepDB, "SNR step in dB")
	return cmd
}

func runEvaluate(cmd *cobra.Command, root *rootOptions, opts *evaluateOptions) error {
	log := root.logger(cmd)
	sweep, err := opts.sweep.Build()
	if err != nil {
		return err
	}
	specs := make([]model.ScenarioSpec, len(opts.methods))
	for i, m := range opts.methods {
		specs[i] = model.ScenarioSpec{
			HorizontalElements: opts.horizontal,
			VerticalElements:   opts.vertical,
			Users:              opts.users,
			Method:             m,
		}
	}

	ev, flush, err := root.evaluator(cmd, log)
	if err != nil {
		return err
	}
	defer flush()

	runner := campaign.NewRunner(ev.WithChannel(channel.Rayleigh{Seed: opts.seed}), campaign.WithLogger(log))
	outcomes := runner.Run(cmd.Context(), specs, sweep)
	return finish(cmd, root, outcomes)
}

// finish reports failures on stderr and writes the successful curves. It
// fails only when no scenario succeeded.
func finish(cmd *cobra.Command, root *rootOptions, outcomes []campaign.Outcome) error {
	failed := campaign.Failed(outcomes)
	if failed > 0 {
		if err := report.WriteSummary(cmd.ErrOrStderr(), outcomes); err != nil {
			return err
		}
	}
	if failed == len(outcomes) {
		errs := make([]error, 0, len(outcomes))
		for _, o := range outcomes {
			errs = append(errs, o.Err)
		}
		return fmt.Errorf("all %d scenarios failed: %w", failed, errors.Join(errs...))
	}
	return root.writeSeries(cmd, campaign.Series(outcomes))
}
