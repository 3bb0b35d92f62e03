package main

import (
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/precoding-evaluator/channel"
	"github.com/signalsfoundry/precoding-evaluator/internal/campaign"
	"github.com/signalsfoundry/precoding-evaluator/internal/logging"
)

func newCampaignCmd(root *rootOptions) *cobra.Command {
	var parallelism int
	cmd := &cobra.Command{
		Use:   "campaign FILE",
		Short: "Evaluate every scenario in a campaign file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.logger(cmd)
			f, err := campaign.Load(args[0])
			if err != nil {
				return err
			}
			generator, err := channel.FromSpec(f.Channel)
			if err != nil {
				return err
			}
			sweep, err := f.Sweep.Build()
			if err != nil {
				return err
			}
			if parallelism <= 0 {
				parallelism = f.Parallelism
			}

			ev, flush, err := root.evaluator(cmd, log)
			if err != nil {
				return err
			}
			defer flush()

			log.Info(cmd.Context(), "running campaign",
				logging.String("campaign", f.Name),
				logging.Int("scenarios", len(f.Scenarios)),
			)
			runner := campaign.NewRunner(ev.WithChannel(generator),
				campaign.WithLogger(log.With(logging.String("campaign", f.Name))),
				campaign.WithParallelism(parallelism),
			)
			return finish(cmd, root, runner.Run(cmd.Context(), f.Scenarios, sweep))
		},
	}
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "Concurrent scenarios (defaults to the file's setting, then GOMAXPROCS)")
	return cmd
}
