package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/precoding-evaluator/channel"
	"github.com/signalsfoundry/precoding-evaluator/internal/campaign"
	"github.com/signalsfoundry/precoding-evaluator/internal/report"
	"github.com/signalsfoundry/precoding-evaluator/model"
	"github.com/signalsfoundry/precoding-evaluator/timectrl"
)

func newPassCmd(root *rootOptions) *cobra.Command {
	var realtime bool
	cmd := &cobra.Command{
		Use:   "pass FILE",
		Short: "Score each scenario at every epoch of a satellite pass.",
		Long: `pass steps the line-of-sight channel of a campaign file through ` +
			`its pass window and writes one CSV row per scenario and epoch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.logger(cmd)
			f, err := campaign.Load(args[0])
			if err != nil {
				return err
			}
			if f.Pass == nil {
				return fmt.Errorf("%w: campaign %q has no pass section", model.ErrInvalidConfiguration, f.Name)
			}
			if f.Channel.LineOfSight == nil {
				return fmt.Errorf("%w: pass sweeps need a line-of-sight channel", model.ErrInvalidConfiguration)
			}
			if m := strings.ToLower(f.Channel.Model); m != channel.ModelLineOfSight && m != "lineofsight" {
				return fmt.Errorf("%w: pass sweeps need channel model %q, got %q", model.ErrInvalidConfiguration, channel.ModelLineOfSight, f.Channel.Model)
			}
			link, err := f.Channel.LineOfSight.BuildLineOfSight()
			if err != nil {
				return err
			}
			pass, err := f.Pass.PassConfig()
			if err != nil {
				return err
			}
			if realtime {
				pass.Mode = timectrl.RealTime
			}

			ev, flush, err := root.evaluator(cmd, log)
			if err != nil {
				return err
			}
			defer flush()

			points, err := campaign.NewRunner(ev, campaign.WithLogger(log)).RunPass(cmd.Context(), link, f.Scenarios, pass)
			if err != nil {
				return err
			}

			w, closeFn, err := root.openOutput(cmd)
			if err != nil {
				return err
			}
			if err := report.WritePassCSV(w, points); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().BoolVar(&realtime, "realtime", false, "Wait one step of wall-clock time between epochs")
	return cmd
}
