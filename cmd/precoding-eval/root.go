package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/precoding-evaluator/core"
	"github.com/signalsfoundry/precoding-evaluator/internal/config"
	"github.com/signalsfoundry/precoding-evaluator/internal/logging"
	"github.com/signalsfoundry/precoding-evaluator/internal/observability"
	"github.com/signalsfoundry/precoding-evaluator/internal/report"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

type rootOptions struct {
	config    string
	logLevel  string
	logFormat string
	format    string
	output    string
	trace     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "precoding-eval",
		Short: "Evaluate multi-user MIMO precoding schemes.",
		Long: `precoding-eval computes MRT or ZF transmit weights for a planar ` +
			`array serving several users and reports the sum spectral ` +
			`efficiency over an SNR sweep.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.config, "config", "", "Server config file whose tracing section applies (PRECODING_* env also read)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	flags.StringVarP(&opts.format, "format", "f", "csv", "Output format: csv or json")
	flags.StringVarP(&opts.output, "output", "o", "", "Write results to this file instead of stdout")
	flags.BoolVar(&opts.trace, "trace", false, "Print pipeline spans to stderr")

	cmd.AddCommand(
		newEvaluateCmd(opts),
		newCampaignCmd(opts),
		newPassCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) logging.Logger {
	return logging.New(logging.Config{
		Level:  o.logLevel,
		Format: o.logFormat,
		Output: cmd.ErrOrStderr(),
	})
}

// evaluator builds the shared evaluator and starts tracing. The returned
// function flushes spans.
func (o *rootOptions) evaluator(cmd *cobra.Command, log logging.Logger) (*core.Evaluator, func(), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(o.config)
	if err != nil {
		return nil, nil, err
	}
	tracing := cfg.Tracing
	if o.trace {
		tracing.Enabled = true
		tracing.Exporter = observability.ExporterStdout
		tracing.Output = cmd.ErrOrStderr()
	}
	shutdown, err := observability.InitTracing(ctx, tracing, log)
	if err != nil {
		return nil, nil, err
	}
	flush := func() { observability.ShutdownWithTimeout(context.Background(), shutdown, log) }
	return core.NewEvaluator(nil, core.WithLogger(log)), flush, nil
}

// openOutput returns the destination for results and a close function.
func (o *rootOptions) openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	if o.output == "" || o.output == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(o.output)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func (o *rootOptions) writeSeries(cmd *cobra.Command, series model.Series) error {
	var write func(io.Writer, model.Series) error
	switch strings.ToLower(o.format) {
	case "csv":
		write = report.WriteCSV
	case "json":
		write = report.WriteJSON
	default:
		return fmt.Errorf("unknown output format %q (want csv or json)", o.format)
	}
	w, closeFn, err := o.openOutput(cmd)
	if err != nil {
		return err
	}
	if err := write(w, series); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}
