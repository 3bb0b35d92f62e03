package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/precoding-evaluator/internal/logging"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

const tracerName = "github.com/signalsfoundry/precoding-evaluator/core"

// ChannelModel is the external collaborator that turns a scenario's array and
// user geometry into a normalised nUsers × nAntennas channel matrix. The call
// is synchronous; its failure is fatal to the scenario.
type ChannelModel interface {
	Generate(ctx context.Context, cfg model.ScenarioConfig) (*model.ChannelMatrix, error)
}

// ChannelModelFunc adapts a function to ChannelModel.
type ChannelModelFunc func(ctx context.Context, cfg model.ScenarioConfig) (*model.ChannelMatrix, error)

// Generate calls f.
func (f ChannelModelFunc) Generate(ctx context.Context, cfg model.ScenarioConfig) (*model.ChannelMatrix, error) {
	return f(ctx, cfg)
}

// ValidateChannel checks collaborator output against the configuration: it
// must exist, be nUsers × nAntennas, and contain only finite values.
func ValidateChannel(h *model.ChannelMatrix, cfg model.ScenarioConfig) error {
	if h == nil || h.IsEmpty() {
		return fmt.Errorf("%w: channel model returned no matrix for %s scenario", ErrCollaboratorFailure, cfg.Method())
	}
	if h.Users() != cfg.Users() || h.Antennas() != cfg.Antennas() {
		return fmt.Errorf("%w: channel model returned %dx%d matrix, want %dx%d (%dx%d array, %d users)",
			ErrCollaboratorFailure, h.Users(), h.Antennas(), cfg.Users(), cfg.Antennas(),
			cfg.HorizontalElements(), cfg.VerticalElements(), cfg.Users())
	}
	if !h.IsFinite() {
		return fmt.Errorf("%w: channel model returned non-finite values for %s scenario", ErrCollaboratorFailure, cfg.Method())
	}
	return nil
}

// Recorder receives evaluation telemetry. Implementations must be safe for
// concurrent use since independent scenarios may run in parallel.
type Recorder interface {
	ObserveEvaluation(method, outcome string, elapsed time.Duration)
	ObserveCondition(method string, condition float64)
	SetPeakSpectralEfficiency(method string, bitsPerHz float64)
}

// Evaluator runs the scenario pipeline: channel → weights → spectral
// performance. It holds no per-run state, so one Evaluator may serve many
// scenarios concurrently.
type Evaluator struct {
	channel   ChannelModel
	log       logging.Logger
	recorder  Recorder
	precoding []PrecodingOption
	tracer    trace.Tracer
}

// EvaluatorOption customises Evaluator construction.
type EvaluatorOption func(*Evaluator)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRecorder attaches a telemetry recorder.
func WithRecorder(r Recorder) EvaluatorOption {
	return func(e *Evaluator) {
		e.recorder = r
	}
}

// WithPrecodingOptions forwards options to ComputeWeightsReport.
func WithPrecodingOptions(opts ...PrecodingOption) EvaluatorOption {
	return func(e *Evaluator) {
		e.precoding = append(e.precoding, opts...)
	}
}

// NewEvaluator constructs an Evaluator bound to a channel model.
func NewEvaluator(channel ChannelModel, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		channel: channel,
		log:     logging.Noop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithChannel returns a copy of e that draws channels from a different model.
func (e *Evaluator) WithChannel(channel ChannelModel) *Evaluator {
	out := *e
	out.channel = channel
	return &out
}

// Run executes the full pipeline for one scenario. On success every stage of
// the returned result is fully populated; on failure no result is returned.
func (e *Evaluator) Run(ctx context.Context, cfg model.ScenarioConfig, sweep model.SNRSweep) (res *model.ScenarioResult, err error) {
	start := time.Now()
	method := string(cfg.Method())
	ctx, span := e.tracer.Start(ctx, "precoding.Run", trace.WithAttributes(
		attribute.String("scenario.name", cfg.Name()),
		attribute.String("precoding.method", method),
		attribute.Int("precoding.users", cfg.Users()),
		attribute.Int("precoding.antennas", cfg.Antennas()),
		attribute.Int("precoding.snr_points", sweep.Len()),
	))
	log := e.log.With(
		logging.String("scenario", cfg.Name()),
		logging.String("method", method),
		logging.Int("users", cfg.Users()),
		logging.Int("antennas", cfg.Antennas()),
	)
	defer func() {
		e.finish(ctx, span, log, method, start, err)
		if res != nil {
			span.SetAttributes(attribute.Float64("precoding.peak_bits_per_hz", res.Curve().Peak()))
		}
		span.End()
	}()

	if cfg.IsZero() {
		return nil, fmt.Errorf("%w: scenario configuration was not built", ErrInvalidConfiguration)
	}
	if sweep.Len() == 0 {
		return nil, fmt.Errorf("%w: %s scenario has an empty SNR sweep", ErrInvalidConfiguration, method)
	}
	if e.channel == nil {
		return nil, fmt.Errorf("%w: no channel model configured", ErrInvalidConfiguration)
	}

	h, err := e.generateChannel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	w, err := e.computeWeights(ctx, cfg, h)
	if err != nil {
		return nil, err
	}

	curve, err := e.evaluate(ctx, cfg.Label(), h, w, sweep)
	if err != nil {
		return nil, err
	}

	if e.recorder != nil {
		e.recorder.SetPeakSpectralEfficiency(method, curve.Peak())
	}
	return model.NewScenarioResult(cfg, h, w, sweep, curve), nil
}

// Reevaluate recomputes only the spectral-efficiency curve of an existing
// result over a new sweep. H and W are reused untouched.
func (e *Evaluator) Reevaluate(ctx context.Context, res *model.ScenarioResult, sweep model.SNRSweep) (*model.ScenarioResult, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: no scenario result to re-evaluate", ErrInvalidConfiguration)
	}
	if sweep.Len() == 0 {
		return nil, fmt.Errorf("%w: %s scenario has an empty SNR sweep", ErrInvalidConfiguration, res.Label())
	}
	curve, err := e.evaluate(ctx, res.Label(), res.Channel(), res.Weights(), sweep)
	if err != nil {
		return nil, err
	}
	return res.WithCurve(sweep, curve), nil
}

func (e *Evaluator) generateChannel(ctx context.Context, cfg model.ScenarioConfig) (*model.ChannelMatrix, error) {
	ctx, span := e.tracer.Start(ctx, "channel.Generate")
	defer span.End()

	h, err := e.channel.Generate(ctx, cfg)
	if err != nil {
		err = collaboratorError(cfg, err)
		span.RecordError(err)
		return nil, err
	}
	if err := ValidateChannel(h, cfg); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Float64("channel.mean_power", h.MeanSquaredMagnitude()))
	return h, nil
}

func (e *Evaluator) computeWeights(ctx context.Context, cfg model.ScenarioConfig, h *model.ChannelMatrix) (*model.WeightMatrix, error) {
	_, span := e.tracer.Start(ctx, "precoding.ComputeWeights", trace.WithAttributes(
		attribute.Bool("precoding.explicit_allocation", cfg.HasExplicitAllocation()),
	))
	defer span.End()

	w, report, err := ComputeWeightsReport(h, cfg.Allocation(), cfg.Method(), e.precoding...)
	if e.recorder != nil {
		for _, c := range report.Conditions {
			e.recorder.ObserveCondition(string(cfg.Method()), c)
		}
	}
	if cond := report.MaxCondition(); cond > 0 {
		span.SetAttributes(attribute.Float64("precoding.max_condition", cond))
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return w, nil
}

func (e *Evaluator) evaluate(ctx context.Context, label string, h *model.ChannelMatrix, w *model.WeightMatrix, sweep model.SNRSweep) (*model.PerformanceCurve, error) {
	_, span := e.tracer.Start(ctx, "precoding.SpectralPerformance")
	defer span.End()

	curve, err := ComputePerformanceCurve(label, h, w, sweep)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return curve, nil
}

func (e *Evaluator) finish(ctx context.Context, span trace.Span, log logging.Logger, method string, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := ErrorKind(err)
	if e.recorder != nil {
		e.recorder.ObserveEvaluation(method, outcome, elapsed)
	}
	span.SetAttributes(attribute.String("precoding.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, outcome)
		log.Warn(ctx, "scenario evaluation failed",
			logging.String("outcome", outcome),
			logging.Duration("elapsed", elapsed),
			logging.Err(err),
		)
		return
	}
	log.Info(ctx, "scenario evaluated", logging.Duration("elapsed", elapsed))
}

// collaboratorError wraps a channel-model failure so it classifies as
// ErrCollaboratorFailure while the original error stays reachable.
// Context errors pass through unwrapped so cancellation is never reported as
// a collaborator fault.
func collaboratorError(cfg model.ScenarioConfig, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s scenario %q: channel model: %w", cfg.Method(), cfg.Name(), err)
	}
	if errors.Is(err, ErrCollaboratorFailure) {
		return fmt.Errorf("%s scenario %q: %w", cfg.Method(), cfg.Name(), err)
	}
	return fmt.Errorf("%w: %s scenario %q: %w", ErrCollaboratorFailure, cfg.Method(), cfg.Name(), err)
}
