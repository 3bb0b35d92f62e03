package model

// ScenarioResult is the immutable outcome of one pipeline run: the
// configuration, the channel it consumed, the weights it produced, and the
// spectral-efficiency curve over the sweep.
type ScenarioResult struct {
	config  ScenarioConfig
	channel *ChannelMatrix
	weights *WeightMatrix
	sweep   SNRSweep
	curve   *PerformanceCurve
}

// NewScenarioResult bundles fully computed pipeline stages.
func NewScenarioResult(cfg ScenarioConfig, h *ChannelMatrix, w *WeightMatrix, sweep SNRSweep, curve *PerformanceCurve) *ScenarioResult {
	return &ScenarioResult{config: cfg, channel: h, weights: w, sweep: sweep, curve: curve}
}

// Config is the configuration the scenario ran with.
func (r *ScenarioResult) Config() ScenarioConfig { return r.config }

// Channel is the channel matrix consumed by the run.
func (r *ScenarioResult) Channel() *ChannelMatrix { return r.channel }

// Weights is the precoding weight matrix.
func (r *ScenarioResult) Weights() *WeightMatrix { return r.weights }

// Allocation is the antenna allocation the weights were computed under.
func (r *ScenarioResult) Allocation() *AllocationTensor { return r.config.Allocation() }

// Sweep is the SNR sweep the curve was evaluated on.
func (r *ScenarioResult) Sweep() SNRSweep { return r.sweep }

// Curve is the spectral-efficiency curve.
func (r *ScenarioResult) Curve() *PerformanceCurve { return r.curve }

// Label is the method name used to legend this scenario's curve.
func (r *ScenarioResult) Label() string { return r.config.Label() }

// WithCurve returns a new result that shares H and W but carries a curve
// evaluated on a different sweep.
func (r *ScenarioResult) WithCurve(sweep SNRSweep, curve *PerformanceCurve) *ScenarioResult {
	return &ScenarioResult{config: r.config, channel: r.channel, weights: r.weights, sweep: sweep, curve: curve}
}
