// Package config loads the evaluation server's settings. Values resolve in
// order: built-in defaults, then an optional YAML file, then PRECODING_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/precoding-evaluator/internal/logging"
	"github.com/signalsfoundry/precoding-evaluator/internal/observability"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

// EnvPrefix prefixes every environment override, e.g. PRECODING_LISTEN_ADDRESS
// or PRECODING_TRACING_ENABLED.
const EnvPrefix = "PRECODING"

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ResultsConfig bounds the in-memory result store.
type ResultsConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// ChannelConfig is used for Evaluate requests that carry no channel.
type ChannelConfig struct {
	Model string `mapstructure:"model"`
	Seed  int64  `mapstructure:"seed"`
}

// PrecodingConfig tunes the weight computation.
type PrecodingConfig struct {
	ConditionLimit float64 `mapstructure:"condition_limit"`
}

// ServerConfig is the full server configuration.
type ServerConfig struct {
	ListenAddress  string                      `mapstructure:"listen_address"`
	MetricsAddress string                      `mapstructure:"metrics_address"`
	Log            LogConfig                   `mapstructure:"log"`
	Tracing        observability.TracingConfig `mapstructure:"tracing"`
	Results        ResultsConfig               `mapstructure:"results"`
	Channel        ChannelConfig               `mapstructure:"channel"`
	Precoding      PrecodingConfig             `mapstructure:"precoding"`
}

// LoggingConfig adapts the log section for logging.New.
func (c ServerConfig) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// Validate rejects settings the server cannot start with.
func (c ServerConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ListenAddress) == "" {
		errs = append(errs, errors.New("listen_address is required"))
	}
	if c.Results.Capacity < 0 {
		errs = append(errs, fmt.Errorf("results.capacity must be >= 0, got %d", c.Results.Capacity))
	}
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Precoding.ConditionLimit < 0 {
		errs = append(errs, fmt.Errorf("precoding.condition_limit must be >= 0, got %g", c.Precoding.ConditionLimit))
	}
	switch strings.ToLower(c.Channel.Model) {
	case "", "rayleigh":
	default:
		errs = append(errs, fmt.Errorf("channel.model %q cannot serve as a default", c.Channel.Model))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", model.ErrInvalidConfiguration, errors.Join(errs...))
}

func setDefaults(v *viper.Viper) {
	tracing := observability.DefaultTracingConfig()

	v.SetDefault("listen_address", ":50051")
	v.SetDefault("metrics_address", ":9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.enabled", tracing.Enabled)
	v.SetDefault("tracing.service_name", tracing.ServiceName)
	v.SetDefault("tracing.exporter", tracing.Exporter)
	v.SetDefault("tracing.endpoint", tracing.Endpoint)
	v.SetDefault("tracing.sample_ratio", tracing.SampleRatio)
	v.SetDefault("results.capacity", 256)
	v.SetDefault("channel.model", "rayleigh")
	v.SetDefault("channel.seed", 1)
	v.SetDefault("precoding.condition_limit", 0)
}

// Load reads the configuration. An empty path skips the file layer.
func Load(path string) (ServerConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return ServerConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}
