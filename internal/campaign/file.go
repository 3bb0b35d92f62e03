package campaign

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/precoding-evaluator/channel"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

// File is the on-disk campaign description.
type File struct {
	Name        string               `yaml:"name"`
	Channel     channel.Spec         `yaml:"channel"`
	Sweep       model.SweepSpec      `yaml:"sweep"`
	Parallelism int                  `yaml:"parallelism,omitempty"`
	Scenarios   []model.ScenarioSpec `yaml:"scenarios"`
	Pass        *PassSpec            `yaml:"pass,omitempty"`
}

// PassSpec describes a pass sweep: the window to step through and the SNR at
// which each epoch is scored.
type PassSpec struct {
	Start          time.Time     `yaml:"start"`
	Duration       time.Duration `yaml:"duration"`
	Step           time.Duration `yaml:"step"`
	ReferenceSNRDB float64       `yaml:"referenceSnrDb"`
}

// Load reads and parses a campaign file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read campaign %s: %w", path, err)
	}
	f, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("campaign %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a campaign document. Unknown keys are rejected so typos in
// scenario fields fail loudly instead of silently taking defaults.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: campaign document is empty", model.ErrInvalidConfiguration)
		}
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidConfiguration, err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: campaign %q has no scenarios", model.ErrInvalidConfiguration, f.Name)
	}
	if f.Parallelism < 0 {
		return nil, fmt.Errorf("%w: parallelism must not be negative", model.ErrInvalidConfiguration)
	}
	return &f, nil
}

// PassConfig converts the pass section into run parameters.
func (p PassSpec) PassConfig() (PassConfig, error) {
	if p.Start.IsZero() {
		return PassConfig{}, fmt.Errorf("%w: pass start is required", model.ErrInvalidConfiguration)
	}
	if p.Step <= 0 {
		return PassConfig{}, fmt.Errorf("%w: pass step must be positive", model.ErrInvalidConfiguration)
	}
	if p.Duration < 0 {
		return PassConfig{}, fmt.Errorf("%w: pass duration must not be negative", model.ErrInvalidConfiguration)
	}
	return PassConfig{
		Start:          p.Start,
		Duration:       p.Duration,
		Step:           p.Step,
		ReferenceSNRDB: p.ReferenceSNRDB,
	}, nil
}
