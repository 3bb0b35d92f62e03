package channel

import (
	"fmt"
	"strings"
	"time"

	"github.com/signalsfoundry/precoding-evaluator/core"
	"github.com/signalsfoundry/precoding-evaluator/model"
)

// Channel model names accepted by FromSpec.
const (
	ModelRayleigh    = "rayleigh"
	ModelLineOfSight = "los"
	ModelExplicit    = "explicit"
)

// Spec is the file/wire form of a channel model selection.
type Spec struct {
	Model       string           `yaml:"model" json:"model"`
	Seed        int64            `yaml:"seed,omitempty" json:"seed,omitempty"`
	LineOfSight *LineOfSightSpec `yaml:"lineOfSight,omitempty" json:"lineOfSight,omitempty"`
	Matrix      *MatrixSpec      `yaml:"matrix,omitempty" json:"matrix,omitempty"`
}

// TerminalSpec locates a ground terminal.
type TerminalSpec struct {
	Name         string  `yaml:"name" json:"name"`
	LatitudeDeg  float64 `yaml:"latitudeDeg" json:"latitudeDeg"`
	LongitudeDeg float64 `yaml:"longitudeDeg" json:"longitudeDeg"`
	AltitudeKm   float64 `yaml:"altitudeKm,omitempty" json:"altitudeKm,omitempty"`
}

// LineOfSightSpec configures LineOfSight from a TLE.
type LineOfSightSpec struct {
	TLE                [2]string      `yaml:"tle" json:"tle"`
	Epoch              time.Time      `yaml:"epoch" json:"epoch"`
	CarrierGHz         float64        `yaml:"carrierGhz,omitempty" json:"carrierGhz,omitempty"`
	SpacingWavelengths float64        `yaml:"spacingWavelengths,omitempty" json:"spacingWavelengths,omitempty"`
	MinElevationDeg    float64        `yaml:"minElevationDeg,omitempty" json:"minElevationDeg,omitempty"`
	Terminals          []TerminalSpec `yaml:"terminals" json:"terminals"`
}

// MatrixSpec carries an explicit channel as separate real and imaginary row
// sets. Imag may be omitted for a purely real channel.
type MatrixSpec struct {
	Real [][]float64 `yaml:"real" json:"real"`
	Imag [][]float64 `yaml:"imag,omitempty" json:"imag,omitempty"`
}

// Build converts the spec into a channel matrix.
func (m MatrixSpec) Build() (*model.ChannelMatrix, error) {
	if len(m.Imag) > 0 && len(m.Imag) != len(m.Real) {
		return nil, fmt.Errorf("%w: matrix has %d real rows but %d imaginary rows", model.ErrDimensionMismatch, len(m.Real), len(m.Imag))
	}
	rows := make([][]complex128, len(m.Real))
	for i, re := range m.Real {
		row := make([]complex128, len(re))
		for j, v := range re {
			row[j] = complex(v, 0)
		}
		if len(m.Imag) > 0 {
			im := m.Imag[i]
			if len(im) != len(re) {
				return nil, fmt.Errorf("%w: matrix row %d has %d real and %d imaginary values", model.ErrDimensionMismatch, i, len(re), len(im))
			}
			for j, v := range im {
				row[j] += complex(0, v)
			}
		}
		rows[i] = row
	}
	return model.NewChannelMatrixFromRows(rows)
}

// BuildLineOfSight converts the spec into a LineOfSight model driven by SGP4.
func (s LineOfSightSpec) BuildLineOfSight() (LineOfSight, error) {
	eph, err := NewSGP4Ephemeris(s.TLE[0], s.TLE[1])
	if err != nil {
		return LineOfSight{}, fmt.Errorf("%w: %w", model.ErrInvalidConfiguration, err)
	}
	if len(s.Terminals) == 0 {
		return LineOfSight{}, fmt.Errorf("%w: line-of-sight channel needs at least one terminal", model.ErrInvalidConfiguration)
	}
	terms := make([]Terminal, len(s.Terminals))
	for i, t := range s.Terminals {
		if t.LatitudeDeg < -90 || t.LatitudeDeg > 90 {
			return LineOfSight{}, fmt.Errorf("%w: terminal %q latitude %g outside [-90,90]", model.ErrInvalidConfiguration, t.Name, t.LatitudeDeg)
		}
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("ut-%d", i)
		}
		terms[i] = NewTerminal(name, t.LatitudeDeg, t.LongitudeDeg, t.AltitudeKm)
	}
	return LineOfSight{
		Ephemeris:          eph,
		Epoch:              s.Epoch,
		Terminals:          terms,
		CarrierGHz:         s.CarrierGHz,
		SpacingWavelengths: s.SpacingWavelengths,
		MinElevationDeg:    s.MinElevationDeg,
	}, nil
}

// FromSpec builds the channel model a spec names. An empty model name selects
// Rayleigh.
func FromSpec(s Spec) (core.ChannelModel, error) {
	switch strings.ToLower(strings.TrimSpace(s.Model)) {
	case "", ModelRayleigh:
		return Rayleigh{Seed: s.Seed}, nil
	case ModelLineOfSight, "lineofsight":
		if s.LineOfSight == nil {
			return nil, fmt.Errorf("%w: channel model %q needs a lineOfSight section", model.ErrInvalidConfiguration, s.Model)
		}
		los, err := s.LineOfSight.BuildLineOfSight()
		if err != nil {
			return nil, err
		}
		return los, nil
	case ModelExplicit:
		if s.Matrix == nil {
			return nil, fmt.Errorf("%w: channel model %q needs a matrix section", model.ErrInvalidConfiguration, s.Model)
		}
		h, err := s.Matrix.Build()
		if err != nil {
			return nil, err
		}
		return Explicit{Matrix: h}, nil
	default:
		return nil, fmt.Errorf("%w: unknown channel model %q (want rayleigh, los, or explicit)", model.ErrInvalidConfiguration, s.Model)
	}
}
