package channel

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"github.com/signalsfoundry/precoding-evaluator/model"
)

const (
	speedOfLight = 299792458.0

	// DefaultCarrierGHz is a Ka-band downlink carrier.
	DefaultCarrierGHz = 20.0
	// DefaultSpacingWavelengths is half-wavelength element spacing.
	DefaultSpacingWavelengths = 0.5
)

// Terminal is a ground user served by the satellite.
type Terminal struct {
	Name     string
	Position Vec3
}

// NewTerminal places a terminal on the spherical Earth.
func NewTerminal(name string, latDeg, lonDeg, altKm float64) Terminal {
	return Terminal{Name: name, Position: GeodeticToECEF(latDeg, lonDeg, altKm)}
}

// LineOfSight builds a deterministic free-space channel from a satellite
// carrying a nadir-pointing uniform planar array to a set of ground terminals.
// Elements are isotropic; each entry is a free-space amplitude times the
// array steering phase towards the terminal. The result is normalised to unit
// average power.
type LineOfSight struct {
	Ephemeris          Ephemeris
	Epoch              time.Time
	Terminals          []Terminal
	CarrierGHz         float64
	SpacingWavelengths float64
	MinElevationDeg    float64
}

// AtEpoch returns a copy of l evaluated at t.
func (l LineOfSight) AtEpoch(t time.Time) LineOfSight {
	l.Epoch = t
	return l
}

// Wavelength returns the carrier wavelength in metres.
func (l LineOfSight) Wavelength() float64 {
	ghz := l.CarrierGHz
	if ghz <= 0 {
		ghz = DefaultCarrierGHz
	}
	return speedOfLight / (ghz * 1e9)
}

// Elevations returns each terminal's elevation towards the satellite at the
// configured epoch.
func (l LineOfSight) Elevations() ([]float64, error) {
	if l.Ephemeris == nil {
		return nil, fmt.Errorf("line-of-sight channel has no ephemeris")
	}
	sat, err := l.Ephemeris.PositionAt(l.Epoch)
	if err != nil {
		return nil, fmt.Errorf("satellite position at %s: %w", l.Epoch.Format(time.RFC3339), err)
	}
	out := make([]float64, len(l.Terminals))
	for i, term := range l.Terminals {
		out[i] = ElevationDegrees(term.Position, sat)
	}
	return out, nil
}

// Generate implements core.ChannelModel. Every terminal must be above the
// elevation mask with an unobstructed path.
func (l LineOfSight) Generate(ctx context.Context, cfg model.ScenarioConfig) (*model.ChannelMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(l.Terminals) != cfg.Users() {
		return nil, fmt.Errorf("line-of-sight channel has %d terminals for %d users", len(l.Terminals), cfg.Users())
	}
	if l.Ephemeris == nil {
		return nil, fmt.Errorf("line-of-sight channel has no ephemeris")
	}
	sat, err := l.Ephemeris.PositionAt(l.Epoch)
	if err != nil {
		return nil, fmt.Errorf("satellite position at %s: %w", l.Epoch.Format(time.RFC3339), err)
	}

	xAxis, yAxis := arrayAxes(sat)
	spacing := l.SpacingWavelengths
	if spacing <= 0 {
		spacing = DefaultSpacingWavelengths
	}
	lambda := l.Wavelength()
	horizontal, vertical := cfg.HorizontalElements(), cfg.VerticalElements()

	data := make([]complex128, 0, cfg.Users()*cfg.Antennas())
	for _, term := range l.Terminals {
		elev := ElevationDegrees(term.Position, sat)
		if elev < l.MinElevationDeg || !hasLineOfSight(term.Position, sat) {
			return nil, fmt.Errorf("terminal %q sees the satellite at %.2f° elevation, below the %.2f° mask",
				term.Name, elev, l.MinElevationDeg)
		}
		path := term.Position.Sub(sat)
		distM := path.Norm() * 1000
		amp := lambda / (4 * math.Pi * distM)
		dir := path.Unit()
		ux, uy := dir.Dot(xAxis), dir.Dot(yAxis)

		// Element (row, col) sits at index row*horizontal + col.
		for row := 0; row < vertical; row++ {
			for col := 0; col < horizontal; col++ {
				phase := 2 * math.Pi * spacing * (float64(col)*ux + float64(row)*uy)
				data = append(data, complex(amp, 0)*cmplx.Exp(complex(0, -phase)))
			}
		}
	}

	h, err := model.NewChannelMatrix(cfg.Users(), cfg.Antennas(), data)
	if err != nil {
		return nil, err
	}
	return NormalizeUnitPower(h)
}

// arrayAxes returns the in-plane axes of a nadir-pointing array at sat: x
// points roughly east, y completes the right-handed frame with the nadir.
func arrayAxes(sat Vec3) (x, y Vec3) {
	nadir := sat.Scale(-1).Unit()
	x = Vec3{Z: 1}.Cross(nadir).Unit()
	if x.Norm() == 0 {
		x = Vec3{X: 1}
	}
	y = nadir.Cross(x)
	return x, y
}
