package channel

import (
	"fmt"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// Ephemeris yields the transmitting satellite's ECEF position (km) at a given
// time.
type Ephemeris interface {
	PositionAt(t time.Time) (Vec3, error)
}

// EphemerisFunc adapts a function to Ephemeris.
type EphemerisFunc func(t time.Time) (Vec3, error)

// PositionAt calls f.
func (f EphemerisFunc) PositionAt(t time.Time) (Vec3, error) { return f(t) }

// StaticEphemeris keeps the satellite at a fixed position.
type StaticEphemeris struct {
	Position Vec3
}

// PositionAt returns the fixed position.
func (s StaticEphemeris) PositionAt(time.Time) (Vec3, error) {
	return s.Position, nil
}

// SGP4Ephemeris propagates a two-line element set with SGP4.
type SGP4Ephemeris struct {
	sat satellite.Satellite
}

// NewSGP4Ephemeris parses a TLE. Only the line structure is checked; the
// element values are trusted to go-satellite.
func NewSGP4Ephemeris(line1, line2 string) (*SGP4Ephemeris, error) {
	line1 = strings.TrimRight(line1, " \r\n")
	line2 = strings.TrimRight(line2, " \r\n")
	if len(line1) < 69 || len(line2) < 69 {
		return nil, fmt.Errorf("TLE lines must be 69 characters, got %d and %d", len(line1), len(line2))
	}
	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
		return nil, fmt.Errorf("TLE lines must start with \"1 \" and \"2 \"")
	}
	if line1[2:7] != line2[2:7] {
		return nil, fmt.Errorf("TLE catalog numbers differ: %q vs %q", line1[2:7], line2[2:7])
	}
	sat, err := parseTLE(line1, line2)
	if err != nil {
		return nil, err
	}
	return &SGP4Ephemeris{sat: sat}, nil
}

// parseTLE guards against go-satellite panicking on malformed numeric fields.
func parseTLE(line1, line2 string) (sat satellite.Satellite, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse TLE: %v", r)
		}
	}()
	return satellite.TLEToSat(line1, line2, satellite.GravityWGS72), nil
}

// PositionAt propagates the satellite to t and rotates the result into ECEF.
// go-satellite works in kilometres, matching Vec3.
func (e *SGP4Ephemeris) PositionAt(t time.Time) (Vec3, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(e.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	out := Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
	if !out.IsFinite() || out.Norm() <= EarthRadiusKm {
		return Vec3{}, fmt.Errorf("SGP4 propagation to %s produced an invalid position %+v", t.Format(time.RFC3339), out)
	}
	return out, nil
}
