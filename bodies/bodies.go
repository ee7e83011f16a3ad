// Package bodies describes the physical characteristics of celestial
// bodies that the rest of astrocore needs µ for: propagators (Kepler, J2,
// Eckstein-Hechler, n-body numeric), the form graph (perifocal conversions
// need µ of the center's body), and orientation providers (Earth's
// equatorial radius feeds topocentric geometry). Grounded on beyond's
// constants module (original_source beyond/constants.py) and goeph's own
// NAIF body-ID table (spk/bodies.go).
package bodies

import (
	"math"

	"github.com/orrery-space/astrocore/astroerr"
)

// G is the Newtonian gravitational constant, m³·kg⁻¹·s⁻².
const G = 6.6740831e-11

// SpeedOfLight is c, in m/s.
const SpeedOfLight = 299792458.0

// StandardGravity is g0, in m/s².
const StandardGravity = 9.80665

// AU is the IAU astronomical unit, in meters.
const AU = 149597870700.0

// Body is a celestial body descriptor: mass, equatorial radius, flattening
// and optional zonal harmonics. Mu, PolarRadius and Eccentricity are
// derived rather than stored, matching beyond's Body property methods.
type Body struct {
	Name             string
	Mass             float64 // kg
	EquatorialRadius float64 // m
	Flattening       float64 // dimensionless, 0 for a sphere
	J2               float64 // dimensionless zonal harmonic, 0 if unknown
	J3               float64

	// NAIFID is the body's identifier in JPL SPK kernels, 0 if not
	// applicable (spk.Sun, spk.Earth, ... from goeph's spk package).
	NAIFID int
}

// Mu returns the body's standard gravitational parameter, mass·G, in
// m³/s².
func (b Body) Mu() float64 { return b.Mass * G }

// PolarRadius returns the body's polar radius given its flattening.
func (b Body) PolarRadius() float64 { return b.EquatorialRadius * (1 - b.Flattening) }

// Eccentricity returns the body's oblate-spheroid eccentricity,
// sqrt(2f - f²).
func (b Body) Eccentricity() float64 {
	f := b.Flattening
	return math.Sqrt(f*2 - f*f)
}

// Well-known bodies, values from beyond's constants module.
var (
	Earth = Body{
		Name:             "Earth",
		Mass:             5.97237e24,
		EquatorialRadius: 6378136.3,
		Flattening:       1.0 / 298.257223563,
		J2:               1.08262668355315130e-3,
		J3:               -2.532243534e-6,
		NAIFID:           399,
	}
	Moon = Body{
		Name:             "Moon",
		Mass:             7.342e22,
		EquatorialRadius: 1738100,
		Flattening:       0.0012,
		NAIFID:           301,
	}
	Sun = Body{
		Name:             "Sun",
		Mass:             1.98855e30,
		EquatorialRadius: 695700000,
		Flattening:       9e-6,
		NAIFID:           10,
	}
	Mars = Body{
		Name:             "Mars",
		Mass:             6.4171e23,
		EquatorialRadius: 3396200.0,
		NAIFID:           499,
	}
)

var byName = map[string]Body{
	"earth": Earth,
	"moon":  Moon,
	"sun":   Sun,
	"mars":  Mars,
}

// Register installs (or overrides) a body under its own name, so the
// solar-system analytic propagator and JPL-kernel loader can add bodies
// not built in (Venus, Jupiter, ...) without modifying this package.
func Register(b Body) {
	byName[lower(b.Name)] = b
}

// Get resolves a body by name (case-insensitive).
func Get(name string) (Body, error) {
	b, ok := byName[lower(name)]
	if !ok {
		return Body{}, astroerr.NewUnknown(astroerr.UnknownBody, name)
	}
	return b, nil
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
