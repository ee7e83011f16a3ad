package orient

import (
	"math"

	"github.com/orrery-space/astrocore/dates"
)

// This file implements the IAU-2010 Earth orientation model: polar
// motion, Earth rotation angle, and CIO-based precession-nutation (X, Y,
// s). Grounded on beyond's frames.iau2010 module (original_source
// beyond/frames/iau2010.py).
//
// beyond's _xysxy2 sums three large planetary-argument series
// (tab5.2a/b/d, thousands of terms total) on top of a degree-5
// polynomial in TT Julian centuries. Those tables are not available in
// this module's sources, so precessionNutationIAU2010 here keeps only
// the polynomial term (the periodic terms, several arcseconds in
// amplitude, are left out, a coarser reduction than the 30-term
// IAU-1980 nutation series in iau1980.go) plus the full EOP dX/dY
// correction beyond always applies on top of the table sum — recorded in
// DESIGN.md as the matching Open Question decision for the IAU-2010
// orientation.

// earthOrientationIAU2010 is the polar-motion rotation ITRF -> TIRF,
// including the 2010 model's TIO locator s'.
func earthOrientationIAU2010(d dates.Date) Rot3 {
	tt, err := d.ChangeScale("TT")
	if err != nil {
		tt = d
	}
	ttt := tt.JulianCentury()
	sPrimeDeg := -0.000047 * ttt / 3600.0

	xp := d.Eop().X / 3600.0 * deg2radLocal
	yp := d.Eop().Y / 3600.0 * deg2radLocal
	sPrime := sPrimeDeg * deg2radLocal

	return rot3(-sPrime).Mul(rot2(xp)).Mul(rot1(yp))
}

// earthRotationRateIAU2010 returns Earth's rotation rate vector
// (rad/s, about +Z), corrected for length-of-day excess.
func earthRotationRateIAU2010(d dates.Date) [3]float64 {
	lod := d.Eop().LOD / 1000.0
	return [3]float64{0, 0, 7.292115146706979e-5 * (1 - lod/86400.0)}
}

// sideralIAU2010 is the Earth rotation angle rotation TIRF -> CIRF.
func sideralIAU2010(d dates.Date) Rot3 {
	ut1, err := d.ChangeScale("UT1")
	if err != nil {
		ut1 = d
	}
	jd := ut1.JD()
	theta := 2 * math.Pi * (0.779057273264 + 1.00273781191135448*(jd-2451545.0))
	return rot3(-theta)
}

// precessionNutationIAU2010 is the combined precession-nutation rotation
// CIRF -> GCRF, built from the CIP coordinates X, Y and the CIO locator
// s (§4.5's "precession-nutation via X, Y, s (IAU-2010)").
func precessionNutationIAU2010(d dates.Date) Rot3 {
	tt, err := d.ChangeScale("TT")
	if err != nil {
		tt = d
	}
	ttt := tt.JulianCentury()

	// Polynomial part, in micro-arcseconds (beyond's _xysxy2 leading terms).
	xUas := -16616.99 + 2004191742.88*ttt - 427219.05*ttt*ttt - 198620.54*ttt*ttt*ttt -
		46.05*ttt*ttt*ttt*ttt + 5.98*ttt*ttt*ttt*ttt*ttt
	yUas := -6950.78 - 25381.99*ttt - 22407250.99*ttt*ttt + 1842.28*ttt*ttt*ttt +
		1113.06*ttt*ttt*ttt*ttt + 0.99*ttt*ttt*ttt*ttt*ttt
	sXY2Uas := 94.0 + 3808.65*ttt - 122.68*ttt*ttt - 72574.11*ttt*ttt*ttt +
		27.98*ttt*ttt*ttt*ttt + 15.62*ttt*ttt*ttt*ttt*ttt

	xArcsec := xUas * 1e-6
	yArcsec := yUas * 1e-6
	sXY2Arcsec := sXY2Uas * 1e-6

	dxArcsec := d.Eop().DX / 1000.0
	dyArcsec := d.Eop().DY / 1000.0

	x := (xArcsec + dxArcsec) / 3600.0 * deg2radLocal
	y := (yArcsec + dyArcsec) / 3600.0 * deg2radLocal
	s := sXY2Arcsec/3600.0*deg2radLocal - (x*y)/2

	dSq := math.Sqrt((x*x + y*y) / (1 - x*x - y*y))
	dAng := math.Atan(dSq)
	a := 1 / (1 + math.Cos(dAng))

	pn := Rot3{
		{1 - a*x*x, -a * x * y, x},
		{-a * x * y, 1 - a*y*y, y},
		{-x, -y, 1 - a*(x*x+y*y)},
	}
	return pn.Mul(rot3(s))
}
