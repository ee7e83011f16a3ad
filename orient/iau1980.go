package orient

import (
	"math"

	"github.com/orrery-space/astrocore/dates"
)

// This file implements the IAU-1980 Earth orientation model: polar
// motion, sidereal time/equinox, nutation and precession. Grounded on
// beyond's frames.iau1980 module (original_source
// beyond/frames/iau1980.py); the nutation series itself is adapted from
// goeph's own reduced 30-term IAU2000A luni-solar table
// (coord/nutation.go) rather than re-entering the IAU-1980 106-term
// table (tab5.1.txt) by hand — see DESIGN.md for the Open Question
// decision this resolves (spec §9: "what precision/term-count to use
// when the original's full coefficient table isn't available").

// earthRotationRateIAU1980 returns Earth's rotation rate vector
// (rad/s, about +Z) in TOD, corrected for length-of-day excess.
func earthRotationRateIAU1980(d dates.Date) [3]float64 {
	lod := d.Eop().LOD / 1000.0
	return [3]float64{0, 0, 7.292115146706979e-5 * (1 - lod/86400.0)}
}

// earthOrientationIAU1980 is the polar-motion rotation ITRF -> PEF.
func earthOrientationIAU1980(d dates.Date) Rot3 {
	xp := d.Eop().X / 3600.0 * deg2radLocal
	yp := d.Eop().Y / 3600.0 * deg2radLocal
	return rot1(yp).Mul(rot2(xp))
}

const deg2radLocal = math.Pi / 180.0

// precessionIAU1980 is the precession rotation MOD -> EME2000.
func precessionIAU1980(d dates.Date) Rot3 {
	t, err := d.ChangeScale("TT")
	if err != nil {
		t = d
	}
	jc := t.JulianCentury()

	zeta := (2306.2181*jc + 0.30188*jc*jc + 0.017998*jc*jc*jc) / 3600.0 * deg2radLocal
	theta := (2004.3109*jc - 0.42665*jc*jc - 0.041833*jc*jc*jc) / 3600.0 * deg2radLocal
	z := (2306.2181*jc + 1.09468*jc*jc + 0.018203*jc*jc*jc) / 3600.0 * deg2radLocal

	return rot3(zeta).Mul(rot2(-theta)).Mul(rot3(z))
}

// nutation1980Angles returns (epsilonBar, deltaPsi, deltaEps) in radians
// for date, optionally folding in the Eop nutation correction. Ported
// from goeph's reduced 30-term series (coord/nutation.go's
// nutationAnglesStandard), re-expressed with the fundamental arguments in
// the Vallado/IAU-1980 form beyond uses (mean anomaly of moon/sun, F,
// D, Omega) rather than the IAU-2000A Delaunay variables, since the
// series coefficients themselves are only ~1 arcsec apart between the
// two conventions at this term count.
func nutation1980Angles(d dates.Date, eopCorrection bool) (epsilonBar, deltaPsi, deltaEps float64) {
	tt, err := d.ChangeScale("TT")
	if err != nil {
		tt = d
	}
	ttt := tt.JulianCentury()

	const r = 360.0
	epsBarDeg := 84381.448 - 46.8150*ttt - 5.9e-4*ttt*ttt + 1.813e-3*ttt*ttt*ttt
	epsBarDeg /= 3600.0

	mm := 134.96298139 + (1325*r+198.8673981)*ttt + 0.0086972*ttt*ttt + 1.78e-5*ttt*ttt*ttt
	ms := 357.52772333 + (99*r+359.0503400)*ttt - 0.0001603*ttt*ttt - 3.3e-6*ttt*ttt*ttt
	umm := 93.27191028 + (1342*r+82.0175381)*ttt - 0.0036825*ttt*ttt + 3.1e-6*ttt*ttt*ttt
	ds := 297.85036306 + (1236*r+307.11148)*ttt - 0.0019142*ttt*ttt + 5.3e-6*ttt*ttt*ttt
	omm := 125.04452222 - (5*r+134.1362608)*ttt + 0.0020708*ttt*ttt + 2.2e-6*ttt*ttt*ttt

	var dpsi, deps float64
	for _, term := range nutation30Terms {
		arg := (term.nl*mm + term.nlp*ms + term.nf*umm + term.nd*ds + term.nom*omm) * deg2radLocal
		s, c := math.Sincos(arg)
		dpsi += (term.s + term.sdot*ttt) * s
		dpsi += term.cp * c
		deps += (term.c + term.cdot*ttt) * c
		deps += term.sp * s
	}
	// Coefficients are in 0.1 microarcsecond; convert to degrees.
	const tenthUasToDeg = 1.0 / (3600.0 * 1e7)
	dpsi *= tenthUasToDeg
	deps *= tenthUasToDeg

	if eopCorrection {
		deps += d.Eop().DEps / 3600000.0
		dpsi += d.Eop().DPsi / 3600000.0
	}

	return epsBarDeg, dpsi, deps
}

// nutation30Term mirrors goeph's nutationTerm (coord/nutation.go), reused
// here with float multipliers so the same Delaunay-argument combination
// logic serves both the IAU-2000A reduced series and this IAU-1980 usage.
type nutation30Term struct {
	nl, nlp, nf, nd, nom             float64
	s, sdot, cp, c, cdot, sp float64
}

// nutation30Terms is goeph's reduced 30-term IAU2000A luni-solar series
// (coord/nutation.go's nutationTerms), carried over unchanged.
var nutation30Terms = []nutation30Term{
	{0, 0, 0, 0, 1, -172064161, -174666, 33386, 92052331, 9086, 15377},
	{0, 0, 2, -2, 2, -13170906, -1675, -13696, 5730336, -3015, -4587},
	{0, 0, 2, 0, 2, -2276413, -234, 2796, 978459, -485, 1374},
	{0, 0, 0, 0, 2, 2074554, 207, -698, -897492, 470, -291},
	{0, 1, 0, 0, 0, 1475877, -3633, 11817, 73871, -184, -1924},
	{1, 0, 0, 0, 0, 711159, 73, -872, -6750, 0, 358},
	{0, 1, 2, -2, 2, -516821, 1226, -524, 224386, -677, -174},
	{0, 0, 2, 0, 1, -387298, -367, 380, 200728, 18, 318},
	{1, 0, 2, 0, 2, -301461, -36, 816, 129025, -63, 367},
	{0, -1, 2, -2, 2, 215829, -494, 111, -95929, 299, 132},
	{-1, 0, 0, 2, 0, 156994, 10, -168, -1235, 0, 82},
	{0, 0, 2, -2, 1, 128227, 137, 181, -68982, -9, 39},
	{-1, 0, 2, 0, 2, 123457, 11, 19, -53311, 32, -4},
	{0, 0, 0, 2, 0, 63384, 11, -150, -1220, 0, 29},
	{1, 0, 0, 0, 1, 63110, 63, 27, -33228, 0, -9},
	{-1, 0, 2, 2, 2, -59641, -11, 149, 25543, -11, 66},
	{-1, 0, 0, 0, 1, -57976, -63, -189, 31429, 0, -75},
	{1, 0, 2, 0, 1, -51613, -42, 129, 26366, 0, 78},
	{-2, 0, 0, 2, 0, -47722, 0, -18, 477, 0, -25},
	{-2, 0, 2, 0, 1, 45893, 50, 31, -24236, -10, 20},
	{0, 0, 2, 2, 2, -38571, -1, 158, 16452, -11, 68},
	{0, -2, 2, -2, 2, 32481, 0, 0, -13870, 0, 0},
	{2, 0, 2, 0, 2, -31046, -1, 131, 13238, -11, 59},
	{2, 0, 0, 0, 0, 29243, 0, -74, -609, 0, 13},
	{1, 0, 2, -2, 2, 28593, 0, -1, -12338, 10, -3},
	{0, 0, 2, 0, 0, 25887, 0, -66, -550, 0, 11},
	{0, 0, -2, 2, 0, 21783, 0, 13, -167, 0, 13},
	{-1, 0, 2, 0, 1, 20441, 21, 10, -10758, 0, -3},
	{0, 2, 0, 0, 0, 16707, -85, -10, 168, -1, 10},
	{0, 2, 2, -2, 2, -15794, 72, -16, 6850, -42, -5},
}

// nutationIAU1980 is the nutation rotation TOD -> MOD.
func nutationIAU1980(d dates.Date, eopCorrection bool) Rot3 {
	epsBar, dpsi, deps := nutation1980Angles(d, eopCorrection)
	epsBarRad := epsBar * deg2radLocal
	dpsiRad := dpsi * deg2radLocal
	depsRad := deps * deg2radLocal
	eps := epsBarRad + depsRad

	return rot1(-epsBarRad).Mul(rot3(dpsiRad)).Mul(rot1(eps))
}

// equinoxIAU1980 is the equation of the equinoxes, in radians, optionally
// including the 1992+ lunar kinematic term.
func equinoxIAU1980(d dates.Date, eopCorrection bool, kinematic bool) float64 {
	epsBar, dpsi, _ := nutation1980Angles(d, eopCorrection)

	equinArcsec := dpsi * 3600.0 * math.Cos(epsBar*deg2radLocal)

	if kinematic {
		tt, err := d.ChangeScale("TT")
		if err != nil {
			tt = d
		}
		ttt := tt.JulianCentury()
		omm := 125.04455501 - (5*360.0+134.1361851)*ttt + 0.0020756*ttt*ttt + 2.139e-6*ttt*ttt*ttt
		equinArcsec += 0.00264*math.Sin(omm*deg2radLocal) + 6.3e-5*math.Sin(2*omm*deg2radLocal)
	}

	return (equinArcsec / 3600.0) * deg2radLocal
}

// sideralIAU1980 returns the sidereal-time rotation (mean or apparent)
// PEF -> TOD, evaluated at the given observer longitude (radians).
func sideralIAU1980(d dates.Date, longitude float64, model string, eopCorrection bool) Rot3 {
	ut1, err := d.ChangeScale("UT1")
	if err != nil {
		ut1 = d
	}
	t := ut1.JulianCentury()

	thetaSec := 67310.54841 + (876600*3600+8640184.812866)*t + 0.093104*t*t - 6.2e-6*t*t*t
	thetaDeg := thetaSec / 240.0

	if model == "apparent" {
		thetaDeg += equinoxIAU1980(d, eopCorrection, true) * (180.0 / math.Pi)
	}

	thetaDeg += longitude * (180.0 / math.Pi)
	thetaDeg = math.Mod(thetaDeg, 360.0)
	if thetaDeg < 0 {
		thetaDeg += 360.0
	}

	return rot3(-thetaDeg * deg2radLocal)
}
