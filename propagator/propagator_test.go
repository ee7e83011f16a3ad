package propagator

import (
	"encoding/binary"
	"math"
	"os"
	"testing"
	"time"

	"github.com/orrery-space/astrocore/bodies"
	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/spk"
	"github.com/orrery-space/astrocore/statevector"
)

func sampleDate(t *testing.T) dates.Date {
	t.Helper()
	d, err := dates.NewFromCalendar(2016, time.November, 17, 19, 16, 40, 0, "UTC")
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func circularLEO(t *testing.T, d dates.Date, propagator statevector.Propagator) *statevector.Orbit {
	t.Helper()
	return statevector.NewOrbit(d, [6]float64{7000000, 0, 0, 0, 7546.05329, 0}, forms.Cartesian, frames.EME2000, propagator)
}

func TestKeplerAdvancesMeanAnomalyOnly(t *testing.T) {
	d := sampleDate(t)
	// An inclined, slightly eccentric orbit starting at M = 0 keeps every
	// Keplerian angle well defined through the form conversions.
	orb := statevector.NewOrbit(d, [6]float64{7000000, 0.001, 0.9, 0, 0, 0}, forms.KeplerianMean, frames.EME2000, Kepler{})

	period, err := orb.Period()
	if err != nil {
		t.Fatal(err)
	}

	later, err := d.Add(period / 4)
	if err != nil {
		t.Fatal(err)
	}
	sv, err := orb.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}
	kep, err := sv.WithForm(forms.KeplerianMean)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(kep.Coord[5]-math.Pi/2) > 1e-6 {
		t.Errorf("mean anomaly after a quarter period = %v, want pi/2", kep.Coord[5])
	}
	if math.Abs(kep.Coord[0]-7000000) > 1e-3 {
		t.Errorf("semi-major axis drifted under pure Kepler propagation: %v", kep.Coord[0])
	}
}

func TestJ2DriftsRaanWestwardForPrograde(t *testing.T) {
	d := sampleDate(t)
	orb := statevector.NewOrbit(d, [6]float64{7000000, 0.001, 0.9, 0, 0, 0}, forms.Keplerian, frames.EME2000, J2{})

	later, err := d.Add(24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	sv, err := orb.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}
	kep, err := sv.WithForm(forms.KeplerianMean)
	if err != nil {
		t.Fatal(err)
	}
	// A prograde LEO inclination drifts the node westward (negative) under
	// J2; raan comes back in [0, 2pi), so read it as a signed angle.
	if drift := math.Remainder(kep.Coord[3], 2*math.Pi); drift >= 0 {
		t.Errorf("raan drift after a day = %v, want negative (westward) nodal regression", drift)
	}
}

func TestEcksteinHechlerPropagateReturnsCartesian(t *testing.T) {
	d := sampleDate(t)
	circular := statevector.NewOrbit(d, [6]float64{7000000, 0.001, 0.0005, 1.7, 0.3, 0.1}, forms.KeplerianCircular, frames.EME2000, EcksteinHechler{Osculating: false})

	later, err := d.Add(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	sv, err := circular.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}
	if sv.Form != forms.Cartesian {
		t.Errorf("Propagate should return a Cartesian state, got %v", sv.Form.Name())
	}
}

func TestEcksteinHechlerOsculatingDiffersFromMean(t *testing.T) {
	d := sampleDate(t)
	mean := statevector.NewOrbit(d, [6]float64{7000000, 0.001, 0.0005, 1.7, 0.3, 0.1}, forms.KeplerianCircular, frames.EME2000, EcksteinHechler{Osculating: false})
	osc := statevector.NewOrbit(d, [6]float64{7000000, 0.001, 0.0005, 1.7, 0.3, 0.1}, forms.KeplerianCircular, frames.EME2000, EcksteinHechler{Osculating: true})

	later, err := d.Add(10 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	svMean, err := mean.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}
	svOsc, err := osc.Propagate(later)
	if err != nil {
		t.Fatal(err)
	}
	if svMean.Coord == svOsc.Coord {
		t.Error("osculating propagation should differ from the pure mean-element propagation")
	}
}

func TestFitMeanRecoversConstantOrbit(t *testing.T) {
	d := sampleDate(t)
	orb := statevector.NewOrbit(d, [6]float64{7000000, 0.001, 0.0005, 1.7, 0.3, 0.1}, forms.KeplerianCircular, frames.EME2000, EcksteinHechler{Osculating: false})

	var samples []*statevector.StateVector
	for i := 0; i < 5; i++ {
		sd, err := d.Add(time.Duration(i) * 10 * time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		sv, err := orb.Propagate(sd)
		if err != nil {
			t.Fatal(err)
		}
		samples = append(samples, sv)
	}

	fit, err := FitMean(samples, frames.EME2000.Center)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(fit.Coord[0]-7000000) > 10 {
		t.Errorf("fitted semi-major axis = %v, want close to 7000000", fit.Coord[0])
	}
}

func TestSGP4PropagatesISSTLE(t *testing.T) {
	line1 := "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	line2 := "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
	prop := NewSGP4(line1, line2)

	d, err := dates.NewFromCalendar(2008, time.September, 20, 14, 26, 52, 0, "UTC")
	if err != nil {
		t.Fatal(err)
	}
	sv, err := prop.Propagate(nil, d)
	if err != nil {
		t.Fatal(err)
	}
	if sv.Frame != frames.TEME {
		t.Errorf("SGP4 should return a TEME state, got %v", sv.Frame.Name())
	}
	r := math.Sqrt(sv.Coord[0]*sv.Coord[0] + sv.Coord[1]*sv.Coord[1] + sv.Coord[2]*sv.Coord[2])
	if r < 6.6e6 || r > 7.2e6 {
		t.Errorf("ISS radius out of LEO range: %v m", r)
	}
}

func TestSunAnalyticDistanceNearOneAU(t *testing.T) {
	d := sampleDate(t)
	sv, err := (SunAnalytic{}).Propagate(nil, d)
	if err != nil {
		t.Fatal(err)
	}
	r := math.Sqrt(sv.Coord[0]*sv.Coord[0] + sv.Coord[1]*sv.Coord[1] + sv.Coord[2]*sv.Coord[2])
	if math.Abs(r-bodies.AU) > 0.02*bodies.AU {
		t.Errorf("Sun distance = %v, want within 2%% of 1 AU", r)
	}
}

func TestMoonAnalyticDistanceInRange(t *testing.T) {
	d := sampleDate(t)
	sv, err := (MoonAnalytic{}).Propagate(nil, d)
	if err != nil {
		t.Fatal(err)
	}
	r := math.Sqrt(sv.Coord[0]*sv.Coord[0] + sv.Coord[1]*sv.Coord[1] + sv.Coord[2]*sv.Coord[2])
	if r < 3.5e8 || r > 4.1e8 {
		t.Errorf("Moon distance out of range: %v m", r)
	}
}

// minimalSeg is one constant-position body relative to the SSB for
// writeMinimalSPK.
type minimalSeg struct {
	target int
	pos    [3]float64
}

// writeMinimalSPK hand-assembles a constant-position Type 2 DAF/SPK file
// with one segment per entry in segs, all centered on the SSB. It exercises
// the same file-parsing path a real JPL kernel would, without needing one
// on disk, so JPLKernel's wiring into spk.Observe can be tested here
// directly. spk.Observe always measures from Earth, so a segment for
// spk.Earth must be included alongside whatever body is being propagated.
func writeMinimalSPK(t *testing.T, segs []minimalSeg) string {
	t.Helper()

	const recordLen = 1024
	const nd, ni = 2, 6
	const nCoeffs = 1
	const rsize = 3*nCoeffs + 2 // Type 2: 2 header words + 3*nCoeffs position
	const totalWords = rsize + 4

	fileRec := make([]byte, recordLen)
	copy(fileRec[0:8], "DAF/SPK ")
	binary.LittleEndian.PutUint32(fileRec[8:12], nd)
	binary.LittleEndian.PutUint32(fileRec[12:16], ni)
	binary.LittleEndian.PutUint32(fileRec[76:80], 2) // FWARD: summary record 2

	var data []byte
	putFloat := func(v float64) {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		data = append(data, buf[:]...)
	}

	firstDataWord := 2 * (recordLen / 8)
	startWords := make([]int, len(segs))
	for i, seg := range segs {
		startWords[i] = firstDataWord + len(data)/8 + 1
		putFloat(0) // MID (unused)
		putFloat(0) // RADIUS (unused)
		putFloat(seg.pos[0])
		putFloat(seg.pos[1])
		putFloat(seg.pos[2])
		putFloat(0)     // INIT: covers the whole query range from t=0
		putFloat(1e9)   // INTLEN
		putFloat(rsize) // RSIZE
		putFloat(1)     // N: one record
	}

	summaryRec := make([]byte, recordLen)
	// NEXT and PREV (bytes 0:8, 8:16) stay zero: one summary record, no chaining.
	binary.LittleEndian.PutUint64(summaryRec[16:24], math.Float64bits(float64(len(segs)))) // NSUM

	pos := 24
	const summaryBytes = 40 // (nd=2 doubles + ceil(ni/2)=3 doubles) * 8
	for i, seg := range segs {
		binary.LittleEndian.PutUint64(summaryRec[pos:pos+8], math.Float64bits(-5e8))
		binary.LittleEndian.PutUint64(summaryRec[pos+8:pos+16], math.Float64bits(5e8))
		intOff := pos + nd*8
		binary.LittleEndian.PutUint32(summaryRec[intOff:], uint32(int32(seg.target)))
		binary.LittleEndian.PutUint32(summaryRec[intOff+4:], uint32(int32(spk.SSB)))
		binary.LittleEndian.PutUint32(summaryRec[intOff+8:], 1)  // frame, unused by Open
		binary.LittleEndian.PutUint32(summaryRec[intOff+12:], 2) // dataType: Type 2
		binary.LittleEndian.PutUint32(summaryRec[intOff+16:], uint32(int32(startWords[i])))
		binary.LittleEndian.PutUint32(summaryRec[intOff+20:], uint32(int32(startWords[i]+totalWords-1)))
		pos += summaryBytes
	}

	f, err := os.CreateTemp("", "jplkernel*.bsp")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	defer f.Close()
	if _, err := f.Write(fileRec); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(summaryRec); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func TestJPLKernelPropagatesFromSPKObserve(t *testing.T) {
	earthPos := [3]float64{1.496e8, -2.0e7, 0.8e7}
	sunPos := [3]float64{696000, 50000, 20000}
	path := writeMinimalSPK(t, []minimalSeg{
		{target: spk.Earth, pos: earthPos},
		{target: spk.Sun, pos: sunPos},
	})

	eph, err := spk.Open(path)
	if err != nil {
		t.Fatal(err)
	}

	p := JPLKernel{SPK: eph, TargetID: spk.Sun, Frame: frames.EME2000}
	sv, err := p.Propagate(nil, sampleDate(t))
	if err != nil {
		t.Fatal(err)
	}

	want := [3]float64{
		(sunPos[0] - earthPos[0]) * 1000,
		(sunPos[1] - earthPos[1]) * 1000,
		(sunPos[2] - earthPos[2]) * 1000,
	}
	for i := 0; i < 3; i++ {
		if math.Abs(sv.Coord[i]-want[i]) > 1e-6 {
			t.Errorf("coord[%d] = %v, want %v", i, sv.Coord[i], want[i])
		}
	}
	for i := 3; i < 6; i++ {
		if sv.Coord[i] != 0 {
			t.Errorf("coord[%d] = %v, want 0 (JPLKernel leaves velocity zero)", i, sv.Coord[i])
		}
	}
}

func TestJPLKernelNoSPKReturnsError(t *testing.T) {
	p := JPLKernel{TargetID: spk.Earth}
	if _, err := p.Propagate(nil, sampleDate(t)); err == nil {
		t.Fatal("expected an error when no SPK file is loaded")
	}
}
