package frames

import (
	"math"
	"testing"
	"time"

	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/orient"
)

func sampleDate(t *testing.T) dates.Date {
	t.Helper()
	d, err := dates.NewFromCalendar(2016, time.November, 17, 19, 16, 40, 0, "UTC")
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestTransformStateIdentity(t *testing.T) {
	d := sampleDate(t)
	pv := [6]float64{7000000, 0, 0, 0, 7500, 0}
	out, err := EME2000.TransformState(d, pv, EME2000)
	if err != nil {
		t.Fatal(err)
	}
	for i := range pv {
		if math.Abs(out[i]-pv[i]) > 1e-6 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], pv[i])
		}
	}
}

func TestGetFrameUnknown(t *testing.T) {
	if _, err := GetFrame("NOPE"); err == nil {
		t.Fatal("expected an error for an unknown frame")
	}
}

func TestWGS84IsITRF(t *testing.T) {
	f, err := GetFrame("WGS84")
	if err != nil {
		t.Fatal(err)
	}
	if f != ITRF {
		t.Fatal("WGS84 should alias ITRF")
	}
}

func TestGeodeticToCartesianEquatorPoint(t *testing.T) {
	pos := geodeticToCartesian(0, 0, 0)
	if math.Abs(pos[2]) > 1e-6 {
		t.Errorf("a point on the equator should have z=0, got %v", pos[2])
	}
	if pos[0] <= 0 {
		t.Errorf("a point at lat=lon=0 should have positive x, got %v", pos[0])
	}
}

func TestNewStationRegistersAndConverts(t *testing.T) {
	st, err := NewStation("test-kourou", 5.25, -52.8, 0, ITRF, North)
	if err != nil {
		t.Fatal(err)
	}
	if st.Name() != "test-kourou" {
		t.Errorf("Name() = %q, want test-kourou", st.Name())
	}

	got, err := GetFrame("test-kourou")
	if err != nil {
		t.Fatal(err)
	}
	if got != st {
		t.Fatal("NewStation should register the frame by name")
	}

	d := sampleDate(t)
	out, err := st.TransformState(d, [6]float64{0, 0, 0, 0, 0, 0}, ITRF)
	if err != nil {
		t.Fatal(err)
	}
	// The station sits on the Earth's surface (altitude 0); its ITRF position
	// should not be the origin.
	norm := math.Sqrt(out[0]*out[0] + out[1]*out[1] + out[2]*out[2])
	if norm < 1e6 {
		t.Errorf("station ITRF offset magnitude = %v, want > 1e6", norm)
	}
}

type fakeOrbitRef struct {
	pv    [6]float64
	frame *Frame
}

func (f *fakeOrbitRef) At(d dates.Date) ([6]float64, error) { return f.pv, nil }
func (f *fakeOrbitRef) Frame() *Frame                       { return f.frame }

func TestNewOrbitAttachedQSW(t *testing.T) {
	ref := &fakeOrbitRef{
		pv:    [6]float64{7000000, 0, 0, 0, 7500, 0},
		frame: EME2000,
	}
	f, err := NewOrbitAttached("test-lof", ref, orient.QSW, EME2000)
	if err != nil {
		t.Fatal(err)
	}
	d := sampleDate(t)
	// Round-tripping the reference point itself should land at the
	// local frame's origin.
	out, err := EME2000.TransformState(d, ref.pv, f)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(out[i]) > 1e-3 {
			t.Errorf("out[%d] = %v, want ~0 at the reference point", i, out[i])
		}
	}
}
