package covariance

import (
	"math"
	"testing"
	"time"

	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/frames"
	"github.com/orrery-space/astrocore/orient"
	"github.com/orrery-space/astrocore/statevector"
)

func sampleOrbit(t *testing.T) *statevector.StateVector {
	t.Helper()
	d, err := dates.NewFromCalendar(2016, time.November, 17, 19, 16, 40, 0, "UTC")
	if err != nil {
		t.Fatal(err)
	}
	return statevector.New(d, [6]float64{7000000, 0, 0, 0, 7546.05329, 0}, forms.Cartesian, frames.EME2000)
}

func diagonalCov() [6][6]float64 {
	var m [6][6]float64
	for i := 0; i < 6; i++ {
		m[i][i] = float64(i + 1)
	}
	return m
}

func TestNewRejectsNonSymmetric(t *testing.T) {
	orb := sampleOrbit(t)
	m := diagonalCov()
	m[0][1] = 5
	m[1][0] = 7

	if _, err := New(orb, m, GlobalRef(frames.EME2000)); err == nil {
		t.Fatal("expected an error for a non-symmetric covariance")
	}
}

func TestChangeFrameIdentityNoOp(t *testing.T) {
	orb := sampleOrbit(t)
	m := diagonalCov()

	cov, err := New(orb, m, GlobalRef(frames.EME2000))
	if err != nil {
		t.Fatal(err)
	}
	if err := cov.ChangeFrame(GlobalRef(frames.EME2000)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			if math.Abs(cov.At(i, j)-m[i][j]) > 1e-9 {
				t.Errorf("cov[%d][%d] = %v, want %v", i, j, cov.At(i, j), m[i][j])
			}
		}
	}
}

func TestChangeFramePreservesSymmetry(t *testing.T) {
	orb := sampleOrbit(t)
	m := diagonalCov()
	m[0][3] = 0.5
	m[3][0] = 0.5

	cov, err := New(orb, m, GlobalRef(frames.EME2000))
	if err != nil {
		t.Fatal(err)
	}
	if err := cov.ChangeFrame(GlobalRef(frames.ITRF)); err != nil {
		t.Fatal(err)
	}

	out := cov.Matrix()
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			if math.Abs(out[i][j]-out[j][i]) > 1e-6 {
				t.Errorf("covariance is no longer symmetric at (%d,%d): %v vs %v", i, j, out[i][j], out[j][i])
			}
		}
	}
}

func TestChangeFrameRoundTrip(t *testing.T) {
	orb := sampleOrbit(t)
	m := diagonalCov()

	cov, err := New(orb, m, GlobalRef(frames.EME2000))
	if err != nil {
		t.Fatal(err)
	}
	if err := cov.ChangeFrame(GlobalRef(frames.ITRF)); err != nil {
		t.Fatal(err)
	}
	if err := cov.ChangeFrame(GlobalRef(frames.EME2000)); err != nil {
		t.Fatal(err)
	}

	out := cov.Matrix()
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			if math.Abs(out[i][j]-m[i][j]) > 1e-6 {
				t.Errorf("round trip cov[%d][%d] = %v, want %v", i, j, out[i][j], m[i][j])
			}
		}
	}
}

func TestChangeFrameToLocalQSW(t *testing.T) {
	orb := sampleOrbit(t)
	m := diagonalCov()

	cov, err := New(orb, m, GlobalRef(frames.EME2000))
	if err != nil {
		t.Fatal(err)
	}
	if err := cov.ChangeFrame(LocalRef(orient.QSW)); err != nil {
		t.Fatal(err)
	}
	if cov.Frame().Local != orient.QSW {
		t.Errorf("Frame().Local = %v, want QSW", cov.Frame().Local)
	}
}

func TestReframeDoesNotMutateOriginal(t *testing.T) {
	orb := sampleOrbit(t)
	m := diagonalCov()

	cov, err := New(orb, m, GlobalRef(frames.EME2000))
	if err != nil {
		t.Fatal(err)
	}
	reframed, err := cov.Reframe(orb, frames.ITRF)
	if err != nil {
		t.Fatal(err)
	}
	if cov.Frame().Frame != frames.EME2000 {
		t.Error("Reframe should not mutate the original covariance")
	}
	if reframed.(*Cov).Frame().Frame != frames.ITRF {
		t.Error("Reframe should return a covariance expressed in the target frame")
	}
}

func TestValidOnNilCov(t *testing.T) {
	var cov *Cov
	if cov.Valid() {
		t.Fatal("a nil *Cov should report Valid() == false")
	}
}
