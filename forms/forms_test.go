package forms

import (
	"math"
	"testing"
)

const earthMu = 398600441800000.0

func TestCartesianKeplerianRoundTrip(t *testing.T) {
	cart := [6]float64{7000000, 0, 0, 0, 7350, 1000}

	kep, err := Cartesian.ConvertTo(cart, earthMu, Keplerian)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Keplerian.ConvertTo(kep, earthMu, Cartesian)
	if err != nil {
		t.Fatal(err)
	}

	for i := range cart {
		if math.Abs(back[i]-cart[i]) > 1e-3 {
			t.Errorf("back[%d] = %v, want %v", i, back[i], cart[i])
		}
	}
}

func TestKeplerianEccentricMeanRoundTrip(t *testing.T) {
	kep := [6]float64{7000000, 0.01, 0.9, 1.2, 0.5, 2.3}

	mean, err := Keplerian.ConvertTo(kep, earthMu, KeplerianMean)
	if err != nil {
		t.Fatal(err)
	}
	back, err := KeplerianMean.ConvertTo(mean, earthMu, Keplerian)
	if err != nil {
		t.Fatal(err)
	}

	for i := range kep {
		if math.Abs(back[i]-kep[i]) > 1e-9 {
			t.Errorf("back[%d] = %v, want %v", i, back[i], kep[i])
		}
	}
}

func TestKeplerianCircularRoundTrip(t *testing.T) {
	kep := [6]float64{7000000, 0.001, 0.9, 1.2, 0.5, 2.3}

	circ, err := Keplerian.ConvertTo(kep, earthMu, KeplerianCircular)
	if err != nil {
		t.Fatal(err)
	}
	back, err := KeplerianCircular.ConvertTo(circ, earthMu, Keplerian)
	if err != nil {
		t.Fatal(err)
	}

	for i := range kep {
		if math.Abs(back[i]-kep[i]) > 1e-9 {
			t.Errorf("back[%d] = %v, want %v", i, back[i], kep[i])
		}
	}
}

func TestTLEKeplerianMeanRoundTrip(t *testing.T) {
	kep := [6]float64{7000000, 0.001, 0.9, 1.2, 0.5, 2.3}

	tle, err := KeplerianMean.ConvertTo(kep, earthMu, TLE)
	if err != nil {
		t.Fatal(err)
	}
	back, err := TLE.ConvertTo(tle, earthMu, KeplerianMean)
	if err != nil {
		t.Fatal(err)
	}

	for i := range kep {
		if math.Abs(back[i]-kep[i]) > 1e-6 {
			t.Errorf("back[%d] = %v, want %v", i, back[i], kep[i])
		}
	}
}

func TestCartesianSphericalRoundTrip(t *testing.T) {
	cart := [6]float64{7000000, 1500000, 200000, -100, 7000, 1200}

	sphe, err := Cartesian.ConvertTo(cart, earthMu, Spherical)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Spherical.ConvertTo(sphe, earthMu, Cartesian)
	if err != nil {
		t.Fatal(err)
	}

	for i := range cart {
		if math.Abs(back[i]-cart[i]) > 1e-6 {
			t.Errorf("back[%d] = %v, want %v", i, back[i], cart[i])
		}
	}
}

func TestConvertToThroughMultipleHops(t *testing.T) {
	cart := [6]float64{7000000, 0, 0, 0, 7350, 1000}
	m, err := Cartesian.ConvertTo(cart, earthMu, KeplerianMean)
	if err != nil {
		t.Fatal(err)
	}
	back, err := KeplerianMean.ConvertTo(m, earthMu, Cartesian)
	if err != nil {
		t.Fatal(err)
	}
	for i := range cart {
		if math.Abs(back[i]-cart[i]) > 1e-3 {
			t.Errorf("back[%d] = %v, want %v", i, back[i], cart[i])
		}
	}
}

func TestGetUnknownForm(t *testing.T) {
	if _, err := Get("NOPE"); err == nil {
		t.Fatal("expected an error for an unknown form")
	}
}

func TestKeplerianMeanCircularRoundTrip(t *testing.T) {
	mean := [6]float64{7000000, 0.001, 0.9, 1.2, 0.5, 2.3}

	circ, err := KeplerianMean.ConvertTo(mean, earthMu, KeplerianMeanCircular)
	if err != nil {
		t.Fatal(err)
	}
	back, err := KeplerianMeanCircular.ConvertTo(circ, earthMu, KeplerianMean)
	if err != nil {
		t.Fatal(err)
	}

	for i := range mean {
		if math.Abs(back[i]-mean[i]) > 1e-9 {
			t.Errorf("back[%d] = %v, want %v", i, back[i], mean[i])
		}
	}
}

func TestKeplerianEquinoctialRoundTrip(t *testing.T) {
	kep := [6]float64{7000000, 0.01, 0.9, 1.2, 0.5, 2.3}

	equi, err := Keplerian.ConvertTo(kep, earthMu, Equinoctial)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Equinoctial.ConvertTo(equi, earthMu, Keplerian)
	if err != nil {
		t.Fatal(err)
	}

	for i := range kep {
		if math.Abs(back[i]-kep[i]) > 1e-9 {
			t.Errorf("back[%d] = %v, want %v", i, back[i], kep[i])
		}
	}
}

func TestCartesianCylindricalRoundTrip(t *testing.T) {
	cart := [6]float64{7000000, 1500000, 200000, -100, 7000, 1200}

	cyl, err := Cartesian.ConvertTo(cart, earthMu, Cylindrical)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Cylindrical.ConvertTo(cyl, earthMu, Cartesian)
	if err != nil {
		t.Fatal(err)
	}

	for i := range cart {
		if math.Abs(back[i]-cart[i]) > 1e-6 {
			t.Errorf("back[%d] = %v, want %v", i, back[i], cart[i])
		}
	}
}

func TestMeanToEccentricAnomalyCircular(t *testing.T) {
	e := MeanToEccentricAnomaly(0, 1.5)
	if math.Abs(e-1.5) > 1e-9 {
		t.Errorf("E = %v, want 1.5 for a circular orbit", e)
	}
}
