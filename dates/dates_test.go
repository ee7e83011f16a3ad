package dates

import (
	"testing"
	"time"

	"github.com/orrery-space/astrocore/eop"
)

func TestOffsetUTCtoTAI(t *testing.T) {
	scaleUTC, err := GetScale("utc")
	if err != nil {
		t.Fatal(err)
	}
	scaleTAI, err := GetScale("TAI")
	if err != nil {
		t.Fatal(err)
	}

	// No Eop database is registered in this test binary, so eop.Get falls
	// back to Zero under the default Pass policy: TAIUTC = 0 in that
	// record, and the UTC->TAI path is the single TAI-UTC edge.
	offset, err := scaleUTC.Offset(58000, scaleTAI, eop.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if offset != 0 {
		t.Errorf("UTC->TAI offset with zero Eop = %v, want 0", offset)
	}
}

func TestOffsetTTtoTAIisFixed(t *testing.T) {
	tt, _ := GetScale("TT")
	tai, _ := GetScale("TAI")
	offset, err := tt.Offset(58000, tai, eop.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if offset != -32.184 {
		t.Errorf("TT->TAI offset = %v, want -32.184", offset)
	}
	reverse, err := tai.Offset(58000, tt, eop.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if reverse != 32.184 {
		t.Errorf("TAI->TT offset = %v, want 32.184", reverse)
	}
}

func TestGetScaleUnknown(t *testing.T) {
	if _, err := GetScale("XYZ"); err == nil {
		t.Fatal("expected an error for an unknown scale name")
	}
}

func TestNewFromCalendarRoundTrip(t *testing.T) {
	dt, err := NewFromCalendar(2016, time.November, 17, 19, 16, 40, 0, "UTC")
	if err != nil {
		t.Fatal(err)
	}
	got := dt.Time()
	want := time.Date(2016, time.November, 17, 19, 16, 40, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Time() = %v, want %v", got, want)
	}
}

func TestDateAddAndSub(t *testing.T) {
	a, err := NewFromMJD(58000.0, "TAI")
	if err != nil {
		t.Fatal(err)
	}
	b, err := a.Add(24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if diff := b.Sub(a); diff != 24*time.Hour {
		t.Errorf("Sub after Add(24h) = %v, want 24h", diff)
	}
	if !a.Before(b) || !b.After(a) {
		t.Error("Before/After ordering wrong")
	}
}

func TestRange(t *testing.T) {
	start, err := NewFromMJD(58000.0, "UTC")
	if err != nil {
		t.Fatal(err)
	}
	dates, err := Range(start, time.Hour, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 5 {
		t.Fatalf("Range returned %d dates, want 5", len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if diff := dates[i].Sub(dates[i-1]); diff != time.Hour {
			t.Errorf("step %d: gap = %v, want 1h", i, diff)
		}
	}
}

func TestJulianCentury(t *testing.T) {
	// J2000.0 epoch: 2000-01-01T12:00:00 TT is julian century 0.
	dt, err := NewFromCalendar(2000, time.January, 1, 12, 0, 0, 0, "TT")
	if err != nil {
		t.Fatal(err)
	}
	if jc := dt.JulianCentury(); jc < -1e-6 || jc > 1e-6 {
		t.Errorf("JulianCentury at J2000 TT = %v, want ~0", jc)
	}
}
