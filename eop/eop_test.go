package eop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/orrery-space/astrocore/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// sample tai-utc.dat lines, fields: ... MJD-as-JD(field5) ... offset(field7)
const sampleTaiUtc = `1972 JAN  1 =JD 2441317.5  TAI-UTC=  10.0       S + (MJD - 41317.) X 0.0      S
1972 JUL  1 =JD 2441499.5  TAI-UTC=  11.0       S + (MJD - 41317.) X 0.0      S
2017 JAN  1 =JD 2457754.5  TAI-UTC=  37.0       S + (MJD - 41317.) X 0.0      S
`

func finalsLine(mjd int, x, y, ut1 float64) string {
	// Build a line wide enough to hit colD1End (106 cols), padding with
	// spaces; only the fixed columns this parser reads are populated.
	line := make([]byte, 130)
	for i := range line {
		line[i] = ' '
	}
	put := func(start, end int, s string) {
		copy(line[start:end], []byte(s))
	}
	put(colMJD, colMJDEnd, pad(mjd))
	put(colX, colXEnd, padf(x))
	put(colY, colYEnd, padf(y))
	put(colUT1, colUT1End, padf(ut1))
	return string(line)
}

func pad(v int) string {
	s := itoa(v)
	for len(s) < 8 {
		s = " " + s
	}
	return s
}

func padf(v float64) string {
	s := ftoa(v)
	for len(s) < 9 {
		s = " " + s
	}
	return s
}

func itoa(v int) string {
	return (func() string {
		b := []byte{}
		neg := v < 0
		if neg {
			v = -v
		}
		if v == 0 {
			return "0"
		}
		for v > 0 {
			b = append([]byte{byte('0' + v%10)}, b...)
			v /= 10
		}
		if neg {
			b = append([]byte{'-'}, b...)
		}
		return string(b)
	})()
}

func ftoa(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := int(v)
	frac := int((v - float64(whole)) * 1000)
	s := itoa(whole) + "." + itoa(frac)
	if neg {
		s = "-" + s
	}
	return s
}

func TestParseTaiUtc(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tai-utc.dat", sampleTaiUtc)

	tai, err := ParseTaiUtc(path)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		mjd  float64
		want float64
	}{
		{41317.0, 10},
		{41499.5, 11},
		{57754.5, 37},
		{57754.6, 37},
	}
	for _, tc := range tests {
		got, ok := tai.At(tc.mjd)
		if !ok {
			t.Fatalf("At(%v): no value", tc.mjd)
		}
		if got != tc.want {
			t.Errorf("At(%v) = %v, want %v", tc.mjd, got, tc.want)
		}
	}

	if _, ok := tai.At(41000); ok {
		t.Error("At(41000): expected no value before first step")
	}
}

func TestParseFinalsAndFileDatabase(t *testing.T) {
	dir := t.TempDir()
	content := finalsLine(58000, 0.12345, -0.05432, 0.1234) + "\n" +
		finalsLine(58001, 0.12400, -0.05400, 0.1200) + "\n"
	finalsPath := writeFile(t, dir, "finals2000A.all", content)
	taiPath := writeFile(t, dir, "tai-utc.dat", sampleTaiUtc)

	if err := LoadFileDatabase("test-default", taiPath, finalsPath, true); err != nil {
		t.Fatal(err)
	}

	got, err := Get(58000.5, "test-default")
	if err != nil {
		t.Fatal(err)
	}
	if got.TAIUTC != 37 {
		t.Errorf("TAIUTC = %v, want 37", got.TAIUTC)
	}
	if got.X == 0 {
		t.Errorf("X not populated")
	}
}

func TestPolicyMissingData(t *testing.T) {
	config.Default.Set(config.KeyEopMissingPolicy, string(Error))
	defer config.Default.Set(config.KeyEopMissingPolicy, string(Pass))

	dir := t.TempDir()
	finalsPath := writeFile(t, dir, "finals2000A.all", finalsLine(59000, 0.1, 0.1, 0.1)+"\n")
	taiPath := writeFile(t, dir, "tai-utc.dat", sampleTaiUtc)

	if err := LoadFileDatabase("test-missing", taiPath, finalsPath, true); err != nil {
		t.Fatal(err)
	}

	if _, err := Get(10.0, "test-missing"); err == nil {
		t.Fatal("expected an error under the Error policy for a missing date")
	}
}

func TestPolicyUnknown(t *testing.T) {
	config.Default.Set(config.KeyEopMissingPolicy, "bogus")
	defer config.Default.Set(config.KeyEopMissingPolicy, string(Pass))

	if _, err := CurrentPolicy(); err == nil {
		t.Fatal("expected an error for an unrecognized policy value")
	}
}
