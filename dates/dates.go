// Package dates implements time scales and the immutable Date type that
// astrocore uses throughout for epochs: a graph of named scales
// (UT1/UTC/GPS/TAI/TT/TDB) wired with their mutual offset formulas, and a
// Date stored internally in TAI so that arithmetic never has to think
// about leap seconds. Grounded on beyond's dates.date module
// (original_source beyond/dates/date.py).
package dates

import (
	"fmt"
	"math"
	"time"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/eop"
	"github.com/orrery-space/astrocore/graph"
)

// MJDEpoch is the civil-calendar origin of the Modified Julian Day, used
// to convert between a Date's internal (day, seconds) pair and a
// time.Time.
var MJDEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// JDMJDOffset is the constant offset between Julian Date and Modified
// Julian Date.
const JDMJDOffset = 2400000.5

// RefScaleName is the scale Date stores its internal (day, seconds) pair
// in, chosen because it never steps for leap seconds.
const RefScaleName = "TAI"

// DefaultScaleName is the scale used when a constructor is not told one.
const DefaultScaleName = "UTC"

// Scale is a named point in the time-scale graph plus the offset formulas
// attached to its edges (§4.1's scale graph, one Timescale per beyond
// Timescale instance).
type Scale struct {
	node *graph.Node
	name string
	// minus[otherScale] computes (this - other) in seconds, given the
	// query mjd (in the REF_SCALE) and the Eop record for that date.
	// Only one direction needs to be registered per edge; Offset walks
	// the edge the other way by negating.
	minus map[string]func(mjd float64, e eop.Eop) float64
}

func newScale(name string) *Scale {
	return &Scale{node: graph.NewNode(name), name: name, minus: map[string]func(float64, eop.Eop) float64{}}
}

// Name returns the scale's name.
func (s *Scale) Name() string { return s.name }

func (s *Scale) String() string { return s.name }

// link registers a one-directional offset formula for (s - other) and
// connects the two nodes in the graph.
func link(s, other *Scale, sMinusOther func(mjd float64, e eop.Eop) float64) {
	s.minus[other.name] = sMinusOther
	graph.Link(s.node, other.node)
}

var (
	UT1 = newScale("UT1")
	GPS = newScale("GPS")
	TDB = newScale("TDB")
	UTC = newScale("UTC")
	TAI = newScale("TAI")
	TT  = newScale("TT")

	byName = map[string]*Scale{}
)

func init() {
	for _, s := range []*Scale{UT1, GPS, TDB, UTC, TAI, TT} {
		byName[s.name] = s
	}

	link(UT1, UTC, func(mjd float64, e eop.Eop) float64 { return e.UT1UTC })
	link(TAI, UTC, func(mjd float64, e eop.Eop) float64 { return e.TAIUTC })
	link(TAI, GPS, func(mjd float64, e eop.Eop) float64 { return 19.0 })
	link(TT, TAI, func(mjd float64, e eop.Eop) float64 { return 32.184 })
	link(TDB, TT, func(mjd float64, e eop.Eop) float64 { return tdbMinusTT(mjd) })
}

// tdbMinusTT implements the short analytic approximation beyond uses
// (Date._scale_tdb_minus_tt): good to ~2 microseconds, good enough for the
// core's stated precision.
func tdbMinusTT(mjd float64) float64 {
	jd := mjd + JDMJDOffset
	jj := julianCentury(jd)
	m := (357.5277233 + 35999.05034*jj) * math.Pi / 180
	deltaLambda := (246.11 + 0.90251792*(jd-2451545.0)) * math.Pi / 180
	return 0.001657*math.Sin(m) + 0.000022*math.Sin(deltaLambda)
}

func julianCentury(jd float64) float64 {
	return (jd - 2451545.0) / 36525.0
}

// GetScale resolves a scale by name (case-insensitive), matching beyond's
// get_scale.
func GetScale(name string) (*Scale, error) {
	s, ok := byName[scaleKey(name)]
	if !ok {
		return nil, astroerr.NewUnknown(astroerr.UnknownScale, name)
	}
	return s, nil
}

func scaleKey(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// Offset computes the number of seconds to add to go from s to target at
// the given mjd (expressed in REF_SCALE) and Eop record — beyond's
// Timescale.offset, walking steps(new_scale) and summing each edge's
// formula, negated when traversed backward.
func (s *Scale) Offset(mjd float64, target *Scale, e eop.Eop) (float64, error) {
	steps, ok := s.node.Steps(target.name)
	if !ok {
		return 0, astroerr.NewDomain(fmt.Sprintf("no conversion path from %s to %s", s.name, target.name))
	}
	var delta float64
	for _, step := range steps {
		from := byName[step.From.Name]
		to := byName[step.To.Name]
		if f, ok := to.minus[from.name]; ok {
			delta += f(mjd, e)
		} else if f, ok := from.minus[to.name]; ok {
			delta -= f(mjd, e)
		} else {
			return 0, astroerr.NewDomain(fmt.Sprintf("unknown conversion %s => %s", from.name, to.name))
		}
	}
	return delta, nil
}

// Date is an immutable epoch, stored internally as an integer MJD day and
// a seconds-of-day offset in RefScaleName, plus the scale it was
// constructed in and the Eop record used to build it. Matches beyond's
// Date: all arithmetic happens in the reference scale so leap seconds
// never have to be reasoned about mid-computation.
type Date struct {
	day    int
	sec    float64
	offset float64 // scale.Offset(mjd, REF_SCALE, eop) applied at construction
	scale  *Scale
	e      eop.Eop

	strCache string
}

// NewFromTime builds a Date from a time.Time, interpreted in the given
// scale (name resolved via GetScale). A time in a non-UTC location is
// first converted to UTC (its UTC offset subtracted), matching beyond's
// handling of tz-aware datetimes; the resulting UTC wall-clock reading is
// then interpreted in the given scale.
func NewFromTime(t time.Time, scaleName string) (Date, error) {
	scale, err := GetScale(scaleName)
	if err != nil {
		return Date{}, err
	}
	utc := t.UTC()
	delta := utc.Sub(MJDEpoch)
	d := int(delta.Hours() / 24)
	s := delta.Seconds() - float64(d)*86400
	return newDate(d, s, scale)
}

// NewFromMJD builds a Date from a fractional Modified Julian Date in the
// given scale.
func NewFromMJD(mjd float64, scaleName string) (Date, error) {
	scale, err := GetScale(scaleName)
	if err != nil {
		return Date{}, err
	}
	d := int(math.Floor(mjd))
	s := (mjd - float64(d)) * 86400
	return newDate(d, s, scale)
}

// NewFromDaySeconds builds a Date from an integer MJD day and a seconds-
// of-day offset, in the given scale — beyond's (jd, seconds) two-argument
// constructor form.
func NewFromDaySeconds(day int, sec float64, scaleName string) (Date, error) {
	scale, err := GetScale(scaleName)
	if err != nil {
		return Date{}, err
	}
	return newDate(day, sec, scale)
}

// NewFromCalendar builds a Date from civil calendar fields in the given
// scale, beyond's (year, month, ..., microsecond) constructor form.
func NewFromCalendar(year int, month time.Month, day, hour, minute, second, microsecond int, scaleName string) (Date, error) {
	t := time.Date(year, month, day, hour, minute, second, microsecond*1000, time.UTC)
	return NewFromTime(t, scaleName)
}

// Now returns the current time in the given scale.
func Now(scaleName string) (Date, error) {
	return NewFromTime(time.Now(), scaleName)
}

func newDate(d int, s float64, scale *Scale) (Date, error) {
	mjd := float64(d) + s/86400

	e, err := eop.Get(mjd, "")
	if err != nil {
		return Date{}, err
	}

	ref, err := GetScale(RefScaleName)
	if err != nil {
		return Date{}, err
	}
	offset, err := scale.Offset(mjd, ref, e)
	if err != nil {
		return Date{}, err
	}

	d += int(math.Floor((s + offset) / 86400))
	s = math.Mod(s+offset, 86400)
	if s < 0 {
		s += 86400
	}

	return Date{day: d, sec: s, offset: offset, scale: scale, e: e}, nil
}

// Scale returns the scale this Date was constructed in.
func (dt Date) Scale() *Scale { return dt.scale }

// Eop returns the Earth orientation record used to build this Date.
func (dt Date) Eop() eop.Eop { return dt.e }

// convertToScale undoes the REF_SCALE offset applied at construction,
// returning the (day, seconds) pair expressed in dt.scale.
func (dt Date) convertToScale() (int, float64) {
	d := dt.day
	s := math.Mod(dt.sec-dt.offset, 86400)
	if s < 0 {
		s += 86400
	}
	d -= int(math.Floor((s + dt.offset) / 86400))
	return d, s
}

// MJD returns the Modified Julian Date in dt's own scale.
func (dt Date) MJD() float64 {
	d, s := dt.convertToScale()
	return float64(d) + s/86400
}

// mjdRef returns the Modified Julian Date expressed in REF_SCALE (what
// Offset expects as its query point).
func (dt Date) mjdRef() float64 {
	return float64(dt.day) + dt.sec/86400
}

// JD returns the Julian Date in dt's own scale.
func (dt Date) JD() float64 { return dt.MJD() + JDMJDOffset }

// JulianCentury returns the number of Julian centuries since J2000.0 in
// dt's own scale.
func (dt Date) JulianCentury() float64 { return julianCentury(dt.JD()) }

// Time returns a time.Time for dt in its own scale (UTC-flagged but
// timezone-naive in that scale, matching beyond's tz-naive datetime).
func (dt Date) Time() time.Time {
	refTime := MJDEpoch.Add(time.Duration(dt.day) * 24 * time.Hour).Add(time.Duration(dt.sec * float64(time.Second)))
	return refTime.Add(-time.Duration(dt.offset * float64(time.Second)))
}

// ChangeScale returns the same instant expressed in a different scale.
func (dt Date) ChangeScale(newScaleName string) (Date, error) {
	newScale, err := GetScale(newScaleName)
	if err != nil {
		return Date{}, err
	}
	offset, err := dt.scale.Offset(dt.mjdRef(), newScale, dt.e)
	if err != nil {
		return Date{}, err
	}
	t := dt.Time().Add(time.Duration(offset * float64(time.Second)))
	return NewFromTime(t, newScaleName)
}

// Add returns dt advanced by d, preserving dt's scale.
func (dt Date) Add(d time.Duration) (Date, error) {
	day, s := dt.convertToScale()
	totalSec := s + d.Seconds()
	days := int(math.Floor(totalSec / 86400))
	sec := totalSec - float64(days)*86400
	return NewFromDaySeconds(day+days, sec, dt.scale.name)
}

// Sub returns the duration between dt and other (dt - other), both
// converted to REF_SCALE first so the subtraction is leap-second exact.
func (dt Date) Sub(other Date) time.Duration {
	deltaDay := dt.day - other.day
	deltaSec := dt.sec - other.sec
	return time.Duration((float64(deltaDay)*86400 + deltaSec) * float64(time.Second))
}

// Before, After and Equal compare two dates by their REF_SCALE instant.
func (dt Date) Before(other Date) bool { return dt.mjdRef() < other.mjdRef() }
func (dt Date) After(other Date) bool  { return dt.mjdRef() > other.mjdRef() }
func (dt Date) Equal(other Date) bool  { return dt.mjdRef() == other.mjdRef() }

// String renders "<ISO8601> <SCALE>", like beyond's Date.__str__. The
// text is rebuilt on every call; strCache is only read, never filled.
func (dt Date) String() string {
	if dt.strCache != "" {
		return dt.strCache
	}
	return dt.Time().Format("2006-01-02T15:04:05.000000") + " " + dt.scale.name
}

// Range generates count dates spaced step apart starting at dt, beyond's
// Date.range() generator made into a slice since Go has no lazy
// generator syntax as lightweight as Python's.
func Range(start Date, step time.Duration, count int) ([]Date, error) {
	out := make([]Date, 0, count)
	cur := start
	for i := 0; i < count; i++ {
		out = append(out, cur)
		next, err := cur.Add(step)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return out, nil
}
