// Package eop provides Earth Orientation Parameters: the small daily
// corrections (polar motion, UT1-UTC, nutation corrections, leap seconds)
// that time-scale conversions and precise frame rotations depend on. It
// mirrors beyond's dates.eop module (original_source
// beyond/dates/eop.py): file parsers for the USNO/IERS products, a plain
// Eop record, and a registry of named backends selected through
// astrocore/config, with a configurable policy for missing data.
package eop

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/orrery-space/astrocore/astroerr"
	"github.com/orrery-space/astrocore/config"
)

// Eop holds the Earth orientation corrections for a single MJD.
type Eop struct {
	X, Y       float64 // polar motion, arcsec
	DX, DY     float64 // IAU2000A celestial pole offsets, milliarcsec
	DPsi, DEps float64 // IAU1980 nutation corrections, milliarcsec
	LOD        float64 // length of day excess, milliseconds
	UT1UTC     float64 // UT1 - UTC, seconds
	TAIUTC     float64 // TAI - UTC (leap seconds), seconds
}

// Zero is the value Get returns under the Pass policy when no record
// exists for the requested MJD: every correction treated as absent.
var Zero = Eop{}

// Database is anything that can answer an MJD lookup. A type satisfies
// this by embedding or implementing a single method, matching beyond's
// informal duck-typed "anything with __getitem__" database contract.
type Database interface {
	Lookup(mjd float64) (Eop, bool)
}

// Policy controls Get's behavior when Database.Lookup reports no
// record for the requested MJD.
type Policy string

const (
	// Pass silently substitutes Zero.
	Pass Policy = "pass"
	// Warn logs and substitutes Zero.
	Warn Policy = "warning"
	// Error returns an EopMissingError.
	Error Policy = "error"
)

// DefaultName is the registry key used when no name is given.
const DefaultName = "default"

var (
	registryMu sync.Mutex
	registry   = map[string]Database{}
)

// Register installs db under name, so later Get(mjd, name) calls reach it.
// Re-registering a name is a no-op (matching beyond's EopDb.register,
// which warns and skips rather than clobbering).
func Register(name string, db Database) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		log.Warn().Str("name", name).Msg("eop: database already registered, skipping")
		return
	}
	registry[name] = db
}

// db resolves the named database, falling back to config's eop.dbname and
// then DefaultName.
func db(name string) (Database, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" {
		name = config.Default.GetString(config.KeyEopDBName, DefaultName)
	}
	d, ok := registry[name]
	if !ok {
		return nil, astroerr.NewUnknown(astroerr.UnknownKind("eop-database"), name)
	}
	return d, nil
}

// CurrentPolicy returns the configured missing-data policy (default Pass).
func CurrentPolicy() (Policy, error) {
	raw := config.Default.GetString(config.KeyEopMissingPolicy, string(Pass))
	switch Policy(raw) {
	case Pass, Warn, Error:
		return Policy(raw), nil
	default:
		return "", astroerr.NewConfigError(config.KeyEopMissingPolicy, fmt.Errorf("unrecognized policy %q", raw))
	}
}

// Get retrieves the Eop record for mjd from the named database (empty name
// selects the configured default), applying the configured missing-data
// policy when no record exists — including when no database is
// registered at all, matching beyond's EopDb.get, which funnels both "no
// record for this mjd" and "database unknown/failed to load" through the
// same missing-policy branch.
func Get(mjd float64, name string) (Eop, error) {
	policy, polErr := CurrentPolicy()
	if polErr != nil {
		return Zero, polErr
	}

	d, err := db(name)
	if err != nil {
		return applyPolicy(mjd, policy, err)
	}

	if rec, ok := d.Lookup(mjd); ok {
		return rec, nil
	}
	return applyPolicy(mjd, policy, nil)
}

func applyPolicy(mjd float64, policy Policy, cause error) (Eop, error) {
	switch policy {
	case Warn:
		if cause != nil {
			log.Warn().Float64("mjd", mjd).Err(cause).Msg("eop: database unavailable, substituting zero")
		} else {
			log.Warn().Float64("mjd", mjd).Msg("eop: no data for date, substituting zero")
		}
	case Error:
		return Zero, astroerr.NewEopMissing(mjd)
	}
	return Zero, nil
}

// TaiUtc holds the leap-second history published as tai-utc.dat: a
// monotonically increasing list of (mjd, offset) steps, in effect from
// their MJD onward.
type TaiUtc struct {
	mjd   []float64
	value []float64
}

// ParseTaiUtc reads a tai-utc.dat file. Each line is whitespace separated
// with the MJD-as-Julian-Date in field 5 and the offset in field 7
// (1-indexed), matching USNO's fixed layout.
func ParseTaiUtc(path string) (*TaiUtc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, astroerr.NewParseError("tai-utc.dat", err.Error())
	}
	defer f.Close()

	t := &TaiUtc{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 7 {
			continue
		}
		jd, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, astroerr.NewParseError("tai-utc.dat", err.Error())
		}
		value, err := strconv.ParseFloat(fields[6], 64)
		if err != nil {
			return nil, astroerr.NewParseError("tai-utc.dat", err.Error())
		}
		t.mjd = append(t.mjd, jd-2400000.5)
		t.value = append(t.value, value)
	}
	if err := sc.Err(); err != nil {
		return nil, astroerr.NewParseError("tai-utc.dat", err.Error())
	}
	return t, nil
}

// At returns the TAI-UTC offset in effect at mjd: the value of the most
// recent step at or before mjd. Returns false if mjd precedes every step.
func (t *TaiUtc) At(mjd float64) (float64, bool) {
	value, ok := 0.0, false
	for i := len(t.mjd) - 1; i >= 0; i-- {
		if t.mjd[i] <= mjd {
			value, ok = t.value[i], true
			break
		}
	}
	return value, ok
}

// Surrounding returns the last step at or before mjd and the next step
// strictly after it, either of which may be absent (ok=false on that side).
func (t *TaiUtc) Surrounding(mjd float64) (pastMJD, pastValue float64, pastOK bool, nextMJD, nextValue float64, nextOK bool) {
	for i := len(t.mjd) - 1; i >= 0; i-- {
		if t.mjd[i] <= mjd {
			pastMJD, pastValue, pastOK = t.mjd[i], t.value[i], true
			break
		}
		nextMJD, nextValue, nextOK = t.mjd[i], t.value[i], true
	}
	return
}

// finalsRecord is one parsed row of a finals(2000A).{all,data,daily} file.
type finalsRecord struct {
	mjd              float64
	x, y             float64
	dx, dy           float64 // IAU2000A dX/dY, or IAU1980 dPsi/dEps depending on source
	lod              float64
	ut1utc           float64
	hasLOD, hasDelta bool
}

// Finals is the fixed-column parser shared by the IAU1980 (finals.*) and
// IAU2000A (finals2000A.*) product families; the only difference between
// them is which pair of columns (dPsi/dEps vs dX/dY) is read, selected by
// NewFinals's iau2000a flag.
type Finals struct {
	records  map[int]finalsRecord
	iau2000a bool
}

// columns within a finals line, 0-indexed, matching the fixed-format
// layout documented in IERS's readme.finals(.2000A).
const (
	colMJD    = 7
	colMJDEnd = 15
	colX      = 18
	colXEnd   = 27
	colY      = 37
	colYEnd   = 46
	colLOD    = 79
	colLODEnd = 86
	colUT1    = 58
	colUT1End = 68
	colD1     = 97
	colD1End  = 106
	colD2     = 116
	colD2End  = 125
)

// ParseFinals reads a finals.all/finals2000A.all-style file. iau2000a
// selects whether the delta columns are interpreted as dX/dY (true) or
// dPsi/dEps (false), matching beyond's Finals2000A vs Finals subclasses.
func ParseFinals(path string, iau2000a bool) (*Finals, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, astroerr.NewParseError(path, err.Error())
	}
	defer f.Close()

	fin := &Finals{records: make(map[int]finalsRecord), iau2000a: iau2000a}
	sc := bufio.NewScanner(f)
	var lastMJD int
	for sc.Scan() {
		line := sc.Text()
		if len(line) < colYEnd {
			continue
		}
		field := func(start, end int) (float64, bool) {
			if len(line) < end {
				return 0, false
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(line[start:end]), 64)
			return v, err == nil
		}

		mjdF, ok := field(colMJD, colMJDEnd)
		if !ok {
			continue
		}
		mjd := int(mjdF)

		x, okX := field(colX, colXEnd)
		y, okY := field(colY, colYEnd)
		ut1, okUT1 := field(colUT1, colUT1End)
		if !okX || !okY || !okUT1 {
			// Common columns stop being published near the end of the
			// file (predictions run out); beyond treats this as end of
			// useful data.
			break
		}

		rec := finalsRecord{mjd: float64(mjd), x: x, y: y, ut1utc: ut1}

		if lod, ok := field(colLOD, colLODEnd); ok {
			rec.lod, rec.hasLOD = lod, true
		} else if prev, ok := fin.records[mjd-1]; ok {
			rec.lod, rec.hasLOD = prev.lod, prev.hasLOD
		}

		d1, ok1 := field(colD1, colD1End)
		d2, ok2 := field(colD2, colD2End)
		if ok1 && ok2 {
			rec.dx, rec.dy, rec.hasDelta = d1, d2, true
		} else if prev, ok := fin.records[mjd-1]; ok {
			rec.dx, rec.dy, rec.hasDelta = prev.dx, prev.dy, prev.hasDelta
		}

		fin.records[mjd] = rec
		lastMJD = mjd
	}
	_ = lastMJD
	if err := sc.Err(); err != nil {
		return nil, astroerr.NewParseError(path, err.Error())
	}
	return fin, nil
}

// FileDatabase composes a TaiUtc leap-second table with a Finals product to
// answer full Eop lookups, the way beyond's SimpleEopDatabase composes its
// two source files. It satisfies Database.
type FileDatabase struct {
	TaiUtc  *TaiUtc
	Finals  *Finals
}

// Lookup implements Database. mjd is truncated to an integer day to match
// the daily granularity of the finals products; TAI-UTC is looked up at
// the fractional mjd so leap-second boundaries land on the correct side.
func (d *FileDatabase) Lookup(mjd float64) (Eop, bool) {
	day := int(mjd)
	rec, ok := d.Finals.records[day]
	if !ok {
		return Zero, false
	}

	tai, _ := d.TaiUtc.At(mjd)

	out := Eop{
		X: rec.x, Y: rec.y,
		LOD:    rec.lod,
		UT1UTC: rec.ut1utc,
		TAIUTC: tai,
	}
	if d.Finals.iau2000a {
		out.DX, out.DY = rec.dx, rec.dy
	} else {
		out.DPsi, out.DEps = rec.dx, rec.dy
	}
	return out, true
}

// LoadFileDatabase builds and registers a FileDatabase named name (or
// DefaultName) from the taiUtcPath and finalsPath files, the file-backed
// equivalent of beyond's SimpleEopDatabase default backend.
func LoadFileDatabase(name, taiUtcPath, finalsPath string, iau2000a bool) error {
	tai, err := ParseTaiUtc(taiUtcPath)
	if err != nil {
		return err
	}
	fin, err := ParseFinals(finalsPath, iau2000a)
	if err != nil {
		return err
	}
	if name == "" {
		name = DefaultName
	}
	Register(name, &FileDatabase{TaiUtc: tai, Finals: fin})
	return nil
}
