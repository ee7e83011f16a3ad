// Package rpo implements the relative-proximity-operations propagators:
// Clohessy-Wiltshire for a circular chief and Yamanaka-Ankersen for an
// elliptic one. Both work on a chaser state expressed in a Hill frame
// centered on the chief (built with frames.NewOrbitAttached using a QSW
// or TNW orientation) rather than on an absolute orbit. Grounded on
// beyond's propagators.cw module (original_source
// beyond/propagators/cw.py); Yamanaka-Ankersen has no reference
// implementation in the pack (see ya.go).
package rpo

import (
	"math"

	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/maneuver"
	"github.com/orrery-space/astrocore/orient"
	"github.com/orrery-space/astrocore/statevector"
)

// qswToTNW and its inverse reproduce beyond's fixed QSW2TNW rotation
// matrix [[0,1,0],[-1,0,0],[0,0,1]], valid only because both CW and
// Yamanaka-Ankersen treat the chief's local frame as locally orthonormal
// at every instant.
func qswToTNW(v [3]float64) [3]float64 { return [3]float64{v[1], -v[0], v[2]} }
func tnwToQSW(v [3]float64) [3]float64 { return [3]float64{-v[1], v[0], v[2]} }

// ClohessyWiltshire is the linearized relative-motion propagator for a
// circular chief orbit. Grounded on beyond's ClohessyWiltshire.
type ClohessyWiltshire struct {
	Sma         float64 // chief semi-major axis, meters
	Mu          float64 // chief central body's gravitational parameter
	Orientation orient.LocalFrameKind
}

func (p ClohessyWiltshire) n() float64 { return math.Sqrt(p.Mu / (p.Sma * p.Sma * p.Sma)) }

func (p ClohessyWiltshire) toQSW(v [3]float64) [3]float64 {
	if p.Orientation == orient.TNW {
		return tnwToQSW(v)
	}
	return v
}

func (p ClohessyWiltshire) fromQSW(v [3]float64) [3]float64 {
	if p.Orientation == orient.TNW {
		return qswToTNW(v)
	}
	return v
}

// evolveQSW applies the closed-form CW evolution and acceleration
// matrices (beyond's evol_mat/accel_mat), operating on a state and an
// acceleration already expressed in QSW.
func (p ClohessyWiltshire) evolveQSW(orb [6]float64, accel [3]float64, dt float64) [6]float64 {
	n := p.n()
	nt := n * dt
	cs, sn := math.Cos(nt), math.Sin(nt)
	x, y, z, vx, vy, vz := orb[0], orb[1], orb[2], orb[3], orb[4], orb[5]

	var out [6]float64
	out[0] = (4-3*cs)*x + sn/n*vx + 2/n*(1-cs)*vy
	out[1] = 6*(sn-nt)*x + y + 2/n*(cs-1)*vx + (4*sn-3*nt)/n*vy
	out[2] = cs*z + sn/n*vz
	out[3] = 3*n*sn*x + cs*vx + 2*sn*vy
	out[4] = 6*n*(cs-1)*x - 2*sn*vx + (4*cs-3)*vy
	out[5] = -n*sn*z + cs*vz

	ax, ay, az := accel[0], accel[1], accel[2]
	n2 := n * n
	out[0] += (1-cs)/n2*ax + 2/n2*(nt-sn)*ay
	out[1] += 2/n2*(sn-nt)*ax + 1/n2*(4*(1-cs)-1.5*nt*nt)*ay
	out[2] += (1 - cs) / n2 * az
	out[3] += sn/n*ax + 2/n*(1-cs)*ay
	out[4] += 2/n*(cs-1)*ax + (4*sn-3*nt)/n*ay
	out[5] += sn / n * az

	return out
}

// stage advances coord (in the propagator's configured orientation) from
// from to to under the given acceleration (nil for an unpowered coast).
func (p ClohessyWiltshire) stage(coord [6]float64, from, to dates.Date, accel *[3]float64) ([6]float64, dates.Date) {
	dt := to.Sub(from).Seconds()

	pos := p.toQSW([3]float64{coord[0], coord[1], coord[2]})
	vel := p.toQSW([3]float64{coord[3], coord[4], coord[5]})
	var a [3]float64
	if accel != nil {
		a = p.toQSW(*accel)
	}
	qsw := [6]float64{pos[0], pos[1], pos[2], vel[0], vel[1], vel[2]}

	next := p.evolveQSW(qsw, a, dt)

	outPos := p.fromQSW([3]float64{next[0], next[1], next[2]})
	outVel := p.fromQSW([3]float64{next[3], next[4], next[5]})
	return [6]float64{outPos[0], outPos[1], outPos[2], outVel[0], outVel[1], outVel[2]}, to
}

// Propagate advances the chaser's relative state to to. from must already
// live in a Hill frame matching p.Orientation; its Maneuvers are staged
// in order exactly as beyond's propagate does: an ImpulsiveMan fires as
// soon as its date is reached, a ContinuousMan's acceleration is applied
// for as much of [Start, Stop) as falls within [from.Date, to]. Only
// ImpulsiveMan and ContinuousMan are recognized — the Keplerian-element
// maneuver variants describe absolute orbital-element changes, which
// have no meaning for a chaser expressed purely as a relative state.
func (p ClohessyWiltshire) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
	cart, err := from.AsStateVector().WithForm(forms.Cartesian)
	if err != nil {
		return nil, err
	}
	coord := cart.Coord
	d := cart.Date

	for _, m := range from.Maneuvers {
		switch man := m.(type) {
		case *maneuver.ImpulsiveMan:
			if to.Before(man.Date) {
				continue
			}
			coord, d = p.stage(coord, d, man.Date, nil)
			sv := statevector.New(d, coord, forms.Cartesian, cart.Frame)
			dv, err := man.DeltaV(sv)
			if err != nil {
				return nil, err
			}
			coord[3] += dv[0]
			coord[4] += dv[1]
			coord[5] += dv[2]

		case *maneuver.ContinuousMan:
			if to.Before(man.Start) {
				continue
			}
			coord, d = p.stage(coord, d, man.Start, nil)
			sv := statevector.New(d, coord, forms.Cartesian, cart.Frame)
			accel, err := man.Accel(sv)
			if err != nil {
				return nil, err
			}
			if to.Before(man.Stop) {
				coord, d = p.stage(coord, d, to, &accel)
				return statevector.New(d, coord, forms.Cartesian, cart.Frame), nil
			}
			coord, d = p.stage(coord, d, man.Stop, &accel)
		}
	}

	coord, d = p.stage(coord, d, to, nil)
	return statevector.New(d, coord, forms.Cartesian, cart.Frame), nil
}
