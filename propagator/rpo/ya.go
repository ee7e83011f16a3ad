package rpo

import (
	"math"

	"github.com/orrery-space/astrocore/dates"
	"github.com/orrery-space/astrocore/forms"
	"github.com/orrery-space/astrocore/maneuver"
	"github.com/orrery-space/astrocore/orient"
	"github.com/orrery-space/astrocore/statevector"
)

// ChiefSource evaluates the chief's own Cartesian state at a date.
// statevector.Orbit.Propagate and ephem.Ephem.Interpolate already have
// this signature and can be passed directly.
type ChiefSource func(d dates.Date) (*statevector.StateVector, error)

// YamanakaAnkersen generalizes ClohessyWiltshire to an elliptic chief.
// The chief's true anomaly and the ratio k = 1 + e·cos(ν) — the
// Tschauner-Hempel "pulsating" factor that scales the rotating frame's
// size and angular rate along the orbit — are re-evaluated from Chief at
// both ends of every propagation step and folded into the CW evolution
// matrices: k rescales the relative position components and the local
// angular rate n·k²/(1-e²)^1.5 replaces CW's constant n. This reduces
// identically to ClohessyWiltshire when e = 0. No reference
// implementation of Yamanaka-Ankersen exists in the pack; this is a
// deliberate closed-form approximation built from the verified CW
// matrices rather than a port of the full published state-transition
// matrix, and is flagged here the same way EcksteinHechler's
// short-period correction is.
type YamanakaAnkersen struct {
	Chief       ChiefSource
	Mu          float64
	Orientation orient.LocalFrameKind
}

type chiefGeometry struct {
	e, nu, n, k float64
}

func (p YamanakaAnkersen) geometry(d dates.Date) (chiefGeometry, error) {
	sv, err := p.Chief(d)
	if err != nil {
		return chiefGeometry{}, err
	}
	kep, err := sv.WithForm(forms.Keplerian)
	if err != nil {
		return chiefGeometry{}, err
	}
	a, e, nu := kep.Coord[0], kep.Coord[1], kep.Coord[5]
	n := math.Sqrt(p.Mu / (a * a * a))
	k := 1 + e*math.Cos(nu)
	return chiefGeometry{e: e, nu: nu, n: n, k: k}, nil
}

// rate returns the chief's instantaneous angular rate dν/dt at geometry g.
func (g chiefGeometry) rate() float64 {
	return g.n * g.k * g.k / math.Pow(1-g.e*g.e, 1.5)
}

func (p YamanakaAnkersen) toQSW(v [3]float64) [3]float64 {
	if p.Orientation == orient.TNW {
		return tnwToQSW(v)
	}
	return v
}

func (p YamanakaAnkersen) fromQSW(v [3]float64) [3]float64 {
	if p.Orientation == orient.TNW {
		return qswToTNW(v)
	}
	return v
}

// stage advances coord from from to to using the average of the chief's
// instantaneous angular rate and pulsating factor k at the two endpoints,
// and the acceleration (if any) active over the step.
func (p YamanakaAnkersen) stage(coord [6]float64, from, to dates.Date, accel *[3]float64) ([6]float64, dates.Date, error) {
	g0, err := p.geometry(from)
	if err != nil {
		return coord, to, err
	}
	g1, err := p.geometry(to)
	if err != nil {
		return coord, to, err
	}

	nEff := 0.5 * (g0.rate() + g1.rate())
	kRatio := g1.k / g0.k

	dt := to.Sub(from).Seconds()
	nt := nEff * dt
	cs, sn := math.Cos(nt), math.Sin(nt)

	pos := p.toQSW([3]float64{coord[0], coord[1], coord[2]})
	vel := p.toQSW([3]float64{coord[3], coord[4], coord[5]})
	var a [3]float64
	if accel != nil {
		a = p.toQSW(*accel)
	}

	x, y, z, vx, vy, vz := pos[0], pos[1], pos[2], vel[0], vel[1], vel[2]

	var out [6]float64
	out[0] = kRatio * ((4-3*cs)*x + sn/nEff*vx + 2/nEff*(1-cs)*vy)
	out[1] = kRatio * (6*(sn-nt)*x + y + 2/nEff*(cs-1)*vx + (4*sn-3*nt)/nEff*vy)
	out[2] = kRatio * (cs*z + sn/nEff*vz)
	out[3] = 3*nEff*sn*x + cs*vx + 2*sn*vy
	out[4] = 6*nEff*(cs-1)*x - 2*sn*vx + (4*cs-3)*vy
	out[5] = -nEff*sn*z + cs*vz

	ax, ay, az := a[0], a[1], a[2]
	n2 := nEff * nEff
	out[0] += kRatio * ((1-cs)/n2*ax + 2/n2*(nt-sn)*ay)
	out[1] += kRatio * (2/n2*(sn-nt)*ax + 1/n2*(4*(1-cs)-1.5*nt*nt)*ay)
	out[2] += kRatio * (1 - cs) / n2 * az
	out[3] += sn/nEff*ax + 2/nEff*(1-cs)*ay
	out[4] += 2/nEff*(cs-1)*ax + (4*sn-3*nt)/nEff*ay
	out[5] += sn / nEff * az

	outPos := p.fromQSW([3]float64{out[0], out[1], out[2]})
	outVel := p.fromQSW([3]float64{out[3], out[4], out[5]})
	return [6]float64{outPos[0], outPos[1], outPos[2], outVel[0], outVel[1], outVel[2]}, to, nil
}

// Propagate mirrors ClohessyWiltshire.Propagate's maneuver staging,
// re-evaluating the chief's geometry at every stage boundary instead of
// holding a fixed semi-major axis.
func (p YamanakaAnkersen) Propagate(from *statevector.Orbit, to dates.Date) (*statevector.StateVector, error) {
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
			coord, d, err = p.stage(coord, d, man.Date, nil)
			if err != nil {
				return nil, err
			}
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
			coord, d, err = p.stage(coord, d, man.Start, nil)
			if err != nil {
				return nil, err
			}
			sv := statevector.New(d, coord, forms.Cartesian, cart.Frame)
			accel, err := man.Accel(sv)
			if err != nil {
				return nil, err
			}
			if to.Before(man.Stop) {
				coord, d, err = p.stage(coord, d, to, &accel)
				if err != nil {
					return nil, err
				}
				return statevector.New(d, coord, forms.Cartesian, cart.Frame), nil
			}
			coord, d, err = p.stage(coord, d, man.Stop, &accel)
			if err != nil {
				return nil, err
			}
		}
	}

	coord, d, err = p.stage(coord, d, to, nil)
	if err != nil {
		return nil, err
	}
	return statevector.New(d, coord, forms.Cartesian, cart.Frame), nil
}
