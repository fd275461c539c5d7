// Package planner implements the Motion Planner of spec.md §4.C: given a
// command it produces up to three per-axis pulse sequences, with a ramp
// overlaid on each head and tail of rapid moves.
//
// The public, mm-denominated operations (PlanMove, PlanInterpolatedLine,
// PlanInterpolatedArc) convert through internal/units and then delegate
// to small step/pps-domain helpers that mirror spec.md §8's literal test
// scenarios (S1–S3) directly, so those scenarios can be checked without
// re-deriving the unit conversions. Grounded on
// original_source/motion_planner.py's _calc_steps/_plan_move/
// _plan_interpolated_line/_plan_interpolated_circle for the overall
// shape, generalized per spec.md §4.C/§9 to the angle-based
// quadrant-walk arc planner and the ramp-overlaid rapid mover that the
// source's duplicate variants only sketch.
package planner

import (
	"math"

	"cncrouter/internal/cncerr"
	"cncrouter/internal/ramp"
	"cncrouter/internal/rampcache"
	"cncrouter/internal/units"
)

// Plane selects which two physical axes a 2D interpolation operates on.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

// PulseStep is one (direction, delay) pair for a single axis (spec.md
// §3). Direction 0 means "skip this tick, preserve timing."
type PulseStep struct {
	Dir   int8
	Delay float64 // seconds
}

// PulseSequence is the ordered plan of steps for one axis.
type PulseSequence []PulseStep

// SumDelay returns the total elapsed time of the sequence.
func (s PulseSequence) SumDelay() float64 {
	var total float64
	for _, p := range s {
		total += p.Delay
	}
	return total
}

// AxisParams is the subset of an axis's configuration the planner needs
// to convert mm quantities to steps/pulses and to generate a ramp.
type AxisParams struct {
	StepAngleDeg float64
	Mode         int
	LeadMM       float64
	AccelMMPerS2 float64
	RampType     ramp.Variant
}

// Planner generates pulse sequences. It holds an optional ramp cache
// (spec.md §3 "ramp profiles may be computed once ... and cached");
// a nil cache disables memoization but changes no semantics.
type Planner struct {
	cache rampcache.Cache
}

// New builds a Planner. Pass nil for cache to disable memoization.
func New(cache rampcache.Cache) *Planner {
	return &Planner{cache: cache}
}

func (p *Planner) generateRamp(a AxisParams, rateMMPerMin float64) ([]float64, error) {
	omega := units.AngularVelocity(rateMMPerMin, a.StepAngleDeg, a.Mode, a.LeadMM)
	alpha := units.AngularAcceleration(a.AccelMMPerS2, a.StepAngleDeg, a.Mode, a.LeadMM)
	phi := units.StepAngleRad(a.StepAngleDeg, a.Mode)

	key := rampcache.Key{
		Variant:      a.RampType,
		Omega:        omega,
		Alpha:        alpha,
		Mode:         a.Mode,
		StepAngleDeg: a.StepAngleDeg,
		LeadMM:       a.LeadMM,
	}
	return rampcache.Generate(p.cache, key, ramp.Params{Omega: omega, Alpha: alpha, StepAngleRad: phi})
}

// PlanMove implements spec.md §4.C "plan_move": each axis moves
// independently at its own traversal rate, with a ramp overlaid on the
// head and (mirrored) tail. deltasMM and rate/accel params are given
// per axis in X, Y, Z order; axes with a zero delta return an empty
// sequence.
func (p *Planner) PlanMove(deltasMM [3]float64, rateMMPerMin [3]float64, axes [3]AxisParams) ([3]PulseSequence, error) {
	var out [3]PulseSequence
	for i := 0; i < 3; i++ {
		if deltasMM[i] == 0 {
			continue
		}
		n := units.MMToSteps(deltasMM[i], axes[i].StepAngleDeg, axes[i].Mode, axes[i].LeadMM)
		if n == 0 {
			continue
		}
		pps := units.MMPerMinToPPS(rateMMPerMin[i], axes[i].StepAngleDeg, axes[i].Mode, axes[i].LeadMM)
		rampSeq, err := p.generateRamp(axes[i], rateMMPerMin[i])
		if err != nil {
			return out, err
		}
		out[i] = planRampedAxis(n, pps, rampSeq)
	}
	return out, nil
}

// planRampedAxis overlays rampSeq (strictly decreasing per-step
// intervals) onto a run of |n| steps, mirroring it for the
// deceleration tail and truncating symmetrically at the midpoint when
// |n| < 2*len(rampSeq), exactly per spec.md §4.C's delay(i) formula.
func planRampedAxis(n int64, cruisePPS float64, rampSeq []float64) PulseSequence {
	absN := n
	if absN < 0 {
		absN = -absN
	}
	if absN == 0 {
		return nil
	}
	var sign int8 = 1
	if n < 0 {
		sign = -1
	}
	cruiseDelay := 1 / cruisePPS
	rn := int64(len(rampSeq))
	half := absN / 2

	seq := make(PulseSequence, absN)
	for i := int64(0); i < absN; i++ {
		var delay float64
		switch {
		case i < rn && i < half:
			delay = rampSeq[i]
		case i >= half && i >= absN-rn:
			delay = rampSeq[absN-1-i]
		default:
			delay = cruiseDelay
		}
		seq[i] = PulseStep{Dir: sign, Delay: delay}
	}
	return seq
}

// PlanInterpolatedLine implements spec.md §4.C "plan_interpolated_line":
// constant-speed, per-axis independent time base. Ramps are NOT
// overlaid on interpolated moves (spec.md §9 Design Notes resolution).
// It takes exactly two axes' deltas; three-axis linear interpolation is a
// non-goal and is rejected with InvalidParameters before reaching the
// planner (by the gcode parser and the executor).
func (p *Planner) PlanInterpolatedLine(deltaAMM, deltaBMM float64, paramsA, paramsB AxisParams, feedRateMMPerMin float64) (PulseSequence, PulseSequence, error) {
	if feedRateMMPerMin <= 0 {
		return nil, nil, cncerr.Newf(cncerr.InvalidParameters, "planner: feed rate must be positive, got %v", feedRateMMPerMin)
	}
	s := math.Hypot(deltaAMM, deltaBMM)
	if s == 0 {
		return nil, nil, nil
	}
	tSeconds := s / feedRateMMPerMin * 60
	vA := math.Abs(deltaAMM) / tSeconds * 60 // mm/min
	vB := math.Abs(deltaBMM) / tSeconds * 60

	nA := units.MMToSteps(deltaAMM, paramsA.StepAngleDeg, paramsA.Mode, paramsA.LeadMM)
	nB := units.MMToSteps(deltaBMM, paramsB.StepAngleDeg, paramsB.Mode, paramsB.LeadMM)

	ppsA := units.MMPerMinToPPS(vA, paramsA.StepAngleDeg, paramsA.Mode, paramsA.LeadMM)
	ppsB := units.MMPerMinToPPS(vB, paramsB.StepAngleDeg, paramsB.Mode, paramsB.LeadMM)

	return planConstantSpeedAxis(nA, ppsA), planConstantSpeedAxis(nB, ppsB), nil
}

// planConstantSpeedAxis emits |n| pulses at a fixed interval 1/pps,
// matching spec.md §8 S2 exactly for literal step/pps inputs.
func planConstantSpeedAxis(n int64, pps float64) PulseSequence {
	absN := n
	if absN < 0 {
		absN = -absN
	}
	if absN == 0 || pps <= 0 {
		return nil
	}
	var sign int8 = 1
	if n < 0 {
		sign = -1
	}
	delay := 1 / pps
	seq := make(PulseSequence, absN)
	for i := range seq {
		seq[i] = PulseStep{Dir: sign, Delay: delay}
	}
	return seq
}

// quadrantRow is one entry of spec.md §4.C's quadrant table: given which
// region the walk currently occupies, it fixes the angle-formula offset
// (kx, ky) and the sign each axis's real displacement carries (factorU,
// factorV) relative to the local 0..r walk coordinates.
type quadrantRow struct {
	kx, ky           int
	factorU, factorV float64
}

// cwQuadrants is spec.md §4.C's quadrant table, walked in order for a
// clockwise arc starting at the leftmost point of the circle.
var cwQuadrants = [4]quadrantRow{
	{kx: 0, ky: 0, factorU: 1, factorV: 1},
	{kx: 0, ky: 1, factorU: 1, factorV: -1},
	{kx: 1, ky: 1, factorU: -1, factorV: -1},
	{kx: 1, ky: 2, factorU: -1, factorV: 1},
}

// PlanInterpolatedArc implements spec.md §4.C's angle-based quadrant-walk
// circular interpolation — the canonical algorithm per spec.md §9's
// resolution of the duplicate source implementations, not the simpler
// Bresenham/midpoint variant in original_source/motion_planner.py (see
// DESIGN.md).
//
// rSteps is the arc radius already converted to steps (both axes of a
// circular arc necessarily share one step count, since the radius is a
// single geometric quantity). endUSteps/endVSteps give the endpoint
// relative to the center, in steps; pass endGiven=false for a full circle
// (endpoint coincides with the start). pps is the commanded pulse rate,
// shared by both axes for the duration of the arc.
func (p *Planner) PlanInterpolatedArc(rSteps int64, endUSteps, endVSteps int64, endGiven bool, pps float64, clockwise bool) (PulseSequence, PulseSequence, error) {
	if rSteps <= 0 {
		return nil, nil, cncerr.New(cncerr.InvalidParameters, "planner: arc radius must be positive")
	}
	if pps <= 0 {
		return nil, nil, cncerr.New(cncerr.InvalidParameters, "planner: arc feed rate must be positive")
	}

	r := float64(rSteps)
	nTotal := 4 * rSteps

	var seqU, seqV PulseSequence
	var curU, curV int64 = -rSteps, 0 // start at the leftmost point of the circle, relative to center

	for qi := 0; qi < 4 && int64(len(seqU)) < nTotal; qi++ {
		row := cwQuadrants[qi]
		factorV := row.factorV
		if !clockwise {
			factorV = -factorV
		}

		var lx, ly int64 = 0, 0
		prevPhiU := row.factorU*math.Acos(1) + 2*math.Pi*float64(row.kx)
		prevPhiV := factorV*math.Asin(0) + math.Pi*float64(row.ky)

		for step := int64(0); step < rSteps; step++ {
			xDist := r - float64(lx)
			yDist := r - float64(ly)
			advanceU := xDist <= yDist
			advanceV := yDist <= xDist

			var dtU, dtV float64
			if advanceU {
				lx++
				phi := row.factorU*math.Acos((-float64(lx)+r)/r) + 2*math.Pi*float64(row.kx)
				dtU = r / pps * (phi - prevPhiU)
				prevPhiU = phi
			}
			if advanceV {
				ly++
				phi := factorV*math.Asin(float64(ly)/r) + math.Pi*float64(row.ky)
				dtV = r / pps * (phi - prevPhiV)
				prevPhiV = phi
			}
			if dtU < 0 {
				dtU = -dtU
			}
			if dtV < 0 {
				dtV = -dtV
			}
			switch {
			case advanceU && advanceV:
				seqU = append(seqU, PulseStep{Dir: int8(row.factorU), Delay: dtU})
				seqV = append(seqV, PulseStep{Dir: int8(factorV), Delay: dtV})
				curU += int64(row.factorU)
				curV += int64(factorV)
			case advanceU:
				seqU = append(seqU, PulseStep{Dir: int8(row.factorU), Delay: dtU})
				seqV = append(seqV, PulseStep{Dir: 0, Delay: dtU})
				curU += int64(row.factorU)
			default:
				seqV = append(seqV, PulseStep{Dir: int8(factorV), Delay: dtV})
				seqU = append(seqU, PulseStep{Dir: 0, Delay: dtV})
				curV += int64(factorV)
			}

			if endGiven && curU == endUSteps && curV == endVSteps {
				return seqU, seqV, nil
			}
		}
	}
	return seqU, seqV, nil
}
