// Package ramp generates monotonically decreasing per-step interval
// sequences that bring an axis from rest up to a target angular velocity
// under one of three acceleration curves.
//
// Grounded on original_source/motion_planner.py's
// _configure_ramp_trapezoidal, _configure_ramp_sigmoidal and
// _configure_ramp_polynomial, translated step for step into Go with the
// same variable names the Python kept (w, a, angle, c0, cn) so the
// formulas stay checkable against the source and against spec.md §4.B's
// concrete scenarios S4/S5.
package ramp

import (
	"math"

	"cncrouter/internal/cncerr"
)

// Variant selects which acceleration curve a ramp is generated under.
type Variant int

const (
	Trapezoidal Variant = iota
	Sigmoidal
	Polynomial
)

func (v Variant) String() string {
	switch v {
	case Trapezoidal:
		return "trapezoidal"
	case Sigmoidal:
		return "sigmoidal"
	case Polynomial:
		return "polynomial"
	default:
		return "unknown"
	}
}

// Params are the three quantities (besides the Variant) a ramp is a pure
// function of.
type Params struct {
	Omega        float64 // target angular velocity, rad/s
	Alpha        float64 // angular acceleration, rad/s^2
	StepAngleRad float64 // angle traversed by one step, rad
}

// Generate returns the strictly-decreasing sequence of per-step time
// intervals (seconds) for the requested curve. Deceleration is this same
// sequence reversed; callers compose that themselves (see planner).
func Generate(v Variant, p Params) ([]float64, error) {
	if p.Omega <= 0 || p.Alpha <= 0 {
		return nil, cncerr.Newf(cncerr.InvalidParameters,
			"ramp: omega and alpha must be positive, got omega=%v alpha=%v", p.Omega, p.Alpha)
	}
	switch v {
	case Trapezoidal:
		return trapezoidal(p.Omega, p.Alpha, p.StepAngleRad), nil
	case Sigmoidal:
		return sigmoidal(p.Omega, p.Alpha, p.StepAngleRad), nil
	case Polynomial:
		return polynomial(p.Omega, p.Alpha, p.StepAngleRad), nil
	default:
		return nil, cncerr.Newf(cncerr.InvalidParameters, "ramp: unknown variant %d", v)
	}
}

// trapezoidal implements the classic Austin constant-acceleration formula.
func trapezoidal(w, a, angle float64) []float64 {
	n := int(math.Round(w * w / (2 * angle * a)))
	if n < 1 {
		n = 1
	}
	c0 := math.Sqrt(2 * angle / a)
	c := make([]float64, 0, n)
	c = append(c, c0)
	for i := 1; i < n; i++ {
		cn := c0 * (math.Sqrt(float64(i+1)) - math.Sqrt(float64(i)))
		c = append(c, cn)
	}
	return c
}

// sigmoidal implements the smooth jerk-limited logistic ramp.
func sigmoidal(w, a, angle float64) []float64 {
	const ti = 0.4
	wOver4a := w / (4 * a)
	aOver4w := (4 * a) / w
	eTi := math.Exp(aOver4w * ti)
	eN := math.Exp(aOver4w * angle / w)
	tMod := ti - wOver4a*math.Log(0.005)

	n := int(math.Round(
		w * w * (math.Log(math.Exp(aOver4w*tMod)+eTi) - math.Log(eTi+1)) / (4 * a * angle)))
	if n < 2 {
		n = 2
	}
	c := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		cn := wOver4a * math.Log(
			((eTi+1)*math.Pow(eN, float64(i+1))-eTi)/
				((eTi+1)*math.Pow(eN, float64(i))-eTi))
		c = append(c, cn)
	}
	return c
}

// polynomial implements the three-segment (concave/linear/convex) S-curve.
// Marked best-effort per spec.md §9 Open Questions: the source itself
// carries unresolved TODOs in this variant.
func polynomial(w, a, angle float64) []float64 {
	v3 := w
	v1 := v3 / 4
	v2 := v3 * 3 / 4

	n1 := int(math.Round(v1 * v1 / (angle * a)))
	n2 := n1 + int(math.Round(v2*v2/(2*a*angle)))
	n3 := n2 + int(math.Round(2*v3*v3*v3/(angle*a*a)))
	if n3 < 2 {
		n3 = 2
	}

	c := make([]float64, 0, n3)
	for i := 0; i < n3; i++ {
		var cn float64
		switch {
		case i <= n1:
			an := float64(i+1) / float64(n1+1) * a
			c0 := math.Cbrt(2 * angle / an)
			cn = c0 * (math.Cbrt(float64(i+1)) - math.Cbrt(float64(i)))
		case i <= n2:
			an := a
			c0 := math.Sqrt(2 * angle / an)
			ct := c0 * (math.Sqrt(float64(i+1)) - math.Sqrt(float64(i)))
			vt := 1/ct*angle - a/(v2*2)
			cn = 1 / vt * angle
		default:
			an := float64(n3-(i-n2)) / float64(n3) * a
			c0 := math.Cbrt(2 * angle / an)
			ct := c0 * (math.Cbrt(float64(i+1)) - math.Cbrt(float64(i)))
			vt := 1/ct*angle + a/(v3*2)
			cn = 1 / vt * angle
		}
		c = append(c, cn)
	}
	return c
}
