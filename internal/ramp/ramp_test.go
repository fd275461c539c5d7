package ramp

import (
	"math"
	"testing"

	"cncrouter/internal/units"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramsFor(vMMPerMin, aMMPerSec2, stepAngle float64, mode int, lead float64) Params {
	return Params{
		Omega:        units.AngularVelocity(vMMPerMin, stepAngle, mode, lead),
		Alpha:        units.AngularAcceleration(aMMPerSec2, stepAngle, mode, lead),
		StepAngleRad: units.StepAngleRad(stepAngle, mode),
	}
}

// S4: trapezoidal ramp scenario from spec.md §8.
func TestTrapezoidalScenarioS4(t *testing.T) {
	p := paramsFor(200, 200, 1.8, 2, 5)
	c, err := Generate(Trapezoidal, p)
	require.NoError(t, err)
	require.Len(t, c, 2)
	assert.InDelta(t, 0.01118, c[0], 1e-5)
	assert.InDelta(t, 0.004631, c[1], 1e-6)
}

// S5: sigmoidal ramp scenario from spec.md §8.
func TestSigmoidalScenarioS5(t *testing.T) {
	p := paramsFor(200, 200, 1.8, 2, 5)
	c, err := Generate(Sigmoidal, p)
	require.NoError(t, err)
	require.Len(t, c, 5)
	want := []float64{0.005171, 0.004213, 0.003924, 0.003819, 0.003778}
	for i, w := range want {
		assert.InDelta(t, w, c[i], 1e-5)
	}
}

func TestInvalidParameters(t *testing.T) {
	_, err := Generate(Trapezoidal, Params{Omega: 0, Alpha: 1, StepAngleRad: 0.01})
	assert.Error(t, err)
	_, err = Generate(Trapezoidal, Params{Omega: 1, Alpha: 0, StepAngleRad: 0.01})
	assert.Error(t, err)
}

func TestStrictlyDecreasingAndBounds(t *testing.T) {
	for _, v := range []Variant{Trapezoidal, Sigmoidal, Polynomial} {
		p := paramsFor(3000, 500, 1.8, 16, 5)
		c, err := Generate(v, p)
		require.NoError(t, err)
		require.NotEmpty(t, c)
		for i := 1; i < len(c); i++ {
			assert.Greaterf(t, c[i-1], c[i], "%s: interval %d not strictly decreasing", v, i)
		}
		last := c[len(c)-1]
		stepPeriod := p.StepAngleRad / p.Omega
		assert.InDeltaf(t, stepPeriod, last, 0.1*stepPeriod, "%s: final interval out of [0.9,1.1]*phi/omega", v)
	}
}

func TestDeterministic(t *testing.T) {
	p := paramsFor(500, 300, 1.8, 8, 5)
	a, err := Generate(Sigmoidal, p)
	require.NoError(t, err)
	b, err := Generate(Sigmoidal, p)
	require.NoError(t, err)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, math.Float64bits(a[i]), math.Float64bits(b[i]))
	}
}
