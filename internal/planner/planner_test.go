package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestS1RampedAxisLengthsAndDirections checks the 8-step X axis of
// spec.md §8 S1: length 8, all directions +1, delays symmetric about the
// midpoint, and the head matching the ramp's first entry.
func TestS1RampedAxisLengthsAndDirections(t *testing.T) {
	ramp := []float64{0.02, 0.015, 0.011}
	seq := planRampedAxis(8, 200, ramp)
	require.Len(t, seq, 8)
	for _, p := range seq {
		assert.Equal(t, int8(1), p.Dir)
	}
	assert.Equal(t, ramp[0], seq[0].Delay)
	// Symmetric: first and last, second and second-to-last, etc.
	for i := 0; i < len(seq)/2; i++ {
		assert.InDelta(t, seq[i].Delay, seq[len(seq)-1-i].Delay, 1e-12)
	}
}

func TestRampedAxisTruncatesWhenShorterThanTwiceRamp(t *testing.T) {
	ramp := []float64{0.05, 0.04, 0.03, 0.02}
	seq := planRampedAxis(5, 200, ramp) // 5 < 2*4
	require.Len(t, seq, 5)
	for i := 0; i < len(seq)/2; i++ {
		assert.InDelta(t, seq[i].Delay, seq[len(seq)-1-i].Delay, 1e-12)
	}
}

func TestRampedAxisNegativeDirection(t *testing.T) {
	seq := planRampedAxis(-4, 100, nil)
	require.Len(t, seq, 4)
	for _, p := range seq {
		assert.Equal(t, int8(-1), p.Dir)
	}
}

func TestRampedAxisZeroDeltaIsEmpty(t *testing.T) {
	assert.Nil(t, planRampedAxis(0, 100, []float64{0.1}))
}

// TestS2ConstantSpeedAxis is spec.md §8 S2: Δ=(8,4) at 200pps/100pps
// returns sequence_x = 8·(+1, 0.005), sequence_y = 4·(+1, 0.010).
func TestS2ConstantSpeedAxis(t *testing.T) {
	seqX := planConstantSpeedAxis(8, 200)
	seqY := planConstantSpeedAxis(4, 100)

	require.Len(t, seqX, 8)
	require.Len(t, seqY, 4)
	for _, p := range seqX {
		assert.Equal(t, int8(1), p.Dir)
		assert.InDelta(t, 0.005, p.Delay, 1e-12)
	}
	for _, p := range seqY {
		assert.Equal(t, int8(1), p.Dir)
		assert.InDelta(t, 0.010, p.Delay, 1e-12)
	}
}

// TestS3FullCircleArc is spec.md §8 S3: full CW arc, r=10 steps,
// endpoint=(0,0) (full circle), v=100 pps both axes: two sequences of
// length 40; first x-pulse +1 delay≈0.0451s, first y-pulse +1
// delay≈0.01s.
func TestS3FullCircleArc(t *testing.T) {
	p := New(nil)
	seqU, seqV, err := p.PlanInterpolatedArc(10, 0, 0, false, 100, true)
	require.NoError(t, err)

	assert.Len(t, seqU, 40)
	assert.Len(t, seqV, 40)

	assert.Equal(t, int8(1), seqU[0].Dir)
	assert.InDelta(t, 0.0451, seqU[0].Delay, 1e-3)

	assert.Equal(t, int8(1), seqV[0].Dir)
	assert.InDelta(t, 0.01, seqV[0].Delay, 1e-3)
}

func TestArcRejectsNonPositiveRadius(t *testing.T) {
	p := New(nil)
	_, _, err := p.PlanInterpolatedArc(0, 0, 0, false, 100, true)
	assert.Error(t, err)
}

func TestArcRejectsNonPositiveFeedRate(t *testing.T) {
	p := New(nil)
	_, _, err := p.PlanInterpolatedArc(10, 0, 0, false, 0, true)
	assert.Error(t, err)
}

// TestPlanInterpolatedLineRejectsNonPositiveFeedRate: spec.md §8 S6's
// three-axis case has no home at the planner level, since
// PlanInterpolatedLine only accepts two axes by signature; the executor
// enforces the two-axis rule before calling in. This test instead checks
// that a zero feed rate is rejected.
func TestPlanInterpolatedLineRejectsNonPositiveFeedRate(t *testing.T) {
	p := New(nil)
	axis := AxisParams{StepAngleDeg: 1.8, Mode: 2, LeadMM: 5, AccelMMPerS2: 200}
	_, _, err := p.PlanInterpolatedLine(10, 5, axis, axis, 0)
	assert.Error(t, err)
}

func TestPlanInterpolatedLineZeroDeltaIsEmpty(t *testing.T) {
	p := New(nil)
	axis := AxisParams{StepAngleDeg: 1.8, Mode: 2, LeadMM: 5, AccelMMPerS2: 200}
	seqA, seqB, err := p.PlanInterpolatedLine(0, 0, axis, axis, 500)
	require.NoError(t, err)
	assert.Nil(t, seqA)
	assert.Nil(t, seqB)
}
