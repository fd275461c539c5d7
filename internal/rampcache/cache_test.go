package rampcache

import (
	"testing"

	"cncrouter/internal/ramp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCacheHitReturnsIdenticalSlice(t *testing.T) {
	c := NewMemCache()
	k := Key{Variant: ramp.Trapezoidal, Omega: 10, Alpha: 5, Mode: 2, StepAngleDeg: 1.8, LeadMM: 5}
	p := ramp.Params{Omega: 10, Alpha: 5, StepAngleRad: 0.0157}

	first, err := Generate(c, k, p)
	require.NoError(t, err)

	second, err := Generate(c, k, p)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Mutating the returned slice from one call must not corrupt the cache.
	second[0] = -1
	third, _ := c.Get(k)
	assert.NotEqual(t, -1.0, third[0])
}

func TestMemCacheMiss(t *testing.T) {
	c := NewMemCache()
	_, ok := c.Get(Key{Variant: ramp.Sigmoidal, Omega: 1, Alpha: 1, Mode: 1, StepAngleDeg: 1.8, LeadMM: 5})
	assert.False(t, ok)
}
