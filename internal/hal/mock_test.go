package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderTracksEdges(t *testing.T) {
	p := NewMockProvider()
	pin, err := p.Pin(17)
	require.NoError(t, err)

	require.NoError(t, pin.SetHigh())
	require.NoError(t, pin.SetLow())
	require.NoError(t, pin.SetHigh())

	assert.Equal(t, 2, p.Edges(17))
}

func TestMockProviderReadReflectsLastWrite(t *testing.T) {
	p := NewMockProvider()
	pin, err := p.Pin(27)
	require.NoError(t, err)

	require.NoError(t, pin.SetHigh())
	v, err := pin.Read()
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, pin.SetLow())
	v, err = pin.Read()
	require.NoError(t, err)
	assert.False(t, v)
}

func TestMockProviderCloseResetsState(t *testing.T) {
	p := NewMockProvider()
	pin, err := p.Pin(22)
	require.NoError(t, err)
	require.NoError(t, pin.SetHigh())

	require.NoError(t, p.Close())

	v, err := pin.Read()
	require.NoError(t, err)
	assert.False(t, v)
}
