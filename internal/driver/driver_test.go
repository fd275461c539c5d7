package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeBitsKnown(t *testing.T) {
	bits, ok := DRV8825.ModeBits(8)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 1}, bits)
}

func TestModeBitsUnknown(t *testing.T) {
	_, ok := DRV8825.ModeBits(3)
	assert.False(t, ok)
}

func TestByName(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
		bits    int
	}{
		{"DRV8825", false, 3},
		{"DRV8711", false, 4},
		{"TB67S249FTG", false, 3},
		{"nonexistent", true, 0},
	}
	for _, c := range cases {
		d, err := ByName(c.name)
		if c.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, c.bits, d.Bits)
	}
}

func TestTB67S249FTGAlternateEncoding(t *testing.T) {
	bits, ok := TB67S249FTG.ModeBits(1)
	require.True(t, ok)
	// Full step is (1,0,0) on TB67S249FTG, unlike DRV8825's (0,0,0).
	assert.Equal(t, []int{1, 0, 0}, bits)
}
