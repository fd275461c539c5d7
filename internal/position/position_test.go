package position

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsOrigin(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.pos"))
	pos, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Position{}, pos)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "cncrouter.pos"))
	want := Position{X: 12.5, Y: -3.25, Z: 100}

	require.NoError(t, s.Save(want))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveOverwritesPreviousValue(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "cncrouter.pos"))
	require.NoError(t, s.Save(Position{X: 1, Y: 2, Z: 3}))
	require.NoError(t, s.Save(Position{X: 9, Y: 9, Z: 9}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Position{X: 9, Y: 9, Z: 9}, got)
}
