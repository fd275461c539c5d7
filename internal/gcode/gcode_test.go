package gcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cncrouter/internal/cncerr"
)

type fixedLimits struct {
	min, max float64
}

func (f fixedLimits) InLimits(axis byte, v float64) bool {
	return v >= f.min && v <= f.max
}

// TestS6LinearInterpParses is spec.md §8 S6's first case: "G01 X20 Y40
// F60" parses to kind=LinearInterp, params={X:20, Y:40, F:60}.
func TestS6LinearInterpParses(t *testing.T) {
	p := NewParser(fixedLimits{0, 800})
	cmds, err := p.ParseAll(strings.NewReader("G01 X20 Y40 F60"))
	require.NoError(t, err)
	require.Len(t, cmds, 1)

	cmd := cmds[0]
	assert.Equal(t, LinearInterp, cmd.Kind)
	assert.Equal(t, map[byte]float64{'X': 20, 'Y': 40, 'F': 60}, cmd.Params)
}

// TestS6LimitErrorOnOutOfRange is spec.md §8 S6's second case: "G00
// X1000" with X limit 800 raises LimitError.
func TestS6LimitErrorOnOutOfRange(t *testing.T) {
	p := NewParser(fixedLimits{0, 800})
	_, err := p.ParseAll(strings.NewReader("G00 X1000"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cncerr.Limit))
}

// TestS6InvalidParametersOnThreeAxisLinear is spec.md §8 S6's third
// case: "G01 X20 Y20 Z20" raises InvalidParameters (only two axes
// allowed for linear interpolation).
func TestS6InvalidParametersOnThreeAxisLinear(t *testing.T) {
	p := NewParser(fixedLimits{0, 800})
	_, err := p.ParseAll(strings.NewReader("G01 X20 Y20 Z20"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cncerr.InvalidParameters))
}

func TestBlankAndCommentLinesIgnored(t *testing.T) {
	p := NewParser(nil)
	cmds, err := p.ParseAll(strings.NewReader("\n% this is a comment\nG00 X1\n"))
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, Rapid, cmds[0].Kind)
}

func TestDuplicateLetterRejected(t *testing.T) {
	p := NewParser(nil)
	_, err := p.ParseAll(strings.NewReader("G00 X1 X2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cncerr.Parse))
}

func TestUnsupportedGCodeRejected(t *testing.T) {
	p := NewParser(nil)
	_, err := p.ParseAll(strings.NewReader("G99 X1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cncerr.Parse))
}

func TestBothGAndMRejected(t *testing.T) {
	p := NewParser(nil)
	_, err := p.ParseAll(strings.NewReader("G00 M03 X1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cncerr.Parse))
}

func TestNegativeLineNumberRejected(t *testing.T) {
	p := NewParser(nil)
	_, err := p.ParseAll(strings.NewReader("N-1 G00 X1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cncerr.Parse))
}

func TestArcRequiresRadiusOrOffsets(t *testing.T) {
	p := NewParser(nil)
	_, err := p.ParseAll(strings.NewReader("G02 X10 Y10"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cncerr.InvalidParameters))
}

func TestArcAcceptsRadiusForm(t *testing.T) {
	p := NewParser(nil)
	cmds, err := p.ParseAll(strings.NewReader("G02 X10 Y10 R5"))
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, ArcCW, cmds[0].Kind)
}

func TestPlaneSelectRejectsAxisParams(t *testing.T) {
	p := NewParser(nil)
	_, err := p.ParseAll(strings.NewReader("G17 X1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cncerr.Parse))
}

func TestSetPositionParsesWithoutMotion(t *testing.T) {
	p := NewParser(nil)
	cmds, err := p.ParseAll(strings.NewReader("G92 X0 Y0 Z0"))
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, SetPosition, cmds[0].Kind)
}
