package location

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpiral_ZeroTwists(t *testing.T) {
	s := NewSpiral(11)
	points := s.Locations(0)
	require.Len(t, points, 11)

	for i, p := range points {
		assert.Equal(t, 1.0, p.X, "led %d", i)
		assert.Equal(t, 0.0, p.Y, "led %d", i)
	}
	assert.Equal(t, -1.0, points[0].Z)
	assert.Equal(t, 1.0, points[10].Z)
	for i := 1; i < len(points); i++ {
		assert.InDelta(t, 0.2, points[i].Z-points[i-1].Z, 1e-12, "z spacing at %d", i)
	}
}

func TestSpiral_OneTwistClockwise(t *testing.T) {
	s := NewSpiral(4)
	points := s.Locations(1)
	// quarter turn per LED, clockwise looking from the top
	assert.InDelta(t, 0.0, points[1].X, 1e-12)
	assert.InDelta(t, -1.0, points[1].Y, 1e-12)
	assert.InDelta(t, -1.0, points[2].X, 1e-12)

	ccw := NewSpiralWithOrientation(4, CounterClockwise).Locations(1)
	assert.InDelta(t, 1.0, ccw[1].Y, 1e-12)
}

func TestSpiral_UnitRadius(t *testing.T) {
	for _, p := range NewSpiral(250).Locations(17.55) {
		assert.InDelta(t, 1.0, math.Hypot(p.X, p.Y), 1e-12)
		assert.GreaterOrEqual(t, p.Z, -1.0)
		assert.LessOrEqual(t, p.Z, 1.0)
	}
}

func TestSpiral_Deterministic(t *testing.T) {
	a := NewSpiral(100).Locations(3.3)
	b := NewSpiral(100).Locations(3.3)
	assert.Equal(t, a, b)
}

func TestSpiral_Degenerate(t *testing.T) {
	assert.Empty(t, NewSpiral(0).Locations(5))
	one := NewSpiral(1).Locations(5)
	require.Len(t, one, 1)
	assert.Equal(t, Point{X: 1, Y: 0, Z: -1}, one[0])
}

func TestCartesianToCylindrical(t *testing.T) {
	c := CartesianToCylindrical(Point{X: 0, Y: 2, Z: 0.5})
	assert.InDelta(t, 2.0, c.R, 1e-12)
	assert.InDelta(t, math.Pi/2, c.Theta, 1e-12)
	assert.Equal(t, 0.5, c.H)
}

type countingModel struct {
	*Spiral
	calls int
}

func (m *countingModel) Locations(twists float64) []Point {
	m.calls++
	return m.Spiral.Locations(twists)
}

func TestCached_RecomputesOnlyOnChange(t *testing.T) {
	m := &countingModel{Spiral: NewSpiral(10)}
	c := NewCached(m)
	assert.Equal(t, 10, c.NumLeds())

	first := c.Locations(2)
	c.Locations(2)
	assert.Equal(t, 1, m.calls)

	second := c.Locations(3)
	assert.Equal(t, 2, m.calls)
	assert.NotEqual(t, first, second)
}
