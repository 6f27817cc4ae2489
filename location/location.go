// Package location maps LED indices to positions in space.
package location

import (
	"math"
	"sync"
)

// Point is a position in space. Each dimension ranges over [-1,1].
type Point struct {
	X float64
	Y float64
	Z float64
}

// Cylindrical is a point in cylindrical coordinates.
type Cylindrical struct {
	R     float64
	Theta float64
	H     float64
}

// CartesianToCylindrical converts p. Theta is in (-pi, pi].
func CartesianToCylindrical(p Point) Cylindrical {
	return Cylindrical{
		R:     math.Hypot(p.X, p.Y),
		Theta: math.Atan2(p.Y, p.X),
		H:     p.Z,
	}
}

// LocationModel produces the position of every LED. The result depends
// only on the model's configuration and on twists.
type LocationModel interface {
	NumLeds() int
	Locations(twists float64) []Point
}

// Cached wraps a model and recomputes locations only when twists changes.
// It is safe for concurrent use.
type Cached struct {
	model LocationModel

	mu        sync.Mutex
	valid     bool
	lastTwist float64
	points    []Point
}

func NewCached(model LocationModel) *Cached {
	return &Cached{model: model}
}

func (c *Cached) NumLeds() int { return c.model.NumLeds() }

// Locations returns the cached points. Callers must not modify the
// returned slice.
func (c *Cached) Locations(twists float64) []Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.lastTwist != twists {
		c.points = c.model.Locations(twists)
		c.lastTwist = twists
		c.valid = true
	}
	return c.points
}
