package location

import "math"

// Orientation of the spiral looking from the top.
const (
	CounterClockwise = 1.0
	Clockwise        = -1.0
)

// Spiral places a strip of LEDs wound around a cylinder. LED i sits at
// angle i*2*pi*twists/n and the strip climbs linearly from z=-1 to z=1.
type Spiral struct {
	numLeds     int
	orientation float64
}

// NewSpiral returns a clockwise spiral of numLeds LEDs.
func NewSpiral(numLeds int) *Spiral {
	return &Spiral{numLeds: numLeds, orientation: Clockwise}
}

// NewSpiralWithOrientation lets the caller choose the winding direction.
func NewSpiralWithOrientation(numLeds int, orientation float64) *Spiral {
	if orientation >= 0 {
		orientation = CounterClockwise
	} else {
		orientation = Clockwise
	}
	return &Spiral{numLeds: numLeds, orientation: orientation}
}

func (s *Spiral) NumLeds() int { return s.numLeds }

// Locations computes all LED positions for the given number of twists.
func (s *Spiral) Locations(twists float64) []Point {
	n := s.numLeds
	points := make([]Point, n)
	if n == 0 {
		return points
	}
	thetaPerLed := 2 * math.Pi * twists / float64(n)
	for i := range points {
		theta := float64(i) * thetaPerLed * s.orientation
		z := -1.0
		if n > 1 {
			z = -1 + 2*float64(i)/float64(n-1)
		}
		points[i] = Point{X: math.Cos(theta), Y: math.Sin(theta), Z: z}
	}
	return points
}
