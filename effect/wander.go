package effect

import (
	"math"
	"math/rand/v2"

	"lautenbacher.net/lightoy/color"
	"lautenbacher.net/lightoy/input"
	l "lautenbacher.net/lightoy/location"
	"lautenbacher.net/lightoy/param"
)

const WanderName = "Wander"

// Wander gives every LED a color that moves through RGB space along a
// fixed-length direction vector. When a channel leaves [0,1] it is
// reflected back and that channel's direction flips, like a ball bouncing
// in a box, one ball per LED.
type Wander struct {
	*Base
	colors     [][3]float64
	directions [][3]float64
}

func NewWander(nLeds int, rnd *rand.Rand) *Wander {
	inst := &Wander{
		colors:     make([][3]float64, nLeds),
		directions: make([][3]float64, nLeds),
	}
	for i := range inst.directions {
		inst.directions[i] = randomUnitVector(rnd)
	}
	params := param.NewSet(map[string]param.Parameter{
		"speed": param.NewScalar(0, 2, 0.3),
	})
	inst.Base = NewBase(WanderName, nLeds, params, inst.render, inst.updateState)
	return inst
}

func (s *Wander) updateState(x []l.Point, t, dt float64, in input.State) {
	step := dt * s.Params().Value("speed")
	if step == 0 {
		return
	}
	for led := range s.colors {
		for c := range 3 {
			v := s.colors[led][c] + s.directions[led][c]*step
			s.colors[led][c], s.directions[led][c] = bounce(v, s.directions[led][c])
		}
	}
}

func (s *Wander) render(x []l.Point, t, dt float64, in input.State) color.Frame {
	frame := color.NewFrame(len(s.colors))
	for i, c := range s.colors {
		frame[i] = color.Led{Red: c[0], Green: c[1], Blue: c[2]}
	}
	return frame
}

// bounce folds v back into [0,1], flipping dir once per reflection.
func bounce(v, dir float64) (float64, float64) {
	if v >= 0 && v <= 1 {
		return v, dir
	}
	p := math.Mod(v, 2)
	if p < 0 {
		p += 2
	}
	if math.IsNaN(p) {
		return 0, dir
	}
	if p > 1 {
		return 2 - p, -dir
	}
	return p, dir
}

func randomUnitVector(rnd *rand.Rand) [3]float64 {
	draw := rand.Float64
	if rnd != nil {
		draw = rnd.Float64
	}
	var v [3]float64
	for {
		for c := range v {
			v[c] = draw()
		}
		norm := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		if norm > 1e-9 {
			for c := range v {
				v[c] /= norm
			}
			return v
		}
	}
}
