package effect

import (
	"math"

	"lautenbacher.net/lightoy/color"
	"lautenbacher.net/lightoy/input"
	l "lautenbacher.net/lightoy/location"
	"lautenbacher.net/lightoy/param"
)

const CylinderName = "Cylinder"

// Cylinder does a wavy thing on a cylinder: hue, saturation and value are
// sums of sinusoids of the angle around the axis and of the height.
type Cylinder struct {
	*Base
}

func NewCylinder(nLeds int) *Cylinder {
	inst := &Cylinder{}
	params := param.NewSet(map[string]param.Parameter{
		"t_shift":  param.NewScalar(0, 100, 2),
		"h_shift":  param.NewScalar(0, 100, 1),
		"t_period": param.NewScalar(0, 100, 2),
		"h_period": param.NewScalar(0, 100, 4),
		"speed":    param.NewScalar(0, 100, 2),
	})
	inst.Base = NewBase(CylinderName, nLeds, params, inst.render, nil)
	return inst
}

func (s *Cylinder) render(x []l.Point, t, dt float64, in input.State) color.Frame {
	p := s.Params()
	tShift := p.Value("t_shift")
	hShift := p.Value("h_shift")
	tPeriod := p.Value("t_period")
	hPeriod := p.Value("h_period")
	speed := p.Value("speed")

	hsv := make([]color.HSV, len(x))
	for i, pt := range x {
		c := l.CartesianToCylindrical(pt)
		height := math.Sin(hPeriod*c.H + hShift*t*speed)
		around := func(lag float64) float64 {
			return math.Sin(tPeriod*c.Theta + tShift*t*(speed-lag))
		}
		hsv[i] = color.HSV{
			H: 0.5 + 0.3*(around(0.5)+height),
			S: 0.5 + 0.3*(around(0.3)+height),
			V: 0.5 + 0.5*(around(0.1)+height),
		}
	}
	return color.HsvToRgb(hsv)
}
