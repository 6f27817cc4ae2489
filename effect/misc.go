package effect

import (
	"math"

	"lautenbacher.net/lightoy/color"
	"lautenbacher.net/lightoy/input"
	l "lautenbacher.net/lightoy/location"
	"lautenbacher.net/lightoy/param"
)

const (
	VerticalWipeName       = "VerticalWipe"
	InputFollowingWaveName = "InputFollowingWave"
)

// VerticalWipe lights the strip above a height that follows focus_y, with
// a logistic edge.
type VerticalWipe struct {
	*Base
}

func NewVerticalWipe(nLeds int) *VerticalWipe {
	inst := &VerticalWipe{}
	params := param.NewSet(map[string]param.Parameter{
		"sharpness": param.NewScalar(0, 100, 20),
		"level":     param.NewScalar(0, 1, 0.2),
	})
	inst.Base = NewBase(VerticalWipeName, nLeds, params, inst.render, nil)
	return inst
}

func (s *VerticalWipe) render(x []l.Point, t, dt float64, in input.State) color.Frame {
	sharpness := s.Params().Value("sharpness")
	level := s.Params().Value("level")
	// focus is in pad coordinates [0,1], heights in [-1,1]
	center := 2*in.FocusY - 1

	frame := color.NewFrame(len(x))
	for i, pt := range x {
		frame[i] = color.Gray(level / (1 + math.Exp(-sharpness*(pt.Z-center))))
	}
	return frame
}

// InputFollowingWave is a subtle blue marching pattern whose spatial
// frequency follows focus_x and whose speed follows focus_y.
type InputFollowingWave struct {
	*Base
}

func NewInputFollowingWave(nLeds int) *InputFollowingWave {
	inst := &InputFollowingWave{}
	params := param.NewSet(map[string]param.Parameter{
		"freq": param.NewScalar(0, 100, 20),
	})
	inst.Base = NewBase(InputFollowingWaveName, nLeds, params, inst.render, nil)
	return inst
}

func (s *InputFollowingWave) render(x []l.Point, t, dt float64, in input.State) color.Frame {
	freq := s.Params().Value("freq")

	frame := color.NewFrame(len(x))
	for i, pt := range x {
		b := math.Sin(freq*in.FocusX*pt.X - freq*in.FocusY*t)
		frame[i] = color.Led{Blue: b * b}
	}
	return frame
}
