package effect

import (
	"math"
	"math/rand/v2"

	"lautenbacher.net/lightoy/color"
	"lautenbacher.net/lightoy/input"
	l "lautenbacher.net/lightoy/location"
	"lautenbacher.net/lightoy/param"
)

const WavyName = "Wavy"

// Wavy shows a band of twinkling light that follows the focus point. Each
// LED twinkles at its own random rate; the band is a sin^8 envelope
// around focus_x and its hue follows focus_y.
type Wavy struct {
	*Base
}

func NewWavy(nLeds int, rnd *rand.Rand) *Wavy {
	inst := &Wavy{}
	params := param.NewSet(map[string]param.Parameter{
		"periods": param.NewRandomArray(nLeds, rnd),
		// values below this are switched off to avoid flicker at the
		// envelope edges
		"threshold": param.NewScalar(0, 0.5, 0.01),
	})
	inst.Base = NewBase(WavyName, nLeds, params, inst.render, nil)
	return inst
}

func (s *Wavy) render(x []l.Point, t, dt float64, in input.State) color.Frame {
	periods := s.Params().Array("periods").Value()
	threshold := s.Params().Value("threshold")

	hue := 0.5 + 0.5*math.Sin(in.FocusY*2)
	hsv := make([]color.HSV, len(x))
	for i, pt := range x {
		modulation := 0.0
		if i < len(periods) {
			modulation = math.Sin(t * 10 * periods[i])
		}
		brightness := (0.8 - 0.1*in.Fade) + (0.2+0.1*in.Fade)*modulation
		mask := math.Pow(math.Sin((pt.X-in.FocusX)*5), 8)
		v := (0.25 + 0.75*in.Fade) * brightness * mask
		if v < threshold {
			v = 0
		}
		hsv[i] = color.HSV{H: hue, S: 0.8, V: v}
	}
	return color.HsvToRgb(hsv)
}
