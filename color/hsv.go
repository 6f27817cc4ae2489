package color

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSV is a color in hue/saturation/value space. Hue is cyclic with period
// 1; saturation and value are nominally in [0,1].
type HSV struct {
	H float64
	S float64
	V float64
}

// wrapHue maps h into [0,1).
func wrapHue(h float64) float64 {
	h -= math.Floor(h)
	if h >= 1 {
		h = 0
	}
	return h
}

// ToRgb converts a single HSV color.
func (c HSV) ToRgb() Led {
	rgb := colorful.Hsv(wrapHue(c.H)*360, c.S, c.V)
	return Led{Red: rgb.R, Green: rgb.G, Blue: rgb.B}
}

// ToHsv converts a single RGB color. Achromatic colors get hue 0.
func (s Led) ToHsv() HSV {
	h, sat, v := colorful.Color{R: s.Red, G: s.Green, B: s.Blue}.Hsv()
	return HSV{H: wrapHue(h / 360), S: sat, V: v}
}

// HsvToRgb converts every LED of an HSV frame.
func HsvToRgb(hsv []HSV) Frame {
	ret := make(Frame, len(hsv))
	for i, c := range hsv {
		ret[i] = c.ToRgb()
	}
	return ret
}

// RgbToHsv converts every LED of an RGB frame.
func RgbToHsv(f Frame) []HSV {
	ret := make([]HSV, len(f))
	for i, led := range f {
		ret[i] = led.ToHsv()
	}
	return ret
}

// GammaCorrect raises the value channel of every LED to the power gamma
// and returns the corrected frame. Hue and saturation are kept.
func GammaCorrect(f Frame, gamma float64) Frame {
	hsv := RgbToHsv(f)
	for i := range hsv {
		hsv[i].V = math.Pow(hsv[i].V, gamma)
	}
	return HsvToRgb(hsv)
}
