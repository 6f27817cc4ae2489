package color

import "lautenbacher.net/lightoy/util"

// Led is the color of one light. Components are nominally in [0,1] but
// effects may produce values outside that range; Clip bounds them.
type Led struct {
	Red   float64
	Green float64
	Blue  float64
}

// Gray returns a Led with all three components set to v.
func Gray(v float64) Led {
	return Led{Red: v, Green: v, Blue: v}
}

// True if all components are zero, false otherwise
func (s Led) IsEmpty() bool {
	return s.Red == 0 && s.Green == 0 && s.Blue == 0
}

// Return a Led with per component the max value of the caller and the
// in parameter
func (s Led) Max(in Led) Led {
	if s.Red > in.Red {
		in.Red = s.Red
	}
	if s.Green > in.Green {
		in.Green = s.Green
	}
	if s.Blue > in.Blue {
		in.Blue = s.Blue
	}
	return in
}

// Add returns the component-wise sum.
func (s Led) Add(in Led) Led {
	return Led{s.Red + in.Red, s.Green + in.Green, s.Blue + in.Blue}
}

// Scale multiplies every component by f.
func (s Led) Scale(f float64) Led {
	return Led{s.Red * f, s.Green * f, s.Blue * f}
}

// Clip bounds every component to [0,1].
func (s Led) Clip() Led {
	return Led{
		Red:   util.Clamp(s.Red, 0, 1),
		Green: util.Clamp(s.Green, 0, 1),
		Blue:  util.Clamp(s.Blue, 0, 1),
	}
}

// Frame is the color of every LED at one render tick, indexed by LED.
type Frame []Led

// NewFrame returns an all-dark frame of n LEDs.
func NewFrame(n int) Frame {
	return make(Frame, n)
}

// Copy returns an independent copy of the frame.
func (f Frame) Copy() Frame {
	ret := make(Frame, len(f))
	copy(ret, f)
	return ret
}

// Clip bounds every component of every LED to [0,1] in place.
func (f Frame) Clip() Frame {
	for i := range f {
		f[i] = f[i].Clip()
	}
	return f
}

// Scale multiplies every LED by k in place.
func (f Frame) Scale(k float64) Frame {
	for i := range f {
		f[i] = f[i].Scale(k)
	}
	return f
}

// Add sums other into f in place. Extra LEDs in other are ignored.
func (f Frame) Add(other Frame) Frame {
	for i := range f {
		if i >= len(other) {
			break
		}
		f[i] = f[i].Add(other[i])
	}
	return f
}
