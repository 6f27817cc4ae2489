// Package effect contains the render units that decide what the LEDs
// show.
//
// An effect owns its parameters and a private state. Each tick the render
// loop calls DoRender, which first lets the effect update its state and
// then renders a frame from the updated state. Rendering itself never
// mutates the state, and effects never write their own parameters; only
// the control surface does.
package effect

import (
	"lautenbacher.net/lightoy/color"
	"lautenbacher.net/lightoy/input"
	l "lautenbacher.net/lightoy/location"
	"lautenbacher.net/lightoy/param"
)

// Effect is the outside interface all concrete effects fulfill.
type Effect interface {
	Name() string
	NumLeds() int
	Params() *param.Set
	// DoRender advances the state to (t, dt) and renders one frame with
	// one Led per point in x.
	DoRender(x []l.Point, t, dt float64, in input.State) color.Frame
}

// RenderFunc computes a frame from the current state. It must not mutate
// the effect's state.
type RenderFunc func(x []l.Point, t, dt float64, in input.State) color.Frame

// UpdateFunc mutates the effect's state before rendering.
type UpdateFunc func(x []l.Point, t, dt float64, in input.State)

// Base implements the shared part of every effect. Concrete effects embed
// it and hand their render (and optional update) method to NewBase.
type Base struct {
	name   string
	nLeds  int
	params *param.Set
	render RenderFunc
	update UpdateFunc
}

// NewBase creates the common part of an effect. update may be nil for
// stateless effects.
func NewBase(name string, nLeds int, params *param.Set, render RenderFunc, update UpdateFunc) *Base {
	if params == nil {
		params = param.NewSet(nil)
	}
	return &Base{
		name:   name,
		nLeds:  nLeds,
		params: params,
		render: render,
		update: update,
	}
}

func (s *Base) Name() string       { return s.name }
func (s *Base) NumLeds() int       { return s.nLeds }
func (s *Base) Params() *param.Set { return s.params }

// DoRender runs the state update followed by the render step.
func (s *Base) DoRender(x []l.Point, t, dt float64, in input.State) color.Frame {
	if s.update != nil {
		s.update(x, t, dt, in)
	}
	return s.render(x, t, dt, in)
}
