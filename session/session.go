// Package session holds everything the render loop and the control
// surface share: the effect registry, the active selection, the global
// parameters, the input processor and the clock.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"lautenbacher.net/lightoy/effect"
	"lautenbacher.net/lightoy/input"
	"lautenbacher.net/lightoy/param"
)

var (
	ErrUnknownEffect = errors.New("unknown effect")
	ErrUnknownBlend  = errors.New("unknown blend mode")
)

// Names of the global parameters.
const (
	Twists     = "twists"
	Gamma      = "gamma"
	Brightness = "brightness"
)

// Blend decides which effects contribute to a frame.
type Blend string

const (
	// BlendSingle renders the active effect only.
	BlendSingle Blend = "single"
	// BlendAdditive sums the active effect and the layer effects.
	BlendAdditive Blend = "additive"
)

// ParseBlend maps a config string to a Blend. The empty string is single.
func ParseBlend(s string) (Blend, error) {
	switch Blend(strings.ToLower(s)) {
	case "", BlendSingle:
		return BlendSingle, nil
	case BlendAdditive:
		return BlendAdditive, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBlend, s)
}

// NewGlobals returns the global parameter set with its standard bounds.
func NewGlobals() *param.Set {
	return param.NewSet(map[string]param.Parameter{
		Twists:     param.NewScalar(0, 30, 17.55),
		Gamma:      param.NewScalar(0, 100, 3),
		Brightness: param.NewScalar(0, 1, 0.3),
	})
}

type Session struct {
	mu       sync.RWMutex
	registry *effect.Registry
	active   string
	blend    Blend
	layers   []string

	globals *param.Set
	input   *input.Processor

	timeMu      sync.Mutex
	now         func() time.Time
	start       time.Time
	lastTick    time.Time
	hasLastTick bool
}

// NewSession creates a session over registry. The first effect in name
// order is active. A nil clock uses time.Now.
func NewSession(registry *effect.Registry, processor *input.Processor, clock func() time.Time) *Session {
	if clock == nil {
		clock = time.Now
	}
	if processor == nil {
		processor = input.NewProcessor(input.DefaultPolicy())
	}
	inst := &Session{
		registry: registry,
		blend:    BlendSingle,
		globals:  NewGlobals(),
		input:    processor,
		now:      clock,
	}
	if names := registry.Names(); len(names) > 0 {
		inst.active = names[0]
	}
	inst.start = clock()
	return inst
}

func (s *Session) Registry() *effect.Registry { return s.registry }
func (s *Session) Globals() *param.Set        { return s.globals }
func (s *Session) Input() *input.Processor    { return s.input }

// ActiveName returns the name of the active effect.
func (s *Session) ActiveName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ActiveEffect returns the active effect, nil for an empty registry.
func (s *Session) ActiveEffect() effect.Effect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, _ := s.registry.Get(s.active)
	return e
}

// SetActiveEffect switches the active effect. An unknown name leaves the
// selection unchanged.
func (s *Session) SetActiveEffect(name string) error {
	if _, ok := s.registry.Get(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEffect, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != name {
		slog.Info("Switching active effect", "from", s.active, "to", name)
		s.active = name
	}
	return nil
}

// SetBlend sets the blend mode and the layer effects used in additive
// mode. Nothing changes if a layer name is unknown.
func (s *Session) SetBlend(blend Blend, layers []string) error {
	if blend != BlendSingle && blend != BlendAdditive {
		return fmt.Errorf("%w: %q", ErrUnknownBlend, blend)
	}
	for _, name := range layers {
		if _, ok := s.registry.Get(name); !ok {
			return fmt.Errorf("layer: %w: %q", ErrUnknownEffect, name)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blend = blend
	s.layers = append([]string(nil), layers...)
	return nil
}

// Blend returns the blend mode and a copy of the layer names.
func (s *Session) Blend() (Blend, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blend, append([]string(nil), s.layers...)
}

// RenderEffects returns the effects that contribute to the next frame,
// active effect first. Every effect appears at most once.
func (s *Session) RenderEffects() []effect.Effect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]effect.Effect, 0, 1+len(s.layers))
	if e, ok := s.registry.Get(s.active); ok {
		ret = append(ret, e)
	}
	if s.blend != BlendAdditive {
		return ret
	}
	for _, name := range s.layers {
		if name == s.active {
			continue
		}
		if e, ok := s.registry.Get(name); ok && !contains(ret, e) {
			ret = append(ret, e)
		}
	}
	return ret
}

// GetTime returns the seconds elapsed since the session started.
func (s *Session) GetTime() float64 {
	s.timeMu.Lock()
	defer s.timeMu.Unlock()
	return s.now().Sub(s.start).Seconds()
}

// GetTimeDelta returns the seconds since its previous call, 0 on the first
// call. It is meant to be called once per tick by the render loop.
func (s *Session) GetTimeDelta() float64 {
	s.timeMu.Lock()
	defer s.timeMu.Unlock()
	now := s.now()
	dt := 0.0
	if s.hasLastTick {
		dt = now.Sub(s.lastTick).Seconds()
	}
	s.lastTick = now
	s.hasLastTick = true
	return dt
}

// Tick returns the session time and the delta since the previous Tick or
// GetTimeDelta from a single clock reading.
func (s *Session) Tick() (t, dt float64) {
	s.timeMu.Lock()
	defer s.timeMu.Unlock()
	now := s.now()
	if s.hasLastTick {
		dt = now.Sub(s.lastTick).Seconds()
	}
	s.lastTick = now
	s.hasLastTick = true
	return now.Sub(s.start).Seconds(), dt
}

// Params returns the global set or the active effect's set.
func (s *Session) Params(global bool) *param.Set {
	if global {
		return s.globals
	}
	if e := s.ActiveEffect(); e != nil {
		return e.Params()
	}
	return param.NewSet(nil)
}

// SetParam sets a scalar parameter of the global set or of the active
// effect.
func (s *Session) SetParam(name string, value float64, global bool) error {
	if err := s.Params(global).SetValue(name, value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

// DoParamAction runs action on a parameter of the global set or of the
// active effect.
func (s *Session) DoParamAction(name, action string, global bool) error {
	if err := s.Params(global).DoAction(name, action); err != nil {
		return fmt.Errorf("%s on %s: %w", action, name, err)
	}
	return nil
}

// Snapshot describes the session for the control surface.
type Snapshot struct {
	Active  string       `json:"active"`
	Effects []string     `json:"effects"`
	Blend   Blend        `json:"blend"`
	Layers  []string     `json:"layers"`
	Globals []param.Info `json:"globals"`
	Params  []param.Info `json:"params"`
	Time    float64      `json:"time"`
}

func (s *Session) Snapshot() Snapshot {
	blend, layers := s.Blend()
	return Snapshot{
		Active:  s.ActiveName(),
		Effects: s.registry.Names(),
		Blend:   blend,
		Layers:  layers,
		Globals: s.globals.Describe(),
		Params:  s.Params(false).Describe(),
		Time:    s.GetTime(),
	}
}

func contains(effects []effect.Effect, e effect.Effect) bool {
	for _, x := range effects {
		if x == e {
			return true
		}
	}
	return false
}
