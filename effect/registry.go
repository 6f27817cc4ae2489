package effect

import (
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"
)

// Factory builds one effect of the catalog.
type Factory struct {
	Name string
	New  func(nLeds int, rnd *rand.Rand) Effect
}

// Catalog lists every built-in effect. The registry is built from this
// table only.
var Catalog = []Factory{
	{Name: CylinderName, New: func(n int, _ *rand.Rand) Effect { return NewCylinder(n) }},
	{Name: InputFollowingWaveName, New: func(n int, _ *rand.Rand) Effect { return NewInputFollowingWave(n) }},
	{Name: VerticalWipeName, New: func(n int, _ *rand.Rand) Effect { return NewVerticalWipe(n) }},
	{Name: WanderName, New: func(n int, rnd *rand.Rand) Effect { return NewWander(n, rnd) }},
	{Name: WavyName, New: func(n int, rnd *rand.Rand) Effect { return NewWavy(n, rnd) }},
}

// Registry maps effect names to their single instance. Its membership is
// fixed after construction.
type Registry struct {
	effects map[string]Effect
}

// NewRegistry instantiates every catalog entry for nLeds LEDs. A nil rnd
// uses the global random source.
func NewRegistry(nLeds int, rnd *rand.Rand) *Registry {
	effects := make([]Effect, 0, len(Catalog))
	for _, f := range Catalog {
		effects = append(effects, f.New(nLeds, rnd))
	}
	return NewRegistryFrom(effects...)
}

// NewRegistryFrom builds a registry from explicit instances. Later
// duplicates of a name are dropped.
func NewRegistryFrom(effects ...Effect) *Registry {
	r := &Registry{effects: make(map[string]Effect, len(effects))}
	for _, e := range effects {
		if e == nil {
			continue
		}
		if _, dup := r.effects[e.Name()]; dup {
			slog.Warn("Duplicate effect name in registry, keeping the first", "name", e.Name())
			continue
		}
		r.effects[e.Name()] = e
	}
	return r
}

// Get returns the named effect.
func (r *Registry) Get(name string) (Effect, bool) {
	e, ok := r.effects[name]
	return e, ok
}

// Names returns all effect names sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.effects))
}

// Len returns the number of registered effects.
func (r *Registry) Len() int { return len(r.effects) }
