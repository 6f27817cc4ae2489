// Package param holds the user-tunable controls of effects and of the
// session. Every parameter guards its value with its own mutex: values are
// written by the control handlers and read by the render loop.
package param

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"

	"lautenbacher.net/lightoy/util"
)

// ActionReset is the action every parameter kind understands.
const ActionReset = "reset"

// Kind names the parameter variant in metadata snapshots.
type Kind string

const (
	KindScalar Kind = "scalar"
	KindArray  Kind = "array"
)

// Parameter is the common surface of scalar and array parameters.
type Parameter interface {
	Kind() Kind
	// DoAction runs a named action. Unknown names are logged and
	// reported as false; they never change the value.
	DoAction(action string) bool
}

// Scalar is a bounded float parameter. The value always satisfies
// Min <= value <= Max.
type Scalar struct {
	mu    sync.RWMutex
	min   float64
	max   float64
	def   float64
	value float64
}

// NewScalar creates a scalar with the given bounds and default. A default
// outside the bounds is clamped.
func NewScalar(min, max, def float64) *Scalar {
	if min > max {
		min, max = max, min
	}
	def = util.Clamp(def, min, max)
	return &Scalar{min: min, max: max, def: def, value: def}
}

func (s *Scalar) Kind() Kind { return KindScalar }

func (s *Scalar) Min() float64     { return s.min }
func (s *Scalar) Max() float64     { return s.max }
func (s *Scalar) Default() float64 { return s.def }

// Value returns the current value.
func (s *Scalar) Value() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores v, clamped to the bounds. Out of range values are not an
// error; they are logged and clamped. NaN is rejected.
func (s *Scalar) Set(v float64) {
	if math.IsNaN(v) {
		slog.Warn("Ignoring NaN parameter value")
		return
	}
	if v < s.min || v > s.max {
		slog.Warn("Parameter value out of bounds, clamping", "value", v, "min", s.min, "max", s.max)
		v = util.Clamp(v, s.min, s.max)
	}
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

func (s *Scalar) DoAction(action string) bool {
	switch action {
	case ActionReset:
		s.mu.Lock()
		s.value = s.def
		s.mu.Unlock()
		return true
	default:
		slog.Warn("Requested action not found for scalar parameter", "action", action)
		return false
	}
}

// ResetFunc produces a fresh array value of length n.
type ResetFunc func(n int) []float64

// Array is a fixed-length float vector. Its reset action re-runs the
// configured reset rule; without one the array is zeroed.
type Array struct {
	mu      sync.RWMutex
	n       int
	value   []float64
	resetFn ResetFunc
}

// NewArray creates an array parameter of length n and applies the reset
// rule once.
func NewArray(n int, resetFn ResetFunc) *Array {
	inst := &Array{n: n, resetFn: resetFn}
	inst.reset()
	return inst
}

// NewRandomArray creates an array whose components are drawn independently
// and uniformly from [0,1) on every reset. A nil rnd uses the global
// source.
func NewRandomArray(n int, rnd *rand.Rand) *Array {
	return NewArray(n, func(n int) []float64 {
		v := make([]float64, n)
		for i := range v {
			if rnd != nil {
				v[i] = rnd.Float64()
			} else {
				v[i] = rand.Float64()
			}
		}
		return v
	})
}

func (a *Array) Kind() Kind { return KindArray }

// Len returns the fixed length of the array.
func (a *Array) Len() int { return a.n }

// Value returns a copy of the current components.
func (a *Array) Value() []float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ret := make([]float64, len(a.value))
	copy(ret, a.value)
	return ret
}

// At returns component i without copying the whole array.
func (a *Array) At(i int) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value[i]
}

// Set replaces the components. A value of the wrong length is logged and
// ignored.
func (a *Array) Set(v []float64) {
	if len(v) != a.n {
		slog.Warn("Array parameter length mismatch, ignoring", "want", a.n, "got", len(v))
		return
	}
	nv := make([]float64, a.n)
	copy(nv, v)
	a.mu.Lock()
	a.value = nv
	a.mu.Unlock()
}

func (a *Array) DoAction(action string) bool {
	switch action {
	case ActionReset:
		a.reset()
		return true
	default:
		slog.Warn("Requested action not found for array parameter", "action", action)
		return false
	}
}

func (a *Array) reset() {
	var nv []float64
	if a.resetFn != nil {
		nv = a.resetFn(a.n)
	}
	if len(nv) != a.n {
		nv = make([]float64, a.n)
	}
	a.mu.Lock()
	a.value = nv
	a.mu.Unlock()
}
