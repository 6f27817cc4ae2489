package param

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

var (
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrNotScalar        = errors.New("parameter is not a scalar")
	ErrUnknownAction    = errors.New("unknown parameter action")
)

// Set is a fixed collection of named parameters. Membership never changes
// after construction, so the map itself needs no lock; each parameter
// guards its own value.
type Set struct {
	params map[string]Parameter
}

// NewSet builds a set from a name -> parameter map.
func NewSet(params map[string]Parameter) *Set {
	m := make(map[string]Parameter, len(params))
	for k, v := range params {
		m[k] = v
	}
	return &Set{params: m}
}

// Get returns the named parameter.
func (s *Set) Get(name string) (Parameter, bool) {
	p, ok := s.params[name]
	return p, ok
}

// Scalar returns the named scalar. It panics if the set was built without
// it, which is a programming error in the owning effect.
func (s *Set) Scalar(name string) *Scalar {
	p, ok := s.params[name].(*Scalar)
	if !ok {
		panic(fmt.Sprintf("no scalar parameter %q", name))
	}
	return p
}

// Array returns the named array parameter, panicking like Scalar.
func (s *Set) Array(name string) *Array {
	p, ok := s.params[name].(*Array)
	if !ok {
		panic(fmt.Sprintf("no array parameter %q", name))
	}
	return p
}

// Value is a shortcut for Scalar(name).Value().
func (s *Set) Value(name string) float64 {
	return s.Scalar(name).Value()
}

// SetValue writes a scalar by name. Unknown names are logged and reported,
// never fatal.
func (s *Set) SetValue(name string, v float64) error {
	p, ok := s.params[name]
	if !ok {
		slog.Warn("Ignoring update of unknown parameter", "name", name)
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	sc, ok := p.(*Scalar)
	if !ok {
		slog.Warn("Ignoring scalar update of non-scalar parameter", "name", name)
		return fmt.Errorf("%w: %s", ErrNotScalar, name)
	}
	sc.Set(v)
	return nil
}

// DoAction runs a named action on a named parameter.
func (s *Set) DoAction(name, action string) error {
	p, ok := s.params[name]
	if !ok {
		slog.Warn("Ignoring action on unknown parameter", "name", name, "action", action)
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	if !p.DoAction(action) {
		return fmt.Errorf("%w: %s on %s", ErrUnknownAction, action, name)
	}
	return nil
}

// Names returns the parameter names in sorted order.
func (s *Set) Names() []string {
	return slices.Sorted(maps.Keys(s.params))
}

// Info describes one scalar parameter for display.
type Info struct {
	Name    string  `json:"name"`
	Min     float64 `json:"min_value"`
	Max     float64 `json:"max_value"`
	Default float64 `json:"default_value"`
	Value   float64 `json:"cur_value"`
}

// Describe returns a metadata snapshot of the scalar parameters, sorted by
// name. Array parameters have no slider representation and are skipped.
func (s *Set) Describe() []Info {
	ret := make([]Info, 0, len(s.params))
	for _, name := range s.Names() {
		sc, ok := s.params[name].(*Scalar)
		if !ok {
			continue
		}
		ret = append(ret, Info{
			Name:    name,
			Min:     sc.Min(),
			Max:     sc.Max(),
			Default: sc.Default(),
			Value:   sc.Value(),
		})
	}
	return ret
}
