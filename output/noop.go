package output

import (
	"sync/atomic"

	"lautenbacher.net/lightoy/color"
)

// Noop discards every frame. It is used when no controller is attached.
type Noop struct {
	frames atomic.Uint64
}

func NewNoop() *Noop {
	return &Noop{}
}

func (s *Noop) Output(frame color.Frame) error {
	s.frames.Add(1)
	return nil
}

func (s *Noop) Close() error { return nil }

// Frames returns how many frames were discarded.
func (s *Noop) Frames() uint64 {
	return s.frames.Load()
}
