// Package input turns a stream of touch events into a continuous focus
// point with momentum and a fade level.
//
// The On* methods are called from the control handlers while GetState is
// called from the render loop; all state is guarded by one mutex so that a
// render tick never observes a half applied touch event.
package input

import (
	"log/slog"
	"math"
	"sync"

	"github.com/gammazero/deque"
	"lautenbacher.net/lightoy/util"
)

// State is the snapshot handed to effects on every tick. Fade is in [0,1].
type State struct {
	FocusX float64
	FocusY float64
	Fade   float64
}

// Touch is one touch point in normalized pad coordinates.
type Touch struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TouchSample is a recorded touch position at time T (seconds since the
// session started).
type TouchSample struct {
	X float64
	Y float64
	T float64
}

// Phase is the state of the touch state machine as of the last tick.
type Phase int

const (
	Coasting Phase = iota
	Touched
	JustReleased
)

func (p Phase) String() string {
	switch p {
	case Touched:
		return "touched"
	case JustReleased:
		return "just-released"
	default:
		return "coasting"
	}
}

// Processor keeps track of touches and derives the input State.
type Processor struct {
	mu     sync.Mutex
	policy Policy

	touches []Touch
	// newest sample at the front
	history deque.Deque[TouchSample]
	// samples recorded since the last untouched tick
	nSinceRelease int
	released      bool

	fade   float64
	focusX float64
	focusY float64
	vx     float64
	vy     float64
	// focus minus touch position at touch start, keeps the focus from
	// jumping to the finger
	offsetX float64
	offsetY float64

	lastT    float64
	hasLastT bool
	phase    Phase
}

// NewProcessor creates a processor with the given policy. Invalid policy
// fields are replaced by their defaults.
func NewProcessor(policy Policy) *Processor {
	return &Processor{policy: policy.normalized()}
}

// SetPolicy swaps the tuning at runtime.
func (s *Processor) SetPolicy(policy Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy.normalized()
	for s.history.Len() > s.policy.HistoryLength {
		s.history.PopBack()
	}
}

// Policy returns the active tuning.
func (s *Processor) Policy() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// OnTouchStart records the first touch and remembers the focus offset.
func (s *Processor) OnTouchStart(touches []Touch, t float64) {
	if len(touches) == 0 {
		slog.Warn("Ignoring touchstart without touches")
		return
	}
	touch := touches[0]

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordSample(touch, t)
	if s.policy.KeepOffset {
		s.offsetX = s.focusX - touch.X
		s.offsetY = s.focusY - touch.Y
	} else {
		s.offsetX, s.offsetY = 0, 0
	}
	s.touches = copyTouches(touches)
}

// OnTouchMove records the new touch position.
func (s *Processor) OnTouchMove(touches []Touch, t float64) {
	if len(touches) == 0 {
		slog.Warn("Ignoring touchmove without touches")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordSample(touches[0], t)
	s.touches = copyTouches(touches)
}

// OnTouchEnd clears all active touches.
func (s *Processor) OnTouchEnd(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.touches) > 0 || s.nSinceRelease > 0 {
		s.released = true
	}
	s.touches = nil
}

// OnTouchCancel behaves like OnTouchEnd.
func (s *Processor) OnTouchCancel(t float64) {
	s.OnTouchEnd(t)
}

// Phase returns the state machine phase computed by the last GetState.
func (s *Processor) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// GetState advances the model to time t and returns the new snapshot. It
// is called once per render tick.
func (s *Processor) GetState(t float64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := 0.0
	if s.hasLastT {
		dt = t - s.lastT
	}
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}
	s.lastT = t
	s.hasLastT = true

	if len(s.touches) > 0 {
		touch := s.touches[0]
		s.focusX = touch.X + s.offsetX
		s.focusY = touch.Y + s.offsetY
		s.fade += s.policy.FadeIn
		s.phase = Touched
	} else {
		s.fade -= s.policy.FadeOut
		if s.released {
			s.vx, s.vy = s.releaseVelocity()
			s.phase = JustReleased
		} else {
			factor := math.Max(0, 1-s.policy.Resistance*dt)
			s.vx *= factor
			s.vy *= factor
			s.focusX += s.vx * dt
			s.focusY += s.vy * dt
			s.phase = Coasting
		}
		s.released = false
		s.nSinceRelease = 0
	}

	if s.policy.ClampFocus {
		s.clampFocus()
	}
	s.fade = util.Clamp(s.fade, 0, 1)

	return State{FocusX: s.focusX, FocusY: s.focusY, Fade: s.fade}
}

// releaseVelocity estimates the fling velocity from the newest sample and
// an older one at most Lookback samples back. Too few samples or a zero
// time span yield no motion.
func (s *Processor) releaseVelocity() (float64, float64) {
	n := min(s.nSinceRelease, s.history.Len())
	if n < 2 {
		return 0, 0
	}
	back := min(n-1, s.policy.Lookback)
	newest := s.history.At(0)
	older := s.history.At(back)

	dt := newest.T - older.T
	if !(dt > 0) {
		return 0, 0
	}
	vx := (newest.X - older.X) / dt
	vy := (newest.Y - older.Y) / dt
	if math.IsNaN(vx) || math.IsNaN(vy) {
		return 0, 0
	}
	maxV := s.policy.MaxVelocity
	return util.Clamp(vx, -maxV, maxV), util.Clamp(vy, -maxV, maxV)
}

func (s *Processor) clampFocus() {
	if s.focusX < 0 || s.focusX > 1 {
		s.focusX = util.Clamp(s.focusX, 0, 1)
		s.vx = 0
	}
	if s.focusY < 0 || s.focusY > 1 {
		s.focusY = util.Clamp(s.focusY, 0, 1)
		s.vy = 0
	}
}

func (s *Processor) recordSample(touch Touch, t float64) {
	s.history.PushFront(TouchSample{X: touch.X, Y: touch.Y, T: t})
	for s.history.Len() > s.policy.HistoryLength {
		s.history.PopBack()
	}
	s.nSinceRelease++
}

func copyTouches(touches []Touch) []Touch {
	ret := make([]Touch, len(touches))
	copy(ret, touches)
	return ret
}
