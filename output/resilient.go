package output

import (
	"log/slog"
	"sync"
	"time"

	"lautenbacher.net/lightoy/color"
	"lautenbacher.net/lightoy/util"
)

// RetryPolicy tunes how Resilient reacts to failing writes.
type RetryPolicy struct {
	// extra attempts after the first failure of a frame
	Retries int
	// delay before the first retry, doubled for every further one
	RetryDelay time.Duration
	// how often a degraded output tries to Reopen, 0 disables it
	ReopenInterval time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:        2,
		RetryDelay:     2 * time.Millisecond,
		ReopenInterval: 5 * time.Second,
	}
}

// Resilient wraps an output so that transport failures never stop the
// render loop. A frame that cannot be written after the retries switches
// the output to degraded mode, where frames are dropped until a Reopen
// succeeds. Every switch is published on Faults.
type Resilient struct {
	mu         sync.Mutex
	name       string
	inner      Output
	policy     RetryPolicy
	degraded   bool
	lastReopen time.Time
	faults     *util.AtomicEvent[Fault]

	now   func() time.Time
	sleep func(time.Duration)
}

func NewResilient(name string, inner Output, policy RetryPolicy) *Resilient {
	if policy.Retries < 0 {
		policy.Retries = 0
	}
	return &Resilient{
		name:   name,
		inner:  inner,
		policy: policy,
		faults: util.NewAtomicEvent[Fault](),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Faults returns the operator channel.
func (s *Resilient) Faults() *util.AtomicEvent[Fault] {
	return s.faults
}

// Degraded reports whether frames are currently dropped.
func (s *Resilient) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Output writes frame through the wrapped output. It only fails when the
// output is closed; transport errors are absorbed.
func (s *Resilient) Output(frame color.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inner == nil {
		return ErrNotOpen
	}
	if s.degraded && !s.tryRecover() {
		return nil
	}

	delay := s.policy.RetryDelay
	var err error
	for attempt := 0; attempt <= s.policy.Retries; attempt++ {
		if attempt > 0 {
			slog.Debug("Retrying output", "output", s.name, "attempt", attempt, "error", err)
			if delay > 0 {
				s.sleep(delay)
				delay *= 2
			}
		}
		if err = s.inner.Output(frame); err == nil {
			return nil
		}
	}

	if !s.degraded {
		s.degraded = true
		s.lastReopen = s.now()
		slog.Error("Output failed, continuing without it", "output", s.name, "error", err)
		s.faults.Send(Fault{Time: s.now(), Name: s.name, Err: err, Degraded: true})
	}
	return nil
}

// tryRecover attempts a Reopen once per ReopenInterval. Callers hold mu.
func (s *Resilient) tryRecover() bool {
	reopener, ok := s.inner.(Reopener)
	if !ok || s.policy.ReopenInterval <= 0 {
		return false
	}
	now := s.now()
	if now.Sub(s.lastReopen) < s.policy.ReopenInterval {
		return false
	}
	s.lastReopen = now
	if err := reopener.Reopen(); err != nil {
		slog.Debug("Reopen failed", "output", s.name, "error", err)
		return false
	}
	s.degraded = false
	slog.Info("Output recovered", "output", s.name)
	s.faults.Send(Fault{Time: now, Name: s.name, Degraded: false})
	return true
}

func (s *Resilient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inner == nil {
		return nil
	}
	err := s.inner.Close()
	s.inner = nil
	return err
}
