// Package render runs the fixed cadence loop that turns the session state
// into frames.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lautenbacher.net/lightoy/color"
	"lautenbacher.net/lightoy/location"
	"lautenbacher.net/lightoy/output"
	"lautenbacher.net/lightoy/session"
)

// DefaultMaxLag never realigns: every missed frame is rendered late.
const DefaultMaxLag = 0

// Stats describes the work done so far.
type Stats struct {
	Frames       uint64
	Overruns     uint64
	Realigns     uint64
	OutputErrors uint64
	LastRender   time.Duration
	MaxRender    time.Duration
}

type Loop struct {
	session   *session.Session
	locations *location.Cached
	out       output.Output
	period    time.Duration
	maxLag    int
	now       func() time.Time

	statsMu   sync.Mutex
	stats     Stats
	outFailed bool
}

// NewLoop creates a loop rendering the session at refreshRate frames per
// second to out.
func NewLoop(s *session.Session, model location.LocationModel, out output.Output, refreshRate float64) (*Loop, error) {
	if !(refreshRate > 0) {
		return nil, fmt.Errorf("invalid refresh rate %v", refreshRate)
	}
	if out == nil {
		return nil, errors.New("no output")
	}
	return &Loop{
		session:   s,
		locations: location.NewCached(model),
		out:       out,
		period:    time.Duration(float64(time.Second) / refreshRate),
		maxLag:    DefaultMaxLag,
		now:       time.Now,
	}, nil
}

// SetMaxLag sets how many periods the loop may fall behind before it
// realigns its schedule and skips the missed frames. 0 disables
// realigning. Call it before Run.
func (l *Loop) SetMaxLag(periods int) {
	l.maxLag = max(periods, 0)
}

// Period returns the target time between two frames.
func (l *Loop) Period() time.Duration { return l.period }

// Stats returns a copy of the loop statistics.
func (l *Loop) Stats() Stats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return l.stats
}

// Render computes the next frame without sending it anywhere.
func (l *Loop) Render() color.Frame {
	t, dt := l.session.Tick()
	in := l.session.Input().GetState(t)
	globals := l.session.Globals()
	x := l.locations.Locations(globals.Value(session.Twists))

	frame := color.NewFrame(l.locations.NumLeds())
	for _, e := range l.session.RenderEffects() {
		frame.Add(e.DoRender(x, t, dt, in))
	}
	frame = color.GammaCorrect(frame.Clip(), globals.Value(session.Gamma))
	return frame.Scale(globals.Value(session.Brightness))
}

// Tick renders one frame and hands it to the output.
func (l *Loop) Tick() error {
	start := l.now()
	frame := l.Render()
	err := l.out.Output(frame)
	elapsed := l.now().Sub(start)

	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	l.stats.Frames++
	l.stats.LastRender = elapsed
	l.stats.MaxRender = max(l.stats.MaxRender, elapsed)
	if err != nil {
		l.stats.OutputErrors++
		if !l.outFailed {
			slog.Warn("Output rejected frame", "error", err)
		}
		l.outFailed = true
		return fmt.Errorf("output: %w", err)
	}
	if l.outFailed {
		slog.Info("Output accepts frames again")
		l.outFailed = false
	}
	return nil
}

// Run renders frames until ctx is done. Frames start on multiples of the
// period on the wall clock. A late frame is followed immediately by the
// next one until the schedule is caught up.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("Starting render loop", "period", l.period)
	timer := time.NewTimer(l.period)
	defer timer.Stop()

	deadline := firstDeadline(l.now(), l.period)
	for {
		if wait := deadline.Sub(l.now()); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				slog.Info("Ending render loop")
				return ctx.Err()
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			slog.Info("Ending render loop")
			return ctx.Err()
		}

		_ = l.Tick()

		next, overrun, realigned := nextDeadline(deadline, l.now(), l.period, l.maxLag)
		if overrun || realigned {
			l.statsMu.Lock()
			if overrun {
				l.stats.Overruns++
			}
			if realigned {
				l.stats.Realigns++
			}
			l.statsMu.Unlock()
		}
		if realigned {
			slog.Warn("Render loop fell behind, skipping to the next period",
				"behind", l.now().Sub(deadline), "period", l.period)
		}
		deadline = next
	}
}

// firstDeadline returns the first period boundary after now.
func firstDeadline(now time.Time, period time.Duration) time.Time {
	return now.Truncate(period).Add(period)
}

// nextDeadline returns the start of the frame after the one scheduled at
// prev. overrun is set if that start already passed; if it lies more than
// maxLag periods in the past the schedule is realigned to the next period
// boundary after now. maxLag 0 never realigns.
func nextDeadline(prev, now time.Time, period time.Duration, maxLag int) (next time.Time, overrun, realigned bool) {
	next = prev.Add(period)
	if !next.Before(now) {
		return next, false, false
	}
	if maxLag > 0 && now.Sub(next) > time.Duration(maxLag)*period {
		return firstDeadline(now, period), true, true
	}
	return next, true, false
}
