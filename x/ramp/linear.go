// Package ramp steps an integer level towards a target over time, e.g.
// to fade a backlight.
package ramp

import (
	"context"
	"time"

	"hwpanel-go/x/mathx"
	"hwpanel-go/x/timex"
)

// Step applies a level in [0..Top].
type Step func(level uint16)

// Tick waits for d and reports whether to continue.
type Tick func(d time.Duration) bool

// ContextTick returns a Tick that sleeps unless ctx is done.
func ContextTick(ctx context.Context) Tick {
	return func(d time.Duration) bool { return timex.Sleep(ctx, d) }
}

// Linear moves from From to To in Steps equal increments spread over
// Duration. Levels are capped at Top.
type Linear struct {
	From, To, Top uint16
	Duration      time.Duration
	Steps         uint16
}

// Run drives the ramp on the caller's goroutine. Repeated levels are not
// re-applied. It reports false when tick cancelled the ramp before To was
// reached; zero Steps or Duration jumps straight to To.
func (l Linear) Run(tick Tick, set Step) bool {
	to := mathx.Min(l.To, l.Top)
	if l.Steps == 0 || l.Duration <= 0 || tick == nil {
		set(to)
		return true
	}
	wait := mathx.Max(l.Duration/time.Duration(l.Steps), time.Millisecond)
	from, delta := int32(l.From), int32(to)-int32(l.From)

	last := int32(-1)
	for i := int32(1); i < int32(l.Steps); i++ {
		if !tick(wait) {
			return false
		}
		lvl := mathx.Clamp(from+delta*i/int32(l.Steps), 0, int32(l.Top))
		if lvl != last {
			set(uint16(lvl))
			last = lvl
		}
	}
	set(to)
	return true
}
