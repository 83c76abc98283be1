package screen

import (
	"context"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hwpanel-go/drivers/surface"
	"hwpanel-go/errcode"
	"hwpanel-go/types"
)

// Phase is a step of a screen transition.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseUnloading
	PhaseClearing
	PhaseActivating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUnloading:
		return "unloading"
	case PhaseClearing:
		return "clearing"
	case PhaseActivating:
		return "activating"
	}
	return "unknown"
}

// TransitionState describes the transition in progress, if any.
type TransitionState struct {
	Phase     Phase          `json:"phase"`
	Target    types.ScreenID `json:"target"`
	StartedAt time.Time      `json:"started_at"`
	Active    bool           `json:"active"`
}

// Display is the surface the controller draws on.
type Display interface {
	surface.Canvas
	Flush() error
}

type Options struct {
	LockTimeout       time.Duration
	TransitionTimeout time.Duration
	Background        color.RGBA
	Now               func() time.Time
}

// Controller is the render pipeline: it advances screen transitions one
// phase per tick and otherwise draws the active screen and dispatches
// touches to it. Tick must only be called from the render context.
type Controller struct {
	log     zerolog.Logger
	disp    Display
	lock    *surface.Lock
	factory *Factory
	deps    Deps
	screens *types.ScreenState
	opts    Options

	// mu guards ts, loaded and the pending touch. It is never held
	// while drawing or dispatching.
	mu      sync.Mutex
	ts      TransitionState
	loaded  bool
	touch   [2]int16
	touched bool

	current Screen // render context only

	lockMisses atomic.Uint64
}

func NewController(log zerolog.Logger, disp Display, lock *surface.Lock, f *Factory, deps Deps, screens *types.ScreenState, opts Options) *Controller {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 100 * time.Millisecond
	}
	if opts.TransitionTimeout <= 0 {
		opts.TransitionTimeout = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{log: log, disp: disp, lock: lock, factory: f, deps: deps, screens: screens, opts: opts}
}

// RequestTransition arms a transition to id. It is rejected for UNSET,
// for the screen already showing, and while another transition runs.
func (c *Controller) RequestTransition(id types.ScreenID) bool {
	if id == types.ScreenUnset {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts.Active {
		c.log.Debug().Stringer("target", id).Stringer("busy_with", c.ts.Target).Msg("transition rejected")
		return false
	}
	if c.loaded && c.screens.Active() == id {
		return false
	}
	c.ts = TransitionState{Phase: PhaseUnloading, Target: id, StartedAt: c.opts.Now(), Active: true}
	c.log.Debug().Stringer("target", id).Msg("transition requested")
	return true
}

// QueueTouch records a touch for the next idle tick; a newer touch
// replaces an undelivered one.
func (c *Controller) QueueTouch(x, y int16) {
	c.mu.Lock()
	c.touch = [2]int16{x, y}
	c.touched = true
	c.mu.Unlock()
}

func (c *Controller) takeTouch() (int16, int16, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.touched {
		return 0, 0, false
	}
	c.touched = false
	return c.touch[0], c.touch[1], true
}

func (c *Controller) State() TransitionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ts
}

func (c *Controller) Active() types.ScreenID { return c.screens.Active() }

// LockMisses counts ticks skipped because the display lock timed out.
func (c *Controller) LockMisses() uint64 { return c.lockMisses.Load() }

// Tick runs one render step and reports whether it did useful work.
func (c *Controller) Tick() bool {
	ts := c.State()
	if ts.Active {
		if c.opts.Now().Sub(ts.StartedAt) > c.opts.TransitionTimeout {
			c.abort(ts.Target, &errcode.E{C: errcode.TransitionTimeout, Op: "screen.tick", Msg: ts.Phase.String()})
			return false
		}
		if !c.acquire() {
			return false
		}
		defer c.lock.Release()
		return c.step(ts)
	}

	if c.current == nil {
		return false
	}
	if !c.acquire() {
		return false
	}
	defer c.lock.Release()
	c.current.Draw(false)
	if x, y, ok := c.takeTouch(); ok {
		c.current.HandleTouch(x, y)
	}
	c.flush()
	return true
}

// Bootstrap requests id and runs its phases inline. It is used before the
// render context exists.
func (c *Controller) Bootstrap(id types.ScreenID) error {
	if !c.RequestTransition(id) {
		return &errcode.E{C: errcode.TransitionBusy, Op: "screen.bootstrap", Msg: id.String()}
	}
	for i := 0; i < 6 && c.State().Active; i++ {
		c.Tick()
	}
	if c.State().Active || c.current == nil || c.screens.Active() != id {
		return &errcode.E{C: errcode.ScreenMissing, Op: "screen.bootstrap", Msg: id.String()}
	}
	return nil
}

func (c *Controller) acquire() bool {
	if c.lock.Acquire(c.opts.LockTimeout) {
		return true
	}
	n := c.lockMisses.Add(1)
	c.log.Warn().Err(errcode.LockTimeout).Uint64("misses", n).Msg("render tick skipped")
	return false
}

// step executes ts.Phase. The display lock is held.
func (c *Controller) step(ts TransitionState) bool {
	switch ts.Phase {
	case PhaseUnloading:
		if c.current != nil {
			if err := c.current.OnExit(); err != nil {
				c.log.Warn().Err(err).Stringer("screen", c.current.ID()).Msg("screen exit failed")
			}
			c.current = nil
			c.setLoaded(false)
		}
		c.advance(PhaseClearing)

	case PhaseClearing:
		c.disp.FillScreen(c.opts.Background)
		c.advance(PhaseActivating)

	case PhaseActivating:
		s, err := c.factory.Build(ts.Target, c.deps)
		if err != nil {
			c.abort(ts.Target, err)
			return false
		}
		ctx, cancel := context.WithDeadline(context.Background(), ts.StartedAt.Add(c.opts.TransitionTimeout))
		err = s.OnEnter(ctx)
		cancel()
		if err != nil {
			s.OnExit()
			c.abort(ts.Target, err)
			return false
		}
		c.current = s
		c.screens.Activate(ts.Target)
		c.flush()

		c.mu.Lock()
		c.loaded = true
		c.ts = TransitionState{}
		c.mu.Unlock()
		c.log.Info().Stringer("screen", ts.Target).Dur("took", c.opts.Now().Sub(ts.StartedAt)).Msg("screen active")

	default:
		c.reset()
		return false
	}
	return true
}

func (c *Controller) advance(p Phase) {
	c.mu.Lock()
	c.ts.Phase = p
	c.mu.Unlock()
}

func (c *Controller) setLoaded(v bool) {
	c.mu.Lock()
	c.loaded = v
	c.mu.Unlock()
}

func (c *Controller) reset() {
	c.mu.Lock()
	c.ts = TransitionState{}
	c.mu.Unlock()
}

// abort forces IDLE and falls back to the boot screen unless boot itself
// was the target.
func (c *Controller) abort(target types.ScreenID, err error) {
	c.log.Error().Err(err).Stringer("target", target).Msg("screen transition failed")
	c.reset()
	if target != types.ScreenBoot {
		c.RequestTransition(types.ScreenBoot)
	}
}

func (c *Controller) flush() {
	if err := c.disp.Flush(); err != nil {
		c.log.Debug().Err(err).Msg("flush failed")
	}
}
