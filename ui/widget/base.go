package widget

import (
	"fmt"
	"time"

	"hwpanel-go/drivers/surface"
	"hwpanel-go/errcode"
	"hwpanel-go/types"
)

// hooks are the per-widget drawing and input callbacks driven by Base.
type hooks interface {
	drawStatic(c surface.Canvas) error
	drawDynamic(c surface.Canvas) error
	onTouch(x, y int16) (bool, error)
	cleanup() error
}

// Base implements Widget on top of a concrete widget's hooks.
type Base struct {
	cfg  Common
	self hooks
	ctx  Context

	state       State
	dirty       bool
	pending     bool
	stale       bool
	drawnStale  bool
	lastDynamic time.Time
	lastTouch   time.Time
	err         error
}

func (b *Base) bind(c Common, self hooks) {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	b.cfg = c
	b.self = self
}

func (b *Base) Name() string     { return b.cfg.Name }
func (b *Base) Rect() types.Rect { return b.cfg.Rect }
func (b *Base) State() State     { return b.state }
func (b *Base) Err() error       { return b.err }
func (b *Base) Stale() bool      { return b.stale }
func (b *Base) theme() Theme     { return b.ctx.Theme }

func (b *Base) MarkDirty()     { b.dirty = true }
func (b *Base) MarkDataStale() { b.stale = true }
func (b *Base) MarkDataFresh() { b.stale = false }

// refresh requests a dynamic redraw without redrawing the static chrome.
func (b *Base) refresh() { b.pending = true }

// Initialize moves an uninitialised widget to READY (or HIDDEN) and draws
// its static chrome. Calling it in any other state is a no-op.
func (b *Base) Initialize(ctx Context) error {
	if b.state != StateUninitialized {
		return nil
	}
	if ctx.Canvas == nil {
		err := &errcode.E{C: errcode.WidgetNotReady, Op: b.cfg.Name + ".initialize", Msg: "no canvas"}
		b.fail("initialize", err)
		return err
	}
	b.ctx = ctx
	b.dirty = true
	b.drawnStale = b.stale
	if b.cfg.Hidden {
		b.state = StateHidden
		return nil
	}
	b.state = StateReady
	return b.run("draw_static", func() error { return b.self.drawStatic(ctx.Canvas) })
}

// Reinitialize is the only way out of StateError.
func (b *Base) Reinitialize(ctx Context) error {
	if b.state == StateError {
		b.state = StateUninitialized
		b.err = nil
	}
	return b.Initialize(ctx)
}

// Draw redraws what changed. It does nothing unless the widget is READY.
func (b *Base) Draw(force bool) {
	if b.state != StateReady {
		return
	}
	c := b.ctx.Canvas
	staleFlip := b.stale != b.drawnStale
	if staleFlip {
		// Partial updates across a freshness change would mix placeholder
		// and value pixels.
		b.clear()
	}
	if force || b.dirty || staleFlip {
		if b.run("draw_static", func() error { return b.self.drawStatic(c) }) != nil {
			return
		}
	}
	now := b.ctx.now()
	if force || b.needsUpdate(now) {
		if b.run("draw_dynamic", func() error { return b.self.drawDynamic(c) }) != nil {
			return
		}
		b.lastDynamic = now
		b.drawnStale = b.stale
		b.pending = false
	}
	b.dirty = false
}

func (b *Base) needsUpdate(now time.Time) bool {
	if b.dirty || b.pending || b.stale != b.drawnStale {
		return true
	}
	return b.cfg.Interval > 0 && now.Sub(b.lastDynamic) >= b.cfg.Interval
}

func (b *Base) SetVisible(visible bool) {
	switch b.state {
	case StateUninitialized:
		b.cfg.Hidden = !visible
	case StateReady:
		if !visible {
			b.state = StateHidden
			b.clear()
		}
	case StateHidden:
		if visible {
			b.state = StateReady
			b.dirty = true
			b.run("draw_static", func() error { return b.self.drawStatic(b.ctx.Canvas) })
		}
	}
}

// HandleTouch reports whether the widget consumed the touch. Touches
// inside the debounce window after an accepted one are absorbed.
func (b *Base) HandleTouch(x, y int16) bool {
	if b.state != StateReady || !b.cfg.Rect.Contains(x, y) {
		return false
	}
	now := b.ctx.now()
	if !b.lastTouch.IsZero() && now.Sub(b.lastTouch) < b.cfg.Debounce {
		return true
	}
	var consumed bool
	err := b.run("touch", func() (err error) {
		consumed, err = b.self.onTouch(x, y)
		return err
	})
	if err != nil {
		return false
	}
	if consumed {
		b.lastTouch = now
	}
	return consumed
}

// Cleanup releases the widget; it returns to StateUninitialized.
func (b *Base) Cleanup() {
	if b.state == StateUninitialized {
		return
	}
	b.run("cleanup", b.self.cleanup)
	b.state = StateUninitialized
	b.ctx = Context{}
}

func (b *Base) clear() {
	if b.ctx.Canvas == nil {
		return
	}
	r := b.cfg.Rect
	b.ctx.Canvas.FillRect(r.X, r.Y, r.W, r.H, b.ctx.Theme.Background)
}

// run invokes a hook; an error or panic moves the widget to StateError.
func (b *Base) run(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errcode.E{C: errcode.WidgetPanic, Op: b.cfg.Name + "." + op, Msg: fmt.Sprint(r)}
		}
		if err != nil {
			b.fail(op, err)
		}
	}()
	return fn()
}

func (b *Base) fail(op string, err error) {
	b.state = StateError
	b.err = err
	b.ctx.Log.Error().Err(err).Str("widget", b.cfg.Name).Str("op", op).Msg("widget failed")
}

// noHooks provides defaults for widgets that don't need every hook.
type noHooks struct{}

func (noHooks) drawDynamic(surface.Canvas) error { return nil }
func (noHooks) onTouch(int16, int16) (bool, error) { return false, nil }
func (noHooks) cleanup() error                     { return nil }
