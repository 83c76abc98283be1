package widget

import (
	"errors"
	"image/color"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwpanel-go/drivers/surface"
	"hwpanel-go/errcode"
	"hwpanel-go/types"
)

type op struct {
	kind string
	r    types.Rect
	text string
	c    color.RGBA
}

type fakeCanvas struct{ ops []op }

func (f *fakeCanvas) Size() (int16, int16) { return 320, 240 }
func (f *fakeCanvas) FillRect(x, y, w, h int16, c color.RGBA) {
	f.ops = append(f.ops, op{kind: "fill", r: types.Rect{X: x, Y: y, W: w, H: h}, c: c})
}
func (f *fakeCanvas) FillScreen(c color.RGBA) { f.FillRect(0, 0, 320, 240, c) }
func (f *fakeCanvas) DrawString(x, y int16, s string, c color.RGBA) {
	f.ops = append(f.ops, op{kind: "text", r: types.Rect{X: x, Y: y}, text: s, c: c})
}
func (f *fakeCanvas) TextSize(s string) (int16, int16) {
	return int16(7 * utf8.RuneCountInString(s)), 13
}

func (f *fakeCanvas) texts() []string {
	var out []string
	for _, o := range f.ops {
		if o.kind == "text" {
			out = append(out, o.text)
		}
	}
	return out
}

func (f *fakeCanvas) reset() { f.ops = nil }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newCtx() (Context, *fakeCanvas, *fakeClock) {
	fc := &fakeCanvas{}
	clk := &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	return Context{Canvas: fc, Log: zerolog.Nop(), Theme: DefaultTheme(), Now: clk.Now}, fc, clk
}

// scripted lets tests control hook outcomes.
type scripted struct {
	Base
	noHooks
	staticErr  error
	panicOn    string
	statics    int
	dynamics   int
	touches    int
	cleanups   int
	consumeAll bool
}

func newScripted(name string, r types.Rect) *scripted {
	s := &scripted{consumeAll: true}
	s.bind(Common{Name: name, Rect: r}, s)
	return s
}

func (s *scripted) drawStatic(surface.Canvas) error {
	if s.panicOn == "static" {
		panic("static boom")
	}
	s.statics++
	return s.staticErr
}

func (s *scripted) drawDynamic(surface.Canvas) error {
	s.dynamics++
	return nil
}

func (s *scripted) onTouch(int16, int16) (bool, error) {
	if s.panicOn == "touch" {
		panic("touch boom")
	}
	s.touches++
	return s.consumeAll, nil
}

func (s *scripted) cleanup() error {
	s.cleanups++
	return nil
}

var full = types.Rect{X: 0, Y: 0, W: 100, H: 40}

func TestDrawBeforeInitializeIsNoop(t *testing.T) {
	w := newScripted("w", full)
	w.Draw(true)
	assert.Zero(t, w.statics)
	assert.Zero(t, w.dynamics)
	assert.False(t, w.HandleTouch(10, 10))
	assert.Equal(t, StateUninitialized, w.State())
}

func TestInitialize(t *testing.T) {
	ctx, _, _ := newCtx()
	w := newScripted("w", full)
	require.NoError(t, w.Initialize(ctx))
	assert.Equal(t, StateReady, w.State())
	assert.Equal(t, 1, w.statics)

	// A second Initialize is a no-op.
	require.NoError(t, w.Initialize(ctx))
	assert.Equal(t, 1, w.statics)
}

func TestInitialize_NoCanvas(t *testing.T) {
	w := newScripted("w", full)
	err := w.Initialize(Context{})
	assert.Equal(t, errcode.WidgetNotReady, errcode.Of(err))
	assert.Equal(t, StateError, w.State())
}

func TestInitialize_HiddenSkipsDrawing(t *testing.T) {
	ctx, _, _ := newCtx()
	w := newScripted("w", full)
	w.SetVisible(false)
	require.NoError(t, w.Initialize(ctx))
	assert.Equal(t, StateHidden, w.State())
	assert.Zero(t, w.statics)
}

func TestHookErrorForcesErrorState(t *testing.T) {
	ctx, _, _ := newCtx()
	w := newScripted("w", full)
	w.staticErr = errors.New("bus fault")
	require.Error(t, w.Initialize(ctx))
	assert.Equal(t, StateError, w.State())

	// ERROR is sticky: drawing and touch do nothing.
	w.Draw(true)
	assert.Equal(t, 1, w.statics)
	assert.False(t, w.HandleTouch(1, 1))

	w.staticErr = nil
	require.NoError(t, w.Reinitialize(ctx))
	assert.Equal(t, StateReady, w.State())
}

func TestHookPanicIsRecovered(t *testing.T) {
	ctx, _, _ := newCtx()
	w := newScripted("w", full)
	require.NoError(t, w.Initialize(ctx))

	w.panicOn = "touch"
	assert.NotPanics(t, func() { assert.False(t, w.HandleTouch(5, 5)) })
	assert.Equal(t, StateError, w.State())
	assert.Equal(t, errcode.WidgetPanic, errcode.Of(w.Err()))
}

func TestDraw_StaticOnlyWhenForcedOrDirty(t *testing.T) {
	ctx, _, _ := newCtx()
	w := newScripted("w", full)
	require.NoError(t, w.Initialize(ctx))

	w.Draw(false) // dirty after initialize
	assert.Equal(t, 2, w.statics)
	assert.Equal(t, 1, w.dynamics)

	w.Draw(false)
	assert.Equal(t, 2, w.statics)
	assert.Equal(t, 1, w.dynamics)

	w.MarkDirty()
	w.Draw(false)
	assert.Equal(t, 3, w.statics)
	assert.Equal(t, 2, w.dynamics)

	w.Draw(true)
	assert.Equal(t, 4, w.statics)
	assert.Equal(t, 3, w.dynamics)
}

func TestDraw_IntervalElapsed(t *testing.T) {
	ctx, _, clk := newCtx()
	w := newScripted("w", full)
	w.cfg.Interval = time.Second
	require.NoError(t, w.Initialize(ctx))
	w.Draw(false)
	require.Equal(t, 1, w.dynamics)

	clk.Advance(500 * time.Millisecond)
	w.Draw(false)
	assert.Equal(t, 1, w.dynamics)

	clk.Advance(500 * time.Millisecond)
	w.Draw(false)
	assert.Equal(t, 2, w.dynamics)
	assert.Equal(t, 2, w.statics, "interval redraws are dynamic only")
}

func TestDraw_StaleTransitionClearsAndRedraws(t *testing.T) {
	ctx, fc, _ := newCtx()
	w := newScripted("w", full)
	require.NoError(t, w.Initialize(ctx))
	w.Draw(false)
	fc.reset()

	w.MarkDataStale()
	w.Draw(false)
	require.NotEmpty(t, fc.ops)
	assert.Equal(t, op{kind: "fill", r: full, c: ctx.Theme.Background}, fc.ops[0])
	assert.Equal(t, 3, w.statics)
	assert.Equal(t, 2, w.dynamics)

	// Repeated stale marks are not a transition.
	w.MarkDataStale()
	w.Draw(false)
	assert.Equal(t, 2, w.dynamics)

	w.MarkDataFresh()
	w.Draw(false)
	assert.Equal(t, 4, w.statics)
	assert.Equal(t, 3, w.dynamics)
}

func TestSetVisible(t *testing.T) {
	ctx, fc, _ := newCtx()
	w := newScripted("w", full)
	require.NoError(t, w.Initialize(ctx))
	fc.reset()

	w.SetVisible(false)
	assert.Equal(t, StateHidden, w.State())
	assert.Equal(t, []op{{kind: "fill", r: full, c: ctx.Theme.Background}}, fc.ops)
	assert.False(t, w.HandleTouch(5, 5))

	w.SetVisible(true)
	assert.Equal(t, StateReady, w.State())
	assert.Equal(t, 2, w.statics)
}

func TestHandleTouch_BoundsAndDebounce(t *testing.T) {
	ctx, _, clk := newCtx()
	w := newScripted("w", types.Rect{X: 10, Y: 10, W: 20, H: 20})
	require.NoError(t, w.Initialize(ctx))

	assert.False(t, w.HandleTouch(30, 15), "right edge is exclusive")
	assert.True(t, w.HandleTouch(29, 29))
	assert.Equal(t, 1, w.touches)

	clk.Advance(100 * time.Millisecond)
	assert.True(t, w.HandleTouch(15, 15), "bounce is absorbed")
	assert.Equal(t, 1, w.touches)

	clk.Advance(100 * time.Millisecond)
	assert.True(t, w.HandleTouch(15, 15))
	assert.Equal(t, 2, w.touches)
}

func TestCleanup(t *testing.T) {
	ctx, _, _ := newCtx()
	w := newScripted("w", full)
	w.Cleanup()
	assert.Zero(t, w.cleanups)

	require.NoError(t, w.Initialize(ctx))
	w.Cleanup()
	assert.Equal(t, 1, w.cleanups)
	assert.Equal(t, StateUninitialized, w.State())
}
