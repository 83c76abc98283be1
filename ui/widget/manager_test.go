package widget

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwpanel-go/types"
)

func TestManager_TopmostFirst(t *testing.T) {
	ctx, _, _ := newCtx()
	m := NewManager(ctx)
	var pressed []string
	a := NewButton(ButtonConfig{Common: Common{Name: "a", Rect: types.Rect{X: 0, Y: 0, W: 60, H: 40}}, OnPress: func() { pressed = append(pressed, "a") }})
	b := NewButton(ButtonConfig{Common: Common{Name: "b", Rect: types.Rect{X: 40, Y: 0, W: 60, H: 40}}, OnPress: func() { pressed = append(pressed, "b") }})
	m.Add(a)
	m.Add(b)
	require.NoError(t, m.InitializeWidgets())

	assert.True(t, m.HandleTouch(50, 10))
	assert.Equal(t, []string{"b"}, pressed)
	assert.Equal(t, 0, a.Presses())

	assert.True(t, m.HandleTouch(10, 10))
	assert.Equal(t, []string{"b", "a"}, pressed)

	assert.False(t, m.HandleTouch(200, 200))
}

func TestManager_HiddenDoesNotConsume(t *testing.T) {
	ctx, _, _ := newCtx()
	m := NewManager(ctx)
	under := newScripted("under", full)
	over := newScripted("over", full)
	over.SetVisible(false)
	m.Add(under)
	m.Add(over)
	require.NoError(t, m.InitializeWidgets())

	assert.True(t, m.HandleTouch(5, 5))
	assert.Equal(t, 1, under.touches)
	assert.Zero(t, over.touches)
}

func TestManager_NonConsumingFallsThrough(t *testing.T) {
	ctx, _, _ := newCtx()
	m := NewManager(ctx)
	under := newScripted("under", full)
	label := NewLabel(LabelConfig{Common: Common{Name: "label", Rect: full}, Text: "hi"})
	m.Add(under)
	m.Add(label)
	require.NoError(t, m.InitializeWidgets())

	assert.True(t, m.HandleTouch(5, 5))
	assert.Equal(t, 1, under.touches)
}

func TestManager_InitializeContinuesPastFailures(t *testing.T) {
	ctx, _, _ := newCtx()
	m := NewManager(ctx)
	bad := newScripted("bad", full)
	bad.staticErr = errors.New("nope")
	good := newScripted("good", full)
	m.Add(bad)
	m.Add(good)
	m.Add(nil)

	err := m.InitializeWidgets()
	require.Error(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, StateError, bad.State())
	assert.Equal(t, StateReady, good.State())
	assert.Equal(t, 1, good.dynamics, "initialised widgets are force drawn")
}

func TestManager_UpdateAndDrawSkipsNotReady(t *testing.T) {
	ctx, _, _ := newCtx()
	m := NewManager(ctx)
	vis := newScripted("vis", full)
	hid := newScripted("hid", full)
	hid.SetVisible(false)
	m.Add(vis)
	m.Add(hid)
	require.NoError(t, m.InitializeWidgets())

	vis.MarkDirty()
	hid.MarkDirty()
	m.UpdateAndDraw(false)
	assert.Equal(t, 2, vis.dynamics)
	assert.Zero(t, hid.dynamics)
}

func TestManager_Cleanup(t *testing.T) {
	ctx, _, _ := newCtx()
	m := NewManager(ctx)
	w := newScripted("w", full)
	m.Add(w)
	require.NoError(t, m.InitializeWidgets())

	m.Cleanup()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, w.cleanups)
	assert.Equal(t, StateUninitialized, w.State())
	assert.False(t, m.HandleTouch(5, 5))
}
