package screen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwpanel-go/drivers/surface"
	"hwpanel-go/errcode"
	"hwpanel-go/types"
	"hwpanel-go/ui/widget"
)

type stubScreen struct {
	id       types.ScreenID
	enterErr error
	onTouch  func()

	entered, exited, draws int
	touches                [][2]int16
}

func (s *stubScreen) ID() types.ScreenID              { return s.id }
func (s *stubScreen) OnEnter(ctx context.Context) error { s.entered++; return s.enterErr }
func (s *stubScreen) OnExit() error                     { s.exited++; return nil }
func (s *stubScreen) Draw(bool)                         { s.draws++ }
func (s *stubScreen) HandleTouch(x, y int16) bool {
	s.touches = append(s.touches, [2]int16{x, y})
	if s.onTouch != nil {
		s.onTouch()
	}
	return true
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type rig struct {
	c       *Controller
	fb      *surface.Framebuffer
	lock    *surface.Lock
	clk     *clock
	screens *types.ScreenState
	built   map[types.ScreenID][]*stubScreen
}

// newRig registers stub builders for ids; enterErr maps ids to OnEnter errors.
func newRig(t *testing.T, ids []types.ScreenID, enterErr map[types.ScreenID]error) *rig {
	t.Helper()
	r := &rig{
		fb:      surface.NewFramebuffer(320, 240),
		lock:    surface.NewLock(),
		clk:     &clock{t: time.Unix(1_700_000_000, 0)},
		screens: &types.ScreenState{},
		built:   map[types.ScreenID][]*stubScreen{},
	}
	f := NewFactory()
	for _, id := range ids {
		id := id
		f.Register(id, func(Deps) (Screen, error) {
			s := &stubScreen{id: id, enterErr: enterErr[id]}
			r.built[id] = append(r.built[id], s)
			return s, nil
		})
	}
	panel := surface.NewPanel(r.fb, surface.Options{})
	require.NoError(t, panel.Init())
	r.c = NewController(zerolog.Nop(), panel, r.lock, f, Deps{Widgets: widget.Context{Canvas: panel}}, r.screens, Options{
		LockTimeout:       10 * time.Millisecond,
		TransitionTimeout: time.Second,
		Now:               r.clk.Now,
	})
	return r
}

func (r *rig) last(id types.ScreenID) *stubScreen {
	b := r.built[id]
	if len(b) == 0 {
		return nil
	}
	return b[len(b)-1]
}

var allIDs = []types.ScreenID{types.ScreenBoot, types.ScreenMain, types.ScreenSettings}

func TestBootstrap(t *testing.T) {
	r := newRig(t, allIDs, nil)
	require.NoError(t, r.c.Bootstrap(types.ScreenBoot))

	assert.True(t, r.screens.Initialized())
	assert.Equal(t, types.ScreenBoot, r.c.Active())
	assert.False(t, r.c.State().Active)
	assert.Equal(t, 1, r.last(types.ScreenBoot).entered)
	assert.Positive(t, r.fb.Flushes())
}

func TestBootstrap_Missing(t *testing.T) {
	r := newRig(t, []types.ScreenID{types.ScreenMain}, nil)
	err := r.c.Bootstrap(types.ScreenBoot)
	assert.Equal(t, errcode.ScreenMissing, errcode.Of(err))
	assert.False(t, r.screens.Initialized())
}

func TestRequestTransition_Rules(t *testing.T) {
	r := newRig(t, allIDs, nil)
	require.NoError(t, r.c.Bootstrap(types.ScreenBoot))

	assert.False(t, r.c.RequestTransition(types.ScreenUnset))
	assert.False(t, r.c.RequestTransition(types.ScreenBoot), "already active")
	assert.True(t, r.c.RequestTransition(types.ScreenMain))
	assert.False(t, r.c.RequestTransition(types.ScreenSettings), "one transition at a time")

	st := r.c.State()
	assert.True(t, st.Active)
	assert.Equal(t, PhaseUnloading, st.Phase)
	assert.Equal(t, types.ScreenMain, st.Target)
}

func TestTransition_ThreeTicks(t *testing.T) {
	r := newRig(t, allIDs, nil)
	require.NoError(t, r.c.Bootstrap(types.ScreenBoot))
	boot := r.last(types.ScreenBoot)
	require.True(t, r.c.RequestTransition(types.ScreenMain))

	require.True(t, r.c.Tick())
	assert.Equal(t, PhaseClearing, r.c.State().Phase)
	assert.Equal(t, 1, boot.exited)
	assert.Equal(t, types.ScreenBoot, r.c.Active(), "active id only changes in ACTIVATING")

	require.True(t, r.c.Tick())
	assert.Equal(t, PhaseActivating, r.c.State().Phase)

	require.True(t, r.c.Tick())
	assert.Equal(t, TransitionState{}, r.c.State())
	assert.Equal(t, types.ScreenMain, r.c.Active())
	assert.Equal(t, 1, r.last(types.ScreenMain).entered)

	// Idle ticks draw the active screen.
	require.True(t, r.c.Tick())
	assert.Equal(t, 1, r.last(types.ScreenMain).draws)
	assert.Zero(t, boot.draws)
}

func TestTransition_TimeoutFallsBackToBoot(t *testing.T) {
	r := newRig(t, allIDs, nil)
	require.True(t, r.c.RequestTransition(types.ScreenMain))
	r.clk.Advance(1500 * time.Millisecond)

	assert.False(t, r.c.Tick())
	st := r.c.State()
	assert.True(t, st.Active)
	assert.Equal(t, types.ScreenBoot, st.Target)
	assert.Equal(t, PhaseUnloading, st.Phase)
	assert.Empty(t, r.built[types.ScreenMain])
}

func TestTransition_TimeoutOnBootGoesIdle(t *testing.T) {
	r := newRig(t, allIDs, nil)
	require.True(t, r.c.RequestTransition(types.ScreenBoot))
	r.clk.Advance(2 * time.Second)

	assert.False(t, r.c.Tick())
	assert.False(t, r.c.State().Active)
}

func TestTransition_FactoryMissFallsBack(t *testing.T) {
	r := newRig(t, []types.ScreenID{types.ScreenBoot, types.ScreenMain}, nil)
	require.NoError(t, r.c.Bootstrap(types.ScreenBoot))
	require.True(t, r.c.RequestTransition(types.ScreenSettings))

	r.c.Tick()
	r.c.Tick()
	assert.False(t, r.c.Tick())

	st := r.c.State()
	require.True(t, st.Active)
	assert.Equal(t, types.ScreenBoot, st.Target)
	for i := 0; i < 3; i++ {
		r.c.Tick()
	}
	assert.Equal(t, types.ScreenBoot, r.c.Active())
	assert.Len(t, r.built[types.ScreenBoot], 2)
}

func TestTransition_EnterErrorFallsBack(t *testing.T) {
	r := newRig(t, allIDs, map[types.ScreenID]error{types.ScreenSettings: errors.New("no font")})
	require.NoError(t, r.c.Bootstrap(types.ScreenBoot))
	require.True(t, r.c.RequestTransition(types.ScreenSettings))
	for i := 0; i < 3; i++ {
		r.c.Tick()
	}
	failed := r.last(types.ScreenSettings)
	require.NotNil(t, failed)
	assert.Equal(t, 1, failed.exited)
	assert.Equal(t, types.ScreenBoot, r.c.State().Target)
}

func TestTick_LockTimeoutSkips(t *testing.T) {
	r := newRig(t, allIDs, nil)
	require.NoError(t, r.c.Bootstrap(types.ScreenBoot))
	require.True(t, r.c.RequestTransition(types.ScreenMain))

	require.True(t, r.lock.Acquire(0))
	assert.False(t, r.c.Tick())
	assert.Equal(t, PhaseUnloading, r.c.State().Phase)
	assert.Equal(t, uint64(1), r.c.LockMisses())
	r.lock.Release()

	assert.True(t, r.c.Tick())
	assert.Equal(t, PhaseClearing, r.c.State().Phase)
}

func TestTick_TouchLatestWins(t *testing.T) {
	r := newRig(t, allIDs, nil)
	require.NoError(t, r.c.Bootstrap(types.ScreenBoot))
	boot := r.last(types.ScreenBoot)

	r.c.QueueTouch(1, 2)
	r.c.QueueTouch(30, 40)
	require.True(t, r.c.Tick())
	require.True(t, r.c.Tick())
	assert.Equal(t, [][2]int16{{30, 40}}, boot.touches)
	assert.Equal(t, 2, boot.draws)
}

func TestTick_TouchHandlerMayRequestTransition(t *testing.T) {
	r := newRig(t, allIDs, nil)
	require.NoError(t, r.c.Bootstrap(types.ScreenBoot))
	accepted := false
	r.last(types.ScreenBoot).onTouch = func() { accepted = r.c.RequestTransition(types.ScreenSettings) }

	r.c.QueueTouch(5, 5)
	done := make(chan struct{})
	go func() {
		r.c.Tick()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tick deadlocked")
	}
	assert.True(t, accepted)
}

func TestTick_NoScreen(t *testing.T) {
	r := newRig(t, allIDs, nil)
	assert.False(t, r.c.Tick())
}
