package screen

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwpanel-go/bus"
	"hwpanel-go/drivers/surface"
	"hwpanel-go/errcode"
	"hwpanel-go/services/logging"
	"hwpanel-go/services/telemetry"
	"hwpanel-go/types"
	"hwpanel-go/ui/widget"
)

type online bool

func (o online) IsConnected() bool { return bool(o) }

type env struct {
	deps  Deps
	bus   *bus.Bus
	store *telemetry.Store
	clk   *clock
	seen  []bus.Action
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fb := surface.NewFramebuffer(320, 240)
	panel := surface.NewPanel(fb, surface.Options{})
	require.NoError(t, panel.Init())

	e := &env{bus: bus.NewBus(), store: &telemetry.Store{}, clk: &clock{t: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)}}
	for a := bus.ActionResetDevice; a <= bus.ActionRefreshMetrics; a++ {
		a := a
		e.bus.Subscribe(a, func() { e.seen = append(e.seen, a) })
	}
	core := &types.CoreState{}
	core.SetTimeSynced(true)
	e.deps = Deps{
		Widgets:    widget.Context{Canvas: panel, Log: zerolog.Nop(), Theme: widget.DefaultTheme(), Now: e.clk.Now},
		Log:        zerolog.Nop(),
		Bus:        e.bus,
		Console:    logging.NewConsole(8),
		Metrics:    e.store,
		Network:    online(true),
		Core:       core,
		Clock:      e.clk.Now,
		BootStatus: func() string { return "NETWORK_INIT" },
		Brightness: func() uint8 { return 80 },
		Info:       Info{Title: "bench", Version: "v1", Endpoint: "http://host/m", StaleTimeout: 5 * time.Second, Cores: 4, Up: 1, Down: 1},
	}
	return e
}

func enter(t *testing.T, b Builder, d Deps) Screen {
	t.Helper()
	s, err := b(d)
	require.NoError(t, err)
	require.NoError(t, s.OnEnter(context.Background()))
	return s
}

func TestStandardFactory(t *testing.T) {
	e := newEnv(t)
	f := Standard()
	for _, id := range []types.ScreenID{types.ScreenBoot, types.ScreenMain, types.ScreenSettings} {
		s, err := f.Build(id, e.deps)
		require.NoError(t, err)
		assert.Equal(t, id, s.ID())
	}
	_, err := f.Build(types.ScreenUnset, e.deps)
	assert.Equal(t, errcode.ScreenMissing, errcode.Of(err))

	assert.Panics(t, func() { f.Register(types.ScreenMain, NewMain) })
}

func TestScreens_RejectTinyDisplay(t *testing.T) {
	e := newEnv(t)
	e.deps.Widgets.Canvas = surface.NewPanel(surface.NewFramebuffer(100, 60), surface.Options{})
	_, err := NewMain(e.deps)
	assert.Equal(t, errcode.Unsupported, errcode.Of(err))
}

func TestBoot_ShowsStatus(t *testing.T) {
	e := newEnv(t)
	s := enter(t, NewBoot, e.deps).(*Boot)
	s.Draw(false)
	assert.Equal(t, "NETWORK_INIT", s.status.Text())
}

func TestMain_FreshAndStale(t *testing.T) {
	e := newEnv(t)
	s := enter(t, NewMain, e.deps).(*Main)

	s.Draw(false)
	assert.True(t, s.cpu.load.Stale())
	assert.Equal(t, "online | no data", s.status.Text())

	e.store.Publish(types.MetricsSnapshot{
		CPU:       types.DeviceReadings{Load: 42, Temp: 61},
		RAMLoad:   30,
		CoreLoads: []float64{10, 90},
		Available: true,
		UpdatedMs: e.clk.Now().UnixMilli(),
	})
	s.Draw(false)
	assert.False(t, s.cpu.load.Stale())
	assert.Equal(t, "42%", s.cpu.load.Text())
	assert.Equal(t, "61C", s.cpu.temp.Text())
	assert.Equal(t, []int{10, 90}, s.cores.Values())
	assert.Equal(t, "online", s.status.Text())

	e.clk.Advance(6 * time.Second)
	s.Draw(false)
	assert.True(t, s.cpu.load.Stale())
	assert.True(t, s.cores.Stale())
	assert.Equal(t, "online | stale 6s", s.status.Text())
}

func TestMain_SettingsButton(t *testing.T) {
	e := newEnv(t)
	s := enter(t, NewMain, e.deps)
	assert.True(t, s.HandleTouch(270, 225))
	assert.Equal(t, []bus.Action{bus.ActionShowSettings}, e.seen)
}

func TestSettings_Buttons(t *testing.T) {
	e := newEnv(t)
	s := enter(t, NewSettings, e.deps).(*Settings)
	s.Draw(false)
	assert.Equal(t, "Brightness 80%", s.level.Text())
	assert.Equal(t, "network online", s.netInfo.Text())
	assert.Equal(t, "time synced", s.timeInf.Text())

	touches := []struct {
		x, y int16
		want bus.Action
	}{
		{290, 40, bus.ActionBrightnessUp},
		{230, 40, bus.ActionBrightnessDown},
		{50, 220, bus.ActionShowMain},
		{160, 220, bus.ActionRefreshMetrics},
		{260, 220, bus.ActionResetDevice},
	}
	for _, tc := range touches {
		e.seen = nil
		require.True(t, s.HandleTouch(tc.x, tc.y), tc.want.String())
		assert.Equal(t, []bus.Action{tc.want}, e.seen)
	}
}

func TestScreen_ExitReleasesWidgets(t *testing.T) {
	e := newEnv(t)
	s := enter(t, NewSettings, e.deps).(*Settings)
	require.NoError(t, s.OnExit())
	assert.Equal(t, 0, s.mgr.Len())
	assert.False(t, s.HandleTouch(290, 40))
}

func TestMain_CoreLoadsSmoothOncePerSample(t *testing.T) {
	e := newEnv(t)
	e.deps.Info.Up, e.deps.Info.Down = 0.5, 0.5
	s := enter(t, NewMain, e.deps).(*Main)

	publish := func(load float64) {
		e.store.Publish(types.MetricsSnapshot{
			CPU:       types.DeviceReadings{Load: 1, Temp: 40},
			CoreLoads: []float64{load},
			Available: true,
			UpdatedMs: e.clk.Now().UnixMilli(),
		})
	}

	publish(0)
	s.Draw(false)
	assert.Equal(t, []int{0}, s.cores.Values())

	e.clk.Advance(time.Second)
	publish(100)
	for i := 0; i < 10; i++ {
		s.Draw(false)
	}
	assert.Equal(t, []int{50}, s.cores.Values())

	e.clk.Advance(time.Second)
	publish(100)
	s.Draw(false)
	s.Draw(false)
	assert.Equal(t, []int{75}, s.cores.Values())
}
