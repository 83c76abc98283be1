package main

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hwpanel-go/bus"
	"hwpanel-go/drivers/surface"
	"hwpanel-go/errcode"
	"hwpanel-go/services/admin"
	"hwpanel-go/services/bringup"
	"hwpanel-go/services/clock"
	"hwpanel-go/services/config"
	"hwpanel-go/services/heartbeat"
	"hwpanel-go/services/logging"
	"hwpanel-go/services/network"
	"hwpanel-go/services/scheduler"
	"hwpanel-go/services/telemetry"
	"hwpanel-go/services/watchdog"
	"hwpanel-go/types"
	"hwpanel-go/ui/screen"
	"hwpanel-go/ui/widget"
	"hwpanel-go/x/mathx"
	"hwpanel-go/x/ramp"
)

const (
	brightnessStep = 10
	brightnessMin  = 10
	rampDuration   = 240 * time.Millisecond
	rampSteps      = 8
)

// app owns every long-lived component of a running panel.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	console *logging.Console

	fb     *surface.Framebuffer
	panel  *surface.Panel
	lock   *surface.Lock
	bus    *bus.Bus
	core   types.CoreState
	screen types.ScreenState
	store  telemetry.Store

	net    *network.Client
	clock  *clock.Syncer
	dog    *watchdog.Watchdog
	poller *telemetry.Poller
	ctrl   *screen.Controller
	sched  *scheduler.Scheduler
	boot   *bringup.Machine
	admin  *admin.Server
	beat   *heartbeat.Service

	brightness atomic.Uint32 // target percent

	rampMu     sync.Mutex
	rampCancel context.CancelFunc

	cancel context.CancelCauseFunc
}

// errRestart is the cancellation cause for a requested device reset.
var errRestart = &errcode.E{C: errcode.Error, Op: "app", Msg: "restart requested"}

func newApp(cfg *config.Config, out io.Writer) (*app, error) {
	console := logging.NewConsole(cfg.Logging.ScreenLines)
	base := logging.New(cfg.Logging, out)
	a := &app{
		cfg:     cfg,
		log:     base,
		console: console,
		bus:     bus.NewBus(),
		lock:    surface.NewLock(),
	}
	a.brightness.Store(uint32(cfg.Display.Brightness))

	a.fb = surface.NewFramebuffer(cfg.Display.Width, cfg.Display.Height)
	popts := surface.Options{
		Touch:          a.fb,
		TouchThreshold: cfg.Display.TouchThreshold,
	}
	if c := cfg.Display.Calibration; c.Enabled {
		popts.Calibration = &surface.Calibration{MinX: c.MinX, MaxX: c.MaxX, MinY: c.MinY, MaxY: c.MaxY, SwapXY: c.SwapXY}
	}
	a.panel = surface.NewPanel(a.fb, popts)

	var err error
	a.net, err = network.New(logging.Component(base, "network"), network.Options{
		ProbeURL:           cfg.Network.ProbeURL,
		Timeout:            cfg.Telemetry.RequestTimeout,
		InsecureSkipVerify: cfg.Network.InsecureSkipVerify,
	})
	if err != nil {
		return nil, err
	}
	a.clock = clock.New(logging.Component(base, "clock"), a.net, clock.Options{
		URL:     cfg.Time.URL,
		MinYear: cfg.Time.MinYear,
	})
	a.dog = watchdog.New(logging.Component(base, "watchdog"), watchdog.Options{
		Enabled:  cfg.Watchdog.Enabled,
		OnExpire: func(string) { a.bus.Publish(bus.ActionResetDevice) },
	})

	fetcher := telemetry.NewHTTPFetcher(a.net, cfg.Telemetry.URL, cfg.Telemetry.Cores)
	a.poller = telemetry.NewPoller(logging.Component(base, "telemetry"), fetcher, &a.store, &a.core, &a.screen, telemetry.PollerConfig{
		Interval:         cfg.Telemetry.Interval,
		RequestTimeout:   cfg.Telemetry.RequestTimeout,
		FailureThreshold: cfg.Telemetry.FailureThreshold,
		Now:              a.clock.Now,
	})

	theme := widget.DefaultTheme()
	deps := screen.Deps{
		Widgets: widget.Context{
			Canvas: a.panel,
			Log:    logging.Component(base, "widget"),
			Theme:  theme,
			Now:    a.clock.Now,
		},
		Log:        logging.Component(base, "screen"),
		Bus:        a.bus,
		Console:    console,
		Metrics:    &a.store,
		Network:    a.net,
		Core:       &a.core,
		Clock:      a.clock.Now,
		BootStatus: func() string { return a.boot.Status() },
		Brightness: func() uint8 { return uint8(a.brightness.Load()) },
		Info: screen.Info{
			Title:        "hwpanel",
			Version:      version,
			Endpoint:     cfg.Telemetry.URL,
			StaleTimeout: cfg.Telemetry.StaleTimeout,
			Cores:        cfg.Telemetry.Cores,
			Up:           cfg.Telemetry.UpwardFactor,
			Down:         cfg.Telemetry.DownwardFactor,
		},
	}
	a.ctrl = screen.NewController(logging.Component(base, "render"), a.panel, a.lock, screen.Standard(), deps, &a.screen, screen.Options{
		LockTimeout:       cfg.Render.LockTimeout,
		TransitionTimeout: cfg.Transition.Timeout,
		Background:        theme.Background,
	})

	a.sched = scheduler.New(logging.Component(base, "scheduler"), scheduler.Config{
		RenderPeriod:     cfg.Render.Period(),
		TouchPeriod:      cfg.Touch.Period,
		TouchDebounce:    cfg.Touch.Debounce,
		BackgroundPeriod: cfg.Telemetry.PollPeriod,
		LockTimeout:      cfg.Render.LockTimeout,
	}, scheduler.Deps{
		Renderer: a.ctrl,
		Touch:    a.panel,
		Lock:     a.lock,
		Poller:   a.poller,
		Watchdog: a.dog,
		Screens:  &a.screen,
	})

	var adm bringup.Admin
	if cfg.Admin.Enabled {
		a.admin = admin.NewServer(logging.Component(base, "admin"), admin.Options{Addr: cfg.Admin.Addr}, a.adminStatus, a.bus, a.fb)
		adm = a.admin
	}

	// Bring-up progress is mirrored on the boot screen console.
	a.boot = bringup.New(console.Wrap(logging.Component(base, "bringup")), bringup.Config{
		NetworkRetries:  cfg.Network.Retries,
		NetworkDelay:    cfg.Network.RetryDelay,
		TimeRetries:     cfg.Time.Retries,
		TimeBaseDelay:   cfg.Time.BaseDelay,
		TimeJitterMax:   cfg.Time.JitterMax,
		WatchdogTimeout: cfg.Watchdog.Timeout,
	}, bringup.Deps{
		Display:  a.panel,
		Renderer: a.ctrl,
		Tasks:    a.sched,
		Network:  a.net,
		Clock:    a.clock,
		Watchdog: a.dog,
		Admin:    adm,
		Core:     &a.core,
	})

	feedEvery := cfg.Watchdog.Timeout / 3
	a.beat = heartbeat.New(logging.Component(base, "heartbeat"), heartbeat.Options{
		Interval:   cfg.Heartbeat.Interval,
		FeedPeriod: feedEvery,
		Feeder:     a.dog,
		Handle:     watchdog.MainHandle,
	}, a.heartbeatStatus)

	a.subscribe()
	return a, nil
}

// subscribe connects bus actions to their effects.
func (a *app) subscribe() {
	show := func(id types.ScreenID) func() {
		return func() {
			if !a.ctrl.RequestTransition(id) {
				a.log.Debug().Stringer("screen", id).Msg("transition request ignored")
			}
		}
	}
	a.bus.Subscribe(bus.ActionShowBoot, show(types.ScreenBoot))
	a.bus.Subscribe(bus.ActionShowMain, show(types.ScreenMain))
	a.bus.Subscribe(bus.ActionShowSettings, show(types.ScreenSettings))
	a.bus.Subscribe(bus.ActionBrightnessUp, func() { a.stepBrightness(brightnessStep) })
	a.bus.Subscribe(bus.ActionBrightnessDown, func() { a.stepBrightness(-brightnessStep) })
	a.bus.Subscribe(bus.ActionRefreshMetrics, a.poller.RequestRefresh)
	a.bus.Subscribe(bus.ActionResetDevice, func() {
		a.log.Warn().Msg("device reset requested")
		if a.cancel != nil {
			a.cancel(errRestart)
		}
	})
}

// stepBrightness moves the target by delta and fades the backlight to it.
// A newer request cancels a fade still in progress.
func (a *app) stepBrightness(delta int) {
	from := uint16(a.brightness.Load())
	to := uint16(mathx.Clamp(int(from)+delta, brightnessMin, 100))
	a.brightness.Store(uint32(to))

	a.rampMu.Lock()
	if a.rampCancel != nil {
		a.rampCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.rampCancel = cancel
	a.rampMu.Unlock()

	fade := ramp.Linear{From: from, To: to, Top: 100, Duration: rampDuration, Steps: rampSteps}
	go fade.Run(ramp.ContextTick(ctx), func(level uint16) {
		if ctx.Err() != nil || !a.lock.Acquire(a.cfg.Render.LockTimeout) {
			return
		}
		defer a.lock.Release()
		if err := a.panel.SetBrightness(uint8(level)); err != nil {
			a.log.Warn().Err(err).Msg("set brightness failed")
		}
	})
}

func (a *app) adminStatus() admin.Status {
	ts := a.ctrl.State()
	st := a.poller.Stats()
	return admin.Status{
		Init:   a.boot.Status(),
		Screen: a.screen.Active().String(),
		Transition: admin.Transition{
			Phase:      ts.Phase.String(),
			Target:     ts.Target.String(),
			InProgress: ts.Active,
		},
		Telemetry: admin.Telemetry{
			Fetches:     st.Fetches,
			Failures:    st.Failures,
			Consecutive: st.Consecutive,
			LastError:   st.LastError,
			UpdatedMs:   a.store.Load().UpdatedMs,
		},
		Initialized:   a.core.Initialized(),
		Connected:     a.net.IsConnected(),
		TimeSynced:    a.core.TimeSynced(),
		MetricsSynced: a.core.MetricsSynced(),
		Brightness:    uint8(a.brightness.Load()),
		LockMisses:    a.ctrl.LockMisses(),
	}
}

func (a *app) heartbeatStatus() heartbeat.Status {
	st := a.poller.Stats()
	return heartbeat.Status{
		Init:          a.boot.Status(),
		Screen:        a.screen.Active().String(),
		Connected:     a.net.IsConnected(),
		TimeSynced:    a.core.TimeSynced(),
		MetricsSynced: a.core.MetricsSynced(),
		Fetches:       st.Fetches,
		Failures:      st.Failures,
		LockMisses:    a.ctrl.LockMisses(),
	}
}

// Run brings the panel up and blocks until ctx is done or a reset is
// requested. The returned error carries the process exit code.
func (a *app) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	a.cancel = cancel
	defer cancel(nil)

	a.log.Info().Str("device", a.cfg.Device).Str("version", version).Msg("hwpanel starting")
	_ = a.panel.SetBrightness(uint8(a.brightness.Load()))

	if err := a.boot.Run(ctx); err != nil {
		a.sched.Stop()
		_ = a.sched.Wait()
		return &exitError{code: exitFailed, err: err}
	}

	if a.dog.Armed() {
		go a.dog.Run(ctx, a.cfg.Watchdog.CheckPeriod)
	}
	if err := a.beat.Start(ctx); err != nil {
		a.sched.Stop()
		_ = a.sched.Wait()
		return &exitError{code: exitFailed, err: err}
	}

	<-ctx.Done()
	a.sched.Stop()
	if err := a.sched.Wait(); err != nil {
		a.log.Error().Err(err).Msg("task failed")
	}
	a.rampMu.Lock()
	if a.rampCancel != nil {
		a.rampCancel()
	}
	a.rampMu.Unlock()

	if errors.Is(context.Cause(ctx), errRestart) {
		a.log.Warn().Msg("exiting for restart")
		return &exitError{code: exitRestart}
	}
	a.log.Info().Msg("hwpanel stopped")
	return nil
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	a, err := newApp(cfg, out)
	if err != nil {
		return &exitError{code: exitFailed, err: err}
	}
	return a.Run(ctx)
}
