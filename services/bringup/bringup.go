// Package bringup sequences the panel's start-up: display, tasks,
// network, time, watchdog and final setup.
package bringup

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hwpanel-go/errcode"
	"hwpanel-go/services/watchdog"
	"hwpanel-go/types"
	"hwpanel-go/x/timex"
)

type Display interface {
	Init() error
}

type Renderer interface {
	Bootstrap(id types.ScreenID) error
	RequestTransition(id types.ScreenID) bool
}

type Tasks interface {
	CreateTasks(ctx context.Context) error
}

type Network interface {
	Connect(ctx context.Context) error
	IsConnected() bool
}

type Clock interface {
	SyncTime(ctx context.Context) error
}

type Watchdog interface {
	Init(timeout time.Duration) error
	Register(name string) error
}

type Admin interface {
	Start(ctx context.Context) error
}

type Config struct {
	NetworkRetries  int
	NetworkDelay    time.Duration
	TimeRetries     int
	TimeBaseDelay   time.Duration
	TimeJitterMax   time.Duration
	WatchdogTimeout time.Duration
}

type Deps struct {
	Display  Display
	Renderer Renderer
	Tasks    Tasks
	Network  Network
	Clock    Clock
	Watchdog Watchdog
	Admin    Admin // optional
	Core     *types.CoreState

	// Sleep waits between retries; it reports false once ctx is done.
	Sleep func(ctx context.Context, d time.Duration) bool
	// Jitter returns a random duration in [0, max].
	Jitter func(max time.Duration) time.Duration
}

// Machine is the bring-up state machine. Advance and Run must be called
// from one goroutine; State may be read from any.
type Machine struct {
	log  zerolog.Logger
	cfg  Config
	deps Deps

	state    atomic.Uint32
	failedAt types.InitState
	lastErr  error
}

func New(log zerolog.Logger, cfg Config, deps Deps) *Machine {
	if deps.Sleep == nil {
		deps.Sleep = timex.Sleep
	}
	if deps.Jitter == nil {
		deps.Jitter = randomJitter
	}
	if cfg.NetworkRetries <= 0 {
		cfg.NetworkRetries = 1
	}
	if cfg.TimeRetries <= 0 {
		cfg.TimeRetries = 1
	}
	return &Machine{log: log, cfg: cfg, deps: deps}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit + 1)
}

// BackoffDelay is base*2^(attempt-1) plus jitter in [0, jitterMax].
func BackoffDelay(attempt int, base, jitterMax time.Duration, jitter func(time.Duration) time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := min(attempt-1, 16)
	d := base << shift
	if jitter != nil && jitterMax > 0 {
		d += jitter(jitterMax)
	}
	return d
}

func (m *Machine) State() types.InitState { return types.InitState(m.state.Load()) }

// Status is a one-line description for the boot screen.
func (m *Machine) Status() string { return m.State().String() }

func (m *Machine) set(s types.InitState) {
	m.state.Store(uint32(s))
}

func (m *Machine) fail(at types.InitState, err error) {
	m.failedAt = at
	m.lastErr = err
	m.log.Error().Err(err).Str("state", at.String()).Msg("bring-up failed")
	m.set(types.InitFailed)
}

// Advance runs the handler for the current state and moves to the next.
// It is a no-op once a terminal state is reached.
func (m *Machine) Advance(ctx context.Context) {
	switch s := m.State(); s {
	case types.InitInitial:
		m.log.Info().Msg("bring-up starting")
		m.set(types.InitDisplay)

	case types.InitDisplay:
		if err := m.deps.Display.Init(); err != nil {
			m.fail(s, errcode.Wrap(errcode.DisplayInit, "bringup.display", err))
			return
		}
		if err := m.deps.Renderer.Bootstrap(types.ScreenBoot); err != nil {
			m.fail(s, errcode.Wrap(errcode.DisplayInit, "bringup.boot_screen", err))
			return
		}
		m.log.Info().Msg("display ready")
		m.set(types.InitTasks)

	case types.InitTasks:
		if err := m.deps.Tasks.CreateTasks(ctx); err != nil {
			m.fail(s, errcode.Wrap(errcode.TasksInit, "bringup.tasks", err))
			return
		}
		m.log.Info().Msg("tasks running")
		m.set(types.InitNetwork)

	case types.InitNetwork:
		delay := func(int) time.Duration { return m.cfg.NetworkDelay }
		if m.retry(ctx, "network", m.cfg.NetworkRetries, delay, m.deps.Network.Connect) {
			m.log.Info().Msg("network connected")
		} else {
			m.log.Error().Err(errcode.NetworkDown).Msg("network unavailable, continuing offline")
		}
		m.set(types.InitTime)

	case types.InitTime:
		delay := func(attempt int) time.Duration {
			return BackoffDelay(attempt, m.cfg.TimeBaseDelay, m.cfg.TimeJitterMax, m.deps.Jitter)
		}
		if m.retry(ctx, "time", m.cfg.TimeRetries, delay, m.deps.Clock.SyncTime) {
			m.deps.Core.SetTimeSynced(true)
			m.log.Info().Msg("time synchronised")
		} else {
			m.log.Error().Err(errcode.TimeSync).Msg("time not synchronised, continuing")
		}
		m.set(types.InitWatchdog)

	case types.InitWatchdog:
		m.initWatchdog()
		m.set(types.InitFinalSetup)

	case types.InitFinalSetup:
		if m.deps.Admin != nil && m.deps.Network.IsConnected() {
			if err := m.deps.Admin.Start(ctx); err != nil {
				m.log.Warn().Err(err).Msg("admin server not started")
			}
		}
		m.deps.Core.MarkInitialized()
		if !m.deps.Renderer.RequestTransition(types.ScreenMain) {
			m.log.Warn().Msg("main screen request rejected")
		}
		m.log.Info().Msg("bring-up complete")
		m.set(types.InitComplete)

	case types.InitComplete, types.InitFailed:
	}
}

func (m *Machine) initWatchdog() {
	err := m.deps.Watchdog.Init(m.cfg.WatchdogTimeout)
	switch {
	case errcode.Of(err) == errcode.Unsupported:
		m.log.Warn().Msg("watchdog unsupported")
		return
	case err != nil:
		m.log.Warn().Err(err).Msg("watchdog init failed")
		return
	}
	if err := m.deps.Watchdog.Register(watchdog.MainHandle); err != nil {
		m.log.Warn().Err(err).Msg("watchdog registration failed")
		return
	}
	m.log.Info().Dur("timeout", m.cfg.WatchdogTimeout).Msg("watchdog armed")
}

// retry calls fn up to attempts times, sleeping delay(n) after failed
// attempt n. A cancelled context ends the loop as exhausted.
func (m *Machine) retry(ctx context.Context, what string, attempts int, delay func(int) time.Duration, fn func(context.Context) error) bool {
	for n := 1; n <= attempts; n++ {
		err := fn(ctx)
		if err == nil {
			return true
		}
		m.log.Warn().Err(err).Int("attempt", n).Int("of", attempts).Msg(what + " attempt failed")
		if n == attempts {
			break
		}
		if !m.deps.Sleep(ctx, delay(n)) {
			m.log.Warn().Msg(what + " retries cancelled")
			break
		}
	}
	return false
}

// Run advances until a terminal state. It gives up after one step per
// state so a broken handler cannot loop forever.
func (m *Machine) Run(ctx context.Context) error {
	for i := 0; i < types.InitStateCount && !m.State().Terminal(); i++ {
		m.Advance(ctx)
	}
	switch m.State() {
	case types.InitComplete:
		return nil
	case types.InitFailed:
		return &errcode.E{C: errcode.InitFailed, Op: m.failedAt.String(), Err: m.lastErr}
	default:
		return &errcode.E{C: errcode.InitFailed, Op: m.State().String(), Msg: "step bound exceeded"}
	}
}
