// Package scheduler runs the panel's periodic contexts: render, touch
// and background telemetry.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hwpanel-go/errcode"
	"hwpanel-go/x/timex"
)

// Task names double as watchdog handle names.
const (
	TaskRender     = "render"
	TaskTouch      = "touch"
	TaskBackground = "background"
)

type Renderer interface {
	Tick() bool
	QueueTouch(x, y int16)
}

type TouchSource interface {
	Touch() (x, y int16, ok bool)
}

type Poller interface {
	Poll(ctx context.Context, now time.Time) bool
}

type Watchdog interface {
	Register(name string) error
	Unregister(name string)
	Reset(name string)
}

// DisplayLock bounds access to the display surface.
type DisplayLock interface {
	Acquire(timeout time.Duration) bool
	Release()
}

type ScreenReady interface {
	Initialized() bool
}

type Config struct {
	RenderPeriod     time.Duration
	TouchPeriod      time.Duration
	TouchDebounce    time.Duration
	BackgroundPeriod time.Duration
	LockTimeout      time.Duration
}

type Deps struct {
	Renderer Renderer
	Touch    TouchSource
	Lock     DisplayLock
	Poller   Poller
	Watchdog Watchdog
	Screens  ScreenReady
	Now      func() time.Time
}

// Task is one periodic context. Priority is advisory: only the highest
// priority task is pinned to an OS thread.
type Task struct {
	Name     string
	Period   time.Duration
	Priority int
	Pinned   bool
	step     func(ctx context.Context, now time.Time)
	runs     atomic.Uint64
}

func (t *Task) Runs() uint64 { return t.runs.Load() }

type Scheduler struct {
	log  zerolog.Logger
	cfg  Config
	deps Deps

	mu      sync.Mutex
	tasks   []*Task
	group   *errgroup.Group
	cancel  context.CancelFunc
	started bool

	lastTouch time.Time // touch task only
}

func New(log zerolog.Logger, cfg Config, deps Deps) *Scheduler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Scheduler{log: log, cfg: cfg, deps: deps}
}

func (s *Scheduler) specs() []*Task {
	return []*Task{
		{Name: TaskRender, Period: s.cfg.RenderPeriod, Priority: 3, Pinned: true, step: s.renderPass},
		{Name: TaskTouch, Period: s.cfg.TouchPeriod, Priority: 2, step: s.touchPass},
		{Name: TaskBackground, Period: s.cfg.BackgroundPeriod, Priority: 1, step: s.backgroundPass},
	}
}

func (s *Scheduler) validate(t *Task) error {
	if t.Period <= 0 {
		return fmt.Errorf("task %s: period must be positive", t.Name)
	}
	switch t.Name {
	case TaskRender:
		if s.deps.Renderer == nil || s.deps.Screens == nil {
			return fmt.Errorf("task %s: renderer missing", t.Name)
		}
	case TaskTouch:
		if s.deps.Renderer == nil || s.deps.Touch == nil || s.deps.Lock == nil {
			return fmt.Errorf("task %s: touch source missing", t.Name)
		}
	case TaskBackground:
		if s.deps.Poller == nil {
			return fmt.Errorf("task %s: poller missing", t.Name)
		}
	}
	return nil
}

// CreateTasks registers every task with the watchdog and starts them.
// If any task cannot be set up, handles registered so far are removed
// and nothing is started.
func (s *Scheduler) CreateTasks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return &errcode.E{C: errcode.TasksInit, Op: "scheduler.create", Msg: "already started"}
	}
	if s.deps.Watchdog == nil {
		return &errcode.E{C: errcode.TasksInit, Op: "scheduler.create", Msg: "no watchdog"}
	}

	tasks := s.specs()
	var registered []string
	rollback := func(err error) error {
		for _, n := range registered {
			s.deps.Watchdog.Unregister(n)
		}
		return errcode.Wrap(errcode.TasksInit, "scheduler.create", err)
	}
	for _, t := range tasks {
		if err := s.validate(t); err != nil {
			return rollback(err)
		}
		if err := s.deps.Watchdog.Register(t.Name); err != nil {
			return rollback(err)
		}
		registered = append(registered, t.Name)
	}

	gctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(gctx)
	for _, t := range tasks {
		g.Go(func() error { return s.loop(gctx, t) })
		s.log.Info().Str("task", t.Name).Dur("period", t.Period).Int("priority", t.Priority).Bool("pinned", t.Pinned).Msg("task started")
	}
	s.tasks = tasks
	s.group = g
	s.cancel = cancel
	s.started = true
	return nil
}

// Stop cancels all tasks. Wait returns once they have exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until every task has exited and returns the first failure.
// Cancellation is not a failure.
func (s *Scheduler) Wait() error {
	s.mu.Lock()
	g := s.group
	s.mu.Unlock()
	if g == nil {
		return nil
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Runs reports how many passes each task has completed.
func (s *Scheduler) Runs() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.tasks))
	for _, t := range s.tasks {
		out[t.Name] = t.Runs()
	}
	return out
}

// loop runs t at a fixed rate. An overrun pass is not caught up; the
// next one is scheduled a full period later.
func (s *Scheduler) loop(ctx context.Context, t *Task) (err error) {
	if t.Pinned {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.Name, r)
			s.log.Error().Str("task", t.Name).Interface("panic", r).Msg("task crashed")
		}
	}()

	timer := time.NewTimer(t.Period)
	defer timer.Stop()
	next := s.deps.Now().Add(t.Period)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		now := s.deps.Now()
		t.step(ctx, now)
		t.runs.Add(1)

		next = next.Add(t.Period)
		wait := next.Sub(s.deps.Now())
		if wait <= 0 {
			next = s.deps.Now().Add(t.Period)
			wait = t.Period
		}
		timex.ResetTimer(timer, wait)
	}
}

func (s *Scheduler) renderPass(_ context.Context, _ time.Time) {
	if !s.deps.Screens.Initialized() {
		return
	}
	if s.deps.Renderer.Tick() {
		s.deps.Watchdog.Reset(TaskRender)
	}
}

// touchPass reads the panel under the display lock and forwards a touch
// once the debounce window since the last accepted touch has passed.
func (s *Scheduler) touchPass(_ context.Context, now time.Time) {
	s.deps.Watchdog.Reset(TaskTouch)
	if !s.deps.Lock.Acquire(s.cfg.LockTimeout) {
		return
	}
	x, y, ok := s.deps.Touch.Touch()
	s.deps.Lock.Release()
	if !ok {
		return
	}
	if !s.lastTouch.IsZero() && now.Sub(s.lastTouch) < s.cfg.TouchDebounce {
		return
	}
	s.lastTouch = now
	s.log.Debug().Int16("x", x).Int16("y", y).Msg("touch")
	s.deps.Renderer.QueueTouch(x, y)
}

// backgroundPass feeds the watchdog after every completed poll; a poll
// is bounded by the request timeout, so a stuck fetch still trips it.
func (s *Scheduler) backgroundPass(ctx context.Context, now time.Time) {
	s.deps.Poller.Poll(ctx, now)
	s.deps.Watchdog.Reset(TaskBackground)
}
