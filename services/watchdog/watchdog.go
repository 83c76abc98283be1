// Package watchdog is a software liveness watchdog. Periodic contexts
// register a handle by name and feed it; if any registered handle goes
// unfed for longer than the timeout the expiry callback fires once.
package watchdog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hwpanel-go/errcode"
)

// MainHandle is the handle owned by the main context.
const MainHandle = "main"

type handle struct {
	last atomic.Int64 // unix nanos of the last feed
}

type Options struct {
	Enabled  bool
	OnExpire func(name string)
	Now      func() time.Time
}

type Watchdog struct {
	log      zerolog.Logger
	enabled  bool
	onExpire func(string)
	now      func() time.Time

	mu      sync.RWMutex
	handles map[string]*handle
	timeout time.Duration
	armed   bool

	fired atomic.Bool
}

func New(log zerolog.Logger, opts Options) *Watchdog {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Watchdog{
		log:      log,
		enabled:  opts.Enabled,
		onExpire: opts.OnExpire,
		now:      now,
		handles:  make(map[string]*handle),
	}
}

// Init arms the watchdog. Handles registered before Init get a fresh
// feed so they are not judged on time spent before arming.
func (w *Watchdog) Init(timeout time.Duration) error {
	if !w.enabled {
		return errcode.Unsupported
	}
	if timeout <= 0 {
		return &errcode.E{C: errcode.InvalidConfig, Op: "watchdog.init", Msg: "timeout must be positive"}
	}
	now := w.now().UnixNano()
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range w.handles {
		h.last.Store(now)
	}
	w.timeout = timeout
	w.armed = true
	w.log.Info().Dur("timeout", timeout).Int("handles", len(w.handles)).Msg("watchdog armed")
	return nil
}

// Register adds a named handle. Registering an existing name is an error.
func (w *Watchdog) Register(name string) error {
	if name == "" {
		return &errcode.E{C: errcode.Error, Op: "watchdog.register", Msg: "empty handle name"}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.handles[name]; ok {
		return &errcode.E{C: errcode.Error, Op: "watchdog.register", Msg: "duplicate handle: " + name}
	}
	h := &handle{}
	h.last.Store(w.now().UnixNano())
	w.handles[name] = h
	return nil
}

func (w *Watchdog) Unregister(name string) {
	w.mu.Lock()
	delete(w.handles, name)
	w.mu.Unlock()
}

// Reset feeds the named handle. Unknown names are ignored.
func (w *Watchdog) Reset(name string) {
	w.mu.RLock()
	h := w.handles[name]
	w.mu.RUnlock()
	if h != nil {
		h.last.Store(w.now().UnixNano())
	}
}

func (w *Watchdog) Registered() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.handles))
	for n := range w.handles {
		out = append(out, n)
	}
	return out
}

func (w *Watchdog) Armed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.armed
}

// Check reports the first handle found overdue at now. It fires the
// expiry callback the first time an overdue handle is seen.
func (w *Watchdog) Check(now time.Time) (string, bool) {
	w.mu.RLock()
	if !w.armed {
		w.mu.RUnlock()
		return "", false
	}
	limit := now.Add(-w.timeout).UnixNano()
	var overdue string
	for n, h := range w.handles {
		if h.last.Load() < limit {
			overdue = n
			break
		}
	}
	w.mu.RUnlock()

	if overdue == "" {
		return "", false
	}
	if w.fired.CompareAndSwap(false, true) {
		w.log.Error().Str("handle", overdue).Dur("timeout", w.timeout).Msg("watchdog expired")
		if w.onExpire != nil {
			w.onExpire(overdue)
		}
	}
	return overdue, true
}

// Run checks handles every period until ctx is done.
func (w *Watchdog) Run(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = 500 * time.Millisecond
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Check(w.now())
		}
	}
}
