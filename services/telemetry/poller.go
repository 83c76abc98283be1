package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hwpanel-go/errcode"
	"hwpanel-go/types"
)

// Fetcher fills a snapshot from the metrics source.
type Fetcher interface {
	FetchData(ctx context.Context, out *types.MetricsSnapshot) error
}

// ActiveScreen reports which screen is currently shown.
type ActiveScreen interface {
	Active() types.ScreenID
}

type PollerConfig struct {
	Interval         time.Duration
	RequestTimeout   time.Duration
	FailureThreshold int
	// Now stamps published snapshots. It must be the clock freshness is
	// judged with; nil stamps with the time passed to Poll.
	Now func() time.Time
}

// Stats is a point-in-time view of poller counters.
type Stats struct {
	Fetches     uint64 `json:"fetches"`
	Failures    uint64 `json:"failures"`
	Consecutive int32  `json:"consecutive_failures"`
	LastError   string `json:"last_error,omitempty"`
}

// Poller drives fetching from the background context. Poll is called on
// every background tick; it fetches only when the sync deadline has
// passed and the main screen is showing.
type Poller struct {
	log    zerolog.Logger
	fetch  Fetcher
	store  *Store
	core   *types.CoreState
	screen ActiveScreen
	cfg    PollerConfig

	refresh     atomic.Bool
	fetches     atomic.Uint64
	failures    atomic.Uint64
	consecutive atomic.Int32
	lastErr     atomic.Pointer[string]
}

func NewPoller(log zerolog.Logger, f Fetcher, store *Store, core *types.CoreState, screen ActiveScreen, cfg PollerConfig) *Poller {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = time.Second
	}
	return &Poller{log: log, fetch: f, store: store, core: core, screen: screen, cfg: cfg}
}

// Poll performs at most one fetch and reports whether it succeeded.
func (p *Poller) Poll(ctx context.Context, now time.Time) bool {
	forced := p.refresh.Load()
	if !forced && now.Before(p.core.NextMetricsSync()) {
		return false
	}
	if p.screen.Active() != types.ScreenMain {
		return false
	}
	p.refresh.Store(false)
	// The next attempt is scheduled regardless of outcome.
	p.core.SetNextMetricsSync(now.Add(p.cfg.Interval))

	fctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	var snap types.MetricsSnapshot
	err := p.fetch.FetchData(fctx, &snap)
	cancel()

	if err != nil {
		p.onFailure(err)
		return false
	}
	stamp := now
	if p.cfg.Now != nil {
		stamp = p.cfg.Now()
	}
	snap.Available = true
	snap.UpdatedMs = stamp.UnixMilli()
	p.store.Publish(snap)
	p.core.SetMetricsSynced(true)
	p.consecutive.Store(0)
	p.fetches.Add(1)
	return true
}

func (p *Poller) onFailure(err error) {
	p.failures.Add(1)
	p.core.SetMetricsSynced(false)
	msg := err.Error()
	p.lastErr.Store(&msg)

	n := p.consecutive.Add(1)
	p.log.Debug().Err(err).Str("code", string(errcode.Of(err))).Int32("consecutive", n).Msg("metrics fetch failed")
	if int(n) >= p.cfg.FailureThreshold {
		p.log.Warn().Int32("failures", n).Str("last", msg).Msg("metrics source unreachable")
		p.consecutive.Store(0)
		p.markUnavailable()
	}
}

// markUnavailable republishes the last snapshot with Available cleared,
// keeping its timestamp so screens can still report its age.
func (p *Poller) markUnavailable() {
	last := *p.store.Load()
	if !last.Available {
		return
	}
	last.Available = false
	p.store.Publish(last)
}

// RequestRefresh makes the next Poll fetch without waiting for the deadline.
func (p *Poller) RequestRefresh() { p.refresh.Store(true) }

func (p *Poller) Stats() Stats {
	s := Stats{
		Fetches:     p.fetches.Load(),
		Failures:    p.failures.Load(),
		Consecutive: p.consecutive.Load(),
	}
	if e := p.lastErr.Load(); e != nil {
		s.LastError = *e
	}
	return s
}
