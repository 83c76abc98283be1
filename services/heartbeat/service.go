// Package heartbeat logs a periodic status line and keeps the main
// watchdog handle fed while the process is alive.
package heartbeat

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Feeder is the part of the watchdog the heartbeat uses.
type Feeder interface {
	Reset(name string)
}

// Status describes the device at one heartbeat.
type Status struct {
	Init          string
	Screen        string
	Connected     bool
	TimeSynced    bool
	MetricsSynced bool
	Fetches       uint64
	Failures      uint64
	LockMisses    uint64
}

type Options struct {
	// Interval between status lines; defaults to 1s.
	Interval time.Duration
	// FeedPeriod between watchdog feeds; defaults to Interval.
	FeedPeriod time.Duration
	Feeder     Feeder
	Handle     string
}

type Service struct {
	log    zerolog.Logger
	opts   Options
	status func() Status

	beats    uint64
	lastBeat time.Time
}

// New builds a heartbeat that logs status() every Interval and feeds
// Handle on Feeder (if set) every FeedPeriod.
func New(log zerolog.Logger, opts Options, status func() Status) *Service {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.FeedPeriod <= 0 || opts.FeedPeriod > opts.Interval {
		opts.FeedPeriod = opts.Interval
	}
	if status == nil {
		status = func() Status { return Status{} }
	}
	return &Service{log: log, opts: opts, status: status}
}

func (s *Service) feed() {
	if s.opts.Feeder != nil && s.opts.Handle != "" {
		s.opts.Feeder.Reset(s.opts.Handle)
	}
}

// tick feeds the watchdog and logs a beat once Interval has passed.
func (s *Service) tick(now time.Time) {
	s.feed()
	if now.Sub(s.lastBeat) >= s.opts.Interval {
		s.Beat(now)
	}
}

// Beat feeds the watchdog and writes one status line.
func (s *Service) Beat(now time.Time) {
	s.feed()
	s.lastBeat = now
	s.beats++
	st := s.status()
	s.log.Info().
		Str("time", now.Format("15:04:05")).
		Uint64("beat", s.beats).
		Str("init", st.Init).
		Str("screen", st.Screen).
		Bool("online", st.Connected).
		Bool("time_synced", st.TimeSynced).
		Bool("metrics_synced", st.MetricsSynced).
		Uint64("fetches", st.Fetches).
		Uint64("failures", st.Failures).
		Uint64("lock_misses", st.LockMisses).
		Msg("heartbeat")
}

// Beats returns how many heartbeats have been emitted.
func (s *Service) Beats() uint64 { return s.beats }

func (s *Service) serviceLoop(ctx context.Context) {
	s.lastBeat = time.Now()
	tick := time.NewTicker(s.opts.FeedPeriod)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("heartbeat service stopping")
			return
		case t := <-tick.C:
			s.tick(t)
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context) error {
	go s.serviceLoop(ctx)
	return nil
}
