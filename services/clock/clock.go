// Package clock decides whether wall time can be trusted and, when a
// reference host is configured, tracks the offset to it.
package clock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hwpanel-go/errcode"
)

// DateSource returns the reference time reported by url.
type DateSource interface {
	Date(ctx context.Context, url string) (time.Time, error)
}

type Options struct {
	URL     string // optional reference host
	MinYear int    // local clocks before this year are considered unset
	Now     func() time.Time
}

type Syncer struct {
	log     zerolog.Logger
	src     DateSource
	url     string
	minYear int
	now     func() time.Time

	offset atomic.Int64 // nanoseconds added to the local clock
	synced atomic.Bool
}

func New(log zerolog.Logger, src DateSource, opts Options) *Syncer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Syncer{log: log, src: src, url: opts.URL, minYear: opts.MinYear, now: now}
}

// SyncTime performs one synchronisation attempt.
func (s *Syncer) SyncTime(ctx context.Context) error {
	local := s.now()
	if s.url == "" || s.src == nil {
		if local.Year() < s.minYear {
			return &errcode.E{C: errcode.TimeSync, Op: "clock.sync", Msg: "host clock not set"}
		}
		s.synced.Store(true)
		return nil
	}

	ref, err := s.src.Date(ctx, s.url)
	if err != nil {
		return errcode.Wrap(errcode.TimeSync, "clock.sync", err)
	}
	if ref.Year() < s.minYear {
		return &errcode.E{C: errcode.TimeSync, Op: "clock.sync", Msg: "implausible reference time " + ref.Format(time.RFC3339)}
	}
	// HTTP Date has one second resolution; smaller skews are noise.
	skew := ref.Sub(local)
	if skew > -time.Second && skew < time.Second {
		skew = 0
	}
	s.offset.Store(int64(skew))
	s.synced.Store(true)
	s.log.Info().Dur("skew", skew).Str("ref", s.url).Msg("time synchronised")
	return nil
}

// Now is the local clock corrected by the last sync offset.
func (s *Syncer) Now() time.Time { return s.now().Add(time.Duration(s.offset.Load())) }

func (s *Syncer) Offset() time.Duration { return time.Duration(s.offset.Load()) }

func (s *Syncer) Synced() bool { return s.synced.Load() }
