// Package telemetry ingests remote host metrics: it fetches and parses
// them, publishes immutable snapshots and classifies their freshness.
package telemetry

import (
	"sync/atomic"

	"hwpanel-go/types"
)

// Store holds the latest published snapshot. Publish swaps in a private
// copy, so readers never observe a partially written record.
type Store struct {
	p atomic.Pointer[types.MetricsSnapshot]
}

var empty = &types.MetricsSnapshot{}

// Load returns the current snapshot. Callers must treat it as read-only.
func (s *Store) Load() *types.MetricsSnapshot {
	if p := s.p.Load(); p != nil {
		return p
	}
	return empty
}

func (s *Store) Publish(snap types.MetricsSnapshot) {
	c := snap.Clone()
	s.p.Store(&c)
}

// IsFresh reports whether s is available and no older than staleTimeoutMs.
func IsFresh(s *types.MetricsSnapshot, nowMs, staleTimeoutMs int64) bool {
	if s == nil || !s.Available {
		return false
	}
	return nowMs-s.UpdatedMs <= staleTimeoutMs
}
