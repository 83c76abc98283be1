package types

import (
	"sync/atomic"
	"time"
)

// CoreState is shared between bring-up, the render context and the
// background context. Each field has a single writer:
//   - Initialized, TimeSynced: bring-up
//   - MetricsSynced, next sync deadline: background context
type CoreState struct {
	initialized   atomic.Bool
	timeSynced    atomic.Bool
	metricsSynced atomic.Bool
	nextSyncMs    atomic.Int64
}

func (c *CoreState) Initialized() bool   { return c.initialized.Load() }
func (c *CoreState) TimeSynced() bool    { return c.timeSynced.Load() }
func (c *CoreState) MetricsSynced() bool { return c.metricsSynced.Load() }

// MarkInitialized flips Initialized to true. There is no way back.
func (c *CoreState) MarkInitialized()        { c.initialized.Store(true) }
func (c *CoreState) SetTimeSynced(v bool)    { c.timeSynced.Store(v) }
func (c *CoreState) SetMetricsSynced(v bool) { c.metricsSynced.Store(v) }

// NextMetricsSync is the earliest time the background context may fetch again.
func (c *CoreState) NextMetricsSync() time.Time {
	return time.UnixMilli(c.nextSyncMs.Load())
}

func (c *CoreState) SetNextMetricsSync(t time.Time) { c.nextSyncMs.Store(t.UnixMilli()) }
