package clock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwpanel-go/errcode"
)

type stubSource struct {
	t   time.Time
	err error
}

func (s stubSource) Date(context.Context, string) (time.Time, error) { return s.t, s.err }

func fixed(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestSyncTime_LocalPlausible(t *testing.T) {
	s := New(zerolog.Nop(), nil, Options{MinYear: 2024, Now: fixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))})
	require.NoError(t, s.SyncTime(context.Background()))
	assert.True(t, s.Synced())
	assert.Zero(t, s.Offset())
}

func TestSyncTime_LocalUnset(t *testing.T) {
	s := New(zerolog.Nop(), nil, Options{MinYear: 2024, Now: fixed(time.Unix(0, 0))})
	err := s.SyncTime(context.Background())
	assert.Equal(t, errcode.TimeSync, errcode.Of(err))
	assert.False(t, s.Synced())
}

func TestSyncTime_ReferenceOffset(t *testing.T) {
	local := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ref := local.Add(90 * time.Second)
	s := New(zerolog.Nop(), stubSource{t: ref}, Options{URL: "http://ref", MinYear: 2024, Now: fixed(local)})

	require.NoError(t, s.SyncTime(context.Background()))
	assert.Equal(t, 90*time.Second, s.Offset())
	assert.True(t, ref.Equal(s.Now()))
}

func TestSyncTime_SubSecondSkewIgnored(t *testing.T) {
	local := time.Date(2026, 1, 1, 0, 0, 0, 400_000_000, time.UTC)
	ref := local.Truncate(time.Second)
	s := New(zerolog.Nop(), stubSource{t: ref}, Options{URL: "http://ref", MinYear: 2024, Now: fixed(local)})

	require.NoError(t, s.SyncTime(context.Background()))
	assert.Zero(t, s.Offset())
}

func TestSyncTime_ReferenceErrors(t *testing.T) {
	now := fixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	s := New(zerolog.Nop(), stubSource{err: errors.New("dial")}, Options{URL: "http://ref", MinYear: 2024, Now: now})
	assert.Equal(t, errcode.TimeSync, errcode.Of(s.SyncTime(context.Background())))

	s = New(zerolog.Nop(), stubSource{t: time.Unix(0, 0)}, Options{URL: "http://ref", MinYear: 2024, Now: now})
	assert.Equal(t, errcode.TimeSync, errcode.Of(s.SyncTime(context.Background())))
	assert.False(t, s.Synced())
}
