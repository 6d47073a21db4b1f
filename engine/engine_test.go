package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/krisalay/query-cache/expiration"
	"github.com/krisalay/query-cache/refresh"
	"github.com/krisalay/query-cache/types"
)

type countingMetrics struct {
	types.NoopMetrics
	hits, refreshes int
	durations       []time.Duration
}

func (m *countingMetrics) Hit()                         { m.hits++ }
func (m *countingMetrics) Refresh()                     { m.refreshes++ }
func (m *countingMetrics) LoadDuration(d time.Duration) { m.durations = append(m.durations, d) }

type recordingDispatcher struct {
	tasks  []refresh.Task
	closed bool
}

func (d *recordingDispatcher) Submit(task refresh.Task) bool {
	d.tasks = append(d.tasks, task)
	return true
}

func (d *recordingDispatcher) Close() { d.closed = true }

func TestEngineFreshnessUsesClock(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := t0
	e := NewCacheEngine(&expiration.MaxAge{Retention: time.Hour}, nil, nil, nil, func() time.Time { return now })

	ent := types.NewCacheEntry("k", 1, t0, 0)
	require.True(t, e.IsFresh(ent, 5*time.Second))

	now = t0.Add(5 * time.Second)
	require.False(t, e.IsFresh(ent, 5*time.Second))
}

func TestEngineWithoutSequencerAlwaysWrites(t *testing.T) {
	e := NewCacheEngine(&expiration.MaxAge{}, nil, nil, nil, nil)

	require.Zero(t, e.Issue())
	require.True(t, e.MayWrite("k", 0))
	require.True(t, e.MayWrite("k", 0))
}

func TestEngineProduceRecordsDuration(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := t0
	m := &countingMetrics{}
	e := NewCacheEngine(&expiration.MaxAge{}, nil, nil, m, func() time.Time { return now })

	boom := errors.New("boom")
	_, err := e.Produce(context.Background(), func(context.Context) (any, error) {
		now = now.Add(250 * time.Millisecond)
		return nil, boom
	})

	require.ErrorIs(t, err, boom)
	require.Equal(t, []time.Duration{250 * time.Millisecond}, m.durations)
}

func TestEngineDispatchAndClose(t *testing.T) {
	m := &countingMetrics{}
	d := &recordingDispatcher{}
	e := NewCacheEngine(&expiration.MaxAge{}, d, nil, m, nil)

	require.True(t, e.Dispatch(refresh.Task{Key: "k"}))
	require.Len(t, d.tasks, 1)
	require.Equal(t, 1, m.refreshes)

	e.Close()
	require.True(t, d.closed)

	noDispatch := NewCacheEngine(&expiration.MaxAge{}, nil, nil, nil, nil)
	require.False(t, noDispatch.Dispatch(refresh.Task{Key: "k"}))
}

func TestEngineOnReadCountsHit(t *testing.T) {
	m := &countingMetrics{}
	e := NewCacheEngine(&expiration.IdleRetention{Retention: time.Minute}, nil, nil, m, nil)

	ent := types.NewCacheEntry("k", 1, time.Now().Add(-time.Hour), 0)
	e.OnRead(ent)

	require.Equal(t, 1, m.hits)
	require.WithinDuration(t, time.Now(), ent.LastReadAt(), time.Second)
}
