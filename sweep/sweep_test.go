package sweep

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingTarget struct {
	calls atomic.Int32
}

func (c *countingTarget) Sweep(time.Time) int {
	c.calls.Add(1)
	return 1
}

func TestSweeperTicks(t *testing.T) {
	target := &countingTarget{}
	s := New(context.Background(), target, 5*time.Millisecond, nil)
	s.Start()
	s.Start()

	require.Eventually(t, func() bool { return target.calls.Load() >= 2 }, time.Second, time.Millisecond)

	s.Stop()
	after := target.calls.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, after, target.calls.Load(), "no passes after Stop")
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	s := New(context.Background(), &countingTarget{}, time.Hour, nil)
	s.Stop()
	s.Start()
	s.Stop()
}

func TestSweeperDisabledInterval(t *testing.T) {
	target := &countingTarget{}
	s := New(context.Background(), target, 0, nil)
	s.Start()

	require.Equal(t, 1, s.RunOnce())
	require.EqualValues(t, 1, target.calls.Load())
	s.Stop()
}

func TestRunOncePassesClock(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	var seen time.Time
	s := New(context.Background(), targetFunc(func(now time.Time) int {
		seen = now
		return 0
	}), 0, func() time.Time { return fixed })

	s.RunOnce()
	require.Equal(t, fixed, seen)
}

type targetFunc func(time.Time) int

func (f targetFunc) Sweep(now time.Time) int { return f(now) }
