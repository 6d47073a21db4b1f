// Package sweep runs the periodic retention pass that reclaims memory from
// entries nobody has refreshed for a long time.
package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/krisalay/query-cache/internal/logging"
)

// Target is anything that can drop its entries older than a retention horizon.
type Target interface {
	// Sweep removes expired entries as of now and returns how many it removed.
	Sweep(now time.Time) int
}

// Sweeper calls Target.Sweep on a fixed interval until stopped.
//
// A full scan per tick is deliberate: a query cache holds hundreds of entries,
// not millions, and a ticker loop is easy to own and to stop.
type Sweeper struct {
	target   Target
	interval time.Duration
	now      func() time.Time
	logCtx   context.Context

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New builds a sweeper. It does not start until Start is called.
// An interval of zero or less disables the periodic loop; RunOnce still works.
func New(ctx context.Context, target Target, interval time.Duration, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		target:   target,
		interval: interval,
		now:      now,
		logCtx:   logging.WithAttrs(logging.Detach(ctx), slog.String("component", "sweep")),
	}
}

// Start launches the loop. Calling Start on a running or stopped sweeper is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interval <= 0 || s.cancel != nil || s.stopped {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	logging.Debug(s.logCtx, "sweeper started", slog.Duration("interval", s.interval))
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce performs a single pass immediately and returns the number of removed entries.
func (s *Sweeper) RunOnce() int {
	removed := s.target.Sweep(s.now())
	if removed > 0 {
		logging.Debug(s.logCtx, "swept expired entries", slog.Int("removed", removed))
	}
	return removed
}

// Stop ends the loop and waits for an in-progress pass to finish.
// It is safe to call more than once and on a sweeper that never started.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
