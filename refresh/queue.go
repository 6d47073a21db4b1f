package refresh

import (
	"context"
	"log/slog"
	"sync"

	"github.com/krisalay/query-cache/internal/errs"
	"github.com/krisalay/query-cache/internal/logging"
)

/*
Queue runs refresh tasks on a fixed pool of background workers.

Tasks go through a buffered channel. If the buffer is full the task is
DROPPED rather than blocking the reader: a refresh is an optimization, and
the reader already has a usable value.
*/
type Queue struct {
	ch chan Task

	// ctx is handed to every task; Close cancels it after draining.
	ctx    context.Context
	cancel context.CancelFunc

	// mu guards closed against concurrent Submit and Close.
	mu     sync.RWMutex
	closed bool

	wg sync.WaitGroup
}

// NewQueue starts workers goroutines reading from a buffer of size buffer.
// ctx supplies the logger for failures; its cancellation is not observed.
func NewQueue(ctx context.Context, workers int, buffer int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}

	base := logging.WithAttrs(logging.Detach(ctx), slog.String("component", "refresh.queue"))
	qctx, cancel := context.WithCancel(base)

	q := &Queue{
		ch:     make(chan Task, buffer),
		ctx:    qctx,
		cancel: cancel,
	}

	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

func (q *Queue) Submit(task Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.ch <- task:
		return true
	default:
		logging.Debug(q.ctx, "refresh dropped, queue full", slog.String("key", task.Key))
		return false
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for task := range q.ch {
		if err := task.Run(q.ctx); err != nil {
			logging.Warn(q.ctx, "background refresh failed",
				slog.String("key", task.Key),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
}

/*
Close shuts the queue down:
1. Stop accepting tasks
2. Let workers drain what is already queued
3. Cancel the task context

It is safe to call more than once.
*/
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
}
