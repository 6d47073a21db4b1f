// This file defines how background refreshes are handed off.
// The goal of refresh is: "Keep data fresh without slowing down reads".

package refresh

import "context"

// Task is one background refresh of one key.
type Task struct {
	Key string

	// Run calls the producer and writes the result. Its error is for logging only:
	// a failed background refresh must never reach the reader that triggered it.
	Run func(ctx context.Context) error
}

/*
Dispatcher accepts refresh tasks from the read path.

Submit MUST be fast and non-blocking because it runs on the hot read path.
It returns false when the task was not accepted (queue full or closed);
the stale-but-fresh value already handed to the reader stays valid either way.
*/
type Dispatcher interface {
	Submit(task Task) bool

	// Close stops accepting tasks and waits for running ones to finish.
	Close()
}
