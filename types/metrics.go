package types

import "time"

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when a read is served from a fresh entry.
	Hit()

	// Miss is called when a read finds no entry, or a stale one, and has to call the producer.
	Miss()

	// Eviction is called when a key is removed because a bounded cache is full.
	Eviction()

	// Expire is called when the sweep removes an entry older than the retention horizon.
	Expire()

	// Refresh is called when a background refresh is dispatched.
	Refresh()

	// RefreshFailure is called when a background refresh producer fails.
	// These failures never reach the caller, so this is the only trace of them besides logs.
	RefreshFailure()

	// LoadFailure is called when a cold-path or refetch producer call fails.
	LoadFailure()

	// LoadDuration reports how long a producer call took.
	LoadDuration(time.Duration)

	// Size reports the number of entries after a mutation.
	Size(int)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

Callers who do not care about metrics still get a working cache without
nil checks sprinkled over every code path.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()                       {}
func (NoopMetrics) Miss()                      {}
func (NoopMetrics) Eviction()                  {}
func (NoopMetrics) Expire()                    {}
func (NoopMetrics) Refresh()                   {}
func (NoopMetrics) RefreshFailure()            {}
func (NoopMetrics) LoadFailure()               {}
func (NoopMetrics) LoadDuration(time.Duration) {}
func (NoopMetrics) Size(int)                   {}
