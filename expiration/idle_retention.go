package expiration

import (
	"time"

	"github.com/krisalay/query-cache/types"
)

/*
IdleRetention implements "expire after access" for the sweep.

Every read pushes the retention deadline forward. As long as somebody keeps
reading a key it survives the sweep, even if the value itself has gone stale
and been refreshed many times. Keys nobody has touched for Retention are dropped.

Freshness is NOT affected: it is still measured from StoredAt, so a hot key
is never served past its ttl.
*/
type IdleRetention struct {
	Retention time.Duration
}

func (e *IdleRetention) IsFresh(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool {
	return isFresh(ent, ttl, now)
}

// IsExpired checks the time since the last read, falling back to StoredAt for never-read entries.
func (e *IdleRetention) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return e.Retention > 0 && now.Sub(ent.LastReadAt()) > e.Retention
}

// OnAccess records the read time on the entry.
func (e *IdleRetention) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.Touch(now)
}
