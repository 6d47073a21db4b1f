package cache

import (
	"sync"

	"github.com/krisalay/query-cache/types"
)

var (
	defaultCache     *QueryCache
	defaultCacheOnce sync.Once
)

/*
Default returns the process-wide cache, building it with default options on
first use. It lives for the life of the process and is never closed.

Libraries and tests should prefer New: an explicitly constructed cache can be
isolated and closed.
*/
func Default() *QueryCache {
	defaultCacheOnce.Do(func() {
		defaultCache = MustNew()
	})
	return defaultCache
}

// InvalidateCache removes key from the default cache.
func InvalidateCache(key string) {
	Default().Invalidate(key)
}

// ClearCache empties the default cache.
func ClearCache() {
	Default().Clear()
}

// GetCacheStats returns occupancy of the default cache.
func GetCacheStats() types.Stats {
	return Default().Stats()
}
