package expiration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/krisalay/query-cache/types"
)

func TestFreshnessIsPerRead(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ent := types.NewCacheEntry("props-1", 1, t0, 1)

	tests := map[string]struct {
		ttl   time.Duration
		after time.Duration
		fresh bool
	}{
		"inside ttl":         {ttl: 5 * time.Second, after: 2 * time.Second, fresh: true},
		"exactly at ttl":     {ttl: 5 * time.Second, after: 5 * time.Second, fresh: false},
		"past ttl":           {ttl: 5 * time.Second, after: 6 * time.Second, fresh: false},
		"shorter reader ttl": {ttl: time.Second, after: 2 * time.Second, fresh: false},
		"zero ttl":           {ttl: 0, after: 0, fresh: false},
	}

	strategies := map[string]Strategy{
		"max age":        &MaxAge{Retention: time.Hour},
		"idle retention": &IdleRetention{Retention: time.Hour},
	}

	for sname, s := range strategies {
		for name, tc := range tests {
			t.Run(sname+"/"+name, func(t *testing.T) {
				require.Equal(t, tc.fresh, s.IsFresh(ent, tc.ttl, t0.Add(tc.after)))
			})
		}
	}
}

func TestMaxAgeIgnoresReads(t *testing.T) {
	r := require.New(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &MaxAge{Retention: 30 * time.Minute}
	ent := types.NewCacheEntry("k", "v", t0, 1)

	s.OnAccess(ent, t0.Add(29*time.Minute))

	r.False(s.IsExpired(ent, t0.Add(30*time.Minute)))
	r.True(s.IsExpired(ent, t0.Add(31*time.Minute)))
}

func TestIdleRetentionExtendsOnRead(t *testing.T) {
	r := require.New(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &IdleRetention{Retention: 30 * time.Minute}
	ent := types.NewCacheEntry("k", "v", t0, 1)

	s.OnAccess(ent, t0.Add(20*time.Minute))

	r.False(s.IsExpired(ent, t0.Add(45*time.Minute)))
	r.True(s.IsExpired(ent, t0.Add(51*time.Minute)))
}

func TestZeroRetentionNeverExpires(t *testing.T) {
	t0 := time.Now()
	ent := types.NewCacheEntry("k", "v", t0, 1)

	require.False(t, (&MaxAge{}).IsExpired(ent, t0.Add(24*time.Hour)))
	require.False(t, (&IdleRetention{}).IsExpired(ent, t0.Add(24*time.Hour)))
}
