package eviction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvictionOrder(t *testing.T) {
	tests := map[string]struct {
		policy PolicyType
		ops    func(p Policy)
		want   []string
	}{
		"lru evicts least recently read": {
			policy: LRU,
			ops: func(p Policy) {
				p.OnPut("a")
				p.OnPut("b")
				p.OnPut("c")
				p.OnGet("a")
			},
			want: []string{"b", "c", "a"},
		},
		"lru refresh counts as use": {
			policy: LRU,
			ops: func(p Policy) {
				p.OnPut("a")
				p.OnPut("b")
				p.OnPut("a")
			},
			want: []string{"b", "a"},
		},
		"fifo ignores reads and refreshes": {
			policy: FIFO,
			ops: func(p Policy) {
				p.OnPut("a")
				p.OnPut("b")
				p.OnGet("a")
				p.OnPut("a")
			},
			want: []string{"a", "b"},
		},
		"lfu evicts least read, oldest first on ties": {
			policy: LFU,
			ops: func(p Policy) {
				p.OnPut("a")
				p.OnPut("b")
				p.OnPut("c")
				p.OnGet("a")
				p.OnGet("a")
				p.OnGet("c")
			},
			want: []string{"b", "c", "a"},
		},
		"lfu recovers min frequency after remove": {
			policy: LFU,
			ops: func(p Policy) {
				p.OnPut("a")
				p.OnGet("a")
				p.OnPut("b")
				p.Remove("b")
				p.OnPut("c")
				p.OnGet("c")
				p.OnGet("c")
			},
			want: []string{"a", "c"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := NewEvictionPolicy(tc.policy)
			tc.ops(p)

			got := make([]string, 0, len(tc.want))
			for p.Len() > 0 {
				got = append(got, p.Evict())
			}
			require.Equal(t, tc.want, got)
			require.Equal(t, "", p.Evict())
		})
	}
}

func TestRemoveAndReset(t *testing.T) {
	for _, pt := range []PolicyType{LRU, LFU, FIFO} {
		t.Run(string(pt), func(t *testing.T) {
			r := require.New(t)
			p := NewEvictionPolicy(pt)

			p.OnPut("a")
			p.OnPut("b")
			p.Remove("a")
			p.Remove("missing")
			r.Equal(1, p.Len())
			r.Equal("b", p.Evict())

			p.OnPut("x")
			p.OnPut("y")
			p.Reset()
			r.Equal(0, p.Len())
			r.Equal("", p.Evict())
		})
	}
}

func TestPolicyTypeValid(t *testing.T) {
	require.True(t, LRU.Valid())
	require.True(t, FIFO.Valid())
	require.True(t, LFU.Valid())
	require.False(t, PolicyType("ARC").Valid())
	require.Panics(t, func() { NewEvictionPolicy("ARC") })
}
