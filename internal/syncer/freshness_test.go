package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFreshAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ts   time.Time
		ttl  time.Duration
		want bool
	}{
		{"inside ttl", now.Add(-time.Hour), 6 * time.Hour, true},
		{"just written", now, 6 * time.Hour, true},
		{"exactly at ttl", now.Add(-6 * time.Hour), 6 * time.Hour, false},
		{"past ttl", now.Add(-7 * time.Hour), 6 * time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FreshAt(now, tt.ts, tt.ttl))
		})
	}
}

func TestStateOf(t *testing.T) {
	require.Equal(t, CacheMiss, StateOf(false, time.Now(), time.Hour))
	require.Equal(t, CacheFresh, StateOf(true, time.Now(), time.Hour))
	require.Equal(t, CacheStale, StateOf(true, time.Now().Add(-2*time.Hour), time.Hour))
}

func TestPageFresh(t *testing.T) {
	stamp := func(ts time.Time) time.Time { return ts }

	t.Run("empty page is never fresh", func(t *testing.T) {
		require.False(t, PageFresh(nil, stamp, time.Hour))
	})

	t.Run("one aged row spoils the page", func(t *testing.T) {
		page := []time.Time{
			time.Now(),
			time.Now().Add(-2 * time.Hour),
		}
		require.False(t, PageFresh(page, stamp, time.Hour))
	})

	t.Run("all recent rows", func(t *testing.T) {
		page := []time.Time{
			time.Now(),
			time.Now().Add(-time.Minute),
		}
		require.True(t, PageFresh(page, stamp, time.Hour))
	})
}
