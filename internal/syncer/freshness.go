package syncer

import "time"

// Per-entity TTLs. Fixed constants, not tunable at call time. A stale row
// is still served to the caller; staleness only decides whether the
// orchestrator also hits the network. Absence is the only hard fetch
// trigger.
const (
	TTLPosts         = 6 * time.Hour
	TTLComments      = 30 * time.Minute
	TTLUsers         = 6 * time.Hour
	TTLRefData       = 12 * time.Hour
	TTLUserStats     = 12 * time.Hour
	TTLPermissions   = 12 * time.Hour
	TTLFollowGraph   = 12 * time.Hour
	TTLNotifications = 15 * time.Minute
)

// Fresh reports whether a row written at ts is still within ttl.
func Fresh(ts time.Time, ttl time.Duration) bool {
	return FreshAt(time.Now(), ts, ttl)
}

// FreshAt is Fresh against an explicit clock.
func FreshAt(now, ts time.Time, ttl time.Duration) bool {
	return now.Sub(ts) < ttl
}

// CacheState classifies a single-row cache lookup.
type CacheState int

const (
	CacheMiss CacheState = iota
	CacheStale
	CacheFresh
)

// StateOf classifies a row written at ts under ttl. found=false is a miss
// regardless of ts.
func StateOf(found bool, ts time.Time, ttl time.Duration) CacheState {
	if !found {
		return CacheMiss
	}
	if Fresh(ts, ttl) {
		return CacheFresh
	}
	return CacheStale
}

// PageFresh reports whether every row of a cached page is inside ttl, per
// the stamp accessor. The oldest row decides, so one aged row refreshes
// the whole page. An empty page is never fresh.
func PageFresh[T any](items []T, stamp func(T) time.Time, ttl time.Duration) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if !Fresh(stamp(it), ttl) {
			return false
		}
	}
	return true
}
