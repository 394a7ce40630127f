package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
	"wandergram/internal/syncer"
)

// StatsRepository serves the per-user aggregate snapshot. The snapshot is
// replaced whole on refresh, never merged field by field.
type StatsRepository struct {
	db     *gorm.DB
	remote common.RemoteAPI
	probe  common.ConnectivityProbe
}

func NewStatsRepository(db *gorm.DB, remote common.RemoteAPI, probe common.ConnectivityProbe) *StatsRepository {
	return &StatsRepository{db: db, remote: remote, probe: probe}
}

func (r *StatsRepository) Stats(ctx context.Context, userID int64) <-chan syncer.Emission[dbcache.CachedUserStats] {
	return syncer.SyncOne(ctx, r.probe, syncer.SingleSource[dbcache.CachedUserStats]{
		GetCached: func(ctx context.Context) (dbcache.CachedUserStats, syncer.CacheState, error) {
			var s dbcache.CachedUserStats
			err := r.db.WithContext(ctx).First(&s, "user_id = ?", userID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dbcache.CachedUserStats{}, syncer.CacheMiss, nil
			}
			if err != nil {
				return dbcache.CachedUserStats{}, syncer.CacheMiss, err
			}
			return s, syncer.StateOf(true, s.CacheTimestamp, syncer.TTLUserStats), nil
		},
		FetchRemote: func(ctx context.Context) (dbcache.CachedUserStats, error) {
			rs, err := r.remote.FetchUserStats(ctx, userID)
			if err != nil {
				return dbcache.CachedUserStats{}, err
			}
			return dbcache.ReplaceStats(ctx, r.db, *rs)
		},
	})
}
