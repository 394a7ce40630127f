package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"wandergram/internal/dbcache"
)

// Evictor ages the cache out. Both mechanisms are idempotent and safe to
// interleave with concurrent reads; capacity trims run only after the
// writes of the batch that triggered them have committed.
type Evictor struct {
	db *gorm.DB
}

func NewEvictor(db *gorm.DB) *Evictor {
	return &Evictor{db: db}
}

// SweepExpired deletes rows of model older than maxAge. Invoked
// opportunistically after writes, not on a timer.
func (e *Evictor) SweepExpired(ctx context.Context, model interface{}, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	res := e.db.WithContext(ctx).Where("cache_timestamp < ?", cutoff).Delete(model)
	if res.Error != nil {
		return 0, fmt.Errorf("ttl sweep failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SweepAll runs the TTL sweep over every evictable table.
func (e *Evictor) SweepAll(ctx context.Context, maxAge time.Duration) (int64, error) {
	tables := []interface{}{
		&dbcache.Post{},
		&dbcache.User{},
		&dbcache.Comment{},
		&dbcache.Notification{},
		&dbcache.Follow{},
		&dbcache.Like{},
		&dbcache.TravelPermission{},
		&dbcache.CachedUserStats{},
	}
	var total int64
	for _, tbl := range tables {
		n, err := e.SweepExpired(ctx, tbl, maxAge)
		if err != nil {
			return total, err
		}
		total += n
	}
	if total > 0 {
		slog.Debug("ttl sweep removed rows", "count", total)
	}
	return total, nil
}

// TrimToCapacity bounds a table to the newest capacity rows by
// cache_timestamp. idColumn names the primary key used by the keep-set
// subquery.
func (e *Evictor) TrimToCapacity(ctx context.Context, model interface{}, idColumn string, capacity int) (int64, error) {
	if capacity <= 0 {
		return 0, nil
	}
	var count int64
	if err := e.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("capacity count failed: %w", err)
	}
	if count <= int64(capacity) {
		return 0, nil
	}

	keep := e.db.Model(model).
		Select(idColumn).
		Order("cache_timestamp DESC").
		Limit(capacity)
	res := e.db.WithContext(ctx).
		Where(idColumn+" NOT IN (?)", keep).
		Delete(model)
	if res.Error != nil {
		return 0, fmt.Errorf("capacity trim failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// TrimPosts and TrimUsers apply the configured capacity bounds for the two
// high-volume tables.
func (e *Evictor) TrimPosts(ctx context.Context, capacity int) (int64, error) {
	return e.TrimToCapacity(ctx, &dbcache.Post{}, "id", capacity)
}

func (e *Evictor) TrimUsers(ctx context.Context, capacity int) (int64, error) {
	return e.TrimToCapacity(ctx, &dbcache.User{}, "id", capacity)
}
