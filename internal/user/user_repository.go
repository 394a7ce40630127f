package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
	"wandergram/internal/syncer"
)

// Repository serves user profiles cache-first. Profiles fetched from lists
// are partial rows; the merge in dbcache keeps a cached full profile from
// being blanked by them.
type Repository struct {
	db       *gorm.DB
	remote   common.RemoteAPI
	probe    common.ConnectivityProbe
	evictor  *syncer.Evictor
	capacity int
}

func NewRepository(db *gorm.DB, remote common.RemoteAPI, probe common.ConnectivityProbe, evictor *syncer.Evictor, userCapacity int) *Repository {
	return &Repository{
		db:       db,
		remote:   remote,
		probe:    probe,
		evictor:  evictor,
		capacity: userCapacity,
	}
}

// Profile emits the cached profile, then a refreshed one when the row is
// missing or stale and the device is online.
func (r *Repository) Profile(ctx context.Context, id int64) <-chan syncer.Emission[dbcache.User] {
	return syncer.SyncOne(ctx, r.probe, syncer.SingleSource[dbcache.User]{
		GetCached: func(ctx context.Context) (dbcache.User, syncer.CacheState, error) {
			var u dbcache.User
			err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dbcache.User{}, syncer.CacheMiss, nil
			}
			if err != nil {
				return dbcache.User{}, syncer.CacheMiss, err
			}
			// A reference row satisfies the read but never suppresses the
			// fetch for the full profile.
			if !u.IsFullProfile {
				return u, syncer.CacheStale, nil
			}
			return u, syncer.StateOf(true, u.CacheTimestamp, syncer.TTLUsers), nil
		},
		FetchRemote: func(ctx context.Context) (dbcache.User, error) {
			ru, err := r.remote.FetchUser(ctx, id)
			if err != nil {
				return dbcache.User{}, err
			}
			merged, err := dbcache.UpsertRemoteUser(ctx, r.db, *ru)
			if err != nil {
				return dbcache.User{}, err
			}
			r.trim(ctx)
			return merged, nil
		},
	})
}

// SearchUsers matches locally against username and display name, then
// refreshes from the search endpoint. Results cache as partial rows.
func (r *Repository) SearchUsers(ctx context.Context, query string, page, size int) <-chan syncer.Page[dbcache.User] {
	if err := common.ValidateSearchQuery(query); err != nil {
		out := make(chan syncer.Page[dbcache.User], 1)
		out <- syncer.Page[dbcache.User]{Items: []dbcache.User{}, Err: err}
		close(out)
		return out
	}
	pattern := "%" + strings.TrimSpace(query) + "%"
	return syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.User]{
		GetCached: func(ctx context.Context) ([]dbcache.User, bool, error) {
			var users []dbcache.User
			err := r.db.WithContext(ctx).
				Where("username LIKE ? OR display_name LIKE ?", pattern, pattern).
				Order("username ASC").
				Limit(size).
				Find(&users).Error
			// Search results are refreshed whenever online.
			return users, false, err
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.User, error) {
			remote, err := r.remote.SearchUsers(ctx, query, page, size)
			if err != nil {
				return nil, err
			}
			rows, err := dbcache.UpsertRemoteUsers(ctx, r.db, remote)
			if err != nil {
				return nil, err
			}
			r.trim(ctx)
			return rows, nil
		},
	})
}

// DeleteAccount deletes the user remotely, then cascades through the local
// ownership graph. The remote delete is a foreground operation; its
// failure is surfaced, not swallowed.
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: user id must be positive", common.ErrValidation)
	}
	if err := r.remote.DeleteUser(ctx, id); err != nil {
		return err
	}
	if err := dbcache.DeleteUserGraph(ctx, r.db, id); err != nil {
		return fmt.Errorf("failed to cascade user delete: %w", err)
	}
	return nil
}

func (r *Repository) trim(ctx context.Context) {
	if _, err := r.evictor.TrimUsers(ctx, r.capacity); err != nil {
		slog.Warn("user capacity trim failed", "error", err)
	}
}
