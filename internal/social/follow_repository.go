package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
	"wandergram/internal/optimistic"
	"wandergram/internal/syncer"
)

const defaultPageSize = 20

// FollowRepository manages the follow graph with optimistic toggles. The
// overlay count tracks the target's follower count; the (follower,
// following) pair stays unique through replace-on-conflict.
type FollowRepository struct {
	db      *gorm.DB
	remote  common.RemoteAPI
	probe   common.ConnectivityProbe
	users   common.CurrentUserProvider
	overlay *optimistic.Overlay
}

func NewFollowRepository(db *gorm.DB, remote common.RemoteAPI, probe common.ConnectivityProbe, users common.CurrentUserProvider, overlay *optimistic.Overlay) *FollowRepository {
	return &FollowRepository{db: db, remote: remote, probe: probe, users: users, overlay: overlay}
}

// FollowState returns whether the current user follows target, plus the
// target's follower count, overlay first.
func (r *FollowRepository) FollowState(ctx context.Context, targetID int64) (optimistic.ToggleState, error) {
	userID, ok := r.users.CurrentUserID()
	if !ok {
		return optimistic.ToggleState{}, common.ErrNoCurrentUser
	}
	if s, ok := r.overlay.State(optimistic.Key("follow", userID, targetID)); ok {
		return s, nil
	}
	return r.cachedState(ctx, userID, targetID)
}

// ToggleFollow flips the relation in the overlay immediately and confirms
// it remotely in the background, rolling back on failure.
func (r *FollowRepository) ToggleFollow(ctx context.Context, targetID int64) (optimistic.ToggleState, <-chan error, error) {
	userID, ok := r.users.CurrentUserID()
	if !ok {
		return optimistic.ToggleState{}, nil, common.ErrNoCurrentUser
	}
	if userID == targetID {
		return optimistic.ToggleState{}, nil, fmt.Errorf("%w: cannot follow yourself", common.ErrValidation)
	}
	seed, err := r.cachedState(ctx, userID, targetID)
	if err != nil {
		return optimistic.ToggleState{}, nil, err
	}

	key := optimistic.Key("follow", userID, targetID)
	ticket, next := r.overlay.Begin(key, seed)

	done := make(chan error, 1)
	go func() {
		defer close(done)
		bg := context.WithoutCancel(ctx)
		if err := r.remote.ToggleFollow(bg, userID, targetID, next.Active); err != nil {
			r.overlay.Rollback(ticket)
			slog.Warn("follow toggle failed, rolled back", "target", targetID, "error", err)
			done <- err
			return
		}
		confirmed := r.overlay.Commit(ticket)
		if err := r.persist(bg, userID, targetID, confirmed); err != nil {
			slog.Warn("follow persistence failed", "target", targetID, "error", err)
			done <- err
			return
		}
		done <- nil
	}()
	return next, done, nil
}

// Followers serves the users following userID.
func (r *FollowRepository) Followers(ctx context.Context, userID int64, page, size int) <-chan syncer.Page[dbcache.User] {
	return r.relationPage(ctx, userID, page, size, "following_id = ?", "follower_id", r.remote.FetchFollowers)
}

// Following serves the users userID follows.
func (r *FollowRepository) Following(ctx context.Context, userID int64, page, size int) <-chan syncer.Page[dbcache.User] {
	return r.relationPage(ctx, userID, page, size, "follower_id = ?", "following_id", r.remote.FetchFollowing)
}

func (r *FollowRepository) relationPage(
	ctx context.Context,
	userID int64,
	page, size int,
	where, pluck string,
	fetch func(context.Context, int64, int, int) ([]common.RemoteUser, error),
) <-chan syncer.Page[dbcache.User] {
	if size <= 0 {
		size = defaultPageSize
	}
	return syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.User]{
		GetCached: func(ctx context.Context) ([]dbcache.User, bool, error) {
			var rel []dbcache.Follow
			err := r.db.WithContext(ctx).
				Where(where, userID).
				Order("cache_timestamp DESC").
				Offset(page * size).
				Limit(size).
				Find(&rel).Error
			if err != nil || len(rel) == 0 {
				return nil, false, err
			}
			ids := make([]int64, 0, len(rel))
			for _, f := range rel {
				if pluck == "follower_id" {
					ids = append(ids, f.FollowerID)
				} else {
					ids = append(ids, f.FollowingID)
				}
			}
			var users []dbcache.User
			err = r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
			if err != nil {
				return nil, false, err
			}
			fresh := syncer.PageFresh(rel, func(f dbcache.Follow) time.Time { return f.CacheTimestamp }, syncer.TTLFollowGraph)
			return users, fresh, nil
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.User, error) {
			remote, err := fetch(ctx, userID, page, size)
			if err != nil {
				return nil, err
			}
			rows, err := dbcache.UpsertRemoteUsers(ctx, r.db, remote)
			if err != nil {
				return nil, err
			}
			for _, u := range rows {
				var ferr error
				if pluck == "follower_id" {
					ferr = dbcache.UpsertFollow(ctx, r.db, u.ID, userID)
				} else {
					ferr = dbcache.UpsertFollow(ctx, r.db, userID, u.ID)
				}
				if ferr != nil {
					return nil, ferr
				}
			}
			return rows, nil
		},
	})
}

func (r *FollowRepository) cachedState(ctx context.Context, userID, targetID int64) (optimistic.ToggleState, error) {
	var target dbcache.User
	err := r.db.WithContext(ctx).First(&target, "id = ?", targetID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return optimistic.ToggleState{}, fmt.Errorf("failed to read user: %w", err)
	}
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&dbcache.Follow{}).
		Where("follower_id = ? AND following_id = ?", userID, targetID).
		Count(&n).Error; err != nil {
		return optimistic.ToggleState{}, fmt.Errorf("failed to read follow: %w", err)
	}
	return optimistic.ToggleState{Active: n > 0, Count: target.FollowersCount}, nil
}

func (r *FollowRepository) persist(ctx context.Context, userID, targetID int64, s optimistic.ToggleState) error {
	if s.Active {
		if err := dbcache.UpsertFollow(ctx, r.db, userID, targetID); err != nil {
			return err
		}
	} else {
		if err := r.db.WithContext(ctx).
			Where("follower_id = ? AND following_id = ?", userID, targetID).
			Delete(&dbcache.Follow{}).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).
		Model(&dbcache.User{}).
		Where("id = ?", targetID).
		Updates(map[string]interface{}{
			"followers_count": s.Count,
			"cache_timestamp": time.Now(),
		}).Error
}
