package feed

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

// LikeRepository applies like toggles optimistically: the overlay state
// changes before the remote call resolves and rolls back if it fails. The
// (user, post) relation row stays unique through replace-on-conflict.
type LikeRepository struct {
	db      *gorm.DB
	remote  common.RemoteAPI
	probe   common.ConnectivityProbe
	users   common.CurrentUserProvider
	overlay *optimistic.Overlay
}

func NewLikeRepository(db *gorm.DB, remote common.RemoteAPI, probe common.ConnectivityProbe, users common.CurrentUserProvider, overlay *optimistic.Overlay) *LikeRepository {
	return &LikeRepository{db: db, remote: remote, probe: probe, users: users, overlay: overlay}
}

// LikeState returns the state currently visible for a post: the overlay
// when a toggle is pending or confirmed there, the cache row otherwise.
func (r *LikeRepository) LikeState(ctx context.Context, postID int64) (optimistic.ToggleState, error) {
	userID, ok := r.users.CurrentUserID()
	if !ok {
		return optimistic.ToggleState{}, common.ErrNoCurrentUser
	}
	if s, ok := r.overlay.State(optimistic.Key("like", userID, postID)); ok {
		return s, nil
	}
	return r.cachedState(ctx, userID, postID)
}

// ToggleLike flips the like synchronously in the overlay and issues the
// remote mutation in the background. The returned state is what every
// concurrent reader sees immediately; done resolves with the remote
// outcome after commit or rollback.
func (r *LikeRepository) ToggleLike(ctx context.Context, postID int64) (optimistic.ToggleState, <-chan error, error) {
	userID, ok := r.users.CurrentUserID()
	if !ok {
		return optimistic.ToggleState{}, nil, common.ErrNoCurrentUser
	}
	seed, err := r.cachedState(ctx, userID, postID)
	if err != nil {
		return optimistic.ToggleState{}, nil, err
	}

	key := optimistic.Key("like", userID, postID)
	ticket, next := r.overlay.Begin(key, seed)

	done := make(chan error, 1)
	go func() {
		defer close(done)
		// The toggle outlives the caller's context once issued.
		bg := context.WithoutCancel(ctx)
		if err := r.remote.ToggleLike(bg, userID, postID, next.Active); err != nil {
			r.overlay.Rollback(ticket)
			slog.Warn("like toggle failed, rolled back", "post", postID, "error", err)
			done <- err
			return
		}
		confirmed := r.overlay.Commit(ticket)
		if err := r.persist(bg, userID, postID, confirmed); err != nil {
			slog.Warn("like persistence failed", "post", postID, "error", err)
			done <- err
			return
		}
		done <- nil
	}()
	return next, done, nil
}

// Likers serves the users who liked a post.
func (r *LikeRepository) Likers(ctx context.Context, postID int64, page, size int) <-chan syncer.Page[dbcache.User] {
	if size <= 0 {
		size = defaultPageSize
	}
	return syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.User]{
		GetCached: func(ctx context.Context) ([]dbcache.User, bool, error) {
			var ids []int64
			err := r.db.WithContext(ctx).
				Model(&dbcache.Like{}).
				Where("post_id = ?", postID).
				Order("cache_timestamp DESC").
				Offset(page * size).
				Limit(size).
				Pluck("user_id", &ids).Error
			if err != nil || len(ids) == 0 {
				return nil, false, err
			}
			var users []dbcache.User
			err = r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
			return users, false, err
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.User, error) {
			remote, err := r.remote.FetchLikers(ctx, postID, page, size)
			if err != nil {
				return nil, err
			}
			rows, err := dbcache.UpsertRemoteUsers(ctx, r.db, remote)
			if err != nil {
				return nil, err
			}
			for _, u := range rows {
				if err := dbcache.UpsertLike(ctx, r.db, u.ID, postID); err != nil {
					return nil, err
				}
			}
			return rows, nil
		},
	})
}

func (r *LikeRepository) cachedState(ctx context.Context, userID, postID int64) (optimistic.ToggleState, error) {
	var post dbcache.Post
	err := r.db.WithContext(ctx).First(&post, "id = ?", postID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return optimistic.ToggleState{}, fmt.Errorf("failed to read post: %w", err)
	}
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&dbcache.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&n).Error; err != nil {
		return optimistic.ToggleState{}, fmt.Errorf("failed to read like: %w", err)
	}
	return optimistic.ToggleState{Active: n > 0, Count: post.LikesCount}, nil
}

// persist writes the confirmed overlay state onto the cache rows.
func (r *LikeRepository) persist(ctx context.Context, userID, postID int64, s optimistic.ToggleState) error {
	if s.Active {
		if err := dbcache.UpsertLike(ctx, r.db, userID, postID); err != nil {
			return err
		}
	} else {
		if err := r.db.WithContext(ctx).
			Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(&dbcache.Like{}).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).
		Model(&dbcache.Post{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{
			"likes_count":     s.Count,
			"cache_timestamp": time.Now(),
		}).Error
}
