package notif

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
	"wandergram/internal/syncer"
)

const defaultPageSize = 20

// Repository serves the current user's notifications. Every read is scoped
// to the signed-in recipient; with nobody signed in the calls fail with
// ErrNoCurrentUser rather than guessing an identity.
type Repository struct {
	db     *gorm.DB
	remote common.RemoteAPI
	probe  common.ConnectivityProbe
	users  common.CurrentUserProvider
}

func NewRepository(db *gorm.DB, remote common.RemoteAPI, probe common.ConnectivityProbe, users common.CurrentUserProvider) *Repository {
	return &Repository{db: db, remote: remote, probe: probe, users: users}
}

// Notifications serves one page for the current user, newest first.
func (r *Repository) Notifications(ctx context.Context, page, size int) (<-chan syncer.Page[dbcache.Notification], error) {
	recipientID, ok := r.users.CurrentUserID()
	if !ok {
		return nil, common.ErrNoCurrentUser
	}
	if size <= 0 {
		size = defaultPageSize
	}
	ch := syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.Notification]{
		GetCached: func(ctx context.Context) ([]dbcache.Notification, bool, error) {
			var rows []dbcache.Notification
			err := r.db.WithContext(ctx).
				Where("recipient_id = ?", recipientID).
				Order("created_at DESC").
				Offset(page * size).
				Limit(size).
				Find(&rows).Error
			if err != nil {
				return nil, false, err
			}
			fresh := syncer.PageFresh(rows, func(n dbcache.Notification) time.Time { return n.CacheTimestamp }, syncer.TTLNotifications)
			return rows, fresh, nil
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.Notification, error) {
			remote, err := r.remote.FetchNotifications(ctx, recipientID, page, size)
			if err != nil {
				return nil, err
			}
			return dbcache.UpsertRemoteNotifications(ctx, r.db, remote)
		},
	})
	return ch, nil
}

// UnreadCount counts the current user's unread notifications in the cache.
func (r *Repository) UnreadCount(ctx context.Context) (int64, error) {
	recipientID, ok := r.users.CurrentUserID()
	if !ok {
		return 0, common.ErrNoCurrentUser
	}
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbcache.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}

// MarkRead flags one notification as read, remotely then locally.
func (r *Repository) MarkRead(ctx context.Context, id int64) error {
	recipientID, ok := r.users.CurrentUserID()
	if !ok {
		return common.ErrNoCurrentUser
	}
	var row dbcache.Notification
	err := r.db.WithContext(ctx).
		First(&row, "id = ? AND recipient_id = ?", id, recipientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrNotFound
	}
	if err != nil {
		return err
	}
	if row.IsRead {
		return nil
	}
	if err := r.remote.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&dbcache.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_read":         true,
			"cache_timestamp": time.Now(),
		}).Error
}

// MarkAllRead flags every unread notification of the current user.
func (r *Repository) MarkAllRead(ctx context.Context) error {
	recipientID, ok := r.users.CurrentUserID()
	if !ok {
		return common.ErrNoCurrentUser
	}
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&dbcache.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.remote.MarkNotificationRead(ctx, id); err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).
		Model(&dbcache.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{
			"is_read":         true,
			"cache_timestamp": time.Now(),
		}).Error
}
