package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
)

// Queue holds locally authored posts until they upload. Each draft walks
// PENDING -> UPLOADING -> SYNCED or FAILED; FAILED -> PENDING is the only
// re-entry. A per-draft lock serializes transitions so a retry and an
// upload never race on the same row.
type Queue struct {
	db    *gorm.DB
	users common.CurrentUserProvider

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewQueue(db *gorm.DB, users common.CurrentUserProvider) *Queue {
	return &Queue{db: db, users: users, locks: make(map[string]*sync.Mutex)}
}

// NewDraft validates and enqueues a draft in PENDING.
type NewDraft struct {
	Caption         string
	CountryCode     string
	CityID          *int64
	Visibility      common.VisibilityType
	LocalMediaPaths []string
}

func (q *Queue) Create(ctx context.Context, d NewDraft) (*dbcache.DraftPost, error) {
	ownerID, ok := q.users.CurrentUserID()
	if !ok {
		return nil, common.ErrNoCurrentUser
	}
	if err := common.ValidateCaption(d.Caption); err != nil {
		return nil, err
	}
	if err := common.ValidateCountryCode(d.CountryCode); err != nil {
		return nil, err
	}
	if err := common.ValidateMediaPaths(d.LocalMediaPaths); err != nil {
		return nil, err
	}
	if !d.Visibility.IsValid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", common.ErrValidation, d.Visibility)
	}

	row := dbcache.DraftPost{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Caption:         d.Caption,
		CountryCode:     d.CountryCode,
		CityID:          d.CityID,
		Visibility:      d.Visibility,
		LocalMediaPaths: d.LocalMediaPaths,
		SyncStatus:      common.SyncPending,
	}
	if err := q.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to enqueue draft: %w", err)
	}
	return &row, nil
}

// List returns the current user's drafts, newest first, optionally
// filtered by status.
func (q *Queue) List(ctx context.Context, statuses ...common.SyncStatus) ([]dbcache.DraftPost, error) {
	ownerID, ok := q.users.CurrentUserID()
	if !ok {
		return nil, common.ErrNoCurrentUser
	}
	tx := q.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if len(statuses) > 0 {
		tx = tx.Where("sync_status IN ?", statuses)
	}
	var rows []dbcache.DraftPost
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return rows, nil
}

// Retry moves a FAILED draft back to PENDING.
func (q *Queue) Retry(ctx context.Context, id string) error {
	return q.transition(ctx, id, common.SyncFailed, common.SyncPending, nil)
}

// Cancel removes a draft that has not uploaded. An UPLOADING or SYNCED
// draft cannot be cancelled.
func (q *Queue) Cancel(ctx context.Context, id string) error {
	unlock := q.lock(id)
	defer unlock()

	row, err := q.get(ctx, id)
	if err != nil {
		return err
	}
	if row.SyncStatus != common.SyncPending && row.SyncStatus != common.SyncFailed {
		return fmt.Errorf("%w: cannot cancel a draft in %s", common.ErrIllegalTransition, row.SyncStatus)
	}
	return q.db.WithContext(ctx).Delete(&dbcache.DraftPost{}, "id = ?", id).Error
}

// CleanupSynced deletes drafts already confirmed by the server.
func (q *Queue) CleanupSynced(ctx context.Context) (int64, error) {
	res := q.db.WithContext(ctx).
		Where("sync_status = ?", common.SyncSynced).
		Delete(&dbcache.DraftPost{})
	return res.RowsAffected, res.Error
}

// PurgeFailed deletes FAILED drafts older than retention.
func (q *Queue) PurgeFailed(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := q.db.WithContext(ctx).
		Where("sync_status = ? AND updated_at < ?", common.SyncFailed, cutoff).
		Delete(&dbcache.DraftPost{})
	return res.RowsAffected, res.Error
}

// claim atomically moves a PENDING draft to UPLOADING and returns it.
func (q *Queue) claim(ctx context.Context, id string) (*dbcache.DraftPost, error) {
	var row *dbcache.DraftPost
	err := q.transition(ctx, id, common.SyncPending, common.SyncUploading, func(r *dbcache.DraftPost) {
		row = r
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// markSynced finishes a claimed upload.
func (q *Queue) markSynced(ctx context.Context, id string) error {
	return q.transition(ctx, id, common.SyncUploading, common.SyncSynced, nil)
}

// markFailed records the upload error and releases the claim.
func (q *Queue) markFailed(ctx context.Context, id string, cause error) error {
	unlock := q.lock(id)
	defer unlock()

	row, err := q.get(ctx, id)
	if err != nil {
		return err
	}
	if row.SyncStatus != common.SyncUploading {
		return fmt.Errorf("%w: %s to %s", common.ErrIllegalTransition, row.SyncStatus, common.SyncFailed)
	}
	return q.db.WithContext(ctx).
		Model(&dbcache.DraftPost{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sync_status":   common.SyncFailed,
			"attempt_count": row.AttemptCount + 1,
			"last_error":    cause.Error(),
		}).Error
}

func (q *Queue) transition(ctx context.Context, id string, from, to common.SyncStatus, observe func(*dbcache.DraftPost)) error {
	unlock := q.lock(id)
	defer unlock()

	row, err := q.get(ctx, id)
	if err != nil {
		return err
	}
	if row.SyncStatus != from {
		return fmt.Errorf("%w: %s to %s", common.ErrIllegalTransition, row.SyncStatus, to)
	}
	err = q.db.WithContext(ctx).
		Model(&dbcache.DraftPost{}).
		Where("id = ?", id).
		Update("sync_status", to).Error
	if err != nil {
		return fmt.Errorf("failed to move draft to %s: %w", to, err)
	}
	if observe != nil {
		row.SyncStatus = to
		observe(row)
	}
	return nil
}

func (q *Queue) get(ctx context.Context, id string) (*dbcache.DraftPost, error) {
	var row dbcache.DraftPost
	err := q.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (q *Queue) lock(id string) func() {
	q.mu.Lock()
	l, ok := q.locks[id]
	if !ok {
		l = &sync.Mutex{}
		q.locks[id] = l
	}
	q.mu.Unlock()
	l.Lock()
	return l.Unlock
}
