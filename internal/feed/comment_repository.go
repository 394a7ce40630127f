package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
	"wandergram/internal/syncer"
)

// CommentRepository serves post comments and their one level of replies.
// Replies live in the same flat table and are reached through the
// parent_comment_id index; RepliesCount on a parent is always recomputed
// from its children so duplicate delivery cannot skew it.
type CommentRepository struct {
	db     *gorm.DB
	remote common.RemoteAPI
	probe  common.ConnectivityProbe
}

func NewCommentRepository(db *gorm.DB, remote common.RemoteAPI, probe common.ConnectivityProbe) *CommentRepository {
	return &CommentRepository{db: db, remote: remote, probe: probe}
}

// Comments serves the top-level comments of a post, oldest first.
func (r *CommentRepository) Comments(ctx context.Context, postID int64, page, size int) <-chan syncer.Page[dbcache.Comment] {
	if size <= 0 {
		size = defaultPageSize
	}
	return syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.Comment]{
		GetCached: func(ctx context.Context) ([]dbcache.Comment, bool, error) {
			var comments []dbcache.Comment
			err := r.db.WithContext(ctx).
				Where("post_id = ? AND parent_comment_id IS NULL", postID).
				Order("created_at ASC").
				Offset(page * size).
				Limit(size).
				Find(&comments).Error
			if err != nil {
				return nil, false, err
			}
			return comments, commentsFresh(comments), nil
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.Comment, error) {
			remote, err := r.remote.FetchComments(ctx, postID, page, size)
			if err != nil {
				return nil, err
			}
			rows, err := dbcache.UpsertRemoteComments(ctx, r.db, remote)
			if err != nil {
				return nil, err
			}
			return rows, nil
		},
	})
}

// Replies serves the children of one comment, paginated independently of
// the parent.
func (r *CommentRepository) Replies(ctx context.Context, parentID int64, page, size int) <-chan syncer.Page[dbcache.Comment] {
	if size <= 0 {
		size = defaultPageSize
	}
	return syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.Comment]{
		GetCached: func(ctx context.Context) ([]dbcache.Comment, bool, error) {
			var replies []dbcache.Comment
			err := r.db.WithContext(ctx).
				Where("parent_comment_id = ?", parentID).
				Order("created_at ASC").
				Offset(page * size).
				Limit(size).
				Find(&replies).Error
			if err != nil {
				return nil, false, err
			}
			return replies, commentsFresh(replies), nil
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.Comment, error) {
			remote, err := r.remote.FetchReplies(ctx, parentID, page, size)
			if err != nil {
				return nil, err
			}
			rows, err := dbcache.UpsertRemoteComments(ctx, r.db, remote)
			if err != nil {
				return nil, err
			}
			if err := r.recomputeReplies(ctx, parentID); err != nil {
				return nil, err
			}
			return rows, nil
		},
	})
}

// AddComment creates a top-level comment (foreground write).
func (r *CommentRepository) AddComment(ctx context.Context, postID, authorID int64, body string) (*dbcache.Comment, error) {
	return r.create(ctx, common.RemoteNewComment{PostID: postID, AuthorID: authorID, Body: body})
}

// AddReply creates a reply under parentID and recomputes the parent's
// replies count from its children.
func (r *CommentRepository) AddReply(ctx context.Context, postID, parentID, authorID int64, body string) (*dbcache.Comment, error) {
	return r.create(ctx, common.RemoteNewComment{PostID: postID, ParentCommentID: &parentID, AuthorID: authorID, Body: body})
}

func (r *CommentRepository) create(ctx context.Context, nc common.RemoteNewComment) (*dbcache.Comment, error) {
	if strings.TrimSpace(nc.Body) == "" {
		return nil, fmt.Errorf("%w: empty comment body", common.ErrValidation)
	}
	created, err := r.remote.CreateComment(ctx, nc)
	if err != nil {
		return nil, err
	}
	rows, err := dbcache.UpsertRemoteComments(ctx, r.db, []common.RemoteComment{*created})
	if err != nil {
		return nil, err
	}
	if nc.ParentCommentID != nil {
		if err := r.recomputeReplies(ctx, *nc.ParentCommentID); err != nil {
			return nil, err
		}
	}
	if err := r.recomputePostCount(ctx, nc.PostID); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// DeleteComment removes a comment remotely, then locally together with its
// replies, and refreshes the derived counters.
func (r *CommentRepository) DeleteComment(ctx context.Context, id int64) error {
	var c dbcache.Comment
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return common.ErrNotFound
		}
		return err
	}
	if err := r.remote.DeleteComment(ctx, id); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_comment_id = ?", id).Delete(&dbcache.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&dbcache.Comment{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete comment locally: %w", err)
	}
	if c.ParentCommentID != nil {
		if err := r.recomputeReplies(ctx, *c.ParentCommentID); err != nil {
			return err
		}
	}
	return r.recomputePostCount(ctx, c.PostID)
}

// recomputeReplies derives replies_count from the child rows rather than
// incrementing, keeping it correct under concurrent or duplicate delivery.
func (r *CommentRepository) recomputeReplies(ctx context.Context, parentID int64) error {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&dbcache.Comment{}).
		Where("parent_comment_id = ?", parentID).
		Count(&n).Error; err != nil {
		return fmt.Errorf("failed to count replies: %w", err)
	}
	return r.db.WithContext(ctx).
		Model(&dbcache.Comment{}).
		Where("id = ?", parentID).
		Updates(map[string]interface{}{
			"replies_count":   n,
			"cache_timestamp": time.Now(),
		}).Error
}

func (r *CommentRepository) recomputePostCount(ctx context.Context, postID int64) error {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&dbcache.Comment{}).
		Where("post_id = ?", postID).
		Count(&n).Error; err != nil {
		return fmt.Errorf("failed to count comments: %w", err)
	}
	return r.db.WithContext(ctx).
		Model(&dbcache.Post{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{
			"comments_count":  n,
			"cache_timestamp": time.Now(),
		}).Error
}

func commentsFresh(comments []dbcache.Comment) bool {
	return syncer.PageFresh(comments, func(c dbcache.Comment) time.Time { return c.CacheTimestamp }, syncer.TTLComments)
}
