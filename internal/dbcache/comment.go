package dbcache

import (
	"time"
)

// Comment rows form a one-level reply arena: replies carry their parent's
// id and are queried through the parent_comment_id index, never held as an
// in-memory tree. RepliesCount is recomputed from children, not incremented.
type Comment struct {
	ID              int64     `gorm:"primaryKey;column:id"`
	PostID          int64     `gorm:"column:post_id;index"`
	ParentCommentID *int64    `gorm:"column:parent_comment_id;index"`
	AuthorID        int64     `gorm:"column:author_id;index"`
	Body            string    `gorm:"column:body;type:text"`
	RepliesCount    int64     `gorm:"column:replies_count"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	CacheTimestamp  time.Time `gorm:"column:cache_timestamp;index"`
}
