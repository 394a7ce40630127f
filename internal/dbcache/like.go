package dbcache

import (
	"time"
)

type Like struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id"`
	UserID         int64     `gorm:"column:user_id;not null;index:idx_like_pair,unique"`
	PostID         int64     `gorm:"column:post_id;not null;index:idx_like_pair,unique"`
	CacheTimestamp time.Time `gorm:"column:cache_timestamp;index"`
}
