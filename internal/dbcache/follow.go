package dbcache

import (
	"time"
)

type Follow struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id"`
	FollowerID     int64     `gorm:"column:follower_id;not null;index:idx_follow_pair,unique"`
	FollowingID    int64     `gorm:"column:following_id;not null;index:idx_follow_pair,unique"`
	CacheTimestamp time.Time `gorm:"column:cache_timestamp;index"`
}
