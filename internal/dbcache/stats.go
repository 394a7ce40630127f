package dbcache

import (
	"time"
)

// CachedUserStats is a single-row-per-user aggregate snapshot. It is fully
// replaced on refresh, never merged field by field.
type CachedUserStats struct {
	UserID           int64     `gorm:"primaryKey;column:user_id"`
	PostsCount       int64     `gorm:"column:posts_count"`
	FollowersCount   int64     `gorm:"column:followers_count"`
	FollowingCount   int64     `gorm:"column:following_count"`
	CountriesVisited int64     `gorm:"column:countries_visited"`
	CitiesVisited    int64     `gorm:"column:cities_visited"`
	LikesReceived    int64     `gorm:"column:likes_received"`
	CacheTimestamp   time.Time `gorm:"column:cache_timestamp;index"`
}
