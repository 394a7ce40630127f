package dbcache

import (
	"time"
)

// User is a cached profile. Rows can hold either a full profile or a
// lightweight reference from a list response; IsFullProfile tells them
// apart so a partial row never overwrites a full one wholesale.
type User struct {
	ID                    int64     `gorm:"primaryKey;column:id"`
	Username              string    `gorm:"column:username;uniqueIndex;size:50"`
	DisplayName           string    `gorm:"column:display_name;size:100"`
	Bio                   *string   `gorm:"column:bio;type:text"`
	ProfilePicture        *string   `gorm:"column:profile_picture;size:512"`
	FollowersCount        int64     `gorm:"column:followers_count"`
	FollowingCount        int64     `gorm:"column:following_count"`
	CountriesVisitedCount int64     `gorm:"column:countries_visited_count"`
	IsFullProfile         bool      `gorm:"column:is_full_profile"`
	CacheTimestamp        time.Time `gorm:"column:cache_timestamp;index"`
}
