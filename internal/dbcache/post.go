package dbcache

import (
	"time"

	"wandergram/internal/common"
)

type Post struct {
	ID                int64                 `gorm:"primaryKey;column:id"`
	AuthorID          int64                 `gorm:"column:author_id;index"`
	ProfileOwnerID    int64                 `gorm:"column:profile_owner_id;index"`
	CountryCode       string                `gorm:"column:country_code;size:2;index"`
	CollectionID      *int64                `gorm:"column:collection_id"`
	CityID            *int64                `gorm:"column:city_id"`
	Caption           string                `gorm:"column:caption;type:text"`
	MediaURLs         []string              `gorm:"column:media_urls;serializer:json"`
	LikesCount        int64                 `gorm:"column:likes_count"`
	CommentsCount     int64                 `gorm:"column:comments_count"`
	VisibilityType    common.VisibilityType `gorm:"column:visibility_type;size:20"`
	SharedPostGroupID *int64                `gorm:"column:shared_post_group_id;index"`
	CreatedAt         time.Time             `gorm:"column:created_at;index"`
	CacheTimestamp    time.Time             `gorm:"column:cache_timestamp;index"`
}
