package dbcache

import (
	"time"
)

// Reference data: long TTL, rarely invalidated.

type Country struct {
	Code           string    `gorm:"primaryKey;column:code;size:2"`
	Name           string    `gorm:"column:name;size:100"`
	FlagURL        string    `gorm:"column:flag_url;size:512"`
	CacheTimestamp time.Time `gorm:"column:cache_timestamp;index"`
}

type City struct {
	ID             int64     `gorm:"primaryKey;column:id"`
	CountryCode    string    `gorm:"column:country_code;size:2;index"`
	Name           string    `gorm:"column:name;size:100"`
	CacheTimestamp time.Time `gorm:"column:cache_timestamp;index"`
}

type Collection struct {
	ID             int64     `gorm:"primaryKey;column:id"`
	OwnerID        int64     `gorm:"column:owner_id;index"`
	CountryCode    string    `gorm:"column:country_code;size:2"`
	Title          string    `gorm:"column:title;size:200"`
	PostsCount     int64     `gorm:"column:posts_count"`
	CacheTimestamp time.Time `gorm:"column:cache_timestamp;index"`
}
