package dbcache

import (
	"time"

	"wandergram/internal/common"
)

// DraftPost is locally originated content not yet confirmed by the server.
// LocalMediaPaths must outlive the row until upload completes.
type DraftPost struct {
	ID              string                `gorm:"primaryKey;column:id;size:36"`
	OwnerID         int64                 `gorm:"column:owner_id;index"`
	Caption         string                `gorm:"column:caption;type:text"`
	CountryCode     string                `gorm:"column:country_code;size:2"`
	CityID          *int64                `gorm:"column:city_id"`
	Visibility      common.VisibilityType `gorm:"column:visibility;size:20"`
	LocalMediaPaths []string              `gorm:"column:local_media_paths;serializer:json"`
	SyncStatus      common.SyncStatus     `gorm:"column:sync_status;size:20;index"`
	AttemptCount    int                   `gorm:"column:attempt_count"`
	LastError       string                `gorm:"column:last_error;type:text"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
