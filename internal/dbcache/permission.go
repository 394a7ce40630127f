package dbcache

import (
	"time"

	"wandergram/internal/common"
)

// TravelPermission is a directed grant between two users scoped to one
// country. Status changes update the row in place; the triple stays unique.
type TravelPermission struct {
	ID             int64                   `gorm:"primaryKey;column:id"`
	GrantorID      int64                   `gorm:"column:grantor_id;not null;index:idx_permission_triple,unique"`
	GranteeID      int64                   `gorm:"column:grantee_id;not null;index:idx_permission_triple,unique"`
	CountryCode    string                  `gorm:"column:country_code;size:2;not null;index:idx_permission_triple,unique"`
	Status         common.PermissionStatus `gorm:"column:status;size:20"`
	CreatedAt      time.Time               `gorm:"column:created_at"`
	CacheTimestamp time.Time               `gorm:"column:cache_timestamp;index"`
}
