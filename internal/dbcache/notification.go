package dbcache

import (
	"time"
)

// Notification references its trigger polymorphically: ReferenceType names
// the table the ReferenceID points into (post, comment, user, permission).
type Notification struct {
	ID             int64     `gorm:"primaryKey;column:id"`
	RecipientID    int64     `gorm:"column:recipient_id;index"`
	ActorID        int64     `gorm:"column:actor_id;index"`
	ReferenceID    int64     `gorm:"column:reference_id"`
	ReferenceType  string    `gorm:"column:reference_type;size:30"`
	Message        string    `gorm:"column:message;type:text"`
	IsRead         bool      `gorm:"column:is_read"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	CacheTimestamp time.Time `gorm:"column:cache_timestamp;index"`
}
