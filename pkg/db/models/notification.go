package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
)

// Notification is the persisted record of a sent buyer notification,
// written alongside the pubsub event.
type Notification struct {
	ID       uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	UserID   uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index"`
	Template enums.NotificationTemplate `gorm:"column:template;not null"`
	Payload  map[string]any             `gorm:"column:payload;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
