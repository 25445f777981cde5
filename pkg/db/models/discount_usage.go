package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiscountUsage records one redemption. The unique index over
// (discount_id, user_id) is what makes per-user reuse a constraint
// violation instead of a read-then-write race.
type DiscountUsage struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	DiscountID uuid.UUID  `gorm:"column:discount_id;type:uuid;not null;uniqueIndex:idx_discount_usages_once"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_discount_usages_once"`
	OrderID    *uuid.UUID `gorm:"column:order_id;type:uuid"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (u *DiscountUsage) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
