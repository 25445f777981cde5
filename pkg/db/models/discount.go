package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
)

// Discount is a redeemable code. Value is a percent for percentage codes
// and cents for fixed codes. UsageLimit counts remaining global redemptions
// and is decremented by a guarded UPDATE; nil means unlimited. Per-user
// single use is enforced by the unique index on discount_usages.
type Discount struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Code string    `gorm:"column:code;not null;uniqueIndex:idx_discounts_code"`

	Type             enums.DiscountType `gorm:"column:type;not null"`
	Value            int64              `gorm:"column:value;not null"`
	MaxDiscountCents *int64             `gorm:"column:max_discount_cents"`
	MinOrderCents    *int64             `gorm:"column:min_order_cents"`

	UsageLimit *int `gorm:"column:usage_limit"`

	StartsAt time.Time `gorm:"column:starts_at;not null"`
	EndsAt   time.Time `gorm:"column:ends_at;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Discount) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// WindowAt classifies the validity window relative to the instant.
func (d *Discount) WindowAt(now time.Time) enums.DiscountWindow {
	switch {
	case now.Before(d.StartsAt):
		return enums.DiscountWindowUpcoming
	case now.After(d.EndsAt):
		return enums.DiscountWindowEnded
	default:
		return enums.DiscountWindowOngoing
	}
}
