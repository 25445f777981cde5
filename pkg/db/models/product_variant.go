package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductVariant is the purchasable unit carrying price and stock. The
// flash_* block is a denormalized copy of the active campaign enrollment,
// stamped by the campaign start handler and cleared by the end handler.
type ProductVariant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	Stock      int       `gorm:"column:stock;not null;default:0"`
	Deleted    bool      `gorm:"column:deleted;not null;default:false"`

	FlashPriceCents      *int64     `gorm:"column:flash_price_cents"`
	FlashDiscountPercent *int       `gorm:"column:flash_discount_percent"`
	FlashQtyCap          *int       `gorm:"column:flash_qty_cap"`
	FlashStartsAt        *time.Time `gorm:"column:flash_starts_at"`
	FlashEndsAt          *time.Time `gorm:"column:flash_ends_at"`
	FlashSaleItemID      *uuid.UUID `gorm:"column:flash_sale_item_id;type:uuid"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// FlashActiveAt reports whether the stamped flash window covers the instant.
func (v *ProductVariant) FlashActiveAt(now time.Time) bool {
	if v.FlashPriceCents == nil || v.FlashStartsAt == nil || v.FlashEndsAt == nil {
		return false
	}
	return !now.Before(*v.FlashStartsAt) && now.Before(*v.FlashEndsAt)
}

// EffectivePriceCents returns the flash price when the window is active,
// otherwise the list price.
func (v *ProductVariant) EffectivePriceCents(now time.Time) int64 {
	if v.FlashActiveAt(now) {
		return *v.FlashPriceCents
	}
	return v.PriceCents
}
