package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlashSaleItem enrolls a product (optionally narrowed to one variant) in a
// campaign at a percent off list price. The sale price itself is computed at
// stamp time so later list-price edits before the window opens still apply.
type FlashSaleItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CampaignID uuid.UUID  `gorm:"column:campaign_id;type:uuid;not null;uniqueIndex:idx_flash_sale_items_enroll"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_flash_sale_items_enroll"`
	VariantID  *uuid.UUID `gorm:"column:variant_id;type:uuid;uniqueIndex:idx_flash_sale_items_enroll"`

	DiscountPercent int  `gorm:"column:discount_percent;not null"`
	QtyCap          *int `gorm:"column:qty_cap"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *FlashSaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
