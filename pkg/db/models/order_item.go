package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem is a frozen order line. Title and variant name are copied at
// checkout so the order still renders after catalog edits.
type OrderItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`

	ProductTitle   string `gorm:"column:product_title;not null"`
	VariantName    string `gorm:"column:variant_name;not null"`
	Qty            int    `gorm:"column:qty;not null"`
	UnitPriceCents int64  `gorm:"column:unit_price_cents;not null"`
	LineTotalCents int64  `gorm:"column:line_total_cents;not null"`

	IsFlashSale     bool       `gorm:"column:is_flash_sale;not null;default:false"`
	FlashSaleItemID *uuid.UUID `gorm:"column:flash_sale_item_id;type:uuid"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
