package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/types"
)

// Order is the immutable purchase record cut from a cart at checkout. Every
// money column is a snapshot; later price or discount edits never touch it.
type Order struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID *uuid.UUID `gorm:"column:address_id;type:uuid"`

	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`

	TotalCents    int64      `gorm:"column:total_cents;not null"`
	ShippingCents int64      `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents int64      `gorm:"column:discount_cents;not null;default:0"`
	DiscountID    *uuid.UUID `gorm:"column:discount_id;type:uuid"`

	ShippingMethod  enums.ShippingMethod  `gorm:"column:shipping_method;not null"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;serializer:json;not null"`
	ShippingInfo    *types.ShippingInfo   `gorm:"column:shipping_info;serializer:json"`
	Note            *string               `gorm:"column:note"`
	CancelReason    *string               `gorm:"column:cancel_reason"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	PaidAt      *time.Time `gorm:"column:paid_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
