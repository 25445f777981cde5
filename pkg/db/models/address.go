package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/types"
)

// Address is a saved delivery address. Checkout copies it into the order's
// shipping_address snapshot rather than referencing the row.
type Address struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Recipient string    `gorm:"column:recipient;not null"`
	Phone     string    `gorm:"column:phone;not null"`
	Line1     string    `gorm:"column:line1;not null"`
	Ward      string    `gorm:"column:ward"`
	District  string    `gorm:"column:district;not null"`
	Province  string    `gorm:"column:province;not null"`
	IsDefault bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Snapshot converts the row into the immutable order form.
func (a *Address) Snapshot() types.ShippingAddress {
	return types.ShippingAddress{
		Recipient: a.Recipient,
		Phone:     a.Phone,
		Line1:     a.Line1,
		Ward:      a.Ward,
		District:  a.District,
		Province:  a.Province,
	}
}
