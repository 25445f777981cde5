package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
)

// StockMovement is an append-only ledger row. Delta is negative for a sale
// reservation and positive for a restore; the running variant stock must
// equal the sum of its movements plus the seeded quantity.
type StockMovement struct {
	ID        uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	VariantID uuid.UUID                 `gorm:"column:variant_id;type:uuid;not null;index"`
	OrderID   *uuid.UUID                `gorm:"column:order_id;type:uuid;index"`
	Delta     int                       `gorm:"column:delta;not null"`
	Reason    enums.StockMovementReason `gorm:"column:reason;not null"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
