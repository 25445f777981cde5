package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlashSaleCampaign is a time-boxed price event. Whether its prices are
// live on the catalog is carried by the variants' flash blocks, not here;
// the start handler stamps them and the end handler clears them.
type FlashSaleCampaign struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:idx_flash_sale_campaigns_name"`
	Description string    `gorm:"column:description"`
	StartsAt    time.Time `gorm:"column:starts_at;not null"`
	EndsAt      time.Time `gorm:"column:ends_at;not null"`

	Items []FlashSaleItem `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *FlashSaleCampaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
