package flashsale

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
)

// VariantStamp is the denormalized flash block written onto a variant when
// a campaign opens.
type VariantStamp struct {
	PriceCents int64
	Percent    int
	QtyCap     *int
	StartsAt   time.Time
	EndsAt     time.Time
	SaleItemID uuid.UUID
}

// Repository defines persistence operations for campaigns, enrollments and
// the variant flash block.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateCampaign(ctx context.Context, campaign *models.FlashSaleCampaign) (*models.FlashSaleCampaign, error)
	FindCampaign(ctx context.Context, id uuid.UUID) (*models.FlashSaleCampaign, error)
	FindItemsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.FlashSaleItem, error)
	CreateItem(ctx context.Context, item *models.FlashSaleItem) (*models.FlashSaleItem, error)
	ItemExists(ctx context.Context, campaignID, productID uuid.UUID, variantID *uuid.UUID) (bool, error)
	StampVariant(ctx context.Context, variantID uuid.UUID, stamp VariantStamp) error
	ClearStampsByItems(ctx context.Context, itemIDs []uuid.UUID) error
	CurrentUnstampedCampaignIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	EndedStampedCampaignIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}
