package flashsale

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a flash-sale repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCampaign(ctx context.Context, campaign *models.FlashSaleCampaign) (*models.FlashSaleCampaign, error) {
	if err := r.db.WithContext(ctx).Create(campaign).Error; err != nil {
		return nil, err
	}
	return campaign, nil
}

func (r *repository) FindCampaign(ctx context.Context, id uuid.UUID) (*models.FlashSaleCampaign, error) {
	var campaign models.FlashSaleCampaign
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

func (r *repository) FindItemsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.FlashSaleItem, error) {
	var items []models.FlashSaleItem
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.FlashSaleItem) (*models.FlashSaleItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// ItemExists matches NULL variant ids explicitly; the composite unique
// index alone lets two whole-product rows through because SQL NULLs never
// compare equal.
func (r *repository) ItemExists(ctx context.Context, campaignID, productID uuid.UUID, variantID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.FlashSaleItem{}).
		Where("campaign_id = ? AND product_id = ?", campaignID, productID)
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// StampVariant writes the flash block. Re-stamping with the same values is
// a no-op at the data level, which is what makes the start handler and the
// sweep safely idempotent.
func (r *repository) StampVariant(ctx context.Context, variantID uuid.UUID, stamp VariantStamp) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Updates(map[string]any{
			"flash_price_cents":      stamp.PriceCents,
			"flash_discount_percent": stamp.Percent,
			"flash_qty_cap":          stamp.QtyCap,
			"flash_starts_at":        stamp.StartsAt,
			"flash_ends_at":          stamp.EndsAt,
			"flash_sale_item_id":     stamp.SaleItemID,
		}).Error
}

// ClearStampsByItems nulls the flash block only on variants stamped by the
// given enrollments, so one campaign's end never clobbers another's stamp.
func (r *repository) ClearStampsByItems(ctx context.Context, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("flash_sale_item_id IN ?", itemIDs).
		Updates(map[string]any{
			"flash_price_cents":      nil,
			"flash_discount_percent": nil,
			"flash_qty_cap":          nil,
			"flash_starts_at":        nil,
			"flash_ends_at":          nil,
			"flash_sale_item_id":     nil,
		}).Error
}

// CurrentUnstampedCampaignIDs finds campaigns whose window covers now but
// where at least one enrolled variant is missing that campaign's stamp.
func (r *repository) CurrentUnstampedCampaignIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT c.id
		FROM flash_sale_campaigns c
		JOIN flash_sale_items fi ON fi.campaign_id = c.id
		JOIN product_variants pv
			ON (fi.variant_id IS NOT NULL AND pv.id = fi.variant_id)
			OR (fi.variant_id IS NULL AND pv.product_id = fi.product_id)
		WHERE c.starts_at <= ? AND c.ends_at > ?
			AND pv.deleted = ?
			AND (pv.flash_sale_item_id IS NULL OR pv.flash_sale_item_id <> fi.id)
	`, now, now, false).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// EndedStampedCampaignIDs finds campaigns past their window whose stamps
// are still live on some variant.
func (r *repository) EndedStampedCampaignIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT c.id
		FROM flash_sale_campaigns c
		JOIN flash_sale_items fi ON fi.campaign_id = c.id
		JOIN product_variants pv ON pv.flash_sale_item_id = fi.id
		WHERE c.ends_at <= ?
	`, now).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
