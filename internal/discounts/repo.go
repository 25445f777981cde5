package discounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discounts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, discount *models.Discount) (*models.Discount, error) {
	if err := r.db.WithContext(ctx).Create(discount).Error; err != nil {
		return nil, err
	}
	return discount, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Discount, error) {
	var discount models.Discount
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&discount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	var discount models.Discount
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&discount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

func (r *repository) HasUsage(ctx context.Context, discountID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DiscountUsage{}).
		Where("discount_id = ? AND user_id = ?", discountID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ConsumeUsageLimit decrements the remaining global redemptions. The WHERE
// guard makes exhaustion a zero-row update; a NULL limit means unlimited
// and consumes nothing. Returns false only when the limit is exhausted.
func (r *repository) ConsumeUsageLimit(ctx context.Context, discountID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE discounts
		SET usage_limit = usage_limit - 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND usage_limit > 0
	`, discountID)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var unlimited int64
	err := r.db.WithContext(ctx).
		Model(&models.Discount{}).
		Where("id = ? AND usage_limit IS NULL", discountID).
		Count(&unlimited).Error
	if err != nil {
		return false, err
	}
	return unlimited > 0, nil
}

// RestoreUsageLimit is the compensating increment for ConsumeUsageLimit.
func (r *repository) RestoreUsageLimit(ctx context.Context, discountID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE discounts
		SET usage_limit = usage_limit + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND usage_limit IS NOT NULL
	`, discountID).Error
}

func (r *repository) CreateUsage(ctx context.Context, usage *models.DiscountUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *repository) DeleteUsage(ctx context.Context, discountID, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("discount_id = ? AND order_id = ?", discountID, orderID).
		Delete(&models.DiscountUsage{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
