package discounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
)

// Repository defines persistence operations for discount codes and usages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, discount *models.Discount) (*models.Discount, error)
	FindByCode(ctx context.Context, code string) (*models.Discount, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Discount, error)
	HasUsage(ctx context.Context, discountID, userID uuid.UUID) (bool, error)
	ConsumeUsageLimit(ctx context.Context, discountID uuid.UUID) (bool, error)
	RestoreUsageLimit(ctx context.Context, discountID uuid.UUID) error
	CreateUsage(ctx context.Context, usage *models.DiscountUsage) error
	DeleteUsage(ctx context.Context, discountID, orderID uuid.UUID) (bool, error)
}
