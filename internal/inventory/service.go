package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
)

// Service adjusts variant stock inside a caller-owned transaction. Every
// adjustment leaves a stock_movements ledger row keyed to the order.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID uuid.UUID) error
}

type service struct{}

// NewService exposes the default stock adjustment implementation.
func NewService() Service {
	return service{}
}

// Reserve subtracts qty from the variant's stock. The WHERE guard makes an
// oversell a zero-row update instead of a negative balance, so concurrent
// checkouts race safely.
func (service) Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID uuid.UUID) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reserve")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE product_variants
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, qty, variantID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
			WithDetails(map[string]any{"variant_id": variantID, "requested": qty})
	}

	movement := models.StockMovement{
		VariantID: variantID,
		OrderID:   &orderID,
		Delta:     -qty,
		Reason:    enums.StockMovementOrderCreated,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	return nil
}

// Release returns qty to the variant's stock after a cancellation.
func (service) Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, orderID uuid.UUID) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE product_variants
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, variantID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
			WithDetails(map[string]any{"variant_id": variantID})
	}

	movement := models.StockMovement{
		VariantID: variantID,
		OrderID:   &orderID,
		Delta:     qty,
		Reason:    enums.StockMovementOrderCancelled,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	return nil
}
