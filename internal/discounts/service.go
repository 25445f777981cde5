package discounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
)

// Service defines discount operations used by checkout and the admin API.
type Service interface {
	CreateDiscount(ctx context.Context, input CreateDiscountInput) (*models.Discount, error)
	Validate(ctx context.Context, code string, orderValueCents int64, userID uuid.UUID) (*models.Discount, error)
	Apply(ctx context.Context, tx *gorm.DB, input ApplyInput) (*ApplyResult, error)
	Rollback(ctx context.Context, discountID, orderID uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a discount service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) CreateDiscount(ctx context.Context, input CreateDiscountInput) (*models.Discount, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	switch input.Type {
	case enums.DiscountTypePercentage:
		if input.Value <= 0 || input.Value > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage value must be in (0,100]")
		}
		if input.MaxDiscountCents == nil || *input.MaxDiscountCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_discount_cents is required for percentage discounts")
		}
	case enums.DiscountTypeFixed:
		if input.Value <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed value must be positive")
		}
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ends_at must be after starts_at")
	}
	if input.UsageLimit != nil && *input.UsageLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage_limit must be positive when set")
	}
	if input.MinOrderCents != nil && *input.MinOrderCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_order_cents cannot be negative")
	}

	discount := &models.Discount{
		Code:             code,
		Type:             input.Type,
		Value:            input.Value,
		MaxDiscountCents: input.MaxDiscountCents,
		MinOrderCents:    input.MinOrderCents,
		UsageLimit:       input.UsageLimit,
		StartsAt:         input.StartsAt,
		EndsAt:           input.EndsAt,
	}
	created, err := s.repo.Create(ctx, discount)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "discount code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	return created, nil
}

// Validate checks every redemption precondition without consuming anything.
// The per-user check and the global limit are independent; both must pass.
func (s *service) Validate(ctx context.Context, code string, orderValueCents int64, userID uuid.UUID) (*models.Discount, error) {
	return s.validateWith(ctx, s.repo, ApplyInput{
		Code:            code,
		OrderValueCents: orderValueCents,
		UserID:          userID,
	})
}

func (s *service) validateWith(ctx context.Context, repo Repository, input ApplyInput) (*models.Discount, error) {
	if input.OrderValueCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order value cannot be negative")
	}

	var (
		discount *models.Discount
		err      error
	)
	if input.DiscountID != nil {
		discount, err = repo.FindByID(ctx, *input.DiscountID)
	} else {
		code := strings.ToUpper(strings.TrimSpace(input.Code))
		if code == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
		}
		discount, err = repo.FindByCode(ctx, code)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find discount")
	}
	if discount == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
	}
	orderValueCents := input.OrderValueCents
	userID := input.UserID

	if window := discount.WindowAt(s.now()); window != enums.DiscountWindowOngoing {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount is not active").
			WithDetails(map[string]any{"window": window})
	}
	if discount.UsageLimit != nil && *discount.UsageLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount usage limit reached")
	}
	if discount.MinOrderCents != nil && orderValueCents < *discount.MinOrderCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order value below discount minimum").
			WithDetails(map[string]any{"min_order_cents": *discount.MinOrderCents})
	}

	used, err := repo.HasUsage(ctx, discount.ID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check discount usage")
	}
	if used {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount already used")
	}

	return discount, nil
}

// ComputeAmount returns the discount in cents for the given order value.
// Percentage math rounds down; the result never goes negative and never
// exceeds the order value.
func ComputeAmount(discount *models.Discount, orderValueCents int64) int64 {
	if discount == nil || orderValueCents <= 0 {
		return 0
	}

	var amount int64
	switch discount.Type {
	case enums.DiscountTypePercentage:
		amount = decimal.NewFromInt(orderValueCents).
			Mul(decimal.NewFromInt(discount.Value)).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
		if discount.MaxDiscountCents != nil && amount > *discount.MaxDiscountCents {
			amount = *discount.MaxDiscountCents
		}
	case enums.DiscountTypeFixed:
		amount = discount.Value
	}

	if amount < 0 {
		amount = 0
	}
	if amount > orderValueCents {
		amount = orderValueCents
	}
	return amount
}

// Apply validates and computes; with an order id it also consumes the
// redemption inside the caller's transaction. The unique usage index
// backstops two concurrent first uses by the same user.
func (s *service) Apply(ctx context.Context, tx *gorm.DB, input ApplyInput) (*ApplyResult, error) {
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}

	discount, err := s.validateWith(ctx, repo, input)
	if err != nil {
		return nil, err
	}

	amount := ComputeAmount(discount, input.OrderValueCents)
	result := &ApplyResult{
		DiscountID:          discount.ID,
		DiscountAmountCents: amount,
		FinalAmountCents:    input.OrderValueCents - amount,
	}
	if input.OrderID == nil {
		return result, nil
	}

	consumed, err := repo.ConsumeUsageLimit(ctx, discount.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume discount usage limit")
	}
	if !consumed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount usage limit reached")
	}

	usage := &models.DiscountUsage{
		DiscountID: discount.ID,
		UserID:     input.UserID,
		OrderID:    input.OrderID,
	}
	if err := repo.CreateUsage(ctx, usage); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount already used")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record discount usage")
	}

	return result, nil
}

// Rollback compensates a consumed redemption after the owning order failed
// downstream. The usage row is the witness: when no row matches there is
// nothing to restore, so a mistaken call never inflates the limit.
func (s *service) Rollback(ctx context.Context, discountID, orderID uuid.UUID) error {
	deleted, err := s.repo.DeleteUsage(ctx, discountID, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete discount usage")
	}
	if !deleted {
		return nil
	}
	if err := s.repo.RestoreUsageLimit(ctx, discountID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore usage limit")
	}
	return nil
}
