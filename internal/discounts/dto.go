package discounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
)

// CreateDiscountInput carries the admin-supplied fields for a new code.
type CreateDiscountInput struct {
	Code             string
	Type             enums.DiscountType
	Value            int64
	MaxDiscountCents *int64
	MinOrderCents    *int64
	UsageLimit       *int
	StartsAt         time.Time
	EndsAt           time.Time
}

// ApplyInput carries a redemption attempt, referencing the discount by
// code or by id. OrderID is nil for a dry-run quote; when set, the
// redemption is consumed inside the caller's tx.
type ApplyInput struct {
	Code            string
	DiscountID      *uuid.UUID
	OrderValueCents int64
	UserID          uuid.UUID
	OrderID         *uuid.UUID
}

// ApplyResult reports the amounts at the API boundary.
type ApplyResult struct {
	DiscountID          uuid.UUID `json:"discount_id"`
	DiscountAmountCents int64     `json:"discount_amount_cents"`
	FinalAmountCents    int64     `json:"final_amount_cents"`
}
