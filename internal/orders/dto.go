package orders

import (
	"github.com/google/uuid"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/types"
)

// LineInput is one requested order line. The unit price is the client's
// view and is only sanity-checked; the charged price is always re-read
// server-side.
type LineInput struct {
	ProductID      uuid.UUID
	VariantID      uuid.UUID
	Qty            int
	UnitPriceCents int64
}

// CreateOrderInput carries a checkout request. Exactly one of AddressID and
// Address must be set.
type CreateOrderInput struct {
	UserID             uuid.UUID
	AddressID          *uuid.UUID
	Address            *types.ShippingAddress
	Items              []LineInput
	ShippingCents      int64
	DiscountID         *uuid.UUID
	PaymentMethod      enums.PaymentMethod
	ShippingMethod     enums.ShippingMethod
	ExpectedTotalCents int64
	Note               *string
}
