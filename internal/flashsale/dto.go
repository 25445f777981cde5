package flashsale

import (
	"time"

	"github.com/google/uuid"
)

// CreateCampaignInput carries the admin-supplied campaign window.
type CreateCampaignInput struct {
	Name        string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
}

// AddItemInput enrolls a product in a campaign. A nil VariantID enrolls
// every non-deleted variant of the product.
type AddItemInput struct {
	ProductID       uuid.UUID
	VariantID       *uuid.UUID
	DiscountPercent int
	QtyCap          *int
}
