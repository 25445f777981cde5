package cart

import (
	"github.com/google/uuid"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
)

// AddItemInput identifies the product line to add and how many.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Qty       int
}

// CartView is the cart plus its lines, as returned to callers.
type CartView struct {
	Cart  models.Cart       `json:"cart"`
	Items []models.CartItem `json:"items"`
}
