package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
)

// Repository defines persistence operations for carts and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateCart(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindCartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindItemsByCart(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindItemForCart(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindLine(ctx context.Context, cartID, productID, variantID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	IncrementItemQty(ctx context.Context, itemID uuid.UUID, delta int) error
	SetItemQty(ctx context.Context, itemID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) (int64, error)
	ClearCart(ctx context.Context, cartID uuid.UUID) (int64, error)
}
