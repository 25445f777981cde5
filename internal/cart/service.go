package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/internal/products"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines basket operations. Every stock-sensitive mutation runs in
// a single transaction spanning the line write and the variant stock read.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	UpdateItemQty(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo     Repository
	products products.Repository
	tx       txRunner
	now      func() time.Time
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, productsRepo products.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		products: productsRepo,
		tx:       tx,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	existing, err := s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart already exists for user")
	}

	cart, err := s.repo.CreateCart(ctx, &models.Cart{UserID: userID})
	if err != nil {
		// The unique index backstops two concurrent creates.
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart already exists for user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return cart, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	items, err := s.repo.FindItemsByCart(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	return &CartView{Cart: *cart, Items: items}, nil
}

// AddItem upserts a line keyed (cart, product, variant). The stock check
// runs after the increment inside the same tx, so a concurrent add cannot
// silently push the combined quantity past stock.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if input.Qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var result *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productsRepo := s.products.WithTx(tx)

		cart, err := repo.FindCartByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart")
		}
		if cart == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}

		product, err := productsRepo.FindProduct(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find product")
		}
		if product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		variant, err := productsRepo.FindVariantForProduct(ctx, input.ProductID, input.VariantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find variant")
		}
		if variant == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		if variant.PriceCents <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant is not purchasable")
		}

		now := s.now()
		line, err := repo.FindLine(ctx, cart.ID, input.ProductID, input.VariantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart line")
		}

		var itemID uuid.UUID
		if line != nil {
			if err := repo.IncrementItemQty(ctx, line.ID, input.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment cart line")
			}
			itemID = line.ID
		} else {
			item := &models.CartItem{
				CartID:         cart.ID,
				ProductID:      input.ProductID,
				VariantID:      input.VariantID,
				Qty:            input.Qty,
				UnitPriceCents: variant.EffectivePriceCents(now),
			}
			if variant.FlashActiveAt(now) {
				item.IsFlashSale = true
				item.FlashDiscountPercent = variant.FlashDiscountPercent
				item.FlashSaleItemID = variant.FlashSaleItemID
			}
			if _, err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
			}
			itemID = item.ID
		}

		// Re-read both sides post-increment; the tx rolls everything back
		// when the combined quantity overshoots.
		updated, err := repo.FindItemForCart(ctx, cart.ID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart line")
		}
		liveVariant, err := productsRepo.FindVariant(ctx, input.VariantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload variant")
		}
		if liveVariant == nil || updated == nil {
			return pkgerrors.New(pkgerrors.CodeDependency, "cart line vanished mid-transaction")
		}
		if updated.Qty > liveVariant.Stock {
			return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
				WithDetails(map[string]any{"remaining": liveVariant.Stock})
		}

		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateItemQty sets an absolute quantity; zero or less removes the line.
func (s *service) UpdateItemQty(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.CartItem, error) {
	var result *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindCartByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart")
		}
		if cart == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}

		item, err := repo.FindItemForCart(ctx, cart.ID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart line")
		}

		if qty <= 0 {
			// Idempotent remove; deleting an absent line is not an error.
			if item != nil {
				if _, err := repo.DeleteItem(ctx, item.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
				}
			}
			return nil
		}

		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		variant, err := s.products.WithTx(tx).FindVariant(ctx, item.VariantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find variant")
		}
		if variant == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		if qty > variant.Stock {
			return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
				WithDetails(map[string]any{"remaining": variant.Stock})
		}

		if err := repo.SetItemQty(ctx, item.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
		item.Qty = qty
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	cart, err := s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart")
	}
	if cart == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}

	item, err := s.repo.FindItemForCart(ctx, cart.ID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart line")
	}
	if item == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if _, err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return nil
}

// Clear removes every line and reports how many were removed. An empty or
// missing cart clears zero lines without erroring.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	cart, err := s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart")
	}
	if cart == nil {
		return 0, nil
	}
	affected, err := s.repo.ClearCart(ctx, cart.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return affected, nil
}
