package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/internal/products"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
	))
	return db
}

func newCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), products.NewRepository(db), testTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func seedCatalog(t *testing.T, db *gorm.DB, priceCents int64, stock int) (*models.Product, *models.ProductVariant) {
	t.Helper()

	product := &models.Product{SKU: "SKU-CART", Title: "Cart Product"}
	require.NoError(t, db.Create(product).Error)

	variant := &models.ProductVariant{
		ProductID:  product.ID,
		Name:       "Default",
		PriceCents: priceCents,
		Stock:      stock,
	}
	require.NoError(t, db.Create(variant).Error)
	return product, variant
}

func TestCreateCartConflict(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	userID := uuid.New()

	_, err := svc.Create(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), userID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestAddItemInsertsWithPriceSnapshot(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	userID := uuid.New()
	product, variant := seedCatalog(t, db, 2500, 10)

	_, err := svc.Create(context.Background(), userID)
	require.NoError(t, err)

	item, err := svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID,
		VariantID: variant.ID,
		Qty:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, item.Qty)
	assert.Equal(t, int64(2500), item.UnitPriceCents)
	assert.False(t, item.IsFlashSale)
}

func TestAddItemUpsertIncrementsExistingLine(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	userID := uuid.New()
	product, variant := seedCatalog(t, db, 2500, 10)

	_, err := svc.Create(context.Background(), userID)
	require.NoError(t, err)

	first, err := svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID, VariantID: variant.ID, Qty: 3,
	})
	require.NoError(t, err)

	second, err := svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID, VariantID: variant.ID, Qty: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 7, second.Qty)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddItemOvershootRollsBack(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	userID := uuid.New()
	product, variant := seedCatalog(t, db, 2500, 5)

	_, err := svc.Create(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID, VariantID: variant.ID, Qty: 4,
	})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID, VariantID: variant.ID, Qty: 2,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// No partial increment survives the rollback.
	var item models.CartItem
	require.NoError(t, db.First(&item, "variant_id = ?", variant.ID).Error)
	assert.Equal(t, 4, item.Qty)
}

func TestAddItemFlashPriceSnapshot(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	userID := uuid.New()
	product, variant := seedCatalog(t, db, 10000, 10)

	flashPrice := int64(7000)
	percent := 30
	saleItemID := uuid.New()
	starts := time.Now().Add(-time.Hour)
	ends := time.Now().Add(time.Hour)
	require.NoError(t, db.Model(variant).Updates(map[string]any{
		"flash_price_cents":      flashPrice,
		"flash_discount_percent": percent,
		"flash_starts_at":        starts,
		"flash_ends_at":          ends,
		"flash_sale_item_id":     saleItemID,
	}).Error)

	_, err := svc.Create(context.Background(), userID)
	require.NoError(t, err)

	item, err := svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID, VariantID: variant.ID, Qty: 1,
	})
	require.NoError(t, err)
	assert.True(t, item.IsFlashSale)
	assert.Equal(t, flashPrice, item.UnitPriceCents)
	require.NotNil(t, item.FlashDiscountPercent)
	assert.Equal(t, percent, *item.FlashDiscountPercent)
	require.NotNil(t, item.FlashSaleItemID)
	assert.Equal(t, saleItemID, *item.FlashSaleItemID)
}

func TestAddItemMissingTargets(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	userID := uuid.New()
	product, variant := seedCatalog(t, db, 2500, 10)

	// No cart yet.
	_, err := svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID, VariantID: variant.ID, Qty: 1,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), userID)
	require.NoError(t, err)

	// Unknown product.
	_, err = svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: uuid.New(), VariantID: variant.ID, Qty: 1,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	// Soft-deleted variant.
	require.NoError(t, db.Model(variant).Update("deleted", true).Error)
	_, err = svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID, VariantID: variant.ID, Qty: 1,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateItemQtyZeroRemovesIdempotently(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	userID := uuid.New()
	product, variant := seedCatalog(t, db, 2500, 10)

	_, err := svc.Create(context.Background(), userID)
	require.NoError(t, err)
	item, err := svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID, VariantID: variant.ID, Qty: 2,
	})
	require.NoError(t, err)

	_, err = svc.UpdateItemQty(context.Background(), userID, item.ID, 0)
	require.NoError(t, err)

	// Removing the already-removed line is still fine.
	_, err = svc.UpdateItemQty(context.Background(), userID, item.ID, -1)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateItemQtyValidatesStock(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	userID := uuid.New()
	product, variant := seedCatalog(t, db, 2500, 5)

	_, err := svc.Create(context.Background(), userID)
	require.NoError(t, err)
	item, err := svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID, VariantID: variant.ID, Qty: 2,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateItemQty(context.Background(), userID, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Qty)

	_, err = svc.UpdateItemQty(context.Background(), userID, item.ID, 6)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRemoveItemNotFound(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	userID := uuid.New()

	_, err := svc.Create(context.Background(), userID)
	require.NoError(t, err)

	err = svc.RemoveItem(context.Background(), userID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestClearReportsAffectedCount(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	userID := uuid.New()
	product, variant := seedCatalog(t, db, 2500, 10)

	// No cart at all clears nothing.
	affected, err := svc.Clear(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, affected)

	_, err = svc.Create(context.Background(), userID)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID: product.ID, VariantID: variant.ID, Qty: 2,
	})
	require.NoError(t, err)

	affected, err = svc.Clear(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = svc.Clear(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, affected)
}
