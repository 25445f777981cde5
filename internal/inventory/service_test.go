package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:inventory_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.ProductVariant{}, &models.StockMovement{}))
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, stock int) *models.ProductVariant {
	t.Helper()

	product := &models.Product{SKU: "SKU-1", Title: "Test Product"}
	require.NoError(t, db.Create(product).Error)

	variant := &models.ProductVariant{
		ProductID:  product.ID,
		Name:       "Default",
		PriceCents: 1500,
		Stock:      stock,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func TestReserveDecrementsStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	variant := seedVariant(t, db, 10)
	orderID := uuid.New()

	svc := NewService()
	require.NoError(t, svc.Reserve(context.Background(), db, variant.ID, 3, orderID))

	var reloaded models.ProductVariant
	require.NoError(t, db.First(&reloaded, "id = ?", variant.ID).Error)
	assert.Equal(t, 7, reloaded.Stock)

	var movements []models.StockMovement
	require.NoError(t, db.Find(&movements, "variant_id = ?", variant.ID).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, -3, movements[0].Delta)
	require.NotNil(t, movements[0].OrderID)
	assert.Equal(t, orderID, *movements[0].OrderID)
}

func TestReserveInsufficientStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	variant := seedVariant(t, db, 2)

	svc := NewService()
	err := svc.Reserve(context.Background(), db, variant.ID, 3, uuid.New())
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	var reloaded models.ProductVariant
	require.NoError(t, db.First(&reloaded, "id = ?", variant.ID).Error)
	assert.Equal(t, 2, reloaded.Stock)

	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReserveExactStockDrainsToZero(t *testing.T) {
	db := setupInventoryTestDB(t)
	variant := seedVariant(t, db, 5)

	svc := NewService()
	require.NoError(t, svc.Reserve(context.Background(), db, variant.ID, 5, uuid.New()))

	var reloaded models.ProductVariant
	require.NoError(t, db.First(&reloaded, "id = ?", variant.ID).Error)
	assert.Zero(t, reloaded.Stock)
}

func TestReleaseRestoresStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	variant := seedVariant(t, db, 4)
	orderID := uuid.New()

	svc := NewService()
	require.NoError(t, svc.Reserve(context.Background(), db, variant.ID, 4, orderID))
	require.NoError(t, svc.Release(context.Background(), db, variant.ID, 4, orderID))

	var reloaded models.ProductVariant
	require.NoError(t, db.First(&reloaded, "id = ?", variant.ID).Error)
	assert.Equal(t, 4, reloaded.Stock)

	var movements []models.StockMovement
	require.NoError(t, db.Order("created_at").Find(&movements, "order_id = ?", orderID).Error)
	require.Len(t, movements, 2)

	sum := 0
	for _, m := range movements {
		sum += m.Delta
	}
	assert.Zero(t, sum)
}

func TestReserveRejectsNonPositiveQty(t *testing.T) {
	db := setupInventoryTestDB(t)
	variant := seedVariant(t, db, 4)

	svc := NewService()
	err := svc.Reserve(context.Background(), db, variant.ID, 0, uuid.New())
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestReleaseUnknownVariant(t *testing.T) {
	db := setupInventoryTestDB(t)

	svc := NewService()
	err := svc.Release(context.Background(), db, uuid.New(), 1, uuid.New())
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
