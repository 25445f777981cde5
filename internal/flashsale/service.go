package flashsale

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/internal/products"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages campaigns and flips their prices onto the catalog. The
// start and end handlers are idempotent so timers, boot recovery and the
// sweep can all call them without coordination.
type Service interface {
	CreateCampaign(ctx context.Context, input CreateCampaignInput) (*models.FlashSaleCampaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*models.FlashSaleCampaign, error)
	AddItem(ctx context.Context, campaignID uuid.UUID, input AddItemInput) (*models.FlashSaleItem, error)
	ApplyCampaignStart(ctx context.Context, campaignID uuid.UUID) error
	ApplyCampaignEnd(ctx context.Context, campaignID uuid.UUID) error
	CurrentUnstamped(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	EndedStillStamped(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type service struct {
	repo     Repository
	products products.Repository
	tx       txRunner
}

// NewService builds a flash-sale service with the required dependencies.
func NewService(repo Repository, productsRepo products.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("flashsale repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: productsRepo, tx: tx}, nil
}

func (s *service) CreateCampaign(ctx context.Context, input CreateCampaignInput) (*models.FlashSaleCampaign, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign name is required")
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ends_at must be after starts_at")
	}

	campaign := &models.FlashSaleCampaign{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
	}
	created, err := s.repo.CreateCampaign(ctx, campaign)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create campaign")
	}
	return created, nil
}

func (s *service) GetCampaign(ctx context.Context, id uuid.UUID) (*models.FlashSaleCampaign, error) {
	campaign, err := s.repo.FindCampaign(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find campaign")
	}
	if campaign == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}
	return campaign, nil
}

func (s *service) AddItem(ctx context.Context, campaignID uuid.UUID, input AddItemInput) (*models.FlashSaleItem, error) {
	if input.DiscountPercent <= 0 || input.DiscountPercent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be in (0,100]")
	}
	if input.QtyCap != nil && *input.QtyCap <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty cap must be positive when set")
	}

	campaign, err := s.repo.FindCampaign(ctx, campaignID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find campaign")
	}
	if campaign == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}

	product, err := s.products.FindProduct(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if input.VariantID != nil {
		variant, err := s.products.FindVariantForProduct(ctx, input.ProductID, *input.VariantID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find variant")
		}
		if variant == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
	}

	exists, err := s.repo.ItemExists(ctx, campaignID, input.ProductID, input.VariantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check enrollment")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product already enrolled in campaign")
	}

	item := &models.FlashSaleItem{
		CampaignID:      campaignID,
		ProductID:       input.ProductID,
		VariantID:       input.VariantID,
		DiscountPercent: input.DiscountPercent,
		QtyCap:          input.QtyCap,
	}
	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product already enrolled in campaign")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enroll product")
	}
	return created, nil
}

// flashPriceCents derives the sale price from the live list price, rounding
// down, never below zero.
func flashPriceCents(listPriceCents int64, percent int) int64 {
	price := decimal.NewFromInt(listPriceCents).
		Mul(decimal.NewFromInt(int64(100 - percent))).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
	if price < 0 {
		price = 0
	}
	return price
}

// ApplyCampaignStart stamps the flash block onto every enrolled variant in
// one transaction. Safe to call repeatedly.
func (s *service) ApplyCampaignStart(ctx context.Context, campaignID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productsRepo := s.products.WithTx(tx)

		campaign, err := repo.FindCampaign(ctx, campaignID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find campaign")
		}
		if campaign == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}

		for _, item := range campaign.Items {
			variants, err := s.resolveTargets(ctx, productsRepo, item)
			if err != nil {
				return err
			}
			for _, variant := range variants {
				stamp := VariantStamp{
					PriceCents: flashPriceCents(variant.PriceCents, item.DiscountPercent),
					Percent:    item.DiscountPercent,
					QtyCap:     item.QtyCap,
					StartsAt:   campaign.StartsAt,
					EndsAt:     campaign.EndsAt,
					SaleItemID: item.ID,
				}
				if err := repo.StampVariant(ctx, variant.ID, stamp); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp variant")
				}
			}
		}
		return nil
	})
}

// ApplyCampaignEnd clears the campaign's stamps in one transaction. Safe to
// call repeatedly; a second call clears nothing.
func (s *service) ApplyCampaignEnd(ctx context.Context, campaignID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		campaign, err := repo.FindCampaign(ctx, campaignID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find campaign")
		}
		if campaign == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}

		itemIDs := make([]uuid.UUID, 0, len(campaign.Items))
		for _, item := range campaign.Items {
			itemIDs = append(itemIDs, item.ID)
		}
		if err := repo.ClearStampsByItems(ctx, itemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear variant stamps")
		}
		return nil
	})
}

func (s *service) resolveTargets(ctx context.Context, productsRepo products.Repository, item models.FlashSaleItem) ([]models.ProductVariant, error) {
	if item.VariantID != nil {
		variant, err := productsRepo.FindVariant(ctx, *item.VariantID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find enrolled variant")
		}
		if variant == nil {
			// Variant deleted after enrollment; nothing to stamp.
			return nil, nil
		}
		return []models.ProductVariant{*variant}, nil
	}
	variants, err := productsRepo.FindVariantsByProduct(ctx, item.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find enrolled variants")
	}
	return variants, nil
}

func (s *service) CurrentUnstamped(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	ids, err := s.repo.CurrentUnstampedCampaignIDs(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query unstamped campaigns")
	}
	return ids, nil
}

func (s *service) EndedStillStamped(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	ids, err := s.repo.EndedStampedCampaignIDs(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query stamped ended campaigns")
	}
	return ids, nil
}
