package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhuy-dev/storelane-backend/api/middleware"
	"github.com/nguyenhuy-dev/storelane-backend/api/responses"
	"github.com/nguyenhuy-dev/storelane-backend/api/validators"
	discountsvc "github.com/nguyenhuy-dev/storelane-backend/internal/discounts"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
)

type applyDiscountRequest struct {
	Code            string `json:"code" validate:"required"`
	OrderValueCents int64  `json:"order_value_cents" validate:"required,min=1"`
}

// DiscountApply previews a code against an order value. Nothing is consumed;
// redemption happens inside checkout.
func DiscountApply(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.Validate(r.Context(), payload.Code, payload.OrderValueCents, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount := discountsvc.ComputeAmount(discount, payload.OrderValueCents)
		responses.WriteSuccess(w, discountsvc.ApplyResult{
			DiscountID:          discount.ID,
			DiscountAmountCents: amount,
			FinalAmountCents:    payload.OrderValueCents - amount,
		})
	}
}

type createDiscountRequest struct {
	Code             string    `json:"code" validate:"required"`
	Type             string    `json:"type" validate:"required"`
	Value            int64     `json:"value" validate:"required,min=1"`
	MaxDiscountCents *int64    `json:"max_discount_cents"`
	MinOrderCents    *int64    `json:"min_order_cents"`
	UsageLimit       *int      `json:"usage_limit"`
	StartsAt         time.Time `json:"starts_at" validate:"required"`
	EndsAt           time.Time `json:"ends_at" validate:"required"`
}

// AdminDiscountCreate registers a new discount code.
func AdminDiscountCreate(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseDiscountType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}

		discount, err := svc.CreateDiscount(r.Context(), discountsvc.CreateDiscountInput{
			Code:             payload.Code,
			Type:             discountType,
			Value:            payload.Value,
			MaxDiscountCents: payload.MaxDiscountCents,
			MinOrderCents:    payload.MinOrderCents,
			UsageLimit:       payload.UsageLimit,
			StartsAt:         payload.StartsAt,
			EndsAt:           payload.EndsAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newDiscountResponse(discount))
	}
}

type discountResponse struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	Type             string    `json:"type"`
	Value            int64     `json:"value"`
	MaxDiscountCents *int64    `json:"max_discount_cents,omitempty"`
	MinOrderCents    *int64    `json:"min_order_cents,omitempty"`
	UsageLimit       *int      `json:"usage_limit,omitempty"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	CreatedAt        time.Time `json:"created_at"`
}

func newDiscountResponse(d *models.Discount) discountResponse {
	return discountResponse{
		ID:               d.ID,
		Code:             d.Code,
		Type:             string(d.Type),
		Value:            d.Value,
		MaxDiscountCents: d.MaxDiscountCents,
		MinOrderCents:    d.MinOrderCents,
		UsageLimit:       d.UsageLimit,
		StartsAt:         d.StartsAt,
		EndsAt:           d.EndsAt,
		CreatedAt:        d.CreatedAt,
	}
}
