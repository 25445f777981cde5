package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nguyenhuy-dev/storelane-backend/api/middleware"
	"github.com/nguyenhuy-dev/storelane-backend/api/responses"
	"github.com/nguyenhuy-dev/storelane-backend/api/validators"
	ordersvc "github.com/nguyenhuy-dev/storelane-backend/internal/orders"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/types"
)

type orderLineRequest struct {
	ProductID      uuid.UUID `json:"product_id" validate:"required"`
	VariantID      uuid.UUID `json:"variant_id" validate:"required"`
	Qty            int       `json:"qty" validate:"required,min=1"`
	UnitPriceCents int64     `json:"unit_price_cents" validate:"required,min=0"`
}

type createOrderRequest struct {
	AddressID          *uuid.UUID             `json:"address_id"`
	Address            *types.ShippingAddress `json:"address"`
	Items              []orderLineRequest     `json:"items" validate:"required,min=1,dive"`
	ShippingCents      int64                  `json:"shipping_cents" validate:"min=0"`
	DiscountID         *uuid.UUID             `json:"discount_id"`
	PaymentMethod      string                 `json:"payment_method" validate:"required"`
	ShippingMethod     string                 `json:"shipping_method" validate:"required"`
	ExpectedTotalCents int64                  `json:"expected_total_cents" validate:"required,min=0"`
	Note               *string                `json:"note"`
}

func (p createOrderRequest) toInput(userID uuid.UUID) (ordersvc.CreateOrderInput, error) {
	paymentMethod, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	shippingMethod, err := enums.ParseShippingMethod(p.ShippingMethod)
	if err != nil {
		return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method")
	}

	items := make([]ordersvc.LineInput, len(p.Items))
	for i, line := range p.Items {
		items[i] = ordersvc.LineInput{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
		}
	}

	return ordersvc.CreateOrderInput{
		UserID:             userID,
		AddressID:          p.AddressID,
		Address:            p.Address,
		Items:              items,
		ShippingCents:      p.ShippingCents,
		DiscountID:         p.DiscountID,
		PaymentMethod:      paymentMethod,
		ShippingMethod:     shippingMethod,
		ExpectedTotalCents: p.ExpectedTotalCents,
		Note:               p.Note,
	}, nil
}

// OrderCreate runs checkout for the authenticated buyer.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// OrderDetail returns one of the caller's orders.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.GetForUser(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// OrderCancel cancels a pending order and restores its stock.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		// Ownership check before the mutation; admins go through the
		// status endpoint instead.
		if _, err := svc.GetForUser(r.Context(), orderID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orderID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type updateOrderStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Reason *string `json:"reason"`
}

// AdminOrderUpdateStatus drives the order through its lifecycle.
func AdminOrderUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, status, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type orderResponse struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	AddressID     *uuid.UUID `json:"address_id,omitempty"`
	Status        string     `json:"status"`
	StatusLabel   string     `json:"status_label"`
	PaymentStatus string     `json:"payment_status"`
	PaymentMethod string     `json:"payment_method"`

	TotalCents    int64      `json:"total_cents"`
	ShippingCents int64      `json:"shipping_cents"`
	DiscountCents int64      `json:"discount_cents"`
	DiscountID    *uuid.UUID `json:"discount_id,omitempty"`

	ShippingMethod  string                `json:"shipping_method"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	ShippingInfo    *types.ShippingInfo   `json:"shipping_info,omitempty"`
	Note            *string               `json:"note,omitempty"`
	CancelReason    *string               `json:"cancel_reason,omitempty"`

	Items []orderItemResponse `json:"items"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type orderItemResponse struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	VariantID       uuid.UUID  `json:"variant_id"`
	ProductTitle    string     `json:"product_title"`
	VariantName     string     `json:"variant_name"`
	Qty             int        `json:"qty"`
	UnitPriceCents  int64      `json:"unit_price_cents"`
	LineTotalCents  int64      `json:"line_total_cents"`
	IsFlashSale     bool       `json:"is_flash_sale"`
	FlashSaleItemID *uuid.UUID `json:"flash_sale_item_id,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			VariantID:       item.VariantID,
			ProductTitle:    item.ProductTitle,
			VariantName:     item.VariantName,
			Qty:             item.Qty,
			UnitPriceCents:  item.UnitPriceCents,
			LineTotalCents:  item.LineTotalCents,
			IsFlashSale:     item.IsFlashSale,
			FlashSaleItemID: item.FlashSaleItemID,
		}
	}

	return orderResponse{
		ID:              order.ID,
		UserID:          order.UserID,
		AddressID:       order.AddressID,
		Status:          string(order.Status),
		StatusLabel:     order.Status.Label(),
		PaymentStatus:   string(order.PaymentStatus),
		PaymentMethod:   string(order.PaymentMethod),
		TotalCents:      order.TotalCents,
		ShippingCents:   order.ShippingCents,
		DiscountCents:   order.DiscountCents,
		DiscountID:      order.DiscountID,
		ShippingMethod:  string(order.ShippingMethod),
		ShippingAddress: order.ShippingAddress,
		ShippingInfo:    order.ShippingInfo,
		Note:            order.Note,
		CancelReason:    order.CancelReason,
		Items:           items,
		PaidAt:          order.PaidAt,
		CancelledAt:     order.CancelledAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
