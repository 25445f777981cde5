package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/nguyenhuy-dev/storelane-backend/internal/payments"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/config"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
)

func TestShippingWebhookRejectsBadToken(t *testing.T) {
	cfg := config.ShippingConfig{Token: "carrier-secret"}
	handler := ShippingWebhook(cfg, &stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/shipping", strings.NewReader(`{}`))
	req.Header.Set("Token", "wrong")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestShippingWebhookSyncsOrder(t *testing.T) {
	cfg := config.ShippingConfig{Token: "carrier-secret"}
	order := sampleOrder(uuid.New())
	order.Status = enums.OrderStatusShipped
	svc := &stubOrderService{order: order}
	handler := ShippingWebhook(cfg, svc, nil)

	body := `{"order_id":"` + order.ID.String() + `","status":"delivering"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/shipping", strings.NewReader(body))
	req.Header.Set("Token", "carrier-secret")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotSync.orderID != order.ID || svc.gotSync.code != "delivering" {
		t.Fatalf("unexpected sync args: %+v", svc.gotSync)
	}
}

func newTestVerifier(t *testing.T) payments.Verifier {
	t.Helper()
	verifier, err := payments.NewHMACVerifier(config.PaymentConfig{
		MerchantCode: "SL001",
		HashSecret:   "hash-secret",
	})
	if err != nil {
		t.Fatalf("create verifier: %v", err)
	}
	return verifier
}

func paymentReturnURL(verifier payments.Verifier, params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("signature", verifier.Sign(params))
	return "/api/v1/webhooks/payment?" + values.Encode()
}

func TestPaymentReturnConfirmsOrder(t *testing.T) {
	verifier := newTestVerifier(t)
	order := sampleOrder(uuid.New())
	order.Status = enums.OrderStatusConfirmed
	svc := &stubOrderService{order: order}
	handler := PaymentReturn(verifier, svc, nil)

	params := map[string]string{
		"order_id":    order.ID.String(),
		"result_code": "0",
		"amount":      "120000",
	}
	req := httptest.NewRequest(http.MethodGet, paymentReturnURL(verifier, params), nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotStatus.orderID != order.ID || svc.gotStatus.status != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected status args: %+v", svc.gotStatus)
	}
}

func TestPaymentReturnRejectsTamperedParams(t *testing.T) {
	verifier := newTestVerifier(t)
	svc := &stubOrderService{}
	handler := PaymentReturn(verifier, svc, nil)

	params := map[string]string{
		"order_id":    uuid.NewString(),
		"result_code": "0",
		"amount":      "120000",
	}
	target := paymentReturnURL(verifier, params)
	target = strings.Replace(target, "amount=120000", "amount=1", 1)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if svc.gotStatus.orderID != uuid.Nil {
		t.Fatal("order must not be touched on a bad signature")
	}
}

func TestPaymentReturnFailureResultDoesNotTouchOrder(t *testing.T) {
	verifier := newTestVerifier(t)
	svc := &stubOrderService{}
	handler := PaymentReturn(verifier, svc, nil)

	params := map[string]string{
		"order_id":    uuid.NewString(),
		"result_code": "24",
	}
	req := httptest.NewRequest(http.MethodGet, paymentReturnURL(verifier, params), nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotStatus.orderID != uuid.Nil {
		t.Fatal("order must not be confirmed on gateway failure")
	}
}

func TestPaymentReturnMissingSignature(t *testing.T) {
	handler := PaymentReturn(newTestVerifier(t), &stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/payment?order_id="+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
