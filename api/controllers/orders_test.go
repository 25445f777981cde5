package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nguyenhuy-dev/storelane-backend/api/middleware"
	ordersvc "github.com/nguyenhuy-dev/storelane-backend/internal/orders"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/types"
)

type stubOrderService struct {
	order *models.Order
	err   error

	gotCreate *ordersvc.CreateOrderInput
	gotCancel struct {
		orderID uuid.UUID
		reason  string
	}
	gotStatus struct {
		orderID uuid.UUID
		status  enums.OrderStatus
		reason  *string
	}
	gotSync struct {
		orderID uuid.UUID
		code    string
	}
}

func (s *stubOrderService) Create(ctx context.Context, input ordersvc.CreateOrderInput) (*models.Order, error) {
	s.gotCreate = &input
	return s.order, s.err
}

func (s *stubOrderService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	s.gotCancel.orderID = orderID
	s.gotCancel.reason = reason
	return s.order, s.err
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus, reason *string) (*models.Order, error) {
	s.gotStatus.orderID = orderID
	s.gotStatus.status = newStatus
	s.gotStatus.reason = reason
	return s.order, s.err
}

func (s *stubOrderService) SyncShipment(ctx context.Context, orderID uuid.UUID, carrierCode string) (*models.Order, error) {
	s.gotSync.orderID = orderID
	s.gotSync.code = carrierCode
	return s.order, s.err
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func sampleOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodCOD,
		TotalCents:    120000,
		ShippingMethod: enums.ShippingMethodStandard,
		ShippingAddress: types.ShippingAddress{
			Recipient: "Lan Tran", Phone: "0900000000", Line1: "12 Hang Bai", Province: "Hanoi",
		},
	}
}

func TestOrderCreateSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrderService{order: sampleOrder(userID)}
	handler := OrderCreate(svc, nil)

	body := `{
		"address_id": "` + uuid.NewString() + `",
		"items": [{"product_id":"` + uuid.NewString() + `","variant_id":"` + uuid.NewString() + `","qty":2,"unit_price_cents":50000}],
		"shipping_cents": 20000,
		"payment_method": "cod",
		"shipping_method": "standard",
		"expected_total_cents": 120000
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotCreate == nil {
		t.Fatal("expected service call")
	}
	if svc.gotCreate.UserID != userID {
		t.Fatalf("expected user from context, got %s", svc.gotCreate.UserID)
	}
	if svc.gotCreate.PaymentMethod != enums.PaymentMethodCOD {
		t.Fatalf("unexpected payment method %s", svc.gotCreate.PaymentMethod)
	}
	if svc.gotCreate.ExpectedTotalCents != 120000 {
		t.Fatalf("unexpected expected total %d", svc.gotCreate.ExpectedTotalCents)
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.StatusLabel != enums.OrderStatusPending.Label() {
		t.Fatalf("unexpected status label %q", envelope.Data.StatusLabel)
	}
}

func TestOrderCreateRejectsUnknownPaymentMethod(t *testing.T) {
	handler := OrderCreate(&stubOrderService{}, nil)

	body := `{
		"items": [{"product_id":"` + uuid.NewString() + `","variant_id":"` + uuid.NewString() + `","qty":1,"unit_price_cents":100}],
		"payment_method": "bitcoin",
		"shipping_method": "standard",
		"expected_total_cents": 100
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderCreateTotalMismatchPassesThrough(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeValidation, "order total mismatch")}
	handler := OrderCreate(svc, nil)

	body := `{
		"address_id": "` + uuid.NewString() + `",
		"items": [{"product_id":"` + uuid.NewString() + `","variant_id":"` + uuid.NewString() + `","qty":1,"unit_price_cents":100}],
		"payment_method": "cod",
		"shipping_method": "standard",
		"expected_total_cents": 1
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderCancelRequiresReason(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrderService{order: sampleOrder(userID)}
	handler := OrderCancel(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/x/cancel", strings.NewReader(`{}`))
	req = withURLParam(req, "orderId", uuid.NewString())
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.gotCancel.reason != "" {
		t.Fatal("cancel should not have been called")
	}
}

func TestOrderCancelSuccess(t *testing.T) {
	userID := uuid.New()
	order := sampleOrder(userID)
	svc := &stubOrderService{order: order}
	handler := OrderCancel(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/x/cancel", strings.NewReader(`{"reason":"changed my mind"}`))
	req = withURLParam(req, "orderId", order.ID.String())
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotCancel.orderID != order.ID || svc.gotCancel.reason != "changed my mind" {
		t.Fatalf("unexpected cancel args: %+v", svc.gotCancel)
	}
}

func TestAdminOrderUpdateStatusParsesEnum(t *testing.T) {
	order := sampleOrder(uuid.New())
	order.Status = enums.OrderStatusConfirmed
	svc := &stubOrderService{order: order}
	handler := AdminOrderUpdateStatus(svc, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/orders/x/status", strings.NewReader(`{"status":"confirmed"}`))
	req = withURLParam(req, "orderId", order.ID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotStatus.status != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected status %s", svc.gotStatus.status)
	}
	if svc.gotStatus.reason != nil {
		t.Fatal("expected nil reason")
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.StatusLabel != enums.OrderStatusConfirmed.Label() {
		t.Fatalf("unexpected status label %q", envelope.Data.StatusLabel)
	}
}

func TestAdminOrderUpdateStatusRejectsUnknownStatus(t *testing.T) {
	handler := AdminOrderUpdateStatus(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/orders/x/status", strings.NewReader(`{"status":"teleported"}`))
	req = withURLParam(req, "orderId", uuid.NewString())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
