package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/config"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/types"
)

// QuoteInput asks the carrier for a delivery fee and lead time.
type QuoteInput struct {
	Address  types.ShippingAddress `json:"address"`
	WeightG  int                   `json:"weight_g"`
	Express  bool                  `json:"express"`
	CODCents int64                 `json:"cod_cents"`
}

// Quote is the carrier's fee answer.
type Quote struct {
	FeeCents             int64      `json:"fee_cents"`
	ExpectedDeliveryTime *time.Time `json:"expected_delivery_time,omitempty"`
}

// ShipmentInput registers an order with the carrier.
type ShipmentInput struct {
	OrderID  string                `json:"order_id"`
	Address  types.ShippingAddress `json:"address"`
	WeightG  int                   `json:"weight_g"`
	CODCents int64                 `json:"cod_cents"`
	Note     string                `json:"note,omitempty"`
}

// Shipment is the carrier-side registration result.
type Shipment struct {
	OrderCode            string     `json:"order_code"`
	FeeCents             int64      `json:"fee_cents"`
	ExpectedDeliveryTime *time.Time `json:"expected_delivery_time,omitempty"`
}

// TrackingStatus is one point-in-time tracking answer.
type TrackingStatus struct {
	OrderCode  string `json:"order_code"`
	StatusCode string `json:"status_code"`
}

// CarrierClient is the outbound shipping-provider surface consumed by the
// order flow.
type CarrierClient interface {
	Quote(ctx context.Context, input QuoteInput) (*Quote, error)
	CreateShipment(ctx context.Context, input ShipmentInput) (*Shipment, error)
	TrackingStatus(ctx context.Context, orderCode string) (*TrackingStatus, error)
}

type httpClient struct {
	baseURL string
	token   string
	shopID  string
	client  *http.Client
}

// NewHTTPClient builds the carrier client from configuration.
func NewHTTPClient(cfg config.ShippingConfig) (CarrierClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("shipping base URL required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		shopID:  cfg.ShopID,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *httpClient) Quote(ctx context.Context, input QuoteInput) (*Quote, error) {
	var quote Quote
	if err := c.post(ctx, "/v2/shipping-order/fee", input, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (c *httpClient) CreateShipment(ctx context.Context, input ShipmentInput) (*Shipment, error) {
	var shipment Shipment
	if err := c.post(ctx, "/v2/shipping-order/create", input, &shipment); err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (c *httpClient) TrackingStatus(ctx context.Context, orderCode string) (*TrackingStatus, error) {
	var status TrackingStatus
	payload := map[string]string{"order_code": orderCode}
	if err := c.post(ctx, "/v2/shipping-order/detail", payload, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode carrier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build carrier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Token", c.token)
	}
	if c.shopID != "" {
		req.Header.Set("ShopId", c.shopID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("carrier request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read carrier response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("carrier %s returned %d: %s", path, resp.StatusCode, string(raw))
	}

	// The carrier wraps every payload in a data envelope.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode carrier envelope: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode carrier payload: %w", err)
	}
	return nil
}
