package types

import "time"

// ShippingInfo mirrors the carrier-side tracking block kept on an order.
// StatusCode/StatusName use the carrier's vocabulary; the mapping to the
// internal order status lives in internal/shipping.
type ShippingInfo struct {
	OrderCode            string     `json:"order_code"`
	ExpectedDeliveryTime *time.Time `json:"expected_delivery_time,omitempty"`
	StatusCode           string     `json:"status_code"`
	StatusName           string     `json:"status_name"`
	FeeCents             int64      `json:"fee_cents"`
}
