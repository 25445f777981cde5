package types

import "strings"

// ShippingAddress is the denormalized delivery snapshot copied onto an order.
// It is persisted as jsonb so the shipping provider payload never depends on
// the address row still existing.
type ShippingAddress struct {
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
	Line1     string `json:"line1"`
	Ward      string `json:"ward,omitempty"`
	District  string `json:"district,omitempty"`
	Province  string `json:"province"`
}

// IsZero reports whether no address fields are set.
func (a ShippingAddress) IsZero() bool {
	return a.Recipient == "" && a.Phone == "" && a.Line1 == "" &&
		a.Ward == "" && a.District == "" && a.Province == ""
}

// Validate reports the first missing mandatory field, if any.
func (a ShippingAddress) Validate() string {
	switch {
	case strings.TrimSpace(a.Recipient) == "":
		return "recipient"
	case strings.TrimSpace(a.Phone) == "":
		return "phone"
	case strings.TrimSpace(a.Line1) == "":
		return "line1"
	case strings.TrimSpace(a.Province) == "":
		return "province"
	}
	return ""
}
