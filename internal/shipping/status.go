package shipping

import "github.com/nguyenhuy-dev/storelane-backend/pkg/enums"

// StatusMapping translates one carrier status code into the internal order
// status plus the carrier's display name for the shipping_info block.
type StatusMapping struct {
	OrderStatus enums.OrderStatus
	DisplayName string
}

// carrierStatuses maps the carrier's tracking vocabulary onto the order
// state machine. Codes the carrier emits between two internal states map to
// the earlier one; an unknown code maps to nothing and the webhook ignores it.
var carrierStatuses = map[string]StatusMapping{
	"ready_to_pick": {enums.OrderStatusProcessing, "Ready to pick"},
	"picking":       {enums.OrderStatusProcessing, "Picking"},
	"picked":        {enums.OrderStatusProcessing, "Picked"},
	"storing":       {enums.OrderStatusShipped, "At sorting hub"},
	"transporting":  {enums.OrderStatusShipped, "In transit"},
	"delivering":    {enums.OrderStatusShipped, "Out for delivery"},
	"delivered":     {enums.OrderStatusDelivered, "Delivered"},
	"cancel":        {enums.OrderStatusCancelled, "Cancelled by carrier"},
}

// StatusFor resolves a carrier status code. The second return is false for
// codes outside the mapping table.
func StatusFor(carrierCode string) (StatusMapping, bool) {
	mapping, ok := carrierStatuses[carrierCode]
	return mapping, ok
}
