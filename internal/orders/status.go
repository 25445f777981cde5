package orders

import "github.com/nguyenhuy-dev/storelane-backend/pkg/enums"

// transitions is the full order lifecycle. Absence means rejection;
// cancelled and refunded are terminal.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {enums.OrderStatusCompleted, enums.OrderStatusRefunded},
	enums.OrderStatusCompleted:  {enums.OrderStatusRefunded},
	enums.OrderStatusCancelled:  {},
	enums.OrderStatusRefunded:   {},
}

// CanTransition reports whether from -> to is in the lifecycle table.
// A self-transition is tolerated and handled as a no-op by the caller.
func CanTransition(from, to enums.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// reasonRequired reports whether entering the status demands an operator
// reason. Everywhere else a reason is rejected.
func reasonRequired(to enums.OrderStatus) bool {
	return to == enums.OrderStatusCancelled || to == enums.OrderStatusRefunded
}
