package enums

// NotificationTemplate names the outbound message template used when a
// buyer-facing notification is published.
type NotificationTemplate string

const (
	NotificationOrderCreated       NotificationTemplate = "order_created"
	NotificationOrderStatusChanged NotificationTemplate = "order_status_changed"
	NotificationOrderCancelled     NotificationTemplate = "order_cancelled"
)

// String implements fmt.Stringer.
func (n NotificationTemplate) String() string {
	return string(n)
}
