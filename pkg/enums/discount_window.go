package enums

// DiscountWindow is the computed position of now relative to a discount's
// validity window.
type DiscountWindow string

const (
	DiscountWindowUpcoming DiscountWindow = "upcoming"
	DiscountWindowOngoing  DiscountWindow = "ongoing"
	DiscountWindowEnded    DiscountWindow = "ended"
)

// String implements fmt.Stringer.
func (d DiscountWindow) String() string {
	return string(d)
}
