package enums

import "fmt"

// ScheduledJobKind names the action a one-shot flash-sale job performs.
type ScheduledJobKind string

const (
	JobKindCampaignStart ScheduledJobKind = "campaign_start"
	JobKindCampaignEnd   ScheduledJobKind = "campaign_end"
)

var validScheduledJobKinds = []ScheduledJobKind{
	JobKindCampaignStart,
	JobKindCampaignEnd,
}

// String implements fmt.Stringer.
func (k ScheduledJobKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ScheduledJobKind.
func (k ScheduledJobKind) IsValid() bool {
	for _, candidate := range validScheduledJobKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseScheduledJobKind converts raw input into a ScheduledJobKind.
func ParseScheduledJobKind(value string) (ScheduledJobKind, error) {
	for _, candidate := range validScheduledJobKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scheduled job kind %q", value)
}
