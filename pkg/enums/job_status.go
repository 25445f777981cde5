package enums

import "fmt"

// ScheduledJobStatus tracks the one-way lifecycle of a persisted job.
// A job only ever moves scheduled -> completed or scheduled -> failed.
type ScheduledJobStatus string

const (
	JobStatusScheduled ScheduledJobStatus = "scheduled"
	JobStatusCompleted ScheduledJobStatus = "completed"
	JobStatusFailed    ScheduledJobStatus = "failed"
)

var validScheduledJobStatuses = []ScheduledJobStatus{
	JobStatusScheduled,
	JobStatusCompleted,
	JobStatusFailed,
}

// String implements fmt.Stringer.
func (s ScheduledJobStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScheduledJobStatus.
func (s ScheduledJobStatus) IsValid() bool {
	for _, candidate := range validScheduledJobStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScheduledJobStatus converts raw input into a ScheduledJobStatus.
func ParseScheduledJobStatus(value string) (ScheduledJobStatus, error) {
	for _, candidate := range validScheduledJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scheduled job status %q", value)
}
