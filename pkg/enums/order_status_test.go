package enums

import "testing"

func TestOrderStatusLabels(t *testing.T) {
	tests := []struct {
		status OrderStatus
		label  string
	}{
		{OrderStatusPending, "Awaiting confirmation"},
		{OrderStatusConfirmed, "Confirmed"},
		{OrderStatusProcessing, "Being prepared"},
		{OrderStatusShipped, "Handed to carrier"},
		{OrderStatusDelivered, "Delivered"},
		{OrderStatusCompleted, "Completed"},
		{OrderStatusCancelled, "Cancelled"},
		{OrderStatusRefunded, "Refunded"},
	}

	for _, tt := range tests {
		if got := tt.status.Label(); got != tt.label {
			t.Fatalf("status %s expected label %q got %q", tt.status, tt.label, got)
		}
	}
}

func TestOrderStatusLabelFallsBackToRawValue(t *testing.T) {
	if got := OrderStatus("mystery").Label(); got != "mystery" {
		t.Fatalf("expected raw value fallback, got %q", got)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range validOrderStatuses {
		terminal := status == OrderStatusCancelled || status == OrderStatusRefunded
		if status.IsTerminal() != terminal {
			t.Fatalf("status %s terminal mismatch", status)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, status := range validOrderStatuses {
		parsed, err := ParseOrderStatus(string(status))
		if err != nil {
			t.Fatalf("parse %s: %v", status, err)
		}
		if parsed != status {
			t.Fatalf("expected %s got %s", status, parsed)
		}
	}

	if _, err := ParseOrderStatus("teleported"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}
