package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolationWithoutConstraint(t *testing.T) {
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: carts.user_id")) {
		t.Fatal("expected bare call to recognize a unique violation")
	}
	if IsUniqueViolation(errors.New("connection refused")) {
		t.Fatal("expected bare call to reject unrelated errors")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name: "postgres duplicate key",
			err:  errors.New(`ERROR: duplicate key value violates unique constraint "idx_discounts_code" (SQLSTATE 23505)`),
			want: true,
		},
		{
			name: "sqlite unique constraint",
			err:  errors.New("UNIQUE constraint failed: discount_usages.user_id, discount_usages.discount_id"),
			want: true,
		},
		{
			name:       "named constraint match",
			err:        errors.New(`duplicate key value violates unique constraint "idx_scheduled_jobs_campaign_kind"`),
			constraint: "idx_scheduled_jobs_campaign_kind",
			want:       true,
		},
		{
			name:       "named constraint mismatch",
			err:        errors.New(`duplicate key value violates unique constraint "idx_carts_user"`),
			constraint: "idx_scheduled_jobs_campaign_kind",
			want:       false,
		},
		{
			name: "unrelated error",
			err:  errors.New("connection refused"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Fatalf("IsUniqueViolation(%v, %q) = %v, want %v", tt.err, tt.constraint, got, tt.want)
			}
		})
	}
}
