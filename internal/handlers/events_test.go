package handlers

import (
	"testing"

	"mercadito/internal/models"
	"mercadito/internal/realtime"
)

func TestEventChannelsForRole(t *testing.T) {
	tests := []struct {
		role string
		want []string
	}{
		{models.RoleBuyer, []string{"notify.u1"}},
		{models.RoleDriver, []string{"notify.u1", realtime.DriversChannel()}},
		{models.RoleSeller, []string{"notify.u1", "orders.seller.u1"}},
		{models.RoleAdmin, []string{"notify.u1"}},
	}

	for _, tt := range tests {
		got := eventChannelsForRole("u1", tt.role)
		if len(got) != len(tt.want) {
			t.Fatalf("role %s: expected %d channels, got %d", tt.role, len(tt.want), len(got))
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("role %s: expected channel %q, got %q", tt.role, tt.want[i], got[i])
			}
		}
	}
}
