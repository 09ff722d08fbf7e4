package models

import "testing"

func TestCanTransitionHappyPath(t *testing.T) {
	path := []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusPreparing,
		OrderStatusReady,
		OrderStatusAssigned,
		OrderStatusPickedUp,
		OrderStatusInTransit,
		OrderStatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
	}{
		{OrderStatusPending, OrderStatusReady},
		{OrderStatusReady, OrderStatusPickedUp},
		{OrderStatusAssigned, OrderStatusDelivered},
		{OrderStatusDelivered, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusConfirmed},
		{OrderStatusDelivered, OrderStatusDelivered},
	}
	for _, tt := range tests {
		if CanTransition(tt.from, tt.to) {
			t.Fatalf("expected %s -> %s to be rejected", tt.from, tt.to)
		}
	}
}

func TestCancelOnlyBeforeAssignment(t *testing.T) {
	cancellable := []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady}
	for _, from := range cancellable {
		if !CanTransition(from, OrderStatusCancelled) {
			t.Fatalf("expected cancel to be allowed from %s", from)
		}
	}
	locked := []OrderStatus{OrderStatusAssigned, OrderStatusPickedUp, OrderStatusInTransit, OrderStatusDelivered}
	for _, from := range locked {
		if CanTransition(from, OrderStatusCancelled) {
			t.Fatalf("expected cancel to be rejected from %s", from)
		}
	}
}

func TestTransitionTimestampField(t *testing.T) {
	tests := []struct {
		status OrderStatus
		field  string
	}{
		{OrderStatusPickedUp, "pickedUpAt"},
		{OrderStatusInTransit, "inTransitAt"},
		{OrderStatusDelivered, "deliveredAt"},
		{OrderStatusConfirmed, ""},
		{OrderStatusCancelled, ""},
	}
	for _, tt := range tests {
		if got := TransitionTimestampField(tt.status); got != tt.field {
			t.Fatalf("TransitionTimestampField(%s) = %q, want %q", tt.status, got, tt.field)
		}
	}
}

func TestRequiresDriverMatchesAssignmentInvariant(t *testing.T) {
	withDriver := []OrderStatus{OrderStatusAssigned, OrderStatusPickedUp, OrderStatusInTransit, OrderStatusDelivered}
	for _, status := range withDriver {
		if !RequiresDriver(status) {
			t.Fatalf("expected %s to require a driver", status)
		}
	}
	withoutDriver := []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady, OrderStatusCancelled}
	for _, status := range withoutDriver {
		if RequiresDriver(status) {
			t.Fatalf("expected %s to not require a driver", status)
		}
	}
}
