package outbox

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mercadito/internal/models"
)

func TestNewDeliveredEventDefaults(t *testing.T) {
	orderID := primitive.NewObjectID()
	event := NewDeliveredEvent(orderID)

	if event.Type != EventOrderDelivered {
		t.Fatalf("expected type %s, got %s", EventOrderDelivered, event.Type)
	}
	if event.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", event.Status)
	}
	if event.OrderID != orderID {
		t.Fatal("order id not carried over")
	}
	if event.EventID == "" {
		t.Fatal("expected a generated event id")
	}
	if event.NextAttemptAt.After(time.Now()) {
		t.Fatal("new event should be due immediately")
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 5 * time.Second},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{4, 40 * time.Second},
		{10, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := Backoff(tt.attempts); got != tt.want {
			t.Fatalf("Backoff(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func deliveredOrder() models.Order {
	driverID := primitive.NewObjectID()
	deliveredAt := time.Now()
	return models.Order{
		ID:          primitive.NewObjectID(),
		BuyerID:     primitive.NewObjectID(),
		SellerID:    primitive.NewObjectID(),
		DriverID:    &driverID,
		Status:      models.OrderStatusDelivered,
		DeliveredAt: &deliveredAt,
	}
}

func TestBuildDeliveryNotificationsTwoRows(t *testing.T) {
	order := deliveredOrder()
	notifications := BuildDeliveryNotifications(order)

	if len(notifications) != 2 {
		t.Fatalf("expected exactly 2 notifications, got %d", len(notifications))
	}

	recipients := map[primitive.ObjectID]bool{}
	for _, n := range notifications {
		recipients[n.UserID] = true
		if n.OrderID != order.ID {
			t.Fatal("notification missing order reference")
		}
		if n.Type != models.NotificationTypeOrderDelivered {
			t.Fatalf("unexpected notification type %s", n.Type)
		}
		if n.Seen {
			t.Fatal("new notification must be unseen")
		}
		if n.Data["driverId"] != order.DriverID.Hex() {
			t.Fatal("data payload missing driver id for rating follow-up")
		}
	}
	if !recipients[order.BuyerID] || !recipients[order.SellerID] {
		t.Fatal("expected one notification for the buyer and one for the seller")
	}
}

func TestBuildRatingRecordsFourPendingRows(t *testing.T) {
	order := deliveredOrder()
	ratings := BuildRatingRecords(order)

	if len(ratings) != 4 {
		t.Fatalf("expected 4 rating records, got %d", len(ratings))
	}
	seen := map[models.RatingType]bool{}
	for _, r := range ratings {
		if r.OrderID != order.ID {
			t.Fatal("rating missing order reference")
		}
		if r.Status != models.RatingStatusPending {
			t.Fatalf("expected pending rating, got %s", r.Status)
		}
		if seen[r.RatingType] {
			t.Fatalf("duplicate rating type %s", r.RatingType)
		}
		seen[r.RatingType] = true
	}
}

func TestBuildRatingRecordsNoDriverPair(t *testing.T) {
	order := deliveredOrder()
	order.DriverID = nil

	ratings := BuildRatingRecords(order)
	if len(ratings) != 2 {
		t.Fatalf("expected 2 rating records without a driver, got %d", len(ratings))
	}
}
