package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"mercadito/internal/models"
)

const (
	EventOrderDelivered = "order_delivered"

	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"

	// MaxAttempts is how many times a side-effect event is retried before it
	// is parked as failed for manual inspection.
	MaxAttempts = 5
)

// Event is a durable side-effect intent, written in the same transaction as
// the order status change that triggered it.
type Event struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID       string             `bson:"eventId" json:"eventId"`
	OrderID       primitive.ObjectID `bson:"orderId" json:"orderId"`
	Type          string             `bson:"type" json:"type"`
	Status        string             `bson:"status" json:"status"`
	Attempts      int                `bson:"attempts" json:"attempts"`
	NextAttemptAt time.Time          `bson:"nextAttemptAt" json:"nextAttemptAt"`
	LastError     string             `bson:"lastError,omitempty" json:"lastError,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
	ProcessedAt   *time.Time         `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
}

// NewDeliveredEvent builds the pending outbox entry for a delivered order.
func NewDeliveredEvent(orderID primitive.ObjectID) Event {
	now := time.Now()
	return Event{
		EventID:       uuid.NewString(),
		OrderID:       orderID,
		Type:          EventOrderDelivered,
		Status:        StatusPending,
		Attempts:      0,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Backoff returns the retry delay after the given attempt count. Doubles per
// attempt starting at 5s, capped at 5 minutes.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := 5 * time.Second
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= 5*time.Minute {
			return 5 * time.Minute
		}
	}
	return delay
}

// InsertDeliveredEvent records the side-effect intent. Callers invoke it with
// the session context of the delivered transition so the intent commits
// atomically with the status write. A duplicate key means the event already
// exists for this order, which is fine.
func InsertDeliveredEvent(ctx context.Context, db *mongo.Database, orderID primitive.ObjectID) error {
	_, err := db.Collection("order_events").InsertOne(ctx, NewDeliveredEvent(orderID))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// BuildDeliveryNotifications expands a delivered order into the two advisory
// rows written for its buyer and seller. The data payload carries the
// counterpart ids the follow-up rating screen needs.
func BuildDeliveryNotifications(order models.Order) []models.Notification {
	now := time.Now()
	data := bson.M{
		"orderId":  order.ID.Hex(),
		"buyerId":  order.BuyerID.Hex(),
		"sellerId": order.SellerID.Hex(),
	}
	if order.DriverID != nil {
		data["driverId"] = order.DriverID.Hex()
	}

	return []models.Notification{
		{
			UserID:    order.BuyerID,
			OrderID:   order.ID,
			Type:      models.NotificationTypeOrderDelivered,
			Title:     "Order delivered",
			Body:      fmt.Sprintf("Your order %s has been delivered. Rate your experience!", order.ID.Hex()),
			Data:      data,
			Seen:      false,
			CreatedAt: now,
		},
		{
			UserID:    order.SellerID,
			OrderID:   order.ID,
			Type:      models.NotificationTypeOrderDelivered,
			Title:     "Order delivered",
			Body:      fmt.Sprintf("Order %s reached the customer. Rate the delivery!", order.ID.Hex()),
			Data:      data,
			Seen:      false,
			CreatedAt: now,
		},
	}
}

// BuildRatingRecords expands a delivered order into its pending review
// obligations, one per directional pair.
func BuildRatingRecords(order models.Order) []models.Rating {
	now := time.Now()
	pairs := models.RatingPairs(order.BuyerID, order.SellerID, order.DriverID)
	for i := range pairs {
		pairs[i].OrderID = order.ID
		pairs[i].Status = models.RatingStatusPending
		pairs[i].CreatedAt = now
	}
	return pairs
}
