package outbox

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mercadito/internal/models"
	"mercadito/internal/realtime"
)

// Dispatcher drains pending side-effect events. Claims are compare-and-swap
// status updates, so running more than one instance is safe.
type Dispatcher struct {
	db       *mongo.Database
	bridge   *realtime.Bridge
	interval time.Duration
}

func NewDispatcher(db *mongo.Database, bridge *realtime.Bridge, interval time.Duration) *Dispatcher {
	return &Dispatcher{db: db, bridge: bridge, interval: interval}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Println("[OUTBOX] [INFO] dispatcher started, interval:", d.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[OUTBOX] [INFO] dispatcher stopped")
			return
		case <-ticker.C:
			for d.processOne(ctx) {
			}
		}
	}
}

// processOne claims and handles a single due event. Returns true when an
// event was claimed, so the caller can drain the backlog within one tick.
func (d *Dispatcher) processOne(ctx context.Context) bool {
	claimCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	var event Event
	err := d.db.Collection("order_events").FindOneAndUpdate(
		claimCtx,
		bson.M{
			"status":        StatusPending,
			"nextAttemptAt": bson.M{"$lte": now},
		},
		bson.M{"$set": bson.M{"status": StatusProcessing, "updatedAt": now}},
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "nextAttemptAt", Value: 1}}).
			SetReturnDocument(options.After),
	).Decode(&event)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			log.Println("[OUTBOX] [ERROR] claim failed:", err)
		}
		return false
	}

	if err := d.handle(claimCtx, event); err != nil {
		log.Printf("[OUTBOX] [ERROR] event %s attempt %d failed: %v", event.EventID, event.Attempts+1, err)
		d.reschedule(claimCtx, event, err)
		return true
	}

	processedAt := time.Now()
	_, err = d.db.Collection("order_events").UpdateByID(claimCtx, event.ID, bson.M{
		"$set": bson.M{
			"status":      StatusDone,
			"processedAt": processedAt,
			"updatedAt":   processedAt,
		},
	})
	if err != nil {
		log.Println("[OUTBOX] [ERROR] mark done failed:", err)
	}
	log.Printf("[OUTBOX] [INFO] event %s processed for order %s", event.EventID, event.OrderID.Hex())
	return true
}

func (d *Dispatcher) handle(ctx context.Context, event Event) error {
	switch event.Type {
	case EventOrderDelivered:
		return d.handleDelivered(ctx, event)
	default:
		// Unknown types are not retried; they would never succeed.
		log.Println("[OUTBOX] [ERROR] unknown event type:", event.Type)
		return nil
	}
}

func (d *Dispatcher) handleDelivered(ctx context.Context, event Event) error {
	var order models.Order
	err := d.db.Collection("orders").FindOne(ctx, bson.M{"_id": event.OrderID}).Decode(&order)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusDelivered {
		// Stale intent; nothing to fan out.
		log.Printf("[OUTBOX] [INFO] order %s no longer delivered, skipping", event.OrderID.Hex())
		return nil
	}

	// Unique indexes make both inserts idempotent: a replayed event hits
	// duplicate keys instead of doubling rows.
	for _, notification := range BuildDeliveryNotifications(order) {
		if _, err := d.db.Collection("notifications").InsertOne(ctx, notification); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return err
		}
		d.bridge.Notify(ctx, notification.UserID.Hex(), realtime.Event{
			OrderID: order.ID.Hex(),
			Title:   notification.Title,
			Body:    notification.Body,
		})
	}

	for _, rating := range BuildRatingRecords(order) {
		if _, err := d.db.Collection("ratings").InsertOne(ctx, rating); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return err
		}
	}

	return nil
}

func (d *Dispatcher) reschedule(ctx context.Context, event Event, cause error) {
	attempts := event.Attempts + 1
	update := bson.M{
		"attempts":  attempts,
		"lastError": cause.Error(),
		"updatedAt": time.Now(),
	}
	if attempts >= MaxAttempts {
		update["status"] = StatusFailed
		log.Printf("[OUTBOX] [ERROR] event %s parked as failed after %d attempts", event.EventID, attempts)
	} else {
		update["status"] = StatusPending
		update["nextAttemptAt"] = time.Now().Add(Backoff(attempts))
	}

	if _, err := d.db.Collection("order_events").UpdateByID(ctx, event.ID, bson.M{"$set": update}); err != nil {
		log.Println("[OUTBOX] [ERROR] reschedule failed:", err)
	}
}
