package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := db.Collection("users").Indexes().CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		// Available queue: status=ready with no driver, newest first.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "driverId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("status_driver_created"),
		},
		// Active/completed queues for a driver.
		{
			Keys:    bson.D{{Key: "driverId", Value: 1}, {Key: "status", Value: 1}, {Key: "deliveredAt", Value: -1}},
			Options: options.Index().SetName("driver_status_delivered"),
		},
		{
			Keys:    bson.D{{Key: "buyerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("buyer_created"),
		},
		{
			Keys:    bson.D{{Key: "sellerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("seller_created"),
		},
	}

	log.Println("EnsureOrderIndexes: creating order queue indexes")
	_, err := db.Collection("orders").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureOrderIndexes: order index error:", err)
		return err
	}
	return nil
}

// EnsureNotificationIndexes makes delivery side-effect replays idempotent:
// the outbox dispatcher may process the same event more than once, and the
// unique key turns the second insert into a duplicate-key no-op.
func EnsureNotificationIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "seen", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_seen_created"),
		},
		{
			Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "type", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().
				SetName("order_type_user_unique").
				SetUnique(true),
		},
	}

	log.Println("EnsureNotificationIndexes: creating notification indexes")
	_, err := db.Collection("notifications").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureNotificationIndexes: notification index error:", err)
		return err
	}
	return nil
}

// EnsureRatingIndexes guarantees at most one rating row per (order, pair),
// so a replayed delivered event cannot double the review obligations.
func EnsureRatingIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ratingIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "ratingType", Value: 1}},
		Options: options.Index().
			SetName("order_ratingType_unique").
			SetUnique(true),
	}

	log.Println("EnsureRatingIndexes: creating order_ratingType_unique index")
	_, err := db.Collection("ratings").Indexes().CreateOne(ctx, ratingIndex)
	if err != nil {
		log.Println("EnsureRatingIndexes: rating index error:", err)
		return err
	}
	return nil
}

func EnsureOutboxIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "nextAttemptAt", Value: 1}},
			Options: options.Index().SetName("status_nextAttempt"),
		},
		{
			Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().
				SetName("order_event_unique").
				SetUnique(true),
		},
	}

	log.Println("EnsureOutboxIndexes: creating order_events indexes")
	_, err := db.Collection("order_events").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureOutboxIndexes: outbox index error:", err)
		return err
	}
	return nil
}

func EnsureDriverIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	driverIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().
			SetName("userId_unique").
			SetUnique(true),
	}

	log.Println("EnsureDriverIndexes: creating userId_unique index")
	_, err := db.Collection("drivers").Indexes().CreateOne(ctx, driverIndex)
	if err != nil {
		log.Println("EnsureDriverIndexes: driver index error:", err)
		return err
	}
	return nil
}
