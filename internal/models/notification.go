package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationTypeOrderDelivered = "order_delivered"
	NotificationTypeOrderReady     = "order_ready"
	NotificationTypeNewOrder       = "new_order"
)

// Notification is an advisory message written as a side effect of an order
// status change. Rows are append-only; Seen flips when the user lists them.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	OrderID   primitive.ObjectID `bson:"orderId" json:"orderId"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	Data      bson.M             `bson:"data,omitempty" json:"data,omitempty"`
	Seen      bool               `bson:"seen" json:"seen"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
