package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusAssigned  OrderStatus = "assigned"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions maps each status to the statuses reachable from it.
// Cancellation is only allowed before a driver is assigned.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusAssigned, OrderStatusCancelled},
	OrderStatusAssigned:  {OrderStatusPickedUp},
	OrderStatusPickedUp:  {OrderStatusInTransit},
	OrderStatusInTransit: {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionTimestampField returns the order field stamped when entering the
// given status, or "" when the status has no dedicated timestamp.
func TransitionTimestampField(status OrderStatus) string {
	switch status {
	case OrderStatusPickedUp:
		return "pickedUpAt"
	case OrderStatusInTransit:
		return "inTransitAt"
	case OrderStatusDelivered:
		return "deliveredAt"
	default:
		return ""
	}
}

// RequiresDriver reports whether the status implies a driver is attached.
// Invariant: driverId is non-nil iff the status is at or past assigned.
func RequiresDriver(status OrderStatus) bool {
	switch status {
	case OrderStatusAssigned, OrderStatusPickedUp, OrderStatusInTransit, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

// ActiveDriverStatuses are the statuses shown in a driver's active queue.
func ActiveDriverStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusAssigned, OrderStatusPickedUp, OrderStatusInTransit}
}

// OrderItem is a single product line within an order. UnitPrice is the price
// actually charged (sale price when the product was on sale at checkout).
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	UnitPrice float64            `bson:"unitPrice" json:"unitPrice"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Subtotal  float64            `bson:"subtotal" json:"subtotal"`
}

// DeliveryAddress is the free-text drop-off location with optional coordinates.
type DeliveryAddress struct {
	Title  string   `bson:"title,omitempty" json:"title,omitempty"`
	Detail string   `bson:"detail" json:"detail"`
	Note   string   `bson:"note,omitempty" json:"note,omitempty"`
	Lat    *float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng    *float64 `bson:"lng,omitempty" json:"lng,omitempty"`
}

// Order is the persisted purchase transaction. Totals are computed server-side
// at checkout and never recomputed afterwards.
type Order struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	BuyerID     primitive.ObjectID  `bson:"buyerId" json:"buyerId"`
	SellerID    primitive.ObjectID  `bson:"sellerId" json:"sellerId"`
	DriverID    *primitive.ObjectID `bson:"driverId" json:"driverId"`
	Items       []OrderItem         `bson:"items" json:"items"`
	Subtotal    float64             `bson:"subtotal" json:"subtotal"`
	DeliveryFee float64             `bson:"deliveryFee" json:"deliveryFee"`
	Total       float64             `bson:"total" json:"total"`
	Address     DeliveryAddress     `bson:"address" json:"address"`
	Status      OrderStatus         `bson:"status" json:"status"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
	PickedUpAt  *time.Time          `bson:"pickedUpAt,omitempty" json:"pickedUpAt,omitempty"`
	InTransitAt *time.Time          `bson:"inTransitAt,omitempty" json:"inTransitAt,omitempty"`
	DeliveredAt *time.Time          `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
}
