package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DriverStatusAvailable = "available"
	DriverStatusBusy      = "busy"
	DriverStatusOffline   = "offline"
)

// DriverProfile is the dispatch-facing state of a driver. Activity and
// location are set by the driver; verification is an admin gate.
type DriverProfile struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	IsActive   bool               `bson:"isActive" json:"isActive"`
	IsVerified bool               `bson:"isVerified" json:"isVerified"`
	Lat        *float64           `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng        *float64           `bson:"lng,omitempty" json:"lng,omitempty"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DeriveDriverStatus computes the presentation label for a driver. The label
// is not derived from order assignment alone: an active driver with no
// deliveries in flight is available, one with any in flight is busy.
func DeriveDriverStatus(isActive bool, activeDeliveries int64) string {
	if !isActive {
		return DriverStatusOffline
	}
	if activeDeliveries > 0 {
		return DriverStatusBusy
	}
	return DriverStatusAvailable
}
