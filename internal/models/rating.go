package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RatingType identifies the directional pair of a rating obligation.
type RatingType string

const (
	RatingSellerToDriver RatingType = "seller_to_driver"
	RatingSellerToBuyer  RatingType = "seller_to_buyer"
	RatingBuyerToSeller  RatingType = "buyer_to_seller"
	RatingBuyerToDriver  RatingType = "buyer_to_driver"
)

const (
	RatingStatusPending   = "pending"
	RatingStatusSubmitted = "submitted"
)

// Rating is a pending review obligation between two parties of a delivered
// order. Up to four are created per delivery, one per directional pair.
type Rating struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID     primitive.ObjectID `bson:"orderId" json:"orderId"`
	RaterID     primitive.ObjectID `bson:"raterId" json:"raterId"`
	RateeID     primitive.ObjectID `bson:"rateeId" json:"rateeId"`
	RatingType  RatingType         `bson:"ratingType" json:"ratingType"`
	Score       *int               `bson:"score,omitempty" json:"score,omitempty"`
	Comment     string             `bson:"comment,omitempty" json:"comment,omitempty"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	SubmittedAt *time.Time         `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
}

// RatingPairs expands a delivered order into its review obligations.
// Orders that never had a driver attached yield only the buyer/seller pair.
func RatingPairs(buyerID, sellerID primitive.ObjectID, driverID *primitive.ObjectID) []Rating {
	pairs := []Rating{
		{RaterID: sellerID, RateeID: buyerID, RatingType: RatingSellerToBuyer},
		{RaterID: buyerID, RateeID: sellerID, RatingType: RatingBuyerToSeller},
	}
	if driverID != nil {
		pairs = append(pairs,
			Rating{RaterID: sellerID, RateeID: *driverID, RatingType: RatingSellerToDriver},
			Rating{RaterID: buyerID, RateeID: *driverID, RatingType: RatingBuyerToDriver},
		)
	}
	return pairs
}
