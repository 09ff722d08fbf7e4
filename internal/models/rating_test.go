package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRatingPairsWithDriver(t *testing.T) {
	buyer := primitive.NewObjectID()
	seller := primitive.NewObjectID()
	driver := primitive.NewObjectID()

	pairs := RatingPairs(buyer, seller, &driver)
	if len(pairs) != 4 {
		t.Fatalf("expected 4 rating pairs, got %d", len(pairs))
	}

	byType := make(map[RatingType]Rating, len(pairs))
	for _, p := range pairs {
		byType[p.RatingType] = p
	}

	tests := []struct {
		ratingType   RatingType
		rater, ratee primitive.ObjectID
	}{
		{RatingSellerToDriver, seller, driver},
		{RatingSellerToBuyer, seller, buyer},
		{RatingBuyerToSeller, buyer, seller},
		{RatingBuyerToDriver, buyer, driver},
	}
	for _, tt := range tests {
		p, ok := byType[tt.ratingType]
		if !ok {
			t.Fatalf("missing rating pair %s", tt.ratingType)
		}
		if p.RaterID != tt.rater || p.RateeID != tt.ratee {
			t.Fatalf("%s: wrong parties rater=%s ratee=%s", tt.ratingType, p.RaterID.Hex(), p.RateeID.Hex())
		}
	}
}

func TestRatingPairsWithoutDriver(t *testing.T) {
	buyer := primitive.NewObjectID()
	seller := primitive.NewObjectID()

	pairs := RatingPairs(buyer, seller, nil)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 rating pairs without a driver, got %d", len(pairs))
	}
	for _, p := range pairs {
		if p.RatingType == RatingSellerToDriver || p.RatingType == RatingBuyerToDriver {
			t.Fatalf("unexpected driver pair %s", p.RatingType)
		}
	}
}

func TestDeriveDriverStatus(t *testing.T) {
	tests := []struct {
		isActive bool
		active   int64
		want     string
	}{
		{false, 0, DriverStatusOffline},
		{false, 3, DriverStatusOffline},
		{true, 0, DriverStatusAvailable},
		{true, 1, DriverStatusBusy},
	}
	for _, tt := range tests {
		if got := DeriveDriverStatus(tt.isActive, tt.active); got != tt.want {
			t.Fatalf("DeriveDriverStatus(%v, %d) = %q, want %q", tt.isActive, tt.active, got, tt.want)
		}
	}
}
