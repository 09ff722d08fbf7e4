package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mercadito/internal/models"
)

func TestAvailableOrdersFilterShape(t *testing.T) {
	filter := availableOrdersFilter()
	if filter["status"] != models.OrderStatusReady {
		t.Fatalf("expected status ready, got %v", filter["status"])
	}
	if driverID, ok := filter["driverId"]; !ok || driverID != nil {
		t.Fatalf("expected driverId null in filter, got %v", driverID)
	}
}

func TestActiveOrdersFilterCoversInFlightStatuses(t *testing.T) {
	driverID := primitive.NewObjectID()
	filter := activeOrdersFilter(driverID)
	if filter["driverId"] != driverID {
		t.Fatalf("expected driverId %v, got %v", driverID, filter["driverId"])
	}

	in, ok := filter["status"].(bson.M)
	if !ok {
		t.Fatalf("expected status $in clause, got %T", filter["status"])
	}
	statuses, ok := in["$in"].([]models.OrderStatus)
	if !ok {
		t.Fatalf("expected []models.OrderStatus, got %T", in["$in"])
	}
	want := map[models.OrderStatus]bool{
		models.OrderStatusAssigned:  true,
		models.OrderStatusPickedUp:  true,
		models.OrderStatusInTransit: true,
	}
	if len(statuses) != len(want) {
		t.Fatalf("expected %d active statuses, got %d", len(want), len(statuses))
	}
	for _, s := range statuses {
		if !want[s] {
			t.Fatalf("unexpected active status %q", s)
		}
	}
}

func TestCompletedOrdersFilterShape(t *testing.T) {
	driverID := primitive.NewObjectID()
	filter := completedOrdersFilter(driverID)
	if filter["status"] != models.OrderStatusDelivered {
		t.Fatalf("expected status delivered, got %v", filter["status"])
	}
	if filter["driverId"] != driverID {
		t.Fatalf("expected driverId %v, got %v", driverID, filter["driverId"])
	}
}

func TestQueueLimits(t *testing.T) {
	if availableQueueLimit != 10 {
		t.Fatalf("expected available queue cap 10, got %d", availableQueueLimit)
	}
	if completedQueueLimit != 20 {
		t.Fatalf("expected completed queue cap 20, got %d", completedQueueLimit)
	}
}

func orderAt(lat, lng float64) models.Order {
	return models.Order{
		ID:      primitive.NewObjectID(),
		Address: models.DeliveryAddress{Lat: &lat, Lng: &lng},
	}
}

func TestSortOrdersByDistance(t *testing.T) {
	far := orderAt(41.0, 29.0)
	near := orderAt(40.01, 29.0)
	mid := orderAt(40.2, 29.0)

	orders := []models.Order{far, near, mid}
	sortOrdersByDistance(orders, 40.0, 29.0)

	if orders[0].ID != near.ID || orders[1].ID != mid.ID || orders[2].ID != far.ID {
		t.Fatal("expected orders sorted nearest first")
	}
}

func TestSortOrdersByDistanceMissingCoordinatesSink(t *testing.T) {
	noCoords := models.Order{ID: primitive.NewObjectID()}
	near := orderAt(40.01, 29.0)

	orders := []models.Order{noCoords, near}
	sortOrdersByDistance(orders, 40.0, 29.0)

	if orders[0].ID != near.ID {
		t.Fatal("expected order without coordinates at the end")
	}
	if orders[1].ID != noCoords.ID {
		t.Fatal("expected order without coordinates to keep its slot at the end")
	}
}
