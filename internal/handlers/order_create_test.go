package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mercadito/internal/models"
)

func TestComputeOrderTotals(t *testing.T) {
	items := []models.OrderItem{
		{UnitPrice: 10.00, Quantity: 2, Subtotal: 20.00},
		{UnitPrice: 5.00, Quantity: 3, Subtotal: 15.00},
	}

	subtotal, total := computeOrderTotals(items, 0)
	if subtotal != 35.00 {
		t.Fatalf("expected subtotal 35.00, got %v", subtotal)
	}
	if total != 35.00 {
		t.Fatalf("expected total 35.00 with no delivery fee, got %v", total)
	}

	_, withFee := computeOrderTotals(items, 2.50)
	if withFee != 37.50 {
		t.Fatalf("expected total 37.50 with delivery fee, got %v", withFee)
	}
}

func TestComputeOrderTotalsEmptyCart(t *testing.T) {
	subtotal, total := computeOrderTotals(nil, 2.50)
	if subtotal != 0 {
		t.Fatalf("expected zero subtotal, got %v", subtotal)
	}
	if total != 2.50 {
		t.Fatalf("expected total to equal the delivery fee, got %v", total)
	}
}

func TestNewOrderItemUsesEffectivePrice(t *testing.T) {
	p := models.Product{
		ID:          primitive.NewObjectID(),
		Name:        "Pan integral",
		Price:       4.00,
		SaleEnabled: true,
		SalePrice:   3.00,
	}

	item := newOrderItem(p, 2)
	if item.UnitPrice != 3.00 {
		t.Fatalf("expected sale price 3.00, got %v", item.UnitPrice)
	}
	if item.Subtotal != 6.00 {
		t.Fatalf("expected subtotal 6.00, got %v", item.Subtotal)
	}

	p.SaleEnabled = false
	item = newOrderItem(p, 2)
	if item.UnitPrice != 4.00 || item.Subtotal != 8.00 {
		t.Fatalf("expected list price 4.00/8.00, got %v/%v", item.UnitPrice, item.Subtotal)
	}
}
