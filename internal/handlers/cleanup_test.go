package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestRestockQuantitiesAggregatesAcrossSizes(t *testing.T) {
	shirt := primitive.NewObjectID()
	shoes := primitive.NewObjectID()
	items := []models.OrderItem{
		{ProductID: shirt, Quantity: 2, Size: "M"},
		{ProductID: shirt, Quantity: 1, Size: "L"},
		{ProductID: shoes, Quantity: 4},
	}

	got := restockQuantities(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	if got[shirt] != 3 {
		t.Errorf("shirt: expected 3, got %d", got[shirt])
	}
	if got[shoes] != 4 {
		t.Errorf("shoes: expected 4, got %d", got[shoes])
	}
}

func TestRestockQuantitiesEmptyOrder(t *testing.T) {
	if got := restockQuantities(nil); len(got) != 0 {
		t.Fatalf("expected no quantities, got %d", len(got))
	}
}
