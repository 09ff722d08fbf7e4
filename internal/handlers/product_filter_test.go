package handlers

import (
	"testing"

	"mercadito/internal/models"
)

func product(name, description string, categories ...string) models.Product {
	return models.Product{
		Name:        name,
		Description: description,
		Category:    models.StringList(categories),
	}
}

func TestMatchesProductQueryNameAndCategory(t *testing.T) {
	p := product("Pizza Margarita", "Pizza artesanal con albahaca", "Comida")

	if !matchesProductQuery(p, "pizza", "Comida") {
		t.Fatal("expected case-insensitive name match with matching category")
	}
	if !matchesProductQuery(p, "PIZZA", "Comida") {
		t.Fatal("expected upper-case query to match")
	}
	if matchesProductQuery(p, "pizza", "Bebidas") {
		t.Fatal("expected category mismatch to exclude product")
	}
	if matchesProductQuery(p, "sushi", "Comida") {
		t.Fatal("expected non-matching query to exclude product")
	}
}

func TestMatchesProductQueryDescriptionFallback(t *testing.T) {
	p := product("Combo familiar", "Dos pizzas grandes y una bebida", "Comida")

	if !matchesProductQuery(p, "pizza", "Comida") {
		t.Fatal("expected description to be searched as well")
	}
}

func TestMatchesProductQueryEmptyFilters(t *testing.T) {
	p := product("Empanadas", "Docena de empanadas", "Comida")

	if !matchesProductQuery(p, "", "") {
		t.Fatal("empty filters should match everything")
	}
	if !matchesProductQuery(p, "  ", "") {
		t.Fatal("whitespace-only query should be ignored")
	}
}

func TestBuildProductFilterShape(t *testing.T) {
	filter := buildProductFilter("pizza", "Comida")

	if _, ok := filter["$or"]; !ok {
		t.Fatal("expected $or clause for name/description search")
	}
	if _, ok := filter["category"]; !ok {
		t.Fatal("expected category clause")
	}

	bare := buildProductFilter("", "")
	if _, ok := bare["$or"]; ok {
		t.Fatal("empty search must not add an $or clause")
	}
	if _, ok := bare["category"]; ok {
		t.Fatal("empty category must not add a category clause")
	}
}
