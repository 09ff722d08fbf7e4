package handlers

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"mercadito/internal/models"
)

// buildProductFilter assembles the catalog query: active, not deleted,
// category equality, and a case-insensitive search over name or description.
func buildProductFilter(search, category string) bson.M {
	filter := bson.M{
		"isActive":  bson.M{"$ne": false},
		"isDeleted": bson.M{"$ne": true},
	}

	if category = strings.TrimSpace(category); category != "" {
		filter["category"] = bson.M{"$in": []string{category}}
	}

	if search = strings.TrimSpace(search); search != "" {
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": search, "$options": "i"}},
			{"description": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	return filter
}

// matchesProductQuery mirrors buildProductFilter for in-memory lists: the
// product matches when its name or description contains the query
// (case-insensitive) and its category equals the requested one.
func matchesProductQuery(p models.Product, search, category string) bool {
	if category = strings.TrimSpace(category); category != "" {
		if !p.Category.Contains(category) {
			return false
		}
	}

	if search = strings.TrimSpace(search); search != "" {
		query := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			return false
		}
	}

	return true
}
