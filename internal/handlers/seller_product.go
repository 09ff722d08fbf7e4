package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mercadito/internal/models"
)

type createProductRequest struct {
	Name          string     `json:"name" binding:"required"`
	Price         float64    `json:"price" binding:"required"`
	SaleEnabled   bool       `json:"saleEnabled"`
	SalePrice     *float64   `json:"salePrice"`
	CategoryIDs   []string   `json:"categoryIds" binding:"required"`
	Description   string     `json:"description"`
	Stock         *int       `json:"stock" binding:"required"`
	IsDaily       bool       `json:"isDaily"`
	AvailableDate *time.Time `json:"availableDate"`
}

type updateProductRequest struct {
	Name          *string    `json:"name"`
	Price         *float64   `json:"price"`
	SaleEnabled   *bool      `json:"saleEnabled"`
	SalePrice     *float64   `json:"salePrice"`
	CategoryIDs   *[]string  `json:"categoryIds"`
	Description   *string    `json:"description"`
	Stock         *int       `json:"stock"`
	IsActive      *bool      `json:"isActive"`
	IsDaily       *bool      `json:"isDaily"`
	AvailableDate *time.Time `json:"availableDate"`
}

// resolveCategoryNames maps category ids to their stored names, preserving
// request order and dropping duplicates.
func resolveCategoryNames(ctx context.Context, db *mongo.Database, ids []string) ([]string, error) {
	seen := map[primitive.ObjectID]struct{}{}
	ordered := make([]primitive.ObjectID, 0, len(ids))

	for _, raw := range ids {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		objectID, err := primitive.ObjectIDFromHex(value)
		if err != nil {
			return nil, fmt.Errorf("invalid categoryId: %s", value)
		}
		if _, ok := seen[objectID]; ok {
			continue
		}
		seen[objectID] = struct{}{}
		ordered = append(ordered, objectID)
	}

	if len(ordered) == 0 {
		return nil, errors.New("categoryIds required")
	}

	cursor, err := db.Collection("categories").Find(ctx, bson.M{"_id": bson.M{"$in": ordered}})
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}

	nameByID := make(map[primitive.ObjectID]string, len(categories))
	for _, category := range categories {
		nameByID[category.ID] = category.Name
	}

	names := make([]string, 0, len(ordered))
	for _, objectID := range ordered {
		name, ok := nameByID[objectID]
		if !ok {
			return nil, fmt.Errorf("category not found: %s", objectID.Hex())
		}
		names = append(names, name)
	}
	return names, nil
}

// GetSellerProducts lists the caller's own catalog, deleted entries excluded.
func GetSellerProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /seller/products"
		defer handlePanic(c, route)

		sellerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(
			ctx,
			bson.M{
				"sellerId":  sellerID,
				"isDeleted": bson.M{"$ne": true},
			},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /seller/products"
		defer handlePanic(c, route)

		sellerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}
		if req.Price <= 0 {
			respondWithError(c, http.StatusBadRequest, route, "invalid price")
			return
		}
		if *req.Stock < 0 {
			respondWithError(c, http.StatusBadRequest, route, "stock must be zero or greater")
			return
		}

		salePrice := 0.0
		if req.SalePrice != nil {
			salePrice = *req.SalePrice
		}
		if err := validateSaleFields(req.Price, req.SaleEnabled, salePrice, req.SalePrice != nil); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if req.IsDaily && req.AvailableDate == nil {
			respondWithError(c, http.StatusBadRequest, route, "availableDate required for daily products")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		categoryNames, err := resolveCategoryNames(ctx, db, req.CategoryIDs)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		now := time.Now()
		product := models.Product{
			SellerID:      sellerID,
			Name:          name,
			Price:         req.Price,
			SaleEnabled:   req.SaleEnabled,
			SalePrice:     salePrice,
			IsOnSale:      isProductOnSale(req.Price, req.SaleEnabled, salePrice),
			Category:      models.StringList(categoryNames),
			Description:   strings.TrimSpace(req.Description),
			Stock:         *req.Stock,
			InStock:       *req.Stock > 0,
			IsActive:      true,
			IsDaily:       req.IsDaily,
			AvailableDate: req.AvailableDate,
			CreatedAt:     now,
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			log.Println("[PRODUCT] [ERROR] insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product.ID = res.InsertedID.(primitive.ObjectID)
		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /seller/products/:id"
		defer handlePanic(c, route)

		sellerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		ownerFilter := bson.M{
			"_id":       id,
			"sellerId":  sellerID,
			"isDeleted": bson.M{"$ne": true},
		}

		var existing models.Product
		if err := db.Collection("products").FindOne(ctx, ownerFilter).Decode(&existing); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		updateSet := bson.M{}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name required")
				return
			}
			updateSet["name"] = name
		}
		if req.Price != nil {
			if *req.Price <= 0 {
				respondWithError(c, http.StatusBadRequest, route, "invalid price")
				return
			}
			updateSet["price"] = *req.Price
		}
		if req.Price != nil || req.SaleEnabled != nil || req.SalePrice != nil {
			price := existing.Price
			if req.Price != nil {
				price = *req.Price
			}
			saleEnabled := existing.SaleEnabled
			if req.SaleEnabled != nil {
				saleEnabled = *req.SaleEnabled
			}
			salePrice := existing.SalePrice
			if req.SalePrice != nil {
				salePrice = *req.SalePrice
			}
			if err := validateSaleFields(price, saleEnabled, salePrice, salePrice > 0); err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			updateSet["saleEnabled"] = saleEnabled
			updateSet["salePrice"] = salePrice
		}
		if req.CategoryIDs != nil {
			categoryNames, err := resolveCategoryNames(ctx, db, *req.CategoryIDs)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			updateSet["category"] = models.StringList(categoryNames)
		}
		if req.Description != nil {
			updateSet["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				respondWithError(c, http.StatusBadRequest, route, "stock must be zero or greater")
				return
			}
			updateSet["stock"] = *req.Stock
		}
		if req.IsActive != nil {
			updateSet["isActive"] = *req.IsActive
		}
		if req.IsDaily != nil {
			updateSet["isDaily"] = *req.IsDaily
		}
		if req.AvailableDate != nil {
			updateSet["availableDate"] = *req.AvailableDate
		}

		if len(updateSet) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		var updated models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			ownerFilter,
			bson.M{"$set": updateSet},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		updated.InStock = updated.Stock > 0
		updated.IsOnSale = isProductOnSale(updated.Price, updated.SaleEnabled, updated.SalePrice)
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteProduct soft-deletes: the document stays so past order items keep a
// valid product reference.
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /seller/products/:id"
		defer handlePanic(c, route)

		sellerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").UpdateOne(
			ctx,
			bson.M{
				"_id":       id,
				"sellerId":  sellerID,
				"isDeleted": bson.M{"$ne": true},
			},
			bson.M{"$set": bson.M{
				"isDeleted": true,
				"deletedAt": time.Now(),
				"isActive":  false,
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
