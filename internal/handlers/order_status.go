package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mercadito/internal/models"
	"mercadito/internal/realtime"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// sellerExpectedStatus maps a seller-reachable target status to the status
// the order must currently hold. The expected status goes into the update
// filter, so the check-and-set happens in a single conditional write.
func sellerExpectedStatus(target models.OrderStatus) (models.OrderStatus, bool) {
	switch target {
	case models.OrderStatusConfirmed:
		return models.OrderStatusPending, true
	case models.OrderStatusPreparing:
		return models.OrderStatusConfirmed, true
	case models.OrderStatusReady:
		return models.OrderStatusPreparing, true
	default:
		return "", false
	}
}

// UpdateOrderStatus moves an order along the seller-owned stretch of the
// lifecycle: pending -> confirmed -> preparing -> ready.
func UpdateOrderStatus(db *mongo.Database, bridge *realtime.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /seller/orders/:id/status"
		defer handlePanic(c, route)

		sellerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		target := models.OrderStatus(req.Status)
		expected, ok := sellerExpectedStatus(target)
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "invalid target status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		var order models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			bson.M{
				"_id":      orderID,
				"sellerId": sellerID,
				"status":   expected,
			},
			bson.M{"$set": bson.M{
				"status":    target,
				"updatedAt": now,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&order)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusConflict, route, "order is not in the expected status")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if target == models.OrderStatusReady {
			// Announce on the shared driver feed so the available queue
			// refreshes without waiting for the next poll.
			bridge.OrderReady(ctx, order.ID.Hex())
		}
		bridge.SellerOrder(ctx, sellerID.Hex(), order.ID.Hex(), realtime.EventOrderStatus, string(target))

		log.Printf("[ORDER] [INFO] order %s -> %s by seller %s", order.ID.Hex(), target, sellerID.Hex())
		c.JSON(http.StatusOK, order)
	}
}

// CancelOrder cancels an order before a driver is assigned. Buyers and
// sellers may cancel; the pre-assignment window is enforced in the filter.
func CancelOrder(db *mongo.Database, bridge *realtime.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/cancel"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cancellable := []models.OrderStatus{
			models.OrderStatusPending,
			models.OrderStatusConfirmed,
			models.OrderStatusPreparing,
			models.OrderStatusReady,
		}

		var order models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			bson.M{
				"_id":    orderID,
				"status": bson.M{"$in": cancellable},
				"$or": []bson.M{
					{"buyerId": userID},
					{"sellerId": userID},
				},
			},
			bson.M{"$set": bson.M{
				"status":    models.OrderStatusCancelled,
				"updatedAt": time.Now(),
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&order)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusConflict, route, "order can no longer be cancelled")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		bridge.SellerOrder(ctx, order.SellerID.Hex(), order.ID.Hex(), realtime.EventOrderStatus, string(models.OrderStatusCancelled))

		log.Printf("[ORDER] [INFO] order %s cancelled by %s", order.ID.Hex(), userID.Hex())
		c.JSON(http.StatusOK, order)
	}
}
