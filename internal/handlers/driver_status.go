package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mercadito/internal/models"
	"mercadito/internal/realtime"
)

type driverStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type driverLocationRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// SetDriverStatus toggles the driver's availability. Going active starts a
// presence heartbeat; going offline drops the marker right away.
func SetDriverStatus(db *mongo.Database, bridge *realtime.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /driver/status"
		defer handlePanic(c, route)

		driverID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req driverStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err := db.Collection("drivers").UpdateOne(
			ctx,
			bson.M{"userId": driverID},
			bson.M{
				"$set": bson.M{
					"isActive":  *req.IsActive,
					"updatedAt": time.Now(),
				},
				"$setOnInsert": bson.M{"userId": driverID},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if *req.IsActive {
			if err := bridge.Heartbeat(ctx, driverID.Hex()); err != nil {
				log.Println("[DRIVER] [WARN] presence heartbeat failed:", err)
			}
		} else {
			if err := bridge.ClearPresence(ctx, driverID.Hex()); err != nil {
				log.Println("[DRIVER] [WARN] presence clear failed:", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"isActive": *req.IsActive})
	}
}

// UpdateDriverLocation stores the driver's last known coordinates and
// refreshes the presence marker.
func UpdateDriverLocation(db *mongo.Database, bridge *realtime.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /driver/location"
		defer handlePanic(c, route)

		driverID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req driverLocationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("drivers").UpdateOne(
			ctx,
			bson.M{"userId": driverID},
			bson.M{"$set": bson.M{
				"lat":       *req.Lat,
				"lng":       *req.Lng,
				"updatedAt": time.Now(),
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "driver profile not found")
			return
		}

		if err := bridge.Heartbeat(ctx, driverID.Hex()); err != nil {
			log.Println("[DRIVER] [WARN] presence heartbeat failed:", err)
		}

		c.JSON(http.StatusOK, gin.H{"message": "location updated"})
	}
}

// GetDriverMe returns the driver's profile with the derived status label.
func GetDriverMe(db *mongo.Database, bridge *realtime.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /driver/me"
		defer handlePanic(c, route)

		driverID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		profile, err := loadDriverProfile(ctx, db, driverID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "driver profile not found")
			return
		}

		activeDeliveries, err := db.Collection("orders").CountDocuments(ctx, activeOrdersFilter(driverID))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		online, err := bridge.IsOnline(ctx, driverID.Hex())
		if err != nil {
			log.Println("[DRIVER] [WARN] presence lookup failed:", err)
			online = profile.IsActive
		}

		c.JSON(http.StatusOK, gin.H{
			"profile":          profile,
			"status":           models.DeriveDriverStatus(profile.IsActive, activeDeliveries),
			"online":           online,
			"activeDeliveries": activeDeliveries,
		})
	}
}
