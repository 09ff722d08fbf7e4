package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mercadito/internal/geo"
	"mercadito/internal/models"
	"mercadito/internal/outbox"
	"mercadito/internal/realtime"
)

const (
	availableQueueLimit = 10
	completedQueueLimit = 20
	// proximityFetchLimit is how many ready orders are pulled before the
	// in-memory distance sort trims the page back down.
	proximityFetchLimit = 50
)

// availableOrdersFilter selects ready orders that no driver has claimed yet.
func availableOrdersFilter() bson.M {
	return bson.M{
		"status":   models.OrderStatusReady,
		"driverId": nil,
	}
}

// activeOrdersFilter selects the caller's deliveries still in flight.
func activeOrdersFilter(driverID primitive.ObjectID) bson.M {
	return bson.M{
		"driverId": driverID,
		"status":   bson.M{"$in": models.ActiveDriverStatuses()},
	}
}

// completedOrdersFilter selects the caller's delivered orders.
func completedOrdersFilter(driverID primitive.ObjectID) bson.M {
	return bson.M{
		"driverId": driverID,
		"status":   models.OrderStatusDelivered,
	}
}

// sortOrdersByDistance orders the slice by haversine distance from the given
// point. Orders without coordinates sink to the end, keeping their relative
// recency order.
func sortOrdersByDistance(orders []models.Order, lat, lng float64) {
	sort.SliceStable(orders, func(i, j int) bool {
		di, iOK := orderDistanceKm(orders[i], lat, lng)
		dj, jOK := orderDistanceKm(orders[j], lat, lng)
		if iOK != jOK {
			return iOK
		}
		if !iOK {
			return false
		}
		return di < dj
	})
}

func orderDistanceKm(order models.Order, lat, lng float64) (float64, bool) {
	if order.Address.Lat == nil || order.Address.Lng == nil {
		return 0, false
	}
	return geo.HaversineKm(lat, lng, *order.Address.Lat, *order.Address.Lng), true
}

/*
GET /driver/orders/available
- status=ready, unassigned, newest first, capped at 10
- with ?lat&lng the page is sorted by distance to the driver instead
*/
func GetAvailableOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /driver/orders/available"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		byProximity := latErr == nil && lngErr == nil

		limit := int64(availableQueueLimit)
		if byProximity {
			limit = proximityFetchLimit
		}

		cursor, err := db.Collection("orders").Find(
			ctx,
			availableOrdersFilter(),
			options.Find().
				SetSort(bson.D{{Key: "createdAt", Value: -1}}).
				SetLimit(limit),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0, availableQueueLimit)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		if byProximity {
			sortOrdersByDistance(orders, lat, lng)
			if len(orders) > availableQueueLimit {
				orders = orders[:availableQueueLimit]
			}
		}

		c.JSON(http.StatusOK, orders)
	}
}

// GET /driver/orders/active
func GetActiveOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /driver/orders/active"
		defer handlePanic(c, route)

		driverID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(
			ctx,
			activeOrdersFilter(driverID),
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

// GET /driver/orders/completed
func GetCompletedOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /driver/orders/completed"
		defer handlePanic(c, route)

		driverID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(
			ctx,
			completedOrdersFilter(driverID),
			options.Find().
				SetSort(bson.D{{Key: "deliveredAt", Value: -1}}).
				SetLimit(completedQueueLimit),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0, completedQueueLimit)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

/*
POST /driver/orders/:id/accept
The filter demands status=ready and driverId=null, so when two drivers race
for the same order only the first write matches; the loser gets a 409.
*/
func AcceptOrder(db *mongo.Database, bridge *realtime.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /driver/orders/:id/accept"
		defer handlePanic(c, route)

		driverID, ok := currentUserID(c)
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

		profile, err := loadDriverProfile(ctx, db, driverID)
		if err != nil {
			respondWithError(c, http.StatusForbidden, route, "driver profile not found")
			return
		}
		if !profile.IsVerified {
			respondWithError(c, http.StatusForbidden, route, "driver is not verified")
			return
		}
		if !profile.IsActive {
			respondWithError(c, http.StatusForbidden, route, "driver is offline")
			return
		}

		now := time.Now()
		var order models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			bson.M{
				"_id":      orderID,
				"status":   models.OrderStatusReady,
				"driverId": nil,
			},
			bson.M{"$set": bson.M{
				"status":    models.OrderStatusAssigned,
				"driverId":  driverID,
				"updatedAt": now,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&order)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusConflict, route, "order is no longer available")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		bridge.SellerOrder(ctx, order.SellerID.Hex(), order.ID.Hex(), realtime.EventOrderStatus, string(models.OrderStatusAssigned))

		log.Printf("[DISPATCH] [INFO] order %s accepted by driver %s", order.ID.Hex(), driverID.Hex())
		c.JSON(http.StatusOK, order)
	}
}

// driverTransition performs one conditional step of the delivery leg.
// The expected status and owning driver are part of the filter.
func driverTransition(ctx context.Context, db *mongo.Database, orderID, driverID primitive.ObjectID, from, to models.OrderStatus) (models.Order, error) {
	now := time.Now()
	set := bson.M{
		"status":    to,
		"updatedAt": now,
	}
	if field := models.TransitionTimestampField(to); field != "" {
		set[field] = now
	}

	var order models.Order
	err := db.Collection("orders").FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":      orderID,
			"driverId": driverID,
			"status":   from,
		},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	return order, err
}

// POST /driver/orders/:id/pickup
func MarkPickedUp(db *mongo.Database, bridge *realtime.Bridge) gin.HandlerFunc {
	return driverStepHandler(db, bridge, "POST /driver/orders/:id/pickup",
		models.OrderStatusAssigned, models.OrderStatusPickedUp)
}

// POST /driver/orders/:id/transit
func MarkInTransit(db *mongo.Database, bridge *realtime.Bridge) gin.HandlerFunc {
	return driverStepHandler(db, bridge, "POST /driver/orders/:id/transit",
		models.OrderStatusPickedUp, models.OrderStatusInTransit)
}

func driverStepHandler(db *mongo.Database, bridge *realtime.Bridge, route string, from, to models.OrderStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		driverID, ok := currentUserID(c)
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

		order, err := driverTransition(ctx, db, orderID, driverID, from, to)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusConflict, route, "order is not in the expected status")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		bridge.SellerOrder(ctx, order.SellerID.Hex(), order.ID.Hex(), realtime.EventOrderStatus, string(to))

		log.Printf("[DISPATCH] [INFO] order %s -> %s by driver %s", order.ID.Hex(), to, driverID.Hex())
		c.JSON(http.StatusOK, order)
	}
}

/*
POST /driver/orders/:id/deliver
The status write and the side-effect intent commit in one transaction; the
outbox dispatcher fans out notifications and rating records afterwards.
*/
func MarkDelivered(db *mongo.Database, bridge *realtime.Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /driver/orders/:id/deliver"
		defer handlePanic(c, route)

		driverID, ok := currentUserID(c)
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

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var order models.Order
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			var txErr error
			order, txErr = driverTransition(sessCtx, db, orderID, driverID,
				models.OrderStatusInTransit, models.OrderStatusDelivered)
			if txErr != nil {
				return nil, txErr
			}
			return nil, outbox.InsertDeliveredEvent(sessCtx, db, order.ID)
		})
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusConflict, route, "order is not in the expected status")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		bridge.SellerOrder(ctx, order.SellerID.Hex(), order.ID.Hex(), realtime.EventOrderStatus, string(models.OrderStatusDelivered))

		log.Printf("[DISPATCH] [INFO] order %s delivered by driver %s", order.ID.Hex(), driverID.Hex())
		c.JSON(http.StatusOK, order)
	}
}

func loadDriverProfile(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (models.DriverProfile, error) {
	var profile models.DriverProfile
	err := db.Collection("drivers").FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	return profile, err
}
