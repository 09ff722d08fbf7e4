package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"mercadito/internal/models"
	"mercadito/internal/realtime"
)

type createOrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type createOrderAddressRequest struct {
	Title  string   `json:"title"`
	Detail string   `json:"detail"`
	Note   string   `json:"note"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
}

type createOrderRequest struct {
	Items     []createOrderItemRequest  `json:"items" binding:"required"`
	AddressID string                    `json:"addressId"`
	Address   createOrderAddressRequest `json:"address"`
}

// computeOrderTotals sums the line subtotals and adds the delivery fee.
// Totals are fixed here at checkout and never recomputed later.
func computeOrderTotals(items []models.OrderItem, deliveryFee float64) (subtotal, total float64) {
	for _, item := range items {
		subtotal += item.Subtotal
	}
	return subtotal, subtotal + deliveryFee
}

func newOrderItem(product models.Product, quantity int) models.OrderItem {
	unitPrice := effectiveProductPrice(product.Price, product.SaleEnabled, product.SalePrice)
	return models.OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Subtotal:  unitPrice * float64(quantity),
	}
}

type outOfStockError struct {
	ProductID primitive.ObjectID
	Available int
	Requested int
}

func (e outOfStockError) Error() string {
	return "product out of stock"
}

type productNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e productNotFoundError) Error() string {
	return "product not found"
}

type mixedSellerError struct{}

func (e mixedSellerError) Error() string {
	return "items must belong to a single seller"
}

func CreateOrder(db *mongo.Database, bridge *realtime.Bridge, deliveryFee float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		buyerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if len(req.Items) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "at least one item is required")
			return
		}
		for _, item := range req.Items {
			if item.Quantity <= 0 {
				respondWithError(c, http.StatusBadRequest, route, "quantity must be greater than zero")
				return
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		address, err := resolveDeliveryAddress(ctx, db, buyerID, req)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		now := time.Now()
		order := models.Order{
			BuyerID:     buyerID,
			DriverID:    nil,
			Address:     address,
			DeliveryFee: deliveryFee,
			Status:      models.OrderStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		var orderID primitive.ObjectID
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			items := make([]models.OrderItem, 0, len(req.Items))
			var sellerID primitive.ObjectID

			for _, item := range req.Items {
				productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
				if err != nil {
					return nil, errors.New("invalid productId")
				}

				var product models.Product
				err = db.Collection("products").FindOne(
					sessCtx,
					bson.M{
						"_id":       productID,
						"isDeleted": bson.M{"$ne": true},
					},
				).Decode(&product)
				if err == mongo.ErrNoDocuments {
					return nil, productNotFoundError{ProductID: productID}
				}
				if err != nil {
					return nil, err
				}

				if sellerID.IsZero() {
					sellerID = product.SellerID
				} else if sellerID != product.SellerID {
					return nil, mixedSellerError{}
				}

				if product.Stock < item.Quantity {
					return nil, outOfStockError{
						ProductID: productID,
						Available: product.Stock,
						Requested: item.Quantity,
					}
				}

				// Conditional decrement: the stock guard re-checks under the
				// transaction so two concurrent checkouts cannot oversell.
				filter := bson.M{
					"_id":       productID,
					"isDeleted": bson.M{"$ne": true},
					"stock":     bson.M{"$gte": item.Quantity},
				}
				update := bson.M{"$inc": bson.M{"stock": -item.Quantity}}

				res, err := db.Collection("products").UpdateOne(sessCtx, filter, update)
				if err != nil {
					return nil, err
				}
				if res.MatchedCount == 0 {
					return nil, outOfStockError{
						ProductID: productID,
						Available: product.Stock,
						Requested: item.Quantity,
					}
				}

				items = append(items, newOrderItem(product, item.Quantity))
			}

			order.Items = items
			order.SellerID = sellerID
			order.Subtotal, order.Total = computeOrderTotals(items, deliveryFee)

			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				orderID = id
			}
			return nil, nil
		})
		if err != nil {
			var stockErr outOfStockError
			if errors.As(err, &stockErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "insufficient stock",
					"productId": stockErr.ProductID.Hex(),
					"available": stockErr.Available,
					"requested": stockErr.Requested,
				})
				return
			}
			var notFoundErr productNotFoundError
			if errors.As(err, &notFoundErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "product not found",
					"productId": notFoundErr.ProductID.Hex(),
				})
				return
			}
			var sellerErr mixedSellerError
			if errors.As(err, &sellerErr) {
				respondWithError(c, http.StatusBadRequest, route, sellerErr.Error())
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		order.ID = orderID

		// Advisory fan-out; the order is already committed.
		sellerNotification := models.Notification{
			UserID:    order.SellerID,
			OrderID:   orderID,
			Type:      models.NotificationTypeNewOrder,
			Title:     "New order",
			Body:      "You have a new order waiting for confirmation.",
			Data:      bson.M{"orderId": orderID.Hex(), "buyerId": buyerID.Hex()},
			Seen:      false,
			CreatedAt: time.Now(),
		}
		if _, err := db.Collection("notifications").InsertOne(ctx, sellerNotification); err != nil {
			log.Println("[ORDER] [ERROR] seller notification insert failed:", err)
		}
		bridge.SellerOrder(ctx, order.SellerID.Hex(), orderID.Hex(), realtime.EventNewOrder, string(order.Status))

		log.Println("[ORDER] [INFO] order created:", orderID.Hex(), "buyer:", buyerID.Hex())
		c.JSON(http.StatusCreated, gin.H{
			"orderId": orderID.Hex(),
			"total":   order.Total,
			"message": "order created",
		})
	}
}

// resolveDeliveryAddress picks a saved address by id or accepts an inline one.
func resolveDeliveryAddress(ctx context.Context, db *mongo.Database, buyerID primitive.ObjectID, req createOrderRequest) (models.DeliveryAddress, error) {
	if addressID := strings.TrimSpace(req.AddressID); addressID != "" {
		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": buyerID}).Decode(&user); err != nil {
			return models.DeliveryAddress{}, errors.New("user not found")
		}
		for _, addr := range user.Addresses {
			if addr.ID == addressID {
				return models.DeliveryAddress{
					Title:  addr.Title,
					Detail: addr.Detail,
					Note:   addr.Note,
					Lat:    addr.Lat,
					Lng:    addr.Lng,
				}, nil
			}
		}
		return models.DeliveryAddress{}, errors.New("address not found")
	}

	detail := strings.TrimSpace(req.Address.Detail)
	if detail == "" {
		return models.DeliveryAddress{}, errors.New("delivery address is required")
	}
	return models.DeliveryAddress{
		Title:  strings.TrimSpace(req.Address.Title),
		Detail: detail,
		Note:   strings.TrimSpace(req.Address.Note),
		Lat:    req.Address.Lat,
		Lng:    req.Address.Lng,
	}, nil
}

// GetMyOrders returns the caller's orders, buyer or seller side.
func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{"$or": []bson.M{
			{"buyerId": userID},
			{"sellerId": userID},
		}}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			filter["status"] = status
		}

		cursor, err := db.Collection("orders").Find(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "orders could not be fetched"})
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse orders"})
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}
