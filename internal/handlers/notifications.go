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
)

const notificationsPageLimit = 50

/*
GET /notifications
Listing doubles as acknowledgement: once the page is fetched the caller's
unread counter drops to zero, so everything returned is marked seen.
*/
func GetNotifications(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /notifications"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("notifications").Find(
			ctx,
			bson.M{"userId": userID},
			options.Find().
				SetSort(bson.D{{Key: "createdAt", Value: -1}}).
				SetLimit(notificationsPageLimit),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		notifications := make([]models.Notification, 0)
		if err := cursor.All(ctx, &notifications); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		if _, err := db.Collection("notifications").UpdateMany(
			ctx,
			bson.M{"userId": userID, "seen": false},
			bson.M{"$set": bson.M{"seen": true}},
		); err != nil {
			log.Println("[NOTIFY] [WARN] mark-seen failed:", err)
		}

		c.JSON(http.StatusOK, notifications)
	}
}

// GET /notifications/unread
func GetUnreadNotificationCount(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /notifications/unread"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("notifications").CountDocuments(
			ctx,
			bson.M{"userId": userID, "seen": false},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"unread": count})
	}
}
