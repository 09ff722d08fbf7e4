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
)

type submitRatingRequest struct {
	Score   *int   `json:"score" binding:"required"`
	Comment string `json:"comment"`
}

// GET /ratings/pending
func GetPendingRatings(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /ratings/pending"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("ratings").Find(
			ctx,
			bson.M{
				"raterId": userID,
				"status":  models.RatingStatusPending,
			},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		ratings := make([]models.Rating, 0)
		if err := cursor.All(ctx, &ratings); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, ratings)
	}
}

// SubmitRating fills in a pending obligation. The pending status is part of
// the update filter, so a double submit hits 409 instead of overwriting.
func SubmitRating(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /ratings/:id"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ratingID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req submitRatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if *req.Score < 1 || *req.Score > 5 {
			respondWithError(c, http.StatusBadRequest, route, "score must be between 1 and 5")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		var rating models.Rating
		err = db.Collection("ratings").FindOneAndUpdate(
			ctx,
			bson.M{
				"_id":     ratingID,
				"raterId": userID,
				"status":  models.RatingStatusPending,
			},
			bson.M{"$set": bson.M{
				"score":       *req.Score,
				"comment":     req.Comment,
				"status":      models.RatingStatusSubmitted,
				"submittedAt": now,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&rating)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusConflict, route, "rating is not pending")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[RATING] [INFO] rating %s submitted by %s", rating.ID.Hex(), userID.Hex())
		c.JSON(http.StatusOK, rating)
	}
}
