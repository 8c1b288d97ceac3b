package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quickbite/internal/models"
)

type rateItemRequest struct {
	ItemID  string  `json:"itemId" binding:"required"`
	OrderID string  `json:"orderId" binding:"required"`
	Score   float64 `json:"score" binding:"required"`
	Review  string  `json:"review"`
}

/* =========================
   INCREMENTAL AVERAGE
========================= */

// applyNewRating folds one new score into a running (average, count) pair.
func applyNewRating(average float64, count int64, score float64) (float64, int64) {
	newCount := count + 1
	return (average*float64(count) + score) / float64(newCount), newCount
}

// applyUpdatedRating replaces oldScore's contribution with newScore without
// touching the count. Count zero cannot happen for an update, but guard it.
func applyUpdatedRating(average float64, count int64, oldScore, newScore float64) float64 {
	if count == 0 {
		return 0
	}
	return (average*float64(count) - oldScore + newScore) / float64(count)
}

// nextItemAggregate folds one rating into the item's current aggregate. The
// caller must pass the aggregate as read in the same transaction attempt, so
// a concurrent rater's committed contribution is never overwritten.
func nextItemAggregate(current models.ItemRating, existingScore *float64, score float64) (float64, int64) {
	if existingScore != nil {
		return applyUpdatedRating(current.Average, current.Count, *existingScore, score), current.Count
	}
	return applyNewRating(current.Average, current.Count, score)
}

/* =========================
   RATE ITEM
========================= */

// RateItem upserts the customer's score for one item on one order and keeps
// the item's aggregate in sync with an O(1) incremental update, never a
// rescan of the ratings collection.
func RateItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/item/rate"
		defer handlePanic(c, route)

		userID, _ := authedUser(c)

		var req rateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "itemId, orderId and score are required")
			return
		}
		if req.Score < 1 || req.Score > 5 {
			respondWithError(c, http.StatusBadRequest, route, invalidRatingScoreError{Score: req.Score}.Error())
			return
		}

		itemID, err := primitive.ObjectIDFromHex(req.ItemID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid itemId")
			return
		}
		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		// The order must belong to the customer and contain the item.
		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID, "user": userID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusForbidden, route, "not your order")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !orderContainsItem(&order, itemID) {
			respondWithError(c, http.StatusNotFound, route, itemNotInOrderError{ItemID: itemID}.Error())
			return
		}

		now := time.Now()
		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var rating models.Rating
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			// The aggregate is read inside the transaction so every attempt,
			// including a retry after a write conflict, folds into the state
			// the attempt actually observes.
			var item models.Item
			if err := db.Collection("items").FindOne(sessCtx, bson.M{"_id": itemID}).Decode(&item); err != nil {
				return nil, err
			}

			tripleFilter := bson.M{"user": userID, "item": itemID, "order": orderID}

			var existing models.Rating
			findErr := db.Collection("ratings").FindOne(sessCtx, tripleFilter).Decode(&existing)

			var existingScore *float64
			switch findErr {
			case nil:
				// Re-rating the same purchase updates in place.
				existingScore = &existing.Score

				rating = existing
				rating.Score = req.Score
				rating.Review = strings.TrimSpace(req.Review)
				rating.UpdatedAt = now
				if _, err := db.Collection("ratings").UpdateByID(sessCtx, existing.ID, bson.M{
					"$set": bson.M{"score": req.Score, "review": rating.Review, "updatedAt": now},
				}); err != nil {
					return nil, err
				}
			case mongo.ErrNoDocuments:
				rating = models.Rating{
					User:      userID,
					Item:      itemID,
					Order:     orderID,
					Score:     req.Score,
					Review:    strings.TrimSpace(req.Review),
					CreatedAt: now,
					UpdatedAt: now,
				}
				res, err := db.Collection("ratings").InsertOne(sessCtx, rating)
				if err != nil {
					return nil, err
				}
				rating.ID, _ = res.InsertedID.(primitive.ObjectID)
			default:
				return nil, findErr
			}

			newAverage, newCount := nextItemAggregate(item.Rating, existingScore, req.Score)

			_, err := db.Collection("items").UpdateByID(sessCtx, itemID, bson.M{
				"$set": bson.M{
					"rating.average": newAverage,
					"rating.count":   newCount,
					"updatedAt":      now,
				},
			})
			return nil, err
		})
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "item not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] item %s rated %.0f by %s", route, itemID.Hex(), req.Score, userID.Hex())
		c.JSON(http.StatusOK, rating)
	}
}

func orderContainsItem(order *models.Order, itemID primitive.ObjectID) bool {
	for _, so := range order.ShopOrders {
		for _, line := range so.Items {
			if line.ItemID == itemID {
				return true
			}
		}
	}
	return false
}
