package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quickbite/internal/models"
)

type updateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := authedUser(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// UpdateLocation is the courier heartbeat: refresh the live position and flip
// the online flag on. Single-field updates, the broker reads them without any
// extra locking.
func UpdateLocation(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := authedUser(c)

		var req updateLocationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$set": bson.M{
				"location":  models.NewGeoPoint(*req.Latitude, *req.Longitude),
				"isOnline":  true,
				"updatedAt": time.Now(),
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "location updated"})
	}
}

// OnSocketConnect mirrors the realtime channel id onto the user document.
func OnSocketConnect(db *mongo.Database, userID primitive.ObjectID, socketID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := db.Collection("users").UpdateByID(ctx, userID,
		bson.M{"$set": bson.M{"socketId": socketID}})
	if err != nil {
		log.Println("[USER] [ERROR] socket id set failed:", err)
	}
}

// OnSocketDisconnect clears the channel id, but only if it is still this
// session's; a reconnect may already have written a newer one.
func OnSocketDisconnect(db *mongo.Database, userID primitive.ObjectID, socketID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID, "socketId": socketID},
		bson.M{"$unset": bson.M{"socketId": ""}})
	if err != nil {
		log.Println("[USER] [ERROR] socket id clear failed:", err)
	}
}
