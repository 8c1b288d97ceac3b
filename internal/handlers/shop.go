package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickbite/internal/models"
)

// CreateOrEditShop upserts the owner's single shop. One shop per owner, so
// the owner id is the natural upsert key.
func CreateOrEditShop(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/shop"
		defer handlePanic(c, route)

		ownerID, _ := authedUser(c)

		name := strings.TrimSpace(c.PostForm("name"))
		city := strings.TrimSpace(c.PostForm("city"))
		state := strings.TrimSpace(c.PostForm("state"))
		address := strings.TrimSpace(c.PostForm("address"))
		if name == "" || city == "" || address == "" {
			respondWithError(c, http.StatusBadRequest, route, "name, city and address are required")
			return
		}

		now := time.Now()
		set := bson.M{
			"name":      name,
			"city":      city,
			"state":     state,
			"address":   address,
			"updatedAt": now,
		}

		if file, err := c.FormFile("image"); err == nil {
			imagePath, err := saveImageUpload(c, file)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			set["imagePath"] = imagePath
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After)

		var shop models.Shop
		err := db.Collection("shops").FindOneAndUpdate(ctx,
			bson.M{"owner": ownerID},
			bson.M{
				"$set": set,
				"$setOnInsert": bson.M{
					"owner":     ownerID,
					"items":     []interface{}{},
					"createdAt": now,
				},
			},
			opts,
		).Decode(&shop)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[SHOP] [INFO] shop saved for owner:", ownerID.Hex())
		c.JSON(http.StatusOK, shop)
	}
}

// GetMyShop returns the acting owner's shop with its items resolved.
func GetMyShop(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, _ := authedUser(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var shop models.Shop
		if err := db.Collection("shops").FindOne(ctx, bson.M{"owner": ownerID}).Decode(&shop); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
			return
		}

		cursor, err := db.Collection("items").Find(ctx, bson.M{"shop": shop.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		defer cursor.Close(ctx)

		items := make([]models.Item, 0)
		if err := cursor.All(ctx, &items); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "decode error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"shop": shop, "items": items})
	}
}

// GetShopsByCity lists shops for the customer's browse screen.
func GetShopsByCity(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/shop/city"
		defer handlePanic(c, route)

		city := strings.TrimSpace(c.Param("city"))
		if city == "" {
			respondWithError(c, http.StatusBadRequest, route, "city is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{"city": bson.M{"$regex": "^" + city + "$", "$options": "i"}}
		cursor, err := db.Collection("shops").Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		shops := make([]models.Shop, 0)
		if err := cursor.All(ctx, &shops); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		log.Printf("[%s] returning %d shops for %s", route, len(shops), city)
		c.JSON(http.StatusOK, shops)
	}
}
