package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickbite/internal/models"
)

// ownShop resolves the acting owner's shop, the authority check for every
// item mutation.
func ownShop(ctx context.Context, db *mongo.Database, ownerID primitive.ObjectID) (*models.Shop, error) {
	var shop models.Shop
	if err := db.Collection("shops").FindOne(ctx, bson.M{"owner": ownerID}).Decode(&shop); err != nil {
		return nil, err
	}
	return &shop, nil
}

func parseItemForm(c *gin.Context) (name, category, foodType string, price float64, err error) {
	name = strings.TrimSpace(c.PostForm("name"))
	category = strings.TrimSpace(c.PostForm("category"))
	foodType = strings.TrimSpace(c.PostForm("foodType"))
	price, err = strconv.ParseFloat(strings.TrimSpace(c.PostForm("price")), 64)
	return
}

func splitTagField(raw string) models.StringList {
	parts := strings.Split(raw, ",")
	out := make(models.StringList, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func AddItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/item"
		defer handlePanic(c, route)

		ownerID, _ := authedUser(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		shop, err := ownShop(ctx, db, ownerID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "create a shop first")
			return
		}

		name, category, foodType, price, err := parseItemForm(c)
		if err != nil || name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name and numeric price are required")
			return
		}
		if price < 0 {
			respondWithError(c, http.StatusBadRequest, route, "price must not be negative")
			return
		}
		if !models.ValidItemCategory(category) {
			respondWithError(c, http.StatusBadRequest, route, "unknown category")
			return
		}
		if foodType != models.FoodTypeVeg && foodType != models.FoodTypeNonVeg {
			respondWithError(c, http.StatusBadRequest, route, "foodType must be veg or non veg")
			return
		}

		now := time.Now()
		item := models.Item{
			Name:        name,
			Shop:        shop.ID,
			Category:    category,
			Price:       price,
			FoodType:    foodType,
			Description: strings.TrimSpace(c.PostForm("description")),
			SpiceLevel:  strings.TrimSpace(c.PostForm("spiceLevel")),
			DietTags:    splitTagField(c.PostForm("dietTags")),
			Allergens:   splitTagField(c.PostForm("allergens")),
			Tags:        splitTagField(c.PostForm("tags")),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if file, err := c.FormFile("image"); err == nil {
			imagePath, err := saveImageUpload(c, file)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			item.ImagePath = imagePath
		}

		res, err := db.Collection("items").InsertOne(ctx, item)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		item.ID, _ = res.InsertedID.(primitive.ObjectID)

		_, err = db.Collection("shops").UpdateByID(ctx, shop.ID, bson.M{
			"$push": bson.M{"items": item.ID},
			"$set":  bson.M{"updatedAt": now},
		})
		if err != nil {
			log.Printf("[%s] shop item list update failed: %v", route, err)
		}

		log.Printf("[%s] item %s added to shop %s", route, item.ID.Hex(), shop.ID.Hex())
		c.JSON(http.StatusCreated, item)
	}
}

func EditItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/item/:id"
		defer handlePanic(c, route)

		ownerID, _ := authedUser(c)

		itemID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		shop, err := ownShop(ctx, db, ownerID)
		if err != nil {
			respondWithError(c, http.StatusForbidden, route, "no shop for this owner")
			return
		}

		set := bson.M{"updatedAt": time.Now()}

		if name := strings.TrimSpace(c.PostForm("name")); name != "" {
			set["name"] = name
		}
		if category := strings.TrimSpace(c.PostForm("category")); category != "" {
			if !models.ValidItemCategory(category) {
				respondWithError(c, http.StatusBadRequest, route, "unknown category")
				return
			}
			set["category"] = category
		}
		if foodType := strings.TrimSpace(c.PostForm("foodType")); foodType != "" {
			if foodType != models.FoodTypeVeg && foodType != models.FoodTypeNonVeg {
				respondWithError(c, http.StatusBadRequest, route, "foodType must be veg or non veg")
				return
			}
			set["foodType"] = foodType
		}
		if priceStr := strings.TrimSpace(c.PostForm("price")); priceStr != "" {
			price, err := strconv.ParseFloat(priceStr, 64)
			if err != nil || price < 0 {
				respondWithError(c, http.StatusBadRequest, route, "price must be a non-negative number")
				return
			}
			set["price"] = price
		}
		if desc := strings.TrimSpace(c.PostForm("description")); desc != "" {
			set["description"] = desc
		}
		if spice := strings.TrimSpace(c.PostForm("spiceLevel")); spice != "" {
			set["spiceLevel"] = spice
		}
		if raw := c.PostForm("dietTags"); raw != "" {
			set["dietTags"] = splitTagField(raw)
		}
		if raw := c.PostForm("allergens"); raw != "" {
			set["allergens"] = splitTagField(raw)
		}
		if raw := c.PostForm("tags"); raw != "" {
			set["tags"] = splitTagField(raw)
		}
		if file, err := c.FormFile("image"); err == nil {
			imagePath, err := saveImageUpload(c, file)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			set["imagePath"] = imagePath
		}

		// Shop ownership is part of the filter, so editing someone else's
		// item matches nothing.
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var item models.Item
		err = db.Collection("items").FindOneAndUpdate(ctx,
			bson.M{"_id": itemID, "shop": shop.ID},
			bson.M{"$set": set},
			opts,
		).Decode(&item)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "item not found in your shop")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

func DeleteItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/item/:id"
		defer handlePanic(c, route)

		ownerID, _ := authedUser(c)

		itemID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		shop, err := ownShop(ctx, db, ownerID)
		if err != nil {
			respondWithError(c, http.StatusForbidden, route, "no shop for this owner")
			return
		}

		var item models.Item
		err = db.Collection("items").FindOneAndDelete(ctx, bson.M{"_id": itemID, "shop": shop.ID}).Decode(&item)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "item not found in your shop")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		_, _ = db.Collection("shops").UpdateByID(ctx, shop.ID, bson.M{
			"$pull": bson.M{"items": itemID},
		})

		if err := safeDeleteUpload(item.ImagePath); err != nil {
			log.Printf("[%s] image cleanup failed: %v", route, err)
		}

		c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
	}
}

// GetItemsByShop is the customer-facing menu for one shop.
func GetItemsByShop(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID, err := primitive.ObjectIDFromHex(c.Param("shopId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var shop models.Shop
		if err := db.Collection("shops").FindOne(ctx, bson.M{"_id": shopID}).Decode(&shop); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
			return
		}

		cursor, err := db.Collection("items").Find(ctx, bson.M{"shop": shopID})
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

// SearchItems filters items by name/category/foodType in the city's shops.
func SearchItems(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/item/search"
		defer handlePanic(c, route)

		city := strings.TrimSpace(c.Query("city"))
		if city == "" {
			respondWithError(c, http.StatusBadRequest, route, "city is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		shopCursor, err := db.Collection("shops").Find(ctx,
			bson.M{"city": bson.M{"$regex": "^" + city + "$", "$options": "i"}})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer shopCursor.Close(ctx)

		var shops []models.Shop
		if err := shopCursor.All(ctx, &shops); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		shopIDs := make([]primitive.ObjectID, 0, len(shops))
		for _, s := range shops {
			shopIDs = append(shopIDs, s.ID)
		}

		filter := bson.M{"shop": bson.M{"$in": shopIDs}}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": search, "$options": "i"}},
				{"tags": bson.M{"$regex": search, "$options": "i"}},
			}
		}
		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}
		if foodType := strings.TrimSpace(c.Query("foodType")); foodType != "" {
			filter["foodType"] = foodType
		}

		cursor, err := db.Collection("items").Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		items := make([]models.Item, 0)
		if err := cursor.All(ctx, &items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		log.Printf("[%s] returning %d items", route, len(items))
		c.JSON(http.StatusOK, items)
	}
}

// recommendScore is the fixed arithmetic ranking used by the recommendation
// listing: rating weight plus a small popularity and freshness bump.
func recommendScore(average float64, count int64, age time.Duration) float64 {
	score := average * 2
	if count > 0 {
		score += float64(count) * 0.1
	}
	if age < 7*24*time.Hour {
		score += 1
	}
	return score
}

// GetRecommendedItems returns the city's items ranked by recommendScore.
func GetRecommendedItems(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/item/recommended"
		defer handlePanic(c, route)

		city := strings.TrimSpace(c.Query("city"))
		if city == "" {
			respondWithError(c, http.StatusBadRequest, route, "city is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		shopCursor, err := db.Collection("shops").Find(ctx,
			bson.M{"city": bson.M{"$regex": "^" + city + "$", "$options": "i"}})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer shopCursor.Close(ctx)

		var shops []models.Shop
		if err := shopCursor.All(ctx, &shops); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		shopIDs := make([]primitive.ObjectID, 0, len(shops))
		for _, s := range shops {
			shopIDs = append(shopIDs, s.ID)
		}

		cursor, err := db.Collection("items").Find(ctx, bson.M{"shop": bson.M{"$in": shopIDs}})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		items := make([]models.Item, 0)
		if err := cursor.All(ctx, &items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		now := time.Now()
		sort.SliceStable(items, func(a, b int) bool {
			sa := recommendScore(items[a].Rating.Average, items[a].Rating.Count, now.Sub(items[a].CreatedAt))
			sb := recommendScore(items[b].Rating.Average, items[b].Rating.Count, now.Sub(items[b].CreatedAt))
			return sa > sb
		})

		if len(items) > 20 {
			items = items[:20]
		}
		c.JSON(http.StatusOK, items)
	}
}
