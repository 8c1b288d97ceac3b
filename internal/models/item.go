package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FoodTypeVeg    = "veg"
	FoodTypeNonVeg = "non veg"
)

// ItemCategories is the closed category set a menu item may belong to.
var ItemCategories = []string{
	"Snacks",
	"Main Course",
	"Desserts",
	"Pizza",
	"Burgers",
	"Sandwiches",
	"South Indian",
	"North Indian",
	"Chinese",
	"Fast Food",
	"Others",
}

// ValidItemCategory reports whether category is in the closed set.
func ValidItemCategory(category string) bool {
	for _, c := range ItemCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ItemRating is the running aggregate kept on the item so listing endpoints
// never rescan the ratings collection.
type ItemRating struct {
	Average float64 `bson:"average" json:"average"`
	Count   int64   `bson:"count" json:"count"`
}

// Item is a menu entry owned by exactly one shop.
type Item struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Shop        primitive.ObjectID `bson:"shop" json:"shop"`
	Category    string             `bson:"category" json:"category"`
	Price       float64            `bson:"price" json:"price"`
	FoodType    string             `bson:"foodType" json:"foodType"`
	ImagePath   string             `bson:"imagePath,omitempty" json:"imagePath,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	SpiceLevel  string             `bson:"spiceLevel,omitempty" json:"spiceLevel,omitempty"`
	DietTags    StringList         `bson:"dietTags" json:"dietTags"`
	Allergens   StringList         `bson:"allergens" json:"allergens"`
	Tags        StringList         `bson:"tags" json:"tags"`
	Rating      ItemRating         `bson:"rating" json:"rating"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
