package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shop is the single storefront a shop owner runs. One shop per owner; the
// owner field carries a unique index.
type Shop struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Owner     primitive.ObjectID   `bson:"owner" json:"owner"`
	City      string               `bson:"city" json:"city"`
	State     string               `bson:"state" json:"state"`
	Address   string               `bson:"address" json:"address"`
	ImagePath string               `bson:"imagePath,omitempty" json:"imagePath,omitempty"`
	Items     []primitive.ObjectID `bson:"items" json:"items"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}
