package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating is one customer's score for one item on one order. The
// (user, item, order) triple carries a unique index, so re-rating the same
// purchase updates in place instead of duplicating.
type Rating struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Item      primitive.ObjectID `bson:"item" json:"item"`
	Order     primitive.ObjectID `bson:"order" json:"order"`
	Score     float64            `bson:"score" json:"score"`
	Review    string             `bson:"review,omitempty" json:"review,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
