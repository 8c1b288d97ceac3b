package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	// Courier candidate queries are $nearSphere against this index.
	locationIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		Options: options.Index().
			SetName("location_2dsphere"),
	}

	log.Println("EnsureUserIndexes: creating email_unique and location_2dsphere indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{emailIndex, locationIndex})
	if err != nil {
		log.Println("EnsureUserIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureShopIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("shops").Indexes()

	// One shop per owner.
	ownerIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}},
		Options: options.Index().
			SetName("owner_unique").
			SetUnique(true),
	}

	log.Println("EnsureShopIndexes: creating owner_unique index")
	_, err := indexes.CreateOne(ctx, ownerIndex)
	if err != nil {
		log.Println("EnsureShopIndexes: owner index error:", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetName("user_index"),
	}

	// "orders for my shop" queries hit the denormalized owner field inside the
	// embedded shopOrders array.
	ownerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "shopOrders.owner", Value: 1}},
		Options: options.Index().SetName("shopOrders_owner_index"),
	}

	log.Println("EnsureOrderIndexes: creating user_index and shopOrders_owner_index")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{userIndex, ownerIndex})
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureAssignmentIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("delivery_assignments").Indexes()

	// At most one live broadcast per ShopOrder keeps re-broadcast idempotent.
	shopOrderIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "shopOrderId", Value: 1}},
		Options: options.Index().
			SetName("shopOrderId_broadcasted_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"status": "broadcasted",
			}),
	}

	courierIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "broadcastedTo", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetName("broadcastedTo_status_index"),
	}

	log.Println("EnsureAssignmentIndexes: creating shopOrderId_broadcasted_unique and broadcastedTo_status_index")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{shopOrderIndex, courierIndex})
	if err != nil {
		log.Println("EnsureAssignmentIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureRatingIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("ratings").Indexes()

	// Rate once per order per item.
	tripleIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user", Value: 1},
			{Key: "item", Value: 1},
			{Key: "order", Value: 1},
		},
		Options: options.Index().
			SetName("user_item_order_unique").
			SetUnique(true),
	}

	log.Println("EnsureRatingIndexes: creating user_item_order_unique index")
	_, err := indexes.CreateOne(ctx, tripleIndex)
	if err != nil {
		log.Println("EnsureRatingIndexes: rating index error:", err)
		return err
	}
	return nil
}
