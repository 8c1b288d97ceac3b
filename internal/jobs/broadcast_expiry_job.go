package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quickbite/internal/geo"
	"quickbite/internal/models"
	"quickbite/internal/notify"
)

// BroadcastExpiryJob expires delivery broadcasts nobody claimed within the
// TTL. Each expired broadcast gets one re-broadcast with a doubled radius;
// after that the owner is told nobody picked it up.
type BroadcastExpiryJob struct {
	db       *mongo.Database
	hub      *notify.Hub
	cron     *cron.Cron
	ttl      time.Duration
	radiusKm float64
}

func NewBroadcastExpiryJob(db *mongo.Database, hub *notify.Hub, ttl time.Duration, radiusKm float64) *BroadcastExpiryJob {
	return &BroadcastExpiryJob{
		db:       db,
		hub:      hub,
		cron:     cron.New(),
		ttl:      ttl,
		radiusKm: radiusKm,
	}
}

// Start schedules the expiry sweep every 30 seconds.
func (j *BroadcastExpiryJob) Start() error {
	_, err := j.cron.AddFunc("@every 30s", j.sweep)
	if err != nil {
		return err
	}
	j.cron.Start()
	log.Println("[JOBS] [INFO] broadcast expiry job started")
	return nil
}

// Stop stops the expiry sweep.
func (j *BroadcastExpiryJob) Stop() {
	j.cron.Stop()
	log.Println("[JOBS] [INFO] broadcast expiry job stopped")
}

func (j *BroadcastExpiryJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.ttl)

	cursor, err := j.db.Collection("delivery_assignments").Find(ctx, bson.M{
		"status":    models.AssignmentBroadcasted,
		"createdAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		log.Println("[JOBS] [ERROR] expiry sweep query failed:", err)
		return
	}
	defer cursor.Close(ctx)

	var stale []models.DeliveryAssignment
	if err := cursor.All(ctx, &stale); err != nil {
		log.Println("[JOBS] [ERROR] expiry sweep decode failed:", err)
		return
	}

	for _, assignment := range stale {
		j.expire(ctx, assignment)
	}
}

func (j *BroadcastExpiryJob) expire(ctx context.Context, assignment models.DeliveryAssignment) {
	// Same CAS as the claim path: a courier who accepted between the query
	// and this write keeps their win and the expiry matches nothing.
	res, err := j.db.Collection("delivery_assignments").UpdateOne(ctx,
		bson.M{"_id": assignment.ID, "status": models.AssignmentBroadcasted},
		bson.M{"$set": bson.M{"status": models.AssignmentExpired}},
	)
	if err != nil {
		log.Println("[JOBS] [ERROR] expiry update failed:", err)
		return
	}
	if res.MatchedCount == 0 {
		return
	}

	ownerID := j.ownerOf(ctx, assignment)

	if assignment.Rebroadcasted {
		log.Printf("[JOBS] [WARN] assignment %s expired after re-broadcast", assignment.ID.Hex())
		if !ownerID.IsZero() {
			j.hub.Emit(ownerID.Hex(), "broadcastExpired", map[string]interface{}{
				"assignmentId": assignment.ID.Hex(),
				"shopOrderId":  assignment.ShopOrderID.Hex(),
			})
		}
		return
	}

	j.rebroadcast(ctx, assignment)
}

// rebroadcast reopens the assignment with a doubled candidate radius.
func (j *BroadcastExpiryJob) rebroadcast(ctx context.Context, assignment models.DeliveryAssignment) {
	candidates := j.candidates(ctx,
		assignment.DeliveryAddress.Latitude, assignment.DeliveryAddress.Longitude, j.radiusKm*2)

	courierIDs := make([]primitive.ObjectID, 0, len(candidates))
	for _, courier := range candidates {
		courierIDs = append(courierIDs, courier.ID)
	}

	_, err := j.db.Collection("delivery_assignments").UpdateOne(ctx,
		bson.M{"_id": assignment.ID, "status": models.AssignmentExpired},
		bson.M{"$set": bson.M{
			"status":        models.AssignmentBroadcasted,
			"broadcastedTo": courierIDs,
			"rebroadcasted": true,
			"createdAt":     time.Now(),
		}},
	)
	if err != nil {
		log.Println("[JOBS] [ERROR] re-broadcast failed:", err)
		return
	}

	for _, courier := range candidates {
		j.hub.Emit(courier.ID.Hex(), "newDeliveryBroadcast", map[string]interface{}{
			"assignmentId": assignment.ID.Hex(),
			"shopName":     assignment.ShopName,
			"address":      assignment.DeliveryAddress,
		})
	}

	log.Printf("[JOBS] [INFO] assignment %s re-broadcast to %d couriers",
		assignment.ID.Hex(), len(candidates))
}

func (j *BroadcastExpiryJob) candidates(ctx context.Context, lat, lng, radiusKm float64) []models.User {
	cursor, err := j.db.Collection("users").Find(ctx, bson.M{
		"role":     models.RoleCourier,
		"isOnline": true,
	})
	if err != nil {
		log.Println("[JOBS] [ERROR] candidate query failed:", err)
		return nil
	}
	defer cursor.Close(ctx)

	var couriers []models.User
	if err := cursor.All(ctx, &couriers); err != nil {
		log.Println("[JOBS] [ERROR] candidate decode failed:", err)
		return nil
	}

	within := make([]models.User, 0, len(couriers))
	for _, courier := range couriers {
		if !courier.Location.IsSet() {
			continue
		}
		if geo.IsWithinRadiusKm(lat, lng, courier.Location.Latitude(), courier.Location.Longitude(), radiusKm) {
			within = append(within, courier)
		}
	}
	if len(within) == 0 {
		// Nobody in range; widen to everyone online rather than exclude.
		return couriers
	}
	return within
}

func (j *BroadcastExpiryJob) ownerOf(ctx context.Context, assignment models.DeliveryAssignment) (owner primitive.ObjectID) {
	var shop models.Shop
	if err := j.db.Collection("shops").FindOne(ctx, bson.M{"_id": assignment.Shop}).Decode(&shop); err != nil {
		return owner
	}
	return shop.Owner
}
