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
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickbite/internal/geo"
	"quickbite/internal/models"
	"quickbite/internal/notify"
)

/* =========================
   CANDIDATE SELECTION
========================= */

// findCandidateCouriers returns online couriers within radiusKm of the drop
// point, nearest first. When the geo query fails (for instance a deployment
// without the 2dsphere index) it falls back to every online courier, sorted
// by in-process Haversine distance, excluding none.
func findCandidateCouriers(ctx context.Context, db *mongo.Database, lat, lng, radiusKm float64) ([]models.User, error) {
	filter := bson.M{
		"role":     models.RoleCourier,
		"isOnline": true,
		"location": bson.M{
			"$nearSphere": bson.M{
				"$geometry":    models.NewGeoPoint(lat, lng),
				"$maxDistance": radiusKm * 1000,
			},
		},
	}

	cursor, geoErr := db.Collection("users").Find(ctx, filter)
	if geoErr == nil {
		var couriers []models.User
		if geoErr = cursor.All(ctx, &couriers); geoErr == nil {
			return couriers, nil
		}
		cursor.Close(ctx)
	}

	log.Println("[DELIVERY] [WARN] geo candidate query failed, falling back to all online couriers:", geoErr)

	cursor, err := db.Collection("users").Find(ctx, bson.M{
		"role":     models.RoleCourier,
		"isOnline": true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var couriers []models.User
	if err := cursor.All(ctx, &couriers); err != nil {
		return nil, err
	}

	return sortCouriersByDistance(couriers, lat, lng), nil
}

// sortCouriersByDistance orders couriers nearest-first around the drop point.
func sortCouriersByDistance(couriers []models.User, lat, lng float64) []models.User {
	points := make([]geo.Point, len(couriers))
	for i, courier := range couriers {
		points[i] = geo.Point{Lat: courier.Location.Latitude(), Lng: courier.Location.Longitude()}
	}

	order := geo.SortByDistance(geo.Point{Lat: lat, Lng: lng}, points)
	sorted := make([]models.User, len(couriers))
	for i, idx := range order {
		sorted[i] = couriers[idx]
	}
	return sorted
}

func candidateSummaries(couriers []models.User) []gin.H {
	out := make([]gin.H, 0, len(couriers))
	for _, courier := range couriers {
		out = append(out, gin.H{
			"id":       courier.ID.Hex(),
			"fullName": courier.FullName,
			"mobile":   courier.Mobile,
			"location": courier.Location,
		})
	}
	return out
}

/* =========================
   BROADCAST
========================= */

// broadcastDelivery creates (or reuses) the broadcast record for a ShopOrder
// entering delivery. Idempotent per ShopOrder: an existing un-claimed
// assignment is refreshed in place rather than duplicated.
func broadcastDelivery(ctx context.Context, db *mongo.Database, hub *notify.Hub, order *models.Order, shopOrder *models.ShopOrder, radiusKm float64) (*models.DeliveryAssignment, []models.User, error) {
	candidates, err := findCandidateCouriers(ctx, db,
		order.DeliveryAddress.Latitude, order.DeliveryAddress.Longitude, radiusKm)
	if err != nil {
		return nil, nil, err
	}

	courierIDs := make([]primitive.ObjectID, 0, len(candidates))
	for _, courier := range candidates {
		courierIDs = append(courierIDs, courier.ID)
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var assignment models.DeliveryAssignment
	err = db.Collection("delivery_assignments").FindOneAndUpdate(ctx,
		bson.M{"shopOrderId": shopOrder.ID, "status": models.AssignmentBroadcasted},
		bson.M{
			"$set": bson.M{
				"broadcastedTo": courierIDs,
				"createdAt":     time.Now(),
			},
			"$setOnInsert": bson.M{
				"order":           order.ID,
				"shop":            shopOrder.Shop,
				"shopName":        shopOrder.ShopName,
				"deliveryAddress": order.DeliveryAddress,
				"status":          models.AssignmentBroadcasted,
				"rebroadcasted":   false,
			},
		},
		opts,
	).Decode(&assignment)
	if err != nil {
		return nil, nil, err
	}

	// Mirror the assignment reference onto the embedded ShopOrder.
	_, err = db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": order.ID, "shopOrders._id": shopOrder.ID},
		bson.M{"$set": bson.M{"shopOrders.$.assignment": assignment.ID}},
	)
	if err != nil {
		return nil, nil, err
	}

	for _, courier := range candidates {
		hub.Emit(courier.ID.Hex(), "newDeliveryBroadcast", gin.H{
			"assignmentId": assignment.ID.Hex(),
			"shopName":     assignment.ShopName,
			"address":      assignment.DeliveryAddress,
		})
	}

	log.Printf("[DELIVERY] [INFO] assignment %s broadcast to %d couriers",
		assignment.ID.Hex(), len(courierIDs))
	return &assignment, candidates, nil
}

/* =========================
   CLAIM (first wins)
========================= */

// claimAssignment is the single compare-and-swap both the courier self-accept
// and the owner direct-assign go through. The filter tests `status ==
// broadcasted` and list membership together with the write, so concurrent
// claims resolve to exactly one winner.
func claimAssignment(ctx context.Context, db *mongo.Database, assignmentID, courierID primitive.ObjectID) (*models.DeliveryAssignment, error) {
	now := time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var assignment models.DeliveryAssignment
	err := db.Collection("delivery_assignments").FindOneAndUpdate(ctx,
		bson.M{
			"_id":           assignmentID,
			"status":        models.AssignmentBroadcasted,
			"broadcastedTo": courierID,
		},
		bson.M{"$set": bson.M{
			"status":     models.AssignmentAssigned,
			"assignedTo": courierID,
			"acceptedAt": now,
		}},
		opts,
	).Decode(&assignment)
	if err == nil {
		return &assignment, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	// Zero matches: disambiguate why the claim failed.
	var current models.DeliveryAssignment
	lookupErr := db.Collection("delivery_assignments").FindOne(ctx, bson.M{"_id": assignmentID}).Decode(&current)
	if lookupErr == mongo.ErrNoDocuments {
		return nil, assignmentNotFoundError{}
	}
	if lookupErr != nil {
		return nil, lookupErr
	}
	return nil, classifyClaimFailure(current, courierID)
}

// classifyClaimFailure explains a zero-match claim from the assignment's
// current state. Expiry is checked first: an expired broadcast still lists its
// candidates, and telling them "already assigned" would be wrong.
func classifyClaimFailure(current models.DeliveryAssignment, courierID primitive.ObjectID) error {
	if current.Status == models.AssignmentExpired {
		return broadcastExpiredError{}
	}
	if !current.WasBroadcastedTo(courierID) {
		return courierNotEligibleError{CourierID: courierID}
	}
	return alreadyAssignedError{}
}

// finishClaim mirrors a successful claim onto the ShopOrder and notifies
// courier and owner.
func finishClaim(ctx context.Context, db *mongo.Database, hub *notify.Hub, assignment *models.DeliveryAssignment, courierID primitive.ObjectID) {
	_, err := db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": assignment.Order, "shopOrders._id": assignment.ShopOrderID},
		bson.M{"$set": bson.M{
			"shopOrders.$.assignedCourier": courierID,
			"shopOrders.$.assignment":      assignment.ID,
		}},
	)
	if err != nil {
		log.Println("[DELIVERY] [ERROR] shop order mirror failed:", err)
	}

	var order models.Order
	if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": assignment.Order}).Decode(&order); err == nil {
		if so := order.ShopOrderFor(assignment.Shop); so != nil {
			hub.Emit(so.Owner.Hex(), "deliveryAccepted", gin.H{
				"assignmentId": assignment.ID.Hex(),
				"shopOrderId":  assignment.ShopOrderID.Hex(),
				"courierId":    courierID.Hex(),
			})
		}
	}

	hub.Emit(courierID.Hex(), "assignedOrder", gin.H{
		"assignmentId": assignment.ID.Hex(),
		"orderId":      assignment.Order.Hex(),
		"shopName":     assignment.ShopName,
		"address":      assignment.DeliveryAddress,
	})
}

func respondClaimError(c *gin.Context, route string, err error) {
	switch err.(type) {
	case assignmentNotFoundError:
		respondWithError(c, http.StatusNotFound, route, err.Error())
	case alreadyAssignedError, broadcastExpiredError:
		respondWithError(c, http.StatusConflict, route, err.Error())
	case courierNotEligibleError:
		respondWithError(c, http.StatusForbidden, route, err.Error())
	default:
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}

// AcceptAssignment is the courier's side of the first-accept race.
func AcceptAssignment(db *mongo.Database, hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/delivery/accept/:assignmentId"
		defer handlePanic(c, route)

		courierID, _ := authedUser(c)

		assignmentID, err := primitive.ObjectIDFromHex(c.Param("assignmentId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid assignment id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		assignment, err := claimAssignment(ctx, db, assignmentID, courierID)
		if err != nil {
			respondClaimError(c, route, err)
			return
		}

		finishClaim(ctx, db, hub, assignment, courierID)

		log.Printf("[%s] assignment %s claimed by courier %s",
			route, assignment.ID.Hex(), courierID.Hex())
		c.JSON(http.StatusOK, assignment)
	}
}

type ownerAssignRequest struct {
	CourierID string `json:"courierId" binding:"required"`
}

// OwnerAssignCourier lets the owner hand the delivery to a specific courier.
// Same CAS contract as self-accept: the courier must be in the broadcast list
// and the assignment still un-claimed.
func OwnerAssignCourier(db *mongo.Database, hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/delivery/assign/:assignmentId"
		defer handlePanic(c, route)

		ownerID, _ := authedUser(c)

		assignmentID, err := primitive.ObjectIDFromHex(c.Param("assignmentId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid assignment id")
			return
		}

		var req ownerAssignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "courierId is required")
			return
		}
		courierID, err := primitive.ObjectIDFromHex(req.CourierID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid courierId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		// The assignment must belong to one of this owner's shop orders.
		var existing models.DeliveryAssignment
		err = db.Collection("delivery_assignments").FindOne(ctx, bson.M{"_id": assignmentID}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			respondClaimError(c, route, assignmentNotFoundError{})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		count, err := db.Collection("shops").CountDocuments(ctx, bson.M{"_id": existing.Shop, "owner": ownerID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count == 0 {
			respondWithError(c, http.StatusForbidden, route, "not your shop's delivery")
			return
		}

		assignment, err := claimAssignment(ctx, db, assignmentID, courierID)
		if err != nil {
			respondClaimError(c, route, err)
			return
		}

		finishClaim(ctx, db, hub, assignment, courierID)

		log.Printf("[%s] assignment %s manually assigned to courier %s by owner",
			route, assignment.ID.Hex(), courierID.Hex())
		c.JSON(http.StatusOK, assignment)
	}
}

/* =========================
   COURIER LISTINGS
========================= */

// GetAvailableBroadcasts lists still-open broadcasts addressed to the acting
// courier.
func GetAvailableBroadcasts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		courierID, _ := authedUser(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("delivery_assignments").Find(ctx, bson.M{
			"status":        models.AssignmentBroadcasted,
			"broadcastedTo": courierID,
		}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		defer cursor.Close(ctx)

		assignments := make([]models.DeliveryAssignment, 0)
		if err := cursor.All(ctx, &assignments); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "decode error"})
			return
		}

		c.JSON(http.StatusOK, assignments)
	}
}

// GetCurrentDelivery returns the courier's in-flight assignment, if any.
func GetCurrentDelivery(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		courierID, _ := authedUser(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var assignment models.DeliveryAssignment
		err := db.Collection("delivery_assignments").FindOne(ctx, bson.M{
			"assignedTo": courierID,
			"status":     models.AssignmentAssigned,
		}).Decode(&assignment)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusOK, gin.H{"assignment": nil})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"assignment": assignment})
	}
}
