package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quickbite/internal/models"
	"quickbite/internal/notify"
)

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateShopOrderStatus advances one ShopOrder to the immediate successor
// status. The write is a single conditional update: the filter pins owner and
// the expected predecessor status, so two racing transitions cannot both
// succeed and a loser sees a state conflict, never corruption.
func UpdateShopOrderStatus(db *mongo.Database, hub *notify.Hub, broadcastRadiusKm float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/order/:orderId/status/:shopId"
		defer handlePanic(c, route)

		ownerID, _ := authedUser(c)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}
		shopID, err := primitive.ObjectIDFromHex(c.Param("shopId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid shopId")
			return
		}

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "status is required")
			return
		}
		if models.StatusRank(req.Status) < 0 {
			respondWithError(c, http.StatusBadRequest, route, "unknown status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		order, shopOrder, err := loadShopOrder(ctx, db, orderID, shopID)
		if err != nil {
			respondTransitionError(c, route, err)
			return
		}
		if shopOrder.Owner != ownerID {
			respondTransitionError(c, route, notOwnerError{})
			return
		}

		expected := models.NextStatus(shopOrder.Status)
		if expected == "" || expected != req.Status {
			respondTransitionError(c, route, invalidTransitionError{From: shopOrder.Status, To: req.Status})
			return
		}

		set := bson.M{"shopOrders.$.status": req.Status}
		orderFilter := bson.M{
			"_id": orderID,
			"shopOrders": bson.M{"$elemMatch": bson.M{
				"_id":    shopOrder.ID,
				"owner":  ownerID,
				"status": shopOrder.Status,
			}},
		}

		if req.Status == models.StatusDelivered {
			// delivered completes the assignment and flips the ShopOrder in
			// one transaction, so neither write can land without the other.
			if shopOrder.Assignment == nil {
				respondTransitionError(c, route, noAssignmentToCompleteError{})
				return
			}
			set["shopOrders.$.deliveredAt"] = time.Now()

			session, err := db.Client().StartSession()
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			defer session.EndSession(ctx)

			_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
				res, err := db.Collection("delivery_assignments").UpdateOne(sessCtx,
					completableAssignmentFilter(*shopOrder.Assignment),
					bson.M{"$set": bson.M{"status": models.AssignmentCompleted}},
				)
				if err != nil {
					return nil, err
				}
				if res.MatchedCount == 0 {
					return nil, noAssignmentToCompleteError{}
				}

				res, err = db.Collection("orders").UpdateOne(sessCtx, orderFilter, bson.M{"$set": set})
				if err != nil {
					return nil, err
				}
				if res.MatchedCount == 0 {
					return nil, invalidTransitionError{From: shopOrder.Status, To: req.Status}
				}
				return nil, nil
			})
			if err != nil {
				respondTransitionError(c, route, err)
				return
			}
		} else {
			res, err := db.Collection("orders").UpdateOne(ctx, orderFilter, bson.M{"$set": set})
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if res.MatchedCount == 0 {
				// Lost a race with a concurrent transition; report the conflict.
				respondTransitionError(c, route, invalidTransitionError{From: shopOrder.Status, To: req.Status})
				return
			}
		}

		hub.Emit(order.User.Hex(), "statusChanged", gin.H{
			"orderId":     order.ID.Hex(),
			"shopOrderId": shopOrder.ID.Hex(),
			"shopId":      shopID.Hex(),
			"status":      req.Status,
		})

		response := gin.H{
			"orderId":     order.ID.Hex(),
			"shopOrderId": shopOrder.ID.Hex(),
			"status":      req.Status,
		}

		// Crossing into delivery creates the broadcast and tells the owner
		// who was notified.
		if req.Status == models.StatusOutOfDelivery {
			assignment, candidates, err := broadcastDelivery(ctx, db, hub, order, shopOrder, broadcastRadiusKm)
			if err != nil {
				log.Printf("[%s] broadcast failed: %v", route, err)
				respondWithError(c, http.StatusInternalServerError, route, "delivery broadcast failed")
				return
			}
			response["assignmentId"] = assignment.ID.Hex()
			response["candidates"] = candidateSummaries(candidates)
		}

		log.Printf("[%s] shop order %s moved to %s", route, shopOrder.ID.Hex(), req.Status)
		c.JSON(http.StatusOK, response)
	}
}

// completableAssignmentFilter matches the assignment in assigned or completed
// state. Accepting completed lets a retry converge after an earlier attempt
// finished the assignment write but not the ShopOrder write.
func completableAssignmentFilter(assignmentID primitive.ObjectID) bson.M {
	return bson.M{
		"_id": assignmentID,
		"status": bson.M{"$in": []string{
			models.AssignmentAssigned,
			models.AssignmentCompleted,
		}},
	}
}

func loadShopOrder(ctx context.Context, db *mongo.Database, orderID, shopID primitive.ObjectID) (*models.Order, *models.ShopOrder, error) {
	var order models.Order
	err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil, orderNotFoundError{OrderID: orderID}
	}
	if err != nil {
		return nil, nil, err
	}

	shopOrder := order.ShopOrderFor(shopID)
	if shopOrder == nil {
		return nil, nil, shopOrderNotFoundError{OrderID: orderID, ShopID: shopID}
	}
	return &order, shopOrder, nil
}

func respondTransitionError(c *gin.Context, route string, err error) {
	var (
		notFoundOrder orderNotFoundError
		notFoundShop  shopOrderNotFoundError
		notOwner      notOwnerError
		invalid       invalidTransitionError
		noAssignment  noAssignmentToCompleteError
	)
	switch {
	case errors.As(err, &notFoundOrder), errors.As(err, &notFoundShop):
		respondWithError(c, http.StatusNotFound, route, err.Error())
	case errors.As(err, &notOwner):
		respondWithError(c, http.StatusForbidden, route, err.Error())
	case errors.As(err, &invalid), errors.As(err, &noAssignment):
		respondWithError(c, http.StatusConflict, route, err.Error())
	default:
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}
