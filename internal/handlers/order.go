package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickbite/internal/mail"
	"quickbite/internal/models"
	"quickbite/internal/notify"
	"quickbite/internal/payments"
)

/* =========================
   REQUEST DTOs
========================= */

type cartLineRequest struct {
	ItemID   string  `json:"itemId" binding:"required"`
	ShopID   string  `json:"shopId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity" binding:"required"`
}

type deliveryAddressRequest struct {
	Text      string   `json:"text" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type placeOrderRequest struct {
	PaymentMethod   string                 `json:"paymentMethod" binding:"required"`
	DeliveryAddress deliveryAddressRequest `json:"deliveryAddress" binding:"required"`
	CartItems       []cartLineRequest      `json:"cartItems" binding:"required"`
	TotalAmount     float64                `json:"totalAmount"`
}

type verifyPaymentRequest struct {
	OrderID          string `json:"orderId" binding:"required"`
	GatewayOrderID   string `json:"gatewayOrderId" binding:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

/* =========================
   PURE CART HELPERS
========================= */

// cartGroup is one shop's slice of the cart, in first-seen order.
type cartGroup struct {
	ShopID primitive.ObjectID
	Lines  []cartLineRequest
}

// groupCartByShop partitions cart lines per shop, preserving the order shops
// first appear in the cart. A line without a resolvable shop id fails the
// whole cart.
func groupCartByShop(lines []cartLineRequest) ([]cartGroup, error) {
	if len(lines) == 0 {
		return nil, emptyCartError{}
	}

	groups := make([]cartGroup, 0)
	index := make(map[primitive.ObjectID]int)

	for _, line := range lines {
		raw := strings.TrimSpace(line.ShopID)
		if raw == "" {
			return nil, missingShopReferenceError{ItemID: line.ItemID}
		}
		shopID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, missingShopReferenceError{ItemID: line.ItemID}
		}
		if line.Quantity <= 0 {
			return nil, errors.New("quantity must be greater than zero")
		}

		if i, ok := index[shopID]; ok {
			groups[i].Lines = append(groups[i].Lines, line)
			continue
		}
		index[shopID] = len(groups)
		groups = append(groups, cartGroup{ShopID: shopID, Lines: []cartLineRequest{line}})
	}

	return groups, nil
}

// subtotalOf sums unit price times quantity over one shop's lines.
func subtotalOf(lines []cartLineRequest) float64 {
	var total float64
	for _, line := range lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

func buildOrderItems(lines []cartLineRequest) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		itemID, err := primitive.ObjectIDFromHex(strings.TrimSpace(line.ItemID))
		if err != nil {
			return nil, errors.New("invalid itemId")
		}
		items = append(items, models.OrderItem{
			ItemID:   itemID,
			Name:     strings.TrimSpace(line.Name),
			Price:    line.Price,
			Quantity: line.Quantity,
		})
	}
	return items, nil
}

/* =========================
   PLACE ORDER
========================= */

func PlaceOrder(db *mongo.Database, hub *notify.Hub, gateways map[string]payments.Gateway, deliveryFee float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/order"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		userID, _ := authedUser(c)

		var req placeOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		gateway, ok := gateways[req.PaymentMethod]
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "invalid payment method")
			return
		}

		if strings.TrimSpace(req.DeliveryAddress.Text) == "" ||
			req.DeliveryAddress.Latitude == nil || req.DeliveryAddress.Longitude == nil {
			respondWithError(c, http.StatusBadRequest, route, "delivery address with coordinates is required")
			return
		}

		groups, err := groupCartByShop(req.CartItems)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var order models.Order
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			shopOrders := make([]models.ShopOrder, 0, len(groups))
			var total float64

			for _, group := range groups {
				var shop models.Shop
				err := db.Collection("shops").FindOne(sessCtx, bson.M{"_id": group.ShopID}).Decode(&shop)
				if err == mongo.ErrNoDocuments {
					return nil, shopNotFoundError{ShopID: group.ShopID}
				}
				if err != nil {
					return nil, err
				}

				items, err := buildOrderItems(group.Lines)
				if err != nil {
					return nil, err
				}

				subtotal := subtotalOf(group.Lines)
				total += subtotal

				shopOrders = append(shopOrders, models.ShopOrder{
					ID:       primitive.NewObjectID(),
					Shop:     shop.ID,
					Owner:    shop.Owner,
					ShopName: shop.Name,
					Subtotal: subtotal,
					Items:    items,
					Status:   models.StatusPending,
				})
			}

			order = models.Order{
				User:          userID,
				PaymentMethod: req.PaymentMethod,
				Paid:          req.PaymentMethod == models.PaymentCOD,
				DeliveryAddress: models.DeliveryAddress{
					Text:      strings.TrimSpace(req.DeliveryAddress.Text),
					Latitude:  *req.DeliveryAddress.Latitude,
					Longitude: *req.DeliveryAddress.Longitude,
				},
				DeliveryFee: deliveryFee,
				TotalAmount: total + deliveryFee,
				ShopOrders:  shopOrders,
				CreatedAt:   time.Now(),
			}

			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				order.ID = id
			}
			return nil, nil
		})
		if err != nil {
			var notFound shopNotFoundError
			if errors.As(err, &notFound) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":  "shop not found",
					"shopId": notFound.ShopID.Hex(),
				})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, err.Error())
			return
		}

		// Payment gateway is on the critical path for online orders.
		var checkout *payments.CheckoutData
		if req.PaymentMethod == models.PaymentOnline {
			var user models.User
			_ = db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)

			data, err := gateway.CreateCharge(ctx, order.ID.Hex(), order.TotalAmount, user.Mobile)
			if err != nil {
				log.Printf("[%s] gateway charge failed: %v", route, err)
				_, _ = db.Collection("orders").DeleteOne(ctx, bson.M{"_id": order.ID})
				respondWithError(c, http.StatusBadGateway, route, "payment gateway unavailable")
				return
			}
			checkout = &data
			order.GatewayOrderID = data.GatewayOrderID
			_, _ = db.Collection("orders").UpdateByID(ctx, order.ID, bson.M{
				"$set": bson.M{"gatewayOrderId": data.GatewayOrderID},
			})
		}

		// Best-effort realtime fan-out to each shop owner.
		for _, so := range order.ShopOrders {
			hub.Emit(so.Owner.Hex(), "newOrder", gin.H{
				"orderId":     order.ID.Hex(),
				"shopOrderId": so.ID.Hex(),
				"shopName":    so.ShopName,
				"subtotal":    so.Subtotal,
			})
		}

		log.Printf("[%s] order %s placed with %d shop orders total %.2f",
			route, order.ID.Hex(), len(order.ShopOrders), order.TotalAmount)

		resp := gin.H{"order": order}
		if checkout != nil {
			resp["checkout"] = checkout
		}
		c.JSON(http.StatusCreated, resp)
	}
}

/* =========================
   VERIFY ONLINE PAYMENT
========================= */

func VerifyPayment(db *mongo.Database, gateway payments.Gateway, mailer *mail.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/order/verify-payment"
		defer handlePanic(c, route)

		userID, _ := authedUser(c)

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		if !gateway.Verify(ctx, payments.VerifyPayload{
			GatewayOrderID:   req.GatewayOrderID,
			GatewayPaymentID: req.GatewayPaymentID,
			Signature:        req.Signature,
		}) {
			respondWithError(c, http.StatusBadRequest, route, "payment verification failed")
			return
		}

		// User and gateway order id are in the filter: nobody can confirm a
		// stranger's order or replay a different charge.
		var order models.Order
		err = db.Collection("orders").FindOneAndUpdate(ctx,
			bson.M{"_id": orderID, "user": userID, "gatewayOrderId": req.GatewayOrderID},
			bson.M{"$set": bson.M{"paid": true}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err == nil {
			go mailer.SendPaymentConfirmation(user.Email, order.ID.Hex(), order.TotalAmount)
		}

		log.Printf("[%s] payment confirmed for order %s", route, order.ID.Hex())
		c.JSON(http.StatusOK, order)
	}
}

/* =========================
   LIST ORDERS (role dispatch)
========================= */

// ownerView trims an order down to the acting owner's own ShopOrders.
func ownerView(order models.Order, ownerID primitive.ObjectID) models.Order {
	kept := make([]models.ShopOrder, 0, 1)
	for _, so := range order.ShopOrders {
		if so.Owner == ownerID {
			kept = append(kept, so)
		}
	}
	order.ShopOrders = kept
	return order
}

func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/order/my"
		defer handlePanic(c, route)

		userID, role := authedUser(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		// Listing query keyed on the closed role set.
		var filter bson.M
		switch role {
		case models.RoleCustomer:
			filter = bson.M{"user": userID}
		case models.RoleOwner:
			filter = bson.M{"shopOrders.owner": userID}
		case models.RoleCourier:
			filter = bson.M{"shopOrders.assignedCourier": userID}
		default:
			respondWithError(c, http.StatusForbidden, route, "forbidden")
			return
		}

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

		// Pagination is applied only when both page and limit are present.
		pageStr := c.Query("page")
		limitStr := c.Query("limit")
		if pageStr != "" && limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
				return
			}
			findOptions.SetSkip((page - 1) * limit).SetLimit(limit)
		}

		cursor, err := db.Collection("orders").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var orders []models.Order
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		if role == models.RoleOwner {
			for i := range orders {
				orders[i] = ownerView(orders[i], userID)
			}
		}

		log.Printf("[%s] returning %d orders for role %s", route, len(orders), role)
		c.JSON(http.StatusOK, orders)
	}
}

func GetOrderByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role := authedUser(c)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}

		switch role {
		case models.RoleCustomer:
			if order.User != userID {
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		case models.RoleOwner:
			order = ownerView(order, userID)
			if len(order.ShopOrders) == 0 {
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		case models.RoleCourier:
			assigned := false
			for _, so := range order.ShopOrders {
				if so.AssignedCourier != nil && *so.AssignedCourier == userID {
					assigned = true
					break
				}
			}
			if !assigned {
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.JSON(http.StatusOK, order)
	}
}
