package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentCOD    = "cod"
	PaymentOnline = "online"
)

// ShopOrder status values, in the only allowed forward order.
const (
	StatusPending       = "pending"
	StatusPreparing     = "preparing"
	StatusOutOfDelivery = "out of delivery"
	StatusDelivered     = "delivered"
)

var shopOrderStatuses = []string{
	StatusPending,
	StatusPreparing,
	StatusOutOfDelivery,
	StatusDelivered,
}

// StatusRank maps a status to its position in the forward sequence, -1 for an
// unknown status.
func StatusRank(status string) int {
	for i, s := range shopOrderStatuses {
		if s == status {
			return i
		}
	}
	return -1
}

// NextStatus returns the immediate successor of current, or "" when current is
// terminal or unknown. Skipping states is never allowed, so a transition is
// legal exactly when target == NextStatus(current).
func NextStatus(current string) string {
	rank := StatusRank(current)
	if rank < 0 || rank == len(shopOrderStatuses)-1 {
		return ""
	}
	return shopOrderStatuses[rank+1]
}

// OrderItem is a snapshotted cart line inside a ShopOrder. Name and price are
// copied at placement time so later menu edits never rewrite history.
type OrderItem struct {
	ItemID   primitive.ObjectID `bson:"item" json:"item"`
	Name     string             `bson:"name" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// DeliveryAddress is the drop point for the whole order.
type DeliveryAddress struct {
	Text      string  `bson:"text" json:"text"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// ShopOrder is the per-shop slice of an order. It is embedded in Order and has
// no independent lifecycle; only its status and assignment fields mutate after
// placement.
type ShopOrder struct {
	ID              primitive.ObjectID  `bson:"_id" json:"id"`
	Shop            primitive.ObjectID  `bson:"shop" json:"shop"`
	Owner           primitive.ObjectID  `bson:"owner" json:"owner"`
	ShopName        string              `bson:"shopName" json:"shopName"`
	Subtotal        float64             `bson:"subtotal" json:"subtotal"`
	Items           []OrderItem         `bson:"items" json:"items"`
	Status          string              `bson:"status" json:"status"`
	AssignedCourier *primitive.ObjectID `bson:"assignedCourier,omitempty" json:"assignedCourier,omitempty"`
	Assignment      *primitive.ObjectID `bson:"assignment,omitempty" json:"assignment,omitempty"`
	DeliveredAt     *time.Time          `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
}

// Order is the root aggregate a customer placed. Immutable after creation
// except for the embedded ShopOrder status/assignment fields and the payment
// confirmation flag.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	Paid            bool               `bson:"paid" json:"paid"`
	GatewayOrderID  string             `bson:"gatewayOrderId,omitempty" json:"gatewayOrderId,omitempty"`
	DeliveryAddress DeliveryAddress    `bson:"deliveryAddress" json:"deliveryAddress"`
	DeliveryFee     float64            `bson:"deliveryFee" json:"deliveryFee"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	ShopOrders      []ShopOrder        `bson:"shopOrders" json:"shopOrders"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// ShopOrderFor returns the embedded ShopOrder for shopID, nil when the order
// has no slice for that shop.
func (o *Order) ShopOrderFor(shopID primitive.ObjectID) *ShopOrder {
	for i := range o.ShopOrders {
		if o.ShopOrders[i].Shop == shopID {
			return &o.ShopOrders[i]
		}
	}
	return nil
}
