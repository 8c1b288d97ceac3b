package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryAssignment status values.
const (
	AssignmentBroadcasted = "broadcasted"
	AssignmentAssigned    = "assigned"
	AssignmentCompleted   = "completed"
	AssignmentExpired     = "expired"
)

// DeliveryAssignment is the broadcast record for one ShopOrder entering
// delivery. It lives outside the Order document so claim races only contend on
// this one small document.
type DeliveryAssignment struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Order           primitive.ObjectID   `bson:"order" json:"order"`
	ShopOrderID     primitive.ObjectID   `bson:"shopOrderId" json:"shopOrderId"`
	Shop            primitive.ObjectID   `bson:"shop" json:"shop"`
	ShopName        string               `bson:"shopName" json:"shopName"`
	DeliveryAddress DeliveryAddress      `bson:"deliveryAddress" json:"deliveryAddress"`
	BroadcastedTo   []primitive.ObjectID `bson:"broadcastedTo" json:"broadcastedTo"`
	Status          string               `bson:"status" json:"status"`
	AssignedTo      *primitive.ObjectID  `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AcceptedAt      *time.Time           `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	Rebroadcasted   bool                 `bson:"rebroadcasted" json:"rebroadcasted"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
}

// WasBroadcastedTo reports whether courierID is in the broadcast list.
func (a *DeliveryAssignment) WasBroadcastedTo(courierID primitive.ObjectID) bool {
	for _, id := range a.BroadcastedTo {
		if id == courierID {
			return true
		}
	}
	return false
}
