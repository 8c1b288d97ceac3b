package handlers

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Domain error structs in the taxonomy: validation, authorization,
// state-conflict, not-found. Handlers dispatch on them with errors.As and map
// them to HTTP statuses; state conflicts are never swallowed.

type emptyCartError struct{}

func (emptyCartError) Error() string { return "cart is empty" }

type missingShopReferenceError struct {
	ItemID string
}

func (e missingShopReferenceError) Error() string {
	return fmt.Sprintf("cart line %s has no shop reference", e.ItemID)
}

type shopNotFoundError struct {
	ShopID primitive.ObjectID
}

func (e shopNotFoundError) Error() string {
	return fmt.Sprintf("shop %s not found", e.ShopID.Hex())
}

type orderNotFoundError struct {
	OrderID primitive.ObjectID
}

func (e orderNotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID.Hex())
}

type shopOrderNotFoundError struct {
	OrderID primitive.ObjectID
	ShopID  primitive.ObjectID
}

func (e shopOrderNotFoundError) Error() string {
	return fmt.Sprintf("order %s has no shop order for shop %s", e.OrderID.Hex(), e.ShopID.Hex())
}

type notOwnerError struct{}

func (notOwnerError) Error() string { return "acting user does not own this shop order" }

type invalidTransitionError struct {
	From string
	To   string
}

func (e invalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %q to %q", e.From, e.To)
}

type noAssignmentToCompleteError struct{}

func (noAssignmentToCompleteError) Error() string {
	return "no assigned delivery to complete"
}

type assignmentNotFoundError struct{}

func (assignmentNotFoundError) Error() string { return "delivery assignment not found" }

type broadcastExpiredError struct{}

func (broadcastExpiredError) Error() string { return "delivery broadcast expired" }

type alreadyAssignedError struct{}

func (alreadyAssignedError) Error() string { return "delivery already assigned" }

type courierNotEligibleError struct {
	CourierID primitive.ObjectID
}

func (e courierNotEligibleError) Error() string {
	return fmt.Sprintf("courier %s was not broadcast this delivery", e.CourierID.Hex())
}

type itemNotInOrderError struct {
	ItemID primitive.ObjectID
}

func (e itemNotInOrderError) Error() string {
	return fmt.Sprintf("item %s is not part of this order", e.ItemID.Hex())
}

type invalidRatingScoreError struct {
	Score float64
}

func (e invalidRatingScoreError) Error() string {
	return fmt.Sprintf("rating score %v must be between 1 and 5", e.Score)
}
