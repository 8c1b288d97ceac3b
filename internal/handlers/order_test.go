package handlers

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/internal/models"
)

func TestGroupCartByShopPartitionsPerShop(t *testing.T) {
	shop1 := primitive.NewObjectID().Hex()
	shop2 := primitive.NewObjectID().Hex()

	lines := []cartLineRequest{
		{ItemID: primitive.NewObjectID().Hex(), ShopID: shop1, Price: 100, Quantity: 2},
		{ItemID: primitive.NewObjectID().Hex(), ShopID: shop2, Price: 50, Quantity: 1},
		{ItemID: primitive.NewObjectID().Hex(), ShopID: shop1, Price: 20, Quantity: 3},
	}

	groups, err := groupCartByShop(lines)
	if err != nil {
		t.Fatalf("groupCartByShop returned error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].ShopID.Hex() != shop1 || groups[1].ShopID.Hex() != shop2 {
		t.Fatal("groups not in first-seen shop order")
	}
	if len(groups[0].Lines) != 2 || len(groups[1].Lines) != 1 {
		t.Fatalf("lines distributed wrong: %d/%d", len(groups[0].Lines), len(groups[1].Lines))
	}
}

func TestGroupCartByShopRejectsEmptyCart(t *testing.T) {
	_, err := groupCartByShop(nil)
	var empty emptyCartError
	if !errors.As(err, &empty) {
		t.Fatalf("expected emptyCartError, got %v", err)
	}
}

func TestGroupCartByShopRejectsMissingShopReference(t *testing.T) {
	lines := []cartLineRequest{
		{ItemID: "item-1", ShopID: "", Price: 100, Quantity: 1},
	}
	_, err := groupCartByShop(lines)
	var missing missingShopReferenceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected missingShopReferenceError, got %v", err)
	}
	if missing.ItemID != "item-1" {
		t.Fatalf("error should name the offending line, got %q", missing.ItemID)
	}

	// A malformed shop id counts as missing too.
	lines[0].ShopID = "not-an-object-id"
	if _, err := groupCartByShop(lines); !errors.As(err, &missing) {
		t.Fatalf("expected missingShopReferenceError for malformed id, got %v", err)
	}
}

func TestGroupCartByShopRejectsNonPositiveQuantity(t *testing.T) {
	lines := []cartLineRequest{
		{ItemID: "x", ShopID: primitive.NewObjectID().Hex(), Price: 10, Quantity: 0},
	}
	if _, err := groupCartByShop(lines); err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestSubtotalOf(t *testing.T) {
	lines := []cartLineRequest{
		{Price: 100, Quantity: 2},
		{Price: 50, Quantity: 1},
	}
	if got := subtotalOf(lines); got != 250 {
		t.Fatalf("expected subtotal 250, got %v", got)
	}
	if got := subtotalOf(nil); got != 0 {
		t.Fatalf("expected 0 for no lines, got %v", got)
	}
}

// Mirrors the two-shop cart walkthrough: subtotals per shop plus the delivery
// fee must add up to the order total.
func TestTwoShopCartTotals(t *testing.T) {
	shop1 := primitive.NewObjectID().Hex()
	shop2 := primitive.NewObjectID().Hex()

	lines := []cartLineRequest{
		{ItemID: primitive.NewObjectID().Hex(), ShopID: shop1, Price: 100, Quantity: 2},
		{ItemID: primitive.NewObjectID().Hex(), ShopID: shop2, Price: 50, Quantity: 1},
	}

	groups, err := groupCartByShop(lines)
	if err != nil {
		t.Fatalf("groupCartByShop returned error: %v", err)
	}

	subtotals := []float64{subtotalOf(groups[0].Lines), subtotalOf(groups[1].Lines)}
	if subtotals[0] != 200 || subtotals[1] != 50 {
		t.Fatalf("expected subtotals 200 and 50, got %v", subtotals)
	}

	deliveryFee := 40.0
	total := subtotals[0] + subtotals[1] + deliveryFee
	if total != 290 {
		t.Fatalf("expected total 290, got %v", total)
	}
}

func TestBuildOrderItemsSnapshotsLines(t *testing.T) {
	itemID := primitive.NewObjectID()
	lines := []cartLineRequest{
		{ItemID: itemID.Hex(), Name: "  Paneer Tikka ", Price: 180, Quantity: 2},
	}

	items, err := buildOrderItems(lines)
	if err != nil {
		t.Fatalf("buildOrderItems returned error: %v", err)
	}
	if items[0].ItemID != itemID || items[0].Name != "Paneer Tikka" ||
		items[0].Price != 180 || items[0].Quantity != 2 {
		t.Fatalf("snapshot wrong: %+v", items[0])
	}

	if _, err := buildOrderItems([]cartLineRequest{{ItemID: "bad"}}); err == nil {
		t.Fatal("expected error for malformed item id")
	}
}

func TestOwnerViewKeepsOnlyOwnShopOrders(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	order := models.Order{ShopOrders: []models.ShopOrder{
		{ID: primitive.NewObjectID(), Owner: owner, Subtotal: 200},
		{ID: primitive.NewObjectID(), Owner: other, Subtotal: 50},
	}}

	trimmed := ownerView(order, owner)
	if len(trimmed.ShopOrders) != 1 || trimmed.ShopOrders[0].Owner != owner {
		t.Fatalf("expected only the owner's shop order, got %+v", trimmed.ShopOrders)
	}

	none := ownerView(order, primitive.NewObjectID())
	if len(none.ShopOrders) != 0 {
		t.Fatal("expected no shop orders for a stranger")
	}
}
