package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNextStatusFollowsForwardSequence(t *testing.T) {
	steps := map[string]string{
		StatusPending:       StatusPreparing,
		StatusPreparing:     StatusOutOfDelivery,
		StatusOutOfDelivery: StatusDelivered,
	}
	for current, want := range steps {
		if got := NextStatus(current); got != want {
			t.Fatalf("NextStatus(%q) = %q, want %q", current, got, want)
		}
	}
}

func TestNextStatusTerminalAndUnknown(t *testing.T) {
	if got := NextStatus(StatusDelivered); got != "" {
		t.Fatalf("expected no successor for delivered, got %q", got)
	}
	if got := NextStatus("cancelled"); got != "" {
		t.Fatalf("expected no successor for unknown status, got %q", got)
	}
}

func TestStatusRankIsMonotonic(t *testing.T) {
	ordered := []string{StatusPending, StatusPreparing, StatusOutOfDelivery, StatusDelivered}
	for i := 1; i < len(ordered); i++ {
		if StatusRank(ordered[i-1]) >= StatusRank(ordered[i]) {
			t.Fatalf("rank of %q should be below %q", ordered[i-1], ordered[i])
		}
	}
	if StatusRank("bogus") != -1 {
		t.Fatal("expected -1 for unknown status")
	}
}

func TestSkippingStatesIsNeverASuccessor(t *testing.T) {
	// pending -> delivered must not be reachable in one step.
	if NextStatus(StatusPending) == StatusDelivered {
		t.Fatal("pending must not jump straight to delivered")
	}
	if NextStatus(StatusPending) == StatusOutOfDelivery {
		t.Fatal("pending must not jump straight to out of delivery")
	}
}

func TestShopOrderFor(t *testing.T) {
	shopA := primitive.NewObjectID()
	shopB := primitive.NewObjectID()

	order := Order{ShopOrders: []ShopOrder{
		{ID: primitive.NewObjectID(), Shop: shopA, Subtotal: 200},
		{ID: primitive.NewObjectID(), Shop: shopB, Subtotal: 50},
	}}

	so := order.ShopOrderFor(shopB)
	if so == nil || so.Subtotal != 50 {
		t.Fatalf("expected shop B's sub-order, got %+v", so)
	}

	if order.ShopOrderFor(primitive.NewObjectID()) != nil {
		t.Fatal("expected nil for a shop not in the order")
	}

	// The pointer must alias the embedded element so callers can mutate it.
	so.Status = StatusPreparing
	if order.ShopOrders[1].Status != StatusPreparing {
		t.Fatal("ShopOrderFor returned a copy instead of a pointer into the order")
	}
}
