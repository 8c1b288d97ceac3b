package handlers

import (
	"math"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/internal/models"
)

func TestApplyNewRating(t *testing.T) {
	avg, count := applyNewRating(0, 0, 4)
	if avg != 4 || count != 1 {
		t.Fatalf("first rating: got avg=%v count=%d", avg, count)
	}

	avg, count = applyNewRating(4, 1, 2)
	if avg != 3 || count != 2 {
		t.Fatalf("second rating: got avg=%v count=%d", avg, count)
	}
}

func TestApplyUpdatedRatingKeepsCount(t *testing.T) {
	// Ratings 4 and 2 give avg 3; re-rating the 2 as a 4 should give avg 4.
	avg := applyUpdatedRating(3, 2, 2, 4)
	if avg != 4 {
		t.Fatalf("expected avg 4 after update, got %v", avg)
	}

	if got := applyUpdatedRating(5, 0, 5, 1); got != 0 {
		t.Fatalf("expected 0 for count 0, got %v", got)
	}
}

// Re-rating must end at the same aggregate as if only the final score had
// ever been given for that purchase.
func TestRerateMatchesDirectRecomputation(t *testing.T) {
	// Existing item state: three other ratings 5, 3, 4.
	avg, count := 0.0, int64(0)
	for _, s := range []float64{5, 3, 4} {
		avg, count = applyNewRating(avg, count, s)
	}

	// Customer rates 4, then re-rates 2.
	avg, count = applyNewRating(avg, count, 4)
	avg = applyUpdatedRating(avg, count, 4, 2)

	direct := (5.0 + 3 + 4 + 2) / 4
	if math.Abs(avg-direct) > 1e-9 {
		t.Fatalf("incremental avg %v diverged from direct %v", avg, direct)
	}
	if count != 4 {
		t.Fatalf("count must not grow on re-rate, got %d", count)
	}
}

// Two raters folding into the aggregate one after the other must end at the
// same average as direct recomputation over all scores. This holds only when
// each fold starts from the aggregate the previous one committed, never from
// a stale read.
func TestSequentialFoldsMatchDirectRecomputation(t *testing.T) {
	state := models.ItemRating{Average: 4, Count: 1}

	avg, count := nextItemAggregate(state, nil, 2)
	state = models.ItemRating{Average: avg, Count: count}

	avg, count = nextItemAggregate(state, nil, 5)

	direct := (4.0 + 2 + 5) / 3
	if math.Abs(avg-direct) > 1e-9 {
		t.Fatalf("folded avg %v diverged from direct %v", avg, direct)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestNextItemAggregateUpdateKeepsCount(t *testing.T) {
	old := 4.0
	avg, count := nextItemAggregate(models.ItemRating{Average: 3, Count: 2}, &old, 2)
	if count != 2 {
		t.Fatalf("re-rate must not grow count, got %d", count)
	}
	if math.Abs(avg-2.5) > 1e-9 {
		t.Fatalf("expected avg 2.5, got %v", avg)
	}
}

func TestIncrementalAverageStaysInScoreBounds(t *testing.T) {
	avg, count := 0.0, int64(0)
	scores := []float64{1, 5, 5, 2, 3, 4, 1, 5}
	sum := 0.0
	for _, s := range scores {
		avg, count = applyNewRating(avg, count, s)
		sum += s
	}
	if math.Abs(avg-sum/float64(len(scores))) > 1e-9 {
		t.Fatalf("running avg %v diverged from %v", avg, sum/float64(len(scores)))
	}
	if avg < 1 || avg > 5 {
		t.Fatalf("average %v escaped score bounds", avg)
	}
}

func TestOrderContainsItem(t *testing.T) {
	itemID := primitive.NewObjectID()
	order := models.Order{ShopOrders: []models.ShopOrder{
		{Items: []models.OrderItem{{ItemID: primitive.NewObjectID()}}},
		{Items: []models.OrderItem{{ItemID: itemID}}},
	}}

	if !orderContainsItem(&order, itemID) {
		t.Fatal("expected item to be found in second shop order")
	}
	if orderContainsItem(&order, primitive.NewObjectID()) {
		t.Fatal("expected unknown item to be absent")
	}
}
