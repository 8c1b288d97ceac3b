package handlers

import (
	"math"
	"testing"
	"time"

	"quickbite/internal/models"
)

func TestSplitTagField(t *testing.T) {
	got := splitTagField(" spicy , vegan,,  street food ")
	want := models.StringList{"spicy", "vegan", "street food"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSplitTagFieldEmpty(t *testing.T) {
	if got := splitTagField("  , ,"); len(got) != 0 {
		t.Fatalf("expected no tags, got %v", got)
	}
}

func TestRecommendScoreWeighsRatingHighest(t *testing.T) {
	old := 30 * 24 * time.Hour
	highRated := recommendScore(4.8, 10, old)
	popularButLow := recommendScore(3.0, 100, old)
	if highRated <= popularButLow-4 {
		t.Fatalf("rating weight too weak: %v vs %v", highRated, popularButLow)
	}
	if got, want := recommendScore(4.0, 5, old), 4.0*2+0.5; math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRecommendScoreFreshnessBoost(t *testing.T) {
	fresh := recommendScore(4.0, 5, 2*24*time.Hour)
	stale := recommendScore(4.0, 5, 8*24*time.Hour)
	if math.Abs((fresh-stale)-1) > 1e-9 {
		t.Fatalf("freshness boost should be 1, got %v", fresh-stale)
	}
}

func TestRecommendScoreUnratedItem(t *testing.T) {
	if got := recommendScore(0, 0, 10*24*time.Hour); got != 0 {
		t.Fatalf("unrated stale item should score 0, got %v", got)
	}
}

func TestValidItemCategory(t *testing.T) {
	if !models.ValidItemCategory("Snacks") {
		t.Fatal("Snacks should be a valid category")
	}
	if models.ValidItemCategory("Gadgets") {
		t.Fatal("Gadgets should not be a valid category")
	}
}
