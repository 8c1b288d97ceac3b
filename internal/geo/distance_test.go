package geo

import (
	"math"
	"testing"
)

func TestHaversineKmZeroDistance(t *testing.T) {
	if got := HaversineKm(28.6139, 77.2090, 28.6139, 77.2090); got != 0 {
		t.Fatalf("expected 0 distance for identical points, got %v", got)
	}
}

func TestHaversineKmKnownDistance(t *testing.T) {
	// Delhi to Mumbai is roughly 1150 km.
	got := HaversineKm(28.6139, 77.2090, 19.0760, 72.8777)
	if math.Abs(got-1150) > 20 {
		t.Fatalf("expected ~1150km, got %v", got)
	}
}

func TestIsWithinRadiusKm(t *testing.T) {
	// Two points ~1.1km apart.
	lat1, lng1 := 28.6139, 77.2090
	lat2, lng2 := 28.6239, 77.2090

	if !IsWithinRadiusKm(lat1, lng1, lat2, lng2, 5) {
		t.Fatal("expected points within 5km radius")
	}
	if IsWithinRadiusKm(lat1, lng1, lat2, lng2, 0.5) {
		t.Fatal("expected points outside 0.5km radius")
	}
}

func TestSortByDistanceNearestFirst(t *testing.T) {
	origin := Point{Lat: 28.6139, Lng: 77.2090}
	points := []Point{
		{Lat: 28.70, Lng: 77.20}, // far
		{Lat: 28.615, Lng: 77.21}, // near
		{Lat: 28.65, Lng: 77.20},  // middle
	}

	order := SortByDistance(origin, points)
	if len(order) != 3 {
		t.Fatalf("expected 3 indexes, got %d", len(order))
	}
	if order[0] != 1 || order[1] != 2 || order[2] != 0 {
		t.Fatalf("expected nearest-first order [1 2 0], got %v", order)
	}

	// Input must be untouched.
	if points[0].Lat != 28.70 {
		t.Fatal("input slice was reordered")
	}
}
