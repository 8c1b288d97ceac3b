package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is Earth's radius in kilometers for Haversine calculation.
const EarthRadiusKm = 6371.0088

// HaversineKm calculates the great-circle distance between two points on
// Earth in kilometers using the Haversine formula.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// IsWithinRadiusKm checks if two coordinates are within radiusKm of each other.
func IsWithinRadiusKm(lat1, lng1, lat2, lng2, radiusKm float64) bool {
	return HaversineKm(lat1, lng1, lat2, lng2) <= radiusKm
}

// Point is a bare latitude/longitude pair for in-process distance work.
type Point struct {
	Lat float64
	Lng float64
}

// SortByDistance orders indexes of points nearest-first relative to origin and
// returns the permutation. The input slice is not modified.
func SortByDistance(origin Point, points []Point) []int {
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da := HaversineKm(origin.Lat, origin.Lng, points[order[a]].Lat, points[order[a]].Lng)
		db := HaversineKm(origin.Lat, origin.Lng, points[order[b]].Lat, points[order[b]].Lng)
		return da < db
	})
	return order
}
