package geo

import (
	"math"

	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

// Distance calculates the distance between two coordinates using the
// Haversine formula. Returns kilometers.
func Distance(a, b types.Coordinate) float64 {
	const R = 6371 // Earth's radius in kilometers

	lat1Rad := a.Latitude * math.Pi / 180
	lon1Rad := a.Longitude * math.Pi / 180
	lat2Rad := b.Latitude * math.Pi / 180
	lon2Rad := b.Longitude * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return R * c
}

// AverageDistanceKm is the mean distance from one point to a set, rounded to
// two decimals the way the hotel artifact reports it. Returns 0 for an empty
// set.
func AverageDistanceKm(from types.Coordinate, to []types.Coordinate) float64 {
	if len(to) == 0 {
		return 0
	}
	var sum float64
	for _, c := range to {
		sum += Distance(from, c)
	}
	return Round2(sum / float64(len(to)))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
