// README: Great-circle distance and nearest-first ordering helpers.
package location

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance in kilometres between two
// WGS84 coordinates given in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	sinLat := math.Sin(toRadians(lat2-lat1) / 2)
	sinLng := math.Sin(toRadians(lng2-lng1) / 2)

	h := sinLat*sinLat + math.Cos(phi1)*math.Cos(phi2)*sinLng*sinLng
	// Clamp before Asin: float error can push h a hair past 1 for
	// near-antipodal points.
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// sortByDistance orders items nearest first. Stable, so equal distances keep
// the order the store returned them in.
func sortByDistance[T any](items []T, dist func(T) float64) {
	sort.SliceStable(items, func(i, j int) bool {
		return dist(items[i]) < dist(items[j])
	})
}
