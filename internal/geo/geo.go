// Package geo provides the great-circle distance shared by the
// proximity filter and the ranking scorer, so "closer" means the same
// thing in both.
package geo

import "math"

// EarthRadiusMiles is the spherical radius used by Distance.
const EarthRadiusMiles = 3959.0

// Distance returns the haversine distance in miles between two points
// given in degrees.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusMiles * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
