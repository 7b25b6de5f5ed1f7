// Package geo implements the pure coordinate functions used by the dispatcher: great-circle distance,
// centroid, and nearest-point-to-route. No I/O, no dependency on domain's Store.
package geo

import (
	"math"

	"github.com/italoogomes/motoflash/internal/domain"
)

// earthRadiusKM is the Earth radius used by the haversine formula.
const earthRadiusKM = 6371.0

// Haversine returns the great-circle distance between two points in kilometers.
func Haversine(a, b domain.Point) float64 {
	lat1, lat2 := deg2rad(a.Lat), deg2rad(b.Lat)
	dLat := deg2rad(b.Lat - a.Lat)
	dLng := deg2rad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKM * c
}

func deg2rad(d float64) float64 {
	return d * math.Pi / 180
}

// Centroid returns the arithmetic mean of lat and lng across points. Sufficient for the
// clustering scale used by the dispatcher. An empty slice yields the zero Point.
func Centroid(points []domain.Point) domain.Point {
	if len(points) == 0 {
		return domain.Point{}
	}
	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(points))
	return domain.Point{Lat: sumLat / n, Lng: sumLng / n}
}

// NearestDistance returns the minimum haversine distance from p to any point in route.
// Used by orphan reassignment to find the closest existing route.
func NearestDistance(p domain.Point, route []domain.Point) float64 {
	if len(route) == 0 {
		return math.Inf(1)
	}
	min := Haversine(p, route[0])
	for _, rp := range route[1:] {
		if d := Haversine(p, rp); d < min {
			min = d
		}
	}
	return min
}
