package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/geo"
)

func TestHaversine_SamePoint(t *testing.T) {
	p := domain.Point{Lat: -21.2020, Lng: -47.8130}
	assert.InDelta(t, 0, geo.Haversine(p, p), 1e-9)
}

func TestHaversine_KnownDistance(t *testing.T) {
	// The S2 near-cluster coordinate vs. a point ~26km away.
	base := domain.Point{Lat: -21.17, Lng: -47.81}
	far := domain.Point{Lat: -21.30, Lng: -47.60}
	d := geo.Haversine(base, far)
	assert.Greater(t, d, 20.0)
	assert.Less(t, d, 30.0)
}

func TestHaversine_SameAddressThreshold(t *testing.T) {
	a := domain.Point{Lat: -21.17, Lng: -47.81}
	b := domain.Point{Lat: -21.17, Lng: -47.81}
	assert.Less(t, geo.Haversine(a, b), 0.05)
}

func TestCentroid(t *testing.T) {
	points := []domain.Point{
		{Lat: 0, Lng: 0},
		{Lat: 2, Lng: 2},
	}
	c := geo.Centroid(points)
	assert.Equal(t, domain.Point{Lat: 1, Lng: 1}, c)
}

func TestCentroid_Empty(t *testing.T) {
	assert.Equal(t, domain.Point{}, geo.Centroid(nil))
}

func TestNearestDistance(t *testing.T) {
	route := []domain.Point{
		{Lat: 0, Lng: 0},
		{Lat: 1, Lng: 1},
		{Lat: 2, Lng: 2},
	}
	p := domain.Point{Lat: 1.01, Lng: 1.01}
	d := geo.NearestDistance(p, route)
	assert.Less(t, d, geo.Haversine(p, route[0]))
}

func TestNearestDistance_Empty(t *testing.T) {
	assert.True(t, math.IsInf(geo.NearestDistance(domain.Point{}, nil), 1))
}
