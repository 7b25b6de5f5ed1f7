package routing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/geo"
	"github.com/italoogomes/motoflash/internal/routing"
	"github.com/italoogomes/motoflash/pkg/logger"
)

var (
	from = domain.Point{Lat: -21.20, Lng: -47.81}
	to   = domain.Point{Lat: -21.21, Lng: -47.82}
)

func newLog() logger.Logger {
	return logger.New("error", "text")
}

func TestDrivingDistanceM_NoBaseURLUsesFallback(t *testing.T) {
	c := routing.NewHTTPClient("", "", newLog())
	dist, err := c.DrivingDistanceM(context.Background(), from, to)
	require.NoError(t, err)
	require.InDelta(t, geo.Haversine(from, to)*1000*1.4, dist, 0.001)
}

func TestDrivingDistanceM_CallsProviderOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/distance", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]float64{"distance_m": 1234.5})
	}))
	defer srv.Close()

	c := routing.NewHTTPClient(srv.URL, "", newLog())
	dist, err := c.DrivingDistanceM(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1234.5, dist)
}

func TestDrivingDistanceM_ProviderErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := routing.NewHTTPClient(srv.URL, "", newLog())
	dist, err := c.DrivingDistanceM(context.Background(), from, to)
	require.NoError(t, err)
	require.InDelta(t, geo.Haversine(from, to)*1000*1.4, dist, 0.001)
}

func TestDrivingDistanceM_MalformedBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := routing.NewHTTPClient(srv.URL, "", newLog())
	dist, err := c.DrivingDistanceM(context.Background(), from, to)
	require.NoError(t, err)
	require.InDelta(t, geo.Haversine(from, to)*1000*1.4, dist, 0.001)
}

func TestRoutePolyline_NoBaseURLReturnsNil(t *testing.T) {
	c := routing.NewHTTPClient("", "", newLog())
	route, err := c.RoutePolyline(context.Background(), from, []domain.Point{to})
	require.NoError(t, err)
	require.Nil(t, route)
}

func TestRoutePolyline_EmptyStopsReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider should not be called with zero stops")
	}))
	defer srv.Close()

	c := routing.NewHTTPClient(srv.URL, "", newLog())
	route, err := c.RoutePolyline(context.Background(), from, nil)
	require.NoError(t, err)
	require.Nil(t, route)
}

func TestRoutePolyline_CallsProviderOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/route", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(routing.Route{
			Polyline: "abc123",
			Legs:     []routing.Leg{{DistanceM: 100, DurationS: 30}},
		})
	}))
	defer srv.Close()

	c := routing.NewHTTPClient(srv.URL, "", newLog())
	route, err := c.RoutePolyline(context.Background(), from, []domain.Point{to})
	require.NoError(t, err)
	require.NotNil(t, route)
	require.Equal(t, "abc123", route.Polyline)
	require.Len(t, route.Legs, 1)
}

func TestRoutePolyline_ProviderErrorReturnsNilNoError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := routing.NewHTTPClient(srv.URL, "", newLog())
	route, err := c.RoutePolyline(context.Background(), from, []domain.Point{to})
	require.NoError(t, err)
	require.Nil(t, route)
}

func TestDrivingDistanceM_SendsAuthorizationHeaderWhenAPIKeySet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]float64{"distance_m": 500})
	}))
	defer srv.Close()

	c := routing.NewHTTPClient(srv.URL, "secret", newLog())
	dist, err := c.DrivingDistanceM(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 500.0, dist)
}
