// Package routing adapts to an external driving-directions provider. Both of its
// operations degrade to a deterministic fallback when the provider call fails for any
// reason; callers never see the provider's own errors.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/geo"
	"github.com/italoogomes/motoflash/pkg/logger"
)

// callTimeout bounds every external call.
const callTimeout = 10 * time.Second

// fallbackSpeedFactor converts a straight-line distance into an approximate driving
// distance when the provider is unavailable.
const fallbackSpeedFactor = 1.4

// Leg is one turn in a route's overview polyline.
type Leg struct {
	DistanceM float64 `json:"distance_m"`
	DurationS float64 `json:"duration_s"`
}

// Route is the optional overlay returned by RoutePolyline; nil when the provider call
// failed.
type Route struct {
	Polyline string `json:"polyline"`
	Legs     []Leg  `json:"legs"`
}

// Client is the Routing Client contract. It must never be called from inside a
// Store transaction.
type Client interface {
	DrivingDistanceM(ctx context.Context, from, to domain.Point) (float64, error)
	RoutePolyline(ctx context.Context, start domain.Point, stops []domain.Point) (*Route, error)
}

// HTTPClient calls an external driving-directions API and falls back to a haversine-based
// estimate (distance) or nil (polyline) on any failure.
type HTTPClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Log        logger.Logger
}

// NewHTTPClient constructs an HTTPClient with a 10s timeout.
func NewHTTPClient(baseURL, apiKey string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: callTimeout},
		Log:        log,
	}
}

type distanceRequest struct {
	From domain.Point `json:"from"`
	To   domain.Point `json:"to"`
}

type distanceResponse struct {
	DistanceM float64 `json:"distance_m"`
}

// DrivingDistanceM requests a driving distance from the provider. On any failure
// (network error, non-2xx status, malformed body, or the 10s timeout) it falls back to
// haversine(from, to) × 1000 × 1.4.
func (c *HTTPClient) DrivingDistanceM(ctx context.Context, from, to domain.Point) (float64, error) {
	d, err := c.callDistance(ctx, from, to)
	if err != nil {
		c.Log.WithField("error", err.Error()).Warn("routing: driving distance call failed, using fallback")
		return fallbackDistanceM(from, to), nil
	}
	return d, nil
}

func (c *HTTPClient) callDistance(ctx context.Context, from, to domain.Point) (float64, error) {
	if c.BaseURL == "" {
		return 0, fmt.Errorf("no routing provider configured")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	body, err := json.Marshal(distanceRequest{From: from, To: to})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/distance", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var out distanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return out.DistanceM, nil
}

// fallbackDistanceM is the deterministic distance fallback.
func fallbackDistanceM(from, to domain.Point) float64 {
	return geo.Haversine(from, to) * 1000 * fallbackSpeedFactor
}

type routeRequest struct {
	Start domain.Point   `json:"start"`
	Stops []domain.Point `json:"stops"`
}

// RoutePolyline requests driving directions from start through stops, in the order
// given — it never asks the provider to re-order the stops; the dispatcher has already
// chosen the order. On any failure the
// fallback is nil: the polyline is an optional overlay and its absence is acceptable.
func (c *HTTPClient) RoutePolyline(ctx context.Context, start domain.Point, stops []domain.Point) (*Route, error) {
	if c.BaseURL == "" || len(stops) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	body, err := json.Marshal(routeRequest{Start: start, Stops: stops})
	if err != nil {
		c.Log.WithField("error", err.Error()).Warn("routing: encode route request failed, using fallback")
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/route", bytes.NewReader(body))
	if err != nil {
		c.Log.WithField("error", err.Error()).Warn("routing: build route request failed, using fallback")
		return nil, nil
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	// optimize_waypoints is intentionally never set here: the provider's own
	// waypoint-reordering is a known source of regional bugs for this system and must
	// not be reintroduced.

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Log.WithField("error", err.Error()).Warn("routing: route call failed, using fallback")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.Log.WithField("status", resp.StatusCode).Warn("routing: route call returned non-2xx, using fallback")
		return nil, nil
	}

	var route Route
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		c.Log.WithField("error", err.Error()).Warn("routing: decode route response failed, using fallback")
		return nil, nil
	}
	return &route, nil
}
