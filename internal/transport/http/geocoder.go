package http

import (
	"context"
	"fmt"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/infrastructure/cache"
)

// Geocoder resolves free-text addresses to coordinates. Geocoding of free-text addresses
// is explicitly out of scope (§1) — only this contract is specified; a real
// implementation (calling a third-party geocoding API) is an external collaborator wired
// in at deploy time.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Point, error)
}

// cachedGeocoder is the stand-in shipped with this module: it only ever serves
// previously-cached coordinates for an address and otherwise reports ValidationError, so
// POST /orders without lat/lng degrades predictably until a real provider is configured.
type cachedGeocoder struct {
	cache *cache.Cache
}

// NewCachedGeocoder wraps a Cache as a read-only geocoder stand-in.
func NewCachedGeocoder(c *cache.Cache) Geocoder {
	return &cachedGeocoder{cache: c}
}

func (g *cachedGeocoder) Geocode(ctx context.Context, address string) (domain.Point, error) {
	if g.cache == nil {
		return domain.Point{}, fmt.Errorf("geocoding unavailable for %q: %w", address, domain.ErrValidation)
	}
	var p domain.Point
	if err := g.cache.GetJSON(ctx, "geocode:"+address, &p); err != nil {
		return domain.Point{}, fmt.Errorf("geocoding failed for %q: %w", address, domain.ErrValidation)
	}
	return p, nil
}
