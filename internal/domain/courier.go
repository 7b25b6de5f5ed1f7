package domain

import (
	"time"

	"github.com/google/uuid"
)

// CourierStatus is a courier's availability state.
type CourierStatus string

const (
	CourierOffline   CourierStatus = "offline"
	CourierAvailable CourierStatus = "available"
	CourierBusy      CourierStatus = "busy"
)

// Courier is a member of the tenant's delivery fleet.
type Courier struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	TenantID        uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Name            string         `json:"name" db:"name"`
	Phone           string         `json:"phone" db:"phone"`
	Status          CourierStatus  `json:"status" db:"status"`
	LastLat         *float64       `json:"last_lat,omitempty" db:"last_lat"`
	LastLng         *float64       `json:"last_lng,omitempty" db:"last_lng"`
	AvailableSince  *time.Time     `json:"available_since,omitempty" db:"available_since"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// NewCourier constructs a courier in the offline state.
func NewCourier(tenantID uuid.UUID, name, phone string, now time.Time) *Courier {
	return &Courier{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Phone:     phone,
		Status:    CourierOffline,
		UpdatedAt: now,
		CreatedAt: now,
	}
}

// LastKnownLocation returns the courier's last reported position, if any.
func (c *Courier) LastKnownLocation() (Point, bool) {
	if c.LastLat == nil || c.LastLng == nil {
		return Point{}, false
	}
	return Point{Lat: *c.LastLat, Lng: *c.LastLng}, true
}
