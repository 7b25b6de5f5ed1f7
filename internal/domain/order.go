package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is an order's position in its lifecycle.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusAssigned  OrderStatus = "assigned"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PrepType affects preparation-time bucketing in the Metrics/Predictor components.
type PrepType string

const (
	PrepShort PrepType = "short"
	PrepLong  PrepType = "long"
)

// Order is a single delivery.
type Order struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	TenantID       uuid.UUID   `json:"tenant_id" db:"tenant_id"`
	ShortID        int         `json:"short_id" db:"short_id"`
	TrackingCode   string      `json:"tracking_code" db:"tracking_code"`
	CustomerName   string      `json:"customer_name" db:"customer_name"`
	Address        string      `json:"address" db:"address"`
	Point          Point       `json:"-" db:"-"`
	Lat            float64     `json:"lat" db:"lat"`
	Lng            float64     `json:"lng" db:"lng"`
	PrepType       PrepType    `json:"prep_type" db:"prep_type"`
	Status         OrderStatus `json:"status" db:"status"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	ReadyAt        *time.Time  `json:"ready_at,omitempty" db:"ready_at"`
	DeliveredAt    *time.Time  `json:"delivered_at,omitempty" db:"delivered_at"`
	CancelledAt    *time.Time  `json:"cancelled_at,omitempty" db:"cancelled_at"`
	BatchID        *uuid.UUID  `json:"batch_id,omitempty" db:"batch_id"`
	StopOrder      *int        `json:"stop_order,omitempty" db:"stop_order"`
}

// NewOrder constructs a pending order. ShortID and TrackingCode are assigned separately
// by internal/identifiers so that Store is the single source of truth for uniqueness.
func NewOrder(tenantID uuid.UUID, customerName, address string, p Point, prep PrepType, now time.Time) *Order {
	return &Order{
		ID:           uuid.New(),
		TenantID:     tenantID,
		CustomerName: customerName,
		Address:      address,
		Point:        p,
		Lat:          p.Lat,
		Lng:          p.Lng,
		PrepType:     prep,
		Status:       OrderStatusCreated,
		CreatedAt:    now,
	}
}

// location reconciles the Lat/Lng DB columns with the Point value object; Location calls
// it, so orders scanned from rows into Lat/Lng alone still report their coordinate.
func (o *Order) location() Point {
	if o.Point == (Point{}) {
		o.Point = Point{Lat: o.Lat, Lng: o.Lng}
	}
	return o.Point
}

// Location returns the order's delivery coordinate.
func (o *Order) Location() Point {
	return o.location()
}
