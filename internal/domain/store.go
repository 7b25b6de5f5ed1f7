package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderFilter narrows ListOrders queries (GET /orders?status=&limit=).
type OrderFilter struct {
	Status *OrderStatus
	Limit  int
}

// TenantRepository is the tenant-scoped slice of the Store.
type TenantRepository interface {
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*Tenant, error)
	UpdateTenant(ctx context.Context, t *Tenant) error
}

// OrderRepository is the Order-facing slice of the Store.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *Order) error
	UpdateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	GetOrderByTrackingCode(ctx context.Context, trackingCode string) (*Order, error)
	GetOrderByShortID(ctx context.Context, tenantID uuid.UUID, shortID int) (*Order, error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, filter OrderFilter) ([]*Order, error)
	ListOrdersByStatus(ctx context.Context, tenantID uuid.UUID, status OrderStatus) ([]*Order, error)
	ListOrdersByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]*Order, error)
	SearchOrders(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*Order, error)
	MaxShortID(ctx context.Context, tenantID uuid.UUID) (int, error)
	TrackingCodeExists(ctx context.Context, trackingCode string) (bool, error)
	// ListOrdersCreatedSince and ListDeliveredOrdersSince back the Metrics/Predictor
	// windowed queries used by metrics and the predictor.
	ListOrdersCreatedSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*Order, error)
	ListDeliveredOrdersSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*Order, error)
}

// CourierRepository is the Courier-facing slice of the Store.
type CourierRepository interface {
	CreateCourier(ctx context.Context, c *Courier) error
	UpdateCourier(ctx context.Context, c *Courier) error
	GetCourier(ctx context.Context, tenantID, id uuid.UUID) (*Courier, error)
	ListCouriers(ctx context.Context, tenantID uuid.UUID, status *CourierStatus) ([]*Courier, error)
	PhoneInUse(ctx context.Context, tenantID uuid.UUID, phone string) (bool, error)
}

// BatchRepository is the Batch-facing slice of the Store.
type BatchRepository interface {
	CreateBatch(ctx context.Context, b *Batch) error
	UpdateBatch(ctx context.Context, b *Batch) error
	GetBatch(ctx context.Context, tenantID, id uuid.UUID) (*Batch, error)
	ListActiveBatches(ctx context.Context, tenantID uuid.UUID) ([]*Batch, error)
	GetActiveBatchForCourier(ctx context.Context, tenantID, courierID uuid.UUID) (*Batch, error)
}

// DemandPatternRepository is the DemandPattern-facing slice of the Store.
type DemandPatternRepository interface {
	GetDemandPattern(ctx context.Context, tenantID uuid.UUID, weekday, hour int) (*DemandPattern, error)
	UpsertDemandPattern(ctx context.Context, p *DemandPattern) error
	ListDemandPatterns(ctx context.Context, tenantID uuid.UUID) ([]*DemandPattern, error)
}

// Store is the full persistence contract. A single dispatch run
// commits all of its mutations through WithinTx so that Step 7's atomicity guarantee
// holds: either every batch/order/courier mutation lands, or none do.
type Store interface {
	TenantRepository
	OrderRepository
	CourierRepository
	BatchRepository
	DemandPatternRepository

	// WithinTx runs fn against a Store bound to a single transaction. Nested calls to
	// WithinTx on the tx-bound Store run fn directly (no nested transactions). The
	// Routing Client must never be invoked from inside fn.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
