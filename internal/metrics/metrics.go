// Package metrics implements the pure, tenant-scoped read computations the dispatch
// board surfaces to operators: preparation and route-time averages, queue volume, and
// courier headcounts. Every function here is a read-only projection over the Store — no
// function in this package mutates anything.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/domain"
)

const (
	prepWindow  = 24 * time.Hour
	routeWindow = 24 * time.Hour
	volumeWindow = time.Hour

	minSamples = 2

	prepLowerBoundMin  = 0.0
	prepUpperBoundMin  = 120.0
	routeLowerBoundMin = 0.0
	routeUpperBoundMin = 180.0

	// returnLegMultiplier models the courier's trip back to base after drop-off; route
	// duration is only ever observed one-way (ready_at -> delivered_at), so it is scaled
	// up rather than measured directly.
	returnLegMultiplier = 1.5
)

// Snapshot is the full set of figures the dashboard and the predictor both consume.
type Snapshot struct {
	AvgPrepMin        *float64
	AvgRouteMin       *float64
	OrdersLastHour    int
	AvailableCouriers int
	BusyCouriers      int
	QueueDepth        int
	InRouteCount      int
}

// Compute assembles a full Snapshot for tenantID as of now.
func Compute(ctx context.Context, store domain.Store, tenantID uuid.UUID, now time.Time) (*Snapshot, error) {
	prep, err := AvgPrepMin(ctx, store, tenantID, nil, now)
	if err != nil {
		return nil, err
	}
	route, err := AvgRouteMin(ctx, store, tenantID, now)
	if err != nil {
		return nil, err
	}
	lastHour, err := OrdersLastHour(ctx, store, tenantID, now)
	if err != nil {
		return nil, err
	}
	available, busy, err := CourierCounts(ctx, store, tenantID)
	if err != nil {
		return nil, err
	}
	queueDepth, err := QueueDepth(ctx, store, tenantID)
	if err != nil {
		return nil, err
	}
	inRoute, err := InRouteCount(ctx, store, tenantID)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		AvgPrepMin:        prep,
		AvgRouteMin:       route,
		OrdersLastHour:    lastHour,
		AvailableCouriers: available,
		BusyCouriers:      busy,
		QueueDepth:        queueDepth,
		InRouteCount:      inRoute,
	}, nil
}

// AvgPrepMin is the mean of (ready_at - created_at) in minutes, over the trailing 24h
// window, optionally restricted to one PrepType, discarding samples outside (0, 120)
// minutes. Returns nil if fewer than 2 samples qualify.
func AvgPrepMin(ctx context.Context, store domain.Store, tenantID uuid.UUID, prepType *domain.PrepType, now time.Time) (*float64, error) {
	orders, err := store.ListOrdersCreatedSince(ctx, tenantID, now.Add(-prepWindow))
	if err != nil {
		return nil, fmt.Errorf("avg prep min: %w", err)
	}

	var sum float64
	var n int
	for _, o := range orders {
		if o.ReadyAt == nil {
			continue
		}
		if prepType != nil && o.PrepType != *prepType {
			continue
		}
		mins := o.ReadyAt.Sub(o.CreatedAt).Minutes()
		if mins <= prepLowerBoundMin || mins >= prepUpperBoundMin {
			continue
		}
		sum += mins
		n++
	}
	if n < minSamples {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

// AvgRouteMin is the mean of 1.5 x (delivered_at - ready_at) in minutes, over the
// trailing 24h delivery window, discarding samples outside (0, 180) minutes. Returns nil
// if fewer than 2 samples qualify.
func AvgRouteMin(ctx context.Context, store domain.Store, tenantID uuid.UUID, now time.Time) (*float64, error) {
	orders, err := store.ListDeliveredOrdersSince(ctx, tenantID, now.Add(-routeWindow))
	if err != nil {
		return nil, fmt.Errorf("avg route min: %w", err)
	}

	var sum float64
	var n int
	for _, o := range orders {
		if o.ReadyAt == nil || o.DeliveredAt == nil {
			continue
		}
		raw := o.DeliveredAt.Sub(*o.ReadyAt).Minutes()
		if raw <= routeLowerBoundMin || raw >= routeUpperBoundMin {
			continue
		}
		sum += raw * returnLegMultiplier
		n++
	}
	if n < minSamples {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

// OrdersLastHour counts orders created within the trailing 1h window.
func OrdersLastHour(ctx context.Context, store domain.Store, tenantID uuid.UUID, now time.Time) (int, error) {
	orders, err := store.ListOrdersCreatedSince(ctx, tenantID, now.Add(-volumeWindow))
	if err != nil {
		return 0, fmt.Errorf("orders last hour: %w", err)
	}
	return len(orders), nil
}

// CourierCounts returns (available, busy) headcounts for the tenant's fleet.
func CourierCounts(ctx context.Context, store domain.Store, tenantID uuid.UUID) (available, busy int, err error) {
	couriers, err := store.ListCouriers(ctx, tenantID, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("courier counts: %w", err)
	}
	for _, c := range couriers {
		switch c.Status {
		case domain.CourierAvailable:
			available++
		case domain.CourierBusy:
			busy++
		}
	}
	return available, busy, nil
}

// QueueDepth counts orders that are ready but not yet batched.
func QueueDepth(ctx context.Context, store domain.Store, tenantID uuid.UUID) (int, error) {
	ready, err := store.ListOrdersByStatus(ctx, tenantID, domain.OrderStatusReady)
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	n := 0
	for _, o := range ready {
		if o.BatchID == nil {
			n++
		}
	}
	return n, nil
}

// InRouteCount counts orders currently assigned or picked up (i.e. out with a courier).
func InRouteCount(ctx context.Context, store domain.Store, tenantID uuid.UUID) (int, error) {
	assigned, err := store.ListOrdersByStatus(ctx, tenantID, domain.OrderStatusAssigned)
	if err != nil {
		return 0, fmt.Errorf("in route count: %w", err)
	}
	pickedUp, err := store.ListOrdersByStatus(ctx, tenantID, domain.OrderStatusPickedUp)
	if err != nil {
		return 0, fmt.Errorf("in route count: %w", err)
	}
	return len(assigned) + len(pickedUp), nil
}
