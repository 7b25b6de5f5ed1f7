package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/alerts"
	"github.com/italoogomes/motoflash/internal/dispatch"
	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/metrics"
	"github.com/italoogomes/motoflash/internal/predictor"
)

// DispatchService exposes the dispatch/stats/metrics/alerts/predictor endpoints of §6,
// mostly as thin passthroughs to their respective packages; ActiveBatches and Stats
// assemble their read shapes from the Store here.
type DispatchService struct {
	Store      domain.Store
	Dispatcher *dispatch.Dispatcher
}

// NewDispatchService constructs a DispatchService.
func NewDispatchService(store domain.Store, dispatcher *dispatch.Dispatcher) *DispatchService {
	return &DispatchService{Store: store, Dispatcher: dispatcher}
}

// Run executes one dispatch pass for tenantID.
func (s *DispatchService) Run(ctx context.Context, tenantID uuid.UUID) (*dispatch.Result, error) {
	return s.Dispatcher.Run(ctx, tenantID)
}

// BatchWithOrders pairs an active batch with its contained orders, in stop order.
type BatchWithOrders struct {
	Batch  *domain.Batch
	Orders []*domain.Order
}

// ActiveBatches lists every active batch for tenantID along with its orders.
func (s *DispatchService) ActiveBatches(ctx context.Context, tenantID uuid.UUID) ([]BatchWithOrders, error) {
	batches, err := s.Store.ListActiveBatches(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("active batches: %w", err)
	}
	out := make([]BatchWithOrders, 0, len(batches))
	for _, b := range batches {
		orders, err := s.Store.ListOrdersByBatch(ctx, tenantID, b.ID)
		if err != nil {
			return nil, fmt.Errorf("active batches: orders for %s: %w", b.ID, err)
		}
		out = append(out, BatchWithOrders{Batch: b, Orders: orders})
	}
	return out, nil
}

// Stats is the courier and order headcount breakdown backing GET /dispatch/stats.
type Stats struct {
	CouriersAvailable int
	CouriersBusy      int
	CouriersOffline   int
	OrdersByStatus    map[domain.OrderStatus]int
}

// Stats computes per-status courier and order counts for tenantID.
func (s *DispatchService) Stats(ctx context.Context, tenantID uuid.UUID) (*Stats, error) {
	couriers, err := s.Store.ListCouriers(ctx, tenantID, nil)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	out := &Stats{OrdersByStatus: make(map[domain.OrderStatus]int)}
	for _, c := range couriers {
		switch c.Status {
		case domain.CourierAvailable:
			out.CouriersAvailable++
		case domain.CourierBusy:
			out.CouriersBusy++
		case domain.CourierOffline:
			out.CouriersOffline++
		}
	}

	statuses := []domain.OrderStatus{
		domain.OrderStatusCreated, domain.OrderStatusPreparing, domain.OrderStatusReady,
		domain.OrderStatusAssigned, domain.OrderStatusPickedUp, domain.OrderStatusDelivered,
		domain.OrderStatusCancelled,
	}
	for _, st := range statuses {
		orders, err := s.Store.ListOrdersByStatus(ctx, tenantID, st)
		if err != nil {
			return nil, fmt.Errorf("stats: orders by status %s: %w", st, err)
		}
		out.OrdersByStatus[st] = len(orders)
	}
	return out, nil
}

// Metrics computes the §4.6 figures for tenantID.
func (s *DispatchService) Metrics(ctx context.Context, tenantID uuid.UUID) (*metrics.Snapshot, error) {
	return metrics.Compute(ctx, s.Store, tenantID, time.Now())
}

// Alerts computes the §4.8 operator alert list for tenantID.
func (s *DispatchService) Alerts(ctx context.Context, tenantID uuid.UUID) (*alerts.Result, error) {
	return alerts.Evaluate(ctx, s.Store, tenantID, time.Now())
}

// Forecast computes the §4.7 live hybrid forecast for tenantID.
func (s *DispatchService) Forecast(ctx context.Context, tenantID uuid.UUID) (*predictor.HybridForecast, error) {
	return predictor.Forecast(ctx, s.Store, tenantID, time.Now())
}

// RefreshPatterns runs the §4.7 training pass for tenantID.
func (s *DispatchService) RefreshPatterns(ctx context.Context, tenantID uuid.UUID) error {
	return predictor.RefreshPatterns(ctx, s.Store, tenantID, time.Now())
}

// Patterns dumps every stored demand pattern for tenantID.
func (s *DispatchService) Patterns(ctx context.Context, tenantID uuid.UUID) ([]*domain.DemandPattern, error) {
	return s.Store.ListDemandPatterns(ctx, tenantID)
}
