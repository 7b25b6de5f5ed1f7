// Package core is the application service layer: thin orchestration over the domain
// state machines, the Store and the Identifiers package, exposing the operations the API
// Facade (internal/transport/http) calls. It owns no business rule the domain package
// doesn't already express; it only sequences Store lookups, transition calls, identifier
// issuance and event publication the way a single HTTP request needs them sequenced.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/identifiers"
	"github.com/italoogomes/motoflash/internal/infrastructure/events"
	"github.com/italoogomes/motoflash/pkg/logger"
)

const searchLimit = 10

// OrderService implements the order-facing operations of §6.
type OrderService struct {
	Store  domain.Store
	Events *events.Publisher
	Log    logger.Logger
}

// NewOrderService constructs an OrderService.
func NewOrderService(store domain.Store, pub *events.Publisher, log logger.Logger) *OrderService {
	return &OrderService{Store: store, Events: pub, Log: log}
}

// CreateOrderInput is the validated input to Create.
type CreateOrderInput struct {
	CustomerName string
	Address      string
	Point        domain.Point
	PrepType     domain.PrepType
}

// Create creates an order, issuing its short id and tracking code. in.Point must already
// be resolved (the geocoding collaborator, if invoked, runs in the HTTP layer).
func (s *OrderService) Create(ctx context.Context, tenantID uuid.UUID, in CreateOrderInput) (*domain.Order, error) {
	if !in.Point.Valid() {
		return nil, fmt.Errorf("coordinate out of range: %w", domain.ErrValidation)
	}
	if in.Address == "" {
		return nil, fmt.Errorf("address is required: %w", domain.ErrValidation)
	}

	now := time.Now()
	order := domain.NewOrder(tenantID, in.CustomerName, in.Address, in.Point, in.PrepType, now)

	shortID, err := identifiers.NextShortID(ctx, s.Store, tenantID)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.ShortID = shortID

	code, err := identifiers.NewTrackingCode(ctx, s.Store, now)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.TrackingCode = code

	if err := s.Store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// Get retrieves a tenant-scoped order by id.
func (s *OrderService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	return s.Store.GetOrder(ctx, tenantID, id)
}

// GetByTrackingCode retrieves an order by its public tracking code, unscoped by tenant —
// this backs the unauthenticated /orders/track endpoint.
func (s *OrderService) GetByTrackingCode(ctx context.Context, trackingCode string) (*domain.Order, error) {
	return s.Store.GetOrderByTrackingCode(ctx, trackingCode)
}

// List lists a tenant's orders, optionally filtered by status and capped at limit.
func (s *OrderService) List(ctx context.Context, tenantID uuid.UUID, filter domain.OrderFilter) ([]*domain.Order, error) {
	return s.Store.ListOrders(ctx, tenantID, filter)
}

// Search looks up non-delivered orders by name, short id or tracking code, capped at 10.
func (s *OrderService) Search(ctx context.Context, tenantID uuid.UUID, query string) ([]*domain.Order, error) {
	return s.Store.SearchOrders(ctx, tenantID, query, searchLimit)
}

// ScanQR transitions an order to ready.
func (s *OrderService) ScanQR(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	order, err := s.Store.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := order.ScanQR(time.Now()); err != nil {
		return nil, err
	}
	if err := s.Store.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("scan qr: %w", err)
	}
	return order, nil
}

// Pickup transitions a tenant-scoped order assigned -> picked_up.
func (s *OrderService) Pickup(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	order, err := s.Store.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.pickupOrder(ctx, order)
}

// Deliver transitions a tenant-scoped order to delivered. It does not complete the
// batch; that is CourierService.CompleteBatch, called once every order is delivered.
func (s *OrderService) Deliver(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	order, err := s.Store.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.deliverOrder(ctx, tenantID, order)
}

// CourierPickup handles the courier-scoped, unauthenticated pickup call: authorized iff
// the order belongs to courierID's active batch (§6, §7 Forbidden).
func (s *OrderService) CourierPickup(ctx context.Context, tenantID, courierID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.authorizeCourierOrder(ctx, tenantID, courierID, orderID)
	if err != nil {
		return nil, err
	}
	return s.pickupOrder(ctx, order)
}

// CourierDeliver handles the courier-scoped, unauthenticated deliver call.
func (s *OrderService) CourierDeliver(ctx context.Context, tenantID, courierID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.authorizeCourierOrder(ctx, tenantID, courierID, orderID)
	if err != nil {
		return nil, err
	}
	return s.deliverOrder(ctx, tenantID, order)
}

// authorizeCourierOrder verifies orderID belongs to courierID's current non-terminal
// batch, returning Forbidden if the order exists but isn't in that batch — per §7, this
// is a Forbidden, not a NotFound, since the caller already knows the order exists (it
// scanned its QR code or tracking code to get here).
func (s *OrderService) authorizeCourierOrder(ctx context.Context, tenantID, courierID, orderID uuid.UUID) (*domain.Order, error) {
	batch, err := s.Store.GetActiveBatchForCourier(ctx, tenantID, courierID)
	if err != nil {
		return nil, err
	}
	order, err := s.Store.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.BatchID == nil || *order.BatchID != batch.ID {
		return nil, fmt.Errorf("order %s is not in courier's active batch: %w", orderID, domain.ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) pickupOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := order.Pickup(); err != nil {
		return nil, err
	}
	if err := s.markBatchInProgress(ctx, order.TenantID, *order.BatchID); err != nil {
		return nil, err
	}
	if err := s.Store.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("pickup: %w", err)
	}
	return order, nil
}

func (s *OrderService) deliverOrder(ctx context.Context, tenantID uuid.UUID, order *domain.Order) (*domain.Order, error) {
	now := time.Now()
	if err := order.Deliver(now); err != nil {
		return nil, err
	}
	if err := s.markBatchInProgress(ctx, tenantID, *order.BatchID); err != nil {
		return nil, err
	}
	if err := s.Store.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("deliver: %w", err)
	}
	if pubErr := s.Events.Publish(ctx, events.TypeOrderDelivered, order.ID.String(), order, now); pubErr != nil {
		s.Log.WithField("error", pubErr.Error()).Warn("order service: publish order.delivered failed")
	}
	return order, nil
}

// markBatchInProgress flips a batch assigned -> in_progress the first time any of its
// orders is touched; already-in_progress batches are left alone.
func (s *OrderService) markBatchInProgress(ctx context.Context, tenantID, batchID uuid.UUID) error {
	batch, err := s.Store.GetBatch(ctx, tenantID, batchID)
	if err != nil {
		return err
	}
	if batch.Status != domain.BatchAssigned {
		return nil
	}
	if err := batch.StartProgress(); err != nil {
		return err
	}
	return s.Store.UpdateBatch(ctx, batch)
}
