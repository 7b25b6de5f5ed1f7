package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/infrastructure/events"
	"github.com/italoogomes/motoflash/pkg/logger"
)

const minPhoneLen = 8

// CourierService implements the courier- and batch-facing operations of §6.
type CourierService struct {
	Store  domain.Store
	Events *events.Publisher
	Log    logger.Logger
}

// NewCourierService constructs a CourierService.
func NewCourierService(store domain.Store, pub *events.Publisher, log logger.Logger) *CourierService {
	return &CourierService{Store: store, Events: pub, Log: log}
}

// Create registers a new courier, rejecting a phone already in use by another courier of
// the same tenant (§7 Conflict).
func (s *CourierService) Create(ctx context.Context, tenantID uuid.UUID, name, phone string) (*domain.Courier, error) {
	if len(phone) < minPhoneLen {
		return nil, fmt.Errorf("phone too short: %w", domain.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	}

	inUse, err := s.Store.PhoneInUse(ctx, tenantID, phone)
	if err != nil {
		return nil, fmt.Errorf("create courier: %w", err)
	}
	if inUse {
		return nil, fmt.Errorf("phone already registered: %w", domain.ErrConflict)
	}

	courier := domain.NewCourier(tenantID, name, phone, time.Now())
	if err := s.Store.CreateCourier(ctx, courier); err != nil {
		return nil, fmt.Errorf("create courier: %w", err)
	}
	return courier, nil
}

// Get retrieves a tenant-scoped courier by id.
func (s *CourierService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Courier, error) {
	return s.Store.GetCourier(ctx, tenantID, id)
}

// List lists a tenant's couriers, optionally filtered by status.
func (s *CourierService) List(ctx context.Context, tenantID uuid.UUID, status *domain.CourierStatus) ([]*domain.Courier, error) {
	return s.Store.ListCouriers(ctx, tenantID, status)
}

// GoAvailable transitions offline -> available.
func (s *CourierService) GoAvailable(ctx context.Context, tenantID, id uuid.UUID) (*domain.Courier, error) {
	courier, err := s.Store.GetCourier(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := courier.GoAvailable(time.Now()); err != nil {
		return nil, err
	}
	if err := s.Store.UpdateCourier(ctx, courier); err != nil {
		return nil, fmt.Errorf("go available: %w", err)
	}
	return courier, nil
}

// GoOffline transitions available -> offline, refusing while the courier has an active
// batch.
func (s *CourierService) GoOffline(ctx context.Context, tenantID, id uuid.UUID) (*domain.Courier, error) {
	courier, err := s.Store.GetCourier(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	hasActive, err := s.hasActiveBatch(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := courier.GoOffline(time.Now(), hasActive); err != nil {
		return nil, err
	}
	if err := s.Store.UpdateCourier(ctx, courier); err != nil {
		return nil, fmt.Errorf("go offline: %w", err)
	}
	return courier, nil
}

// CurrentBatch retrieves courierID's active (non-terminal) batch, if any. Callers treat
// ErrNotFound as "no current batch" rather than a failure — the endpoint returns null.
func (s *CourierService) CurrentBatch(ctx context.Context, tenantID, courierID uuid.UUID) (*domain.Batch, error) {
	return s.Store.GetActiveBatchForCourier(ctx, tenantID, courierID)
}

// CompleteBatch terminates courierID's active batch: every contained order must already
// be delivered, the batch flips to done, and the courier returns to available.
func (s *CourierService) CompleteBatch(ctx context.Context, tenantID, courierID uuid.UUID) (*domain.Batch, error) {
	courier, err := s.Store.GetCourier(ctx, tenantID, courierID)
	if err != nil {
		return nil, err
	}
	batch, err := s.Store.GetActiveBatchForCourier(ctx, tenantID, courierID)
	if err != nil {
		return nil, err
	}

	orders, err := s.Store.ListOrdersByBatch(ctx, tenantID, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("complete batch: %w", err)
	}
	for _, o := range orders {
		if o.Status != domain.OrderStatusDelivered {
			return nil, fmt.Errorf("batch %s still has undelivered orders: %w", batch.ID, domain.ErrInvalidTransition)
		}
	}

	now := time.Now()
	if err := batch.Complete(now); err != nil {
		return nil, err
	}
	if err := courier.CompleteBatch(now); err != nil {
		return nil, err
	}

	if err := s.Store.UpdateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("complete batch: %w", err)
	}
	if err := s.Store.UpdateCourier(ctx, courier); err != nil {
		return nil, fmt.Errorf("complete batch: %w", err)
	}
	if pubErr := s.Events.Publish(ctx, events.TypeBatchCompleted, batch.ID.String(), batch, now); pubErr != nil {
		s.Log.WithField("error", pubErr.Error()).Warn("courier service: publish batch.completed failed")
	}
	if pubErr := s.Events.Publish(ctx, events.TypeCourierStatusChanged, courier.ID.String(), courier, now); pubErr != nil {
		s.Log.WithField("error", pubErr.Error()).Warn("courier service: publish courier.status_changed failed")
	}
	return batch, nil
}

func (s *CourierService) hasActiveBatch(ctx context.Context, tenantID, courierID uuid.UUID) (bool, error) {
	_, err := s.Store.GetActiveBatchForCourier(ctx, tenantID, courierID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("check active batch: %w", err)
}
