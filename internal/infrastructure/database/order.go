package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/italoogomes/motoflash/internal/domain"
)

const orderColumns = `
	id, tenant_id, short_id, tracking_code, customer_name, address, lat, lng,
	prep_type, status, created_at, ready_at, delivered_at, cancelled_at, batch_id, stop_order`

// CreateOrder inserts a new order.
func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	const query = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (:id, :tenant_id, :short_id, :tracking_code, :customer_name, :address, :lat, :lng,
		        :prep_type, :status, :created_at, :ready_at, :delivered_at, :cancelled_at, :batch_id, :stop_order)`

	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, o); err != nil {
		return fmt.Errorf("create order %s: %w", o.ID, err)
	}
	return nil
}

// UpdateOrder persists an order's full row, tenant-scoped so a caller can never update
// another tenant's order by forging an id.
func (s *Store) UpdateOrder(ctx context.Context, o *domain.Order) error {
	const query = `
		UPDATE orders
		SET short_id = :short_id, tracking_code = :tracking_code, customer_name = :customer_name,
		    address = :address, lat = :lat, lng = :lng, prep_type = :prep_type, status = :status,
		    created_at = :created_at, ready_at = :ready_at, delivered_at = :delivered_at,
		    cancelled_at = :cancelled_at, batch_id = :batch_id, stop_order = :stop_order
		WHERE id = :id AND tenant_id = :tenant_id`

	res, err := sqlx.NamedExecContext(ctx, s.ext, query, o)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update order %s: %w", o.ID, domain.ErrNotFound)
	}
	return nil
}

// GetOrder retrieves a tenant-scoped order by id.
func (s *Store) GetOrder(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND tenant_id = $2`

	var o domain.Order
	if err := sqlx.GetContext(ctx, s.ext, &o, query, id, tenantID); err != nil {
		return nil, notFound(err, fmt.Sprintf("get order %s", id))
	}
	return &o, nil
}

// GetOrderByTrackingCode retrieves an order by its globally unique tracking code,
// deliberately unscoped by tenant: tracking codes are the public, cross-tenant lookup
// key used by the unauthenticated /orders/track endpoint.
func (s *Store) GetOrderByTrackingCode(ctx context.Context, trackingCode string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tracking_code = $1`

	var o domain.Order
	if err := sqlx.GetContext(ctx, s.ext, &o, query, trackingCode); err != nil {
		return nil, notFound(err, fmt.Sprintf("get order by tracking code %s", trackingCode))
	}
	return &o, nil
}

// GetOrderByShortID retrieves a tenant-scoped order by its short id.
func (s *Store) GetOrderByShortID(ctx context.Context, tenantID uuid.UUID, shortID int) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND short_id = $2`

	var o domain.Order
	if err := sqlx.GetContext(ctx, s.ext, &o, query, tenantID, shortID); err != nil {
		return nil, notFound(err, fmt.Sprintf("get order by short id %d", shortID))
	}
	return &o, nil
}

// ListOrders lists a tenant's orders, optionally filtered by status and capped at
// filter.Limit (0 means unlimited), newest-created last.
func (s *Store) ListOrders(ctx context.Context, tenantID uuid.UUID, filter domain.OrderFilter) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filter.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, len(args)+1)
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY created_at ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, filter.Limit)
	}

	var orders []*domain.Order
	if err := sqlx.SelectContext(ctx, s.ext, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("list orders for tenant %s: %w", tenantID, err)
	}
	return orders, nil
}

// ListOrdersByStatus lists every tenant order in status, newest-created last.
func (s *Store) ListOrdersByStatus(ctx context.Context, tenantID uuid.UUID, status domain.OrderStatus) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND status = $2 ORDER BY created_at ASC`

	var orders []*domain.Order
	if err := sqlx.SelectContext(ctx, s.ext, &orders, query, tenantID, status); err != nil {
		return nil, fmt.Errorf("list orders by status %s for tenant %s: %w", status, tenantID, err)
	}
	return orders, nil
}

// ListOrdersByBatch lists every tenant order belonging to batchID, in stop order.
func (s *Store) ListOrdersByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND batch_id = $2 ORDER BY stop_order ASC`

	var orders []*domain.Order
	if err := sqlx.SelectContext(ctx, s.ext, &orders, query, tenantID, batchID); err != nil {
		return nil, fmt.Errorf("list orders by batch %s: %w", batchID, err)
	}
	return orders, nil
}

// SearchOrders searches among a tenant's non-delivered orders by customer name
// (diacritic-insensitive via unaccent), short id, or tracking code, capped at limit.
func (s *Store) SearchOrders(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*domain.Order, error) {
	if query == "" {
		return nil, nil
	}

	const sqlQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE tenant_id = $1
		  AND status != $2
		  AND (
		    unaccent(customer_name) ILIKE unaccent('%' || $3 || '%')
		    OR tracking_code ILIKE '%' || $3 || '%'
		    OR CAST(short_id AS TEXT) = $3
		  )
		ORDER BY created_at ASC
		LIMIT $4`

	var orders []*domain.Order
	if err := sqlx.SelectContext(ctx, s.ext, &orders, sqlQuery, tenantID, domain.OrderStatusDelivered, query, limit); err != nil {
		return nil, fmt.Errorf("search orders for tenant %s: %w", tenantID, err)
	}
	return orders, nil
}

// MaxShortID returns the highest short_id issued to tenantID, or 0 if none.
func (s *Store) MaxShortID(ctx context.Context, tenantID uuid.UUID) (int, error) {
	const query = `SELECT COALESCE(MAX(short_id), 0) FROM orders WHERE tenant_id = $1`

	var max int
	if err := sqlx.GetContext(ctx, s.ext, &max, query, tenantID); err != nil {
		return 0, fmt.Errorf("max short id for tenant %s: %w", tenantID, err)
	}
	return max, nil
}

// TrackingCodeExists reports whether trackingCode is already in use, globally.
func (s *Store) TrackingCodeExists(ctx context.Context, trackingCode string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM orders WHERE tracking_code = $1)`

	var exists bool
	if err := sqlx.GetContext(ctx, s.ext, &exists, query, trackingCode); err != nil {
		return false, fmt.Errorf("tracking code exists check %s: %w", trackingCode, err)
	}
	return exists, nil
}

// ListOrdersCreatedSince lists every tenant order created at or after since, backing the
// Metrics/Predictor windowed queries.
func (s *Store) ListOrdersCreatedSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND created_at >= $2`

	var orders []*domain.Order
	if err := sqlx.SelectContext(ctx, s.ext, &orders, query, tenantID, since); err != nil {
		return nil, fmt.Errorf("list orders created since %s for tenant %s: %w", since, tenantID, err)
	}
	return orders, nil
}

// ListDeliveredOrdersSince lists every tenant order delivered at or after since.
func (s *Store) ListDeliveredOrdersSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND status = $2 AND delivered_at >= $3`

	var orders []*domain.Order
	if err := sqlx.SelectContext(ctx, s.ext, &orders, query, tenantID, domain.OrderStatusDelivered, since); err != nil {
		return nil, fmt.Errorf("list delivered orders since %s for tenant %s: %w", since, tenantID, err)
	}
	return orders, nil
}
