package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/italoogomes/motoflash/internal/domain"
)

const courierColumns = `
	id, tenant_id, name, phone, status, last_lat, last_lng, available_since, updated_at, created_at`

// CreateCourier inserts a new courier.
func (s *Store) CreateCourier(ctx context.Context, c *domain.Courier) error {
	const query = `
		INSERT INTO couriers (` + courierColumns + `)
		VALUES (:id, :tenant_id, :name, :phone, :status, :last_lat, :last_lng, :available_since, :updated_at, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, c); err != nil {
		return fmt.Errorf("create courier %s: %w", c.ID, err)
	}
	return nil
}

// UpdateCourier persists a courier's full row, tenant-scoped.
func (s *Store) UpdateCourier(ctx context.Context, c *domain.Courier) error {
	const query = `
		UPDATE couriers
		SET name = :name, phone = :phone, status = :status, last_lat = :last_lat,
		    last_lng = :last_lng, available_since = :available_since, updated_at = :updated_at
		WHERE id = :id AND tenant_id = :tenant_id`

	res, err := sqlx.NamedExecContext(ctx, s.ext, query, c)
	if err != nil {
		return fmt.Errorf("update courier %s: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update courier %s: %w", c.ID, domain.ErrNotFound)
	}
	return nil
}

// GetCourier retrieves a tenant-scoped courier by id.
func (s *Store) GetCourier(ctx context.Context, tenantID, id uuid.UUID) (*domain.Courier, error) {
	query := `SELECT ` + courierColumns + ` FROM couriers WHERE id = $1 AND tenant_id = $2`

	var c domain.Courier
	if err := sqlx.GetContext(ctx, s.ext, &c, query, id, tenantID); err != nil {
		return nil, notFound(err, fmt.Sprintf("get courier %s", id))
	}
	return &c, nil
}

// ListCouriers lists a tenant's couriers, optionally filtered by status, ordered so that
// an available_since value (when present) puts the longest-waiting courier first — the
// same FIFO fairness order the Dispatcher's Step 4 assignment relies on.
func (s *Store) ListCouriers(ctx context.Context, tenantID uuid.UUID, status *domain.CourierStatus) ([]*domain.Courier, error) {
	query := `SELECT ` + courierColumns + ` FROM couriers WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY available_since ASC NULLS LAST, created_at ASC`

	var couriers []*domain.Courier
	if err := sqlx.SelectContext(ctx, s.ext, &couriers, query, args...); err != nil {
		return nil, fmt.Errorf("list couriers for tenant %s: %w", tenantID, err)
	}
	return couriers, nil
}

// PhoneInUse reports whether phone is already registered to another courier of tenantID.
func (s *Store) PhoneInUse(ctx context.Context, tenantID uuid.UUID, phone string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM couriers WHERE tenant_id = $1 AND phone = $2)`

	var exists bool
	if err := sqlx.GetContext(ctx, s.ext, &exists, query, tenantID, phone); err != nil {
		return false, fmt.Errorf("phone in use check for tenant %s: %w", tenantID, err)
	}
	return exists, nil
}
