package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/italoogomes/motoflash/internal/domain"
)

// GetTenant retrieves a tenant by id.
func (s *Store) GetTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Tenant, error) {
	const query = `
		SELECT id, slug, name, address, lat, lng, plan, trial_ends_at, blocked, created_at
		FROM tenants
		WHERE id = $1`

	var t domain.Tenant
	if err := sqlx.GetContext(ctx, s.ext, &t, query, tenantID); err != nil {
		return nil, notFound(err, fmt.Sprintf("get tenant %s", tenantID))
	}
	return &t, nil
}

// UpdateTenant persists a tenant's mutable fields (currently only Blocked flips outside
// of creation, via Tenant.MaybeExpireTrial).
func (s *Store) UpdateTenant(ctx context.Context, t *domain.Tenant) error {
	const query = `
		UPDATE tenants
		SET slug = :slug, name = :name, address = :address, lat = :lat, lng = :lng,
		    plan = :plan, trial_ends_at = :trial_ends_at, blocked = :blocked
		WHERE id = :id`

	res, err := sqlx.NamedExecContext(ctx, s.ext, query, t)
	if err != nil {
		return fmt.Errorf("update tenant %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update tenant %s: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}
