package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/italoogomes/motoflash/internal/domain"
)

const demandPatternColumns = `
	tenant_id, weekday, hour, avg_orders_per_hour, avg_prep_min, avg_route_min,
	recommended_couriers, samples`

// GetDemandPattern retrieves the (tenant, weekday, hour) training bucket.
func (s *Store) GetDemandPattern(ctx context.Context, tenantID uuid.UUID, weekday, hour int) (*domain.DemandPattern, error) {
	query := `SELECT ` + demandPatternColumns + ` FROM demand_patterns WHERE tenant_id = $1 AND weekday = $2 AND hour = $3`

	var p domain.DemandPattern
	if err := sqlx.GetContext(ctx, s.ext, &p, query, tenantID, weekday, hour); err != nil {
		return nil, notFound(err, fmt.Sprintf("get demand pattern %d/%d", weekday, hour))
	}
	return &p, nil
}

// UpsertDemandPattern inserts or overwrites the (tenant, weekday, hour) row, honoring the
// uniqueness constraint on that triple.
func (s *Store) UpsertDemandPattern(ctx context.Context, p *domain.DemandPattern) error {
	const query = `
		INSERT INTO demand_patterns (` + demandPatternColumns + `)
		VALUES (:tenant_id, :weekday, :hour, :avg_orders_per_hour, :avg_prep_min, :avg_route_min,
		        :recommended_couriers, :samples)
		ON CONFLICT (tenant_id, weekday, hour) DO UPDATE SET
			avg_orders_per_hour = EXCLUDED.avg_orders_per_hour,
			avg_prep_min = EXCLUDED.avg_prep_min,
			avg_route_min = EXCLUDED.avg_route_min,
			recommended_couriers = EXCLUDED.recommended_couriers,
			samples = EXCLUDED.samples`

	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, p); err != nil {
		return fmt.Errorf("upsert demand pattern %d/%d for tenant %s: %w", p.Weekday, p.Hour, p.TenantID, err)
	}
	return nil
}

// ListDemandPatterns dumps every stored pattern for tenantID, ordered for display.
func (s *Store) ListDemandPatterns(ctx context.Context, tenantID uuid.UUID) ([]*domain.DemandPattern, error) {
	query := `SELECT ` + demandPatternColumns + ` FROM demand_patterns WHERE tenant_id = $1 ORDER BY weekday ASC, hour ASC`

	var patterns []*domain.DemandPattern
	if err := sqlx.SelectContext(ctx, s.ext, &patterns, query, tenantID); err != nil {
		return nil, fmt.Errorf("list demand patterns for tenant %s: %w", tenantID, err)
	}
	return patterns, nil
}
