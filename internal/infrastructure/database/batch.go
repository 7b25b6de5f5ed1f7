package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/italoogomes/motoflash/internal/domain"
)

const batchColumns = `
	id, tenant_id, courier_id, status, polyline, created_at, completed_at`

// CreateBatch inserts a new batch. Batches are never deleted; this is the only write a
// batch's id ever needs besides UpdateBatch's status/polyline transitions.
func (s *Store) CreateBatch(ctx context.Context, b *domain.Batch) error {
	const query = `
		INSERT INTO batches (` + batchColumns + `)
		VALUES (:id, :tenant_id, :courier_id, :status, :polyline, :created_at, :completed_at)`

	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, b); err != nil {
		return fmt.Errorf("create batch %s: %w", b.ID, err)
	}
	return nil
}

// UpdateBatch persists a batch's status/polyline/completed_at, tenant-scoped.
func (s *Store) UpdateBatch(ctx context.Context, b *domain.Batch) error {
	const query = `
		UPDATE batches
		SET status = :status, polyline = :polyline, completed_at = :completed_at
		WHERE id = :id AND tenant_id = :tenant_id`

	res, err := sqlx.NamedExecContext(ctx, s.ext, query, b)
	if err != nil {
		return fmt.Errorf("update batch %s: %w", b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update batch %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

// GetBatch retrieves a tenant-scoped batch by id.
func (s *Store) GetBatch(ctx context.Context, tenantID, id uuid.UUID) (*domain.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1 AND tenant_id = $2`

	var b domain.Batch
	if err := sqlx.GetContext(ctx, s.ext, &b, query, id, tenantID); err != nil {
		return nil, notFound(err, fmt.Sprintf("get batch %s", id))
	}
	return &b, nil
}

// ListActiveBatches lists every non-terminal (assigned or in_progress) batch for
// tenantID, newest first.
func (s *Store) ListActiveBatches(ctx context.Context, tenantID uuid.UUID) ([]*domain.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		WHERE tenant_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC`

	var batches []*domain.Batch
	if err := sqlx.SelectContext(ctx, s.ext, &batches, query, tenantID, domain.BatchAssigned, domain.BatchInProgress); err != nil {
		return nil, fmt.Errorf("list active batches for tenant %s: %w", tenantID, err)
	}
	return batches, nil
}

// GetActiveBatchForCourier retrieves courierID's single non-terminal batch, if any. It
// relies on the batch-courier exclusivity invariant (§3 invariant 3) rather than
// enforcing it: should several match, LIMIT 1 returns one of them.
func (s *Store) GetActiveBatchForCourier(ctx context.Context, tenantID, courierID uuid.UUID) (*domain.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		WHERE tenant_id = $1 AND courier_id = $2 AND status IN ($3, $4)
		LIMIT 1`

	var b domain.Batch
	err := sqlx.GetContext(ctx, s.ext, &b, query, tenantID, courierID, domain.BatchAssigned, domain.BatchInProgress)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get active batch for courier %s", courierID))
	}
	return &b, nil
}
