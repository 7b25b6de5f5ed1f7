package domain

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus is a batch's lifecycle position.
type BatchStatus string

const (
	BatchAssigned   BatchStatus = "assigned"
	BatchInProgress BatchStatus = "in_progress"
	BatchDone       BatchStatus = "done"
)

// Batch is a set of 1..6 orders assigned to one courier for a single delivery run.
// Batches are never deleted; they are the system's delivery history.
type Batch struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	TenantID    uuid.UUID   `json:"tenant_id" db:"tenant_id"`
	CourierID   uuid.UUID   `json:"courier_id" db:"courier_id"`
	Status      BatchStatus `json:"status" db:"status"`
	Polyline    *string     `json:"polyline,omitempty" db:"polyline"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
}

// NewBatch constructs an assigned batch for a courier.
func NewBatch(tenantID, courierID uuid.UUID, now time.Time) *Batch {
	return &Batch{
		ID:        uuid.New(),
		TenantID:  tenantID,
		CourierID: courierID,
		Status:    BatchAssigned,
		CreatedAt: now,
	}
}

// IsActive reports whether the batch still counts against the courier's one-active-batch
// limit.
func (b *Batch) IsActive() bool {
	return b.Status == BatchAssigned || b.Status == BatchInProgress
}
