package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// allowedFrom reports whether status is one of the listed source statuses; each order transition here carries
// distinct side effects, so every trigger below gets its own guarded method instead of a
// single generic UpdateStatus call.
func allowedFrom(status OrderStatus, from ...OrderStatus) bool {
	for _, f := range from {
		if status == f {
			return true
		}
	}
	return false
}

// StartPrep moves created -> preparing. No timestamp effect.
func (o *Order) StartPrep() error {
	if !allowedFrom(o.Status, OrderStatusCreated) {
		return fmt.Errorf("start_prep from %s: %w", o.Status, ErrInvalidTransition)
	}
	o.Status = OrderStatusPreparing
	return nil
}

// ScanQR moves created|preparing -> ready, stamping ReadyAt.
func (o *Order) ScanQR(now time.Time) error {
	if !allowedFrom(o.Status, OrderStatusCreated, OrderStatusPreparing) {
		return fmt.Errorf("scan_qr from %s: %w", o.Status, ErrInvalidTransition)
	}
	o.Status = OrderStatusReady
	o.ReadyAt = &now
	return nil
}

// AssignToBatch moves ready -> assigned. Called only by the Dispatcher.
func (o *Order) AssignToBatch(batchID uuid.UUID, stopOrder int) error {
	if !allowedFrom(o.Status, OrderStatusReady) {
		return fmt.Errorf("dispatch from %s: %w", o.Status, ErrInvalidTransition)
	}
	if stopOrder < 1 {
		return fmt.Errorf("stop order must be >= 1: %w", ErrValidation)
	}
	o.Status = OrderStatusAssigned
	o.BatchID = &batchID
	o.StopOrder = &stopOrder
	return nil
}

// Pickup moves assigned -> picked_up.
func (o *Order) Pickup() error {
	if !allowedFrom(o.Status, OrderStatusAssigned) {
		return fmt.Errorf("pickup from %s: %w", o.Status, ErrInvalidTransition)
	}
	o.Status = OrderStatusPickedUp
	return nil
}

// Deliver moves assigned|picked_up -> delivered, stamping DeliveredAt. Assigned -> delivered
// is permitted directly, skipping pickup.
func (o *Order) Deliver(now time.Time) error {
	if !allowedFrom(o.Status, OrderStatusAssigned, OrderStatusPickedUp) {
		return fmt.Errorf("deliver from %s: %w", o.Status, ErrInvalidTransition)
	}
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	return nil
}

// Cancel moves any non-terminal status -> cancelled, stamping CancelledAt. The order's
// batch (if any) is left unchanged except for this order's own status.
func (o *Order) Cancel(now time.Time) error {
	if o.Status.IsTerminal() {
		return fmt.Errorf("cancel from %s: %w", o.Status, ErrInvalidTransition)
	}
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	return nil
}
