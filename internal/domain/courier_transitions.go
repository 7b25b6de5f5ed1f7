package domain

import (
	"fmt"
	"time"
)

// GoAvailable moves offline -> available (operator action).
func (c *Courier) GoAvailable(now time.Time) error {
	if c.Status != CourierOffline {
		return fmt.Errorf("go_available from %s: %w", c.Status, ErrInvalidTransition)
	}
	c.Status = CourierAvailable
	c.AvailableSince = &now
	c.UpdatedAt = now
	return nil
}

// GoOffline moves available -> offline. It refuses from any other status, and refuses
// when hasActiveBatch is true; the caller supplies that flag from a Store lookup.
func (c *Courier) GoOffline(now time.Time, hasActiveBatch bool) error {
	if c.Status == CourierBusy {
		return fmt.Errorf("go_offline: must complete batch first: %w", ErrInvalidTransition)
	}
	if c.Status != CourierAvailable {
		return fmt.Errorf("go_offline from %s: %w", c.Status, ErrInvalidTransition)
	}
	if hasActiveBatch {
		return fmt.Errorf("go_offline: courier has an active batch: %w", ErrInvalidTransition)
	}
	c.Status = CourierOffline
	c.AvailableSince = nil
	c.UpdatedAt = now
	return nil
}

// MarkBusy moves available -> busy, implicitly when the Dispatcher assigns a batch
// available -> busy happens implicitly when a batch is assigned.
func (c *Courier) MarkBusy(now time.Time) error {
	if c.Status != CourierAvailable {
		return fmt.Errorf("mark_busy from %s: %w", c.Status, ErrInvalidTransition)
	}
	c.Status = CourierBusy
	c.AvailableSince = nil
	c.UpdatedAt = now
	return nil
}

// CompleteBatch moves busy -> available once the batch is done and all its orders are
// delivered; the caller enforces the "all orders delivered" guard against the Store.
func (c *Courier) CompleteBatch(now time.Time) error {
	if c.Status != CourierBusy {
		return fmt.Errorf("complete_batch from %s: %w", c.Status, ErrInvalidTransition)
	}
	c.Status = CourierAvailable
	c.AvailableSince = &now
	c.UpdatedAt = now
	return nil
}
