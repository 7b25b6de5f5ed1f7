package domain

import (
	"fmt"
	"time"
)

// StartProgress moves assigned -> in_progress, the first time any contained order is
// picked up or delivered.
func (b *Batch) StartProgress() error {
	if b.Status != BatchAssigned {
		return fmt.Errorf("start_progress from %s: %w", b.Status, ErrInvalidTransition)
	}
	b.Status = BatchInProgress
	return nil
}

// Complete moves assigned|in_progress -> done, stamping CompletedAt. The caller must have
// already verified every contained order is delivered.
func (b *Batch) Complete(now time.Time) error {
	if b.Status == BatchDone {
		return fmt.Errorf("complete from %s: %w", b.Status, ErrInvalidTransition)
	}
	b.Status = BatchDone
	b.CompletedAt = &now
	return nil
}
