// Package identifiers issues per-tenant short ids and globally unique
// customer-facing tracking codes.
package identifiers

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/domain"
)

const (
	firstShortID    = 1001
	trackingAlpha   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	trackingLen     = 6
	trackingPrefix  = "MF-"
	maxCollisions   = 10
)

// NextShortID returns max(short_id | tenant_id) + 1, or 1001 if the tenant has no orders
// yet. Correctness under concurrent creations is the Store
// implementation's responsibility (a sequence or a write-locking transaction); this
// function only expresses the arithmetic.
func NextShortID(ctx context.Context, store domain.OrderRepository, tenantID uuid.UUID) (int, error) {
	max, err := store.MaxShortID(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("next short id: %w", err)
	}
	if max <= 0 {
		return firstShortID, nil
	}
	return max + 1, nil
}

// checker is satisfied by domain.OrderRepository; named narrowly so tests can supply a
// minimal fake.
type checker interface {
	TrackingCodeExists(ctx context.Context, trackingCode string) (bool, error)
}

// NewTrackingCode draws 6 characters from [A-Z0-9] uniformly, prefixes "MF-", and retries
// up to 10 times on collision against the Store. If all 10 collide it falls back to a
// timestamp-suffixed variant. It fails with ErrInternal only if the Store itself fails
// here.
func NewTrackingCode(ctx context.Context, store checker, now time.Time) (string, error) {
	for i := 0; i < maxCollisions; i++ {
		code := trackingPrefix + randomAlphaNum(trackingLen)
		exists, err := store.TrackingCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("tracking code lookup: %w: %v", domain.ErrInternal, err)
		}
		if !exists {
			return code, nil
		}
	}
	return fallbackTrackingCode(now), nil
}

// fallbackTrackingCode builds the suffix from the last six decimal digits of the current
// timestamp's nanoseconds. It makes no Store round trip, so its uniqueness is not checked.
func fallbackTrackingCode(now time.Time) string {
	suffix := fmt.Sprintf("%06d", now.UnixNano()%1000000)
	return trackingPrefix + suffix[:trackingLen]
}

func randomAlphaNum(n int) string {
	var b strings.Builder
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is a fatal environment problem; fall back to a
		// time-seeded draw rather than returning an error path the caller would have
		// to special-case for a near-impossible condition.
		for i := 0; i < n; i++ {
			b.WriteByte(trackingAlpha[time.Now().UnixNano()%int64(len(trackingAlpha))])
		}
		return b.String()
	}
	// Bytes at or above limit are redrawn so every character is equally likely.
	limit := byte(256 - 256%len(trackingAlpha))
	for i := 0; i < n; i++ {
		for buf[i] >= limit {
			if _, err := rand.Read(buf[i : i+1]); err != nil {
				break
			}
		}
		b.WriteByte(trackingAlpha[int(buf[i])%len(trackingAlpha)])
	}
	return b.String()
}
