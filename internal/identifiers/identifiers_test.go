package identifiers_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/identifiers"
)

type fakeOrderRepo struct {
	domain.OrderRepository
	maxShortID     int
	maxShortIDErr  error
	existingCodes  map[string]bool
}

func (f *fakeOrderRepo) MaxShortID(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return f.maxShortID, f.maxShortIDErr
}

func (f *fakeOrderRepo) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	return f.existingCodes[code], nil
}

func TestNextShortID_FirstOrder(t *testing.T) {
	repo := &fakeOrderRepo{maxShortID: 0}
	id, err := identifiers.NextShortID(context.Background(), repo, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1001, id)
}

func TestNextShortID_Increments(t *testing.T) {
	repo := &fakeOrderRepo{maxShortID: 1042}
	id, err := identifiers.NextShortID(context.Background(), repo, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1043, id)
}

var trackingCodeRE = regexp.MustCompile(`^MF-[A-Z0-9]{6}$`)

func TestNewTrackingCode_Format(t *testing.T) {
	repo := &fakeOrderRepo{existingCodes: map[string]bool{}}
	code, err := identifiers.NewTrackingCode(context.Background(), repo, time.Now())
	require.NoError(t, err)
	assert.Regexp(t, trackingCodeRE, code)
}

func TestNewTrackingCode_RetriesOnCollision(t *testing.T) {
	seen := map[string]bool{}
	calls := 0
	repo := &recordingChecker{
		exists: func(code string) bool {
			calls++
			if calls <= 3 {
				return true // force a few collisions
			}
			return seen[code]
		},
	}
	code, err := identifiers.NewTrackingCode(context.Background(), repo, time.Now())
	require.NoError(t, err)
	assert.Regexp(t, trackingCodeRE, code)
	assert.GreaterOrEqual(t, calls, 4)
}

func TestNewTrackingCode_FallsBackAfterMaxCollisions(t *testing.T) {
	repo := &recordingChecker{exists: func(string) bool { return true }}
	code, err := identifiers.NewTrackingCode(context.Background(), repo, time.Date(2026, 1, 1, 12, 0, 0, 123456000, time.UTC))
	require.NoError(t, err)
	assert.Regexp(t, trackingCodeRE, code)
}

type recordingChecker struct {
	exists func(code string) bool
}

func (r *recordingChecker) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	return r.exists(code), nil
}
