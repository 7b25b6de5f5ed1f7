package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/italoogomes/motoflash/internal/domain"
)

func newTestOrder() *domain.Order {
	return domain.NewOrder(uuid.New(), "cliente", "rua 1", domain.Point{Lat: -21.2, Lng: -47.8}, domain.PrepShort, time.Now())
}

func TestOrder_ScanQR_FromCreated(t *testing.T) {
	o := newTestOrder()
	now := time.Now()
	require.NoError(t, o.ScanQR(now))
	assert.Equal(t, domain.OrderStatusReady, o.Status)
	require.NotNil(t, o.ReadyAt)
	assert.True(t, o.ReadyAt.Equal(now))
}

func TestOrder_Pickup_RequiresAssigned(t *testing.T) {
	o := newTestOrder()
	require.NoError(t, o.ScanQR(time.Now()))

	err := o.Pickup()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Equal(t, domain.OrderStatusReady, o.Status, "a failed transition must not mutate state")
}

func TestOrder_Deliver_SkipsPickupFromAssigned(t *testing.T) {
	o := newTestOrder()
	require.NoError(t, o.ScanQR(time.Now()))
	batchID := uuid.New()
	require.NoError(t, o.AssignToBatch(batchID, 1))

	now := time.Now()
	require.NoError(t, o.Deliver(now))
	assert.Equal(t, domain.OrderStatusDelivered, o.Status)
	require.NotNil(t, o.DeliveredAt)
}

func TestOrder_Cancel_FromAnyNonTerminal(t *testing.T) {
	o := newTestOrder()
	require.NoError(t, o.StartPrep())

	now := time.Now()
	require.NoError(t, o.Cancel(now))
	assert.Equal(t, domain.OrderStatusCancelled, o.Status)
	require.NotNil(t, o.CancelledAt)
}

func TestOrder_Cancel_FailsWhenAlreadyTerminal(t *testing.T) {
	o := newTestOrder()
	require.NoError(t, o.Cancel(time.Now()))

	err := o.Cancel(time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestOrder_AssignToBatch_RejectsNonPositiveStopOrder(t *testing.T) {
	o := newTestOrder()
	require.NoError(t, o.ScanQR(time.Now()))

	err := o.AssignToBatch(uuid.New(), 0)
	require.Error(t, err)
	assert.Equal(t, domain.OrderStatusReady, o.Status)
}

func TestCourier_LifeCycle(t *testing.T) {
	c := domain.NewCourier(uuid.New(), "joao", "11999990000", time.Now())
	assert.Equal(t, domain.CourierOffline, c.Status)

	now := time.Now()
	require.NoError(t, c.GoAvailable(now))
	assert.Equal(t, domain.CourierAvailable, c.Status)
	require.NotNil(t, c.AvailableSince)

	require.NoError(t, c.MarkBusy(now))
	assert.Equal(t, domain.CourierBusy, c.Status)

	err := c.GoOffline(now, false)
	require.Error(t, err, "busy couriers cannot go offline directly")

	require.NoError(t, c.CompleteBatch(now))
	assert.Equal(t, domain.CourierAvailable, c.Status)

	require.NoError(t, c.GoOffline(now, false))
	assert.Equal(t, domain.CourierOffline, c.Status)
}

func TestCourier_GoOffline_RefusesWithActiveBatch(t *testing.T) {
	c := domain.NewCourier(uuid.New(), "joao", "11999990000", time.Now())
	now := time.Now()
	require.NoError(t, c.GoAvailable(now))

	err := c.GoOffline(now, true)
	require.Error(t, err)
	assert.Equal(t, domain.CourierAvailable, c.Status)
}

func TestBatch_LifeCycle(t *testing.T) {
	b := domain.NewBatch(uuid.New(), uuid.New(), time.Now())
	assert.True(t, b.IsActive())

	require.NoError(t, b.StartProgress())
	assert.True(t, b.IsActive())

	now := time.Now()
	require.NoError(t, b.Complete(now))
	assert.False(t, b.IsActive())
	require.NotNil(t, b.CompletedAt)
}
