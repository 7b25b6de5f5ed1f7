package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/metrics"
	"github.com/italoogomes/motoflash/internal/store/memory"
)

func mustCreateOrder(t *testing.T, store *memory.Store, o *domain.Order) {
	t.Helper()
	require.NoError(t, store.CreateOrder(context.Background(), o))
}

func newReadyOrder(tenantID uuid.UUID, created time.Time, readyOffset time.Duration) *domain.Order {
	o := domain.NewOrder(tenantID, "cliente", "rua 1", domain.Point{Lat: -23.5, Lng: -46.6}, domain.PrepShort, created)
	o.TrackingCode = uuid.New().String()
	ready := created.Add(readyOffset)
	o.ReadyAt = &ready
	o.Status = domain.OrderStatusReady
	return o
}

func TestAvgPrepMin_ComputesMeanWithinBounds(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	o1 := newReadyOrder(tenantID, now.Add(-time.Hour), 10*time.Minute)
	o2 := newReadyOrder(tenantID, now.Add(-time.Hour), 20*time.Minute)
	mustCreateOrder(t, store, o1)
	mustCreateOrder(t, store, o2)

	avg, err := metrics.AvgPrepMin(context.Background(), store, tenantID, nil, now)
	require.NoError(t, err)
	require.NotNil(t, avg)
	require.InDelta(t, 15.0, *avg, 0.001)
}

func TestAvgPrepMin_FewerThanTwoSamplesReturnsNil(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	mustCreateOrder(t, store, newReadyOrder(tenantID, now.Add(-time.Hour), 10*time.Minute))

	avg, err := metrics.AvgPrepMin(context.Background(), store, tenantID, nil, now)
	require.NoError(t, err)
	require.Nil(t, avg)
}

func TestAvgPrepMin_DiscardsOutOfBoundSamples(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	mustCreateOrder(t, store, newReadyOrder(tenantID, now.Add(-time.Hour), 10*time.Minute))
	mustCreateOrder(t, store, newReadyOrder(tenantID, now.Add(-time.Hour), 200*time.Minute))

	avg, err := metrics.AvgPrepMin(context.Background(), store, tenantID, nil, now)
	require.NoError(t, err)
	require.Nil(t, avg)
}

func TestAvgPrepMin_FiltersByPrepType(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	short1 := newReadyOrder(tenantID, now.Add(-time.Hour), 10*time.Minute)
	short2 := newReadyOrder(tenantID, now.Add(-time.Hour), 14*time.Minute)
	long1 := newReadyOrder(tenantID, now.Add(-time.Hour), 50*time.Minute)
	long1.PrepType = domain.PrepLong
	long2 := newReadyOrder(tenantID, now.Add(-time.Hour), 60*time.Minute)
	long2.PrepType = domain.PrepLong
	mustCreateOrder(t, store, short1)
	mustCreateOrder(t, store, short2)
	mustCreateOrder(t, store, long1)
	mustCreateOrder(t, store, long2)

	short := domain.PrepShort
	avg, err := metrics.AvgPrepMin(context.Background(), store, tenantID, &short, now)
	require.NoError(t, err)
	require.NotNil(t, avg)
	require.InDelta(t, 12.0, *avg, 0.001)
}

func TestAvgRouteMin_AppliesReturnLegMultiplier(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	ready1 := now.Add(-30 * time.Minute)
	delivered1 := now.Add(-10 * time.Minute)
	o1 := domain.NewOrder(tenantID, "a", "addr", domain.Point{}, domain.PrepShort, now.Add(-time.Hour))
	o1.ReadyAt = &ready1
	o1.DeliveredAt = &delivered1
	o1.Status = domain.OrderStatusDelivered
	o1.TrackingCode = uuid.New().String()

	ready2 := now.Add(-40 * time.Minute)
	delivered2 := now.Add(-20 * time.Minute)
	o2 := domain.NewOrder(tenantID, "b", "addr", domain.Point{}, domain.PrepShort, now.Add(-time.Hour))
	o2.ReadyAt = &ready2
	o2.DeliveredAt = &delivered2
	o2.Status = domain.OrderStatusDelivered
	o2.TrackingCode = uuid.New().String()

	mustCreateOrder(t, store, o1)
	mustCreateOrder(t, store, o2)

	avg, err := metrics.AvgRouteMin(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.NotNil(t, avg)
	require.InDelta(t, 30.0, *avg, 0.001) // mean(20,20) * 1.5
}

func TestOrdersLastHour(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	in := domain.NewOrder(tenantID, "a", "addr", domain.Point{}, domain.PrepShort, now.Add(-30*time.Minute))
	in.TrackingCode = uuid.New().String()
	out := domain.NewOrder(tenantID, "b", "addr", domain.Point{}, domain.PrepShort, now.Add(-2*time.Hour))
	out.TrackingCode = uuid.New().String()
	mustCreateOrder(t, store, in)
	mustCreateOrder(t, store, out)

	n, err := metrics.OrdersLastHour(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCourierCounts(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	c1 := domain.NewCourier(tenantID, "joao", "111", now)
	c1.Status = domain.CourierAvailable
	c2 := domain.NewCourier(tenantID, "ana", "222", now)
	c2.Status = domain.CourierBusy
	c3 := domain.NewCourier(tenantID, "rui", "333", now)
	c3.Status = domain.CourierOffline
	require.NoError(t, store.CreateCourier(context.Background(), c1))
	require.NoError(t, store.CreateCourier(context.Background(), c2))
	require.NoError(t, store.CreateCourier(context.Background(), c3))

	available, busy, err := metrics.CourierCounts(context.Background(), store, tenantID)
	require.NoError(t, err)
	require.Equal(t, 1, available)
	require.Equal(t, 1, busy)
}

func TestQueueDepth_OnlyCountsUnbatchedReady(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	unbatched := newReadyOrder(tenantID, now, 5*time.Minute)
	batchID := uuid.New()
	batched := newReadyOrder(tenantID, now, 5*time.Minute)
	batched.BatchID = &batchID
	mustCreateOrder(t, store, unbatched)
	mustCreateOrder(t, store, batched)

	depth, err := metrics.QueueDepth(context.Background(), store, tenantID)
	require.NoError(t, err)
	require.Equal(t, 1, depth)
}
