package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/italoogomes/motoflash/internal/dispatch"
	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/pkg/logger"
	"github.com/italoogomes/motoflash/internal/routing"
	"github.com/italoogomes/motoflash/internal/store/memory"
)

var basePoint = domain.Point{Lat: -21.2020, Lng: -47.8130}

func newTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:        uuid.New(),
		Slug:      "pizzaria-teste",
		Name:      "Pizzaria Teste",
		Lat:       basePoint.Lat,
		Lng:       basePoint.Lng,
		Plan:      domain.PlanBasic,
		CreatedAt: time.Now(),
	}
}

func newTestDispatcher(store *memory.Store) *dispatch.Dispatcher {
	log := logger.New("error", "text")
	client := routing.NewHTTPClient("", "", log) // no BaseURL: always uses deterministic fallback
	return dispatch.New(store, client, log)
}

func readyOrderAt(tenantID uuid.UUID, p domain.Point, createdAt time.Time) *domain.Order {
	o := domain.NewOrder(tenantID, "cliente", "endereco", p, domain.PrepShort, createdAt)
	o.TrackingCode = uuid.New().String()
	ready := createdAt.Add(5 * time.Minute)
	o.ReadyAt = &ready
	o.Status = domain.OrderStatusReady
	return o
}

func availableCourier(tenantID uuid.UUID, name string, since time.Time) *domain.Courier {
	c := domain.NewCourier(tenantID, name, uuid.New().String(), since)
	c.Status = domain.CourierAvailable
	c.AvailableSince = &since
	return c
}

func TestDispatch_S1_SameAddressMerge(t *testing.T) {
	store := memory.New()
	tenant := newTenant()
	store.SeedTenant(tenant)

	now := time.Now()
	p := domain.Point{Lat: -21.17, Lng: -47.81}
	o1 := readyOrderAt(tenant.ID, p, now.Add(-10*time.Minute))
	o2 := readyOrderAt(tenant.ID, p, now.Add(-9*time.Minute))
	require.NoError(t, store.CreateOrder(context.Background(), o1))
	require.NoError(t, store.CreateOrder(context.Background(), o2))

	courier := availableCourier(tenant.ID, "joao", now.Add(-time.Hour))
	require.NoError(t, store.CreateCourier(context.Background(), courier))

	d := newTestDispatcher(store)
	result, err := d.Run(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.BatchesCreated)
	require.Equal(t, 2, result.OrdersAssigned)

	updatedCourier, err := store.GetCourier(context.Background(), tenant.ID, courier.ID)
	require.NoError(t, err)
	require.Equal(t, domain.CourierBusy, updatedCourier.Status)

	batches, err := store.ListActiveBatches(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	orders, err := store.ListOrdersByBatch(context.Background(), tenant.ID, batches[0].ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, 1, *orders[0].StopOrder)
	require.Equal(t, 2, *orders[1].StopOrder)
}

func TestDispatch_S2_ClusterVsFar(t *testing.T) {
	store := memory.New()
	tenant := newTenant()
	store.SeedTenant(tenant)

	now := time.Now()
	near := domain.Point{Lat: -21.17, Lng: -47.81}
	far := domain.Point{Lat: -21.30, Lng: -47.60}

	// Three orders within 1km of `near`, spread out a little so they are not treated as
	// the exact same address.
	offsets := []domain.Point{
		{Lat: near.Lat, Lng: near.Lng},
		{Lat: near.Lat + 0.003, Lng: near.Lng},
		{Lat: near.Lat, Lng: near.Lng + 0.003},
	}
	for i, p := range offsets {
		o := readyOrderAt(tenant.ID, p, now.Add(time.Duration(-i)*time.Minute))
		require.NoError(t, store.CreateOrder(context.Background(), o))
	}
	farOrder := readyOrderAt(tenant.ID, far, now.Add(-20*time.Minute))
	require.NoError(t, store.CreateOrder(context.Background(), farOrder))

	c1 := availableCourier(tenant.ID, "joao", now.Add(-2*time.Hour))
	c2 := availableCourier(tenant.ID, "ana", now.Add(-time.Hour))
	require.NoError(t, store.CreateCourier(context.Background(), c1))
	require.NoError(t, store.CreateCourier(context.Background(), c2))

	d := newTestDispatcher(store)
	result, err := d.Run(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 2, result.BatchesCreated)
	require.Equal(t, 4, result.OrdersAssigned)

	batches, err := store.ListActiveBatches(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	var sizes []int
	for _, b := range batches {
		orders, err := store.ListOrdersByBatch(context.Background(), tenant.ID, b.ID)
		require.NoError(t, err)
		sizes = append(sizes, len(orders))
	}
	require.ElementsMatch(t, []int{3, 1}, sizes)
}

func TestDispatch_S3_OrphanAbsorption(t *testing.T) {
	store := memory.New()
	tenant := newTenant()
	store.SeedTenant(tenant)

	now := time.Now()
	p := domain.Point{Lat: -21.17, Lng: -47.81}
	for i := 0; i < 5; i++ {
		o := readyOrderAt(tenant.ID, p, now.Add(time.Duration(-i)*time.Minute))
		require.NoError(t, store.CreateOrder(context.Background(), o))
	}
	courier := availableCourier(tenant.ID, "joao", now.Add(-time.Hour))
	require.NoError(t, store.CreateCourier(context.Background(), courier))

	d := newTestDispatcher(store)
	result, err := d.Run(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.BatchesCreated)
	require.Equal(t, 5, result.OrdersAssigned)

	batches, err := store.ListActiveBatches(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	orders, err := store.ListOrdersByBatch(context.Background(), tenant.ID, batches[0].ID)
	require.NoError(t, err)
	require.Len(t, orders, 5)

	stops := make(map[int]bool)
	for _, o := range orders {
		require.NotNil(t, o.StopOrder)
		stops[*o.StopOrder] = true
	}
	require.Len(t, stops, 5)
	for i := 1; i <= 5; i++ {
		require.True(t, stops[i])
	}
}

func TestDispatch_S4_NoCouriers(t *testing.T) {
	store := memory.New()
	tenant := newTenant()
	store.SeedTenant(tenant)

	now := time.Now()
	for i := 0; i < 3; i++ {
		o := readyOrderAt(tenant.ID, basePoint, now.Add(time.Duration(-i)*time.Minute))
		require.NoError(t, store.CreateOrder(context.Background(), o))
	}

	d := newTestDispatcher(store)
	result, err := d.Run(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 0, result.BatchesCreated)
	require.Equal(t, 0, result.OrdersAssigned)

	orders, err := store.ListOrdersByStatus(context.Background(), tenant.ID, domain.OrderStatusReady)
	require.NoError(t, err)
	require.Len(t, orders, 3)
}

func TestDispatch_Idempotent_WhenNoNewReadyOrders(t *testing.T) {
	store := memory.New()
	tenant := newTenant()
	store.SeedTenant(tenant)

	now := time.Now()
	o := readyOrderAt(tenant.ID, basePoint, now)
	require.NoError(t, store.CreateOrder(context.Background(), o))
	courier := availableCourier(tenant.ID, "joao", now.Add(-time.Hour))
	require.NoError(t, store.CreateCourier(context.Background(), courier))

	d := newTestDispatcher(store)
	first, err := d.Run(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.BatchesCreated)

	second, err := d.Run(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 0, second.BatchesCreated)
	require.Equal(t, 0, second.OrdersAssigned)
}

func TestDispatch_MergeBoundary_JustWithinRadius(t *testing.T) {
	store := memory.New()
	tenant := newTenant()
	store.SeedTenant(tenant)

	now := time.Now()
	// ~0.027 degrees of latitude is close to 3km; centroid-to-centroid distance of two
	// singleton groups at exactly that offset sits just inside CLUSTER_RADIUS_KM.
	p1 := domain.Point{Lat: -21.17, Lng: -47.81}
	p2 := domain.Point{Lat: -21.17 - 0.0269, Lng: -47.81} // ~2.99km south

	o1 := readyOrderAt(tenant.ID, p1, now.Add(-2*time.Minute))
	o2 := readyOrderAt(tenant.ID, p2, now.Add(-time.Minute))
	require.NoError(t, store.CreateOrder(context.Background(), o1))
	require.NoError(t, store.CreateOrder(context.Background(), o2))

	courier := availableCourier(tenant.ID, "joao", now.Add(-time.Hour))
	require.NoError(t, store.CreateCourier(context.Background(), courier))

	d := newTestDispatcher(store)
	result, err := d.Run(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.BatchesCreated)
	require.Equal(t, 2, result.OrdersAssigned)
}
