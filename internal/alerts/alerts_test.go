package alerts_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/italoogomes/motoflash/internal/alerts"
	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/store/memory"
)

func readyOrder(tenantID uuid.UUID, now time.Time) *domain.Order {
	o := domain.NewOrder(tenantID, "cliente", "rua", domain.Point{}, domain.PrepShort, now.Add(-time.Minute))
	o.TrackingCode = uuid.New().String()
	ready := now.Add(-time.Second)
	o.ReadyAt = &ready
	o.Status = domain.OrderStatusReady
	return o
}

func TestEvaluate_NoCouriersCritico(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	require.NoError(t, store.CreateOrder(context.Background(), readyOrder(tenantID, now)))
	require.NoError(t, store.CreateOrder(context.Background(), readyOrder(tenantID, now)))

	result, err := alerts.Evaluate(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.Equal(t, alerts.SeverityCritico, result.Overall)
	require.GreaterOrEqual(t, result.RecommendedCouriers, 2)

	var found bool
	for _, a := range result.Alerts {
		if a.Type == "no_couriers" {
			found = true
		}
	}
	require.True(t, found)
}

func TestEvaluate_ReadyToDispatchInfo(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	require.NoError(t, store.CreateOrder(context.Background(), readyOrder(tenantID, now)))
	courier := domain.NewCourier(tenantID, "joao", "111", now)
	courier.Status = domain.CourierAvailable
	require.NoError(t, store.CreateCourier(context.Background(), courier))

	result, err := alerts.Evaluate(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.Equal(t, alerts.SeverityInfo, result.Overall)
	require.Len(t, result.Alerts, 1)
	require.Equal(t, "ready_to_dispatch", result.Alerts[0].Type)
}

func TestEvaluate_InsufficientCouriersAtencao(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateOrder(context.Background(), readyOrder(tenantID, now)))
	}
	courier := domain.NewCourier(tenantID, "joao", "111", now)
	courier.Status = domain.CourierAvailable
	require.NoError(t, store.CreateCourier(context.Background(), courier))

	result, err := alerts.Evaluate(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.Equal(t, alerts.SeverityAtencao, result.Overall)
	require.Equal(t, 2, result.RecommendedCouriers)
}

func TestEvaluate_NormalWhenIdle(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	result, err := alerts.Evaluate(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.Equal(t, alerts.SeveritySuccess, result.Overall)
	require.Len(t, result.Alerts, 1)
	require.Equal(t, "normal", result.Alerts[0].Type)
}

func TestEvaluate_FlowingWhenInRouteWithNoQueue(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	batchID := uuid.New()
	o := domain.NewOrder(tenantID, "cliente", "rua", domain.Point{}, domain.PrepShort, now.Add(-10*time.Minute))
	o.TrackingCode = uuid.New().String()
	o.Status = domain.OrderStatusAssigned
	o.BatchID = &batchID
	require.NoError(t, store.CreateOrder(context.Background(), o))

	result, err := alerts.Evaluate(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.Equal(t, alerts.SeveritySuccess, result.Overall)
	require.Equal(t, "flowing", result.Alerts[0].Type)
}
