package predictor_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/predictor"
	"github.com/italoogomes/motoflash/internal/store/memory"
)

func deliveredOrder(tenantID uuid.UUID, created time.Time, prepMin, routeMin float64) *domain.Order {
	o := domain.NewOrder(tenantID, "cliente", "rua 1", domain.Point{}, domain.PrepShort, created)
	o.TrackingCode = uuid.New().String()
	ready := created.Add(time.Duration(prepMin * float64(time.Minute)))
	delivered := ready.Add(time.Duration(routeMin * float64(time.Minute)))
	o.ReadyAt = &ready
	o.DeliveredAt = &delivered
	o.Status = domain.OrderStatusDelivered
	return o
}

func TestRefreshPatterns_BucketsByWeekdayAndHour(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Date(2026, 7, 31, 18, 0, 0, 0, time.UTC)

	// Three Tuesdays at 12:00, two orders each.
	for i := 0; i < 3; i++ {
		day := now.AddDate(0, 0, -7*i-3)
		base := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.CreateOrder(context.Background(), deliveredOrder(tenantID, base, 10, 20)))
		require.NoError(t, store.CreateOrder(context.Background(), deliveredOrder(tenantID, base.Add(5*time.Minute), 10, 20)))
	}

	require.NoError(t, predictor.RefreshPatterns(context.Background(), store, tenantID, now))

	patterns, err := store.ListDemandPatterns(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	p := patterns[0]
	require.Equal(t, 2.0, p.AvgOrdersPerHour)
	require.InDelta(t, 10.0, p.AvgPrepMin, 0.001)
	require.InDelta(t, 30.0, p.AvgRouteMin, 0.001) // 20 * 1.5
	require.Equal(t, 6, p.Samples)
	require.GreaterOrEqual(t, p.RecommendedCouriers, 1)
}

func TestForecast_NoHistoricalNoActivity_RecommendationNil(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	f, err := predictor.Forecast(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.False(t, f.HistoricalAvailable)
	require.Nil(t, f.RecommendedCouriers)
	require.Equal(t, predictor.StatusAdequado, f.Status)
}

func TestForecast_QueueWithNoAvailableCouriers_Critico(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	for i := 0; i < 3; i++ {
		o := domain.NewOrder(tenantID, "cliente", "rua", domain.Point{}, domain.PrepShort, now.Add(-5*time.Minute))
		o.TrackingCode = uuid.New().String()
		o.Status = domain.OrderStatusReady
		readyAt := now.Add(-time.Minute)
		o.ReadyAt = &readyAt
		require.NoError(t, store.CreateOrder(context.Background(), o))
	}
	busy := domain.NewCourier(tenantID, "joao", "111", now)
	busy.Status = domain.CourierBusy
	require.NoError(t, store.CreateCourier(context.Background(), busy))

	f, err := predictor.Forecast(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.Equal(t, predictor.StatusCritico, f.Status)
	require.NotNil(t, f.RecommendedCouriers)
	require.GreaterOrEqual(t, *f.RecommendedCouriers, 3)
}

func TestForecast_UsesHistoricalWhenAvailable(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	pattern := &domain.DemandPattern{
		TenantID: tenantID,
		Weekday:  int(now.Weekday()),
		Hour:     now.Hour(),
		// AvgOrdersPerHour left at 0 so demand-variation adjustment is skipped (it only
		// applies when the historical average is nonzero), isolating this test to the
		// "use historical as-is" path.
		AvgPrepMin:          10,
		AvgRouteMin:         25,
		RecommendedCouriers: 2,
		Samples:             10,
	}
	require.NoError(t, store.UpsertDemandPattern(context.Background(), pattern))

	f, err := predictor.Forecast(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.True(t, f.HistoricalAvailable)
	require.Nil(t, f.DemandVariationPct)
	require.NotNil(t, f.RecommendedCouriers)
	require.Equal(t, 2, *f.RecommendedCouriers)
}

func TestForecast_IgnoresHistoricalBelowMinSamples(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	now := time.Now()

	pattern := &domain.DemandPattern{
		TenantID:            tenantID,
		Weekday:             int(now.Weekday()),
		Hour:                now.Hour(),
		AvgOrdersPerHour:    5,
		RecommendedCouriers: 2,
		Samples:             2,
	}
	require.NoError(t, store.UpsertDemandPattern(context.Background(), pattern))

	f, err := predictor.Forecast(context.Background(), store, tenantID, now)
	require.NoError(t, err)
	require.False(t, f.HistoricalAvailable)
}
