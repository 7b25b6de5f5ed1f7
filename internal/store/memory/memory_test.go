package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/store/memory"
)

func TestSearchOrders_DiacriticInsensitive(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tenantID := uuid.New()

	o := domain.NewOrder(tenantID, "José Conceição", "Rua A, 100", domain.Point{Lat: -21.17, Lng: -47.81}, domain.PrepShort, time.Now())
	o.ShortID = 1001
	o.TrackingCode = "MF-ABC123"
	require.NoError(t, store.CreateOrder(ctx, o))

	// Query with plain ASCII should still match the accented stored name.
	results, err := store.SearchOrders(ctx, tenantID, "jose conceicao", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, o.ID, results[0].ID)
}

func TestSearchOrders_ExcludesDeliveredAndOtherTenants(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tenantID := uuid.New()
	otherTenant := uuid.New()
	now := time.Now()

	delivered := domain.NewOrder(tenantID, "Maria Silva", "Rua B, 200", domain.Point{Lat: -21.17, Lng: -47.81}, domain.PrepShort, now)
	require.NoError(t, delivered.ScanQR(now))
	require.NoError(t, delivered.AssignToBatch(uuid.New(), 1))
	require.NoError(t, delivered.Deliver(now))
	require.NoError(t, store.CreateOrder(ctx, delivered))

	foreign := domain.NewOrder(otherTenant, "Maria Silva", "Rua C, 300", domain.Point{Lat: -21.17, Lng: -47.81}, domain.PrepShort, now)
	require.NoError(t, store.CreateOrder(ctx, foreign))

	results, err := store.SearchOrders(ctx, tenantID, "maria", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchOrders_ShortIDHashPrefix(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tenantID := uuid.New()

	o := domain.NewOrder(tenantID, "Ana", "Rua D, 400", domain.Point{Lat: -21.17, Lng: -47.81}, domain.PrepShort, time.Now())
	o.ShortID = 1042
	require.NoError(t, store.CreateOrder(ctx, o))

	results, err := store.SearchOrders(ctx, tenantID, "#1042", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, o.ID, results[0].ID)
}
