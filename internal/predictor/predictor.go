// Package predictor implements the hybrid demand forecast: a historical per
// (weekday, hour) model trained from delivered orders, fused with a live
// arrival/service-rate balance, to recommend how many couriers a tenant should keep
// active right now.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/metrics"
)

const (
	trainingWindow = 28 * 24 * time.Hour

	minHistoricalSamples = 3

	safetyFactor        = 1.2
	defaultCycleMinutes = 30.0

	variationUpThreshold   = 30.0
	variationDownThreshold = -30.0

	prepLowerBoundMin  = 0.0
	prepUpperBoundMin  = 120.0
	routeLowerBoundMin = 0.0
	routeUpperBoundMin = 180.0

	returnLegMultiplier = 1.5
)

// Status labels surfaced to operators, matching the wire vocabulary the dashboard
// already speaks.
const (
	StatusAdequado = "adequado"
	StatusAtencao  = "atencao"
	StatusCritico  = "critico"
)

// HybridForecast is the full output of Forecast.
type HybridForecast struct {
	Weekday int
	Hour    int

	HistoricalAvailable bool
	Historical          *domain.DemandPattern

	OrdersLastHour    int
	AvgPrepMin        *float64
	AvgRouteMin       *float64
	AvailableCouriers int
	BusyCouriers      int
	QueueDepth        int
	InRouteCount      int

	CycleMinutes float64
	ArrivalRate  float64 // λ, orders/hour
	ServiceRate  float64 // μ, orders/hour the active fleet can clear
	FlowBalance  float64 // μ - λ

	// QueueGrowthMinutes is set only when FlowBalance < 0: the approximate time for the
	// queue to grow by one more order at the current imbalance.
	QueueGrowthMinutes *float64

	// DemandVariationPct is set only when a historical slot is available with a nonzero
	// average.
	DemandVariationPct *float64

	// RecommendedCouriers is nil when there is neither historical data nor any current
	// activity to reason from — operators see "—".
	RecommendedCouriers *int

	Status          string
	Message         string
	SuggestedAction string
}

// RefreshPatterns is the training pass: it scans delivered orders from the trailing
// four weeks, buckets them by (weekday, hour) of creation, and upserts one
// DemandPattern row per populated bucket.
func RefreshPatterns(ctx context.Context, store domain.Store, tenantID uuid.UUID, now time.Time) error {
	orders, err := store.ListDeliveredOrdersSince(ctx, tenantID, now.Add(-trainingWindow))
	if err != nil {
		return fmt.Errorf("refresh patterns: %w", err)
	}

	type bucketKey struct {
		weekday int
		hour    int
	}
	buckets := make(map[bucketKey][]*domain.Order)
	for _, o := range orders {
		if o.ReadyAt == nil || o.DeliveredAt == nil {
			continue
		}
		k := bucketKey{weekday: int(o.CreatedAt.Weekday()), hour: o.CreatedAt.Hour()}
		buckets[k] = append(buckets[k], o)
	}

	for k, bucketOrders := range buckets {
		ordersPerHour := averagePerCalendarDay(bucketOrders)
		prepMin := boundedMean(bucketOrders, func(o *domain.Order) (float64, bool) {
			mins := o.ReadyAt.Sub(o.CreatedAt).Minutes()
			return mins, mins > prepLowerBoundMin && mins < prepUpperBoundMin
		})
		routeMin := boundedMean(bucketOrders, func(o *domain.Order) (float64, bool) {
			raw := o.DeliveredAt.Sub(*o.ReadyAt).Minutes()
			return raw * returnLegMultiplier, raw > routeLowerBoundMin && raw < routeUpperBoundMin
		})

		cycleMinutes := routeMin
		if cycleMinutes <= 0 {
			cycleMinutes = defaultCycleMinutes
		}

		pattern := &domain.DemandPattern{
			TenantID:            tenantID,
			Weekday:             k.weekday,
			Hour:                k.hour,
			AvgOrdersPerHour:    ordersPerHour,
			AvgPrepMin:          prepMin,
			AvgRouteMin:         routeMin,
			RecommendedCouriers: recommendedCouriers(ordersPerHour, cycleMinutes),
			Samples:             len(bucketOrders),
		}
		if err := store.UpsertDemandPattern(ctx, pattern); err != nil {
			return fmt.Errorf("refresh patterns: upsert %d/%d: %w", k.weekday, k.hour, err)
		}
	}
	return nil
}

// averagePerCalendarDay groups orders by calendar date and returns the mean count
// across the distinct days observed, so that a bucket trained from three Mondays
// reflects "orders per Monday at this hour", not a blended daily total.
func averagePerCalendarDay(orders []*domain.Order) float64 {
	perDay := make(map[string]int)
	for _, o := range orders {
		day := o.CreatedAt.Format("2006-01-02")
		perDay[day]++
	}
	if len(perDay) == 0 {
		return 0
	}
	total := 0
	for _, n := range perDay {
		total += n
	}
	return float64(total) / float64(len(perDay))
}

func boundedMean(orders []*domain.Order, extract func(*domain.Order) (float64, bool)) float64 {
	var sum float64
	var n int
	for _, o := range orders {
		v, ok := extract(o)
		if !ok {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// recommendedCouriers is the shared base formula: ceil(ordersPerHour / (60/cycleMinutes)
// x safetyFactor), floored at 1.
func recommendedCouriers(ordersPerHour, cycleMinutes float64) int {
	if cycleMinutes <= 0 {
		cycleMinutes = defaultCycleMinutes
	}
	servicePerCourier := 60.0 / cycleMinutes
	rec := int(math.Ceil(ordersPerHour / servicePerCourier * safetyFactor))
	if rec < 1 {
		rec = 1
	}
	return rec
}

// Forecast produces the live HybridForecast for tenantID, fusing the historical slot
// for now's (weekday, hour) with the current flow balance.
func Forecast(ctx context.Context, store domain.Store, tenantID uuid.UUID, now time.Time) (*HybridForecast, error) {
	snap, err := metrics.Compute(ctx, store, tenantID, now)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	weekday := int(now.Weekday())
	hour := now.Hour()

	f := &HybridForecast{
		Weekday:           weekday,
		Hour:              hour,
		OrdersLastHour:    snap.OrdersLastHour,
		AvgPrepMin:        snap.AvgPrepMin,
		AvgRouteMin:       snap.AvgRouteMin,
		AvailableCouriers: snap.AvailableCouriers,
		BusyCouriers:      snap.BusyCouriers,
		QueueDepth:        snap.QueueDepth,
		InRouteCount:      snap.InRouteCount,
	}

	pattern, err := store.GetDemandPattern(ctx, tenantID, weekday, hour)
	switch {
	case err == nil && pattern.Samples >= minHistoricalSamples:
		f.HistoricalAvailable = true
		f.Historical = pattern
	case err == nil:
		f.HistoricalAvailable = false
	case errors.Is(err, domain.ErrNotFound):
		f.HistoricalAvailable = false
	default:
		return nil, fmt.Errorf("forecast: %w", err)
	}

	cycleMinutes := defaultCycleMinutes
	switch {
	case snap.AvgRouteMin != nil:
		cycleMinutes = *snap.AvgRouteMin
	case f.HistoricalAvailable && f.Historical.AvgRouteMin > 0:
		cycleMinutes = f.Historical.AvgRouteMin
	}
	f.CycleMinutes = cycleMinutes

	lambda := float64(snap.OrdersLastHour)
	servicePerCourier := 60.0 / cycleMinutes
	mu := float64(snap.AvailableCouriers) * servicePerCourier
	f.ArrivalRate = lambda
	f.ServiceRate = mu
	f.FlowBalance = mu - lambda

	if f.FlowBalance < 0 {
		t := 60.0 / math.Abs(f.FlowBalance)
		f.QueueGrowthMinutes = &t
	}

	if f.HistoricalAvailable && f.Historical.AvgOrdersPerHour != 0 {
		v := ((lambda - f.Historical.AvgOrdersPerHour) / f.Historical.AvgOrdersPerHour) * 100
		f.DemandVariationPct = &v
	}

	hasActivity := snap.OrdersLastHour > 0 || snap.QueueDepth > 0 || snap.InRouteCount > 0 ||
		snap.AvailableCouriers > 0 || snap.BusyCouriers > 0

	var recommended *int
	if f.HistoricalAvailable || hasActivity {
		base := recommendedCouriers(lambda, cycleMinutes)
		rec := base
		if f.HistoricalAvailable {
			rec = f.Historical.RecommendedCouriers
			if f.DemandVariationPct != nil {
				v := *f.DemandVariationPct
				switch {
				case v >= variationUpThreshold:
					rec = int(math.Ceil(float64(f.Historical.RecommendedCouriers) * (1 + v/100)))
				case v <= variationDownThreshold:
					rec = int(math.Ceil(float64(f.Historical.RecommendedCouriers) * (1 + v/100)))
					if rec < 1 {
						rec = 1
					}
				}
			}
		}
		recommended = &rec
	}

	f.Status = StatusAdequado
	f.Message = "operação dentro do esperado"

	if snap.QueueDepth > 0 && snap.AvailableCouriers == 0 {
		if snap.QueueDepth >= 3 {
			f.Status = StatusCritico
			f.Message = "fila crescendo sem entregadores disponíveis"
		} else {
			f.Status = StatusAtencao
			f.Message = "pedidos aguardando, nenhum entregador disponível"
		}
		f.SuggestedAction = "ativar mais entregadores"
		overrideRec := int(math.Ceil(float64(snap.QueueDepth)/2)) + 1
		if recommended == nil || overrideRec > *recommended {
			recommended = &overrideRec
		}
	} else if f.QueueGrowthMinutes != nil {
		f.Status = StatusAtencao
		f.Message = "demanda acima da capacidade atual de entrega"
		f.SuggestedAction = "considerar ativar mais um entregador"
	}

	f.RecommendedCouriers = recommended
	return f, nil
}
