// Package dispatch implements the clustering-and-assignment scheduler: it groups a
// tenant's ready orders into geographically coherent batches, assigns each batch to one
// available courier, orders each batch's stops against the road network, and folds
// leftover orders into existing batches when there is room.
package dispatch

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/geo"
	"github.com/italoogomes/motoflash/internal/infrastructure/events"
	"github.com/italoogomes/motoflash/internal/routing"
	"github.com/italoogomes/motoflash/pkg/logger"
)

const (
	// SameAddressKM groups orders to the same doorstep into a single stop.
	SameAddressKM = 0.05
	// ClusterRadiusKM bounds how far apart two groups' centroids may be to merge.
	ClusterRadiusKM = 3.0
	// PreferredPerCourier is the target batch size groups are merged/split toward.
	PreferredPerCourier = 4
	// MaxAbs is the hard ceiling on orders in a single batch, including orphan inserts.
	MaxAbs = 6
)

// Result summarizes one dispatch run.
type Result struct {
	BatchesCreated int
	OrdersAssigned int
	Message        string
}

// Dispatcher runs the clustering-and-assignment algorithm for one tenant at a time,
// serializing concurrent runs against the same tenant so that no order is ever claimed
// by two batches.
type Dispatcher struct {
	Store   domain.Store
	Routing routing.Client
	Log     logger.Logger
	// Events is optional; a nil Publisher silently drops every Publish call, so tests
	// and the in-memory standalone mode can omit it.
	Events *events.Publisher

	locks sync.Map // uuid.UUID -> *sync.Mutex
}

// New constructs a Dispatcher.
func New(store domain.Store, routingClient routing.Client, log logger.Logger) *Dispatcher {
	return &Dispatcher{Store: store, Routing: routingClient, Log: log}
}

func (d *Dispatcher) lockFor(tenantID uuid.UUID) *sync.Mutex {
	m, _ := d.locks.LoadOrStore(tenantID, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// group is a set of orders clustered to the same stop or neighborhood.
type group struct {
	orders []*domain.Order
}

func (g *group) centroid() domain.Point {
	points := make([]domain.Point, len(g.orders))
	for i, o := range g.orders {
		points[i] = o.Location()
	}
	return geo.Centroid(points)
}

func (g *group) seedReadyAt() time.Time {
	earliest := g.orders[0].ReadyAt
	for _, o := range g.orders[1:] {
		if o.ReadyAt != nil && (earliest == nil || o.ReadyAt.Before(*earliest)) {
			earliest = o.ReadyAt
		}
	}
	if earliest == nil {
		return g.orders[0].CreatedAt
	}
	return *earliest
}

// plannedBatch is a batch this run is about to create, still mutable until commit.
type plannedBatch struct {
	batch   *domain.Batch
	courier *domain.Courier
	orders  []*domain.Order
}

// Run executes one dispatch pass for tenantID. Routing-client calls happen entirely
// before the commit transaction; Store mutations commit all at once or not at all.
func (d *Dispatcher) Run(ctx context.Context, tenantID uuid.UUID) (*Result, error) {
	lock := d.lockFor(tenantID)
	lock.Lock()
	defer lock.Unlock()

	tenant, err := d.Store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("dispatch run: %w", err)
	}

	readyStatus := domain.OrderStatusReady
	readyOrders, err := d.Store.ListOrders(ctx, tenantID, domain.OrderFilter{Status: &readyStatus})
	if err != nil {
		return nil, fmt.Errorf("dispatch run: list ready orders: %w", err)
	}
	var unbatched []*domain.Order
	for _, o := range readyOrders {
		if o.BatchID == nil {
			unbatched = append(unbatched, o)
		}
	}
	if len(unbatched) == 0 {
		return &Result{Message: "no ready orders to dispatch"}, nil
	}

	availableStatus := domain.CourierAvailable
	couriers, err := d.Store.ListCouriers(ctx, tenantID, &availableStatus)
	if err != nil {
		return nil, fmt.Errorf("dispatch run: list available couriers: %w", err)
	}
	if len(couriers) == 0 {
		return &Result{Message: "no available couriers"}, nil
	}

	groups := sameAddressGroups(unbatched)
	groups = mergeNearbyGroups(groups)
	groups = splitOversizeGroups(groups)

	n := len(groups)
	if len(couriers) < n {
		n = len(couriers)
	}
	assignedGroups := groups[:n]
	var orphanGroups []*group
	if n < len(groups) {
		orphanGroups = groups[n:]
	}

	now := time.Now()
	base := tenant.BasePoint()
	var planned []*plannedBatch

	for i, g := range assignedGroups {
		courier := couriers[i]
		batch := domain.NewBatch(tenantID, courier.ID, now)

		ordered, err := d.sortStops(ctx, base, g.orders)
		if err != nil {
			return nil, fmt.Errorf("dispatch run: sort stops: %w", err)
		}
		for idx, o := range ordered {
			if err := o.AssignToBatch(batch.ID, idx+1); err != nil {
				return nil, fmt.Errorf("dispatch run: assign order %s: %w", o.ID, err)
			}
		}
		if err := courier.MarkBusy(now); err != nil {
			return nil, fmt.Errorf("dispatch run: mark courier %s busy: %w", courier.ID, err)
		}
		planned = append(planned, &plannedBatch{batch: batch, courier: courier, orders: ordered})
	}

	var orphans []*domain.Order
	for _, g := range orphanGroups {
		orphans = append(orphans, g.orders...)
	}

	ordersAssigned := 0
	for _, p := range planned {
		ordersAssigned += len(p.orders)
	}

	var stillUnassigned []*domain.Order
	for _, orphan := range orphans {
		target := bestOrphanTarget(planned, orphan)
		if target == nil {
			stillUnassigned = append(stillUnassigned, orphan)
			continue
		}
		if err := insertOrphanInto(target, orphan); err != nil {
			return nil, fmt.Errorf("dispatch run: insert orphan %s: %w", orphan.ID, err)
		}
		ordersAssigned++
	}

	result := &Result{
		BatchesCreated: len(planned),
		OrdersAssigned: ordersAssigned,
	}
	if len(stillUnassigned) > 0 {
		result.Message = fmt.Sprintf("%d batch(es) created, %d order(s) assigned, %d orphan(s) left unassigned",
			result.BatchesCreated, result.OrdersAssigned, len(stillUnassigned))
	} else {
		result.Message = fmt.Sprintf("%d batch(es) created, %d order(s) assigned", result.BatchesCreated, result.OrdersAssigned)
	}

	err = d.Store.WithinTx(ctx, func(tx domain.Store) error {
		for _, p := range planned {
			if err := tx.CreateBatch(ctx, p.batch); err != nil {
				return err
			}
			for _, o := range p.orders {
				if err := tx.UpdateOrder(ctx, o); err != nil {
					return err
				}
			}
			if err := tx.UpdateCourier(ctx, p.courier); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch run: commit: %w", err)
	}

	for _, p := range planned {
		if pubErr := d.Events.Publish(ctx, events.TypeBatchCreated, p.batch.ID.String(), p.batch, now); pubErr != nil {
			d.Log.WithField("error", pubErr.Error()).Warn("dispatch: publish batch.created failed")
		}
		for _, o := range p.orders {
			if pubErr := d.Events.Publish(ctx, events.TypeOrderAssigned, o.ID.String(), o, now); pubErr != nil {
				d.Log.WithField("error", pubErr.Error()).Warn("dispatch: publish order.assigned failed")
			}
		}
	}

	return result, nil
}

// sameAddressGroups partitions orders so that any two within SameAddressKM of each other
// land in the same group. Greedy seed-and-absorb, iterating orders oldest-created first
// for determinism.
func sameAddressGroups(orders []*domain.Order) []*group {
	sorted := append([]*domain.Order(nil), orders...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID.String() < sorted[j].ID.String()
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var groups []*group
	used := make(map[uuid.UUID]bool)
	for _, seed := range sorted {
		if used[seed.ID] {
			continue
		}
		g := &group{orders: []*domain.Order{seed}}
		used[seed.ID] = true
		for _, other := range sorted {
			if used[other.ID] {
				continue
			}
			if geo.Haversine(seed.Location(), other.Location()) <= SameAddressKM {
				g.orders = append(g.orders, other)
				used[other.ID] = true
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// mergeNearbyGroups greedily merges each group with every later group within
// ClusterRadiusKM whose combined size still fits PreferredPerCourier, iterating groups
// ordered by earliest seed ready_at so earlier-ready groups merge first.
func mergeNearbyGroups(groups []*group) []*group {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].seedReadyAt().Before(groups[j].seedReadyAt())
	})

	merged := append([]*group(nil), groups...)
	for i := 0; i < len(merged); i++ {
		j := i + 1
		for j < len(merged) {
			combined := len(merged[i].orders) + len(merged[j].orders)
			if combined <= PreferredPerCourier &&
				geo.Haversine(merged[i].centroid(), merged[j].centroid()) <= ClusterRadiusKM {
				merged[i].orders = append(merged[i].orders, merged[j].orders...)
				merged = append(merged[:j], merged[j+1:]...)
				continue
			}
			j++
		}
	}
	return merged
}

// splitOversizeGroups breaks any group bigger than PreferredPerCourier into chunks of
// that size, after sorting members by proximity to the group centroid.
func splitOversizeGroups(groups []*group) []*group {
	var out []*group
	for _, g := range groups {
		if len(g.orders) <= PreferredPerCourier {
			out = append(out, g)
			continue
		}
		centroid := g.centroid()
		sorted := append([]*domain.Order(nil), g.orders...)
		sort.Slice(sorted, func(i, j int) bool {
			return geo.Haversine(centroid, sorted[i].Location()) < geo.Haversine(centroid, sorted[j].Location())
		})
		for len(sorted) > 0 {
			chunkSize := PreferredPerCourier
			if chunkSize > len(sorted) {
				chunkSize = len(sorted)
			}
			out = append(out, &group{orders: append([]*domain.Order(nil), sorted[:chunkSize]...)})
			sorted = sorted[chunkSize:]
		}
	}
	return out
}

// sortStops orders a group's orders by road distance from the tenant's base point,
// breaking ties by order id. Routing-client failures fall back transparently to a
// haversine-derived distance inside the client itself.
func (d *Dispatcher) sortStops(ctx context.Context, base domain.Point, orders []*domain.Order) ([]*domain.Order, error) {
	type distanced struct {
		order *domain.Order
		dist  float64
	}
	ds := make([]distanced, len(orders))
	for i, o := range orders {
		dist, err := d.Routing.DrivingDistanceM(ctx, base, o.Location())
		if err != nil {
			return nil, err
		}
		ds[i] = distanced{order: o, dist: dist}
	}
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].dist == ds[j].dist {
			return ds[i].order.ID.String() < ds[j].order.ID.String()
		}
		return ds[i].dist < ds[j].dist
	})
	out := make([]*domain.Order, len(ds))
	for i, item := range ds {
		out[i] = item.order
	}
	return out, nil
}

// bestOrphanTarget finds, among batches created this run, the one whose route has the
// smallest nearest-point distance to orphan and still has spare capacity under MaxAbs.
func bestOrphanTarget(planned []*plannedBatch, orphan *domain.Order) *plannedBatch {
	var best *plannedBatch
	bestDist := math.Inf(1)
	for _, p := range planned {
		if len(p.orders) >= MaxAbs {
			continue
		}
		routePoints := make([]domain.Point, len(p.orders))
		for i, o := range p.orders {
			routePoints[i] = o.Location()
		}
		dist := geo.NearestDistance(orphan.Location(), routePoints)
		if dist < bestDist {
			best = p
			bestDist = dist
		}
	}
	return best
}

// insertOrphanInto inserts orphan into p's route at the position minimizing total
// straight-line route length, transitions it to assigned in that batch, and renumbers
// every order's StopOrder 1..k+1.
func insertOrphanInto(p *plannedBatch, orphan *domain.Order) error {
	bestPos := len(p.orders)
	bestCost := math.Inf(1)
	for pos := 0; pos <= len(p.orders); pos++ {
		candidate := make([]*domain.Order, 0, len(p.orders)+1)
		candidate = append(candidate, p.orders[:pos]...)
		candidate = append(candidate, orphan)
		candidate = append(candidate, p.orders[pos:]...)
		cost := routeLength(candidate)
		if cost < bestCost {
			bestCost = cost
			bestPos = pos
		}
	}

	newOrders := make([]*domain.Order, 0, len(p.orders)+1)
	newOrders = append(newOrders, p.orders[:bestPos]...)
	newOrders = append(newOrders, orphan)
	newOrders = append(newOrders, p.orders[bestPos:]...)
	p.orders = newOrders

	if err := orphan.AssignToBatch(p.batch.ID, bestPos+1); err != nil {
		return err
	}
	renumberStops(p.orders)
	return nil
}

func routeLength(orders []*domain.Order) float64 {
	if len(orders) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(orders); i++ {
		total += geo.Haversine(orders[i-1].Location(), orders[i].Location())
	}
	return total
}

func renumberStops(orders []*domain.Order) {
	for i, o := range orders {
		stop := i + 1
		o.StopOrder = &stop
	}
}
