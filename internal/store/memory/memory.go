// Package memory is an in-memory domain.Store implementation. It backs package tests
// across the module (dispatcher, metrics, predictor, alerts) and the "-memory" run mode
// of cmd/dispatchd, the same way multi-step flows elsewhere in this codebase are exercised
// against a real(ish) backing store rather than dozens of mocked repository calls.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/italoogomes/motoflash/internal/domain"
)

// foldDiacritics decomposes accented runes and drops the combining marks, mirroring the
// Postgres `unaccent()` behavior the database Store leans on for the same search query
// (internal/infrastructure/database/order.go), so name matches behave identically
// regardless of which Store backs the search.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

type patternKey struct {
	tenantID uuid.UUID
	weekday  int
	hour     int
}

// state holds the actual entity maps. It has no locking of its own — Store wraps one
// "committed" state behind a mutex, and WithinTx operates on a cloned state without any
// lock, committing the clone back under the same mutex on success.
type state struct {
	tenants       map[uuid.UUID]*domain.Tenant
	orders        map[uuid.UUID]*domain.Order
	couriers      map[uuid.UUID]*domain.Courier
	batches       map[uuid.UUID]*domain.Batch
	patterns      map[patternKey]*domain.DemandPattern
	trackingCodes map[string]bool
}

func newState() *state {
	return &state{
		tenants:       make(map[uuid.UUID]*domain.Tenant),
		orders:        make(map[uuid.UUID]*domain.Order),
		couriers:      make(map[uuid.UUID]*domain.Courier),
		batches:       make(map[uuid.UUID]*domain.Batch),
		patterns:      make(map[patternKey]*domain.DemandPattern),
		trackingCodes: make(map[string]bool),
	}
}

// clone deep-copies every entity so that in-flight transaction mutations never become
// visible to readers of the committed state before WithinTx returns successfully.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.tenants {
		t := *v
		c.tenants[k] = &t
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range s.couriers {
		c.couriers[k] = cloneCourier(v)
	}
	for k, v := range s.batches {
		b := *v
		c.batches[k] = &b
	}
	for k, v := range s.patterns {
		p := *v
		c.patterns[k] = &p
	}
	for k, v := range s.trackingCodes {
		c.trackingCodes[k] = v
	}
	return c
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	if o.ReadyAt != nil {
		v := *o.ReadyAt
		c.ReadyAt = &v
	}
	if o.DeliveredAt != nil {
		v := *o.DeliveredAt
		c.DeliveredAt = &v
	}
	if o.CancelledAt != nil {
		v := *o.CancelledAt
		c.CancelledAt = &v
	}
	if o.BatchID != nil {
		v := *o.BatchID
		c.BatchID = &v
	}
	if o.StopOrder != nil {
		v := *o.StopOrder
		c.StopOrder = &v
	}
	return &c
}

func cloneCourier(co *domain.Courier) *domain.Courier {
	c := *co
	if co.LastLat != nil {
		v := *co.LastLat
		c.LastLat = &v
	}
	if co.LastLng != nil {
		v := *co.LastLng
		c.LastLng = &v
	}
	if co.AvailableSince != nil {
		v := *co.AvailableSince
		c.AvailableSince = &v
	}
	return &c
}

// Store is the in-memory domain.Store.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New constructs an empty Store.
func New() *Store {
	return &Store{state: newState()}
}

// view is a domain.Store implementation operating directly on a *state with no locking
// of its own; it is used both as the lock-guarded delegate of the committed Store and as
// the unguarded delegate handed to WithinTx's callback.
type view struct {
	s *state
}

func (s *Store) GetTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).GetTenant(ctx, tenantID)
}
func (s *Store) UpdateTenant(ctx context.Context, t *domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).UpdateTenant(ctx, t)
}
func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).CreateOrder(ctx, o)
}
func (s *Store) UpdateOrder(ctx context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).UpdateOrder(ctx, o)
}
func (s *Store) GetOrder(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).GetOrder(ctx, tenantID, id)
}
func (s *Store) GetOrderByTrackingCode(ctx context.Context, code string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).GetOrderByTrackingCode(ctx, code)
}
func (s *Store) GetOrderByShortID(ctx context.Context, tenantID uuid.UUID, shortID int) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).GetOrderByShortID(ctx, tenantID, shortID)
}
func (s *Store) ListOrders(ctx context.Context, tenantID uuid.UUID, filter domain.OrderFilter) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).ListOrders(ctx, tenantID, filter)
}
func (s *Store) ListOrdersByStatus(ctx context.Context, tenantID uuid.UUID, status domain.OrderStatus) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).ListOrdersByStatus(ctx, tenantID, status)
}
func (s *Store) ListOrdersByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).ListOrdersByBatch(ctx, tenantID, batchID)
}
func (s *Store) SearchOrders(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).SearchOrders(ctx, tenantID, query, limit)
}
func (s *Store) MaxShortID(ctx context.Context, tenantID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).MaxShortID(ctx, tenantID)
}
func (s *Store) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).TrackingCodeExists(ctx, code)
}
func (s *Store) ListOrdersCreatedSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).ListOrdersCreatedSince(ctx, tenantID, since)
}
func (s *Store) ListDeliveredOrdersSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).ListDeliveredOrdersSince(ctx, tenantID, since)
}
func (s *Store) CreateCourier(ctx context.Context, c *domain.Courier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).CreateCourier(ctx, c)
}
func (s *Store) UpdateCourier(ctx context.Context, c *domain.Courier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).UpdateCourier(ctx, c)
}
func (s *Store) GetCourier(ctx context.Context, tenantID, id uuid.UUID) (*domain.Courier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).GetCourier(ctx, tenantID, id)
}
func (s *Store) ListCouriers(ctx context.Context, tenantID uuid.UUID, status *domain.CourierStatus) ([]*domain.Courier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).ListCouriers(ctx, tenantID, status)
}
func (s *Store) PhoneInUse(ctx context.Context, tenantID uuid.UUID, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).PhoneInUse(ctx, tenantID, phone)
}
func (s *Store) CreateBatch(ctx context.Context, b *domain.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).CreateBatch(ctx, b)
}
func (s *Store) UpdateBatch(ctx context.Context, b *domain.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).UpdateBatch(ctx, b)
}
func (s *Store) GetBatch(ctx context.Context, tenantID, id uuid.UUID) (*domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).GetBatch(ctx, tenantID, id)
}
func (s *Store) ListActiveBatches(ctx context.Context, tenantID uuid.UUID) ([]*domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).ListActiveBatches(ctx, tenantID)
}
func (s *Store) GetActiveBatchForCourier(ctx context.Context, tenantID, courierID uuid.UUID) (*domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).GetActiveBatchForCourier(ctx, tenantID, courierID)
}
func (s *Store) GetDemandPattern(ctx context.Context, tenantID uuid.UUID, weekday, hour int) (*domain.DemandPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).GetDemandPattern(ctx, tenantID, weekday, hour)
}
func (s *Store) UpsertDemandPattern(ctx context.Context, p *domain.DemandPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).UpsertDemandPattern(ctx, p)
}
func (s *Store) ListDemandPatterns(ctx context.Context, tenantID uuid.UUID) ([]*domain.DemandPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{s.state}).ListDemandPatterns(ctx, tenantID)
}

// WithinTx clones the committed state, runs fn against the clone (no lock held during
// fn, so fn may itself call back into slow paths without deadlocking), and only on
// success swaps the clone in as the new committed state — mutations commit together or
// not at all.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	s.mu.Lock()
	clone := s.state.clone()
	s.mu.Unlock()

	txStore := &view{clone}
	if err := fn(txStore); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = clone
	s.mu.Unlock()
	return nil
}

// --- view: the unguarded domain.Store implementation ---

func (v *view) GetTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Tenant, error) {
	t, ok := v.s.tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	return t, nil
}

func (v *view) UpdateTenant(ctx context.Context, t *domain.Tenant) error {
	if _, ok := v.s.tenants[t.ID]; !ok {
		return fmt.Errorf("tenant %s: %w", t.ID, domain.ErrNotFound)
	}
	v.s.tenants[t.ID] = t
	return nil
}

// SeedTenant is a test/bootstrap helper, not part of domain.Store.
func (s *Store) SeedTenant(t *domain.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.tenants[t.ID] = t
}

func (v *view) CreateOrder(ctx context.Context, o *domain.Order) error {
	if _, ok := v.s.orders[o.ID]; ok {
		return fmt.Errorf("order %s: %w", o.ID, domain.ErrConflict)
	}
	v.s.orders[o.ID] = o
	v.s.trackingCodes[o.TrackingCode] = true
	return nil
}

func (v *view) UpdateOrder(ctx context.Context, o *domain.Order) error {
	existing, ok := v.s.orders[o.ID]
	if !ok || existing.TenantID != o.TenantID {
		return fmt.Errorf("order %s: %w", o.ID, domain.ErrNotFound)
	}
	v.s.orders[o.ID] = o
	return nil
}

func (v *view) GetOrder(ctx context.Context, tenantID, id uuid.UUID) (*domain.Order, error) {
	o, ok := v.s.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return o, nil
}

func (v *view) GetOrderByTrackingCode(ctx context.Context, code string) (*domain.Order, error) {
	for _, o := range v.s.orders {
		if o.TrackingCode == code {
			return o, nil
		}
	}
	return nil, fmt.Errorf("tracking code %s: %w", code, domain.ErrNotFound)
}

func (v *view) GetOrderByShortID(ctx context.Context, tenantID uuid.UUID, shortID int) (*domain.Order, error) {
	for _, o := range v.s.orders {
		if o.TenantID == tenantID && o.ShortID == shortID {
			return o, nil
		}
	}
	return nil, fmt.Errorf("short id %d: %w", shortID, domain.ErrNotFound)
}

func (v *view) ListOrders(ctx context.Context, tenantID uuid.UUID, filter domain.OrderFilter) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range v.s.orders {
		if o.TenantID != tenantID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, o)
	}
	sortOrdersByCreatedAt(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (v *view) ListOrdersByStatus(ctx context.Context, tenantID uuid.UUID, status domain.OrderStatus) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range v.s.orders {
		if o.TenantID == tenantID && o.Status == status {
			out = append(out, o)
		}
	}
	sortOrdersByCreatedAt(out)
	return out, nil
}

func (v *view) ListOrdersByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range v.s.orders {
		if o.TenantID == tenantID && o.BatchID != nil && *o.BatchID == batchID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := 0, 0
		if out[i].StopOrder != nil {
			si = *out[i].StopOrder
		}
		if out[j].StopOrder != nil {
			sj = *out[j].StopOrder
		}
		return si < sj
	})
	return out, nil
}

func (v *view) SearchOrders(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]*domain.Order, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []*domain.Order
	for _, o := range v.s.orders {
		if o.TenantID != tenantID || o.Status == domain.OrderStatusDelivered {
			continue
		}
		if matchesSearch(o, q) {
			out = append(out, o)
			if len(out) >= limit {
				break
			}
		}
	}
	sortOrdersByCreatedAt(out)
	return out, nil
}

func matchesSearch(o *domain.Order, q string) bool {
	if q == "" {
		return false
	}
	q = strings.TrimPrefix(q, "#")
	name := foldDiacritics(strings.ToLower(o.CustomerName))
	code := strings.ToLower(o.TrackingCode)
	return strings.Contains(name, foldDiacritics(q)) ||
		strings.Contains(code, q) ||
		fmt.Sprintf("%d", o.ShortID) == q
}

func (v *view) MaxShortID(ctx context.Context, tenantID uuid.UUID) (int, error) {
	max := 0
	for _, o := range v.s.orders {
		if o.TenantID == tenantID && o.ShortID > max {
			max = o.ShortID
		}
	}
	return max, nil
}

func (v *view) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	return v.s.trackingCodes[code], nil
}

func (v *view) ListOrdersCreatedSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range v.s.orders {
		if o.TenantID == tenantID && !o.CreatedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (v *view) ListDeliveredOrdersSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range v.s.orders {
		if o.TenantID == tenantID && o.Status == domain.OrderStatusDelivered && o.DeliveredAt != nil && !o.DeliveredAt.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (v *view) CreateCourier(ctx context.Context, c *domain.Courier) error {
	if _, ok := v.s.couriers[c.ID]; ok {
		return fmt.Errorf("courier %s: %w", c.ID, domain.ErrConflict)
	}
	v.s.couriers[c.ID] = c
	return nil
}

func (v *view) UpdateCourier(ctx context.Context, c *domain.Courier) error {
	existing, ok := v.s.couriers[c.ID]
	if !ok || existing.TenantID != c.TenantID {
		return fmt.Errorf("courier %s: %w", c.ID, domain.ErrNotFound)
	}
	v.s.couriers[c.ID] = c
	return nil
}

func (v *view) GetCourier(ctx context.Context, tenantID, id uuid.UUID) (*domain.Courier, error) {
	c, ok := v.s.couriers[id]
	if !ok || c.TenantID != tenantID {
		return nil, fmt.Errorf("courier %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (v *view) ListCouriers(ctx context.Context, tenantID uuid.UUID, status *domain.CourierStatus) ([]*domain.Courier, error) {
	var out []*domain.Courier
	for _, c := range v.s.couriers {
		if c.TenantID != tenantID {
			continue
		}
		if status != nil && c.Status != *status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].AvailableSince, out[j].AvailableSince
		switch {
		case ai == nil && aj == nil:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		case ai == nil:
			return false
		case aj == nil:
			return true
		default:
			return ai.Before(*aj)
		}
	})
	return out, nil
}

func (v *view) PhoneInUse(ctx context.Context, tenantID uuid.UUID, phone string) (bool, error) {
	for _, c := range v.s.couriers {
		if c.TenantID == tenantID && c.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (v *view) CreateBatch(ctx context.Context, b *domain.Batch) error {
	if _, ok := v.s.batches[b.ID]; ok {
		return fmt.Errorf("batch %s: %w", b.ID, domain.ErrConflict)
	}
	v.s.batches[b.ID] = b
	return nil
}

func (v *view) UpdateBatch(ctx context.Context, b *domain.Batch) error {
	existing, ok := v.s.batches[b.ID]
	if !ok || existing.TenantID != b.TenantID {
		return fmt.Errorf("batch %s: %w", b.ID, domain.ErrNotFound)
	}
	v.s.batches[b.ID] = b
	return nil
}

func (v *view) GetBatch(ctx context.Context, tenantID, id uuid.UUID) (*domain.Batch, error) {
	b, ok := v.s.batches[id]
	if !ok || b.TenantID != tenantID {
		return nil, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
	}
	return b, nil
}

func (v *view) ListActiveBatches(ctx context.Context, tenantID uuid.UUID) ([]*domain.Batch, error) {
	var out []*domain.Batch
	for _, b := range v.s.batches {
		if b.TenantID == tenantID && b.IsActive() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (v *view) GetActiveBatchForCourier(ctx context.Context, tenantID, courierID uuid.UUID) (*domain.Batch, error) {
	for _, b := range v.s.batches {
		if b.TenantID == tenantID && b.CourierID == courierID && b.IsActive() {
			return b, nil
		}
	}
	return nil, fmt.Errorf("active batch for courier %s: %w", courierID, domain.ErrNotFound)
}

func (v *view) GetDemandPattern(ctx context.Context, tenantID uuid.UUID, weekday, hour int) (*domain.DemandPattern, error) {
	p, ok := v.s.patterns[patternKey{tenantID, weekday, hour}]
	if !ok {
		return nil, fmt.Errorf("demand pattern %d/%d: %w", weekday, hour, domain.ErrNotFound)
	}
	return p, nil
}

func (v *view) UpsertDemandPattern(ctx context.Context, p *domain.DemandPattern) error {
	v.s.patterns[patternKey{p.TenantID, p.Weekday, p.Hour}] = p
	return nil
}

func (v *view) ListDemandPatterns(ctx context.Context, tenantID uuid.UUID) ([]*domain.DemandPattern, error) {
	var out []*domain.DemandPattern
	for k, p := range v.s.patterns {
		if k.tenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].Hour < out[j].Hour
	})
	return out, nil
}

func (v *view) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	// Already inside a transaction: no nested transactions, just run directly.
	return fn(v)
}

func sortOrdersByCreatedAt(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
}
