package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a tenant's subscription tier.
type Plan string

const (
	PlanTrial Plan = "trial"
	PlanBasic Plan = "basic"
	PlanPro   Plan = "pro"
)

// Tenant is a restaurant account, the multi-tenancy unit that isolates all data.
type Tenant struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Slug         string    `json:"slug" db:"slug"`
	Name         string    `json:"name" db:"name"`
	Address      string    `json:"address" db:"address"`
	Lat          float64   `json:"lat" db:"lat"`
	Lng          float64   `json:"lng" db:"lng"`
	Plan         Plan      `json:"plan" db:"plan"`
	TrialEndsAt  *time.Time `json:"trial_ends_at,omitempty" db:"trial_ends_at"`
	Blocked      bool      `json:"blocked" db:"blocked"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// BasePoint returns the tenant's dispatch base coordinate, used as the stop-ordering
// origin when sorting stops by road distance.
func (t *Tenant) BasePoint() Point {
	return Point{Lat: t.Lat, Lng: t.Lng}
}

// MaybeExpireTrial flips Blocked true once a trial tenant's TrialEndsAt has passed. It is
// the only mutation a Tenant undergoes outside of creation.
func (t *Tenant) MaybeExpireTrial(now time.Time) bool {
	if t.Plan != PlanTrial || t.Blocked || t.TrialEndsAt == nil {
		return false
	}
	if now.Before(*t.TrialEndsAt) {
		return false
	}
	t.Blocked = true
	return true
}
