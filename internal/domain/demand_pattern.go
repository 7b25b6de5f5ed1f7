package domain

import "github.com/google/uuid"

// DemandPattern is the Predictor's per (tenant, weekday, hour) historical training
// bucket. Uniqueness: (TenantID, Weekday, Hour).
type DemandPattern struct {
	TenantID             uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Weekday              int       `json:"weekday" db:"weekday"` // 0..6
	Hour                 int       `json:"hour" db:"hour"`       // 0..23
	AvgOrdersPerHour     float64   `json:"avg_orders_per_hour" db:"avg_orders_per_hour"`
	AvgPrepMin           float64   `json:"avg_prep_min" db:"avg_prep_min"`
	AvgRouteMin          float64   `json:"avg_route_min" db:"avg_route_min"`
	RecommendedCouriers  int       `json:"recommended_couriers" db:"recommended_couriers"`
	Samples              int       `json:"samples" db:"samples"`
}
