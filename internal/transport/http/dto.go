package http

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/domain"
)

// createOrderRequest is the body of POST /orders.
type createOrderRequest struct {
	CustomerName string   `json:"customer_name"`
	Address      string   `json:"address_text" binding:"required"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	PrepType     string   `json:"prep_type" binding:"required,oneof=short long"`
}

// createCourierRequest is the body of POST /couriers.
type createCourierRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// orderResponse is the wire shape returned for an order, with short_id formatted per
// §6's display convention (display prefix "#").
type orderResponse struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	ShortID      string     `json:"short_id"`
	TrackingCode string     `json:"tracking_code"`
	CustomerName string     `json:"customer_name,omitempty"`
	Address      string     `json:"address"`
	Lat          float64    `json:"lat"`
	Lng          float64    `json:"lng"`
	PrepType     string     `json:"prep_type"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ReadyAt      *time.Time `json:"ready_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	BatchID      *uuid.UUID `json:"batch_id,omitempty"`
	StopOrder    *int       `json:"stop_order,omitempty"`
}

func newOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:           o.ID,
		TenantID:     o.TenantID,
		ShortID:      shortIDDisplay(o.ShortID),
		TrackingCode: o.TrackingCode,
		CustomerName: o.CustomerName,
		Address:      o.Address,
		Lat:          o.Lat,
		Lng:          o.Lng,
		PrepType:     string(o.PrepType),
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		ReadyAt:      o.ReadyAt,
		DeliveredAt:  o.DeliveredAt,
		CancelledAt:  o.CancelledAt,
		BatchID:      o.BatchID,
		StopOrder:    o.StopOrder,
	}
}

func newOrderResponses(orders []*domain.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = newOrderResponse(o)
	}
	return out
}

// trackResponse is the restricted public shape returned by GET /orders/track/{code}: no
// tenant_id, no full address, only what a customer needs to see.
type trackResponse struct {
	ShortID      string     `json:"short_id"`
	TrackingCode string     `json:"tracking_code"`
	CustomerName string     `json:"customer_name,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ReadyAt      *time.Time `json:"ready_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
}

func newTrackResponse(o *domain.Order) trackResponse {
	return trackResponse{
		ShortID:      shortIDDisplay(o.ShortID),
		TrackingCode: o.TrackingCode,
		CustomerName: o.CustomerName,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		ReadyAt:      o.ReadyAt,
		DeliveredAt:  o.DeliveredAt,
	}
}

// shortIDDisplay formats a short id with the "#" display prefix defined in §6.
func shortIDDisplay(shortID int) string {
	return "#" + strconv.Itoa(shortID)
}

// courierResponse is the wire shape for a courier.
type courierResponse struct {
	ID             uuid.UUID  `json:"id"`
	TenantID       uuid.UUID  `json:"tenant_id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Status         string     `json:"status"`
	LastLat        *float64   `json:"last_lat,omitempty"`
	LastLng        *float64   `json:"last_lng,omitempty"`
	AvailableSince *time.Time `json:"available_since,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newCourierResponse(c *domain.Courier) courierResponse {
	return courierResponse{
		ID:             c.ID,
		TenantID:       c.TenantID,
		Name:           c.Name,
		Phone:          c.Phone,
		Status:         string(c.Status),
		LastLat:        c.LastLat,
		LastLng:        c.LastLng,
		AvailableSince: c.AvailableSince,
		UpdatedAt:      c.UpdatedAt,
		CreatedAt:      c.CreatedAt,
	}
}

func newCourierResponses(couriers []*domain.Courier) []courierResponse {
	out := make([]courierResponse, len(couriers))
	for i, c := range couriers {
		out[i] = newCourierResponse(c)
	}
	return out
}

// batchResponse is the wire shape for a batch.
type batchResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	CourierID   uuid.UUID  `json:"courier_id"`
	Status      string     `json:"status"`
	Polyline    *string    `json:"polyline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newBatchResponse(b *domain.Batch) batchResponse {
	return batchResponse{
		ID:          b.ID,
		TenantID:    b.TenantID,
		CourierID:   b.CourierID,
		Status:      string(b.Status),
		Polyline:    b.Polyline,
		CreatedAt:   b.CreatedAt,
		CompletedAt: b.CompletedAt,
	}
}

// batchWithOrdersResponse is the wire shape for GET /dispatch/batches.
type batchWithOrdersResponse struct {
	Batch  batchResponse   `json:"batch"`
	Orders []orderResponse `json:"orders"`
}
