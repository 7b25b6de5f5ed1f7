package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/core"
	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/pkg/logger"
)

// OrderHandler serves the order-facing endpoints of §6.
type OrderHandler struct {
	orders   *core.OrderService
	geocoder Geocoder
	validate *validator.Validate
	log      logger.Logger
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *core.OrderService, geocoder Geocoder, log logger.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, geocoder: geocoder, validate: validator.New(), log: log}
}

// CreateOrder handles POST /orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": err.Error()})
		return
	}

	point, err := h.resolvePoint(c, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	tenant := tenantFrom(c)
	order, err := h.orders.Create(c.Request.Context(), tenant.TenantID, core.CreateOrderInput{
		CustomerName: req.CustomerName,
		Address:      req.Address,
		Point:        point,
		PrepType:     domain.PrepType(req.PrepType),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.WithField("order_id", order.ID).Info("order created")
	c.JSON(http.StatusCreated, newOrderResponse(order))
}

func (h *OrderHandler) resolvePoint(c *gin.Context, req createOrderRequest) (domain.Point, error) {
	if req.Lat != nil && req.Lng != nil {
		return domain.Point{Lat: *req.Lat, Lng: *req.Lng}, nil
	}
	return h.geocoder.Geocode(c.Request.Context(), req.Address)
}

// ListOrders handles GET /orders?status=&limit=.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	tenant := tenantFrom(c)
	filter := domain.OrderFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.OrderStatus(statusStr)
		filter.Status = &status
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = n
		}
	}

	orders, err := h.orders.List(c.Request.Context(), tenant.TenantID, filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": newOrderResponses(orders)})
}

// GetOrder handles GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	tenant := tenantFrom(c)
	order, err := h.orders.Get(c.Request.Context(), tenant.TenantID, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// TrackOrder handles the public GET /orders/track/:tracking_code.
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	code := c.Param("tracking_code")
	order, err := h.orders.GetByTrackingCode(c.Request.Context(), code)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newTrackResponse(order))
}

// SearchOrders handles GET /orders/search?q=.
func (h *OrderHandler) SearchOrders(c *gin.Context) {
	tenant := tenantFrom(c)
	query := c.Query("q")
	orders, err := h.orders.Search(c.Request.Context(), tenant.TenantID, query)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": newOrderResponses(orders)})
}

// ScanOrder handles POST /orders/:id/scan.
func (h *OrderHandler) ScanOrder(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	tenant := tenantFrom(c)
	order, err := h.orders.ScanQR(c.Request.Context(), tenant.TenantID, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// PickupOrder handles POST /orders/:id/pickup.
func (h *OrderHandler) PickupOrder(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	tenant := tenantFrom(c)
	order, err := h.orders.Pickup(c.Request.Context(), tenant.TenantID, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// DeliverOrder handles POST /orders/:id/deliver.
func (h *OrderHandler) DeliverOrder(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	tenant := tenantFrom(c)
	order, err := h.orders.Deliver(c.Request.Context(), tenant.TenantID, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// CourierPickupOrder handles the public POST /couriers/:id/orders/:order_id/pickup:
// authorized iff order_id belongs to the courier's active batch.
func (h *OrderHandler) CourierPickupOrder(c *gin.Context) {
	h.courierOrderAction(c, h.orders.CourierPickup)
}

// CourierDeliverOrder handles the public POST /couriers/:id/orders/:order_id/deliver.
func (h *OrderHandler) CourierDeliverOrder(c *gin.Context) {
	h.courierOrderAction(c, h.orders.CourierDeliver)
}

type courierOrderActionFunc func(ctx context.Context, tenantID, courierID, orderID uuid.UUID) (*domain.Order, error)

func (h *OrderHandler) courierOrderAction(c *gin.Context, action courierOrderActionFunc) {
	courierID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "order_id")
	if !ok {
		return
	}
	tenant := tenantFrom(c)
	order, err := action(c.Request.Context(), tenant.TenantID, courierID, orderID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// parseUUIDParam parses a gin path parameter as a UUID, writing a 400 response and
// returning ok=false on failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.UUID{}, false
	}
	return id, true
}
