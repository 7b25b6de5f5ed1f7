package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/italoogomes/motoflash/internal/core"
	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/pkg/logger"
)

// CourierHandler serves the courier- and batch-facing endpoints of §6.
type CourierHandler struct {
	couriers *core.CourierService
	validate *validator.Validate
	log      logger.Logger
}

// NewCourierHandler constructs a CourierHandler.
func NewCourierHandler(couriers *core.CourierService, log logger.Logger) *CourierHandler {
	return &CourierHandler{couriers: couriers, validate: validator.New(), log: log}
}

// CreateCourier handles POST /couriers.
func (h *CourierHandler) CreateCourier(c *gin.Context) {
	var req createCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": err.Error()})
		return
	}

	tenant := tenantFrom(c)
	courier, err := h.couriers.Create(c.Request.Context(), tenant.TenantID, req.Name, req.Phone)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.WithField("courier_id", courier.ID).Info("courier created")
	c.JSON(http.StatusCreated, newCourierResponse(courier))
}

// ListCouriers handles GET /couriers?status=.
func (h *CourierHandler) ListCouriers(c *gin.Context) {
	tenant := tenantFrom(c)
	var status *domain.CourierStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := domain.CourierStatus(statusStr)
		status = &s
	}

	couriers, err := h.couriers.List(c.Request.Context(), tenant.TenantID, status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"couriers": newCourierResponses(couriers)})
}

// GoAvailable handles POST /couriers/:id/available.
func (h *CourierHandler) GoAvailable(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	tenant := tenantFrom(c)
	courier, err := h.couriers.GoAvailable(c.Request.Context(), tenant.TenantID, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newCourierResponse(courier))
}

// GoOffline handles POST /couriers/:id/offline.
func (h *CourierHandler) GoOffline(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	tenant := tenantFrom(c)
	courier, err := h.couriers.GoOffline(c.Request.Context(), tenant.TenantID, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newCourierResponse(courier))
}

// CurrentBatch handles GET /couriers/:id/current-batch, returning null when there is none.
func (h *CourierHandler) CurrentBatch(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	tenant := tenantFrom(c)
	batch, err := h.couriers.CurrentBatch(c.Request.Context(), tenant.TenantID, id)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusOK, nil)
			return
		}
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newBatchResponse(batch))
}

// CompleteBatch handles POST /couriers/:id/complete-batch.
func (h *CourierHandler) CompleteBatch(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	tenant := tenantFrom(c)
	batch, err := h.couriers.CompleteBatch(c.Request.Context(), tenant.TenantID, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newBatchResponse(batch))
}
