package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/italoogomes/motoflash/internal/core"
	"github.com/italoogomes/motoflash/pkg/logger"
)

// DispatchHandler serves the dispatch/stats/metrics/alerts/predictor endpoints of §6.
type DispatchHandler struct {
	dispatch *core.DispatchService
	log      logger.Logger
}

// NewDispatchHandler constructs a DispatchHandler.
func NewDispatchHandler(dispatch *core.DispatchService, log logger.Logger) *DispatchHandler {
	return &DispatchHandler{dispatch: dispatch, log: log}
}

// Run handles POST /dispatch/run.
func (h *DispatchHandler) Run(c *gin.Context) {
	tenant := tenantFrom(c)
	result, err := h.dispatch.Run(c.Request.Context(), tenant.TenantID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"batches_created": result.BatchesCreated,
		"orders_assigned": result.OrdersAssigned,
		"message":         result.Message,
	})
}

// ActiveBatches handles GET /dispatch/batches.
func (h *DispatchHandler) ActiveBatches(c *gin.Context) {
	tenant := tenantFrom(c)
	batches, err := h.dispatch.ActiveBatches(c.Request.Context(), tenant.TenantID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	out := make([]batchWithOrdersResponse, len(batches))
	for i, b := range batches {
		out[i] = batchWithOrdersResponse{
			Batch:  newBatchResponse(b.Batch),
			Orders: newOrderResponses(b.Orders),
		}
	}
	c.JSON(http.StatusOK, gin.H{"batches": out})
}

// Stats handles GET /dispatch/stats.
func (h *DispatchHandler) Stats(c *gin.Context) {
	tenant := tenantFrom(c)
	stats, err := h.dispatch.Stats(c.Request.Context(), tenant.TenantID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"couriers": gin.H{
			"available": stats.CouriersAvailable,
			"busy":      stats.CouriersBusy,
			"offline":   stats.CouriersOffline,
		},
		"orders_by_status": stats.OrdersByStatus,
	})
}

// Metrics handles GET /dispatch/metrics.
func (h *DispatchHandler) Metrics(c *gin.Context) {
	tenant := tenantFrom(c)
	snap, err := h.dispatch.Metrics(c.Request.Context(), tenant.TenantID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Alerts handles GET /dispatch/alerts.
func (h *DispatchHandler) Alerts(c *gin.Context) {
	tenant := tenantFrom(c)
	result, err := h.dispatch.Alerts(c.Request.Context(), tenant.TenantID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Forecast handles GET /dispatch/previsao.
func (h *DispatchHandler) Forecast(c *gin.Context) {
	tenant := tenantFrom(c)
	forecast, err := h.dispatch.Forecast(c.Request.Context(), tenant.TenantID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// RefreshPatterns handles POST /dispatch/atualizar-padroes.
func (h *DispatchHandler) RefreshPatterns(c *gin.Context) {
	tenant := tenantFrom(c)
	if err := h.dispatch.RefreshPatterns(c.Request.Context(), tenant.TenantID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "patterns refreshed"})
}

// Patterns handles GET /dispatch/padroes.
func (h *DispatchHandler) Patterns(c *gin.Context) {
	tenant := tenantFrom(c)
	patterns, err := h.dispatch.Patterns(c.Request.Context(), tenant.TenantID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}
