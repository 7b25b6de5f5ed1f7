package http

import (
	"github.com/gin-gonic/gin"

	"github.com/italoogomes/motoflash/internal/core"
	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/pkg/logger"
)

// Services bundles the core application services a Router dispatches into.
type Services struct {
	Orders   *core.OrderService
	Couriers *core.CourierService
	Dispatch *core.DispatchService
	Geocoder Geocoder
	Store    domain.Store
}

// NewRouter builds the gin engine serving every endpoint of §6: a public group for
// order tracking (no tenant header required) and a tenant-scoped group for everything
// else, including the courier-scoped pickup/deliver routes — those omit JWT per §6 but
// still carry tenant scoping, since every Store lookup is tenant-qualified.
func NewRouter(svc Services, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(cors(), requestLogger(log), recovery(log))

	orders := NewOrderHandler(svc.Orders, svc.Geocoder, log)
	couriers := NewCourierHandler(svc.Couriers, log)
	dispatch := NewDispatchHandler(svc.Dispatch, log)

	public := r.Group("/")
	public.GET("/orders/track/:tracking_code", orders.TrackOrder)

	tenant := r.Group("/")
	tenant.Use(tenantInjection(svc.Store, log))
	{
		tenant.POST("/orders", orders.CreateOrder)
		tenant.GET("/orders", orders.ListOrders)
		tenant.GET("/orders/search", orders.SearchOrders)
		tenant.GET("/orders/:id", orders.GetOrder)
		tenant.POST("/orders/:id/scan", orders.ScanOrder)
		tenant.POST("/orders/:id/pickup", orders.PickupOrder)
		tenant.POST("/orders/:id/deliver", orders.DeliverOrder)

		tenant.POST("/couriers", couriers.CreateCourier)
		tenant.GET("/couriers", couriers.ListCouriers)
		tenant.POST("/couriers/:id/available", couriers.GoAvailable)
		tenant.POST("/couriers/:id/offline", couriers.GoOffline)
		tenant.GET("/couriers/:id/current-batch", couriers.CurrentBatch)
		tenant.POST("/couriers/:id/complete-batch", couriers.CompleteBatch)
		tenant.POST("/couriers/:id/orders/:order_id/pickup", orders.CourierPickupOrder)
		tenant.POST("/couriers/:id/orders/:order_id/deliver", orders.CourierDeliverOrder)

		tenant.POST("/dispatch/run", dispatch.Run)
		tenant.GET("/dispatch/batches", dispatch.ActiveBatches)
		tenant.GET("/dispatch/stats", dispatch.Stats)
		tenant.GET("/dispatch/metrics", dispatch.Metrics)
		tenant.GET("/dispatch/alerts", dispatch.Alerts)
		tenant.GET("/dispatch/previsao", dispatch.Forecast)
		tenant.POST("/dispatch/atualizar-padroes", dispatch.RefreshPatterns)
		tenant.GET("/dispatch/padroes", dispatch.Patterns)
	}

	return r
}
