package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/pkg/logger"
)

const (
	ctxTenantID = "tenant_id"
	ctxUserID   = "user_id"

	// TrialExpiredHeader distinguishes a trial-expired 403 from an ordinary Forbidden so
	// the frontend can route straight to billing instead of showing a generic error (§7).
	TrialExpiredHeader = "X-Trial-Expired"
)

// tenantInjection stands in for the out-of-scope JWT/auth layer (§1, §6): it reads
// (user_id, tenant_id) off request headers, the shape the bearer token carries once
// decoded, and injects them into gin's context for every handler to pick up via
// tenantFrom. The real auth layer (JWT issuance, password hashing) is an external
// collaborator this module does not implement. It also enforces the one tenant-level
// gate that IS in scope: a trial tenant past its TrialEndsAt is blocked from every core
// call (§3 Tenant.blocked, §7 ErrTrialExpired), lazily flipping Blocked the same way
// Tenant.MaybeExpireTrial is documented to.
func tenantInjection(store domain.Store, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantIDStr := c.GetHeader("X-Tenant-ID")
		tenantID, err := uuid.Parse(tenantIDStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid tenant context"})
			return
		}
		var userID uuid.UUID
		if uidStr := c.GetHeader("X-User-ID"); uidStr != "" {
			userID, _ = uuid.Parse(uidStr)
		}

		tenant, err := store.GetTenant(c.Request.Context(), tenantID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid tenant context"})
			return
		}
		now := time.Now()
		if tenant.MaybeExpireTrial(now) {
			if err := store.UpdateTenant(c.Request.Context(), tenant); err != nil {
				log.WithField("error", err.Error()).Warn("tenant injection: failed to persist trial expiry")
			}
		}
		if tenant.Blocked {
			c.Header(TrialExpiredHeader, "true")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "trial expired"})
			return
		}

		c.Set(ctxTenantID, tenantID)
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

// TenantContext is the per-request tenant/user pair handlers read via tenantFrom; they
// pass its TenantID explicitly into each core call, replacing the source's implicit
// request-global tenant lookup (§9).
type TenantContext struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

func tenantFrom(c *gin.Context) TenantContext {
	return TenantContext{
		TenantID: c.MustGet(ctxTenantID).(uuid.UUID),
		UserID:   c.MustGet(ctxUserID).(uuid.UUID),
	}
}

// requestLogger logs every request at Info level once it completes, with its method,
// path and response status.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Info("request handled")
	}
}

// recovery converts a panic into a 500 response instead of crashing the process.
func recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("recovered from panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// cors allows the dashboard frontend (an external collaborator) to call this API from
// any origin; tightened at deploy time via a reverse proxy, not this module's concern.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Tenant-ID, X-User-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
