package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/pkg/logger"
)

// isNotFound reports whether err wraps domain.ErrNotFound, letting handlers that treat a
// missing entity as a valid "none" result (e.g. GET current-batch) avoid duplicating the
// errors.Is call.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// writeError maps a core error to its HTTP status per the error-reporting policy: every
// sentinel in domain/errors.go is surfaced to the caller with a specific status, and
// anything else is an InternalError — logged in full, reported generically, and never
// leaking internals (routing-client failures never reach here; the Routing Client always
// degrades to a fallback instead of erroring).
func writeError(c *gin.Context, log logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTrialExpired):
		c.Header(TrialExpiredHeader, "true")
		c.JSON(http.StatusForbidden, gin.H{"error": "trial expired"})
	default:
		log.WithField("error", err.Error()).Error("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
