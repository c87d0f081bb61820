package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Edura-Academy/edura-sub002/internal/errs"
	"github.com/Edura-Academy/edura-sub002/internal/middleware"
	"github.com/Edura-Academy/edura-sub002/internal/observability"
	"github.com/Edura-Academy/edura-sub002/internal/telemetry"
)

const requestIDContextKey = "request_id"

// respondError maps a taxonomy error to an HTTP response. Unclassified and
// transient errors get a generic body so store details never leak.
func respondError(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message})
}

func callerID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDPointer(c *gin.Context) *string {
	if id := callerID(c); id != "" {
		return &id
	}
	return nil
}

func auditMeta(c *gin.Context) telemetry.RequestMeta {
	return telemetry.RequestMeta{
		RequestID: requestIDFromContext(c),
		UserID:    userIDPointer(c),
		IP:        observability.IPFromRequest(c.Request),
		DeviceID:  observability.DeviceIDFromRequest(c.Request),
	}
}
