package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/logging"
)

const (
	// HeaderRequestID carries the per-request identifier. It is forwarded on
	// every upstream attempt.
	HeaderRequestID = "X-Request-ID"

	// ContextKeyRequestID is the gin context key of the request ID.
	ContextKeyRequestID = "request_id"
)

// RequestID returns middleware that extracts or generates the request ID and
// attaches it to the context logger.
func RequestID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderRequestID,
		ginKey:     ContextKeyRequestID,
		enrichers:  []enricher{ContextWithRequestID, logging.WithRequestID},
	})
}

// GetRequestID returns the request ID stored by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyRequestID)
}
