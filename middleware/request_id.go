package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags each request with an id, reusing a client-supplied one, and
// carries it into the request context for service-level logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}

		c.Header(requestIDHeader, requestID)
		c.Set(string(logger.RequestIDKey), requestID)
		c.Request = c.Request.WithContext(logger.With(c.Request.Context(), logger.RequestIDKey, requestID))

		c.Next()
	}
}

// GetRequestID gets the request ID from gin context
func GetRequestID(c *gin.Context) string {
	return c.GetString(string(logger.RequestIDKey))
}
