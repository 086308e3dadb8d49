package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:         http.StatusBadRequest,
	apperr.KindNotFound:           http.StatusNotFound,
	apperr.KindModerationRejected: http.StatusUnprocessableEntity,
	apperr.KindMalformedResponse:  http.StatusBadGateway,
	apperr.KindServiceUnavailable: http.StatusServiceUnavailable,
	apperr.KindUnsupported:        http.StatusNotImplemented,
}

// respondError writes err as {"error","kind"} with the status for its kind.
// Only the short message of a classified error reaches the client.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	e, ok := apperr.As(err)
	if !ok {
		logger.Error(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "kind": "Internal"})
		return
	}

	status, known := statusByKind[e.Kind]
	if !known {
		status = http.StatusInternalServerError
	}
	body := gin.H{"error": e.Message, "kind": e.Kind}
	for k, v := range e.Details {
		body[k] = v
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body, writing a 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": apperr.KindValidation})
		return false
	}
	return true
}
