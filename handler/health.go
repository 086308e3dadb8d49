package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Hmmmm3247/ContractGuard/service"
)

// Health reports liveness and the AI circuit state.
func Health(breaker *service.BreakerGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if breaker != nil {
			body["ai_circuit"] = breaker.State()
		}
		c.JSON(http.StatusOK, body)
	}
}

// Resources serves the demo contracts and legal myths.
func Resources(c *gin.Context) {
	c.JSON(http.StatusOK, service.LearningResources())
}
