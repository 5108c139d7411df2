package middleware

import (
	"time"

	"leadscore_backend/platform/metrics"

	"github.com/gin-gonic/gin"
)

// RequestTimer records request latency per matched route.
func RequestTimer() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
