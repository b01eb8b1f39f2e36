package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/monitoring"
)

// MetricsMiddleware records request durations per method and route.
func MetricsMiddleware(collector *monitoring.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		collector.ObserveHTTPRequest(c.Request.Method, c.FullPath(), time.Since(start))
	}
}
