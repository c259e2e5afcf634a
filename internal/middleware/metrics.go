package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procure-mr-api/internal/service"
)

// Metrics observes request rate and latency per route. Unmatched routes are
// labelled by raw path so 404 noise stays visible without exploding label
// cardinality on real routes.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return c.Request.URL.Path
}
