package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/pkg/metrics"
)

// Metrics records per-route request latencies. The route template is used
// instead of the raw path to keep label cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.APILatency.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
