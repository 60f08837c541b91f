package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"academic-scheduler/pkg/metrics"
)

// Metrics 记录每个请求的耗时，按路由模板聚合
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
