// Package middleware provides HTTP middleware for security and request processing
package middleware

import (
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/earthquakes/src/server/metrics"
)

var (
	// Patterns for normalizing paths (cardinality control)
	uuidRegex      = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	numericIDRegex = regexp.MustCompile(`/\d+(?:/|$)`)
)

// MetricsMiddleware records HTTP metrics for all requests
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.HTTPActiveRequests.Inc()
		defer metrics.HTTPActiveRequests.Dec()

		path := normalizeMetricPath(c.FullPath())
		if path == "" {
			path = normalizeMetricPath(c.Request.URL.Path)
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// normalizeMetricPath replaces dynamic path segments with placeholders so
// metric label cardinality stays bounded.
func normalizeMetricPath(path string) string {
	if path == "" {
		return "/"
	}
	path = uuidRegex.ReplaceAllString(path, ":id")
	path = numericIDRegex.ReplaceAllString(path, "/:id/")
	return path
}
