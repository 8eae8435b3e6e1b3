package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/earthquakes/src/utils"
)

// AccessLogger creates middleware for logging HTTP requests
func AccessLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		clientIP := c.ClientIP()
		method := c.Request.Method
		path := c.Request.URL.Path
		protocol := c.Request.Proto
		statusCode := c.Writer.Status()
		bodySize := int64(c.Writer.Size())
		referer := c.Request.Referer()
		userAgent := c.Request.UserAgent()

		logger.Access(clientIP, "", method, path, protocol, statusCode, bodySize, referer, userAgent)

		// Slow requests get a second line in the error log
		if duration > 1*time.Second {
			logger.Error("Slow request: %s %s took %v", method, path, duration)
		}
	}
}
