package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID middleware generates or extracts a unique request ID for each
// HTTP request. Existing IDs from proxies and load balancers pass through;
// otherwise a UUID v4 is generated. The ID lands in the context for logging
// and in the response headers for correlation.
const (
	// Context key for storing request ID
	RequestIDKey = "request_id"

	// Header names to check for existing request ID (in priority order)
	HeaderXRequestID     = "X-Request-ID"
	HeaderXRequestId     = "X-Request-Id"
	HeaderXCorrelationID = "X-Correlation-ID"
	HeaderXCorrelationId = "X-Correlation-Id"
	HeaderRequestID      = "Request-ID"
	HeaderRequestId      = "Request-Id"
	// Cloudflare request ID
	HeaderCFRay = "CF-Ray"
	// AWS request ID
	HeaderXAmznTraceID = "X-Amzn-Trace-Id"
)

// RequestID returns a middleware that manages request IDs
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := extractRequestID(c)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(HeaderXRequestID, requestID)

		c.Next()
	}
}

// extractRequestID tries to extract request ID from various headers
func extractRequestID(c *gin.Context) string {
	headers := []string{
		HeaderXRequestID,
		HeaderXRequestId,
		HeaderXCorrelationID,
		HeaderXCorrelationId,
		HeaderRequestID,
		HeaderRequestId,
		HeaderCFRay,
		HeaderXAmznTraceID,
	}

	for _, header := range headers {
		if id := c.GetHeader(header); id != "" {
			return id
		}
	}

	return ""
}

// GetRequestID retrieves the request ID from the context
// Returns empty string if not found
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if requestID, ok := id.(string); ok {
			return requestID
		}
	}
	return ""
}
