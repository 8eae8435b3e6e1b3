package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"

	"github.com/apimgr/earthquakes/src/config"
)

// RateLimit applies per-IP rate limiting on inbound requests. The upstream
// fetch path is never throttled; this only shields the listener.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	limiter := httprate.NewRateLimiter(
		cfg.Requests,
		cfg.Window(),
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
	return wrapRateLimiter(limiter, cfg.Window())
}

// wrapRateLimiter adapts httprate.RateLimiter to Gin
func wrapRateLimiter(limiter *httprate.RateLimiter, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		rateLimitExceeded := false

		handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Next()
		}))

		writer := &rateLimitResponseWriter{
			ResponseWriter: c.Writer,
			onLimited: func() {
				rateLimitExceeded = true
			},
		}

		handler.ServeHTTP(writer, c.Request)

		if rateLimitExceeded {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     "Too many requests. Please try again later.",
				"retry_after": int(window.Seconds()),
			})
			c.Abort()
		}
	}
}

// rateLimitResponseWriter wraps gin.ResponseWriter so the 429 httprate
// writes is replaced by our JSON error body.
type rateLimitResponseWriter struct {
	gin.ResponseWriter
	onLimited  func()
	statusCode int
}

func (w *rateLimitResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	if statusCode == http.StatusTooManyRequests {
		w.onLimited()
		return
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *rateLimitResponseWriter) Write(b []byte) (int, error) {
	if w.statusCode == http.StatusTooManyRequests {
		// Swallow httprate's plain-text body; Gin sends the JSON response
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}
