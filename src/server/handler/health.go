package handler

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// HealthCheck handles GET /healthz
func HealthCheck(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := os.Getenv("MODE")
		if mode == "" {
			mode = "production"
		}

		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "unknown"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "Earthquakes",
			"version":   version,
			"mode":      mode,
			"uptime":    formatUptime(time.Since(startTime)),
			"timestamp": time.Now().Format(time.RFC3339),
			"node": gin.H{
				"hostname": hostname,
			},
		})
	}
}

// LivenessCheck handles GET /livez (Kubernetes liveness probe)
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alive":     true,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /readyz (Kubernetes readiness probe)
func ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ready":     true,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// DebugInfo handles GET /debug/info
func DebugInfo(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"service": gin.H{
			"name":    "Earthquakes",
			"uptime":  time.Since(startTime).String(),
			"started": startTime.Format(time.RFC3339),
		},
		"runtime": gin.H{
			"go_version":    runtime.Version(),
			"num_cpu":       runtime.NumCPU(),
			"num_goroutine": runtime.NumGoroutine(),
		},
		"memory": gin.H{
			"alloc_mb": fmt.Sprintf("%.2f", float64(m.Alloc)/1024/1024),
			"sys_mb":   fmt.Sprintf("%.2f", float64(m.Sys)/1024/1024),
			"num_gc":   m.NumGC,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// formatUptime converts duration to human-readable format (e.g., "2d 5h 30m")
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
