// Package metrics provides Prometheus-compatible metrics for monitoring
package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quake_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quake_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quake_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)

	// Upstream metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quake_upstream_requests_total",
			Help: "Total number of USGS upstream fetches",
		},
		[]string{"status"},
	)

	UpstreamRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quake_upstream_request_duration_seconds",
			Help:    "USGS upstream fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	EventsFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quake_events_fetched",
			Help:    "Events returned per upstream batch",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000},
		},
	)

	// Viewer metrics
	ViewerSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quake_viewer_sessions_active",
			Help: "Number of live viewer sessions",
		},
	)

	ViewerSessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quake_viewer_sessions_total",
			Help: "Total viewer sessions created",
		},
	)

	ViewerStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quake_viewer_streams_active",
			Help: "Number of attached viewer websockets",
		},
	)

	AnimationsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quake_animations_started_total",
			Help: "Total timed-reveal animations started",
		},
	)

	FilterApplications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quake_filter_applications_total",
			Help: "Total filter recomputations",
		},
	)

	// Scheduler metrics
	SchedulerTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quake_scheduler_tasks_total",
			Help: "Total number of scheduled tasks executed",
		},
		[]string{"task", "status"},
	)

	SchedulerTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quake_scheduler_task_duration_seconds",
			Help:    "Scheduled task duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
		[]string{"task"},
	)

	SchedulerLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quake_scheduler_last_run_timestamp",
			Help: "Timestamp of last task run",
		},
		[]string{"task"},
	)

	// Application info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quake_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "build_date", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quake_app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quake_app_start_timestamp",
			Help: "Application start timestamp",
		},
	)

	// System metrics
	SystemMemoryUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quake_system_memory_used_bytes",
			Help: "System memory used in bytes",
		},
	)

	SystemGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quake_system_goroutines",
			Help: "Number of goroutines",
		},
	)

	SystemGCRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quake_system_gc_runs_total",
			Help: "Total number of GC runs",
		},
	)
)

var (
	initOnce   sync.Once
	startTime  time.Time
	lastGCRuns uint32
)

// Init initializes application info metrics
func Init(version, commit, buildDate string) {
	initOnce.Do(func() {
		startTime = time.Now()
		AppInfo.WithLabelValues(version, commit, buildDate, runtime.Version()).Set(1)
		AppStartTime.SetToCurrentTime()

		go updateMetrics()
	})
}

// updateMetrics periodically updates uptime and system metrics
func updateMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		AppUptime.Set(time.Since(startTime).Seconds())

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		SystemMemoryUsed.Set(float64(m.Alloc))
		SystemGoroutines.Set(float64(runtime.NumGoroutine()))

		if m.NumGC > lastGCRuns {
			SystemGCRuns.Add(float64(m.NumGC - lastGCRuns))
			lastGCRuns = m.NumGC
		}
	}
}

// RecordUpstreamFetch records one USGS fetch
func RecordUpstreamFetch(status string, duration time.Duration, events int) {
	UpstreamRequestsTotal.WithLabelValues(status).Inc()
	UpstreamRequestDuration.Observe(duration.Seconds())
	if status == "ok" {
		EventsFetched.Observe(float64(events))
	}
}

// RecordSchedulerTask records scheduler task execution
func RecordSchedulerTask(task, status string, duration time.Duration) {
	SchedulerTasksTotal.WithLabelValues(task, status).Inc()
	SchedulerTaskDuration.WithLabelValues(task).Observe(duration.Seconds())
	SchedulerLastRun.WithLabelValues(task).SetToCurrentTime()
}
