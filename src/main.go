package main

// Earthquakes - USGS earthquake proxy and globe viewer backend

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apimgr/earthquakes/src/config"
	"github.com/apimgr/earthquakes/src/scheduler"
	"github.com/apimgr/earthquakes/src/server/handler"
	"github.com/apimgr/earthquakes/src/server/metrics"
	"github.com/apimgr/earthquakes/src/server/middleware"
	"github.com/apimgr/earthquakes/src/server/service"
	"github.com/apimgr/earthquakes/src/utils"
)

// getDefaultListenAddress auto-detects IPv6 support and returns dual-stack (::) or IPv4-only (0.0.0.0)
func getDefaultListenAddress() string {
	listener, err := net.Listen("tcp", "[::]:0")
	if err == nil {
		listener.Close()
		// IPv6 dual-stack supported (includes IPv4)
		return "::"
	}
	return "0.0.0.0"
}

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Println(GetVersionString())
			os.Exit(0)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mode := config.DetectMode(cfg.Mode)
	if err := mode.Validate(); err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}
	log.Printf("Running in mode: %s", mode)

	if mode.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics.Init(Version, CommitID, BuildDate)

	appLogger, err := utils.NewLogger(cfg.Log.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger.Info("Earthquakes %s starting", GetVersionString())

	// Services
	earthquakeService := service.NewEarthquakeService(cfg.Upstream)
	viewerManager := service.NewViewerManager(earthquakeService, cfg.Viewer)

	// Handlers
	earthquakeHandler := handler.NewEarthquakeHandler(earthquakeService, appLogger)
	viewerHandler := handler.NewViewerHandler(viewerManager, appLogger)

	// Router
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLogger(appLogger))
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimit(cfg.RateLimit))

	// Earthquake proxy
	r.GET("/earthquakes", earthquakeHandler.HandleEarthquakes)

	// Viewer sessions
	v1 := r.Group("/api/v1")
	v1.Use(middleware.SecurityHeadersAPI())
	{
		v1.GET("/earthquakes", earthquakeHandler.HandleEarthquakes)

		v1.POST("/viewer", viewerHandler.HandleCreate)
		v1.GET("/viewer/:id", viewerHandler.HandleState)
		v1.PUT("/viewer/:id/filter", viewerHandler.HandleFilter)
		v1.GET("/viewer/:id/points", viewerHandler.HandlePoints)
		v1.POST("/viewer/:id/hover", viewerHandler.HandleHover)
		v1.POST("/viewer/:id/theme", viewerHandler.HandleTheme)
		v1.POST("/viewer/:id/animation/start", viewerHandler.HandleAnimationStart)
		v1.POST("/viewer/:id/animation/stop", viewerHandler.HandleAnimationStop)
		v1.POST("/viewer/:id/retry", viewerHandler.HandleRetry)
		v1.DELETE("/viewer/:id", viewerHandler.HandleDelete)
		v1.GET("/viewer/:id/stream", viewerHandler.HandleStream)
	}

	// Health and observability
	r.GET("/healthz", handler.HealthCheck(Version))
	r.GET("/livez", handler.LivenessCheck)
	r.GET("/readyz", handler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if mode.IsDevelopment() {
		r.GET("/debug/info", handler.DebugInfo)
	}

	// Background tasks
	taskScheduler := scheduler.NewScheduler()
	if err := taskScheduler.AddTask("log-rotation", "@daily", func() error {
		return appLogger.RotateLogs()
	}); err != nil {
		log.Fatalf("Failed to register log rotation task: %v", err)
	}
	if err := taskScheduler.AddTaskInterval("viewer-sweep", 5*time.Minute, func() error {
		viewerManager.SweepExpired()
		metrics.ViewerSessionsActive.Set(float64(viewerManager.Count()))
		return nil
	}); err != nil {
		log.Fatalf("Failed to register viewer sweep task: %v", err)
	}
	taskScheduler.Start()

	// Live config reload: only the upstream section applies without restart
	var configWatcher *service.ConfigWatcher
	if configPath := config.FindConfigFile(); configPath != "" {
		configWatcher, err = service.NewConfigWatcher(configPath, func(newCfg *config.Config) error {
			earthquakeService.ApplyConfig(newCfg.Upstream)
			return nil
		})
		if err != nil {
			log.Printf("Config watcher unavailable: %v", err)
		} else if err := configWatcher.Start(); err != nil {
			log.Printf("Failed to start config watcher: %v", err)
		}
	}

	address := cfg.Server.Address
	if address == "" {
		address = getDefaultListenAddress()
	}
	serverAddr := net.JoinHostPort(address, cfg.Server.Port)

	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		appLogger.Server("Listening on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown signals:
	// SIGTERM: kill (systemctl stop)
	// SIGINT: Ctrl+C
	// SIGQUIT: Ctrl+\
	sigChan := make(chan os.Signal, 1)
	baseSignals := []os.Signal{
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	}

	// SIGHUP is ignored: config reloads automatically via the file watcher
	signal.Ignore(syscall.SIGHUP)

	allSignals := make([]os.Signal, 0, len(baseSignals)+len(platformSignals))
	allSignals = append(allSignals, baseSignals...)
	for _, sig := range platformSignals {
		allSignals = append(allSignals, sig)
	}
	signal.Notify(sigChan, allSignals...)

	for sig := range sigChan {
		switch sig {
		case syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT:
			shutdown(srv, taskScheduler, viewerManager, configWatcher, appLogger)
			return
		default:
			if handlePlatformSignal(sig, appLogger) {
				shutdown(srv, taskScheduler, viewerManager, configWatcher, appLogger)
				return
			}
		}
	}
}

// shutdown stops background work, closes live sessions and drains the HTTP
// server with a 5 second deadline.
func shutdown(srv *http.Server, taskScheduler *scheduler.Scheduler, viewerManager *service.ViewerManager, configWatcher *service.ConfigWatcher, appLogger *utils.Logger) {
	log.Println("Received shutdown signal, shutting down gracefully...")

	taskScheduler.Stop()

	if configWatcher != nil {
		if err := configWatcher.Stop(); err != nil {
			log.Printf("Config watcher shutdown error: %v", err)
		}
	}

	viewerManager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited gracefully")
	log.Println("Server exited gracefully")
}
