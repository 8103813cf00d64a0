package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance_tracker/internal/config"
	"attendance_tracker/internal/export"
	"attendance_tracker/internal/handler"
	"attendance_tracker/internal/jobs"
	"attendance_tracker/internal/live"
	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/metrics"
	"attendance_tracker/internal/middleware"
	"attendance_tracker/internal/repository"
	"attendance_tracker/internal/service"
	"attendance_tracker/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const (
	serviceName     = "attendance-tracker"
	shutdownTimeout = 10 * time.Second
	listenerBackoff = 2 * time.Second
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	if err := config.AutoMigrate(ctx, dbPool); err != nil {
		logg.Error(ctx, "failed to auto-migrate database", err)
		os.Exit(1)
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// --- Change feed ---
	hub := live.NewHub(appMetrics)
	views := live.NewViews()
	go live.NewListener(dbPool, hub, config.LiveChannel, listenerBackoff, logg).Run(ctx)

	// --- Scan sessions ---
	sessions, closeSessions, err := newSessionStore(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to set up scan session store", err)
		os.Exit(1)
	}
	defer closeSessions()

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	// --- Initialize Repositories ---
	uow := repository.NewUnitOfWork(dbPool)

	// --- Initialize Services ---
	authService := service.NewAuthService(uow, jwtUtil, cfg.Stores.InitialCredits, cfg.Stores.ReferenceCodeAttempts, logg)
	storeService := service.NewStoreService(uow, cfg.Stores.ReferenceCodeAttempts, logg)
	attendanceService := service.NewAttendanceService(uow, hub)
	scanService := service.NewScanService(sessions, uow.Stores(), attendanceService, cfg.Scan.SessionTTL, appMetrics, logg)
	rosterService := service.NewRosterService(uow, hub, cfg.Roster.FetchConcurrency)
	reportService := service.NewReportService(uow, storeService, export.NewSink(), service.ReportLayout{
		Location:   cfg.Report.Location(),
		DateLayout: cfg.Report.DateLayout,
		TimeLayout: cfg.Report.TimeLayout,
	}, appMetrics)
	dashboards := service.NewDashboardRegistry(views, storeService, rosterService, hub, logg)

	// --- Scheduled jobs ---
	scheduler := jobs.NewScheduler(ctx, logg, appMetrics)
	if err := scheduler.Register(cfg.Scan.SweepSchedule, jobs.NewScanSessionSweep(scanService, logg)); err != nil {
		logg.Error(ctx, "failed to schedule scan session sweep", err)
		os.Exit(1)
	}
	scheduler.Start()

	// --- Initialize Handlers ---
	if err := handler.RegisterValidators(); err != nil {
		logg.Error(ctx, "failed to register validators", err)
		os.Exit(1)
	}
	authHandler := handler.NewAuthHandler(authService, views, logg)
	storeHandler := handler.NewStoreHandler(storeService, logg)
	scanHandler := handler.NewScanHandler(scanService, logg)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, views, logg)
	dashboardHandler := handler.NewDashboardHandler(dashboards, storeService, rosterService, logg)
	reportHandler := handler.NewReportHandler(reportService, logg)

	// --- Setup Gin Router ---
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logg), middleware.CORS())

	// --- Initialize Middlewares ---
	jwtAuthMW := middleware.JWTAuthMiddleware(jwtUtil)
	adminRoleMW := middleware.AdminMiddleware()
	employeeRoleMW := middleware.EmployeeMiddleware()

	// --- Register Routes ---
	apiGroup := router.Group("/api/v1")
	authHandler.RegisterAuthRoutes(apiGroup, jwtAuthMW)
	storeHandler.RegisterStoreRoutes(apiGroup, jwtAuthMW, adminRoleMW)
	scanHandler.RegisterScanRoutes(apiGroup, jwtAuthMW, employeeRoleMW)
	attendanceHandler.RegisterAttendanceRoutes(apiGroup, jwtAuthMW, employeeRoleMW, adminRoleMW)
	dashboardHandler.RegisterDashboardRoutes(apiGroup, jwtAuthMW, adminRoleMW)
	reportHandler.RegisterReportRoutes(apiGroup, jwtAuthMW, adminRoleMW)

	router.GET("/health", func(c *gin.Context) {
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	// --- Start Server ---
	// Requests derive from streamCtx so that open event streams end on shutdown.
	streamCtx, stopStreams := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return streamCtx },
	}
	srv.RegisterOnShutdown(stopStreams)

	go func() {
		logg.Infof(ctx, "server starting on port %s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "listen failed", err)
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	logg.Info(context.Background(), "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "server forced to shutdown", err)
	}
	scheduler.Stop(shutdownCtx)

	logg.Info(shutdownCtx, "server exiting")
}

// newSessionStore shares scan sessions through Redis when configured, so that
// duplicate triggers are suppressed across replicas.
func newSessionStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (service.SessionStore, func(), error) {
	if cfg.Redis.URL == "" {
		logg.Info(ctx, "ATTENDANCE_REDIS_URL not set, keeping scan sessions in memory")
		return service.NewMemorySessionStore(), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logg.Info(ctx, "scan sessions stored in redis")
	return service.NewRedisSessionStore(client, cfg.Scan.SessionTTL), func() { _ = client.Close() }, nil
}
