package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ultraval/secure-desk-api/api/swagger"
	"github.com/ultraval/secure-desk-api/internal/handler"
	"github.com/ultraval/secure-desk-api/internal/middleware"
	"github.com/ultraval/secure-desk-api/internal/models"
	"github.com/ultraval/secure-desk-api/internal/repository"
	"github.com/ultraval/secure-desk-api/internal/service"
	"github.com/ultraval/secure-desk-api/pkg/cache"
	"github.com/ultraval/secure-desk-api/pkg/config"
	"github.com/ultraval/secure-desk-api/pkg/database"
	"github.com/ultraval/secure-desk-api/pkg/logger"
	corsmiddleware "github.com/ultraval/secure-desk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ultraval/secure-desk-api/pkg/middleware/requestid"
	"github.com/ultraval/secure-desk-api/pkg/storage"
)

// @title UltraVal Secure Desk API
// @version 1.0.0
// @description Incident desk and biweekly counter reporting for monitored rooms
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	classificationRepo := repository.NewClassificationRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	quincenaRepo := repository.NewQuincenaRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	movementRepo := repository.NewAssetMovementRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Quincena.CacheTTL, logr, redisClient != nil)
	capabilitySvc := service.NewCapabilityService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, capabilitySvc, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	classificationSvc := service.NewClassificationService(classificationRepo, validate, logr)
	quincenaSvc := service.NewQuincenaService(quincenaRepo, cacheSvc, metricsSvc, logr, cfg.Quincena.CacheTTL)
	incidentSvc := service.NewIncidentService(incidentRepo, classificationRepo, roomRepo, quincenaSvc, userRepo, metricsSvc, validate, logr)
	reconcileSvc := service.NewReconcileService(quincenaRepo, cacheSvc, userRepo, logr, service.ReconcileConfig{
		Schedule: cfg.Quincena.ReconcileSchedule,
		Months:   cfg.Quincena.ReconcileMonths,
		Enabled:  cfg.Quincena.ReconcileEnabled,
	})
	paymentSvc := service.NewPaymentService(paymentRepo, incidentRepo, validate, logr)
	movementSvc := service.NewAssetMovementService(movementRepo, roomRepo, validate, logr)
	dailySvc := service.NewDailyReportService(incidentRepo, paymentRepo, movementRepo, cacheSvc, logr, cfg.Daily.CacheTTL)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(exportJobRepo, quincenaSvc, dailySvc, store, signer, service.ExportConfig{
			APIPrefix:         cfg.APIPrefix,
			ResultTTL:         cfg.Exports.SignedURLTTL,
			WorkerConcurrency: cfg.Exports.WorkerConcurrency,
			WorkerRetries:     cfg.Exports.WorkerRetries,
		}, validate, logr)
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reconcileSvc.Start(); err != nil {
		logr.Sugar().Fatalw("failed to start reconcile scheduler", "error", err)
	}
	defer reconcileSvc.Stop()

	if exportSvc != nil {
		exportSvc.Start(rootCtx)
		defer exportSvc.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-rootCtx.Done():
					return
				case <-ticker.C:
					exportSvc.Cleanup(rootCtx)
				}
			}
		}()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, routeDeps{
		userRepo:        userRepo,
		authSvc:         authSvc,
		capabilitySvc:   capabilitySvc,
		metricsSvc:      metricsSvc,
		auth:            handler.NewAuthHandler(authSvc),
		users:           handler.NewUserHandler(userSvc),
		rooms:           handler.NewRoomHandler(roomSvc),
		classifications: handler.NewClassificationHandler(classificationSvc),
		incidents:       handler.NewIncidentHandler(incidentSvc),
		quincena:        handler.NewQuincenaHandler(quincenaSvc, reconcileSvc),
		payments:        handler.NewPaymentHandler(paymentSvc),
		movements:       handler.NewAssetMovementHandler(movementSvc),
		reports:         handler.NewReportHandler(dailySvc),
		exports:         exportSvc,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

type routeDeps struct {
	userRepo      *repository.UserRepository
	authSvc       *service.AuthService
	capabilitySvc *service.CapabilityService
	metricsSvc    *service.MetricsService

	auth            *handler.AuthHandler
	users           *handler.UserHandler
	rooms           *handler.RoomHandler
	classifications *handler.ClassificationHandler
	incidents       *handler.IncidentHandler
	quincena        *handler.QuincenaHandler
	payments        *handler.PaymentHandler
	movements       *handler.AssetMovementHandler
	reports         *handler.ReportHandler
	exports         *service.ExportService
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps routeDeps) {
	api := r.Group(cfg.APIPrefix)

	metricsHandler := handler.NewMetricsHandler(deps.metricsSvc)
	r.GET("/metrics", metricsHandler.Prometheus)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.auth.Login)
		auth.POST("/refresh", deps.auth.Refresh)
		auth.POST("/logout", deps.auth.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.authSvc))

	protected.GET("/auth/me", deps.auth.Me)
	protected.GET("/auth/capabilities", deps.users.Capabilities)
	protected.POST("/auth/change-password", deps.auth.ChangePassword)

	protected.GET("/metrics/snapshot", metricsHandler.Snapshot)

	requires := func(capability models.Capability) gin.HandlerFunc {
		return middleware.RequireCapability(deps.capabilitySvc, capability)
	}
	audits := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.userRepo, action, resource)
	}

	users := protected.Group("/users")
	{
		users.GET("", requires(models.CapUsersManage), deps.users.List)
		users.GET("/:id", requires(models.CapUsersManage), deps.users.Get)
		users.POST("", requires(models.CapUsersManage), audits("CREATE", "users"), deps.users.Create)
		users.PUT("/:id", requires(models.CapUsersManage), audits("UPDATE", "users"), deps.users.Update)
		users.DELETE("/:id", requires(models.CapUsersManage), audits("DEACTIVATE", "users"), deps.users.Deactivate)
	}

	rooms := protected.Group("/rooms")
	{
		rooms.GET("", deps.rooms.List)
		rooms.GET("/:id", deps.rooms.Get)
		rooms.POST("", requires(models.CapRoomsManage), audits("CREATE", "rooms"), deps.rooms.Create)
		rooms.PUT("/:id", requires(models.CapRoomsManage), audits("UPDATE", "rooms"), deps.rooms.Update)
		rooms.DELETE("/:id", requires(models.CapRoomsManage), audits("DEACTIVATE", "rooms"), deps.rooms.Deactivate)
	}

	classifications := protected.Group("/classifications")
	{
		classifications.GET("", deps.classifications.List)
		classifications.GET("/:id", deps.classifications.Get)
		classifications.POST("", requires(models.CapClassifyManage), audits("CREATE", "classifications"), deps.classifications.Create)
		classifications.PUT("/:id", requires(models.CapClassifyManage), audits("UPDATE", "classifications"), deps.classifications.Update)
	}

	incidents := protected.Group("/incidents")
	{
		incidents.GET("", requires(models.CapIncidentsRead), deps.incidents.List)
		incidents.GET("/:id", requires(models.CapIncidentsRead), deps.incidents.Get)
		incidents.POST("", requires(models.CapIncidentsCreate), audits("CREATE", "incidents"), deps.incidents.Create)
		incidents.PUT("/:id/assign", requires(models.CapIncidentsAssign), audits("ASSIGN", "incidents"), deps.incidents.Assign)
		incidents.PUT("/:id/status", requires(models.CapIncidentsClose), audits("UPDATE_STATUS", "incidents"), deps.incidents.UpdateStatus)
	}

	quincena := protected.Group("/quincena")
	{
		quincena.GET("/stats", requires(models.CapQuincenaRead), deps.quincena.Stats)
		quincena.GET("/timeline", requires(models.CapQuincenaRead), deps.quincena.Timeline)
		quincena.GET("/current", requires(models.CapQuincenaRead), deps.quincena.Current)
		quincena.POST("/reconcile", requires(models.CapQuincenaRebuild), audits("RECONCILE", "quincena"), deps.quincena.Reconcile)
	}

	payments := protected.Group("/payments")
	{
		payments.GET("", requires(models.CapPaymentsRead), deps.payments.List)
		payments.POST("", requires(models.CapPaymentsWrite), audits("CREATE", "payments"), deps.payments.Create)
	}

	movements := protected.Group("/movements")
	{
		movements.GET("", requires(models.CapMovementsRead), deps.movements.List)
		movements.POST("", requires(models.CapMovementsWrite), audits("CREATE", "movements"), deps.movements.Create)
	}

	protected.GET("/reports/daily", requires(models.CapReportsRead), deps.reports.Daily)

	if deps.exports != nil {
		exportHandler := handler.NewExportHandler(deps.exports)
		exports := protected.Group("/exports")
		{
			exports.POST("", requires(models.CapExportsCreate), audits("CREATE", "exports"), exportHandler.Queue)
			exports.GET("/:id", requires(models.CapExportsCreate), exportHandler.Status)
		}
		// Download is signed-URL authenticated, not session authenticated.
		api.GET("/exports/download", exportHandler.Download)
	}
}
