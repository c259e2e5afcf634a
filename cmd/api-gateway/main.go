package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/procure-mr-api/api/swagger"
	"github.com/noah-isme/procure-mr-api/internal/handler"
	"github.com/noah-isme/procure-mr-api/internal/middleware"
	"github.com/noah-isme/procure-mr-api/internal/models"
	"github.com/noah-isme/procure-mr-api/internal/repository"
	"github.com/noah-isme/procure-mr-api/internal/service"
	"github.com/noah-isme/procure-mr-api/pkg/cache"
	"github.com/noah-isme/procure-mr-api/pkg/config"
	"github.com/noah-isme/procure-mr-api/pkg/database"
	"github.com/noah-isme/procure-mr-api/pkg/export"
	"github.com/noah-isme/procure-mr-api/pkg/jobs"
	"github.com/noah-isme/procure-mr-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/procure-mr-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/procure-mr-api/pkg/middleware/requestid"
	"github.com/noah-isme/procure-mr-api/pkg/storage"
)

// @title Procure MR API
// @version 1.0.0
// @description Material request purchasing workflow API
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
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	businessUnitRepo := repository.NewBusinessUnitRepository(db)
	itemRepo := repository.NewItemRepository(db)
	seriesRepo := repository.NewSeriesRepository(db)
	requestRepo := repository.NewMaterialRequestRepository(db)
	printJobRepo := repository.NewPrintJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, businessUnitRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "procure-mr-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	businessUnitSvc := service.NewBusinessUnitService(businessUnitRepo, seriesRepo, userRepo, validate, logr)
	itemSvc := service.NewItemService(itemRepo, validate, logr)
	requestSvc := service.NewMaterialRequestService(requestRepo, seriesRepo, userRepo, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The posting worker calls back into the approval service, so the queue
	// handler resolves the worker lazily.
	var postingWorker *service.PostingWorker
	postingQueue := jobs.NewQueue("posting", func(ctx context.Context, job jobs.Job) error {
		return postingWorker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Posting.WorkerConcurrency,
		MaxRetries: cfg.Posting.WorkerRetries,
		Logger:     logr,
	})

	approvalSvc := service.NewApprovalService(requestRepo, userRepo, service.NewQueuePostingDispatcher(postingQueue), validate, logr).WithMetrics(metricsSvc)
	postingWorker = service.NewPostingWorker(approvalSvc, logr)
	postingQueue.Start(ctx)
	defer postingQueue.Stop()

	dashboardSvc := service.NewDashboardService(requestRepo, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL:            cfg.Dashboard.CacheTTL,
		PendingListLimit:    10,
		RecentActivityLimit: 20,
	}).WithMetrics(metricsSvc)
	approvalSvc.WithDashboardInvalidator(dashboardSvc)

	var printoutSvc *service.PrintoutService
	if cfg.Printouts.Enabled {
		localStorage, err := storage.NewLocalStorage(cfg.Printouts.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init printout storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Printouts.SignedURLSecret, cfg.Printouts.SignedURLTTL)
		generator := service.NewPrintoutGenerator(requestRepo, localStorage, signer, service.PrintoutGeneratorConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Printouts.SignedURLTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		printWorker := service.NewPrintWorker(printJobRepo, generator, cfg.Printouts.WorkerRetries, logr)
		printQueue := jobs.NewQueue("printouts", printWorker.Handle, jobs.QueueConfig{
			Workers:    cfg.Printouts.WorkerConcurrency,
			MaxRetries: cfg.Printouts.WorkerRetries,
			Logger:     logr,
		})
		printQueue.Start(ctx)
		defer printQueue.Stop()

		printoutSvc = service.NewPrintoutService(printJobRepo, printQueue, generator, validate, logr, service.PrintoutServiceConfig{
			ResultTTL:       cfg.Printouts.SignedURLTTL,
			CleanupInterval: cfg.Printouts.CleanupInterval,
			MaxRetries:      cfg.Printouts.WorkerRetries,
		})
		printoutSvc.RecoverPendingJobs(ctx)
		printoutSvc.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	businessUnitHandler := handler.NewBusinessUnitHandler(businessUnitSvc)
	itemHandler := handler.NewItemHandler(itemSvc)
	requestHandler := handler.NewMaterialRequestHandler(requestSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	users := authed.Group("/users")
	users.GET("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.List)
	users.GET("/:id", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), middleware.SelfRole), userHandler.Get)
	users.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.Create)
	users.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.Update)
	users.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin), userHandler.Delete)

	units := authed.Group("/business-units")
	adminOnly := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	units.GET("", businessUnitHandler.List)
	units.GET("/mine", businessUnitHandler.Mine)
	units.GET("/:id", businessUnitHandler.Get)
	units.POST("", adminOnly, businessUnitHandler.Create)
	units.PUT("/:id", adminOnly, businessUnitHandler.Update)
	units.GET("/:id/departments", businessUnitHandler.ListDepartments)
	units.POST("/:id/departments", adminOnly, businessUnitHandler.CreateDepartment)
	units.PUT("/:id/departments/:departmentId", adminOnly, businessUnitHandler.UpdateDepartment)
	units.POST("/:id/members", adminOnly, businessUnitHandler.AddMember)
	units.DELETE("/:id/members/:userId", adminOnly, businessUnitHandler.RemoveMember)
	units.GET("/:id/series", businessUnitHandler.ListSeries)
	units.POST("/:id/series", adminOnly, businessUnitHandler.CreateSeries)

	items := authed.Group("/items")
	items.GET("", itemHandler.List)
	items.GET("/:code", itemHandler.Get)
	items.POST("", adminOnly, itemHandler.Create)
	items.PUT("/:code", adminOnly, itemHandler.Update)

	scoped := authed.Group("")
	scoped.Use(middleware.BusinessUnitScope(businessUnitRepo))

	requests := scoped.Group("/requests")
	requests.GET("", requestHandler.List)
	requests.POST("", requestHandler.Create)
	requests.GET("/:id", requestHandler.Get)
	requests.PUT("/:id", requestHandler.Update)
	requests.DELETE("/:id", requestHandler.Delete)
	requests.GET("/:id/events", requestHandler.ListEvents)
	requests.POST("/:id/submit", approvalHandler.Submit)
	requests.POST("/:id/recommend", approvalHandler.Recommend)
	requests.POST("/:id/approve", approvalHandler.Finalize)
	requests.POST("/:id/disapprove", approvalHandler.Disapprove)
	requests.POST("/:id/recall", approvalHandler.Recall)
	requests.POST("/:id/cancel", approvalHandler.Cancel)
	requests.POST("/:id/post", approvalHandler.Post)
	requests.POST("/:id/complete", approvalHandler.Complete)

	if cfg.Dashboard.Enabled {
		scoped.GET("/dashboard", dashboardHandler.Summary)
	}

	if printoutSvc != nil {
		printoutHandler := handler.NewPrintoutHandler(printoutSvc)
		printouts := scoped.Group("/printouts")
		printouts.POST("", middleware.Audit(userRepo, models.AuditActionPrintout, "printouts"), printoutHandler.Create)
		printouts.GET("/:id", printoutHandler.Status)
		authed.GET("/printouts/download/:token", printoutHandler.Download)
	}

	authed.GET("/metrics/snapshot", adminOnly, metricsHandler.Snapshot)

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

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
